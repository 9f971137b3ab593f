package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"group-service/internal/listing"
	"group-service/internal/models"
	"group-service/internal/repositories"
)

type GroupRepositoryMock struct {
	mock.Mock
}

func (m *GroupRepositoryMock) CreateGroup(ctx context.Context, group *models.Group) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *GroupRepositoryMock) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	args := m.Called(ctx, groupID)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) ListGroups(ctx context.Context, params listing.Params) ([]models.Group, int, error) {
	args := m.Called(ctx, params)
	var groups []models.Group
	if val := args.Get(0); val != nil {
		groups = val.([]models.Group)
	}
	return groups, args.Int(1), args.Error(2)
}

func (m *GroupRepositoryMock) UpdateGroup(ctx context.Context, group *models.Group) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *GroupRepositoryMock) DeleteGroup(ctx context.Context, groupID int) error {
	args := m.Called(ctx, groupID)
	return args.Error(0)
}

func (m *GroupRepositoryMock) LikeGroup(ctx context.Context, groupID int) error {
	args := m.Called(ctx, groupID)
	return args.Error(0)
}

func (m *GroupRepositoryMock) AdjustPostCount(ctx context.Context, groupID, delta int) error {
	args := m.Called(ctx, groupID, delta)
	return args.Error(0)
}

func (m *GroupRepositoryMock) AppendBadge(ctx context.Context, groupID int, token string) error {
	args := m.Called(ctx, groupID, token)
	return args.Error(0)
}

type PostRepositoryMock struct {
	mock.Mock
}

func (m *PostRepositoryMock) CreatePost(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *PostRepositoryMock) GetPost(ctx context.Context, postID int) (models.Post, error) {
	args := m.Called(ctx, postID)
	var post models.Post
	if val := args.Get(0); val != nil {
		post = val.(models.Post)
	}
	return post, args.Error(1)
}

func (m *PostRepositoryMock) ListPosts(ctx context.Context, groupID int, params listing.Params) ([]models.Post, int, error) {
	args := m.Called(ctx, groupID, params)
	var posts []models.Post
	if val := args.Get(0); val != nil {
		posts = val.([]models.Post)
	}
	return posts, args.Int(1), args.Error(2)
}

func (m *PostRepositoryMock) ListGroupPosts(ctx context.Context, groupID int) ([]models.Post, error) {
	args := m.Called(ctx, groupID)
	var posts []models.Post
	if val := args.Get(0); val != nil {
		posts = val.([]models.Post)
	}
	return posts, args.Error(1)
}

func (m *PostRepositoryMock) UpdatePost(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *PostRepositoryMock) DeletePost(ctx context.Context, postID int) error {
	args := m.Called(ctx, postID)
	return args.Error(0)
}

func (m *PostRepositoryMock) LikePost(ctx context.Context, postID int) error {
	args := m.Called(ctx, postID)
	return args.Error(0)
}

func (m *PostRepositoryMock) AdjustCommentCount(ctx context.Context, postID, delta int) error {
	args := m.Called(ctx, postID, delta)
	return args.Error(0)
}

func (m *PostRepositoryMock) CountDistinctPostDays(ctx context.Context, groupID int) (int, error) {
	args := m.Called(ctx, groupID)
	return args.Int(0), args.Error(1)
}

func (m *PostRepositoryMock) SumLikeCounts(ctx context.Context, groupID int) (int, error) {
	args := m.Called(ctx, groupID)
	return args.Int(0), args.Error(1)
}

type CommentRepositoryMock struct {
	mock.Mock
}

func (m *CommentRepositoryMock) CreateComment(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *CommentRepositoryMock) GetComment(ctx context.Context, commentID int) (models.Comment, error) {
	args := m.Called(ctx, commentID)
	var comment models.Comment
	if val := args.Get(0); val != nil {
		comment = val.(models.Comment)
	}
	return comment, args.Error(1)
}

func (m *CommentRepositoryMock) ListComments(ctx context.Context, postID int, params listing.Params) ([]models.Comment, int, error) {
	args := m.Called(ctx, postID, params)
	var comments []models.Comment
	if val := args.Get(0); val != nil {
		comments = val.([]models.Comment)
	}
	return comments, args.Int(1), args.Error(2)
}

func (m *CommentRepositoryMock) UpdateComment(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *CommentRepositoryMock) DeleteComment(ctx context.Context, commentID int) error {
	args := m.Called(ctx, commentID)
	return args.Error(0)
}

var _ repositories.GroupRepository = (*GroupRepositoryMock)(nil)
var _ repositories.PostRepository = (*PostRepositoryMock)(nil)
var _ repositories.CommentRepository = (*CommentRepositoryMock)(nil)
