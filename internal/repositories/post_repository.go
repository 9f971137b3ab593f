package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"group-service/internal/listing"
	"group-service/internal/models"
)

var ErrPostNotFound = errors.New("post not found")

const postColumns = `id, group_id, nickname, title, content, post_password, image_url, tags, location, moment, is_public, like_count, comment_count, created_at`

// PostRepository abstracts post persistence, including the aggregate
// queries the badge rules scan at evaluation time.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, postID int) (models.Post, error)
	ListPosts(ctx context.Context, groupID int, params listing.Params) ([]models.Post, int, error)
	ListGroupPosts(ctx context.Context, groupID int) ([]models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, postID int) error
	LikePost(ctx context.Context, postID int) error
	AdjustCommentCount(ctx context.Context, postID, delta int) error
	CountDistinctPostDays(ctx context.Context, groupID int) (int, error)
	SumLikeCounts(ctx context.Context, groupID int) (int, error)
}

// PostRepo is a sqlx implementation of PostRepository.
type PostRepo struct {
	db *sqlx.DB
}

// NewPostRepo constructs a PostRepo.
func NewPostRepo(db *sqlx.DB) *PostRepo {
	return &PostRepo{db: db}
}

// CreatePost inserts a post and fills in the generated columns.
func (r *PostRepo) CreatePost(ctx context.Context, post *models.Post) error {
	return r.db.QueryRowxContext(ctx,
		`INSERT INTO posts (group_id, nickname, title, content, post_password, image_url, tags, location, moment, is_public)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING `+postColumns,
		post.GroupID, post.Nickname, post.Title, post.Content, post.PostPassword,
		post.ImageURL, post.Tags, post.Location, post.Moment, post.IsPublic).
		StructScan(post)
}

// GetPost fetches a single post.
func (r *PostRepo) GetPost(ctx context.Context, postID int) (models.Post, error) {
	var post models.Post
	err := r.db.GetContext(ctx, &post, `SELECT `+postColumns+` FROM posts WHERE id=$1`, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Post{}, ErrPostNotFound
	}
	return post, err
}

// ListPosts returns one page of a group's posts matching the composed
// filters, along with the total match count.
func (r *PostRepo) ListPosts(ctx context.Context, groupID int, params listing.Params) ([]models.Post, int, error) {
	where := `WHERE group_id = $1 AND (title LIKE $2 OR content LIKE $2)`
	args := []interface{}{groupID, params.LikePattern()}
	if params.IsPublic != nil {
		where += fmt.Sprintf(` AND is_public = $%d`, len(args)+1)
		args = append(args, *params.IsPublic)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM posts `+where, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM posts %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		postColumns, where, listing.PostOrder(params.SortBy), len(args)+1, len(args)+2)
	args = append(args, params.PageSize, params.Offset())

	var posts []models.Post
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// ListGroupPosts returns every post of a group, newest first. Used by the
// group detail view.
func (r *PostRepo) ListGroupPosts(ctx context.Context, groupID int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.SelectContext(ctx, &posts,
		`SELECT `+postColumns+` FROM posts WHERE group_id=$1 ORDER BY created_at DESC`, groupID)
	return posts, err
}

// UpdatePost rewrites the mutable columns and refreshes the struct.
func (r *PostRepo) UpdatePost(ctx context.Context, post *models.Post) error {
	err := r.db.QueryRowxContext(ctx,
		`UPDATE posts SET nickname=$1, title=$2, content=$3, image_url=$4, tags=$5, location=$6, moment=$7, is_public=$8 WHERE id=$9 RETURNING `+postColumns,
		post.Nickname, post.Title, post.Content, post.ImageURL, post.Tags,
		post.Location, post.Moment, post.IsPublic, post.ID).
		StructScan(post)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPostNotFound
	}
	return err
}

// DeletePost removes a post row. Comments are not cascaded.
func (r *PostRepo) DeletePost(ctx context.Context, postID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id=$1`, postID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// LikePost increments the like counter.
func (r *PostRepo) LikePost(ctx context.Context, postID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE posts SET like_count = like_count + 1 WHERE id=$1`, postID)
	return err
}

// AdjustCommentCount applies a relative change to the denormalized
// comment count.
func (r *PostRepo) AdjustCommentCount(ctx context.Context, postID, delta int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE posts SET comment_count = comment_count + $2 WHERE id=$1`, postID, delta)
	return err
}

// CountDistinctPostDays counts the distinct calendar dates on which the
// group received a post within the trailing 7-day window (inclusive).
func (r *PostRepo) CountDistinctPostDays(ctx context.Context, groupID int) (int, error) {
	var days int
	err := r.db.GetContext(ctx, &days,
		`SELECT COUNT(DISTINCT DATE(created_at)) FROM posts WHERE group_id=$1 AND created_at >= NOW() - INTERVAL '6 days'`,
		groupID)
	return days, err
}

// SumLikeCounts totals the like counters across all posts of a group.
func (r *PostRepo) SumLikeCounts(ctx context.Context, groupID int) (int, error) {
	var sum int
	err := r.db.GetContext(ctx, &sum,
		`SELECT COALESCE(SUM(like_count), 0) FROM posts WHERE group_id=$1`, groupID)
	return sum, err
}
