package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"group-service/internal/badges"
	"group-service/internal/mocks"
	"group-service/internal/models"
	"group-service/internal/repositories"
)

func setupPostRouter(handler *PostHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/groups/:group_id/posts", handler.CreatePost)
	r.GET("/api/groups/:group_id/posts", handler.ListPosts)
	r.GET("/api/posts/:post_id", handler.GetPost)
	r.PUT("/api/posts/:post_id", handler.UpdatePost)
	r.DELETE("/api/posts/:post_id", handler.DeletePost)
	r.POST("/api/posts/:post_id/like", handler.LikePost)
	r.POST("/api/posts/:post_id/verify-password", handler.VerifyPostPassword)
	r.GET("/api/posts/:post_id/is-public", handler.PostIsPublic)
	return r
}

func newPostHandler(posts *mocks.PostRepositoryMock, groups *mocks.GroupRepositoryMock) *PostHandler {
	awarder := badges.NewAwarder(groups, posts, nil)
	return NewPostHandler(posts, groups, awarder, nil, nil)
}

func TestCreatePostSuccess(t *testing.T) {
	posts := new(mocks.PostRepositoryMock)
	groups := new(mocks.GroupRepositoryMock)
	router := setupPostRouter(newPostHandler(posts, groups))

	posts.On("CreatePost", mock.Anything, mock.AnythingOfType("*models.Post")).Run(func(args mock.Arguments) {
		p := args.Get(1).(*models.Post)
		p.ID = 3
	}).Return(nil).Once()
	groups.On("AdjustPostCount", mock.Anything, 9, 1).Return(nil).Once()
	groups.On("GetGroup", mock.Anything, 9).Return(models.Group{ID: 9, PostCount: 1}, nil).Once()
	posts.On("CountDistinctPostDays", mock.Anything, 9).Return(1, nil).Once()

	body := bytes.NewBufferString(`{"nickname":"amy","title":"hi","content":"text","postPassword":"pw","tags":["a","b"]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/groups/9/posts", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		ID   int      `json:"id"`
		Tags []string `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.ID)
	require.Equal(t, []string{"a", "b"}, resp.Tags)
	posts.AssertExpectations(t)
	groups.AssertExpectations(t)
}

func TestCreatePostMissingFields(t *testing.T) {
	router := setupPostRouter(newPostHandler(new(mocks.PostRepositoryMock), new(mocks.GroupRepositoryMock)))

	req := httptest.NewRequest(http.MethodPost, "/api/groups/9/posts", bytes.NewBufferString(`{"nickname":"amy"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePostStoreFailure(t *testing.T) {
	posts := new(mocks.PostRepositoryMock)
	groups := new(mocks.GroupRepositoryMock)
	router := setupPostRouter(newPostHandler(posts, groups))

	posts.On("CreatePost", mock.Anything, mock.AnythingOfType("*models.Post")).Return(repositories.ErrPostNotFound).Once()

	body := bytes.NewBufferString(`{"nickname":"amy","title":"hi","content":"text","postPassword":"pw"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/groups/9/posts", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	groups.AssertNotCalled(t, "AdjustPostCount", mock.Anything, mock.Anything, mock.Anything)
}

func TestListPostsEnvelope(t *testing.T) {
	posts := new(mocks.PostRepositoryMock)
	router := setupPostRouter(newPostHandler(posts, new(mocks.GroupRepositoryMock)))

	stored := []models.Post{{ID: 1, GroupID: 9, Tags: "x"}}
	posts.On("ListPosts", mock.Anything, 9, mock.Anything).Return(stored, 1, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/groups/9/posts?keyword=x", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		TotalPages     int `json:"totalPages"`
		TotalItemCount int `json:"totalItemCount"`
		Data           []struct {
			Tags []string `json:"tags"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.TotalPages)
	require.Equal(t, 1, resp.TotalItemCount)
	require.Equal(t, []string{"x"}, resp.Data[0].Tags)
	posts.AssertExpectations(t)
}

func TestGetPostNotFound(t *testing.T) {
	posts := new(mocks.PostRepositoryMock)
	router := setupPostRouter(newPostHandler(posts, new(mocks.GroupRepositoryMock)))

	posts.On("GetPost", mock.Anything, 3).Return(nil, repositories.ErrPostNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/posts/3", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdatePostSuccess(t *testing.T) {
	posts := new(mocks.PostRepositoryMock)
	router := setupPostRouter(newPostHandler(posts, new(mocks.GroupRepositoryMock)))

	posts.On("GetPost", mock.Anything, 3).Return(models.Post{ID: 3, GroupID: 9, PostPassword: "pw"}, nil).Once()
	posts.On("UpdatePost", mock.Anything, mock.AnythingOfType("*models.Post")).Return(nil).Once()

	body := bytes.NewBufferString(`{"nickname":"amy","title":"new","content":"text","postPassword":"pw"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/posts/3", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	posts.AssertExpectations(t)
}

func TestUpdatePostWrongPassword(t *testing.T) {
	posts := new(mocks.PostRepositoryMock)
	router := setupPostRouter(newPostHandler(posts, new(mocks.GroupRepositoryMock)))

	posts.On("GetPost", mock.Anything, 3).Return(models.Post{ID: 3, PostPassword: "right"}, nil).Once()

	body := bytes.NewBufferString(`{"nickname":"amy","title":"new","content":"text","postPassword":"wrong"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/posts/3", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	posts.AssertNotCalled(t, "UpdatePost", mock.Anything, mock.Anything)
}

func TestDeletePostAdjustsGroupCounter(t *testing.T) {
	posts := new(mocks.PostRepositoryMock)
	groups := new(mocks.GroupRepositoryMock)
	router := setupPostRouter(newPostHandler(posts, groups))

	posts.On("GetPost", mock.Anything, 3).Return(models.Post{ID: 3, GroupID: 9, PostPassword: "pw"}, nil).Once()
	posts.On("DeletePost", mock.Anything, 3).Return(nil).Once()
	groups.On("AdjustPostCount", mock.Anything, 9, -1).Return(nil).Once()

	body := bytes.NewBufferString(`{"postPassword":"pw"}`)
	req := httptest.NewRequest(http.MethodDelete, "/api/posts/3", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	posts.AssertExpectations(t)
	groups.AssertExpectations(t)
}

func TestDeletePostMissingPassword(t *testing.T) {
	router := setupPostRouter(newPostHandler(new(mocks.PostRepositoryMock), new(mocks.GroupRepositoryMock)))

	req := httptest.NewRequest(http.MethodDelete, "/api/posts/3", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLikePostAwardsLikeChampion(t *testing.T) {
	posts := new(mocks.PostRepositoryMock)
	groups := new(mocks.GroupRepositoryMock)
	router := setupPostRouter(newPostHandler(posts, groups))

	posts.On("GetPost", mock.Anything, 3).Return(models.Post{ID: 3, GroupID: 9}, nil).Once()
	posts.On("LikePost", mock.Anything, 3).Return(nil).Once()
	groups.On("GetGroup", mock.Anything, 9).Return(models.Group{ID: 9}, nil).Once()
	posts.On("SumLikeCounts", mock.Anything, 9).Return(10000, nil).Once()
	groups.On("AppendBadge", mock.Anything, 9, "like-champion").Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/posts/3/like", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	posts.AssertExpectations(t)
	groups.AssertExpectations(t)
}

func TestLikePostNotFound(t *testing.T) {
	posts := new(mocks.PostRepositoryMock)
	router := setupPostRouter(newPostHandler(posts, new(mocks.GroupRepositoryMock)))

	posts.On("GetPost", mock.Anything, 3).Return(nil, repositories.ErrPostNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/posts/3/like", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	posts.AssertNotCalled(t, "LikePost", mock.Anything, mock.Anything)
}

func TestVerifyPostPassword(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		expected int
	}{
		{"match", `{"password":"pw"}`, http.StatusOK},
		{"mismatch", `{"password":"no"}`, http.StatusUnauthorized},
		{"missing", `{}`, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			posts := new(mocks.PostRepositoryMock)
			router := setupPostRouter(newPostHandler(posts, new(mocks.GroupRepositoryMock)))
			posts.On("GetPost", mock.Anything, 3).Return(models.Post{ID: 3, PostPassword: "pw"}, nil).Maybe()

			req := httptest.NewRequest(http.MethodPost, "/api/posts/3/verify-password", bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tc.expected, rec.Code)
		})
	}
}

func TestPostIsPublic(t *testing.T) {
	posts := new(mocks.PostRepositoryMock)
	router := setupPostRouter(newPostHandler(posts, new(mocks.GroupRepositoryMock)))

	posts.On("GetPost", mock.Anything, 3).Return(models.Post{ID: 3, IsPublic: false}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/posts/3/is-public", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, false, resp["isPublic"])
}
