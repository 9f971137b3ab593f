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

	"group-service/internal/mocks"
	"group-service/internal/models"
	"group-service/internal/repositories"
)

func setupCommentRouter(handler *CommentHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/posts/:post_id/comments", handler.CreateComment)
	r.GET("/api/posts/:post_id/comments", handler.ListComments)
	r.PUT("/api/comments/:comment_id", handler.UpdateComment)
	r.DELETE("/api/comments/:comment_id", handler.DeleteComment)
	return r
}

func TestCreateCommentSuccess(t *testing.T) {
	comments := new(mocks.CommentRepositoryMock)
	posts := new(mocks.PostRepositoryMock)
	handler := NewCommentHandler(comments, posts, nil, nil)
	router := setupCommentRouter(handler)

	posts.On("GetPost", mock.Anything, 3).Return(models.Post{ID: 3, GroupID: 9}, nil).Once()
	comments.On("CreateComment", mock.Anything, mock.AnythingOfType("*models.Comment")).Run(func(args mock.Arguments) {
		c := args.Get(1).(*models.Comment)
		c.ID = 11
	}).Return(nil).Once()
	posts.On("AdjustCommentCount", mock.Anything, 3, 1).Return(nil).Once()

	body := bytes.NewBufferString(`{"nickname":"amy","content":"nice","password":"pw"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/posts/3/comments", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 11, resp.ID)
	comments.AssertExpectations(t)
	posts.AssertExpectations(t)
}

func TestCreateCommentPostNotFound(t *testing.T) {
	comments := new(mocks.CommentRepositoryMock)
	posts := new(mocks.PostRepositoryMock)
	router := setupCommentRouter(NewCommentHandler(comments, posts, nil, nil))

	posts.On("GetPost", mock.Anything, 3).Return(nil, repositories.ErrPostNotFound).Once()

	body := bytes.NewBufferString(`{"nickname":"amy","content":"nice","password":"pw"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/posts/3/comments", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	comments.AssertNotCalled(t, "CreateComment", mock.Anything, mock.Anything)
}

func TestCreateCommentMissingFields(t *testing.T) {
	router := setupCommentRouter(NewCommentHandler(new(mocks.CommentRepositoryMock), new(mocks.PostRepositoryMock), nil, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/posts/3/comments", bytes.NewBufferString(`{"nickname":"amy"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListCommentsEnvelope(t *testing.T) {
	comments := new(mocks.CommentRepositoryMock)
	router := setupCommentRouter(NewCommentHandler(comments, new(mocks.PostRepositoryMock), nil, nil))

	stored := []models.Comment{{ID: 1, PostID: 3, Content: "nice"}}
	comments.On("ListComments", mock.Anything, 3, mock.Anything).Return(stored, 15, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/posts/3/comments?pageSize=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		CurrentPage    int              `json:"currentPage"`
		TotalPages     int              `json:"totalPages"`
		TotalItemCount int              `json:"totalItemCount"`
		Data           []models.Comment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.CurrentPage)
	require.Equal(t, 2, resp.TotalPages)
	require.Equal(t, 15, resp.TotalItemCount)
	require.Len(t, resp.Data, 1)
	comments.AssertExpectations(t)
}

func TestUpdateCommentSuccess(t *testing.T) {
	comments := new(mocks.CommentRepositoryMock)
	router := setupCommentRouter(NewCommentHandler(comments, new(mocks.PostRepositoryMock), nil, nil))

	comments.On("GetComment", mock.Anything, 11).Return(models.Comment{ID: 11, PostID: 3, Password: "pw"}, nil).Once()
	comments.On("UpdateComment", mock.Anything, mock.AnythingOfType("*models.Comment")).Return(nil).Once()

	body := bytes.NewBufferString(`{"nickname":"amy","content":"edited","password":"pw"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/comments/11", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	comments.AssertExpectations(t)
}

func TestUpdateCommentWrongPassword(t *testing.T) {
	comments := new(mocks.CommentRepositoryMock)
	router := setupCommentRouter(NewCommentHandler(comments, new(mocks.PostRepositoryMock), nil, nil))

	comments.On("GetComment", mock.Anything, 11).Return(models.Comment{ID: 11, Password: "right"}, nil).Once()

	body := bytes.NewBufferString(`{"nickname":"amy","content":"edited","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/comments/11", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	comments.AssertNotCalled(t, "UpdateComment", mock.Anything, mock.Anything)
}

func TestUpdateCommentNotFound(t *testing.T) {
	comments := new(mocks.CommentRepositoryMock)
	router := setupCommentRouter(NewCommentHandler(comments, new(mocks.PostRepositoryMock), nil, nil))

	comments.On("GetComment", mock.Anything, 11).Return(nil, repositories.ErrCommentNotFound).Once()

	body := bytes.NewBufferString(`{"nickname":"amy","content":"edited","password":"pw"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/comments/11", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteCommentAdjustsCounter(t *testing.T) {
	comments := new(mocks.CommentRepositoryMock)
	posts := new(mocks.PostRepositoryMock)
	router := setupCommentRouter(NewCommentHandler(comments, posts, nil, nil))

	comments.On("GetComment", mock.Anything, 11).Return(models.Comment{ID: 11, PostID: 3, Password: "pw"}, nil).Once()
	comments.On("DeleteComment", mock.Anything, 11).Return(nil).Once()
	posts.On("AdjustCommentCount", mock.Anything, 3, -1).Return(nil).Once()

	body := bytes.NewBufferString(`{"password":"pw"}`)
	req := httptest.NewRequest(http.MethodDelete, "/api/comments/11", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	comments.AssertExpectations(t)
	posts.AssertExpectations(t)
}

func TestDeleteCommentMissingPassword(t *testing.T) {
	router := setupCommentRouter(NewCommentHandler(new(mocks.CommentRepositoryMock), new(mocks.PostRepositoryMock), nil, nil))

	req := httptest.NewRequest(http.MethodDelete, "/api/comments/11", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
