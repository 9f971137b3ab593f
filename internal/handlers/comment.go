package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"group-service/internal/listing"
	"group-service/internal/models"
	"group-service/internal/repositories"
	"group-service/internal/telemetry"
	"group-service/internal/ws"
)

// CommentHandler manages comment endpoints.
type CommentHandler struct {
	comments repositories.CommentRepository
	posts    repositories.PostRepository
	hub      *ws.Hub
	audit    *telemetry.AuditEmitter
}

// NewCommentHandler constructs a CommentHandler.
func NewCommentHandler(comments repositories.CommentRepository, posts repositories.PostRepository, hub *ws.Hub, audit *telemetry.AuditEmitter) *CommentHandler {
	return &CommentHandler{
		comments: comments,
		posts:    posts,
		hub:      hub,
		audit:    audit,
	}
}

type commentRequest struct {
	Nickname string `json:"nickname" binding:"required"`
	Content  string `json:"content" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateComment handles POST /api/posts/:post_id/comments. The referenced
// post must exist.
func (h *CommentHandler) CreateComment(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		emitAudit(c, h.audit, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.posts.GetPost(c.Request.Context(), postID)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load post"})
		return
	}

	comment := models.Comment{
		PostID:   postID,
		Nickname: req.Nickname,
		Content:  req.Content,
		Password: req.Password,
	}
	if err := h.comments.CreateComment(c.Request.Context(), &comment); err != nil {
		emitAudit(c, h.audit, "ERROR", "invalid request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.posts.AdjustCommentCount(c.Request.Context(), postID, 1); err != nil {
		log.Printf("comment count update failed for post %d: %v", postID, err)
	}
	if h.hub != nil {
		h.hub.BroadcastCommentCreated(post.GroupID, comment)
	}

	emitAudit(c, h.audit, "INFO", "comment created")
	c.JSON(http.StatusOK, comment)
}

// ListComments handles GET /api/posts/:post_id/comments.
func (h *CommentHandler) ListComments(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	params := listing.Parse(c.Request.URL.Query())

	comments, total, err := h.comments.ListComments(c.Request.Context(), postID, params)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if comments == nil {
		comments = []models.Comment{}
	}
	c.JSON(http.StatusOK, listing.NewPage(params, total, comments))
}

// UpdateComment handles PUT /api/comments/:comment_id.
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	commentID, err := strconv.Atoi(c.Param("comment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.comments.GetComment(c.Request.Context(), commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrCommentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load comment"})
		return
	}
	if comment.Password != req.Password {
		emitAudit(c, h.audit, "ERROR", "comment password mismatch")
		c.JSON(http.StatusForbidden, gin.H{"error": "password mismatch"})
		return
	}

	comment.Nickname = req.Nickname
	comment.Content = req.Content
	comment.Password = req.Password
	if err := h.comments.UpdateComment(c.Request.Context(), &comment); err != nil {
		if errors.Is(err, repositories.ErrCommentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
			return
		}
		emitAudit(c, h.audit, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update comment"})
		return
	}

	emitAudit(c, h.audit, "INFO", "comment updated")
	c.JSON(http.StatusOK, comment)
}

// DeleteComment handles DELETE /api/comments/:comment_id.
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	commentID, err := strconv.Atoi(c.Param("comment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return
	}

	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.comments.GetComment(c.Request.Context(), commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrCommentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load comment"})
		return
	}
	if comment.Password != req.Password {
		emitAudit(c, h.audit, "ERROR", "comment password mismatch")
		c.JSON(http.StatusForbidden, gin.H{"error": "password mismatch"})
		return
	}

	if err := h.comments.DeleteComment(c.Request.Context(), commentID); err != nil {
		if errors.Is(err, repositories.ErrCommentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
			return
		}
		emitAudit(c, h.audit, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete comment"})
		return
	}

	if err := h.posts.AdjustCommentCount(c.Request.Context(), comment.PostID, -1); err != nil {
		log.Printf("comment count update failed for post %d: %v", comment.PostID, err)
	}

	emitAudit(c, h.audit, "INFO", "comment deleted")
	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}
