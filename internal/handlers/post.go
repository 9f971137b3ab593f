package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"group-service/internal/badges"
	"group-service/internal/listing"
	"group-service/internal/models"
	"group-service/internal/repositories"
	"group-service/internal/telemetry"
	"group-service/internal/ws"
)

// PostHandler manages post endpoints.
type PostHandler struct {
	posts   repositories.PostRepository
	groups  repositories.GroupRepository
	awarder *badges.Awarder
	hub     *ws.Hub
	audit   *telemetry.AuditEmitter
}

// NewPostHandler constructs a PostHandler.
func NewPostHandler(posts repositories.PostRepository, groups repositories.GroupRepository, awarder *badges.Awarder, hub *ws.Hub, audit *telemetry.AuditEmitter) *PostHandler {
	return &PostHandler{
		posts:   posts,
		groups:  groups,
		awarder: awarder,
		hub:     hub,
		audit:   audit,
	}
}

// postResponse exposes the stored tags text as a slice.
type postResponse struct {
	models.Post
	Tags []string `json:"tags"`
}

func newPostResponse(p models.Post) postResponse {
	tags := p.TagList()
	if tags == nil {
		tags = []string{}
	}
	return postResponse{Post: p, Tags: tags}
}

type postRequest struct {
	Nickname      string   `json:"nickname" binding:"required"`
	Title         string   `json:"title" binding:"required"`
	Content       string   `json:"content" binding:"required"`
	PostPassword  string   `json:"postPassword" binding:"required"`
	GroupPassword string   `json:"groupPassword"`
	ImageURL      string   `json:"imageUrl"`
	Tags          []string `json:"tags"`
	Location      string   `json:"location"`
	Moment        *string  `json:"moment"`
	IsPublic      bool     `json:"isPublic"`
}

// CreatePost handles POST /api/groups/:group_id/posts.
func (h *PostHandler) CreatePost(c *gin.Context) {
	groupID, err := strconv.Atoi(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		emitAudit(c, h.audit, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post := models.Post{
		GroupID:      groupID,
		Nickname:     req.Nickname,
		Title:        req.Title,
		Content:      req.Content,
		PostPassword: req.PostPassword,
		ImageURL:     req.ImageURL,
		Tags:         models.JoinDelimited(req.Tags),
		Location:     req.Location,
		Moment:       req.Moment,
		IsPublic:     req.IsPublic,
	}
	if err := h.posts.CreatePost(c.Request.Context(), &post); err != nil {
		emitAudit(c, h.audit, "ERROR", "invalid request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	// Counter and badge steps are best-effort; the post is already in.
	if err := h.groups.AdjustPostCount(c.Request.Context(), groupID, 1); err != nil {
		log.Printf("post count update failed for group %d: %v", groupID, err)
	}
	h.broadcastBadges(groupID, h.awarder.PostCreated(c.Request.Context(), groupID))
	if h.hub != nil {
		h.hub.BroadcastPostCreated(groupID, post)
	}

	emitAudit(c, h.audit, "INFO", "post created")
	c.JSON(http.StatusCreated, newPostResponse(post))
}

// ListPosts handles GET /api/groups/:group_id/posts.
func (h *PostHandler) ListPosts(c *gin.Context) {
	groupID, err := strconv.Atoi(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	params := listing.Parse(c.Request.URL.Query())

	posts, total, err := h.posts.ListPosts(c.Request.Context(), groupID, params)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	data := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		data = append(data, newPostResponse(p))
	}

	c.JSON(http.StatusOK, listing.NewPage(params, total, data))
}

// GetPost handles GET /api/posts/:post_id.
func (h *PostHandler) GetPost(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
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

	c.JSON(http.StatusOK, newPostResponse(post))
}

// UpdatePost handles PUT /api/posts/:post_id.
func (h *PostHandler) UpdatePost(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
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
	if post.PostPassword != req.PostPassword {
		emitAudit(c, h.audit, "ERROR", "post password mismatch")
		c.JSON(http.StatusForbidden, gin.H{"error": "password mismatch"})
		return
	}

	post.Nickname = req.Nickname
	post.Title = req.Title
	post.Content = req.Content
	post.ImageURL = req.ImageURL
	post.Tags = models.JoinDelimited(req.Tags)
	post.Location = req.Location
	post.Moment = req.Moment
	post.IsPublic = req.IsPublic
	if err := h.posts.UpdatePost(c.Request.Context(), &post); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		emitAudit(c, h.audit, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update post"})
		return
	}

	emitAudit(c, h.audit, "INFO", "post updated")
	c.JSON(http.StatusOK, newPostResponse(post))
}

// DeletePost handles DELETE /api/posts/:post_id.
func (h *PostHandler) DeletePost(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	var req struct {
		PostPassword string `json:"postPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
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
	if post.PostPassword != req.PostPassword {
		emitAudit(c, h.audit, "ERROR", "post password mismatch")
		c.JSON(http.StatusForbidden, gin.H{"error": "password mismatch"})
		return
	}

	if err := h.posts.DeletePost(c.Request.Context(), postID); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		emitAudit(c, h.audit, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete post"})
		return
	}

	if err := h.groups.AdjustPostCount(c.Request.Context(), post.GroupID, -1); err != nil {
		log.Printf("post count update failed for group %d: %v", post.GroupID, err)
	}

	emitAudit(c, h.audit, "INFO", "post deleted")
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

// LikePost handles POST /api/posts/:post_id/like.
func (h *PostHandler) LikePost(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
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

	if err := h.posts.LikePost(c.Request.Context(), postID); err != nil {
		emitAudit(c, h.audit, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not add like"})
		return
	}

	h.broadcastBadges(post.GroupID, h.awarder.PostLiked(c.Request.Context(), post.GroupID))
	c.JSON(http.StatusOK, gin.H{"message": "like added"})
}

// VerifyPostPassword handles POST /api/posts/:post_id/verify-password.
// This endpoint answers 401 on mismatch, unlike the group variant.
func (h *PostHandler) VerifyPostPassword(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password required"})
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

	if post.PostPassword != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "password mismatch"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password verified"})
}

// PostIsPublic handles GET /api/posts/:post_id/is-public.
func (h *PostHandler) PostIsPublic(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
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

	c.JSON(http.StatusOK, gin.H{"id": post.ID, "isPublic": post.IsPublic})
}

func (h *PostHandler) broadcastBadges(groupID int, awarded []string) {
	if h.hub == nil {
		return
	}
	for _, badge := range awarded {
		h.hub.BroadcastBadgeAwarded(groupID, badge)
	}
}
