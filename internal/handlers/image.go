package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"group-service/internal/config"
	"group-service/internal/telemetry"
)

const maxImageBytes = 10 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// ImageHandler accepts image uploads and serves back a public URL.
type ImageHandler struct {
	cfg   *config.Config
	audit *telemetry.AuditEmitter
}

// NewImageHandler constructs an ImageHandler.
func NewImageHandler(cfg *config.Config, audit *telemetry.AuditEmitter) *ImageHandler {
	return &ImageHandler{cfg: cfg, audit: audit}
}

// Upload handles POST /api/image. The file arrives as multipart field
// "image"; only jpeg and png up to 10 MiB are accepted.
func (h *ImageHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}

	if file.Size > maxImageBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image too large"})
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only jpeg and png images are allowed"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	name := fmt.Sprintf("image-%d%s", time.Now().UnixNano(), ext)
	dst := filepath.Join(h.cfg.UploadDir, name)

	if err := c.SaveUploadedFile(file, dst); err != nil {
		emitAudit(c, h.audit, "ERROR", "image save failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save image"})
		return
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	imageURL := fmt.Sprintf("%s://%s%s/%s", scheme, c.Request.Host, h.cfg.UploadURLPrefix, name)

	emitAudit(c, h.audit, "INFO", "image uploaded")
	c.JSON(http.StatusOK, gin.H{"imageUrl": imageURL})
}
