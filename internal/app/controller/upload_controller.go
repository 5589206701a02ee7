package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/localbase/localbase-backend/internal/middleware"
	"github.com/localbase/localbase-backend/internal/storage"
)

type UploadController struct {
	storage storage.Uploader
}

func NewUploadController(uploader storage.Uploader) *UploadController {
	return &UploadController{
		storage: uploader,
	}
}

type GeneratePresignedURLRequest struct {
	Filename    string `json:"filename" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required"`
	Folder      string `json:"folder"` // businesses, posts or reviews; defaults to posts
	Size        int64  `json:"size" binding:"omitempty,min=0"`
}

// GeneratePresignedURL issues a direct-to-bucket upload URL for an image
// POST /api/v1/upload/presigned-url
func (ctrl *UploadController) GeneratePresignedURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	owner, ok := requireWallet(c)
	if !ok {
		return
	}

	var req GeneratePresignedURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid presigned URL request", map[string]interface{}{
			"error": err.Error(),
		})
		respondBindError(c, err)
		return
	}

	resp, err := ctrl.storage.PresignUpload(c.Request.Context(), storage.UploadRequest{
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Folder:      req.Folder,
		Size:        req.Size,
		Owner:       owner,
	})
	if err != nil {
		respondError(c, err, "upload image")
		return
	}

	log.Info("Presigned URL generated", map[string]interface{}{
		"key":   resp.Key,
		"owner": owner,
	})
	c.JSON(http.StatusOK, resp)
}
