package controllers

import (
	"net/http"
	"os"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tailor-orders-api/services"
	"github.com/kendall-kelly/tailor-orders-api/utils"
)

// ServeStoredImage handles GET /storage/*path - paths relative to the storage root
func (h *Handler) ServeStoredImage(c *gin.Context) {
	h.serveLocalImage(c, c.Param("path"))
}

// ServeUploadedImage handles GET /uploads/*path - paths relative to the uploads directory
func (h *Handler) ServeUploadedImage(c *gin.Context) {
	h.serveLocalImage(c, path.Join(services.LocalUploadsDir, c.Param("path")))
}

func (h *Handler) serveLocalImage(c *gin.Context, ref string) {
	if services.NormalizeReference(ref) == "" {
		respondBadRequest(c, "INVALID_FILENAME", "Invalid filename")
		return
	}

	if !utils.IsImageFilename(ref) {
		respondBadRequest(c, "INVALID_FILE_TYPE", "Only image files are served")
		return
	}

	filePath, err := h.local.Resolve(ref)
	if err != nil {
		respondBadRequest(c, "INVALID_FILENAME", "Invalid filename")
		return
	}

	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_NOT_FOUND",
				"message": "Image not found",
			},
		})
		return
	}

	c.Header("Cache-Control", "public, max-age=86400") // Cache for 24 hours
	c.File(filePath)
}
