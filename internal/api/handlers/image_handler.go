package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"tiernow/internal/services"
	"tiernow/internal/storage"
)

// ImageHandler uploads and serves tierlist images.
type ImageHandler struct {
	tierlistService *services.TierlistService
}

func NewImageHandler(tierlistService *services.TierlistService) *ImageHandler {
	return &ImageHandler{tierlistService: tierlistService}
}

// multipartOverhead leaves room for boundaries and part headers on top of
// the file itself.
const multipartOverhead = 1 << 20

// UploadImage handles POST /tierlist/:uuid/upload with a multipart "image"
// field.
func (h *ImageHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxUploadBytes+multipartOverhead)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds 10MB"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing image file"})
		return
	}
	if fileHeader.Size > services.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds 10MB"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read image file"})
		return
	}
	defer file.Close()

	img, err := h.tierlistService.UploadImage(c.Request.Context(), services.UploadRequest{
		TierlistUUID: c.Param("uuid"),
		Filename:     fileHeader.Filename,
		ContentType:  fileHeader.Header.Get("Content-Type"),
		Size:         fileHeader.Size,
		Body:         file,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTierlistNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "tierlist not found"})
		case errors.Is(err, services.ErrMissingExtension):
			c.JSON(http.StatusBadRequest, gin.H{"error": "file name needs an extension"})
		case errors.Is(err, services.ErrNotAnImage):
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "only images can be uploaded"})
		default:
			c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store image"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       img.ID,
		"filename": img.FileKey,
	})
}

// GetImage handles GET /images/:key
func (h *ImageHandler) GetImage(c *gin.Context) {
	rc, info, err := h.tierlistService.OpenImage(c.Request.Context(), c.Param("key"))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
			return
		}
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load image"})
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, info.Size, info.ContentType, rc, map[string]string{
		"X-Content-Type-Options": "nosniff",
		"Cache-Control":          "public, max-age=31536000, immutable",
	})
}
