package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"santa-video-backend/internal/models"
	"santa-video-backend/internal/store"
)

// MaxUploadSize caps staged photos at 10 MiB.
const MaxUploadSize = 10 << 20

var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

type UploadHandler struct {
	registry *store.UploadRegistry
	logger   zerolog.Logger
}

func NewUploadHandler(registry *store.UploadRegistry, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		registry: registry,
		logger:   logger,
	}
}

// Upload stages a photo before payment and returns its upload ID.
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "No photo uploaded"})
		return
	}

	if file.Size > MaxUploadSize {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "photo too large",
			Message: "photos are limited to 10MB",
		})
		return
	}

	if !allowedMimeTypes[file.Header.Get("Content-Type")] {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "unsupported file type",
			Message: "please upload a JPEG or PNG photo",
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to open uploaded file",
			Message: err.Error(),
		})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, MaxUploadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to read uploaded file",
			Message: err.Error(),
		})
		return
	}
	if len(data) > MaxUploadSize {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "photo too large",
			Message: "photos are limited to 10MB",
		})
		return
	}

	uploadID, err := h.registry.Stage(data, file.Filename)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to stage upload")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to store photo",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.UploadResponse{
		Success:  true,
		UploadID: uploadID,
	})
}
