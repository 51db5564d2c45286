package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/steelsons/league-feed/backend/internal/media"
)

// MediaHandler proxies uploads into the media pipeline and resolves playback
// sources for uploaded videos.
type MediaHandler struct {
	pipeline *media.Pipeline
	log      *zap.Logger
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(pipeline *media.Pipeline, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{pipeline: pipeline, log: logger}
}

// RegisterMediaRoutes registers media routes.
func (h *MediaHandler) RegisterMediaRoutes(g *echo.Group) {
	g.POST("/media", h.Upload)
	g.GET("/media/playback", h.Playback)
}

// Upload accepts a multipart file and pushes it through the upload pipeline.
func (h *MediaHandler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "A file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Could not read uploaded file")
	}
	defer file.Close()

	result, err := h.pipeline.Upload(c.Request().Context(), fileHeader.Filename, file)
	if err != nil {
		h.log.Error("media upload failed", zap.String("filename", fileHeader.Filename), zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "Media upload failed")
	}

	h.log.Info("media uploaded", zap.String("url", result.URL), zap.String("type", string(result.Type)))
	return c.JSON(http.StatusCreated, result)
}

// Playback resolves the playback sources for an uploaded video URL.
func (h *MediaHandler) Playback(c echo.Context) error {
	mediaURL := c.QueryParam("url")
	if mediaURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "The url query parameter is required")
	}
	return c.JSON(http.StatusOK, h.pipeline.Resolve(c.Request().Context(), mediaURL))
}
