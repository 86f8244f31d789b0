package handlers

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"video-pipeline/pipeline"
	"video-pipeline/storage"
)

// Versioner reports the transcoding tool's version.
type Versioner interface {
	Version(ctx context.Context) (string, error)
}

type Handlers struct {
	pipeline       *pipeline.Pipeline
	dir            *storage.Dir
	tools          Versioner
	maxUploadBytes int64
	log            *logrus.Entry
}

func New(p *pipeline.Pipeline, dir *storage.Dir, tools Versioner, maxUploadBytes int64, logger *logrus.Logger) *Handlers {
	return &Handlers{
		pipeline:       p,
		dir:            dir,
		tools:          tools,
		maxUploadBytes: maxUploadBytes,
		log:            logger.WithField("component", "handlers"),
	}
}

// Register mounts the video routes under /api.
func (h *Handlers) Register(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/status", h.StatusGet)

	videos := api.Group("/videos")
	videos.POST("/upload", h.UploadPost)
	videos.GET("/:id", h.VideoGet)
	videos.POST("/:id/trim", h.TrimPost)
	videos.POST("/:id/subtitles", h.SubtitlesPost)
	videos.POST("/:id/render", h.RenderPost)
	videos.GET("/:id/download", h.DownloadGet)
}
