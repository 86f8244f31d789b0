package ffmpeg

import (
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// Tools is the process-wide tool configuration, resolved once at startup.
type Tools struct {
	FfmpegPath    string
	FfprobePath   string
	Timeout       time.Duration
	MaxConcurrent int
}

// Runner invokes the ffmpeg and ffprobe executables. Every invocation is
// bounded by Tools.Timeout and at most Tools.MaxConcurrent run at once.
type Runner struct {
	tools Tools
	sem   *semaphore.Weighted
	log   *logrus.Entry
}

func NewRunner(tools Tools, logger *logrus.Logger) *Runner {
	if tools.FfmpegPath == "" {
		tools.FfmpegPath = "ffmpeg"
	}
	if tools.FfprobePath == "" {
		tools.FfprobePath = "ffprobe"
	}
	if tools.MaxConcurrent < 1 {
		tools.MaxConcurrent = 1
	}
	return &Runner{
		tools: tools,
		sem:   semaphore.NewWeighted(int64(tools.MaxConcurrent)),
		log:   logger.WithField("component", "ffmpeg"),
	}
}
