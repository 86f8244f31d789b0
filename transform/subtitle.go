package transform

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"video-pipeline/apperr"
	"video-pipeline/ffmpeg"
	"video-pipeline/storage"
)

type SubtitleRequest struct {
	InputPath string
	Text      string
	Start     float64
	End       float64
}

func (r SubtitleRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return apperr.BadRequest("subtitle", "text is required")
	}
	return validateRange("subtitle", r.Start, r.End)
}

// Subtitle burns Text into the video between Start and End. The caption is
// written to a side file that is removed once the tool finishes.
func (e *Executor) Subtitle(ctx context.Context, req SubtitleRequest) Result {
	if err := req.Validate(); err != nil {
		return Result{Err: err}
	}
	output := e.artifacts.NewPath("subtitled", ".mp4")
	return e.execute(ctx, "subtitle", req.InputPath, output, func(ctx context.Context, output string) error {
		srt := e.artifacts.NewPath(storage.SubtitlePrefix, storage.SubtitleExt)
		if err := os.WriteFile(srt, []byte(SRT(req.Text, req.Start, req.End)), 0o600); err != nil {
			return fmt.Errorf("write subtitle file: %w", err)
		}
		defer e.artifacts.Remove(srt)

		_, stderr, err := e.runner.Ffmpeg(ctx, "-y", "-hide_banner",
			"-i", req.InputPath,
			"-vf", "subtitles="+filterPath(srt),
			output)
		if err != nil {
			return ffmpeg.Diagnostic(stderr, err)
		}
		return nil
	})
}

// SRT renders a single-cue SubRip document.
func SRT(text string, start, end float64) string {
	return fmt.Sprintf("1\n%s --> %s\n%s\n\n", Timecode(start), Timecode(end), captionText(text))
}

// Timecode formats seconds as HH:MM:SS,mmm.
func Timecode(seconds float64) string {
	ms := int64(math.Round(seconds * 1000))
	if ms < 0 {
		ms = 0
	}
	h := ms / 3_600_000
	ms %= 3_600_000
	m := ms / 60_000
	ms %= 60_000
	s := ms / 1000
	ms %= 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// captionText drops blank lines, which would end the cue early.
func captionText(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, strings.TrimRight(line, " \t"))
		}
	}
	return strings.Join(kept, "\n")
}

// filterPath quotes a path for use inside an ffmpeg filter argument.
func filterPath(path string) string {
	return "'" + strings.ReplaceAll(filepath.ToSlash(path), "'", `'\''`) + "'"
}
