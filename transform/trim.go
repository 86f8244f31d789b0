package transform

import (
	"context"
	"strconv"

	"video-pipeline/apperr"
	"video-pipeline/ffmpeg"
)

type TrimRequest struct {
	InputPath string
	Start     float64
	End       float64
}

// Validate checks 0 <= Start < End.
func (r TrimRequest) Validate() error {
	return validateRange("trim", r.Start, r.End)
}

// Trim cuts [Start, End) out of the input into a new trimmed_*.mp4 artifact.
func (e *Executor) Trim(ctx context.Context, req TrimRequest) Result {
	if err := req.Validate(); err != nil {
		return Result{Err: err}
	}
	output := e.artifacts.NewPath("trimmed", ".mp4")
	return e.execute(ctx, "trim", req.InputPath, output, func(ctx context.Context, output string) error {
		_, stderr, err := e.runner.Ffmpeg(ctx, "-y", "-hide_banner",
			"-ss", seconds(req.Start),
			"-i", req.InputPath,
			"-t", seconds(req.End-req.Start),
			output)
		if err != nil {
			return ffmpeg.Diagnostic(stderr, err)
		}
		return nil
	})
}

func validateRange(op string, start, end float64) error {
	if start < 0 {
		return apperr.BadRequest(op, "start must not be negative")
	}
	if end <= start {
		return apperr.BadRequest(op, "end must be greater than start")
	}
	return nil
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
