package transform

import (
	"context"
	"path/filepath"

	"video-pipeline/storage"
)

type RenderRequest struct {
	InputPath string
}

// Render duplicates the input byte for byte into a final_* artifact. There
// is no re-encoding.
func (e *Executor) Render(ctx context.Context, req RenderRequest) Result {
	ext := filepath.Ext(req.InputPath)
	if ext == "" {
		ext = ".mp4"
	}
	output := e.artifacts.NewPath("final", ext)
	return e.execute(ctx, "render", req.InputPath, output, func(ctx context.Context, output string) error {
		if e.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.timeout)
			defer cancel()
		}
		return storage.CopyFileVerified(ctx, req.InputPath, output)
	})
}
