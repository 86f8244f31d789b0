package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrTimeout is wrapped into the error of an invocation that ran past the
// configured timeout.
var ErrTimeout = errors.New("tool timed out")

// Ffmpeg runs ffmpeg with the provided args and returns (stdout, stderr, error)
func (r *Runner) Ffmpeg(ctx context.Context, args ...string) ([]byte, []byte, error) {
	return r.run(ctx, r.tools.FfmpegPath, args...)
}

// Ffprobe runs ffprobe with the provided args and returns (stdout, stderr, error)
func (r *Runner) Ffprobe(ctx context.Context, args ...string) ([]byte, []byte, error) {
	return r.run(ctx, r.tools.FfprobePath, args...)
}

func (r *Runner) run(ctx context.Context, binary string, args ...string) ([]byte, []byte, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, nil, fmt.Errorf("waiting for %s slot: %w", binary, err)
	}
	defer r.sem.Release(1)

	if r.tools.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.tools.Timeout)
		defer cancel()
	}

	r.log.Infoln(binary, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%s after %s: %w", binary, r.tools.Timeout, ErrTimeout)
	}
	if err != nil {
		r.log.Errorf("%s error: %v", binary, err)
	}
	r.log.Debugln("stdout:", stdout.String())
	r.log.Debugln("stderr:", stderr.String())
	return stdout.Bytes(), stderr.Bytes(), err
}

// Version returns the first line of `ffmpeg -version`.
func (r *Runner) Version(ctx context.Context) (string, error) {
	stdout, _, err := r.Ffmpeg(ctx, "-version")
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(stdout), "\n")
	return strings.TrimSpace(line), nil
}

// Diagnostic condenses tool stderr into a single line suitable for logs and
// error chains.
func Diagnostic(stderr []byte, err error) error {
	lines := strings.Split(strings.TrimSpace(string(stderr)), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if last == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, last)
}
