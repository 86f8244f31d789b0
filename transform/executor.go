// Package transform runs the trim, subtitle-burn and final-render operations
// against an artifact and reports a Result for each.
//
// Each operation runs on its own goroutine; the caller blocks on the Result.
// Every failure, including a panic in the worker, comes back as an
// apperr.KindTransformFailed error carrying the tool diagnostic, and any
// partial output is removed.
package transform

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"video-pipeline/apperr"
)

// Runner runs the transcoding tool.
type Runner interface {
	Ffmpeg(ctx context.Context, args ...string) ([]byte, []byte, error)
}

// Artifacts hands out fresh output paths and discards unwanted files.
type Artifacts interface {
	NewPath(prefix, ext string) string
	Remove(path string)
}

// Result is the outcome of one operation: an OutputPath on success, Err
// otherwise.
type Result struct {
	OutputPath string
	Err        error
}

func (r Result) OK() bool {
	return r.Err == nil
}

type Executor struct {
	runner    Runner
	artifacts Artifacts
	timeout   time.Duration
	log       *logrus.Entry
}

// New returns an Executor. timeout bounds operations that do not go through
// runner, such as the render copy; runner applies its own.
func New(runner Runner, artifacts Artifacts, timeout time.Duration, logger *logrus.Logger) *Executor {
	return &Executor{
		runner:    runner,
		artifacts: artifacts,
		timeout:   timeout,
		log:       logger.WithField("component", "transform"),
	}
}

type work func(ctx context.Context, output string) error

// execute runs fn on a worker goroutine and waits for it. output is declared
// before the worker starts.
func (e *Executor) execute(ctx context.Context, op, input, output string, fn work) Result {
	if _, err := os.Stat(input); err != nil {
		e.log.Errorf("%s: input %s: %v", op, input, err)
		return Result{Err: apperr.TransformFailed(op, fmt.Errorf("input artifact: %w", err))}
	}

	done := make(chan Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.artifacts.Remove(output)
				done <- Result{Err: apperr.TransformFailed(op, fmt.Errorf("panic: %v", r))}
			}
		}()

		start := time.Now()
		err := fn(ctx, output)
		if err == nil {
			if _, statErr := os.Stat(output); statErr != nil {
				err = fmt.Errorf("tool produced no output: %w", statErr)
			}
		}
		if err != nil {
			e.artifacts.Remove(output)
			e.log.Errorf("%s %s failed after %s: %v", op, input, time.Since(start).Round(time.Millisecond), err)
			done <- Result{Err: apperr.TransformFailed(op, err)}
			return
		}
		e.log.Infof("%s %s -> %s in %s", op, input, output, time.Since(start).Round(time.Millisecond))
		done <- Result{OutputPath: output}
	}()
	return <-done
}
