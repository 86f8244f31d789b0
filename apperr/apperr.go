// Package apperr classifies pipeline failures into a small set of kinds that
// callers can tell apart without parsing messages.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindBadRequest        Kind = "bad_request"
	KindNotFound          Kind = "not_found"
	KindProbeFailed       Kind = "probe_failed"
	KindTransformFailed   Kind = "transform_failed"
	KindNotReady          Kind = "not_ready"
	KindPersistence       Kind = "persistence_error"
	KindInvalidTransition Kind = "invalid_transition"
	KindInternal          Kind = "internal"
)

// Sentinels, one per kind, for errors.Is checks.
var (
	ErrBadRequest        = errors.New("bad request")
	ErrNotFound          = errors.New("not found")
	ErrProbeFailed       = errors.New("probe failed")
	ErrTransformFailed   = errors.New("transform failed")
	ErrNotReady          = errors.New("not ready")
	ErrPersistence       = errors.New("persistence error")
	ErrInvalidTransition = errors.New("invalid transition")
)

var sentinels = map[Kind]error{
	KindBadRequest:        ErrBadRequest,
	KindNotFound:          ErrNotFound,
	KindProbeFailed:       ErrProbeFailed,
	KindTransformFailed:   ErrTransformFailed,
	KindNotReady:          ErrNotReady,
	KindPersistence:       ErrPersistence,
	KindInvalidTransition: ErrInvalidTransition,
}

// Error carries the kind, the operation that failed, a short caller-safe
// message and the underlying cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	if sentinel, ok := sentinels[e.Kind]; ok && target == sentinel {
		return true
	}
	return false
}

func New(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

func BadRequest(op, message string) *Error {
	return New(KindBadRequest, op, message, nil)
}

func NotFound(op string, err error) *Error {
	return New(KindNotFound, op, "video not found", err)
}

func ProbeFailed(op string, err error) *Error {
	return New(KindProbeFailed, op, "could not read media metadata", err)
}

func TransformFailed(op string, err error) *Error {
	return New(KindTransformFailed, op, "processing failed", err)
}

func NotReady(op string) *Error {
	return New(KindNotReady, op, "video not yet rendered", nil)
}

func Persistence(op string, err error) *Error {
	return New(KindPersistence, op, "storage unavailable", err)
}

func InvalidTransition(op string, err error) *Error {
	return New(KindInvalidTransition, op, "operation not allowed in current state", err)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-safe message for err. Internal errors get a
// generic message so paths and tool output never leak.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal error"
}
