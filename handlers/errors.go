package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"video-pipeline/apperr"
)

type errorResponse struct {
	Kind    apperr.Kind `json:"kind"`
	Message string      `json:"message"`
}

// StatusCode maps an error kind to the HTTP status returned for it.
func StatusCode(kind apperr.Kind) int {
	switch kind {
	case apperr.KindBadRequest:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindNotReady, apperr.KindInvalidTransition:
		return http.StatusConflict
	case apperr.KindProbeFailed:
		return http.StatusUnprocessableEntity
	case apperr.KindPersistence:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail logs the full error and answers with its kind and a short message.
// Tool output and paths stay in the log.
func (h *Handlers) fail(c echo.Context, err error) error {
	kind := apperr.KindOf(err)
	status := StatusCode(kind)
	entry := h.log.WithField("path", c.Request().URL.Path).WithField("kind", kind)
	if status >= http.StatusInternalServerError {
		entry.Errorln(err)
	} else {
		entry.Infoln(err)
	}
	return c.JSON(status, errorResponse{Kind: kind, Message: apperr.MessageOf(err)})
}
