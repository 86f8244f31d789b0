package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"video-pipeline/apperr"
	"video-pipeline/media"
	"video-pipeline/pipeline"
)

type videoResponse struct {
	Message string      `json:"message"`
	Video   media.Asset `json:"video"`
}

// rangeBody accepts numbers or numeric strings, from JSON or a form.
type rangeBody struct {
	Text  string      `json:"text" form:"text"`
	Start json.Number `json:"start" form:"start"`
	End   json.Number `json:"end" form:"end"`
}

func videoID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.BadRequest("parse_id", "invalid video id")
	}
	return uint(id), nil
}

func parseSeconds(name string, n json.Number) (float64, error) {
	if n == "" {
		return 0, apperr.BadRequest("parse_body", name+" is required")
	}
	v, err := n.Float64()
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apperr.BadRequest("parse_body", name+" must be a number of seconds")
	}
	return v, nil
}

func bindRange(c echo.Context) (rangeBody, float64, float64, error) {
	var body rangeBody
	if err := c.Bind(&body); err != nil {
		return body, 0, 0, apperr.BadRequest("parse_body", "malformed request body")
	}
	start, err := parseSeconds("start", body.Start)
	if err != nil {
		return body, 0, 0, err
	}
	end, err := parseSeconds("end", body.End)
	if err != nil {
		return body, 0, 0, err
	}
	return body, start, end, nil
}

func (h *Handlers) UploadPost(c echo.Context) error {
	req := c.Request()
	if req.ContentLength > h.maxUploadBytes {
		return h.fail(c, apperr.BadRequest("upload", "upload too large"))
	}
	req.Body = http.MaxBytesReader(c.Response(), req.Body, h.maxUploadBytes)

	file, err := c.FormFile("video")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return h.fail(c, apperr.BadRequest("upload", "upload too large"))
		}
		return h.fail(c, apperr.BadRequest("upload", "no file uploaded"))
	}
	src, err := file.Open()
	if err != nil {
		return h.fail(c, apperr.BadRequest("upload", "unreadable upload"))
	}
	defer src.Close()

	asset, err := h.pipeline.Upload(req.Context(), pipeline.UploadRequest{
		File:         src,
		OriginalName: file.Filename,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, videoResponse{Message: "Video uploaded successfully", Video: asset})
}

func (h *Handlers) VideoGet(c echo.Context) error {
	id, err := videoID(c)
	if err != nil {
		return h.fail(c, err)
	}
	asset, err := h.pipeline.Get(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, asset)
}

func (h *Handlers) TrimPost(c echo.Context) error {
	id, err := videoID(c)
	if err != nil {
		return h.fail(c, err)
	}
	_, start, end, err := bindRange(c)
	if err != nil {
		return h.fail(c, err)
	}
	asset, err := h.pipeline.Trim(c.Request().Context(), id, start, end)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, videoResponse{Message: "Trimmed successfully", Video: asset})
}

func (h *Handlers) SubtitlesPost(c echo.Context) error {
	id, err := videoID(c)
	if err != nil {
		return h.fail(c, err)
	}
	body, start, end, err := bindRange(c)
	if err != nil {
		return h.fail(c, err)
	}
	asset, err := h.pipeline.Subtitle(c.Request().Context(), id, body.Text, start, end)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, videoResponse{Message: "Subtitles added", Video: asset})
}

func (h *Handlers) RenderPost(c echo.Context) error {
	id, err := videoID(c)
	if err != nil {
		return h.fail(c, err)
	}
	asset, err := h.pipeline.Render(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, videoResponse{Message: "Final video rendered", Video: asset})
}

func (h *Handlers) DownloadGet(c echo.Context) error {
	id, err := videoID(c)
	if err != nil {
		return h.fail(c, err)
	}
	artifact, err := h.pipeline.Download(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Attachment(artifact.Path, artifact.Name)
}
