package handlers

import (
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"

	"video-pipeline/config"
)

type statusResponse struct {
	Ffmpeg    string `json:"ffmpeg"`
	Free      string `json:"free"`
	Used      string `json:"used"`
	FreeBytes uint64 `json:"free_bytes"`
	UsedBytes int64  `json:"used_bytes"`
	BuildID   string `json:"build_id"`
	BuildDate string `json:"build_date"`
}

func (h *Handlers) StatusGet(c echo.Context) error {
	resp := statusResponse{
		BuildID:   config.GetGitSHA(),
		BuildDate: config.GetBuildDate(),
	}

	version, err := h.tools.Version(c.Request().Context())
	if err != nil {
		h.log.Errorln(err)
		resp.Ffmpeg = "unavailable"
	} else {
		resp.Ffmpeg = version
	}

	free, err := h.dir.FreeSpace()
	if err != nil {
		h.log.Errorln(err)
	}
	used, err := h.dir.UsedSpace()
	if err != nil {
		h.log.Errorln(err)
	}
	resp.FreeBytes, resp.UsedBytes = free, used
	resp.Free = humanize.IBytes(free)
	resp.Used = humanize.IBytes(uint64(used))

	return c.JSON(http.StatusOK, resp)
}
