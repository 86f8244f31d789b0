package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"video-pipeline/apperr"
)

// probeOutput is the subset of `ffprobe -show_format -show_streams -of json`
// the pipeline reads.
type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Filename   string `json:"filename"`
		Duration   string `json:"duration"`
		Size       string `json:"size"`
		FormatName string `json:"format_name"`
	} `json:"format"`
}

// Metadata is what probing learns about a media file.
type Metadata struct {
	DurationSeconds float64 `json:"duration"`
	SizeBytes       int64   `json:"size"`
	FormatName      string  `json:"format"`
	VideoCodec      string  `json:"video_codec,omitempty"`
	Width           int     `json:"width,omitempty"`
	Height          int     `json:"height,omitempty"`
}

// Probe reads container metadata for path. Any failure to run ffprobe or to
// make sense of its output is reported as apperr.KindProbeFailed.
func (r *Runner) Probe(ctx context.Context, path string) (Metadata, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Metadata{}, apperr.ProbeFailed("probe", fmt.Errorf("empty path"))
	}

	stdout, stderr, err := r.Ffprobe(ctx, "-v", "error", "-hide_banner",
		"-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return Metadata{}, apperr.ProbeFailed("probe", Diagnostic(stderr, err))
	}
	return parseProbe(stdout)
}

func parseProbe(output []byte) (Metadata, error) {
	var out probeOutput
	if err := json.Unmarshal(output, &out); err != nil {
		return Metadata{}, apperr.ProbeFailed("probe", fmt.Errorf("parse ffprobe output: %w", err))
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(out.Format.Duration), 64)
	if err != nil || math.IsNaN(duration) || duration < 0 {
		return Metadata{}, apperr.ProbeFailed("probe", fmt.Errorf("no usable duration %q", out.Format.Duration))
	}

	meta := Metadata{
		DurationSeconds: duration,
		FormatName:      out.Format.FormatName,
	}
	if size, err := strconv.ParseInt(strings.TrimSpace(out.Format.Size), 10, 64); err == nil && size > 0 {
		meta.SizeBytes = size
	}
	for _, stream := range out.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			meta.VideoCodec = stream.CodecName
			meta.Width = stream.Width
			meta.Height = stream.Height
			break
		}
	}
	return meta, nil
}
