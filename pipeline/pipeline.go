// Package pipeline coordinates one request-level flow per operation: load
// the asset, validate, run the transform, commit the result.
package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"video-pipeline/apperr"
	"video-pipeline/assets"
	"video-pipeline/ffmpeg"
	"video-pipeline/media"
	"video-pipeline/transform"
)

type Prober interface {
	Probe(ctx context.Context, path string) (ffmpeg.Metadata, error)
}

type Executor interface {
	Trim(ctx context.Context, req transform.TrimRequest) transform.Result
	Subtitle(ctx context.Context, req transform.SubtitleRequest) transform.Result
	Render(ctx context.Context, req transform.RenderRequest) transform.Result
}

// Files receives uploads into artifact storage.
type Files interface {
	Save(r io.Reader, originalName string) (path string, size int64, err error)
	Remove(path string)
}

type Pipeline struct {
	store    *assets.Store
	prober   Prober
	executor Executor
	files    Files
	log      *logrus.Entry
}

func New(store *assets.Store, prober Prober, executor Executor, files Files, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		store:    store,
		prober:   prober,
		executor: executor,
		files:    files,
		log:      logger.WithField("component", "pipeline"),
	}
}

type UploadRequest struct {
	File         io.Reader
	OriginalName string
}

// Upload stores the file, probes it and creates the asset. Nothing is
// persisted for a file that cannot be probed.
func (p *Pipeline) Upload(ctx context.Context, req UploadRequest) (media.Asset, error) {
	if req.File == nil {
		return media.Asset{}, apperr.BadRequest("upload", "no file uploaded")
	}

	path, size, err := p.files.Save(req.File, req.OriginalName)
	if err != nil {
		return media.Asset{}, apperr.Persistence("upload", err)
	}

	meta, err := p.prober.Probe(ctx, path)
	if err != nil {
		p.files.Remove(path)
		p.log.Warnf("upload %q rejected: %v", req.OriginalName, err)
		return media.Asset{}, err
	}

	asset, err := p.store.Create(ctx, media.Asset{
		Name:     filepath.Base(path),
		Path:     path,
		Size:     size,
		Duration: meta.DurationSeconds,
	})
	if err != nil {
		p.files.Remove(path)
		return media.Asset{}, err
	}
	return asset, nil
}

func (p *Pipeline) Get(ctx context.Context, id uint) (media.Asset, error) {
	return p.store.Load(ctx, id)
}

func (p *Pipeline) Trim(ctx context.Context, id uint, start, end float64) (media.Asset, error) {
	return p.apply(ctx, id, media.OpTrim, func(asset media.Asset) transform.Result {
		req := transform.TrimRequest{InputPath: asset.Path, Start: start, End: end}
		if err := req.Validate(); err != nil {
			return transform.Result{Err: err}
		}
		if err := withinDuration("trim", asset, end); err != nil {
			return transform.Result{Err: err}
		}
		if err := assets.CheckApply(asset, media.OpTrim); err != nil {
			return transform.Result{Err: err}
		}
		return p.executor.Trim(ctx, req)
	})
}

func (p *Pipeline) Subtitle(ctx context.Context, id uint, text string, start, end float64) (media.Asset, error) {
	return p.apply(ctx, id, media.OpSubtitle, func(asset media.Asset) transform.Result {
		req := transform.SubtitleRequest{InputPath: asset.Path, Text: text, Start: start, End: end}
		if err := req.Validate(); err != nil {
			return transform.Result{Err: err}
		}
		if err := withinDuration("subtitle", asset, end); err != nil {
			return transform.Result{Err: err}
		}
		if err := assets.CheckApply(asset, media.OpSubtitle); err != nil {
			return transform.Result{Err: err}
		}
		return p.executor.Subtitle(ctx, req)
	})
}

func (p *Pipeline) Render(ctx context.Context, id uint) (media.Asset, error) {
	return p.apply(ctx, id, media.OpRender, func(asset media.Asset) transform.Result {
		if err := assets.CheckApply(asset, media.OpRender); err != nil {
			return transform.Result{Err: err}
		}
		return p.executor.Render(ctx, transform.RenderRequest{InputPath: asset.Path})
	})
}

// withinDuration rejects ranges ending past the probed duration. Duration is
// measured once at upload and never shrinks, so after a trim it is only an
// upper bound; the tool itself handles ranges past the end of a shorter cut.
func withinDuration(op string, asset media.Asset, end float64) error {
	if asset.Duration > 0 && end > asset.Duration {
		return apperr.BadRequest(op, "end exceeds video duration")
	}
	return nil
}

// apply holds the asset's lock from load to commit, so transforms on the
// same asset run one after another and each sees the previous result.
func (p *Pipeline) apply(ctx context.Context, id uint, op media.Op, run func(media.Asset) transform.Result) (media.Asset, error) {
	unlock := p.store.Lock(id)
	defer unlock()

	asset, err := p.store.Load(ctx, id)
	if err != nil {
		return media.Asset{}, err
	}

	res := run(asset)
	if res.Err != nil {
		return media.Asset{}, res.Err
	}

	// the artifact exists now; a client going away must not discard it
	updated, err := p.store.Commit(context.WithoutCancel(ctx), asset, res.OutputPath, op.Result())
	if err != nil {
		p.files.Remove(res.OutputPath)
		return media.Asset{}, err
	}
	return updated, nil
}

// Artifact is a rendered file ready to be streamed.
type Artifact struct {
	Path string
	Name string
}

func (p *Pipeline) Download(ctx context.Context, id uint) (Artifact, error) {
	asset, err := p.store.Load(ctx, id)
	if err != nil {
		return Artifact{}, err
	}
	asset, err = assets.RequireRendered(asset)
	if err != nil {
		return Artifact{}, err
	}
	if _, err := os.Stat(asset.Path); err != nil {
		p.log.Errorf("asset %d: rendered artifact %s: %v", asset.ID, asset.Path, err)
		return Artifact{}, apperr.New(apperr.KindNotFound, "download", "video file missing", err)
	}
	return Artifact{Path: asset.Path, Name: filepath.Base(asset.Path)}, nil
}
