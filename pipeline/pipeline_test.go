package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"video-pipeline/apperr"
	"video-pipeline/assets"
	"video-pipeline/ffmpeg"
	"video-pipeline/internal/testsupport"
	"video-pipeline/media"
	"video-pipeline/storage"
	"video-pipeline/transform"
)

func TestMain(m *testing.M) {
	testsupport.RunIfFakeTool()
	os.Exit(m.Run())
}

type fixture struct {
	p   *Pipeline
	db  *gorm.DB
	dir *storage.Dir
}

func newFixture(t *testing.T, mode string) fixture {
	t.Helper()
	log := testsupport.Logger()
	exe := testsupport.FakeTools(t, mode)
	db := testsupport.DB(t)
	dir, err := storage.New(t.TempDir(), log)
	require.NoError(t, err)
	runner := ffmpeg.NewRunner(ffmpeg.Tools{
		FfmpegPath:    exe,
		FfprobePath:   exe,
		Timeout:       time.Minute,
		MaxConcurrent: 4,
	}, log)
	p := New(assets.New(db, log), runner, transform.New(runner, dir, time.Minute, log), dir, log)
	return fixture{p: p, db: db, dir: dir}
}

func (f fixture) upload(t *testing.T, content string) media.Asset {
	t.Helper()
	asset, err := f.p.Upload(context.Background(), UploadRequest{
		File:         strings.NewReader(content),
		OriginalName: "holiday.mp4",
	})
	require.NoError(t, err)
	return asset
}

func (f fixture) count(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&media.Asset{}).Count(&n).Error)
	return n
}

func TestUpload(t *testing.T) {
	f := newFixture(t, testsupport.ModeOK)
	testsupport.SetProbeDuration(t, "30.000000")

	asset := f.upload(t, "raw video")

	assert.NotZero(t, asset.ID)
	assert.Equal(t, media.StatusUploaded, asset.Status)
	assert.Equal(t, int64(len("raw video")), asset.Size)
	assert.Equal(t, 30.0, asset.Duration)
	assert.Equal(t, filepath.Base(asset.Path), asset.Name)
	assert.Equal(t, ".mp4", filepath.Ext(asset.Name))
	assert.FileExists(t, asset.Path)
}

func TestUploadWithoutFile(t *testing.T) {
	f := newFixture(t, testsupport.ModeOK)

	_, err := f.p.Upload(context.Background(), UploadRequest{})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	assert.Zero(t, f.count(t))
}

func TestUploadProbeFailure(t *testing.T) {
	f := newFixture(t, testsupport.ModeBadJSON)

	_, err := f.p.Upload(context.Background(), UploadRequest{File: strings.NewReader("junk"), OriginalName: "junk.mp4"})
	assert.ErrorIs(t, err, apperr.ErrProbeFailed)
	assert.Zero(t, f.count(t))

	entries, err := os.ReadDir(f.dir.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTrim(t *testing.T) {
	f := newFixture(t, testsupport.ModeOK)
	asset := f.upload(t, "raw video")

	trimmed, err := f.p.Trim(context.Background(), asset.ID, 1, 4)
	require.NoError(t, err)

	assert.Equal(t, media.StatusTrimmed, trimmed.Status)
	assert.NotEqual(t, asset.Path, trimmed.Path)
	assert.FileExists(t, trimmed.Path)
	assert.FileExists(t, asset.Path)
	assert.Equal(t, asset.Name, trimmed.Name)
	assert.Equal(t, asset.Size, trimmed.Size)
	assert.Equal(t, asset.Duration, trimmed.Duration)
}

func TestTrimInvalidRangeLeavesAsset(t *testing.T) {
	f := newFixture(t, testsupport.ModeOK)
	asset := f.upload(t, "raw video")

	for _, r := range [][2]float64{{3, 3}, {4, 1}, {1, 99}} {
		_, err := f.p.Trim(context.Background(), asset.ID, r[0], r[1])
		assert.ErrorIs(t, err, apperr.ErrBadRequest, "range %v", r)
	}

	loaded, err := f.p.Get(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.Equal(t, asset.Path, loaded.Path)
	assert.Equal(t, media.StatusUploaded, loaded.Status)
	assert.Equal(t, asset.Version, loaded.Version)
}

func TestSubtitleInvalidRangeLeavesAsset(t *testing.T) {
	f := newFixture(t, testsupport.ModeOK)
	asset := f.upload(t, "raw video")

	for _, r := range [][2]float64{{3, 3}, {4, 1}, {1, 99}} {
		_, err := f.p.Subtitle(context.Background(), asset.ID, "Hello", r[0], r[1])
		assert.ErrorIs(t, err, apperr.ErrBadRequest, "range %v", r)
	}

	loaded, err := f.p.Get(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.Equal(t, asset.Path, loaded.Path)
	assert.Equal(t, media.StatusUploaded, loaded.Status)
	assert.Equal(t, asset.Version, loaded.Version)
}

func TestTransformsOnMissingAsset(t *testing.T) {
	f := newFixture(t, testsupport.ModeOK)
	ctx := context.Background()

	_, err := f.p.Trim(ctx, 99, 0, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.p.Subtitle(ctx, 99, "Hello", 0, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.p.Render(ctx, 99)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.p.Download(ctx, 99)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.Zero(t, f.count(t))
}

func TestToolFailureLeavesAsset(t *testing.T) {
	f := newFixture(t, testsupport.ModeOK)
	asset := f.upload(t, "raw video")

	testsupport.FakeTools(t, testsupport.ModeFail)
	_, err := f.p.Subtitle(context.Background(), asset.ID, "Hello", 1, 3)
	assert.ErrorIs(t, err, apperr.ErrTransformFailed)

	loaded, err := f.p.Get(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.Equal(t, asset.Path, loaded.Path)
	assert.Equal(t, media.StatusUploaded, loaded.Status)
}

func TestSubtitle(t *testing.T) {
	f := newFixture(t, testsupport.ModeOK)
	asset := f.upload(t, "raw video")

	subtitled, err := f.p.Subtitle(context.Background(), asset.ID, "Hello", 1, 3)
	require.NoError(t, err)
	assert.Equal(t, media.StatusSubtitled, subtitled.Status)
	assert.NotEqual(t, asset.Path, subtitled.Path)
}

func TestDownloadBeforeRender(t *testing.T) {
	f := newFixture(t, testsupport.ModeOK)
	asset := f.upload(t, "raw video")

	_, err := f.p.Download(context.Background(), asset.ID)
	assert.ErrorIs(t, err, apperr.ErrNotReady)

	trimmed, err := f.p.Trim(context.Background(), asset.ID, 0, 2)
	require.NoError(t, err)
	_, err = f.p.Download(context.Background(), trimmed.ID)
	assert.ErrorIs(t, err, apperr.ErrNotReady)
}

func TestRenderThenDownloadReturnsSameBytes(t *testing.T) {
	f := newFixture(t, testsupport.ModeOK)
	asset := f.upload(t, "raw video")

	trimmed, err := f.p.Trim(context.Background(), asset.ID, 0, 2)
	require.NoError(t, err)
	want, err := os.ReadFile(trimmed.Path)
	require.NoError(t, err)

	rendered, err := f.p.Render(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.Equal(t, media.StatusRendered, rendered.Status)

	artifact, err := f.p.Download(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.Equal(t, rendered.Path, artifact.Path)
	assert.Equal(t, filepath.Base(rendered.Path), artifact.Name)
	got, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRenderedIsTerminal(t *testing.T) {
	f := newFixture(t, testsupport.ModeOK)
	asset := f.upload(t, "raw video")

	rendered, err := f.p.Render(context.Background(), asset.ID)
	require.NoError(t, err)

	_, err = f.p.Trim(context.Background(), asset.ID, 0, 1)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	_, err = f.p.Render(context.Background(), asset.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	loaded, err := f.p.Get(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.Equal(t, rendered.Path, loaded.Path)
}

func TestDownloadMissingArtifact(t *testing.T) {
	f := newFixture(t, testsupport.ModeOK)
	asset := f.upload(t, "raw video")
	rendered, err := f.p.Render(context.Background(), asset.ID)
	require.NoError(t, err)
	require.NoError(t, os.Remove(rendered.Path))

	_, err = f.p.Download(context.Background(), asset.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestConcurrentTrimsAreSerialized(t *testing.T) {
	f := newFixture(t, testsupport.ModeOK)
	asset := f.upload(t, "raw video")

	ranges := [][2]float64{{0, 2}, {1, 3}}
	results := make([]media.Asset, len(ranges))
	errs := make([]error, len(ranges))
	var wg sync.WaitGroup
	for i, r := range ranges {
		wg.Add(1)
		go func(i int, start, end float64) {
			defer wg.Done()
			results[i], errs[i] = f.p.Trim(context.Background(), asset.ID, start, end)
		}(i, r[0], r[1])
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.NotEqual(t, results[0].Path, results[1].Path)

	final, err := f.p.Get(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.Equal(t, media.StatusTrimmed, final.Status)
	assert.Equal(t, uint(3), final.Version)
	assert.Contains(t, []string{results[0].Path, results[1].Path}, final.Path)

	// whichever ran second trimmed the first one's output
	last := results[0]
	if results[1].Version > last.Version {
		last = results[1]
	}
	assert.Equal(t, last.Path, final.Path)
	assert.FileExists(t, final.Path)
}
