package database_test

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-pipeline/database"
	"video-pipeline/internal/testsupport"
	"video-pipeline/media"
)

func TestOpenCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "videos.db")
	db, err := database.Open(path, testsupport.Logger())
	require.NoError(t, err)
	defer database.Close(db)

	assert.FileExists(t, path)
	assert.True(t, db.Migrator().HasTable(&media.Asset{}))

	asset := media.Asset{Name: "a.mp4", Path: "/data/a.mp4", Status: media.StatusUploaded}
	require.NoError(t, db.Create(&asset).Error)
	assert.Equal(t, uint(1), asset.Version)
}

type countingSweeper struct{ calls atomic.Int32 }

func (c *countingSweeper) Sweep(time.Duration) int {
	c.calls.Add(1)
	return 0
}

func TestPeriodicCleanupStopsWithContext(t *testing.T) {
	db, err := database.Open(":memory:", testsupport.Logger())
	require.NoError(t, err)
	defer database.Close(db)

	sweeper := &countingSweeper{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		database.PeriodicCleanup(ctx, db, sweeper, 10*time.Millisecond, testsupport.Logger())
		close(done)
	}()

	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, 5*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("PeriodicCleanup did not return after cancel")
	}
}
