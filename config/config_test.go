package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG", "DATA_DIR", "CONFIG_DIR", "LISTEN", "FFMPEG", "FFPROBE", "LOG_LEVEL",
		"TOOL_TIMEOUT_SECONDS", "MAX_CONCURRENT_TOOLS", "MAX_UPLOAD_BYTES",
	} {
		t.Setenv(envPrefix+key, "")
		os.Unsetenv(envPrefix + key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, filepath.Join("data", "config"), cfg.ConfigDir)
	assert.Equal(t, filepath.Join("data", "config", "videos.db"), cfg.DatabasePath())
	assert.Equal(t, 10*time.Minute, cfg.ToolTimeout())
	assert.Equal(t, "ffmpeg", cfg.FfmpegPath)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "pipeline.toml")
	content := `
data_dir = "/srv/videos"
ffmpeg_path = "/opt/ffmpeg/bin/ffmpeg"
tool_timeout_seconds = 30
max_concurrent_tools = 4
log_level = "DEBUG"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv(envPrefix+"MAX_CONCURRENT_TOOLS", "8")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/videos", cfg.DataDir)
	assert.Equal(t, "/srv/videos/config", cfg.ConfigDir)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.FfmpegPath)
	assert.Equal(t, 30*time.Second, cfg.ToolTimeout())
	assert.Equal(t, 8, cfg.MaxConcurrentTools)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"zero timeout", "TOOL_TIMEOUT_SECONDS", "0"},
		{"no tools", "MAX_CONCURRENT_TOOLS", "0"},
		{"not a number", "MAX_UPLOAD_BYTES", "lots"},
		{"empty data dir", "DATA_DIR", " "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(envPrefix+tt.key, tt.val)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "does not exist")
}
