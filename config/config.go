package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

var gitSHA string
var buildDate string

const envPrefix = "VIDEO_PIPELINE_"

// Config is resolved once at startup and treated as read-only afterwards.
type Config struct {
	DataDir            string `toml:"data_dir"`
	ConfigDir          string `toml:"config_dir"`
	Listen             string `toml:"listen"`
	FfmpegPath         string `toml:"ffmpeg_path"`
	FfprobePath        string `toml:"ffprobe_path"`
	ToolTimeoutSeconds int    `toml:"tool_timeout_seconds"`
	MaxConcurrentTools int    `toml:"max_concurrent_tools"`
	MaxUploadBytes     int64  `toml:"max_upload_bytes"`
	LogLevel           string `toml:"log_level"`
}

// Default returns the configuration used when neither a file nor the
// environment override a value.
func Default() Config {
	return Config{
		DataDir:            "data",
		Listen:             ":8080",
		FfmpegPath:         "ffmpeg",
		FfprobePath:        "ffprobe",
		ToolTimeoutSeconds: 600,
		MaxConcurrentTools: 2,
		MaxUploadBytes:     2 << 30,
		LogLevel:           "info",
	}
}

// Load layers defaults, the optional TOML file at path, and VIDEO_PIPELINE_*
// environment variables, in that order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return Config{}, fmt.Errorf("config file %s does not exist", path)
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if value, exists := os.LookupEnv(envPrefix + "DATA_DIR"); exists {
		c.DataDir = value
	}
	if value, exists := os.LookupEnv(envPrefix + "CONFIG_DIR"); exists {
		c.ConfigDir = value
	}
	if value, exists := os.LookupEnv(envPrefix + "LISTEN"); exists {
		c.Listen = value
	}
	if value, exists := os.LookupEnv(envPrefix + "FFMPEG"); exists {
		c.FfmpegPath = value
	}
	if value, exists := os.LookupEnv(envPrefix + "FFPROBE"); exists {
		c.FfprobePath = value
	}
	if value, exists := os.LookupEnv(envPrefix + "LOG_LEVEL"); exists {
		c.LogLevel = value
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"TOOL_TIMEOUT_SECONDS", &c.ToolTimeoutSeconds},
		{"MAX_CONCURRENT_TOOLS", &c.MaxConcurrentTools},
	}
	for _, entry := range ints {
		value, exists := os.LookupEnv(envPrefix + entry.key)
		if !exists {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, entry.key, err)
		}
		*entry.dst = n
	}

	if value, exists := os.LookupEnv(envPrefix + "MAX_UPLOAD_BYTES"); exists {
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return fmt.Errorf("%sMAX_UPLOAD_BYTES: %w", envPrefix, err)
		}
		c.MaxUploadBytes = n
	}
	return nil
}

func (c *Config) normalize() {
	c.DataDir = strings.TrimSpace(c.DataDir)
	// defaults to DataDir / config
	if strings.TrimSpace(c.ConfigDir) == "" {
		c.ConfigDir = filepath.Join(c.DataDir, "config")
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

// Validate reports the first setting that would keep the service from running.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir must not be empty")
	}
	if c.FfmpegPath == "" || c.FfprobePath == "" {
		return errors.New("ffmpeg_path and ffprobe_path must not be empty")
	}
	if c.ToolTimeoutSeconds <= 0 {
		return fmt.Errorf("tool_timeout_seconds must be positive, got %d", c.ToolTimeoutSeconds)
	}
	if c.MaxConcurrentTools < 1 {
		return fmt.Errorf("max_concurrent_tools must be at least 1, got %d", c.MaxConcurrentTools)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	return nil
}

func (c Config) ToolTimeout() time.Duration {
	return time.Duration(c.ToolTimeoutSeconds) * time.Second
}

func (c Config) DatabasePath() string {
	return filepath.Join(c.ConfigDir, "videos.db")
}

func GetGitSHA() string {
	if gitSHA == "" {
		return "<not provided>"
	} else {
		return gitSHA
	}
}

func GetBuildDate() string {
	if buildDate == "" {
		return "<not provided>"
	} else {
		return buildDate
	}
}
