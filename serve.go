package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"video-pipeline/assets"
	"video-pipeline/config"
	"video-pipeline/database"
	"video-pipeline/ffmpeg"
	"video-pipeline/handlers"
	"video-pipeline/pipeline"
	"video-pipeline/storage"
	"video-pipeline/transform"
)

const cleanupInterval = time.Hour

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.Infof("GitSHA: %s", config.GetGitSHA())
	log.Infof("BuildDate: %s", config.GetBuildDate())

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dir, err := storage.New(cfg.DataDir, log)
	if err != nil {
		return err
	}
	unlock, err := dir.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	db, err := database.Open(cfg.DatabasePath(), log)
	if err != nil {
		return fmt.Errorf("open database %s: %w", cfg.DatabasePath(), err)
	}
	defer database.Close(db)

	go database.PeriodicCleanup(ctx, db, dir, cleanupInterval, log)

	runner := ffmpeg.NewRunner(toolsFor(cfg), log)
	if version, err := runner.Version(ctx); err != nil {
		log.Warnf("ffmpeg unavailable: %v", err)
	} else {
		log.Infof("using %s", version)
	}

	p := pipeline.New(
		assets.New(db, log),
		runner,
		transform.New(runner, dir, cfg.ToolTimeout(), log),
		dir,
		log,
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	handlers.New(p, dir, runner, cfg.MaxUploadBytes, log).Register(e)

	errc := make(chan error, 1)
	go func() {
		errc <- e.Start(cfg.Listen)
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Infoln("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
