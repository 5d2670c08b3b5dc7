package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/clipkit/clipkit-agent/internal/activity"
	"github.com/clipkit/clipkit-agent/internal/api"
	"github.com/clipkit/clipkit-agent/internal/clipboard"
	"github.com/clipkit/clipkit-agent/internal/config"
	"github.com/clipkit/clipkit-agent/internal/db"
	"github.com/clipkit/clipkit-agent/internal/encode"
	"github.com/clipkit/clipkit-agent/internal/events"
	"github.com/clipkit/clipkit-agent/internal/export"
	"github.com/clipkit/clipkit-agent/internal/library"
	"github.com/clipkit/clipkit-agent/internal/logging"
	"github.com/clipkit/clipkit-agent/internal/playback"
	"github.com/clipkit/clipkit-agent/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.ClipDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create clip dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting clipkit agent",
		"version", config.Version,
		"data_dir", cfg.DataDir(),
		"clip_dir", logging.SanitizePath(cfg.ClipDir()),
	)

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := activity.NewRepository(database.Conn())

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Clipkit Agent v%s\n", config.Version)
	fmt.Printf("  API URL:    http://127.0.0.1:%d\n", cfg.Port())
	fmt.Printf("  Auth Token: %s\n", authToken)
	fmt.Println()

	ffmpeg := encode.NewFFmpegExec(cfg.FFmpegPath(), logging.WithComponent(logger, "ffmpeg"))
	prober := encode.NewProber(cfg.FFprobePath())
	capability := encode.NewCapability(ffmpeg, logging.WithComponent(logger, "capability"))
	pipeline := encode.NewPipeline(ffmpeg, prober, capability, logging.WithComponent(logger, "pipeline"))

	// Warm the capability cache so the first export does not pay the
	// probe latency.
	status := capability.NvencStatus(false)
	logger.Info("encoder capability",
		"available", status.Available,
		"mode", status.Mode,
		"reason", status.Reason,
	)

	hub := events.NewHub()
	lib := library.NewService(cfg.ClipDir(), logging.WithComponent(logger, "library"))
	copier := clipboard.New(logging.WithComponent(logger, "clipboard"))
	exportSvc := export.NewService(lib, pipeline, repo, hub, copier,
		filepath.Join(cfg.ClipDir(), "exports"), logging.WithComponent(logger, "export"))

	apiServer := api.NewServer(api.ServerConfig{
		Port:       cfg.Port(),
		Version:    config.Version,
		StartTime:  startTime,
		Library:    lib,
		Exports:    exportSvc,
		Capability: capability,
		Repository: repo,
		Hub:        hub,
		Streamer:   playback.NewStreamer(lib, logging.WithComponent(logger, "playback")),
		Logger:     logging.WithComponent(logger, "api"),
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Hub:     hub,
			ClipDir: cfg.ClipDir(),
			Logger:  logging.WithComponent(logger, "tray"),
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	// In-flight transcodes run to completion so their activity records
	// are finalized rather than left as interrupted.
	exportSvc.Wait()

	logger.Info("shutdown complete")
	return nil
}

func ensureAuthToken(repo activity.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetSetting(ctx, api.AuthTokenSetting)
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetSetting(ctx, api.AuthTokenSetting, token); err != nil {
		return "", err
	}

	return token, nil
}
