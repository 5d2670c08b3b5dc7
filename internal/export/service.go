// Package export orchestrates clip export sessions: it resolves the
// source clip, derives the encode request, drives the encoding pipeline
// in the background, and records every session in the activity log.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clipkit/clipkit-agent/internal/activity"
	"github.com/clipkit/clipkit-agent/internal/encode"
	"github.com/clipkit/clipkit-agent/internal/events"
	"github.com/clipkit/clipkit-agent/internal/library"
)

// Encoder is the one pipeline operation the service depends on.
type Encoder interface {
	Export(req encode.Request, hooks encode.Hooks) (*encode.Outcome, error)
}

// FileCopier places a finished export on the system clipboard.
type FileCopier interface {
	CopyFile(path string) error
}

// Params is one export request as it arrives from the API.
type Params struct {
	ClipID  string  `json:"clip_id"`
	Start   float64 `json:"start_s"`
	End     float64 `json:"end_s"`
	Speed   float64 `json:"speed"`
	Volume  float64 `json:"volume"`
	Quality string  `json:"quality"`

	// CopyToClipboard puts the finished file on the clipboard.
	// Defaults to true at the API layer.
	CopyToClipboard bool `json:"copy_to_clipboard"`
}

type Service struct {
	library   *library.Service
	encoder   Encoder
	repo      activity.Repository
	hub       *events.Hub
	copier    FileCopier
	logger    *slog.Logger
	outputDir string

	wg sync.WaitGroup
}

func NewService(lib *library.Service, encoder Encoder, repo activity.Repository,
	hub *events.Hub, copier FileCopier, outputDir string, logger *slog.Logger) *Service {
	return &Service{
		library:   lib,
		encoder:   encoder,
		repo:      repo,
		hub:       hub,
		copier:    copier,
		logger:    logger,
		outputDir: outputDir,
	}
}

// Start validates params, registers a new session in the activity log
// and launches the encode in the background. The returned record is the
// session's initial running state.
func (s *Service) Start(ctx context.Context, params Params) (*activity.ExportRecord, error) {
	if params.End <= params.Start {
		return nil, fmt.Errorf("end_s (%v) must be greater than start_s (%v)", params.End, params.Start)
	}
	if params.Speed == 0 {
		params.Speed = 1
	}
	if params.Speed < 0 {
		return nil, fmt.Errorf("speed must be positive")
	}
	if params.Volume == 0 {
		params.Volume = 1
	}
	if params.Volume < 0 {
		return nil, fmt.Errorf("volume must not be negative")
	}

	inputPath, err := s.library.Resolve(params.ClipID)
	if err != nil {
		return nil, err
	}

	volumeRange, err := s.library.VolumeRange(params.ClipID)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	quality := encode.ParseQuality(params.Quality)
	now := time.Now()
	rec := &activity.ExportRecord{
		ID:         uuid.NewString(),
		ClipID:     params.ClipID,
		InputPath:  inputPath,
		OutputPath: s.outputPath(params.ClipID, quality, now),
		StartSec:   params.Start,
		EndSec:     params.End,
		Speed:      params.Speed,
		Volume:     params.Volume,
		Quality:    string(quality),
		Status:     activity.StatusRunning,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateExport(ctx, rec); err != nil {
		return nil, fmt.Errorf("record export session: %w", err)
	}

	req := encode.Request{
		InputPath:      inputPath,
		OutputPath:     rec.OutputPath,
		Start:          params.Start,
		End:            params.End,
		Speed:          params.Speed,
		Volume:         params.Volume,
		Quality:        quality,
		Range:          volumeRange,
		AllowAudioCopy: true,
	}

	s.logger.Info("export started",
		"session_id", rec.ID,
		"clip_id", params.ClipID,
		"quality", rec.Quality,
		"duration_s", req.ClipDuration(),
	)

	s.wg.Add(1)
	go s.run(rec, req, params.CopyToClipboard)

	return rec, nil
}

// Get returns one session's current state.
func (s *Service) Get(ctx context.Context, id string) (*activity.ExportRecord, error) {
	return s.repo.GetExport(ctx, id)
}

// Recent returns the latest sessions, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]*activity.ExportRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListExports(ctx, limit)
}

// Wait blocks until every in-flight export has finished. Used during
// shutdown; new sessions started while waiting are included.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) run(rec *activity.ExportRecord, req encode.Request, copyToClipboard bool) {
	defer s.wg.Done()

	startedAt := time.Now()
	hooks := encode.Hooks{
		OnProgress: func(percent float64) { s.hub.Progress(rec.ID, percent) },
		OnFallback: func() { s.hub.Fallback(rec.ID) },
	}

	outcome, err := s.encoder.Export(req, hooks)
	completedAt := time.Now()

	if err != nil {
		rec.Status = activity.StatusFailed
		rec.Error = err.Error()
		rec.ElapsedMs = completedAt.Sub(startedAt).Milliseconds()
		s.finalize(rec)
		s.hub.Failed(rec.ID, rec.Error)
		s.logger.Error("export failed", "session_id", rec.ID, "error", err)
		return
	}

	bench := encode.BuildBenchmark(outcome, req, startedAt, completedAt)

	rec.Status = activity.StatusCompleted
	rec.Encoder = outcome.Encoder
	rec.DecodeMode = outcome.DecodeMode
	rec.Fallback = outcome.UsedFallback
	rec.ElapsedMs = bench.ElapsedMs
	rec.RealtimeFactor = bench.RealtimeFactor
	rec.OutputBytes = bench.OutputBytes
	rec.TargetBytes = bench.TargetBytes
	rec.VideoKbps = bench.VideoKbps
	rec.AudioKbps = bench.AudioKbps
	s.finalize(rec)
	s.hub.Done(rec.ID)

	s.logger.Info("export completed",
		"session_id", rec.ID,
		"encoder", outcome.Encoder,
		"decode_mode", outcome.DecodeMode,
		"used_fallback", outcome.UsedFallback,
		"elapsed_ms", bench.ElapsedMs,
		"realtime_factor", bench.RealtimeFactor,
	)

	if copyToClipboard && s.copier != nil {
		// Best effort; the export itself already succeeded.
		_ = s.copier.CopyFile(rec.OutputPath)
	}
}

func (s *Service) finalize(rec *activity.ExportRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.repo.FinalizeExport(ctx, rec); err != nil {
		s.logger.Error("failed to finalize export record", "session_id", rec.ID, "error", err)
	}
}

// outputPath builds a collision-safe output file name in the export
// directory: <clip>_<quality>_<timestamp>.mp4.
func (s *Service) outputPath(clipID string, quality encode.Quality, now time.Time) string {
	base := SanitizeName(trimExt(clipID), 80)
	if base == "" {
		base = "clip"
	}
	name := fmt.Sprintf("%s_%s_%s.mp4", base, quality, now.Format("20060102_150405"))
	return filepath.Join(s.outputDir, name)
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
