package api

import (
	"time"

	"github.com/clipkit/clipkit-agent/internal/activity"
	"github.com/clipkit/clipkit-agent/internal/library"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	State          string `json:"state"`
	ClipsCount     int    `json:"clips_count"`
	ExportsRunning int    `json:"exports_running"`
	LastError      string `json:"last_error,omitempty"`
	EncoderMode    string `json:"encoder_mode"`
}

type CapabilityResponse struct {
	Available bool   `json:"available"`
	Mode      string `json:"mode"`
	Reason    string `json:"reason,omitempty"`
	CheckedAt string `json:"checked_at"`
}

type ClipResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	ModifiedAt string `json:"modified_at"`
	HasSidecar bool   `json:"has_sidecar"`
}

type ClipsResponse struct {
	Clips []ClipResponse `json:"clips"`
}

type ExportResponse struct {
	ID             string  `json:"id"`
	ClipID         string  `json:"clip_id"`
	OutputPath     string  `json:"output_path"`
	StartSec       float64 `json:"start_s"`
	EndSec         float64 `json:"end_s"`
	Speed          float64 `json:"speed"`
	Volume         float64 `json:"volume"`
	Quality        string  `json:"quality"`
	Status         string  `json:"status"`
	Encoder        string  `json:"encoder,omitempty"`
	DecodeMode     string  `json:"decode_mode,omitempty"`
	UsedFallback   bool    `json:"used_fallback"`
	Error          string  `json:"error,omitempty"`
	ElapsedMs      int64   `json:"elapsed_ms,omitempty"`
	RealtimeFactor float64 `json:"realtime_factor,omitempty"`
	OutputBytes    *int64  `json:"output_bytes,omitempty"`
	TargetBytes    *int64  `json:"target_bytes,omitempty"`
	VideoKbps      *int    `json:"video_kbps,omitempty"`
	AudioKbps      *int    `json:"audio_kbps,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

type ActivityResponse struct {
	Exports []ExportResponse `json:"exports"`
}

type SettingsResponse struct {
	DefaultQuality string `json:"default_quality"`
}

type UpdateSettingsRequest struct {
	DefaultQuality string `json:"default_quality"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func ClipToResponse(c *library.Clip) ClipResponse {
	return ClipResponse{
		ID:         c.ID,
		Name:       c.Name,
		Size:       c.Size,
		ModifiedAt: c.ModifiedAt.Format(time.RFC3339),
		HasSidecar: c.HasSidecar,
	}
}

func ExportToResponse(rec *activity.ExportRecord) ExportResponse {
	return ExportResponse{
		ID:             rec.ID,
		ClipID:         rec.ClipID,
		OutputPath:     rec.OutputPath,
		StartSec:       rec.StartSec,
		EndSec:         rec.EndSec,
		Speed:          rec.Speed,
		Volume:         rec.Volume,
		Quality:        rec.Quality,
		Status:         rec.Status,
		Encoder:        rec.Encoder,
		DecodeMode:     rec.DecodeMode,
		UsedFallback:   rec.Fallback,
		Error:          rec.Error,
		ElapsedMs:      rec.ElapsedMs,
		RealtimeFactor: rec.RealtimeFactor,
		OutputBytes:    rec.OutputBytes,
		TargetBytes:    rec.TargetBytes,
		VideoKbps:      rec.VideoKbps,
		AudioKbps:      rec.AudioKbps,
		CreatedAt:      rec.CreatedAt.Format(time.RFC3339),
	}
}
