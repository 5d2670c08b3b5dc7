package activity

import "time"

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ExportRecord is one row of the export activity log. A row is created
// when an export session starts and finalized exactly once with either
// a benchmark or an error.
type ExportRecord struct {
	ID         string  `json:"id"`
	ClipID     string  `json:"clip_id"`
	InputPath  string  `json:"input_path"`
	OutputPath string  `json:"output_path"`
	StartSec   float64 `json:"start_s"`
	EndSec     float64 `json:"end_s"`
	Speed      float64 `json:"speed"`
	Volume     float64 `json:"volume"`
	Quality    string  `json:"quality"`
	Status     string  `json:"status"`
	Encoder    string  `json:"encoder,omitempty"`
	DecodeMode string  `json:"decode_mode,omitempty"`
	Fallback   bool    `json:"used_fallback"`
	Error      string  `json:"error,omitempty"`

	ElapsedMs      int64   `json:"elapsed_ms"`
	RealtimeFactor float64 `json:"realtime_factor"`
	OutputBytes    *int64  `json:"output_bytes,omitempty"`
	TargetBytes    *int64  `json:"target_bytes,omitempty"`
	VideoKbps      *int    `json:"video_kbps,omitempty"`
	AudioKbps      *int    `json:"audio_kbps,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
