// Package encode orchestrates the external ffmpeg/ffprobe toolchain to
// export a trimmed, speed- and volume-adjusted clip segment. Hardware
// (NVENC) encoding is attempted across an ordered list of decode modes
// and falls back one-way to software encoding when every hardware
// attempt fails or hardware is known to be unavailable.
package encode

import (
	"strconv"
	"strings"
	"time"
)

// Quality selects one of the three export tiers.
type Quality string

const (
	QualityLossless Quality = "lossless"
	QualityHigh     Quality = "high"
	QualityDiscord  Quality = "discord"
)

// ParseQuality maps a user-supplied quality string to a tier.
// Unset or unrecognized values fall back to the discord tier.
func ParseQuality(s string) Quality {
	switch Quality(strings.ToLower(strings.TrimSpace(s))) {
	case QualityLossless:
		return QualityLossless
	case QualityHigh:
		return QualityHigh
	default:
		return QualityDiscord
	}
}

// VolumeRange is a time-bounded volume adjustment in absolute source
// seconds, typically loaded from a per-clip sidecar file.
type VolumeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Level float64 `json:"level"`
}

// Request describes one export. Start/End are absolute source seconds,
// End must be greater than Start. Volume and Speed are multipliers.
type Request struct {
	InputPath  string
	OutputPath string
	Start      float64
	End        float64
	Volume     float64
	Speed      float64
	Quality    Quality
	Range      *VolumeRange

	// AllowAudioCopy permits passing the audio stream through unmodified
	// when no audio filtering is needed and the tier is not discord.
	AllowAudioCopy bool
}

// ClipDuration returns the trimmed segment length in source seconds.
func (r Request) ClipDuration() float64 {
	return r.End - r.Start
}

// OutputDuration returns the expected output length after the speed
// change is applied.
func (r Request) OutputDuration() float64 {
	if r.Speed > 0 {
		return r.ClipDuration() / r.Speed
	}
	return r.ClipDuration()
}

// SourceStreamInfo holds the probed facts about the input video stream.
// It is immutable once probed; one per export.
type SourceStreamInfo struct {
	Width    int
	Height   int
	FPS      float64
	Codec    string
	PixFmt   string
	Duration float64
}

// Outcome records which path an export actually took. It feeds the
// benchmark record and the activity log.
type Outcome struct {
	UsedFallback   bool
	Encoder        string
	DecodeMode     string
	HardwareDecode bool
	CuvidDecoder   string
	AttemptedModes []string
	AttemptErrors  map[string]string
	VideoFilters   []string
	AudioFilters   []string
	Source         SourceStreamInfo

	// Discord bitrate budget facts, nil for other tiers.
	TargetBytes *int64
	VideoKbps   *int
	AudioKbps   *int
}

// Benchmark is the derived, read-only summary built once after an
// export completes. Never mutated after creation.
type Benchmark struct {
	Encoder        string
	DecodeMode     string
	UsedFallback   bool
	VideoFilters   []string
	AudioFilters   []string
	ElapsedMs      int64
	RealtimeFactor float64
	OutputBytes    *int64
	TargetBytes    *int64
	VideoKbps      *int
	AudioKbps      *int
	StartedAt      time.Time
}

// formatFloat renders a multiplier without trailing zeros, so filter
// expressions stay stable for common values (2 not 2.000000).
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatSeconds renders a timestamp in seconds with millisecond precision.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
