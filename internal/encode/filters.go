package encode

import "math"

// materialEpsilon is the band around 1.0 inside which a speed or volume
// multiplier is treated as a no-op. The extra slack keeps boundary
// values such as 0.999, which float64 stores as slightly more than
// epsilon away from 1, inside the band.
const (
	materialEpsilon = 0.001
	epsilonSlack    = 1e-9
)

// FilterPlan is the concrete filter-chain description for one export.
// NeedsVideoFilter is the sole gate for whether hardware decode may be
// attempted at all: filtered frames must live in CPU memory.
type FilterPlan struct {
	VideoFilters     []string
	AudioFilters     []string
	NeedsVideoFilter bool
}

// FilterParams are the user-facing knobs the planner turns into filters.
type FilterParams struct {
	Speed        float64
	Volume       float64
	Quality      Quality
	Range        *VolumeRange
	TrimStart    float64
	TrimEnd      float64
	SourceHeight int
}

// hasSpeedChange reports whether the speed multiplier is material.
func hasSpeedChange(speed float64) bool {
	return math.Abs(speed-1) > materialEpsilon+epsilonSlack
}

// hasVolumeChange reports whether a volume multiplier is material.
func hasVolumeChange(volume float64) bool {
	return math.Abs(volume-1) > materialEpsilon+epsilonSlack
}

// BuildFilterPlan derives the filter chains for an export.
//
// A material speed change contributes a time-scale video filter and a
// tempo audio filter. A downscale to 1080p is added only for the
// discord tier when the source is taller than 1080. A material base
// volume contributes a flat volume filter. A ranged volume adjustment
// is applied only where the range, shifted to trim-relative time and
// clamped, still overlaps the clip.
func BuildFilterPlan(p FilterParams) FilterPlan {
	var plan FilterPlan

	if hasSpeedChange(p.Speed) {
		plan.VideoFilters = append(plan.VideoFilters, "setpts=PTS/"+formatFloat(p.Speed))
		plan.AudioFilters = append(plan.AudioFilters, "atempo="+formatFloat(p.Speed))
	}

	if p.Quality == QualityDiscord && p.SourceHeight > 1080 {
		plan.VideoFilters = append(plan.VideoFilters, "scale=-2:1080:flags=fast_bilinear")
	}

	if hasVolumeChange(p.Volume) {
		plan.AudioFilters = append(plan.AudioFilters, "volume="+formatFloat(p.Volume))
	}

	if f, ok := rangeVolumeFilter(p); ok {
		plan.AudioFilters = append(plan.AudioFilters, f)
	}

	plan.NeedsVideoFilter = len(plan.VideoFilters) > 0
	return plan
}

// rangeVolumeFilter builds the conditional volume filter for a ranged
// adjustment, or reports that none applies. The range is shifted to be
// relative to the trim start and clamped to [0, duration); a range that
// does not overlap the clip yields no filter.
func rangeVolumeFilter(p FilterParams) (string, bool) {
	r := p.Range
	if r == nil || r.End <= r.Start || !hasVolumeChange(r.Level) {
		return "", false
	}

	duration := p.TrimEnd - p.TrimStart
	relStart := math.Max(0, r.Start-p.TrimStart)
	relEnd := math.Min(duration, r.End-p.TrimStart)
	if relEnd <= relStart {
		return "", false
	}

	return "volume=enable='between(t," + formatSeconds(relStart) + "," + formatSeconds(relEnd) + ")':volume=" + formatFloat(r.Level), true
}
