package encode

import (
	"os"
	"time"
)

// BuildBenchmark derives the diagnostic record for a completed export.
// The output file is stat'ed for size; a stat failure records a nil
// size rather than failing the export. Budget facts are carried only
// for the discord tier.
func BuildBenchmark(outcome *Outcome, req Request, startedAt, completedAt time.Time) Benchmark {
	elapsed := completedAt.Sub(startedAt)

	b := Benchmark{
		Encoder:      outcome.Encoder,
		DecodeMode:   outcome.DecodeMode,
		UsedFallback: outcome.UsedFallback,
		VideoFilters: outcome.VideoFilters,
		AudioFilters: outcome.AudioFilters,
		ElapsedMs:    elapsed.Milliseconds(),
		TargetBytes:  outcome.TargetBytes,
		VideoKbps:    outcome.VideoKbps,
		AudioKbps:    outcome.AudioKbps,
		StartedAt:    startedAt,
	}

	if sec := elapsed.Seconds(); sec > 0 {
		b.RealtimeFactor = req.ClipDuration() / sec
	}

	if info, err := os.Stat(req.OutputPath); err == nil {
		size := info.Size()
		b.OutputBytes = &size
	}

	return b
}
