package encode

import (
	"fmt"
	"log/slog"
)

// Hooks carries the per-export callbacks the pipeline emits into.
type Hooks struct {
	// OnProgress receives throttled percentages in [0, 100].
	OnProgress ProgressFunc
	// OnFallback fires once when the pipeline irrevocably switches to
	// software encoding.
	OnFallback func()
}

// SourceProber abstracts the metadata probe so pipeline tests can
// inject fixed stream facts.
type SourceProber interface {
	Probe(path string) (SourceStreamInfo, error)
}

// Pipeline drives one export end to end: probe the source, plan
// filters, query capability, attempt hardware encoding across the
// ordered decode-mode candidates, and fall back one-way to software.
type Pipeline struct {
	exec       Execer
	prober     SourceProber
	capability *Capability
	logger     *slog.Logger
}

func NewPipeline(exec Execer, prober SourceProber, capability *Capability, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		exec:       exec,
		prober:     prober,
		capability: capability,
		logger:     logger,
	}
}

// Export runs the full pipeline for one request.
//
// Hardware decode-mode attempts are iterated in order; each failure is
// recorded against its mode (bounded description) and invalidates the
// capability cache so the next export re-probes. When the candidate
// list is exhausted, or capability was already unavailable, a single
// software attempt is made; its failure is fatal.
//
// Output integrity beyond the engine's completion signal is not
// verified.
func (p *Pipeline) Export(req Request, hooks Hooks) (*Outcome, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.Quality == "" {
		req.Quality = QualityDiscord
	}

	src, err := p.prober.Probe(req.InputPath)
	if err != nil {
		return nil, err
	}

	plan := BuildFilterPlan(FilterParams{
		Speed:        req.Speed,
		Volume:       req.Volume,
		Quality:      req.Quality,
		Range:        req.Range,
		TrimStart:    req.Start,
		TrimEnd:      req.End,
		SourceHeight: src.Height,
	})

	outcome := &Outcome{
		DecodeMode:    DecodeModeNone,
		AttemptErrors: map[string]string{},
		VideoFilters:  plan.VideoFilters,
		AudioFilters:  plan.AudioFilters,
		Source:        src,
	}

	videoKbps := 0
	if req.Quality == QualityDiscord {
		kbps, targetBytes := DiscordBudget(req.ClipDuration())
		videoKbps = kbps
		audioKbps := AudioKbpsFor(req.Quality)
		outcome.VideoKbps = &kbps
		outcome.TargetBytes = &targetBytes
		outcome.AudioKbps = &audioKbps
	}

	tracker := newProgressTracker(req.OutputDuration(), src.FPS, hooks.OnProgress)
	audio := audioOpts(plan, req.Quality, req.AllowAudioCopy)

	status := p.capability.NvencStatus(false)
	if status.Available {
		decoders := p.capability.DecoderNames(false)
		candidates := DecodeCandidates(plan.NeedsVideoFilter, src.Codec, decoders)
		outcome.CuvidDecoder = requestedCuvid(candidates)

		hwVideo := hardwareVideoOpts(req.Quality, videoKbps)
		for _, mode := range candidates {
			outcome.AttemptedModes = append(outcome.AttemptedModes, mode)

			args := buildArgs(req, plan, mode, hwVideo, audio)
			p.logf("attempting hardware encode", "decode_mode", mode)

			res := p.exec.Run(args, tracker.HandleLine)
			if !res.Failed() {
				tracker.Complete()
				outcome.Encoder = EncoderNvenc
				outcome.DecodeMode = mode
				outcome.HardwareDecode = mode != DecodeModeNone
				return outcome, nil
			}

			outcome.AttemptErrors[mode] = attemptError(res.Err, res.StderrTail)
			p.capability.Invalidate()
			p.logf("hardware encode attempt failed",
				"decode_mode", mode, "error", outcome.AttemptErrors[mode])
		}
		p.logf("hardware decode candidates exhausted, falling back to software")
	} else {
		// A known-unavailable hardware path is a precondition, not an
		// attempt: skip decode iteration entirely.
		p.logf("hardware encoding unavailable, using software encode", "reason", status.Reason)
	}

	// One-way fallback: hardware is never retried within this export.
	outcome.UsedFallback = true
	if hooks.OnFallback != nil {
		hooks.OnFallback()
	}

	swVideo := softwareVideoOpts(req.Quality, videoKbps)
	args := buildArgs(req, plan, DecodeModeNone, swVideo, audio)

	res := p.exec.Run(args, tracker.HandleLine)
	if res.Failed() {
		return nil, &SoftwareEncodeError{
			Err:    res.Err,
			Detail: truncate(firstNonEmptyLine(res.StderrTail), maxAttemptErrLen),
		}
	}

	tracker.Complete()
	outcome.Encoder = EncoderSoftware
	outcome.DecodeMode = DecodeModeNone
	outcome.HardwareDecode = false
	return outcome, nil
}

func validateRequest(req Request) error {
	if req.InputPath == "" {
		return fmt.Errorf("input path is required")
	}
	if req.OutputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if req.End <= req.Start {
		return fmt.Errorf("end (%v) must be greater than start (%v)", req.End, req.Start)
	}
	if req.Speed <= 0 {
		return fmt.Errorf("speed must be positive")
	}
	if req.Volume < 0 {
		return fmt.Errorf("volume must not be negative")
	}
	return nil
}

// requestedCuvid returns the specialized decoder at the head of the
// candidate list, if one was selected.
func requestedCuvid(candidates []string) string {
	if len(candidates) > 0 {
		if name := candidates[0]; name != DecodeModeNone &&
			name != DecodeModeCUDA && name != DecodeModeD3D11VA && name != DecodeModeDXVA2 {
			return name
		}
	}
	return ""
}

func (p *Pipeline) logf(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}
