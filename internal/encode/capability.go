package encode

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	capabilityTTL    = 5 * time.Minute
	maxReasonLen     = 1200
	nvencEncoderName = "h264_nvenc"
)

const (
	ModeNvenc    = "nvenc"
	ModeSoftware = "software"
)

// NvencStatus reports whether hardware encoding is functionally
// available. A fresh probe result fully replaces the cached value.
type NvencStatus struct {
	Available bool
	Mode      string
	Reason    string
	CheckedAt time.Time
}

// Capability probes the transcoding engine for a working NVENC path and
// for the set of available decoder names, caching both independently
// for capabilityTTL. It is held by the pipeline as an injected service
// instance rather than package-level state, so clock and engine
// execution are substitutable in tests.
//
// The value is advisory: concurrent exports read whatever cached value
// is current, and an invalidation triggered by one export's hardware
// failure becomes visible to later probes, not to in-flight ones.
type Capability struct {
	exec   Execer
	logger *slog.Logger
	now    func() time.Time

	mu         sync.Mutex
	nvenc      *NvencStatus
	decoders   map[string]bool
	decodersAt time.Time
}

func NewCapability(exec Execer, logger *slog.Logger) *Capability {
	return &Capability{
		exec:   exec,
		logger: logger,
		now:    time.Now,
	}
}

// NvencStatus returns the cached status when fresh, otherwise probes.
//
// The probe is two-step because an advertised encoder frequently does
// not imply a working driver or runtime: first the engine's encoder
// listing is checked for h264_nvenc, then a few hundred milliseconds of
// a generated test pattern are pushed through the hardware path and
// discarded. Only a successful synthetic encode marks NVENC available.
func (c *Capability) NvencStatus(forceRefresh bool) NvencStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !forceRefresh && c.nvenc != nil && c.now().Sub(c.nvenc.CheckedAt) < capabilityTTL {
		return *c.nvenc
	}

	status := c.probeNvenc()
	c.nvenc = &status

	if c.logger != nil {
		c.logger.Info("nvenc capability probed",
			"available", status.Available,
			"mode", status.Mode,
			"reason", status.Reason,
		)
	}
	return status
}

func (c *Capability) probeNvenc() NvencStatus {
	checkedAt := c.now()

	out, err := c.exec.Output([]string{"-hide_banner", "-encoders"})
	if err != nil {
		return NvencStatus{
			Mode:      ModeSoftware,
			Reason:    truncate(fmt.Sprintf("encoder listing failed: %v", err), maxReasonLen),
			CheckedAt: checkedAt,
		}
	}
	if !strings.Contains(out, nvencEncoderName) {
		return NvencStatus{
			Mode:      ModeSoftware,
			Reason:    nvencEncoderName + " not advertised by engine build",
			CheckedAt: checkedAt,
		}
	}

	// Synthetic encode: a short generated test pattern through the
	// hardware encoder, output discarded.
	res := c.exec.Run([]string{
		"-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc2=duration=0.3:size=320x240:rate=30",
		"-c:v", nvencEncoderName,
		"-f", "null", "-",
	}, nil)
	if res.Failed() {
		reason := fmt.Sprintf("synthetic nvenc encode failed: %v", res.Err)
		if line := firstNonEmptyLine(res.StderrTail); line != "" {
			reason += ": " + line
		}
		return NvencStatus{
			Mode:      ModeSoftware,
			Reason:    truncate(reason, maxReasonLen),
			CheckedAt: checkedAt,
		}
	}

	return NvencStatus{Available: true, Mode: ModeNvenc, CheckedAt: checkedAt}
}

// DecoderNames returns the lowercase set of decoder identifiers the
// engine advertises, cached on its own TTL slot.
func (c *Capability) DecoderNames(forceRefresh bool) map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !forceRefresh && c.decoders != nil && c.now().Sub(c.decodersAt) < capabilityTTL {
		return c.decoders
	}

	names := map[string]bool{}
	out, err := c.exec.Output([]string{"-hide_banner", "-decoders"})
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("decoder listing failed", "error", err)
		}
		// Cache the empty set; specialized decode paths are skipped.
		c.decoders = names
		c.decodersAt = c.now()
		return names
	}

	for name := range parseDecoderList(out) {
		names[name] = true
	}
	c.decoders = names
	c.decodersAt = c.now()
	return names
}

// Invalidate clears both cache slots so the next probe re-checks the
// engine. Called after any live hardware-encode failure; it affects the
// next export, not attempts already in flight.
func (c *Capability) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nvenc = nil
	c.decoders = nil
}

// SetClock replaces the time source. Test hook.
func (c *Capability) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// parseDecoderList extracts decoder names from the engine's -decoders
// table. Lines before the "------" separator are header text; after it,
// the second field of each row is the decoder identifier.
func parseDecoderList(out string) map[string]bool {
	names := map[string]bool{}
	inTable := false
	for _, line := range strings.Split(out, "\n") {
		if !inTable {
			if strings.Contains(line, "------") {
				inTable = true
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		names[strings.ToLower(fields[1])] = true
	}
	return names
}
