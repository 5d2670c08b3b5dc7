package encode

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	progressMinInterval = 100 * time.Millisecond
	progressCeiling     = 99.9
)

// ProgressFunc receives throttled percentage updates in [0, 100].
type ProgressFunc func(percent float64)

// progressTracker converts the engine's native progress stream (or, when
// that is absent, parsed frame counters) into throttled percentage
// callbacks. Values are clamped below 100 until Complete forces it.
type progressTracker struct {
	outputDuration float64 // expected output seconds
	totalFrames    float64 // estimated, duration x fps
	emit           ProgressFunc
	now            func() time.Time

	mu        sync.Mutex
	lastEmit  time.Time
	sawNative bool
	done      bool
}

func newProgressTracker(outputDuration, fps float64, emit ProgressFunc) *progressTracker {
	return &progressTracker{
		outputDuration: outputDuration,
		totalFrames:    outputDuration * fps,
		emit:           emit,
		now:            time.Now,
	}
}

// HandleLine consumes one line of engine output. Native progress keys
// (out_time_us) take precedence; frame counters are used only until a
// native value has been seen.
func (t *progressTracker) HandleLine(line string) {
	if t == nil || t.emit == nil {
		return
	}

	if v, ok := strings.CutPrefix(line, "out_time_us="); ok {
		us, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || t.outputDuration <= 0 {
			return
		}
		t.mu.Lock()
		t.sawNative = true
		t.mu.Unlock()
		t.report(float64(us) / 1e6 / t.outputDuration * 100)
		return
	}

	if v, ok := strings.CutPrefix(line, "frame="); ok {
		t.mu.Lock()
		native := t.sawNative
		t.mu.Unlock()
		if native || t.totalFrames <= 0 {
			return
		}
		frame, err := strconv.ParseFloat(leadingNumber(v), 64)
		if err != nil {
			return
		}
		t.report(frame / t.totalFrames * 100)
	}
}

// Complete forces a final 100% emission, bypassing the throttle.
func (t *progressTracker) Complete() {
	if t == nil || t.emit == nil {
		return
	}
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return
	}
	t.done = true
	t.mu.Unlock()
	t.emit(100)
}

func (t *progressTracker) report(percent float64) {
	if percent < 0 {
		percent = 0
	}
	if percent > progressCeiling {
		percent = progressCeiling
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	now := t.now()
	if !t.lastEmit.IsZero() && now.Sub(t.lastEmit) < progressMinInterval {
		return
	}
	t.lastEmit = now
	t.emit(percent)
}

// leadingNumber extracts the first numeric token, tolerant of the
// space-padded "frame=  123" form in diagnostic output.
func leadingNumber(s string) string {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9') {
		end++
	}
	return s[:end]
}
