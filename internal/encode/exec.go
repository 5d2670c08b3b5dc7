package encode

import (
	"bufio"
	"bytes"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"time"
)

const maxStderrBytes = 8 * 1024 // tail of stderr kept for diagnostics

// ExecResult is the outcome of a single engine invocation.
type ExecResult struct {
	Err        error
	ExitCode   int
	StderrTail string
	Duration   time.Duration
}

// Failed reports whether the invocation did not complete cleanly.
func (r ExecResult) Failed() bool {
	return r.Err != nil || r.ExitCode != 0
}

// Execer runs the external transcoding engine. The pipeline and the
// capability probe depend on this interface so tests can substitute a
// fake without spawning processes.
type Execer interface {
	// Run spawns the engine with args, streaming every stdout and stderr
	// line to onLine (stdout carries the -progress key/value stream).
	Run(args []string, onLine func(string)) ExecResult

	// Output spawns the engine with args and returns captured stdout,
	// for listing queries such as -encoders and -decoders.
	Output(args []string) (string, error)
}

// FFmpegExec is the production Execer backed by os/exec.
//
// Run deliberately does not take a context: once an export's transcode
// has started it runs to completion or failure, and there is no timeout
// on the engine process itself.
type FFmpegExec struct {
	bin    string
	logger *slog.Logger
}

func NewFFmpegExec(ffmpegPath string, logger *slog.Logger) *FFmpegExec {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegExec{bin: ffmpegPath, logger: logger}
}

func (e *FFmpegExec) Run(args []string, onLine func(string)) ExecResult {
	start := time.Now()

	cmd := exec.Command(e.bin, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return ExecResult{Err: err, ExitCode: -1, Duration: time.Since(start)}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return ExecResult{Err: err, ExitCode: -1, Duration: time.Since(start)}
	}

	if err := cmd.Start(); err != nil {
		return ExecResult{Err: err, ExitCode: -1, Duration: time.Since(start)}
	}

	var tail limitedBuffer
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		scanLines(stdout, func(line string) {
			if onLine != nil {
				onLine(line)
			}
		})
	}()

	go func() {
		defer wg.Done()
		scanLines(stderr, func(line string) {
			tail.WriteLine(line)
			if e.logger != nil {
				e.logger.Debug("engine stderr", "line", line)
			}
			if onLine != nil {
				onLine(line)
			}
		})
	}()

	wg.Wait()
	err = cmd.Wait()
	elapsed := time.Since(start)

	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	return ExecResult{
		Err:        err,
		ExitCode:   exitCode,
		StderrTail: tail.String(),
		Duration:   elapsed,
	}
}

func (e *FFmpegExec) Output(args []string) (string, error) {
	out, err := exec.Command(e.bin, args...).Output()
	return string(out), err
}

func scanLines(r io.Reader, fn func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fn(scanner.Text())
	}
}

// limitedBuffer keeps only the last maxStderrBytes of written lines.
type limitedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (lb *limitedBuffer) WriteLine(line string) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.buf.WriteString(line)
	lb.buf.WriteByte('\n')
	if lb.buf.Len() > maxStderrBytes {
		b := lb.buf.Bytes()
		trimmed := make([]byte, maxStderrBytes)
		copy(trimmed, b[len(b)-maxStderrBytes:])
		lb.buf.Reset()
		lb.buf.Write(trimmed)
	}
}

func (lb *limitedBuffer) String() string {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.buf.String()
}
