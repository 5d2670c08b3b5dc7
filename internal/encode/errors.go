package encode

import (
	"fmt"
	"strings"
)

// SourceProbeError means the input file or its metadata could not be
// read. It is fatal and rejects the export before any encode attempt.
type SourceProbeError struct {
	Path string
	Err  error
}

func (e *SourceProbeError) Error() string {
	return fmt.Sprintf("probe source %s: %v", e.Path, e.Err)
}

func (e *SourceProbeError) Unwrap() error { return e.Err }

// SoftwareEncodeError means the final software encode path failed.
// There is no retry beyond this point.
type SoftwareEncodeError struct {
	Detail string
	Err    error
}

func (e *SoftwareEncodeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("software encode failed: %v: %s", e.Err, e.Detail)
	}
	return fmt.Sprintf("software encode failed: %v", e.Err)
}

func (e *SoftwareEncodeError) Unwrap() error { return e.Err }

const maxAttemptErrLen = 400

// attemptError condenses a failed hardware attempt into a bounded
// description: the process error plus the first non-empty stderr line.
func attemptError(err error, stderrTail string) string {
	msg := "encode failed"
	if err != nil {
		msg = err.Error()
	}
	if line := firstNonEmptyLine(stderrTail); line != "" {
		msg = msg + ": " + line
	}
	return truncate(msg, maxAttemptErrLen)
}

func firstNonEmptyLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
