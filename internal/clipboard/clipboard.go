// Package clipboard places a finished export on the system clipboard so
// it can be pasted straight into a chat client. On Windows and macOS the
// file itself is copied as a file reference; elsewhere the absolute path
// is copied as text.
package clipboard

import (
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
)

type Copier struct {
	logger *slog.Logger

	// run is swapped in tests to avoid spawning real processes.
	run  func(name string, args ...string) error
	goos string
}

func New(logger *slog.Logger) *Copier {
	return &Copier{
		logger: logger,
		run: func(name string, args ...string) error {
			out, err := exec.Command(name, args...).CombinedOutput()
			if err != nil {
				return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
			}
			return nil
		},
		goos: runtime.GOOS,
	}
}

// CopyFile puts the file at path on the clipboard. Failures are
// reported but are never fatal to the export that produced the file.
func (c *Copier) CopyFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	switch c.goos {
	case "windows":
		err = c.run("powershell", "-NoProfile", "-Command",
			"Set-Clipboard -LiteralPath "+psQuote(abs))
	case "darwin":
		err = c.run("osascript", "-e",
			`set the clipboard to POSIX file `+appleQuote(abs))
	default:
		err = clipboard.WriteAll(abs)
	}

	if err != nil {
		if c.logger != nil {
			c.logger.Warn("clipboard copy failed", "error", err)
		}
		return err
	}
	if c.logger != nil {
		c.logger.Info("export copied to clipboard")
	}
	return nil
}

// psQuote wraps a path in PowerShell single quotes, doubling embedded
// quotes per its escaping rules.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func appleQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
