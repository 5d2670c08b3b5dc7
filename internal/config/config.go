// Package config provides configuration management for the clipkit agent.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	// Default values
	DefaultPort     = 8917
	DefaultLogLevel = "info"
	DefaultDataDir  = ".clipkit"
	DefaultQuality  = "discord"

	// Environment variable names
	EnvPort     = "CLIPKIT_PORT"
	EnvLogLevel = "CLIPKIT_LOG_LEVEL"
	EnvDataDir  = "CLIPKIT_DATA_DIR"
	EnvClipDir  = "CLIPKIT_CLIP_DIR"
	EnvQuality  = "CLIPKIT_EXPORT_QUALITY"
	EnvFFmpeg   = "CLIPKIT_FFMPEG"
	EnvFFprobe  = "CLIPKIT_FFPROBE"
	EnvHeadless = "CLIPKIT_HEADLESS"

	// Database filename
	DBFilename = "clipkit.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	ClipDir() string
	ExportQuality() string
	FFmpegPath() string
	FFprobePath() string
	Headless() bool
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string
	clipDir  string
	quality  string
	ffmpeg   string
	ffprobe  string
	headless bool
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:     DefaultPort,
		logLevel: DefaultLogLevel,
		dataDir:  defaultDataDir(),
		clipDir:  defaultClipDir(),
		quality:  DefaultQuality,
		ffmpeg:   "ffmpeg",
		ffprobe:  "ffprobe",
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if cd := os.Getenv(EnvClipDir); cd != "" {
		cfg.clipDir = cd
	}

	if q := os.Getenv(EnvQuality); q != "" {
		cfg.quality = q
	}

	if f := os.Getenv(EnvFFmpeg); f != "" {
		cfg.ffmpeg = f
	}
	if f := os.Getenv(EnvFFprobe); f != "" {
		cfg.ffprobe = f
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// ClipDir returns the clip folder the agent owns
func (c *EnvConfig) ClipDir() string {
	return c.clipDir
}

// ExportQuality returns the preferred export quality tier
func (c *EnvConfig) ExportQuality() string {
	return c.quality
}

func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpeg
}

func (c *EnvConfig) FFprobePath() string {
	return c.ffprobe
}

func (c *EnvConfig) Headless() bool {
	return c.headless
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// defaultClipDir returns the default clip folder location
func defaultClipDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "clips"
	}
	return filepath.Join(home, "Videos", "Clipkit")
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
