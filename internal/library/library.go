// Package library manages the local clip folder: listing recordings,
// resolving clip identifiers to absolute paths, and reading the
// per-clip volume sidecar files the overlay writes next to recordings.
package library

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/clipkit/clipkit-agent/internal/encode"
)

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".mov":  true,
	".avi":  true,
	".ts":   true,
	".flv":  true,
	".webm": true,
}

const sidecarSuffix = ".volume.json"

// Clip is one recording in the library folder. The ID is the file name
// itself; clips live flat in the folder, never in subdirectories.
type Clip struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
	HasSidecar bool      `json:"has_sidecar"`
}

type Service struct {
	dir    string
	logger *slog.Logger
}

func NewService(dir string, logger *slog.Logger) *Service {
	return &Service{dir: dir, logger: logger}
}

// Dir returns the clip folder path.
func (s *Service) Dir() string { return s.dir }

// List returns the clips in the library folder, newest first.
// Sidecar files and non-video files are skipped.
func (s *Service) List() ([]*Clip, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read clip folder: %w", err)
	}

	clips := make([]*Clip, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !videoExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		clips = append(clips, &Clip{
			ID:         name,
			Name:       strings.TrimSuffix(name, filepath.Ext(name)),
			Path:       filepath.Join(s.dir, name),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
			HasSidecar: s.hasSidecar(name),
		})
	}

	sort.Slice(clips, func(i, j int) bool {
		return clips[i].ModifiedAt.After(clips[j].ModifiedAt)
	})
	return clips, nil
}

// Resolve maps a clip ID to its absolute path. IDs are bare file names;
// anything carrying a path separator or traversal element is rejected
// before the filesystem is consulted.
func (s *Service) Resolve(id string) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, id)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("clip not found: %s", id)
		}
		return "", fmt.Errorf("stat clip: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("clip not found: %s", id)
	}
	return path, nil
}

// VolumeRange loads the clip's volume sidecar, if present. A missing
// sidecar is not an error; a malformed one is logged and ignored so a
// corrupt sidecar never blocks an export.
func (s *Service) VolumeRange(id string) (*encode.VolumeRange, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, sidecarName(id)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read volume sidecar: %w", err)
	}

	var r encode.VolumeRange
	if err := json.Unmarshal(data, &r); err != nil {
		if s.logger != nil {
			s.logger.Warn("malformed volume sidecar ignored", "clip_id", id, "error", err)
		}
		return nil, nil
	}
	if r.End <= r.Start {
		return nil, nil
	}
	return &r, nil
}

// SaveVolumeRange writes the clip's volume sidecar, replacing any
// existing one. Passing nil removes the sidecar.
func (s *Service) SaveVolumeRange(id string, r *encode.VolumeRange) error {
	if err := validateID(id); err != nil {
		return err
	}
	if _, err := s.Resolve(id); err != nil {
		return err
	}

	path := filepath.Join(s.dir, sidecarName(id))
	if r == nil {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove volume sidecar: %w", err)
		}
		return nil
	}
	if r.End <= r.Start {
		return fmt.Errorf("volume range end must be greater than start")
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write volume sidecar: %w", err)
	}
	return nil
}

func (s *Service) hasSidecar(id string) bool {
	_, err := os.Stat(filepath.Join(s.dir, sidecarName(id)))
	return err == nil
}

// sidecarName derives the sidecar file name for a clip, dropping the
// video extension: match.mp4 -> match.volume.json.
func sidecarName(id string) string {
	return strings.TrimSuffix(id, filepath.Ext(id)) + sidecarSuffix
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("clip id is required")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("invalid clip id")
	}
	if filepath.Base(filepath.Clean(id)) != id {
		return fmt.Errorf("invalid clip id")
	}
	return nil
}
