package playback

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// ClipResolver maps a clip ID to an absolute path, rejecting anything
// outside the library folder.
type ClipResolver interface {
	Resolve(id string) (string, error)
}

// Streamer serves clips by ID with Range support.
type Streamer struct {
	clips  ClipResolver
	logger *slog.Logger
}

func NewStreamer(clips ClipResolver, logger *slog.Logger) *Streamer {
	return &Streamer{clips: clips, logger: logger}
}

// ServeClip streams the clip identified by clipID to the response.
// Unknown IDs become 404; a malformed Range header degrades to a full
// response; an unsatisfiable one yields 416.
func (s *Streamer) ServeClip(w http.ResponseWriter, r *http.Request, clipID string) {
	path, err := s.clips.Resolve(clipID)
	if err != nil {
		http.Error(w, "clip not found", http.StatusNotFound)
		return
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "clip not found", http.StatusNotFound)
			return
		}
		s.fail(w, clipID, err)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		s.fail(w, clipID, err)
		return
	}
	size := stat.Size()

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Accept-Ranges", "bytes")

	window, err := ResolveRange(r.Header.Get("Range"), size)
	switch {
	case errors.Is(err, ErrUnsatisfiable):
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "range not satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return
	case errors.Is(err, ErrMalformedRange):
		window = nil
	}

	if window == nil {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			io.Copy(w, file)
		}
		return
	}

	w.Header().Set("Content-Length", fmt.Sprintf("%d", window.Length))
	w.Header().Set("Content-Range", window.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)
	if r.Method == http.MethodHead {
		return
	}

	if _, err := file.Seek(window.Offset, io.SeekStart); err != nil {
		s.fail(w, clipID, err)
		return
	}
	io.CopyN(w, file, window.Length)
}

func (s *Streamer) fail(w http.ResponseWriter, clipID string, err error) {
	if s.logger != nil {
		s.logger.Error("clip streaming failed", "clip_id", clipID, "error", err)
	}
	http.Error(w, "internal error", http.StatusInternalServerError)
}
