package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/clipkit/clipkit-agent/internal/activity"
	"github.com/clipkit/clipkit-agent/internal/encode"
	"github.com/clipkit/clipkit-agent/internal/events"
	"github.com/clipkit/clipkit-agent/internal/export"
	"github.com/clipkit/clipkit-agent/internal/library"
	"github.com/clipkit/clipkit-agent/internal/playback"
)

const testToken = "test-token-1234567890"

type memRepo struct {
	mu       sync.Mutex
	records  map[string]*activity.ExportRecord
	order    []string
	settings map[string]string
}

func newMemRepo() *memRepo {
	return &memRepo{
		records:  map[string]*activity.ExportRecord{},
		settings: map[string]string{AuthTokenSetting: testToken},
	}
}

func (r *memRepo) CreateExport(ctx context.Context, rec *activity.ExportRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.records[rec.ID] = &cp
	r.order = append(r.order, rec.ID)
	return nil
}

func (r *memRepo) FinalizeExport(ctx context.Context, rec *activity.ExportRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.records[rec.ID] = &cp
	return nil
}

func (r *memRepo) GetExport(ctx context.Context, id string) (*activity.ExportRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *memRepo) ListExports(ctx context.Context, limit int) ([]*activity.ExportRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*activity.ExportRecord
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *r.records[r.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memRepo) GetSetting(ctx context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings[key], nil
}

func (r *memRepo) SetSetting(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[key] = value
	return nil
}

// blockingEncoder holds exports open until released so tests can
// observe running sessions.
type blockingEncoder struct {
	release chan struct{}
	outcome *encode.Outcome
	err     error
}

func (e *blockingEncoder) Export(req encode.Request, hooks encode.Hooks) (*encode.Outcome, error) {
	if e.release != nil {
		<-e.release
	}
	if e.err != nil {
		return nil, e.err
	}
	if e.outcome != nil {
		return e.outcome, nil
	}
	return &encode.Outcome{Encoder: encode.EncoderNvenc, DecodeMode: "h264_cuvid"}, nil
}

// stubExec reports a software-only engine for capability probes.
type stubExec struct{}

func (stubExec) Run(args []string, onLine func(string)) encode.ExecResult { return encode.ExecResult{} }
func (stubExec) Output(args []string) (string, error)                     { return "libx264", nil }

type fixture struct {
	router  http.Handler
	repo    *memRepo
	hub     *events.Hub
	svc     *export.Service
	encoder *blockingEncoder
	clipDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clipDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(clipDir, "match.mp4"), []byte("0123456789"), 0o644); err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := newMemRepo()
	hub := events.NewHub()
	lib := library.NewService(clipDir, nil)
	encoder := &blockingEncoder{}
	svc := export.NewService(lib, encoder, repo, hub, nil, filepath.Join(clipDir, "exports"), logger)

	cfg := ServerConfig{
		Port:       0,
		Version:    "0.1.0",
		StartTime:  time.Now(),
		Library:    lib,
		Exports:    svc,
		Capability: encode.NewCapability(stubExec{}, nil),
		Repository: repo,
		Hub:        hub,
		Streamer:   playback.NewStreamer(lib, nil),
		Logger:     logger,
	}
	return &fixture{
		router:  NewRouter(cfg),
		repo:    repo,
		hub:     hub,
		svc:     svc,
		encoder: encoder,
		clipDir: clipDir,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rr.Body.String(), err)
	}
	return body
}

func TestHealth_NoAuthRequired(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestAuth(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"wrong token", "Bearer wrong", http.StatusUnauthorized},
		{"valid token", "Bearer " + testToken, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/clips", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			f.router.ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Errorf("status = %d, want %d", rr.Code, tc.want)
			}
		})
	}
}

func TestListClips(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/clips", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp ClipsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Clips) != 1 || resp.Clips[0].ID != "match.mp4" {
		t.Errorf("clips = %+v", resp.Clips)
	}
}

func TestStartExport(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/exports",
		`{"clip_id": "match.mp4", "start_s": 10, "end_s": 40}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rr.Code, rr.Body.String())
	}

	var resp ExportResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID == "" || resp.Status != activity.StatusRunning {
		t.Errorf("response = %+v", resp)
	}
	f.svc.Wait()

	get := f.do(t, http.MethodGet, "/exports/"+resp.ID, "")
	if get.Code != http.StatusOK {
		t.Fatalf("get status = %d", get.Code)
	}
	var final ExportResponse
	if err := json.Unmarshal(get.Body.Bytes(), &final); err != nil {
		t.Fatal(err)
	}
	if final.Status != activity.StatusCompleted || final.Encoder != encode.EncoderNvenc {
		t.Errorf("final = %+v", final)
	}
}

func TestStartExport_Validation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing clip id", `{"start_s": 0, "end_s": 10}`},
		{"inverted window", `{"clip_id": "match.mp4", "start_s": 40, "end_s": 10}`},
		{"unknown clip", `{"clip_id": "nope.mp4", "start_s": 0, "end_s": 10}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := f.do(t, http.MethodPost, "/exports", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
		})
	}
}

func TestGetExport_NotFound(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/exports/does-not-exist", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestActivity(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 2; i++ {
		rr := f.do(t, http.MethodPost, "/exports",
			`{"clip_id": "match.mp4", "start_s": 0, "end_s": 5}`)
		if rr.Code != http.StatusAccepted {
			t.Fatalf("start status = %d", rr.Code)
		}
	}
	f.svc.Wait()

	rr := f.do(t, http.MethodGet, "/activity", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp ActivityResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Exports) != 2 {
		t.Errorf("exports = %d, want 2", len(resp.Exports))
	}
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	f.encoder.release = make(chan struct{})

	rr := f.do(t, http.MethodPost, "/exports",
		`{"clip_id": "match.mp4", "start_s": 0, "end_s": 5}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("start status = %d", rr.Code)
	}

	status := f.do(t, http.MethodGet, "/status", "")
	body := decodeBody(t, status)
	if body["state"] != "exporting" {
		t.Errorf("state = %v, want exporting", body["state"])
	}
	if body["encoder_mode"] != encode.ModeSoftware {
		t.Errorf("encoder_mode = %v", body["encoder_mode"])
	}

	close(f.encoder.release)
	f.svc.Wait()

	status = f.do(t, http.MethodGet, "/status", "")
	body = decodeBody(t, status)
	if body["state"] != "idle" {
		t.Errorf("state = %v, want idle after completion", body["state"])
	}
}

func TestCapability(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/capability", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["available"] != false || body["mode"] != encode.ModeSoftware {
		t.Errorf("body = %v", body)
	}
	if body["reason"] == "" {
		t.Error("unavailable capability must carry a reason")
	}
}

func TestSettings_RoundTrip(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/settings", "")
	body := decodeBody(t, rr)
	if body["default_quality"] != "discord" {
		t.Errorf("default_quality = %v, want discord default", body["default_quality"])
	}

	rr = f.do(t, http.MethodPut, "/settings", `{"default_quality": "high"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("put status = %d", rr.Code)
	}

	rr = f.do(t, http.MethodGet, "/settings", "")
	body = decodeBody(t, rr)
	if body["default_quality"] != "high" {
		t.Errorf("default_quality = %v, want high", body["default_quality"])
	}
}

func TestSettings_UnknownQualityNormalized(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPut, "/settings", `{"default_quality": "ultra"}`)
	body := decodeBody(t, rr)
	if body["default_quality"] != "discord" {
		t.Errorf("default_quality = %v, unknown tiers fall back to discord", body["default_quality"])
	}
}

func TestPlayback(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/playback/clip?id=match.mp4", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Body.String() != "0123456789" {
		t.Errorf("body = %q", rr.Body.String())
	}

	rr = f.do(t, http.MethodGet, "/playback/clip", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing id status = %d, want 400", rr.Code)
	}

	rr = f.do(t, http.MethodGet, "/playback/clip?id=../secret.mp4", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("traversal id status = %d, want 404", rr.Code)
	}
}
