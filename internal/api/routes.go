package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clipkit/clipkit-agent/internal/activity"
	"github.com/clipkit/clipkit-agent/internal/encode"
	"github.com/clipkit/clipkit-agent/internal/export"
)

// DefaultQualitySetting stores the UI's preferred export tier.
const DefaultQualitySetting = "default_quality"

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/capability", capabilityHandler(cfg))
		r.Get("/clips", listClipsHandler(cfg))
		r.Post("/exports", startExportHandler(cfg))
		r.Get("/exports/{id}", getExportHandler(cfg))
		r.Get("/exports/{id}/events", exportEventsHandler(cfg))
		r.Get("/activity", activityHandler(cfg))
		r.Get("/settings", getSettingsHandler(cfg))
		r.Put("/settings", updateSettingsHandler(cfg))
		r.Get("/playback/clip", playbackHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clips, _ := cfg.Library.List()

		running := 0
		lastError := ""
		recent, _ := cfg.Exports.Recent(r.Context(), 20)
		for _, rec := range recent {
			if rec.Status == activity.StatusRunning {
				running++
			}
			if rec.Status == activity.StatusFailed && lastError == "" {
				lastError = rec.Error
			}
		}

		state := "idle"
		if running > 0 {
			state = "exporting"
		}

		WriteJSON(w, http.StatusOK, StatusResponse{
			State:          state,
			ClipsCount:     len(clips),
			ExportsRunning: running,
			LastError:      lastError,
			EncoderMode:    cfg.Capability.NvencStatus(false).Mode,
		})
	}
}

func capabilityHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		force := r.URL.Query().Get("force") == "1"
		status := cfg.Capability.NvencStatus(force)

		WriteJSON(w, http.StatusOK, CapabilityResponse{
			Available: status.Available,
			Mode:      status.Mode,
			Reason:    status.Reason,
			CheckedAt: status.CheckedAt.Format(time.RFC3339),
		})
	}
}

func listClipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clips, err := cfg.Library.List()
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list clips", "INTERNAL_ERROR")
			return
		}

		resp := ClipsResponse{Clips: make([]ClipResponse, len(clips))}
		for i, c := range clips {
			resp.Clips[i] = ClipToResponse(c)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func startExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := export.Params{CopyToClipboard: true}
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if params.ClipID == "" {
			WriteError(w, http.StatusBadRequest, "clip_id is required", "BAD_REQUEST")
			return
		}
		if params.Quality == "" {
			params.Quality, _ = cfg.Repository.GetSetting(r.Context(), DefaultQualitySetting)
		}

		rec, err := cfg.Exports.Start(r.Context(), params)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusAccepted, ExportToResponse(rec))
	}
}

func getExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		rec, err := cfg.Exports.Get(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if rec == nil {
			WriteError(w, http.StatusNotFound, "export not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, ExportToResponse(rec))
	}
}

func activityHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := cfg.Exports.Recent(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list exports", "INTERNAL_ERROR")
			return
		}

		resp := ActivityResponse{Exports: make([]ExportResponse, len(recs))}
		for i, rec := range recs {
			resp.Exports[i] = ExportToResponse(rec)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getSettingsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quality, err := cfg.Repository.GetSetting(r.Context(), DefaultQualitySetting)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to load settings", "INTERNAL_ERROR")
			return
		}
		if quality == "" {
			quality = string(encode.QualityDiscord)
		}

		WriteJSON(w, http.StatusOK, SettingsResponse{DefaultQuality: quality})
	}
}

func updateSettingsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateSettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		quality := string(encode.ParseQuality(req.DefaultQuality))
		if err := cfg.Repository.SetSetting(r.Context(), DefaultQualitySetting, quality); err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to save settings", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, SettingsResponse{DefaultQuality: quality})
	}
}

func playbackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clipID := r.URL.Query().Get("id")
		if clipID == "" {
			WriteError(w, http.StatusBadRequest, "id is required", "BAD_REQUEST")
			return
		}
		cfg.Streamer.ServeClip(w, r, clipID)
	}
}
