package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clipkit/clipkit-agent/internal/activity"
	"github.com/clipkit/clipkit-agent/internal/events"
)

// exportEventsHandler streams one session's lifecycle as server-sent
// events. The stream closes after the terminal done or failed event, or
// when the client disconnects. A session that is already terminal gets
// a single synthesized terminal event so late subscribers still resolve.
func exportEventsHandler(cfg ServerConfig) http.HandlerFunc {
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

		flusher, ok := w.(http.Flusher)
		if !ok {
			WriteError(w, http.StatusInternalServerError, "streaming unsupported", "INTERNAL_ERROR")
			return
		}

		// Subscribe before re-checking state, so no terminal event can
		// slip between the check and the subscription.
		sub := cfg.Hub.Subscribe()
		defer cfg.Hub.Unsubscribe(sub)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		rec, err = cfg.Exports.Get(r.Context(), id)
		if err != nil || rec == nil {
			return
		}
		if rec.Status != activity.StatusRunning {
			writeSSE(w, terminalEvent(rec))
			flusher.Flush()
			return
		}
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case ev, open := <-sub:
				if !open {
					return
				}
				if ev.SessionID != id {
					continue
				}
				writeSSE(w, ev)
				flusher.Flush()
				if ev.Type == events.TypeDone || ev.Type == events.TypeFailed {
					return
				}
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, ev events.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
}

func terminalEvent(rec *activity.ExportRecord) events.Event {
	if rec.Status == activity.StatusFailed {
		return events.Event{SessionID: rec.ID, Type: events.TypeFailed, Error: rec.Error, At: rec.UpdatedAt}
	}
	return events.Event{SessionID: rec.ID, Type: events.TypeDone, Percent: 100, At: rec.UpdatedAt}
}
