package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vibecoder/internal/domain"
)

// JobEvents streams job updates for one project as server-sent events. The
// watcher reconciles against the active job on subscribe, so updates during
// the connect race are not missed; a client that connects after the job
// already finished sees nothing here and reads the result from jobs/latest.
func (a *App) JobEvents(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		a.error(w, http.StatusInternalServerError, "internal", "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := make(chan *domain.GenerationJob, 8)
	release := a.Watcher.Subscribe(r.Context(), projectID, func(job *domain.GenerationJob) {
		select {
		case events <- job:
		default:
		}
	}, nil)
	defer release()

	for {
		select {
		case <-r.Context().Done():
			return
		case job := <-events:
			payload, err := json.Marshal(toJobPayload(job))
			if err != nil {
				continue
			}
			event := "update"
			if job.Status.Terminal() {
				event = "terminal"
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
			flusher.Flush()
		}
	}
}
