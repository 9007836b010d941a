package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var progressUpgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 512,
	// Origin policy is enforced by the CORS middleware; the progress feed is
	// advisory and carries no secrets.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const progressPushInterval = time.Second

// GenerationProgress serves the advisory progress state of an in-flight run.
// A plain GET returns one snapshot; a WebSocket upgrade streams snapshots
// until the run ends or the client goes away.
func (a *App) GenerationProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id required")
		return
	}
	progress, ok := a.Progress.Lookup(id)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "no generation in flight for this id")
		return
	}

	if !websocket.IsWebSocketUpgrade(r) {
		a.json(w, http.StatusOK, progress.Snapshot())
		return
	}

	conn, err := progressUpgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Logger.Warn().Err(err).Str("request_id", id).Msg("progress: upgrade failed")
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(progressPushInterval)
	defer ticker.Stop()

	for {
		snap := progress.Snapshot()
		if err := conn.WriteJSON(snap); err != nil {
			return
		}
		if snap.Done {
			return
		}
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
		// The run may have finished and unregistered between ticks.
		if _, ok := a.Progress.Lookup(id); !ok {
			return
		}
	}
}
