package handlers

import (
	"net/http"
	"strconv"

	"podvid-server/internal/ledger"
)

const defaultGenerationsLimit = 20

// GenerationsList returns the most recent ledger entries. Without a database
// the ledger is nil and the list is simply empty.
func (a *App) GenerationsList(w http.ResponseWriter, r *http.Request) {
	limit := defaultGenerationsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			a.error(w, http.StatusBadRequest, "bad_request", "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	items, err := a.Ledger.Recent(r.Context(), limit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("generations: list failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not list generations")
		return
	}
	if items == nil {
		items = []ledger.Generation{}
	}

	a.json(w, http.StatusOK, map[string]any{"items": items})
}
