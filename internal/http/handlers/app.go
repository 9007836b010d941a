package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"podvid-server/internal/ledger"
	"podvid-server/internal/pipeline"
)

// App carries the wired collaborators for every handler.
type App struct {
	Orchestrator *pipeline.Orchestrator
	Progress     *pipeline.Registry
	Ledger       *ledger.Ledger // nil when no database is configured
	Logger       zerolog.Logger
}

func NewApp(orc *pipeline.Orchestrator, progress *pipeline.Registry, led *ledger.Ledger, logger zerolog.Logger) *App {
	return &App{Orchestrator: orc, Progress: progress, Ledger: led, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
