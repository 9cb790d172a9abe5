package handlers

import (
	"encoding/json"
	"net/http"

	"vibecoder/internal/agents"
	"vibecoder/internal/credits"
	"vibecoder/internal/middleware"
	"vibecoder/internal/orchestrator"
	"vibecoder/internal/policy"
	"vibecoder/internal/shadow"
	"vibecoder/internal/storage"
)

type App struct {
	Service *orchestrator.Service
	Watcher *orchestrator.Watcher
	Guard   *policy.Guard
	Tester  *shadow.Tester
	Healer  *agents.Healer
	Ledger  *credits.Ledger
	Files   *storage.FileStore
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
