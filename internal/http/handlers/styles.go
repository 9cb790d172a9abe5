package handlers

import (
	"net/http"

	"vibecoder/internal/style"
)

func (a *App) StylesList(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": style.Catalog()})
}
