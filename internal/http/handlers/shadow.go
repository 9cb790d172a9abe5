package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"vibecoder/internal/shadow"
)

type shadowValidateRequest struct {
	Code string `json:"code"`
}

// ShadowValidate runs the promotion gate on a candidate artifact without
// promoting it: structural checks, then the sandboxed build when one is
// configured. At most one build runs at a time.
func (a *App) ShadowValidate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req shadowValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	result, err := a.Tester.TestCode(r.Context(), req.Code)
	if err != nil {
		if errors.Is(err, shadow.ErrTestInFlight) {
			a.error(w, http.StatusConflict, "test_in_flight", "a shadow test is already running")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "shadow test failed to run")
		return
	}
	a.json(w, http.StatusOK, result)
}
