package handlers

import (
	"encoding/json"
	"net/http"

	"vibecoder/internal/middleware"
	"vibecoder/internal/policy"
)

type policyCheckRequest struct {
	Prompt string `json:"prompt"`
}

// PolicyCheck is the pre-flight endpoint: clients can validate a prompt
// before submitting it, with the same rule table the job path enforces.
func (a *App) PolicyCheck(w http.ResponseWriter, r *http.Request) {
	var req policyCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	rule := a.Guard.CheckViolation(req.Prompt)
	if rule == nil {
		a.json(w, http.StatusOK, map[string]any{"allowed": true})
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"allowed":  false,
		"rule_id":  rule.ID,
		"category": rule.Category,
		"message":  policy.ViolationResponse(rule, middleware.LocaleFromContext(r.Context())),
	})
}
