package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"vibecoder/internal/agents"
	"vibecoder/internal/domain"
	"vibecoder/internal/shadow"
)

type healRequest struct {
	ErrorText   string `json:"error_text"`
	FileContent string `json:"file_content"`
	StyleID     string `json:"style_id"`
}

type healResponse struct {
	Diagnosis string `json:"diagnosis"`
	Code      string `json:"code"`
}

// Heal asks the heal agent for a minimal fix to a crashed storefront and
// gates the corrected file through the same structural checks as a fresh
// generation. A patch that does not pass is never returned.
func (a *App) Heal(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req healRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.ErrorText == "" || req.FileContent == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "error_text and file_content are required")
		return
	}

	result, err := a.Healer.Heal(r.Context(), agents.HealRequest{
		ErrorText:   req.ErrorText,
		FileContent: req.FileContent,
		StyleID:     req.StyleID,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRateLimited):
			a.error(w, http.StatusTooManyRequests, "rate_limited", "the AI service is rate limited, retry shortly")
		case errors.Is(err, domain.ErrAgentUnavailable):
			a.error(w, http.StatusBadGateway, "agent_unavailable", "the AI service is temporarily unavailable")
		default:
			a.error(w, http.StatusInternalServerError, "internal", "heal failed")
		}
		return
	}

	if check := shadow.QuickSyntaxCheck(result.Code); !check.Valid {
		a.error(w, http.StatusUnprocessableEntity, "invalid_patch", "corrected file failed validation: "+check.Reason)
		return
	}

	a.json(w, http.StatusOK, healResponse{Diagnosis: result.Diagnosis, Code: result.Code})
}
