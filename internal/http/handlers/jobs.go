package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vibecoder/internal/domain"
	"vibecoder/internal/middleware"
	"vibecoder/internal/orchestrator"
)

type generateRequest struct {
	Prompt         string `json:"prompt"`
	ModelID        string `json:"model_id"`
	StyleID        string `json:"style_id"`
	IsPlanMode     bool   `json:"is_plan_mode"`
	CurrentCode    string `json:"current_code"`
	ProductContext string `json:"product_context"`
}

type jobPayload struct {
	ID           string          `json:"id"`
	ProjectID    string          `json:"project_id"`
	Status       string          `json:"status"`
	Prompt       string          `json:"prompt"`
	ModelID      string          `json:"model_id"`
	IsPlanMode   bool            `json:"is_plan_mode"`
	CodeResult   *string         `json:"code_result,omitempty"`
	Summary      *string         `json:"summary,omitempty"`
	PlanResult   json.RawMessage `json:"plan_result,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	ProgressLogs []string        `json:"progress_logs"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func toJobPayload(job *domain.GenerationJob) jobPayload {
	return jobPayload{
		ID:           job.ID,
		ProjectID:    job.ProjectID,
		Status:       string(job.Status),
		Prompt:       job.Prompt,
		ModelID:      job.ModelID,
		IsPlanMode:   job.IsPlanMode,
		CodeResult:   job.CodeResult,
		Summary:      job.Summary,
		PlanResult:   json.RawMessage(job.PlanResult),
		ErrorMessage: job.ErrorMessage,
		ProgressLogs: job.ProgressLogs,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	}
}

// JobCreate starts a generation for the project. A prompt the policy guard
// rejects never creates a row; a project with an in-flight job gets that job
// back with a 409 so the client adopts it instead of duplicating work.
func (a *App) JobCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	projectID := chi.URLParam(r, "projectID")
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	job, err := a.Service.CreateJob(r.Context(), orchestrator.CreateJobInput{
		UserID:         userID,
		ProjectID:      projectID,
		Prompt:         req.Prompt,
		ModelID:        req.ModelID,
		StyleID:        req.StyleID,
		IsPlanMode:     req.IsPlanMode,
		CurrentCode:    req.CurrentCode,
		ProductContext: req.ProductContext,
	})
	if err != nil {
		var rejection *orchestrator.PolicyRejection
		switch {
		case errors.As(err, &rejection):
			a.json(w, http.StatusUnprocessableEntity, map[string]any{
				"rejected": true,
				"rule_id":  rejection.Rule.ID,
				"category": rejection.Rule.Category,
				"message":  rejection.Message(middleware.LocaleFromContext(r.Context())),
			})
		case errors.Is(err, domain.ErrActiveJobExists):
			a.json(w, http.StatusConflict, map[string]any{
				"error": map[string]string{"code": "active_job_exists", "message": "a generation is already running for this project"},
				"job":   toJobPayload(job),
			})
		case errors.Is(err, domain.ErrNoProject):
			a.error(w, http.StatusBadRequest, "bad_request", "project id is required")
		case errors.Is(err, domain.ErrEmptyPrompt):
			a.error(w, http.StatusBadRequest, "bad_request", "prompt is required")
		default:
			a.error(w, http.StatusInternalServerError, "internal", "failed to create job")
		}
		return
	}

	a.json(w, http.StatusCreated, toJobPayload(job))
}

func (a *App) JobGet(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	jobID := chi.URLParam(r, "jobID")
	job, err := a.Service.GetJob(r.Context(), jobID, projectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to fetch job")
		return
	}
	a.json(w, http.StatusOK, toJobPayload(job))
}

// JobActive is the mount-time resumption query: it returns the project's
// in-flight job so a refreshed client re-attaches instead of losing it.
func (a *App) JobActive(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	job, err := a.Service.ResumeIfActive(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.json(w, http.StatusOK, map[string]any{"active": false})
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to fetch active job")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"active": true, "job": toJobPayload(job)})
}

func (a *App) JobCancel(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	jobID := chi.URLParam(r, "jobID")
	job, err := a.Service.CancelJob(r.Context(), jobID, projectID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "not_found", "job not found")
		case errors.Is(err, domain.ErrJobTerminal):
			a.error(w, http.StatusConflict, "job_terminal", "job already finished")
		default:
			a.error(w, http.StatusInternalServerError, "internal", "failed to cancel job")
		}
		return
	}
	a.json(w, http.StatusOK, toJobPayload(job))
}

// JobAcknowledge clears the current-job reference after the client consumed
// a terminal result. The row itself is kept as history.
func (a *App) JobAcknowledge(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	jobID := chi.URLParam(r, "jobID")
	a.Service.AcknowledgeJob(projectID, jobID)
	a.json(w, http.StatusOK, map[string]any{"acknowledged": true})
}

// JobLatest returns the newest completed generation with a code artifact.
func (a *App) JobLatest(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	job, err := a.Service.LatestCompleted(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "no completed generation yet")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to fetch job")
		return
	}
	a.json(w, http.StatusOK, toJobPayload(job))
}
