package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"vibecoder/internal/adapter/repo"
	"vibecoder/internal/domain"
	"vibecoder/internal/policy"
	"vibecoder/internal/prune"
	"vibecoder/internal/style"
)

// PolicyRejection wraps domain.ErrPolicyViolation with the matched rule so
// handlers can show the rule's message and redirect.
type PolicyRejection struct {
	Rule *policy.Rule
}

func (e *PolicyRejection) Error() string {
	return fmt.Sprintf("policy violation: %s", e.Rule.ID)
}

func (e *PolicyRejection) Unwrap() error { return domain.ErrPolicyViolation }

// Message is the user-facing rejection text in the given locale.
func (e *PolicyRejection) Message(locale string) string {
	return policy.ViolationResponse(e.Rule, locale)
}

// CreateJobInput carries everything needed to shape and persist a job.
type CreateJobInput struct {
	UserID         string
	ProjectID      string
	Prompt         string
	ModelID        string
	StyleID        string
	IsPlanMode     bool
	CurrentCode    string
	ProductContext string
}

// Service owns the generation job lifecycle on the API side: policy
// pre-flight, prompt shaping, the at-most-one-active invariant, resumption,
// cancellation and acknowledgement.
type Service struct {
	store          *repo.JobStore
	guard          *policy.Guard
	defaultModelID string
	logger         zerolog.Logger

	// current tracks the acknowledged "current job" reference per project.
	// It is purely an observation pointer: clearing it never touches the
	// job row, which is retained as history.
	mu      sync.Mutex
	current map[string]string
}

func NewService(store *repo.JobStore, guard *policy.Guard, defaultModelID string, logger zerolog.Logger) *Service {
	return &Service{
		store:          store,
		guard:          guard,
		defaultModelID: defaultModelID,
		current:        make(map[string]string),
		logger:         logger,
	}
}

// CreateJob validates preconditions, runs the policy guard before anything
// is persisted or paid for, shapes the AI prompt (prune + style), and
// inserts the pending job. If the project already has an active job it is
// returned alongside domain.ErrActiveJobExists so the caller can adopt it.
func (s *Service) CreateJob(ctx context.Context, in CreateJobInput) (*domain.GenerationJob, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, domain.ErrUnauthenticated
	}
	if strings.TrimSpace(in.ProjectID) == "" {
		return nil, domain.ErrNoProject
	}
	if strings.TrimSpace(in.Prompt) == "" {
		return nil, domain.ErrEmptyPrompt
	}

	if rule := s.guard.CheckViolation(in.Prompt); rule != nil {
		s.logger.Info().Str("project_id", in.ProjectID).Str("rule", rule.ID).Msg("orchestrator: prompt rejected by policy")
		return nil, &PolicyRejection{Rule: rule}
	}

	if existing, err := s.store.ActiveForProject(ctx, in.ProjectID); err == nil {
		return existing, domain.ErrActiveJobExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	modelID := in.ModelID
	if modelID == "" {
		modelID = s.defaultModelID
	}

	job, err := s.store.Create(ctx, repo.CreateParams{
		ProjectID:  in.ProjectID,
		UserID:     in.UserID,
		Prompt:     in.Prompt,
		AIPrompt:   s.shapePrompt(in),
		ModelID:    modelID,
		IsPlanMode: in.IsPlanMode,
	})
	if err != nil {
		// The partial unique index closes the check-then-create race:
		// adopt whatever job won.
		if errors.Is(err, domain.ErrActiveJobExists) {
			if existing, aerr := s.store.ActiveForProject(ctx, in.ProjectID); aerr == nil {
				return existing, domain.ErrActiveJobExists
			}
		}
		return nil, err
	}

	s.setCurrent(in.ProjectID, job.ID)
	s.logger.Info().Str("job_id", job.ID).Str("project_id", in.ProjectID).Msg("orchestrator: job created")
	return job, nil
}

// shapePrompt builds the AI-shaped prompt: the raw request, the (pruned)
// current artifact, the product context and the style fragment.
func (s *Service) shapePrompt(in CreateJobInput) string {
	var sb strings.Builder
	sb.WriteString(in.Prompt)
	if in.ProductContext != "" {
		sb.WriteString("\n\nProducts:\n" + in.ProductContext)
	}
	if in.CurrentCode != "" {
		sb.WriteString("\n\nCurrent storefront code:\n")
		sb.WriteString(prune.PruneCode(in.CurrentCode, in.Prompt))
	}
	return style.Apply(sb.String(), in.StyleID)
}

// ResumeIfActive returns the project's in-flight job, if any, and re-adopts
// it as the current job. This is the mount-time safety net: a refreshed
// client sees generation continue instead of vanish.
func (s *Service) ResumeIfActive(ctx context.Context, projectID string) (*domain.GenerationJob, error) {
	job, err := s.store.ActiveForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	s.setCurrent(projectID, job.ID)
	return job, nil
}

// GetJob fetches one job scoped to its project.
func (s *Service) GetJob(ctx context.Context, jobID, projectID string) (*domain.GenerationJob, error) {
	return s.store.Get(ctx, jobID, projectID)
}

// LatestCompleted returns the newest completed job with a code artifact.
func (s *Service) LatestCompleted(ctx context.Context, projectID string) (*domain.GenerationJob, error) {
	return s.store.LatestCompleted(ctx, projectID)
}

// CancelJob is best-effort and advisory: it transitions the row and trusts
// the executing worker to notice. Terminal jobs are never overwritten.
func (s *Service) CancelJob(ctx context.Context, jobID, projectID string) (*domain.GenerationJob, error) {
	job, err := s.store.Cancel(ctx, jobID, projectID)
	if err != nil {
		return nil, err
	}
	s.clearCurrent(projectID, jobID)
	s.logger.Info().Str("job_id", jobID).Msg("orchestrator: job cancelled")
	return job, nil
}

// AcknowledgeJob clears the current-job reference so the UI stops treating
// the job as active. The row itself is kept for history.
func (s *Service) AcknowledgeJob(projectID, jobID string) {
	s.clearCurrent(projectID, jobID)
}

// CurrentJobID reports the tracked current job for a project, if any.
func (s *Service) CurrentJobID(projectID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.current[projectID]
	return id, ok
}

func (s *Service) setCurrent(projectID, jobID string) {
	s.mu.Lock()
	s.current[projectID] = jobID
	s.mu.Unlock()
}

func (s *Service) clearCurrent(projectID, jobID string) {
	s.mu.Lock()
	if s.current[projectID] == jobID || jobID == "" {
		delete(s.current, projectID)
	}
	s.mu.Unlock()
}
