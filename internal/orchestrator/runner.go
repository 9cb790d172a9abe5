package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"vibecoder/internal/adapter/repo"
	"vibecoder/internal/agents"
	"vibecoder/internal/credits"
	"vibecoder/internal/domain"
	"vibecoder/internal/domain/jsoncfg"
	"vibecoder/internal/shadow"
	"vibecoder/internal/storage"
)

// Runner executes one claimed job through the generation pipeline:
// architect, builder per planned file, shadow validation, promotion. It only
// ever sees jobs that already passed the policy guard.
type Runner struct {
	store     *repo.JobStore
	ledger    *credits.Ledger
	architect *agents.Architect
	builder   *agents.Builder
	tester    *shadow.Tester
	artifacts *storage.FileStore
	cost      int
	logger    zerolog.Logger
}

func NewRunner(
	store *repo.JobStore,
	ledger *credits.Ledger,
	architect *agents.Architect,
	builder *agents.Builder,
	tester *shadow.Tester,
	artifacts *storage.FileStore,
	cost int,
	logger zerolog.Logger,
) *Runner {
	return &Runner{
		store:     store,
		ledger:    ledger,
		architect: architect,
		builder:   builder,
		tester:    tester,
		artifacts: artifacts,
		cost:      cost,
		logger:    logger,
	}
}

// Execute runs the pipeline for a job already claimed into running state.
// Cancellation is advisory: the runner checks the row between stages and
// abandons silently when the user cancelled, discarding any late result.
func (r *Runner) Execute(ctx context.Context, job *domain.GenerationJob) {
	logger := r.logger.With().Str("job_id", job.ID).Str("project_id", job.ProjectID).Logger()

	deducted := false
	if r.cost > 0 {
		if _, err := r.ledger.Deduct(ctx, job.UserID, job.ID, r.cost, "generation"); err != nil {
			if errors.Is(err, domain.ErrInsufficientCredits) {
				r.fail(ctx, job, "Not enough credits for this generation.", logger)
				return
			}
			r.fail(ctx, job, "Could not reserve credits for this generation.", logger)
			return
		}
		deducted = true
	}

	if r.cancelled(ctx, job) {
		r.refundIf(ctx, deducted, job, "cancelled before planning", logger)
		return
	}

	r.progress(ctx, job.ID, "Designing the storefront plan")
	plan, err := r.architect.Plan(ctx, agents.PlanRequest{Prompt: job.AIPrompt})
	if err != nil {
		r.failAgent(ctx, job, err, deducted, logger)
		return
	}
	planJSON := jsoncfg.MustMarshal(plan)

	if job.IsPlanMode {
		if err := r.store.Complete(ctx, job.ID, "", r.planSummary(plan), planJSON, "Plan ready"); err != nil {
			logger.Error().Err(err).Msg("runner: persist plan failed")
		}
		return
	}

	built := make(map[string]string, len(plan.Files))
	for _, path := range plan.ExecutionOrder {
		if r.cancelled(ctx, job) {
			r.refundIf(ctx, deducted, job, "cancelled mid-build", logger)
			return
		}
		file, ok := planFileByPath(plan, path)
		if !ok {
			continue
		}
		r.progress(ctx, job.ID, fmt.Sprintf("Building %s", file.Path))
		code, err := r.builder.BuildFile(ctx, agents.BuildFileRequest{
			Prompt:     job.AIPrompt,
			Plan:       plan,
			File:       file,
			BuiltFiles: built,
		})
		if err != nil {
			r.failAgent(ctx, job, err, deducted, logger)
			return
		}
		built[file.Path] = code
	}

	artifact := agents.AssembleArtifact(plan, built)
	if strings.TrimSpace(artifact) == "" {
		r.failAgent(ctx, job, fmt.Errorf("%w: builder produced no output", domain.ErrAgentUnavailable), deducted, logger)
		return
	}

	if r.cancelled(ctx, job) {
		r.refundIf(ctx, deducted, job, "cancelled before validation", logger)
		return
	}

	r.progress(ctx, job.ID, "Validating generated code")
	result, err := r.tester.ValidateForPromotion(ctx, artifact)
	if err != nil {
		if errors.Is(err, domain.ErrSyntaxInvalid) {
			r.refund(ctx, deducted, job, "validation failure", logger)
			r.fail(ctx, job, "Generated code failed validation: "+result.Error, logger)
			return
		}
		r.refund(ctx, deducted, job, "validation error", logger)
		r.fail(ctx, job, "Could not validate the generated code.", logger)
		return
	}

	r.persistArtifacts(ctx, job, built, artifact, logger)

	summary := r.buildSummary(job, plan)
	if err := r.store.Complete(ctx, job.ID, artifact, summary, planJSON, "Storefront ready"); err != nil {
		if errors.Is(err, domain.ErrJobTerminal) {
			// Cancelled while we validated; the result is discarded.
			logger.Info().Msg("runner: job reached terminal state elsewhere, result discarded")
			r.refundIf(ctx, deducted, job, "cancelled during validation", logger)
			return
		}
		logger.Error().Err(err).Msg("runner: persist result failed")
	}
}

func (r *Runner) planSummary(plan jsoncfg.PlanResult) string {
	return fmt.Sprintf("Planned %d files (complexity %d).", len(plan.Files), plan.Complexity)
}

func (r *Runner) buildSummary(job *domain.GenerationJob, plan jsoncfg.PlanResult) string {
	return fmt.Sprintf("Generated a storefront from %d planned files for: %s", len(plan.Files), truncate(job.Prompt, 140))
}

func (r *Runner) persistArtifacts(ctx context.Context, job *domain.GenerationJob, built map[string]string, artifact string, logger zerolog.Logger) {
	if r.artifacts == nil {
		return
	}
	prefix := fmt.Sprintf("projects/%s/jobs/%s/", job.ProjectID, job.ID)
	for path, code := range built {
		if _, err := r.artifacts.Write(ctx, prefix+path, []byte(code)); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("runner: persist artifact file failed")
		}
	}
	if _, err := r.artifacts.Write(ctx, prefix+"bundle.jsx", []byte(artifact)); err != nil {
		logger.Warn().Err(err).Msg("runner: persist bundle failed")
	}
}

// failAgent maps agent-level errors onto user-displayable failure messages
// and refunds the deducted credits: these failures are never attributable to
// the user.
func (r *Runner) failAgent(ctx context.Context, job *domain.GenerationJob, err error, deducted bool, logger zerolog.Logger) {
	logger.Error().Err(err).Msg("runner: agent call failed")
	r.refund(ctx, deducted, job, "agent failure", logger)
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		r.fail(ctx, job, "The AI service is rate limited. Please retry in a moment.", logger)
	case errors.Is(err, domain.ErrAgentUnavailable):
		r.fail(ctx, job, "The AI service is temporarily unavailable. Your credits were refunded.", logger)
	default:
		r.fail(ctx, job, "Generation failed unexpectedly. Your credits were refunded.", logger)
	}
}

func (r *Runner) fail(ctx context.Context, job *domain.GenerationJob, message string, logger zerolog.Logger) {
	if err := r.store.Fail(ctx, job.ID, message, "Generation failed"); err != nil {
		if errors.Is(err, domain.ErrJobTerminal) {
			return
		}
		logger.Error().Err(err).Msg("runner: persist failure failed")
	}
}

func (r *Runner) refund(ctx context.Context, deducted bool, job *domain.GenerationJob, reason string, logger zerolog.Logger) {
	if !deducted || r.cost <= 0 {
		return
	}
	if _, err := r.ledger.Refund(ctx, job.UserID, job.ID, r.cost, reason); err != nil {
		logger.Error().Err(err).Msg("runner: refund failed")
	}
}

// refundIf refunds after a cancellation notice. Cancellation mid-flight
// still refunds: the user paid for a result they chose not to receive, and
// the call was abandoned.
func (r *Runner) refundIf(ctx context.Context, deducted bool, job *domain.GenerationJob, reason string, logger zerolog.Logger) {
	logger.Info().Str("reason", reason).Msg("runner: job cancelled, abandoning")
	r.refund(ctx, deducted, job, reason, logger)
}

func (r *Runner) cancelled(ctx context.Context, job *domain.GenerationJob) bool {
	fresh, err := r.store.Get(ctx, job.ID, job.ProjectID)
	if err != nil {
		return false
	}
	return fresh.Status == domain.JobStatusCancelled
}

func (r *Runner) progress(ctx context.Context, jobID, line string) {
	if err := r.store.AppendProgress(ctx, jobID, line); err != nil {
		r.logger.Warn().Err(err).Str("job_id", jobID).Msg("runner: append progress failed")
	}
}

func planFileByPath(plan jsoncfg.PlanResult, path string) (jsoncfg.PlanFile, bool) {
	for _, f := range plan.Files {
		if f.Path == path {
			return f, true
		}
	}
	return jsoncfg.PlanFile{}, false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
