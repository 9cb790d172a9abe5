package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"vibecoder/internal/domain"
	"vibecoder/internal/infra"
	"vibecoder/internal/sqlinline"
)

// JobStore persists generation jobs. The at-most-one-active-job-per-project
// invariant is enforced at the storage layer: a partial unique index over
// project_id where status is pending or running rejects a second active
// insert even across concurrent clients.
type JobStore struct {
	sql infra.SQLExecutor
}

func NewJobStore(sql infra.SQLExecutor) *JobStore {
	return &JobStore{sql: sql}
}

// CreateParams carries the client-supplied fields of a new job.
type CreateParams struct {
	ProjectID  string
	UserID     string
	Prompt     string
	AIPrompt   string
	ModelID    string
	IsPlanMode bool
}

// Create inserts a pending job. When the project already holds an active
// job, domain.ErrActiveJobExists is returned; the caller should resume the
// existing job instead of retrying.
func (s *JobStore) Create(ctx context.Context, p CreateParams) (*domain.GenerationJob, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QCreateJob,
		p.ProjectID, p.UserID, p.Prompt, p.AIPrompt, p.ModelID, p.IsPlanMode)
	job, err := scanJob(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrActiveJobExists
		}
		return nil, err
	}
	return job, nil
}

// ActiveForProject returns the most recent pending or running job for the
// project, or domain.ErrNotFound when the project is idle.
func (s *JobStore) ActiveForProject(ctx context.Context, projectID string) (*domain.GenerationJob, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QActiveJobForProject, projectID)
	job, err := scanJob(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// Get fetches one job scoped to its project.
func (s *JobStore) Get(ctx context.Context, jobID, projectID string) (*domain.GenerationJob, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QGetJob, jobID, projectID)
	job, err := scanJob(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// Claim atomically moves the oldest pending job to running and returns it.
// domain.ErrNotFound means no work is available.
func (s *JobStore) Claim(ctx context.Context, progressLine string) (*domain.GenerationJob, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QClaimJob, progressLine)
	job, err := scanJob(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// AppendProgress adds one human-readable progress line. Lines are ordered,
// never reordered or deduplicated. Appends to terminal jobs are silently
// dropped by the status guard in the query.
func (s *JobStore) AppendProgress(ctx context.Context, jobID, line string) error {
	_, err := s.sql.Exec(ctx, sqlinline.QAppendProgress, jobID, line)
	return err
}

// Complete finishes a running job with its artifacts.
func (s *JobStore) Complete(ctx context.Context, jobID, codeResult, summary string, planResult []byte, progressLine string) error {
	row := s.sql.QueryRow(ctx, sqlinline.QCompleteJob,
		jobID, codeResult, summary, nullableBytes(planResult), progressLine)
	var id string
	if err := row.Scan(&id); err != nil {
		if infra.IsNoRows(err) {
			return domain.ErrJobTerminal
		}
		return err
	}
	return nil
}

// Fail marks an active job failed with a one-line user-displayable message.
func (s *JobStore) Fail(ctx context.Context, jobID, errorMessage, progressLine string) error {
	row := s.sql.QueryRow(ctx, sqlinline.QFailJob, jobID, errorMessage, progressLine)
	var id string
	if err := row.Scan(&id); err != nil {
		if infra.IsNoRows(err) {
			return domain.ErrJobTerminal
		}
		return err
	}
	return nil
}

// Cancel transitions a pending or running job to cancelled. Terminal jobs
// are never overwritten: the attempt reports domain.ErrJobTerminal if the
// job exists, domain.ErrNotFound otherwise.
func (s *JobStore) Cancel(ctx context.Context, jobID, projectID string) (*domain.GenerationJob, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QCancelJob, jobID, projectID)
	job, err := scanJob(row)
	if err == nil {
		return job, nil
	}
	if !infra.IsNoRows(err) {
		return nil, err
	}
	statusRow := s.sql.QueryRow(ctx, sqlinline.QJobStatus, jobID)
	var status string
	if serr := statusRow.Scan(&status); serr != nil {
		if infra.IsNoRows(serr) {
			return nil, domain.ErrNotFound
		}
		return nil, serr
	}
	return nil, domain.ErrJobTerminal
}

// LatestCompleted returns the newest completed job with a code artifact for
// the project.
func (s *JobStore) LatestCompleted(ctx context.Context, projectID string) (*domain.GenerationJob, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QLatestCompletedJob, projectID)
	job, err := scanJob(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

func scanJob(row pgx.Row) (*domain.GenerationJob, error) {
	var job domain.GenerationJob
	var status string
	if err := row.Scan(
		&job.ID,
		&job.ProjectID,
		&job.UserID,
		&job.Prompt,
		&job.AIPrompt,
		&job.ModelID,
		&job.IsPlanMode,
		&status,
		&job.CodeResult,
		&job.Summary,
		&job.PlanResult,
		&job.ErrorMessage,
		&job.ProgressLogs,
		&job.StartedAt,
		&job.CompletedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	return &job, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
