package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"vibecoder/internal/adapter/repo"
	"vibecoder/internal/domain"
	"vibecoder/internal/policy"
	"vibecoder/internal/sqlinline"
)

func newTestService(sql *jobTestSQL) *Service {
	store := repo.NewJobStore(sql)
	guard := policy.NewGuard(policy.DefaultRules)
	return NewService(store, guard, "gemini-2.0-flash", zerolog.Nop())
}

func TestCreateJob_RequiresUserAndProject(t *testing.T) {
	svc := newTestService(&jobTestSQL{})

	if _, err := svc.CreateJob(context.Background(), CreateJobInput{ProjectID: "p1", Prompt: "a shop"}); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := svc.CreateJob(context.Background(), CreateJobInput{UserID: "u1", Prompt: "a shop"}); !errors.Is(err, domain.ErrNoProject) {
		t.Fatalf("expected ErrNoProject, got %v", err)
	}
	if _, err := svc.CreateJob(context.Background(), CreateJobInput{UserID: "u1", ProjectID: "p1", Prompt: "  "}); !errors.Is(err, domain.ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
}

func TestCreateJob_PolicyRejectionBeforePersistence(t *testing.T) {
	sql := &jobTestSQL{}
	svc := newTestService(sql)

	_, err := svc.CreateJob(context.Background(), CreateJobInput{
		UserID:    "u1",
		ProjectID: "p1",
		Prompt:    "add a login page for my customers",
	})
	if !errors.Is(err, domain.ErrPolicyViolation) {
		t.Fatalf("expected policy violation, got %v", err)
	}

	var rejection *PolicyRejection
	if !errors.As(err, &rejection) {
		t.Fatalf("expected *PolicyRejection, got %T", err)
	}
	if rejection.Message("en") == "" {
		t.Fatal("expected a user-facing rejection message")
	}
	if len(sql.queries) != 0 {
		t.Fatalf("policy rejection must not touch storage, saw %d queries", len(sql.queries))
	}
}

func TestCreateJob_ReturnsExistingActiveJob(t *testing.T) {
	existing := newJobRow("job-1", "p1", domain.JobStatusRunning)
	sql := &jobTestSQL{activeJob: existing}
	svc := newTestService(sql)

	job, err := svc.CreateJob(context.Background(), CreateJobInput{
		UserID:    "u1",
		ProjectID: "p1",
		Prompt:    "a coffee shop storefront",
	})
	if !errors.Is(err, domain.ErrActiveJobExists) {
		t.Fatalf("expected ErrActiveJobExists, got %v", err)
	}
	if job == nil || job.ID != existing.id {
		t.Fatalf("expected the active job back, got %+v", job)
	}
	for _, q := range sql.queries {
		if q == sqlinline.QCreateJob {
			t.Fatal("must not insert while an active job exists")
		}
	}
}

func TestCreateJob_InsertsPendingWithDefaultModel(t *testing.T) {
	created := newJobRow("job-2", "p1", domain.JobStatusPending)
	sql := &jobTestSQL{created: created}
	svc := newTestService(sql)

	job, err := svc.CreateJob(context.Background(), CreateJobInput{
		UserID:    "u1",
		ProjectID: "p1",
		Prompt:    "a coffee shop storefront",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.ID != created.id {
		t.Fatalf("expected job %s, got %s", created.id, job.ID)
	}
	if sql.createArgs == nil {
		t.Fatal("expected an insert")
	}
	if got := sql.createArgs[4]; got != "gemini-2.0-flash" {
		t.Fatalf("expected default model id, got %v", got)
	}

	if id, ok := svc.CurrentJobID("p1"); !ok || id != created.id {
		t.Fatalf("expected current job %s, got %q (ok=%v)", created.id, id, ok)
	}
}

func TestCreateJob_AdoptsWinnerOnInsertRace(t *testing.T) {
	winner := newJobRow("job-race", "p1", domain.JobStatusPending)
	sql := &jobTestSQL{createErr: &pgconn.PgError{Code: "23505"}, lateActiveJob: winner}
	svc := newTestService(sql)

	job, err := svc.CreateJob(context.Background(), CreateJobInput{
		UserID:    "u1",
		ProjectID: "p1",
		Prompt:    "a coffee shop storefront",
	})
	if !errors.Is(err, domain.ErrActiveJobExists) {
		t.Fatalf("expected ErrActiveJobExists, got %v", err)
	}
	if job == nil || job.ID != winner.id {
		t.Fatalf("expected the race winner back, got %+v", job)
	}
}

func TestCancelJob_TerminalJobIsNotOverwritten(t *testing.T) {
	sql := &jobTestSQL{cancelStatus: "completed"}
	svc := newTestService(sql)

	_, err := svc.CancelJob(context.Background(), "job-3", "p1")
	if !errors.Is(err, domain.ErrJobTerminal) {
		t.Fatalf("expected ErrJobTerminal, got %v", err)
	}
}

func TestResumeIfActive_AdoptsJob(t *testing.T) {
	active := newJobRow("job-4", "p1", domain.JobStatusRunning)
	sql := &jobTestSQL{activeJob: active}
	svc := newTestService(sql)

	job, err := svc.ResumeIfActive(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.ID != active.id {
		t.Fatalf("expected job %s, got %s", active.id, job.ID)
	}
	if id, ok := svc.CurrentJobID("p1"); !ok || id != active.id {
		t.Fatalf("expected current job %s, got %q", active.id, id)
	}
}

func TestAcknowledgeJob_ClearsCurrentReferenceOnly(t *testing.T) {
	created := newJobRow("job-5", "p1", domain.JobStatusCompleted)
	sql := &jobTestSQL{created: created}
	svc := newTestService(sql)

	if _, err := svc.CreateJob(context.Background(), CreateJobInput{
		UserID: "u1", ProjectID: "p1", Prompt: "a bakery storefront",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc.AcknowledgeJob("p1", created.id)
	if _, ok := svc.CurrentJobID("p1"); ok {
		t.Fatal("expected current reference cleared")
	}
	for _, q := range sql.queries {
		if q == sqlinline.QCancelJob || q == sqlinline.QFailJob {
			t.Fatal("acknowledge must not mutate the job row")
		}
	}
}

type jobRow struct {
	id        string
	projectID string
	status    domain.JobStatus
}

func newJobRow(id, projectID string, status domain.JobStatus) *jobRow {
	return &jobRow{id: id, projectID: projectID, status: status}
}

func (r *jobRow) scan(dest ...any) error {
	if len(dest) != 17 {
		return fmt.Errorf("unexpected scan args: %d", len(dest))
	}
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	*dest[0].(*string) = r.id
	*dest[1].(*string) = r.projectID
	*dest[2].(*string) = "u1"
	*dest[3].(*string) = "prompt"
	*dest[4].(*string) = "shaped prompt"
	*dest[5].(*string) = "gemini-2.0-flash"
	*dest[6].(*bool) = false
	*dest[7].(*string) = string(r.status)
	*dest[12].(*[]string) = []string{"Job queued"}
	*dest[15].(*time.Time) = now
	*dest[16].(*time.Time) = now
	return nil
}

// jobTestSQL dispatches on the inline query constant, the same way the
// real runner matches markers.
type jobTestSQL struct {
	activeJob     *jobRow
	lateActiveJob *jobRow
	created       *jobRow
	createErr     error
	cancelStatus  string

	queries    []string
	createArgs []any
}

func (s *jobTestSQL) Exec(_ context.Context, query string, _ ...any) (pgconn.CommandTag, error) {
	s.queries = append(s.queries, query)
	return pgconn.CommandTag{}, nil
}

func (s *jobTestSQL) Query(_ context.Context, query string, _ ...any) (pgx.Rows, error) {
	s.queries = append(s.queries, query)
	return nil, fmt.Errorf("unexpected query: %s", query)
}

func (s *jobTestSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	s.queries = append(s.queries, query)
	switch query {
	case sqlinline.QActiveJobForProject:
		row := s.activeJob
		if row == nil && s.createErr != nil && len(s.createArgs) > 0 {
			row = s.lateActiveJob
		}
		if row == nil {
			return stubRow{err: pgx.ErrNoRows}
		}
		return stubRow{scan: row.scan}
	case sqlinline.QCreateJob:
		s.createArgs = args
		if s.createErr != nil {
			return stubRow{err: s.createErr}
		}
		if s.created == nil {
			return stubRow{err: pgx.ErrNoRows}
		}
		return stubRow{scan: s.created.scan}
	case sqlinline.QCancelJob:
		return stubRow{err: pgx.ErrNoRows}
	case sqlinline.QJobStatus:
		if s.cancelStatus == "" {
			return stubRow{err: pgx.ErrNoRows}
		}
		status := s.cancelStatus
		return stubRow{scan: func(dest ...any) error {
			*dest[0].(*string) = status
			return nil
		}}
	default:
		return stubRow{err: fmt.Errorf("unexpected query: %s", query)}
	}
}

type stubRow struct {
	scan func(dest ...any) error
	err  error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}
