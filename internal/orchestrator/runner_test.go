package orchestrator

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"vibecoder/internal/adapter/repo"
	"vibecoder/internal/agents"
	"vibecoder/internal/credits"
	"vibecoder/internal/domain"
	"vibecoder/internal/shadow"
	"vibecoder/internal/sqlinline"
)

func newPipelineJob(planMode bool) *domain.GenerationJob {
	return &domain.GenerationJob{
		ID:         "11111111-1111-1111-1111-111111111111",
		ProjectID:  "22222222-2222-2222-2222-222222222222",
		UserID:     "33333333-3333-3333-3333-333333333333",
		Prompt:     "a coffee shop storefront",
		AIPrompt:   "a coffee shop storefront",
		ModelID:    "static",
		IsPlanMode: planMode,
		Status:     domain.JobStatusRunning,
	}
}

func newPipeline(sql *pipelineSQL, client agents.CompletionClient, cost int) *Runner {
	store := repo.NewJobStore(sql)
	return NewRunner(
		store,
		credits.NewLedger(sql),
		agents.NewArchitect(client, zerolog.Nop()),
		agents.NewBuilder(client, zerolog.Nop()),
		shadow.NewTester(nil, 0, zerolog.Nop()),
		nil,
		cost,
		zerolog.Nop(),
	)
}

func TestExecute_CompletesWithValidArtifact(t *testing.T) {
	sql := &pipelineSQL{balance: 10}
	pipeline := newPipeline(sql, agents.NewStaticClient(), 5)

	pipeline.Execute(context.Background(), newPipelineJob(false))

	if !sql.completed {
		t.Fatal("expected the job to complete")
	}
	if sql.completeCode == "" {
		t.Fatal("expected a code artifact on completion")
	}
	if len(sql.completePlan) == 0 {
		t.Fatal("expected the plan to be persisted alongside the code")
	}
	if sql.refunded {
		t.Fatal("successful generation must not refund")
	}
}

func TestExecute_PlanModeStopsAfterArchitect(t *testing.T) {
	sql := &pipelineSQL{balance: 10}
	pipeline := newPipeline(sql, agents.NewStaticClient(), 5)

	pipeline.Execute(context.Background(), newPipelineJob(true))

	if !sql.completed {
		t.Fatal("expected the plan job to complete")
	}
	if sql.completeCode != "" {
		t.Fatalf("plan mode must not produce a code artifact, got %q", sql.completeCode)
	}
	if len(sql.completePlan) == 0 {
		t.Fatal("expected a plan result")
	}
}

func TestExecute_InsufficientCreditsFailsWithoutRefund(t *testing.T) {
	sql := &pipelineSQL{insufficient: true}
	pipeline := newPipeline(sql, agents.NewStaticClient(), 5)

	pipeline.Execute(context.Background(), newPipelineJob(false))

	if !sql.failed {
		t.Fatal("expected the job to fail")
	}
	if sql.refunded {
		t.Fatal("insufficient credits must not refund")
	}
	if sql.completed {
		t.Fatal("job must not complete without credits")
	}
}

func TestExecute_AgentFailureRefunds(t *testing.T) {
	sql := &pipelineSQL{balance: 10}
	client := &failingClient{err: fmt.Errorf("%w: upstream 502", domain.ErrAgentUnavailable)}
	pipeline := newPipeline(sql, client, 5)

	pipeline.Execute(context.Background(), newPipelineJob(false))

	if !sql.failed {
		t.Fatal("expected the job to fail")
	}
	if !sql.refunded {
		t.Fatal("agent failure must refund the deduction")
	}
}

func TestExecute_CancelledJobIsAbandoned(t *testing.T) {
	sql := &pipelineSQL{balance: 10, getStatus: "cancelled"}
	pipeline := newPipeline(sql, agents.NewStaticClient(), 5)

	pipeline.Execute(context.Background(), newPipelineJob(false))

	if sql.completed || sql.failed {
		t.Fatal("cancelled job must be abandoned, not finished")
	}
	if !sql.refunded {
		t.Fatal("cancelled generation refunds the deduction")
	}
}

type failingClient struct{ err error }

func (f *failingClient) Model() string { return "failing" }

func (f *failingClient) Complete(context.Context, agents.CompletionRequest) (string, error) {
	return "", f.err
}

// pipelineSQL answers every query the pipeline issues and records the
// terminal writes.
type pipelineSQL struct {
	balance      int
	insufficient bool
	getStatus    string

	completed    bool
	completeCode string
	completePlan []byte
	failed       bool
	failMessage  string
	refunded     bool
}

func (s *pipelineSQL) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (s *pipelineSQL) Query(_ context.Context, query string, _ ...any) (pgx.Rows, error) {
	return nil, fmt.Errorf("unexpected query: %s", query)
}

func (s *pipelineSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	switch query {
	case sqlinline.QDeductCredits:
		if s.insufficient {
			return stubRow{err: pgx.ErrNoRows}
		}
		return stubRow{scan: func(dest ...any) error {
			*dest[0].(*int) = s.balance - toInt(args[1])
			return nil
		}}
	case sqlinline.QRefundCredits:
		s.refunded = true
		return stubRow{scan: func(dest ...any) error {
			*dest[0].(*int) = s.balance
			return nil
		}}
	case sqlinline.QGetJob:
		status := s.getStatus
		if status == "" {
			status = "running"
		}
		row := newJobRow(toString(args[0]), toString(args[1]), domain.JobStatus(status))
		return stubRow{scan: row.scan}
	case sqlinline.QCompleteJob:
		s.completed = true
		s.completeCode = toString(args[1])
		if raw, ok := args[3].([]byte); ok {
			s.completePlan = raw
		}
		return stubRow{scan: func(dest ...any) error {
			*dest[0].(*string) = toString(args[0])
			return nil
		}}
	case sqlinline.QFailJob:
		s.failed = true
		s.failMessage = toString(args[1])
		return stubRow{scan: func(dest ...any) error {
			*dest[0].(*string) = toString(args[0])
			return nil
		}}
	default:
		return stubRow{err: fmt.Errorf("unexpected query: %s", query)}
	}
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func toInt(v any) int {
	i, _ := v.(int)
	return i
}
