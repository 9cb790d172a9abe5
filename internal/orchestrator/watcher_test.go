package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vibecoder/internal/adapter/repo"
	"vibecoder/internal/domain"
)

func newTestWatcher(sql *jobTestSQL) *Watcher {
	return NewWatcher(nil, repo.NewJobStore(sql), zerolog.Nop())
}

func TestSubscribe_DeliversActiveJobBeforeFeed(t *testing.T) {
	active := newJobRow("job-w1", "p1", domain.JobStatusRunning)
	w := newTestWatcher(&jobTestSQL{activeJob: active})

	var got []*domain.GenerationJob
	release := w.Subscribe(context.Background(), "p1", func(job *domain.GenerationJob) {
		got = append(got, job)
	}, nil)
	defer release()

	if len(got) != 1 || got[0].ID != active.id {
		t.Fatalf("expected reconciliation delivery of %s, got %+v", active.id, got)
	}
}

func TestDeliver_TerminalFiresExactlyOnce(t *testing.T) {
	w := newTestWatcher(&jobTestSQL{})

	var updates, terminals int
	release := w.Subscribe(context.Background(), "p1",
		func(*domain.GenerationJob) { updates++ },
		func(*domain.GenerationJob) { terminals++ })
	defer release()

	job := &domain.GenerationJob{ID: "job-w2", ProjectID: "p1", Status: domain.JobStatusCompleted}
	w.deliver(job)
	w.deliver(job)

	if updates != 2 {
		t.Fatalf("expected 2 updates, got %d", updates)
	}
	if terminals != 1 {
		t.Fatalf("expected exactly one terminal callback, got %d", terminals)
	}
}

func TestDeliver_SweepsStaleTerminalEntries(t *testing.T) {
	w := newTestWatcher(&jobTestSQL{})

	w.mu.Lock()
	w.terminal["job-old"] = time.Now().Add(-2 * terminalDedupTTL)
	w.mu.Unlock()

	w.deliver(&domain.GenerationJob{ID: "job-w5", ProjectID: "p1", Status: domain.JobStatusFailed})

	w.mu.Lock()
	_, staleKept := w.terminal["job-old"]
	_, freshKept := w.terminal["job-w5"]
	w.mu.Unlock()
	if staleKept {
		t.Fatal("expired dedup entry was not swept")
	}
	if !freshKept {
		t.Fatal("fresh terminal entry missing from dedup table")
	}
}

func TestRelease_StopsDeliveries(t *testing.T) {
	w := newTestWatcher(&jobTestSQL{})

	var updates int
	release := w.Subscribe(context.Background(), "p1",
		func(*domain.GenerationJob) { updates++ }, nil)
	release()

	w.deliver(&domain.GenerationJob{ID: "job-w3", ProjectID: "p1", Status: domain.JobStatusRunning})
	if updates != 0 {
		t.Fatalf("expected no deliveries after release, got %d", updates)
	}
}

func TestDeliver_ScopedToProject(t *testing.T) {
	w := newTestWatcher(&jobTestSQL{})

	var updates int
	release := w.Subscribe(context.Background(), "p1",
		func(*domain.GenerationJob) { updates++ }, nil)
	defer release()

	w.deliver(&domain.GenerationJob{ID: "job-w4", ProjectID: "p2", Status: domain.JobStatusRunning})
	if updates != 0 {
		t.Fatalf("expected no cross-project delivery, got %d", updates)
	}
}
