package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"vibecoder/internal/adapter/repo"
	"vibecoder/internal/domain"
	"vibecoder/internal/infra"
)

// NotifyChannel is the Postgres notification channel the job trigger writes
// to. The payload is a small {job_id, project_id, status} envelope; the full
// row is always re-read with a point query, which keeps the feed idempotent
// with the mount-time fallback.
const NotifyChannel = "generation_jobs"

type notifyPayload struct {
	JobID     string `json:"job_id"`
	ProjectID string `json:"project_id"`
	Status    string `json:"status"`
}

// Subscription delivers job updates for one project.
type Subscription struct {
	id         int64
	projectID  string
	onUpdate   func(*domain.GenerationJob)
	onTerminal func(*domain.GenerationJob)
}

// Watcher is the per-project change feed. It owns an explicit subscription
// lifecycle: a reconciling point query always runs once on Subscribe before
// the feed is trusted, and terminal callbacks fire exactly once per job even
// when the feed and the point query race.
type Watcher struct {
	pool   *pgxpool.Pool
	store  *repo.JobStore
	logger zerolog.Logger

	mu       sync.Mutex
	subs     map[string]map[int64]*Subscription
	terminal map[string]time.Time
	nextID   int64
}

// terminalDedupTTL bounds the terminal dedup table: a terminal notice for
// the same job never arrives this long after the first, so older entries
// are swept on insert.
const terminalDedupTTL = time.Hour

func NewWatcher(pool *pgxpool.Pool, store *repo.JobStore, logger zerolog.Logger) *Watcher {
	return &Watcher{
		pool:     pool,
		store:    store,
		logger:   logger,
		subs:     make(map[string]map[int64]*Subscription),
		terminal: make(map[string]time.Time),
	}
}

// Subscribe registers callbacks for a project's jobs and returns a release
// function that stops further deliveries.
func (w *Watcher) Subscribe(ctx context.Context, projectID string, onUpdate, onTerminal func(*domain.GenerationJob)) func() {
	w.mu.Lock()
	w.nextID++
	sub := &Subscription{id: w.nextID, projectID: projectID, onUpdate: onUpdate, onTerminal: onTerminal}
	if w.subs[projectID] == nil {
		w.subs[projectID] = make(map[int64]*Subscription)
	}
	w.subs[projectID][sub.id] = sub
	w.mu.Unlock()

	// Reconcile before trusting the feed: events during the connect race
	// must not be silently missed.
	if job, err := w.store.ActiveForProject(ctx, projectID); err == nil {
		w.deliver(job)
	} else if !errors.Is(err, domain.ErrNotFound) {
		w.logger.Warn().Err(err).Str("project_id", projectID).Msg("watcher: reconcile query failed")
	}

	return func() {
		w.mu.Lock()
		if m, ok := w.subs[projectID]; ok {
			delete(m, sub.id)
			if len(m) == 0 {
				delete(w.subs, projectID)
			}
		}
		w.mu.Unlock()
	}
}

// Run drives the LISTEN loop until ctx is cancelled. Feed errors are logged
// and the listener reconnects; they never crash the watcher, since the
// point-query reconciliation on Subscribe is the safety net for missed
// events.
func (w *Watcher) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := w.listenOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error().Err(err).Msg("watcher: listener failed, reconnecting")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func (w *Watcher) listenOnce(ctx context.Context) error {
	conn, err := infra.AcquireListener(ctx, w.pool, NotifyChannel)
	if err != nil {
		return err
	}
	defer conn.Release()

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		var payload notifyPayload
		if err := json.Unmarshal([]byte(notification.Payload), &payload); err != nil {
			w.logger.Warn().Err(err).Msg("watcher: bad notification payload")
			continue
		}
		w.dispatch(ctx, payload)
	}
}

func (w *Watcher) dispatch(ctx context.Context, payload notifyPayload) {
	w.mu.Lock()
	interested := len(w.subs[payload.ProjectID]) > 0
	w.mu.Unlock()
	if !interested {
		return
	}

	job, err := w.store.Get(ctx, payload.JobID, payload.ProjectID)
	if err != nil {
		w.logger.Warn().Err(err).Str("job_id", payload.JobID).Msg("watcher: fetch after notify failed")
		return
	}
	w.deliver(job)
}

// deliver fans a job out to its project's subscribers. The terminal
// callback fires exactly once per job across all deliveries, whether the
// update arrived from the feed or from reconciliation.
func (w *Watcher) deliver(job *domain.GenerationJob) {
	w.mu.Lock()
	var subs []*Subscription
	for _, sub := range w.subs[job.ProjectID] {
		subs = append(subs, sub)
	}
	fireTerminal := false
	if job.Status.Terminal() {
		if _, seen := w.terminal[job.ID]; !seen {
			now := time.Now()
			for id, at := range w.terminal {
				if now.Sub(at) > terminalDedupTTL {
					delete(w.terminal, id)
				}
			}
			w.terminal[job.ID] = now
			fireTerminal = true
		}
	}
	w.mu.Unlock()

	for _, sub := range subs {
		if sub.onUpdate != nil {
			sub.onUpdate(job)
		}
		if fireTerminal && sub.onTerminal != nil {
			sub.onTerminal(job)
		}
	}
}
