package shadow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vibecoder/internal/domain"
)

// TestResult reports one shadow test. Results are ephemeral: consumed by the
// caller and never stored.
type TestResult struct {
	Success   bool          `json:"success"`
	Code      string        `json:"-"`
	Error     string        `json:"error,omitempty"`
	BuildTime time.Duration `json:"build_time,omitempty"`
}

// BuildRunner performs a real isolated build of the candidate artifact.
// Implementations report through the returned channel exactly once.
type BuildRunner interface {
	Build(ctx context.Context, id uuid.UUID, code string) <-chan error
}

// ErrTestInFlight is returned when a second shadow test is requested while
// one is still running. Single-in-flight is an explicit invariant, not an
// accident of shared state.
var ErrTestInFlight = errors.New("shadow: a test is already in flight")

type pending struct {
	done chan TestResult
}

// Tester validates candidate artifacts in isolation. The syntactic path is
// synchronous; the optional build path is asynchronous with a bounded
// timeout. Pending builds are tracked in an explicit correlation table keyed
// by request id.
type Tester struct {
	runner  BuildRunner
	timeout time.Duration
	logger  zerolog.Logger

	mu       sync.Mutex
	inFlight map[uuid.UUID]*pending
}

// NewTester builds a Tester. runner may be nil, in which case only the
// syntactic path runs.
func NewTester(runner BuildRunner, timeout time.Duration, logger zerolog.Logger) *Tester {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Tester{
		runner:   runner,
		timeout:  timeout,
		logger:   logger,
		inFlight: make(map[uuid.UUID]*pending),
	}
}

// TestCode validates code before promotion. Structural checks run first and
// short-circuit; when they pass and a build runner is configured, an
// isolated build decides the final result. A build that reports nothing
// before the deadline is a failure: a hung build is never promoted.
func (t *Tester) TestCode(ctx context.Context, code string) (TestResult, error) {
	if check := QuickSyntaxCheck(code); !check.Valid {
		return TestResult{Success: false, Code: code, Error: check.Reason}, nil
	}
	if t.runner == nil {
		return TestResult{Success: true, Code: code}, nil
	}

	id := uuid.New()
	p := &pending{done: make(chan TestResult, 1)}

	t.mu.Lock()
	if len(t.inFlight) > 0 {
		t.mu.Unlock()
		return TestResult{}, ErrTestInFlight
	}
	t.inFlight[id] = p
	t.mu.Unlock()
	defer t.release(id)

	buildCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	errCh := t.runner.Build(buildCtx, id, code)

	select {
	case res := <-p.done:
		return res, nil
	case err, ok := <-errCh:
		elapsed := time.Since(start)
		if !ok || err == nil {
			return TestResult{Success: true, Code: code, BuildTime: elapsed}, nil
		}
		return TestResult{Success: false, Code: code, Error: err.Error(), BuildTime: elapsed}, nil
	case <-buildCtx.Done():
		elapsed := time.Since(start)
		if errors.Is(buildCtx.Err(), context.DeadlineExceeded) {
			t.logger.Warn().Dur("elapsed", elapsed).Msg("shadow: build timed out")
			return TestResult{Success: false, Code: code, Error: "shadow build timed out", BuildTime: elapsed}, nil
		}
		return TestResult{Success: false, Code: code, Error: "cancelled", BuildTime: elapsed}, nil
	}
}

// CancelAll resolves every pending test with a failure carrying a
// "cancelled" reason, so waiting callers never hang. TestCode generates the
// correlation ids internally, so per-id cancellation stays unexported.
func (t *Tester) CancelAll() {
	t.mu.Lock()
	ids := make([]uuid.UUID, 0, len(t.inFlight))
	for id := range t.inFlight {
		ids = append(ids, id)
	}
	t.mu.Unlock()
	for _, id := range ids {
		t.cancel(id)
	}
}

func (t *Tester) cancel(id uuid.UUID) bool {
	t.mu.Lock()
	p, ok := t.inFlight[id]
	if ok {
		delete(t.inFlight, id)
	}
	t.mu.Unlock()
	if !ok {
		return false
	}
	p.done <- TestResult{Success: false, Error: "cancelled"}
	return true
}

func (t *Tester) release(id uuid.UUID) {
	t.mu.Lock()
	delete(t.inFlight, id)
	t.mu.Unlock()
}

// ValidateForPromotion is the one-call surface used by the worker: run the
// shadow test and convert a rejection into the domain error taxonomy.
func (t *Tester) ValidateForPromotion(ctx context.Context, code string) (TestResult, error) {
	res, err := t.TestCode(ctx, code)
	if err != nil {
		return res, err
	}
	if !res.Success {
		return res, domain.ErrSyntaxInvalid
	}
	return res, nil
}
