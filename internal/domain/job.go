package domain

import "time"

// JobStatus enumerates generation job lifecycle states.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// Active reports whether the job still occupies the per-project generation slot.
func (s JobStatus) Active() bool {
	return s == JobStatusPending || s == JobStatusRunning
}

// CanTransition validates a state-machine edge. Terminal states are immutable;
// cancellation is allowed from pending and running.
func (s JobStatus) CanTransition(to JobStatus) bool {
	if s.Terminal() {
		return false
	}
	switch s {
	case JobStatusPending:
		return to == JobStatusRunning || to == JobStatusCancelled
	case JobStatusRunning:
		return to == JobStatusCompleted || to == JobStatusFailed || to == JobStatusCancelled
	}
	return false
}

// GenerationJob is the durable record of one storefront generation request.
// At most one job per project may be pending or running at a time; the store
// enforces this with a conditional insert backed by a partial unique index.
type GenerationJob struct {
	ID           string
	ProjectID    string
	UserID       string
	Prompt       string
	AIPrompt     string
	ModelID      string
	IsPlanMode   bool
	Status       JobStatus
	CodeResult   *string
	Summary      *string
	PlanResult   []byte
	ErrorMessage *string
	ProgressLogs []string
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
