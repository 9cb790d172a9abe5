package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrNoProject           = errors.New("no project bound")
	ErrEmptyPrompt         = errors.New("prompt is required")
	ErrActiveJobExists     = errors.New("project already has an active job")
	ErrJobTerminal         = errors.New("job is in a terminal state")
	ErrPolicyViolation     = errors.New("prompt violates platform policy")
	ErrPlanMalformed       = errors.New("architect plan malformed")
	ErrSyntaxInvalid       = errors.New("generated code failed validation")
	ErrRateLimited         = errors.New("agent rate limited, retry later")
	ErrAgentUnavailable    = errors.New("agent unavailable")
	ErrInsufficientCredits = errors.New("insufficient credits")
)
