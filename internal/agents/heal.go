package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"vibecoder/internal/domain"
	"vibecoder/internal/style"
)

// HealRequest carries a literal runtime error and the complete source of the
// file that produced it.
type HealRequest struct {
	ErrorText   string
	FileContent string
	StyleID     string
}

// HealResult is a short diagnosis plus the complete corrected file. Callers
// must re-run the corrected file through shadow validation before promotion.
type HealResult struct {
	Diagnosis string `json:"diagnosis"`
	Code      string `json:"-"`
}

// Healer produces a minimally-scoped patch for a live runtime crash. It is
// invoked out-of-band from the job state machine: it responds to an
// already-promoted preview failing at render time.
type Healer struct {
	client CompletionClient
	logger zerolog.Logger
}

func NewHealer(client CompletionClient, logger zerolog.Logger) *Healer {
	return &Healer{client: client, logger: logger}
}

const healMarker = "---CORRECTED FILE---"

// Heal returns the diagnosis and the corrected file. The agent is
// constrained to fix only the diagnosed defect; restyling and refactoring
// are off limits.
func (h *Healer) Heal(ctx context.Context, req HealRequest) (HealResult, error) {
	raw, err := h.client.Complete(ctx, CompletionRequest{
		Prompt:      h.buildPrompt(req),
		Temperature: 0.2,
	})
	if err != nil {
		return HealResult{}, err
	}
	res, parseErr := parseHealResponse(raw)
	if parseErr != nil {
		return HealResult{}, fmt.Errorf("%w: %v", domain.ErrAgentUnavailable, parseErr)
	}
	return res, nil
}

func parseHealResponse(raw string) (HealResult, error) {
	cleaned := strings.TrimSpace(raw)
	idx := strings.Index(cleaned, healMarker)
	if idx < 0 {
		// Some models skip the diagnosis; accept a bare corrected file.
		code := StripCodeFences(cleaned)
		if strings.TrimSpace(code) == "" {
			return HealResult{}, fmt.Errorf("heal response empty")
		}
		return HealResult{Code: code}, nil
	}
	diagnosis := strings.TrimSpace(cleaned[:idx])
	code := StripCodeFences(strings.TrimSpace(cleaned[idx+len(healMarker):]))
	if strings.TrimSpace(code) == "" {
		return HealResult{}, fmt.Errorf("heal response has no corrected file")
	}
	return HealResult{Diagnosis: diagnosis, Code: code}, nil
}

func (h *Healer) buildPrompt(req HealRequest) string {
	var sb strings.Builder
	sb.WriteString("A deployed React storefront crashed at render time. ")
	sb.WriteString("Fix ONLY the defect that produced the error below. ")
	sb.WriteString("Do not refactor, restyle, or add functionality. ")
	sb.WriteString("Respond with a one-paragraph diagnosis, then the line ")
	sb.WriteString(healMarker)
	sb.WriteString(", then the complete corrected file.\n\n")
	sb.WriteString("Runtime error:\n" + req.ErrorText + "\n")
	if req.StyleID != "" {
		if profile, ok := style.Lookup(req.StyleID); ok {
			sb.WriteString("\nThe storefront uses the " + profile.Name + " style profile; keep it untouched.\n")
		}
	}
	sb.WriteString("\nFailing file:\n" + req.FileContent + "\n")
	return sb.String()
}
