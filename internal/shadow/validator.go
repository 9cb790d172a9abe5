package shadow

import (
	"fmt"
	"regexp"
	"strings"
)

// CheckResult is the outcome of the synchronous structural validation path.
type CheckResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// minCodeLength rejects trivially truncated artifacts.
const minCodeLength = 50

var appDeclPattern = regexp.MustCompile(`(?m)^\s*(export\s+default\s+)?(function|const|class)\s+App\b`)

// QuickSyntaxCheck runs the structural invariants a candidate artifact must
// satisfy before it can replace the live preview. Checks short-circuit on the
// first failure.
func QuickSyntaxCheck(code string) CheckResult {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return invalid("code is empty")
	}
	if len(trimmed) < minCodeLength {
		return invalid(fmt.Sprintf("code is too short (%d chars)", len(trimmed)))
	}
	if !strings.Contains(trimmed, "export default") {
		return invalid("missing default export")
	}
	if !appDeclPattern.MatchString(trimmed) {
		return invalid("missing top-level App component declaration")
	}
	if open, close := strings.Count(trimmed, "{"), strings.Count(trimmed, "}"); open != close {
		return invalid(fmt.Sprintf("unbalanced braces: %d open, %d close", open, close))
	}
	if open, close := strings.Count(trimmed, "("), strings.Count(trimmed, ")"); open != close {
		return invalid(fmt.Sprintf("unbalanced parentheses: %d open, %d close", open, close))
	}
	if open, close := strings.Count(trimmed, "["), strings.Count(trimmed, "]"); open != close {
		return invalid(fmt.Sprintf("unbalanced brackets: %d open, %d close", open, close))
	}
	if strings.Count(trimmed, "`")%2 != 0 {
		return invalid("unterminated template literal")
	}
	if strings.Contains(trimmed, "<") && !strings.Contains(trimmed, ">") {
		return invalid("unterminated JSX tag")
	}
	return CheckResult{Valid: true}
}

func invalid(reason string) CheckResult {
	return CheckResult{Valid: false, Reason: reason}
}
