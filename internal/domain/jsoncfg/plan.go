package jsoncfg

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PlanFile describes one file in the architect's build manifest.
type PlanFile struct {
	Path           string `json:"path"`
	Description    string `json:"description"`
	EstimatedLines int    `json:"estimated_lines"`
	Priority       int    `json:"priority"`
}

// PaletteAnalysis summarizes the visual direction the architect chose.
type PaletteAnalysis struct {
	Colors     []string `json:"colors"`
	Typography string   `json:"typography"`
}

// PlanResult is the canonical JSON contract for architect output. It is
// persisted verbatim on the job row and consumed by the builder loop.
type PlanResult struct {
	Version        string          `json:"version"`
	Palette        PaletteAnalysis `json:"palette"`
	Files          []PlanFile      `json:"files"`
	ExecutionOrder []string        `json:"execution_order"`
	Complexity     int             `json:"complexity"`
}

const (
	// DefaultPlanVersion is the schema version persisted for plans.
	DefaultPlanVersion = "2025-01"
	// AssemblyFile is the top-level file that ties the storefront together.
	// It is always built last.
	AssemblyFile = "App.jsx"
	// MaxFileLineEstimate caps a single planned file; the decomposition
	// exists to bound artifact size against response truncation.
	MaxFileLineEstimate = 400
	// MaxComplexity bounds the coarse complexity score.
	MaxComplexity = 10
)

// Normalize applies server defaults and re-derives the execution order so
// that data files come first and the assembly file is always last.
func (p *PlanResult) Normalize() {
	if p == nil {
		return
	}
	if p.Version == "" {
		p.Version = DefaultPlanVersion
	}
	if p.Complexity < 1 {
		p.Complexity = 1
	}
	if p.Complexity > MaxComplexity {
		p.Complexity = MaxComplexity
	}
	for i := range p.Files {
		if p.Files[i].EstimatedLines <= 0 || p.Files[i].EstimatedLines > MaxFileLineEstimate {
			p.Files[i].EstimatedLines = MaxFileLineEstimate
		}
		if p.Files[i].Priority <= 0 {
			p.Files[i].Priority = i + 1
		}
	}
	p.ExecutionOrder = deriveOrder(p.Files)
}

func deriveOrder(files []PlanFile) []string {
	var data, rest []string
	assembly := false
	for _, f := range files {
		switch {
		case f.Path == AssemblyFile:
			assembly = true
		case strings.Contains(strings.ToLower(f.Path), "data"):
			data = append(data, f.Path)
		default:
			rest = append(rest, f.Path)
		}
	}
	order := append(data, rest...)
	if assembly {
		order = append(order, AssemblyFile)
	}
	return order
}

// Validate ensures the plan satisfies the manifest contract.
func (p PlanResult) Validate() error {
	if len(p.Files) == 0 {
		return fmt.Errorf("plan has no files")
	}
	for _, f := range p.Files {
		if strings.TrimSpace(f.Path) == "" {
			return fmt.Errorf("plan file missing path")
		}
	}
	return nil
}

// FallbackPlan is the degraded single-file plan substituted when the
// architect response cannot be parsed or yields an empty manifest.
func FallbackPlan() PlanResult {
	plan := PlanResult{
		Version: DefaultPlanVersion,
		Files: []PlanFile{{
			Path:           AssemblyFile,
			Description:    "Complete storefront in a single file",
			EstimatedLines: MaxFileLineEstimate,
			Priority:       1,
		}},
		Complexity: 1,
	}
	plan.Normalize()
	return plan
}

// MustMarshal marshals v and panics on failure. Reserved for payloads that
// are marshal-safe by construction.
func MustMarshal(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
