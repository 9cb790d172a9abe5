package prune

import (
	"strings"
)

// Intent is the result of classifying a change request against an existing
// storefront artifact.
type Intent struct {
	IsGlobalChange   bool
	RelevantSections []string
	Confidence       float64
}

var globalIndicators = []string{
	"entire", "whole", "everything", "redesign", "rebuild", "theme",
	"from scratch", "start over", "all sections", "color scheme", "complete overhaul",
}

// sectionKeywords maps each recognizable storefront section to the prompt
// keywords that select it. Order fixes the order of RelevantSections.
var sectionOrder = []string{
	"hero", "products", "footer", "navigation", "about",
	"testimonials", "pricing", "gallery", "cta",
}

var sectionKeywords = map[string][]string{
	"hero":         {"hero", "banner", "headline", "tagline", "main title"},
	"products":     {"product", "products", "items", "catalog", "listings", "cards", "grid"},
	"footer":       {"footer", "bottom", "copyright", "social links"},
	"navigation":   {"nav", "navigation", "menu", "header links"},
	"about":        {"about", "story", "mission", "who we are"},
	"testimonials": {"testimonial", "testimonials", "review", "reviews", "quotes"},
	"pricing":      {"pricing", "price", "plans", "tiers"},
	"gallery":      {"gallery", "photos", "images", "showcase"},
	"cta":          {"cta", "call to action", "signup button", "subscribe", "newsletter"},
}

const (
	globalConfidence   = 0.9
	fallbackConfidence = 0.5
	baseConfidence     = 0.6
	perMatchConfidence = 0.1
	maxConfidence      = 0.95
)

// ClassifyIntent scans the prompt for global-change indicators and then for
// per-section keywords. Global requests always see the full artifact. When
// nothing matches, the classifier defaults to a low-confidence global change
// so the model is given everything rather than a wrong slice.
func ClassifyIntent(prompt string) Intent {
	lowered := strings.ToLower(prompt)

	for _, indicator := range globalIndicators {
		if strings.Contains(lowered, indicator) {
			return Intent{IsGlobalChange: true, Confidence: globalConfidence}
		}
	}

	var sections []string
	for _, section := range sectionOrder {
		for _, kw := range sectionKeywords[section] {
			if strings.Contains(lowered, kw) {
				sections = append(sections, section)
				break
			}
		}
	}

	if len(sections) == 0 {
		return Intent{IsGlobalChange: true, Confidence: fallbackConfidence}
	}

	confidence := baseConfidence + perMatchConfidence*float64(len(sections))
	if confidence > maxConfidence {
		confidence = maxConfidence
	}
	return Intent{RelevantSections: sections, Confidence: confidence}
}

// ElisionMarker tells the downstream model that material was omitted, not deleted.
const ElisionMarker = "// ... other sections ..."

// minPrunedLines guards against an aggressive-but-wrong prune: anything
// shorter falls back to the full artifact.
const minPrunedLines = 20

// minSectionLines prevents a section from closing on the line it opened.
const minSectionLines = 3

// PruneCode reduces code to the sections relevant to the prompt. This is a
// deliberate line- and brace-counting heuristic, not an AST: the downstream
// prompt format expects exactly this granularity of extraction.
func PruneCode(code, prompt string) string {
	intent := ClassifyIntent(prompt)
	if intent.IsGlobalChange || len(intent.RelevantSections) == 0 {
		return code
	}

	lines := strings.Split(code, "\n")
	var out []string

	// The leading import block is always kept verbatim.
	rest := 0
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "import{") ||
			trimmed == "" && rest == i {
			out = append(out, line)
			rest = i + 1
			continue
		}
		break
	}

	var (
		section  []string
		inside   bool
		depth    int
		exported string
	)

	flush := func() {
		if len(section) == 0 {
			return
		}
		out = append(out, section...)
		out = append(out, ElisionMarker)
		section = nil
	}

	for _, line := range lines[rest:] {
		trimmed := strings.TrimSpace(line)
		if exported == "" && strings.HasPrefix(trimmed, "export default") {
			exported = line
		}

		if !inside {
			if opensRelevantSection(trimmed, intent.RelevantSections) {
				inside = true
				depth = 0
				section = append(section, line)
				depth += strings.Count(line, "{") - strings.Count(line, "}")
			}
			continue
		}

		section = append(section, line)
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth <= 0 && len(section) >= minSectionLines {
			inside = false
			flush()
		}
	}
	flush()

	// Preserve the top-level export signature so the pruned artifact stays
	// structurally recognizable.
	if exported != "" && !containsLine(out, exported) {
		out = append(out, exported)
	}

	if len(out) < minPrunedLines {
		return code
	}
	return strings.Join(out, "\n")
}

// opensRelevantSection applies the structural heuristics keying a line to a
// section: a comment marker, a JSX tag, or a declaration named after it.
func opensRelevantSection(trimmed string, sections []string) bool {
	lowered := strings.ToLower(trimmed)
	for _, section := range sections {
		name := strings.ToLower(section)
		if strings.HasPrefix(lowered, "//") && strings.Contains(lowered, name) {
			return true
		}
		if strings.Contains(lowered, "<"+name) {
			return true
		}
		if (strings.HasPrefix(lowered, "function ") ||
			strings.HasPrefix(lowered, "const ") ||
			strings.HasPrefix(lowered, "export function ") ||
			strings.HasPrefix(lowered, "export const ")) && strings.Contains(lowered, name) {
			return true
		}
	}
	return false
}

func containsLine(lines []string, target string) bool {
	for _, line := range lines {
		if line == target {
			return true
		}
	}
	return false
}
