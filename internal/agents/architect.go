package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"vibecoder/internal/domain"
	"vibecoder/internal/domain/jsoncfg"
)

// PlanRequest carries the shaped prompt plus summarized context into the
// architect stage.
type PlanRequest struct {
	Prompt         string
	CurrentCode    string
	ProductContext string
	StyleFragment  string
}

// Architect decomposes a request into a modular file manifest. Splitting
// output across files bounds the size of any single generated artifact,
// which measurably reduces truncation failures.
type Architect struct {
	client CompletionClient
	logger zerolog.Logger
}

func NewArchitect(client CompletionClient, logger zerolog.Logger) *Architect {
	return &Architect{client: client, logger: logger}
}

// Plan asks the backend for a build manifest. A response that cannot be
// parsed or that carries an empty file list degrades to the single-file
// fallback plan rather than failing the pipeline.
func (a *Architect) Plan(ctx context.Context, req PlanRequest) (jsoncfg.PlanResult, error) {
	raw, err := a.client.Complete(ctx, CompletionRequest{
		Prompt:       a.buildPrompt(req),
		JSONResponse: true,
		Temperature:  0.4,
	})
	if err != nil {
		return jsoncfg.PlanResult{}, err
	}

	plan, parseErr := parsePlan(raw)
	if parseErr != nil {
		a.logger.Warn().Err(parseErr).Msg("architect: malformed plan, using single-file fallback")
		return jsoncfg.FallbackPlan(), nil
	}
	plan.Normalize()
	return plan, nil
}

func parsePlan(raw string) (jsoncfg.PlanResult, error) {
	var plan jsoncfg.PlanResult
	payload := ExtractJSON(raw)
	if payload == "" {
		return plan, fmt.Errorf("%w: no JSON object in response", domain.ErrPlanMalformed)
	}
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		return plan, fmt.Errorf("%w: %v", domain.ErrPlanMalformed, err)
	}
	if err := plan.Validate(); err != nil {
		return plan, fmt.Errorf("%w: %v", domain.ErrPlanMalformed, err)
	}
	return plan, nil
}

func (a *Architect) buildPrompt(req PlanRequest) string {
	var sb strings.Builder
	sb.WriteString("You are the architect for a React storefront generator. ")
	sb.WriteString("Decompose the request below into a modular file plan. ")
	sb.WriteString("Respond with a single JSON object shaped as ")
	sb.WriteString(`{"palette":{"colors":[],"typography":""},"files":[{"path":"","description":"","estimated_lines":0,"priority":0}],"complexity":1}. `)
	sb.WriteString(fmt.Sprintf("No file may exceed %d lines. ", jsoncfg.MaxFileLineEstimate))
	sb.WriteString(fmt.Sprintf("Data files come first and %s assembles everything last.\n\n", jsoncfg.AssemblyFile))
	sb.WriteString("Request: " + req.Prompt + "\n")
	if req.ProductContext != "" {
		sb.WriteString("\nProducts on this storefront:\n" + req.ProductContext + "\n")
	}
	if req.StyleFragment != "" {
		sb.WriteString("\n" + req.StyleFragment + "\n")
	}
	if req.CurrentCode != "" {
		sb.WriteString("\nCurrent storefront code (possibly pruned to the relevant sections):\n")
		sb.WriteString(req.CurrentCode + "\n")
	}
	return sb.String()
}

// ExtractJSON trims code fences and surrounding chatter down to the first
// top-level JSON object in the text.
func ExtractJSON(raw string) string {
	cleaned := StripCodeFences(raw)
	start := strings.IndexByte(cleaned, '{')
	end := strings.LastIndexByte(cleaned, '}')
	if start < 0 || end <= start {
		return ""
	}
	return cleaned[start : end+1]
}

// StripCodeFences removes a markdown code fence wrapper when present.
func StripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
		// Drop the language tag line.
		if lang := strings.TrimSpace(trimmed[:nl]); lang == "" || !strings.ContainsAny(lang, " \t{") {
			trimmed = trimmed[nl+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
