package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"vibecoder/internal/domain"
	"vibecoder/internal/domain/jsoncfg"
)

// BuildFileRequest asks for the source of one planned file.
type BuildFileRequest struct {
	Prompt        string
	Plan          jsoncfg.PlanResult
	File          jsoncfg.PlanFile
	BuiltFiles    map[string]string
	StyleFragment string
}

// Builder turns one manifest entry into source code.
type Builder struct {
	client CompletionClient
	logger zerolog.Logger
}

func NewBuilder(client CompletionClient, logger zerolog.Logger) *Builder {
	return &Builder{client: client, logger: logger}
}

// BuildFile generates the contents of a single planned file. The response is
// expected to be raw code; fences are stripped when the model adds them.
func (b *Builder) BuildFile(ctx context.Context, req BuildFileRequest) (string, error) {
	raw, err := b.client.Complete(ctx, CompletionRequest{
		Prompt:      b.buildPrompt(req),
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}
	code := StripCodeFences(raw)
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("%w: builder returned no code for %s", domain.ErrAgentUnavailable, req.File.Path)
	}
	return code, nil
}

func (b *Builder) buildPrompt(req BuildFileRequest) string {
	var sb strings.Builder
	sb.WriteString("You are the builder for a React storefront generator. ")
	sb.WriteString(fmt.Sprintf("Produce the complete contents of %s. ", req.File.Path))
	sb.WriteString(fmt.Sprintf("Purpose: %s. ", req.File.Description))
	sb.WriteString(fmt.Sprintf("Stay under %d lines. ", req.File.EstimatedLines))
	sb.WriteString("Output only code, no commentary and no markdown fences.\n\n")
	sb.WriteString("Storefront request: " + req.Prompt + "\n")
	if req.StyleFragment != "" {
		sb.WriteString("\n" + req.StyleFragment + "\n")
	}
	if len(req.Plan.ExecutionOrder) > 1 {
		sb.WriteString("\nFull plan (for imports):\n")
		for _, f := range req.Plan.Files {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", f.Path, f.Description))
		}
	}
	for _, path := range req.Plan.ExecutionOrder {
		if path == req.File.Path {
			break
		}
		if code, ok := req.BuiltFiles[path]; ok {
			sb.WriteString(fmt.Sprintf("\nAlready built %s:\n%s\n", path, code))
		}
	}
	return sb.String()
}

// AssembleArtifact flattens the built files into the single artifact the
// preview runtime consumes, assembly file last.
func AssembleArtifact(plan jsoncfg.PlanResult, built map[string]string) string {
	var sb strings.Builder
	for i, path := range plan.ExecutionOrder {
		code, ok := built[path]
		if !ok {
			continue
		}
		if i > 0 {
			sb.WriteString("\n\n")
		}
		if len(plan.ExecutionOrder) > 1 {
			sb.WriteString("// ---- " + path + " ----\n")
		}
		sb.WriteString(code)
	}
	return sb.String()
}
