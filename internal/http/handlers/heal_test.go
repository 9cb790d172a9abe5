package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"vibecoder/internal/agents"
	"vibecoder/internal/shadow"
)

const correctedComponent = `import React from 'react';

export default function App() {
  return (
    <div>
      <h1>Fixed storefront</h1>
      <p>The crash is resolved.</p>
    </div>
  );
}`

type cannedClient struct {
	response string
	err      error
}

func (c *cannedClient) Model() string { return "canned" }

func (c *cannedClient) Complete(context.Context, agents.CompletionRequest) (string, error) {
	return c.response, c.err
}

func TestHeal_ReturnsValidatedPatch(t *testing.T) {
	client := &cannedClient{response: "The hero referenced an undefined variable.\n---CORRECTED FILE---\n" + correctedComponent}
	app := newTestApp(&handlerTestSQL{})
	app.Healer = agents.NewHealer(client, zerolog.Nop())

	req := authedRequest("POST", "/v1/projects/p1/heal",
		`{"error_text":"ReferenceError: hero is not defined","file_content":"export default function App() {}"}`,
		map[string]string{"projectID": "p1"})
	rr := httptest.NewRecorder()
	app.Heal(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var payload healResponse
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Diagnosis == "" || payload.Code == "" {
		t.Fatalf("expected diagnosis and code, got %+v", payload)
	}
}

func TestHeal_RejectsInvalidPatch(t *testing.T) {
	client := &cannedClient{response: "Diagnosis.\n---CORRECTED FILE---\nfunction App() { // unbalanced"}
	app := newTestApp(&handlerTestSQL{})
	app.Healer = agents.NewHealer(client, zerolog.Nop())

	req := authedRequest("POST", "/v1/projects/p1/heal",
		`{"error_text":"boom","file_content":"export default function App() {}"}`,
		map[string]string{"projectID": "p1"})
	rr := httptest.NewRecorder()
	app.Heal(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status: got %d, want 422", rr.Code)
	}
}

func TestShadowValidate_ReportsSyntaxFailure(t *testing.T) {
	app := newTestApp(&handlerTestSQL{})
	app.Tester = shadow.NewTester(nil, 0, zerolog.Nop())

	req := authedRequest("POST", "/v1/shadow/validate",
		`{"code":"not real code"}`, nil)
	rr := httptest.NewRecorder()
	app.ShadowValidate(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d, want 200", rr.Code)
	}
	var result shadow.TestResult
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Success {
		t.Fatal("expected validation to fail for junk input")
	}
	if result.Error == "" {
		t.Fatal("expected a failure reason")
	}
}
