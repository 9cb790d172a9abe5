package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"vibecoder/internal/domain"
)

func TestHealParsesDiagnosisAndFile(t *testing.T) {
	client := &stubClient{response: "The map call dereferences an undefined product list.\n" +
		healMarker + "\n```jsx\nexport default function App() { return <div/>; }\n```"}
	healer := NewHealer(client, zerolog.Nop())

	res, err := healer.Heal(context.Background(), HealRequest{
		ErrorText:   "TypeError: Cannot read properties of undefined (reading 'map')",
		FileContent: "export default function App() { return products.map(); }",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Diagnosis, "undefined product list") {
		t.Fatalf("diagnosis missing, got %q", res.Diagnosis)
	}
	if !strings.Contains(res.Code, "export default function App()") {
		t.Fatalf("corrected file missing, got %q", res.Code)
	}
	if strings.Contains(res.Code, "```") {
		t.Fatalf("fences must be stripped, got %q", res.Code)
	}
}

func TestHealAcceptsBareFile(t *testing.T) {
	client := &stubClient{response: "export default function App() { return <div/>; }"}
	healer := NewHealer(client, zerolog.Nop())

	res, err := healer.Heal(context.Background(), HealRequest{ErrorText: "boom", FileContent: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Code == "" {
		t.Fatal("expected corrected file")
	}
}

func TestHealEmptyResponseFails(t *testing.T) {
	client := &stubClient{response: "   "}
	healer := NewHealer(client, zerolog.Nop())

	_, err := healer.Heal(context.Background(), HealRequest{ErrorText: "boom", FileContent: "x"})
	if !errors.Is(err, domain.ErrAgentUnavailable) {
		t.Fatalf("expected agent failure, got %v", err)
	}
}

func TestHealPromptCarriesErrorAndStyleHint(t *testing.T) {
	client := &stubClient{response: "export default function App() { return <div/>; }"}
	healer := NewHealer(client, zerolog.Nop())

	_, err := healer.Heal(context.Background(), HealRequest{
		ErrorText:   "ReferenceError: motion is not defined",
		FileContent: "file body",
		StyleID:     "neon-dark",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	prompt := client.prompts[0]
	if !strings.Contains(prompt, "ReferenceError: motion is not defined") {
		t.Fatal("prompt must carry the literal runtime error")
	}
	if !strings.Contains(prompt, "keep it untouched") {
		t.Fatal("prompt must preserve the style profile as a hint")
	}
	if !strings.Contains(prompt, "Do not refactor") {
		t.Fatal("prompt must constrain the patch scope")
	}
}
