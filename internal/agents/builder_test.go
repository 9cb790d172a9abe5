package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// The per-file prompt lists every planned path for imports, so the keyless
// client must route on the file it is asked to produce, not on any mention.
func TestStaticClientBuildsEachPlannedFile(t *testing.T) {
	client := NewStaticClient()
	architect := NewArchitect(client, zerolog.Nop())
	builder := NewBuilder(client, zerolog.Nop())
	ctx := context.Background()

	plan, err := architect.Plan(ctx, PlanRequest{Prompt: "a plant shop"})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	built := make(map[string]string)
	for _, path := range plan.ExecutionOrder {
		file := plan.Files[0]
		for _, f := range plan.Files {
			if f.Path == path {
				file = f
			}
		}
		code, err := builder.BuildFile(ctx, BuildFileRequest{
			Prompt:     "a plant shop",
			Plan:       plan,
			File:       file,
			BuiltFiles: built,
		})
		if err != nil {
			t.Fatalf("build %s: %v", path, err)
		}
		built[path] = code
	}

	app, ok := built["App.jsx"]
	if !ok {
		t.Fatal("plan did not include App.jsx")
	}
	if !strings.Contains(app, "export default") {
		t.Fatalf("App.jsx has no default export:\n%s", app)
	}
	data := built["data/products.js"]
	if !strings.Contains(data, "export const products") {
		t.Fatalf("data file missing product export:\n%s", data)
	}
	if app == data {
		t.Fatal("app and data files must not collide")
	}

	artifact := AssembleArtifact(plan, built)
	if !strings.Contains(artifact, "export default") {
		t.Fatal("assembled artifact lost the default export")
	}
}
