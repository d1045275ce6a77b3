package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario and compares its query results against
// a golden file under testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// The trace is intentionally excluded from the comparison: golden files
// pin observable query behavior, not the network's internal event
// sequence.
func RunWithGolden(t *testing.T, scenario *Scenario, registry *Registry) *Result {
	t.Helper()

	result, err := Run(scenario, registry, RunOptions{})
	if err != nil {
		t.Fatalf("scenario %s failed: %v", scenario.Name, err)
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	payload = append(payload, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, payload)
	return result
}
