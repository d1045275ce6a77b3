package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestGoldenScenarios(t *testing.T) {
	scenarios := []string{
		"cold-derivation",
		"coldest-reading",
		"negation-round-trip",
		"reading-count",
		"temp-at",
	}

	registry := NewRegistry()
	for _, name := range scenarios {
		t.Run(name, func(t *testing.T) {
			RunWithGolden(t, loadTestScenario(t, name), registry)
		})
	}
}

func TestRun_ProducesTrace(t *testing.T) {
	result, err := Run(loadTestScenario(t, "cold-derivation"), NewRegistry(), RunOptions{})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Trace, "the harness trace listener must observe events")

	kinds := make(map[string]bool)
	for _, e := range result.Trace {
		kinds[e.Kind] = true
	}
	assert.True(t, kinds["insert-facts"])
	assert.True(t, kinds["insert-facts-logical"], "the derived Cold fact is a logical insertion")
	assert.True(t, kinds["retract-facts"])
}

func TestRun_UnknownRulebase(t *testing.T) {
	s := &Scenario{Name: "s", Rulebase: "nope"}

	_, err := Run(s, NewRegistry(), RunOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown rulebase")
}

func TestRun_UnknownFactType(t *testing.T) {
	s := &Scenario{
		Name:     "s",
		Rulebase: "weather",
		Steps: []Step{
			{Insert: []FactSpec{{Type: "Sunshine", Fields: map[string]any{}}}},
		},
	}

	_, err := Run(s, NewRegistry(), RunOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown weather fact type")
}

func TestRun_UnknownQuery(t *testing.T) {
	s := &Scenario{
		Name:     "s",
		Rulebase: "weather",
		Steps: []Step{
			{Query: &QueryStep{Name: "nope"}},
		},
	}

	_, err := Run(s, NewRegistry(), RunOptions{})
	require.Error(t, err)
}

func TestRegistry_LookupBuiltinRulebase(t *testing.T) {
	registry := NewRegistry()

	rb, err := registry.Lookup("weather")
	require.NoError(t, err)
	assert.Equal(t, "weather", rb.Name)

	assert.Equal(t, []string{"weather"}, registry.Names())
}
