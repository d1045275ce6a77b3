package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateScenarioYAML_Valid(t *testing.T) {
	data := []byte(`
name: ok
rulebase: weather
steps:
  - insert:
      - type: Temperature
        fields: {value: 10, location: MCI}
  - fire: true
  - query: {name: cold-facts}
`)
	assert.NoError(t, ValidateScenarioYAML("ok.yaml", data))
}

func TestValidateScenarioYAML_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{"missing name", "rulebase: weather\nsteps: []\n"},
		{"missing rulebase", "name: x\nsteps: []\n"},
		{"empty name", "name: \"\"\nrulebase: weather\nsteps: []\n"},
		{"fact without type", "name: x\nrulebase: weather\nsteps:\n  - insert:\n      - fields: {value: 1}\n"},
		{"query without name", "name: x\nrulebase: weather\nsteps:\n  - query: {params: {}}\n"},
		{"fire as string", "name: x\nrulebase: weather\nsteps:\n  - fire: yes please\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateScenarioYAML(tc.name+".yaml", []byte(tc.data))
			require.Error(t, err)
		})
	}
}

func TestValidateScenarioYAML_Unparseable(t *testing.T) {
	err := ValidateScenarioYAML("bad.yaml", []byte("steps: [unclosed"))
	assert.Error(t, err)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/does-not-exist.yaml")
	assert.Error(t, err)
}
