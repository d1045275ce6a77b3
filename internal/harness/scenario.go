package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a rulebase plus a sequence
// of steps executed against a fresh session.
type Scenario struct {
	// Name uniquely identifies this scenario; golden files are stored
	// under it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Rulebase names a registered rulebase (see Registry).
	Rulebase string `yaml:"rulebase"`

	// Steps run in order against one session handle.
	Steps []Step `yaml:"steps"`
}

// Step is one scenario action. Exactly one field should be set; when
// several are, they apply in insert, retract, fire, query order.
type Step struct {
	Insert  []FactSpec `yaml:"insert,omitempty"`
	Retract []FactSpec `yaml:"retract,omitempty"`
	Fire    bool       `yaml:"fire,omitempty"`
	Query   *QueryStep `yaml:"query,omitempty"`
}

// FactSpec describes a fact by rulebase-specific type name and fields.
type FactSpec struct {
	Type   string         `yaml:"type"`
	Fields map[string]any `yaml:"fields,omitempty"`
}

// QueryStep runs a query by name with optional parameters.
type QueryStep struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params,omitempty"`
}

// LoadScenario reads, schema-validates, and decodes a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	if err := ValidateScenarioYAML(path, data); err != nil {
		return nil, err
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode scenario %s: %w", path, err)
	}
	return &s, nil
}
