package harness

import (
	"fmt"
	"sort"

	"github.com/roach88/tercel/internal/rete"
	"github.com/roach88/tercel/internal/rules"
)

// Rulebase is a named, scenario-runnable rule set: a network factory plus a
// fact constructor for the domain's scenario fact specs.
type Rulebase struct {
	Name string

	// Build compiles a fresh network. Called once per scenario run.
	Build func() (*rete.Network, error)

	// MakeFact turns a scenario fact spec into a fact value.
	MakeFact func(typ string, fields map[string]any) (rules.Fact, error)
}

// Registry maps rulebase names to rulebases.
type Registry struct {
	rulebases map[string]*Rulebase
}

// NewRegistry returns a registry preloaded with the built-in rulebases.
func NewRegistry() *Registry {
	r := &Registry{rulebases: make(map[string]*Rulebase)}
	r.Register(WeatherRulebase())
	return r
}

// Register adds a rulebase, replacing any previous one with the same name.
func (r *Registry) Register(rb *Rulebase) {
	r.rulebases[rules.NormalizeName(rb.Name)] = rb
}

// Lookup resolves a rulebase by name.
func (r *Registry) Lookup(name string) (*Rulebase, error) {
	rb, ok := r.rulebases[rules.NormalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("unknown rulebase %q (registered: %v)", name, r.Names())
	}
	return rb, nil
}

// Names lists the registered rulebase names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.rulebases))
	for name := range r.rulebases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
