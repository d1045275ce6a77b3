package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/tercel/internal/engine"
	"github.com/roach88/tercel/internal/listener"
	"github.com/roach88/tercel/internal/rules"
)

// Result captures a scenario execution: every query step's rows, in step
// order, plus the trace of network events.
type Result struct {
	Scenario string        `json:"scenario"`
	Queries  []QueryResult `json:"queries"`

	// Trace holds the network events observed during the run. Excluded
	// from golden comparison; see golden.go.
	Trace []listener.Event `json:"-"`
}

// QueryResult is the outcome of one query step. Rows render binding values
// as strings and are sorted for deterministic comparison.
type QueryResult struct {
	Query string              `json:"query"`
	Step  int                 `json:"step"`
	Rows  []map[string]string `json:"rows"`
}

// RunOptions configures a scenario run.
type RunOptions struct {
	// Listeners are attached to the session in addition to the harness's
	// own trace listener.
	Listeners []listener.Persistent
}

// Run executes a scenario against its registered rulebase.
func Run(scenario *Scenario, registry *Registry, opts RunOptions) (*Result, error) {
	rb, err := registry.Lookup(scenario.Rulebase)
	if err != nil {
		return nil, err
	}

	net, err := rb.Build()
	if err != nil {
		return nil, fmt.Errorf("build rulebase %q: %w", scenario.Rulebase, err)
	}

	trace := listener.NewTrace()
	listeners := append([]listener.Persistent{trace}, opts.Listeners...)
	s := engine.NewSession(net, engine.WithListeners(listeners...))

	result := &Result{Scenario: scenario.Name}

	for i, step := range scenario.Steps {
		if len(step.Insert) > 0 {
			facts, err := makeFacts(rb, step.Insert)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			s = s.Insert(facts...)
		}
		if len(step.Retract) > 0 {
			facts, err := makeFacts(rb, step.Retract)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			s = s.Retract(facts...)
		}
		if step.Fire {
			s, err = s.FireRules()
			if err != nil {
				return nil, fmt.Errorf("step %d: fire-rules: %w", i, err)
			}
		}
		if step.Query != nil {
			rows, err := runQuery(s, step.Query)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			result.Queries = append(result.Queries, QueryResult{
				Query: step.Query.Name,
				Step:  i,
				Rows:  rows,
			})
		}
	}

	// Collect the trace accumulated across all steps. Each session freeze
	// folded the transient events back into a fresh persistent trace, so
	// the session's current listener holds the full history.
	result.Trace = currentTrace(s)
	return result, nil
}

func makeFacts(rb *Rulebase, specs []FactSpec) ([]rules.Fact, error) {
	facts := make([]rules.Fact, 0, len(specs))
	for _, spec := range specs {
		f, err := rb.MakeFact(spec.Type, spec.Fields)
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, nil
}

func runQuery(s *engine.Session, q *QueryStep) ([]map[string]string, error) {
	var params map[string]any
	if len(q.Params) > 0 {
		params = q.Params
	}

	bindings, err := s.Query(q.Name, params)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]string, 0, len(bindings))
	for _, b := range bindings {
		row := make(map[string]string, len(b))
		for k, v := range b {
			row[k] = fmt.Sprintf("%v", v)
		}
		rows = append(rows, row)
	}
	sortRows(rows)
	return rows, nil
}

// sortRows orders rows by their canonical rendering so results compare
// stably regardless of memory iteration order.
func sortRows(rows []map[string]string) {
	sort.Slice(rows, func(i, j int) bool {
		return renderRow(rows[i]) < renderRow(rows[j])
	})
}

func renderRow(row map[string]string) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(row[k])
		sb.WriteByte(';')
	}
	return sb.String()
}

func currentTrace(s *engine.Session) []listener.Event {
	for _, l := range s.Components().Listeners {
		if trace, ok := l.(*listener.Trace); ok {
			return trace.Events()
		}
	}
	return nil
}
