package engine

import (
	"github.com/roach88/tercel/internal/rules"
	"github.com/roach88/tercel/internal/testutil"
)

// Condition builders over the weather domain shared by the engine tests.

var (
	temperatureTag = rules.TypeName(testutil.Temperature{})
	windSpeedTag   = rules.TypeName(testutil.WindSpeed{})
	coldTag        = rules.TypeName(testutil.Cold{})
)

// tempBelow matches Temperature readings under limit, binding ?t to the
// value.
func tempBelow(limit int) *rules.TypeCondition {
	return &rules.TypeCondition{
		Type:  temperatureTag,
		Binds: []string{"?t"},
		Activate: func(f rules.Fact, _ rules.Bindings) (rules.Bindings, bool) {
			t := f.(testutil.Temperature)
			if t.Value >= limit {
				return nil, false
			}
			return rules.Bindings{"?t": t.Value}, true
		},
	}
}

// tempValue matches any Temperature, binding the given variable to the
// value.
func tempValue(bindVar string) *rules.TypeCondition {
	return &rules.TypeCondition{
		Type:  temperatureTag,
		Binds: []string{bindVar},
		Activate: func(f rules.Fact, _ rules.Bindings) (rules.Bindings, bool) {
			return rules.Bindings{bindVar: f.(testutil.Temperature).Value}, true
		},
	}
}

// windValue matches any WindSpeed, binding the given variable to the value.
func windValue(bindVar string) *rules.TypeCondition {
	return &rules.TypeCondition{
		Type:  windSpeedTag,
		Binds: []string{bindVar},
		Activate: func(f rules.Fact, _ rules.Bindings) (rules.Bindings, bool) {
			return rules.Bindings{bindVar: f.(testutil.WindSpeed).Value}, true
		},
	}
}

// windAbove matches WindSpeed readings over limit.
func windAbove(limit int) *rules.TypeCondition {
	return &rules.TypeCondition{
		Type:  windSpeedTag,
		Binds: []string{"?w"},
		Activate: func(f rules.Fact, _ rules.Bindings) (rules.Bindings, bool) {
			w := f.(testutil.WindSpeed)
			if w.Value <= limit {
				return nil, false
			}
			return rules.Bindings{"?w": w.Value}, true
		},
	}
}

// coldValue matches any Cold fact, binding ?c to the value.
func coldValue() *rules.TypeCondition {
	return &rules.TypeCondition{
		Type:  coldTag,
		Binds: []string{"?c"},
		Activate: func(f rules.Fact, _ rules.Bindings) (rules.Bindings, bool) {
			return rules.Bindings{"?c": f.(testutil.Cold).Value}, true
		},
	}
}

// anyTemp matches any Temperature, binding ?fact to the whole reading.
func anyTemp() *rules.TypeCondition {
	return &rules.TypeCondition{
		Type:  temperatureTag,
		Binds: []string{"?fact"},
		Activate: func(f rules.Fact, _ rules.Bindings) (rules.Bindings, bool) {
			return rules.Bindings{"?fact": f}, true
		},
	}
}

// captureRule records the bindings of every firing into captured.
func captureRule(name string, lhs []rules.Condition, captured *[]rules.Bindings) *rules.Rule {
	return &rules.Rule{
		Name: name,
		LHS:  lhs,
		RHS: func(_ rules.RHSContext, b rules.Bindings) error {
			*captured = append(*captured, b)
			return nil
		},
	}
}

// queryAll is a parameterless query over the given LHS.
func queryAll(name string, lhs []rules.Condition) *rules.Query {
	return &rules.Query{Name: name, LHS: lhs}
}
