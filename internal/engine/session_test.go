package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tercel/internal/compile"
	"github.com/roach88/tercel/internal/rules"
	"github.com/roach88/tercel/internal/testutil"
)

func TestSingleRule_CapturesMatchingFact(t *testing.T) {
	var captured []rules.Bindings
	net, err := compile.NewRulebase(
		captureRule("cold-rule", []rules.Condition{tempBelow(20)}, &captured),
	)
	require.NoError(t, err)

	s := NewSession(net).Insert(testutil.Temperature{Value: 10, Location: "MCI"})
	_, err = s.FireRules()
	require.NoError(t, err)

	require.Len(t, captured, 1)
	assert.Equal(t, rules.Bindings{"?t": 10}, captured[0])
}

func TestSingleRule_NonMatchingFactDoesNotFire(t *testing.T) {
	var captured []rules.Bindings
	net, err := compile.NewRulebase(
		captureRule("cold-rule", []rules.Condition{tempBelow(20)}, &captured),
	)
	require.NoError(t, err)

	s := NewSession(net).Insert(testutil.Temperature{Value: 30, Location: "MCI"})
	_, err = s.FireRules()
	require.NoError(t, err)

	assert.Empty(t, captured)
}

func TestJoin_SharedVariableUnifies(t *testing.T) {
	var captured []rules.Bindings
	net, err := compile.NewRulebase(
		captureRule("same-reading", []rules.Condition{tempValue("?v"), windValue("?v")}, &captured),
	)
	require.NoError(t, err)

	s := NewSession(net).Insert(
		testutil.Temperature{Value: 10, Location: "MCI"},
		testutil.WindSpeed{Value: 10, Location: "MCI"},
	)
	_, err = s.FireRules()
	require.NoError(t, err)

	require.Len(t, captured, 1)
	assert.Equal(t, 10, captured[0]["?v"])
}

func TestJoin_MismatchedValuesDoNotJoin(t *testing.T) {
	var captured []rules.Bindings
	net, err := compile.NewRulebase(
		captureRule("same-reading", []rules.Condition{tempValue("?v"), windValue("?v")}, &captured),
	)
	require.NoError(t, err)

	s := NewSession(net).Insert(
		testutil.Temperature{Value: 10, Location: "MCI"},
		testutil.WindSpeed{Value: 40, Location: "MCI"},
	)
	_, err = s.FireRules()
	require.NoError(t, err)

	assert.Empty(t, captured)
}

func TestQuery_ByIdentityAndByName(t *testing.T) {
	q := queryAll("cold-readings", []rules.Condition{tempBelow(20)})
	net, err := compile.NewRulebase(q)
	require.NoError(t, err)

	s := NewSession(net).Insert(testutil.Temperature{Value: 10, Location: "MCI"})

	byIdentity, err := s.Query(q, nil)
	require.NoError(t, err)
	require.Len(t, byIdentity, 1)
	assert.Equal(t, 10, byIdentity[0]["?t"])

	byName, err := s.Query("cold-readings", nil)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(byIdentity, byName))
}

func TestQuery_WithParameters(t *testing.T) {
	q := &rules.Query{
		Name:   "temp-at",
		Params: []string{"?loc"},
		LHS: []rules.Condition{
			&rules.TypeCondition{
				Type:  temperatureTag,
				Binds: []string{"?loc", "?t"},
				Activate: func(f rules.Fact, _ rules.Bindings) (rules.Bindings, bool) {
					reading := f.(testutil.Temperature)
					return rules.Bindings{"?loc": reading.Location, "?t": reading.Value}, true
				},
			},
		},
	}
	net, err := compile.NewRulebase(q)
	require.NoError(t, err)

	s := NewSession(net).Insert(
		testutil.Temperature{Value: 10, Location: "MCI"},
		testutil.Temperature{Value: 25, Location: "SFO"},
	)

	results, err := s.Query(q, map[string]any{"?loc": "MCI"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 10, results[0]["?t"])

	results, err = s.Query(q, map[string]any{"?loc": "LHR"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQuery_InvalidLookups(t *testing.T) {
	q := queryAll("known", []rules.Condition{tempBelow(20)})
	withParams := &rules.Query{Name: "with-params", Params: []string{"?t"}, LHS: []rules.Condition{tempBelow(20)}}
	net, err := compile.NewRulebase(q, withParams)
	require.NoError(t, err)
	s := NewSession(net)

	_, err = s.Query("unknown", nil)
	assert.True(t, IsInvalidQuery(err))

	_, err = s.Query(&rules.Query{Name: "foreign"}, nil)
	assert.True(t, IsInvalidQuery(err))

	_, err = s.Query(42, nil)
	assert.True(t, IsInvalidQuery(err))

	_, err = s.Query("with-params", nil)
	assert.True(t, IsInvalidQuery(err), "missing parameter must be rejected")

	_, err = s.Query("known", map[string]any{"?bogus": 1})
	assert.True(t, IsInvalidQuery(err), "unknown parameter must be rejected")
}

func TestDuplicateInsert_OneRetractLeavesOneCopy(t *testing.T) {
	q := queryAll("cold-readings", []rules.Condition{tempBelow(20)})
	net, err := compile.NewRulebase(q)
	require.NoError(t, err)

	fact := testutil.Temperature{Value: 10, Location: "MCI"}
	s := NewSession(net).Insert(fact).Insert(fact).Retract(fact)

	results, err := s.Query(q, nil)
	require.NoError(t, err)
	assert.Len(t, results, 1, "two inserts minus one retract leaves one copy")

	// Activations derived from the surviving copy still fire.
	var captured []rules.Bindings
	netWithRule, err := compile.NewRulebase(
		captureRule("cold-rule", []rules.Condition{tempBelow(20)}, &captured),
	)
	require.NoError(t, err)
	s2 := NewSession(netWithRule).Insert(fact).Insert(fact).Retract(fact)
	_, err = s2.FireRules()
	require.NoError(t, err)
	assert.Len(t, captured, 1)
}

func TestInsertRetract_QueryEquivalentToOriginal(t *testing.T) {
	q := queryAll("cold-readings", []rules.Condition{tempBelow(20)})
	joined := queryAll("pairs", []rules.Condition{tempValue("?v"), windValue("?v")})
	net, err := compile.NewRulebase(q, joined)
	require.NoError(t, err)

	base := NewSession(net).Insert(testutil.Temperature{Value: 5, Location: "SFO"})
	facts := []rules.Fact{
		testutil.Temperature{Value: 10, Location: "MCI"},
		testutil.WindSpeed{Value: 10, Location: "MCI"},
	}

	roundTripped := base.Insert(facts...).Retract(facts...)

	for _, query := range []string{"cold-readings", "pairs"} {
		want, err := base.Query(query, nil)
		require.NoError(t, err)
		got, err := roundTripped.Query(query, nil)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(want, got), "query %s must see the original state", query)
	}
}

func TestRetract_AbsentFactIsNoop(t *testing.T) {
	q := queryAll("cold-readings", []rules.Condition{tempBelow(20)})
	net, err := compile.NewRulebase(q)
	require.NoError(t, err)

	s := NewSession(net).Retract(testutil.Temperature{Value: 10, Location: "MCI"})

	results, err := s.Query(q, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSession_ImmutableHandles(t *testing.T) {
	q := queryAll("cold-readings", []rules.Condition{tempBelow(20)})
	net, err := compile.NewRulebase(q)
	require.NoError(t, err)

	before := NewSession(net)
	after := before.Insert(testutil.Temperature{Value: 10, Location: "MCI"})

	beforeResults, err := before.Query(q, nil)
	require.NoError(t, err)
	assert.Empty(t, beforeResults, "the prior handle must not see the insert")

	afterResults, err := after.Query(q, nil)
	require.NoError(t, err)
	assert.Len(t, afterResults, 1)
}

func TestTestCondition_FiltersOnBindings(t *testing.T) {
	var captured []rules.Bindings
	net, err := compile.NewRulebase(
		captureRule("warmer-than-wind", []rules.Condition{
			tempValue("?t"),
			windValue("?w"),
			&rules.TestCondition{
				Uses: []string{"?t", "?w"},
				Pred: func(b rules.Bindings) bool { return b["?t"].(int) > b["?w"].(int) },
			},
		}, &captured),
	)
	require.NoError(t, err)

	s := NewSession(net).Insert(
		testutil.Temperature{Value: 30, Location: "MCI"},
		testutil.WindSpeed{Value: 10, Location: "MCI"},
	)
	_, err = s.FireRules()
	require.NoError(t, err)
	require.Len(t, captured, 1)

	captured = nil
	s = NewSession(net).Insert(
		testutil.Temperature{Value: 5, Location: "MCI"},
		testutil.WindSpeed{Value: 10, Location: "MCI"},
	)
	_, err = s.FireRules()
	require.NoError(t, err)
	assert.Empty(t, captured)
}

func TestAncestorRouting(t *testing.T) {
	// A rule keyed on the supertype matches facts of the subtype.
	readingCond := &rules.TypeCondition{
		Type:  "weather/reading",
		Binds: []string{"?fact"},
		Activate: func(f rules.Fact, _ rules.Bindings) (rules.Bindings, bool) {
			return rules.Bindings{"?fact": f}, true
		},
	}
	q := queryAll("all-readings", []rules.Condition{readingCond})
	net, err := compile.NewRulebase(q)
	require.NoError(t, err)

	s := NewSession(net,
		WithFactTypeFn(func(f rules.Fact) string {
			switch f.(type) {
			case testutil.Temperature:
				return "weather/temperature"
			case testutil.WindSpeed:
				return "weather/wind-speed"
			}
			return rules.TypeName(f)
		}),
		WithAncestorsFn(func(tag string) []string {
			switch tag {
			case "weather/temperature", "weather/wind-speed":
				return []string{"weather/reading"}
			}
			return nil
		}),
	).Insert(
		testutil.Temperature{Value: 10, Location: "MCI"},
		testutil.WindSpeed{Value: 40, Location: "MCI"},
	)

	results, err := s.Query(q, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2, "both subtypes must reach the supertype condition")
}

func TestCacheDisabled_RoutingStillWorks(t *testing.T) {
	q := queryAll("cold-readings", []rules.Condition{tempBelow(20)})
	net, err := compile.NewRulebase(q)
	require.NoError(t, err)

	s := NewSession(net, WithCache(false)).
		Insert(testutil.Temperature{Value: 10, Location: "MCI"}).
		Insert(testutil.Temperature{Value: 15, Location: "SFO"})

	results, err := s.Query(q, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestComponents(t *testing.T) {
	q := queryAll("cold-readings", []rules.Condition{tempBelow(20)})
	net, err := compile.NewRulebase(q)
	require.NoError(t, err)

	s := NewSession(net)
	parts := s.Components()

	assert.Same(t, net, parts.Rulebase)
	assert.NotNil(t, parts.Memory)
	assert.NotNil(t, parts.Transport)
	assert.NotNil(t, parts.RoutingFn)
	assert.Empty(t, parts.Listeners)

	assert.NotEmpty(t, parts.RoutingFn(temperatureTag))
}
