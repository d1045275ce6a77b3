package harness

import (
	"fmt"

	"github.com/roach88/tercel/internal/accum"
	"github.com/roach88/tercel/internal/compile"
	"github.com/roach88/tercel/internal/rete"
	"github.com/roach88/tercel/internal/rules"
	"github.com/roach88/tercel/internal/testutil"
)

// WeatherRulebase is the built-in demo rulebase over temperature and
// wind-speed readings. It exercises negation, accumulation, parameterized
// queries, and logical insertion, and backs the CLI examples. No rule or
// query joins two facts.
//
// Rules:
//   - derive-cold: Temperature under 20 logically inserts Cold.
//
// Queries:
//   - cold-facts: every derived Cold fact (?c).
//   - coldest: the minimum temperature reading (?t).
//   - reading-count: the number of temperature readings (?n).
//   - not-cold: matches while no cold reading exists.
//   - temp-at(?loc): temperature values at a location (?v).
func WeatherRulebase() *Rulebase {
	return &Rulebase{
		Name:     "weather",
		Build:    buildWeatherNetwork,
		MakeFact: makeWeatherFact,
	}
}

func buildWeatherNetwork() (*rete.Network, error) {
	temperatureTag := rules.TypeName(testutil.Temperature{})
	coldTag := rules.TypeName(testutil.Cold{})

	coldReading := &rules.TypeCondition{
		Type:  temperatureTag,
		Binds: []string{"?t"},
		Activate: func(f rules.Fact, _ rules.Bindings) (rules.Bindings, bool) {
			reading := f.(testutil.Temperature)
			if reading.Value >= 20 {
				return nil, false
			}
			return rules.Bindings{"?t": reading.Value}, true
		},
	}
	anyTemperature := &rules.TypeCondition{Type: temperatureTag}
	coldFact := &rules.TypeCondition{
		Type:  coldTag,
		Binds: []string{"?c"},
		Activate: func(f rules.Fact, _ rules.Bindings) (rules.Bindings, bool) {
			return rules.Bindings{"?c": f.(testutil.Cold).Value}, true
		},
	}
	temperatureAt := &rules.TypeCondition{
		Type:  temperatureTag,
		Binds: []string{"?loc", "?v"},
		Activate: func(f rules.Fact, _ rules.Bindings) (rules.Bindings, bool) {
			reading := f.(testutil.Temperature)
			return rules.Bindings{"?loc": reading.Location, "?v": reading.Value}, true
		},
	}

	deriveCold := &rules.Rule{
		Name: "derive-cold",
		Doc:  "a cold temperature reading derives a Cold fact",
		LHS:  []rules.Condition{coldReading},
		RHS: func(ctx rules.RHSContext, b rules.Bindings) error {
			ctx.Insert(testutil.Cold{Value: b["?t"].(int)})
			return nil
		},
	}

	return compile.NewRulebase(
		deriveCold,
		&rules.Query{Name: "cold-facts", LHS: []rules.Condition{coldFact}},
		&rules.Query{
			Name: "coldest",
			LHS: []rules.Condition{
				&rules.AccumulateCondition{
					Accum: accum.Min(func(f rules.Fact) int {
						return f.(testutil.Temperature).Value
					}, true),
					From:          &rules.TypeCondition{Type: temperatureTag},
					ResultBinding: "?t",
				},
			},
		},
		&rules.Query{
			Name: "reading-count",
			LHS: []rules.Condition{
				&rules.AccumulateCondition{
					Accum:         accum.Count(),
					From:          anyTemperature,
					ResultBinding: "?n",
				},
			},
		},
		&rules.Query{
			Name: "not-cold",
			LHS: []rules.Condition{
				&rules.NegationCondition{Inner: coldReading},
			},
		},
		&rules.Query{
			Name:   "temp-at",
			Params: []string{"?loc"},
			LHS:    []rules.Condition{temperatureAt},
		},
	)
}

func makeWeatherFact(typ string, fields map[string]any) (rules.Fact, error) {
	switch typ {
	case "Temperature":
		value, location, err := valueAndLocation(fields)
		if err != nil {
			return nil, fmt.Errorf("Temperature: %w", err)
		}
		return testutil.Temperature{Value: value, Location: location}, nil
	case "WindSpeed":
		value, location, err := valueAndLocation(fields)
		if err != nil {
			return nil, fmt.Errorf("WindSpeed: %w", err)
		}
		return testutil.WindSpeed{Value: value, Location: location}, nil
	case "Cold":
		value, err := intField(fields, "value")
		if err != nil {
			return nil, fmt.Errorf("Cold: %w", err)
		}
		return testutil.Cold{Value: value}, nil
	default:
		return nil, fmt.Errorf("unknown weather fact type %q", typ)
	}
}

func valueAndLocation(fields map[string]any) (int, string, error) {
	value, err := intField(fields, "value")
	if err != nil {
		return 0, "", err
	}
	location, ok := fields["location"].(string)
	if !ok {
		return 0, "", fmt.Errorf("field %q must be a string", "location")
	}
	return value, location, nil
}

func intField(fields map[string]any, name string) (int, error) {
	switch v := fields[name].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("field %q must be an integer", name)
	}
}
