// Package accum provides ready-made accumulators for the common
// aggregations: count, sum, average, min, max, all, distinct, and grouping.
//
// Each constructor returns a *rules.Accumulator wired with a retract
// function where cheap recomputation is possible. Min and max keep their
// candidate facts so retraction of the current extreme re-derives the next
// one instead of going stale.
package accum

import (
	"slices"

	"github.com/roach88/tercel/internal/rules"
)

// Count accumulates the number of matching facts, starting at zero. With
// all join variables bound it reports 0 even when nothing matches.
func Count() *rules.Accumulator {
	return rules.NewAccumulator(rules.AccumulatorOptions{
		InitialValue: 0,
		ReduceFn:     func(acc any, _ rules.Fact) any { return acc.(int) + 1 },
		CombineFn:    func(a, b any) any { return a.(int) + b.(int) },
		RetractFn:    func(acc any, _ rules.Fact) any { return acc.(int) - 1 },
	})
}

// Sum accumulates the sum of the extracted values, starting at zero.
func Sum(extract func(rules.Fact) int) *rules.Accumulator {
	return rules.NewAccumulator(rules.AccumulatorOptions{
		InitialValue: 0,
		ReduceFn:     func(acc any, f rules.Fact) any { return acc.(int) + extract(f) },
		CombineFn:    func(a, b any) any { return a.(int) + b.(int) },
		RetractFn:    func(acc any, f rules.Fact) any { return acc.(int) - extract(f) },
	})
}

// average is the running state of Average.
type average struct {
	Sum   int
	Count int
}

// Average accumulates the mean of the extracted values. With no matching
// facts the conversion yields nil and nothing is emitted.
func Average(extract func(rules.Fact) int) *rules.Accumulator {
	return rules.NewAccumulator(rules.AccumulatorOptions{
		InitialValue: average{},
		ReduceFn: func(acc any, f rules.Fact) any {
			a := acc.(average)
			return average{Sum: a.Sum + extract(f), Count: a.Count + 1}
		},
		CombineFn: func(x, y any) any {
			a, b := x.(average), y.(average)
			return average{Sum: a.Sum + b.Sum, Count: a.Count + b.Count}
		},
		RetractFn: func(acc any, f rules.Fact) any {
			a := acc.(average)
			return average{Sum: a.Sum - extract(f), Count: a.Count - 1}
		},
		ConvertReturnFn: func(acc any) any {
			a := acc.(average)
			if a.Count == 0 {
				return nil
			}
			return float64(a.Sum) / float64(a.Count)
		},
	})
}

// factSet builds a candidate-keeping accumulator: reduction appends,
// retraction removes one equal occurrence, conversion derives the result
// from the survivors. Extremes stay correct under retraction this way.
func factSet(convert func(facts []rules.Fact) any) *rules.Accumulator {
	return rules.NewAccumulator(rules.AccumulatorOptions{
		InitialValue: []rules.Fact{},
		ReduceFn: func(acc any, f rules.Fact) any {
			return append(slices.Clone(acc.([]rules.Fact)), f)
		},
		CombineFn: func(a, b any) any {
			left := a.([]rules.Fact)
			right := b.([]rules.Fact)
			merged := make([]rules.Fact, 0, len(left)+len(right))
			merged = append(merged, left...)
			merged = append(merged, right...)
			return merged
		},
		RetractFn: func(acc any, f rules.Fact) any {
			facts := slices.Clone(acc.([]rules.Fact))
			for i := range facts {
				if rules.FactEqual(facts[i], f) {
					return append(facts[:i], facts[i+1:]...)
				}
			}
			return facts
		},
		ConvertReturnFn: func(acc any) any {
			return convert(acc.([]rules.Fact))
		},
	})
}

// Min accumulates the fact with the smallest extracted value. With
// returnsFact the emitted value is the fact itself; otherwise it is the
// extracted value. Nothing is emitted while no facts match.
func Min(extract func(rules.Fact) int, returnsFact bool) *rules.Accumulator {
	return factSet(func(facts []rules.Fact) any {
		return extreme(facts, extract, returnsFact, func(candidate, best int) bool {
			return candidate < best
		})
	})
}

// Max accumulates the fact with the largest extracted value.
func Max(extract func(rules.Fact) int, returnsFact bool) *rules.Accumulator {
	return factSet(func(facts []rules.Fact) any {
		return extreme(facts, extract, returnsFact, func(candidate, best int) bool {
			return candidate > best
		})
	})
}

func extreme(facts []rules.Fact, extract func(rules.Fact) int, returnsFact bool, better func(candidate, best int) bool) any {
	if len(facts) == 0 {
		return nil
	}
	bestFact := facts[0]
	bestValue := extract(facts[0])
	for _, f := range facts[1:] {
		if v := extract(f); better(v, bestValue) {
			bestFact = f
			bestValue = v
		}
	}
	if returnsFact {
		return bestFact
	}
	return bestValue
}

// All accumulates every matching fact, in arrival order. With no matches it
// emits an empty list.
func All() *rules.Accumulator {
	return factSet(func(facts []rules.Fact) any {
		return slices.Clone(facts)
	})
}

// Distinct accumulates the value-distinct matching facts, keeping the first
// occurrence of each.
func Distinct() *rules.Accumulator {
	return factSet(func(facts []rules.Fact) any {
		distinct := make([]rules.Fact, 0, len(facts))
		for _, f := range facts {
			seen := false
			for _, d := range distinct {
				if rules.FactEqual(d, f) {
					seen = true
					break
				}
			}
			if !seen {
				distinct = append(distinct, f)
			}
		}
		return distinct
	})
}

// GroupingBy accumulates matching facts into a map keyed by keyFn, in the
// style of a group-by. Keys must be comparable.
func GroupingBy(keyFn func(rules.Fact) any) *rules.Accumulator {
	return factSet(func(facts []rules.Fact) any {
		groups := make(map[any][]rules.Fact)
		for _, f := range facts {
			k := keyFn(f)
			groups[k] = append(groups[k], f)
		}
		return groups
	})
}
