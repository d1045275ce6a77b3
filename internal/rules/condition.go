package rules

// Condition is a sealed interface over the condition kinds a production LHS
// is built from. Only the types in this file implement it.
type Condition interface {
	condition()
}

// TypeCondition matches a single fact of a given type tag and extracts
// variable bindings from it.
//
// Activate evaluates the candidate fact against the environment bindings
// its alpha node was built with. It returns the bindings this condition
// introduces (which must cover Binds exactly) and whether the fact matches.
// The env parameter is read-only. The compiler builds every alpha node with
// an empty env, so env never holds bindings from earlier conditions;
// variables shared with earlier conditions are unified by the joins.
type TypeCondition struct {
	// Type is the fact type tag this condition applies to. Facts whose type
	// (or any ancestor type) equals Type are routed to this condition.
	Type string

	// Binds lists the variable names Activate introduces, in no particular
	// order. The compiler uses this to infer join keys and to validate that
	// every referenced variable has a binding source.
	Binds []string

	// Activate is the condition evaluator. A nil Activate matches every fact
	// of the type and introduces no bindings.
	Activate func(fact Fact, env Bindings) (Bindings, bool)
}

func (*TypeCondition) condition() {}

// Eval runs the condition against a fact. The nil-Activate fast path makes
// bare type tests cheap.
func (c *TypeCondition) Eval(fact Fact, env Bindings) (Bindings, bool) {
	if c.Activate == nil {
		return Bindings{}, true
	}
	return c.Activate(fact, env)
}

// NegationCondition requires that its inner condition have no matches.
// Negations introduce no bindings of their own.
type NegationCondition struct {
	Inner *TypeCondition
}

func (*NegationCondition) condition() {}

// TestCondition is a pure predicate over the bindings accumulated so far.
// No fact is consumed.
type TestCondition struct {
	// Uses lists the variables the predicate reads. The compiler validates
	// that each is bound by an earlier condition.
	Uses []string

	Pred func(b Bindings) bool
}

func (*TestCondition) condition() {}

// AccumulateCondition aggregates the facts matching From into a single
// value, bound downstream under ResultBinding.
type AccumulateCondition struct {
	Accum *Accumulator
	From  *TypeCondition

	// ResultBinding names the variable (with leading "?") that carries the
	// converted accumulation downstream. Required.
	ResultBinding string

	// JoinFilter, when non-nil, filters candidate facts against the joining
	// token's bindings before accumulation. Conditions with a JoinFilter
	// cannot pre-reduce and keep raw candidate lists in memory instead.
	JoinFilter func(tokenBindings Bindings, candidate Fact) bool
}

func (*AccumulateCondition) condition() {}

// AndCondition is the conjunction of its children.
type AndCondition struct {
	Children []Condition
}

func (*AndCondition) condition() {}

// OrCondition is the disjunction of its children. Each disjunct becomes a
// separate production variant after normalization.
type OrCondition struct {
	Children []Condition
}

func (*OrCondition) condition() {}

// NotCondition is boolean negation over an arbitrary subtree. Normalization
// pushes it inward until it rests on a leaf, where it becomes a
// NegationCondition.
type NotCondition struct {
	Child Condition
}

func (*NotCondition) condition() {}
