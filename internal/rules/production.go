package rules

// RHS is a rule's right-hand-side action. The ctx argument exposes the
// in-firing insert and retract operations; bindings are the firing token's
// bindings. An error aborts the firing loop.
//
// The concrete context type lives in the engine package; RHS receives it as
// an interface to keep this package free of internal imports.
type RHS func(ctx RHSContext, bindings Bindings) error

// RHSContext is the surface a firing RHS may touch. Insert records a logical
// insertion supported by the firing token; InsertUnconditional records no
// support; Retract issues a non-truth-maintained retraction. The engine
// applies all three at the firing loop's next flush point.
type RHSContext interface {
	Insert(facts ...Fact)
	InsertAll(facts []Fact)
	InsertUnconditional(facts ...Fact)
	InsertAllUnconditional(facts []Fact)
	Retract(facts ...Fact)
}

// Rule is a production with an action. LHS may be a boolean composition;
// normalization flattens it into one or more variants before network
// construction.
type Rule struct {
	Name string
	Doc  string
	LHS  []Condition
	RHS  RHS

	// Salience orders activations. The default activation group function
	// groups by salience and fires higher groups first.
	Salience int

	// NoLoop prevents the rule from scheduling new activations for itself
	// while it is the one firing.
	NoLoop bool

	// Group is an optional label available to custom activation group
	// functions. The default grouping ignores it.
	Group string
}

// Query is a production without an action. Params name the variables callers
// supply when running the query; they must be a subset of the variables the
// LHS binds.
type Query struct {
	Name   string
	Doc    string
	Params []string
	LHS    []Condition
}
