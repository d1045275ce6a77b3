// Package compile turns productions (rules and queries) into a rete
// Network: the alpha tree, the beta DAG, and the lookup tables a session
// needs.
//
// Construction walks each production's LHS after DNF normalization. Every
// disjunct becomes one variant sharing the rule's RHS but owning a distinct
// beta path. Structurally shareable prefixes are shared: two variants whose
// paths begin with the same parent node and the same condition value reuse
// the same beta node, so equivalent conditions are evaluated once.
//
// Variants that open with a negation, test, or accumulator are anchored on
// the reserved initial fact, which every session inserts at creation; the
// beta root then has an element to emit a token for, and leading negations
// match until contradicted.
//
// Join keys are inferred, not declared: a node's join keys are the
// variables its condition binds that some earlier condition on the path
// already bound.
//
// Validation errors surface as *Error values with stable codes: a rule
// without an RHS, a test or query referencing a variable with no binding
// source, or an accumulator in an unusable position all fail here rather
// than at runtime.
package compile
