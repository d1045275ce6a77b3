// Package rules provides the data model for the tercel rule engine.
//
// This package contains type definitions and pure functions only. All other
// internal packages import rules; rules imports nothing internal. This keeps
// the model the foundational layer with no circular dependencies.
//
// The model covers:
//   - Facts, bindings, elements, and tokens (the currency of the network)
//   - Conditions (type, negation, test, accumulator, boolean composition)
//   - Productions (rules and queries) and their properties
//   - Accumulator descriptors with defaulted callbacks
//   - Disjunctive normal form rewriting of boolean condition trees
//   - Deterministic binding and token fingerprints used as memory index keys
//
// Variable names are strings with a leading "?". Variables carrying the
// reserved GenVarPrefix are internal and are stripped from query results
// before they reach callers; the normalization pass introduces none.
package rules
