// Package rete implements the compiled discrimination network: the alpha
// nodes that evaluate single-fact conditions and the beta DAG that joins,
// negates, tests, accumulates, and terminates in production and query nodes.
//
// ARCHITECTURE:
//
// Arena addressing:
// Nodes live in a Network arena keyed by stable int64 ids assigned at
// construction. Parents reference children by id only; children hold no
// parent references, so the graph stays acyclic and shareable.
//
// Capability interfaces:
// Every beta node implements LeftActivation; nodes with a right input
// (root-join, join, negation, the accumulate variants) also implement
// RightActivation. The accumulate variants additionally implement
// AccumRightActivation (pre-reduce / right-activate-reduced).
//
// Propagation context:
// All node operations receive a *Propagation carrying the network, the
// transient working memory, the transport, the listener, the retraction
// sink used by truth maintenance, and the id of the production currently
// firing. Nothing in this package reaches for ambient state.
//
// Transport:
// The local transport routes elements and tokens to child nodes, grouping
// rows by each child's join keys so that node memories index consistently.
// Group dispatch order is sorted by binding fingerprint for deterministic
// listener traces.
//
// INVARIANTS:
//   - Every element in a node's right memory passed that node's predicate.
//   - A stored token's bindings are the union of its ancestor bindings plus
//     the bindings its own condition introduced.
//   - Join children see exactly the binding-consistent cartesian product of
//     left tokens and right elements per join key.
//   - Negation children hold tokens only while the negated right memory is
//     empty under the token's join key.
//   - Retractions emit the same rows as the activations they cancel.
package rete
