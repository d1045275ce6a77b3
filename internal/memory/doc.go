// Package memory implements the working memory of a tercel session.
//
// Working memory holds, per network node, the indexed state the node kinds
// need: right memories (alpha elements), left memories (beta tokens),
// accumulator reductions, production token stores, logical-insertion support
// records, and the activation queue.
//
// All stores are indexed by deterministic binding fingerprints from the
// rules package, so rows with equal join-variable values land in the same
// slot regardless of map iteration order.
//
// # Persistent versus transient
//
// Memory is the immutable snapshot callers hold through a Session.
// ToTransient deep-copies every mutable container into an exclusive
// Transient builder; ToPersistent freezes the builder back into a fresh
// snapshot. A caller keeping an old Memory continues to see its values:
// the transient shares no mutable state with the snapshot it came from.
//
// Removal operations remove the first value-equal occurrence per argument,
// which is what gives duplicate facts multiplicity semantics.
package memory
