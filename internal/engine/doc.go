// Package engine exposes the public surface of a tercel rule session.
//
// ARCHITECTURE:
//
// Immutable sessions:
// A Session is an immutable handle over the compiled network and a
// persistent working-memory snapshot. Every mutating operation (Insert,
// Retract, FireRules) clones the memory into a transient form, applies the
// change, freezes the result, and returns a new Session. Callers may keep
// and reuse any prior handle.
//
// Single-writer evaluation:
// All work on one session happens on the calling goroutine. There is no
// preemption and no cancellation; suspension points exist only between
// public API calls. Distinct sessions own their state exclusively and may
// run on different goroutines in parallel.
//
// The firing loop:
// FireRules pops activations by descending activation group (default:
// salience, higher first) with FIFO order inside a group. Facts a RHS
// inserts or retracts are batched as pending operations and flushed to the
// alpha network when the group changes between pops, immediately after a
// no-loop rule fires, and when the queue drains. The post-drain flush is
// re-checked: flushing may create further activations, and the loop runs
// until a flush yields nothing new.
//
// Truth maintenance:
// Logical insertions record support under the firing (production, token).
// When a production retracts tokens, the facts they supported are
// alpha-retracted, which may cascade into further production retractions.
// The cascade is drained to a fixed point inside the same public call.
package engine
