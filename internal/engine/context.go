package engine

import (
	"github.com/roach88/tercel/internal/rules"
)

// Context is the firing context passed to every rule RHS. It is valid only
// for the duration of the RHS call; retaining it is undefined behavior.
//
// Insert and InsertUnconditional batch into the firing loop's pending
// operations; the facts reach the alpha network at the next flush point.
// Retract batches the same way and is not truth-maintained: retracting a
// fact has no support of its own.
type Context struct {
	t        *transient
	nodeID   int64
	token    rules.Token
	tokenKey string
}

var _ rules.RHSContext = (*Context)(nil)

// Insert records a logical insertion supported by the firing token. If the
// token is later retracted, the facts are retracted with it.
func (c *Context) Insert(facts ...rules.Fact) {
	c.InsertAll(facts)
}

// InsertAll is Insert over a prepared slice.
func (c *Context) InsertAll(facts []rules.Fact) {
	if len(facts) == 0 {
		return
	}
	c.t.mem.AddSupport(c.nodeID, c.tokenKey, facts)
	c.t.lis.InsertFactsLogical(c.nodeID, c.token, facts)
	c.t.pending = append(c.t.pending, pendingOp{
		kind:     pendingLogical,
		nodeID:   c.nodeID,
		tokenKey: c.tokenKey,
		facts:    facts,
	})
}

// InsertUnconditional records an insertion with no support: the facts
// persist regardless of what happens to the firing token.
func (c *Context) InsertUnconditional(facts ...rules.Fact) {
	c.InsertAllUnconditional(facts)
}

// InsertAllUnconditional is InsertUnconditional over a prepared slice.
func (c *Context) InsertAllUnconditional(facts []rules.Fact) {
	if len(facts) == 0 {
		return
	}
	c.t.pending = append(c.t.pending, pendingOp{kind: pendingUnconditional, facts: facts})
}

// Retract enqueues a non-truth-maintained retraction, applied at the next
// flush point.
func (c *Context) Retract(facts ...rules.Fact) {
	if len(facts) == 0 {
		return
	}
	c.t.pending = append(c.t.pending, pendingOp{kind: pendingRetract, facts: facts})
}

// Token returns the token that triggered this firing.
func (c *Context) Token() rules.Token { return c.token }
