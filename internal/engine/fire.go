package engine

import (
	"fmt"

	"github.com/roach88/tercel/internal/memory"
	"github.com/roach88/tercel/internal/rules"
)

// FireRules drains the activation queue, firing rule RHS actions in
// activation-group order, and returns the session reflecting all resulting
// changes. An RHS error or panic aborts the loop; the partially fired
// session is not returned.
func (s *Session) FireRules() (*Session, error) {
	t := s.begin()
	queue := t.mem.Queue()

	var lastGroup any
	haveLast := false
	fired := 0

	for {
		group, ok := queue.PeekGroup(s.cfg.groupSort)
		if !ok {
			// Queue drained: flush pending RHS operations and re-check.
			// Flushing may create further activations; the loop ends only
			// when a flush yields nothing new.
			if !t.flushPending() {
				break
			}
			haveLast = false
			continue
		}

		// Flush between groups so higher-priority work is visible to the
		// group about to fire. Re-peek afterwards: the flush itself may
		// have queued something higher.
		if haveLast && memory.GroupKey(group) != memory.GroupKey(lastGroup) {
			t.flushPending()
			haveLast = false
			continue
		}

		act, ok := queue.Pop(group)
		if !ok {
			continue
		}
		lastGroup = group
		haveLast = true

		rule := s.net.RuleByNode[act.NodeID]
		if err := t.fire(act, rule); err != nil {
			return nil, err
		}
		fired++
	}

	s.cfg.logger.Debug("fire-rules", "fired", fired)
	return s.freeze(t), nil
}

// fire runs one activation's RHS with the firing context installed.
func (t *transient) fire(act memory.Activation, rule *rules.Rule) error {
	ctx := &Context{
		t:        t,
		nodeID:   act.NodeID,
		token:    act.Token,
		tokenKey: rules.TokenKey(act.Token),
	}

	t.prop.FiringNodeID = act.NodeID
	err := runRHS(rule, ctx, act.Token)
	if err == nil && rule.NoLoop {
		// Flush while the rule is still the firing production so its own
		// insertions cannot re-activate it.
		t.flushPending()
	}
	t.prop.FiringNodeID = 0

	if err != nil {
		return &EngineError{
			Code:    ErrCodeRHSFailure,
			Rule:    rule.Name,
			Message: fmt.Sprintf("RHS failed on token %s: %v", ctx.tokenKey[:12], err),
			Err:     err,
		}
	}
	return nil
}

// runRHS invokes the RHS, converting panics to errors.
func runRHS(rule *rules.Rule, ctx *Context, token rules.Token) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return rule.RHS(ctx, rules.PublicBindings(token.Bindings))
}

// pendingKind distinguishes batched RHS operations.
type pendingKind int

const (
	pendingLogical pendingKind = iota + 1
	pendingUnconditional
	pendingRetract
)

type pendingOp struct {
	kind     pendingKind
	nodeID   int64
	tokenKey string
	facts    []rules.Fact
}

// flushPending applies the batched RHS operations to the alpha network.
// Returns whether any operation was applied.
func (t *transient) flushPending() bool {
	if len(t.pending) == 0 {
		return false
	}
	ops := t.pending
	t.pending = nil

	for _, op := range ops {
		switch op.kind {
		case pendingLogical:
			// Support vanishes when the firing token is retracted before
			// the flush; the insertion is cancelled with it.
			if !t.mem.HasSupport(op.nodeID, op.tokenKey) {
				continue
			}
			t.routeActivate(op.facts)
		case pendingUnconditional:
			t.lis.InsertFacts(op.facts)
			t.routeActivate(op.facts)
		case pendingRetract:
			t.retractBatch(op.facts)
		}
		t.drainCascade()
	}
	return true
}
