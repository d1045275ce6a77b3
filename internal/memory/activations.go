package memory

import (
	"fmt"

	"github.com/roach88/tercel/internal/rules"
)

// Activation is a queued (production node, token) pair awaiting RHS firing.
// Group carries the value the session's activation group function assigned
// to the producing rule.
type Activation struct {
	NodeID int64
	Token  rules.Token
	Group  any
}

// GroupSortFn orders activation groups. It reports whether a should fire
// before b. The default compares numerically, higher first.
type GroupSortFn func(a, b any) bool

// DefaultGroupSort fires numerically greater groups first. Non-numeric
// group values sort after numeric ones, ordered by their rendering, so a
// custom group function with mixed values still gets a stable order.
func DefaultGroupSort(a, b any) bool {
	av, aNum := asInt64(a)
	bv, bNum := asInt64(b)
	switch {
	case aNum && bNum:
		return av > bv
	case aNum:
		return true
	case bNum:
		return false
	default:
		return GroupKey(a) > GroupKey(b)
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	}
	return 0, false
}

// GroupKey renders a group value deterministically. The queue uses it as
// its map key; the firing loop uses it to detect group changes.
func GroupKey(v any) string {
	return fmt.Sprintf("%T:%v", v, v)
}

type activationGroup struct {
	value any
	items []Activation
}

// ActivationQueue is the scheduler's pending-activation store: a priority
// structure over group values with FIFO order inside each group and removal
// by (node, token) identity.
type ActivationQueue struct {
	groups map[string]*activationGroup
}

// NewActivationQueue returns an empty queue.
func NewActivationQueue() *ActivationQueue {
	return &ActivationQueue{groups: make(map[string]*activationGroup)}
}

// Add enqueues activations at the back of their groups.
func (q *ActivationQueue) Add(activations []Activation) {
	for _, act := range activations {
		key := GroupKey(act.Group)
		g := q.groups[key]
		if g == nil {
			g = &activationGroup{value: act.Group}
			q.groups[key] = g
		}
		g.items = append(g.items, act)
	}
}

// Remove deletes, for each given token, one queued activation of the given
// production node whose token value-equals it. Each token cancels at most
// one queued activation, matching insert multiplicity. Returns the removed
// activations.
func (q *ActivationQueue) Remove(nodeID int64, tokens []rules.Token) []Activation {
	var removed []Activation
	for _, tok := range tokens {
	groups:
		for key, g := range q.groups {
			for i := range g.items {
				if g.items[i].NodeID != nodeID {
					continue
				}
				if !rules.TokensEqual(g.items[i].Token, tok) {
					continue
				}
				removed = append(removed, g.items[i])
				g.items = append(g.items[:i], g.items[i+1:]...)
				if len(g.items) == 0 {
					delete(q.groups, key)
				}
				break groups
			}
		}
	}
	return removed
}

// PeekGroup returns the group value that should fire next under the given
// sort, or false when the queue is empty.
func (q *ActivationQueue) PeekGroup(sort GroupSortFn) (any, bool) {
	var best any
	found := false
	for _, g := range q.groups {
		if len(g.items) == 0 {
			continue
		}
		if !found || sort(g.value, best) {
			best = g.value
			found = true
		}
	}
	return best, found
}

// Pop removes and returns the oldest activation in the given group.
func (q *ActivationQueue) Pop(group any) (Activation, bool) {
	key := GroupKey(group)
	g := q.groups[key]
	if g == nil || len(g.items) == 0 {
		return Activation{}, false
	}
	act := g.items[0]
	g.items[0] = Activation{}
	g.items = g.items[1:]
	if len(g.items) == 0 {
		delete(q.groups, key)
	}
	return act, true
}

// Len returns the total number of queued activations.
func (q *ActivationQueue) Len() int {
	n := 0
	for _, g := range q.groups {
		n += len(g.items)
	}
	return n
}

// clone deep-copies the queue for the persistent/transient split.
func (q *ActivationQueue) clone() *ActivationQueue {
	groups := make(map[string]*activationGroup, len(q.groups))
	for key, g := range q.groups {
		items := make([]Activation, len(g.items))
		copy(items, g.items)
		groups[key] = &activationGroup{value: g.value, items: items}
	}
	return &ActivationQueue{groups: groups}
}
