package rete

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tercel/internal/listener"
	"github.com/roach88/tercel/internal/memory"
	"github.com/roach88/tercel/internal/rules"
)

// sinkNode records left activations and retractions for assertions.
type sinkNode struct {
	id        int64
	joinKeys  []string
	activated []rules.Token
	retracted []rules.Token
}

func (s *sinkNode) ID() int64           { return s.id }
func (s *sinkNode) JoinKeys() []string  { return s.joinKeys }
func (s *sinkNode) Description() string { return fmt.Sprintf("sinkNode %d", s.id) }

func (s *sinkNode) LeftActivate(_ *Propagation, _ rules.Bindings, tokens []rules.Token) {
	s.activated = append(s.activated, tokens...)
}

func (s *sinkNode) LeftRetract(_ *Propagation, _ rules.Bindings, tokens []rules.Token) {
	s.retracted = append(s.retracted, tokens...)
}

// newProp builds a propagation over a fresh transient memory.
func newProp(net *Network) *Propagation {
	return &Propagation{
		Net:          net,
		Mem:          memory.NewMemory().ToTransient(),
		Transport:    LocalTransport{},
		Listener:     listener.NullListener{}.ToTransient(),
		Group:        func(r *rules.Rule) any { return r.Salience },
		RetractFacts: func([]rules.Fact) {},
	}
}

func elemOf(fact rules.Fact, b rules.Bindings) rules.Element {
	return rules.Element{Fact: fact, Bindings: b}
}

func TestRootJoin_EmitsOneTokenPerElement(t *testing.T) {
	net := NewNetwork()
	root := NewRootJoinNode(1, nil)
	sink := &sinkNode{id: 2}
	root.AddChild(2)
	net.AddNode(root)
	net.AddNode(sink)
	p := newProp(net)

	root.RightActivate(p, rules.Bindings{}, []rules.Element{
		elemOf("a", rules.Bindings{"?x": 1}),
		elemOf("b", rules.Bindings{"?x": 2}),
	})

	require.Len(t, sink.activated, 2)
	assert.Equal(t, rules.Bindings{"?x": 1}, sink.activated[0].Bindings)
	require.Len(t, sink.activated[0].Matches, 1)
	assert.Equal(t, rules.Match{Fact: "a", NodeID: 1}, sink.activated[0].Matches[0])
}

func TestRootJoin_RetractRemovesAndPropagates(t *testing.T) {
	net := NewNetwork()
	root := NewRootJoinNode(1, nil)
	sink := &sinkNode{id: 2}
	root.AddChild(2)
	net.AddNode(root)
	net.AddNode(sink)
	p := newProp(net)

	e := elemOf("a", rules.Bindings{"?x": 1})
	root.RightActivate(p, rules.Bindings{}, []rules.Element{e})
	root.RightRetract(p, rules.Bindings{}, []rules.Element{e})

	require.Len(t, sink.retracted, 1)
	assert.True(t, rules.TokensEqual(sink.activated[0], sink.retracted[0]),
		"the retraction must mirror the activation")

	// A second retraction of the same element finds nothing.
	sink.retracted = nil
	root.RightRetract(p, rules.Bindings{}, []rules.Element{e})
	assert.Empty(t, sink.retracted)
}

func joinFixture(t *testing.T) (*JoinNode, *sinkNode, *Propagation) {
	t.Helper()
	net := NewNetwork()
	join := NewJoinNode(1, []string{"?k"})
	sink := &sinkNode{id: 2}
	join.AddChild(2)
	net.AddNode(join)
	net.AddNode(sink)
	return join, sink, newProp(net)
}

func tokenWith(b rules.Bindings) rules.Token {
	return rules.Token{Bindings: b}
}

func TestJoinNode_LeftThenRight(t *testing.T) {
	join, sink, p := joinFixture(t)
	jb := rules.Bindings{"?k": "MCI"}

	join.LeftActivate(p, jb, []rules.Token{tokenWith(rules.Bindings{"?k": "MCI"})})
	require.Empty(t, sink.activated, "no right rows yet")

	join.RightActivate(p, jb, []rules.Element{elemOf("w", rules.Bindings{"?k": "MCI", "?w": 40})})

	require.Len(t, sink.activated, 1)
	assert.Equal(t, rules.Bindings{"?k": "MCI", "?w": 40}, sink.activated[0].Bindings)
	require.Len(t, sink.activated[0].Matches, 1)
	assert.Equal(t, rules.Match{Fact: "w", NodeID: 1}, sink.activated[0].Matches[0])
}

func TestJoinNode_RightThenLeftIsSymmetric(t *testing.T) {
	join, sink, p := joinFixture(t)
	jb := rules.Bindings{"?k": "MCI"}

	join.RightActivate(p, jb, []rules.Element{elemOf("w", rules.Bindings{"?k": "MCI", "?w": 40})})
	require.Empty(t, sink.activated)

	join.LeftActivate(p, jb, []rules.Token{tokenWith(rules.Bindings{"?k": "MCI"})})

	require.Len(t, sink.activated, 1)
	assert.Equal(t, rules.Bindings{"?k": "MCI", "?w": 40}, sink.activated[0].Bindings)
}

func TestJoinNode_DifferentKeysDoNotMeet(t *testing.T) {
	join, sink, p := joinFixture(t)

	join.LeftActivate(p, rules.Bindings{"?k": "MCI"}, []rules.Token{tokenWith(rules.Bindings{"?k": "MCI"})})
	join.RightActivate(p, rules.Bindings{"?k": "SFO"}, []rules.Element{elemOf("w", rules.Bindings{"?k": "SFO"})})

	assert.Empty(t, sink.activated)
}

func TestJoinNode_RightRetractMirrorsInsertion(t *testing.T) {
	join, sink, p := joinFixture(t)
	jb := rules.Bindings{"?k": "MCI"}
	e := elemOf("w", rules.Bindings{"?k": "MCI", "?w": 40})

	join.LeftActivate(p, jb, []rules.Token{tokenWith(rules.Bindings{"?k": "MCI"})})
	join.RightActivate(p, jb, []rules.Element{e})
	require.Len(t, sink.activated, 1)

	join.RightRetract(p, jb, []rules.Element{e})
	require.Len(t, sink.retracted, 1)
	assert.True(t, rules.TokensEqual(sink.activated[0], sink.retracted[0]))
}

func TestJoinNode_InconsistentBindingsRejected(t *testing.T) {
	net := NewNetwork()
	join := NewJoinNode(1, nil) // no join keys: cartesian, consistency still applies
	sink := &sinkNode{id: 2}
	join.AddChild(2)
	net.AddNode(join)
	net.AddNode(sink)
	p := newProp(net)

	join.LeftActivate(p, rules.Bindings{}, []rules.Token{tokenWith(rules.Bindings{"?v": 1})})
	join.RightActivate(p, rules.Bindings{}, []rules.Element{elemOf("x", rules.Bindings{"?v": 2})})

	assert.Empty(t, sink.activated, "conflicting values for ?v must not join")
}

func negationFixture(t *testing.T) (*NegationNode, *sinkNode, *Propagation) {
	t.Helper()
	net := NewNetwork()
	neg := NewNegationNode(1, nil)
	sink := &sinkNode{id: 2}
	neg.AddChild(2)
	net.AddNode(neg)
	net.AddNode(sink)
	return neg, sink, newProp(net)
}

func TestNegationNode_Lifecycle(t *testing.T) {
	neg, sink, p := negationFixture(t)
	jb := rules.Bindings{}
	tok := tokenWith(rules.Bindings{"?x": 1})

	// Empty right memory: the token flows.
	neg.LeftActivate(p, jb, []rules.Token{tok})
	require.Len(t, sink.activated, 1)

	// A right element negates it.
	e := elemOf("cold", rules.Bindings{})
	neg.RightActivate(p, jb, []rules.Element{e})
	require.Len(t, sink.retracted, 1)
	assert.True(t, rules.TokensEqual(tok, sink.retracted[0]))

	// A second element changes nothing downstream.
	neg.RightActivate(p, jb, []rules.Element{e})
	require.Len(t, sink.retracted, 1)

	// Removing one of two elements is not enough.
	neg.RightRetract(p, jb, []rules.Element{e})
	require.Len(t, sink.activated, 1)

	// Removing the last re-emits the stored token.
	neg.RightRetract(p, jb, []rules.Element{e})
	require.Len(t, sink.activated, 2)
	assert.True(t, rules.TokensEqual(tok, sink.activated[1]))
}

func TestNegationNode_LeftRetractWhileNegated(t *testing.T) {
	neg, sink, p := negationFixture(t)
	jb := rules.Bindings{}
	tok := tokenWith(rules.Bindings{"?x": 1})

	neg.LeftActivate(p, jb, []rules.Token{tok})
	neg.RightActivate(p, jb, []rules.Element{elemOf("cold", rules.Bindings{})})
	require.Len(t, sink.retracted, 1)

	// The token leaves while negated: no second downstream retraction.
	neg.LeftRetract(p, jb, []rules.Token{tok})
	assert.Len(t, sink.retracted, 1)

	// And removing the negating element must not resurrect it.
	neg.RightRetract(p, jb, []rules.Element{elemOf("cold", rules.Bindings{})})
	assert.Len(t, sink.activated, 1)
}

func TestTestNode_FiltersAndForwardsSpuriousRetracts(t *testing.T) {
	net := NewNetwork()
	test := NewTestNode(1, &rules.TestCondition{
		Uses: []string{"?x"},
		Pred: func(b rules.Bindings) bool { return b["?x"].(int) > 10 },
	})
	sink := &sinkNode{id: 2}
	test.AddChild(2)
	net.AddNode(test)
	net.AddNode(sink)
	p := newProp(net)

	pass := tokenWith(rules.Bindings{"?x": 20})
	fail := tokenWith(rules.Bindings{"?x": 5})

	test.LeftActivate(p, rules.Bindings{}, []rules.Token{pass, fail})
	require.Len(t, sink.activated, 1)
	assert.True(t, rules.TokensEqual(pass, sink.activated[0]))

	// Retraction forwards everything; downstream removal is idempotent.
	test.LeftRetract(p, rules.Bindings{}, []rules.Token{pass, fail})
	assert.Len(t, sink.retracted, 2)
}

func TestAlphaNode_FiltersAndExtractsBindings(t *testing.T) {
	net := NewNetwork()
	cond := &rules.TypeCondition{
		Type:  "n",
		Binds: []string{"?n"},
		Activate: func(f rules.Fact, _ rules.Bindings) (rules.Bindings, bool) {
			n := f.(int)
			if n >= 10 {
				return nil, false
			}
			return rules.Bindings{"?n": n}, true
		},
	}
	alpha := NewAlphaNode(1, cond, rules.Bindings{})
	root := NewRootJoinNode(2, nil)
	sink := &sinkNode{id: 3}
	alpha.AddChild(2)
	root.AddChild(3)
	net.AddNode(root)
	net.AddNode(sink)
	p := newProp(net)

	alpha.Activate(p, []rules.Fact{5, 50})

	require.Len(t, sink.activated, 1)
	assert.Equal(t, rules.Bindings{"?n": 5}, sink.activated[0].Bindings)
}

func TestTransport_GroupsByChildJoinKeys(t *testing.T) {
	net := NewNetwork()
	join := NewJoinNode(1, []string{"?loc"})
	net.AddNode(join)
	p := newProp(net)

	// Two locations in one batch land in separate memory slots.
	LocalTransport{}.SendElements(p, []rules.Element{
		elemOf("a", rules.Bindings{"?loc": "MCI"}),
		elemOf("b", rules.Bindings{"?loc": "SFO"}),
		elemOf("c", rules.Bindings{"?loc": "MCI"}),
	}, []int64{1})

	mci := rules.BindingKey(rules.Bindings{"?loc": "MCI"}, []string{"?loc"})
	sfo := rules.BindingKey(rules.Bindings{"?loc": "SFO"}, []string{"?loc"})
	assert.Equal(t, 2, p.Mem.ElementCount(1, mci))
	assert.Equal(t, 1, p.Mem.ElementCount(1, sfo))
}
