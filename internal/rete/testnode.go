package rete

import (
	"fmt"

	"github.com/roach88/tercel/internal/rules"
)

// TestNode filters tokens with a pure predicate over their bindings. It is
// stateless: no memory rows, no bindings introduced.
type TestNode struct {
	id       int64
	children []int64
	cond     *rules.TestCondition
}

// NewTestNode builds a test node.
func NewTestNode(id int64, cond *rules.TestCondition) *TestNode {
	return &TestNode{id: id, cond: cond}
}

// ID implements Node.
func (n *TestNode) ID() int64 { return n.id }

// JoinKeys implements Node. Test nodes group everything under one key.
func (n *TestNode) JoinKeys() []string { return nil }

// Children returns the node's child ids.
func (n *TestNode) Children() []int64 { return n.children }

// AddChild wires a child beta node.
func (n *TestNode) AddChild(id int64) { n.children = appendChild(n.children, id) }

// Description implements Node.
func (n *TestNode) Description() string {
	return fmt.Sprintf("TestNode %d %v", n.id, n.cond.Uses)
}

// LeftActivate forwards the tokens that satisfy the predicate.
func (n *TestNode) LeftActivate(p *Propagation, joinBindings rules.Bindings, tokens []rules.Token) {
	p.Listener.LeftActivate(n.id, joinBindings, tokens)

	passed := make([]rules.Token, 0, len(tokens))
	for _, t := range tokens {
		if n.cond.Pred(t.Bindings) {
			passed = append(passed, t)
		}
	}
	p.Transport.SendTokens(p, passed, n.children)
}

// LeftRetract forwards every token as a retraction. Downstream removal is
// idempotent for tokens that never passed the predicate.
func (n *TestNode) LeftRetract(p *Propagation, joinBindings rules.Bindings, tokens []rules.Token) {
	p.Listener.LeftRetract(n.id, joinBindings, tokens)
	p.Transport.RetractTokens(p, tokens, n.children)
}
