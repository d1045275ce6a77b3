package rete

import (
	"fmt"

	"github.com/roach88/tercel/internal/rules"
)

// NegationNode propagates left tokens only while its right memory is empty
// under the token's join key. Negations introduce no bindings.
type NegationNode struct {
	id       int64
	children []int64
	joinKeys []string
}

// NewNegationNode builds a negation node over the given join keys.
func NewNegationNode(id int64, joinKeys []string) *NegationNode {
	return &NegationNode{id: id, joinKeys: joinKeys}
}

// ID implements Node.
func (n *NegationNode) ID() int64 { return n.id }

// JoinKeys implements Node.
func (n *NegationNode) JoinKeys() []string { return n.joinKeys }

// Children returns the node's child ids.
func (n *NegationNode) Children() []int64 { return n.children }

// AddChild wires a child beta node.
func (n *NegationNode) AddChild(id int64) { n.children = appendChild(n.children, id) }

// Description implements Node.
func (n *NegationNode) Description() string {
	return fmt.Sprintf("NegationNode %d %v", n.id, n.joinKeys)
}

// LeftActivate stores the tokens; they flow on only when nothing negates
// them.
func (n *NegationNode) LeftActivate(p *Propagation, joinBindings rules.Bindings, tokens []rules.Token) {
	key := rules.BindingKey(joinBindings, n.joinKeys)
	p.Mem.AddTokens(n.id, key, tokens)
	p.Listener.LeftActivate(n.id, joinBindings, tokens)

	if p.Mem.ElementCount(n.id, key) == 0 {
		p.Transport.SendTokens(p, tokens, n.children)
	}
}

// LeftRetract removes the tokens; downstream retraction is only needed when
// the tokens had been propagated, which is exactly when the right memory is
// empty.
func (n *NegationNode) LeftRetract(p *Propagation, joinBindings rules.Bindings, tokens []rules.Token) {
	key := rules.BindingKey(joinBindings, n.joinKeys)
	removed := p.Mem.RemoveTokens(n.id, key, tokens)
	p.Listener.LeftRetract(n.id, joinBindings, removed)

	if p.Mem.ElementCount(n.id, key) == 0 {
		p.Transport.RetractTokens(p, removed, n.children)
	}
}

// RightActivate stores the elements. Crossing from empty to non-empty
// negates the stored tokens, so they are retracted downstream.
func (n *NegationNode) RightActivate(p *Propagation, joinBindings rules.Bindings, elements []rules.Element) {
	key := rules.BindingKey(joinBindings, n.joinKeys)
	wasEmpty := p.Mem.ElementCount(n.id, key) == 0
	p.Mem.AddElements(n.id, key, elements)
	p.Listener.RightActivate(n.id, joinBindings, elements)

	if wasEmpty && len(elements) > 0 {
		p.Transport.RetractTokens(p, p.Mem.Tokens(n.id, key), n.children)
	}
}

// RightRetract removes the elements. Crossing back to empty re-emits the
// stored tokens downstream.
func (n *NegationNode) RightRetract(p *Propagation, joinBindings rules.Bindings, elements []rules.Element) {
	key := rules.BindingKey(joinBindings, n.joinKeys)
	removed := p.Mem.RemoveElements(n.id, key, elements)
	p.Listener.RightRetract(n.id, joinBindings, removed)

	if len(removed) > 0 && p.Mem.ElementCount(n.id, key) == 0 {
		p.Transport.SendTokens(p, p.Mem.Tokens(n.id, key), n.children)
	}
}
