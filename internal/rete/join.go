package rete

import (
	"fmt"

	"github.com/roach88/tercel/internal/rules"
)

// RootJoinNode is the unique beta root of each network path. It holds the
// empty token implicitly: left activation and retraction are no-ops because
// that token is constant. Elements arriving from its alpha node become the
// first tokens of the path.
type RootJoinNode struct {
	id       int64
	children []int64
	joinKeys []string
}

// NewRootJoinNode builds a beta root.
func NewRootJoinNode(id int64, joinKeys []string) *RootJoinNode {
	return &RootJoinNode{id: id, joinKeys: joinKeys}
}

// ID implements Node.
func (n *RootJoinNode) ID() int64 { return n.id }

// JoinKeys implements Node.
func (n *RootJoinNode) JoinKeys() []string { return n.joinKeys }

// Children returns the node's child ids.
func (n *RootJoinNode) Children() []int64 { return n.children }

// AddChild wires a child beta node.
func (n *RootJoinNode) AddChild(id int64) { n.children = appendChild(n.children, id) }

// Description implements Node.
func (n *RootJoinNode) Description() string {
	return fmt.Sprintf("RootJoinNode %d", n.id)
}

// LeftActivate implements LeftActivation as a no-op.
func (n *RootJoinNode) LeftActivate(*Propagation, rules.Bindings, []rules.Token) {}

// LeftRetract implements LeftActivation as a no-op.
func (n *RootJoinNode) LeftRetract(*Propagation, rules.Bindings, []rules.Token) {}

// RightActivate stores the elements and emits one token per element.
func (n *RootJoinNode) RightActivate(p *Propagation, joinBindings rules.Bindings, elements []rules.Element) {
	key := rules.BindingKey(joinBindings, n.joinKeys)
	p.Mem.AddElements(n.id, key, elements)
	p.Listener.RightActivate(n.id, joinBindings, elements)

	tokens := make([]rules.Token, 0, len(elements))
	for _, e := range elements {
		tokens = append(tokens, rules.EmptyToken().Extend(e.Fact, n.id, e.Bindings))
	}
	p.Transport.SendTokens(p, tokens, n.children)
}

// RightRetract removes the stored elements and retracts their tokens.
func (n *RootJoinNode) RightRetract(p *Propagation, joinBindings rules.Bindings, elements []rules.Element) {
	key := rules.BindingKey(joinBindings, n.joinKeys)
	removed := p.Mem.RemoveElements(n.id, key, elements)
	p.Listener.RightRetract(n.id, joinBindings, removed)

	tokens := make([]rules.Token, 0, len(removed))
	for _, e := range removed {
		tokens = append(tokens, rules.EmptyToken().Extend(e.Fact, n.id, e.Bindings))
	}
	p.Transport.RetractTokens(p, tokens, n.children)
}

// JoinNode pairs left tokens with right elements that agree on the join
// keys, extending each token with the element's fact and bindings.
type JoinNode struct {
	id       int64
	children []int64
	joinKeys []string
}

// NewJoinNode builds a hash join node over the given keys.
func NewJoinNode(id int64, joinKeys []string) *JoinNode {
	return &JoinNode{id: id, joinKeys: joinKeys}
}

// ID implements Node.
func (n *JoinNode) ID() int64 { return n.id }

// JoinKeys implements Node.
func (n *JoinNode) JoinKeys() []string { return n.joinKeys }

// Children returns the node's child ids.
func (n *JoinNode) Children() []int64 { return n.children }

// AddChild wires a child beta node.
func (n *JoinNode) AddChild(id int64) { n.children = appendChild(n.children, id) }

// Description implements Node.
func (n *JoinNode) Description() string {
	return fmt.Sprintf("JoinNode %d %v", n.id, n.joinKeys)
}

// cross builds the binding-consistent cartesian product of tokens and
// elements, extending each token.
func (n *JoinNode) cross(tokens []rules.Token, elements []rules.Element) []rules.Token {
	var out []rules.Token
	for _, t := range tokens {
		for _, e := range elements {
			if !rules.ConsistentBindings(t.Bindings, e.Bindings) {
				continue
			}
			out = append(out, t.Extend(e.Fact, n.id, e.Bindings))
		}
	}
	return out
}

// LeftActivate stores the tokens and joins them with the right memory.
func (n *JoinNode) LeftActivate(p *Propagation, joinBindings rules.Bindings, tokens []rules.Token) {
	key := rules.BindingKey(joinBindings, n.joinKeys)
	p.Mem.AddTokens(n.id, key, tokens)
	p.Listener.LeftActivate(n.id, joinBindings, tokens)

	elements := p.Mem.Elements(n.id, key)
	p.Transport.SendTokens(p, n.cross(tokens, elements), n.children)
}

// LeftRetract removes the tokens and retracts their joined descendants.
func (n *JoinNode) LeftRetract(p *Propagation, joinBindings rules.Bindings, tokens []rules.Token) {
	key := rules.BindingKey(joinBindings, n.joinKeys)
	removed := p.Mem.RemoveTokens(n.id, key, tokens)
	p.Listener.LeftRetract(n.id, joinBindings, removed)

	elements := p.Mem.Elements(n.id, key)
	p.Transport.RetractTokens(p, n.cross(removed, elements), n.children)
}

// RightActivate stores the elements and joins them with the left memory.
func (n *JoinNode) RightActivate(p *Propagation, joinBindings rules.Bindings, elements []rules.Element) {
	key := rules.BindingKey(joinBindings, n.joinKeys)
	p.Mem.AddElements(n.id, key, elements)
	p.Listener.RightActivate(n.id, joinBindings, elements)

	tokens := p.Mem.Tokens(n.id, key)
	p.Transport.SendTokens(p, n.cross(tokens, elements), n.children)
}

// RightRetract removes the elements and retracts their joined descendants.
func (n *JoinNode) RightRetract(p *Propagation, joinBindings rules.Bindings, elements []rules.Element) {
	key := rules.BindingKey(joinBindings, n.joinKeys)
	removed := p.Mem.RemoveElements(n.id, key, elements)
	p.Listener.RightRetract(n.id, joinBindings, removed)

	tokens := p.Mem.Tokens(n.id, key)
	p.Transport.RetractTokens(p, n.cross(tokens, removed), n.children)
}

func appendChild(children []int64, id int64) []int64 {
	for _, existing := range children {
		if existing == id {
			return children
		}
	}
	return append(children, id)
}
