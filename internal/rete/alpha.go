package rete

import (
	"fmt"

	"github.com/roach88/tercel/internal/rules"
)

// AlphaNode evaluates one type condition against one fact at a time,
// producing elements for its beta children. Routing by fact type happens in
// the session; by the time facts reach an alpha node their type (or an
// ancestor) already matched the condition's tag.
type AlphaNode struct {
	id        int64
	condition *rules.TypeCondition
	children  []int64

	// env is the environment the node was built with, passed to every
	// condition evaluation through the Activate env parameter. The compiler
	// builds every alpha node with an empty env.
	env rules.Bindings
}

// NewAlphaNode builds an alpha node for a condition.
func NewAlphaNode(id int64, condition *rules.TypeCondition, env rules.Bindings) *AlphaNode {
	return &AlphaNode{id: id, condition: condition, env: env}
}

// ID implements Node.
func (a *AlphaNode) ID() int64 { return a.id }

// Condition returns the condition this node evaluates.
func (a *AlphaNode) Condition() *rules.TypeCondition { return a.condition }

// Children returns the beta node ids fed by this alpha node.
func (a *AlphaNode) Children() []int64 { return a.children }

// AddChild wires a beta node to this alpha node's right output.
func (a *AlphaNode) AddChild(id int64) {
	for _, existing := range a.children {
		if existing == id {
			return
		}
	}
	a.children = append(a.children, id)
}

// Description implements Node.
func (a *AlphaNode) Description() string {
	return fmt.Sprintf("AlphaNode %d [%s]", a.id, a.condition.Type)
}

// JoinKeys implements Node. Alpha nodes have no join-indexed memory of
// their own; grouping happens per child in the transport.
func (a *AlphaNode) JoinKeys() []string { return nil }

// Activate filters and maps facts to elements, then sends the elements
// right-wise to the children.
func (a *AlphaNode) Activate(p *Propagation, facts []rules.Fact) {
	elements := a.eval(facts)
	p.Transport.SendElements(p, elements, a.children)
}

// Retract emits the same elements as Activate for right-retraction.
func (a *AlphaNode) Retract(p *Propagation, facts []rules.Fact) {
	elements := a.eval(facts)
	p.Transport.RetractElements(p, elements, a.children)
}

func (a *AlphaNode) eval(facts []rules.Fact) []rules.Element {
	elements := make([]rules.Element, 0, len(facts))
	for _, f := range facts {
		bindings, ok := a.condition.Eval(f, a.env)
		if !ok {
			continue
		}
		elements = append(elements, rules.Element{Fact: f, Bindings: bindings})
	}
	return elements
}
