package rete

import (
	"fmt"

	"github.com/roach88/tercel/internal/memory"
	"github.com/roach88/tercel/internal/rules"
)

// ProductionNode is the terminal beta node of a rule variant. Arriving
// tokens become pending activations; departing tokens cancel pending
// activations and trigger truth-maintenance retraction of anything the rule
// logically inserted under them.
type ProductionNode struct {
	id   int64
	rule *rules.Rule
}

// NewProductionNode builds a production node bound to a rule.
func NewProductionNode(id int64, rule *rules.Rule) *ProductionNode {
	return &ProductionNode{id: id, rule: rule}
}

// ID implements Node.
func (n *ProductionNode) ID() int64 { return n.id }

// Rule returns the production's rule.
func (n *ProductionNode) Rule() *rules.Rule { return n.rule }

// JoinKeys implements Node. Productions group everything under one key.
func (n *ProductionNode) JoinKeys() []string { return nil }

// Description implements Node.
func (n *ProductionNode) Description() string {
	return fmt.Sprintf("ProductionNode %d [%s]", n.id, n.rule.Name)
}

// LeftActivate stores the tokens and queues activations, unless the rule is
// no-loop and is the one currently firing.
func (n *ProductionNode) LeftActivate(p *Propagation, joinBindings rules.Bindings, tokens []rules.Token) {
	p.Mem.AddProductionTokens(n.id, tokens)
	p.Listener.LeftActivate(n.id, joinBindings, tokens)

	if n.rule.NoLoop && p.FiringNodeID == n.id {
		return
	}

	group := p.Group(n.rule)
	activations := make([]memory.Activation, 0, len(tokens))
	for _, t := range tokens {
		activations = append(activations, memory.Activation{NodeID: n.id, Token: t, Group: group})
	}
	p.Mem.Queue().Add(activations)
	p.Listener.AddActivations(n.id, tokens)
}

// LeftRetract cancels still-pending activations, evicts the stored tokens,
// then retracts every fact logically inserted under them. The retraction
// sink may cascade into further production retractions.
func (n *ProductionNode) LeftRetract(p *Propagation, joinBindings rules.Bindings, tokens []rules.Token) {
	removed := p.Mem.RemoveProductionTokens(n.id, tokens)
	p.Listener.LeftRetract(n.id, joinBindings, removed)

	if cancelled := p.Mem.Queue().Remove(n.id, removed); len(cancelled) > 0 {
		cancelledTokens := make([]rules.Token, 0, len(cancelled))
		for _, act := range cancelled {
			cancelledTokens = append(cancelledTokens, act.Token)
		}
		p.Listener.RemoveActivations(n.id, cancelledTokens)
	}

	for _, t := range removed {
		for _, batch := range p.Mem.TakeSupport(n.id, rules.TokenKey(t)) {
			p.RetractFacts(batch)
		}
	}
}

// QueryNode is the terminal beta node of a query variant. Tokens are
// indexed by the query's parameter bindings for parameterized lookup.
type QueryNode struct {
	id    int64
	query *rules.Query
}

// NewQueryNode builds a query node.
func NewQueryNode(id int64, query *rules.Query) *QueryNode {
	return &QueryNode{id: id, query: query}
}

// ID implements Node.
func (n *QueryNode) ID() int64 { return n.id }

// Query returns the node's query.
func (n *QueryNode) Query() *rules.Query { return n.query }

// JoinKeys implements Node: the query's parameter names, so the transport
// groups arriving tokens exactly the way lookups index them.
func (n *QueryNode) JoinKeys() []string { return n.query.Params }

// Description implements Node.
func (n *QueryNode) Description() string {
	return fmt.Sprintf("QueryNode %d [%s]", n.id, n.query.Name)
}

// LeftActivate stores the tokens under their parameter bindings.
func (n *QueryNode) LeftActivate(p *Propagation, joinBindings rules.Bindings, tokens []rules.Token) {
	key := rules.BindingKey(joinBindings, n.query.Params)
	p.Mem.AddTokens(n.id, key, tokens)
	p.Listener.LeftActivate(n.id, joinBindings, tokens)
}

// LeftRetract removes the tokens.
func (n *QueryNode) LeftRetract(p *Propagation, joinBindings rules.Bindings, tokens []rules.Token) {
	removed := p.Mem.RemoveTokens(n.id, rules.BindingKey(joinBindings, n.query.Params), tokens)
	p.Listener.LeftRetract(n.id, joinBindings, removed)
}
