package rete

import (
	"fmt"
	"slices"

	"github.com/roach88/tercel/internal/memory"
	"github.com/roach88/tercel/internal/rules"
)

// AccumulateNode reduces the facts matching its inner condition to a single
// value per binding group and binds the converted value downstream.
//
// Because the reduction is independent of the joining tokens, element
// batches are pre-reduced per group and merged with the combine function,
// keeping batch arrival order unobservable.
type AccumulateNode struct {
	id            int64
	children      []int64
	joinKeys      []string
	accum         *rules.Accumulator
	resultBinding string
}

// NewAccumulateNode builds a plain accumulate node.
func NewAccumulateNode(id int64, joinKeys []string, accum *rules.Accumulator, resultBinding string) *AccumulateNode {
	return &AccumulateNode{id: id, joinKeys: joinKeys, accum: accum, resultBinding: resultBinding}
}

// ID implements Node.
func (n *AccumulateNode) ID() int64 { return n.id }

// JoinKeys implements Node.
func (n *AccumulateNode) JoinKeys() []string { return n.joinKeys }

// Children returns the node's child ids.
func (n *AccumulateNode) Children() []int64 { return n.children }

// AddChild wires a child beta node.
func (n *AccumulateNode) AddChild(id int64) { n.children = appendChild(n.children, id) }

// Description implements Node.
func (n *AccumulateNode) Description() string {
	return fmt.Sprintf("AccumulateNode %d %v -> %s", n.id, n.joinKeys, n.resultBinding)
}

// hasInitial reports whether the accumulator can emit without any matching
// facts.
func (n *AccumulateNode) hasInitial() bool { return n.accum.InitialValue != nil }

// emittedToken builds the downstream token for a reduction. A nil converted
// value suppresses the token.
func (n *AccumulateNode) emittedToken(t rules.Token, group rules.Bindings, value any) (rules.Token, bool) {
	converted := n.accum.Convert(value)
	if converted == nil {
		return rules.Token{}, false
	}
	extra := rules.MergeBindings(group, rules.Bindings{n.resultBinding: converted})
	return t.Extend(converted, n.id, extra), true
}

// initialToken builds the token emitted when no facts match but the joining
// token already binds every join key.
func (n *AccumulateNode) initialToken(t rules.Token) (rules.Token, bool) {
	converted := n.accum.Convert(n.accum.InitialValue)
	if converted == nil {
		return rules.Token{}, false
	}
	return t.Extend(converted, n.id, rules.Bindings{n.resultBinding: converted}), true
}

// initialTokens builds initial tokens for every token that binds all join
// keys.
func (n *AccumulateNode) initialTokens(tokens []rules.Token) []rules.Token {
	if !n.hasInitial() {
		return nil
	}
	var out []rules.Token
	for _, t := range tokens {
		if !rules.BindsAll(t.Bindings, n.joinKeys) {
			continue
		}
		if tok, ok := n.initialToken(t); ok {
			out = append(out, tok)
		}
	}
	return out
}

// reductionTokens builds emitted tokens for every (token, reduction) pair,
// iterating reductions in sorted group-key order.
func (n *AccumulateNode) reductionTokens(tokens []rules.Token, reds map[string]memory.Reduction) []rules.Token {
	var out []rules.Token
	for _, gk := range sortedKeys(reds) {
		r := reds[gk]
		for _, t := range tokens {
			if tok, ok := n.emittedToken(t, r.GroupBindings, r.Value); ok {
				out = append(out, tok)
			}
		}
	}
	return out
}

// LeftActivate stores the tokens and emits either the stored reductions or,
// absent any, the initial value.
func (n *AccumulateNode) LeftActivate(p *Propagation, joinBindings rules.Bindings, tokens []rules.Token) {
	key := rules.BindingKey(joinBindings, n.joinKeys)
	p.Mem.AddTokens(n.id, key, tokens)
	p.Listener.LeftActivate(n.id, joinBindings, tokens)

	reds := p.Mem.Reductions(n.id, key)
	if len(reds) > 0 {
		p.Transport.SendTokens(p, n.reductionTokens(tokens, reds), n.children)
		return
	}
	p.Transport.SendTokens(p, n.initialTokens(tokens), n.children)
}

// LeftRetract removes the tokens and retracts whatever they carried
// downstream.
func (n *AccumulateNode) LeftRetract(p *Propagation, joinBindings rules.Bindings, tokens []rules.Token) {
	key := rules.BindingKey(joinBindings, n.joinKeys)
	removed := p.Mem.RemoveTokens(n.id, key, tokens)
	p.Listener.LeftRetract(n.id, joinBindings, removed)

	reds := p.Mem.Reductions(n.id, key)
	if len(reds) > 0 {
		p.Transport.RetractTokens(p, n.reductionTokens(removed, reds), n.children)
		return
	}
	p.Transport.RetractTokens(p, n.initialTokens(removed), n.children)
}

// PreReduce groups elements by their full bindings and reduces each group
// to a single value.
func (n *AccumulateNode) PreReduce(elements []rules.Element) []GroupReduction {
	type group struct {
		bindings rules.Bindings
		facts    []rules.Fact
	}
	byKey := make(map[string]*group)
	for _, e := range elements {
		gk := rules.FullBindingKey(e.Bindings)
		g := byKey[gk]
		if g == nil {
			g = &group{bindings: e.Bindings}
			byKey[gk] = g
		}
		g.facts = append(g.facts, e.Fact)
	}

	out := make([]GroupReduction, 0, len(byKey))
	for _, gk := range sortedKeys(byKey) {
		g := byKey[gk]
		out = append(out, GroupReduction{GroupBindings: g.bindings, Value: n.accum.ReduceAll(g.facts)})
	}
	return out
}

// RightActivate pre-reduces and delegates. The transport calls
// RightActivateReduced directly; this path serves direct callers.
func (n *AccumulateNode) RightActivate(p *Propagation, joinBindings rules.Bindings, elements []rules.Element) {
	n.RightActivateReduced(p, joinBindings, n.PreReduce(elements))
}

// RightActivateReduced merges pre-reduced batches into the stored
// reductions, swapping the downstream tokens from the old value to the new.
func (n *AccumulateNode) RightActivateReduced(p *Propagation, joinBindings rules.Bindings, reduced []GroupReduction) {
	if len(reduced) == 0 {
		return
	}
	key := rules.BindingKey(joinBindings, n.joinKeys)
	tokens := p.Mem.Tokens(n.id, key)

	// The first real reduction supersedes any initial-value tokens.
	if len(p.Mem.Reductions(n.id, key)) == 0 {
		p.Transport.RetractTokens(p, n.initialTokens(tokens), n.children)
	}

	for _, gr := range reduced {
		gk := rules.FullBindingKey(gr.GroupBindings)
		prev, had := p.Mem.GetReduction(n.id, key, gk)

		if had {
			var old []rules.Token
			for _, t := range tokens {
				if tok, ok := n.emittedToken(t, prev.GroupBindings, prev.Value); ok {
					old = append(old, tok)
				}
			}
			p.Transport.RetractTokens(p, old, n.children)
		}

		value := gr.Value
		if had {
			value = n.accum.Combine(prev.Value, gr.Value)
		}
		p.Mem.SetReduction(n.id, key, gk, memory.Reduction{GroupBindings: gr.GroupBindings, Value: value})
		p.Listener.AddAccumReduced(n.id, joinBindings, gr.GroupBindings, value)

		var fresh []rules.Token
		for _, t := range tokens {
			if tok, ok := n.emittedToken(t, gr.GroupBindings, value); ok {
				fresh = append(fresh, tok)
			}
		}
		p.Transport.SendTokens(p, fresh, n.children)
	}
}

// RightRetract recomputes the affected groups with the accumulator's
// retract function, swapping downstream tokens accordingly.
func (n *AccumulateNode) RightRetract(p *Propagation, joinBindings rules.Bindings, elements []rules.Element) {
	key := rules.BindingKey(joinBindings, n.joinKeys)
	tokens := p.Mem.Tokens(n.id, key)
	p.Listener.RightRetract(n.id, joinBindings, elements)

	removedGroup := false
	for _, g := range groupElementsByBindings(elements) {
		gk := rules.FullBindingKey(g.bindings)
		prev, had := p.Mem.GetReduction(n.id, key, gk)
		if !had {
			continue
		}

		var old []rules.Token
		for _, t := range tokens {
			if tok, ok := n.emittedToken(t, prev.GroupBindings, prev.Value); ok {
				old = append(old, tok)
			}
		}
		p.Transport.RetractTokens(p, old, n.children)

		value := prev.Value
		for _, f := range g.facts {
			value = n.accum.Retract(value, f)
		}

		if value == nil {
			p.Mem.RemoveReduction(n.id, key, gk)
			removedGroup = true
			continue
		}

		p.Mem.SetReduction(n.id, key, gk, memory.Reduction{GroupBindings: prev.GroupBindings, Value: value})
		var fresh []rules.Token
		for _, t := range tokens {
			if tok, ok := n.emittedToken(t, prev.GroupBindings, value); ok {
				fresh = append(fresh, tok)
			}
		}
		p.Transport.SendTokens(p, fresh, n.children)
	}

	// Back to no matching facts at all: the initial value speaks again.
	if removedGroup && len(p.Mem.Reductions(n.id, key)) == 0 {
		p.Transport.SendTokens(p, n.initialTokens(tokens), n.children)
	}
}

// AccumulateWithJoinFilterNode accumulates facts filtered by a predicate
// over the joining token's bindings. It cannot pre-reduce to one value per
// group, so memory keeps the raw candidate facts and every (token, group)
// pair re-accumulates on change.
type AccumulateWithJoinFilterNode struct {
	id            int64
	children      []int64
	joinKeys      []string
	accum         *rules.Accumulator
	resultBinding string
	joinFilter    func(tokenBindings rules.Bindings, candidate rules.Fact) bool
}

// NewAccumulateWithJoinFilterNode builds a filtered accumulate node.
func NewAccumulateWithJoinFilterNode(
	id int64,
	joinKeys []string,
	accum *rules.Accumulator,
	resultBinding string,
	joinFilter func(rules.Bindings, rules.Fact) bool,
) *AccumulateWithJoinFilterNode {
	return &AccumulateWithJoinFilterNode{
		id:            id,
		joinKeys:      joinKeys,
		accum:         accum,
		resultBinding: resultBinding,
		joinFilter:    joinFilter,
	}
}

// ID implements Node.
func (n *AccumulateWithJoinFilterNode) ID() int64 { return n.id }

// JoinKeys implements Node.
func (n *AccumulateWithJoinFilterNode) JoinKeys() []string { return n.joinKeys }

// Children returns the node's child ids.
func (n *AccumulateWithJoinFilterNode) Children() []int64 { return n.children }

// AddChild wires a child beta node.
func (n *AccumulateWithJoinFilterNode) AddChild(id int64) { n.children = appendChild(n.children, id) }

// Description implements Node.
func (n *AccumulateWithJoinFilterNode) Description() string {
	return fmt.Sprintf("AccumulateWithJoinFilterNode %d %v -> %s", n.id, n.joinKeys, n.resultBinding)
}

func (n *AccumulateWithJoinFilterNode) hasInitial() bool { return n.accum.InitialValue != nil }

// doAccumulate filters a group's candidates against the token, folds them,
// and builds the downstream token. A nil conversion suppresses it.
func (n *AccumulateWithJoinFilterNode) doAccumulate(t rules.Token, group rules.Bindings, candidates []rules.Fact) (rules.Token, bool) {
	filtered := make([]rules.Fact, 0, len(candidates))
	for _, f := range candidates {
		if n.joinFilter(t.Bindings, f) {
			filtered = append(filtered, f)
		}
	}
	converted := n.accum.Convert(n.accum.ReduceAll(filtered))
	if converted == nil {
		return rules.Token{}, false
	}
	extra := rules.MergeBindings(group, rules.Bindings{n.resultBinding: converted})
	return t.Extend(converted, n.id, extra), true
}

func (n *AccumulateWithJoinFilterNode) initialToken(t rules.Token) (rules.Token, bool) {
	converted := n.accum.Convert(n.accum.InitialValue)
	if converted == nil {
		return rules.Token{}, false
	}
	return t.Extend(converted, n.id, rules.Bindings{n.resultBinding: converted}), true
}

func (n *AccumulateWithJoinFilterNode) initialTokens(tokens []rules.Token) []rules.Token {
	if !n.hasInitial() {
		return nil
	}
	var out []rules.Token
	for _, t := range tokens {
		if !rules.BindsAll(t.Bindings, n.joinKeys) {
			continue
		}
		if tok, ok := n.initialToken(t); ok {
			out = append(out, tok)
		}
	}
	return out
}

// accumulatedTokens builds per-token tokens over every stored group, in
// sorted group-key order.
func (n *AccumulateWithJoinFilterNode) accumulatedTokens(tokens []rules.Token, reds map[string]memory.Reduction) []rules.Token {
	var out []rules.Token
	for _, gk := range sortedKeys(reds) {
		r := reds[gk]
		for _, t := range tokens {
			if tok, ok := n.doAccumulate(t, r.GroupBindings, r.Candidates); ok {
				out = append(out, tok)
			}
		}
	}
	return out
}

// LeftActivate stores the tokens and accumulates each against the stored
// candidate groups.
func (n *AccumulateWithJoinFilterNode) LeftActivate(p *Propagation, joinBindings rules.Bindings, tokens []rules.Token) {
	key := rules.BindingKey(joinBindings, n.joinKeys)
	p.Mem.AddTokens(n.id, key, tokens)
	p.Listener.LeftActivate(n.id, joinBindings, tokens)

	reds := p.Mem.Reductions(n.id, key)
	if len(reds) > 0 {
		p.Transport.SendTokens(p, n.accumulatedTokens(tokens, reds), n.children)
		return
	}
	p.Transport.SendTokens(p, n.initialTokens(tokens), n.children)
}

// LeftRetract removes the tokens and retracts their accumulated results.
func (n *AccumulateWithJoinFilterNode) LeftRetract(p *Propagation, joinBindings rules.Bindings, tokens []rules.Token) {
	key := rules.BindingKey(joinBindings, n.joinKeys)
	removed := p.Mem.RemoveTokens(n.id, key, tokens)
	p.Listener.LeftRetract(n.id, joinBindings, removed)

	reds := p.Mem.Reductions(n.id, key)
	if len(reds) > 0 {
		p.Transport.RetractTokens(p, n.accumulatedTokens(removed, reds), n.children)
		return
	}
	p.Transport.RetractTokens(p, n.initialTokens(removed), n.children)
}

// PreReduce groups elements by their full bindings without reducing; the
// filter depends on the joining token, so reduction waits for dispatch.
func (n *AccumulateWithJoinFilterNode) PreReduce(elements []rules.Element) []GroupReduction {
	out := make([]GroupReduction, 0, 1)
	for _, g := range groupElementsByBindings(elements) {
		out = append(out, GroupReduction{GroupBindings: g.bindings, Value: g.facts})
	}
	return out
}

// RightActivate pre-groups and delegates.
func (n *AccumulateWithJoinFilterNode) RightActivate(p *Propagation, joinBindings rules.Bindings, elements []rules.Element) {
	n.RightActivateReduced(p, joinBindings, n.PreReduce(elements))
}

// RightActivateReduced extends each group's candidate list, swapping every
// token's accumulated result from the old candidates to the new.
func (n *AccumulateWithJoinFilterNode) RightActivateReduced(p *Propagation, joinBindings rules.Bindings, reduced []GroupReduction) {
	if len(reduced) == 0 {
		return
	}
	key := rules.BindingKey(joinBindings, n.joinKeys)
	tokens := p.Mem.Tokens(n.id, key)

	if len(p.Mem.Reductions(n.id, key)) == 0 {
		p.Transport.RetractTokens(p, n.initialTokens(tokens), n.children)
	}

	for _, gr := range reduced {
		newFacts, ok := gr.Value.([]rules.Fact)
		if !ok {
			continue
		}
		gk := rules.FullBindingKey(gr.GroupBindings)
		prev, had := p.Mem.GetReduction(n.id, key, gk)

		if had {
			var old []rules.Token
			for _, t := range tokens {
				if tok, ok := n.doAccumulate(t, prev.GroupBindings, prev.Candidates); ok {
					old = append(old, tok)
				}
			}
			p.Transport.RetractTokens(p, old, n.children)
		}

		candidates := make([]rules.Fact, 0, len(prev.Candidates)+len(newFacts))
		candidates = append(candidates, prev.Candidates...)
		candidates = append(candidates, newFacts...)
		p.Mem.SetReduction(n.id, key, gk, memory.Reduction{GroupBindings: gr.GroupBindings, Candidates: candidates})
		p.Listener.AddAccumReduced(n.id, joinBindings, gr.GroupBindings, candidates)

		var fresh []rules.Token
		for _, t := range tokens {
			if tok, ok := n.doAccumulate(t, gr.GroupBindings, candidates); ok {
				fresh = append(fresh, tok)
			}
		}
		p.Transport.SendTokens(p, fresh, n.children)
	}
}

// RightRetract removes one occurrence of each retracted fact from its
// group, recomputing every token's previous and new accumulation.
func (n *AccumulateWithJoinFilterNode) RightRetract(p *Propagation, joinBindings rules.Bindings, elements []rules.Element) {
	key := rules.BindingKey(joinBindings, n.joinKeys)
	tokens := p.Mem.Tokens(n.id, key)
	p.Listener.RightRetract(n.id, joinBindings, elements)

	removedGroup := false
	for _, g := range groupElementsByBindings(elements) {
		gk := rules.FullBindingKey(g.bindings)
		prev, had := p.Mem.GetReduction(n.id, key, gk)
		if !had {
			continue
		}

		var old []rules.Token
		for _, t := range tokens {
			if tok, ok := n.doAccumulate(t, prev.GroupBindings, prev.Candidates); ok {
				old = append(old, tok)
			}
		}
		p.Transport.RetractTokens(p, old, n.children)

		candidates := slices.Clone(prev.Candidates)
		for _, f := range g.facts {
			for i := range candidates {
				if rules.FactEqual(candidates[i], f) {
					candidates = append(candidates[:i], candidates[i+1:]...)
					break
				}
			}
		}

		if len(candidates) == 0 {
			p.Mem.RemoveReduction(n.id, key, gk)
			removedGroup = true
			continue
		}

		p.Mem.SetReduction(n.id, key, gk, memory.Reduction{GroupBindings: prev.GroupBindings, Candidates: candidates})
		var fresh []rules.Token
		for _, t := range tokens {
			if tok, ok := n.doAccumulate(t, prev.GroupBindings, candidates); ok {
				fresh = append(fresh, tok)
			}
		}
		p.Transport.SendTokens(p, fresh, n.children)
	}

	if removedGroup && len(p.Mem.Reductions(n.id, key)) == 0 {
		p.Transport.SendTokens(p, n.initialTokens(tokens), n.children)
	}
}

type elementBindingGroup struct {
	bindings rules.Bindings
	facts    []rules.Fact
}

// groupElementsByBindings buckets elements by their full bindings, sorted
// by group fingerprint.
func groupElementsByBindings(elements []rules.Element) []elementBindingGroup {
	byKey := make(map[string]*elementBindingGroup)
	for _, e := range elements {
		gk := rules.FullBindingKey(e.Bindings)
		g := byKey[gk]
		if g == nil {
			g = &elementBindingGroup{bindings: e.Bindings}
			byKey[gk] = g
		}
		g.facts = append(g.facts, e.Fact)
	}

	out := make([]elementBindingGroup, 0, len(byKey))
	for _, gk := range sortedKeys(byKey) {
		out = append(out, *byKey[gk])
	}
	return out
}

// sortedKeys returns a map's keys in sorted order for deterministic
// iteration.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
