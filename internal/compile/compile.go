package compile

import (
	"slices"
	"strings"

	"github.com/roach88/tercel/internal/rete"
	"github.com/roach88/tercel/internal/rules"
)

// childAdder is satisfied by every non-terminal node kind.
type childAdder interface {
	AddChild(id int64)
}

// betaKey identifies a shareable beta node: same parent, same condition
// value. Condition identity is pointer identity; authors who reuse one
// condition value across rules get network sharing for free.
type betaKey struct {
	parent int64
	cond   rules.Condition
}

type builder struct {
	net        *rete.Network
	nextID     int64
	alphaShare map[*rules.TypeCondition]*rete.AlphaNode
	betaShare  map[betaKey]int64

	// initialCond anchors variants that open without a plain type
	// condition. One shared value keeps one shared beta root.
	initialCond *rules.TypeCondition
}

// NewRulebase compiles rules and queries into a network. Productions must
// be *rules.Rule or *rules.Query values.
func NewRulebase(productions ...any) (*rete.Network, error) {
	b := &builder{
		net:         rete.NewNetwork(),
		alphaShare:  make(map[*rules.TypeCondition]*rete.AlphaNode),
		betaShare:   make(map[betaKey]int64),
		initialCond: &rules.TypeCondition{Type: rules.InitialFactType},
	}

	for _, p := range productions {
		switch prod := p.(type) {
		case *rules.Rule:
			if err := b.addRule(prod); err != nil {
				return nil, err
			}
		case *rules.Query:
			if err := b.addQuery(prod); err != nil {
				return nil, err
			}
		default:
			return nil, invalidRule("", "unsupported production type %T", p)
		}
	}

	return b.net, nil
}

func (b *builder) newID() int64 {
	b.nextID++
	return b.nextID
}

func (b *builder) addRule(r *rules.Rule) error {
	if r.Name == "" {
		return invalidRule("", "rule has no name")
	}
	if r.RHS == nil {
		return invalidRule(r.Name, "rule has no RHS action")
	}

	variants, err := rules.ToDNF(r.LHS)
	if err != nil {
		return invalidRule(r.Name, "%s", err.Error())
	}

	for _, variant := range variants {
		parent, _, err := b.buildVariant(r.Name, variant)
		if err != nil {
			return err
		}
		node := rete.NewProductionNode(b.newID(), r)
		b.net.AddNode(node)
		b.net.RuleByNode[node.ID()] = r
		b.wireChild(parent, node.ID())
	}
	return nil
}

func (b *builder) addQuery(q *rules.Query) error {
	if q.Name == "" {
		return invalidRule("", "query has no name")
	}
	for _, param := range q.Params {
		if !strings.HasPrefix(param, "?") {
			return invalidRule(q.Name, "query parameter %q lacks the ? prefix", param)
		}
	}

	variants, err := rules.ToDNF(q.LHS)
	if err != nil {
		return invalidRule(q.Name, "%s", err.Error())
	}

	name := rules.NormalizeName(q.Name)
	for _, variant := range variants {
		parent, bound, err := b.buildVariant(q.Name, variant)
		if err != nil {
			return err
		}
		for _, param := range q.Params {
			if !bound[param] {
				return invalidRule(q.Name, "query parameter %q has no binding source", param)
			}
		}
		node := rete.NewQueryNode(b.newID(), q)
		b.net.AddNode(node)
		b.net.QueryNodesByName[name] = append(b.net.QueryNodesByName[name], node.ID())
		b.net.QueryNodesByIdentity[q] = append(b.net.QueryNodesByIdentity[q], node.ID())
		b.wireChild(parent, node.ID())
	}
	return nil
}

// buildVariant walks one flat condition sequence, creating or sharing the
// beta path. It returns the terminal parent id and the set of variables the
// path binds.
func (b *builder) buildVariant(production string, conds []rules.Condition) (int64, map[string]bool, error) {
	// Anchor variants that cannot seed the beta root themselves.
	if len(conds) == 0 || !isTypeCondition(conds[0]) {
		anchored := make([]rules.Condition, 0, len(conds)+1)
		anchored = append(anchored, b.initialCond)
		anchored = append(anchored, conds...)
		conds = anchored
	}

	parent := int64(0)
	bound := make(map[string]bool)

	for _, c := range conds {
		switch cond := c.(type) {
		case *rules.TypeCondition:
			id, shared := b.shareBeta(parent, cond)
			if !shared {
				if parent == 0 {
					node := rete.NewRootJoinNode(id, nil)
					b.net.AddNode(node)
				} else {
					node := rete.NewJoinNode(id, joinKeysFor(cond.Binds, bound))
					b.net.AddNode(node)
					b.wireChild(parent, id)
				}
				b.alphaFor(cond).AddChild(id)
			}
			parent = id
			for _, v := range cond.Binds {
				bound[v] = true
			}

		case *rules.NegationCondition:
			if cond.Inner == nil {
				return 0, nil, invalidRule(production, "negation has no inner condition")
			}
			id, shared := b.shareBeta(parent, cond)
			if !shared {
				node := rete.NewNegationNode(id, joinKeysFor(cond.Inner.Binds, bound))
				b.net.AddNode(node)
				b.wireChild(parent, id)
				b.alphaFor(cond.Inner).AddChild(id)
			}
			parent = id

		case *rules.TestCondition:
			if cond.Pred == nil {
				return 0, nil, invalidRule(production, "test condition has no predicate")
			}
			for _, v := range cond.Uses {
				if !bound[v] {
					return 0, nil, invalidRule(production, "test references %q with no binding source", v)
				}
			}
			id, shared := b.shareBeta(parent, cond)
			if !shared {
				node := rete.NewTestNode(id, cond)
				b.net.AddNode(node)
				b.wireChild(parent, id)
			}
			parent = id

		case *rules.AccumulateCondition:
			if err := validateAccumulate(production, cond); err != nil {
				return 0, nil, err
			}
			id, shared := b.shareBeta(parent, cond)
			if !shared {
				joinKeys := joinKeysFor(cond.From.Binds, bound)
				if cond.JoinFilter != nil {
					node := rete.NewAccumulateWithJoinFilterNode(id, joinKeys, cond.Accum, cond.ResultBinding, cond.JoinFilter)
					b.net.AddNode(node)
				} else {
					node := rete.NewAccumulateNode(id, joinKeys, cond.Accum, cond.ResultBinding)
					b.net.AddNode(node)
				}
				b.wireChild(parent, id)
				b.alphaFor(cond.From).AddChild(id)
			}
			parent = id
			for _, v := range cond.From.Binds {
				bound[v] = true
			}
			bound[cond.ResultBinding] = true

		default:
			return 0, nil, invalidRule(production, "unexpected condition type %T after normalization", c)
		}
	}

	return parent, bound, nil
}

func validateAccumulate(production string, cond *rules.AccumulateCondition) error {
	if cond.From == nil {
		return invalidAccumulator(production, "accumulator has no inner condition")
	}
	if cond.Accum == nil || cond.Accum.Reduce == nil {
		return invalidAccumulator(production, "accumulator has no reduce function")
	}
	if cond.ResultBinding == "" {
		return invalidAccumulator(production, "accumulator has no result binding")
	}
	if !strings.HasPrefix(cond.ResultBinding, "?") {
		return invalidAccumulator(production, "accumulator result binding %q lacks the ? prefix", cond.ResultBinding)
	}
	return nil
}

// shareBeta returns the node id for (parent, cond), reusing an existing
// path segment when one exists. The second result reports reuse.
func (b *builder) shareBeta(parent int64, cond rules.Condition) (int64, bool) {
	key := betaKey{parent: parent, cond: cond}
	if id, ok := b.betaShare[key]; ok {
		return id, true
	}
	id := b.newID()
	b.betaShare[key] = id
	return id, false
}

// alphaFor returns the alpha node for a condition, creating and routing it
// on first use.
func (b *builder) alphaFor(cond *rules.TypeCondition) *rete.AlphaNode {
	if node, ok := b.alphaShare[cond]; ok {
		return node
	}
	node := rete.NewAlphaNode(b.newID(), cond, rules.Bindings{})
	b.alphaShare[cond] = node
	b.net.AlphaByType[cond.Type] = append(b.net.AlphaByType[cond.Type], node)
	return node
}

// wireChild appends child to parent's children. Parent 0 is the virtual
// pre-root and has no node.
func (b *builder) wireChild(parent, child int64) {
	if parent == 0 {
		return
	}
	node, ok := b.net.Nodes[parent].(childAdder)
	if !ok {
		panic("compile: parent node cannot take children")
	}
	node.AddChild(child)
}

// joinKeysFor returns the sorted intersection of a condition's bindings and
// the variables already bound on the path.
func joinKeysFor(binds []string, bound map[string]bool) []string {
	var keys []string
	for _, v := range binds {
		if bound[v] {
			keys = append(keys, v)
		}
	}
	slices.Sort(keys)
	return keys
}

func isTypeCondition(c rules.Condition) bool {
	_, ok := c.(*rules.TypeCondition)
	return ok
}
