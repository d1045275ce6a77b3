package rete

import (
	"slices"

	"github.com/roach88/tercel/internal/rules"
)

// Transport routes elements and tokens to child nodes. Implementations
// group rows by each child's join keys before dispatch so that every node
// memory indexes consistently.
type Transport interface {
	SendElements(p *Propagation, elements []rules.Element, childIDs []int64)
	SendTokens(p *Propagation, tokens []rules.Token, childIDs []int64)
	RetractElements(p *Propagation, elements []rules.Element, childIDs []int64)
	RetractTokens(p *Propagation, tokens []rules.Token, childIDs []int64)
}

// LocalTransport dispatches synchronously on the calling goroutine. The
// session is single-threaded, so this is the only transport the core ships.
type LocalTransport struct{}

type elementGroup struct {
	key      string
	bindings rules.Bindings
	elements []rules.Element
}

type tokenGroup struct {
	key      string
	bindings rules.Bindings
	tokens   []rules.Token
}

// groupElements buckets elements by the binding fingerprint of the given
// join keys. Buckets come back sorted by fingerprint so dispatch order is
// deterministic.
func groupElements(elements []rules.Element, joinKeys []string) []elementGroup {
	byKey := make(map[string]*elementGroup)
	for _, e := range elements {
		key := rules.BindingKey(e.Bindings, joinKeys)
		g := byKey[key]
		if g == nil {
			g = &elementGroup{key: key, bindings: rules.RestrictBindings(e.Bindings, joinKeys)}
			byKey[key] = g
		}
		g.elements = append(g.elements, e)
	}
	return sortedGroups(byKey)
}

func groupTokens(tokens []rules.Token, joinKeys []string) []tokenGroup {
	byKey := make(map[string]*tokenGroup)
	for _, t := range tokens {
		key := rules.BindingKey(t.Bindings, joinKeys)
		g := byKey[key]
		if g == nil {
			g = &tokenGroup{key: key, bindings: rules.RestrictBindings(t.Bindings, joinKeys)}
			byKey[key] = g
		}
		g.tokens = append(g.tokens, t)
	}
	out := make([]tokenGroup, 0, len(byKey))
	for _, g := range byKey {
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b tokenGroup) int {
		switch {
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		default:
			return 0
		}
	})
	return out
}

func sortedGroups(byKey map[string]*elementGroup) []elementGroup {
	out := make([]elementGroup, 0, len(byKey))
	for _, g := range byKey {
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b elementGroup) int {
		switch {
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		default:
			return 0
		}
	})
	return out
}

// SendElements dispatches elements right-wise to each child, grouped by the
// child's join keys. Accumulator children receive pre-reduced batches.
func (LocalTransport) SendElements(p *Propagation, elements []rules.Element, childIDs []int64) {
	if len(elements) == 0 {
		return
	}
	for _, id := range childIDs {
		node := p.Net.Right(id)
		if accum, ok := node.(AccumRightActivation); ok {
			for _, g := range groupElements(elements, node.JoinKeys()) {
				accum.RightActivateReduced(p, g.bindings, accum.PreReduce(g.elements))
			}
			continue
		}
		for _, g := range groupElements(elements, node.JoinKeys()) {
			node.RightActivate(p, g.bindings, g.elements)
		}
	}
}

// SendTokens dispatches tokens left-wise to each child, grouped by the
// child's join keys.
func (LocalTransport) SendTokens(p *Propagation, tokens []rules.Token, childIDs []int64) {
	if len(tokens) == 0 {
		return
	}
	for _, id := range childIDs {
		node := p.Net.Left(id)
		for _, g := range groupTokens(tokens, node.JoinKeys()) {
			node.LeftActivate(p, g.bindings, g.tokens)
		}
	}
}

// RetractElements dispatches element retractions right-wise.
func (LocalTransport) RetractElements(p *Propagation, elements []rules.Element, childIDs []int64) {
	if len(elements) == 0 {
		return
	}
	for _, id := range childIDs {
		node := p.Net.Right(id)
		for _, g := range groupElements(elements, node.JoinKeys()) {
			node.RightRetract(p, g.bindings, g.elements)
		}
	}
}

// RetractTokens dispatches token retractions left-wise.
func (LocalTransport) RetractTokens(p *Propagation, tokens []rules.Token, childIDs []int64) {
	if len(tokens) == 0 {
		return
	}
	for _, id := range childIDs {
		node := p.Net.Left(id)
		for _, g := range groupTokens(tokens, node.JoinKeys()) {
			node.LeftRetract(p, g.bindings, g.tokens)
		}
	}
}
