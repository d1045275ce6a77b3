package engine

import (
	"sync"

	"github.com/roach88/tercel/internal/rete"
)

// routingTable directs fact type tags to alpha nodes, expanding ancestors.
// It is the only place in the core that consults type information.
//
// The expansion for a tag is memoized for the lifetime of the session
// unless caching is disabled. Derived sessions share the table; the mutex
// makes the memo safe when sibling sessions run on different goroutines.
type routingTable struct {
	net       *rete.Network
	ancestors func(typeTag string) []string
	cache     bool

	mu   sync.Mutex
	memo map[string][]*rete.AlphaNode
}

func newRoutingTable(net *rete.Network, ancestors func(string) []string, cache bool) *routingTable {
	return &routingTable{
		net:       net,
		ancestors: ancestors,
		cache:     cache,
		memo:      make(map[string][]*rete.AlphaNode),
	}
}

// route returns the alpha nodes for a type tag and its ancestors.
func (rt *routingTable) route(typeTag string) []*rete.AlphaNode {
	if rt.cache {
		rt.mu.Lock()
		if nodes, ok := rt.memo[typeTag]; ok {
			rt.mu.Unlock()
			return nodes
		}
		rt.mu.Unlock()
	}

	nodes := rt.expand(typeTag)

	if rt.cache {
		rt.mu.Lock()
		rt.memo[typeTag] = nodes
		rt.mu.Unlock()
	}
	return nodes
}

func (rt *routingTable) expand(typeTag string) []*rete.AlphaNode {
	seen := make(map[int64]bool)
	var nodes []*rete.AlphaNode

	add := func(tag string) {
		for _, n := range rt.net.AlphaByType[tag] {
			if seen[n.ID()] {
				continue
			}
			seen[n.ID()] = true
			nodes = append(nodes, n)
		}
	}

	add(typeTag)
	for _, ancestor := range rt.ancestors(typeTag) {
		add(ancestor)
	}
	return nodes
}
