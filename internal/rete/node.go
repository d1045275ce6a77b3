package rete

import (
	"github.com/roach88/tercel/internal/listener"
	"github.com/roach88/tercel/internal/memory"
	"github.com/roach88/tercel/internal/rules"
)

// Node is the base capability every network node exposes.
type Node interface {
	// ID is the node's stable arena id, assigned at network construction.
	ID() int64

	// JoinKeys lists the binding variables this node's memories are indexed
	// by. The transport groups rows by these keys before dispatch. Terminal
	// nodes with no join semantics return nil; query nodes return their
	// parameter names.
	JoinKeys() []string

	// Description renders the node for diagnostics and trace output.
	Description() string
}

// LeftActivation is the capability of nodes that receive tokens from above.
type LeftActivation interface {
	Node
	LeftActivate(p *Propagation, joinBindings rules.Bindings, tokens []rules.Token)
	LeftRetract(p *Propagation, joinBindings rules.Bindings, tokens []rules.Token)
}

// RightActivation is the capability of nodes fed elements by an alpha node.
type RightActivation interface {
	Node
	RightActivate(p *Propagation, joinBindings rules.Bindings, elements []rules.Element)
	RightRetract(p *Propagation, joinBindings rules.Bindings, elements []rules.Element)
}

// GroupReduction is one pre-reduced accumulator batch: the full bindings of
// the contributing elements plus their reduced value.
type GroupReduction struct {
	GroupBindings rules.Bindings
	Value         any
}

// AccumRightActivation is the capability restricted to the two accumulator
// variants: batches are pre-reduced independently of tokens so that combine
// stays associative across batches.
type AccumRightActivation interface {
	RightActivation
	PreReduce(elements []rules.Element) []GroupReduction
	RightActivateReduced(p *Propagation, joinBindings rules.Bindings, reduced []GroupReduction)
}

// Network is the compiled, read-only rulebase: the node arena plus the
// lookup tables the session needs.
type Network struct {
	// Nodes is the arena. All cross-node references go through ids.
	Nodes map[int64]Node

	// AlphaByType routes fact type tags to the alpha nodes that evaluate
	// conditions of that type. Ancestor expansion happens in the session's
	// routing layer, not here.
	AlphaByType map[string][]*AlphaNode

	// RuleByNode maps each production node id to its rule.
	RuleByNode map[int64]*rules.Rule

	// QueryNodesByName maps a normalized query name to the query node ids
	// its variants terminate in.
	QueryNodesByName map[string][]int64

	// QueryNodesByIdentity maps a query value to its node ids.
	QueryNodesByIdentity map[*rules.Query][]int64
}

// NewNetwork returns an empty network for the compiler to populate.
func NewNetwork() *Network {
	return &Network{
		Nodes:                make(map[int64]Node),
		AlphaByType:          make(map[string][]*AlphaNode),
		RuleByNode:           make(map[int64]*rules.Rule),
		QueryNodesByName:     make(map[string][]int64),
		QueryNodesByIdentity: make(map[*rules.Query][]int64),
	}
}

// AddNode places a node in the arena.
func (n *Network) AddNode(node Node) {
	n.Nodes[node.ID()] = node
}

// Left resolves a child id to its left-activation capability. The compiler
// only wires ids that satisfy the capability, so failure here is a
// programming error and panics.
func (n *Network) Left(id int64) LeftActivation {
	node, ok := n.Nodes[id].(LeftActivation)
	if !ok {
		panic("rete: node is not left-activatable")
	}
	return node
}

// Right resolves a child id to its right-activation capability.
func (n *Network) Right(id int64) RightActivation {
	node, ok := n.Nodes[id].(RightActivation)
	if !ok {
		panic("rete: node is not right-activatable")
	}
	return node
}

// GroupFn assigns an activation group value to a rule. The engine installs
// the session's activation-group function here.
type GroupFn func(r *rules.Rule) any

// Propagation carries the per-call state node operations need. It is built
// by the session at the start of every public API call and never outlives
// the call.
type Propagation struct {
	Net       *Network
	Mem       *memory.Transient
	Transport Transport
	Listener  listener.Transient

	// Group assigns activation group values when production nodes enqueue.
	Group GroupFn

	// RetractFacts is the truth-maintenance sink: production nodes hand the
	// facts whose support vanished to the session, which alpha-retracts
	// them after the current propagation completes.
	RetractFacts func(facts []rules.Fact)

	// FiringNodeID is the production node currently running its RHS, or 0.
	// Production nodes consult it for no-loop suppression.
	FiringNodeID int64
}
