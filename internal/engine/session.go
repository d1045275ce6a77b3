package engine

import (
	"github.com/roach88/tercel/internal/listener"
	"github.com/roach88/tercel/internal/memory"
	"github.com/roach88/tercel/internal/rete"
	"github.com/roach88/tercel/internal/rules"
)

// Session is an immutable handle over a compiled network and a persistent
// working-memory snapshot. Mutating operations return new sessions; any
// prior handle remains valid and unchanged.
type Session struct {
	net       *rete.Network
	mem       *memory.Memory
	lis       listener.Persistent
	transport rete.Transport
	cfg       config
	routing   *routingTable
}

// NewSession builds a session over a compiled network and inserts the
// anchor fact that seeds variants without a leading type condition.
func NewSession(net *rete.Network, opts ...Option) *Session {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var lis listener.Persistent
	switch len(cfg.listeners) {
	case 0:
		lis = listener.NullListener{}
	case 1:
		lis = cfg.listeners[0]
	default:
		lis = listener.NewFanout(cfg.listeners...)
	}

	s := &Session{
		net:       net,
		mem:       memory.NewMemory(),
		lis:       lis,
		transport: rete.LocalTransport{},
		cfg:       cfg,
		routing:   newRoutingTable(net, cfg.ancestors, cfg.cache),
	}
	return s.Insert(rules.InitialFact{})
}

// Insert adds facts to working memory, activating the alpha network, and
// returns the resulting session.
func (s *Session) Insert(facts ...rules.Fact) *Session {
	if len(facts) == 0 {
		return s
	}
	s.cfg.logger.Debug("insert", "facts", len(facts))

	t := s.begin()
	t.lis.InsertFacts(facts)
	t.routeActivate(facts)
	t.drainCascade()
	return s.freeze(t)
}

// Retract removes fact instances equal to the arguments. Retracting a fact
// that is not present is a no-op, not an error.
func (s *Session) Retract(facts ...rules.Fact) *Session {
	if len(facts) == 0 {
		return s
	}
	s.cfg.logger.Debug("retract", "facts", len(facts))

	t := s.begin()
	t.retractBatch(facts)
	t.drainCascade()
	return s.freeze(t)
}

// Query runs a query by identity (*rules.Query) or fully qualified name,
// returning the public bindings of every stored token whose parameter
// values match params. Params keys carry the leading "?".
func (s *Session) Query(q any, params map[string]any) ([]rules.Bindings, error) {
	var (
		nodeIDs []int64
		query   *rules.Query
	)

	switch qv := q.(type) {
	case *rules.Query:
		nodeIDs = s.net.QueryNodesByIdentity[qv]
		query = qv
		if len(nodeIDs) == 0 {
			return nil, invalidQuery(qv.Name, "query is not in the rulebase")
		}
	case string:
		nodeIDs = s.net.QueryNodesByName[rules.NormalizeName(qv)]
		if len(nodeIDs) == 0 {
			return nil, invalidQuery(qv, "no query with this name in the rulebase")
		}
		query = s.net.Nodes[nodeIDs[0]].(*rete.QueryNode).Query()
	default:
		return nil, invalidQuery("", "query must be a *rules.Query or a name, got %T", q)
	}

	bindings := make(rules.Bindings, len(params))
	for k, v := range params {
		if !containsParam(query.Params, k) {
			return nil, invalidQuery(query.Name, "unknown query parameter %q", k)
		}
		bindings[k] = v
	}
	for _, p := range query.Params {
		if _, ok := bindings[p]; !ok {
			return nil, invalidQuery(query.Name, "missing query parameter %q", p)
		}
	}

	key := rules.BindingKey(bindings, query.Params)
	var results []rules.Bindings
	for _, id := range nodeIDs {
		for _, tok := range s.mem.Tokens(id, key) {
			results = append(results, rules.PublicBindings(tok.Bindings))
		}
	}
	return results, nil
}

// Components exposes the session's constituent parts for introspection.
type Components struct {
	Rulebase  *rete.Network
	Memory    *memory.Memory
	Transport rete.Transport
	Listeners []listener.Persistent
	RoutingFn func(typeTag string) []*rete.AlphaNode
}

// Components returns the session's parts. Introspection only; mutating the
// returned values is undefined behavior.
func (s *Session) Components() Components {
	var listeners []listener.Persistent
	if fan, ok := s.lis.(*listener.Fanout); ok {
		listeners = fan.Listeners
	} else if _, isNull := s.lis.(listener.NullListener); !isNull {
		listeners = []listener.Persistent{s.lis}
	}
	return Components{
		Rulebase:  s.net,
		Memory:    s.mem,
		Transport: s.transport,
		Listeners: listeners,
		RoutingFn: s.routing.route,
	}
}

func containsParam(params []string, p string) bool {
	for _, candidate := range params {
		if candidate == p {
			return true
		}
	}
	return false
}

// begin clones the session state into a transient for one public call.
func (s *Session) begin() *transient {
	t := &transient{
		s:   s,
		mem: s.mem.ToTransient(),
		lis: s.lis.ToTransient(),
	}
	t.prop = &rete.Propagation{
		Net:       s.net,
		Mem:       t.mem,
		Transport: s.transport,
		Listener:  t.lis,
		Group:     func(r *rules.Rule) any { return s.cfg.groupFn(r) },
		RetractFacts: func(facts []rules.Fact) {
			t.cascade = append(t.cascade, facts)
		},
	}
	return t
}

// freeze turns a transient back into an immutable session.
func (s *Session) freeze(t *transient) *Session {
	return &Session{
		net:       s.net,
		mem:       t.mem.ToPersistent(),
		lis:       t.lis.ToPersistent(),
		transport: s.transport,
		cfg:       s.cfg,
		routing:   s.routing,
	}
}

// transient carries the mutable state of one public API call.
type transient struct {
	s    *Session
	mem  *memory.Transient
	lis  listener.Transient
	prop *rete.Propagation

	// cascade buffers truth-maintenance retractions produced during a
	// propagation, drained to a fixed point before the call returns.
	cascade [][]rules.Fact

	// pending buffers RHS operations between flush points of the firing
	// loop.
	pending []pendingOp
}

// typeTag resolves a fact's routing tag, keeping the anchor fact on its
// reserved tag regardless of the configured fact-type function.
func (t *transient) typeTag(f rules.Fact) string {
	if _, ok := f.(rules.InitialFact); ok {
		return rules.InitialFactType
	}
	return t.s.cfg.factType(f)
}

// routeActivate sends facts through the alpha network, grouped by type.
func (t *transient) routeActivate(facts []rules.Fact) {
	for _, g := range t.groupByType(facts) {
		for _, alpha := range t.s.routing.route(g.tag) {
			alpha.Activate(t.prop, g.facts)
		}
	}
}

// routeRetract sends fact retractions through the alpha network.
func (t *transient) routeRetract(facts []rules.Fact) {
	for _, g := range t.groupByType(facts) {
		for _, alpha := range t.s.routing.route(g.tag) {
			alpha.Retract(t.prop, g.facts)
		}
	}
}

type typeGroup struct {
	tag   string
	facts []rules.Fact
}

// groupByType buckets facts by routing tag, preserving first-seen order.
func (t *transient) groupByType(facts []rules.Fact) []typeGroup {
	index := make(map[string]int)
	var groups []typeGroup
	for _, f := range facts {
		tag := t.typeTag(f)
		i, ok := index[tag]
		if !ok {
			i = len(groups)
			index[tag] = i
			groups = append(groups, typeGroup{tag: tag})
		}
		groups[i].facts = append(groups[i].facts, f)
	}
	return groups
}

// retractBatch retracts one batch of facts, notifying listeners.
func (t *transient) retractBatch(facts []rules.Fact) {
	t.lis.RetractFacts(facts)
	t.routeRetract(facts)
}

// drainCascade processes truth-maintenance retractions until none remain.
// Each batch may enqueue further batches through the retraction sink.
func (t *transient) drainCascade() {
	for len(t.cascade) > 0 {
		batch := t.cascade[0]
		t.cascade = t.cascade[1:]
		t.retractBatch(batch)
	}
}
