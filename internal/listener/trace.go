package listener

import (
	"fmt"
	"slices"

	"github.com/roach88/tercel/internal/rules"
)

// Event is one recorded network event. Detail is a deterministic rendering
// of the event's payload, suitable for golden-file comparison.
type Event struct {
	Kind   string `json:"kind"`
	NodeID int64  `json:"node_id"`
	Count  int    `json:"count"`
	Detail string `json:"detail,omitempty"`
}

// Trace accumulates events in memory. It is cheap enough to attach in tests
// and is the listener the harness records each scenario run with; the
// harness golden files hold query results, not these events.
type Trace struct {
	events []Event
}

// NewTrace returns an empty trace listener.
func NewTrace() *Trace {
	return &Trace{}
}

// Events returns the recorded events in arrival order.
func (tr *Trace) Events() []Event {
	return tr.events
}

// ToTransient implements Persistent. The transient appends to a copy, so a
// session holding the old persistent trace keeps its shorter history.
func (tr *Trace) ToTransient() Transient {
	return &traceTransient{events: slices.Clone(tr.events)}
}

type traceTransient struct {
	events []Event
}

func (tt *traceTransient) record(kind string, nodeID int64, count int, detail string) {
	tt.events = append(tt.events, Event{Kind: kind, NodeID: nodeID, Count: count, Detail: detail})
}

// renderFacts renders facts deterministically. fmt sorts map keys, so plain
// value rendering is stable.
func renderFacts(facts []rules.Fact) string {
	var out string
	for i, f := range facts {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%T%v", f, f)
	}
	return out
}

func (tt *traceTransient) InsertFacts(facts []rules.Fact) {
	tt.record("insert-facts", 0, len(facts), renderFacts(facts))
}

func (tt *traceTransient) InsertFactsLogical(nodeID int64, _ rules.Token, facts []rules.Fact) {
	tt.record("insert-facts-logical", nodeID, len(facts), renderFacts(facts))
}

func (tt *traceTransient) RetractFacts(facts []rules.Fact) {
	tt.record("retract-facts", 0, len(facts), renderFacts(facts))
}

func (tt *traceTransient) LeftActivate(nodeID int64, _ rules.Bindings, tokens []rules.Token) {
	tt.record("left-activate", nodeID, len(tokens), "")
}

func (tt *traceTransient) LeftRetract(nodeID int64, _ rules.Bindings, tokens []rules.Token) {
	tt.record("left-retract", nodeID, len(tokens), "")
}

func (tt *traceTransient) RightActivate(nodeID int64, _ rules.Bindings, elements []rules.Element) {
	tt.record("right-activate", nodeID, len(elements), "")
}

func (tt *traceTransient) RightRetract(nodeID int64, _ rules.Bindings, elements []rules.Element) {
	tt.record("right-retract", nodeID, len(elements), "")
}

func (tt *traceTransient) AddActivations(nodeID int64, tokens []rules.Token) {
	tt.record("add-activations", nodeID, len(tokens), "")
}

func (tt *traceTransient) RemoveActivations(nodeID int64, tokens []rules.Token) {
	tt.record("remove-activations", nodeID, len(tokens), "")
}

func (tt *traceTransient) AddAccumReduced(nodeID int64, _ rules.Bindings, groupBindings rules.Bindings, value any) {
	tt.record("add-accum-reduced", nodeID, 1, fmt.Sprintf("%v", value))
}

func (tt *traceTransient) ToPersistent() Persistent {
	return &Trace{events: tt.events}
}
