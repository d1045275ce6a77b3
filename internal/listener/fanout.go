package listener

import (
	"github.com/roach88/tercel/internal/rules"
)

// Fanout multiplexes events over several persistent listeners, preserving
// their order across the persistent/transient round trip.
type Fanout struct {
	Listeners []Persistent
}

// NewFanout wraps listeners in a fan-out. An empty argument list behaves
// like NullListener.
func NewFanout(listeners ...Persistent) *Fanout {
	return &Fanout{Listeners: listeners}
}

// ToTransient implements Persistent.
func (f *Fanout) ToTransient() Transient {
	transients := make([]Transient, len(f.Listeners))
	for i, l := range f.Listeners {
		transients[i] = l.ToTransient()
	}
	return &fanoutTransient{transients: transients}
}

type fanoutTransient struct {
	transients []Transient
}

func (f *fanoutTransient) InsertFacts(facts []rules.Fact) {
	for _, t := range f.transients {
		t.InsertFacts(facts)
	}
}

func (f *fanoutTransient) InsertFactsLogical(nodeID int64, token rules.Token, facts []rules.Fact) {
	for _, t := range f.transients {
		t.InsertFactsLogical(nodeID, token, facts)
	}
}

func (f *fanoutTransient) RetractFacts(facts []rules.Fact) {
	for _, t := range f.transients {
		t.RetractFacts(facts)
	}
}

func (f *fanoutTransient) LeftActivate(nodeID int64, joinBindings rules.Bindings, tokens []rules.Token) {
	for _, t := range f.transients {
		t.LeftActivate(nodeID, joinBindings, tokens)
	}
}

func (f *fanoutTransient) LeftRetract(nodeID int64, joinBindings rules.Bindings, tokens []rules.Token) {
	for _, t := range f.transients {
		t.LeftRetract(nodeID, joinBindings, tokens)
	}
}

func (f *fanoutTransient) RightActivate(nodeID int64, joinBindings rules.Bindings, elements []rules.Element) {
	for _, t := range f.transients {
		t.RightActivate(nodeID, joinBindings, elements)
	}
}

func (f *fanoutTransient) RightRetract(nodeID int64, joinBindings rules.Bindings, elements []rules.Element) {
	for _, t := range f.transients {
		t.RightRetract(nodeID, joinBindings, elements)
	}
}

func (f *fanoutTransient) AddActivations(nodeID int64, tokens []rules.Token) {
	for _, t := range f.transients {
		t.AddActivations(nodeID, tokens)
	}
}

func (f *fanoutTransient) RemoveActivations(nodeID int64, tokens []rules.Token) {
	for _, t := range f.transients {
		t.RemoveActivations(nodeID, tokens)
	}
}

func (f *fanoutTransient) AddAccumReduced(nodeID int64, joinBindings, groupBindings rules.Bindings, value any) {
	for _, t := range f.transients {
		t.AddAccumReduced(nodeID, joinBindings, groupBindings, value)
	}
}

func (f *fanoutTransient) ToPersistent() Persistent {
	listeners := make([]Persistent, len(f.transients))
	for i, t := range f.transients {
		listeners[i] = t.ToPersistent()
	}
	return &Fanout{Listeners: listeners}
}
