// Package listener defines the network-event listener contract and the
// implementations the core ships: a no-op listener, a fan-out over several
// listeners, and an in-memory trace listener.
//
// Listeners mirror working memory's persistent/transient split: a session
// holds Persistent listeners, converts them to Transient at the start of a
// public API call, and freezes them back when the call completes. Listeners
// observe the session; they must never mutate it back.
package listener

import (
	"github.com/roach88/tercel/internal/rules"
)

// Transient receives network events synchronously during one public API
// call. All callbacks return nothing; a listener cannot veto or alter the
// propagation it observes.
type Transient interface {
	InsertFacts(facts []rules.Fact)
	InsertFactsLogical(nodeID int64, token rules.Token, facts []rules.Fact)
	RetractFacts(facts []rules.Fact)
	LeftActivate(nodeID int64, joinBindings rules.Bindings, tokens []rules.Token)
	LeftRetract(nodeID int64, joinBindings rules.Bindings, tokens []rules.Token)
	RightActivate(nodeID int64, joinBindings rules.Bindings, elements []rules.Element)
	RightRetract(nodeID int64, joinBindings rules.Bindings, elements []rules.Element)
	AddActivations(nodeID int64, tokens []rules.Token)
	RemoveActivations(nodeID int64, tokens []rules.Token)
	AddAccumReduced(nodeID int64, joinBindings rules.Bindings, groupBindings rules.Bindings, value any)

	// ToPersistent freezes the listener back into its persistent form.
	ToPersistent() Persistent
}

// Persistent is the listener form held by an immutable session.
type Persistent interface {
	ToTransient() Transient
}
