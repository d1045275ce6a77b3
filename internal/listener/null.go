package listener

import (
	"github.com/roach88/tercel/internal/rules"
)

// NullListener ignores every event. It is the default when a session is
// constructed without listeners.
type NullListener struct{}

// ToTransient implements Persistent.
func (NullListener) ToTransient() Transient { return nullTransient{} }

type nullTransient struct{}

func (nullTransient) InsertFacts([]rules.Fact)                                    {}
func (nullTransient) InsertFactsLogical(int64, rules.Token, []rules.Fact)         {}
func (nullTransient) RetractFacts([]rules.Fact)                                   {}
func (nullTransient) LeftActivate(int64, rules.Bindings, []rules.Token)           {}
func (nullTransient) LeftRetract(int64, rules.Bindings, []rules.Token)            {}
func (nullTransient) RightActivate(int64, rules.Bindings, []rules.Element)        {}
func (nullTransient) RightRetract(int64, rules.Bindings, []rules.Element)         {}
func (nullTransient) AddActivations(int64, []rules.Token)                         {}
func (nullTransient) RemoveActivations(int64, []rules.Token)                      {}
func (nullTransient) AddAccumReduced(int64, rules.Bindings, rules.Bindings, any)  {}
func (nullTransient) ToPersistent() Persistent                                    { return NullListener{} }
