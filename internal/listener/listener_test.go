package listener

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tercel/internal/rules"
)

func TestTrace_RecordsEvents(t *testing.T) {
	trace := NewTrace()

	tt := trace.ToTransient()
	tt.InsertFacts([]rules.Fact{"f1", "f2"})
	tt.LeftActivate(3, rules.Bindings{}, []rules.Token{rules.EmptyToken()})
	frozen := tt.ToPersistent().(*Trace)

	events := frozen.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "insert-facts", events[0].Kind)
	assert.Equal(t, 2, events[0].Count)
	assert.Equal(t, "left-activate", events[1].Kind)
	assert.Equal(t, int64(3), events[1].NodeID)
}

func TestTrace_PersistentSnapshotUnaffectedByTransient(t *testing.T) {
	trace := NewTrace()

	tt := trace.ToTransient()
	tt.InsertFacts([]rules.Fact{"f"})
	_ = tt.ToPersistent()

	assert.Empty(t, trace.Events(), "the original persistent trace must keep its history")
}

func TestFanout_DeliversToAll(t *testing.T) {
	a, b := NewTrace(), NewTrace()
	fan := NewFanout(a, b)

	tt := fan.ToTransient()
	tt.RetractFacts([]rules.Fact{"f"})
	frozen := tt.ToPersistent().(*Fanout)

	require.Len(t, frozen.Listeners, 2)
	for _, l := range frozen.Listeners {
		events := l.(*Trace).Events()
		require.Len(t, events, 1)
		assert.Equal(t, "retract-facts", events[0].Kind)
	}
}

func TestNullListener_RoundTrips(t *testing.T) {
	var p Persistent = NullListener{}

	tt := p.ToTransient()
	tt.InsertFacts([]rules.Fact{"ignored"})

	assert.NotNil(t, tt.ToPersistent())
}
