package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tercel/internal/rules"
	"github.com/roach88/tercel/internal/testutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "trace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_WriteAndReadRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	events := []TraceEvent{
		{Seq: 1, Kind: "insert-facts", Count: 2, Detail: "a, b"},
		{Seq: 2, Kind: "left-activate", NodeID: 3, Count: 1},
	}
	require.NoError(t, s.WriteEvents(ctx, "run-1", events))

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, events, got)
}

func TestStore_ReadUnknownRunIsEmpty(t *testing.T) {
	s := openTestStore(t)

	got, err := s.ReadRun(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_DuplicateSeqRejected(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteEvents(ctx, "run-1", []TraceEvent{{Seq: 1, Kind: "insert-facts"}}))
	err := s.WriteEvents(ctx, "run-1", []TraceEvent{{Seq: 1, Kind: "insert-facts"}})
	assert.Error(t, err, "replaying the same (run, seq) must fail, not duplicate")
}

func TestStore_ListRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteEvents(ctx, "run-b", []TraceEvent{{Seq: 1, Kind: "k"}}))
	require.NoError(t, s.WriteEvents(ctx, "run-a", []TraceEvent{{Seq: 1, Kind: "k"}, {Seq: 2, Kind: "k"}}))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, RunInfo{RunToken: "run-a", Events: 2}, runs[0])
	assert.Equal(t, RunInfo{RunToken: "run-b", Events: 1}, runs[1])
}

func TestStore_OpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.WriteEvents(context.Background(), "run-1", []TraceEvent{{Seq: 1, Kind: "k"}}))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.ReadRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRecorder_FlushesOnToPersistent(t *testing.T) {
	s := openTestStore(t)
	nextToken := testutil.FixedRunTokens("run-fixed")
	rec := NewRecorder(s, nextToken(), nil)

	tt := rec.ToTransient()
	tt.InsertFacts([]rules.Fact{"f1"})
	tt.LeftActivate(7, rules.Bindings{}, []rules.Token{rules.EmptyToken()})
	frozen := tt.ToPersistent()

	require.NoError(t, rec.Err())
	assert.Same(t, rec, frozen)

	events, err := s.ReadRun(context.Background(), "run-fixed")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "insert-facts", events[0].Kind)
	assert.Equal(t, int64(1), events[0].Seq)
	assert.Equal(t, "left-activate", events[1].Kind)
	assert.Equal(t, int64(7), events[1].NodeID)
}

func TestRecorder_SequencesAcrossCalls(t *testing.T) {
	s := openTestStore(t)
	rec := NewRecorder(s, "run-seq", nil)

	tt := rec.ToTransient()
	tt.InsertFacts([]rules.Fact{"f1"})
	tt.ToPersistent()

	tt = rec.ToTransient()
	tt.InsertFacts([]rules.Fact{"f2"})
	tt.ToPersistent()

	events, err := s.ReadRun(context.Background(), "run-seq")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(1), events[0].Seq)
	assert.Equal(t, int64(2), events[1].Seq)
}

func TestNewRunToken_Unique(t *testing.T) {
	assert.NotEqual(t, NewRunToken(), NewRunToken())
}

func TestClock(t *testing.T) {
	c := NewClock()

	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())
}
