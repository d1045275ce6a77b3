package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/tercel/internal/listener"
	"github.com/roach88/tercel/internal/rules"
)

// NewRunToken generates a time-sortable UUIDv7 run token.
//
// UUIDv7 embeds a timestamp in the most significant bits, making tokens
// sortable by creation time, which is helpful when browsing recorded runs.
func NewRunToken() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Recorder is a persistent listener that appends network events to a
// Store, one batch per public session call. Attach it with
// engine.WithListeners to get a durable audit trail of a session's runs.
//
// Write failures do not interrupt the session; they are logged and kept in
// Err for the caller to inspect after the run.
type Recorder struct {
	store    *Store
	runToken string
	clock    *Clock
	logger   *slog.Logger

	mu      sync.Mutex
	lastErr error
}

// NewRecorder builds a recorder writing to store under runToken. An empty
// runToken gets a fresh UUIDv7.
func NewRecorder(store *Store, runToken string, logger *slog.Logger) *Recorder {
	if runToken == "" {
		runToken = NewRunToken()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:    store,
		runToken: runToken,
		clock:    NewClock(),
		logger:   logger,
	}
}

// RunToken returns the token this recorder writes under.
func (r *Recorder) RunToken() string { return r.runToken }

// Err returns the most recent write failure, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

func (r *Recorder) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastErr = err
}

// ToTransient implements listener.Persistent. The transient buffers events
// and flushes them in one transaction when the session call freezes it.
func (r *Recorder) ToTransient() listener.Transient {
	return &recorderTransient{recorder: r}
}

type recorderTransient struct {
	recorder *Recorder
	events   []TraceEvent
}

func (rt *recorderTransient) record(kind string, nodeID int64, count int, detail string) {
	rt.events = append(rt.events, TraceEvent{
		Seq:    rt.recorder.clock.Next(),
		Kind:   kind,
		NodeID: nodeID,
		Count:  count,
		Detail: detail,
	})
}

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

func (rt *recorderTransient) InsertFacts(facts []rules.Fact) {
	rt.record("insert-facts", 0, len(facts), renderFacts(facts))
}

func (rt *recorderTransient) InsertFactsLogical(nodeID int64, _ rules.Token, facts []rules.Fact) {
	rt.record("insert-facts-logical", nodeID, len(facts), renderFacts(facts))
}

func (rt *recorderTransient) RetractFacts(facts []rules.Fact) {
	rt.record("retract-facts", 0, len(facts), renderFacts(facts))
}

func (rt *recorderTransient) LeftActivate(nodeID int64, _ rules.Bindings, tokens []rules.Token) {
	rt.record("left-activate", nodeID, len(tokens), "")
}

func (rt *recorderTransient) LeftRetract(nodeID int64, _ rules.Bindings, tokens []rules.Token) {
	rt.record("left-retract", nodeID, len(tokens), "")
}

func (rt *recorderTransient) RightActivate(nodeID int64, _ rules.Bindings, elements []rules.Element) {
	rt.record("right-activate", nodeID, len(elements), "")
}

func (rt *recorderTransient) RightRetract(nodeID int64, _ rules.Bindings, elements []rules.Element) {
	rt.record("right-retract", nodeID, len(elements), "")
}

func (rt *recorderTransient) AddActivations(nodeID int64, tokens []rules.Token) {
	rt.record("add-activations", nodeID, len(tokens), "")
}

func (rt *recorderTransient) RemoveActivations(nodeID int64, tokens []rules.Token) {
	rt.record("remove-activations", nodeID, len(tokens), "")
}

func (rt *recorderTransient) AddAccumReduced(nodeID int64, _ rules.Bindings, _ rules.Bindings, value any) {
	rt.record("add-accum-reduced", nodeID, 1, fmt.Sprintf("%v", value))
}

// ToPersistent flushes the buffered events and returns the recorder.
func (rt *recorderTransient) ToPersistent() listener.Persistent {
	r := rt.recorder
	if err := r.store.WriteEvents(context.Background(), r.runToken, rt.events); err != nil {
		r.logger.Error("trace write failed", "run", r.runToken, "error", err)
		r.setErr(err)
	}
	return r
}
