package store

import (
	"context"
	"fmt"
)

// TraceEvent is one recorded network event.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	Kind   string `json:"kind"`
	NodeID int64  `json:"node_id"`
	Count  int    `json:"count"`
	Detail string `json:"detail,omitempty"`
}

// RunInfo summarizes a recorded run.
type RunInfo struct {
	RunToken string `json:"run_token"`
	Events   int    `json:"events"`
}

// ReadRun returns a run's events in sequence order.
func (s *Store) ReadRun(ctx context.Context, runToken string) ([]TraceEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, kind, node_id, count, detail
		 FROM trace_events
		 WHERE run_token = ?
		 ORDER BY seq ASC`, runToken)
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", runToken, err)
	}
	defer rows.Close()

	var events []TraceEvent
	for rows.Next() {
		var e TraceEvent
		if err := rows.Scan(&e.Seq, &e.Kind, &e.NodeID, &e.Count, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// ListRuns returns every recorded run with its event count, ordered by run
// token for deterministic output.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_token, COUNT(*)
		 FROM trace_events
		 GROUP BY run_token
		 ORDER BY run_token ASC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var r RunInfo
		if err := rows.Scan(&r.RunToken, &r.Events); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
