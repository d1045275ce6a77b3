package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/roach88/tercel/internal/harness"
	"github.com/roach88/tercel/internal/store"
)

// printResult renders a scenario result in the requested format.
func printResult(w io.Writer, format string, result *harness.Result) error {
	if format == "json" {
		return printJSON(w, result)
	}

	fmt.Fprintf(w, "scenario: %s\n", result.Scenario)
	for _, qr := range result.Queries {
		fmt.Fprintf(w, "query %s (step %d): %d row(s)\n", qr.Query, qr.Step, len(qr.Rows))
		for _, row := range qr.Rows {
			keys := make([]string, 0, len(row))
			for k := range row {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprint(w, "  ")
			for i, k := range keys {
				if i > 0 {
					fmt.Fprint(w, "  ")
				}
				fmt.Fprintf(w, "%s=%s", k, row[k])
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}

// printRuns renders a trace database's run listing.
func printRuns(w io.Writer, format string, runs []store.RunInfo) error {
	if format == "json" {
		return printJSON(w, runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "no recorded runs")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %d event(s)\n", r.RunToken, r.Events)
	}
	return nil
}

// printEvents renders one run's events.
func printEvents(w io.Writer, format string, runToken string, events []store.TraceEvent) error {
	if format == "json" {
		return printJSON(w, events)
	}

	fmt.Fprintf(w, "run: %s\n", runToken)
	for _, e := range events {
		if e.Detail != "" {
			fmt.Fprintf(w, "%6d  %-22s node=%d count=%d  %s\n", e.Seq, e.Kind, e.NodeID, e.Count, e.Detail)
		} else {
			fmt.Fprintf(w, "%6d  %-22s node=%d count=%d\n", e.Seq, e.Kind, e.NodeID, e.Count)
		}
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
