package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tercel/internal/harness"
	"github.com/roach88/tercel/internal/listener"
	"github.com/roach88/tercel/internal/store"
)

// RunCmdOptions holds flags for the run command.
type RunCmdOptions struct {
	TraceDB  string
	RunToken string
}

// NewRunCommand creates the run command: execute a scenario file against
// its rulebase and print the query results.
func NewRunCommand(root *RootOptions) *cobra.Command {
	opts := &RunCmdOptions{}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario against its rulebase",
		Long: `Run loads a YAML scenario, validates it against the scenario schema,
executes it against the named rulebase, and prints every query step's
results.

With --trace-db, the run's network events are also recorded to a SQLite
trace database for later inspection with "tercel trace".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := harness.LoadScenario(args[0])
			if err != nil {
				return err
			}

			runOpts := harness.RunOptions{}
			var recorder *store.Recorder

			if opts.TraceDB != "" {
				db, err := store.Open(opts.TraceDB)
				if err != nil {
					return fmt.Errorf("open trace db: %w", err)
				}
				defer db.Close()

				recorder = store.NewRecorder(db, opts.RunToken, nil)
				runOpts.Listeners = []listener.Persistent{recorder}
			}

			result, err := harness.Run(scenario, harness.NewRegistry(), runOpts)
			if err != nil {
				return err
			}

			if recorder != nil {
				if err := recorder.Err(); err != nil {
					return fmt.Errorf("trace recording failed: %w", err)
				}
				if root.Verbose {
					fmt.Fprintf(cmd.OutOrStdout(), "trace recorded under run %s\n", recorder.RunToken())
				}
			}

			return printResult(cmd.OutOrStdout(), root.Format, result)
		},
	}

	cmd.Flags().StringVar(&opts.TraceDB, "trace-db", "", "record network events to this SQLite database")
	cmd.Flags().StringVar(&opts.RunToken, "run-token", "", "run token for the trace (default: generated UUIDv7)")

	return cmd
}
