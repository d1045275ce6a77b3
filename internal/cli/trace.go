package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tercel/internal/store"
)

// TraceCmdOptions holds flags for the trace command.
type TraceCmdOptions struct {
	RunToken string
}

// NewTraceCommand creates the trace command: inspect a recorded trace
// database.
func NewTraceCommand(root *RootOptions) *cobra.Command {
	opts := &TraceCmdOptions{}

	cmd := &cobra.Command{
		Use:   "trace <trace.db>",
		Short: "Inspect a recorded trace database",
		Long: `Trace lists the runs recorded in a trace database, or, with --run,
dumps one run's network events in sequence order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := store.Open(args[0])
			if err != nil {
				return fmt.Errorf("open trace db: %w", err)
			}
			defer db.Close()

			ctx := cmd.Context()
			if opts.RunToken == "" {
				runs, err := db.ListRuns(ctx)
				if err != nil {
					return err
				}
				return printRuns(cmd.OutOrStdout(), root.Format, runs)
			}

			events, err := db.ReadRun(ctx, opts.RunToken)
			if err != nil {
				return err
			}
			return printEvents(cmd.OutOrStdout(), root.Format, opts.RunToken, events)
		},
	}

	cmd.Flags().StringVar(&opts.RunToken, "run", "", "dump the events of this run")

	return cmd
}
