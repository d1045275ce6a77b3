package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tercel/internal/harness"
)

// NewValidateCommand creates the validate command: schema-check scenario
// files without running them.
func NewValidateCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario.yaml>...",
		Short: "Validate scenario files against the schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				if _, err := harness.LoadScenario(path); err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", path, err)
					continue
				}
				if root.Verbose {
					fmt.Fprintf(cmd.OutOrStdout(), "ok   %s\n", path)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scenario(s) failed validation", failed, len(args))
			}
			return nil
		},
	}
}
