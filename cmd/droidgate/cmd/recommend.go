package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/droidgate/droidgate/internal/preflight"
	"github.com/droidgate/droidgate/internal/ui"
)

func newRecommendCmd() *cobra.Command {
	var (
		table   bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Print the recommended toolchain versions",
		Long: `Print the minimum and recommended versions of the toolchain
components droidgate checks: the NDK release, the target Android API
level, and the NDK API level.`,
		Example: `  # Plain listing
  droidgate recommend

  # Rendered as a table
  droidgate recommend --table

  # Machine-readable
  droidgate recommend --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(preflight.CurrentRecommendations())
			}

			if table {
				ui.RenderRecommendationsTable(cmd.OutOrStdout(), preflight.CurrentRecommendations())
				return nil
			}

			preflight.PrintRecommendations(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().BoolVar(&table, "table", false, "Render as a table")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	return cmd
}
