package cmd

import (
	"encoding/json"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/droidgate/droidgate/internal/config"
	"github.com/droidgate/droidgate/internal/history"
	"github.com/droidgate/droidgate/internal/output"
	"github.com/droidgate/droidgate/internal/preflight"
	"github.com/droidgate/droidgate/internal/ui"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded check runs",
		Long: `List and inspect past check runs.

Runs are recorded when history.enabled is true in the configuration
(or DROIDGATE_HISTORY_ENABLED=true). The store is a local SQLite
database, ~/.droidgate/history.db by default.`,
	}

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryShowCmd())
	cmd.AddCommand(newHistoryPruneCmd())

	return cmd
}

// openHistoryStore opens the store at the configured path.
func openHistoryStore() (*history.Store, *config.Config, error) {
	cfg, err := config.Load(projectRoot())
	if err != nil {
		return nil, nil, err
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

func newHistoryListCmd() *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Example: `  # The last 20 runs
  droidgate history list

  # More of them, machine-readable
  droidgate history list --limit 100 --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, err := openHistoryStore()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(runs)
			}

			out := output.New(cmd.OutOrStdout())
			if len(runs) == 0 {
				out.Status("ℹ️ ", "No runs recorded yet")
				out.Status("💡", "Enable recording with history.enabled: true (or DROIDGATE_HISTORY_ENABLED=true)")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"ID", "When", "Summary", "Pass", "Warn", "Fail", "Arch", "API"})
			for _, r := range runs {
				t.AppendRow(table.Row{
					shortID(r.ID),
					r.CreatedAt.Local().Format("2006-01-02 15:04"),
					r.Summary,
					r.Passed,
					r.Warnings,
					r.Failures,
					r.Arch,
					r.TargetAPI,
				})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	var (
		jsonOut bool
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded run with its per-check results",
		Long: `Show a recorded run. The id may be any unique prefix of the full
run id, as printed by 'droidgate history list'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openHistoryStore()
			if err != nil {
				return err
			}
			defer store.Close()

			run, results, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if jsonOut {
				doc := struct {
					Run    *history.Run            `json:"run"`
					Checks []preflight.CheckResult `json:"checks"`
				}{Run: run, Checks: results}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(doc)
			}

			out := output.New(cmd.OutOrStdout())
			out.Statusf("🆔", "Run: %s", run.ID)
			out.Statusf("🕐", "When: %s", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			out.Statusf("🎯", "Target: API %d on %s (NDK API %d)", run.TargetAPI, run.Arch, run.NDKAPI)
			if run.NDKDir != "" {
				out.Statusf("📁", "NDK: %s", run.NDKDir)
			}
			if run.Interpreter != "" {
				out.Statusf("🐍", "Python: %s", run.Interpreter)
			}
			out.Newline()

			rep := ui.NewReport(cmd.OutOrStdout(),
				ui.WithColor(useColor(cfg, checkFlags{noColor: noColor}, cmd.OutOrStdout())),
				ui.WithVerbose(true))
			rep.Render(results)

			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}

func newHistoryPruneCmd() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old runs and compact the store",
		Long: `Delete all but the newest runs and compact the database file.

Pruning takes an exclusive lock on the store; it refuses to run while
another droidgate process is writing to it.`,
		Example: `  # Keep the newest 50 runs
  droidgate history prune

  # Keep only the newest 10
  droidgate history prune --keep 10`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, err := openHistoryStore()
			if err != nil {
				return err
			}
			defer store.Close()

			deleted, err := store.Prune(cmd.Context(), keep)
			if err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			if deleted == 0 {
				out.Statusf("ℹ️ ", "Nothing to prune (%d or fewer runs recorded)", keep)
				return nil
			}
			out.Successf("Removed %d run(s), kept the newest %d", deleted, keep)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 50, "Number of runs to keep")

	return cmd
}

// shortID abbreviates a run id for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
