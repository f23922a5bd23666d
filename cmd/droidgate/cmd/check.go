package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/droidgate/droidgate/internal/android"
	"github.com/droidgate/droidgate/internal/config"
	"github.com/droidgate/droidgate/internal/history"
	"github.com/droidgate/droidgate/internal/preflight"
	"github.com/droidgate/droidgate/internal/ui"
	"github.com/droidgate/droidgate/internal/watcher"
)

// watchDebounce is how long watch mode waits after the last file event
// before re-running the checks. An NDK upgrade touches thousands of
// files; one re-check at the end is enough.
const watchDebounce = 500 * time.Millisecond

// checkFlags holds the command-line overrides for a check run.
// Zero values mean "use the configuration".
type checkFlags struct {
	ndkDir    string
	targetAPI int
	ndkAPI    int
	arch      string
	python    string
	skip      []string
	jsonOut   bool
	verbose   bool
	noColor   bool
	watch     bool
}

func newCheckCmd() *cobra.Command {
	var flags checkFlags

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the build-environment checks",
		Long: `Run all build-environment checks and report the verdicts.

Checks:
  - ndk_version: the installed NDK release is a supported one
  - target_api:  the target Android API level and architecture combination
  - ndk_api:     the NDK API level against the target Android API
  - python:      the hosting Python interpreter version

Values come from the configuration (defaults, user config,
.droidgate.yaml, environment); flags override all of them.

The command exits non-zero when a build-blocking problem is found,
with remediation instructions on stderr.`,
		Example: `  # Check using the project configuration
  droidgate check

  # Check a specific NDK install and target
  droidgate check --ndk-dir /opt/android-ndk-r27 --target-api 34

  # Machine-readable output for CI
  droidgate check --json

  # Skip the python probe
  droidgate check --skip python

  # Re-run automatically when the NDK or config changes
  droidgate check --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runCheck(ctx, cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.ndkDir, "ndk-dir", "", "Android NDK install directory")
	cmd.Flags().IntVar(&flags.targetAPI, "target-api", 0, "Target Android API level")
	cmd.Flags().IntVar(&flags.ndkAPI, "ndk-api", 0, "NDK API level (minSdkVersion)")
	cmd.Flags().StringVar(&flags.arch, "arch", "", "Target architecture (e.g. arm64-v8a)")
	cmd.Flags().StringVar(&flags.python, "python", "", "Python interpreter to probe")
	cmd.Flags().StringSliceVar(&flags.skip, "skip", nil, "Checks to skip (ndk_version, target_api, ndk_api, python)")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Show check details")
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "Re-run checks when the NDK or project config changes")

	return cmd
}

func runCheck(ctx context.Context, cmd *cobra.Command, flags checkFlags) error {
	if err := validateSkipList(flags.skip); err != nil {
		return err
	}

	if flags.watch {
		if flags.jsonOut {
			return fmt.Errorf("--json and --watch cannot be combined")
		}
		return runCheckWatch(ctx, cmd, flags)
	}

	return runCheckOnce(ctx, cmd, flags)
}

// runCheckOnce resolves the configuration, runs every check and renders
// the report. The returned error is the build-blocking verdict, if any.
func runCheckOnce(ctx context.Context, cmd *cobra.Command, flags checkFlags) error {
	run, err := buildCheckRun(cmd, flags)
	if err != nil {
		return err
	}
	defer run.close()

	results := run.checker.RunAll(ctx)

	if err := renderResults(cmd, flags, run, results); err != nil {
		return err
	}

	return run.checker.FatalError(results)
}

// checkRun is one resolved check invocation: the checker, the inputs it
// was built from, and the history store when recording is on.
type checkRun struct {
	checker *preflight.Checker
	cfg     *config.Config
	inputs  preflight.RunInputs
	store   *history.Store
}

func (r *checkRun) close() {
	if r.store != nil {
		_ = r.store.Close()
	}
}

// buildCheckRun layers the command-line flags over the loaded
// configuration and assembles the checker.
func buildCheckRun(cmd *cobra.Command, flags checkFlags) (*checkRun, error) {
	root := projectRoot()

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	inputs := preflight.RunInputs{
		NDKDir:      cfg.NDK.Dir,
		TargetAPI:   cfg.Android.API,
		NDKAPI:      cfg.NDK.API,
		Arch:        cfg.Android.Arch,
		Interpreter: cfg.Python.Interpreter,
	}
	if cmd.Flags().Changed("ndk-dir") {
		inputs.NDKDir = flags.ndkDir
	}
	if cmd.Flags().Changed("target-api") {
		inputs.TargetAPI = flags.targetAPI
	}
	if cmd.Flags().Changed("ndk-api") {
		inputs.NDKAPI = flags.ndkAPI
	}
	if cmd.Flags().Changed("arch") {
		inputs.Arch = flags.arch
	}
	if cmd.Flags().Changed("python") {
		inputs.Interpreter = flags.python
	}

	arch, err := android.Parse(inputs.Arch)
	if err != nil {
		return nil, err
	}

	opts := []preflight.Option{
		preflight.WithNDKDir(inputs.NDKDir),
		preflight.WithTargetAPI(inputs.TargetAPI),
		preflight.WithNDKAPI(inputs.NDKAPI),
		preflight.WithArch(arch),
		preflight.WithPython(inputs.Interpreter),
		preflight.WithVerbose(flags.verbose),
		preflight.WithOutput(io.Discard),
	}
	if len(flags.skip) > 0 {
		opts = append(opts, preflight.WithSkip(flags.skip...))
	}

	run := &checkRun{cfg: cfg, inputs: inputs}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			// Recording is observational; a broken store never blocks checks.
			slog.Warn("failed to open history store",
				slog.String("path", cfg.History.Path),
				slog.String("error", err.Error()))
		} else {
			run.store = store
			opts = append(opts, preflight.WithHistory(store))
		}
	}

	run.checker = preflight.New(opts...)
	return run, nil
}

// projectRoot finds the project root, falling back to the working
// directory.
func projectRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		return cwd
	}
	return root
}

// checkReport is the JSON document `check --json` emits.
type checkReport struct {
	Status   string                  `json:"status"`
	Inputs   preflight.RunInputs     `json:"inputs"`
	Checks   []preflight.CheckResult `json:"checks"`
	Warnings []string                `json:"warnings,omitempty"`
	Errors   []string                `json:"errors,omitempty"`
}

func renderResults(cmd *cobra.Command, flags checkFlags, run *checkRun, results []preflight.CheckResult) error {
	if flags.jsonOut {
		report := checkReport{
			Status: run.checker.SummaryStatus(results),
			Inputs: run.inputs,
			Checks: results,
		}
		for _, r := range results {
			if r.IsCritical() {
				report.Errors = append(report.Errors, r.Name+": "+r.Message)
			} else if r.Status == preflight.StatusWarn {
				report.Warnings = append(report.Warnings, r.Name+": "+r.Message)
			}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	rep := ui.NewReport(cmd.OutOrStdout(),
		ui.WithColor(useColor(run.cfg, flags, cmd.OutOrStdout())),
		ui.WithVerbose(flags.verbose))
	rep.Render(results)
	return nil
}

// useColor resolves the effective color decision for this invocation.
func useColor(cfg *config.Config, flags checkFlags, out io.Writer) bool {
	mode := cfg.Output.Color
	if flags.noColor {
		mode = "never"
	}
	if mode == "auto" && ui.DetectCI() {
		// CI logs keep ANSI escapes out even when a PTY is attached.
		mode = "never"
	}
	return ui.ShouldColor(mode, out)
}

// runCheckWatch re-runs the checks whenever a watched toolchain file
// changes. Build-blocking verdicts are reported but do not stop the
// loop; watch mode ends with Ctrl-C.
func runCheckWatch(ctx context.Context, cmd *cobra.Command, flags checkFlags) error {
	w, err := watcher.New(watchDebounce)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addWatchPaths(cmd, w, flags); err != nil {
		return err
	}

	go func() { _ = w.Run(ctx) }()

	rerun := func() {
		if err := runCheckOnce(ctx, cmd, flags); err != nil {
			// The rendered report already shows the failure.
			slog.Debug("check failed", slog.String("error", err.Error()))
		}
	}

	rerun()
	fmt.Fprintln(cmd.OutOrStdout(), "\nWatching for changes (Ctrl-C to stop)...")

	for {
		select {
		case <-ctx.Done():
			return nil
		case batch := <-w.Changes():
			fmt.Fprintf(cmd.OutOrStdout(), "\nChange detected: %s\n\n", strings.Join(batch, ", "))
			rerun()
		case werr := <-w.Errors():
			slog.Warn("watch error", slog.String("error", werr.Error()))
		}
	}
}

// addWatchPaths watches the NDK's source.properties and the project
// config files. Falls back to the project root when neither exists yet.
func addWatchPaths(cmd *cobra.Command, w *watcher.Watcher, flags checkFlags) error {
	root := projectRoot()

	ndkDir := flags.ndkDir
	if !cmd.Flags().Changed("ndk-dir") {
		if cfg, err := config.Load(root); err == nil {
			ndkDir = cfg.NDK.Dir
		}
	}

	watched := 0
	if ndkDir != "" {
		props := filepath.Join(ndkDir, "source.properties")
		if err := w.AddFile(props); err != nil {
			slog.Warn("cannot watch NDK directory", slog.String("error", err.Error()))
		} else {
			watched++
		}
	}

	for _, name := range []string{".droidgate.yaml", ".droidgate.yml"} {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := w.AddFile(path); err != nil {
			slog.Warn("cannot watch project config", slog.String("error", err.Error()))
		} else {
			watched++
		}
	}

	if watched == 0 {
		// Watch the root so a config file showing up later is noticed.
		if err := w.AddDir(root); err != nil {
			return fmt.Errorf("nothing to watch: %w", err)
		}
	}
	return nil
}

func validateSkipList(skip []string) error {
	if len(skip) == 0 {
		return nil
	}

	valid := make(map[string]bool)
	for _, name := range preflight.AllChecks() {
		valid[name] = true
	}
	for _, name := range skip {
		if !valid[name] {
			return fmt.Errorf("unknown check %q (valid: %s)", name, strings.Join(preflight.AllChecks(), ", "))
		}
	}
	return nil
}
