// Package cmd provides the CLI commands for droidgate.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/droidgate/droidgate/internal/logging"
	"github.com/droidgate/droidgate/pkg/version"
)

// Logging flags, shared by all commands.
var (
	logLevel       string
	logFile        string
	quiet          bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the droidgate CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "droidgate",
		Short: "Pre-flight checks for Android build environments",
		Long: `Droidgate verifies a build environment before an Android build starts:
the installed NDK release, the target and NDK API levels, the
architecture, and the hosting Python interpreter.

Build-blocking problems come back with remediation instructions and a
non-zero exit code, so droidgate can gate CI pipelines and local builds
alike.

Just run 'droidgate' in your project directory to check everything.`,
		Version: version.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cmd.Help()
			}
			// Bare invocation runs the full check with config defaults.
			return runCheck(cmd.Context(), cmd, checkFlags{})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("droidgate version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to a file instead of stderr")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRunE = teardownLogging

	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newRecommendCmd())
	cmd.AddCommand(newNDKCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setupLogging installs the default slog logger from the persistent flags.
func setupLogging(_ *cobra.Command, _ []string) error {
	cfg := logging.DefaultConfig()
	cfg.Level = logLevel
	if quiet {
		cfg.Level = "error"
	}
	if logFile != "" {
		cfg.FilePath = logFile
		cfg.WriteToStderr = false
	}

	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)

	return nil
}

// teardownLogging flushes and closes the log file, if any.
func teardownLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
