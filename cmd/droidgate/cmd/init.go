package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/droidgate/droidgate/configs"
	"github.com/droidgate/droidgate/internal/config"
	"github.com/droidgate/droidgate/internal/output"
	"github.com/droidgate/droidgate/pkg/version"
)

func newInitCmd() *cobra.Command {
	var (
		force      bool
		configOnly bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize droidgate for a project",
		Long: `Initialize droidgate for the current project.

Creates a .droidgate.yaml config template at the project root, adds
the droidgate data directory to .gitignore and runs the checks once
so problems surface immediately.`,
		Example: `  # Initialize the current project
  droidgate init

  # Recreate the config template
  droidgate init --force

  # Only write config files, skip the check run
  droidgate init --config-only`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runInit(ctx, cmd, force, configOnly)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing .droidgate.yaml")
	cmd.Flags().BoolVar(&configOnly, "config-only", false, "Write config files without running the checks")

	return cmd
}

func runInit(ctx context.Context, cmd *cobra.Command, force, configOnly bool) error {
	out := output.New(cmd.OutOrStdout())

	out.Statusf("🚀", "droidgate %s - Initializing...", version.Version)
	out.Newline()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		root = cwd
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	out.Statusf("📁", "Project: %s", absRoot)

	configPath := filepath.Join(absRoot, ".droidgate.yaml")

	if !force {
		if _, err := os.Stat(configPath); err == nil {
			out.Newline()
			out.Warning("Project already initialized (.droidgate.yaml exists)")
			out.Status("💡", "Use --force to recreate the config template")
			return nil
		}
	}

	out.Newline()
	out.Status("⚙️ ", "Writing project configuration...")

	if err := os.WriteFile(configPath, []byte(configs.ProjectConfigTemplate), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}
	out.Success("Created .droidgate.yaml")

	added, err := ensureGitignore(absRoot)
	if err != nil {
		out.Warningf("Could not update .gitignore: %v", err)
	} else if added {
		out.Status("📝", "Added .droidgate to .gitignore")
	}

	if configOnly {
		out.Newline()
		out.Status("⏭️ ", "Skipping checks (--config-only)")
	} else {
		out.Newline()
		out.Status("🔍", "Running build-environment checks...")
		out.Newline()

		// The report already shows any failure; a broken environment
		// does not make the initialization itself fail.
		if err := runCheckOnce(ctx, cmd, checkFlags{}); err != nil {
			out.Newline()
			out.Warning("Some checks failed - fix the issues above before building")
		}
	}

	out.Newline()
	if configOnly {
		out.Success("Configuration complete!")
	} else {
		out.Success("Initialization complete!")
	}
	out.Newline()
	out.Status("📋", "Next steps:")
	out.Status("", "  1. Set android.api and ndk.api in .droidgate.yaml")
	out.Status("", "  2. Run 'droidgate' before each build")
	out.Status("", "  3. Run 'droidgate recommend' for the supported versions")

	if !config.UserConfigExists() {
		out.Newline()
		out.Status("💡", "For machine-specific settings (NDK path, history):")
		out.Status("", "   Run 'droidgate config init' to create user config")
	}

	return nil
}

// hasDroidgateIgnore checks if .droidgate is already in .gitignore.
// Handles variations: .droidgate, .droidgate/, /.droidgate, /.droidgate/
func hasDroidgateIgnore(content string) bool {
	patterns := []string{
		".droidgate",
		".droidgate/",
		"/.droidgate",
		"/.droidgate/",
	}

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, pattern := range patterns {
			if line == pattern {
				return true
			}
		}
	}
	return false
}

// ensureGitignore adds the droidgate data directory to .gitignore if
// not present. Returns (true, nil) if added, (false, nil) if already
// present.
func ensureGitignore(projectRoot string) (bool, error) {
	gitignorePath := filepath.Join(projectRoot, ".gitignore")

	content, err := os.ReadFile(gitignorePath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("reading .gitignore: %w", err)
	}

	if hasDroidgateIgnore(string(content)) {
		return false, nil
	}

	// Match the file's existing line endings, default to LF.
	lineEnding := "\n"
	if bytes.Contains(content, []byte("\r\n")) {
		lineEnding = "\r\n"
	}

	if len(content) > 0 && !bytes.HasSuffix(content, []byte("\n")) {
		content = append(content, []byte(lineEnding)...)
	}

	var entry string
	if len(content) == 0 {
		entry = fmt.Sprintf("# droidgate data (run history, config backups)%s.droidgate/%s",
			lineEnding, lineEnding)
	} else {
		entry = fmt.Sprintf("%s# droidgate data (run history, config backups)%s.droidgate/%s",
			lineEnding, lineEnding, lineEnding)
	}

	content = append(content, []byte(entry)...)

	if err := os.WriteFile(gitignorePath, content, 0644); err != nil {
		return false, fmt.Errorf("writing .gitignore: %w", err)
	}

	return true, nil
}
