package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/droidgate/droidgate/configs"
	"github.com/droidgate/droidgate/internal/config"
	"github.com/droidgate/droidgate/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage user configuration",
		Long: `Manage the user/global configuration file.

User configuration contains machine-specific settings that apply to ALL
projects on this machine, such as:
  - The NDK install directory
  - Run history recording
  - Log level and format

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/droidgate/config.yaml)
  3. Project config (.droidgate.yaml)
  4. Environment variables (ANDROIDNDK, ANDROIDAPI, NDKAPI, DROIDGATE_*)`,
		Example: `  # Create user config from template
  droidgate config init

  # Show effective configuration (merged from all sources)
  droidgate config show

  # Print user config file path
  droidgate config path

  # Restore the most recent backup
  droidgate config restore`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigRestoreCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create user configuration file",
		Long: `Create the user/global configuration file from a template.

The configuration file is created at ~/.config/droidgate/config.yaml
(or $XDG_CONFIG_HOME/droidgate/config.yaml if XDG_CONFIG_HOME is set).`,
		Example: `  # Create user config
  droidgate config init

  # Replace existing config (a timestamped backup is kept)
  droidgate config init --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace existing configuration (keeps a backup)")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long: `Show the effective configuration after merging all sources.

By default, shows the merged configuration from:
  1. Hardcoded defaults
  2. User config (~/.config/droidgate/config.yaml)
  3. Project config (.droidgate.yaml)
  4. Environment variables`,
		Example: `  # Show merged configuration
  droidgate config show

  # Show as JSON
  droidgate config show --json

  # Show only user config
  droidgate config show --source user`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, user, project, defaults")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		Long:  `Print the path to the user configuration file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return nil
		},
	}
}

func newConfigRestoreCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "restore [backup]",
		Short: "Restore the user config from a backup",
		Long: `Restore the user configuration from a timestamped backup.

Backups are written next to the config file whenever 'config init
--force' replaces it. Without an argument, the most recent backup is
restored; the current config is backed up first either way.`,
		Example: `  # List available backups
  droidgate config restore --list

  # Restore the most recent backup
  droidgate config restore

  # Restore a specific backup
  droidgate config restore ~/.config/droidgate/config.yaml.bak.20260822-153012`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				return runConfigListBackups(cmd)
			}

			backup := ""
			if len(args) > 0 {
				backup = args[0]
			}
			return runConfigRestore(cmd, backup)
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List available backups instead of restoring")

	return cmd
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout())

	configPath := config.GetUserConfigPath()
	configDir := config.GetUserConfigDir()

	if config.UserConfigExists() {
		if !force {
			out.Warning("User configuration already exists")
			out.Statusf("📁", "Location: %s", configPath)
			out.Newline()
			out.Status("💡", "Use --force to replace it with a fresh template (a backup is kept)")
			return nil
		}

		backupPath, err := config.BackupUserConfig()
		if err != nil {
			return fmt.Errorf("failed to backup config: %w", err)
		}

		if err := os.WriteFile(configPath, []byte(configs.UserConfigTemplate), 0644); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}

		out.Success("Replaced user configuration with a fresh template")
		out.Statusf("📁", "Location: %s", configPath)
		out.Statusf("💾", "Backup: %s", backupPath)
		out.Newline()
		out.Status("💡", "Restore your old settings with 'droidgate config restore'")
		return nil
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}

	if err := os.WriteFile(configPath, []byte(configs.UserConfigTemplate), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out.Success("Created user configuration")
	out.Statusf("📁", "Location: %s", configPath)
	out.Newline()
	out.Status("📋", "Next steps:")
	out.Status("", "  1. Set ndk.dir to your NDK install")
	out.Status("", "  2. Enable history.enabled to record check runs")
	out.Status("", "  3. Run 'droidgate config show' to verify")

	return nil
}

func runConfigShow(cmd *cobra.Command, jsonOutput bool, source string) error {
	out := output.New(cmd.OutOrStdout())

	var cfg *config.Config
	var sourceDesc string

	switch source {
	case "merged":
		root := projectRoot()
		var err error
		cfg, err = config.Load(root)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		sourceDesc = "merged (defaults + user + project + env)"

	case "user":
		configPath := config.GetUserConfigPath()
		if !config.UserConfigExists() {
			out.Warning("No user configuration file found")
			out.Statusf("📁", "Expected at: %s", configPath)
			out.Status("💡", "Run 'droidgate config init' to create one")
			return nil
		}

		var err error
		cfg, err = config.LoadUserConfig()
		if err != nil {
			return fmt.Errorf("failed to load user config: %w", err)
		}
		sourceDesc = fmt.Sprintf("user (%s)", configPath)

	case "project":
		root := projectRoot()
		yamlPath := filepath.Join(root, ".droidgate.yaml")
		ymlPath := filepath.Join(root, ".droidgate.yml")

		var configPath string
		if _, err := os.Stat(yamlPath); err == nil {
			configPath = yamlPath
		} else if _, err := os.Stat(ymlPath); err == nil {
			configPath = ymlPath
		} else {
			out.Warning("No project configuration file found")
			out.Statusf("📁", "Expected at: %s", yamlPath)
			out.Status("💡", "Run 'droidgate init' to create one")
			return nil
		}

		cfg = config.NewConfig()
		data, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read project config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse project config: %w", err)
		}
		sourceDesc = fmt.Sprintf("project (%s)", configPath)

	case "defaults":
		cfg = config.NewConfig()
		sourceDesc = "defaults (hardcoded)"

	default:
		return fmt.Errorf("invalid source: %s (use: merged, user, project, defaults)", source)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else {
		out.Statusf("📋", "Configuration source: %s", sourceDesc)
		out.Newline()

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	}

	return nil
}

func runConfigListBackups(cmd *cobra.Command) error {
	out := output.New(cmd.OutOrStdout())

	backups, err := config.ListUserConfigBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		out.Status("ℹ️ ", "No config backups found")
		return nil
	}

	out.Statusf("📋", "%d backup(s), newest first:", len(backups))
	for _, b := range backups {
		out.Statusf("", "  %s", b)
	}
	return nil
}

func runConfigRestore(cmd *cobra.Command, backup string) error {
	out := output.New(cmd.OutOrStdout())

	if err := config.RestoreUserConfig(backup); err != nil {
		return err
	}

	out.Success("Restored user configuration")
	out.Statusf("📁", "Location: %s", config.GetUserConfigPath())
	if backup != "" {
		out.Statusf("💾", "From: %s", backup)
	} else {
		out.Status("💾", "From the most recent backup")
	}
	return nil
}
