package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/droidgate/droidgate/internal/config"
	"github.com/droidgate/droidgate/internal/errors"
	"github.com/droidgate/droidgate/internal/output"
	"github.com/droidgate/droidgate/internal/preflight"
)

func newNDKCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ndk",
		Short: "Inspect Android NDK installs",
	}

	cmd.AddCommand(newNDKInspectCmd())

	return cmd
}

func newNDKInspectCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "inspect [dir]",
		Short: "Show what droidgate sees in an NDK install",
		Long: `Read an NDK install directory and report its revision, its release
label, and whether the release is supported.

Without an argument, the directory comes from the configuration
(ndk.dir, or the ANDROIDNDK / ANDROID_NDK_HOME environment variables).`,
		Example: `  # Inspect the configured NDK
  droidgate ndk inspect

  # Inspect a specific install
  droidgate ndk inspect /opt/android-ndk-r27

  # Machine-readable
  droidgate ndk inspect --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) > 0 {
				dir = args[0]
			}
			return runNDKInspect(cmd, dir, jsonOut)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	return cmd
}

// ndkReport is the JSON document `ndk inspect --json` emits.
type ndkReport struct {
	Dir       string `json:"dir"`
	Revision  string `json:"revision,omitempty"`
	Label     string `json:"label,omitempty"`
	Supported bool   `json:"supported"`
	MinMajor  int    `json:"min_major"`
	MaxMajor  int    `json:"max_major"`
}

func runNDKInspect(cmd *cobra.Command, dir string, jsonOut bool) error {
	if dir == "" {
		cfg, err := config.Load(projectRoot())
		if err != nil {
			return err
		}
		dir = cfg.NDK.Dir
	}
	if dir == "" {
		return errors.New(errors.ErrCodeFileNotFound, "no NDK directory configured", nil).
			WithInstructions("Pass a directory (droidgate ndk inspect /path/to/ndk) or set ndk.dir in the configuration.")
	}

	v := preflight.ReadNDKVersion(dir)
	checkErr := preflight.CheckNDKVersion(dir)

	report := ndkReport{
		Dir:       dir,
		Supported: v != nil && checkErr == nil,
		MinMajor:  preflight.MinNDKVersion,
		MaxMajor:  preflight.MaxNDKVersion,
	}
	if v != nil {
		report.Revision = v.String()
		report.Label = preflight.NDKVersionLabel(v)
	}

	if jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
		return checkErr
	}

	out := output.New(cmd.OutOrStdout())
	out.Statusf("📁", "NDK directory: %s", dir)

	if v == nil {
		out.Warning("No readable NDK version (missing or unparseable source.properties)")
		out.Status("💡", "Version checking is skipped for this install")
		return nil
	}

	out.Statusf("🔢", "Revision: %s", v.String())
	out.Statusf("🏷️ ", "Release: r%s", report.Label)

	if checkErr != nil {
		out.Errorf("Unsupported NDK release")
		return checkErr
	}

	switch {
	case v.Major() > preflight.MaxNDKVersion:
		out.Warningf("Newer than the tested releases; r%s is the recommended one", preflight.RecommendedNDKVersion)
	case preflight.MinNDKVersion == preflight.MaxNDKVersion:
		out.Successf("Supported (major version %d)", preflight.MinNDKVersion)
	default:
		out.Successf("Supported (major versions %d to %d)", preflight.MinNDKVersion, preflight.MaxNDKVersion)
	}
	return nil
}
