package gate

import (
	"context"
	"fmt"
	"strings"

	"github.com/droidgate/droidgate/internal/android"
	dgerrors "github.com/droidgate/droidgate/internal/errors"
	"github.com/droidgate/droidgate/internal/preflight"
)

// Status is the outcome of a single check.
type Status string

const (
	// StatusPass means the check found nothing to report.
	StatusPass Status = "PASS"
	// StatusWarn means the check found an advisory problem.
	StatusWarn Status = "WARN"
	// StatusFail means the check found a problem.
	StatusFail Status = "FAIL"
)

// Report summary values.
const (
	// SummaryReady means every check passed.
	SummaryReady = "ready"
	// SummaryReadyWithWarnings means the build can proceed but some
	// check raised an advisory problem.
	SummaryReadyWithWarnings = "ready_with_warnings"
	// SummaryFailed means a required check failed; the build should not
	// proceed.
	SummaryFailed = "failed"
)

// Check is one evaluated check inside a [Report].
type Check struct {
	Name        string `json:"name"`
	Status      Status `json:"status"`
	Message     string `json:"message"`
	Details     string `json:"details,omitempty"`
	Remediation string `json:"remediation,omitempty"`
	Code        string `json:"code,omitempty"`
	Required    bool   `json:"required"`
}

// Report is the outcome of one full gate evaluation.
type Report struct {
	Status string  `json:"status"`
	Checks []Check `json:"checks"`
}

// Ready reports whether the build may proceed, possibly with warnings.
func (r *Report) Ready() bool {
	return r.Status != SummaryFailed
}

// BuildBlocking returns the first build-blocking verdict in the report,
// or nil when the build may proceed. The returned error satisfies
// [IsBuildBlocking] and carries [Code] and [Instructions].
func (r *Report) BuildBlocking() error {
	for _, c := range r.Checks {
		if c.Required && c.Status == StatusFail {
			return dgerrors.BuildBlocking(c.Code, c.Message, c.Remediation)
		}
	}
	return nil
}

// Config describes the build environment to evaluate. The zero value
// checks the recommended API levels for arm64-v8a with no NDK
// directory.
type Config struct {
	// NDKDir is the NDK install to inspect. When empty the NDK version
	// check degrades to a warning rather than failing.
	NDKDir string

	// TargetAPI is the Android API level the build targets. Zero means
	// RecommendedTargetAPI.
	TargetAPI int

	// NDKAPI is the minimum device API level compiled against. Zero
	// means RecommendedNDKAPI.
	NDKAPI int

	// Arch is the Android ABI built for, e.g. "arm64-v8a". Empty means
	// arm64-v8a; see SupportedArchitectures.
	Arch string

	// PythonInterpreter is the host interpreter probed by the python
	// check. Empty means "python3".
	PythonInterpreter string

	// Skip lists check names to leave out; see ValidChecks.
	Skip []string
}

// Runner evaluates the gate for a fixed configuration.
type Runner struct {
	checker *preflight.Checker
}

// NewRunner validates cfg and returns a Runner for it. Unrecognized
// ABI names and unknown skip entries are rejected here, before any run.
func NewRunner(cfg Config) (*Runner, error) {
	arch := android.ArchArm64V8a
	if cfg.Arch != "" {
		parsed, err := android.Parse(cfg.Arch)
		if err != nil {
			return nil, err
		}
		arch = parsed
	}

	known := make(map[string]bool)
	for _, name := range preflight.AllChecks() {
		known[name] = true
	}
	for _, name := range cfg.Skip {
		if !known[name] {
			return nil, fmt.Errorf("unknown check %q (valid checks: %s)",
				name, strings.Join(preflight.AllChecks(), ", "))
		}
	}

	opts := []preflight.Option{preflight.WithArch(arch)}
	if cfg.NDKDir != "" {
		opts = append(opts, preflight.WithNDKDir(cfg.NDKDir))
	}
	if cfg.TargetAPI != 0 {
		opts = append(opts, preflight.WithTargetAPI(cfg.TargetAPI))
	}
	if cfg.NDKAPI != 0 {
		opts = append(opts, preflight.WithNDKAPI(cfg.NDKAPI))
	}
	if cfg.PythonInterpreter != "" {
		opts = append(opts, preflight.WithPython(cfg.PythonInterpreter))
	}
	if len(cfg.Skip) > 0 {
		opts = append(opts, preflight.WithSkip(cfg.Skip...))
	}

	return &Runner{checker: preflight.New(opts...)}, nil
}

// Run evaluates every configured check and returns the report. It never
// returns an error: a broken environment is a report with
// SummaryFailed, not a failure of the evaluation itself.
func (r *Runner) Run(ctx context.Context) *Report {
	results := r.checker.RunAll(ctx)

	report := &Report{
		Status: r.checker.SummaryStatus(results),
		Checks: make([]Check, 0, len(results)),
	}
	for _, res := range results {
		report.Checks = append(report.Checks, Check{
			Name:        res.Name,
			Status:      Status(res.Status.String()),
			Message:     res.Message,
			Details:     res.Details,
			Remediation: res.Remediation,
			Code:        res.Code,
			Required:    res.Required,
		})
	}
	return report
}
