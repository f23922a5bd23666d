package preflight

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/droidgate/droidgate/internal/android"
	dgerrors "github.com/droidgate/droidgate/internal/errors"
)

// CheckStatus represents the result of a preflight check.
type CheckStatus int

const (
	// StatusPass indicates the check passed successfully.
	StatusPass CheckStatus = iota
	// StatusWarn indicates a non-critical warning.
	StatusWarn
	// StatusFail indicates the check failed.
	StatusFail
)

// String returns the string representation of a CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// ParseStatus parses the string form of a check status.
func ParseStatus(s string) (CheckStatus, error) {
	switch s {
	case "PASS":
		return StatusPass, nil
	case "WARN":
		return StatusWarn, nil
	case "FAIL":
		return StatusFail, nil
	default:
		return StatusPass, fmt.Errorf("unknown check status %q", s)
	}
}

// MarshalJSON renders the status as its string form, the shape the
// --json outputs and the history store use.
func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses the string form.
func (s *CheckStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Check names as they appear in results and in skip lists.
const (
	NDKVersionCheck = "ndk_version"
	TargetAPICheck  = "target_api"
	NDKAPICheck     = "ndk_api"
	PythonCheck     = "python"
)

// AllChecks returns the check names in execution order.
func AllChecks() []string {
	return []string{NDKVersionCheck, TargetAPICheck, NDKAPICheck, PythonCheck}
}

// CheckResult holds the result of a single preflight check.
type CheckResult struct {
	Name        string      `json:"name"`
	Status      CheckStatus `json:"status"`
	Message     string      `json:"message"`
	Details     string      `json:"details,omitempty"`
	Remediation string      `json:"remediation,omitempty"`
	Code        string      `json:"code,omitempty"`
	Required    bool        `json:"required"`
}

// IsCritical returns true if this is a required check that failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// markFailed fills the result from a build-blocking verdict.
func (r *CheckResult) markFailed(gerr *dgerrors.GateError) {
	r.Status = StatusFail
	r.Code = gerr.Code
	r.Message = gerr.Message
	r.Remediation = gerr.Instructions
}

// RunInputs captures the resolved inputs a run was evaluated against.
type RunInputs struct {
	NDKDir      string `json:"ndk_dir,omitempty"`
	TargetAPI   int    `json:"target_api"`
	NDKAPI      int    `json:"ndk_api"`
	Arch        string `json:"arch"`
	Interpreter string `json:"interpreter,omitempty"`
}

// Recorder persists completed runs. Implemented by the history store.
// Recording is observational: it never influences check outcomes.
type Recorder interface {
	RecordRun(ctx context.Context, inputs RunInputs, summary string, results []CheckResult) error
}

// Checker performs the build-environment preflight checks.
type Checker struct {
	ndkDir      string
	targetAPI   int
	ndkAPI      int
	arch        android.Arch
	interpreter string
	skip        map[string]bool
	verbose     bool
	output      io.Writer
	recorder    Recorder
}

// Option configures a Checker.
type Option func(*Checker)

// WithNDKDir sets the NDK installation directory to inspect.
func WithNDKDir(dir string) Option {
	return func(c *Checker) {
		c.ndkDir = dir
	}
}

// WithTargetAPI sets the target Android API level under check.
func WithTargetAPI(api int) Option {
	return func(c *Checker) {
		c.targetAPI = api
	}
}

// WithNDKAPI sets the NDK API level under check.
func WithNDKAPI(api int) Option {
	return func(c *Checker) {
		c.ndkAPI = api
	}
}

// WithArch sets the architecture the build targets.
func WithArch(arch android.Arch) Option {
	return func(c *Checker) {
		c.arch = arch
	}
}

// WithPython sets the host interpreter to probe.
func WithPython(interpreter string) Option {
	return func(c *Checker) {
		c.interpreter = interpreter
	}
}

// WithSkip disables the named checks.
func WithSkip(names ...string) Option {
	return func(c *Checker) {
		for _, name := range names {
			c.skip[name] = true
		}
	}
}

// WithVerbose enables verbose output.
func WithVerbose(verbose bool) Option {
	return func(c *Checker) {
		c.verbose = verbose
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(c *Checker) {
		c.output = w
	}
}

// WithHistory sets a recorder that persists each run after it completes.
func WithHistory(r Recorder) Option {
	return func(c *Checker) {
		c.recorder = r
	}
}

// New creates a new Checker. Without options it evaluates the recommended
// API levels against the default interpreter and no NDK directory.
func New(opts ...Option) *Checker {
	c := &Checker{
		targetAPI:   RecommendedTargetAPI,
		ndkAPI:      RecommendedNDKAPI,
		arch:        android.ArchArm64V8a,
		interpreter: DefaultPythonInterpreter,
		skip:        make(map[string]bool),
		output:      os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAll runs the configured checks and returns their results in a fixed
// order regardless of which finish first.
func (c *Checker) RunAll(ctx context.Context) []CheckResult {
	type check struct {
		name string
		run  func(context.Context) CheckResult
	}

	all := []check{
		{NDKVersionCheck, func(context.Context) CheckResult { return c.CheckNDKVersion() }},
		{TargetAPICheck, func(context.Context) CheckResult { return c.CheckTargetAPI() }},
		{NDKAPICheck, func(context.Context) CheckResult { return c.CheckNDKAPI() }},
		{PythonCheck, c.CheckPython},
	}

	var selected []check
	for _, ch := range all {
		if !c.skip[ch.name] {
			selected = append(selected, ch)
		}
	}

	results := make([]CheckResult, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(selected))
	for i, ch := range selected {
		g.Go(func() error {
			results[i] = ch.run(gctx)
			return nil
		})
	}
	_ = g.Wait()

	if c.recorder != nil {
		inputs := RunInputs{
			NDKDir:      c.ndkDir,
			TargetAPI:   c.targetAPI,
			NDKAPI:      c.ndkAPI,
			Arch:        string(c.arch),
			Interpreter: c.interpreter,
		}
		if err := c.recorder.RecordRun(ctx, inputs, c.SummaryStatus(results), results); err != nil {
			slog.Warn("failed to record run history", "error", err)
		}
	}

	return results
}

// HasCriticalFailures returns true if any required check failed.
func (c *Checker) HasCriticalFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return true
		}
	}
	return false
}

// FatalError returns the first build-blocking verdict among the results,
// or nil when the gate passes.
func (c *Checker) FatalError(results []CheckResult) error {
	for _, r := range results {
		if r.IsCritical() {
			return dgerrors.BuildBlocking(r.Code, r.Message, r.Remediation)
		}
	}
	return nil
}

// SummaryStatus returns a summary status string for the results.
func (c *Checker) SummaryStatus(results []CheckResult) string {
	hasWarnings := false
	hasCriticalFailure := false

	for _, r := range results {
		if r.IsCritical() {
			hasCriticalFailure = true
		}
		if r.Status == StatusWarn || (r.Status == StatusFail && !r.Required) {
			hasWarnings = true
		}
	}

	if hasCriticalFailure {
		return "failed"
	}
	if hasWarnings {
		return "ready_with_warnings"
	}
	return "ready"
}

// PrintResults prints check results to the configured output.
func (c *Checker) PrintResults(results []CheckResult) {
	_, _ = fmt.Fprintln(c.output, "Droidgate Environment Check")
	_, _ = fmt.Fprintln(c.output, "===========================")
	_, _ = fmt.Fprintln(c.output)

	for _, r := range results {
		_, _ = fmt.Fprintf(c.output, "[%s] %s: %s\n", r.Status, r.Name, r.Message)
		if c.verbose && r.Details != "" {
			_, _ = fmt.Fprintf(c.output, "      %s\n", r.Details)
		}
		if r.Status == StatusFail && r.Remediation != "" {
			for _, line := range strings.Split(r.Remediation, "\n") {
				_, _ = fmt.Fprintf(c.output, "      %s\n", line)
			}
		}
	}

	_, _ = fmt.Fprintln(c.output)
	status := c.SummaryStatus(results)
	_, _ = fmt.Fprintf(c.output, "Status: %s\n", strings.ToUpper(status))

	var warnings, failures []string
	for _, r := range results {
		if r.IsCritical() {
			failures = append(failures, r.Name+": "+r.Message)
		} else if r.Status == StatusWarn {
			warnings = append(warnings, r.Name+": "+r.Message)
		}
	}

	if len(failures) > 0 {
		_, _ = fmt.Fprintln(c.output)
		_, _ = fmt.Fprintf(c.output, "%d error(s):\n", len(failures))
		for _, f := range failures {
			_, _ = fmt.Fprintf(c.output, "  - %s\n", f)
		}
	}

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(c.output)
		_, _ = fmt.Fprintf(c.output, "%d warning(s):\n", len(warnings))
		for _, w := range warnings {
			_, _ = fmt.Fprintf(c.output, "  - %s\n", w)
		}
	}
}
