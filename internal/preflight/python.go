package preflight

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	dgerrors "github.com/droidgate/droidgate/internal/errors"
)

const (
	// MinPythonMajor and MinPythonMinor form the oldest supported host
	// interpreter version.
	MinPythonMajor = 3
	MinPythonMinor = 6

	// DefaultPythonInterpreter is probed when no interpreter is configured.
	DefaultPythonInterpreter = "python3"

	// pythonProbeTimeout bounds the version probe so a wedged
	// interpreter cannot stall the gate.
	pythonProbeTimeout = 5 * time.Second
)

// pythonVersionProbe prints the interpreter version as "major.minor.patch".
const pythonVersionProbe = `import sys; print("%d.%d.%d" % sys.version_info[:3])`

var minPythonVersion = semver.New(MinPythonMajor, MinPythonMinor, 0, "", "")

// CheckPythonVersion validates a detected host interpreter version.
// Python 2 and anything below the supported floor are build-blocking.
func CheckPythonVersion(v *semver.Version) error {
	if gerr := pythonVersionError(v); gerr != nil {
		return gerr
	}
	return nil
}

func pythonVersionError(v *semver.Version) *dgerrors.GateError {
	if v.Major() == 2 {
		return dgerrors.New(dgerrors.ErrCodePython2Unsupported,
			fmt.Sprintf("Python 2 is no longer supported. Upgrade to Python %d.%d or higher.",
				MinPythonMajor, MinPythonMinor), nil)
	}
	if v.LessThan(minPythonVersion) {
		return dgerrors.New(dgerrors.ErrCodePythonBelowMinimum,
			fmt.Sprintf("Your Python version %d.%d is not supported, please upgrade to %d.%d or higher.",
				v.Major(), v.Minor(), MinPythonMajor, MinPythonMinor), nil)
	}
	return nil
}

// DetectPythonVersion asks the given interpreter for its version. An
// empty interpreter falls back to DefaultPythonInterpreter.
func DetectPythonVersion(ctx context.Context, interpreter string) (*semver.Version, error) {
	if interpreter == "" {
		interpreter = DefaultPythonInterpreter
	}

	ctx, cancel := context.WithTimeout(ctx, pythonProbeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, interpreter, "-c", pythonVersionProbe).Output()
	if err != nil {
		return nil, dgerrors.New(dgerrors.ErrCodeProbeFailed,
			fmt.Sprintf("unable to probe %s for its version", interpreter), err)
	}

	v, err := semver.NewVersion(strings.TrimSpace(string(out)))
	if err != nil {
		return nil, dgerrors.New(dgerrors.ErrCodeProbeFailed,
			fmt.Sprintf("unexpected version output from %s", interpreter), err)
	}
	return v, nil
}

// CheckPython probes the host interpreter and validates its version. A
// failed probe degrades to a warning, mirroring the unknown-NDK rule.
func CheckPython(ctx context.Context, interpreter string) error {
	v, err := DetectPythonVersion(ctx, interpreter)
	if err != nil {
		slog.Warn("could not determine the host Python version, not checking it", "error", err)
		return nil
	}
	return CheckPythonVersion(v)
}

// CheckPython reports the host interpreter check as a preflight result.
func (c *Checker) CheckPython(ctx context.Context) CheckResult {
	result := CheckResult{Name: PythonCheck, Required: true}

	v, err := DetectPythonVersion(ctx, c.interpreter)
	if err != nil {
		result.Status = StatusWarn
		result.Message = "could not determine the host Python version"
		result.Details = err.Error()
		return result
	}

	if gerr := pythonVersionError(v); gerr != nil {
		result.markFailed(gerr)
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("Python %s (minimum: %d.%d)", v, MinPythonMajor, MinPythonMinor)
	return result
}
