package preflight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droidgate/droidgate/internal/android"
	dgerrors "github.com/droidgate/droidgate/internal/errors"
)

type captureRecorder struct {
	calls   int
	inputs  RunInputs
	summary string
	results []CheckResult
	err     error
}

func (r *captureRecorder) RecordRun(_ context.Context, inputs RunInputs, summary string, results []CheckResult) error {
	r.calls++
	r.inputs = inputs
	r.summary = summary
	r.results = results
	return r.err
}

func TestCheckStatus_String(t *testing.T) {
	tests := []struct {
		status CheckStatus
		want   string
	}{
		{StatusPass, "PASS"},
		{StatusWarn, "WARN"},
		{StatusFail, "FAIL"},
		{CheckStatus(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestCheckStatus_JSONRoundTrip(t *testing.T) {
	result := CheckResult{
		Name:     NDKAPICheck,
		Status:   StatusFail,
		Message:  "boom",
		Required: true,
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"FAIL"`, "Status should serialize as a string")

	var parsed CheckResult
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, result, parsed)
}

func TestParseStatus(t *testing.T) {
	for _, status := range []CheckStatus{StatusPass, StatusWarn, StatusFail} {
		parsed, err := ParseStatus(status.String())
		require.NoError(t, err)
		assert.Equal(t, status, parsed)
	}

	_, err := ParseStatus("MAYBE")
	assert.Error(t, err)
}

func TestCheckResult_IsCritical(t *testing.T) {
	tests := []struct {
		name     string
		result   CheckResult
		expected bool
	}{
		{
			name:     "required pass is not critical",
			result:   CheckResult{Status: StatusPass, Required: true},
			expected: false,
		},
		{
			name:     "required fail is critical",
			result:   CheckResult{Status: StatusFail, Required: true},
			expected: true,
		},
		{
			name:     "optional fail is not critical",
			result:   CheckResult{Status: StatusFail, Required: false},
			expected: false,
		},
		{
			name:     "required warn is not critical",
			result:   CheckResult{Status: StatusWarn, Required: true},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.IsCritical())
		})
	}
}

func TestAllChecks(t *testing.T) {
	assert.Equal(t, []string{NDKVersionCheck, TargetAPICheck, NDKAPICheck, PythonCheck}, AllChecks())
}

func TestChecker_New(t *testing.T) {
	// Given: default options
	checker := New()

	// Then: the recommended levels are evaluated by default
	assert.Equal(t, RecommendedTargetAPI, checker.targetAPI)
	assert.Equal(t, RecommendedNDKAPI, checker.ndkAPI)
	assert.Equal(t, android.ArchArm64V8a, checker.arch)
	assert.Equal(t, DefaultPythonInterpreter, checker.interpreter)
	assert.Empty(t, checker.ndkDir)
	assert.False(t, checker.verbose)
}

func TestChecker_NewWithOptions(t *testing.T) {
	// Given: custom options
	buf := &bytes.Buffer{}
	rec := &captureRecorder{}
	checker := New(
		WithNDKDir("/opt/ndk"),
		WithTargetAPI(34),
		WithNDKAPI(24),
		WithArch(android.ArchArmeabiV7a),
		WithPython("/usr/bin/python3.12"),
		WithSkip(PythonCheck),
		WithVerbose(true),
		WithOutput(buf),
		WithHistory(rec),
	)

	// Then: options are applied
	assert.Equal(t, "/opt/ndk", checker.ndkDir)
	assert.Equal(t, 34, checker.targetAPI)
	assert.Equal(t, 24, checker.ndkAPI)
	assert.Equal(t, android.ArchArmeabiV7a, checker.arch)
	assert.Equal(t, "/usr/bin/python3.12", checker.interpreter)
	assert.True(t, checker.skip[PythonCheck])
	assert.True(t, checker.verbose)
	assert.Equal(t, buf, checker.output)
	assert.Same(t, rec, checker.recorder)
}

func TestChecker_RunAll_ReturnsChecksInOrder(t *testing.T) {
	// Given: a healthy environment
	ndkDir := writeNDKDir(t, "27.0.12077973")
	python := fakeInterpreter(t, "echo 3.11.4")

	checker := New(
		WithNDKDir(ndkDir),
		WithTargetAPI(34),
		WithNDKAPI(24),
		WithArch(android.ArchArm64V8a),
		WithPython(python),
	)

	// When: running all checks
	results := checker.RunAll(context.Background())

	// Then: results arrive in the fixed order and all pass
	require.Len(t, results, 4)
	assert.Equal(t, NDKVersionCheck, results[0].Name)
	assert.Equal(t, TargetAPICheck, results[1].Name)
	assert.Equal(t, NDKAPICheck, results[2].Name)
	assert.Equal(t, PythonCheck, results[3].Name)
	for _, r := range results {
		assert.Equal(t, StatusPass, r.Status, r.Name)
		assert.True(t, r.Required, r.Name)
	}
	assert.Equal(t, "ready", checker.SummaryStatus(results))
	assert.False(t, checker.HasCriticalFailures(results))
}

func TestChecker_RunAll_SkipsNamedChecks(t *testing.T) {
	// Given: python and ndk_version skipped
	checker := New(
		WithTargetAPI(34),
		WithNDKAPI(24),
		WithSkip(PythonCheck, NDKVersionCheck),
	)

	// When: running all checks
	results := checker.RunAll(context.Background())

	// Then: only the remaining checks run, order preserved
	require.Len(t, results, 2)
	assert.Equal(t, TargetAPICheck, results[0].Name)
	assert.Equal(t, NDKAPICheck, results[1].Name)
}

func TestChecker_RunAll_RecordsHistory(t *testing.T) {
	// Given: a recorder and a healthy environment
	rec := &captureRecorder{}
	ndkDir := writeNDKDir(t, "27.1.12297006")
	checker := New(
		WithNDKDir(ndkDir),
		WithTargetAPI(34),
		WithNDKAPI(24),
		WithPython(fakeInterpreter(t, "echo 3.12.1")),
		WithHistory(rec),
	)

	// When: running all checks
	results := checker.RunAll(context.Background())

	// Then: the run is recorded once with the resolved inputs
	require.Equal(t, 1, rec.calls)
	assert.Equal(t, ndkDir, rec.inputs.NDKDir)
	assert.Equal(t, 34, rec.inputs.TargetAPI)
	assert.Equal(t, 24, rec.inputs.NDKAPI)
	assert.Equal(t, string(android.ArchArm64V8a), rec.inputs.Arch)
	assert.Equal(t, "ready", rec.summary)
	assert.Equal(t, results, rec.results)
}

func TestChecker_RunAll_RecorderFailureDoesNotAffectResults(t *testing.T) {
	// Given: a recorder that always fails
	rec := &captureRecorder{err: fmt.Errorf("disk full")}
	checker := New(
		WithNDKDir(writeNDKDir(t, "27.0.1")),
		WithTargetAPI(34),
		WithNDKAPI(24),
		WithPython(fakeInterpreter(t, "echo 3.11.0")),
		WithHistory(rec),
	)

	// When: running all checks
	results := checker.RunAll(context.Background())

	// Then: results are returned as if recording had succeeded
	require.Len(t, results, 4)
	assert.Equal(t, 1, rec.calls)
	assert.False(t, checker.HasCriticalFailures(results))
}

func TestChecker_HasCriticalFailures(t *testing.T) {
	checker := New()

	tests := []struct {
		name     string
		results  []CheckResult
		expected bool
	}{
		{
			name:     "no results",
			results:  []CheckResult{},
			expected: false,
		},
		{
			name: "all pass",
			results: []CheckResult{
				{Status: StatusPass, Required: true},
				{Status: StatusPass, Required: true},
			},
			expected: false,
		},
		{
			name: "warning only",
			results: []CheckResult{
				{Status: StatusPass, Required: true},
				{Status: StatusWarn, Required: false},
			},
			expected: false,
		},
		{
			name: "optional failure",
			results: []CheckResult{
				{Status: StatusPass, Required: true},
				{Status: StatusFail, Required: false},
			},
			expected: false,
		},
		{
			name: "required failure",
			results: []CheckResult{
				{Status: StatusPass, Required: true},
				{Status: StatusFail, Required: true},
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, checker.HasCriticalFailures(tt.results))
		})
	}
}

func TestChecker_FatalError(t *testing.T) {
	checker := New()

	t.Run("no critical failures", func(t *testing.T) {
		results := []CheckResult{
			{Status: StatusPass, Required: true},
			{Status: StatusWarn, Required: true},
		}
		assert.NoError(t, checker.FatalError(results))
	})

	t.Run("critical failure becomes a fatal gate error", func(t *testing.T) {
		results := []CheckResult{
			{Status: StatusPass, Required: true},
			{
				Name:        NDKVersionCheck,
				Status:      StatusFail,
				Required:    true,
				Code:        dgerrors.ErrCodeNDKBelowMinimum,
				Message:     "The minimum supported NDK version is 27.",
				Remediation: "Please download a supported NDK.",
			},
		}

		err := checker.FatalError(results)
		require.Error(t, err)
		assert.True(t, dgerrors.IsFatal(err))
		assert.Equal(t, dgerrors.ErrCodeNDKBelowMinimum, dgerrors.GetCode(err))
		assert.Equal(t, "Please download a supported NDK.", dgerrors.GetInstructions(err))
	})
}

func TestChecker_SummaryStatus(t *testing.T) {
	checker := New()

	tests := []struct {
		name     string
		results  []CheckResult
		expected string
	}{
		{
			name: "all pass",
			results: []CheckResult{
				{Status: StatusPass},
				{Status: StatusPass},
			},
			expected: "ready",
		},
		{
			name: "with warnings",
			results: []CheckResult{
				{Status: StatusPass},
				{Status: StatusWarn},
			},
			expected: "ready_with_warnings",
		},
		{
			name: "with critical failure",
			results: []CheckResult{
				{Status: StatusPass},
				{Status: StatusFail, Required: true},
			},
			expected: "failed",
		},
		{
			name: "with optional failure",
			results: []CheckResult{
				{Status: StatusPass},
				{Status: StatusFail, Required: false},
			},
			expected: "ready_with_warnings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, checker.SummaryStatus(tt.results))
		})
	}
}

func TestChecker_PrintResults(t *testing.T) {
	// Given: one result of each status
	results := []CheckResult{
		{Name: NDKVersionCheck, Status: StatusPass, Message: "Found NDK version 27b"},
		{Name: TargetAPICheck, Status: StatusWarn, Message: "Target API 29 < 30"},
		{
			Name:        NDKAPICheck,
			Status:      StatusFail,
			Required:    true,
			Message:     "Target NDK API 25 is higher than the target Android API 24.",
			Remediation: "NDK API must be <= target Android API.",
		},
	}

	buf := &bytes.Buffer{}
	checker := New(WithOutput(buf))

	// When: printing results
	checker.PrintResults(results)

	// Then: output carries statuses, remediation, and the summary
	output := buf.String()
	assert.Contains(t, output, "[PASS] ndk_version: Found NDK version 27b")
	assert.Contains(t, output, "[WARN] target_api: Target API 29 < 30")
	assert.Contains(t, output, "[FAIL] ndk_api:")
	assert.Contains(t, output, "      NDK API must be <= target Android API.")
	assert.Contains(t, output, "Status: FAILED")
	assert.Contains(t, output, "1 error(s):")
	assert.Contains(t, output, "1 warning(s):")
}

func TestChecker_PrintResults_VerboseShowsDetails(t *testing.T) {
	// Given: a warning with details
	results := []CheckResult{
		{Name: NDKVersionCheck, Status: StatusWarn, Message: "no NDK directory configured", Details: "set ndk.dir in .droidgate.yaml"},
	}

	buf := &bytes.Buffer{}
	checker := New(WithOutput(buf), WithVerbose(true))

	// When: printing results
	checker.PrintResults(results)

	// Then: details are shown
	assert.Contains(t, buf.String(), "set ndk.dir in .droidgate.yaml")
}
