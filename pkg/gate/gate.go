package gate

import (
	"context"
	"fmt"
	"io"

	"github.com/Masterminds/semver/v3"

	"github.com/droidgate/droidgate/internal/android"
	dgerrors "github.com/droidgate/droidgate/internal/errors"
	"github.com/droidgate/droidgate/internal/preflight"
)

// Thresholds the gate enforces, re-exported so embedders can display or
// compare against them without importing internals.
const (
	// MinNDKVersion is the lowest NDK major version accepted.
	MinNDKVersion = preflight.MinNDKVersion
	// MaxNDKVersion is the highest NDK major version known to work.
	MaxNDKVersion = preflight.MaxNDKVersion
	// RecommendedNDKVersion is the release label suggested in
	// remediation output, e.g. "28c".
	RecommendedNDKVersion = preflight.RecommendedNDKVersion
	// NDKDownloadURL is where users can fetch a supported NDK.
	NDKDownloadURL = preflight.NDKDownloadURL

	// MinTargetAPI is the lowest target Android API accepted without a
	// warning.
	MinTargetAPI = preflight.MinTargetAPI
	// RecommendedTargetAPI tracks the current Play Store requirement.
	RecommendedTargetAPI = preflight.RecommendedTargetAPI
	// ArmeabiMaxTargetAPI is the API level that dropped armeabi support.
	ArmeabiMaxTargetAPI = preflight.ArmeabiMaxTargetAPI

	// MinNDKAPI is the lowest supported NDK API level.
	MinNDKAPI = preflight.MinNDKAPI
	// RecommendedNDKAPI is the NDK API suggested for new builds.
	RecommendedNDKAPI = preflight.RecommendedNDKAPI
)

// Check names, as reported in a [Report] and accepted by [Config.Skip].
const (
	NDKVersionCheck = preflight.NDKVersionCheck
	TargetAPICheck  = preflight.TargetAPICheck
	NDKAPICheck     = preflight.NDKAPICheck
	PythonCheck     = preflight.PythonCheck
)

// Stable codes returned by [Code] for check verdicts.
const (
	CodeNDKBelowMinimum    = dgerrors.ErrCodeNDKBelowMinimum
	CodeArmeabiUnsupported = dgerrors.ErrCodeArmeabiUnsupported
	CodeNDKAPIAboveTarget  = dgerrors.ErrCodeNDKAPIAboveTarget
	CodePython2Unsupported = dgerrors.ErrCodePython2Unsupported
	CodePythonBelowMinimum = dgerrors.ErrCodePythonBelowMinimum
	CodeUnknownArch        = dgerrors.ErrCodeUnknownArch
)

// ValidChecks returns every check name, in execution order.
func ValidChecks() []string {
	return preflight.AllChecks()
}

// SupportedArchitectures returns the Android ABI names the gate accepts.
func SupportedArchitectures() []string {
	archs := android.Supported()
	names := make([]string, 0, len(archs))
	for _, a := range archs {
		names = append(names, a.String())
	}
	return names
}

// CheckTargetAPI validates a target Android API level for an ABI.
// Building armeabi at an API level that dropped it is build-blocking; a
// merely old target API logs a warning and passes. An unrecognized ABI
// name is an error carrying a suggestion in [Instructions].
func CheckTargetAPI(api int, arch string) error {
	a, err := android.Parse(arch)
	if err != nil {
		return err
	}
	return preflight.CheckTargetAPI(api, a)
}

// CheckNDKAPI validates the NDK API level against the target Android
// API. An NDK API above the target is build-blocking; one below
// MinNDKAPI logs a warning and passes.
func CheckNDKAPI(ndkAPI, targetAPI int) error {
	return preflight.CheckNDKAPI(ndkAPI, targetAPI)
}

// CheckNDKVersion checks the NDK installed at ndkDir against the
// supported major-version window. An unreadable install logs warnings
// and passes; only a major below MinNDKVersion is build-blocking.
func CheckNDKVersion(ndkDir string) error {
	return preflight.CheckNDKVersion(ndkDir)
}

// CheckPython probes the interpreter on PATH and validates its version.
// Python 2 and anything below the minimum 3.x are build-blocking; a
// failed probe logs a warning and passes.
func CheckPython(ctx context.Context, interpreter string) error {
	return preflight.CheckPython(ctx, interpreter)
}

// CheckPythonVersion validates an already-detected interpreter version
// such as "3.11.4", without probing anything. Python 2 and versions
// below the minimum 3.x are build-blocking. An unparseable version
// string is an ordinary error, not a verdict.
func CheckPythonVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid python version %q: %w", version, err)
	}
	return preflight.CheckPythonVersion(v)
}

// NDKRevision reads the revision of the NDK installed at dir from its
// source.properties, returning both the raw revision ("27.1.12297006")
// and the upstream release label ("27b"). ok is false when nothing
// readable is installed there.
func NDKRevision(dir string) (revision, label string, ok bool) {
	v := preflight.ReadNDKVersion(dir)
	if v == nil {
		return "", "", false
	}
	return v.String(), preflight.NDKVersionLabel(v), true
}

// IsBuildBlocking reports whether err is a verdict that must stop a
// build, as opposed to an environmental problem such as an unreadable
// directory.
func IsBuildBlocking(err error) bool {
	return dgerrors.IsFatal(err)
}

// Code returns the stable machine-readable code carried by err, or ""
// for errors that did not come from a check.
func Code(err error) string {
	return dgerrors.GetCode(err)
}

// Instructions returns the remediation text carried by err, or "".
func Instructions(err error) string {
	return dgerrors.GetInstructions(err)
}

// PrintRecommendations writes every enforced threshold to w, one per
// line, in the exact shape `droidgate recommend` prints.
func PrintRecommendations(w io.Writer) {
	preflight.PrintRecommendations(w)
}

// Recommendations bundles every threshold the gate enforces.
type Recommendations struct {
	MinNDKVersion         int    `json:"min_ndk_version"`
	RecommendedNDKVersion string `json:"recommended_ndk_version"`
	MinTargetAPI          int    `json:"min_target_api"`
	RecommendedTargetAPI  int    `json:"recommended_target_api"`
	MinNDKAPI             int    `json:"min_ndk_api"`
	RecommendedNDKAPI     int    `json:"recommended_ndk_api"`
}

// CurrentRecommendations returns the thresholds this version enforces.
func CurrentRecommendations() Recommendations {
	r := preflight.CurrentRecommendations()
	return Recommendations{
		MinNDKVersion:         r.MinNDKVersion,
		RecommendedNDKVersion: r.RecommendedNDKVersion,
		MinTargetAPI:          r.MinTargetAPI,
		RecommendedTargetAPI:  r.RecommendedTargetAPI,
		MinNDKAPI:             r.MinNDKAPI,
		RecommendedNDKAPI:     r.RecommendedNDKAPI,
	}
}
