package preflight

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	dgerrors "github.com/droidgate/droidgate/internal/errors"
)

// Only the NDK major version is gated. Minor versions map to upstream
// bugfix letters and never change the verdict.
const (
	// MinNDKVersion is the lowest NDK major version the gate accepts.
	MinNDKVersion = 27
	// MaxNDKVersion is the highest NDK major version known to work.
	MaxNDKVersion = 27

	// RecommendedNDKVersion is the release label suggested in remediation
	// output. Kept as the human label ("28c"), not a number.
	RecommendedNDKVersion = "28c"

	// NDKDownloadURL is where users can fetch a supported NDK.
	NDKDownloadURL = "https://developer.android.com/ndk/downloads/"
)

const (
	newNDKMessage         = "Newer NDKs may not be fully supported."
	unknownNDKMessage     = "Could not determine NDK version, no source.properties in the NDK dir."
	missingRevisionFormat = "Could not parse %s, not checking NDK version."
	badRevisionFormat     = "Could not parse NDK version %q, not checking NDK version."
	readErrorFormat       = "Unable to read the NDK version from the given directory %s."
	ensureRightFormat     = "Make sure your NDK version is greater than %d. If you get build errors, download the recommended NDK %s from %s."
	belowMinimumFormat    = "The minimum supported NDK version is %d. You can download it from %s."
	aboveMaximumFormat    = "Maximum recommended NDK version is %s, but newer versions may work."
	foundVersionFormat    = "Found NDK version %s"
	downloadFormat        = "Please download a supported NDK from %s.\n*** The currently recommended NDK version is %s ***"
)

// ReadNDKVersion reads the NDK version from <ndkDir>/source.properties.
// A missing file, a missing Pkg.Revision key, or an unparseable value all
// degrade to a log entry and a nil version, never an error.
func ReadNDKVersion(ndkDir string) *semver.Version {
	path := filepath.Join(ndkDir, "source.properties")
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Info(unknownNDKMessage)
		return nil
	}

	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "Pkg.Revision") {
			continue
		}
		raw := strings.TrimSpace(line[strings.LastIndex(line, "=")+1:])
		v, err := semver.NewVersion(raw)
		if err != nil {
			slog.Warn(fmt.Sprintf(badRevisionFormat, raw))
			return nil
		}
		return v
	}

	slog.Info(fmt.Sprintf(missingRevisionFormat, path))
	return nil
}

// NDKVersionLabel renders a parsed NDK version the way upstream labels
// releases: the major version plus a bugfix letter, minor 1 meaning "b"
// (27.1 -> "27b"). Minor 0 and anything past "z" carry no letter.
func NDKVersionLabel(v *semver.Version) string {
	if minor := v.Minor(); minor >= 1 && minor <= 25 {
		return fmt.Sprintf("%d%c", v.Major(), 'a'+minor)
	}
	return fmt.Sprintf("%d", v.Major())
}

// CheckNDKVersion checks the NDK installed at ndkDir against the
// supported major-version window. An unknown version produces warnings
// and passes; a major below MinNDKVersion is build-blocking.
func CheckNDKVersion(ndkDir string) error {
	v := ReadNDKVersion(ndkDir)
	if v == nil {
		slog.Warn(fmt.Sprintf(readErrorFormat, ndkDir))
		slog.Warn(fmt.Sprintf(ensureRightFormat, MinNDKVersion, RecommendedNDKVersion, NDKDownloadURL))
		return nil
	}

	slog.Info(fmt.Sprintf(foundVersionFormat, NDKVersionLabel(v)))

	switch {
	case v.Major() < MinNDKVersion:
		return ndkBelowMinimumError()
	case v.Major() > MaxNDKVersion:
		slog.Warn(fmt.Sprintf(aboveMaximumFormat, RecommendedNDKVersion))
		slog.Warn(newNDKMessage)
	}
	return nil
}

func ndkBelowMinimumError() *dgerrors.GateError {
	return dgerrors.BuildBlocking(
		dgerrors.ErrCodeNDKBelowMinimum,
		fmt.Sprintf(belowMinimumFormat, MinNDKVersion, NDKDownloadURL),
		fmt.Sprintf(downloadFormat, NDKDownloadURL, RecommendedNDKVersion),
	)
}

// CheckNDKVersion reports the NDK version check as a preflight result.
func (c *Checker) CheckNDKVersion() CheckResult {
	result := CheckResult{Name: NDKVersionCheck, Required: true}

	if c.ndkDir == "" {
		result.Status = StatusWarn
		result.Message = "no NDK directory configured"
		result.Details = "set ndk.dir in .droidgate.yaml or export ANDROID_NDK_HOME"
		return result
	}

	v := ReadNDKVersion(c.ndkDir)
	if v == nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf(readErrorFormat, c.ndkDir)
		result.Remediation = fmt.Sprintf(ensureRightFormat, MinNDKVersion, RecommendedNDKVersion, NDKDownloadURL)
		return result
	}

	label := NDKVersionLabel(v)
	switch {
	case v.Major() < MinNDKVersion:
		result.markFailed(ndkBelowMinimumError())
		result.Details = fmt.Sprintf(foundVersionFormat, label)
	case v.Major() > MaxNDKVersion:
		result.Status = StatusWarn
		result.Message = fmt.Sprintf(aboveMaximumFormat, RecommendedNDKVersion)
		result.Details = newNDKMessage
	default:
		result.Status = StatusPass
		result.Message = fmt.Sprintf(foundVersionFormat, label)
	}
	return result
}
