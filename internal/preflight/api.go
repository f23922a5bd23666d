package preflight

import (
	"fmt"
	"log/slog"

	"github.com/droidgate/droidgate/internal/android"
	dgerrors "github.com/droidgate/droidgate/internal/errors"
)

const (
	// MinTargetAPI is the lowest target Android API accepted without a
	// warning. Google Play rejects anything older.
	MinTargetAPI = 30
	// RecommendedTargetAPI tracks the current Play Store requirement.
	RecommendedTargetAPI = 34
	// ArmeabiMaxTargetAPI is the API level that dropped armeabi support.
	ArmeabiMaxTargetAPI = 21

	// MinNDKAPI is the lowest supported NDK API level.
	MinNDKAPI = 21
	// RecommendedNDKAPI is safe for SDL2 and most bootstraps.
	RecommendedNDKAPI = 24
)

const (
	oldTargetAPIFormat    = "Target APIs lower than %d are no longer supported on Google Play. The Target API should usually be as high as possible."
	armeabiTargetFormat   = "Asked to build for armeabi architecture with API %d, but API %d or greater does not support armeabi."
	oldNDKAPIFormat       = "NDK API less than %d is not supported"
	ndkAPIAboveTargetText = "Target NDK API %d is higher than the target Android API %d."
)

// CheckTargetAPI validates the target Android API level for an
// architecture. Building armeabi at any API level that dropped it is
// build-blocking; a merely old target API warns and passes. The armeabi
// rule is evaluated first.
func CheckTargetAPI(api int, arch android.Arch) error {
	if arch.IsLegacyArm() && api >= ArmeabiMaxTargetAPI {
		return armeabiTargetAPIError(api)
	}
	if api < MinTargetAPI {
		slog.Warn(fmt.Sprintf("Target API %d < %d", api, MinTargetAPI))
		slog.Warn(fmt.Sprintf(oldTargetAPIFormat, MinTargetAPI))
	}
	return nil
}

func armeabiTargetAPIError(api int) *dgerrors.GateError {
	return dgerrors.BuildBlocking(
		dgerrors.ErrCodeArmeabiUnsupported,
		fmt.Sprintf(armeabiTargetFormat, api, ArmeabiMaxTargetAPI),
		"Use --arch=armeabi-v7a instead.",
	)
}

// CheckNDKAPI validates the NDK API level against the target Android
// API. An NDK API above the Android API is build-blocking; one below
// MinNDKAPI warns and passes.
func CheckNDKAPI(ndkAPI, androidAPI int) error {
	if ndkAPI > androidAPI {
		return ndkAPIAboveTargetError(ndkAPI, androidAPI)
	}
	if ndkAPI < MinNDKAPI {
		slog.Warn(fmt.Sprintf(oldNDKAPIFormat, MinNDKAPI))
	}
	return nil
}

func ndkAPIAboveTargetError(ndkAPI, androidAPI int) *dgerrors.GateError {
	return dgerrors.BuildBlocking(
		dgerrors.ErrCodeNDKAPIAboveTarget,
		fmt.Sprintf(ndkAPIAboveTargetText, ndkAPI, androidAPI),
		"NDK API must be <= target Android API.",
	)
}

// CheckTargetAPI reports the target API check as a preflight result.
func (c *Checker) CheckTargetAPI() CheckResult {
	result := CheckResult{Name: TargetAPICheck, Required: true}

	switch {
	case c.arch.IsLegacyArm() && c.targetAPI >= ArmeabiMaxTargetAPI:
		result.markFailed(armeabiTargetAPIError(c.targetAPI))
	case c.targetAPI < MinTargetAPI:
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("Target API %d < %d", c.targetAPI, MinTargetAPI)
		result.Details = fmt.Sprintf(oldTargetAPIFormat, MinTargetAPI)
	default:
		result.Status = StatusPass
		result.Message = fmt.Sprintf("API %d (minimum: %d)", c.targetAPI, MinTargetAPI)
	}
	return result
}

// CheckNDKAPI reports the NDK API check as a preflight result.
func (c *Checker) CheckNDKAPI() CheckResult {
	result := CheckResult{Name: NDKAPICheck, Required: true}

	switch {
	case c.ndkAPI > c.targetAPI:
		result.markFailed(ndkAPIAboveTargetError(c.ndkAPI, c.targetAPI))
	case c.ndkAPI < MinNDKAPI:
		result.Status = StatusWarn
		result.Message = fmt.Sprintf(oldNDKAPIFormat, MinNDKAPI)
		result.Details = fmt.Sprintf("NDK API %d", c.ndkAPI)
	default:
		result.Status = StatusPass
		result.Message = fmt.Sprintf("API %d (minimum: %d)", c.ndkAPI, MinNDKAPI)
	}
	return result
}
