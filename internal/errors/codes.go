// Package errors provides structured error handling for droidgate.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Environment errors (files, subprocesses, local stores)
//   - 4XX: Validation errors (gate verdicts)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryEnvironment indicates host-environment errors (files, probes, stores).
	CategoryEnvironment Category = "ENVIRONMENT"
	// CategoryValidation indicates gate validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates a build-blocking condition, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound   = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    = "ERR_102_CONFIG_INVALID"
	ErrCodeConfigPermission = "ERR_103_CONFIG_PERMISSION"

	// Environment errors (200-299)
	ErrCodeFileNotFound   = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission = "ERR_202_FILE_PERMISSION"
	ErrCodeHistoryStore   = "ERR_203_HISTORY_STORE"
	ErrCodeProbeFailed    = "ERR_204_PROBE_FAILED"
	ErrCodeLockFailed     = "ERR_205_LOCK_FAILED"

	// Validation errors (400-499)
	ErrCodeNDKBelowMinimum      = "ERR_401_NDK_BELOW_MINIMUM"
	ErrCodeArmeabiUnsupported   = "ERR_402_ARMEABI_API_UNSUPPORTED"
	ErrCodeNDKAPIAboveTarget    = "ERR_403_NDK_API_ABOVE_TARGET"
	ErrCodePython2Unsupported   = "ERR_404_PYTHON2_UNSUPPORTED"
	ErrCodePythonBelowMinimum   = "ERR_405_PYTHON_BELOW_MINIMUM"
	ErrCodeUnknownArch          = "ERR_406_UNKNOWN_ARCH"
	ErrCodeInvalidAPILevel      = "ERR_407_INVALID_API_LEVEL"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "401" from "ERR_401_NDK_BELOW_MINIMUM")
	numStr := code[4:7]
	if len(numStr) < 1 {
		return CategoryInternal
	}

	switch numStr[0] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryEnvironment
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
// The build-blocking verdicts are the codes an external build driver
// must treat as fatal; everything else is an ordinary error.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeNDKBelowMinimum,
		ErrCodeArmeabiUnsupported,
		ErrCodeNDKAPIAboveTarget,
		ErrCodePython2Unsupported,
		ErrCodePythonBelowMinimum:
		return SeverityFatal
	}

	return SeverityError
}
