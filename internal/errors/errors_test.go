package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("original error")

	// When: wrapping with GateError
	gateErr := New(ErrCodeFileNotFound, "file not found: source.properties", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, gateErr)
	assert.Equal(t, originalErr, errors.Unwrap(gateErr))
	assert.True(t, errors.Is(gateErr, originalErr))
}

func TestGateError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "config error",
			code:     ErrCodeConfigNotFound,
			message:  "config file not found",
			expected: "[ERR_101_CONFIG_NOT_FOUND] config file not found",
		},
		{
			name:     "environment error",
			code:     ErrCodeFileNotFound,
			message:  "source.properties not found",
			expected: "[ERR_201_FILE_NOT_FOUND] source.properties not found",
		},
		{
			name:     "gate verdict",
			code:     ErrCodeNDKBelowMinimum,
			message:  "NDK 25 is below the minimum supported version",
			expected: "[ERR_401_NDK_BELOW_MINIMUM] NDK 25 is below the minimum supported version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestGateError_Is_MatchesByCode(t *testing.T) {
	// Given: two errors with same code
	err1 := New(ErrCodeFileNotFound, "file A not found", nil)
	err2 := New(ErrCodeFileNotFound, "file B not found", nil)

	// Then: they match by code
	assert.True(t, errors.Is(err1, err2))
}

func TestGateError_Is_DoesNotMatchDifferentCodes(t *testing.T) {
	// Given: two errors with different codes
	err1 := New(ErrCodeFileNotFound, "file not found", nil)
	err2 := New(ErrCodeConfigNotFound, "config not found", nil)

	// Then: they don't match
	assert.False(t, errors.Is(err1, err2))
}

func TestGateError_WithDetails_AddsContext(t *testing.T) {
	// Given: a base error
	err := New(ErrCodeFileNotFound, "file not found", nil)

	// When: adding details
	err = err.WithDetail("path", "/opt/android/ndk")
	err = err.WithDetail("api", "30")

	// Then: details are available
	assert.Equal(t, "/opt/android/ndk", err.Details["path"])
	assert.Equal(t, "30", err.Details["api"])
}

func TestGateError_WithInstructions_AddsInstructions(t *testing.T) {
	// Given: a gate verdict
	err := New(ErrCodeNDKBelowMinimum, "NDK version too old", nil)

	// When: adding instructions
	err = err.WithInstructions("Please download a supported NDK")

	// Then: instructions are a separate field, not folded into the message
	assert.Equal(t, "Please download a supported NDK", err.Instructions)
	assert.NotContains(t, err.Error(), "Please download")
}

func TestGateError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantCategory Category
	}{
		{ErrCodeConfigNotFound, CategoryConfig},
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeFileNotFound, CategoryEnvironment},
		{ErrCodeProbeFailed, CategoryEnvironment},
		{ErrCodeHistoryStore, CategoryEnvironment},
		{ErrCodeNDKBelowMinimum, CategoryValidation},
		{ErrCodeArmeabiUnsupported, CategoryValidation},
		{ErrCodeUnknownArch, CategoryValidation},
		{ErrCodeInternal, CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantCategory, err.Category)
		})
	}
}

func TestGateError_SeverityFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantSeverity Severity
	}{
		// Build-blocking verdicts
		{ErrCodeNDKBelowMinimum, SeverityFatal},
		{ErrCodeArmeabiUnsupported, SeverityFatal},
		{ErrCodeNDKAPIAboveTarget, SeverityFatal},
		{ErrCodePython2Unsupported, SeverityFatal},
		{ErrCodePythonBelowMinimum, SeverityFatal},
		// Ordinary errors
		{ErrCodeConfigInvalid, SeverityError},
		{ErrCodeFileNotFound, SeverityError},
		{ErrCodeUnknownArch, SeverityError},
		{ErrCodeHistoryStore, SeverityError},
		{ErrCodeInternal, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantSeverity, err.Severity)
		})
	}
}

func TestBuildBlocking_CarriesMessageAndInstructions(t *testing.T) {
	// Given/When: a build-blocking verdict
	err := BuildBlocking(ErrCodeNDKAPIAboveTarget,
		"Target NDK API 25 is higher than the target Android API 24.",
		"The NDK API must be <= the target Android API.")

	// Then: severity is fatal and both fields stay distinct
	assert.Equal(t, SeverityFatal, err.Severity)
	assert.Equal(t, "Target NDK API 25 is higher than the target Android API 24.", err.Message)
	assert.Equal(t, "The NDK API must be <= the target Android API.", err.Instructions)
	assert.True(t, IsFatal(err))
}

func TestWrap_CreatesGateErrorFromError(t *testing.T) {
	// Given: a standard error
	originalErr := errors.New("something went wrong")

	// When: wrapping with a code
	gateErr := Wrap(ErrCodeInternal, originalErr)

	// Then: creates proper GateError
	require.NotNil(t, gateErr)
	assert.Equal(t, ErrCodeInternal, gateErr.Code)
	assert.Equal(t, "something went wrong", gateErr.Message)
	assert.Equal(t, originalErr, gateErr.Cause)
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestWrap_PreservesErrorChain(t *testing.T) {
	// Given: a wrapped chain
	base := errors.New("database locked")
	mid := fmt.Errorf("open history: %w", base)

	// When: wrapping into a GateError
	err := Wrap(ErrCodeHistoryStore, mid)

	// Then: the whole chain is reachable
	assert.True(t, errors.Is(err, base))
	assert.Equal(t, mid.Error(), err.Message)
}

func TestConfigError_CreatesConfigCategoryError(t *testing.T) {
	err := ConfigError("invalid yaml syntax", nil)

	assert.Equal(t, CategoryConfig, err.Category)
	assert.Contains(t, err.Code, "CONFIG")
}

func TestEnvError_CreatesEnvironmentCategoryError(t *testing.T) {
	err := EnvError("cannot read file", nil)

	assert.Equal(t, CategoryEnvironment, err.Category)
}

func TestValidationError_CreatesValidationCategoryError(t *testing.T) {
	err := ValidationError("api level must be positive", nil)

	assert.Equal(t, CategoryValidation, err.Category)
}

func TestIsFatal_ChecksFatalSeverity(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "build-blocking verdict",
			err:      New(ErrCodePython2Unsupported, "python 2 detected", nil),
			expected: true,
		},
		{
			name:     "armeabi verdict",
			err:      New(ErrCodeArmeabiUnsupported, "armeabi at API 21", nil),
			expected: true,
		},
		{
			name:     "non-fatal error",
			err:      New(ErrCodeFileNotFound, "not found", nil),
			expected: false,
		},
		{
			name:     "standard error",
			err:      errors.New("standard error"),
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsFatal(tt.err))
		})
	}
}

func TestGetCode_And_GetInstructions(t *testing.T) {
	// Given: a verdict with instructions
	err := BuildBlocking(ErrCodeArmeabiUnsupported, "armeabi not supported", "Use --arch=armeabi-v7a instead.")

	// Then: accessors return the fields for GateError and zero values otherwise
	assert.Equal(t, ErrCodeArmeabiUnsupported, GetCode(err))
	assert.Equal(t, "Use --arch=armeabi-v7a instead.", GetInstructions(err))
	assert.Equal(t, CategoryValidation, GetCategory(err))

	plain := errors.New("plain")
	assert.Equal(t, "", GetCode(plain))
	assert.Equal(t, "", GetInstructions(plain))
	assert.Equal(t, Category(""), GetCategory(plain))
}
