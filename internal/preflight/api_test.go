package preflight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droidgate/droidgate/internal/android"
	dgerrors "github.com/droidgate/droidgate/internal/errors"
)

func TestCheckTargetAPI(t *testing.T) {
	tests := []struct {
		name      string
		api       int
		arch      android.Arch
		wantFatal bool
	}{
		{"armeabi at the cutoff", 21, android.ArchArmeabi, true},
		{"armeabi above the cutoff", 30, android.ArchArmeabi, true},
		{"armeabi below the cutoff", 20, android.ArchArmeabi, false},
		{"old api on a modern arch", 29, android.ArchArm64V8a, false},
		{"minimum api", 30, android.ArchArm64V8a, false},
		{"recommended api", 34, android.ArchX86, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTargetAPI(tt.api, tt.arch)
			if tt.wantFatal {
				require.Error(t, err)
				assert.True(t, dgerrors.IsFatal(err))
				assert.Equal(t, dgerrors.ErrCodeArmeabiUnsupported, dgerrors.GetCode(err))
				assert.Equal(t, "Use --arch=armeabi-v7a instead.", dgerrors.GetInstructions(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckTargetAPI_ArmeabiRuleComesFirst(t *testing.T) {
	// Given: an API that is both below the minimum and inside the
	// armeabi cutoff
	err := CheckTargetAPI(25, android.ArchArmeabi)

	// Then: the armeabi verdict wins over the old-API warning
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API 25")
	assert.Contains(t, err.Error(), "does not support armeabi")
}

func TestCheckNDKAPI(t *testing.T) {
	tests := []struct {
		name       string
		ndkAPI     int
		androidAPI int
		wantFatal  bool
	}{
		{"ndk api above android api", 25, 24, true},
		{"ndk api below minimum", 20, 24, false},
		{"ndk api equal to android api", 24, 24, false},
		{"minimum ndk api", 21, 30, false},
		{"recommended ndk api", 24, 34, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckNDKAPI(tt.ndkAPI, tt.androidAPI)
			if tt.wantFatal {
				require.Error(t, err)
				assert.True(t, dgerrors.IsFatal(err))
				assert.Equal(t, dgerrors.ErrCodeNDKAPIAboveTarget, dgerrors.GetCode(err))
				assert.Contains(t, err.Error(), "Target NDK API 25 is higher than the target Android API 24.")
				assert.Equal(t, "NDK API must be <= target Android API.", dgerrors.GetInstructions(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckNDKAPI_Idempotent(t *testing.T) {
	first := CheckNDKAPI(25, 24)
	second := CheckNDKAPI(25, 24)

	require.Error(t, first)
	require.Error(t, second)
	assert.Equal(t, first.Error(), second.Error())
}

func TestChecker_CheckTargetAPI_Pass(t *testing.T) {
	checker := New(WithTargetAPI(34), WithArch(android.ArchArm64V8a))

	result := checker.CheckTargetAPI()

	assert.Equal(t, StatusPass, result.Status)
	assert.Equal(t, TargetAPICheck, result.Name)
	assert.Equal(t, "API 34 (minimum: 30)", result.Message)
}

func TestChecker_CheckTargetAPI_WarnBelowMinimum(t *testing.T) {
	checker := New(WithTargetAPI(29), WithArch(android.ArchArm64V8a))

	result := checker.CheckTargetAPI()

	assert.Equal(t, StatusWarn, result.Status)
	assert.Equal(t, "Target API 29 < 30", result.Message)
	assert.Contains(t, result.Details, "no longer supported on Google Play")
}

func TestChecker_CheckTargetAPI_FailArmeabi(t *testing.T) {
	checker := New(WithTargetAPI(21), WithArch(android.ArchArmeabi))

	result := checker.CheckTargetAPI()

	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, dgerrors.ErrCodeArmeabiUnsupported, result.Code)
	assert.Contains(t, result.Message, "does not support armeabi")
	assert.Equal(t, "Use --arch=armeabi-v7a instead.", result.Remediation)
}

func TestChecker_CheckNDKAPI_Pass(t *testing.T) {
	checker := New(WithTargetAPI(34), WithNDKAPI(24))

	result := checker.CheckNDKAPI()

	assert.Equal(t, StatusPass, result.Status)
	assert.Equal(t, NDKAPICheck, result.Name)
	assert.Equal(t, "API 24 (minimum: 21)", result.Message)
}

func TestChecker_CheckNDKAPI_WarnBelowMinimum(t *testing.T) {
	checker := New(WithTargetAPI(34), WithNDKAPI(19))

	result := checker.CheckNDKAPI()

	assert.Equal(t, StatusWarn, result.Status)
	assert.Equal(t, "NDK API less than 21 is not supported", result.Message)
}

func TestChecker_CheckNDKAPI_FailAboveTarget(t *testing.T) {
	checker := New(WithTargetAPI(24), WithNDKAPI(25))

	result := checker.CheckNDKAPI()

	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, dgerrors.ErrCodeNDKAPIAboveTarget, result.Code)
	assert.Equal(t, "Target NDK API 25 is higher than the target Android API 24.", result.Message)
	assert.Equal(t, "NDK API must be <= target Android API.", result.Remediation)
}
