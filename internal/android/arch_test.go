package android

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droidgate/droidgate/internal/errors"
)

func TestParse_KnownTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Arch
	}{
		{"legacy armeabi", "armeabi", ArchArmeabi},
		{"armeabi-v7a", "armeabi-v7a", ArchArmeabiV7a},
		{"arm64-v8a", "arm64-v8a", ArchArm64V8a},
		{"x86", "x86", ArchX86},
		{"x86_64", "x86_64", ArchX8664},
		{"uppercase input", "ARM64-V8A", ArchArm64V8a},
		{"surrounding whitespace", "  x86  ", ArchX86},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_UnknownTagSuggestsClosest(t *testing.T) {
	// Given: a near-miss typo
	_, err := Parse("armeabi-v7")

	// Then: the error carries a suggestion for the closest tag
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnknownArch, errors.GetCode(err))
	assert.Contains(t, errors.GetInstructions(err), "armeabi-v7a")
}

func TestParse_UnknownTagFarFromAnything(t *testing.T) {
	// Given: input nothing like a known tag
	_, err := Parse("powerpc9000")

	// Then: no "did you mean" phrasing, just the supported list
	require.Error(t, err)
	assert.NotContains(t, errors.GetInstructions(err), "Did you mean")
	assert.Contains(t, errors.GetInstructions(err), "arm64-v8a")
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse("")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnknownArch, errors.GetCode(err))
}

func TestIsLegacyArm(t *testing.T) {
	assert.True(t, ArchArmeabi.IsLegacyArm())
	assert.False(t, ArchArmeabiV7a.IsLegacyArm())
	assert.False(t, ArchArm64V8a.IsLegacyArm())
}

func TestSupported_ContainsAllTags(t *testing.T) {
	got := Supported()
	assert.Len(t, got, 5)
	assert.Contains(t, got, ArchArmeabi)
	assert.Contains(t, got, ArchX8664)
}
