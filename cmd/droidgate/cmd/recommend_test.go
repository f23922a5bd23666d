package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droidgate/droidgate/internal/preflight"
)

func TestRecommendCmd_PlainOutput(t *testing.T) {
	output, err := execDroidgate(t, "recommend")

	require.NoError(t, err)
	assert.Contains(t, output, "Min supported NDK version: 27")
	assert.Contains(t, output, "Recommended NDK version: 28c")
	assert.Contains(t, output, "Min target API: 30")
	assert.Contains(t, output, "Recommended target API: 34")
	assert.Contains(t, output, "Min NDK API: 21")
	assert.Contains(t, output, "Recommended NDK API: 24")
}

func TestRecommendCmd_Table(t *testing.T) {
	output, err := execDroidgate(t, "recommend", "--table")

	require.NoError(t, err)
	assert.Contains(t, output, "SETTING", "Table headers are upper-cased")
	assert.Contains(t, output, "NDK version")
	assert.Contains(t, output, "28c")
}

func TestRecommendCmd_JSON(t *testing.T) {
	output, err := execDroidgate(t, "recommend", "--json")

	require.NoError(t, err)

	var rec preflight.Recommendations
	require.NoError(t, json.Unmarshal([]byte(output), &rec))
	assert.Equal(t, preflight.CurrentRecommendations(), rec)
	assert.Equal(t, "28c", rec.RecommendedNDKVersion)
}
