package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soss/pkg/sosstypes"
)

func TestDefaultParams(t *testing.T) {
	params := DefaultParams()
	assert.Equal(t, 2000.0, params.Temperature)
	assert.Equal(t, 0.5, params.WaveMin)
	assert.Equal(t, 3.0, params.WaveMax)
	assert.Equal(t, 1000, params.WaveSamples)
	assert.Equal(t, 2, params.NInts)
	assert.Equal(t, 2, params.NGroups)
	assert.Equal(t, sosstypes.FilterClear, params.Filter)
	assert.Equal(t, sosstypes.SubarrayStrip256, params.Subarray)
}

func TestLoadParamsFile(t *testing.T) {
	content := `temperature: 3500
nints: 4
filter: F277W
`
	path := filepath.Join(t.TempDir(), "obs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	params, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3500.0, params.Temperature)
	assert.Equal(t, 4, params.NInts)
	assert.Equal(t, sosstypes.FilterF277W, params.Filter)
	// Untouched keys keep their defaults.
	assert.Equal(t, 2, params.NGroups)
	assert.Equal(t, sosstypes.SubarrayStrip256, params.Subarray)
}

func TestLoadMissingParamsFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedParamsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("temperature: [not a number"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	content := "temperature: 3500\n"
	path := filepath.Join(t.TempDir(), "obs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("SOSS_TEMPERATURE", "1500")
	t.Setenv("SOSS_NGROUPS", "5")
	t.Setenv("SOSS_SUBARRAY", "SUBSTRIP96")

	params, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1500.0, params.Temperature, "environment must beat the params file")
	assert.Equal(t, 5, params.NGroups)
	assert.Equal(t, sosstypes.SubarrayStrip96, params.Subarray)
}

func TestEnvironmentParseErrors(t *testing.T) {
	t.Setenv("SOSS_NINTS", "two")

	_, err := Load("")
	assert.Error(t, err)
}
