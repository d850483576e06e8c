// Package testutils provides shared helpers for pipeline tests.
package testutils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"soss/internal/spectrum"
	"soss/pkg/sosstypes"
)

// TestSpectrum builds a small blackbody spectrum for tests.
func TestSpectrum(t *testing.T, temperature float64, n int) *sosstypes.Spectrum {
	t.Helper()
	grid, err := spectrum.Grid(0.5, 3.0, n)
	require.NoError(t, err)
	s, err := spectrum.Blackbody(temperature, grid)
	require.NoError(t, err)
	return s
}

// UncalPath returns a raw exposure path inside a per-test temp directory.
func UncalPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "soss_test_uncal.fits")
}

// RequireAllFinite fails the test if any value is NaN or infinite.
func RequireAllFinite(t *testing.T, values []float64) {
	t.Helper()
	for i, v := range values {
		require.False(t, v != v, "value %d is NaN", i)
		require.False(t, v > 1e300 || v < -1e300, "value %d is not finite: %g", i, v)
	}
}
