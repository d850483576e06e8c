package spectrum

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrid(t *testing.T) {
	tests := []struct {
		name    string
		min     float64
		max     float64
		n       int
		wantErr bool
	}{
		{name: "valid grid", min: 0.5, max: 3.0, n: 1000},
		{name: "two samples", min: 1.0, max: 2.0, n: 2},
		{name: "too few samples", min: 0.5, max: 3.0, n: 1, wantErr: true},
		{name: "inverted range", min: 3.0, max: 0.5, n: 100, wantErr: true},
		{name: "non-positive minimum", min: 0, max: 3.0, n: 100, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := Grid(tt.min, tt.max, tt.n)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, grid, tt.n)
			assert.InDelta(t, tt.min, grid[0], 1e-12)
			assert.InDelta(t, tt.max, grid[len(grid)-1], 1e-12)
			for i := 1; i < len(grid); i++ {
				assert.Greater(t, grid[i], grid[i-1])
			}
		})
	}
}

func TestBlackbodyShape(t *testing.T) {
	grid, err := Grid(0.5, 3.0, 1000)
	require.NoError(t, err)

	s, err := Blackbody(2000, grid)
	require.NoError(t, err)

	require.Len(t, s.Flux, len(s.Wavelength))
	require.Len(t, s.Wavelength, 1000)
	for i, f := range s.Flux {
		assert.GreaterOrEqual(t, f, 0.0, "flux negative at index %d", i)
	}
	assert.NoError(t, s.Validate())
}

func TestBlackbodyPeakFollowsWien(t *testing.T) {
	grid, err := Grid(0.5, 5.0, 4000)
	require.NoError(t, err)

	s, err := Blackbody(2000, grid)
	require.NoError(t, err)

	peak := 0
	for i, f := range s.Flux {
		if f > s.Flux[peak] {
			peak = i
		}
	}
	// Wien displacement: lambda_max = 2898 micron K / T.
	assert.InDelta(t, 2898.0/2000.0, s.Wavelength[peak], 0.05)
}

func TestBlackbodyInvalidParameters(t *testing.T) {
	grid, err := Grid(0.5, 3.0, 100)
	require.NoError(t, err)

	tests := []struct {
		name        string
		temperature float64
		wavelengths []float64
	}{
		{name: "zero temperature", temperature: 0, wavelengths: grid},
		{name: "negative temperature", temperature: -100, wavelengths: grid},
		{name: "empty grid", temperature: 2000, wavelengths: nil},
		{name: "non-monotonic grid", temperature: 2000, wavelengths: []float64{0.5, 1.0, 0.9}},
		{name: "duplicate wavelengths", temperature: 2000, wavelengths: []float64{0.5, 0.5, 1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Blackbody(tt.temperature, tt.wavelengths)
			assert.Error(t, err)
		})
	}
}

func TestSampler(t *testing.T) {
	grid, err := Grid(1.0, 2.0, 11)
	require.NoError(t, err)

	s, err := Blackbody(3000, grid)
	require.NoError(t, err)

	sm, err := NewSampler(s)
	require.NoError(t, err)

	// Exact at grid points.
	for i, w := range s.Wavelength {
		assert.InEpsilon(t, s.Flux[i], sm.Flux(w), 1e-9)
	}

	// Between grid points the interpolant stays between the neighbors.
	mid := sm.Flux(1.55)
	lo := math.Min(sm.Flux(1.5), sm.Flux(1.6))
	hi := math.Max(sm.Flux(1.5), sm.Flux(1.6))
	assert.GreaterOrEqual(t, mid, lo)
	assert.LessOrEqual(t, mid, hi)

	// Zero outside coverage.
	assert.Zero(t, sm.Flux(0.5))
	assert.Zero(t, sm.Flux(2.5))
}
