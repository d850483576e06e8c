package exposure

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gonum.org/v1/gonum/stat"

	"soss/internal/plotting"
	"soss/internal/simulator"
	"soss/internal/spectrum"
	"soss/internal/trace"
	"soss/pkg/sosstypes"
)

// TestEndToEndRecovery runs the reference workflow: a 2000 K blackbody over
// 0.5-3.0 microns (1000 points), 2 integrations of 2 groups, simulated,
// exported, reloaded, calibrated and extracted. The recovered first
// integration must track the input spectrum shape.
func TestEndToEndRecovery(t *testing.T) {
	if testing.Short() {
		t.Skip("full-frame end-to-end simulation")
	}

	grid, err := spectrum.Grid(0.5, 3.0, 1000)
	require.NoError(t, err)
	star, err := spectrum.Blackbody(2000, grid)
	require.NoError(t, err)

	sim, err := simulator.New(2, 2, star, simulator.WithSeed(99))
	require.NoError(t, err)
	require.NoError(t, sim.Run(context.Background()))

	dir := t.TempDir()
	path := filepath.Join(dir, "soss_e2e_uncal.fits")
	require.NoError(t, sim.Export(path))

	x, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, x.Uncal.CheckShape(2, 2, 256, 2048))

	require.NoError(t, x.Calibrate(context.Background()))
	require.NoError(t, x.Extract("sum", sosstypes.ProductRateInts, "Extracted Spectrum"))

	result := x.Results["Extracted Spectrum"]
	require.NotNil(t, result)
	require.NoError(t, result.Validate())
	assert.Equal(t, 2, result.NIntegrations())

	// Compare recovered flux with the input over the well-exposed core of
	// order 1, where aperture losses and shot noise are small.
	sampler, err := spectrum.NewSampler(star)
	require.NoError(t, err)

	var want, got []float64
	for j, w := range result.Wavelength {
		if trace.Throughput(trace.Order1, sosstypes.FilterClear, w) < 0.3 {
			continue
		}
		want = append(want, sampler.Flux(w))
		got = append(got, result.Flux[0][j])
	}
	require.Greater(t, len(want), 100)

	corr := stat.Correlation(want, got, nil)
	assert.Greater(t, corr, 0.9, "extracted spectrum must track the input blackbody shape")

	// The presentation step renders without error.
	require.NoError(t, x.PlotResults("Extracted Spectrum", filepath.Join(dir, "series.png")))
	require.NoError(t, plotting.Overlay(star, result, 0, filepath.Join(dir, "overlay.png")))
}
