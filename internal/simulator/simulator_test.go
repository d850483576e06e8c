package simulator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soss/internal/fits"
	"soss/internal/testutils"
	"soss/pkg/sosstypes"
)

func TestNewValidation(t *testing.T) {
	star := testutils.TestSpectrum(t, 2000, 200)

	tests := []struct {
		name    string
		nints   int
		ngroups int
		star    *sosstypes.Spectrum
		opts    []Option
		wantErr bool
	}{
		{name: "valid", nints: 1, ngroups: 2, star: star},
		{name: "zero integrations", nints: 0, ngroups: 2, star: star, wantErr: true},
		{name: "zero groups", nints: 1, ngroups: 0, star: star, wantErr: true},
		{name: "negative integrations", nints: -1, ngroups: 2, star: star, wantErr: true},
		{name: "missing spectrum", nints: 1, ngroups: 2, star: nil, wantErr: true},
		{
			name: "malformed spectrum", nints: 1, ngroups: 2,
			star:    &sosstypes.Spectrum{Wavelength: []float64{1, 2}, Flux: []float64{1}},
			wantErr: true,
		},
		{
			name: "unknown filter", nints: 1, ngroups: 2, star: star,
			opts:    []Option{WithFilter("BOGUS")},
			wantErr: true,
		},
		{
			name: "unknown subarray", nints: 1, ngroups: 2, star: star,
			opts:    []Option{WithSubarray("SUBSTRIP42")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, err := New(tt.nints, tt.ngroups, tt.star, tt.opts...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, sim.ID)
			assert.Nil(t, sim.Cube(), "cube must be nil before Run")
		})
	}
}

func TestRunProducesRampCube(t *testing.T) {
	star := testutils.TestSpectrum(t, 2000, 500)
	sim, err := New(1, 2, star, WithSubarray(sosstypes.SubarrayStrip96), WithSeed(1))
	require.NoError(t, err)

	require.NoError(t, sim.Run(context.Background()))

	c := sim.Cube()
	require.NotNil(t, c)
	require.NoError(t, c.CheckShape(1, 2, 96, 2048))

	// Signal accumulates up the ramp: the second group read must carry more
	// charge on average than the first.
	mean := func(g int) float64 {
		frame := c.Group(0, g)
		sum := 0.0
		for _, v := range frame.Data {
			sum += v
		}
		return sum / float64(len(frame.Data))
	}
	assert.Greater(t, mean(1), mean(0))
}

func TestRunHonorsCancellation(t *testing.T) {
	star := testutils.TestSpectrum(t, 2000, 200)
	sim, err := New(2, 2, star, WithSubarray(sosstypes.SubarrayStrip96))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, sim.Run(ctx))
}

func TestExportBeforeRun(t *testing.T) {
	star := testutils.TestSpectrum(t, 2000, 200)
	sim, err := New(1, 1, star)
	require.NoError(t, err)

	assert.Error(t, sim.Export(testutils.UncalPath(t)))
}

func TestExportRoundTripShape(t *testing.T) {
	star := testutils.TestSpectrum(t, 2000, 500)
	sim, err := New(2, 2, star, WithSubarray(sosstypes.SubarrayStrip96), WithSeed(3))
	require.NoError(t, err)
	require.NoError(t, sim.Run(context.Background()))

	path := testutils.UncalPath(t)
	require.NoError(t, sim.Export(path))

	hdr, c, err := fits.ReadExposure(path)
	require.NoError(t, err)
	assert.Equal(t, sim.ID, hdr.ID)
	assert.Equal(t, sosstypes.SubarrayStrip96, hdr.Subarray)
	require.NoError(t, c.CheckShape(2, 2, 96, 2048))
}
