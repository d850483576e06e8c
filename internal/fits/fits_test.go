package fits

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soss/internal/cube"
	"soss/pkg/sosstypes"
)

func TestIsUncalPath(t *testing.T) {
	assert.True(t, IsUncalPath("obs/soss_simulation_uncal.fits"))
	assert.False(t, IsUncalPath("obs/soss_simulation_rate.fits"))
	assert.False(t, IsUncalPath("soss_simulation_uncal.fits.bak"))
}

func TestWriteReadRoundTrip(t *testing.T) {
	c := cube.NewCube4(2, 3, 4, 5)
	for i := range c.Data {
		c.Data[i] = float64(i) * 0.5
	}
	hdr := ExposureHeader{
		ID:       "test-exposure-1",
		NInts:    2,
		NGroups:  3,
		Subarray: sosstypes.SubarrayStrip256,
		Filter:   sosstypes.FilterClear,
	}

	path := filepath.Join(t.TempDir(), "roundtrip_uncal.fits")
	require.NoError(t, WriteExposure(path, hdr, c))

	gotHdr, got, err := ReadExposure(path)
	require.NoError(t, err)

	assert.Equal(t, hdr.ID, gotHdr.ID)
	assert.Equal(t, hdr.NInts, gotHdr.NInts)
	assert.Equal(t, hdr.NGroups, gotHdr.NGroups)
	assert.Equal(t, hdr.Subarray, gotHdr.Subarray)
	assert.Equal(t, hdr.Filter, gotHdr.Filter)

	require.NoError(t, got.CheckShape(2, 3, 4, 5))
	for i := range c.Data {
		// float32 storage loses precision beyond 7 digits.
		assert.InDelta(t, c.Data[i], got.Data[i], 1e-3)
	}
}

func TestReadExposureMissingFile(t *testing.T) {
	_, _, err := ReadExposure(filepath.Join(t.TempDir(), "nope_uncal.fits"))
	assert.Error(t, err)
}
