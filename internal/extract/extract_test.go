package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soss/internal/cube"
	"soss/internal/trace"
	"soss/pkg/sosstypes"
)

func TestRegistry(t *testing.T) {
	m, err := Get("sum")
	require.NoError(t, err)
	assert.Equal(t, "sum", m.Name())

	_, err = Get("optimal")
	assert.Error(t, err)

	assert.Contains(t, Methods(), "sum")
}

// flatCube builds a per-integration cube with a constant pixel value.
func flatCube(n int, sub sosstypes.Subarray, value float64) *cube.Cube3 {
	rows, cols := sub.Dims()
	c := cube.NewCube3(n, rows, cols)
	for i := range c.Data {
		c.Data[i] = value
	}
	return c
}

func TestSumExtraction(t *testing.T) {
	sub := sosstypes.SubarrayStrip96
	data := flatCube(2, sub, 10)

	m, err := Get("sum")
	require.NoError(t, err)

	result, err := m.Extract(data, Request{
		Filter:   sosstypes.FilterClear,
		Subarray: sub,
		Source:   sosstypes.ProductRateInts,
	})
	require.NoError(t, err)
	require.NoError(t, result.Validate())

	assert.Equal(t, 2, result.NIntegrations())
	assert.Equal(t, "sum", result.Method)
	assert.Equal(t, sosstypes.ProductRateInts, result.Source)

	// Wavelengths ascend and cover both orders.
	for i := 1; i < len(result.Wavelength); i++ {
		assert.Greater(t, result.Wavelength[i], result.Wavelength[i-1])
	}
	lo2, _ := trace.WavelengthRange(trace.Order2)
	_, hi1 := trace.WavelengthRange(trace.Order1)
	assert.InDelta(t, lo2, result.Wavelength[0], 1e-6)
	assert.InDelta(t, hi1, result.Wavelength[len(result.Wavelength)-1], 1e-6)

	// Uniform positive data must bin to positive counts everywhere.
	for i := range result.Counts {
		require.Len(t, result.Counts[i], len(result.Wavelength))
		for j, c := range result.Counts[i] {
			assert.Greater(t, c, 0.0, "integration %d bin %d", i, j)
		}
	}
}

func TestSumExtractionMasksZeroOutCounts(t *testing.T) {
	sub := sosstypes.SubarrayStrip96
	rows, cols := sub.Dims()
	data := flatCube(1, sub, 10)

	masks := []*cube.Image{cube.NewImage(rows, cols), cube.NewImage(rows, cols)}

	m, err := Get("sum")
	require.NoError(t, err)
	result, err := m.Extract(data, Request{
		Filter:   sosstypes.FilterClear,
		Subarray: sub,
		Source:   sosstypes.ProductRateInts,
		Masks:    masks,
	})
	require.NoError(t, err)

	for _, c := range result.Counts[0] {
		assert.Zero(t, c)
	}
}

func TestSumExtractionErrors(t *testing.T) {
	m, err := Get("sum")
	require.NoError(t, err)

	t.Run("empty cube", func(t *testing.T) {
		_, err := m.Extract(nil, Request{Subarray: sosstypes.SubarrayStrip96})
		assert.Error(t, err)
	})

	t.Run("shape mismatch", func(t *testing.T) {
		data := cube.NewCube3(1, 10, 10)
		_, err := m.Extract(data, Request{Subarray: sosstypes.SubarrayStrip96})
		assert.Error(t, err)
	})

	t.Run("wrong mask count", func(t *testing.T) {
		data := flatCube(1, sosstypes.SubarrayStrip96, 1)
		_, err := m.Extract(data, Request{
			Subarray: sosstypes.SubarrayStrip96,
			Masks:    []*cube.Image{cube.NewImage(96, 2048)},
		})
		assert.Error(t, err)
	})
}
