package cube

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageIndexing(t *testing.T) {
	im := NewImage(3, 4)
	im.Set(2, 3, 7.5)
	im.Set(0, 0, -1)

	assert.Equal(t, 7.5, im.At(2, 3))
	assert.Equal(t, -1.0, im.At(0, 0))
	assert.Zero(t, im.At(1, 2))

	clone := im.Clone()
	clone.Set(2, 3, 0)
	assert.Equal(t, 7.5, im.At(2, 3), "clone must not share backing storage")
}

func TestCube3PlaneView(t *testing.T) {
	c := NewCube3(2, 3, 4)
	c.Set(1, 2, 3, 9)

	plane := c.Plane(1)
	assert.Equal(t, 9.0, plane.At(2, 3))

	// Plane is a view: writes show through.
	plane.Set(0, 0, 5)
	assert.Equal(t, 5.0, c.At(1, 0, 0))
}

func TestCube4GroupView(t *testing.T) {
	c := NewCube4(2, 3, 4, 5)
	c.Set(1, 2, 3, 4, 11)

	g := c.Group(1, 2)
	assert.Equal(t, 11.0, g.At(3, 4))

	require.Len(t, c.Data, 2*3*4*5)
}

func TestCube4CheckShape(t *testing.T) {
	c := NewCube4(2, 3, 4, 5)
	assert.NoError(t, c.CheckShape(2, 3, 4, 5))
	assert.Error(t, c.CheckShape(1, 3, 4, 5))
	assert.Error(t, c.CheckShape(2, 3, 5, 4))
}
