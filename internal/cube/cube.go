// Package cube provides the detector pixel-array containers shared by the
// simulator, the FITS layer, and the calibration engine: a 2-D image, a 3-D
// per-integration stack, and a 4-D up-the-ramp cube.
package cube

import "fmt"

// Image is a 2-D detector frame stored row-major.
type Image struct {
	Rows, Cols int
	Data       []float64
}

// NewImage allocates a zeroed Rows x Cols image.
func NewImage(rows, cols int) *Image {
	return &Image{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// At returns the value at (row, col).
func (im *Image) At(r, c int) float64 { return im.Data[r*im.Cols+c] }

// Set stores v at (row, col).
func (im *Image) Set(r, c int, v float64) { im.Data[r*im.Cols+c] = v }

// Clone returns a deep copy of the image.
func (im *Image) Clone() *Image {
	out := NewImage(im.Rows, im.Cols)
	copy(out.Data, im.Data)
	return out
}

// Cube3 is a stack of N detector frames, one per integration.
type Cube3 struct {
	N, Rows, Cols int
	Data          []float64
}

// NewCube3 allocates a zeroed N x Rows x Cols stack.
func NewCube3(n, rows, cols int) *Cube3 {
	return &Cube3{N: n, Rows: rows, Cols: cols, Data: make([]float64, n*rows*cols)}
}

// At returns the value at (n, row, col).
func (c *Cube3) At(n, r, col int) float64 { return c.Data[(n*c.Rows+r)*c.Cols+col] }

// Set stores v at (n, row, col).
func (c *Cube3) Set(n, r, col int, v float64) { c.Data[(n*c.Rows+r)*c.Cols+col] = v }

// Plane returns integration n as an image view (shared backing array).
func (c *Cube3) Plane(n int) *Image {
	off := n * c.Rows * c.Cols
	return &Image{Rows: c.Rows, Cols: c.Cols, Data: c.Data[off : off+c.Rows*c.Cols]}
}

// Cube4 is an up-the-ramp exposure cube: NInts integrations of NGroups
// non-destructive group reads each.
type Cube4 struct {
	NInts, NGroups, Rows, Cols int
	Data                       []float64
}

// NewCube4 allocates a zeroed NInts x NGroups x Rows x Cols cube.
func NewCube4(nints, ngroups, rows, cols int) *Cube4 {
	return &Cube4{
		NInts:   nints,
		NGroups: ngroups,
		Rows:    rows,
		Cols:    cols,
		Data:    make([]float64, nints*ngroups*rows*cols),
	}
}

// At returns the value at (integration, group, row, col).
func (c *Cube4) At(i, g, r, col int) float64 {
	return c.Data[((i*c.NGroups+g)*c.Rows+r)*c.Cols+col]
}

// Set stores v at (integration, group, row, col).
func (c *Cube4) Set(i, g, r, col int, v float64) {
	c.Data[((i*c.NGroups+g)*c.Rows+r)*c.Cols+col] = v
}

// Group returns group g of integration i as an image view.
func (c *Cube4) Group(i, g int) *Image {
	off := (i*c.NGroups + g) * c.Rows * c.Cols
	return &Image{Rows: c.Rows, Cols: c.Cols, Data: c.Data[off : off+c.Rows*c.Cols]}
}

// Clone returns a deep copy of the cube.
func (c *Cube4) Clone() *Cube4 {
	out := NewCube4(c.NInts, c.NGroups, c.Rows, c.Cols)
	copy(out.Data, c.Data)
	return out
}

// CheckShape validates that the cube matches the expected dimensions.
func (c *Cube4) CheckShape(nints, ngroups, rows, cols int) error {
	if c.NInts != nints || c.NGroups != ngroups || c.Rows != rows || c.Cols != cols {
		return fmt.Errorf("cube shape %dx%dx%dx%d does not match expected %dx%dx%dx%d",
			c.NInts, c.NGroups, c.Rows, c.Cols, nints, ngroups, rows, cols)
	}
	return nil
}
