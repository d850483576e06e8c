// Package trace models the spectral traces of the two dispersion orders on
// the detector: wavelength calibration per column, trace center positions,
// order throughput, photometric conversion, wavelength bins for extraction,
// and the shared detector constants used by both the simulator and the
// calibration engine.
package trace

import (
	"math"

	"soss/internal/cube"
	"soss/pkg/sosstypes"
)

// Order identifies a dispersion order.
type Order int

// The two dispersion orders carried by the cross-dispersed grism.
const (
	Order1 Order = 1
	Order2 Order = 2
)

// Orders lists the extractable orders in extraction sequence.
var Orders = []Order{Order1, Order2}

// Detector readout and baseline constants.
const (
	GroupTime  = 5.494   // seconds per non-destructive group read
	BiasLevel  = 5000.0  // superbias pedestal, counts
	DarkRate   = 0.02    // dark current, counts/s/pixel
	ReadNoise  = 12.0    // read noise, counts rms
	FullWell   = 65535.0 // saturation level, counts
	NonLinCoef = 1e-7    // classical non-linearity coefficient
)

// F277W blocks everything shortward of the long-wavelength cutoff.
const f277wCutoff = 2.45 // microns

// WavelengthRange returns the wavelength coverage of an order in microns.
func WavelengthRange(o Order) (min, max float64) {
	switch o {
	case Order1:
		return 0.85, 2.8
	case Order2:
		return 0.6, 1.4
	default:
		return 0, 0
	}
}

// Wavelength returns the wavelength in microns seen by a detector column for
// the given order. Dispersion runs red to blue with increasing column.
func Wavelength(o Order, sub sosstypes.Subarray, col int) float64 {
	lo, hi := WavelengthRange(o)
	_, cols := sub.Dims()
	return hi - (hi-lo)*float64(col)/float64(cols-1)
}

// Wavelengths returns the per-column wavelength calibration for an order.
func Wavelengths(o Order, sub sosstypes.Subarray) []float64 {
	_, cols := sub.Dims()
	out := make([]float64, cols)
	for c := 0; c < cols; c++ {
		out[c] = Wavelength(o, sub, c)
	}
	return out
}

// Center returns the cross-dispersion trace center row for a column.
func Center(o Order, sub sosstypes.Subarray, col int) float64 {
	rows, cols := sub.Dims()
	x := float64(col) / float64(cols-1)
	switch o {
	case Order1:
		return float64(rows) * (0.35 + 0.10*x*x)
	case Order2:
		return float64(rows) * (0.65 + 0.08*x)
	default:
		return 0
	}
}

// HalfWidth returns the extraction aperture half width in pixels.
func HalfWidth(o Order) int {
	if o == Order1 {
		return 12
	}
	return 8
}

// Throughput returns the relative system throughput of an order at a
// wavelength through the given filter, in [0, 1]. Zero outside the order's
// coverage or behind the filter cutoff.
func Throughput(o Order, f sosstypes.Filter, lambda float64) float64 {
	lo, hi := WavelengthRange(o)
	if lambda < lo || lambda > hi {
		return 0
	}
	if f == sosstypes.FilterF277W {
		// F277W passes only the red end of order 1.
		if o != Order1 || lambda < f277wCutoff {
			return 0
		}
	}
	var peak, width float64
	switch o {
	case Order1:
		peak, width = 1.7, 1.2
	case Order2:
		peak, width = 0.9, 0.6
	}
	t := math.Exp(-((lambda - peak) * (lambda - peak)) / (2 * width * width))
	if t < 0.05 {
		t = 0.05
	}
	return t
}

// PhotomFactor returns the photometric conversion for an order:
// detector counts/s per unit flux density (erg/s/cm^2/A) at unit throughput.
func PhotomFactor(o Order) float64 {
	if o == Order1 {
		return 1.2e7
	}
	return 8.0e6
}

// Pixel addresses one detector pixel.
type Pixel struct {
	Row, Col int
}

// Bin is one wavelength bin of an extraction: the bin wavelength and the
// pixels whose counts contribute to it.
type Bin struct {
	Wavelength float64
	Pixels     []Pixel
}

// WavelengthBins returns the per-column wavelength bins of an order: for
// each detector column, the aperture pixels centered on the trace. Bins are
// returned in column order; callers sort by wavelength after binning.
func WavelengthBins(o Order, sub sosstypes.Subarray) []Bin {
	rows, cols := sub.Dims()
	hw := HalfWidth(o)
	bins := make([]Bin, 0, cols)
	for c := 0; c < cols; c++ {
		center := int(math.Round(Center(o, sub, c)))
		lo := center - hw
		hi := center + hw
		if lo < 0 {
			lo = 0
		}
		if hi > rows-1 {
			hi = rows - 1
		}
		pixels := make([]Pixel, 0, hi-lo+1)
		for r := lo; r <= hi; r++ {
			pixels = append(pixels, Pixel{Row: r, Col: c})
		}
		bins = append(bins, Bin{Wavelength: Wavelength(o, sub, c), Pixels: pixels})
	}
	return bins
}

// Profile returns the normalized cross-dispersion weight of a row within an
// order's aperture at a column. Weights sum to 1 over the aperture pixels.
func Profile(o Order, sub sosstypes.Subarray, col int) []float64 {
	rows, _ := sub.Dims()
	hw := HalfWidth(o)
	center := Center(o, sub, col)
	ci := int(math.Round(center))
	sigma := float64(hw) / 3.0

	lo := ci - hw
	hi := ci + hw
	if lo < 0 {
		lo = 0
	}
	if hi > rows-1 {
		hi = rows - 1
	}

	weights := make([]float64, rows)
	sum := 0.0
	for r := lo; r <= hi; r++ {
		d := float64(r) - center
		w := math.Exp(-d * d / (2 * sigma * sigma))
		weights[r] = w
		sum += w
	}
	for r := lo; r <= hi; r++ {
		weights[r] /= sum
	}
	return weights
}

// DefaultMasks returns the per-order pixel masks (1 inside the order's
// aperture, 0 elsewhere), one mask per extractable order.
func DefaultMasks(sub sosstypes.Subarray) []*cube.Image {
	rows, cols := sub.Dims()
	masks := make([]*cube.Image, 0, len(Orders))
	for _, o := range Orders {
		m := cube.NewImage(rows, cols)
		for _, bin := range WavelengthBins(o, sub) {
			for _, p := range bin.Pixels {
				m.Set(p.Row, p.Col, 1)
			}
		}
		masks = append(masks, m)
	}
	return masks
}

// FlatField returns the deterministic pixel flat applied by the simulator
// and removed by the flat-field calibration stage.
func FlatField(sub sosstypes.Subarray) *cube.Image {
	rows, cols := sub.Dims()
	flat := cube.NewImage(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := 1 + 0.02*math.Sin(0.13*float64(r))*math.Cos(0.07*float64(c))
			flat.Set(r, c, v)
		}
	}
	return flat
}
