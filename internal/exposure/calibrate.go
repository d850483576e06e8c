package exposure

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"soss/internal/cube"
	"soss/internal/extract"
	"soss/internal/trace"
	"soss/pkg/sosstypes"
)

// Pixel quality flags.
const (
	dqReference uint = 1 << iota // detector reference pixel
	dqSaturated                  // at or above full well in any group
)

// refPixelBorder is the width of the reference pixel border columns.
const refPixelBorder = 4

// stage is one step of the fixed calibration sequence.
type stage struct {
	name string
	run  func(*Exposure) error
}

// calibrationSequence is the fixed, non-configurable order of calibration
// stages. Running them populates all derived data products.
var calibrationSequence = []stage{
	{"dq_init", (*Exposure).dqInit},
	{"saturation", (*Exposure).saturation},
	{"superbias", (*Exposure).superbias},
	{"linearity", (*Exposure).linearity},
	{"dark_current", (*Exposure).darkCurrent},
	{"ramp_fit", (*Exposure).rampFit},
	{"flat_field", (*Exposure).flatField},
	{"photom", (*Exposure).photom},
	{"extract_1d", (*Exposure).extract1D},
}

// Calibrate runs the calibration sequence over the raw exposure, populating
// the ramp, rate, rateints, calints and x1dints products. The sequence runs
// at most once per exposure.
func (x *Exposure) Calibrate(ctx context.Context) error {
	if x.calibrated {
		return fmt.Errorf("exposure %s is already calibrated", x.ID)
	}

	for _, st := range calibrationSequence {
		if err := ctx.Err(); err != nil {
			return err
		}
		x.log.Info("Running calibration stage", "stage", st.name, "exposure", x.ID)
		if err := st.run(x); err != nil {
			return fmt.Errorf("calibration stage %s: %w", st.name, err)
		}
	}

	x.calibrated = true
	x.log.Info("Calibration complete", "exposure", x.ID)
	return nil
}

// dqInit initializes the pixel quality image and flags the reference pixel
// border columns.
func (x *Exposure) dqInit() error {
	rows, cols := x.Subarray.Dims()
	x.dq = cube.NewImage(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c < refPixelBorder || c >= cols-refPixelBorder {
				x.dq.Set(r, c, float64(dqReference))
			}
		}
	}
	return nil
}

// saturation flags pixels that reach full well in any group and seeds the
// ramp product from the raw cube.
func (x *Exposure) saturation() error {
	x.Ramp = x.Uncal.Clone()
	for r := 0; r < x.dq.Rows; r++ {
		for c := 0; c < x.dq.Cols; c++ {
			for i := 0; i < x.NInts; i++ {
				for g := 0; g < x.NGroups; g++ {
					if x.Ramp.At(i, g, r, c) >= trace.FullWell {
						flags := uint(x.dq.At(r, c)) | dqSaturated
						x.dq.Set(r, c, float64(flags))
					}
				}
			}
		}
	}
	return nil
}

// superbias removes the bias pedestal from every group.
func (x *Exposure) superbias() error {
	for i := range x.Ramp.Data {
		x.Ramp.Data[i] -= trace.BiasLevel
	}
	return nil
}

// linearity inverts the classical non-linearity of the accumulated counts
// by fixed-point iteration; three rounds are ample for the small
// correction coefficient.
func (x *Exposure) linearity() error {
	for i, m := range x.Ramp.Data {
		v := m
		for it := 0; it < 3; it++ {
			v = m + trace.NonLinCoef*v*v
		}
		x.Ramp.Data[i] = v
	}
	return nil
}

// darkCurrent subtracts the accumulated dark signal from every group.
func (x *Exposure) darkCurrent() error {
	for i := 0; i < x.NInts; i++ {
		for g := 0; g < x.NGroups; g++ {
			dark := trace.DarkRate * trace.GroupTime * float64(g+1)
			frame := x.Ramp.Group(i, g)
			for j := range frame.Data {
				frame.Data[j] -= dark
			}
		}
	}
	return nil
}

// rampFit fits a slope to the group reads of every pixel, producing the
// per-integration rate cube and the integration-averaged rate image.
func (x *Exposure) rampFit() error {
	rows, cols := x.Subarray.Dims()
	x.RateInts = cube.NewCube3(x.NInts, rows, cols)
	x.Rate = cube.NewImage(rows, cols)

	times := make([]float64, x.NGroups)
	for g := range times {
		times[g] = trace.GroupTime * float64(g+1)
	}
	vals := make([]float64, x.NGroups)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			mean := 0.0
			for i := 0; i < x.NInts; i++ {
				var slope float64
				if x.NGroups == 1 {
					slope = x.Ramp.At(i, 0, r, c) / trace.GroupTime
				} else {
					for g := 0; g < x.NGroups; g++ {
						vals[g] = x.Ramp.At(i, g, r, c)
					}
					_, slope = stat.LinearRegression(times, vals, nil, false)
				}
				x.RateInts.Set(i, r, c, slope)
				mean += slope
			}
			x.Rate.Set(r, c, mean/float64(x.NInts))
		}
	}
	return nil
}

// flatField removes the pixel flat from the rate products.
func (x *Exposure) flatField() error {
	flat := trace.FlatField(x.Subarray)
	rows, cols := x.Subarray.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			f := flat.At(r, c)
			if f <= 0 {
				continue
			}
			x.Rate.Set(r, c, x.Rate.At(r, c)/f)
			for i := 0; i < x.NInts; i++ {
				x.RateInts.Set(i, r, c, x.RateInts.At(i, r, c)/f)
			}
		}
	}
	return nil
}

// photom applies the scalar photometric calibration, producing the
// calibrated per-integration cube.
func (x *Exposure) photom() error {
	scale := 1 / trace.PhotomFactor(trace.Order1)
	x.CalInts = cube.NewCube3(x.RateInts.N, x.RateInts.Rows, x.RateInts.Cols)
	for i, v := range x.RateInts.Data {
		x.CalInts.Data[i] = v * scale
	}
	return nil
}

// extract1D runs the default aperture extraction over the per-integration
// rates, producing the x1dints product.
func (x *Exposure) extract1D() error {
	m, err := extract.Get("sum")
	if err != nil {
		return err
	}
	result, err := m.Extract(x.RateInts, extract.Request{
		Filter:    x.Filter,
		Subarray:  x.Subarray,
		Source:    sosstypes.ProductRateInts,
		RateScale: 1,
	})
	if err != nil {
		return err
	}
	x.X1DInts = result
	return nil
}
