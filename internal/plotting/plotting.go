// Package plotting renders extraction results and input spectra to PNG
// files for visual comparison.
package plotting

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"soss/pkg/sosstypes"
)

// TimeSeries renders the per-integration extracted spectra of a result as
// one line per integration.
func TimeSeries(name string, result *sosstypes.ExtractionResult, path string) error {
	if err := result.Validate(); err != nil {
		return fmt.Errorf("cannot plot result %q: %w", name, err)
	}

	p := plot.New()
	p.Title.Text = name
	p.X.Label.Text = "Wavelength (microns)"
	p.Y.Label.Text = "Flux density (erg/s/cm2/A)"

	for i, flux := range result.Flux {
		line, err := plotter.NewLine(toXYs(result.Wavelength, flux))
		if err != nil {
			return fmt.Errorf("building line for integration %d: %w", i, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("integration %d", i), line)
	}

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("saving plot: %w", err)
	}
	return nil
}

// Overlay renders the input model spectrum against one integration of an
// extraction result.
func Overlay(input *sosstypes.Spectrum, result *sosstypes.ExtractionResult, integration int, path string) error {
	if err := input.Validate(); err != nil {
		return fmt.Errorf("cannot plot input spectrum: %w", err)
	}
	if err := result.Validate(); err != nil {
		return fmt.Errorf("cannot plot extraction result: %w", err)
	}
	if integration < 0 || integration >= result.NIntegrations() {
		return fmt.Errorf("integration %d out of range (result has %d)", integration, result.NIntegrations())
	}

	p := plot.New()
	p.Title.Text = "Input vs extracted spectrum"
	p.X.Label.Text = "Wavelength (microns)"
	p.Y.Label.Text = "Flux density (erg/s/cm2/A)"

	in, err := plotter.NewLine(toXYs(input.Wavelength, input.Flux))
	if err != nil {
		return fmt.Errorf("building input line: %w", err)
	}
	in.Color = plotutil.Color(0)
	p.Add(in)
	p.Legend.Add("input", in)

	out, err := plotter.NewLine(toXYs(result.Wavelength, result.Flux[integration]))
	if err != nil {
		return fmt.Errorf("building extracted line: %w", err)
	}
	out.Color = plotutil.Color(1)
	out.Dashes = plotutil.Dashes(1)
	p.Add(out)
	p.Legend.Add(fmt.Sprintf("extracted (integration %d)", integration), out)

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("saving plot: %w", err)
	}
	return nil
}

func toXYs(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	return pts
}
