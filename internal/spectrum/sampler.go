package spectrum

import (
	"fmt"

	"gonum.org/v1/gonum/interp"

	"soss/pkg/sosstypes"
)

// Sampler evaluates a spectrum's flux at arbitrary wavelengths by linear
// interpolation. Wavelengths outside the spectrum's grid sample zero flux.
type Sampler struct {
	min, max float64
	pl       interp.PiecewiseLinear
}

// NewSampler builds a sampler over the given spectrum.
func NewSampler(s *sosstypes.Spectrum) (*Sampler, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if len(s.Wavelength) < 2 {
		return nil, fmt.Errorf("sampler needs at least 2 spectrum samples, got %d", len(s.Wavelength))
	}
	sm := &Sampler{min: s.Wavelength[0], max: s.Wavelength[len(s.Wavelength)-1]}
	if err := sm.pl.Fit(s.Wavelength, s.Flux); err != nil {
		return nil, fmt.Errorf("fitting spectrum interpolant: %w", err)
	}
	return sm, nil
}

// Flux returns the interpolated flux density at wavelength w microns.
func (sm *Sampler) Flux(w float64) float64 {
	if w < sm.min || w > sm.max {
		return 0
	}
	return sm.pl.Predict(w)
}
