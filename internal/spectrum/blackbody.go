// Package spectrum generates the 1-D model spectra fed to the exposure
// simulator. The only generator is a blackbody: Planck spectral radiance
// converted to flux density with a fixed scale normalization.
package spectrum

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"soss/pkg/sosstypes"
)

// Physical constants in cgs units.
const (
	planckH    = 6.62607015e-27 // erg s
	lightSpeed = 2.99792458e10  // cm/s
	boltzmannK = 1.380649e-16   // erg/K
)

// fluxNorm is the fixed scalar normalization applied to the Planck radiance
// to bring the model flux to the expected physical scale. The value is a
// unit-scale convention inherited from the original workflow, not physics.
const fluxNorm = 1e-8

// Grid returns a linear wavelength grid of n points spanning [min, max]
// microns.
func Grid(min, max float64, n int) ([]float64, error) {
	if n < 2 {
		return nil, fmt.Errorf("wavelength grid needs at least 2 samples, got %d", n)
	}
	if min <= 0 || max <= min {
		return nil, fmt.Errorf("invalid wavelength range [%g, %g] microns", min, max)
	}
	return floats.Span(make([]float64, n), min, max), nil
}

// Blackbody returns the blackbody spectrum of a source at the given
// temperature sampled on the wavelength grid. Temperature is in Kelvin,
// wavelengths in microns, flux in erg/s/cm^2/A.
func Blackbody(temperature float64, wavelengths []float64) (*sosstypes.Spectrum, error) {
	if temperature <= 0 {
		return nil, fmt.Errorf("blackbody temperature must be positive, got %g K", temperature)
	}
	if len(wavelengths) == 0 {
		return nil, fmt.Errorf("blackbody needs a non-empty wavelength grid")
	}
	for i := 1; i < len(wavelengths); i++ {
		if wavelengths[i] <= wavelengths[i-1] {
			return nil, fmt.Errorf("wavelength grid not strictly increasing at index %d", i)
		}
	}
	if wavelengths[0] <= 0 {
		return nil, fmt.Errorf("wavelengths must be positive, got %g", wavelengths[0])
	}

	grid := make([]float64, len(wavelengths))
	copy(grid, wavelengths)

	flux := make([]float64, len(grid))
	for i, w := range grid {
		flux[i] = radiance(temperature, w) * 1e-8 * fluxNorm // per-cm to per-Angstrom, then scale
	}

	s := &sosstypes.Spectrum{Wavelength: grid, Flux: flux}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// radiance evaluates the Planck law at temperature T and wavelength w
// (microns), returning erg/s/cm^2/cm/sr.
func radiance(T, w float64) float64 {
	lam := w * 1e-4 // microns to cm
	x := planckH * lightSpeed / (lam * boltzmannK * T)
	// Far Wien tail underflows the exponential; the radiance is zero there.
	if x > 700 {
		return 0
	}
	return 2 * planckH * lightSpeed * lightSpeed / math.Pow(lam, 5) / (math.Exp(x) - 1)
}
