// Package sosstypes provides the shared type definitions for the SOSS
// simulation and extraction pipeline. It defines the spectrum, observation
// parameter, and extraction result structures exchanged between the
// simulator, the calibration engine, and the CLI.
package sosstypes

import (
	"fmt"
)

// Subarray identifies a detector readout subarray.
type Subarray string

// Supported detector subarrays.
const (
	SubarrayStrip96  Subarray = "SUBSTRIP96"  // 96 x 2048 bright-target subarray
	SubarrayStrip256 Subarray = "SUBSTRIP256" // 256 x 2048 default SOSS subarray
	SubarrayFull     Subarray = "FULL"        // 2048 x 2048 full frame
)

// Dims returns the detector dimensions (rows, cols) of the subarray.
// Unknown subarrays report zero dimensions.
func (s Subarray) Dims() (rows, cols int) {
	switch s {
	case SubarrayStrip96:
		return 96, 2048
	case SubarrayStrip256:
		return 256, 2048
	case SubarrayFull:
		return 2048, 2048
	default:
		return 0, 0
	}
}

// Valid reports whether the subarray is one of the supported readout modes.
func (s Subarray) Valid() bool {
	rows, _ := s.Dims()
	return rows > 0
}

// Filter identifies the blocking filter in the optical path.
type Filter string

// Supported filters.
const (
	FilterClear Filter = "CLEAR" // full 0.6-2.8 micron bandpass
	FilterF277W Filter = "F277W" // long-wavelength cutoff filter
)

// Valid reports whether the filter is one of the supported filters.
func (f Filter) Valid() bool {
	return f == FilterClear || f == FilterF277W
}

// Data product names populated by the calibration sequence.
const (
	ProductUncal    = "uncal"    // raw 4-D ramp cube as read from disk
	ProductRamp     = "ramp"     // corrected 4-D group cube
	ProductRate     = "rate"     // 2-D count-rate image averaged over integrations
	ProductRateInts = "rateints" // 3-D per-integration count-rate cube
	ProductCalInts  = "calints"  // 3-D per-integration calibrated cube
	ProductX1DInts  = "x1dints"  // per-integration extracted 1-D spectra
)

// Spectrum is an immutable 1-D model spectrum: a wavelength grid in microns
// paired with a flux density sequence in erg/s/cm^2/A. Wavelength must be
// strictly increasing and the two sequences must have equal length.
type Spectrum struct {
	Wavelength []float64 // microns, strictly increasing
	Flux       []float64 // erg/s/cm^2/A, same length as Wavelength
}

// Validate checks the spectrum shape invariants.
func (s *Spectrum) Validate() error {
	if len(s.Wavelength) == 0 {
		return fmt.Errorf("spectrum has empty wavelength grid")
	}
	if len(s.Wavelength) != len(s.Flux) {
		return fmt.Errorf("spectrum wavelength/flux length mismatch: %d != %d", len(s.Wavelength), len(s.Flux))
	}
	for i := 1; i < len(s.Wavelength); i++ {
		if s.Wavelength[i] <= s.Wavelength[i-1] {
			return fmt.Errorf("spectrum wavelength grid not strictly increasing at index %d", i)
		}
	}
	return nil
}

// ObservationParams holds the user-facing parameters of one simulated
// observation. Zero values are filled in by the configuration layer.
type ObservationParams struct {
	Temperature float64  `yaml:"temperature"` // source blackbody temperature in Kelvin
	WaveMin     float64  `yaml:"wave_min"`    // wavelength grid start in microns
	WaveMax     float64  `yaml:"wave_max"`    // wavelength grid end in microns
	WaveSamples int      `yaml:"wave_samples"`
	NInts       int      `yaml:"nints"`   // integrations per exposure
	NGroups     int      `yaml:"ngroups"` // non-destructive group reads per integration
	Filter      Filter   `yaml:"filter"`
	Subarray    Subarray `yaml:"subarray"`
}

// ExtractionResult is one entry of an exposure's results mapping: the
// time series of 1-D spectra recovered by a single extraction call.
// Flux, Counts and Unc are indexed by integration; every integration is
// aligned to the shared Wavelength grid.
type ExtractionResult struct {
	Wavelength []float64   // microns, ascending, shared by all integrations
	Flux       [][]float64 // [integration][bin] flux density, erg/s/cm^2/A
	Counts     [][]float64 // [integration][bin] binned detector counts
	Unc        [][]float64 // [integration][bin] flux uncertainty
	Filter     Filter
	Subarray   Subarray
	Method     string // extraction method identifier
	Source     string // source data product name
}

// Validate checks the per-integration alignment invariant.
func (r *ExtractionResult) Validate() error {
	if len(r.Wavelength) == 0 {
		return fmt.Errorf("extraction result has empty wavelength grid")
	}
	if len(r.Flux) == 0 {
		return fmt.Errorf("extraction result has no integrations")
	}
	for i, f := range r.Flux {
		if len(f) != len(r.Wavelength) {
			return fmt.Errorf("integration %d flux length %d does not match wavelength length %d", i, len(f), len(r.Wavelength))
		}
	}
	for i, u := range r.Unc {
		if len(u) != len(r.Wavelength) {
			return fmt.Errorf("integration %d uncertainty length %d does not match wavelength length %d", i, len(u), len(r.Wavelength))
		}
	}
	return nil
}

// NIntegrations returns the number of integrations in the result.
func (r *ExtractionResult) NIntegrations() int {
	return len(r.Flux)
}
