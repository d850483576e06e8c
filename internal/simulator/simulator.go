// Package simulator produces synthetic up-the-ramp detector exposures from a
// model spectrum. The simulation projects the spectrum onto the per-order
// spectral traces, accumulates group reads with shot noise, dark current,
// classical non-linearity, flat-field structure, bias and read noise, and
// exports the result as a raw FITS exposure.
package simulator

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"soss/internal/cube"
	"soss/internal/fits"
	"soss/internal/logger"
	"soss/internal/spectrum"
	"soss/internal/trace"
	"soss/pkg/sosstypes"
)

// DefaultSeed seeds the noise generator when no seed option is given.
const DefaultSeed = 20481

// Simulation is one simulated observation: the input spectrum plus readout
// parameters, and after Run, the raw exposure cube.
type Simulation struct {
	ID       string // exposure identifier
	NInts    int
	NGroups  int
	Star     *sosstypes.Spectrum
	Filter   sosstypes.Filter
	Subarray sosstypes.Subarray

	seed uint64
	data *cube.Cube4
	log  *log.Logger
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithFilter selects the blocking filter (default CLEAR).
func WithFilter(f sosstypes.Filter) Option {
	return func(s *Simulation) { s.Filter = f }
}

// WithSubarray selects the detector subarray (default SUBSTRIP256).
func WithSubarray(sub sosstypes.Subarray) Option {
	return func(s *Simulation) { s.Subarray = sub }
}

// WithSeed fixes the noise generator seed for reproducible exposures.
func WithSeed(seed uint64) Option {
	return func(s *Simulation) { s.seed = seed }
}

// New validates the observation parameters and returns a Simulation ready to
// run. The spectrum is required and must satisfy its shape invariants.
func New(nints, ngroups int, star *sosstypes.Spectrum, opts ...Option) (*Simulation, error) {
	if nints < 1 {
		return nil, fmt.Errorf("integration count must be positive, got %d", nints)
	}
	if ngroups < 1 {
		return nil, fmt.Errorf("group count must be positive, got %d", ngroups)
	}
	if star == nil {
		return nil, fmt.Errorf("simulation needs an input spectrum")
	}
	if err := star.Validate(); err != nil {
		return nil, fmt.Errorf("invalid input spectrum: %w", err)
	}

	s := &Simulation{
		ID:       uuid.NewString(),
		NInts:    nints,
		NGroups:  ngroups,
		Star:     star,
		Filter:   sosstypes.FilterClear,
		Subarray: sosstypes.SubarrayStrip256,
		seed:     DefaultSeed,
		log:      logger.NewStyledLogger("Simulator"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if !s.Filter.Valid() {
		return nil, fmt.Errorf("unknown filter %q", s.Filter)
	}
	if !s.Subarray.Valid() {
		return nil, fmt.Errorf("unknown subarray %q", s.Subarray)
	}
	return s, nil
}

// Cube returns the simulated exposure cube, or nil before Run.
func (s *Simulation) Cube() *cube.Cube4 {
	return s.data
}

// Run performs the detector simulation, filling the exposure cube.
func (s *Simulation) Run(ctx context.Context) error {
	sampler, err := spectrum.NewSampler(s.Star)
	if err != nil {
		return fmt.Errorf("preparing spectrum sampler: %w", err)
	}

	rows, cols := s.Subarray.Dims()
	s.log.Info("Running exposure simulation",
		"exposure", s.ID, "nints", s.NInts, "ngroups", s.NGroups,
		"subarray", string(s.Subarray), "filter", string(s.Filter))

	// Noise-free signal rate per pixel, counts/s, both orders summed.
	rates := cube.NewImage(rows, cols)
	for _, o := range trace.Orders {
		photom := trace.PhotomFactor(o)
		for c := 0; c < cols; c++ {
			lambda := trace.Wavelength(o, s.Subarray, c)
			thr := trace.Throughput(o, s.Filter, lambda)
			if thr == 0 {
				continue
			}
			colRate := sampler.Flux(lambda) * thr * photom
			if colRate <= 0 {
				continue
			}
			profile := trace.Profile(o, s.Subarray, c)
			for r := 0; r < rows; r++ {
				if profile[r] > 0 {
					rates.Set(r, c, rates.At(r, c)+colRate*profile[r])
				}
			}
		}
	}

	flat := trace.FlatField(s.Subarray)
	src := xrand.NewSource(s.seed)
	readNoise := distuv.Normal{Mu: 0, Sigma: trace.ReadNoise, Src: src}

	data := cube.NewCube4(s.NInts, s.NGroups, rows, cols)
	acc := make([]float64, rows*cols)
	for i := 0; i < s.NInts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for j := range acc {
			acc[j] = 0
		}
		for g := 0; g < s.NGroups; g++ {
			for r := 0; r < rows; r++ {
				for c := 0; c < cols; c++ {
					lam := (rates.At(r, c)*flat.At(r, c) + trace.DarkRate) * trace.GroupTime
					shot := distuv.Poisson{Lambda: lam, Src: src}.Rand()
					acc[r*cols+c] += shot

					counts := acc[r*cols+c]
					// Classical non-linearity compresses the accumulated signal.
					measured := counts * (1 - trace.NonLinCoef*counts)
					v := measured + trace.BiasLevel + readNoise.Rand()
					if v > trace.FullWell {
						v = trace.FullWell
					}
					data.Set(i, g, r, c, v)
				}
			}
		}
		s.log.Debug("Integration simulated", "integration", i)
	}

	s.data = data
	return nil
}

// Export writes the simulated exposure to path in the raw FITS exposure
// format. Run must have completed first.
func (s *Simulation) Export(path string) error {
	if s.data == nil {
		return fmt.Errorf("simulation has not been run, nothing to export")
	}
	if !fits.IsUncalPath(path) {
		s.log.Warn("Export path does not follow the raw-input suffix convention",
			"file", path, "suffix", fits.UncalSuffix)
	}

	hdr := fits.ExposureHeader{
		ID:       s.ID,
		NInts:    s.NInts,
		NGroups:  s.NGroups,
		Subarray: s.Subarray,
		Filter:   s.Filter,
	}
	if err := fits.WriteExposure(path, hdr, s.data); err != nil {
		return err
	}
	s.log.Info("Exposure exported", "exposure", s.ID, "file", path)
	return nil
}
