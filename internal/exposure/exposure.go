// Package exposure implements the calibration and extraction engine. An
// Exposure wraps a raw exposure file on disk; Calibrate runs the fixed
// calibration sequence and populates the data products; Extract reduces a
// per-integration product to a named 1-D spectral time series in the
// results mapping.
package exposure

import (
	"fmt"

	"github.com/charmbracelet/log"

	"soss/internal/cube"
	"soss/internal/extract"
	"soss/internal/fits"
	"soss/internal/logger"
	"soss/internal/plotting"
	"soss/internal/trace"
	"soss/pkg/sosstypes"
)

// Exposure is the in-memory handle for one exposure file and, after
// calibration, its derived data products. Products are produced once by
// Calibrate and read-only afterwards.
type Exposure struct {
	Path     string // raw exposure file this was loaded from
	ID       string // exposure identifier from the file header
	NInts    int
	NGroups  int
	Subarray sosstypes.Subarray
	Filter   sosstypes.Filter

	Uncal    *cube.Cube4                 // raw group cube as read from disk
	Ramp     *cube.Cube4                 // corrected group cube
	Rate     *cube.Image                 // count-rate image averaged over integrations
	RateInts *cube.Cube3                 // per-integration count rates
	CalInts  *cube.Cube3                 // per-integration calibrated data
	X1DInts  *sosstypes.ExtractionResult // per-integration extracted 1-D spectra

	// Results maps user-chosen names to extraction results. Entries are
	// added by Extract and never removed.
	Results map[string]*sosstypes.ExtractionResult

	dq         *cube.Image // pixel quality flags
	calibrated bool
	log        *log.Logger
}

// Load opens a raw exposure file and wraps it in an Exposure. The file must
// have been written in the raw exposure format (see the fits package).
func Load(path string) (*Exposure, error) {
	hdr, data, err := fits.ReadExposure(path)
	if err != nil {
		return nil, err
	}

	if !hdr.Subarray.Valid() {
		return nil, fmt.Errorf("exposure %s declares unknown subarray %q", path, hdr.Subarray)
	}
	rows, cols := hdr.Subarray.Dims()
	if err := data.CheckShape(hdr.NInts, hdr.NGroups, rows, cols); err != nil {
		return nil, fmt.Errorf("exposure %s: %w", path, err)
	}

	x := &Exposure{
		Path:     path,
		ID:       hdr.ID,
		NInts:    hdr.NInts,
		NGroups:  hdr.NGroups,
		Subarray: hdr.Subarray,
		Filter:   hdr.Filter,
		Uncal:    data,
		Results:  make(map[string]*sosstypes.ExtractionResult),
		log:      logger.NewStyledLogger("Calibration"),
	}
	x.log.Info("Exposure loaded", "exposure", x.ID, "file", path,
		"nints", x.NInts, "ngroups", x.NGroups, "subarray", string(x.Subarray))
	return x, nil
}

// Calibrated reports whether the calibration sequence has run.
func (x *Exposure) Calibrated() bool {
	return x.calibrated
}

// Extract runs the named extraction method over a source data product and
// stores the result in the results mapping under the given result name.
// Only the per-integration products are extractable sources.
func (x *Exposure) Extract(method, source, name string) error {
	if name == "" {
		return fmt.Errorf("extraction needs a result name")
	}
	if !x.calibrated {
		return fmt.Errorf("exposure %s is not calibrated; run calibration before extraction", x.ID)
	}
	if _, exists := x.Results[name]; exists {
		return fmt.Errorf("result %q already exists", name)
	}

	m, err := extract.Get(method)
	if err != nil {
		return err
	}
	data, scale, err := x.sourceProduct(source)
	if err != nil {
		return err
	}

	x.log.Info("Extracting spectra", "method", method, "product", source, "result", name)
	result, err := m.Extract(data, extract.Request{
		Filter:    x.Filter,
		Subarray:  x.Subarray,
		Source:    source,
		RateScale: scale,
	})
	if err != nil {
		return err
	}

	x.Results[name] = result
	return nil
}

// sourceProduct resolves an extraction source name to its cube and the
// scale converting its units to counts/s.
func (x *Exposure) sourceProduct(source string) (*cube.Cube3, float64, error) {
	switch source {
	case sosstypes.ProductRateInts:
		return x.RateInts, 1, nil
	case sosstypes.ProductCalInts:
		return x.CalInts, trace.PhotomFactor(trace.Order1), nil
	default:
		return nil, 0, fmt.Errorf("source product %q is not extractable (extractable: %s, %s)",
			source, sosstypes.ProductRateInts, sosstypes.ProductCalInts)
	}
}

// PlotResults renders the time series of extracted spectra for a named
// result to a PNG file.
func (x *Exposure) PlotResults(name, path string) error {
	result, ok := x.Results[name]
	if !ok {
		return fmt.Errorf("no extraction result named %q", name)
	}
	return plotting.TimeSeries(name, result, path)
}
