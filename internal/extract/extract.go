// Package extract reduces per-integration detector cubes to 1-D spectral
// time series. Extraction methods are registered by identifier; the only
// built-in method is "sum", a plain aperture summation over the wavelength
// bins of each dispersion order, with the two orders combined into the
// final spectrum.
package extract

import (
	"fmt"
	"math"
	"sort"

	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"soss/internal/cube"
	"soss/internal/trace"
	"soss/pkg/sosstypes"
)

// uncSeed fixes the uncertainty model draws so extraction is reproducible.
const uncSeed = 7

// Request carries the extraction context beyond the pixel data itself.
type Request struct {
	Filter   sosstypes.Filter
	Subarray sosstypes.Subarray
	Source   string        // source data product name, recorded in the result
	Masks    []*cube.Image // optional per-order pixel masks; defaults when nil
	// RateScale converts source data units to counts/s. 1 for rate-type
	// products; the inverse photometric scale for calibrated products.
	RateScale float64
}

// Method is a 1-D extraction algorithm.
type Method interface {
	// Name returns the method identifier used for registration and dispatch.
	Name() string
	// Extract reduces the per-integration cube to a spectral time series.
	Extract(data *cube.Cube3, req Request) (*sosstypes.ExtractionResult, error)
}

var registry = map[string]Method{}

// Register adds a method to the registry. Duplicate registration is a
// programming error.
func Register(m Method) {
	if _, dup := registry[m.Name()]; dup {
		panic(fmt.Sprintf("extract: method %q registered twice", m.Name()))
	}
	registry[m.Name()] = m
}

// Get resolves a method identifier.
func Get(name string) (Method, error) {
	m, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown extraction method %q (available: %v)", name, Methods())
	}
	return m, nil
}

// Methods returns the registered method identifiers, sorted.
func Methods() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(&SumMethod{})
}

// SumMethod is the aperture-summation extraction: counts in each wavelength
// bin are summed through the order's pixel mask, converted to flux density
// with the order throughput and photometric factor, and the two orders are
// combined into the final spectrum.
type SumMethod struct{}

// Name implements Method.
func (*SumMethod) Name() string { return "sum" }

// orderSpectrum is the per-order intermediate of one extraction.
type orderSpectrum struct {
	wave   []float64
	counts [][]float64
	flux   [][]float64
	unc    [][]float64
}

// Extract implements Method.
func (m *SumMethod) Extract(data *cube.Cube3, req Request) (*sosstypes.ExtractionResult, error) {
	if data == nil || data.N == 0 {
		return nil, fmt.Errorf("sum extraction needs a non-empty per-integration cube")
	}
	rows, cols := req.Subarray.Dims()
	if rows != data.Rows || cols != data.Cols {
		return nil, fmt.Errorf("data shape %dx%d does not match subarray %s (%dx%d)",
			data.Rows, data.Cols, req.Subarray, rows, cols)
	}
	masks := req.Masks
	if masks == nil {
		masks = trace.DefaultMasks(req.Subarray)
	}
	if len(masks) != len(trace.Orders) {
		return nil, fmt.Errorf("expected %d pixel masks, got %d", len(trace.Orders), len(masks))
	}
	scale := req.RateScale
	if scale == 0 {
		scale = 1
	}

	rng := distuv.Normal{Mu: 0, Sigma: 1, Src: xrand.NewSource(uncSeed)}

	specs := make([]orderSpectrum, 0, len(trace.Orders))
	for oi, o := range trace.Orders {
		bins := trace.WavelengthBins(o, req.Subarray)
		spec := binCounts(data, bins, masks[oi])

		// Counts to flux through the photometric calibration.
		photom := trace.PhotomFactor(o)
		spec.flux = make([][]float64, data.N)
		spec.unc = make([][]float64, data.N)
		for i := 0; i < data.N; i++ {
			spec.flux[i] = make([]float64, len(bins))
			spec.unc[i] = make([]float64, len(bins))
			for j := range bins {
				thr := trace.Throughput(o, req.Filter, spec.wave[j])
				if thr == 0 {
					continue
				}
				f := spec.counts[i][j] * scale / (photom * thr)
				spec.flux[i][j] = f
				// 1% gaussian uncertainty model with a small scatter.
				spec.unc[i][j] = 0.01 * f * math.Abs(1+0.05*rng.Rand())
			}
		}

		sortByWavelength(&spec)
		specs = append(specs, spec)
	}

	wave, counts, flux, unc := combineOrders(specs[0], specs[1])

	result := &sosstypes.ExtractionResult{
		Wavelength: wave,
		Flux:       flux,
		Counts:     counts,
		Unc:        unc,
		Filter:     req.Filter,
		Subarray:   req.Subarray,
		Method:     m.Name(),
		Source:     req.Source,
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("sum extraction produced inconsistent result: %w", err)
	}
	return result, nil
}

// binCounts sums the masked counts in each wavelength bin for every
// integration.
func binCounts(data *cube.Cube3, bins []trace.Bin, mask *cube.Image) orderSpectrum {
	spec := orderSpectrum{
		wave:   make([]float64, len(bins)),
		counts: make([][]float64, data.N),
	}
	for j, bin := range bins {
		spec.wave[j] = bin.Wavelength
	}
	for i := 0; i < data.N; i++ {
		spec.counts[i] = make([]float64, len(bins))
		for j, bin := range bins {
			sum := 0.0
			for _, p := range bin.Pixels {
				sum += data.At(i, p.Row, p.Col) * mask.At(p.Row, p.Col)
			}
			spec.counts[i][j] = sum
		}
	}
	return spec
}

// sortByWavelength reorders a per-order spectrum into monotonically
// increasing wavelength.
func sortByWavelength(spec *orderSpectrum) {
	idx := make([]int, len(spec.wave))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return spec.wave[idx[a]] < spec.wave[idx[b]] })

	spec.wave = permute(spec.wave, idx)
	for i := range spec.counts {
		spec.counts[i] = permute(spec.counts[i], idx)
	}
	for i := range spec.flux {
		spec.flux[i] = permute(spec.flux[i], idx)
	}
	for i := range spec.unc {
		spec.unc[i] = permute(spec.unc[i], idx)
	}
}

func permute(s []float64, idx []int) []float64 {
	out := make([]float64, len(s))
	for i, j := range idx {
		out[i] = s[j]
	}
	return out
}

// combineOrders merges the order 1 and order 2 spectra: order 2 extends the
// blue end below order 1's coverage, and in the overlap the orders are
// averaged with inverse-variance weights where both carry signal.
func combineOrders(o1, o2 orderSpectrum) (wave []float64, counts, flux, unc [][]float64) {
	nints := len(o1.counts)

	// Blue extension from order 2.
	var blue []int
	for j, w := range o2.wave {
		if w < o1.wave[0] {
			blue = append(blue, j)
		}
	}

	wave = make([]float64, 0, len(blue)+len(o1.wave))
	for _, j := range blue {
		wave = append(wave, o2.wave[j])
	}
	wave = append(wave, o1.wave...)

	counts = make([][]float64, nints)
	flux = make([][]float64, nints)
	unc = make([][]float64, nints)
	for i := 0; i < nints; i++ {
		counts[i] = make([]float64, 0, len(wave))
		flux[i] = make([]float64, 0, len(wave))
		unc[i] = make([]float64, 0, len(wave))
		for _, j := range blue {
			counts[i] = append(counts[i], o2.counts[i][j])
			flux[i] = append(flux[i], o2.flux[i][j])
			unc[i] = append(unc[i], o2.unc[i][j])
		}
		for j := range o1.wave {
			f1, u1 := o1.flux[i][j], o1.unc[i][j]
			f2, u2 := sampleAt(o2.wave, o2.flux[i], o2.unc[i], o1.wave[j])
			f, u := f1, u1
			if u1 > 0 && u2 > 0 && f2 > 0 {
				w1 := 1 / (u1 * u1)
				w2 := 1 / (u2 * u2)
				f = (f1*w1 + f2*w2) / (w1 + w2)
				u = math.Sqrt(1 / (w1 + w2))
			}
			counts[i] = append(counts[i], o1.counts[i][j])
			flux[i] = append(flux[i], f)
			unc[i] = append(unc[i], u)
		}
	}
	return wave, counts, flux, unc
}

// sampleAt linearly interpolates a spectrum at wavelength w, returning
// zeros outside its coverage.
func sampleAt(wave, flux, unc []float64, w float64) (f, u float64) {
	n := len(wave)
	if n == 0 || w < wave[0] || w > wave[n-1] {
		return 0, 0
	}
	j := sort.SearchFloat64s(wave, w)
	if j == 0 {
		return flux[0], unc[0]
	}
	if j >= n {
		return flux[n-1], unc[n-1]
	}
	t := (w - wave[j-1]) / (wave[j] - wave[j-1])
	return flux[j-1] + t*(flux[j]-flux[j-1]), unc[j-1] + t*(unc[j]-unc[j-1])
}
