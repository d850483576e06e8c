// Package fits persists simulated exposures in the standard astronomical
// FITS format and loads them back. An exposure file is a primary HDU
// carrying the observation metadata cards plus one 4-D float32 image
// extension holding the up-the-ramp cube.
package fits

import (
	"fmt"
	"os"
	"strings"

	"github.com/astrogo/fitsio"

	"soss/internal/cube"
	"soss/pkg/sosstypes"
)

// UncalSuffix is the filename suffix convention for raw pipeline input.
const UncalSuffix = "_uncal.fits"

// ExposureHeader is the observation metadata carried in the primary HDU.
type ExposureHeader struct {
	ID       string // exposure identifier
	NInts    int
	NGroups  int
	Subarray sosstypes.Subarray
	Filter   sosstypes.Filter
}

// IsUncalPath reports whether path follows the raw-input suffix convention.
func IsUncalPath(path string) bool {
	return strings.HasSuffix(path, UncalSuffix)
}

// WriteExposure serializes the exposure cube and its metadata to path.
func WriteExposure(path string, hdr ExposureHeader, c *cube.Cube4) error {
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating exposure file: %w", err)
	}
	defer w.Close()

	f, err := fitsio.Create(w)
	if err != nil {
		return fmt.Errorf("creating FITS stream: %w", err)
	}
	defer f.Close()

	phdu, err := fitsio.NewPrimaryHDU(nil)
	if err != nil {
		return fmt.Errorf("creating primary HDU: %w", err)
	}
	defer phdu.Close()

	err = phdu.Header().Append(
		fitsio.Card{Name: "EXPID", Value: hdr.ID, Comment: "exposure identifier"},
		fitsio.Card{Name: "NINTS", Value: hdr.NInts, Comment: "number of integrations"},
		fitsio.Card{Name: "NGROUPS", Value: hdr.NGroups, Comment: "groups per integration"},
		fitsio.Card{Name: "SUBARRAY", Value: string(hdr.Subarray), Comment: "detector subarray"},
		fitsio.Card{Name: "FILTER", Value: string(hdr.Filter), Comment: "blocking filter"},
	)
	if err != nil {
		return fmt.Errorf("writing header cards: %w", err)
	}
	if err := f.Write(phdu); err != nil {
		return fmt.Errorf("writing primary HDU: %w", err)
	}

	// NAXIS1 varies fastest: (col, row, group, integration).
	img := fitsio.NewImage(-32, []int{c.Cols, c.Rows, c.NGroups, c.NInts})
	defer img.Close()

	err = img.Header().Append(
		fitsio.Card{Name: "EXTNAME", Value: "SCI", Comment: "raw group data"},
	)
	if err != nil {
		return fmt.Errorf("writing image header: %w", err)
	}

	data := make([]float32, len(c.Data))
	for i, v := range c.Data {
		data[i] = float32(v)
	}
	if err := img.Write(&data); err != nil {
		return fmt.Errorf("writing image data: %w", err)
	}
	if err := f.Write(img); err != nil {
		return fmt.Errorf("writing image HDU: %w", err)
	}

	return nil
}

// ReadExposure loads an exposure file written by WriteExposure.
func ReadExposure(path string) (ExposureHeader, *cube.Cube4, error) {
	var hdr ExposureHeader

	r, err := os.Open(path)
	if err != nil {
		return hdr, nil, fmt.Errorf("opening exposure file: %w", err)
	}
	defer r.Close()

	f, err := fitsio.Open(r)
	if err != nil {
		return hdr, nil, fmt.Errorf("opening FITS stream: %w", err)
	}
	defer f.Close()

	if len(f.HDUs()) < 2 {
		return hdr, nil, fmt.Errorf("exposure file %s has no data extension", path)
	}

	phdr := f.HDU(0).Header()
	hdr.ID, err = stringCard(phdr, "EXPID")
	if err != nil {
		return hdr, nil, err
	}
	hdr.NInts, err = intCard(phdr, "NINTS")
	if err != nil {
		return hdr, nil, err
	}
	hdr.NGroups, err = intCard(phdr, "NGROUPS")
	if err != nil {
		return hdr, nil, err
	}
	sub, err := stringCard(phdr, "SUBARRAY")
	if err != nil {
		return hdr, nil, err
	}
	hdr.Subarray = sosstypes.Subarray(sub)
	filt, err := stringCard(phdr, "FILTER")
	if err != nil {
		return hdr, nil, err
	}
	hdr.Filter = sosstypes.Filter(filt)

	img, ok := f.HDU(1).(fitsio.Image)
	if !ok {
		return hdr, nil, fmt.Errorf("exposure file %s: first extension is not an image", path)
	}
	axes := img.Header().Axes()
	if len(axes) != 4 {
		return hdr, nil, fmt.Errorf("exposure file %s: expected 4 axes, got %d", path, len(axes))
	}

	// fitsio sets the slice length itself, so the capacity must cover the
	// full cube up front.
	data := make([]float32, 0, axes[0]*axes[1]*axes[2]*axes[3])
	if err := img.Read(&data); err != nil {
		return hdr, nil, fmt.Errorf("reading image data: %w", err)
	}

	c := cube.NewCube4(axes[3], axes[2], axes[1], axes[0])
	if len(data) != len(c.Data) {
		return hdr, nil, fmt.Errorf("exposure file %s: %d values for %d pixels", path, len(data), len(c.Data))
	}
	for i, v := range data {
		c.Data[i] = float64(v)
	}

	if err := c.CheckShape(hdr.NInts, hdr.NGroups, c.Rows, c.Cols); err != nil {
		return hdr, nil, fmt.Errorf("exposure file %s: header/data mismatch: %w", path, err)
	}

	return hdr, c, nil
}

func stringCard(hdr *fitsio.Header, name string) (string, error) {
	card := hdr.Get(name)
	if card == nil {
		return "", fmt.Errorf("missing header card %s", name)
	}
	s, ok := card.Value.(string)
	if !ok {
		return "", fmt.Errorf("header card %s is not a string", name)
	}
	return s, nil
}

func intCard(hdr *fitsio.Header, name string) (int, error) {
	card := hdr.Get(name)
	if card == nil {
		return 0, fmt.Errorf("missing header card %s", name)
	}
	switch v := card.Value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("header card %s is not an integer", name)
	}
}
