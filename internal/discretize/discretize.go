// Package discretize maps continuous states to base-feature indices by binning each
// dimension independently.
package discretize

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOutOfBounds is returned for states outside the configured limits.
var ErrOutOfBounds = errors.New("state out of bounds")

// #region independent
// Independent activates exactly one bin per state dimension. Feature indices are
// the bin number plus the total bin count of all earlier dimensions.
type Independent struct {
	limits  [][2]float64
	bins    []int
	offsets []int
	total   int
}

// NewIndependent builds a discretizer; limits[d] is the closed [low, high] range of
// dimension d and bins[d] its bin count.
func NewIndependent(limits [][2]float64, bins []int) (*Independent, error) {
	if len(limits) == 0 {
		return nil, errors.New("new independent: no dimensions")
	}
	if len(limits) != len(bins) {
		return nil, fmt.Errorf("new independent: %d limits for %d bin counts", len(limits), len(bins))
	}
	d := &Independent{
		limits:  make([][2]float64, len(limits)),
		bins:    make([]int, len(bins)),
		offsets: make([]int, len(bins)),
	}
	copy(d.limits, limits)
	copy(d.bins, bins)
	for i := range limits {
		if bins[i] <= 0 {
			return nil, fmt.Errorf("new independent: dimension %d has %d bins", i, bins[i])
		}
		if limits[i][1] <= limits[i][0] {
			return nil, fmt.Errorf("new independent: dimension %d has empty range %v", i, limits[i])
		}
		d.offsets[i] = d.total
		d.total += bins[i]
	}
	return d, nil
}

// #endregion independent

// #region binning
// FeaturesNum is the total number of bins over all dimensions.
func (d *Independent) FeaturesNum() int {
	return d.total
}

// Dims is the state dimensionality.
func (d *Independent) Dims() int {
	return len(d.bins)
}

// BinState returns the zero-based bin of every dimension. The upper limit falls in the last bin.
func (d *Independent) BinState(s []float64) ([]int, error) {
	if len(s) != len(d.bins) {
		return nil, fmt.Errorf("bin state: %d dimensions, want %d", len(s), len(d.bins))
	}
	out := make([]int, len(s))
	for i, v := range s {
		lo, hi := d.limits[i][0], d.limits[i][1]
		if v < lo || v > hi {
			return nil, fmt.Errorf("bin state: dimension %d value %g outside [%g, %g]: %w", i, v, lo, hi, ErrOutOfBounds)
		}
		b := int((v - lo) * float64(d.bins[i]) / (hi - lo))
		if b >= d.bins[i] {
			b = d.bins[i] - 1
		}
		out[i] = b
	}
	return out, nil
}

// ActiveFeatures returns one base-feature index per dimension.
func (d *Independent) ActiveFeatures(s []float64) ([]int, error) {
	bs, err := d.BinState(s)
	if err != nil {
		return nil, err
	}
	for i := range bs {
		bs[i] += d.offsets[i]
	}
	return bs, nil
}

// Locate maps a base-feature index back to its dimension and bin.
func (d *Independent) Locate(feature int) (dim, bin int, err error) {
	if feature < 0 || feature >= d.total {
		return 0, 0, fmt.Errorf("locate: feature %d of %d", feature, d.total)
	}
	dim = sort.Search(len(d.offsets), func(i int) bool { return d.offsets[i] > feature }) - 1
	return dim, feature - d.offsets[dim], nil
}

// #endregion binning
