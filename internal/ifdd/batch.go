package ifdd

import (
	"fmt"
	"math"
	"sort"

	"github.com/danielpatrickdp/ifdd/internal/featureset"
	"gonum.org/v1/gonum/mat"
)

// #region batch-types
// batchCandidate is one unconjoined pair of feature columns with its batch score.
type batchCandidate struct {
	i, j      int
	relevance float64
	count     float64
}

// #endregion batch-types

// #region batch-discover
// BatchDiscover scores every pair of feature columns over a batch of samples and
// promotes at most MaxBatchDiscovery of the best pairs whose relevance exceeds
// BatchThreshold. phi has one row per sample and one column per current feature;
// tdErrors has one entry per sample. The relevance of a pair is the absolute value of
// the signed TD-error sum over samples where both are active, divided by the square
// root of the number of such samples. It reports whether any feature was added.
func (e *Engine) BatchDiscover(tdErrors []float64, phi mat.Matrix) (bool, error) {
	n := e.FeaturesNum()
	rows, cols := phi.Dims()
	if rows != len(tdErrors) {
		return false, fmt.Errorf("batch discover: %d samples but %d td errors: %w", rows, len(tdErrors), ErrShapeMismatch)
	}
	if cols != n {
		return false, fmt.Errorf("batch discover: %d columns but %d features: %w", cols, n, ErrShapeMismatch)
	}
	if rows == 0 {
		return false, nil
	}

	relevances := mat.NewSymDense(n, nil)
	counts := mat.NewSymDense(n, nil)
	sample := mat.NewVecDense(n, nil)
	for s := 0; s < rows; s++ {
		for f := 0; f < n; f++ {
			sample.SetVec(f, phi.At(s, f))
		}
		relevances.SymRankOne(relevances, tdErrors[s], sample)
		counts.SymRankOne(counts, 1, sample)
	}

	// strict upper triangle: pairs of distinct features
	var candidates []batchCandidate
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c := counts.At(i, j)
			if c <= 0 {
				continue
			}
			candidates = append(candidates, batchCandidate{
				i:         i,
				j:         j,
				relevance: math.Abs(relevances.At(i, j)) / math.Sqrt(c),
				count:     c,
			})
		}
	}
	if len(candidates) == 0 {
		e.logger.Info("batch discovery", "max_relevance", 0.0)
		return false, nil
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].relevance > candidates[b].relevance
	})
	e.logger.Info("batch discovery", "max_relevance", candidates[0].relevance, "pairs", len(candidates))

	added := 0
	for _, c := range candidates {
		if added >= e.cfg.MaxBatchDiscovery {
			break
		}
		// sorted, so nothing after this can pass either
		if c.relevance <= e.cfg.BatchThreshold {
			break
		}
		fi, _ := e.features.ByIndex(c.i)
		fj, _ := e.features.ByIndex(c.j)
		union := featureset.Union(fi.BaseSet, fj.BaseSet)
		if _, ok := e.features.Lookup(union); ok {
			continue
		}
		idx, err := e.promote(union, c.i, c.j, c.relevance, int(c.count), ModeBatch)
		if err != nil {
			return added > 0, err
		}
		if idx < 0 {
			break
		}
		added++
	}
	return added > 0, nil
}

// #endregion batch-discover

// #region batch-phi
// PhiMatrix stacks the activations of a batch of resolved samples into a dense
// samples-by-features matrix suitable for BatchDiscover.
func (e *Engine) PhiMatrix(activeSets [][]int) (*mat.Dense, error) {
	n := e.FeaturesNum()
	if len(activeSets) == 0 {
		return nil, fmt.Errorf("phi matrix: no samples: %w", ErrShapeMismatch)
	}
	m := mat.NewDense(len(activeSets), n, nil)
	for s, active := range activeSets {
		for _, f := range active {
			if f < 0 || f >= n {
				return nil, fmt.Errorf("phi matrix: feature %d of %d: %w", f, n, ErrIndexOutOfRange)
			}
			m.Set(s, f, 1)
		}
	}
	return m, nil
}

// #endregion batch-phi
