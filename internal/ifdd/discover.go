package ifdd

import (
	"fmt"

	"github.com/danielpatrickdp/ifdd/internal/featureset"
)

// #region discover
// Discover credits tdError to every pair of active features whose conjunction is not
// yet a feature and promotes the candidates whose normalized relevance exceeds the
// discovery threshold. It returns the indices of newly added features. Fewer than two
// active features is a no-op. A full feature bag also yields no new features.
func (e *Engine) Discover(active []int, tdError float64) ([]int, error) {
	n := e.FeaturesNum()
	for _, i := range active {
		if i < 0 || i >= n {
			return nil, fmt.Errorf("discover: feature %d of %d: %w", i, n, ErrIndexOutOfRange)
		}
	}
	idx := featureset.New(active...)
	if idx.Len() < 2 {
		return nil, nil
	}

	var added []int
	for i := 0; i < len(idx); i++ {
		for j := i + 1; j < len(idx); j++ {
			newIndex, err := e.inspectPair(idx[i], idx[j], tdError)
			if err != nil {
				return added, err
			}
			if newIndex >= 0 {
				added = append(added, newIndex)
			}
		}
	}
	return added, nil
}

// DiscoverPhi is Discover driven by a boolean activation vector of length FeaturesNum.
func (e *Engine) DiscoverPhi(phiS []bool, tdError float64) ([]int, error) {
	if len(phiS) != e.FeaturesNum() {
		return nil, fmt.Errorf("discover: phi has %d entries, want %d: %w", len(phiS), e.FeaturesNum(), ErrShapeMismatch)
	}
	var active []int
	for i, on := range phiS {
		if on {
			active = append(active, i)
		}
	}
	return e.Discover(active, tdError)
}

// #endregion discover

// #region inspect-pair
// inspectPair updates the potential for the union of features g and h and returns
// the new feature index, or -1 when nothing was promoted.
func (e *Engine) inspectPair(g, h int, tdError float64) (int, error) {
	fg, _ := e.features.ByIndex(g)
	fh, _ := e.features.ByIndex(h)
	union := featureset.Union(fg.BaseSet, fh.BaseSet)
	if _, ok := e.features.Lookup(union); ok {
		return -1, nil
	}

	p := e.potentials.Observe(union, g, h, tdError)
	score := p.Score()
	if score > e.cfg.DiscoveryThreshold {
		return e.promote(union, g, h, score, p.Count, ModeOnline)
	}
	if score > e.maxRelevance {
		e.maxRelevance = score
	}
	return -1, nil
}

// #endregion inspect-pair

// #region promote
// promote turns the conjunction set of parents g and h into a feature: it registers
// the feature, grows theta, drops the potential and clears the resolution cache.
// Returns -1 without error when the capacity gate refuses the growth.
func (e *Engine) promote(set featureset.Set, g, h int, relevance float64, count int, mode string) (int, error) {
	decision := e.gate.Evaluate(e.FeaturesNum(), e.actions)
	if decision.Vetoed {
		if e.vetoes == 0 {
			e.logger.Info("feature discovery stopped", "reason", decision.Reason, "features", e.FeaturesNum())
		}
		e.vetoes++
		return -1, nil
	}

	f, err := e.features.Promote(set, g, h)
	if err != nil {
		return -1, err
	}
	if err := e.weights.Expand(g, h, e.cfg.Sparsify); err != nil {
		return -1, fmt.Errorf("grow theta for feature %d: %w", f.Index, err)
	}
	e.potentials.Remove(set)
	e.cache.Clear()
	e.discoveries++
	e.maxRelevance = 0

	e.logger.Debug("feature discovered",
		"index", f.Index,
		"base_set", f.BaseSet.String(),
		"parents", []int{g, h},
		"relevance", relevance,
		"count", count,
		"mode", mode,
	)
	event := DiscoveryEvent{
		Feature:     f,
		Relevance:   relevance,
		Count:       count,
		Mode:        mode,
		FeaturesNum: e.FeaturesNum(),
	}
	for _, hook := range e.hooks {
		hook(event)
	}
	return f.Index, nil
}

// #endregion promote
