package ifdd

import (
	"fmt"
	"sort"

	"github.com/danielpatrickdp/ifdd/internal/featureset"
)

// #region active-features
// ActiveFeatures resolves the active base features of a state to the discovered
// features that cover them, largest conjunctions first. In sparsify mode each base
// index is consumed by at most one activated feature. The result is sorted ascending
// and is empty only when activeBase is empty (terminal states).
func (e *Engine) ActiveFeatures(activeBase []int) ([]int, error) {
	for _, i := range activeBase {
		if i < 0 || i >= e.initial {
			return nil, fmt.Errorf("active base feature %d of %d: %w", i, e.initial, ErrIndexOutOfRange)
		}
	}
	set := featureset.New(activeBase...)
	if set.Len() == 0 {
		return []int{}, nil
	}

	if !e.cfg.UseCache {
		return e.resolve(set), nil
	}
	k := set.Key()
	if hit, ok := e.cache.Get(k); ok {
		out := make([]int, len(hit))
		copy(out, hit)
		return out, nil
	}
	resolved := e.resolve(set)
	e.cache.Put(k, resolved)
	return resolved, nil
}

// #endregion active-features

// #region resolve
// resolve runs the greedy covering search. When the active set is small relative to
// the basis it enumerates subsets by size; otherwise it scans features in priority
// order. Both visit candidates by size descending, newest first, so they agree.
func (e *Engine) resolve(set featureset.Set) []int {
	k := set.Len()
	if k < 31 && 1<<k <= e.features.Len() {
		return e.resolveBySubsets(set)
	}
	return e.resolveByScan(set)
}

func (e *Engine) resolveBySubsets(set featureset.Set) []int {
	remaining := set
	var out []int
	for size := set.Len(); size >= 1 && remaining.Len() > 0; size-- {
		var candidates []int
		featureset.Combinations(remaining, size, func(c featureset.Set) bool {
			if f, ok := e.features.Lookup(c); ok {
				candidates = append(candidates, f.Index)
			}
			return true
		})
		sort.Sort(sort.Reverse(sort.IntSlice(candidates)))
		for _, idx := range candidates {
			if remaining.Len() == 0 {
				break
			}
			remaining = e.activate(idx, remaining, &out)
		}
	}
	sort.Ints(out)
	return out
}

func (e *Engine) resolveByScan(set featureset.Set) []int {
	remaining := set
	var out []int
	for _, idx := range e.features.Ordered() {
		if remaining.Len() == 0 {
			break
		}
		remaining = e.activate(idx, remaining, &out)
	}
	sort.Ints(out)
	return out
}

// activate adds feature idx to out when its base set is still uncovered and
// returns the pool left for smaller candidates.
func (e *Engine) activate(idx int, remaining featureset.Set, out *[]int) featureset.Set {
	f, _ := e.features.ByIndex(idx)
	if !featureset.IsSubset(f.BaseSet, remaining) {
		return remaining
	}
	*out = append(*out, idx)
	if e.cfg.Sparsify {
		return featureset.Minus(remaining, f.BaseSet)
	}
	return remaining
}

// #endregion resolve

// #region phi
// Phi returns the boolean activation of every feature for state. Terminal states
// activate nothing.
func (e *Engine) Phi(state []float64, terminal bool) ([]bool, error) {
	phi := make([]bool, e.FeaturesNum())
	if terminal {
		return phi, nil
	}
	if e.base == nil {
		return nil, ErrNoBaseFeatures
	}
	activeBase, err := e.base.ActiveFeatures(state)
	if err != nil {
		return nil, fmt.Errorf("base features: %w", err)
	}
	active, err := e.ActiveFeatures(activeBase)
	if err != nil {
		return nil, err
	}
	for _, i := range active {
		phi[i] = true
	}
	return phi, nil
}

// PhiSA places phiS in the weight block of action a and zeroes the other blocks.
func (e *Engine) PhiSA(phiS []bool, a int) ([]bool, error) {
	return phiSA(phiS, a, e.FeaturesNum(), e.actions)
}

// Q is the linear value of phiS under action a.
func (e *Engine) Q(phiS []bool, a int) (float64, error) {
	if len(phiS) != e.FeaturesNum() {
		return 0, fmt.Errorf("q: phi has %d entries, want %d: %w", len(phiS), e.FeaturesNum(), ErrShapeMismatch)
	}
	if a < 0 || a >= e.actions {
		return 0, fmt.Errorf("q: action %d of %d: %w", a, e.actions, ErrIndexOutOfRange)
	}
	var q float64
	for f, on := range phiS {
		if on {
			q += e.weights.At(f, a)
		}
	}
	return q, nil
}

// Qs returns Q for every action.
func (e *Engine) Qs(phiS []bool) ([]float64, error) {
	qs := make([]float64, e.actions)
	for a := range qs {
		q, err := e.Q(phiS, a)
		if err != nil {
			return nil, err
		}
		qs[a] = q
	}
	return qs, nil
}

func phiSA(phiS []bool, a, features, actions int) ([]bool, error) {
	if len(phiS) != features {
		return nil, fmt.Errorf("phi_sa: phi has %d entries, want %d: %w", len(phiS), features, ErrShapeMismatch)
	}
	if a < 0 || a >= actions {
		return nil, fmt.Errorf("phi_sa: action %d of %d: %w", a, actions, ErrIndexOutOfRange)
	}
	out := make([]bool, features*actions)
	copy(out[a*features:(a+1)*features], phiS)
	return out, nil
}

// #endregion phi
