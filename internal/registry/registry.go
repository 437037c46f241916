// Package registry owns the canonical set of discovered features.
package registry

import (
	"fmt"
	"sort"

	"github.com/danielpatrickdp/ifdd/internal/featureset"
)

// #region registry
// Registry maps base sets to features and features to their dense indices.
type Registry struct {
	byKey   map[featureset.Key]int
	byIndex []Feature
	ordered []int // size descending, newest first within a size
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{byKey: make(map[featureset.Key]int)}
}

// #endregion registry

// #region register-base
// RegisterBase creates base features 0..n-1, each covering only itself.
func (r *Registry) RegisterBase(n int) error {
	if len(r.byIndex) > 0 {
		return ErrNotEmpty
	}
	for i := 0; i < n; i++ {
		if _, err := r.add(featureset.Set{i}, -1, -1); err != nil {
			return err
		}
	}
	return nil
}

// #endregion register-base

// #region lookup
// Lookup finds the feature whose base set is exactly set.
func (r *Registry) Lookup(set featureset.Set) (Feature, bool) {
	return r.LookupKey(set.Key())
}

// LookupKey finds a feature by the canonical key of its base set.
func (r *Registry) LookupKey(k featureset.Key) (Feature, bool) {
	i, ok := r.byKey[k]
	if !ok {
		return Feature{}, false
	}
	return r.byIndex[i], true
}

// ByIndex returns the feature with the given index.
func (r *Registry) ByIndex(i int) (Feature, bool) {
	if i < 0 || i >= len(r.byIndex) {
		return Feature{}, false
	}
	return r.byIndex[i], true
}

// Len is the number of registered features, base features included.
func (r *Registry) Len() int {
	return len(r.byIndex)
}

// Features returns all features in index order.
func (r *Registry) Features() []Feature {
	out := make([]Feature, len(r.byIndex))
	copy(out, r.byIndex)
	return out
}

// Ordered returns feature indices sorted by base-set size descending, newest first within a size.
func (r *Registry) Ordered() []int {
	return r.ordered
}

// #endregion lookup

// #region promote
// Promote registers a new conjunction under the next free index.
func (r *Registry) Promote(set featureset.Set, parent1, parent2 int) (Feature, error) {
	return r.add(set, parent1, parent2)
}

func (r *Registry) add(set featureset.Set, parent1, parent2 int) (Feature, error) {
	k := set.Key()
	if existing, ok := r.byKey[k]; ok {
		return Feature{}, fmt.Errorf("promote %v: %w (held by feature %d)", set, ErrDuplicateBaseSet, existing)
	}
	f := Feature{
		Index:   len(r.byIndex),
		BaseSet: set,
		Parent1: parent1,
		Parent2: parent2,
	}
	r.byIndex = append(r.byIndex, f)
	r.byKey[k] = f.Index

	// The new feature has the highest index, so it leads its size group.
	size := set.Len()
	pos := sort.Search(len(r.ordered), func(p int) bool {
		return r.byIndex[r.ordered[p]].BaseSet.Len() <= size
	})
	r.ordered = append(r.ordered, 0)
	copy(r.ordered[pos+1:], r.ordered[pos:])
	r.ordered[pos] = f.Index
	return f, nil
}

// #endregion promote

// #region restore
// Restore rebuilds a registry from persisted features. The first initial features
// must be the base features; every later feature must be the union of two earlier ones.
func Restore(features []Feature, initial int) (*Registry, error) {
	if initial > len(features) {
		return nil, fmt.Errorf("restore: %d features but %d initial: %w", len(features), initial, ErrInvalidFeature)
	}
	sorted := make([]Feature, len(features))
	copy(sorted, features)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].Index < sorted[b].Index })

	r := New()
	for i, f := range sorted {
		if f.Index != i {
			return nil, fmt.Errorf("restore: index %d at position %d: %w", f.Index, i, ErrInvalidFeature)
		}
		if i < initial {
			if !f.IsBase() || !f.BaseSet.Equal(featureset.Set{i}) {
				return nil, fmt.Errorf("restore: base feature %d has set %v: %w", i, f.BaseSet, ErrInvalidFeature)
			}
		} else {
			if f.Parent1 < 0 || f.Parent1 >= i || f.Parent2 < 0 || f.Parent2 >= i {
				return nil, fmt.Errorf("restore: feature %d has parents %d,%d: %w", i, f.Parent1, f.Parent2, ErrInvalidFeature)
			}
			union := featureset.Union(sorted[f.Parent1].BaseSet, sorted[f.Parent2].BaseSet)
			if !union.Equal(f.BaseSet) {
				return nil, fmt.Errorf("restore: feature %d set %v is not its parents' union %v: %w", i, f.BaseSet, union, ErrInvalidFeature)
			}
		}
		if _, err := r.add(featureset.New(f.BaseSet...), f.Parent1, f.Parent2); err != nil {
			return nil, fmt.Errorf("restore: %w", err)
		}
	}
	return r, nil
}

// #endregion restore

// #region lineage
// Lineage walks parent links breadth-first from index, up to maxDepth hops
// (0 means unbounded). Shared ancestors are reported once.
func (r *Registry) Lineage(index, maxDepth int) (LineageResult, error) {
	if _, ok := r.ByIndex(index); !ok {
		return LineageResult{}, fmt.Errorf("lineage: feature %d not registered", index)
	}
	result := LineageResult{
		Indices: []int{index},
		Depths:  []int{0},
	}
	visited := map[int]bool{index: true}

	type queueItem struct {
		index int
		depth int
	}
	queue := []queueItem{{index, 0}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if maxDepth > 0 && current.depth >= maxDepth {
			continue
		}
		f := r.byIndex[current.index]
		for _, p := range []int{f.Parent1, f.Parent2} {
			if p < 0 || visited[p] {
				continue
			}
			visited[p] = true
			result.Indices = append(result.Indices, p)
			result.Depths = append(result.Depths, current.depth+1)
			queue = append(queue, queueItem{p, current.depth + 1})
		}
	}
	return result, nil
}

// #endregion lineage
