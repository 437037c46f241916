// Package potential holds candidate conjunctions that have not been discovered yet.
package potential

import (
	"math"
	"sort"

	"github.com/danielpatrickdp/ifdd/internal/featureset"
)

// #region potential
// Potential accumulates the TD-error evidence for one candidate conjunction.
type Potential struct {
	BaseSet   featureset.Set
	Parent1   int
	Parent2   int
	Relevance float64 // signed running sum of TD errors
	Count     int
}

// Score is the normalized relevance |sum| / sqrt(count) compared against the discovery threshold.
func (p *Potential) Score() float64 {
	if p.Count == 0 {
		return 0
	}
	return math.Abs(p.Relevance) / math.Sqrt(float64(p.Count))
}

// #endregion potential

// #region table
// Table stores potentials keyed by the canonical form of their base set.
type Table struct {
	entries map[featureset.Key]*Potential
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[featureset.Key]*Potential)}
}

// Observe records one co-activation of the pair (parent1, parent2) whose union is set.
// The parents are only recorded when the potential is created.
func (t *Table) Observe(set featureset.Set, parent1, parent2 int, tdError float64) *Potential {
	k := set.Key()
	p, ok := t.entries[k]
	if !ok {
		p = &Potential{
			BaseSet:   set,
			Parent1:   parent1,
			Parent2:   parent2,
			Relevance: tdError,
			Count:     1,
		}
		t.entries[k] = p
		return p
	}
	p.Relevance += tdError
	p.Count++
	return p
}

// Get returns the potential for set, if any.
func (t *Table) Get(set featureset.Set) (*Potential, bool) {
	p, ok := t.entries[set.Key()]
	return p, ok
}

// Remove drops the potential for set. Called when it is promoted.
func (t *Table) Remove(set featureset.Set) {
	delete(t.entries, set.Key())
}

// Put inserts a potential verbatim, replacing any existing entry. Used when restoring.
func (t *Table) Put(p Potential) {
	cp := p
	t.entries[p.BaseSet.Key()] = &cp
}

// Len is the number of pending potentials.
func (t *Table) Len() int {
	return len(t.entries)
}

// All returns copies of every potential ordered by set size, then lexicographically.
func (t *Table) All() []Potential {
	out := make([]Potential, 0, len(t.entries))
	for _, p := range t.entries {
		out = append(out, *p)
	}
	sort.Slice(out, func(a, b int) bool {
		sa, sb := out[a].BaseSet, out[b].BaseSet
		if sa.Len() != sb.Len() {
			return sa.Len() < sb.Len()
		}
		for i := range sa {
			if sa[i] != sb[i] {
				return sa[i] < sb[i]
			}
		}
		return false
	})
	return out
}

// #endregion table
