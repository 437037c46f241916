// Package featureset encodes conjunctions of base-feature indices as canonical sorted sets.
package featureset

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
)

// #region types
// Set is a sorted, duplicate-free list of base-feature indices.
// Sets are treated as immutable once built.
type Set []int

// Key is the canonical hashable form of a Set. Equal sets have equal keys.
type Key string

// #endregion types

// #region constructors
// New builds a Set from arbitrary indices, sorting and removing duplicates.
func New(idx ...int) Set {
	if len(idx) == 0 {
		return Set{}
	}
	s := make(Set, len(idx))
	copy(s, idx)
	sort.Ints(s)
	out := s[:1]
	for _, v := range s[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// FromKey decodes a Key produced by Set.Key.
func FromKey(k Key) Set {
	b := []byte(k)
	s := Set{}
	for len(b) > 0 {
		v, n := binary.Uvarint(b)
		if n <= 0 {
			break
		}
		s = append(s, int(v))
		b = b[n:]
	}
	return s
}

// #endregion constructors

// #region methods
// Key returns the uvarint encoding of the set.
func (s Set) Key() Key {
	buf := make([]byte, 0, len(s)*2)
	for _, v := range s {
		buf = binary.AppendUvarint(buf, uint64(v))
	}
	return Key(buf)
}

// Len returns the number of base indices in the set.
func (s Set) Len() int { return len(s) }

// Contains reports whether v is in the set.
func (s Set) Contains(v int) bool {
	i := sort.SearchInts(s, v)
	return i < len(s) && s[i] == v
}

// Equal reports whether two sets hold the same indices.
func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// String renders the set as "[a b c]".
func (s Set) String() string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// #endregion methods

// #region algebra
// Union merges two sorted sets.
func Union(a, b Set) Set {
	out := make(Set, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// Minus returns the elements of a that are not in b.
func Minus(a, b Set) Set {
	out := make(Set, 0, len(a))
	j := 0
	for _, v := range a {
		for j < len(b) && b[j] < v {
			j++
		}
		if j < len(b) && b[j] == v {
			continue
		}
		out = append(out, v)
	}
	return out
}

// IsSubset reports whether every element of sub is in of.
func IsSubset(sub, of Set) bool {
	if len(sub) > len(of) {
		return false
	}
	j := 0
	for _, v := range sub {
		for j < len(of) && of[j] < v {
			j++
		}
		if j == len(of) || of[j] != v {
			return false
		}
		j++
	}
	return true
}

// Combinations calls fn with every k-element subset of s in lexicographic order.
// Enumeration stops early when fn returns false. The subset passed to fn is reused
// between calls; copy it to retain it.
func Combinations(s Set, k int, fn func(Set) bool) {
	n := len(s)
	if k <= 0 || k > n {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	sub := make(Set, k)
	for {
		for i, p := range idx {
			sub[i] = s[p]
		}
		if !fn(sub) {
			return
		}
		// advance to the next combination
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// #endregion algebra
