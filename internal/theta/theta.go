// Package theta manages the flat (feature, action) weight vector of a linear representation.
package theta

import (
	"errors"
	"fmt"
)

// #region errors
// ErrLengthMismatch means the vector length no longer equals features*actions.
var ErrLengthMismatch = errors.New("theta length mismatch")

// #endregion errors

// #region vector
// Vector stores weights action-major: entry (f, a) lives at a*features + f.
// The backing buffer grows by doubling; only the first features*actions entries are live.
type Vector struct {
	buf      []float64
	features int
	actions  int
}

// New returns a zero vector for the given shape.
func New(features, actions int) *Vector {
	return &Vector{
		buf:      make([]float64, features*actions),
		features: features,
		actions:  actions,
	}
}

// FromValues wraps a copy of values, which must have length features*actions.
func FromValues(values []float64, features, actions int) (*Vector, error) {
	if len(values) != features*actions {
		return nil, fmt.Errorf("from values: %d entries for %dx%d: %w", len(values), features, actions, ErrLengthMismatch)
	}
	v := New(features, actions)
	copy(v.buf, values)
	return v, nil
}

// #endregion vector

// #region accessors
// Len is the logical length, always features*actions.
func (v *Vector) Len() int {
	return v.features * v.actions
}

// Cap is the physical capacity of the backing buffer.
func (v *Vector) Cap() int {
	return cap(v.buf)
}

// Features is the number of feature rows.
func (v *Vector) Features() int {
	return v.features
}

// Actions is the number of action blocks.
func (v *Vector) Actions() int {
	return v.actions
}

// Values is a live, writable view of the weights. It is invalidated by Expand.
func (v *Vector) Values() []float64 {
	return v.buf[:v.Len()]
}

// At returns the weight of feature f under action a.
func (v *Vector) At(f, a int) float64 {
	return v.buf[a*v.features+f]
}

// Set assigns the weight of feature f under action a.
func (v *Vector) Set(f, a int, w float64) {
	v.buf[a*v.features+f] = w
}

// Row returns the weights of feature f, one per action.
func (v *Vector) Row(f int) []float64 {
	row := make([]float64, v.actions)
	for a := range row {
		row[a] = v.At(f, a)
	}
	return row
}

// Replace overwrites every weight with values.
func (v *Vector) Replace(values []float64) error {
	if len(values) != v.Len() {
		return fmt.Errorf("replace: %d entries, want %d: %w", len(values), v.Len(), ErrLengthMismatch)
	}
	copy(v.buf, values)
	return nil
}

// #endregion accessors

// #region expand
// Expand appends one feature row. With sparsify the new row is the sum of the two
// parent rows, otherwise it is zero.
func (v *Vector) Expand(parent1, parent2 int, sparsify bool) error {
	n := v.features
	newRow := make([]float64, v.actions)
	if sparsify {
		if parent1 < 0 || parent1 >= n || parent2 < 0 || parent2 >= n {
			return fmt.Errorf("expand: parents %d,%d outside %d features", parent1, parent2, n)
		}
		for a := range newRow {
			newRow[a] = v.At(parent1, a) + v.At(parent2, a)
		}
	}

	oldLen := n * v.actions
	newLen := (n + 1) * v.actions
	if newLen > cap(v.buf) {
		grown := make([]float64, newLen, max(2*cap(v.buf), newLen))
		for a := 0; a < v.actions; a++ {
			copy(grown[a*(n+1):a*(n+1)+n], v.buf[a*n:(a+1)*n])
		}
		v.buf = grown
	} else {
		v.buf = v.buf[:newLen]
		// shift blocks right, last action first, so nothing is overwritten before it moves
		for a := v.actions - 1; a > 0; a-- {
			copy(v.buf[a*(n+1):a*(n+1)+n], v.buf[a*n:(a+1)*n])
		}
	}
	for a := 0; a < v.actions; a++ {
		v.buf[a*(n+1)+n] = newRow[a]
	}
	v.features = n + 1

	if len(v.buf) != v.features*v.actions || len(v.buf) != oldLen+v.actions {
		return fmt.Errorf("expand: length %d for %dx%d: %w", len(v.buf), v.features, v.actions, ErrLengthMismatch)
	}
	return nil
}

// #endregion expand
