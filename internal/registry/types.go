package registry

import (
	"errors"

	"github.com/danielpatrickdp/ifdd/internal/featureset"
)

// #region errors
var (
	// ErrDuplicateBaseSet means two features would share a base set. The basis is corrupt.
	ErrDuplicateBaseSet = errors.New("duplicate base set")
	// ErrNotEmpty is returned when base features are registered twice.
	ErrNotEmpty = errors.New("registry already populated")
	// ErrInvalidFeature is returned by Restore for tuples that break registry invariants.
	ErrInvalidFeature = errors.New("invalid feature")
)

// #endregion errors

// #region feature
// Feature is a discovered (or base) conjunction of base features.
type Feature struct {
	Index   int
	BaseSet featureset.Set
	Parent1 int // -1 for base features
	Parent2 int // -1 for base features
}

// IsBase reports whether the feature is one of the initial features.
func (f Feature) IsBase() bool {
	return f.Parent1 < 0 && f.Parent2 < 0
}

// #endregion feature

// #region lineage
// LineageResult holds the ancestors of a feature in breadth-first order.
type LineageResult struct {
	Indices []int // feature indices, starting with the queried feature
	Depths  []int // hop count from the queried feature
}

// #endregion lineage
