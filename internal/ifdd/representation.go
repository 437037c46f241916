package ifdd

import (
	"fmt"

	"github.com/danielpatrickdp/ifdd/internal/theta"
	"gonum.org/v1/gonum/mat"
)

// #region representation
// Representation is the surface a learning agent drives. Representations that do not
// grow their basis implement the discovery methods as no-ops reporting nothing added.
type Representation interface {
	FeaturesNum() int
	ActionsNum() int
	Theta() []float64
	Phi(state []float64, terminal bool) ([]bool, error)
	PhiSA(phiS []bool, a int) ([]bool, error)
	DiscoverPhi(phiS []bool, tdError float64) ([]int, error)
	BatchDiscover(tdErrors []float64, phi mat.Matrix) (bool, error)
}

var (
	_ Representation = (*Engine)(nil)
	_ Representation = (*Static)(nil)
)

// #endregion representation

// #region static
// Static is a fixed linear representation over the base features alone.
type Static struct {
	base    BaseFeatures
	actions int
	weights *theta.Vector
}

// NewStatic returns a representation whose basis never changes.
func NewStatic(base BaseFeatures, actionsNum int) (*Static, error) {
	if actionsNum <= 0 {
		return nil, fmt.Errorf("new static: actions must be positive, got %d", actionsNum)
	}
	return &Static{
		base:    base,
		actions: actionsNum,
		weights: theta.New(base.FeaturesNum(), actionsNum),
	}, nil
}

// FeaturesNum is the number of base features.
func (s *Static) FeaturesNum() int { return s.base.FeaturesNum() }

// ActionsNum is the number of actions.
func (s *Static) ActionsNum() int { return s.actions }

// Theta is a live view of the weights.
func (s *Static) Theta() []float64 { return s.weights.Values() }

// Phi activates the base features of state.
func (s *Static) Phi(state []float64, terminal bool) ([]bool, error) {
	phi := make([]bool, s.FeaturesNum())
	if terminal {
		return phi, nil
	}
	active, err := s.base.ActiveFeatures(state)
	if err != nil {
		return nil, fmt.Errorf("base features: %w", err)
	}
	for _, i := range active {
		if i < 0 || i >= len(phi) {
			return nil, fmt.Errorf("base feature %d of %d: %w", i, len(phi), ErrIndexOutOfRange)
		}
		phi[i] = true
	}
	return phi, nil
}

// PhiSA places phiS in the block of action a.
func (s *Static) PhiSA(phiS []bool, a int) ([]bool, error) {
	return phiSA(phiS, a, s.FeaturesNum(), s.actions)
}

// DiscoverPhi never adds features.
func (s *Static) DiscoverPhi(phiS []bool, _ float64) ([]int, error) {
	if len(phiS) != s.FeaturesNum() {
		return nil, fmt.Errorf("discover: phi has %d entries, want %d: %w", len(phiS), s.FeaturesNum(), ErrShapeMismatch)
	}
	return nil, nil
}

// BatchDiscover never adds features.
func (s *Static) BatchDiscover(tdErrors []float64, phi mat.Matrix) (bool, error) {
	rows, cols := phi.Dims()
	if rows != len(tdErrors) || cols != s.FeaturesNum() {
		return false, fmt.Errorf("batch discover: %dx%d for %d samples, %d features: %w", rows, cols, len(tdErrors), s.FeaturesNum(), ErrShapeMismatch)
	}
	return false, nil
}

// #endregion static
