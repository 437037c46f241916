package ifdd

import (
	"errors"

	"github.com/danielpatrickdp/ifdd/internal/cache"
	"github.com/danielpatrickdp/ifdd/internal/gate"
	"github.com/danielpatrickdp/ifdd/internal/registry"
)

// #region errors
var (
	// ErrShapeMismatch is returned for activation vectors or matrices sized for a different basis.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrIndexOutOfRange is returned for feature or action indices outside the representation.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrNoBaseFeatures is returned by Phi when no initial feature space was configured.
	ErrNoBaseFeatures = errors.New("no base features configured")
)

// #endregion errors

// #region base-features
// BaseFeatures is the initial feature space: it maps a state to the indices of its active bins.
type BaseFeatures interface {
	FeaturesNum() int
	ActiveFeatures(state []float64) ([]int, error)
}

// #endregion base-features

// #region config
// Config holds discovery parameters.
type Config struct {
	DiscoveryThreshold float64 // online promotion when |relevance|/sqrt(count) exceeds this
	Sparsify           bool    // greedy disjoint activation, new weights = sum of parents
	UseCache           bool    // memoize resolutions until the next discovery
	MaxBatchDiscovery  int     // features admitted per BatchDiscover round
	BatchThreshold     float64 // minimum normalized batch relevance
	Capacity           gate.GateConfig
}

// DefaultConfig returns the settings used by the reference experiments.
func DefaultConfig() Config {
	return Config{
		DiscoveryThreshold: 1.0,
		Sparsify:           true,
		UseCache:           true,
		MaxBatchDiscovery:  1,
		BatchThreshold:     0,
		Capacity:           gate.DefaultGateConfig(),
	}
}

// #endregion config

// #region discovery-event
// Discovery modes reported in events.
const (
	ModeOnline = "online"
	ModeBatch  = "batch"
)

// DiscoveryEvent describes one promoted feature.
type DiscoveryEvent struct {
	Feature     registry.Feature
	Relevance   float64 // normalized relevance at promotion time
	Count       int     // co-activations behind the relevance
	Mode        string  // ModeOnline | ModeBatch
	FeaturesNum int     // features_num after the promotion
}

// #endregion discovery-event

// #region stats
// Stats summarizes representation growth.
type Stats struct {
	FeaturesNum        int
	InitialFeaturesNum int
	ActionsNum         int
	Potentials         int
	Discoveries        int
	Vetoes             int     // promotions refused by the capacity gate
	MaxRelevance       float64 // largest unpromoted relevance since the last discovery
	Cache              cache.Stats
}

// #endregion stats
