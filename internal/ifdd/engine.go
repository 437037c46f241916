// Package ifdd implements Incremental Feature Dependency Discovery: a linear
// representation whose basis grows by conjunctions of base features that keep
// co-occurring with large TD errors.
//
// An Engine is not safe for concurrent use. It is owned by a single learning loop
// for the duration of a run; discovery changes the feature index space, the
// length of theta and the resolution cache.
package ifdd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/danielpatrickdp/ifdd/internal/cache"
	"github.com/danielpatrickdp/ifdd/internal/gate"
	"github.com/danielpatrickdp/ifdd/internal/potential"
	"github.com/danielpatrickdp/ifdd/internal/registry"
	"github.com/danielpatrickdp/ifdd/internal/theta"
)

// #region engine
// Engine is the iFDD representation.
type Engine struct {
	cfg     Config
	initial int
	actions int
	base    BaseFeatures

	features   *registry.Registry
	potentials *potential.Table
	cache      *cache.Cache
	weights    *theta.Vector
	gate       *gate.Gate

	logger *slog.Logger
	hooks  []func(DiscoveryEvent)

	discoveries  int
	vetoes       int
	maxRelevance float64
}

// Option customizes an Engine.
type Option func(*Engine)

// WithBaseFeatures attaches the initial feature space used by Phi.
func WithBaseFeatures(b BaseFeatures) Option {
	return func(e *Engine) { e.base = b }
}

// WithLogger sets the structured logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithDiscoveryHook registers fn as if by OnDiscover.
func WithDiscoveryHook(fn func(DiscoveryEvent)) Option {
	return func(e *Engine) { e.hooks = append(e.hooks, fn) }
}

// #endregion engine

// #region constructor
// New creates an engine over initialFeatures base features and actionsNum actions.
func New(initialFeatures, actionsNum int, cfg Config, opts ...Option) (*Engine, error) {
	e, err := newEngine(initialFeatures, actionsNum, cfg, opts)
	if err != nil {
		return nil, err
	}
	if err := e.features.RegisterBase(initialFeatures); err != nil {
		return nil, fmt.Errorf("register base features: %w", err)
	}
	e.weights = theta.New(initialFeatures, actionsNum)
	e.logger.Info("ifdd representation ready",
		"initial_features", initialFeatures,
		"actions", actionsNum,
		"threshold", cfg.DiscoveryThreshold,
		"sparsify", cfg.Sparsify,
		"cache", cfg.UseCache,
		"batch_max", cfg.MaxBatchDiscovery,
		"batch_threshold", cfg.BatchThreshold,
	)
	return e, nil
}

// NewFromBase creates an engine whose initial features come from base.
func NewFromBase(base BaseFeatures, actionsNum int, cfg Config, opts ...Option) (*Engine, error) {
	opts = append(opts, WithBaseFeatures(base))
	return New(base.FeaturesNum(), actionsNum, cfg, opts...)
}

// Restore rebuilds an engine from persisted features, pending potentials and weights.
func Restore(initialFeatures, actionsNum int, cfg Config, features []registry.Feature, potentials []potential.Potential, weights []float64, opts ...Option) (*Engine, error) {
	e, err := newEngine(initialFeatures, actionsNum, cfg, opts)
	if err != nil {
		return nil, err
	}
	reg, err := registry.Restore(features, initialFeatures)
	if err != nil {
		return nil, err
	}
	e.features = reg
	e.weights, err = theta.FromValues(weights, reg.Len(), actionsNum)
	if err != nil {
		return nil, fmt.Errorf("restore theta: %w", err)
	}
	for _, p := range potentials {
		if _, ok := reg.Lookup(p.BaseSet); ok {
			return nil, fmt.Errorf("restore potential %v: already a feature: %w", p.BaseSet, registry.ErrDuplicateBaseSet)
		}
		e.potentials.Put(p)
	}
	e.discoveries = reg.Len() - initialFeatures
	return e, nil
}

func newEngine(initialFeatures, actionsNum int, cfg Config, opts []Option) (*Engine, error) {
	if initialFeatures <= 0 {
		return nil, fmt.Errorf("new engine: initial features must be positive, got %d", initialFeatures)
	}
	if actionsNum <= 0 {
		return nil, fmt.Errorf("new engine: actions must be positive, got %d", actionsNum)
	}
	e := &Engine{
		cfg:        cfg,
		initial:    initialFeatures,
		actions:    actionsNum,
		features:   registry.New(),
		potentials: potential.NewTable(),
		cache:      cache.New(),
		gate:       gate.NewGate(cfg.Capacity),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.base != nil && e.base.FeaturesNum() != initialFeatures {
		return nil, fmt.Errorf("new engine: base features %d, want %d: %w", e.base.FeaturesNum(), initialFeatures, ErrShapeMismatch)
	}
	return e, nil
}

// #endregion constructor

// #region accessors
// Config returns the discovery parameters.
func (e *Engine) Config() Config { return e.cfg }

// FeaturesNum is the current number of features, discovered ones included.
func (e *Engine) FeaturesNum() int { return e.features.Len() }

// InitialFeaturesNum is the number of base features.
func (e *Engine) InitialFeaturesNum() int { return e.initial }

// ActionsNum is the number of actions, one weight block each.
func (e *Engine) ActionsNum() int { return e.actions }

// Theta is a live, writable view of the weights, laid out action-major
// (index a*FeaturesNum()+f). Any discovery invalidates the slice.
func (e *Engine) Theta() []float64 { return e.weights.Values() }

// Weight returns theta for (feature, action).
func (e *Engine) Weight(f, a int) float64 { return e.weights.At(f, a) }

// SetTheta replaces all weights.
func (e *Engine) SetTheta(values []float64) error {
	return e.weights.Replace(values)
}

// Feature returns the feature registered under index i.
func (e *Engine) Feature(i int) (registry.Feature, bool) { return e.features.ByIndex(i) }

// Features returns every feature in index order.
func (e *Engine) Features() []registry.Feature { return e.features.Features() }

// Potentials returns the pending candidate conjunctions.
func (e *Engine) Potentials() []potential.Potential { return e.potentials.All() }

// Lineage returns the ancestors of feature i, breadth-first.
func (e *Engine) Lineage(i int) (registry.LineageResult, error) {
	return e.features.Lineage(i, 0)
}

// OnDiscover registers a callback invoked after every promotion.
func (e *Engine) OnDiscover(fn func(DiscoveryEvent)) {
	e.hooks = append(e.hooks, fn)
}

// Stats reports growth and cache counters.
func (e *Engine) Stats() Stats {
	return Stats{
		FeaturesNum:        e.features.Len(),
		InitialFeaturesNum: e.initial,
		ActionsNum:         e.actions,
		Potentials:         e.potentials.Len(),
		Discoveries:        e.discoveries,
		Vetoes:             e.vetoes,
		MaxRelevance:       e.maxRelevance,
		Cache:              e.cache.Stats(),
	}
}

// #endregion accessors
