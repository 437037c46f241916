package store

import (
	"encoding/json"
	"fmt"

	"github.com/danielpatrickdp/ifdd/internal/ifdd"
)

// #region from-engine
// FromEngine captures the current state of e. The theta slice is copied so the
// engine may keep learning.
func FromEngine(e *ifdd.Engine, parentID, runID string) (Snapshot, error) {
	cfgJSON, err := json.Marshal(e.Config())
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshal config: %w", err)
	}
	theta := make([]float64, len(e.Theta()))
	copy(theta, e.Theta())
	features := e.Features()
	return Snapshot{
		ParentID:    parentID,
		RunID:       runID,
		InitialNum:  e.InitialFeaturesNum(),
		ActionsNum:  e.ActionsNum(),
		FeaturesNum: len(features),
		Features:    features,
		Potentials:  e.Potentials(),
		Theta:       theta,
		ConfigJSON:  string(cfgJSON),
	}, nil
}

// #endregion from-engine

// #region restore
// Config decodes the discovery parameters the snapshot was taken with.
func (s Snapshot) Config() (ifdd.Config, error) {
	cfg := ifdd.DefaultConfig()
	if s.ConfigJSON == "" {
		return cfg, nil
	}
	if err := json.Unmarshal([]byte(s.ConfigJSON), &cfg); err != nil {
		return ifdd.Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Restore rebuilds an engine from the snapshot under cfg.
func (s Snapshot) Restore(cfg ifdd.Config, opts ...ifdd.Option) (*ifdd.Engine, error) {
	e, err := ifdd.Restore(s.InitialNum, s.ActionsNum, cfg, s.Features, s.Potentials, s.Theta, opts...)
	if err != nil {
		return nil, fmt.Errorf("restore snapshot %s: %w", s.VersionID, err)
	}
	return e, nil
}

// #endregion restore
