package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/ifdd/internal/gate"
	"github.com/danielpatrickdp/ifdd/internal/ifdd"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: a recorded trace of
// active base features and TD errors plus the representation it must produce.
type Fixture struct {
	Description     string          `json:"description"`
	InitialFeatures int             `json:"initial_features"`
	ActionsNum      int             `json:"actions_num"`
	Config          FixtureConfig   `json:"config"`
	Steps           []FixtureStep   `json:"steps"`
	Batches         []FixtureBatch  `json:"batches"`
	Expected        FixtureExpected `json:"expected"`
}

// FixtureConfig mirrors ifdd.Config with JSON tags.
type FixtureConfig struct {
	DiscoveryThreshold float64 `json:"discovery_threshold"`
	Sparsify           bool    `json:"sparsify"`
	UseCache           bool    `json:"use_cache"`
	MaxBatchDiscovery  int     `json:"max_batch_discovery"`
	BatchThreshold     float64 `json:"batch_threshold"`
	MaxFeatures        int     `json:"max_features"`
}

// FixtureStep is one online observation.
type FixtureStep struct {
	ActiveBase  []int   `json:"active_base"`
	Terminal    bool    `json:"terminal"`
	TDError     float64 `json:"td_error"`
	ExpectAdded []int   `json:"expect_added,omitempty"`
}

// FixtureBatch is one batch discovery round, run after all steps.
type FixtureBatch struct {
	Samples []FixtureSample `json:"samples"`
}

// FixtureSample is one sample of a batch.
type FixtureSample struct {
	ActiveBase []int   `json:"active_base"`
	TDError    float64 `json:"td_error"`
}

// FixtureExpected captures the representation after the whole trace.
type FixtureExpected struct {
	FeaturesNum int                 `json:"features_num"`
	Potentials  *int                `json:"potentials,omitempty"`
	Resolutions []FixtureResolution `json:"resolutions"`
}

// FixtureResolution is an expected ActiveFeatures result.
type FixtureResolution struct {
	ActiveBase []int `json:"active_base"`
	Active     []int `json:"active"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToConfig converts a FixtureConfig to engine parameters.
func (fc *FixtureConfig) ToConfig() ifdd.Config {
	return ifdd.Config{
		DiscoveryThreshold: fc.DiscoveryThreshold,
		Sparsify:           fc.Sparsify,
		UseCache:           fc.UseCache,
		MaxBatchDiscovery:  fc.MaxBatchDiscovery,
		BatchThreshold:     fc.BatchThreshold,
		Capacity:           gate.GateConfig{MaxFeatures: fc.MaxFeatures},
	}
}

// ToStep converts a FixtureStep to a domain Step.
func (fs *FixtureStep) ToStep() Step {
	return Step{
		ActiveBase: fs.ActiveBase,
		Terminal:   fs.Terminal,
		TDError:    fs.TDError,
	}
}

// ToSamples converts a FixtureBatch to domain Samples.
func (fb *FixtureBatch) ToSamples() []Sample {
	out := make([]Sample, len(fb.Samples))
	for i, s := range fb.Samples {
		out[i] = Sample{ActiveBase: s.ActiveBase, TDError: s.TDError}
	}
	return out
}

// #endregion fixture-loader
