// Package audit checks a representation against the structural invariants of its
// feature bag, potentials and weights.
package audit

import (
	"fmt"

	"github.com/danielpatrickdp/ifdd/internal/featureset"
	"github.com/danielpatrickdp/ifdd/internal/ifdd"
)

// #region harness
// Harness runs invariant checks on a representation.
type Harness struct {
	config AuditConfig
}

// NewHarness creates an audit harness with the given configuration.
func NewHarness(config AuditConfig) *Harness {
	return &Harness{config: config}
}

// FromEngine captures the audited state of e.
func FromEngine(e *ifdd.Engine) Subject {
	return Subject{
		InitialNum: e.InitialFeaturesNum(),
		ActionsNum: e.ActionsNum(),
		Features:   e.Features(),
		Potentials: e.Potentials(),
		ThetaLen:   len(e.Theta()),
	}
}

// Run checks every invariant and returns pass/fail with metrics.
func (h *Harness) Run(s Subject) Result {
	var metrics []Metric
	var failReasons []string

	check := func(name string, violations int, detail string) {
		pass := violations == 0
		metrics = append(metrics, Metric{Name: name, Value: float64(violations), Pass: pass})
		if !pass {
			failReasons = append(failReasons, fmt.Sprintf("%s: %s", name, detail))
		}
	}

	// 1. Theta length
	want := len(s.Features) * s.ActionsNum
	pass := s.ThetaLen == want
	metrics = append(metrics, Metric{Name: "theta_length", Value: float64(s.ThetaLen), Pass: pass})
	if !pass {
		failReasons = append(failReasons, fmt.Sprintf("theta_length: %d entries, want %d", s.ThetaLen, want))
	}

	// 2. Dense indices
	bad, first := 0, ""
	for i, f := range s.Features {
		if f.Index != i {
			bad++
			if first == "" {
				first = fmt.Sprintf("position %d holds index %d", i, f.Index)
			}
		}
	}
	check("dense_indices", bad, first)

	// 3. Base features are the singletons in order
	bad, first = 0, ""
	if len(s.Features) < s.InitialNum {
		bad++
		first = fmt.Sprintf("%d features for %d base features", len(s.Features), s.InitialNum)
	}
	for i := 0; i < s.InitialNum && i < len(s.Features); i++ {
		f := s.Features[i]
		if !f.IsBase() || !f.BaseSet.Equal(featureset.New(i)) {
			bad++
			if first == "" {
				first = fmt.Sprintf("feature %d is %s", i, f.BaseSet)
			}
		}
	}
	check("base_features", bad, first)

	// 4. Unique base sets
	bad, first = 0, ""
	seen := make(map[featureset.Key]int, len(s.Features))
	for _, f := range s.Features {
		k := f.BaseSet.Key()
		if prev, ok := seen[k]; ok {
			bad++
			if first == "" {
				first = fmt.Sprintf("features %d and %d share %s", prev, f.Index, f.BaseSet)
			}
			continue
		}
		seen[k] = f.Index
	}
	check("unique_base_sets", bad, first)

	// 5. Parent links
	bad, first = 0, ""
	for i := s.InitialNum; i < len(s.Features); i++ {
		f := s.Features[i]
		if msg := h.parentViolation(s, i); msg != "" {
			bad++
			if first == "" {
				first = fmt.Sprintf("feature %d: %s", f.Index, msg)
			}
		}
	}
	check("parent_links", bad, first)

	// 6. Potentials are never features
	bad, first = 0, ""
	for _, p := range s.Potentials {
		if idx, ok := seen[p.BaseSet.Key()]; ok {
			bad++
			if first == "" {
				first = fmt.Sprintf("potential %s is feature %d", p.BaseSet, idx)
			}
		}
	}
	check("pending_potentials", bad, first)

	// 7. Growth: informational only
	growth := 0.0
	if s.InitialNum > 0 {
		growth = float64(len(s.Features)) / float64(s.InitialNum)
	}
	metrics = append(metrics, Metric{
		Name:  "growth",
		Value: growth,
		Pass:  h.config.MaxGrowth <= 0 || growth <= h.config.MaxGrowth,
	})

	reason := "all checks passed"
	if len(failReasons) == 1 {
		reason = fmt.Sprintf("audit failed: %s", failReasons[0])
	} else if len(failReasons) > 1 {
		reason = fmt.Sprintf("audit failed: %d checks: %s", len(failReasons), failReasons[0])
	}
	return Result{
		Passed:  len(failReasons) == 0,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion harness

// #region helpers
func (h *Harness) parentViolation(s Subject, i int) string {
	f := s.Features[i]
	if f.Parent1 < 0 || f.Parent2 < 0 || f.Parent1 >= i || f.Parent2 >= i {
		return fmt.Sprintf("parents (%d, %d) must precede it", f.Parent1, f.Parent2)
	}
	union := featureset.Union(s.Features[f.Parent1].BaseSet, s.Features[f.Parent2].BaseSet)
	if !union.Equal(f.BaseSet) {
		return fmt.Sprintf("parents cover %s, not %s", union, f.BaseSet)
	}
	return ""
}

// #endregion helpers
