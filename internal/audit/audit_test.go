package audit

import (
	"strings"
	"testing"

	"github.com/danielpatrickdp/ifdd/internal/featureset"
	"github.com/danielpatrickdp/ifdd/internal/ifdd"
	"github.com/danielpatrickdp/ifdd/internal/potential"
	"github.com/danielpatrickdp/ifdd/internal/registry"
)

func grown(t *testing.T) Subject {
	t.Helper()
	e, err := ifdd.New(5, 2, ifdd.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.Discover([]int{0, 1}, 2)
	e.Discover([]int{5, 2}, 2)
	e.Discover([]int{3, 4}, 0.5)
	return FromEngine(e)
}

func metric(t *testing.T, r Result, name string) Metric {
	t.Helper()
	for _, m := range r.Metrics {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("metric %s missing", name)
	return Metric{}
}

func TestAuditPassesOnEngine(t *testing.T) {
	h := NewHarness(DefaultAuditConfig())
	result := h.Run(grown(t))
	if !result.Passed {
		t.Fatalf("expected pass, got fail: %s", result.Reason)
	}
	if len(result.Metrics) != 7 {
		t.Fatalf("expected 7 metrics, got %d", len(result.Metrics))
	}
	if m := metric(t, result, "theta_length"); m.Value != 14 {
		t.Fatalf("expected theta length 14, got %v", m.Value)
	}
}

func TestAuditFailsOnThetaLength(t *testing.T) {
	s := grown(t)
	s.ThetaLen--
	result := NewHarness(DefaultAuditConfig()).Run(s)
	if result.Passed || metric(t, result, "theta_length").Pass {
		t.Fatal("expected theta_length failure")
	}
	if !strings.Contains(result.Reason, "theta_length") {
		t.Fatalf("unexpected reason %q", result.Reason)
	}
}

func TestAuditFailsOnDuplicateBaseSet(t *testing.T) {
	s := grown(t)
	s.Features = append(s.Features, registry.Feature{
		Index: len(s.Features), BaseSet: featureset.New(0, 1), Parent1: 0, Parent2: 1,
	})
	s.ThetaLen += s.ActionsNum
	result := NewHarness(DefaultAuditConfig()).Run(s)
	if metric(t, result, "unique_base_sets").Value != 1 {
		t.Fatalf("expected one duplicate, got %+v", result.Metrics)
	}
	if result.Passed {
		t.Fatal("expected failure")
	}
}

func TestAuditFailsOnBrokenParents(t *testing.T) {
	s := grown(t)
	s.Features[6].Parent1 = 3
	result := NewHarness(DefaultAuditConfig()).Run(s)
	m := metric(t, result, "parent_links")
	if m.Pass || m.Value != 1 {
		t.Fatalf("expected one parent violation, got %+v", m)
	}
}

func TestAuditFailsOnBaseAndIndexCorruption(t *testing.T) {
	s := grown(t)
	s.Features[2].BaseSet = featureset.New(7)
	s.Features[4].Index = 9
	result := NewHarness(DefaultAuditConfig()).Run(s)
	if metric(t, result, "base_features").Pass || metric(t, result, "dense_indices").Pass {
		t.Fatalf("expected base and index failures, got %+v", result.Metrics)
	}
	if !strings.Contains(result.Reason, "checks") {
		t.Fatalf("expected multi-check reason, got %q", result.Reason)
	}
}

func TestAuditFailsOnPromotedPotential(t *testing.T) {
	s := grown(t)
	s.Potentials = append(s.Potentials, potential.Potential{BaseSet: featureset.New(0, 1), Count: 1})
	result := NewHarness(DefaultAuditConfig()).Run(s)
	if metric(t, result, "pending_potentials").Pass {
		t.Fatal("expected pending_potentials failure")
	}
}

func TestAuditGrowthIsInformational(t *testing.T) {
	h := NewHarness(AuditConfig{MaxGrowth: 1.1})
	result := h.Run(grown(t))
	if !result.Passed {
		t.Fatalf("growth must not fail the audit: %s", result.Reason)
	}
	if metric(t, result, "growth").Pass {
		t.Fatal("expected growth warning")
	}
}
