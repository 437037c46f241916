package gate

import "testing"

func TestGateAdmitsWhenUnbounded(t *testing.T) {
	g := NewGate(DefaultGateConfig())

	decision := g.Evaluate(1_000_000, 16)

	if decision.Action != "admit" {
		t.Fatalf("expected admit, got %s: %s", decision.Action, decision.Reason)
	}
	if decision.Vetoed {
		t.Fatal("should not be vetoed")
	}
}

func TestGateRejectsAtFeatureCap(t *testing.T) {
	g := NewGate(GateConfig{MaxFeatures: 42})

	if d := g.Evaluate(41, 4); d.Action != "admit" {
		t.Fatalf("expected admit for the 42nd feature, got %s", d.Reason)
	}

	decision := g.Evaluate(42, 4)
	if decision.Action != "reject" {
		t.Fatalf("expected reject, got %s", decision.Action)
	}
	if !decision.Vetoed {
		t.Fatal("should be vetoed")
	}
	if decision.VetoSignals[0].Type != VetoFeatureCap {
		t.Fatalf("expected VetoFeatureCap, got %s", decision.VetoSignals[0].Type)
	}
}

func TestGateRejectsOverThetaBudget(t *testing.T) {
	// 10 features x 2 actions x 8 bytes = 160 bytes
	g := NewGate(GateConfig{ThetaBudget: 160})

	if d := g.Evaluate(9, 2); d.Vetoed {
		t.Fatalf("10 features fit exactly, got %s", d.Reason)
	}

	decision := g.Evaluate(10, 2)
	if !decision.Vetoed {
		t.Fatal("11 features must not fit")
	}
	if decision.VetoSignals[0].Type != VetoThetaBudget {
		t.Fatalf("expected VetoThetaBudget, got %s", decision.VetoSignals[0].Type)
	}
}

func TestGateReportsAllVetoes(t *testing.T) {
	g := NewGate(GateConfig{MaxFeatures: 5, ThetaBudget: 8})

	decision := g.Evaluate(5, 1)
	if len(decision.VetoSignals) != 2 {
		t.Fatalf("expected 2 veto signals, got %d", len(decision.VetoSignals))
	}
}
