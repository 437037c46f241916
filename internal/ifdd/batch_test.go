package ifdd

import (
	"errors"
	"testing"

	"github.com/danielpatrickdp/ifdd/internal/gate"
	"gonum.org/v1/gonum/mat"
)

func batchEngine(t *testing.T, max int, threshold float64) *Engine {
	t.Helper()
	cfg := testConfig()
	cfg.MaxBatchDiscovery = max
	cfg.BatchThreshold = threshold
	return mustEngine(t, 4, 1, cfg)
}

func mustPhiMatrix(t *testing.T, e *Engine, sets ...[]int) *mat.Dense {
	t.Helper()
	m, err := e.PhiMatrix(sets)
	if err != nil {
		t.Fatalf("PhiMatrix: %v", err)
	}
	return m
}

func TestBatchDiscoverTopPair(t *testing.T) {
	e := batchEngine(t, 1, 0)
	phi := mustPhiMatrix(t, e, []int{0, 1}, []int{0, 1}, []int{2, 3})
	added, err := e.BatchDiscover([]float64{3, 3, 1}, phi)
	if err != nil {
		t.Fatalf("BatchDiscover: %v", err)
	}
	if !added || e.FeaturesNum() != 5 {
		t.Fatalf("expected one feature added, got %v with %d features", added, e.FeaturesNum())
	}
	f, _ := e.Feature(4)
	if !f.BaseSet.Equal([]int{0, 1}) || f.Parent1 != 0 || f.Parent2 != 1 {
		t.Fatalf("unexpected feature %+v", f)
	}
}

func TestBatchDiscoverRespectsMaxAndThreshold(t *testing.T) {
	e := batchEngine(t, 2, 0)
	var events []DiscoveryEvent
	e.OnDiscover(func(ev DiscoveryEvent) { events = append(events, ev) })
	phi := mustPhiMatrix(t, e, []int{0, 1}, []int{0, 1}, []int{2, 3})
	if added, _ := e.BatchDiscover([]float64{3, 3, 1}, phi); !added {
		t.Fatal("expected features added")
	}
	if e.FeaturesNum() != 6 || len(events) != 2 {
		t.Fatalf("expected 2 features, got %d", e.FeaturesNum()-4)
	}
	if events[0].Mode != ModeBatch || events[0].Count != 2 || events[1].Relevance != 1 {
		t.Fatalf("unexpected events %+v", events)
	}

	e = batchEngine(t, 2, 2)
	phi = mustPhiMatrix(t, e, []int{0, 1}, []int{0, 1}, []int{2, 3})
	e.BatchDiscover([]float64{3, 3, 1}, phi)
	if e.FeaturesNum() != 5 {
		t.Fatalf("expected threshold to admit only one pair, got %d features", e.FeaturesNum())
	}
}

func TestBatchDiscoverSignedSum(t *testing.T) {
	e := batchEngine(t, 1, 0)
	phi := mustPhiMatrix(t, e, []int{0, 1}, []int{0, 1})
	added, err := e.BatchDiscover([]float64{1, -1}, phi)
	if err != nil {
		t.Fatalf("BatchDiscover: %v", err)
	}
	if added || e.FeaturesNum() != 4 {
		t.Fatalf("expected cancelling errors to add nothing, got %v", added)
	}
}

func TestBatchDiscoverSkipsExistingConjunctions(t *testing.T) {
	e := batchEngine(t, 3, 0)
	e.BatchDiscover([]float64{5}, mustPhiMatrix(t, e, []int{0, 1}))
	if e.FeaturesNum() != 5 {
		t.Fatalf("expected 5 features, got %d", e.FeaturesNum())
	}
	added, _ := e.BatchDiscover([]float64{5}, mustPhiMatrix(t, e, []int{0, 1, 4}))
	if added || e.FeaturesNum() != 5 {
		t.Fatalf("expected nothing new, got %v with %d features", added, e.FeaturesNum())
	}
}

func TestBatchDiscoverStopsOnVeto(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBatchDiscovery = 3
	cfg.Capacity = gate.GateConfig{MaxFeatures: 5}
	e := mustEngine(t, 4, 1, cfg)
	phi := mustPhiMatrix(t, e, []int{0, 1}, []int{2, 3})
	added, err := e.BatchDiscover([]float64{4, 2}, phi)
	if err != nil {
		t.Fatalf("BatchDiscover: %v", err)
	}
	if !added || e.FeaturesNum() != 5 || e.Stats().Vetoes != 1 {
		t.Fatalf("expected one feature then a veto, got %d features %+v", e.FeaturesNum(), e.Stats())
	}
}

func TestBatchDiscoverShapes(t *testing.T) {
	e := batchEngine(t, 1, 0)
	phi := mustPhiMatrix(t, e, []int{0, 1})
	if _, err := e.BatchDiscover([]float64{1, 2}, phi); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
	if _, err := e.BatchDiscover([]float64{1}, mat.NewDense(1, 3, nil)); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
	if _, err := e.PhiMatrix(nil); err == nil {
		t.Fatal("expected error for empty batch")
	}
	if _, err := e.PhiMatrix([][]int{{7}}); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}
