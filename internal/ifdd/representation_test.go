package ifdd

import (
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestStaticNeverGrows(t *testing.T) {
	base := fakeBase{n: 3, active: map[float64][]int{0: {0, 2}}}
	var rep Representation
	rep, err := NewStatic(base, 2)
	if err != nil {
		t.Fatalf("NewStatic: %v", err)
	}
	phi, err := rep.Phi([]float64{0}, false)
	if err != nil {
		t.Fatalf("Phi: %v", err)
	}
	if !reflect.DeepEqual(phi, []bool{true, false, true}) {
		t.Fatalf("unexpected phi %v", phi)
	}
	added, err := rep.DiscoverPhi(phi, 100)
	if err != nil || added != nil {
		t.Fatalf("expected no discovery, got %v %v", added, err)
	}
	grew, err := rep.BatchDiscover([]float64{100}, mat.NewDense(1, 3, []float64{1, 0, 1}))
	if err != nil || grew {
		t.Fatalf("expected no batch discovery, got %v %v", grew, err)
	}
	if rep.FeaturesNum() != 3 || len(rep.Theta()) != 6 {
		t.Fatalf("unexpected shape %d/%d", rep.FeaturesNum(), len(rep.Theta()))
	}
	sa, _ := rep.PhiSA(phi, 0)
	if !reflect.DeepEqual(sa, []bool{true, false, true, false, false, false}) {
		t.Fatalf("unexpected phi_sa %v", sa)
	}
}

func TestEngineAsRepresentation(t *testing.T) {
	base := fakeBase{n: 3, active: map[float64][]int{0: {0, 2}}}
	e, err := NewFromBase(base, 1, testConfig())
	if err != nil {
		t.Fatalf("NewFromBase: %v", err)
	}
	var rep Representation = e
	phi, _ := rep.Phi([]float64{0}, false)
	added, err := rep.DiscoverPhi(phi, 2)
	if err != nil {
		t.Fatalf("DiscoverPhi: %v", err)
	}
	expectInts(t, "added", added, []int{3})
	if rep.FeaturesNum() != 4 {
		t.Fatalf("expected growth, got %d", rep.FeaturesNum())
	}
}
