package discretize

import (
	"errors"
	"testing"
)

func pendulum(t *testing.T) *Independent {
	t.Helper()
	d, err := NewIndependent([][2]float64{{-1, 1}, {0, 10}}, []int{20, 21})
	if err != nil {
		t.Fatalf("NewIndependent: %v", err)
	}
	return d
}

func TestFeaturesNum(t *testing.T) {
	d := pendulum(t)
	if d.FeaturesNum() != 41 {
		t.Fatalf("expected 41 features, got %d", d.FeaturesNum())
	}
	if d.Dims() != 2 {
		t.Fatalf("expected 2 dims, got %d", d.Dims())
	}
}

func TestActiveFeatures(t *testing.T) {
	d := pendulum(t)

	active, err := d.ActiveFeatures([]float64{-1, 0})
	if err != nil {
		t.Fatalf("ActiveFeatures: %v", err)
	}
	if active[0] != 0 || active[1] != 20 {
		t.Fatalf("expected [0 20], got %v", active)
	}

	// upper limits fall in the last bins
	active, _ = d.ActiveFeatures([]float64{1, 10})
	if active[0] != 19 || active[1] != 40 {
		t.Fatalf("expected [19 40], got %v", active)
	}

	active, _ = d.ActiveFeatures([]float64{0.05, 5})
	if active[0] != 10 || active[1] != 30 {
		t.Fatalf("expected [10 30], got %v", active)
	}
}

func TestOutOfBounds(t *testing.T) {
	d := pendulum(t)
	if _, err := d.ActiveFeatures([]float64{1.5, 0}); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	if _, err := d.ActiveFeatures([]float64{0}); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestLocate(t *testing.T) {
	d := pendulum(t)
	dim, bin, err := d.Locate(25)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if dim != 1 || bin != 5 {
		t.Fatalf("expected dim 1 bin 5, got %d %d", dim, bin)
	}
	if dim, bin, _ = d.Locate(19); dim != 0 || bin != 19 {
		t.Fatalf("expected dim 0 bin 19, got %d %d", dim, bin)
	}
	if _, _, err := d.Locate(41); err == nil {
		t.Fatal("expected error past the last feature")
	}
}

func TestNewIndependentValidation(t *testing.T) {
	if _, err := NewIndependent(nil, nil); err == nil {
		t.Fatal("expected error for no dimensions")
	}
	if _, err := NewIndependent([][2]float64{{0, 1}}, []int{0}); err == nil {
		t.Fatal("expected error for zero bins")
	}
	if _, err := NewIndependent([][2]float64{{1, 1}}, []int{3}); err == nil {
		t.Fatal("expected error for empty range")
	}
}
