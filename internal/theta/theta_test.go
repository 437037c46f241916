package theta

import (
	"errors"
	"testing"
)

func seeded(t *testing.T, features, actions int) *Vector {
	t.Helper()
	vals := make([]float64, features*actions)
	for i := range vals {
		vals[i] = float64(i) * 10
	}
	v, err := FromValues(vals, features, actions)
	if err != nil {
		t.Fatalf("FromValues: %v", err)
	}
	return v
}

func TestExpandZeroInsertsAtStride(t *testing.T) {
	// x = [1,2,3,4], a = 2 => [1,2,0,3,4,0]
	v, _ := FromValues([]float64{1, 2, 3, 4}, 2, 2)
	if err := v.Expand(0, 1, false); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	want := []float64{1, 2, 0, 3, 4, 0}
	got := v.Values()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestExpandSparsifySumsParents(t *testing.T) {
	v := seeded(t, 4, 3)
	before := make([][]float64, 4)
	for f := range before {
		before[f] = v.Row(f)
	}

	if err := v.Expand(1, 3, true); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if v.Features() != 5 || v.Len() != 15 {
		t.Fatalf("expected 5x3, got %dx%d (len %d)", v.Features(), v.Actions(), v.Len())
	}
	for a := 0; a < 3; a++ {
		want := before[1][a] + before[3][a]
		if v.At(4, a) != want {
			t.Fatalf("action %d: expected %f, got %f", a, want, v.At(4, a))
		}
	}
	// existing pairs keep their values
	for f := 0; f < 4; f++ {
		for a := 0; a < 3; a++ {
			if v.At(f, a) != before[f][a] {
				t.Fatalf("(%d,%d) changed: %f != %f", f, a, v.At(f, a), before[f][a])
			}
		}
	}
}

func TestExpandManyKeepsValuesAcrossRegrowth(t *testing.T) {
	v := seeded(t, 3, 4)
	orig := make([][]float64, 3)
	for f := range orig {
		orig[f] = v.Row(f)
	}
	caps := map[int]bool{}
	for i := 0; i < 40; i++ {
		if err := v.Expand(0, 1, i%2 == 0); err != nil {
			t.Fatalf("Expand %d: %v", i, err)
		}
		if v.Len() != v.Features()*v.Actions() {
			t.Fatalf("length invariant broken at %d", i)
		}
		caps[v.Cap()] = true
	}
	if len(caps) >= 40 {
		t.Fatal("expected amortized growth, buffer was reallocated on every expansion")
	}
	for f := 0; f < 3; f++ {
		for a := 0; a < 4; a++ {
			if v.At(f, a) != orig[f][a] {
				t.Fatalf("(%d,%d) drifted: %f != %f", f, a, v.At(f, a), orig[f][a])
			}
		}
	}
	if v.At(3, 2) != orig[0][2]+orig[1][2] {
		t.Fatalf("first sparsified row wrong: %f", v.At(3, 2))
	}
	if v.At(4, 2) != 0 {
		t.Fatalf("second row should be zero, got %f", v.At(4, 2))
	}
}

func TestSetAndReplace(t *testing.T) {
	v := New(2, 2)
	v.Set(1, 1, 7)
	if v.Values()[3] != 7 {
		t.Fatalf("expected action-major layout, got %v", v.Values())
	}
	if err := v.Replace([]float64{1, 2, 3}); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
	if _, err := FromValues([]float64{1}, 2, 2); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
	if err := v.Expand(0, 5, true); err == nil {
		t.Fatal("expected error for unknown parent")
	}
}
