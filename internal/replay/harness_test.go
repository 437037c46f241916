package replay

import (
	"testing"

	"github.com/danielpatrickdp/ifdd/internal/ifdd"
)

func newEngine(t *testing.T, initial int) *ifdd.Engine {
	t.Helper()
	e, err := ifdd.New(initial, 2, ifdd.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestReplayTerminalStepsDiscoverNothing(t *testing.T) {
	e := newEngine(t, 4)
	results, err := Replay(e, []Step{
		{ActiveBase: []int{0, 1}, Terminal: true, TDError: 10},
		{ActiveBase: []int{0, 1}, TDError: 0.5},
	})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(results[0].Active) != 0 || results[0].Added != nil {
		t.Fatalf("terminal step did work: %+v", results[0])
	}
	if len(results[1].Active) != 2 || e.Stats().Potentials != 1 {
		t.Fatalf("expected one potential, got %+v", e.Stats())
	}
}

func TestReplayResolvesBeforeDiscovering(t *testing.T) {
	e := newEngine(t, 4)
	results, err := Replay(e, []Step{
		{ActiveBase: []int{0, 1}, TDError: 3},
		{ActiveBase: []int{0, 1, 2}, TDError: 3},
	})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(results[0].Added) != 1 || results[0].Added[0] != 4 || results[0].FeaturesNum != 5 {
		t.Fatalf("unexpected first step %+v", results[0])
	}
	// [0,1,2] resolves to {2, 4}; their conjunction is {0,1,2}
	if !sameInts(results[1].Active, []int{2, 4}) || !sameInts(results[1].Added, []int{5}) {
		t.Fatalf("unexpected second step %+v", results[1])
	}
}

func TestReplayStopsOnBadStep(t *testing.T) {
	e := newEngine(t, 4)
	results, err := Replay(e, []Step{
		{ActiveBase: []int{0, 1}, TDError: 0.1},
		{ActiveBase: []int{9}, TDError: 0.1},
	})
	if err == nil {
		t.Fatal("expected error for out-of-range base feature")
	}
	if len(results) != 1 {
		t.Fatalf("expected the good step to be reported, got %d", len(results))
	}
}

func TestReplayBatch(t *testing.T) {
	e := newEngine(t, 4)
	br, err := ReplayBatch(e, []Sample{
		{ActiveBase: []int{1, 2}, TDError: -2},
		{ActiveBase: []int{1, 2}, TDError: -2},
	})
	if err != nil {
		t.Fatalf("ReplayBatch: %v", err)
	}
	if !br.Added || br.FeaturesNum != 5 {
		t.Fatalf("unexpected batch result %+v", br)
	}
	if _, err := ReplayBatch(e, nil); err == nil {
		t.Fatal("expected error for empty batch")
	}
}

func TestSummarize(t *testing.T) {
	e := newEngine(t, 4)
	steps := []Step{{ActiveBase: []int{0, 1}, TDError: 2}, {Terminal: true}}
	results, _ := Replay(e, steps)
	s := Summarize(e, results, nil)
	if s.TotalSteps != 2 || s.TerminalSteps != 1 || s.Discoveries != 1 || s.InitialNum != 4 || s.FeaturesNum != 5 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if !s.Audit.Passed {
		t.Fatalf("audit failed: %s", s.Audit.Reason)
	}
}

func TestVerifyReportsMismatches(t *testing.T) {
	e := newEngine(t, 4)
	potentials := 3
	f := &Fixture{
		Steps: []FixtureStep{{ActiveBase: []int{0, 1}, TDError: 2, ExpectAdded: []int{7}}},
		Expected: FixtureExpected{
			FeaturesNum: 9,
			Potentials:  &potentials,
			Resolutions: []FixtureResolution{{ActiveBase: []int{0, 1}, Active: []int{0, 1}}},
		},
	}
	steps := []Step{f.Steps[0].ToStep()}
	results, _ := Replay(e, steps)
	mismatches, err := Verify(f, e, results)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(mismatches) != 4 {
		t.Fatalf("expected 4 mismatches, got %v", mismatches)
	}
}
