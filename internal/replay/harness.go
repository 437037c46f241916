package replay

import (
	"fmt"
	"reflect"

	"github.com/danielpatrickdp/ifdd/internal/audit"
	"github.com/danielpatrickdp/ifdd/internal/ifdd"
)

// #region types
// Step is one recorded observation of a learning run.
type Step struct {
	ActiveBase []int
	Terminal   bool
	TDError    float64
}

// StepResult captures the outcome of replaying one step.
type StepResult struct {
	Index       int
	Terminal    bool
	Active      []int // resolved features before discovery
	Added       []int // features promoted by this step
	FeaturesNum int   // features_num after the step
}

// Sample is one observation of a batch.
type Sample struct {
	ActiveBase []int
	TDError    float64
}

// BatchResult captures the outcome of one batch discovery round.
type BatchResult struct {
	Samples     int
	Added       bool
	FeaturesNum int
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	TotalSteps    int
	TerminalSteps int
	Batches       int
	Discoveries   int
	InitialNum    int
	FeaturesNum   int
	Potentials    int
	Vetoes        int
	Audit         audit.Result
}

// Outcome is everything produced by replaying a fixture.
type Outcome struct {
	Engine     *ifdd.Engine
	Steps      []StepResult
	Batches    []BatchResult
	Summary    Summary
	Mismatches []string
}

// #endregion types

// #region replay
// Replay feeds steps through e: each non-terminal step resolves its active base
// features and credits the TD error to the resolved features. Terminal steps
// resolve to nothing and discover nothing.
func Replay(e *ifdd.Engine, steps []Step) ([]StepResult, error) {
	results := make([]StepResult, 0, len(steps))
	for i, st := range steps {
		res := StepResult{Index: i, Terminal: st.Terminal, Active: []int{}}
		if !st.Terminal {
			active, err := e.ActiveFeatures(st.ActiveBase)
			if err != nil {
				return results, fmt.Errorf("step %d: %w", i, err)
			}
			res.Active = active
			added, err := e.Discover(active, st.TDError)
			if err != nil {
				return results, fmt.Errorf("step %d: %w", i, err)
			}
			res.Added = added
		}
		res.FeaturesNum = e.FeaturesNum()
		results = append(results, res)
	}
	return results, nil
}

// ReplayBatch resolves every sample, stacks the activations and runs one batch
// discovery round.
func ReplayBatch(e *ifdd.Engine, samples []Sample) (BatchResult, error) {
	sets := make([][]int, len(samples))
	errs := make([]float64, len(samples))
	for i, s := range samples {
		active, err := e.ActiveFeatures(s.ActiveBase)
		if err != nil {
			return BatchResult{}, fmt.Errorf("sample %d: %w", i, err)
		}
		sets[i] = active
		errs[i] = s.TDError
	}
	phi, err := e.PhiMatrix(sets)
	if err != nil {
		return BatchResult{}, err
	}
	added, err := e.BatchDiscover(errs, phi)
	if err != nil {
		return BatchResult{}, err
	}
	return BatchResult{Samples: len(samples), Added: added, FeaturesNum: e.FeaturesNum()}, nil
}

// Summarize computes aggregate stats and audits the final representation.
func Summarize(e *ifdd.Engine, results []StepResult, batches []BatchResult) Summary {
	st := e.Stats()
	s := Summary{
		TotalSteps:  len(results),
		Batches:     len(batches),
		Discoveries: st.Discoveries,
		InitialNum:  st.InitialFeaturesNum,
		FeaturesNum: st.FeaturesNum,
		Potentials:  st.Potentials,
		Vetoes:      st.Vetoes,
		Audit:       audit.NewHarness(audit.DefaultAuditConfig()).Run(audit.FromEngine(e)),
	}
	for _, r := range results {
		if r.Terminal {
			s.TerminalSteps++
		}
	}
	return s
}

// #endregion replay

// #region fixture-run
// Run builds an engine from the fixture, replays its steps and batches and checks
// the expectations.
func Run(f *Fixture, opts ...ifdd.Option) (*Outcome, error) {
	e, err := ifdd.New(f.InitialFeatures, f.ActionsNum, f.Config.ToConfig(), opts...)
	if err != nil {
		return nil, err
	}
	steps := make([]Step, len(f.Steps))
	for i := range f.Steps {
		steps[i] = f.Steps[i].ToStep()
	}
	results, err := Replay(e, steps)
	if err != nil {
		return nil, err
	}
	var batches []BatchResult
	for i := range f.Batches {
		br, err := ReplayBatch(e, f.Batches[i].ToSamples())
		if err != nil {
			return nil, fmt.Errorf("batch %d: %w", i, err)
		}
		batches = append(batches, br)
	}
	mismatches, err := Verify(f, e, results)
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Engine:     e,
		Steps:      results,
		Batches:    batches,
		Summary:    Summarize(e, results, batches),
		Mismatches: mismatches,
	}, nil
}

// Verify compares the replayed engine against the fixture expectations and returns
// one message per mismatch.
func Verify(f *Fixture, e *ifdd.Engine, results []StepResult) ([]string, error) {
	var out []string
	for i, fs := range f.Steps {
		if fs.ExpectAdded == nil || i >= len(results) {
			continue
		}
		if !sameInts(results[i].Added, fs.ExpectAdded) {
			out = append(out, fmt.Sprintf("step %d: added %v, want %v", i, results[i].Added, fs.ExpectAdded))
		}
	}
	if f.Expected.FeaturesNum > 0 && e.FeaturesNum() != f.Expected.FeaturesNum {
		out = append(out, fmt.Sprintf("features_num %d, want %d", e.FeaturesNum(), f.Expected.FeaturesNum))
	}
	if f.Expected.Potentials != nil && e.Stats().Potentials != *f.Expected.Potentials {
		out = append(out, fmt.Sprintf("potentials %d, want %d", e.Stats().Potentials, *f.Expected.Potentials))
	}
	for _, r := range f.Expected.Resolutions {
		got, err := e.ActiveFeatures(r.ActiveBase)
		if err != nil {
			return out, fmt.Errorf("resolve %v: %w", r.ActiveBase, err)
		}
		if !sameInts(got, r.Active) {
			out = append(out, fmt.Sprintf("resolve %v: got %v, want %v", r.ActiveBase, got, r.Active))
		}
	}
	return out, nil
}

// #endregion fixture-run

// #region helpers
func sameInts(a, b []int) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// #endregion helpers
