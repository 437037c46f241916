package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/danielpatrickdp/ifdd/internal/ifdd"
	"github.com/danielpatrickdp/ifdd/internal/logging"
	"github.com/danielpatrickdp/ifdd/internal/replay"
	"github.com/danielpatrickdp/ifdd/internal/store"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded TD-error trace",
	Long: `Replay a JSON fixture of active base features and TD errors through a fresh
representation, then audit the result and compare it with the fixture's
expectations.

With --db the grown representation is saved as a new snapshot and every
discovery is written to the discovery log under a fresh run ID.

Exits non-zero when an expectation does not hold or the audit fails.`,
	Run: func(cmd *cobra.Command, args []string) {
		fixturePath, _ := cmd.Flags().GetString("fixture")
		dbPath, _ := cmd.Flags().GetString("db")
		if fixturePath == "" {
			fmt.Fprintln(os.Stderr, "Error: --fixture is required")
			os.Exit(2)
		}

		ok, err := runReplay(os.Stdout, fixturePath, dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			os.Exit(1)
		}
	},
}

func init() {
	replayCmd.Flags().StringP("fixture", "f", "", "Path to fixture JSON")
	replayCmd.Flags().String("db", "", "Persist the result to this database")
	rootCmd.AddCommand(replayCmd)
}

// #region run
// runReplay replays the fixture at path and prints its summary to w. It reports
// false when expectations or the audit fail.
func runReplay(w io.Writer, path, dbPath string) (bool, error) {
	f, err := replay.LoadFixture(path)
	if err != nil {
		return false, err
	}

	opts := []ifdd.Option{ifdd.WithLogger(logger)}
	var st *store.Store
	runID := uuid.New().String()
	if dbPath != "" {
		st, err = store.NewStore(dbPath)
		if err != nil {
			return false, fmt.Errorf("open db: %w", err)
		}
		defer st.Close()
		opts = append(opts, ifdd.WithDiscoveryHook(logging.Recorder(st.DB(), runID, logger)))
	}

	out, err := replay.Run(f, opts...)
	if err != nil {
		return false, fmt.Errorf("replay: %w", err)
	}
	printSummary(w, f, out)

	if st != nil {
		saved, err := persist(st, out.Engine, runID)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(w, "\nSaved snapshot %s (run %s)\n", saved.VersionID, runID)
	}
	return len(out.Mismatches) == 0 && out.Summary.Audit.Passed, nil
}

// persist saves e as a child of the active snapshot, if any.
func persist(st *store.Store, e *ifdd.Engine, runID string) (store.Snapshot, error) {
	var parentID string
	cur, err := st.GetCurrent()
	switch {
	case err == nil:
		parentID = cur.VersionID
	case !errors.Is(err, store.ErrNoSnapshot):
		return store.Snapshot{}, fmt.Errorf("get current: %w", err)
	}
	snap, err := store.FromEngine(e, parentID, runID)
	if err != nil {
		return store.Snapshot{}, err
	}
	saved, err := st.SaveSnapshot(snap)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	return saved, nil
}

// #endregion run

// #region output
func printSummary(w io.Writer, f *replay.Fixture, out *replay.Outcome) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	if f.Description != "" {
		fmt.Fprintf(w, "%s\n\n", cyan(f.Description))
	}
	for _, r := range out.Steps {
		if len(r.Added) == 0 {
			continue
		}
		fmt.Fprintf(w, "  step %-4d active %v -> added %s (features %d)\n",
			r.Index, r.Active, green(fmt.Sprint(r.Added)), r.FeaturesNum)
	}
	for i, b := range out.Batches {
		if b.Added {
			fmt.Fprintf(w, "  batch %-3d %d samples -> features %d\n", i, b.Samples, b.FeaturesNum)
		}
	}

	s := out.Summary
	fmt.Fprintf(w, "\n%s\n", cyan("Summary"))
	fmt.Fprintf(w, "  Steps:        %d (%d terminal)\n", s.TotalSteps, s.TerminalSteps)
	fmt.Fprintf(w, "  Batches:      %d\n", s.Batches)
	fmt.Fprintf(w, "  Features:     %d -> %d (%d discovered)\n", s.InitialNum, s.FeaturesNum, s.Discoveries)
	fmt.Fprintf(w, "  Potentials:   %d\n", s.Potentials)
	if s.Vetoes > 0 {
		fmt.Fprintf(w, "  Vetoes:       %d\n", s.Vetoes)
	}

	fmt.Fprintf(w, "\n%s\n", cyan("Audit"))
	for _, m := range s.Audit.Metrics {
		mark := green("ok")
		if !m.Pass {
			mark = red("FAIL")
		}
		fmt.Fprintf(w, "  %-20s %10.2f  %s\n", m.Name, m.Value, mark)
	}
	if !s.Audit.Passed {
		fmt.Fprintf(w, "  %s\n", red(s.Audit.Reason))
	}

	if len(out.Mismatches) == 0 {
		fmt.Fprintf(w, "\n%s\n", green("All expectations met"))
		return
	}
	fmt.Fprintf(w, "\n%s\n", red(fmt.Sprintf("%d expectation(s) failed", len(out.Mismatches))))
	for _, m := range out.Mismatches {
		fmt.Fprintf(w, "  %s %s\n", gray("-"), m)
	}
}

// #endregion output
