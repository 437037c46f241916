package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/danielpatrickdp/ifdd/internal/audit"
	"github.com/danielpatrickdp/ifdd/internal/logging"
	"github.com/danielpatrickdp/ifdd/internal/store"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect stored snapshots",
	Long: `List stored snapshots, newest first, or show one snapshot in detail.

The detail view lists the discovered features with their lineage, the
strongest pending potentials, the audit result and the discovery log of the
run that produced the snapshot.

Examples:
  ifdd inspect --db ifdd.db                  # List the last 20 snapshots
  ifdd inspect --db ifdd.db --version <id>   # Show one snapshot
  ifdd inspect --db ifdd.db --current        # Show the active snapshot`,
	Run: func(cmd *cobra.Command, args []string) {
		last, _ := cmd.Flags().GetInt("last")
		version, _ := cmd.Flags().GetString("version")
		current, _ := cmd.Flags().GetBool("current")

		st, err := store.NewStore(dbFlag(cmd))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: open db: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		switch {
		case version != "" || current:
			err = runDetail(os.Stdout, st, version)
		default:
			err = runList(os.Stdout, st, last)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	inspectCmd.Flags().String("db", "", "Path to the database (defaults to the configured db)")
	inspectCmd.Flags().IntP("last", "n", 20, "Number of snapshots to list")
	inspectCmd.Flags().StringP("version", "v", "", "Show a single snapshot")
	inspectCmd.Flags().Bool("current", false, "Show the active snapshot")
	rootCmd.AddCommand(inspectCmd)
}

// #region list
func runList(w io.Writer, st *store.Store, last int) error {
	versions, err := st.ListVersions(last)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Fprintln(w, "No snapshots found")
		return nil
	}

	var activeID string
	if cur, err := st.GetCurrent(); err == nil {
		activeID = cur.VersionID
	}
	green := color.New(color.FgGreen).SprintFunc()

	fmt.Fprintf(w, "%-36s  %8s  %8s  %7s  %-20s  %s\n", "Version", "Initial", "Features", "Actions", "Created", "Run")
	for _, v := range versions {
		id := v.VersionID
		if id == activeID {
			id = green(id)
		}
		fmt.Fprintf(w, "%-36s  %8d  %8d  %7d  %-20s  %s\n",
			id, v.InitialNum, v.FeaturesNum, v.ActionsNum, v.CreatedAt.Format("2006-01-02T15:04:05Z"), v.RunID)
	}
	return nil
}

// #endregion list

// #region detail
// runDetail prints one snapshot, or the active one when id is empty.
func runDetail(w io.Writer, st *store.Store, id string) error {
	snap, err := loadSnapshot(st, id)
	if err != nil {
		return err
	}
	cfgSnap, err := snap.Config()
	if err != nil {
		return err
	}
	e, err := snap.Restore(cfgSnap)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintf(w, "%s %s\n", cyan("Snapshot"), snap.VersionID)
	if snap.ParentID != "" {
		fmt.Fprintf(w, "  Parent:     %s\n", snap.ParentID)
	}
	fmt.Fprintf(w, "  Run:        %s\n", snap.RunID)
	fmt.Fprintf(w, "  Created:    %s\n", snap.CreatedAt.Format("2006-01-02T15:04:05Z"))
	fmt.Fprintf(w, "  Features:   %d (%d initial, %d actions)\n", snap.FeaturesNum, snap.InitialNum, snap.ActionsNum)
	fmt.Fprintf(w, "  Threshold:  %g  sparsify=%t\n", cfgSnap.DiscoveryThreshold, cfgSnap.Sparsify)

	fmt.Fprintf(w, "\n%s\n", cyan("Discovered features"))
	for _, f := range snap.Features {
		if f.IsBase() {
			continue
		}
		lin, err := e.Lineage(f.Index)
		if err != nil {
			return fmt.Errorf("lineage %d: %w", f.Index, err)
		}
		fmt.Fprintf(w, "  %-5d %-20s parents (%d, %d)  %s\n",
			f.Index, f.BaseSet.String(), f.Parent1, f.Parent2, gray(fmt.Sprintf("depth %d", maxDepth(lin.Depths))))
	}

	pending := snap.Potentials
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].Score() > pending[j].Score() })
	if len(pending) > 10 {
		pending = pending[:10]
	}
	fmt.Fprintf(w, "\n%s (%d total)\n", cyan("Strongest potentials"), len(snap.Potentials))
	for _, p := range pending {
		fmt.Fprintf(w, "  %-20s relevance %8.4f  count %5d  score %.4f\n", p.BaseSet.String(), p.Relevance, p.Count, p.Score())
	}

	result := audit.NewHarness(audit.DefaultAuditConfig()).Run(audit.FromEngine(e))
	fmt.Fprintf(w, "\n%s\n", cyan("Audit"))
	if result.Passed {
		fmt.Fprintln(w, "  passed")
	} else {
		fmt.Fprintf(w, "  %s\n", red(result.Reason))
	}

	entries, err := logging.ListDiscoveries(st.DB(), snap.RunID)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		fmt.Fprintf(w, "\n%s\n", cyan("Discovery log"))
		for _, d := range entries {
			fmt.Fprintf(w, "  %-5d %-6s %-20v %s\n", d.FeatureIndex, d.Mode, d.BaseSet, gray(d.Reason))
		}
	}
	return nil
}

func loadSnapshot(st *store.Store, id string) (store.Snapshot, error) {
	if id == "" {
		return st.GetCurrent()
	}
	return st.GetVersion(id)
}

func maxDepth(depths []int) int {
	m := 0
	for _, d := range depths {
		if d > m {
			m = d
		}
	}
	return m
}

// #endregion detail
