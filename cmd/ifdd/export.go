package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/danielpatrickdp/ifdd/internal/logging"
	"github.com/danielpatrickdp/ifdd/internal/store"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a snapshot as JSON",
	Long: `Write a stored snapshot, its pending potentials, weights and discovery log
as a JSON document. The active snapshot is exported unless --version is set.`,
	Run: func(cmd *cobra.Command, args []string) {
		version, _ := cmd.Flags().GetString("version")
		outPath, _ := cmd.Flags().GetString("out")

		st, err := store.NewStore(dbFlag(cmd))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: open db: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		w := io.Writer(os.Stdout)
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer f.Close()
			w = f
		}
		if err := runExport(w, st, version); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if outPath != "" {
			fmt.Fprintf(os.Stderr, "Wrote %s\n", outPath)
		}
	},
}

func init() {
	exportCmd.Flags().String("db", "", "Path to the database (defaults to the configured db)")
	exportCmd.Flags().StringP("version", "v", "", "Snapshot to export (defaults to the active one)")
	exportCmd.Flags().StringP("out", "o", "", "Output file (defaults to stdout)")
	rootCmd.AddCommand(exportCmd)
}

// #region document
type exportFeature struct {
	Index   int   `json:"index"`
	BaseSet []int `json:"base_set"`
	Parent1 int   `json:"parent1"`
	Parent2 int   `json:"parent2"`
}

type exportPotential struct {
	BaseSet   []int   `json:"base_set"`
	Parent1   int     `json:"parent1"`
	Parent2   int     `json:"parent2"`
	Relevance float64 `json:"relevance"`
	Count     int     `json:"count"`
}

type exportDiscovery struct {
	FeatureIndex int       `json:"feature_index"`
	Mode         string    `json:"mode"`
	Relevance    float64   `json:"relevance"`
	Count        int       `json:"count"`
	FeaturesNum  int       `json:"features_num"`
	CreatedAt    time.Time `json:"created_at"`
}

type exportDoc struct {
	VersionID   string            `json:"version_id"`
	ParentID    string            `json:"parent_id,omitempty"`
	RunID       string            `json:"run_id"`
	CreatedAt   time.Time         `json:"created_at"`
	InitialNum  int               `json:"initial_features"`
	ActionsNum  int               `json:"actions_num"`
	FeaturesNum int               `json:"features_num"`
	Config      json.RawMessage   `json:"config,omitempty"`
	Features    []exportFeature   `json:"features"`
	Potentials  []exportPotential `json:"potentials"`
	Theta       []float64         `json:"theta"`
	Discoveries []exportDiscovery `json:"discoveries,omitempty"`
}

// #endregion document

// #region export
func runExport(w io.Writer, st *store.Store, id string) error {
	snap, err := loadSnapshot(st, id)
	if err != nil {
		return err
	}
	entries, err := logging.ListDiscoveries(st.DB(), snap.RunID)
	if err != nil {
		return err
	}

	doc := exportDoc{
		VersionID:   snap.VersionID,
		ParentID:    snap.ParentID,
		RunID:       snap.RunID,
		CreatedAt:   snap.CreatedAt,
		InitialNum:  snap.InitialNum,
		ActionsNum:  snap.ActionsNum,
		FeaturesNum: snap.FeaturesNum,
		Features:    make([]exportFeature, len(snap.Features)),
		Potentials:  make([]exportPotential, len(snap.Potentials)),
		Theta:       snap.Theta,
	}
	if snap.ConfigJSON != "" {
		doc.Config = json.RawMessage(snap.ConfigJSON)
	}
	for i, f := range snap.Features {
		doc.Features[i] = exportFeature{Index: f.Index, BaseSet: f.BaseSet, Parent1: f.Parent1, Parent2: f.Parent2}
	}
	for i, p := range snap.Potentials {
		doc.Potentials[i] = exportPotential{BaseSet: p.BaseSet, Parent1: p.Parent1, Parent2: p.Parent2, Relevance: p.Relevance, Count: p.Count}
	}
	for _, d := range entries {
		doc.Discoveries = append(doc.Discoveries, exportDiscovery{
			FeatureIndex: d.FeatureIndex,
			Mode:         d.Mode,
			Relevance:    d.Relevance,
			Count:        d.Count,
			FeaturesNum:  d.FeaturesNum,
			CreatedAt:    d.CreatedAt,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// #endregion export
