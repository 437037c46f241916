package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/danielpatrickdp/ifdd/internal/potential"
	"github.com/danielpatrickdp/ifdd/internal/registry"
)

// ErrNoSnapshot is returned when no snapshot has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot")

// #region snapshot
// Snapshot is a versioned copy of a representation: its feature bag, pending
// potentials and weights.
type Snapshot struct {
	VersionID   string
	ParentID    string
	RunID       string
	InitialNum  int
	ActionsNum  int
	FeaturesNum int
	Features    []registry.Feature
	Potentials  []potential.Potential
	Theta       []float64
	ConfigJSON  string
	CreatedAt   time.Time
}

// #endregion snapshot

// #region rows
type snapshotRow struct {
	VersionID   string         `db:"version_id"`
	ParentID    sql.NullString `db:"parent_id"`
	RunID       string         `db:"run_id"`
	InitialNum  int            `db:"initial_num"`
	ActionsNum  int            `db:"actions_num"`
	FeaturesNum int            `db:"features_num"`
	Theta       []byte         `db:"theta"`
	ConfigJSON  sql.NullString `db:"config_json"`
	CreatedAt   string         `db:"created_at"`
}

type featureRow struct {
	VersionID string `db:"version_id"`
	Idx       int    `db:"idx"`
	BaseSet   string `db:"base_set"`
	Parent1   int    `db:"parent1"`
	Parent2   int    `db:"parent2"`
}

type potentialRow struct {
	VersionID string  `db:"version_id"`
	BaseSet   string  `db:"base_set"`
	Parent1   int     `db:"parent1"`
	Parent2   int     `db:"parent2"`
	Relevance float64 `db:"relevance"`
	ObsCount  int     `db:"obs_count"`
}

// #endregion rows
