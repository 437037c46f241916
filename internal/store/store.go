// Package store persists representation snapshots in SQLite.
package store

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/danielpatrickdp/ifdd/internal/featureset"
	"github.com/danielpatrickdp/ifdd/internal/potential"
	"github.com/danielpatrickdp/ifdd/internal/registry"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	version_id    TEXT PRIMARY KEY,
	parent_id     TEXT,
	run_id        TEXT NOT NULL,
	initial_num   INTEGER NOT NULL,
	actions_num   INTEGER NOT NULL,
	features_num  INTEGER NOT NULL,
	theta         BLOB NOT NULL,
	config_json   TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (parent_id) REFERENCES snapshots(version_id)
);

CREATE TABLE IF NOT EXISTS snapshot_features (
	version_id    TEXT NOT NULL,
	idx           INTEGER NOT NULL,
	base_set      TEXT NOT NULL,
	parent1       INTEGER NOT NULL,
	parent2       INTEGER NOT NULL,
	PRIMARY KEY (version_id, idx),
	FOREIGN KEY (version_id) REFERENCES snapshots(version_id)
);

CREATE TABLE IF NOT EXISTS snapshot_potentials (
	version_id    TEXT NOT NULL,
	base_set      TEXT NOT NULL,
	parent1       INTEGER NOT NULL,
	parent2       INTEGER NOT NULL,
	relevance     REAL NOT NULL,
	obs_count     INTEGER NOT NULL,
	PRIMARY KEY (version_id, base_set),
	FOREIGN KEY (version_id) REFERENCES snapshots(version_id)
);

CREATE TABLE IF NOT EXISTS active_snapshot (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	version_id    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES snapshots(version_id)
);

CREATE TABLE IF NOT EXISTS discovery_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	feature_index INTEGER NOT NULL,
	base_set      TEXT NOT NULL,
	parent1       INTEGER NOT NULL,
	parent2       INTEGER NOT NULL,
	relevance     REAL NOT NULL,
	obs_count     INTEGER NOT NULL,
	mode          TEXT NOT NULL,
	features_num  INTEGER NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_discovery_log_run ON discovery_log(run_id);
`

// #endregion schema

// #region store-struct
// Store manages versioned snapshots in SQLite.
type Store struct {
	db *sqlx.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// pragmas are per connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for the discovery log.
func (s *Store) DB() *sql.DB {
	return s.db.DB
}

// #endregion constructor

// #region save
// SaveSnapshot inserts a new version and moves the active pointer to it in one
// transaction. An empty VersionID is assigned a fresh UUID; the stored snapshot is returned.
func (s *Store) SaveSnapshot(snap Snapshot) (Snapshot, error) {
	if snap.VersionID == "" {
		snap.VersionID = uuid.New().String()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	snap.FeaturesNum = len(snap.Features)
	if len(snap.Theta) != snap.FeaturesNum*snap.ActionsNum {
		return Snapshot{}, fmt.Errorf("save snapshot: theta has %d entries for %d features x %d actions",
			len(snap.Theta), snap.FeaturesNum, snap.ActionsNum)
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return Snapshot{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO snapshots (version_id, parent_id, run_id, initial_num, actions_num, features_num, theta, config_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.VersionID, nullIfEmpty(snap.ParentID), snap.RunID, snap.InitialNum, snap.ActionsNum,
		snap.FeaturesNum, encodeTheta(snap.Theta), nullIfEmpty(snap.ConfigJSON),
		snap.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}

	features := make([]featureRow, 0, len(snap.Features))
	for _, f := range snap.Features {
		set, err := json.Marshal(f.BaseSet)
		if err != nil {
			return Snapshot{}, fmt.Errorf("marshal base set: %w", err)
		}
		features = append(features, featureRow{
			VersionID: snap.VersionID, Idx: f.Index, BaseSet: string(set),
			Parent1: f.Parent1, Parent2: f.Parent2,
		})
	}
	if len(features) > 0 {
		_, err = tx.NamedExec(
			`INSERT INTO snapshot_features (version_id, idx, base_set, parent1, parent2)
			 VALUES (:version_id, :idx, :base_set, :parent1, :parent2)`, features)
		if err != nil {
			return Snapshot{}, fmt.Errorf("insert features: %w", err)
		}
	}

	if len(snap.Potentials) > 0 {
		stmt, err := tx.Preparex(
			`INSERT INTO snapshot_potentials (version_id, base_set, parent1, parent2, relevance, obs_count)
			 VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return Snapshot{}, fmt.Errorf("prepare potentials: %w", err)
		}
		defer stmt.Close()
		for _, p := range snap.Potentials {
			set, err := json.Marshal(p.BaseSet)
			if err != nil {
				return Snapshot{}, fmt.Errorf("marshal base set: %w", err)
			}
			if _, err := stmt.Exec(snap.VersionID, string(set), p.Parent1, p.Parent2, p.Relevance, p.Count); err != nil {
				return Snapshot{}, fmt.Errorf("insert potential: %w", err)
			}
		}
	}

	_, err = tx.Exec(
		`INSERT INTO active_snapshot (id, version_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET version_id = excluded.version_id`,
		snap.VersionID,
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("set active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("commit: %w", err)
	}
	return snap, nil
}

// #endregion save

// #region get-current
// GetCurrent reads the active snapshot.
func (s *Store) GetCurrent() (Snapshot, error) {
	var versionID string
	err := s.db.Get(&versionID, `SELECT version_id FROM active_snapshot WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("get active: %w", err)
	}
	return s.GetVersion(versionID)
}

// #endregion get-current

// #region get-version
// GetVersion retrieves a full snapshot by ID.
func (s *Store) GetVersion(id string) (Snapshot, error) {
	var row snapshotRow
	err := s.db.Get(&row,
		`SELECT version_id, parent_id, run_id, initial_num, actions_num, features_num, theta, config_json, created_at
		 FROM snapshots WHERE version_id = ?`, id)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get version %s: %w", id, err)
	}
	snap := row.toSnapshot()

	var features []featureRow
	err = s.db.Select(&features,
		`SELECT version_id, idx, base_set, parent1, parent2
		 FROM snapshot_features WHERE version_id = ? ORDER BY idx`, id)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get features %s: %w", id, err)
	}
	snap.Features = make([]registry.Feature, 0, len(features))
	for _, fr := range features {
		set, err := decodeSet(fr.BaseSet)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Features = append(snap.Features, registry.Feature{
			Index: fr.Idx, BaseSet: set, Parent1: fr.Parent1, Parent2: fr.Parent2,
		})
	}

	var potentials []potentialRow
	err = s.db.Select(&potentials,
		`SELECT version_id, base_set, parent1, parent2, relevance, obs_count
		 FROM snapshot_potentials WHERE version_id = ? ORDER BY rowid`, id)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get potentials %s: %w", id, err)
	}
	for _, pr := range potentials {
		set, err := decodeSet(pr.BaseSet)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Potentials = append(snap.Potentials, potential.Potential{
			BaseSet: set, Parent1: pr.Parent1, Parent2: pr.Parent2,
			Relevance: pr.Relevance, Count: pr.ObsCount,
		})
	}
	return snap, nil
}

// #endregion get-version

// #region rollback
// Rollback sets the active pointer to a previous version.
func (s *Store) Rollback(targetVersionID string) error {
	var exists int
	err := s.db.Get(&exists, `SELECT COUNT(*) FROM snapshots WHERE version_id = ?`, targetVersionID)
	if err != nil {
		return fmt.Errorf("check version: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("version %s not found", targetVersionID)
	}

	_, err = s.db.Exec(`UPDATE active_snapshot SET version_id = ? WHERE id = 1`, targetVersionID)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// #endregion rollback

// #region list-versions
// ListVersions returns the most recent snapshot headers, newest first. Features,
// potentials and theta are not loaded.
func (s *Store) ListVersions(limit int) ([]Snapshot, error) {
	var rows []snapshotRow
	err := s.db.Select(&rows,
		`SELECT version_id, parent_id, run_id, initial_num, actions_num, features_num, x'' AS theta, config_json, created_at
		 FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	out := make([]Snapshot, 0, len(rows))
	for _, r := range rows {
		snap := r.toSnapshot()
		snap.Theta = nil
		out = append(out, snap)
	}
	return out, nil
}

// #endregion list-versions

// #region helpers
func (r snapshotRow) toSnapshot() Snapshot {
	snap := Snapshot{
		VersionID:   r.VersionID,
		RunID:       r.RunID,
		InitialNum:  r.InitialNum,
		ActionsNum:  r.ActionsNum,
		FeaturesNum: r.FeaturesNum,
		Theta:       decodeTheta(r.Theta),
	}
	if r.ParentID.Valid {
		snap.ParentID = r.ParentID.String
	}
	if r.ConfigJSON.Valid {
		snap.ConfigJSON = r.ConfigJSON.String
	}
	snap.CreatedAt, _ = time.Parse(time.RFC3339Nano, r.CreatedAt)
	return snap
}

func decodeSet(s string) (featureset.Set, error) {
	var idx []int
	if err := json.Unmarshal([]byte(s), &idx); err != nil {
		return nil, fmt.Errorf("unmarshal base set %q: %w", s, err)
	}
	return featureset.New(idx...), nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers

// #region theta-encoding
func encodeTheta(v []float64) []byte {
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeTheta(b []byte) []float64 {
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v
}

// #endregion theta-encoding
