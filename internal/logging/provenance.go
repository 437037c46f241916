package logging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielpatrickdp/ifdd/internal/ifdd"
)

// #region log-discovery
// LogDiscovery writes one promoted feature to the discovery_log table.
func LogDiscovery(db *sql.DB, entry DiscoveryEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	set, err := json.Marshal(entry.BaseSet)
	if err != nil {
		return fmt.Errorf("marshal base set: %w", err)
	}

	_, err = db.Exec(
		`INSERT INTO discovery_log (run_id, feature_index, base_set, parent1, parent2, relevance, obs_count, mode, features_num, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.FeatureIndex,
		string(set),
		entry.Parent1,
		entry.Parent2,
		entry.Relevance,
		entry.Count,
		entry.Mode,
		entry.FeaturesNum,
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log discovery: %w", err)
	}
	return nil
}

// #endregion log-discovery

// #region list-discoveries
// ListDiscoveries returns the discoveries of a run in the order they were made.
func ListDiscoveries(db *sql.DB, runID string) ([]DiscoveryEntry, error) {
	rows, err := db.Query(
		`SELECT run_id, feature_index, base_set, parent1, parent2, relevance, obs_count, mode, features_num, reason, created_at
		 FROM discovery_log WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list discoveries: %w", err)
	}
	defer rows.Close()

	var entries []DiscoveryEntry
	for rows.Next() {
		var e DiscoveryEntry
		var set string
		var reason sql.NullString
		var createdStr string
		if err := rows.Scan(&e.RunID, &e.FeatureIndex, &set, &e.Parent1, &e.Parent2,
			&e.Relevance, &e.Count, &e.Mode, &e.FeaturesNum, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(set), &e.BaseSet); err != nil {
			return nil, fmt.Errorf("unmarshal base set: %w", err)
		}
		if reason.Valid {
			e.Reason = reason.String
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion list-discoveries

// #region recorder
// EntryFromEvent converts an engine discovery event to a log row.
func EntryFromEvent(runID string, ev ifdd.DiscoveryEvent) DiscoveryEntry {
	return DiscoveryEntry{
		RunID:        runID,
		FeatureIndex: ev.Feature.Index,
		BaseSet:      append([]int(nil), ev.Feature.BaseSet...),
		Parent1:      ev.Feature.Parent1,
		Parent2:      ev.Feature.Parent2,
		Relevance:    ev.Relevance,
		Count:        ev.Count,
		Mode:         ev.Mode,
		FeaturesNum:  ev.FeaturesNum,
		Reason:       fmt.Sprintf("relevance %.4f over %d observations", ev.Relevance, ev.Count),
	}
}

// Recorder returns an engine hook that logs every discovery of runID to db.
// Write failures are reported to logger and do not stop learning.
func Recorder(db *sql.DB, runID string, logger *slog.Logger) func(ifdd.DiscoveryEvent) {
	return func(ev ifdd.DiscoveryEvent) {
		if err := LogDiscovery(db, EntryFromEvent(runID, ev)); err != nil {
			logger.Warn("discovery log write failed", "feature", ev.Feature.Index, "error", err)
		}
	}
}

// #endregion recorder

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
