package logging

import "time"

// #region discovery-entry
// DiscoveryEntry is a single row in the discovery_log table.
type DiscoveryEntry struct {
	RunID        string
	FeatureIndex int
	BaseSet      []int
	Parent1      int
	Parent2      int
	Relevance    float64
	Count        int
	Mode         string // "online" | "batch"
	FeaturesNum  int
	Reason       string
	CreatedAt    time.Time
}

// #endregion discovery-entry
