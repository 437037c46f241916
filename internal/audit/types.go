package audit

import (
	"github.com/danielpatrickdp/ifdd/internal/potential"
	"github.com/danielpatrickdp/ifdd/internal/registry"
)

// #region audit-config
// AuditConfig holds thresholds for the informational checks.
type AuditConfig struct {
	MaxGrowth float64 // warn when features_num / initial exceeds this
}

// DefaultAuditConfig returns the defaults used by replay and inspect.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		MaxGrowth: 4.0,
	}
}

// #endregion audit-config

// #region subject
// Subject is the representation state under audit.
type Subject struct {
	InitialNum int
	ActionsNum int
	Features   []registry.Feature
	Potentials []potential.Potential
	ThetaLen   int
}

// #endregion subject

// #region metric
// Metric captures a single check result. Value counts violations for structural
// checks and carries the measured quantity otherwise.
type Metric struct {
	Name  string
	Value float64
	Pass  bool
}

// #endregion metric

// #region result
// Result is the output of an audit.
type Result struct {
	Passed  bool
	Metrics []Metric
	Reason  string
}

// #endregion result
