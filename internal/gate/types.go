package gate

// #region veto-type
// VetoType enumerates capacity veto categories.
type VetoType string

const (
	VetoFeatureCap  VetoType = "feature_cap"
	VetoThetaBudget VetoType = "theta_budget"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal represents a detected capacity limit.
type VetoSignal struct {
	Type   VetoType
	Reason string
}

// #endregion veto-signal

// #region gate-config
// GateConfig bounds how far the feature bag may grow. Zero values disable a bound.
type GateConfig struct {
	MaxFeatures int    // hard cap on features_num, base features included
	ThetaBudget uint64 // bytes allowed for the weight vector (8 per entry)
}

// DefaultGateConfig returns an unbounded gate.
func DefaultGateConfig() GateConfig {
	return GateConfig{}
}

// #endregion gate-config

// #region gate-decision
// GateDecision is the output of the gate evaluation.
type GateDecision struct {
	Action      string // "admit" | "reject"
	Reason      string
	Vetoed      bool
	VetoSignals []VetoSignal
}

// #endregion gate-decision
