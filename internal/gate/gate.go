package gate

import "fmt"

// bytesPerWeight is the size of one float64 theta entry.
const bytesPerWeight = 8

// #region gate
// Gate decides whether the representation may grow by one more feature.
type Gate struct {
	config GateConfig
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) *Gate {
	return &Gate{config: config}
}

// Config returns the active limits.
func (g *Gate) Config() GateConfig {
	return g.config
}

// Evaluate checks whether adding one feature to a representation that currently
// holds featuresNum features over actionsNum actions stays within capacity.
func (g *Gate) Evaluate(featuresNum, actionsNum int) GateDecision {
	var vetoes []VetoSignal

	// 1. Feature bag size
	if g.config.MaxFeatures > 0 && featuresNum+1 > g.config.MaxFeatures {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoFeatureCap,
			Reason: fmt.Sprintf("features %d would exceed cap %d", featuresNum+1, g.config.MaxFeatures),
		})
	}

	// 2. Weight memory
	if g.config.ThetaBudget > 0 {
		need := thetaBytes(featuresNum+1, actionsNum)
		if need > g.config.ThetaBudget {
			vetoes = append(vetoes, VetoSignal{
				Type:   VetoThetaBudget,
				Reason: fmt.Sprintf("theta needs %d bytes, budget %d", need, g.config.ThetaBudget),
			})
		}
	}

	if len(vetoes) > 0 {
		return GateDecision{
			Action:      "reject",
			Reason:      fmt.Sprintf("capacity: %s", vetoes[0].Reason),
			Vetoed:      true,
			VetoSignals: vetoes,
		}
	}

	return GateDecision{
		Action: "admit",
		Reason: fmt.Sprintf("within capacity: features=%d", featuresNum+1),
	}
}

// #endregion gate

// #region helpers
func thetaBytes(features, actions int) uint64 {
	return uint64(features) * uint64(actions) * bytesPerWeight
}

// #endregion helpers
