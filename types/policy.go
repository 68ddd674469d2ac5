package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type PolicyKind string

const (
	PolicyNone                  PolicyKind = "none"
	PolicyThreshold             PolicyKind = "threshold"
	PolicyFrequency             PolicyKind = "frequency"
	PolicyThresholdAndFrequency PolicyKind = "threshold_and_frequency"
)

// DefaultThreshold is the value deviation, in settlement currency units,
// below which no trade is planned.
var DefaultThreshold = decimal.RequireFromString("0.05")

// RebalancePolicy is a closed variant. Threshold is only meaningful for the
// threshold kinds and Interval only for the frequency kinds.
type RebalancePolicy struct {
	Kind      PolicyKind
	Threshold decimal.Decimal
	Interval  Interval
}

func NoPolicy() RebalancePolicy {
	return RebalancePolicy{Kind: PolicyNone}
}

func ThresholdPolicy(threshold decimal.Decimal) RebalancePolicy {
	return RebalancePolicy{Kind: PolicyThreshold, Threshold: threshold}
}

func FrequencyPolicy(interval Interval) RebalancePolicy {
	return RebalancePolicy{Kind: PolicyFrequency, Interval: interval}
}

func ThresholdAndFrequencyPolicy(threshold decimal.Decimal, interval Interval) RebalancePolicy {
	return RebalancePolicy{Kind: PolicyThresholdAndFrequency, Threshold: threshold, Interval: interval}
}

// PlanningThreshold is the threshold the planner compares value deltas
// against. Kinds that carry no threshold plan every non-zero delta.
func (p RebalancePolicy) PlanningThreshold() decimal.Decimal {
	switch p.Kind {
	case PolicyThreshold, PolicyThresholdAndFrequency:
		return p.Threshold
	default:
		return decimal.Zero
	}
}

func (p RebalancePolicy) String() string {
	switch p.Kind {
	case PolicyThreshold:
		return fmt.Sprintf("Threshold(%s)", p.Threshold)
	case PolicyFrequency:
		return fmt.Sprintf("Frequency(%s)", p.Interval)
	case PolicyThresholdAndFrequency:
		return fmt.Sprintf("ThresholdAndFrequency(%s, %s)", p.Threshold, p.Interval)
	default:
		return "None"
	}
}
