package portfolio

import "github.com/markhallen/portfoliopro/internal/models"

// Valuation is the live-price view of a holding's metrics.
type Valuation struct {
	CurrentPrice          int64
	PriceEstimated        bool // no live quote; average cost substituted
	CurrentValue          int64
	UnrealisedGain        int64
	UnrealisedGainPercent float64
}

// ComposeValuation combines holding metrics with a live price. When no live
// quote exists the average price substitutes for it: current value collapses
// to cost base and the unrealised gain to zero. That degrade is deliberate
// policy, not an error.
func ComposeValuation(metrics models.HoldingMetrics, livePrice int64, haveLive bool) Valuation {
	v := Valuation{CurrentPrice: livePrice}
	if !haveLive {
		v.CurrentPrice = metrics.AveragePrice
		v.PriceEstimated = true
	}

	v.CurrentValue = metrics.Units * v.CurrentPrice
	v.UnrealisedGain = v.CurrentValue - metrics.CostBase
	if metrics.CostBase > 0 {
		v.UnrealisedGainPercent = float64(v.UnrealisedGain) / float64(metrics.CostBase) * 100
	}
	return v
}

// ComposeTotals sums cost base and current value across holdings and derives
// the aggregate gain percentage from the sums. Percentages are never summed
// directly; that would weight every holding equally.
func ComposeTotals(holdings []models.HoldingView) (costBase, value, gain int64, gainPercent float64) {
	for _, h := range holdings {
		costBase += h.CostBase
		value += h.CurrentValue
	}
	gain = value - costBase
	if costBase > 0 {
		gainPercent = float64(gain) / float64(costBase) * 100
	}
	return costBase, value, gain, gainPercent
}
