// Package signal classifies market bias from snapshot metrics.
package signal

import (
	"fmt"

	"optionchain-trader/internal/config"
	"optionchain-trader/internal/models"
)

// Inputs are the values a strategy evaluates. They fully determine the
// result; strategies hold no state between ticks.
type Inputs struct {
	Underlying    float64
	PrevClose     float64
	CEChangeTotal int64
	PEChangeTotal int64
	PCR           models.Ratio
}

// Result is one signal evaluation.
type Result struct {
	Signal models.Signal
	Trend  models.Trend
	Note   string
}

// Strategy evaluates inputs into a trading signal.
type Strategy interface {
	Name() string
	Evaluate(in Inputs) Result
}

// ForRule returns the strategy selected by the pcr_rule config option.
func ForRule(rule string) (Strategy, error) {
	switch rule {
	case config.PCRRulePriceAndDeltaOI:
		return PriceDeltaOIStrategy{}, nil
	case config.PCRRuleSimpleThreshold:
		return SimpleThresholdStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown pcr_rule: %s", rule)
	}
}

func trendFor(sig models.Signal) models.Trend {
	switch sig {
	case models.SignalBuy:
		return models.TrendBullish
	case models.SignalSell:
		return models.TrendBearish
	default:
		return models.TrendSideways
	}
}

// PriceDeltaOIStrategy is the richer classifier combining price versus
// previous close, snapshot-wide OI change sums and the put-call ratio.
// Rules are evaluated in order, first match wins:
//
//  1. price up, put writing (ΔPE>0, ΔCE<=0) and PCR > 0.9  -> BUY
//  2. price down, call writing (ΔCE>0, ΔPE<=0) and PCR < 1.1 -> SELL
//  3. put OI building without price confirmation            -> SELL ("SELL PE")
//  4. call OI building without price confirmation           -> BUY ("SELL CE")
//  5. otherwise                                             -> SIDEWAYS
//
// An infinite PCR satisfies any greater-than threshold; an undefined PCR
// satisfies neither threshold, so rules 1 and 2 cannot fire on a dead chain.
type PriceDeltaOIStrategy struct{}

// Name returns the config name of the strategy.
func (PriceDeltaOIStrategy) Name() string { return config.PCRRulePriceAndDeltaOI }

// Evaluate applies the ordered rule set.
func (PriceDeltaOIStrategy) Evaluate(in Inputs) Result {
	peBuilding := in.PEChangeTotal > 0 && in.CEChangeTotal <= 0
	ceBuilding := in.CEChangeTotal > 0 && in.PEChangeTotal <= 0

	switch {
	case in.Underlying > in.PrevClose && peBuilding && in.PCR.GreaterThan(0.9):
		return Result{Signal: models.SignalBuy, Trend: models.TrendBullish}
	case in.Underlying < in.PrevClose && ceBuilding && in.PCR.LessThan(1.1):
		return Result{Signal: models.SignalSell, Trend: models.TrendBearish}
	case peBuilding:
		return Result{Signal: models.SignalSell, Trend: models.TrendBearish, Note: "SELL PE"}
	case ceBuilding:
		return Result{Signal: models.SignalBuy, Trend: models.TrendBullish, Note: "SELL CE"}
	default:
		return Result{Signal: models.SignalSideways, Trend: models.TrendSideways}
	}
}

// SimpleThresholdStrategy is the plain PCR threshold rule: PCR >= 1 is
// bullish, anything below is bearish. Price and OI deltas are ignored. An
// undefined PCR (no open interest at all) yields SIDEWAYS. It is kept as a
// separate, selectable strategy rather than folded into the richer rule.
type SimpleThresholdStrategy struct{}

// Name returns the config name of the strategy.
func (SimpleThresholdStrategy) Name() string { return config.PCRRuleSimpleThreshold }

// Evaluate applies the threshold rule.
func (SimpleThresholdStrategy) Evaluate(in Inputs) Result {
	if in.PCR.IsUndefined() {
		return Result{Signal: models.SignalSideways, Trend: models.TrendSideways}
	}
	if in.PCR.AtLeast(1) {
		return Result{Signal: models.SignalBuy, Trend: models.TrendBullish}
	}
	return Result{Signal: models.SignalSell, Trend: models.TrendBearish}
}
