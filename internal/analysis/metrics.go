// Package analysis computes aggregate risk metrics from option-chain snapshots.
package analysis

import (
	"optionchain-trader/internal/models"
)

// Engine computes snapshot metrics. All computations are pure functions of
// the snapshot; the engine carries only configuration.
type Engine struct {
	k                  int
	crossoverThreshold float64
}

// NewEngine creates a metrics engine. k is the number of support/resistance
// strikes reported; threshold drives the near-crossover OI ratio detector.
func NewEngine(k int, threshold float64) *Engine {
	if k <= 0 {
		k = 3
	}
	return &Engine{k: k, crossoverThreshold: threshold}
}

// Compute derives the full metrics set from one snapshot. An empty snapshot
// yields "unavailable" metrics: undefined ratios, zero max pain and empty
// level lists. It is never an error.
func (e *Engine) Compute(snap *models.Snapshot) models.Metrics {
	ceOI, peOI := snap.OITotals()
	ceChg, peChg := snap.ChangeOITotals()
	merged := snap.Merged()

	m := models.Metrics{
		Symbol:        snap.Symbol,
		PCR:           models.NewRatio(peOI, ceOI),
		NearExpiryPCR: NearExpiryPCR(snap),
		MaxPainStrike: MaxPain(merged),
		CEOITotal:     ceOI,
		PEOITotal:     peOI,
		CEChangeTotal: ceChg,
		PEChangeTotal: peChg,
		Underlying:    snap.Underlying,
	}
	m.Support, m.Resistance = SupportResistance(merged, e.k)
	m.Crossovers = Crossovers(merged)
	m.NearCrossovers = NearCrossovers(merged, e.crossoverThreshold)
	return m
}

// PCR returns the snapshot-wide put-call ratio.
func PCR(snap *models.Snapshot) models.Ratio {
	ceOI, peOI := snap.OITotals()
	return models.NewRatio(peOI, ceOI)
}

// NearExpiryPCR returns the put-call ratio restricted to rows of the nearest
// expiry. On single-expiry sources where rows carry no expiry attribute it
// degrades to the full-snapshot ratio.
func NearExpiryPCR(snap *models.Snapshot) models.Ratio {
	var ceOI, peOI int64
	for _, row := range snap.Strikes {
		if row.Expiry != "" && row.Expiry != snap.NearestExpiry {
			continue
		}
		ceOI += row.CEOI()
		peOI += row.PEOI()
	}
	return models.NewRatio(peOI, ceOI)
}
