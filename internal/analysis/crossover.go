package analysis

import "optionchain-trader/internal/models"

// Crossovers walks the strike-unique ascending view and reports where the
// CE-PE open interest difference touches or crosses zero.
//
// A strike with diff == 0 emits one EQUAL event. An adjacent pair whose
// diffs have strictly opposite signs emits one SIGN_CHANGE event. The strict
// product test diff(i-1)*diff(i) < 0 means a zero touch never also counts as
// a sign change on either side, so the fixture [+5, 0, -3] yields exactly one
// EQUAL and nothing else.
//
// The walk assumes rows are already sorted; the parser guarantees that for
// every snapshot view.
func Crossovers(rows []models.StrikeRow) []models.CrossoverEvent {
	var events []models.CrossoverEvent
	var prevDiff int64
	for i, row := range rows {
		diff := row.CEOI() - row.PEOI()
		if diff == 0 {
			events = append(events, models.CrossoverEvent{
				Kind:   models.CrossoverEqual,
				Strike: row.Strike,
			})
		} else if i > 0 && prevDiff*diff < 0 {
			events = append(events, models.CrossoverEvent{
				Kind:       models.CrossoverSignChange,
				LowStrike:  rows[i-1].Strike,
				HighStrike: row.Strike,
			})
		}
		prevDiff = diff
	}
	return events
}

// NearCrossovers is the alternate ratio-based detector: it reports strikes
// where CE and PE open interest are within threshold of each other, i.e.
// |ce-pe| <= threshold*max(ce,pe) with both sides present. A threshold of 0
// reduces it to exact equality on strikes with open interest.
func NearCrossovers(rows []models.StrikeRow, threshold float64) []int64 {
	var strikes []int64
	for _, row := range rows {
		ce, pe := row.CEOI(), row.PEOI()
		if ce <= 0 || pe <= 0 {
			continue
		}
		max := ce
		if pe > max {
			max = pe
		}
		diff := ce - pe
		if diff < 0 {
			diff = -diff
		}
		if float64(diff) <= threshold*float64(max) {
			strikes = append(strikes, row.Strike)
		}
	}
	return strikes
}
