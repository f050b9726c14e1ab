package analysis

import "optionchain-trader/internal/models"

// MaxPain returns the strike minimizing the aggregate option-writer payout at
// expiry. rows must be the strike-unique view of a snapshot.
//
// For each candidate strike s the pain is
//
//	pain(s) = sum over all strikes x of
//	          max(x-s, 0)*ceOI(x) + max(s-x, 0)*peOI(x)
//
// and the result is the s with the minimum pain. The scan is O(n²) in the
// strike count, which is fine at the tens of strikes a chain carries. Note
// this is the full payout minimisation, not the O(n) cumulative-OI sweep some
// sources use; the sweep answers a different question and does not in general
// land on the same strike.
//
// Ties resolve to the lowest strike regardless of row order, so the result
// is invariant under reordering of rows. Returns 0 for an empty view.
func MaxPain(rows []models.StrikeRow) int64 {
	if len(rows) == 0 {
		return 0
	}

	best := rows[0].Strike
	bestPain := int64(-1)
	for _, candidate := range rows {
		s := candidate.Strike
		var pain int64
		for _, x := range rows {
			if x.Strike > s {
				pain += (x.Strike - s) * x.CEOI()
			} else if x.Strike < s {
				pain += (s - x.Strike) * x.PEOI()
			}
		}
		if bestPain < 0 || pain < bestPain || (pain == bestPain && s < best) {
			best = s
			bestPain = pain
		}
	}
	return best
}
