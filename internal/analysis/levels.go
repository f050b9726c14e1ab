package analysis

import (
	"sort"

	"optionchain-trader/internal/models"
)

// SupportResistance returns the top-k strikes by PE OI (support) and by CE OI
// (resistance). rows must be the strike-unique ascending view of a snapshot.
// Ties break toward the lower strike so results are deterministic.
func SupportResistance(rows []models.StrikeRow, k int) (support, resistance []int64) {
	if len(rows) == 0 || k <= 0 {
		return nil, nil
	}

	support = topStrikes(rows, k, models.StrikeRow.PEOI)
	resistance = topStrikes(rows, k, models.StrikeRow.CEOI)
	return support, resistance
}

func topStrikes(rows []models.StrikeRow, k int, oi func(models.StrikeRow) int64) []int64 {
	ranked := make([]models.StrikeRow, len(rows))
	copy(ranked, rows)

	// Stable sort over the ascending input keeps equal-OI strikes in
	// ascending strike order.
	sort.SliceStable(ranked, func(i, j int) bool {
		return oi(ranked[i]) > oi(ranked[j])
	})

	if k > len(ranked) {
		k = len(ranked)
	}
	strikes := make([]int64, 0, k)
	for _, row := range ranked[:k] {
		strikes = append(strikes, row.Strike)
	}
	return strikes
}
