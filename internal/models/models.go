// Package models provides domain models for the option-chain analytics engine.
package models

import (
	"time"
)

// OptionType represents the side of an option contract.
type OptionType string

const (
	OptionCE OptionType = "CE"
	OptionPE OptionType = "PE"
)

// TradeSide represents the side of a trade.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// Signal represents a trading signal emitted by the signal engine.
type Signal string

const (
	SignalBuy      Signal = "BUY"
	SignalSell     Signal = "SELL"
	SignalSideways Signal = "SIDEWAYS"
)

// Opposite returns the opposing signal. SIDEWAYS has no opposite.
func (s Signal) Opposite() Signal {
	switch s {
	case SignalBuy:
		return SignalSell
	case SignalSell:
		return SignalBuy
	default:
		return SignalSideways
	}
}

// Trend represents the market bias underlying a signal.
type Trend string

const (
	TrendBullish  Trend = "BULLISH"
	TrendBearish  Trend = "BEARISH"
	TrendSideways Trend = "SIDEWAYS"
)

// MarketStatus represents the current market session status.
type MarketStatus string

const (
	MarketOpen    MarketStatus = "OPEN"
	MarketPreOpen MarketStatus = "PRE_OPEN"
	MarketClosed  MarketStatus = "CLOSED"
)

// OptionSide holds the quoted fields for one side (CE or PE) of a strike.
type OptionSide struct {
	OI       int64
	ChangeOI int64
	LTP      float64
}

// StrikeRow is one strike of a normalized snapshot. A nil CE or PE means the
// source payload carried no contract for that side at this strike.
type StrikeRow struct {
	Strike int64
	Expiry string
	CE     *OptionSide
	PE     *OptionSide
}

// CEOI returns the call open interest, 0 when the side is absent.
func (r StrikeRow) CEOI() int64 {
	if r.CE == nil {
		return 0
	}
	return r.CE.OI
}

// PEOI returns the put open interest, 0 when the side is absent.
func (r StrikeRow) PEOI() int64 {
	if r.PE == nil {
		return 0
	}
	return r.PE.OI
}

// CEChangeOI returns the call OI change, 0 when the side is absent.
func (r StrikeRow) CEChangeOI() int64 {
	if r.CE == nil {
		return 0
	}
	return r.CE.ChangeOI
}

// PEChangeOI returns the put OI change, 0 when the side is absent.
func (r StrikeRow) PEChangeOI() int64 {
	if r.PE == nil {
		return 0
	}
	return r.PE.ChangeOI
}

// Snapshot is a normalized option-chain capture. Rows are sorted ascending by
// strike (then expiry); a multi-expiry source yields one row per strike and
// expiry, and Merged gives the strike-unique view. A Snapshot is immutable
// once produced, each fetch cycle yields a new one. An empty Strikes slice is
// valid and means "no data yet".
type Snapshot struct {
	Symbol        string
	Underlying    float64
	NearestExpiry string
	CapturedAt    time.Time
	Strikes       []StrikeRow
}

// IsEmpty reports whether the snapshot carries no strikes.
func (s *Snapshot) IsEmpty() bool {
	return len(s.Strikes) == 0
}

// Merged collapses multi-expiry rows into one row per strike by summing OI and
// OI change across expiries. The result is unique and ascending by strike;
// strike-level metrics (max pain, crossovers, support/resistance) operate on
// this view. For single-expiry snapshots it is a copy of Strikes.
func (s *Snapshot) Merged() []StrikeRow {
	merged := make([]StrikeRow, 0, len(s.Strikes))
	var last *StrikeRow
	for _, row := range s.Strikes {
		if last != nil && last.Strike == row.Strike {
			if row.CE != nil {
				if last.CE == nil {
					last.CE = &OptionSide{}
				}
				last.CE.OI += row.CE.OI
				last.CE.ChangeOI += row.CE.ChangeOI
				if last.CE.LTP == 0 {
					last.CE.LTP = row.CE.LTP
				}
			}
			if row.PE != nil {
				if last.PE == nil {
					last.PE = &OptionSide{}
				}
				last.PE.OI += row.PE.OI
				last.PE.ChangeOI += row.PE.ChangeOI
				if last.PE.LTP == 0 {
					last.PE.LTP = row.PE.LTP
				}
			}
			continue
		}
		copied := row
		if row.CE != nil {
			ce := *row.CE
			copied.CE = &ce
		}
		if row.PE != nil {
			pe := *row.PE
			copied.PE = &pe
		}
		merged = append(merged, copied)
		last = &merged[len(merged)-1]
	}
	return merged
}

// OITotals returns the snapshot-wide CE and PE open interest sums.
func (s *Snapshot) OITotals() (ceOI, peOI int64) {
	for _, row := range s.Strikes {
		ceOI += row.CEOI()
		peOI += row.PEOI()
	}
	return ceOI, peOI
}

// ChangeOITotals returns the snapshot-wide CE and PE OI change sums.
func (s *Snapshot) ChangeOITotals() (ceChg, peChg int64) {
	for _, row := range s.Strikes {
		ceChg += row.CEChangeOI()
		peChg += row.PEChangeOI()
	}
	return ceChg, peChg
}

// IntradayPoint is one sample of the intraday OI/price time series. Points are
// append-only and belong to exactly one trading day.
type IntradayPoint struct {
	ID              int64
	Timestamp       time.Time
	Account         string
	TradingDay      string
	CEOITotal       int64
	PEOITotal       int64
	UnderlyingPrice float64
}
