package models

import "time"

// Trade is one immutable row of the paper-trading ledger. The ID is assigned
// by the store and is monotonic within an account.
type Trade struct {
	ID         int64
	Timestamp  time.Time
	Account    string
	Symbol     string
	Strike     int64
	OptionType OptionType
	Side       TradeSide
	Quantity   int
	Price      float64
}

// SignedQuantity returns the quantity with BUY positive and SELL negative.
func (t Trade) SignedQuantity() int {
	if t.Side == TradeSideSell {
		return -t.Quantity
	}
	return t.Quantity
}

// PriceKey identifies a contract for latest-price lookups.
type PriceKey struct {
	Strike     int64
	OptionType OptionType
}

// Position is the derived view of all trades sharing one
// (symbol, strike, option type) key. It is recomputed from the trade history
// and never stored.
type Position struct {
	Symbol      string
	Strike      int64
	OptionType  OptionType
	NetQuantity int
	AvgPrice    float64
	Invested    float64
	LTP         float64
	MTM         float64
	PnLPercent  float64
}

// Key returns the price lookup key for the position's contract.
func (p Position) Key() PriceKey {
	return PriceKey{Strike: p.Strike, OptionType: p.OptionType}
}

// OpenTradeStatus is the lifecycle status of an auto-managed paper trade.
type OpenTradeStatus string

const (
	OpenTradeActive OpenTradeStatus = "ACTIVE"
	OpenTradeClosed OpenTradeStatus = "CLOSED"
)

// OpenTrade is a paper-trading lifecycle record owned by the trade lifecycle
// controller. At most one ACTIVE record exists per (account, symbol).
type OpenTrade struct {
	ID          string
	Account     string
	Symbol      string
	EntrySignal Signal
	EntryPrice  float64
	EntryTime   time.Time
	Status      OpenTradeStatus
	ExitTime    *time.Time
	ExitPrice   float64
	RealizedPnL float64
}

// Direction returns +1 for a BUY entry and -1 for a SELL entry.
func (o OpenTrade) Direction() float64 {
	if o.EntrySignal == SignalSell {
		return -1
	}
	return 1
}

// UnrealizedPnL values the open trade at the given mark price.
func (o OpenTrade) UnrealizedPnL(mark float64) float64 {
	return (mark - o.EntryPrice) * o.Direction()
}
