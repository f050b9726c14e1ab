// Package trading provides the paper-trading ledger, the intraday recorder
// and the trade lifecycle controller.
package trading

import (
	"context"
	"sort"
	"sync"
	"time"

	"optionchain-trader/internal/config"
	"optionchain-trader/internal/errors"
	"optionchain-trader/internal/models"
	"optionchain-trader/internal/store"
)

// Ledger is the append-only paper-trading trade log for one account, with a
// derived position view. Writes are serialized per account.
type Ledger struct {
	store           store.DataStore
	account         string
	startingBalance float64
	allowShort      bool
	now             func() time.Time

	mu sync.Mutex
}

// LedgerConfig holds configuration for the ledger.
type LedgerConfig struct {
	Store   store.DataStore
	Trading config.TradingConfig
	Now     func() time.Time
}

// NewLedger creates a ledger for the configured account.
func NewLedger(cfg LedgerConfig) *Ledger {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Ledger{
		store:           cfg.Store,
		account:         cfg.Trading.Account,
		startingBalance: cfg.Trading.StartingBalance,
		allowShort:      cfg.Trading.AllowShort,
		now:             now,
	}
}

// Account returns the ledger's account name.
func (l *Ledger) Account() string {
	return l.account
}

// Init seeds the account's cash balance if the account is new.
func (l *Ledger) Init(ctx context.Context) error {
	_, exists, err := l.store.GetBalance(ctx, l.account)
	if err != nil {
		return err
	}
	if !exists {
		return l.store.SetBalance(ctx, l.account, l.startingBalance)
	}
	return nil
}

// RecordTrade validates and appends a trade, returning the stored row.
//
// Quantity and price must be positive; anything else is rejected before any
// write. When allow_short is disabled, a SELL that would push the contract's
// net quantity negative is rejected with ErrInsufficientPosition. With
// allow_short enabled (the default) sells are unchecked, matching the
// unvalidated inserts this ledger models.
func (l *Ledger) RecordTrade(ctx context.Context, symbol string, strike int64, optType models.OptionType, side models.TradeSide, quantity int, price float64) (*models.Trade, error) {
	if quantity <= 0 {
		return nil, errors.NewValidationError("quantity", quantity, "must be positive")
	}
	if price <= 0 {
		return nil, errors.NewValidationError("price", price, "must be positive")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.allowShort && side == models.TradeSideSell {
		net, err := l.netQuantity(ctx, symbol, strike, optType)
		if err != nil {
			return nil, err
		}
		if quantity > net {
			return nil, errors.NewTradeError(l.account, symbol, "SELL",
				"sell exceeds net long position", errors.ErrInsufficientPosition)
		}
	}

	trade := &models.Trade{
		Timestamp:  l.now(),
		Account:    l.account,
		Symbol:     symbol,
		Strike:     strike,
		OptionType: optType,
		Side:       side,
		Quantity:   quantity,
		Price:      price,
	}

	id, err := l.store.SaveTrade(ctx, trade)
	if err != nil {
		return nil, errors.Wrap(err, "recording trade")
	}
	trade.ID = id

	delta := -price * float64(quantity)
	if side == models.TradeSideSell {
		delta = -delta
	}
	if err := l.store.AdjustBalance(ctx, l.account, delta); err != nil {
		return nil, errors.Wrap(err, "adjusting balance")
	}

	return trade, nil
}

// Positions recomputes the derived position view from the full trade history.
// Results are grouped by (symbol, strike, option type) and sorted by that key
// so the view is deterministic regardless of trade insertion order.
func (l *Ledger) Positions(ctx context.Context) ([]models.Position, error) {
	trades, err := l.store.GetTrades(ctx, store.TradeFilter{Account: l.account})
	if err != nil {
		return nil, errors.Wrap(err, "loading trades")
	}
	return DerivePositions(trades), nil
}

// TradeHistory returns the most recent trades, oldest first, up to limit.
func (l *Ledger) TradeHistory(ctx context.Context, limit int) ([]models.Trade, error) {
	trades, err := l.store.GetTrades(ctx, store.TradeFilter{Account: l.account})
	if err != nil {
		return nil, errors.Wrap(err, "loading trades")
	}
	if limit > 0 && len(trades) > limit {
		trades = trades[len(trades)-limit:]
	}
	return trades, nil
}

// Balance returns the account's current cash balance.
func (l *Ledger) Balance(ctx context.Context) (float64, error) {
	cash, exists, err := l.store.GetBalance(ctx, l.account)
	if err != nil {
		return 0, err
	}
	if !exists {
		return l.startingBalance, nil
	}
	return cash, nil
}

// Reset deletes the account's trades, force-closes its lifecycle records and
// restores the configured starting balance.
func (l *Ledger) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.DeleteTrades(ctx, l.account); err != nil {
		return errors.Wrap(err, "resetting trades")
	}
	if err := l.store.CloseOpenTradesForAccount(ctx, l.account, l.now()); err != nil {
		return errors.Wrap(err, "closing open trades")
	}
	return l.store.SetBalance(ctx, l.account, l.startingBalance)
}

func (l *Ledger) netQuantity(ctx context.Context, symbol string, strike int64, optType models.OptionType) (int, error) {
	trades, err := l.store.GetTrades(ctx, store.TradeFilter{Account: l.account, Symbol: symbol})
	if err != nil {
		return 0, errors.Wrap(err, "loading trades")
	}
	net := 0
	for _, t := range trades {
		if t.Strike == strike && t.OptionType == optType {
			net += t.SignedQuantity()
		}
	}
	return net, nil
}

type positionKey struct {
	Symbol     string
	Strike     int64
	OptionType models.OptionType
}

// DerivePositions folds a trade history into positions.
//
// Net quantity is the signed sum of quantities. Average price weights only
// BUY legs; SELL legs reduce quantity but never revise the recorded cost of
// the long exposure, so a key with no BUY volume has average price 0.
// Invested is avg price times the net quantity clipped to zero.
func DerivePositions(trades []models.Trade) []models.Position {
	type acc struct {
		net       int
		buyQty    int
		buyAmount float64
	}
	groups := make(map[positionKey]*acc)
	var order []positionKey

	for _, t := range trades {
		key := positionKey{Symbol: t.Symbol, Strike: t.Strike, OptionType: t.OptionType}
		g, ok := groups[key]
		if !ok {
			g = &acc{}
			groups[key] = g
			order = append(order, key)
		}
		g.net += t.SignedQuantity()
		if t.Side == models.TradeSideBuy {
			g.buyQty += t.Quantity
			g.buyAmount += t.Price * float64(t.Quantity)
		}
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].Symbol != order[j].Symbol {
			return order[i].Symbol < order[j].Symbol
		}
		if order[i].Strike != order[j].Strike {
			return order[i].Strike < order[j].Strike
		}
		return order[i].OptionType < order[j].OptionType
	})

	positions := make([]models.Position, 0, len(order))
	for _, key := range order {
		g := groups[key]
		pos := models.Position{
			Symbol:      key.Symbol,
			Strike:      key.Strike,
			OptionType:  key.OptionType,
			NetQuantity: g.net,
		}
		if g.buyQty > 0 {
			pos.AvgPrice = g.buyAmount / float64(g.buyQty)
		}
		if g.net > 0 {
			pos.Invested = pos.AvgPrice * float64(g.net)
		}
		positions = append(positions, pos)
	}
	return positions
}

// MarkToMarket values positions at the latest known prices. A missing quote
// marks the contract at 0 rather than failing the whole view.
func MarkToMarket(positions []models.Position, latest map[models.PriceKey]float64) []models.Position {
	marked := make([]models.Position, len(positions))
	for i, pos := range positions {
		ltp := latest[pos.Key()]
		pos.LTP = ltp
		pos.MTM = (ltp - pos.AvgPrice) * float64(pos.NetQuantity)
		if pos.AvgPrice != 0 {
			pos.PnLPercent = (ltp - pos.AvgPrice) / pos.AvgPrice * 100
		}
		marked[i] = pos
	}
	return marked
}

// LatestPrices extracts a price lookup table from a snapshot's strike rows.
func LatestPrices(snap *models.Snapshot) map[models.PriceKey]float64 {
	latest := make(map[models.PriceKey]float64)
	for _, row := range snap.Merged() {
		if row.CE != nil && row.CE.LTP > 0 {
			latest[models.PriceKey{Strike: row.Strike, OptionType: models.OptionCE}] = row.CE.LTP
		}
		if row.PE != nil && row.PE.LTP > 0 {
			latest[models.PriceKey{Strike: row.Strike, OptionType: models.OptionPE}] = row.PE.LTP
		}
	}
	return latest
}
