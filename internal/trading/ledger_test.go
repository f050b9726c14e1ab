package trading

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"optionchain-trader/internal/config"
	apperrors "optionchain-trader/internal/errors"
	"optionchain-trader/internal/models"
	"optionchain-trader/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestLedger(t *testing.T, allowShort bool) *Ledger {
	t.Helper()
	ledger := NewLedger(LedgerConfig{
		Store: newTestStore(t),
		Trading: config.TradingConfig{
			Account:         "test",
			StartingBalance: 1000000,
			AllowShort:      allowShort,
		},
	})
	if err := ledger.Init(context.Background()); err != nil {
		t.Fatalf("Failed to init ledger: %v", err)
	}
	return ledger
}

func TestLedgerPositionFromBuyAndSell(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t, true)

	if _, err := ledger.RecordTrade(ctx, "NIFTY", 24000, models.OptionCE, models.TradeSideBuy, 10, 100); err != nil {
		t.Fatalf("BUY failed: %v", err)
	}
	if _, err := ledger.RecordTrade(ctx, "NIFTY", 24000, models.OptionCE, models.TradeSideSell, 4, 120); err != nil {
		t.Fatalf("SELL failed: %v", err)
	}

	positions, err := ledger.Positions(ctx)
	if err != nil {
		t.Fatalf("Positions failed: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("got %d positions, want 1", len(positions))
	}

	pos := positions[0]
	if pos.NetQuantity != 6 {
		t.Errorf("net quantity = %d, want 6", pos.NetQuantity)
	}
	if pos.AvgPrice != 100 {
		t.Errorf("avg price = %v, want 100 (BUY legs only)", pos.AvgPrice)
	}
	if pos.Invested != 600 {
		t.Errorf("invested = %v, want 600", pos.Invested)
	}
}

func TestLedgerLoneSellPosition(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t, true)

	if _, err := ledger.RecordTrade(ctx, "NIFTY", 24000, models.OptionPE, models.TradeSideSell, 5, 100); err != nil {
		t.Fatalf("SELL failed: %v", err)
	}

	positions, err := ledger.Positions(ctx)
	if err != nil {
		t.Fatalf("Positions failed: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("got %d positions, want 1", len(positions))
	}

	pos := positions[0]
	if pos.NetQuantity != -5 {
		t.Errorf("net quantity = %d, want -5", pos.NetQuantity)
	}
	if pos.AvgPrice != 0 {
		t.Errorf("avg price = %v, want 0 with no BUY legs", pos.AvgPrice)
	}
	if pos.Invested != 0 {
		t.Errorf("invested = %v, want 0 for a net short", pos.Invested)
	}
}

func TestLedgerBalanceTracking(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t, true)

	ledger.RecordTrade(ctx, "NIFTY", 24000, models.OptionCE, models.TradeSideBuy, 10, 100)
	ledger.RecordTrade(ctx, "NIFTY", 24000, models.OptionCE, models.TradeSideSell, 4, 120)

	balance, err := ledger.Balance(ctx)
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	want := 1000000.0 - 10*100 + 4*120
	if balance != want {
		t.Errorf("balance = %v, want %v", balance, want)
	}
}

func TestLedgerRejectsInvalidTrades(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t, true)

	_, err := ledger.RecordTrade(ctx, "NIFTY", 24000, models.OptionCE, models.TradeSideBuy, 0, 100)
	if !apperrors.Is(err, apperrors.ErrInvalidTrade) {
		t.Errorf("zero quantity: err = %v, want ErrInvalidTrade", err)
	}

	_, err = ledger.RecordTrade(ctx, "NIFTY", 24000, models.OptionCE, models.TradeSideBuy, 10, -5)
	if !apperrors.Is(err, apperrors.ErrInvalidTrade) {
		t.Errorf("negative price: err = %v, want ErrInvalidTrade", err)
	}

	trades, _ := ledger.TradeHistory(ctx, 0)
	if len(trades) != 0 {
		t.Errorf("rejected trades must not be stored, got %d", len(trades))
	}
}

func TestLedgerShortCheck(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t, false)

	_, err := ledger.RecordTrade(ctx, "NIFTY", 24000, models.OptionCE, models.TradeSideSell, 5, 100)
	if !apperrors.Is(err, apperrors.ErrInsufficientPosition) {
		t.Errorf("naked sell: err = %v, want ErrInsufficientPosition", err)
	}

	if _, err := ledger.RecordTrade(ctx, "NIFTY", 24000, models.OptionCE, models.TradeSideBuy, 10, 100); err != nil {
		t.Fatalf("BUY failed: %v", err)
	}
	if _, err := ledger.RecordTrade(ctx, "NIFTY", 24000, models.OptionCE, models.TradeSideSell, 10, 110); err != nil {
		t.Errorf("covered sell rejected: %v", err)
	}
	_, err = ledger.RecordTrade(ctx, "NIFTY", 24000, models.OptionCE, models.TradeSideSell, 1, 110)
	if !apperrors.Is(err, apperrors.ErrInsufficientPosition) {
		t.Errorf("oversell: err = %v, want ErrInsufficientPosition", err)
	}
}

func TestLedgerReset(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t, true)

	ledger.RecordTrade(ctx, "NIFTY", 24000, models.OptionCE, models.TradeSideBuy, 10, 100)
	if err := ledger.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	trades, _ := ledger.TradeHistory(ctx, 0)
	if len(trades) != 0 {
		t.Errorf("trades after reset = %d, want 0", len(trades))
	}
	balance, _ := ledger.Balance(ctx)
	if balance != 1000000 {
		t.Errorf("balance after reset = %v, want starting balance", balance)
	}
}

func TestDerivePositionsOrderInvariance(t *testing.T) {
	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	trades := []models.Trade{
		{Timestamp: base, Symbol: "NIFTY", Strike: 24000, OptionType: models.OptionCE, Side: models.TradeSideBuy, Quantity: 10, Price: 100},
		{Timestamp: base, Symbol: "NIFTY", Strike: 24000, OptionType: models.OptionCE, Side: models.TradeSideSell, Quantity: 4, Price: 120},
		{Timestamp: base, Symbol: "NIFTY", Strike: 24000, OptionType: models.OptionCE, Side: models.TradeSideBuy, Quantity: 2, Price: 130},
		{Timestamp: base, Symbol: "NIFTY", Strike: 24500, OptionType: models.OptionPE, Side: models.TradeSideBuy, Quantity: 5, Price: 80},
	}
	reversed := []models.Trade{trades[3], trades[2], trades[1], trades[0]}

	a := DerivePositions(trades)
	b := DerivePositions(reversed)

	if len(a) != len(b) {
		t.Fatalf("position counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("position %d differs by insertion order: %+v vs %+v", i, a[i], b[i])
		}
	}
	if a[0].NetQuantity != 8 || a[0].AvgPrice != (10*100.0+2*130.0)/12.0 {
		t.Errorf("derived position = %+v", a[0])
	}
}

func TestMarkToMarketAbsentPrice(t *testing.T) {
	positions := []models.Position{
		{Symbol: "NIFTY", Strike: 24000, OptionType: models.OptionCE, NetQuantity: 6, AvgPrice: 100},
		{Symbol: "NIFTY", Strike: 24500, OptionType: models.OptionPE, NetQuantity: 2, AvgPrice: 50},
	}
	latest := map[models.PriceKey]float64{
		{Strike: 24000, OptionType: models.OptionCE}: 110,
	}

	marked := MarkToMarket(positions, latest)

	if marked[0].MTM != 60 {
		t.Errorf("MTM = %v, want 60", marked[0].MTM)
	}
	if marked[0].PnLPercent != 10 {
		t.Errorf("PnL%% = %v, want 10", marked[0].PnLPercent)
	}

	// Contract absent from the chain marks at zero.
	if marked[1].LTP != 0 {
		t.Errorf("absent LTP = %v, want 0", marked[1].LTP)
	}
	if marked[1].MTM != -100 {
		t.Errorf("absent MTM = %v, want -100", marked[1].MTM)
	}
}

func TestLatestPrices(t *testing.T) {
	snap := &models.Snapshot{
		Symbol: "NIFTY",
		Strikes: []models.StrikeRow{
			{Strike: 24000, CE: &models.OptionSide{OI: 10, LTP: 55.5}, PE: &models.OptionSide{OI: 20, LTP: 60}},
			{Strike: 24100, CE: &models.OptionSide{OI: 5}}, // zero LTP, skipped
		},
	}

	latest := LatestPrices(snap)
	if len(latest) != 2 {
		t.Fatalf("got %d quotes, want 2", len(latest))
	}
	if latest[models.PriceKey{Strike: 24000, OptionType: models.OptionCE}] != 55.5 {
		t.Errorf("CE quote missing: %v", latest)
	}
	if latest[models.PriceKey{Strike: 24000, OptionType: models.OptionPE}] != 60 {
		t.Errorf("PE quote missing: %v", latest)
	}
}
