// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "optionchain-trader/internal/errors"
	"optionchain-trader/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Ledger trades: append-only, id is monotonic per the AUTOINCREMENT rowid
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts DATETIME NOT NULL,
		account TEXT NOT NULL,
		symbol TEXT NOT NULL,
		strike INTEGER NOT NULL,
		opt_type TEXT NOT NULL CHECK (opt_type IN ('CE', 'PE')),
		side TEXT NOT NULL CHECK (side IN ('BUY', 'SELL')),
		qty INTEGER NOT NULL CHECK (qty > 0),
		price REAL NOT NULL CHECK (price > 0),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Intraday OI samples, scoped to a trading day
	CREATE TABLE IF NOT EXISTS oi_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts DATETIME NOT NULL,
		account TEXT NOT NULL,
		trading_day TEXT NOT NULL,
		ce_oi INTEGER NOT NULL,
		pe_oi INTEGER NOT NULL,
		underlying_price REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Paper-trade lifecycle records
	CREATE TABLE IF NOT EXISTS open_trades (
		id TEXT PRIMARY KEY,
		account TEXT NOT NULL,
		symbol TEXT NOT NULL,
		entry_signal TEXT NOT NULL CHECK (entry_signal IN ('BUY', 'SELL')),
		entry_price REAL NOT NULL,
		entry_time DATETIME NOT NULL,
		status TEXT NOT NULL DEFAULT 'ACTIVE' CHECK (status IN ('ACTIVE', 'CLOSED')),
		exit_time DATETIME,
		exit_price REAL,
		realized_pnl REAL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Simulated cash balances
	CREATE TABLE IF NOT EXISTS balances (
		account TEXT PRIMARY KEY,
		cash REAL NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_trades_account_symbol ON trades(account, symbol);
	CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(ts);
	CREATE INDEX IF NOT EXISTS idx_oi_snapshots_day ON oi_snapshots(account, trading_day);
	CREATE INDEX IF NOT EXISTS idx_open_trades_account ON open_trades(account, symbol);
	-- At most one ACTIVE lifecycle record per (account, symbol)
	CREATE UNIQUE INDEX IF NOT EXISTS idx_open_trades_active
		ON open_trades(account, symbol) WHERE status = 'ACTIVE';
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Trade Methods
// ============================================================================

// SaveTrade appends a trade and returns its assigned monotonic id.
func (s *SQLiteStore) SaveTrade(ctx context.Context, trade *models.Trade) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (ts, account, symbol, strike, opt_type, side, qty, price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, trade.Timestamp, trade.Account, trade.Symbol, trade.Strike, trade.OptionType, trade.Side, trade.Quantity, trade.Price)
	if err != nil {
		return 0, fmt.Errorf("failed to save trade: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read trade id: %w", err)
	}
	return id, nil
}

// GetTrades retrieves trades matching the filter, oldest first.
func (s *SQLiteStore) GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error) {
	query := "SELECT id, ts, account, symbol, strike, opt_type, side, qty, price FROM trades WHERE 1=1"
	args := []interface{}{}

	if filter.Account != "" {
		query += " AND account = ?"
		args = append(args, filter.Account)
	}
	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.Side != "" {
		query += " AND side = ?"
		args = append(args, filter.Side)
	}
	if !filter.StartDate.IsZero() {
		query += " AND ts >= ?"
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query += " AND ts <= ?"
		args = append(args, filter.EndDate)
	}
	query += " ORDER BY id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		if err := rows.Scan(&t.ID, &t.Timestamp, &t.Account, &t.Symbol, &t.Strike, &t.OptionType, &t.Side, &t.Quantity, &t.Price); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}

// DeleteTrades removes all trades for an account.
func (s *SQLiteStore) DeleteTrades(ctx context.Context, account string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM trades WHERE account = ?", account)
	if err != nil {
		return fmt.Errorf("failed to delete trades: %w", err)
	}
	return nil
}

// ============================================================================
// Intraday Series Methods
// ============================================================================

// SaveIntradayPoint appends one intraday OI sample.
func (s *SQLiteStore) SaveIntradayPoint(ctx context.Context, point *models.IntradayPoint) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO oi_snapshots (ts, account, trading_day, ce_oi, pe_oi, underlying_price)
		VALUES (?, ?, ?, ?, ?, ?)
	`, point.Timestamp, point.Account, point.TradingDay, point.CEOITotal, point.PEOITotal, point.UnderlyingPrice)
	if err != nil {
		return fmt.Errorf("failed to save intraday point: %w", err)
	}
	return nil
}

// LastIntradayPoint returns the most recent sample of a trading day, or nil
// when the day has none.
func (s *SQLiteStore) LastIntradayPoint(ctx context.Context, account, tradingDay string) (*models.IntradayPoint, error) {
	var p models.IntradayPoint
	err := s.db.QueryRowContext(ctx, `
		SELECT id, ts, account, trading_day, ce_oi, pe_oi, underlying_price
		FROM oi_snapshots
		WHERE account = ? AND trading_day = ?
		ORDER BY ts DESC LIMIT 1
	`, account, tradingDay).Scan(&p.ID, &p.Timestamp, &p.Account, &p.TradingDay, &p.CEOITotal, &p.PEOITotal, &p.UnderlyingPrice)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last intraday point: %w", err)
	}
	return &p, nil
}

// GetIntradaySeries returns a trading day's samples in append order.
func (s *SQLiteStore) GetIntradaySeries(ctx context.Context, account, tradingDay string) ([]models.IntradayPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, account, trading_day, ce_oi, pe_oi, underlying_price
		FROM oi_snapshots
		WHERE account = ? AND trading_day = ?
		ORDER BY ts ASC
	`, account, tradingDay)
	if err != nil {
		return nil, fmt.Errorf("failed to query intraday series: %w", err)
	}
	defer rows.Close()

	var points []models.IntradayPoint
	for rows.Next() {
		var p models.IntradayPoint
		if err := rows.Scan(&p.ID, &p.Timestamp, &p.Account, &p.TradingDay, &p.CEOITotal, &p.PEOITotal, &p.UnderlyingPrice); err != nil {
			return nil, fmt.Errorf("failed to scan intraday point: %w", err)
		}
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating intraday series: %w", err)
	}

	return points, nil
}

// ============================================================================
// Open Trade Methods
// ============================================================================

// SaveOpenTrade inserts a lifecycle record. The partial unique index rejects
// a second ACTIVE record for the same (account, symbol).
func (s *SQLiteStore) SaveOpenTrade(ctx context.Context, trade *models.OpenTrade) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO open_trades (id, account, symbol, entry_signal, entry_price, entry_time, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, trade.ID, trade.Account, trade.Symbol, trade.EntrySignal, trade.EntryPrice, trade.EntryTime, trade.Status)
	if err != nil {
		return fmt.Errorf("failed to save open trade: %w", err)
	}
	return nil
}

// CloseOpenTrade marks a lifecycle record CLOSED with its exit valuation.
func (s *SQLiteStore) CloseOpenTrade(ctx context.Context, id string, exitTime time.Time, exitPrice, realizedPnL float64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE open_trades
		SET status = 'CLOSED', exit_time = ?, exit_price = ?, realized_pnl = ?
		WHERE id = ? AND status = 'ACTIVE'
	`, exitTime, exitPrice, realizedPnL, id)
	if err != nil {
		return fmt.Errorf("failed to close open trade: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read close result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("open trade %s not found or not active", id)
	}
	return nil
}

// GetActiveOpenTrade returns the ACTIVE record for (account, symbol), or nil
// when there is none.
func (s *SQLiteStore) GetActiveOpenTrade(ctx context.Context, account, symbol string) (*models.OpenTrade, error) {
	var t models.OpenTrade
	var exitTime sql.NullTime
	var exitPrice, realized sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, account, symbol, entry_signal, entry_price, entry_time, status, exit_time, exit_price, realized_pnl
		FROM open_trades
		WHERE account = ? AND symbol = ? AND status = 'ACTIVE'
	`, account, symbol).Scan(&t.ID, &t.Account, &t.Symbol, &t.EntrySignal, &t.EntryPrice, &t.EntryTime, &t.Status, &exitTime, &exitPrice, &realized)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query active open trade: %w", err)
	}
	applyExitFields(&t, exitTime, exitPrice, realized)
	return &t, nil
}

// GetOpenTrades retrieves lifecycle records matching the filter, newest first.
func (s *SQLiteStore) GetOpenTrades(ctx context.Context, filter OpenTradeFilter) ([]models.OpenTrade, error) {
	query := `SELECT id, account, symbol, entry_signal, entry_price, entry_time, status, exit_time, exit_price, realized_pnl
		FROM open_trades WHERE 1=1`
	args := []interface{}{}

	if filter.Account != "" {
		query += " AND account = ?"
		args = append(args, filter.Account)
	}
	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY entry_time DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query open trades: %w", err)
	}
	defer rows.Close()

	var trades []models.OpenTrade
	for rows.Next() {
		var t models.OpenTrade
		var exitTime sql.NullTime
		var exitPrice, realized sql.NullFloat64
		if err := rows.Scan(&t.ID, &t.Account, &t.Symbol, &t.EntrySignal, &t.EntryPrice, &t.EntryTime, &t.Status, &exitTime, &exitPrice, &realized); err != nil {
			return nil, fmt.Errorf("failed to scan open trade: %w", err)
		}
		applyExitFields(&t, exitTime, exitPrice, realized)
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating open trades: %w", err)
	}

	return trades, nil
}

// CloseOpenTradesForAccount force-closes every ACTIVE record of an account at
// its entry price (zero realized PnL). Used by ledger reset.
func (s *SQLiteStore) CloseOpenTradesForAccount(ctx context.Context, account string, exitTime time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE open_trades
		SET status = 'CLOSED', exit_time = ?, exit_price = entry_price, realized_pnl = 0
		WHERE account = ? AND status = 'ACTIVE'
	`, exitTime, account)
	if err != nil {
		return fmt.Errorf("failed to close open trades: %w", err)
	}
	return nil
}

func applyExitFields(t *models.OpenTrade, exitTime sql.NullTime, exitPrice, realized sql.NullFloat64) {
	if exitTime.Valid {
		et := exitTime.Time
		t.ExitTime = &et
	}
	if exitPrice.Valid {
		t.ExitPrice = exitPrice.Float64
	}
	if realized.Valid {
		t.RealizedPnL = realized.Float64
	}
}

// ============================================================================
// Balance Methods
// ============================================================================

// GetBalance returns an account's cash balance. The bool reports whether the
// account has a balance row at all.
func (s *SQLiteStore) GetBalance(ctx context.Context, account string) (float64, bool, error) {
	var cash float64
	err := s.db.QueryRowContext(ctx, "SELECT cash FROM balances WHERE account = ?", account).Scan(&cash)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query balance: %w", err)
	}
	return cash, true, nil
}

// SetBalance sets an account's cash balance.
func (s *SQLiteStore) SetBalance(ctx context.Context, account string, cash float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO balances (account, cash, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(account) DO UPDATE SET cash = excluded.cash, updated_at = CURRENT_TIMESTAMP
	`, account, cash)
	if err != nil {
		return fmt.Errorf("failed to set balance: %w", err)
	}
	return nil
}

// AdjustBalance applies a signed delta to an account's cash balance. The
// account must have been seeded with SetBalance first; adjusting an unseen
// account is an error rather than an implicit seed at the bare delta.
func (s *SQLiteStore) AdjustBalance(ctx context.Context, account string, delta float64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE balances SET cash = cash + ?, updated_at = CURRENT_TIMESTAMP WHERE account = ?
	`, delta, account)
	if err != nil {
		return fmt.Errorf("failed to adjust balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read adjust result: %w", err)
	}
	if n == 0 {
		return apperrors.NewDataError("balance", account, "account has no balance row", apperrors.ErrDataNotFound)
	}
	return nil
}

// Ensure SQLiteStore implements DataStore
var _ DataStore = (*SQLiteStore)(nil)
