// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"optionchain-trader/internal/models"
)

// DataStore defines the interface for data persistence.
type DataStore interface {
	// Ledger trades
	SaveTrade(ctx context.Context, trade *models.Trade) (int64, error)
	GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error)
	DeleteTrades(ctx context.Context, account string) error

	// Intraday OI series
	SaveIntradayPoint(ctx context.Context, point *models.IntradayPoint) error
	LastIntradayPoint(ctx context.Context, account, tradingDay string) (*models.IntradayPoint, error)
	GetIntradaySeries(ctx context.Context, account, tradingDay string) ([]models.IntradayPoint, error)

	// Paper-trade lifecycle records
	SaveOpenTrade(ctx context.Context, trade *models.OpenTrade) error
	CloseOpenTrade(ctx context.Context, id string, exitTime time.Time, exitPrice, realizedPnL float64) error
	GetActiveOpenTrade(ctx context.Context, account, symbol string) (*models.OpenTrade, error)
	GetOpenTrades(ctx context.Context, filter OpenTradeFilter) ([]models.OpenTrade, error)
	CloseOpenTradesForAccount(ctx context.Context, account string, exitTime time.Time) error

	// Cash balance
	GetBalance(ctx context.Context, account string) (float64, bool, error)
	SetBalance(ctx context.Context, account string, cash float64) error
	AdjustBalance(ctx context.Context, account string, delta float64) error

	// Lifecycle
	Close() error
}

// TradeFilter represents filters for querying ledger trades.
type TradeFilter struct {
	Account   string
	Symbol    string
	Side      models.TradeSide
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}

// OpenTradeFilter represents filters for querying lifecycle records.
type OpenTradeFilter struct {
	Account string
	Symbol  string
	Status  models.OpenTradeStatus
	Limit   int
}
