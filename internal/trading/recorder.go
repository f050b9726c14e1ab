package trading

import (
	"context"
	"sync"
	"time"

	"optionchain-trader/internal/errors"
	"optionchain-trader/internal/models"
	"optionchain-trader/internal/store"
	"optionchain-trader/pkg/utils"
)

// Recorder samples the intraday CE/PE open-interest series under a minimum
// gap, scoped to the current trading day. Appends are serialized per
// (account, trading day); existing points are never touched, and a new
// trading day simply starts an empty series while the previous day's rows
// stay queryable by date.
type Recorder struct {
	store      store.DataStore
	account    string
	minGap     time.Duration
	marketOpen func(time.Time) bool
	now        func() time.Time

	mu sync.Mutex
}

// RecorderConfig holds configuration for the intraday recorder.
type RecorderConfig struct {
	Store   store.DataStore
	Account string
	MinGap  time.Duration
	// MarketOpen reports whether the market is open at the given instant.
	// Defaults to the NSE session hours.
	MarketOpen func(time.Time) bool
	Now        func() time.Time
}

// NewRecorder creates an intraday series recorder.
func NewRecorder(cfg RecorderConfig) *Recorder {
	marketOpen := cfg.MarketOpen
	if marketOpen == nil {
		marketOpen = func(t time.Time) bool {
			return utils.MarketStatusAt(t) == models.MarketOpen
		}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Recorder{
		store:      cfg.Store,
		account:    cfg.Account,
		minGap:     cfg.MinGap,
		marketOpen: marketOpen,
		now:        now,
	}
}

// MaybeSnapshot appends an intraday point when due. It reports whether a
// point was stored.
//
// Nothing is stored while the market is closed. The first sample of a
// trading day is always taken; after that a sample is stored only once the
// minimum gap since the day's last point has elapsed.
func (r *Recorder) MaybeSnapshot(ctx context.Context, ceSum, peSum int64, price float64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if !r.marketOpen(now) {
		return false, nil
	}

	day := utils.TradingDay(now)
	last, err := r.store.LastIntradayPoint(ctx, r.account, day)
	if err != nil {
		return false, errors.Wrap(err, "loading last intraday point")
	}
	if last != nil && now.Sub(last.Timestamp) < r.minGap {
		return false, nil
	}

	point := &models.IntradayPoint{
		Timestamp:       now,
		Account:         r.account,
		TradingDay:      day,
		CEOITotal:       ceSum,
		PEOITotal:       peSum,
		UnderlyingPrice: price,
	}
	if err := r.store.SaveIntradayPoint(ctx, point); err != nil {
		return false, errors.Wrap(err, "saving intraday point")
	}
	return true, nil
}

// Series returns the frozen history of one trading day. An empty day string
// means today.
func (r *Recorder) Series(ctx context.Context, tradingDay string) ([]models.IntradayPoint, error) {
	if tradingDay == "" {
		tradingDay = utils.TradingDay(r.now())
	}
	return r.store.GetIntradaySeries(ctx, r.account, tradingDay)
}
