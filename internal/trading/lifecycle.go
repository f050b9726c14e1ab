package trading

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"optionchain-trader/internal/errors"
	"optionchain-trader/internal/models"
	"optionchain-trader/internal/store"
)

// TransitionAction describes what the controller did on a tick.
type TransitionAction string

const (
	// ActionNone: no active trade and a SIDEWAYS signal.
	ActionNone TransitionAction = "NONE"
	// ActionOpened: a new paper trade was opened.
	ActionOpened TransitionAction = "OPENED"
	// ActionHeld: the active trade was kept; unrealized PnL updated.
	ActionHeld TransitionAction = "HELD"
	// ActionClosed: the active trade was closed and PnL realized.
	ActionClosed TransitionAction = "CLOSED"
)

// Transition is the outcome of one controller evaluation.
type Transition struct {
	Action        TransitionAction
	Trade         *models.OpenTrade
	UnrealizedPnL float64
}

// Controller binds signal transitions to paper-trade lifecycle records. Per
// symbol it is a two-state machine: no position, or one active trade. It is
// evaluated once per tick and is safe against repeated ticks carrying the
// same signal — the active record guard makes re-evaluation a no-op.
type Controller struct {
	store   store.DataStore
	account string
	now     func() time.Time
	log     zerolog.Logger

	mu sync.Mutex
}

// ControllerConfig holds configuration for the lifecycle controller.
type ControllerConfig struct {
	Store   store.DataStore
	Account string
	Now     func() time.Time
	Logger  zerolog.Logger
}

// NewController creates a lifecycle controller.
func NewController(cfg ControllerConfig) *Controller {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		store:   cfg.Store,
		account: cfg.Account,
		now:     now,
		log:     cfg.Logger,
	}
}

// OnSignal advances the per-symbol state machine for one tick.
//
// With no active trade, a BUY or SELL signal opens one at the given price;
// SIDEWAYS does nothing. With an active trade, the same signal holds it (the
// returned transition carries the live unrealized PnL), while SIDEWAYS or the
// opposing signal closes it, realizing (exit - entry) * direction.
func (c *Controller) OnSignal(ctx context.Context, symbol string, sig models.Signal, price float64) (*Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	active, err := c.store.GetActiveOpenTrade(ctx, c.account, symbol)
	if err != nil {
		return nil, errors.Wrap(err, "loading active trade")
	}

	if active == nil {
		if sig == models.SignalSideways {
			return &Transition{Action: ActionNone}, nil
		}
		return c.open(ctx, symbol, sig, price)
	}

	if sig == active.EntrySignal {
		return &Transition{
			Action:        ActionHeld,
			Trade:         active,
			UnrealizedPnL: active.UnrealizedPnL(price),
		}, nil
	}

	return c.close(ctx, active, price)
}

func (c *Controller) open(ctx context.Context, symbol string, sig models.Signal, price float64) (*Transition, error) {
	trade := &models.OpenTrade{
		ID:          uuid.NewString(),
		Account:     c.account,
		Symbol:      symbol,
		EntrySignal: sig,
		EntryPrice:  price,
		EntryTime:   c.now(),
		Status:      models.OpenTradeActive,
	}
	if err := c.store.SaveOpenTrade(ctx, trade); err != nil {
		return nil, errors.Wrap(err, "opening paper trade")
	}

	c.log.Info().
		Str("event", "paper_open").
		Str("symbol", symbol).
		Str("signal", string(sig)).
		Float64("entry_price", price).
		Msg("Paper trade opened")

	return &Transition{Action: ActionOpened, Trade: trade}, nil
}

func (c *Controller) close(ctx context.Context, active *models.OpenTrade, price float64) (*Transition, error) {
	exitTime := c.now()
	realized := (price - active.EntryPrice) * active.Direction()

	if err := c.store.CloseOpenTrade(ctx, active.ID, exitTime, price, realized); err != nil {
		return nil, errors.Wrap(err, "closing paper trade")
	}

	closed := *active
	closed.Status = models.OpenTradeClosed
	closed.ExitTime = &exitTime
	closed.ExitPrice = price
	closed.RealizedPnL = realized

	c.log.Info().
		Str("event", "paper_close").
		Str("symbol", closed.Symbol).
		Str("entry_signal", string(closed.EntrySignal)).
		Float64("exit_price", price).
		Float64("realized_pnl", realized).
		Msg("Paper trade closed")

	return &Transition{Action: ActionClosed, Trade: &closed}, nil
}

// History returns the account's lifecycle records, newest first.
func (c *Controller) History(ctx context.Context, limit int) ([]models.OpenTrade, error) {
	return c.store.GetOpenTrades(ctx, store.OpenTradeFilter{Account: c.account, Limit: limit})
}
