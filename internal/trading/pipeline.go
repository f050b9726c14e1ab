package trading

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"optionchain-trader/internal/analysis"
	"optionchain-trader/internal/chain"
	"optionchain-trader/internal/logging"
	"optionchain-trader/internal/models"
	"optionchain-trader/internal/signal"
)

// SnapshotProvider supplies raw option-chain payloads. Transport, session
// warm-up and retries live behind this interface.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, symbol string) (*chain.Payload, error)
}

// PrevCloseFunc supplies the previous close for a symbol.
type PrevCloseFunc func(ctx context.Context, symbol string) (float64, error)

// TickResult is the outcome of one pipeline evaluation.
type TickResult struct {
	Snapshot   *models.Snapshot
	Metrics    models.Metrics
	Signal     signal.Result
	Transition *Transition
	Recorded   bool
}

// Pipeline runs the per-tick evaluation: parse, metrics, signal, lifecycle,
// record. Parsing, metrics and signal computation are pure; a tick that
// fails to parse is logged and skipped, leaving the previous metrics in
// place for readers. Nothing in a tick is fatal to the loop.
type Pipeline struct {
	parser     *chain.Parser
	metrics    *analysis.Engine
	strategy   signal.Strategy
	recorder   *Recorder
	controller *Controller
	provider   SnapshotProvider
	prevClose  PrevCloseFunc
	limiter    *rate.Limiter
	log        zerolog.Logger

	mu          sync.RWMutex
	lastMetrics map[string]models.Metrics
}

// PipelineConfig holds the pipeline's collaborators.
type PipelineConfig struct {
	Parser     *chain.Parser
	Metrics    *analysis.Engine
	Strategy   signal.Strategy
	Recorder   *Recorder
	Controller *Controller
	Provider   SnapshotProvider
	PrevClose  PrevCloseFunc
	// Limiter throttles snapshot fetches across symbols. Defaults to one
	// fetch per second.
	Limiter *rate.Limiter
	Logger  zerolog.Logger
}

// NewPipeline creates an evaluation pipeline.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(time.Second), 1)
	}
	return &Pipeline{
		parser:      cfg.Parser,
		metrics:     cfg.Metrics,
		strategy:    cfg.Strategy,
		recorder:    cfg.Recorder,
		controller:  cfg.Controller,
		provider:    cfg.Provider,
		prevClose:   cfg.PrevClose,
		limiter:     limiter,
		log:         cfg.Logger,
		lastMetrics: make(map[string]models.Metrics),
	}
}

// Tick runs one evaluation for a symbol.
//
// A malformed payload or fetch failure returns an error after logging; the
// caller's loop simply retries next tick. An empty snapshot is not an error:
// it yields unavailable metrics and skips the lifecycle and recorder steps,
// since there is nothing to trade or sample.
func (p *Pipeline) Tick(ctx context.Context, symbol string) (*TickResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := p.provider.Snapshot(ctx, symbol)
	if err != nil {
		logging.LogTickSkipped(p.log, symbol, err)
		return nil, err
	}

	snap, err := p.parser.Parse(symbol, payload)
	if err != nil {
		logging.LogTickSkipped(p.log, symbol, err)
		return nil, err
	}

	metrics := p.metrics.Compute(snap)
	result := &TickResult{Snapshot: snap, Metrics: metrics}

	if snap.IsEmpty() {
		result.Signal = signal.Result{Signal: models.SignalSideways, Trend: models.TrendSideways}
		return result, nil
	}

	prevClose, err := p.prevClose(ctx, symbol)
	if err != nil {
		logging.LogTickSkipped(p.log, symbol, err)
		return nil, err
	}
	if prevClose <= 0 {
		// No usable reference yet (first tick of a session). Treat the
		// price as flat so the direction rules cannot fire on garbage.
		prevClose = snap.Underlying
	}

	result.Signal = p.strategy.Evaluate(signal.Inputs{
		Underlying:    snap.Underlying,
		PrevClose:     prevClose,
		CEChangeTotal: metrics.CEChangeTotal,
		PEChangeTotal: metrics.PEChangeTotal,
		PCR:           metrics.PCR,
	})
	logging.LogSignal(p.log, symbol, string(result.Signal.Signal), string(result.Signal.Trend),
		result.Signal.Note, metrics.PCR.String())

	transition, err := p.controller.OnSignal(ctx, symbol, result.Signal.Signal, snap.Underlying)
	if err != nil {
		logging.LogTickSkipped(p.log, symbol, err)
		return nil, err
	}
	result.Transition = transition

	recorded, err := p.recorder.MaybeSnapshot(ctx, metrics.CEOITotal, metrics.PEOITotal, snap.Underlying)
	if err != nil {
		// The series append failing must not undo the lifecycle step;
		// log and carry on, the next due tick records instead.
		logging.LogTickSkipped(p.log, symbol, err)
	} else {
		result.Recorded = recorded
		if recorded {
			logging.LogSnapshot(p.log, symbol, metrics.CEOITotal, metrics.PEOITotal, snap.Underlying)
		}
	}

	p.mu.Lock()
	p.lastMetrics[symbol] = metrics
	p.mu.Unlock()

	return result, nil
}

// LastMetrics returns the most recent successfully computed metrics for a
// symbol. Stale-but-valid metrics survive failed ticks.
func (p *Pipeline) LastMetrics(symbol string) (models.Metrics, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m, ok := p.lastMetrics[symbol]
	return m, ok
}

// Run polls the given symbols at the interval until the context ends. Tick
// errors are already logged; the loop keeps going.
func (p *Pipeline) Run(ctx context.Context, symbols []string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.tickAll(ctx, symbols)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.tickAll(ctx, symbols)
		}
	}
}

func (p *Pipeline) tickAll(ctx context.Context, symbols []string) {
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return
		}
		if _, err := p.Tick(ctx, symbol); err != nil && ctx.Err() == nil {
			// Already logged at the failure site; counted here only.
			p.log.Debug().Str("symbol", symbol).Msg("Tick failed")
		}
	}
}
