package trading

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"optionchain-trader/internal/analysis"
	"optionchain-trader/internal/chain"
	apperrors "optionchain-trader/internal/errors"
	"optionchain-trader/internal/signal"
	"optionchain-trader/pkg/utils"
)

// fakeProvider serves a fixed payload per call.
type fakeProvider struct {
	payload *chain.Payload
}

func (f *fakeProvider) Snapshot(ctx context.Context, symbol string) (*chain.Payload, error) {
	return f.payload, nil
}

func floatPtr(v float64) *float64 { return &v }

func goodPayload() *chain.Payload {
	return &chain.Payload{
		Records: &chain.Records{
			ExpiryDates:     []string{"04-Sep-2026"},
			UnderlyingValue: 24000,
			Data: []chain.RawStrike{
				{
					StrikePrice: floatPtr(24000),
					ExpiryDate:  "04-Sep-2026",
					CE:          &chain.RawSide{OpenInterest: 100, LastPrice: 50},
					PE:          &chain.RawSide{OpenInterest: 300, LastPrice: 60},
				},
			},
		},
	}
}

func newTestPipeline(t *testing.T, provider SnapshotProvider) *Pipeline {
	t.Helper()
	dataStore := newTestStore(t)
	clock := &testClock{current: time.Date(2026, 8, 31, 10, 0, 0, 0, utils.IndiaLocation)}
	return NewPipeline(PipelineConfig{
		Parser:   chain.NewParser(),
		Metrics:  analysis.NewEngine(3, 0.1),
		Strategy: signal.SimpleThresholdStrategy{},
		Recorder: NewRecorder(RecorderConfig{
			Store:      dataStore,
			Account:    "test",
			MinGap:     60 * time.Second,
			MarketOpen: func(time.Time) bool { return true },
			Now:        clock.Now,
		}),
		Controller: NewController(ControllerConfig{
			Store:   dataStore,
			Account: "test",
			Logger:  zerolog.Nop(),
		}),
		Provider:  provider,
		PrevClose: func(ctx context.Context, symbol string) (float64, error) { return 23900, nil },
		Limiter:   rate.NewLimiter(rate.Inf, 1),
		Logger:    zerolog.Nop(),
	})
}

func TestPipelineTick(t *testing.T) {
	ctx := context.Background()
	pipe := newTestPipeline(t, &fakeProvider{payload: goodPayload()})

	result, err := pipe.Tick(ctx, "NIFTY")
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	// PE OI 300 over CE OI 100: PCR 3, the threshold rule says BUY.
	if string(result.Signal.Signal) != "BUY" {
		t.Errorf("signal = %s, want BUY", result.Signal.Signal)
	}
	if result.Transition == nil || result.Transition.Action != ActionOpened {
		t.Errorf("transition = %+v, want OPENED", result.Transition)
	}
	if !result.Recorded {
		t.Error("first tick inside market hours must record an intraday point")
	}

	m, ok := pipe.LastMetrics("NIFTY")
	if !ok {
		t.Fatal("LastMetrics missing after a successful tick")
	}
	if m.PEOITotal != 300 {
		t.Errorf("retained metrics = %+v", m)
	}
}

func TestPipelineMalformedTickKeepsLastMetrics(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{payload: goodPayload()}
	pipe := newTestPipeline(t, provider)

	if _, err := pipe.Tick(ctx, "NIFTY"); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	provider.payload = &chain.Payload{} // no records block
	_, err := pipe.Tick(ctx, "NIFTY")
	if !apperrors.Is(err, apperrors.ErrMalformedSnapshot) {
		t.Fatalf("err = %v, want ErrMalformedSnapshot", err)
	}

	// The failed tick must not wipe the retained metrics.
	m, ok := pipe.LastMetrics("NIFTY")
	if !ok || m.PEOITotal != 300 {
		t.Errorf("retained metrics after failed tick = %+v, %v", m, ok)
	}
}

func TestPipelineFirstTickReadsFlat(t *testing.T) {
	ctx := context.Background()

	// Put OI building on a chain with PCR 3. With no price reference yet the
	// tick must evaluate flat: the put build-up reads as "SELL PE", not as a
	// price-confirmed BUY against a zero previous close.
	payload := goodPayload()
	payload.Records.Data[0].CE.ChangeInOpenInterest = -50
	payload.Records.Data[0].PE.ChangeInOpenInterest = 500

	dataStore := newTestStore(t)
	clock := &testClock{current: time.Date(2026, 8, 31, 10, 0, 0, 0, utils.IndiaLocation)}
	pipe := NewPipeline(PipelineConfig{
		Parser:   chain.NewParser(),
		Metrics:  analysis.NewEngine(3, 0.1),
		Strategy: signal.PriceDeltaOIStrategy{},
		Recorder: NewRecorder(RecorderConfig{
			Store:      dataStore,
			Account:    "test",
			MinGap:     60 * time.Second,
			MarketOpen: func(time.Time) bool { return true },
			Now:        clock.Now,
		}),
		Controller: NewController(ControllerConfig{
			Store:   dataStore,
			Account: "test",
			Logger:  zerolog.Nop(),
		}),
		Provider:  &fakeProvider{payload: payload},
		PrevClose: func(ctx context.Context, symbol string) (float64, error) { return 0, nil },
		Limiter:   rate.NewLimiter(rate.Inf, 1),
		Logger:    zerolog.Nop(),
	})

	result, err := pipe.Tick(ctx, "NIFTY")
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if string(result.Signal.Signal) != "SELL" || result.Signal.Note != "SELL PE" {
		t.Errorf("signal = %s (%q), want SELL (\"SELL PE\") on a flat first tick",
			result.Signal.Signal, result.Signal.Note)
	}
	if result.Transition == nil || result.Transition.Action != ActionOpened ||
		string(result.Transition.Trade.EntrySignal) != "SELL" {
		t.Errorf("transition = %+v, want a SELL open", result.Transition)
	}
}

func TestPipelineEmptySnapshotSkipsLifecycle(t *testing.T) {
	ctx := context.Background()
	empty := &chain.Payload{
		Records: &chain.Records{ExpiryDates: []string{"04-Sep-2026"}},
	}
	pipe := newTestPipeline(t, &fakeProvider{payload: empty})

	result, err := pipe.Tick(ctx, "NIFTY")
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if string(result.Signal.Signal) != "SIDEWAYS" {
		t.Errorf("signal = %s, want SIDEWAYS on an empty chain", result.Signal.Signal)
	}
	if result.Transition != nil {
		t.Errorf("transition = %+v, want none on an empty chain", result.Transition)
	}
	if result.Recorded {
		t.Error("an empty chain must not record an intraday point")
	}
}
