package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"optionchain-trader/internal/analysis"
	"optionchain-trader/internal/chain"
	sig "optionchain-trader/internal/signal"
	"optionchain-trader/internal/trading"
)

// addEngineCommands adds the poll-loop command.
func addEngineCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newRunCmd(app))
}

func newRunCmd(app *App) *cobra.Command {
	var file string
	var dir string
	var symbols []string
	var prevClose float64
	var once bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the evaluation loop over payload files",
		Long: `Poll option-chain payload files, compute metrics, derive signals, drive
the paper trade lifecycle and record the intraday OI series.

Payloads come from --file (one chain, refreshed in place by an external
fetcher) or --dir (per-symbol <dir>/<SYMBOL>.json files). Without
--prev-close the previous tick's underlying is used as the price
reference, so the first tick of a session reads as flat.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			dataStore, err := app.requireStore()
			if err != nil {
				return err
			}

			var provider trading.SnapshotProvider
			switch {
			case file != "":
				provider = &chain.FileSource{Path: file}
			case dir != "":
				provider = &chain.DirSource{Dir: dir}
			default:
				return fmt.Errorf("either --file or --dir is required")
			}

			if len(symbols) == 0 {
				symbols = app.Config.Engine.Symbols
			}
			if len(symbols) == 0 {
				return fmt.Errorf("no symbols configured")
			}

			strategy, err := sig.ForRule(app.Config.Engine.PCRRule)
			if err != nil {
				return err
			}

			recorder := trading.NewRecorder(trading.RecorderConfig{
				Store:   dataStore,
				Account: app.Config.Trading.Account,
				MinGap:  time.Duration(app.Config.Engine.SnapshotMinGapSeconds) * time.Second,
			})
			controller := trading.NewController(trading.ControllerConfig{
				Store:   dataStore,
				Account: app.Config.Trading.Account,
				Logger:  app.Logger,
			})

			var pipe *trading.Pipeline
			prevCloseFeed := func(ctx context.Context, symbol string) (float64, error) {
				if prevClose > 0 {
					return prevClose, nil
				}
				if m, ok := pipe.LastMetrics(symbol); ok {
					return m.Underlying, nil
				}
				return 0, nil
			}

			pipe = trading.NewPipeline(trading.PipelineConfig{
				Parser:     chain.NewParser(),
				Metrics:    analysis.NewEngine(app.Config.Engine.SupportResistanceK, app.Config.Engine.CrossoverThresholdRatio),
				Strategy:   strategy,
				Recorder:   recorder,
				Controller: controller,
				Provider:   provider,
				PrevClose:  prevCloseFeed,
				Logger:     app.Logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if once {
				for _, symbol := range symbols {
					result, err := pipe.Tick(ctx, symbol)
					if err != nil {
						output.Error("%s: %v", symbol, err)
						continue
					}
					printTick(output, symbol, result)
				}
				return nil
			}

			interval := time.Duration(app.Config.Engine.PollIntervalSeconds) * time.Second
			output.Info("Polling %v every %s (rule %s), Ctrl-C to stop",
				symbols, interval, app.Config.Engine.PCRRule)

			err = pipe.Run(ctx, symbols, interval)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				output.Println()
				output.Dim("Stopped")
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "payload file for a single chain")
	cmd.Flags().StringVar(&dir, "dir", "", "directory of per-symbol payload files")
	cmd.Flags().StringSliceVar(&symbols, "symbol", nil, "symbols to evaluate (default from config)")
	cmd.Flags().Float64Var(&prevClose, "prev-close", 0, "fixed previous close for price direction")
	cmd.Flags().BoolVar(&once, "once", false, "evaluate one tick per symbol and exit")

	return cmd
}

func printTick(output *Output, symbol string, result *trading.TickResult) {
	m := result.Metrics
	output.Printf("%s  %s  PCR %s  max pain %d  %s",
		symbol, FormatPrice(m.Underlying), m.PCR.String(), m.MaxPainStrike,
		output.Signal(string(result.Signal.Signal)))
	if result.Transition != nil && result.Transition.Action != trading.ActionNone {
		output.Printf("  [%s]", result.Transition.Action)
	}
	if result.Recorded {
		output.Printf("  (recorded)")
	}
	output.Println()
}
