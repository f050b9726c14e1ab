package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"optionchain-trader/internal/models"
	"optionchain-trader/internal/trading"
)

// addSeriesCommands adds intraday history and lifecycle history commands.
func addSeriesCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newSeriesCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))
}

func newSeriesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "series [day]",
		Short: "Show the intraday OI series",
		Long: `Show the recorded intraday OI time series for a trading day (YYYY-MM-DD,
default today). Past days are frozen history.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			dataStore, err := app.requireStore()
			if err != nil {
				return err
			}

			day := ""
			if len(args) == 1 {
				if _, err := time.Parse("2006-01-02", args[0]); err != nil {
					return fmt.Errorf("invalid day %q, want YYYY-MM-DD", args[0])
				}
				day = args[0]
			}

			recorder := trading.NewRecorder(trading.RecorderConfig{
				Store:   dataStore,
				Account: app.Config.Trading.Account,
				MinGap:  time.Duration(app.Config.Engine.SnapshotMinGapSeconds) * time.Second,
			})
			points, err := recorder.Series(cmd.Context(), day)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(points)
			}

			if len(points) == 0 {
				output.Dim("No samples")
				return nil
			}

			table := NewTable(output, "TIME", "CE OI", "PE OI", "PCR", "PRICE")
			for _, p := range points {
				table.AddRow(
					FormatTime(p.Timestamp),
					FormatOI(p.CEOITotal),
					FormatOI(p.PEOITotal),
					models.NewRatio(p.PEOITotal, p.CEOITotal).String(),
					FormatPrice(p.UnderlyingPrice),
				)
			}
			table.Render()
			output.Println()
			output.Dim("%d samples on %s", len(points), points[0].TradingDay)
			return nil
		},
	}
	return cmd
}

func newHistoryCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show auto-managed paper trade history",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			dataStore, err := app.requireStore()
			if err != nil {
				return err
			}

			controller := trading.NewController(trading.ControllerConfig{
				Store:   dataStore,
				Account: app.Config.Trading.Account,
				Logger:  app.Logger,
			})
			trades, err := controller.History(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}

			if len(trades) == 0 {
				output.Dim("No paper trades")
				return nil
			}

			table := NewTable(output, "SYMBOL", "SIGNAL", "ENTRY", "ENTRY TIME", "STATUS", "EXIT", "REALIZED")
			for _, t := range trades {
				exit := "-"
				realized := "-"
				if t.Status == models.OpenTradeClosed {
					exit = FormatPrice(t.ExitPrice)
					realized = output.FormatPnL(t.RealizedPnL)
				}
				table.AddRow(
					t.Symbol,
					output.Signal(string(t.EntrySignal)),
					FormatPrice(t.EntryPrice),
					FormatDateTime(t.EntryTime),
					string(t.Status),
					exit,
					realized,
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum records to show")
	return cmd
}
