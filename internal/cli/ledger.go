package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"optionchain-trader/internal/chain"
	"optionchain-trader/internal/models"
	"optionchain-trader/internal/trading"
)

// addLedgerCommands adds the paper-ledger commands.
func addLedgerCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newBuyCmd(app))
	rootCmd.AddCommand(newSellCmd(app))
	rootCmd.AddCommand(newPositionsCmd(app))
	rootCmd.AddCommand(newTradesCmd(app))
	rootCmd.AddCommand(newBalanceCmd(app))
	rootCmd.AddCommand(newResetCmd(app))
}

func newBuyCmd(app *App) *cobra.Command {
	return newTradeCmd(app, models.TradeSideBuy, "buy", "Record a paper BUY trade")
}

func newSellCmd(app *App) *cobra.Command {
	return newTradeCmd(app, models.TradeSideSell, "sell", "Record a paper SELL trade")
}

// newTradeCmd builds a ledger entry command for one side. Usage:
//
//	octrader buy NIFTY 24000 CE 50 125.40
func newTradeCmd(app *App, side models.TradeSide, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <symbol> <strike> <CE|PE> <qty> <price>",
		Short: short,
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			ledger, err := app.newLedger()
			if err != nil {
				return err
			}
			if err := ledger.Init(cmd.Context()); err != nil {
				return err
			}

			symbol := strings.ToUpper(args[0])
			strike, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid strike %q", args[1])
			}
			optType := models.OptionType(strings.ToUpper(args[2]))
			if optType != models.OptionCE && optType != models.OptionPE {
				return fmt.Errorf("option type must be CE or PE, got %q", args[2])
			}
			qty, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[3])
			}
			price, err := strconv.ParseFloat(args[4], 64)
			if err != nil {
				return fmt.Errorf("invalid price %q", args[4])
			}

			trade, err := ledger.RecordTrade(cmd.Context(), symbol, strike, optType, side, qty, price)
			if err != nil {
				output.Error("Trade rejected: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(trade)
			}
			output.Success("✓ %s %d × %s %d %s @ %s (trade #%d)",
				side, trade.Quantity, trade.Symbol, trade.Strike, trade.OptionType,
				FormatPrice(trade.Price), trade.ID)
			return nil
		},
	}
}

func newPositionsCmd(app *App) *cobra.Command {
	var markFile string

	cmd := &cobra.Command{
		Use:   "positions",
		Short: "Show derived positions",
		Long: `Derive positions from the trade ledger. With --mark pointing at a payload
file, positions are marked to market against that chain's last prices;
contracts absent from the chain mark at zero.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			ledger, err := app.newLedger()
			if err != nil {
				return err
			}

			positions, err := ledger.Positions(cmd.Context())
			if err != nil {
				return err
			}

			if markFile != "" {
				data, err := os.ReadFile(markFile)
				if err != nil {
					return fmt.Errorf("read mark payload: %w", err)
				}
				snap, err := chain.NewParser().ParseJSON("", data)
				if err != nil {
					return err
				}
				positions = trading.MarkToMarket(positions, trading.LatestPrices(snap))
			}

			if output.IsJSON() {
				return output.JSON(positions)
			}

			if len(positions) == 0 {
				output.Dim("No positions")
				return nil
			}

			table := NewTable(output, "SYMBOL", "STRIKE", "TYPE", "NET QTY", "AVG", "INVESTED", "LTP", "MTM", "PNL%")
			var totalMTM float64
			for _, p := range positions {
				table.AddRow(
					p.Symbol,
					fmt.Sprintf("%d", p.Strike),
					string(p.OptionType),
					FormatQuantity(int64(p.NetQuantity)),
					FormatPrice(p.AvgPrice),
					FormatIndianCurrency(p.Invested),
					FormatPrice(p.LTP),
					output.FormatPnL(p.MTM),
					output.FormatPercent(p.PnLPercent),
				)
				totalMTM += p.MTM
			}
			table.Render()
			output.Println()
			output.Printf("Total MTM: %s\n", output.FormatPnL(totalMTM))
			return nil
		},
	}

	cmd.Flags().StringVar(&markFile, "mark", "", "payload file to mark positions against")
	return cmd
}

func newTradesCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "trades",
		Short: "Show trade history",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			ledger, err := app.newLedger()
			if err != nil {
				return err
			}

			trades, err := ledger.TradeHistory(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}

			if len(trades) == 0 {
				output.Dim("No trades")
				return nil
			}

			table := NewTable(output, "ID", "TIME", "SYMBOL", "STRIKE", "TYPE", "SIDE", "QTY", "PRICE")
			for _, t := range trades {
				sideCell := output.Green(string(t.Side))
				if t.Side == models.TradeSideSell {
					sideCell = output.Red(string(t.Side))
				}
				table.AddRow(
					fmt.Sprintf("%d", t.ID),
					FormatDateTime(t.Timestamp),
					t.Symbol,
					fmt.Sprintf("%d", t.Strike),
					string(t.OptionType),
					sideCell,
					FormatQuantity(int64(t.Quantity)),
					FormatPrice(t.Price),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum trades to show (most recent)")
	return cmd
}

func newBalanceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show account cash balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			ledger, err := app.newLedger()
			if err != nil {
				return err
			}
			if err := ledger.Init(cmd.Context()); err != nil {
				return err
			}

			balance, err := ledger.Balance(cmd.Context())
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"account": ledger.Account(),
					"balance": balance,
				})
			}
			output.Printf("Account %s: %s\n", ledger.Account(), FormatIndianCurrency(balance))
			return nil
		},
	}
}

func newResetCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the paper account",
		Long:  "Delete all trades, close open paper trades and restore the starting balance.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if !yes {
				output.Warning("This deletes all trades for account %q. Re-run with --yes to confirm.",
					app.Config.Trading.Account)
				return nil
			}

			ledger, err := app.newLedger()
			if err != nil {
				return err
			}
			if err := ledger.Reset(cmd.Context()); err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]bool{"reset": true})
			}
			output.Success("✓ Account %s reset to %s", ledger.Account(),
				FormatIndianCurrency(app.Config.Trading.StartingBalance))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}
