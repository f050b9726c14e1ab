package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"optionchain-trader/internal/analysis"
	"optionchain-trader/internal/chain"
	"optionchain-trader/internal/models"
	sig "optionchain-trader/internal/signal"
)

// addAnalysisCommands adds one-shot analysis commands.
func addAnalysisCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newAnalyzeCmd(app))
}

// analyzeResult is the JSON shape for the analyze command.
type analyzeResult struct {
	Symbol        string                  `json:"symbol"`
	NearestExpiry string                  `json:"nearest_expiry"`
	Underlying    float64                 `json:"underlying"`
	PCR           string                  `json:"pcr"`
	NearExpiryPCR string                  `json:"near_expiry_pcr"`
	MaxPain       int64                   `json:"max_pain"`
	Support       []int64                 `json:"support"`
	Resistance    []int64                 `json:"resistance"`
	Crossovers    []models.CrossoverEvent `json:"crossovers"`
	CEOITotal     int64                   `json:"ce_oi_total"`
	PEOITotal     int64                   `json:"pe_oi_total"`
	CEChangeTotal int64                   `json:"ce_change_total"`
	PEChangeTotal int64                   `json:"pe_change_total"`
	Signal        string                  `json:"signal"`
	Trend         string                  `json:"trend"`
	Note          string                  `json:"note,omitempty"`
}

func newAnalyzeCmd(app *App) *cobra.Command {
	var symbol string
	var prevClose float64
	var rule string

	cmd := &cobra.Command{
		Use:   "analyze <payload-file>",
		Short: "Analyze an option-chain payload file",
		Long: `Parse a raw option-chain JSON payload, compute OI metrics and derive a
trade signal.

Without --prev-close the underlying is treated as unchanged, so the
price-and-delta-oi rule falls through to its OI-only branches.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}

			snap, err := chain.NewParser().ParseJSON(symbol, data)
			if err != nil {
				output.Error("Failed to parse payload: %v", err)
				return err
			}

			engine := analysis.NewEngine(app.Config.Engine.SupportResistanceK,
				app.Config.Engine.CrossoverThresholdRatio)
			metrics := engine.Compute(snap)

			if rule == "" {
				rule = app.Config.Engine.PCRRule
			}
			strategy, err := sig.ForRule(rule)
			if err != nil {
				return err
			}

			ref := prevClose
			if ref == 0 {
				ref = snap.Underlying
			}
			result := strategy.Evaluate(sig.Inputs{
				Underlying:    snap.Underlying,
				PrevClose:     ref,
				CEChangeTotal: metrics.CEChangeTotal,
				PEChangeTotal: metrics.PEChangeTotal,
				PCR:           metrics.PCR,
			})

			if output.IsJSON() {
				return output.JSON(analyzeResult{
					Symbol:        snap.Symbol,
					NearestExpiry: snap.NearestExpiry,
					Underlying:    snap.Underlying,
					PCR:           metrics.PCR.String(),
					NearExpiryPCR: metrics.NearExpiryPCR.String(),
					MaxPain:       metrics.MaxPainStrike,
					Support:       metrics.Support,
					Resistance:    metrics.Resistance,
					Crossovers:    metrics.Crossovers,
					CEOITotal:     metrics.CEOITotal,
					PEOITotal:     metrics.PEOITotal,
					CEChangeTotal: metrics.CEChangeTotal,
					PEChangeTotal: metrics.PEChangeTotal,
					Signal:        string(result.Signal),
					Trend:         string(result.Trend),
					Note:          result.Note,
				})
			}

			printAnalysis(output, snap, metrics, result, rule)
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "NIFTY", "index symbol for the payload")
	cmd.Flags().Float64Var(&prevClose, "prev-close", 0, "previous close for price direction")
	cmd.Flags().StringVar(&rule, "rule", "", "signal rule (default from config)")

	return cmd
}

func printAnalysis(output *Output, snap *models.Snapshot, metrics models.Metrics, result sig.Result, rule string) {
	output.Bold("%s Option Chain", snap.Symbol)
	output.Printf("  Underlying:     %s\n", FormatPrice(snap.Underlying))
	output.Printf("  Nearest Expiry: %s\n", snap.NearestExpiry)
	output.Printf("  Strikes:        %d\n", len(snap.Strikes))
	output.Println()

	if snap.IsEmpty() {
		output.Warning("Empty chain, metrics unavailable")
		return
	}

	output.Bold("Open Interest")
	output.Printf("  CE Total:  %s  (Δ %s)\n", FormatOI(metrics.CEOITotal), FormatChangeOI(metrics.CEChangeTotal))
	output.Printf("  PE Total:  %s  (Δ %s)\n", FormatOI(metrics.PEOITotal), FormatChangeOI(metrics.PEChangeTotal))
	output.Printf("  PCR:       %s   Near Expiry PCR: %s\n", metrics.PCR.String(), metrics.NearExpiryPCR.String())
	output.Println()

	output.Bold("Levels")
	output.Printf("  Max Pain:    %d\n", metrics.MaxPainStrike)
	output.Printf("  Support:     %s\n", strikeList(metrics.Support))
	output.Printf("  Resistance:  %s\n", strikeList(metrics.Resistance))
	if len(metrics.Crossovers) > 0 {
		output.Printf("  Crossovers:  %s\n", crossoverList(metrics.Crossovers))
	}
	if len(metrics.NearCrossovers) > 0 {
		output.Printf("  Near Cross:  %s\n", strikeList(metrics.NearCrossovers))
	}
	output.Println()

	output.Bold("Signal (%s)", rule)
	output.Printf("  %s   trend %s\n", output.Signal(string(result.Signal)), string(result.Trend))
	if result.Note != "" {
		output.Dim("  %s", result.Note)
	}
}

func strikeList(strikes []int64) string {
	if len(strikes) == 0 {
		return "-"
	}
	parts := make([]string, len(strikes))
	for i, s := range strikes {
		parts[i] = fmt.Sprintf("%d", s)
	}
	return strings.Join(parts, ", ")
}

func crossoverList(events []models.CrossoverEvent) string {
	parts := make([]string, 0, len(events))
	for _, e := range events {
		if e.Kind == models.CrossoverEqual {
			parts = append(parts, fmt.Sprintf("=%d", e.Strike))
		} else {
			parts = append(parts, fmt.Sprintf("%d↕%d", e.LowStrike, e.HighStrike))
		}
	}
	return strings.Join(parts, ", ")
}
