package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"

	"nexusflow/internal/watchlist"
	"nexusflow/pkg/model"
)

// progress is the subset of the progress bar the scan command drives
type progress interface {
	Set(int) error
	Finish() error
}

type noProgress struct{}

func (noProgress) Set(int) error { return nil }
func (noProgress) Finish() error { return nil }

func newProgressBar(total int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]█[reset]",
			SaucerHead:    "[green]█[reset]",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func outputJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func dumpAnalysis(w io.Writer, a *model.Analysis) {
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
	cfg.Fdump(w, a)
}

func formatPrice(v float64) string {
	switch {
	case v >= 1000:
		return fmt.Sprintf("%.2f", v)
	case v >= 1:
		return fmt.Sprintf("%.4f", v)
	default:
		return fmt.Sprintf("%.6f", v)
	}
}

func formatLevels(levels []model.Level) string {
	if len(levels) == 0 {
		return "-"
	}
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = formatPrice(l.Price)
	}
	return strings.Join(parts, ", ")
}

func formatPressure(p *model.PressureReading) (string, string) {
	if p == nil {
		return "-", "-"
	}
	return fmt.Sprintf("%.1f%%", p.BuyPercent), fmt.Sprintf("%.1f%%", p.SellPercent)
}

func formatDecision(d model.Decision) string {
	switch d {
	case model.StrongBuy:
		return "STRONG BUY"
	case model.StrongSell:
		return "STRONG SELL"
	default:
		return "NEUTRAL"
	}
}

func outputAnalysis(a *model.Analysis) {
	fmt.Printf("\n[%s] %s\n", a.Instrument.Symbol, a.Instrument.Name)
	fmt.Printf("  Last close: %s at %s (%d candles)\n",
		formatPrice(a.LastClose), a.LastTime.Format(time.DateTime), a.Candles)

	buy, sell := formatPressure(a.Pressure)
	window := 0
	if a.Pressure != nil {
		window = a.Pressure.Window
	}
	fmt.Printf("  Pressure: buyers %s | sellers %s (last %d candles)\n", buy, sell, window)
	fmt.Printf("  Supports: %s\n", formatLevels(a.Supports))
	fmt.Printf("  Resistances: %s\n", formatLevels(a.Resistances))
	fmt.Printf("  Trend: %s (source: %s)\n", a.Direction, a.DirectionSource)
	if len(a.Skipped) > 0 {
		fmt.Printf("  Not enough data for: %s\n", strings.Join(a.Skipped, ", "))
	}

	if a.Projection != nil {
		fmt.Printf("\n  Projection (slope %+.4f per candle):\n", a.Projection.Slope)
		table := tablewriter.NewTable(os.Stdout,
			tablewriter.WithHeader([]string{"Time", "Projected Close"}),
		)
		for _, p := range a.Projection.Points {
			table.Append([]string{p.Time.Format(time.DateTime), formatPrice(p.Close)})
		}
		table.Render()
	}

	fmt.Printf("\n  >> Decision: %s\n", formatDecision(a.Decision))
}

func outputScan(result *model.ScanResult) {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Symbol", "Name", "Last", "Buy", "Sell", "Trend", "Support", "Resistance", "Decision"}),
	)

	for _, a := range result.Results {
		name := a.Instrument.Name
		if len(name) > 18 {
			name = name[:18] + "..."
		}
		buy, sell := formatPressure(a.Pressure)
		table.Append([]string{
			a.Instrument.Symbol,
			name,
			formatPrice(a.LastClose),
			buy,
			sell,
			a.Direction.String(),
			nearestLevel(a.Supports),
			nearestLevel(a.Resistances),
			formatDecision(a.Decision),
		})
	}
	table.Render()

	if len(result.Failures) > 0 {
		fmt.Println("\n--- Failed ---")
		for _, f := range result.Failures {
			fmt.Printf("  %s: %s\n", f.Symbol, f.Error)
		}
	}

	fmt.Printf("\nAnalyzed %d/%d instruments in %s (scan %s)\n",
		result.AnalyzedCount, result.TotalScanned, result.ScanTime.Round(time.Millisecond), result.ID)
}

// nearestLevel shows the most recent level of a side
func nearestLevel(levels []model.Level) string {
	if len(levels) == 0 {
		return "-"
	}
	return formatPrice(levels[len(levels)-1].Price)
}

func outputHeatmap(hm *model.Heatmap) {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Symbol", "Name", "Price", "Change"}),
	)
	for _, e := range hm.Entries {
		table.Append([]string{
			e.Symbol,
			watchlist.DisplayName(e.Symbol),
			formatPrice(e.Price),
			fmt.Sprintf("%+.2f%%", e.ChangePct),
		})
	}
	table.Render()

	for _, f := range hm.Failures {
		fmt.Printf("  %s: %s\n", f.Symbol, f.Error)
	}
}

func outputInstruments(instruments []model.Instrument) {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"#", "Symbol", "Name"}),
	)
	for i, inst := range instruments {
		table.Append([]string{fmt.Sprintf("%d", i+1), inst.Symbol, inst.Name})
	}
	table.Render()
}

func outputPresets(presets []watchlist.Preset) {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Preset", "Symbols"}),
	)
	for _, p := range presets {
		table.Append([]string{string(p), strings.Join(watchlist.GetPreset(p), ", ")})
	}
	table.Render()
}
