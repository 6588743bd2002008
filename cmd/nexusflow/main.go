package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile       string
	format        string
	interval      string
	bars          int
	workers       int
	logLevel      string
	watchlistFile string
	direction     string
	threshold     float64
	symbolList    string
	presetName    string
	debug         bool
	port          int
	noRefresh     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "nexusflow",
		Short: "Market signal engine for a watchlist of instruments",
		Long: `NexusFlow fetches OHLCV candles and turns them into a buy/sell pressure
estimate, support and resistance levels, a linear trend projection and a
STRONG_BUY / STRONG_SELL / NEUTRAL decision.

Examples:
  nexusflow analyze GC=F
  nexusflow scan --preset metals
  nexusflow heatmap
  nexusflow watchlist add BTC-USD
  nexusflow serve --port 8080`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "config.yaml", "config file path")
	pf.StringVar(&format, "format", "table", "output format: table, json")
	pf.StringVar(&interval, "interval", "", "candle interval: 5m, 15m, 1h, 1d, 1wk")
	pf.IntVar(&bars, "bars", 0, "number of candles to analyze")
	pf.IntVar(&workers, "workers", 0, "number of parallel workers")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&watchlistFile, "watchlist", "", "watchlist file path")
	pf.StringVar(&direction, "direction", "", "trend direction source: ma, projection")
	pf.Float64Var(&threshold, "threshold", 0, "pressure percentage a side must exceed (50-100)")

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newScanCmd(),
		newHeatmapCmd(),
		newWatchlistCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Analyze one instrument",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "dump the full analysis structure")
	return cmd
}

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Analyze every instrument on the watchlist",
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}
	cmd.Flags().StringVar(&symbolList, "symbols", "", "comma-separated symbols to scan instead of the watchlist")
	cmd.Flags().StringVar(&presetName, "preset", "", "scan a preset group: favorites, metals, fx, crypto, indices")
	return cmd
}

func newHeatmapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "heatmap",
		Short: "Show the latest daily change of each instrument",
		Args:  cobra.NoArgs,
		RunE:  runHeatmap,
	}
	cmd.Flags().StringVar(&symbolList, "symbols", "", "comma-separated symbols instead of the watchlist")
	cmd.Flags().StringVar(&presetName, "preset", "", "use a preset group")
	return cmd
}

func newWatchlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Manage the watchlist",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List watched instruments",
			Args:  cobra.NoArgs,
			RunE:  runWatchlistList,
		},
		&cobra.Command{
			Use:   "add SYMBOL...",
			Short: "Add instruments",
			Args:  cobra.MinimumNArgs(1),
			RunE:  runWatchlistAdd,
		},
		&cobra.Command{
			Use:   "remove SYMBOL...",
			Short: "Remove instruments",
			Args:  cobra.MinimumNArgs(1),
			RunE:  runWatchlistRemove,
		},
		&cobra.Command{
			Use:   "presets",
			Short: "Show the preset groups",
			Args:  cobra.NoArgs,
			RunE:  runWatchlistPresets,
		},
	)
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API with scheduled refresh",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (default from config)")
	cmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "disable the scheduled refresh")
	return cmd
}
