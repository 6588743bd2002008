package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"nexusflow/internal/analyzer"
	"nexusflow/internal/config"
	"nexusflow/internal/logging"
	"nexusflow/internal/metrics"
	"nexusflow/internal/provider"
	"nexusflow/internal/scanner"
	"nexusflow/internal/watchlist"
	"nexusflow/pkg/model"
)

// app holds the wired services shared by every command
type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	provider  provider.Provider
	cache     *provider.CachingProvider
	engine    *analyzer.Engine
	scanner   *scanner.Scanner
	watchlist *watchlist.Store
}

// loadConfig reads the config file and applies CLI flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("interval") {
		cfg.Data.Interval = interval
	}
	if bars > 0 {
		cfg.Data.Bars = bars
	}
	if workers > 0 {
		cfg.Scanner.Workers = workers
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if watchlistFile != "" {
		cfg.Watchlist.File = watchlistFile
	}
	if direction != "" {
		cfg.Engine.DirectionSource = direction
	}
	if flags.Changed("threshold") {
		cfg.Engine.HighThreshold = threshold
	}
	if flags.Changed("port") {
		cfg.Web.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

// newApp wires config, logging, providers, engine, scanner and watchlist.
// jsonLogs selects structured output for the server.
func newApp(cmd *cobra.Command, jsonLogs bool) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, jsonLogs || cfg.Log.JSON)
	if err != nil {
		return nil, err
	}

	m := metrics.New()

	providers := []provider.Provider{
		provider.NewYahooProvider(cfg.API.Yahoo.RateLimit),
		provider.NewFinnhubProvider(cfg.API.Finnhub.Key, cfg.API.Finnhub.RateLimit),
	}
	fallback := provider.NewFallbackProvider(providers...)
	providerLog := logging.Component(logger, "provider")
	fallback.OnError = func(name string, err error) {
		providerLog.Debug().Err(err).Str("provider", name).Msg("fetch failed, trying next provider")
	}
	names := make([]string, 0, len(fallback.Providers()))
	for _, p := range fallback.Providers() {
		names = append(names, p.Name())
	}
	providerLog.Debug().Strs("providers", names).Msg("providers ready")

	cache := provider.NewCachingProvider(fallback, cfg.Data.Bars, cfg.Data.CacheTTL)

	engine, err := analyzer.NewEngine(cfg.EngineParams())
	if err != nil {
		return nil, err
	}

	iv, err := cfg.Interval()
	if err != nil {
		return nil, err
	}

	sc, err := scanner.NewScanner(scanner.Config{
		Provider:     cache,
		Engine:       engine,
		Interval:     iv,
		Bars:         cfg.Data.Bars,
		Workers:      cfg.Scanner.Workers,
		Timeout:      cfg.Scanner.Timeout,
		FetchTimeout: cfg.Scanner.FetchTimeout,
		Metrics:      m,
		Logger:       logging.Component(logger, "scanner"),
	})
	if err != nil {
		return nil, err
	}

	wl, err := watchlist.Open(cfg.Watchlist.File, cfg.Watchlist.Defaults)
	if err != nil {
		return nil, err
	}
	m.SetWatchlistSize(len(wl.List()))

	return &app{
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
		provider:  fallback,
		cache:     cache,
		engine:    engine,
		scanner:   sc,
		watchlist: wl,
	}, nil
}

// openWatchlist loads only the watchlist, for commands that never fetch
func openWatchlist(cmd *cobra.Command) (*watchlist.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return watchlist.Open(cfg.Watchlist.File, cfg.Watchlist.Defaults)
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// targetInstruments resolves --symbols, then --preset, then the watchlist
func (a *app) targetInstruments() ([]model.Instrument, error) {
	var syms []string
	switch {
	case symbolList != "":
		for _, s := range strings.Split(symbolList, ",") {
			norm, err := watchlist.Normalize(s)
			if err != nil {
				return nil, err
			}
			syms = append(syms, norm)
		}
	case presetName != "":
		syms = watchlist.GetPreset(watchlist.Preset(presetName))
		if syms == nil {
			return nil, fmt.Errorf("unknown preset %q", presetName)
		}
	default:
		return a.watchlist.Instruments(), nil
	}

	out := make([]model.Instrument, len(syms))
	for i, s := range syms {
		out[i] = model.Instrument{Symbol: s, Name: watchlist.DisplayName(s)}
	}
	return out, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}

	symbol, err := watchlist.Normalize(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := a.scanner.AnalyzeOne(ctx, model.Instrument{Symbol: symbol, Name: watchlist.DisplayName(symbol)})
	if err != nil {
		return err
	}

	if debug {
		dumpAnalysis(os.Stdout, result)
	}
	if format == "json" {
		return outputJSON(result)
	}
	outputAnalysis(result)
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}

	instruments, err := a.targetInstruments()
	if err != nil {
		return err
	}
	if len(instruments) == 0 {
		return fmt.Errorf("nothing to scan: the watchlist is empty")
	}

	ctx, cancel := signalContext()
	defer cancel()

	var bar progress = noProgress{}
	if format != "json" {
		fmt.Printf("Scanning %d instruments (%s, %d bars)...\n\n", len(instruments), a.cfg.Data.Interval, a.cfg.Data.Bars)
		bar = newProgressBar(len(instruments), "Scanning")
	}
	a.scanner.SetProgressCallback(func(scanned, total int) {
		bar.Set(scanned)
	})

	result, err := a.scanner.Scan(ctx, instruments)
	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}
	bar.Finish()

	if format == "json" {
		return outputJSON(result)
	}
	fmt.Println()
	outputScan(result)
	return nil
}

func runHeatmap(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}

	instruments, err := a.targetInstruments()
	if err != nil {
		return err
	}
	syms := make([]string, len(instruments))
	for i, inst := range instruments {
		syms[i] = inst.Symbol
	}

	ctx, cancel := signalContext()
	defer cancel()

	hm := buildHeatmap(ctx, a, syms)
	if format == "json" {
		return outputJSON(hm)
	}
	outputHeatmap(hm)
	return nil
}

func runWatchlistList(cmd *cobra.Command, args []string) error {
	wl, err := openWatchlist(cmd)
	if err != nil {
		return err
	}
	if format == "json" {
		return outputJSON(wl.Instruments())
	}
	outputInstruments(wl.Instruments())
	return nil
}

func runWatchlistAdd(cmd *cobra.Command, args []string) error {
	wl, err := openWatchlist(cmd)
	if err != nil {
		return err
	}
	for _, sym := range args {
		added, err := wl.Add(sym)
		if err != nil {
			return err
		}
		if added {
			fmt.Printf("Added %s\n", strings.ToUpper(strings.TrimSpace(sym)))
		} else {
			fmt.Printf("%s is already on the watchlist\n", strings.ToUpper(strings.TrimSpace(sym)))
		}
	}
	return nil
}

func runWatchlistRemove(cmd *cobra.Command, args []string) error {
	wl, err := openWatchlist(cmd)
	if err != nil {
		return err
	}
	for _, sym := range args {
		if err := wl.Remove(sym); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", strings.ToUpper(strings.TrimSpace(sym)))
	}
	return nil
}

func runWatchlistPresets(cmd *cobra.Command, args []string) error {
	presets := watchlist.Presets()
	if format == "json" {
		out := make(map[string][]string, len(presets))
		for _, p := range presets {
			out[string(p)] = watchlist.GetPreset(p)
		}
		return outputJSON(out)
	}
	outputPresets(presets)
	return nil
}

// shutdownTimeout bounds graceful shutdown of the server
const shutdownTimeout = 10 * time.Second
