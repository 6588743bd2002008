package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"nexusflow/internal/heatmap"
	"nexusflow/internal/metrics"
	"nexusflow/internal/provider"
	"nexusflow/internal/scanner"
	"nexusflow/pkg/model"
)

// DefaultSchedule refreshes the dashboard every 15 minutes
const DefaultSchedule = "@every 15m"

// Source supplies the instruments to refresh
type Source interface {
	Instruments() []model.Instrument
}

// Resetter is implemented by caches that must be cleared before a run
type Resetter interface {
	Reset()
}

// Snapshot is the latest refreshed dashboard state
type Snapshot struct {
	Scan      *model.ScanResult `json:"scan"`
	Heatmap   *model.Heatmap    `json:"heatmap"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Config configures a refresher
type Config struct {
	Schedule       string
	Scanner        *scanner.Scanner
	Watchlist      Source
	Provider       provider.Provider // heatmap data
	HeatmapSymbols func() []string   // defaults to the watchlist symbols
	HeatmapWorkers int
	Cache          Resetter
	Metrics        *metrics.Metrics
	Logger         zerolog.Logger
}

// Refresher periodically rescans the watchlist and keeps the latest
// snapshot in memory
type Refresher struct {
	cfg    Config
	cron   *cron.Cron
	runMu  sync.Mutex
	mu     sync.RWMutex
	latest *Snapshot
}

// New validates the config and registers the refresh job
func New(cfg Config) (*Refresher, error) {
	if cfg.Scanner == nil || cfg.Watchlist == nil || cfg.Provider == nil {
		return nil, errors.New("refresh: scanner, watchlist and provider are required")
	}
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.HeatmapWorkers < 1 {
		cfg.HeatmapWorkers = 4
	}

	clog := cronLogger{cfg.Logger}
	r := &Refresher{
		cfg: cfg,
		cron: cron.New(
			cron.WithLogger(clog),
			cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
		),
	}

	if _, err := r.cron.AddFunc(cfg.Schedule, r.scheduledRun); err != nil {
		return nil, fmt.Errorf("register refresh job %q: %w", cfg.Schedule, err)
	}
	return r, nil
}

// Start starts the cron scheduler
func (r *Refresher) Start() {
	r.cron.Start()
	r.cfg.Logger.Info().Str("schedule", r.cfg.Schedule).Msg("refresh scheduler started")
}

// Stop stops the scheduler and waits for a running refresh to finish or
// the context to expire
func (r *Refresher) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	r.cfg.Logger.Info().Msg("refresh scheduler stopped")
}

// Latest returns the most recent snapshot, or nil before the first run
func (r *Refresher) Latest() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// RunNow refreshes immediately. Concurrent calls are serialized.
func (r *Refresher) RunNow(ctx context.Context) (*Snapshot, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	if r.cfg.Cache != nil {
		r.cfg.Cache.Reset()
	}

	instruments := r.cfg.Watchlist.Instruments()
	r.cfg.Metrics.SetWatchlistSize(len(instruments))

	scan, err := r.cfg.Scanner.Scan(ctx, instruments)
	if err != nil {
		return nil, fmt.Errorf("scanning watchlist: %w", err)
	}

	symbols := make([]string, len(instruments))
	for i, inst := range instruments {
		symbols[i] = inst.Symbol
	}
	if r.cfg.HeatmapSymbols != nil {
		symbols = r.cfg.HeatmapSymbols()
	}
	hm := heatmap.Build(ctx, r.cfg.Provider, symbols, r.cfg.HeatmapWorkers)

	snap := &Snapshot{Scan: scan, Heatmap: hm, UpdatedAt: time.Now()}
	r.mu.Lock()
	r.latest = snap
	r.mu.Unlock()
	return snap, nil
}

func (r *Refresher) scheduledRun() {
	if _, err := r.RunNow(context.Background()); err != nil {
		r.cfg.Logger.Error().Err(err).Msg("scheduled refresh failed")
	}
}

// cronLogger routes cron's own logging into zerolog
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
