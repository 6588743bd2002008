package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"nexusflow/internal/analyzer"
	"nexusflow/internal/metrics"
	"nexusflow/internal/provider"
	"nexusflow/pkg/model"
)

// ProgressCallback is called with progress updates
type ProgressCallback func(scanned, total int)

// Config configures a scanner
type Config struct {
	Provider     provider.Provider
	Engine       *analyzer.Engine
	Interval     model.Interval
	Bars         int
	Workers      int
	Timeout      time.Duration // whole scan
	FetchTimeout time.Duration // one instrument
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
}

// Scanner fetches and analyzes instruments in parallel
type Scanner struct {
	cfg          Config
	progressFunc ProgressCallback
	scanned      atomic.Int64
	inFlight     atomic.Int32
}

// NewScanner creates a new scanner
func NewScanner(cfg Config) (*Scanner, error) {
	if cfg.Provider == nil {
		return nil, errors.New("scanner: provider is required")
	}
	if cfg.Engine == nil {
		return nil, errors.New("scanner: engine is required")
	}
	if cfg.Bars < 1 {
		return nil, fmt.Errorf("scanner: bars must be >= 1, got %d", cfg.Bars)
	}
	if cfg.Interval == "" {
		cfg.Interval = model.Interval1d
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	return &Scanner{cfg: cfg}, nil
}

// SetProgressCallback sets the progress callback function
func (s *Scanner) SetProgressCallback(fn ProgressCallback) {
	s.progressFunc = fn
}

// Scanned returns how many instruments the current or last scan has finished
func (s *Scanner) Scanned() int {
	return int(s.scanned.Load())
}

// Busy reports whether a scan is in progress
func (s *Scanner) Busy() bool {
	return s.inFlight.Load() > 0
}

// AnalyzeOne fetches and analyzes a single instrument
func (s *Scanner) AnalyzeOne(ctx context.Context, inst model.Instrument) (*model.Analysis, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	candles, err := s.cfg.Provider.GetCandles(fetchCtx, inst.Symbol, s.cfg.Interval, s.cfg.Bars)
	if err != nil {
		s.cfg.Metrics.FetchFailed(providerName(err, s.cfg.Provider))
		return nil, fmt.Errorf("fetching %s: %w", inst.Symbol, err)
	}

	a, err := s.cfg.Engine.Analyze(inst, candles)
	if err != nil {
		return nil, err
	}
	s.cfg.Metrics.ObserveAnalysis(a)
	return a, nil
}

type outcome struct {
	index    int
	analysis *model.Analysis
	err      error
}

// Scan analyzes every instrument. Per-instrument failures are recorded in
// the result; results keep the order of instruments.
func (s *Scanner) Scan(ctx context.Context, instruments []model.Instrument) (*model.ScanResult, error) {
	startTime := time.Now()
	id := uuid.NewString()
	logger := s.cfg.Logger.With().Str("scan", id).Logger()

	s.inFlight.Inc()
	defer s.inFlight.Dec()
	s.scanned.Store(0)

	if len(instruments) == 0 {
		return &model.ScanResult{
			ID:        id,
			StartedAt: startTime,
			Results:   []model.Analysis{},
			ScanTime:  time.Since(startTime),
		}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	jobChan := make(chan int, len(instruments))
	outChan := make(chan outcome, len(instruments))

	for i := range instruments {
		jobChan <- i
	}
	close(jobChan)

	var wg sync.WaitGroup
	for i := 0; i < min(s.cfg.Workers, len(instruments)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				if err := ctx.Err(); err != nil {
					outChan <- outcome{index: idx, err: err}
				} else {
					a, err := s.AnalyzeOne(ctx, instruments[idx])
					outChan <- outcome{index: idx, analysis: a, err: err}
				}

				count := s.scanned.Inc()
				if s.progressFunc != nil {
					s.progressFunc(int(count), len(instruments))
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(outChan)
	}()

	outcomes := make([]outcome, 0, len(instruments))
	for o := range outChan {
		outcomes = append(outcomes, o)
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].index < outcomes[j].index })

	result := &model.ScanResult{
		ID:           id,
		StartedAt:    startTime,
		TotalScanned: len(instruments),
		Results:      make([]model.Analysis, 0, len(instruments)),
	}
	for _, o := range outcomes {
		if o.err != nil {
			sym := instruments[o.index].Symbol
			logger.Warn().Err(o.err).Str("symbol", sym).Msg("instrument failed")
			result.Failures = append(result.Failures, model.ScanFailure{Symbol: sym, Error: o.err.Error()})
			continue
		}
		result.Results = append(result.Results, *o.analysis)
	}
	result.AnalyzedCount = len(result.Results)
	result.ScanTime = time.Since(startTime)

	s.cfg.Metrics.ObserveScan(result.ScanTime, time.Now())
	logger.Info().
		Int("analyzed", result.AnalyzedCount).
		Int("failed", len(result.Failures)).
		Dur("took", result.ScanTime).
		Msg("scan complete")

	return result, nil
}

// ScanSymbols scans specific symbols
func (s *Scanner) ScanSymbols(ctx context.Context, symbols []string) (*model.ScanResult, error) {
	instruments := make([]model.Instrument, len(symbols))
	for i, sym := range symbols {
		instruments[i] = model.Instrument{Symbol: sym, Name: sym}
	}
	return s.Scan(ctx, instruments)
}

// providerName attributes a fetch error to the provider that raised it
func providerName(err error, fallback provider.Provider) string {
	var pe *provider.ProviderError
	if errors.As(err, &pe) {
		return pe.Provider
	}
	return fallback.Name()
}
