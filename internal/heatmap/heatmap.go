package heatmap

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"nexusflow/internal/provider"
	"nexusflow/pkg/model"
)

// Bars is how many daily candles are requested per symbol; only the last
// two are compared
const Bars = 5

// Build computes the latest daily percentage change for every symbol.
// Symbols that fail to fetch or have fewer than two bars are listed in
// Failures. Entries are sorted by change, biggest gain first.
func Build(ctx context.Context, p provider.Provider, symbols []string, workers int) *model.Heatmap {
	if workers < 1 {
		workers = 1
	}

	type tile struct {
		entry *model.HeatmapEntry
		fail  *model.ScanFailure
	}
	tiles := make([]tile, len(symbols))

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, sym := range symbols {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			entry, err := entryFor(ctx, p, sym)
			if err != nil {
				tiles[i] = tile{fail: &model.ScanFailure{Symbol: sym, Error: err.Error()}}
				return
			}
			tiles[i] = tile{entry: entry}
		}()
	}
	wg.Wait()

	hm := &model.Heatmap{Entries: make([]model.HeatmapEntry, 0, len(symbols))}
	for _, t := range tiles {
		if t.fail != nil {
			hm.Failures = append(hm.Failures, *t.fail)
			continue
		}
		hm.Entries = append(hm.Entries, *t.entry)
	}

	sort.SliceStable(hm.Entries, func(i, j int) bool {
		return hm.Entries[i].ChangePct > hm.Entries[j].ChangePct
	})
	return hm
}

func entryFor(ctx context.Context, p provider.Provider, symbol string) (*model.HeatmapEntry, error) {
	candles, err := p.GetCandles(ctx, symbol, model.Interval1d, Bars)
	if err != nil {
		return nil, err
	}
	return Change(symbol, candles)
}

// Change compares the last two closes of a series
func Change(symbol string, candles []model.Candle) (*model.HeatmapEntry, error) {
	if len(candles) < 2 {
		return nil, fmt.Errorf("%s: need at least 2 daily bars, got %d", symbol, len(candles))
	}

	last := decimal.NewFromFloat(candles[len(candles)-1].Close)
	prev := decimal.NewFromFloat(candles[len(candles)-2].Close)
	if prev.IsZero() {
		return nil, fmt.Errorf("%s: previous close is zero", symbol)
	}

	change := last.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100))
	return &model.HeatmapEntry{
		Symbol:    symbol,
		ChangePct: change.Round(2).InexactFloat64(),
		Price:     last.Round(4).InexactFloat64(),
	}, nil
}
