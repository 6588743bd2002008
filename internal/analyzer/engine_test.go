package analyzer

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"

	"nexusflow/pkg/model"
)

var testInstrument = model.Instrument{Symbol: "TEST"}

func newTestEngine(t *testing.T, mutate func(*Params)) *Engine {
	t.Helper()
	p := DefaultParams()
	if mutate != nil {
		mutate(&p)
	}
	e, err := NewEngine(p)
	assert.NoError(t, err)
	return e
}

func TestAnalyzeFlatMarket(t *testing.T) {
	e := newTestEngine(t, nil)

	a, err := e.Analyze(testInstrument, dailyCandles(constCloses(30, 100), 0, 0))
	assert.NoError(t, err)

	assert.Equal(t, 50.0, a.Pressure.BuyPercent)
	assert.Equal(t, 50.0, a.Pressure.SellPercent)
	assert.Equal(t, 14, a.Pressure.Window)
	if diff := cmp.Diff([]float64{100}, levelPrices(a.Supports)); diff != "" {
		t.Errorf("supports mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{100}, levelPrices(a.Resistances)); diff != "" {
		t.Errorf("resistances mismatch (-want +got):\n%s", diff)
	}
	assert.NotNil(t, a.Projection)
	assert.Equal(t, 0.0, a.Projection.Slope)
	for _, p := range a.Projection.Points {
		assert.Equal(t, 100.0, p.Close)
	}
	assert.Equal(t, model.Flat, a.Direction)
	assert.Equal(t, model.Neutral, a.Decision)
	assert.Equal(t, 0, len(a.Skipped))
}

func TestAnalyzeBalancedUptrendIsNeutral(t *testing.T) {
	e := newTestEngine(t, nil)

	a, err := e.Analyze(testInstrument, dailyCandles(linearCloses(20, 1, 100), 0.5, 0.5))
	assert.NoError(t, err)

	assert.Equal(t, 50.0, a.Pressure.BuyPercent)
	assert.True(t, near(a.Projection.Slope, 1))
	assert.Equal(t, model.Up, a.Direction)
	assert.Equal(t, model.Neutral, a.Decision)
	assert.Equal(t, 0, len(a.Supports))
	assert.Equal(t, 0, len(a.Resistances))
	assert.Equal(t, 119.0, a.LastClose)
}

func TestAnalyzeBuyerDominatedUptrend(t *testing.T) {
	e := newTestEngine(t, nil)

	a, err := e.Analyze(testInstrument, dailyCandles(linearCloses(20, 1, 100), 0.1, 0.9))
	assert.NoError(t, err)

	assert.Equal(t, 90.0, a.Pressure.BuyPercent)
	assert.Equal(t, 10.0, a.Pressure.SellPercent)
	assert.Equal(t, model.Up, a.Direction)
	assert.Equal(t, model.StrongBuy, a.Decision)
}

func TestAnalyzeSellerDominatedDowntrend(t *testing.T) {
	e := newTestEngine(t, nil)

	a, err := e.Analyze(testInstrument, dailyCandles(linearCloses(20, -1, 200), 0.9, 0.1))
	assert.NoError(t, err)

	assert.Equal(t, 10.0, a.Pressure.BuyPercent)
	assert.Equal(t, model.Down, a.Direction)
	assert.Equal(t, model.StrongSell, a.Decision)
}

func TestAnalyzeUnchangedFractionalPriceIsNeutral(t *testing.T) {
	e := newTestEngine(t, nil)

	for _, price := range []float64{0.1, 0.3, 0.7, 1.2345} {
		a, err := e.Analyze(testInstrument, dailyCandles(constCloses(40, price), 0.05, 0))
		assert.NoError(t, err)
		assert.Equal(t, model.Flat, a.Direction)
		assert.Equal(t, model.Neutral, a.Decision)
	}
}

func TestAnalyzeShortSeriesSkipsAnalyzers(t *testing.T) {
	e := newTestEngine(t, func(p *Params) { p.PressureWindow = 10 })

	a, err := e.Analyze(testInstrument, dailyCandles([]float64{100, 101}, 1, 1))
	assert.NoError(t, err)

	assert.Equal(t, 2, a.Pressure.Window)
	assert.Equal(t, 0, len(a.Supports))
	assert.Equal(t, 0, len(a.Resistances))
	assert.NotNil(t, a.Projection)
	assert.Equal(t, 5, len(a.Projection.Points))
	assert.Equal(t, model.Flat, a.Direction)
	assert.Equal(t, model.Neutral, a.Decision)
	if diff := cmp.Diff([]string{"levels", "direction"}, a.Skipped); diff != "" {
		t.Errorf("skipped mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeSingleCandle(t *testing.T) {
	e := newTestEngine(t, nil)

	a, err := e.Analyze(testInstrument, dailyCandles([]float64{100}, 1, 1))
	assert.NoError(t, err)
	assert.NotNil(t, a.Pressure)
	assert.Nil(t, a.Projection)
	if diff := cmp.Diff([]string{"levels", "projection", "direction"}, a.Skipped); diff != "" {
		t.Errorf("skipped mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeProjectionDirectionSource(t *testing.T) {
	e := newTestEngine(t, func(p *Params) {
		p.DirectionSource = SourceProjection
		p.SlopeTolerance = 0.5
	})

	a, err := e.Analyze(testInstrument, dailyCandles(linearCloses(8, 1, 100), 0.1, 0.9))
	assert.NoError(t, err)
	assert.Equal(t, "projection", a.DirectionSource)
	assert.Equal(t, model.Up, a.Direction)
	assert.Equal(t, model.StrongBuy, a.Decision)
}

func TestAnalyzeEmptySeries(t *testing.T) {
	e := newTestEngine(t, nil)

	_, err := e.Analyze(testInstrument, nil)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestNewEngineRejectsInvalidParams(t *testing.T) {
	p := DefaultParams()
	p.HighThreshold = 50
	p.PressureWindow = 0

	_, err := NewEngine(p)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}
