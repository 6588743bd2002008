package analyzer

import (
	"errors"
	"fmt"
	"time"

	"nexusflow/pkg/model"
)

// Params holds every tunable of the signal engine
type Params struct {
	PressureWindow   int
	Weighting        Weighting
	Neighborhood     int
	MaxLevelsPerSide int
	Horizon          int
	Interval         time.Duration // 0 infers the spacing from the series
	MAPeriod         int
	DirectionSource  DirectionSource
	FlatTolerancePct float64 // MA source: band around the average treated as flat
	SlopeTolerance   float64 // projection source: |slope| at or below this is flat
	HighThreshold    float64
}

// DefaultParams returns the default engine parameters
func DefaultParams() Params {
	return Params{
		PressureWindow:   14,
		Weighting:        WeightRange,
		Neighborhood:     2,
		MaxLevelsPerSide: 3,
		Horizon:          5,
		MAPeriod:         20,
		DirectionSource:  SourceMA,
		HighThreshold:    DefaultHighThreshold,
	}
}

// Validate reports every out-of-range parameter at once
func (p Params) Validate() error {
	var errs error
	if p.PressureWindow < 1 {
		errs = errors.Join(errs, fmt.Errorf("%w: pressure window must be >= 1, got %d", ErrInvalidParameter, p.PressureWindow))
	}
	if p.Weighting != WeightRange && p.Weighting != WeightVolume {
		errs = errors.Join(errs, fmt.Errorf("%w: unknown pressure weighting %q", ErrInvalidParameter, p.Weighting))
	}
	if p.Neighborhood < 1 {
		errs = errors.Join(errs, fmt.Errorf("%w: level neighborhood must be >= 1, got %d", ErrInvalidParameter, p.Neighborhood))
	}
	if p.MaxLevelsPerSide < 1 {
		errs = errors.Join(errs, fmt.Errorf("%w: max levels per side must be >= 1, got %d", ErrInvalidParameter, p.MaxLevelsPerSide))
	}
	if p.Horizon < 1 {
		errs = errors.Join(errs, fmt.Errorf("%w: projection horizon must be >= 1, got %d", ErrInvalidParameter, p.Horizon))
	}
	if p.Interval < 0 {
		errs = errors.Join(errs, fmt.Errorf("%w: projection interval must not be negative", ErrInvalidParameter))
	}
	if p.DirectionSource != SourceMA && p.DirectionSource != SourceProjection {
		errs = errors.Join(errs, fmt.Errorf("%w: unknown direction source %q", ErrInvalidParameter, p.DirectionSource))
	}
	if p.DirectionSource == SourceMA && p.MAPeriod < 2 {
		errs = errors.Join(errs, fmt.Errorf("%w: moving average period must be >= 2, got %d", ErrInvalidParameter, p.MAPeriod))
	}
	if p.FlatTolerancePct < 0 || p.SlopeTolerance < 0 {
		errs = errors.Join(errs, fmt.Errorf("%w: tolerances must not be negative", ErrInvalidParameter))
	}
	if p.HighThreshold <= 50 || p.HighThreshold >= 100 {
		errs = errors.Join(errs, fmt.Errorf("%w: high threshold must be in (50, 100), got %g", ErrInvalidParameter, p.HighThreshold))
	}
	return errs
}

// Engine runs all analyzers over one series. It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	params   Params
	composer *Composer
}

// NewEngine validates params and builds an engine
func NewEngine(p Params) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	composer, err := NewComposer(p.HighThreshold)
	if err != nil {
		return nil, err
	}
	return &Engine{params: p, composer: composer}, nil
}

// Params returns the engine's parameters
func (e *Engine) Params() Params {
	return e.params
}

// Analyze runs pressure, levels, projection and direction over the series
// and composes the decision. Analyzers that lack data are listed in
// Analysis.Skipped. Only an empty series is an error.
func (e *Engine) Analyze(inst model.Instrument, candles []model.Candle) (*model.Analysis, error) {
	if len(candles) == 0 {
		return nil, fmt.Errorf("%s: %w: empty series", inst.Symbol, ErrInsufficientData)
	}

	last := candles[len(candles)-1]
	a := &model.Analysis{
		Instrument:      inst,
		Candles:         len(candles),
		LastClose:       last.Close,
		LastTime:        last.Time,
		DirectionSource: string(e.params.DirectionSource),
	}

	pressure, err := EstimatePressure(candles, e.params.PressureWindow, e.params.Weighting)
	if err := e.absorb(a, "pressure", err); err != nil {
		return nil, err
	}
	a.Pressure = pressure

	a.Supports, a.Resistances, err = DetectLevels(candles, e.params.Neighborhood, e.params.MaxLevelsPerSide)
	if err != nil {
		return nil, err
	}
	if len(candles) < 2*e.params.Neighborhood+1 {
		a.Skipped = append(a.Skipped, "levels")
	}

	projection, err := Project(candles, e.params.Horizon, e.params.Interval)
	if err := e.absorb(a, "projection", err); err != nil {
		return nil, err
	}
	a.Projection = projection

	switch e.params.DirectionSource {
	case SourceProjection:
		a.Direction = DirectionFromProjection(projection, e.params.SlopeTolerance)
	default:
		dir, err := DirectionFromMA(candles, e.params.MAPeriod, e.params.FlatTolerancePct)
		if err := e.absorb(a, "direction", err); err != nil {
			return nil, err
		}
		a.Direction = dir
	}

	a.Decision = e.composer.Decide(a.Pressure, a.Direction)
	return a, nil
}

// absorb records insufficient data as a skipped analyzer and passes any
// other error through
func (e *Engine) absorb(a *model.Analysis, name string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInsufficientData) {
		a.Skipped = append(a.Skipped, name)
		return nil
	}
	return fmt.Errorf("%s %s: %w", a.Instrument.Symbol, name, err)
}
