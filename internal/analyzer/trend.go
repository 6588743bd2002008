package analyzer

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"nexusflow/pkg/model"
)

// DirectionSource selects where the composer's trend direction comes from
type DirectionSource string

const (
	// SourceMA compares the latest close to a simple moving average
	SourceMA DirectionSource = "ma"
	// SourceProjection uses the sign of the projection slope
	SourceProjection DirectionSource = "projection"
)

// ParseDirectionSource validates a direction source name
func ParseDirectionSource(s string) (DirectionSource, error) {
	switch src := DirectionSource(s); src {
	case SourceMA, SourceProjection:
		return src, nil
	default:
		return "", fmt.Errorf("%w: unknown direction source %q (use ma or projection)", ErrInvalidParameter, s)
	}
}

// flatEpsilon is the relative distance from the average below which a close
// is treated as equal to it
const flatEpsilon = 1e-9

// DirectionFromMA classifies the latest close against SMA(period). Closes
// within tolerancePct percent of the average are Flat.
func DirectionFromMA(candles []model.Candle, period int, tolerancePct float64) (model.Direction, error) {
	if period < 2 {
		return model.Flat, fmt.Errorf("%w: moving average period must be >= 2, got %d", ErrInvalidParameter, period)
	}
	if tolerancePct < 0 {
		return model.Flat, fmt.Errorf("%w: flat tolerance must not be negative, got %g", ErrInvalidParameter, tolerancePct)
	}
	if len(candles) < period {
		return model.Flat, ErrInsufficientData
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	sma := talib.Sma(closes, period)
	ma := sma[len(sma)-1]
	last := closes[len(closes)-1]

	// the running sum behind the average drifts in the last bits, so a close
	// within flatEpsilon of it counts as sitting on it
	if math.Abs(last-ma) <= flatEpsilon*math.Abs(ma) {
		return model.Flat, nil
	}

	band := ma * tolerancePct / 100
	switch {
	case last > ma+band:
		return model.Up, nil
	case last < ma-band:
		return model.Down, nil
	default:
		return model.Flat, nil
	}
}

// DirectionFromProjection classifies the projection slope. A nil projection
// is Flat.
func DirectionFromProjection(p *model.Projection, tolerance float64) model.Direction {
	if p == nil {
		return model.Flat
	}
	switch {
	case p.Slope > tolerance:
		return model.Up
	case p.Slope < -tolerance:
		return model.Down
	default:
		return model.Flat
	}
}
