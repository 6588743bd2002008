package analyzer

import (
	"fmt"

	"github.com/shopspring/decimal"

	"nexusflow/pkg/model"
)

// Weighting selects how each candle contributes to pressure
type Weighting string

const (
	// WeightRange sums raw close-low and high-close distances
	WeightRange Weighting = "range"
	// WeightVolume scales each candle's distances by its traded volume
	WeightVolume Weighting = "volume"
)

// neutralBuyPercent is used when no candle in the window has a range
const neutralBuyPercent = 50.0

// EstimatePressure scores the trailing window for buyer vs seller dominance.
// A candle closing near its high counts as buyer-dominated for that bar.
func EstimatePressure(candles []model.Candle, window int, weighting Weighting) (*model.PressureReading, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w: pressure window must be >= 1, got %d", ErrInvalidParameter, window)
	}
	if weighting != WeightRange && weighting != WeightVolume {
		return nil, fmt.Errorf("%w: unknown pressure weighting %q", ErrInvalidParameter, weighting)
	}
	if len(candles) == 0 {
		return nil, ErrInsufficientData
	}

	start := len(candles) - window
	if start < 0 {
		start = 0
	}
	trailing := candles[start:]

	var bull, bear float64
	for _, c := range trailing {
		up, down := candleContribution(c)
		if weighting == WeightVolume {
			vol := float64(c.Volume)
			up *= vol
			down *= vol
		}
		bull += up
		bear += down
	}

	buy := neutralBuyPercent
	if total := bull + bear; total > 0 {
		buy = roundTo(bull/total*100, 1)
	}

	return &model.PressureReading{
		BuyPercent:  buy,
		SellPercent: 100 - buy,
		Window:      len(trailing),
	}, nil
}

// candleContribution returns the bullish and bearish distances of one candle
func candleContribution(c model.Candle) (bull, bear float64) {
	if c.High == c.Low {
		return 0, 0
	}
	return max(c.Close-c.Low, 0), max(c.High-c.Close, 0)
}

// roundTo rounds half away from zero to the given number of decimal places
func roundTo(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
