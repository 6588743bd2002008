package analyzer

import (
	"fmt"
	"time"

	"nexusflow/pkg/model"
)

// Project fits close = slope*index + intercept over the whole series and
// extends it horizon candles forward. Indices, not timestamps, drive the fit,
// so session gaps do not bend the line.
//
// A zero interval is inferred from the series as its most frequent gap.
func Project(candles []model.Candle, horizon int, interval time.Duration) (*model.Projection, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("%w: projection horizon must be >= 1, got %d", ErrInvalidParameter, horizon)
	}
	if interval < 0 {
		return nil, fmt.Errorf("%w: projection interval must not be negative, got %s", ErrInvalidParameter, interval)
	}
	if len(candles) < 2 {
		return nil, ErrInsufficientData
	}

	if interval == 0 {
		interval = DominantInterval(candles)
		if interval == 0 {
			return nil, fmt.Errorf("%w: no positive gap between candles", ErrInsufficientData)
		}
	}

	slope, intercept := fitLine(candles)

	n := len(candles)
	last := candles[n-1].Time
	points := make([]model.ProjectionPoint, horizon)
	for k := 1; k <= horizon; k++ {
		idx := float64(n - 1 + k)
		points[k-1] = model.ProjectionPoint{
			Time:  last.Add(time.Duration(k) * interval),
			Close: slope*idx + intercept,
		}
	}

	return &model.Projection{
		Slope:     slope,
		Intercept: intercept,
		Interval:  interval,
		Points:    points,
	}, nil
}

// fitLine is ordinary least squares of close on index 0..n-1
func fitLine(candles []model.Candle) (slope, intercept float64) {
	n := float64(len(candles))
	var sumX, sumY, sumXY, sumX2 float64
	for i, c := range candles {
		x := float64(i)
		sumX += x
		sumY += c.Close
		sumXY += x * c.Close
		sumX2 += x * x
	}

	// Index variance is positive for n >= 2; the guard only protects callers
	// that bypass Project.
	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return 0, candles[len(candles)-1].Close
	}

	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	if allEqualCloses(candles) {
		// Keep the flat line exactly on the last close.
		return 0, candles[len(candles)-1].Close
	}
	return slope, intercept
}

func allEqualCloses(candles []model.Candle) bool {
	for _, c := range candles[1:] {
		if c.Close != candles[0].Close {
			return false
		}
	}
	return true
}

// DominantInterval returns the most frequent positive gap between
// consecutive candles, preferring the smaller gap on ties. It returns 0 when
// no positive gap exists.
func DominantInterval(candles []model.Candle) time.Duration {
	counts := make(map[time.Duration]int)
	for i := 1; i < len(candles); i++ {
		if gap := candles[i].Time.Sub(candles[i-1].Time); gap > 0 {
			counts[gap]++
		}
	}

	var best time.Duration
	bestCount := 0
	for gap, count := range counts {
		if count > bestCount || (count == bestCount && gap < best) {
			best, bestCount = gap, count
		}
	}
	return best
}
