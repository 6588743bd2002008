package analyzer

import (
	"math"
	"time"

	"nexusflow/pkg/model"
)

var baseTime = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// dailyCandles builds one candle per day from close prices, with the given
// distance from close to high and to low.
func dailyCandles(closes []float64, up, down float64) []model.Candle {
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		candles[i] = model.Candle{
			Time:   baseTime.AddDate(0, 0, i),
			Open:   c,
			High:   c + up,
			Low:    c - down,
			Close:  c,
			Volume: 1000,
		}
	}
	return candles
}

func linearCloses(n int, slope, intercept float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = slope*float64(i) + intercept
	}
	return closes
}

func constCloses(n int, v float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = v
	}
	return closes
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
