package analyzer

import (
	"errors"
	"testing"

	"github.com/peterldowns/testy/assert"

	"nexusflow/pkg/model"
)

func TestEstimatePressure(t *testing.T) {
	tests := []struct {
		name      string
		candles   []model.Candle
		window    int
		weighting Weighting
		wantBuy   float64
		wantSell  float64
		wantUsed  int
	}{
		{
			name:      "flat candles fall back to 50/50",
			candles:   dailyCandles(constCloses(10, 100), 0, 0),
			window:    5,
			weighting: WeightRange,
			wantBuy:   50,
			wantSell:  50,
			wantUsed:  5,
		},
		{
			name:      "close on the low is all sellers",
			candles:   dailyCandles(constCloses(6, 100), 2, 0),
			window:    6,
			weighting: WeightRange,
			wantBuy:   0,
			wantSell:  100,
			wantUsed:  6,
		},
		{
			name:      "close on the high is all buyers",
			candles:   dailyCandles(constCloses(6, 100), 0, 3),
			window:    4,
			weighting: WeightRange,
			wantBuy:   100,
			wantSell:  0,
			wantUsed:  4,
		},
		{
			name:      "window longer than the series uses what exists",
			candles:   dailyCandles([]float64{100, 101}, 0.1, 0.9),
			window:    10,
			weighting: WeightRange,
			wantBuy:   90,
			wantSell:  10,
			wantUsed:  2,
		},
		{
			name:      "close at the midpoint is balanced",
			candles:   dailyCandles(linearCloses(20, 1, 100), 0.5, 0.5),
			window:    14,
			weighting: WeightRange,
			wantBuy:   50,
			wantSell:  50,
			wantUsed:  14,
		},
		{
			name:      "zero volume under volume weighting is neutral",
			candles:   []model.Candle{{Open: 10, High: 12, Low: 9, Close: 11}},
			window:    1,
			weighting: WeightVolume,
			wantBuy:   50,
			wantSell:  50,
			wantUsed:  1,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := EstimatePressure(test.candles, test.window, test.weighting)
			assert.NoError(t, err)
			assert.Equal(t, test.wantBuy, got.BuyPercent)
			assert.Equal(t, test.wantSell, got.SellPercent)
			assert.Equal(t, test.wantUsed, got.Window)
		})
	}
}

func TestEstimatePressureRounding(t *testing.T) {
	// bull = 2, bear = 1 -> 66.666... rounds to 66.7
	candles := []model.Candle{{Open: 10, High: 11, Low: 8, Close: 10}}

	got, err := EstimatePressure(candles, 1, WeightRange)
	assert.NoError(t, err)
	assert.Equal(t, 66.7, got.BuyPercent)
	assert.Equal(t, 100.0, got.BuyPercent+got.SellPercent)
}

func TestEstimatePressureVolumeWeighting(t *testing.T) {
	candles := []model.Candle{
		{Time: baseTime, Open: 10, High: 11, Low: 10, Close: 11, Volume: 300},
		{Time: baseTime.AddDate(0, 0, 1), Open: 11, High: 11, Low: 10, Close: 10, Volume: 100},
	}

	byRange, err := EstimatePressure(candles, 2, WeightRange)
	assert.NoError(t, err)
	assert.Equal(t, 50.0, byRange.BuyPercent)

	byVolume, err := EstimatePressure(candles, 2, WeightVolume)
	assert.NoError(t, err)
	assert.Equal(t, 75.0, byVolume.BuyPercent)
	assert.Equal(t, 25.0, byVolume.SellPercent)
}

func TestEstimatePressureSumsToHundred(t *testing.T) {
	closes := []float64{101.3, 99.8, 102.7, 98.1, 100.05, 103.9, 97.35, 100.4, 99.99, 101.01}
	for window := 1; window <= len(closes); window++ {
		for _, weighting := range []Weighting{WeightRange, WeightVolume} {
			candles := dailyCandles(closes, 0.37*float64(window), 1.13)
			got, err := EstimatePressure(candles, window, weighting)
			assert.NoError(t, err)
			if got.BuyPercent+got.SellPercent != 100 {
				t.Errorf("window %d %s: buy %v + sell %v != 100", window, weighting, got.BuyPercent, got.SellPercent)
			}
			if got.BuyPercent < 0 || got.BuyPercent > 100 || got.SellPercent < 0 || got.SellPercent > 100 {
				t.Errorf("window %d %s: out of range %+v", window, weighting, got)
			}
		}
	}
}

func TestEstimatePressureErrors(t *testing.T) {
	_, err := EstimatePressure(nil, 5, WeightRange)
	assert.True(t, errors.Is(err, ErrInsufficientData))

	candles := dailyCandles(constCloses(3, 100), 1, 1)
	_, err = EstimatePressure(candles, 0, WeightRange)
	assert.True(t, errors.Is(err, ErrInvalidParameter))

	_, err = EstimatePressure(candles, 3, Weighting("tick"))
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}
