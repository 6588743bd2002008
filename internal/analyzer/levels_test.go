package analyzer

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"

	"nexusflow/pkg/model"
)

func levelPrices(levels []model.Level) []float64 {
	prices := make([]float64, len(levels))
	for i, l := range levels {
		prices[i] = l.Price
	}
	return prices
}

// zigzag lows: troughs of 8, 7, 8 and 6 at indices 2, 6, 10 and 14.
var zigzag = []float64{10, 9, 8, 9, 10, 9, 7, 9, 10, 9, 8, 9, 10, 9, 6, 9, 10}

func zigzagCandles() []model.Candle {
	// low = close - 0, high = close + 1
	return dailyCandles(zigzag, 1, 0)
}

func TestDetectLevels(t *testing.T) {
	tests := []struct {
		name            string
		candles         []model.Candle
		neighborhood    int
		maxPerSide      int
		wantSupports    []float64
		wantResistances []float64
	}{
		{
			name:            "single trough and peak",
			candles:         dailyCandles([]float64{5, 4, 3, 4, 5}, 1, 1),
			neighborhood:    2,
			maxPerSide:      3,
			wantSupports:    []float64{2},
			wantResistances: []float64{},
		},
		{
			name:            "distinct troughs ordered by latest occurrence",
			candles:         zigzagCandles(),
			neighborhood:    1,
			maxPerSide:      3,
			wantSupports:    []float64{7, 8, 6},
			wantResistances: []float64{11},
		},
		{
			name:            "only the most recent levels are kept",
			candles:         zigzagCandles(),
			neighborhood:    1,
			maxPerSide:      2,
			wantSupports:    []float64{8, 6},
			wantResistances: []float64{11},
		},
		{
			name:            "plateau ties collapse to one level per side",
			candles:         dailyCandles(constCloses(30, 100), 0, 0),
			neighborhood:    2,
			maxPerSide:      3,
			wantSupports:    []float64{100},
			wantResistances: []float64{100},
		},
		{
			name:            "monotonic series has no interior extrema",
			candles:         dailyCandles(linearCloses(20, 1, 100), 0.5, 0.5),
			neighborhood:    2,
			maxPerSide:      3,
			wantSupports:    []float64{},
			wantResistances: []float64{},
		},
		{
			name:            "series shorter than the window is empty",
			candles:         dailyCandles([]float64{100, 101, 99, 102}, 1, 1),
			neighborhood:    2,
			maxPerSide:      3,
			wantSupports:    []float64{},
			wantResistances: []float64{},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			supports, resistances, err := DetectLevels(test.candles, test.neighborhood, test.maxPerSide)
			assert.NoError(t, err)
			assert.NotNil(t, supports)
			assert.NotNil(t, resistances)

			if diff := cmp.Diff(test.wantSupports, levelPrices(supports)); diff != "" {
				t.Errorf("supports mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(test.wantResistances, levelPrices(resistances)); diff != "" {
				t.Errorf("resistances mismatch (-want +got):\n%s", diff)
			}
			for _, l := range supports {
				assert.Equal(t, model.Support, l.Kind)
			}
			for _, l := range resistances {
				assert.Equal(t, model.Resistance, l.Kind)
			}
		})
	}
}

func TestDetectLevelsKeepsLatestTime(t *testing.T) {
	candles := zigzagCandles()
	supports, resistances, err := DetectLevels(candles, 1, 5)
	assert.NoError(t, err)

	// The peak of 11 appears at indices 4, 8 and 12; the level carries the last.
	assert.Equal(t, 1, len(resistances))
	assert.True(t, resistances[0].Time.Equal(candles[12].Time))
	assert.True(t, supports[len(supports)-1].Time.Equal(candles[14].Time))
}

func TestDetectLevelsInvariants(t *testing.T) {
	closes := []float64{
		100, 102, 101, 103, 99, 98, 101, 104, 102, 100,
		99, 101, 103, 105, 102, 98, 97, 99, 102, 104,
		103, 101, 100, 102, 98, 99, 103, 106, 104, 101,
	}
	candles := dailyCandles(closes, 1.5, 1.5)

	for neighborhood := 1; neighborhood <= 4; neighborhood++ {
		for maxPerSide := 1; maxPerSide <= 4; maxPerSide++ {
			supports, resistances, err := DetectLevels(candles, neighborhood, maxPerSide)
			assert.NoError(t, err)
			assert.LessThanOrEqual(t, len(supports), maxPerSide)
			assert.LessThanOrEqual(t, len(resistances), maxPerSide)
			assertDistinct(t, supports)
			assertDistinct(t, resistances)
		}
	}
}

func assertDistinct(t *testing.T, levels []model.Level) {
	t.Helper()
	seen := make(map[float64]bool)
	for _, l := range levels {
		if seen[l.Price] {
			t.Errorf("duplicate level price %v", l.Price)
		}
		seen[l.Price] = true
	}
}

func TestDetectLevelsInvalidParameters(t *testing.T) {
	candles := zigzagCandles()

	_, _, err := DetectLevels(candles, 0, 3)
	assert.True(t, errors.Is(err, ErrInvalidParameter))

	_, _, err = DetectLevels(candles, 2, 0)
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}
