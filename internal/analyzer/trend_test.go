package analyzer

import (
	"errors"
	"testing"

	"github.com/peterldowns/testy/assert"

	"nexusflow/pkg/model"
)

func TestDirectionFromMA(t *testing.T) {
	tests := []struct {
		name      string
		closes    []float64
		period    int
		tolerance float64
		want      model.Direction
	}{
		{"rising closes sit above the average", linearCloses(20, 1, 100), 5, 0, model.Up},
		{"falling closes sit below the average", linearCloses(20, -1, 100), 5, 0, model.Down},
		{"constant closes are flat", constCloses(20, 100), 20, 0, model.Flat},
		{"constant fractional closes are flat", constCloses(20, 0.1), 20, 0, model.Flat},
		{"constant fx-like closes are flat", constCloses(40, 1.2345), 20, 0, model.Flat},
		{"constant 0.3 closes are flat", constCloses(30, 0.3), 20, 0, model.Flat},
		{"constant 0.7 closes are flat", constCloses(30, 0.7), 20, 0, model.Flat},
		{"inside the tolerance band is flat", []float64{100, 100, 100, 101}, 4, 1, model.Flat},
		{"outside the tolerance band is up", []float64{100, 100, 100, 104}, 4, 1, model.Up},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := DirectionFromMA(dailyCandles(test.closes, 1, 1), test.period, test.tolerance)
			assert.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestDirectionFromMAErrors(t *testing.T) {
	candles := dailyCandles(linearCloses(5, 1, 100), 1, 1)

	_, err := DirectionFromMA(candles, 20, 0)
	assert.True(t, errors.Is(err, ErrInsufficientData))

	_, err = DirectionFromMA(candles, 1, 0)
	assert.True(t, errors.Is(err, ErrInvalidParameter))

	_, err = DirectionFromMA(candles, 3, -1)
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}

func TestDirectionFromProjection(t *testing.T) {
	assert.Equal(t, model.Up, DirectionFromProjection(&model.Projection{Slope: 0.2}, 0.1))
	assert.Equal(t, model.Down, DirectionFromProjection(&model.Projection{Slope: -0.2}, 0.1))
	assert.Equal(t, model.Flat, DirectionFromProjection(&model.Projection{Slope: 0.1}, 0.1))
	assert.Equal(t, model.Flat, DirectionFromProjection(nil, 0))
}

func TestParseDirectionSource(t *testing.T) {
	src, err := ParseDirectionSource("projection")
	assert.NoError(t, err)
	assert.Equal(t, SourceProjection, src)

	_, err = ParseDirectionSource("rsi")
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}
