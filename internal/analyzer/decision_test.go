package analyzer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/peterldowns/testy/assert"

	"nexusflow/pkg/model"
)

func TestComposerDecideCoversEveryCombination(t *testing.T) {
	c, err := NewComposer(60)
	assert.NoError(t, err)

	pressures := map[string]*model.PressureReading{
		"buyers above threshold":  {BuyPercent: 70, SellPercent: 30},
		"sellers above threshold": {BuyPercent: 30, SellPercent: 70},
		"at threshold":            {BuyPercent: 60, SellPercent: 40},
	}
	want := map[string]map[model.Direction]model.Decision{
		"buyers above threshold": {
			model.Up:   model.StrongBuy,
			model.Down: model.Neutral,
			model.Flat: model.Neutral,
		},
		"sellers above threshold": {
			model.Up:   model.Neutral,
			model.Down: model.StrongSell,
			model.Flat: model.Neutral,
		},
		"at threshold": {
			model.Up:   model.Neutral,
			model.Down: model.Neutral,
			model.Flat: model.Neutral,
		},
	}

	for state, pressure := range pressures {
		for _, dir := range []model.Direction{model.Up, model.Down, model.Flat} {
			t.Run(fmt.Sprintf("%s/%s", state, dir), func(t *testing.T) {
				assert.Equal(t, want[state][dir], c.Decide(pressure, dir))
			})
		}
	}
}

func TestComposerDecideWithoutPressure(t *testing.T) {
	c, err := NewComposer(DefaultHighThreshold)
	assert.NoError(t, err)
	assert.Equal(t, model.Neutral, c.Decide(nil, model.Up))
}

func TestNewComposerRejectsThresholds(t *testing.T) {
	for _, threshold := range []float64{0, 50, 100, 120, -5} {
		_, err := NewComposer(threshold)
		if !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("threshold %v: expected invalid parameter, got %v", threshold, err)
		}
	}

	_, err := NewComposer(55)
	assert.NoError(t, err)
}
