package analyzer

import (
	"fmt"

	"nexusflow/pkg/model"
)

// DefaultHighThreshold is the pressure percentage a side must exceed
const DefaultHighThreshold = 60.0

// Composer turns pressure and trend direction into a recommendation
type Composer struct {
	HighThreshold float64
}

// NewComposer validates the threshold. It must sit strictly between 50 and
// 100 so that at most one side can exceed it.
func NewComposer(highThreshold float64) (*Composer, error) {
	if highThreshold <= 50 || highThreshold >= 100 {
		return nil, fmt.Errorf("%w: high threshold must be in (50, 100), got %g", ErrInvalidParameter, highThreshold)
	}
	return &Composer{HighThreshold: highThreshold}, nil
}

// Decide maps every (pressure, direction) pair to exactly one decision.
// Missing pressure is Neutral.
func (c *Composer) Decide(pressure *model.PressureReading, direction model.Direction) model.Decision {
	if pressure == nil {
		return model.Neutral
	}

	switch {
	case pressure.BuyPercent > c.HighThreshold && direction == model.Up:
		return model.StrongBuy
	case pressure.SellPercent > c.HighThreshold && direction == model.Down:
		return model.StrongSell
	default:
		return model.Neutral
	}
}
