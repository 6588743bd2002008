package analyzer

import (
	"fmt"

	"nexusflow/pkg/model"
)

// DetectLevels finds support and resistance prices as local extrema over a
// symmetric neighbourhood. Ties count as extrema so flat runs still qualify.
//
// Both results hold at most maxPerSide distinct prices ordered from the
// oldest to the most recent occurrence. A series shorter than
// 2*neighborhood+1 yields two empty slices.
func DetectLevels(candles []model.Candle, neighborhood, maxPerSide int) (supports, resistances []model.Level, err error) {
	if neighborhood < 1 {
		return nil, nil, fmt.Errorf("%w: level neighborhood must be >= 1, got %d", ErrInvalidParameter, neighborhood)
	}
	if maxPerSide < 1 {
		return nil, nil, fmt.Errorf("%w: max levels per side must be >= 1, got %d", ErrInvalidParameter, maxPerSide)
	}

	supports, resistances = []model.Level{}, []model.Level{}
	if len(candles) < 2*neighborhood+1 {
		return supports, resistances, nil
	}

	var lows, highs []model.Level
	for i := neighborhood; i < len(candles)-neighborhood; i++ {
		isLow, isHigh := true, true
		for j := i - neighborhood; j <= i+neighborhood; j++ {
			if j == i {
				continue
			}
			if candles[j].Low < candles[i].Low {
				isLow = false
			}
			if candles[j].High > candles[i].High {
				isHigh = false
			}
		}

		if isLow {
			lows = append(lows, model.Level{Price: candles[i].Low, Kind: model.Support, Time: candles[i].Time})
		}
		if isHigh {
			highs = append(highs, model.Level{Price: candles[i].High, Kind: model.Resistance, Time: candles[i].Time})
		}
	}

	return latestDistinct(lows, maxPerSide), latestDistinct(highs, maxPerSide), nil
}

// latestDistinct collapses equal prices onto their latest occurrence and
// keeps the last limit of them, oldest first. Input must be time ordered.
func latestDistinct(levels []model.Level, limit int) []model.Level {
	seen := make(map[float64]struct{}, len(levels))
	picked := make([]model.Level, 0, limit)

	// Walk newest to oldest so the first hit of a price is its latest one.
	for i := len(levels) - 1; i >= 0 && len(picked) < limit; i-- {
		if _, ok := seen[levels[i].Price]; ok {
			continue
		}
		seen[levels[i].Price] = struct{}{}
		picked = append(picked, levels[i])
	}

	for l, r := 0, len(picked)-1; l < r; l, r = l+1, r-1 {
		picked[l], picked[r] = picked[r], picked[l]
	}
	return picked
}
