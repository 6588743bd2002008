package model

import (
	"fmt"
	"time"
)

// Candle represents a single candlestick (OHLCV data)
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Instrument represents a tradable symbol tracked by the dashboard
type Instrument struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name,omitempty"`
}

// Interval is a candle resolution
type Interval string

const (
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval1h  Interval = "1h"
	Interval1d  Interval = "1d"
	Interval1wk Interval = "1wk"
)

// ParseInterval validates an interval string
func ParseInterval(s string) (Interval, error) {
	switch iv := Interval(s); iv {
	case Interval5m, Interval15m, Interval1h, Interval1d, Interval1wk:
		return iv, nil
	default:
		return "", fmt.Errorf("unsupported interval %q (use 5m, 15m, 1h, 1d, 1wk)", s)
	}
}

// Duration returns the nominal length of one candle
func (iv Interval) Duration() time.Duration {
	switch iv {
	case Interval5m:
		return 5 * time.Minute
	case Interval15m:
		return 15 * time.Minute
	case Interval1h:
		return time.Hour
	case Interval1wk:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// PressureReading is the buyer/seller split over a trailing window
type PressureReading struct {
	BuyPercent  float64 `json:"buy_percent"`
	SellPercent float64 `json:"sell_percent"`
	Window      int     `json:"window"` // candles actually used
}

// LevelKind represents the type of level.
type LevelKind int

const (
	Support LevelKind = iota
	Resistance
)

// String stringifies the provided level kind.
func (k LevelKind) String() string {
	switch k {
	case Support:
		return "support"
	case Resistance:
		return "resistance"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind by name in JSON output
func (k LevelKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Level is a support or resistance price taken from a local extremum
type Level struct {
	Price float64   `json:"price"`
	Kind  LevelKind `json:"kind"`
	Time  time.Time `json:"time"` // latest candle that produced this price
}

// ProjectionPoint is one extrapolated close
type ProjectionPoint struct {
	Time  time.Time `json:"time"`
	Close float64   `json:"close"`
}

// Projection is a linear trend fitted to closes and extended forward
type Projection struct {
	Slope     float64           `json:"slope"`     // price change per candle
	Intercept float64           `json:"intercept"` // fitted close at index 0
	Interval  time.Duration     `json:"interval"`
	Points    []ProjectionPoint `json:"points"`
}

// Direction is a coarse trend classification
type Direction int

const (
	Flat Direction = iota
	Up
	Down
)

// String stringifies the provided direction.
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "flat"
	}
}

// MarshalText renders the direction by name in JSON output
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Decision is the final recommendation label
type Decision string

const (
	StrongBuy  Decision = "STRONG_BUY"
	StrongSell Decision = "STRONG_SELL"
	Neutral    Decision = "NEUTRAL"
)

// Analysis is the complete engine output for one instrument
type Analysis struct {
	Instrument      Instrument       `json:"instrument"`
	Candles         int              `json:"candles"`
	LastClose       float64          `json:"last_close"`
	LastTime        time.Time        `json:"last_time"`
	Pressure        *PressureReading `json:"pressure,omitempty"`
	Supports        []Level          `json:"supports"`
	Resistances     []Level          `json:"resistances"`
	Projection      *Projection      `json:"projection,omitempty"`
	Direction       Direction        `json:"direction"`
	DirectionSource string           `json:"direction_source"`
	Decision        Decision         `json:"decision"`
	Skipped         []string         `json:"skipped,omitempty"` // analyzers without enough data
}

// ScanFailure records an instrument that could not be analyzed
type ScanFailure struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}

// ScanResult represents the output of one watchlist scan
type ScanResult struct {
	ID            string        `json:"id"`
	StartedAt     time.Time     `json:"started_at"`
	TotalScanned  int           `json:"total_scanned"`
	AnalyzedCount int           `json:"analyzed_count"`
	Results       []Analysis    `json:"results"`
	Failures      []ScanFailure `json:"failures,omitempty"`
	ScanTime      time.Duration `json:"scan_time"`
}

// HeatmapEntry is one tile of the daily change heatmap
type HeatmapEntry struct {
	Symbol    string  `json:"symbol"`
	ChangePct float64 `json:"change_pct"`
	Price     float64 `json:"price"`
}

// Heatmap is the full daily change view
type Heatmap struct {
	Entries  []HeatmapEntry `json:"entries"`
	Failures []ScanFailure  `json:"failures,omitempty"`
}
