package watchlist

import "sort"

// Preset represents a predefined instrument group
type Preset string

const (
	PresetFavorites Preset = "favorites"
	PresetMetals    Preset = "metals"
	PresetFX        Preset = "fx"
	PresetCrypto    Preset = "crypto"
	PresetIndices   Preset = "indices"
)

// GetPreset returns the list of symbols for a given preset
func GetPreset(p Preset) []string {
	switch p {
	case PresetFavorites:
		return FavoriteSymbols
	case PresetMetals:
		return MetalSymbols
	case PresetFX:
		return FXSymbols
	case PresetCrypto:
		return CryptoSymbols
	case PresetIndices:
		return IndexSymbols
	default:
		return nil
	}
}

// Presets lists every preset name
func Presets() []Preset {
	return []Preset{PresetFavorites, PresetMetals, PresetFX, PresetCrypto, PresetIndices}
}

// FavoriteSymbols is the default watchlist: gold, silver, two majors,
// bitcoin and the two US benchmark indices
var FavoriteSymbols = []string{
	"GC=F", "SI=F", "EURUSD=X", "GBPUSD=X", "BTC-USD", "^GSPC", "^IXIC",
}

// MetalSymbols are precious and industrial metal futures
var MetalSymbols = []string{"GC=F", "SI=F", "PL=F", "PA=F", "HG=F"}

// FXSymbols are major currency pairs
var FXSymbols = []string{
	"EURUSD=X", "GBPUSD=X", "USDJPY=X", "AUDUSD=X", "USDCHF=X", "USDCAD=X", "NZDUSD=X",
}

// CryptoSymbols are the largest crypto assets quoted in USD
var CryptoSymbols = []string{"BTC-USD", "ETH-USD", "SOL-USD", "XRP-USD", "BNB-USD"}

// IndexSymbols are major equity indices
var IndexSymbols = []string{"^GSPC", "^IXIC", "^DJI", "^RUT", "^FTSE", "^GDAXI", "^N225"}

var displayNames = map[string]string{
	"GC=F":     "Gold",
	"SI=F":     "Silver",
	"PL=F":     "Platinum",
	"PA=F":     "Palladium",
	"HG=F":     "Copper",
	"EURUSD=X": "EUR/USD",
	"GBPUSD=X": "GBP/USD",
	"USDJPY=X": "USD/JPY",
	"AUDUSD=X": "AUD/USD",
	"USDCHF=X": "USD/CHF",
	"USDCAD=X": "USD/CAD",
	"NZDUSD=X": "NZD/USD",
	"BTC-USD":  "Bitcoin",
	"ETH-USD":  "Ethereum",
	"SOL-USD":  "Solana",
	"XRP-USD":  "XRP",
	"BNB-USD":  "BNB",
	"^GSPC":    "S&P 500",
	"^IXIC":    "NASDAQ Composite",
	"^DJI":     "Dow Jones",
	"^RUT":     "Russell 2000",
	"^FTSE":    "FTSE 100",
	"^GDAXI":   "DAX",
	"^N225":    "Nikkei 225",
}

// DisplayName returns a human readable name for well known symbols, or the
// symbol itself
func DisplayName(symbol string) string {
	if name, ok := displayNames[symbol]; ok {
		return name
	}
	return symbol
}

// KnownSymbols returns every symbol that has a display name, sorted
func KnownSymbols() []string {
	out := make([]string, 0, len(displayNames))
	for s := range displayNames {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
