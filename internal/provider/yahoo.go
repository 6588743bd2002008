package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/tidwall/gjson"

	"nexusflow/internal/ratelimit"
	"nexusflow/pkg/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooProvider implements the Provider interface for Yahoo Finance (unofficial API)
type YahooProvider struct {
	client    *http.Client
	limiter   *ratelimit.Limiter
	rateLimit int
	baseURL   string
	now       func() time.Time
}

// NewYahooProvider creates a new Yahoo Finance provider
func NewYahooProvider(rateLimitPerMin int) *YahooProvider {
	if rateLimitPerMin <= 0 {
		rateLimitPerMin = 30 // conservative, the API is unofficial
	}
	return &YahooProvider{
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   ratelimit.NewLimiter("yahoo", rateLimitPerMin),
		rateLimit: rateLimitPerMin,
		baseURL:   yahooBaseURL,
		now:       time.Now,
	}
}

// WithBaseURL points the provider at another chart endpoint
func (p *YahooProvider) WithBaseURL(u string) *YahooProvider {
	p.baseURL = u
	return p
}

// Name returns the provider name
func (p *YahooProvider) Name() string {
	return "yahoo"
}

// IsAvailable always returns true (no API key needed)
func (p *YahooProvider) IsAvailable() bool {
	return true
}

// RateLimit returns the rate limit per minute
func (p *YahooProvider) RateLimit() int {
	return p.rateLimit
}

// GetCandles fetches chart data for any Yahoo ticker (stocks, futures such
// as GC=F, fx pairs such as EURUSD=X, crypto, indices)
func (p *YahooProvider) GetCandles(ctx context.Context, symbol string, interval model.Interval, bars int) ([]model.Candle, error) {
	if bars < 1 {
		return nil, fmt.Errorf("bars must be >= 1, got %d", bars)
	}

	end := p.now()
	start := end.Add(-lookback(interval, bars))

	params := url.Values{}
	params.Set("period1", fmt.Sprintf("%d", start.Unix()))
	params.Set("period2", fmt.Sprintf("%d", end.Unix()))
	params.Set("interval", string(interval))
	params.Set("includePrePost", "false")
	reqURL := fmt.Sprintf("%s/%s?%s", p.baseURL, url.PathEscape(symbol), params.Encode())

	body, err := fetch(ctx, p.client, p.limiter, p.Name(), reqURL)
	if err != nil {
		return nil, err
	}

	candles, err := parseYahooChart(body)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", symbol, err), Retryable: false}
	}
	return lastBars(candles, bars), nil
}

// parseYahooChart decodes a chart payload. Bars with any null OHLC value are
// dropped and a null volume reads as zero.
func parseYahooChart(body []byte) ([]model.Candle, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("malformed chart response")
	}
	root := gjson.ParseBytes(body)

	if desc := root.Get("chart.error.description"); desc.Exists() && desc.Type != gjson.Null {
		return nil, errors.New(desc.String())
	}

	result := root.Get("chart.result.0")
	timestamps := result.Get("timestamp").Array()
	if len(timestamps) == 0 {
		return nil, ErrNoData
	}

	quote := result.Get("indicators.quote.0")
	opens := quote.Get("open").Array()
	highs := quote.Get("high").Array()
	lows := quote.Get("low").Array()
	closes := quote.Get("close").Array()
	volumes := quote.Get("volume").Array()

	candles := make([]model.Candle, 0, len(timestamps))
	for i, ts := range timestamps {
		o, okO := value(opens, i)
		h, okH := value(highs, i)
		l, okL := value(lows, i)
		c, okC := value(closes, i)
		if !okO || !okH || !okL || !okC {
			continue
		}

		var volume int64
		if i < len(volumes) {
			volume = volumes[i].Int()
		}

		candles = append(candles, model.Candle{
			Time:   time.Unix(ts.Int(), 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: volume,
		})
	}

	if len(candles) == 0 {
		return nil, ErrNoData
	}

	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})
	return candles, nil
}

// value reads element i, reporting false for missing or null entries
func value(arr []gjson.Result, i int) (float64, bool) {
	if i >= len(arr) || arr[i].Type != gjson.Number {
		return 0, false
	}
	return arr[i].Float(), true
}
