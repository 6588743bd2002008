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

const finnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubProvider implements the Provider interface for Finnhub API
type FinnhubProvider struct {
	apiKey    string
	client    *http.Client
	limiter   *ratelimit.Limiter
	rateLimit int
	baseURL   string
	now       func() time.Time
}

// NewFinnhubProvider creates a new Finnhub provider
func NewFinnhubProvider(apiKey string, rateLimitPerMin int) *FinnhubProvider {
	if rateLimitPerMin <= 0 {
		rateLimitPerMin = 60 // free tier
	}
	return &FinnhubProvider{
		apiKey:    apiKey,
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   ratelimit.NewLimiter("finnhub", rateLimitPerMin),
		rateLimit: rateLimitPerMin,
		baseURL:   finnhubBaseURL,
		now:       time.Now,
	}
}

// WithBaseURL points the provider at another API root
func (p *FinnhubProvider) WithBaseURL(u string) *FinnhubProvider {
	p.baseURL = u
	return p
}

// Name returns the provider name
func (p *FinnhubProvider) Name() string {
	return "finnhub"
}

// IsAvailable checks if the provider has an API key
func (p *FinnhubProvider) IsAvailable() bool {
	return p.apiKey != ""
}

// RateLimit returns the rate limit per minute
func (p *FinnhubProvider) RateLimit() int {
	return p.rateLimit
}

// finnhubResolution maps an interval onto Finnhub's resolution codes
func finnhubResolution(interval model.Interval) string {
	switch interval {
	case model.Interval5m:
		return "5"
	case model.Interval15m:
		return "15"
	case model.Interval1h:
		return "60"
	case model.Interval1wk:
		return "W"
	default:
		return "D"
	}
}

// GetCandles fetches stock candles from /stock/candle
func (p *FinnhubProvider) GetCandles(ctx context.Context, symbol string, interval model.Interval, bars int) ([]model.Candle, error) {
	if !p.IsAvailable() {
		return nil, &ProviderError{Provider: p.Name(), Err: errors.New("api key not configured"), Retryable: false}
	}
	if bars < 1 {
		return nil, fmt.Errorf("bars must be >= 1, got %d", bars)
	}

	end := p.now()
	start := end.Add(-lookback(interval, bars))

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("resolution", finnhubResolution(interval))
	params.Set("from", fmt.Sprintf("%d", start.Unix()))
	params.Set("to", fmt.Sprintf("%d", end.Unix()))
	params.Set("token", p.apiKey)

	body, err := fetch(ctx, p.client, p.limiter, p.Name(), p.baseURL+"/stock/candle?"+params.Encode())
	if err != nil {
		return nil, err
	}

	candles, err := parseFinnhubCandles(body)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", symbol, err), Retryable: false}
	}
	return lastBars(candles, bars), nil
}

// parseFinnhubCandles decodes the column-oriented candle payload
func parseFinnhubCandles(body []byte) ([]model.Candle, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("malformed candle response")
	}
	root := gjson.ParseBytes(body)

	if msg := root.Get("error"); msg.Exists() {
		return nil, errors.New(msg.String())
	}
	if root.Get("s").String() != "ok" {
		return nil, ErrNoData
	}

	ts := root.Get("t").Array()
	opens := root.Get("o").Array()
	highs := root.Get("h").Array()
	lows := root.Get("l").Array()
	closes := root.Get("c").Array()
	volumes := root.Get("v").Array()

	candles := make([]model.Candle, 0, len(ts))
	for i := range ts {
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
			Time:   time.Unix(ts[i].Int(), 0).UTC(),
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
