package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"nexusflow/internal/ratelimit"
	"nexusflow/pkg/model"
)

// ErrNoData is returned when the upstream has no candles for a symbol
var ErrNoData = errors.New("no data available")

// Provider defines the interface for market data providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// GetCandles fetches up to bars candles at the given interval, oldest first
	GetCandles(ctx context.Context, symbol string, interval model.Interval, bars int) ([]model.Candle, error)

	// IsAvailable checks if the provider is available (has valid API key)
	IsAvailable() bool

	// RateLimit returns the rate limit per minute
	RateLimit() int
}

// ProviderError represents a provider-specific error
type ProviderError struct {
	Provider  string
	Err       error
	Retryable bool
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// FallbackProvider tries multiple providers in order
type FallbackProvider struct {
	providers []Provider

	// OnError, when set, is called for every provider that fails
	OnError func(provider string, err error)
}

// NewFallbackProvider creates a new fallback provider
func NewFallbackProvider(providers ...Provider) *FallbackProvider {
	// Filter to only available providers
	available := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p.IsAvailable() {
			available = append(available, p)
		}
	}
	return &FallbackProvider{providers: available}
}

// Name returns the combined provider name
func (f *FallbackProvider) Name() string {
	return "fallback"
}

// GetCandles tries each provider in order until one succeeds
func (f *FallbackProvider) GetCandles(ctx context.Context, symbol string, interval model.Interval, bars int) ([]model.Candle, error) {
	if len(f.providers) == 0 {
		return nil, &ProviderError{Provider: f.Name(), Err: errors.New("no provider available"), Retryable: false}
	}

	var errs error
	for _, p := range f.providers {
		data, err := p.GetCandles(ctx, symbol, interval, bars)
		if err == nil {
			return data, nil
		}
		if f.OnError != nil {
			f.OnError(p.Name(), err)
		}
		errs = errors.Join(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errs
}

// IsAvailable returns true if any provider is available
func (f *FallbackProvider) IsAvailable() bool {
	return len(f.providers) > 0
}

// RateLimit returns the highest rate limit among providers
func (f *FallbackProvider) RateLimit() int {
	maxRate := 0
	for _, p := range f.providers {
		if p.RateLimit() > maxRate {
			maxRate = p.RateLimit()
		}
	}
	return maxRate
}

// Providers returns the list of underlying providers
func (f *FallbackProvider) Providers() []Provider {
	return f.providers
}

// lookback returns how far back to request so that bars candles survive
// weekends, holidays and missing bars
func lookback(interval model.Interval, bars int) time.Duration {
	span := interval.Duration() * time.Duration(bars) * 2
	if span < 7*24*time.Hour {
		span = 7 * 24 * time.Hour
	}
	// Yahoo serves intraday history for a limited window only
	switch interval {
	case model.Interval5m, model.Interval15m:
		span = min(span, 59*24*time.Hour)
	case model.Interval1h:
		span = min(span, 729*24*time.Hour)
	}
	return span
}

// fetch performs a rate-limited GET and returns the body. 429 responses
// trigger the limiter's backoff.
func fetch(ctx context.Context, client *http.Client, limiter *ratelimit.Limiter, name, url string) ([]byte, error) {
	if err := limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: name, Err: err, Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		limiter.SignalRateLimited()
		return nil, &ProviderError{Provider: name, Err: errors.New("rate limited"), Retryable: true}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: name, Err: fmt.Errorf("status %d", resp.StatusCode), Retryable: resp.StatusCode >= 500}
	}

	limiter.ResetBackoff()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: name, Err: fmt.Errorf("reading response body: %w", err), Retryable: true}
	}
	return body, nil
}

// lastBars trims an ascending series to its most recent bars entries
func lastBars(candles []model.Candle, bars int) []model.Candle {
	if len(candles) > bars {
		return candles[len(candles)-bars:]
	}
	return candles
}
