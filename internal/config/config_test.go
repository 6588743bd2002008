package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"

	"nexusflow/internal/analyzer"
	"nexusflow/internal/watchlist"
)

func clearEnv(t *testing.T) {
	t.Setenv("FINNHUB_API_KEY", "")
	t.Setenv("NEXUSFLOW_WATCHLIST", "")
	t.Setenv("NEXUSFLOW_LOG_LEVEL", "")
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	if diff := cmp.Diff(analyzer.DefaultParams(), cfg.EngineParams()); diff != "" {
		t.Errorf("engine params mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, watchlist.FavoriteSymbols, cfg.Watchlist.Defaults)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, 60, cfg.Data.Bars)
	assert.Equal(t, time.Hour, cfg.Data.CacheTTL)
	assert.Equal(t, "@every 15m", cfg.Refresh.Schedule)
}

func TestLoadFileAndEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("FINNHUB_API_KEY", "from-env")
	t.Setenv("NEXUSFLOW_LOG_LEVEL", "debug")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
api:
  finnhub:
    key: from-file
engine:
  pressure_window: 20
  direction_source: projection
  high_threshold: 70
data:
  interval: 1h
  bars: 120
  cache_ttl: 10m
scanner:
  workers: 8
  timeout: 90s
watchlist:
  defaults: [AAPL, MSFT]
`
	assert.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, "from-env", cfg.API.Finnhub.Key)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 90*time.Second, cfg.Scanner.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Scanner.FetchTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Data.CacheTTL)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Watchlist.Defaults)

	p := cfg.EngineParams()
	assert.Equal(t, 20, p.PressureWindow)
	assert.Equal(t, analyzer.SourceProjection, p.DirectionSource)
	assert.Equal(t, 70.0, p.HighThreshold)
	assert.Equal(t, 3, p.MaxLevelsPerSide)

	iv, err := cfg.Interval()
	assert.NoError(t, err)
	assert.Equal(t, "1h", string(iv))
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("engine: [oops"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.HighThreshold = 40
	cfg.Data.Interval = "3d"
	cfg.Scanner.Workers = 0
	cfg.Data.CacheTTL = -time.Second
	cfg.Refresh.Schedule = "whenever"
	cfg.Watchlist.Defaults = []string{"bad symbol"}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, analyzer.ErrInvalidParameter))
	assert.True(t, errors.Is(err, watchlist.ErrInvalidSymbol))

	msg := err.Error()
	for _, want := range []string{"high threshold", "unsupported interval", "workers", "cache_ttl", "refresh.schedule"} {
		assert.True(t, strings.Contains(msg, want))
	}
}
