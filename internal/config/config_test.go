package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/factorlab/screener/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
lookback_years: 5
normalize: true
debug: false

tickers:
  - symbol: aapl
    weight: 0.4
  - symbol: MSFT
    weight: 0.6

providers:
  primary:
    workers: 4
    rate_per_sec: 5
    burst: 5
  fallback:
    api_key: "test-key"
    workers: 2
    rate_per_sec: 0.4
    burst: 1

report:
  basename: screen_results
  out_dir: /tmp
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.LookbackYears)
	require.Len(t, cfg.Tickers, 2)
	assert.Equal(t, "test-key", cfg.Providers.Fallback.APIKey)
	assert.Equal(t, "screen_results", cfg.Report.Basename)
	// Unset keys keep their defaults.
	assert.NotZero(t, cfg.Providers.Primary.Timeout, "primary timeout default should survive unmarshal")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if !errors.Is(err, core.ErrConfigMissing) {
		t.Errorf("expected ErrConfigMissing, got %v", err)
	}
}

func TestValidate_NoTickers(t *testing.T) {
	cfg := Defaults()
	if !errors.Is(cfg.Validate(), core.ErrNoTickers) {
		t.Error("empty universe must fail validation with ErrNoTickers")
	}
}

func TestValidate_BadWeight(t *testing.T) {
	cfg := Defaults()
	cfg.Tickers = []TickerConfig{{Symbol: "AAPL", Weight: 1.5}}
	if !errors.Is(cfg.Validate(), core.ErrConfigInvalid) {
		t.Error("out-of-range weight must fail validation")
	}
}

func TestValidate_LLMRequiresKey(t *testing.T) {
	cfg := Defaults()
	cfg.Tickers = []TickerConfig{{Symbol: "AAPL", Weight: 0.5}}
	cfg.LLM.Enabled = true
	cfg.LLM.Provider = "claude"
	if !errors.Is(cfg.Validate(), core.ErrConfigMissing) {
		t.Error("claude without api_key must fail validation")
	}
}

func TestTasks_PreservesOrderAndNormalizes(t *testing.T) {
	cfg := Defaults()
	cfg.Tickers = []TickerConfig{
		{Symbol: "msft", Weight: 0.3},
		{Symbol: "aapl", Weight: 0.7},
	}

	tasks := cfg.Tasks()
	if len(tasks) != 2 {
		t.Fatalf("len(tasks) = %d, want 2", len(tasks))
	}
	if tasks[0].Symbol != "MSFT" || tasks[1].Symbol != "AAPL" {
		t.Errorf("tasks out of order or not upper-cased: %v", tasks)
	}
	if tasks[0].LookbackYears != cfg.LookbackYears {
		t.Errorf("lookback not propagated: %d", tasks[0].LookbackYears)
	}
}
