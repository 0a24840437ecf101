package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/factorlab/screener/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	LookbackYears int             `mapstructure:"lookback_years"`
	Normalize     bool            `mapstructure:"normalize"`
	Tickers       []TickerConfig  `mapstructure:"tickers"`
	Providers     ProvidersConfig `mapstructure:"providers"`
	Report        ReportConfig    `mapstructure:"report"`
	Archive       ArchiveConfig   `mapstructure:"archive"`
	Metrics       MetricsConfig   `mapstructure:"metrics"`
	LLM           LLMConfig       `mapstructure:"llm"`
	Debug         bool            `mapstructure:"debug"`
}

// TickerConfig is one universe entry: symbol plus supplied portfolio weight.
type TickerConfig struct {
	Symbol string  `mapstructure:"symbol"`
	Weight float64 `mapstructure:"weight"`
}

type ProvidersConfig struct {
	Primary  ProviderConfig `mapstructure:"primary"`
	Fallback ProviderConfig `mapstructure:"fallback"`
}

// ProviderConfig holds per-provider connection and budget settings.
// Workers bounds the fetch pool for this provider; RatePerSec and
// Burst feed its rate budget.
type ProviderConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Workers    int           `mapstructure:"workers"`
	RatePerSec float64       `mapstructure:"rate_per_sec"`
	Burst      int           `mapstructure:"burst"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type ReportConfig struct {
	Basename string `mapstructure:"basename"`
	OutDir   string `mapstructure:"out_dir"`
}

type ArchiveConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"` // "localfs" or "s3"
	Path    string   `mapstructure:"path"` // For localfs
	S3      S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds the Prometheus listener configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

type LLMConfig struct {
	Enabled  bool         `mapstructure:"enabled"`
	Provider string       `mapstructure:"provider"`
	Claude   ClaudeConfig `mapstructure:"claude"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("reading config: %w", err))
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unmarshaling config: %w", err))
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults. The fallback pool
// is capped lower than the primary's because Alpha Vantage enforces a
// much stricter rate limit.
func Defaults() *Config {
	return &Config{
		LookbackYears: 5,
		Normalize:     true,
		Providers: ProvidersConfig{
			Primary: ProviderConfig{
				Workers:    8,
				RatePerSec: 5,
				Burst:      5,
				Timeout:    10 * time.Second,
			},
			Fallback: ProviderConfig{
				Workers:    2,
				RatePerSec: 0.4,
				Burst:      1,
				Timeout:    30 * time.Second,
			},
		},
		Report: ReportConfig{
			Basename: "factor_report",
			OutDir:   ".",
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Type:    "localfs",
			Path:    "archive",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if len(c.Tickers) == 0 {
		return core.ErrNoTickers
	}
	for _, t := range c.Tickers {
		if err := core.NewTickerTask(t.Symbol, t.Weight, c.LookbackYears).Validate(); err != nil {
			return err
		}
	}

	if c.LookbackYears < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("lookback_years must be positive, got %d", c.LookbackYears))
	}

	if c.Providers.Primary.Workers < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("primary workers must be positive, got %d", c.Providers.Primary.Workers))
	}
	if c.Providers.Fallback.Workers < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("fallback workers must be positive, got %d", c.Providers.Fallback.Workers))
	}

	if c.Archive.Enabled {
		switch c.Archive.Type {
		case "localfs":
			if c.Archive.Path == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("archive path required for localfs archive"))
			}
		case "s3":
			if c.Archive.S3.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("s3 bucket required for s3 archive"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown archive type: %s", c.Archive.Type))
		}
	}

	if c.LLM.Enabled {
		switch c.LLM.Provider {
		case "claude":
			if c.LLM.Claude.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("claude api_key required when provider is claude"))
			}
		case "openai":
			if c.LLM.OpenAI.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("openai api_key required when provider is openai"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown llm provider: %s", c.LLM.Provider))
		}
	}

	return nil
}

// Tasks builds the immutable ticker task list in configuration order.
func (c *Config) Tasks() []core.TickerTask {
	tasks := make([]core.TickerTask, 0, len(c.Tickers))
	for _, t := range c.Tickers {
		tasks = append(tasks, core.NewTickerTask(t.Symbol, t.Weight, c.LookbackYears))
	}
	return tasks
}
