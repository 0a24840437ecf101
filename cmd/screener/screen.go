package main

import (
	"fmt"
	"net/http"

	"github.com/factorlab/screener/internal/app"
	"github.com/factorlab/screener/internal/config"
	"github.com/factorlab/screener/internal/llm"
	"github.com/factorlab/screener/internal/llm/factory"
	"github.com/factorlab/screener/internal/logger"
	"github.com/factorlab/screener/internal/metrics"
	"github.com/factorlab/screener/internal/provider"
	"github.com/factorlab/screener/internal/provider/alphavantage"
	"github.com/factorlab/screener/internal/provider/yahoo"
	"github.com/factorlab/screener/internal/report/archive"
	"github.com/factorlab/screener/internal/retrieve"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Run a screening pass over the configured universe",
	RunE:  runScreen,
}

func init() {
	rootCmd.AddCommand(screenCmd)
}

func runScreen(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	if cfgFile == "" {
		return fmt.Errorf("config file required (use --config)")
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, reg.Handler())
		go func() {
			log.Info("metrics listener starting", zap.String("addr", cfg.Metrics.Addr))
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				log.Warn("metrics listener stopped", zap.Error(err))
			}
		}()
	}

	primaryCfg := cfg.Providers.Primary
	fallbackCfg := cfg.Providers.Fallback

	primary := yahoo.New(primaryCfg.BaseURL, primaryCfg.Timeout,
		provider.NewBudget(primaryCfg.RatePerSec, primaryCfg.Burst))
	fallback := alphavantage.New(fallbackCfg.BaseURL, fallbackCfg.APIKey, fallbackCfg.Timeout,
		provider.NewBudget(fallbackCfg.RatePerSec, fallbackCfg.Burst))

	orch := retrieve.New(primary, fallback, retrieve.Options{
		PrimaryWorkers:  primaryCfg.Workers,
		FallbackWorkers: fallbackCfg.Workers,
		Logger:          logger.Named(log, "retrieve"),
		Metrics:         reg,
	})

	a := app.New(cfg, orch, log).WithMetrics(reg)

	if cfg.Archive.Enabled {
		store, err := newArchiveStore(cfg)
		if err != nil {
			return fmt.Errorf("creating archive store: %w", err)
		}
		a = a.WithArchive(store)
	}

	if cfg.LLM.Enabled {
		p, err := factory.New(cfg.LLM)
		if err != nil {
			return fmt.Errorf("creating llm provider: %w", err)
		}
		a = a.WithCommentator(llm.NewCommentator(p, logger.Named(log, "llm")))
	}

	summary, err := a.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("report written to %s (%d scored, %d failed)\n",
		summary.OutputPath, summary.Scored, summary.Failed)
	return nil
}

func newArchiveStore(cfg *config.Config) (archive.Store, error) {
	switch cfg.Archive.Type {
	case "localfs":
		return archive.NewLocalStore(cfg.Archive.Path)
	case "s3":
		return archive.NewS3Store(archive.S3Config{
			Bucket:    cfg.Archive.S3.Bucket,
			Endpoint:  cfg.Archive.S3.Endpoint,
			Region:    cfg.Archive.S3.Region,
			AccessKey: cfg.Archive.S3.AccessKey,
			SecretKey: cfg.Archive.S3.SecretKey,
			Prefix:    cfg.Archive.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown archive type: %s", cfg.Archive.Type)
	}
}
