package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/factorlab/screener/internal/config"
	"github.com/factorlab/screener/internal/core"
	"github.com/factorlab/screener/internal/factor"
	"github.com/factorlab/screener/internal/llm"
	"github.com/factorlab/screener/internal/metrics"
	"github.com/factorlab/screener/internal/report"
	"github.com/factorlab/screener/internal/report/archive"
	"github.com/factorlab/screener/internal/retrieve"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// App runs one screening pass: fetch fundamentals for the configured
// universe, compute factor metrics, normalize cross-sectionally, and
// write the report.
type App struct {
	cfg          *config.Config
	logger       *zap.Logger
	orchestrator *retrieve.Orchestrator
	metrics      *metrics.Registry
	store        archive.Store
	commentator  *llm.Commentator
}

// Summary describes a finished run.
type Summary struct {
	RunID          string
	OutputPath     string
	CommentaryPath string
	ArchiveKey     string
	Scored         int
	Failed         int
	Elapsed        time.Duration
}

// New creates an App. The orchestrator is required; store and
// commentator are optional and skipped when nil.
func New(cfg *config.Config, orch *retrieve.Orchestrator, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfg:          cfg,
		logger:       logger,
		orchestrator: orch,
	}
}

// WithMetrics attaches a metrics registry.
func (a *App) WithMetrics(reg *metrics.Registry) *App {
	a.metrics = reg
	return a
}

// WithArchive attaches a report archive store.
func (a *App) WithArchive(store archive.Store) *App {
	a.store = store
	return a
}

// WithCommentator attaches an LLM commentator.
func (a *App) WithCommentator(c *llm.Commentator) *App {
	a.commentator = c
	return a
}

// Run executes a single screening pass. It fails fast only on an
// empty universe or an unwritable output; per-ticker failures land in
// the report instead.
func (a *App) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()

	tasks := a.cfg.Tasks()
	if len(tasks) == 0 {
		return nil, core.ErrNoTickers
	}

	a.logger.Info("run starting",
		zap.String("run_id", runID),
		zap.Int("tickers", len(tasks)),
		zap.Int("lookback_years", a.cfg.LookbackYears),
		zap.Bool("normalize", a.cfg.Normalize))

	results := a.orchestrator.RetrieveAll(ctx, tasks)

	records := make([]core.MetricsRecord, 0, len(tasks))
	for _, task := range tasks {
		res := results[task.Symbol]
		if res.Failed() {
			continue
		}
		rec := factor.Compute(*res.Fundamentals, task.LookbackYears)
		rec.Symbol = task.Symbol
		rec.Weight = task.Weight
		records = append(records, rec)
	}

	scored := make(map[string]core.ScoredRecord, len(records))
	if a.cfg.Normalize {
		for _, sr := range factor.Normalize(records) {
			scored[sr.Symbol] = sr
		}
	} else {
		for _, rec := range records {
			scored[rec.Symbol] = core.ScoredRecord{MetricsRecord: rec}
		}
	}

	rep := report.Build(runID, tasks, results, scored)

	if a.commentator != nil {
		commentary, err := a.commentator.Generate(ctx, rep)
		if err != nil {
			a.logger.Warn("commentary generation failed", zap.Error(err))
		} else {
			rep.Commentary = commentary
		}
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, rep); err != nil {
		return nil, fmt.Errorf("rendering report: %w", err)
	}

	stamp := time.Now().Format("20060102")
	outPath := filepath.Join(a.cfg.Report.OutDir,
		fmt.Sprintf("%s_%s.csv", a.cfg.Report.Basename, stamp))
	if err := os.MkdirAll(a.cfg.Report.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}

	summary := &Summary{
		RunID:      runID,
		OutputPath: outPath,
		Scored:     len(rep.Rows),
		Failed:     len(rep.Failures),
	}

	// The commentary ships as a sidecar next to the CSV so the tabular
	// artifact stays machine-readable.
	if rep.Commentary != "" {
		commentaryPath := filepath.Join(a.cfg.Report.OutDir,
			fmt.Sprintf("%s_%s_commentary.txt", a.cfg.Report.Basename, stamp))
		if err := os.WriteFile(commentaryPath, []byte(rep.Commentary+"\n"), 0644); err != nil {
			return nil, fmt.Errorf("writing commentary: %w", err)
		}
		summary.CommentaryPath = commentaryPath
	}

	if a.store != nil {
		y, m, d := rep.GeneratedAt.Date()
		key := archive.Key(y, int(m), d, runID)
		if err := a.store.Put(ctx, key, buf.Bytes()); err != nil {
			a.logger.Warn("archiving report failed",
				zap.String("key", key), zap.Error(err))
		} else {
			summary.ArchiveKey = key
		}
		if rep.Commentary != "" {
			ckey := strings.TrimSuffix(key, ".csv") + "_commentary.txt"
			if err := a.store.Put(ctx, ckey, []byte(rep.Commentary+"\n")); err != nil {
				a.logger.Warn("archiving commentary failed",
					zap.String("key", ckey), zap.Error(err))
			}
		}
	}

	summary.Elapsed = time.Since(start)
	a.metrics.ObserveRun(summary.Elapsed.Seconds(), summary.Failed)

	a.logger.Info("run finished",
		zap.String("run_id", runID),
		zap.String("output", outPath),
		zap.String("commentary", summary.CommentaryPath),
		zap.Int("scored", summary.Scored),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", summary.Elapsed))

	return summary, nil
}
