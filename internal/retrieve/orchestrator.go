package retrieve

import (
	"context"
	"sync"
	"time"

	"github.com/factorlab/screener/internal/core"
	"github.com/factorlab/screener/internal/metrics"
	"github.com/factorlab/screener/internal/provider"
	"go.uber.org/zap"
)

// Options configures the orchestrator pools. The fallback pool is
// sized independently because the fallback provider usually has a far
// stricter rate limit than the primary.
type Options struct {
	PrimaryWorkers  int
	FallbackWorkers int
	Logger          *zap.Logger
	Metrics         *metrics.Registry
}

// Orchestrator retrieves fundamentals for a task list with at most two
// provider attempts per ticker: primary first, fallback only when the
// primary failed or returned a materially incomplete record.
type Orchestrator struct {
	primary         provider.Provider
	fallback        provider.Provider
	primaryWorkers  int
	fallbackWorkers int
	logger          *zap.Logger
	metrics         *metrics.Registry
}

// New creates an orchestrator over the given provider pair.
func New(primary, fallback provider.Provider, opts Options) *Orchestrator {
	if opts.PrimaryWorkers < 1 {
		opts.PrimaryWorkers = 1
	}
	if opts.FallbackWorkers < 1 {
		opts.FallbackWorkers = 1
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Orchestrator{
		primary:         primary,
		fallback:        fallback,
		primaryWorkers:  opts.PrimaryWorkers,
		fallbackWorkers: opts.FallbackWorkers,
		logger:          opts.Logger,
		metrics:         opts.Metrics,
	}
}

// RetrieveAll fetches every task concurrently and returns exactly one
// result per input ticker, keyed by symbol. A ticker that fails both
// providers is returned as a failure entry, never dropped, and never
// aborts the other tickers.
func (o *Orchestrator) RetrieveAll(ctx context.Context, tasks []core.TickerTask) map[string]core.ProviderResult {
	results := make([]core.ProviderResult, len(tasks))

	all := make([]int, len(tasks))
	for i := range tasks {
		all[i] = i
	}
	o.fanOut(ctx, o.primary, o.primaryWorkers, tasks, all, results)

	var retry []int
	for i, res := range results {
		if res.Failed() {
			o.logger.Warn("primary fetch failed, trying fallback",
				zap.String("ticker", tasks[i].Symbol),
				zap.Error(res.Err),
			)
			retry = append(retry, i)
			continue
		}
		if missing := MissingFields(res.Fundamentals, tasks[i].LookbackYears); len(missing) > 0 {
			o.logger.Info("primary record incomplete, trying fallback",
				zap.String("ticker", tasks[i].Symbol),
				zap.Strings("missing", missing),
			)
			retry = append(retry, i)
		}
	}

	if len(retry) > 0 {
		for range retry {
			o.metrics.IncFallback()
		}
		// The fallback outcome replaces the primary's whenever the
		// fallback was attempted, even if it fails too.
		o.fanOut(ctx, o.fallback, o.fallbackWorkers, tasks, retry, results)
	}

	out := make(map[string]core.ProviderResult, len(tasks))
	for i, task := range tasks {
		out[task.Symbol] = results[i]
	}
	return out
}

// fanOut runs one fetch per listed index over a bounded worker pool.
// Each index is owned by exactly one worker, so results needs no lock.
func (o *Orchestrator) fanOut(ctx context.Context, p provider.Provider, workers int,
	tasks []core.TickerTask, indices []int, results []core.ProviderResult) {

	if workers > len(indices) {
		workers = len(indices)
	}
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				task := tasks[i]
				o.logger.Debug("fetching fundamentals",
					zap.String("ticker", task.Symbol),
					zap.String("provider", p.Name()),
				)

				start := time.Now()
				f, err := p.FetchFundamentals(ctx, task.Symbol, task.LookbackYears)
				elapsed := time.Since(start)

				status := "success"
				if err != nil {
					status = "failure"
					o.logger.Warn("fetch failed",
						zap.String("ticker", task.Symbol),
						zap.String("provider", p.Name()),
						zap.Duration("elapsed", elapsed),
						zap.Error(err),
					)
				} else {
					o.logger.Debug("fetch succeeded",
						zap.String("ticker", task.Symbol),
						zap.String("provider", p.Name()),
						zap.Duration("elapsed", elapsed),
					)
				}
				o.metrics.ObserveFetch(p.Name(), status, elapsed.Seconds())

				results[i] = core.ProviderResult{
					Symbol:       task.Symbol,
					Provider:     p.Name(),
					Fundamentals: f,
					Err:          err,
				}
			}
		}()
	}

	for _, i := range indices {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// MissingFields lists the fields absent from a record that some metric
// group needs. A non-empty list makes the record materially incomplete
// and triggers the fallback.
func MissingFields(f *core.Fundamentals, lookbackYears int) []string {
	if f == nil {
		return []string{"record"}
	}

	required := []struct {
		name string
		val  *float64
	}{
		{"price", f.Price},
		{"trailingEps", f.TrailingEPS},
		{"forwardEps", f.ForwardEPS},
		{"bookValuePerShare", f.BookValuePerShare},
		{"ebit", f.EBIT},
		{"enterpriseValue", f.EnterpriseValue},
		{"netIncome", f.NetIncome},
		{"totalAssets", f.TotalAssets},
		{"equity", f.Equity},
		{"grossProfit", f.GrossProfit},
		{"revenue", f.Revenue},
		{"operatingCashFlow", f.OperatingCashFlow},
	}

	var missing []string
	for _, r := range required {
		if r.val == nil {
			missing = append(missing, r.name)
		}
	}

	// The growth group needs at least two EPS observations, or the
	// whole lookback when it is shorter than that.
	minHist := 2
	if lookbackYears < minHist {
		minHist = lookbackYears
	}
	if len(f.EPSHistory) < minHist {
		missing = append(missing, "epsHistory")
	}

	return missing
}
