package core

import (
	"fmt"
	"strings"
	"time"
)

// TickerTask describes one ticker's fetch/compute unit of work.
// Tasks are built once at startup from configuration and never mutated.
type TickerTask struct {
	Symbol        string
	Weight        float64
	LookbackYears int
}

// NewTickerTask builds a task with a normalized (upper-cased) symbol.
func NewTickerTask(symbol string, weight float64, lookbackYears int) TickerTask {
	return TickerTask{
		Symbol:        strings.ToUpper(strings.TrimSpace(symbol)),
		Weight:        weight,
		LookbackYears: lookbackYears,
	}
}

// Validate checks the task invariants.
func (t TickerTask) Validate() error {
	if t.Symbol == "" {
		return WrapError(ErrConfigInvalid, fmt.Errorf("ticker symbol cannot be empty"))
	}
	if t.Weight < 0 || t.Weight > 1 {
		return WrapError(ErrConfigInvalid,
			fmt.Errorf("weight for %s must be between 0 and 1, got %f", t.Symbol, t.Weight))
	}
	if t.LookbackYears < 1 {
		return WrapError(ErrConfigInvalid,
			fmt.Errorf("lookback for %s must be positive, got %d", t.Symbol, t.LookbackYears))
	}
	return nil
}

// Float returns a pointer to v. Absent numeric fields are nil pointers,
// never zero: 0 is a legitimate financial value.
func Float(v float64) *float64 {
	return &v
}

// Fundamentals is the per-ticker snapshot of raw financial data as
// fetched from one provider. Every scalar field is optional; the
// history slices are annual values ordered oldest first and hold at
// most the requested lookback window.
type Fundamentals struct {
	Symbol    string
	Source    string
	FetchedAt time.Time

	Price             *float64
	TrailingEPS       *float64
	ForwardEPS        *float64
	BookValuePerShare *float64
	EBIT              *float64
	EnterpriseValue   *float64
	NetIncome         *float64
	TotalAssets       *float64
	Equity            *float64
	GrossProfit       *float64
	Revenue           *float64
	OperatingCashFlow *float64

	EPSHistory               []float64
	NetIncomeHistory         []float64
	GrossProfitHistory       []float64
	RevenueHistory           []float64
	TotalAssetsHistory       []float64
	EquityHistory            []float64
	OperatingCashFlowHistory []float64
}

// ProviderResult is the outcome of fetching one ticker from one
// provider: either Fundamentals or an error, never both.
type ProviderResult struct {
	Symbol       string
	Provider     string
	Fundamentals *Fundamentals
	Err          error
}

// Failed reports whether the fetch produced no usable record.
func (r ProviderResult) Failed() bool {
	return r.Err != nil || r.Fundamentals == nil
}

// ValueMetrics holds valuation ratios. Each metric is nil when it
// could not be computed from the available raw data.
type ValueMetrics struct {
	ForwardPE   *float64
	TrailingPE  *float64
	PriceToBook *float64
	EBITToTEV   *float64
}

// ProfitabilityMetrics holds the quality-style profitability ratios.
type ProfitabilityMetrics struct {
	ROE   *float64
	ROA   *float64
	GPOA  *float64
	GPMAR *float64
	CFOA  *float64
}

// GrowthMetrics holds lookback-window growth rates and the earnings
// variability measure.
type GrowthMetrics struct {
	EPSCAGR   *float64
	GPOACAGR  *float64
	ROECAGR   *float64
	ROACAGR   *float64
	CFOACAGR  *float64
	GPMARCAGR *float64
	EVAR      *float64
}

// MetricsRecord is the per-ticker derived metric set. The portfolio
// weight is carried forward from the task unchanged.
type MetricsRecord struct {
	Symbol        string
	Weight        float64
	Value         ValueMetrics
	Profitability ProfitabilityMetrics
	Growth        GrowthMetrics
}

// GroupScore holds cross-sectional Z-scores for one factor group:
// per-metric scores plus their composite (mean of the present ones).
type GroupScore struct {
	Composite *float64
	ZScores   map[string]*float64
}

// ScoredRecord is a MetricsRecord augmented with optional factor-group
// Z-scores. A group score is nil when normalization was not requested
// or the group was skipped for insufficient sample size.
type ScoredRecord struct {
	MetricsRecord
	ValueScore         *GroupScore
	ProfitabilityScore *GroupScore
	GrowthScore        *GroupScore
}
