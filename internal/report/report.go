package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/factorlab/screener/internal/core"
)

// Report is the final run output: one row per ticker that produced
// metrics, in original configuration order, plus an explicit failure
// list for tickers that could not be retrieved from either provider.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	Rows        []Row
	Failures    []Failure
	Commentary  string
}

// Row is one scored ticker plus the provider whose data produced it.
type Row struct {
	core.ScoredRecord
	Provider string
}

// Failure names a ticker that produced no metrics and why. Provider is
// the source whose outcome became final (the fallback when it was
// attempted).
type Failure struct {
	Symbol   string
	Weight   float64
	Provider string
	Reason   string
}

// Build assembles the report from the retrieval results and scored
// records, preserving the task order regardless of the completion
// order of the concurrent fetches. Every input task lands either in
// Rows or in Failures; nothing is silently dropped.
func Build(runID string, tasks []core.TickerTask,
	results map[string]core.ProviderResult,
	scored map[string]core.ScoredRecord) Report {

	rep := Report{
		RunID:       runID,
		GeneratedAt: time.Now(),
	}

	for _, task := range tasks {
		if rec, ok := scored[task.Symbol]; ok {
			rep.Rows = append(rep.Rows, Row{
				ScoredRecord: rec,
				Provider:     results[task.Symbol].Provider,
			})
			continue
		}

		f := Failure{Symbol: task.Symbol, Weight: task.Weight}
		if res, ok := results[task.Symbol]; ok {
			f.Provider = res.Provider
			if res.Err != nil {
				f.Reason = res.Err.Error()
			} else {
				f.Reason = "no data returned"
			}
		} else {
			f.Reason = "no result recorded"
		}
		rep.Failures = append(rep.Failures, f)
	}

	return rep
}

var csvHeader = []string{
	"ticker", "weight", "status", "provider",
	"forward_pe", "trailing_pe", "price_to_book", "ebit_to_tev",
	"roe", "roa", "gpoa", "gpmar", "cfoa",
	"eps_cagr", "gpoa_cagr", "roe_cagr", "roa_cagr", "cfoa_cagr", "gpmar_cagr", "evar",
	"value_z", "profitability_z", "growth_z",
	"error",
}

// WriteCSV renders the report. Absent metrics become empty cells, and
// failed tickers keep their row so the output always covers the full
// configured universe.
func WriteCSV(w io.Writer, rep Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, row := range rep.Rows {
		record := []string{
			row.Symbol,
			formatFloat(&row.Weight),
			"ok",
			row.Provider,
			formatFloat(row.Value.ForwardPE),
			formatFloat(row.Value.TrailingPE),
			formatFloat(row.Value.PriceToBook),
			formatFloat(row.Value.EBITToTEV),
			formatFloat(row.Profitability.ROE),
			formatFloat(row.Profitability.ROA),
			formatFloat(row.Profitability.GPOA),
			formatFloat(row.Profitability.GPMAR),
			formatFloat(row.Profitability.CFOA),
			formatFloat(row.Growth.EPSCAGR),
			formatFloat(row.Growth.GPOACAGR),
			formatFloat(row.Growth.ROECAGR),
			formatFloat(row.Growth.ROACAGR),
			formatFloat(row.Growth.CFOACAGR),
			formatFloat(row.Growth.GPMARCAGR),
			formatFloat(row.Growth.EVAR),
			formatComposite(row.ValueScore),
			formatComposite(row.ProfitabilityScore),
			formatComposite(row.GrowthScore),
			"",
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row for %s: %w", row.Symbol, err)
		}
	}

	for _, f := range rep.Failures {
		record := make([]string, len(csvHeader))
		record[0] = f.Symbol
		record[1] = formatFloat(&f.Weight)
		record[2] = "failed"
		record[3] = f.Provider
		record[len(record)-1] = f.Reason
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing failure row for %s: %w", f.Symbol, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}

func formatComposite(gs *core.GroupScore) string {
	if gs == nil {
		return ""
	}
	return formatFloat(gs.Composite)
}
