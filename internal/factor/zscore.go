package factor

import (
	"math"

	"github.com/factorlab/screener/internal/core"
)

// metricField names one metric within a factor group and knows how to
// read it off a record.
type metricField struct {
	name string
	get  func(core.MetricsRecord) *float64
}

var valueFields = []metricField{
	{"forward_pe", func(r core.MetricsRecord) *float64 { return r.Value.ForwardPE }},
	{"trailing_pe", func(r core.MetricsRecord) *float64 { return r.Value.TrailingPE }},
	{"price_to_book", func(r core.MetricsRecord) *float64 { return r.Value.PriceToBook }},
	{"ebit_to_tev", func(r core.MetricsRecord) *float64 { return r.Value.EBITToTEV }},
}

var profitabilityFields = []metricField{
	{"roe", func(r core.MetricsRecord) *float64 { return r.Profitability.ROE }},
	{"roa", func(r core.MetricsRecord) *float64 { return r.Profitability.ROA }},
	{"gpoa", func(r core.MetricsRecord) *float64 { return r.Profitability.GPOA }},
	{"gpmar", func(r core.MetricsRecord) *float64 { return r.Profitability.GPMAR }},
	{"cfoa", func(r core.MetricsRecord) *float64 { return r.Profitability.CFOA }},
}

var growthFields = []metricField{
	{"eps_cagr", func(r core.MetricsRecord) *float64 { return r.Growth.EPSCAGR }},
	{"gpoa_cagr", func(r core.MetricsRecord) *float64 { return r.Growth.GPOACAGR }},
	{"roe_cagr", func(r core.MetricsRecord) *float64 { return r.Growth.ROECAGR }},
	{"roa_cagr", func(r core.MetricsRecord) *float64 { return r.Growth.ROACAGR }},
	{"cfoa_cagr", func(r core.MetricsRecord) *float64 { return r.Growth.CFOACAGR }},
	{"gpmar_cagr", func(r core.MetricsRecord) *float64 { return r.Growth.GPMARCAGR }},
	{"evar", func(r core.MetricsRecord) *float64 { return r.Growth.EVAR }},
}

// Normalize assigns cross-sectional Z-scores to every record, one
// factor group at a time, and returns the records in input order. It
// is a pure function of the record set: the only cross-record coupling
// is through the aggregate mean and standard deviation per metric.
func Normalize(records []core.MetricsRecord) []core.ScoredRecord {
	out := make([]core.ScoredRecord, len(records))
	for i, r := range records {
		out[i] = core.ScoredRecord{MetricsRecord: r}
	}

	value := groupScores(records, valueFields)
	profitability := groupScores(records, profitabilityFields)
	growth := groupScores(records, growthFields)

	for i := range out {
		out[i].ValueScore = value[i]
		out[i].ProfitabilityScore = profitability[i]
		out[i].GrowthScore = growth[i]
	}
	return out
}

// groupScores computes the per-ticker score for one factor group. A
// group with fewer than two tickers holding any valid value is skipped
// for everyone.
func groupScores(records []core.MetricsRecord, fields []metricField) []*core.GroupScore {
	scores := make([]*core.GroupScore, len(records))

	holders := 0
	for _, r := range records {
		for _, f := range fields {
			if f.get(r) != nil {
				holders++
				break
			}
		}
	}
	if holders < 2 {
		return scores
	}

	// Z-score each metric column independently.
	zcols := make(map[string][]*float64, len(fields))
	for _, f := range fields {
		col := make([]*float64, len(records))
		for i, r := range records {
			col[i] = f.get(r)
		}
		zcols[f.name] = zscores(col)
	}

	for i := range records {
		zs := make(map[string]*float64, len(fields))
		var sum float64
		var n int
		for _, f := range fields {
			z := zcols[f.name][i]
			zs[f.name] = z
			if z != nil {
				sum += *z
				n++
			}
		}
		if n == 0 {
			// No metric in this group survived for this ticker.
			continue
		}
		composite := sum / float64(n)
		scores[i] = &core.GroupScore{
			Composite: &composite,
			ZScores:   zs,
		}
	}
	return scores
}

// zscores standardizes one metric column. Absent values stay absent,
// and the whole column is absent when fewer than two values are
// present or the spread is zero.
func zscores(col []*float64) []*float64 {
	out := make([]*float64, len(col))

	var values []float64
	for _, v := range col {
		if v != nil {
			values = append(values, *v)
		}
	}
	if len(values) < 2 {
		return out
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	stddev := math.Sqrt(variance / float64(len(values)-1))
	if stddev == 0 {
		return out
	}

	for i, v := range col {
		if v == nil {
			continue
		}
		z := (*v - mean) / stddev
		out[i] = &z
	}
	return out
}
