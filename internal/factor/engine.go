package factor

import "github.com/factorlab/screener/internal/core"

// Compute derives the value, profitability and growth metric set from
// one raw record. It is pure: no I/O, no shared state, and the same
// record always yields the same metrics. Any metric whose operands are
// absent or whose denominator is invalid comes back nil, never NaN,
// Inf or a default zero.
func Compute(f core.Fundamentals, lookbackYears int) core.MetricsRecord {
	rec := core.MetricsRecord{Symbol: f.Symbol}

	rec.Value = core.ValueMetrics{
		ForwardPE:   ratio(f.Price, f.ForwardEPS),
		TrailingPE:  ratio(f.Price, f.TrailingEPS),
		PriceToBook: ratio(f.Price, f.BookValuePerShare),
		EBITToTEV:   ratio(f.EBIT, f.EnterpriseValue),
	}

	rec.Profitability = core.ProfitabilityMetrics{
		ROE:   ratio(f.NetIncome, f.Equity),
		ROA:   ratio(f.NetIncome, f.TotalAssets),
		GPOA:  ratio(f.GrossProfit, f.TotalAssets),
		GPMAR: ratio(f.GrossProfit, f.Revenue),
		CFOA:  ratio(f.OperatingCashFlow, f.TotalAssets),
	}

	eps := window(f.EPSHistory, lookbackYears)
	rec.Growth = core.GrowthMetrics{
		EPSCAGR:   CAGR(eps),
		GPOACAGR:  CAGR(ratioSeries(window(f.GrossProfitHistory, lookbackYears), window(f.TotalAssetsHistory, lookbackYears))),
		ROECAGR:   CAGR(ratioSeries(window(f.NetIncomeHistory, lookbackYears), window(f.EquityHistory, lookbackYears))),
		ROACAGR:   CAGR(ratioSeries(window(f.NetIncomeHistory, lookbackYears), window(f.TotalAssetsHistory, lookbackYears))),
		CFOACAGR:  CAGR(ratioSeries(window(f.OperatingCashFlowHistory, lookbackYears), window(f.TotalAssetsHistory, lookbackYears))),
		GPMARCAGR: CAGR(ratioSeries(window(f.GrossProfitHistory, lookbackYears), window(f.RevenueHistory, lookbackYears))),
		EVAR:      EVAR(YoYGrowth(eps)),
	}

	return rec
}

// ratio divides num by den, absent unless both operands are present
// and the denominator is positive. Equity, assets, revenue, earnings
// per share, book value and enterprise value are all quantities for
// which a non-positive denominator makes the ratio meaningless.
func ratio(num, den *float64) *float64 {
	if num == nil || den == nil || *den <= 0 {
		return nil
	}
	v := *num / *den
	return &v
}
