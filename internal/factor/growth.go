package factor

import "math"

// CAGR computes the compound annual growth rate implied by the first
// and last values of an oldest-first annual series. Defined only when
// the series spans at least two years and both endpoints are positive;
// a geometric rate over a non-positive endpoint is meaningless.
func CAGR(series []float64) *float64 {
	n := len(series)
	if n < 2 {
		return nil
	}
	first, last := series[0], series[n-1]
	if first <= 0 || last <= 0 {
		return nil
	}
	v := math.Pow(last/first, 1/float64(n-1)) - 1
	return &v
}

// YoYGrowth computes year-over-year growth rates for an oldest-first
// series. The denominator uses the absolute value of the prior year so
// a swing from negative to positive earnings reads as growth rather
// than decline. Years with a zero prior value are skipped.
func YoYGrowth(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}
	out := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		prev := series[i-1]
		if prev == 0 {
			continue
		}
		out = append(out, (series[i]-prev)/math.Abs(prev))
	}
	return out
}

// EVAR is the earnings variability measure: the population standard
// deviation of year-over-year growth rates. Defined only with at
// least three growth observations.
func EVAR(growthRates []float64) *float64 {
	n := len(growthRates)
	if n < 3 {
		return nil
	}

	var sum float64
	for _, g := range growthRates {
		sum += g
	}
	mean := sum / float64(n)

	var variance float64
	for _, g := range growthRates {
		variance += (g - mean) * (g - mean)
	}
	v := math.Sqrt(variance / float64(n))
	return &v
}

// ratioSeries divides two oldest-first annual series element-wise,
// aligning them on their most recent years. Years with a non-positive
// denominator are dropped rather than poisoning the series.
func ratioSeries(num, den []float64) []float64 {
	n := len(num)
	if len(den) < n {
		n = len(den)
	}
	if n == 0 {
		return nil
	}
	num = num[len(num)-n:]
	den = den[len(den)-n:]

	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if den[i] <= 0 {
			continue
		}
		out = append(out, num[i]/den[i])
	}
	return out
}

// window returns at most the last n elements of an oldest-first series.
func window(series []float64, n int) []float64 {
	if n < 0 {
		n = 0
	}
	if len(series) <= n {
		return series
	}
	return series[len(series)-n:]
}
