package factor

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCAGR_SteadyGrowth(t *testing.T) {
	// 10% per year over five fiscal years.
	series := []float64{100, 110, 121, 133.1, 146.41}
	got := CAGR(series)
	if got == nil {
		t.Fatal("CAGR = nil, want ~0.10")
	}
	if math.Abs(*got-0.10) > 1e-6 {
		t.Errorf("CAGR = %f, want ~0.10", *got)
	}
}

func TestCAGR_Undefined(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
	}{
		{"empty", nil},
		{"single point", []float64{100}},
		{"zero first", []float64{0, 110}},
		{"negative first", []float64{-50, 110}},
		{"zero last", []float64{100, 0}},
		{"negative last", []float64{100, -10}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CAGR(tc.series); got != nil {
				t.Errorf("CAGR(%v) = %f, want absent", tc.series, *got)
			}
		})
	}
}

func TestYoYGrowth(t *testing.T) {
	got := YoYGrowth([]float64{100, 110, 99})
	want := []float64{0.10, -0.10}
	if len(got) != len(want) {
		t.Fatalf("YoYGrowth = %v, want %v", got, want)
	}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Errorf("YoYGrowth[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestYoYGrowth_NegativeBase(t *testing.T) {
	// A swing from -2 to 1 is growth of 1.5, not -1.5: the denominator
	// uses the absolute prior value.
	got := YoYGrowth([]float64{-2, 1})
	if len(got) != 1 || !almostEqual(got[0], 1.5) {
		t.Errorf("YoYGrowth([-2 1]) = %v, want [1.5]", got)
	}
}

func TestYoYGrowth_SkipsZeroBase(t *testing.T) {
	got := YoYGrowth([]float64{0, 5, 10})
	if len(got) != 1 || !almostEqual(got[0], 1.0) {
		t.Errorf("YoYGrowth([0 5 10]) = %v, want [1]", got)
	}
}

func TestEVAR(t *testing.T) {
	// Population stddev of [0.1, 0.2, 0.3]: mean 0.2, variance
	// 0.02/3, stddev ~0.0816497.
	got := EVAR([]float64{0.1, 0.2, 0.3})
	if got == nil {
		t.Fatal("EVAR = nil")
	}
	if math.Abs(*got-0.0816497) > 1e-6 {
		t.Errorf("EVAR = %f, want ~0.0816497", *got)
	}
}

func TestEVAR_InsufficientData(t *testing.T) {
	if EVAR(nil) != nil {
		t.Error("EVAR(nil) should be absent")
	}
	if EVAR([]float64{0.1, 0.2}) != nil {
		t.Error("EVAR with two observations should be absent")
	}
}

func TestRatioSeries(t *testing.T) {
	got := ratioSeries([]float64{10, 20, 30}, []float64{100, 100, 100})
	want := []float64{0.1, 0.2, 0.3}
	if len(got) != len(want) {
		t.Fatalf("ratioSeries = %v, want %v", got, want)
	}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Errorf("ratioSeries[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestRatioSeries_AlignsOnRecentYears(t *testing.T) {
	// Numerator has one more (older) year than the denominator; the
	// extra year must be dropped from the old end.
	got := ratioSeries([]float64{5, 10, 20}, []float64{100, 200})
	want := []float64{0.1, 0.1}
	if len(got) != len(want) {
		t.Fatalf("ratioSeries = %v, want %v", got, want)
	}
}

func TestRatioSeries_DropsBadDenominators(t *testing.T) {
	got := ratioSeries([]float64{10, 20, 30}, []float64{100, 0, -5})
	if len(got) != 1 || !almostEqual(got[0], 0.1) {
		t.Errorf("ratioSeries = %v, want [0.1]", got)
	}
}

func TestWindow(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5}
	if got := window(series, 3); len(got) != 3 || got[0] != 3 {
		t.Errorf("window(5 elems, 3) = %v", got)
	}
	if got := window(series, 10); len(got) != 5 {
		t.Errorf("window(5 elems, 10) = %v", got)
	}
	if got := window(series, 0); len(got) != 0 {
		t.Errorf("window(5 elems, 0) = %v", got)
	}
}
