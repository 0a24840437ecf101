package factor

import (
	"math"
	"testing"

	"github.com/factorlab/screener/internal/core"
)

// valueOnly builds a record holding a single trailing P/E so the value
// group has exactly one populated metric.
func valueOnly(symbol string, trailingPE float64) core.MetricsRecord {
	return core.MetricsRecord{
		Symbol: symbol,
		Value:  core.ValueMetrics{TrailingPE: core.Float(trailingPE)},
	}
}

func TestNormalize_PreservesOrder(t *testing.T) {
	records := []core.MetricsRecord{
		valueOnly("CCC", 10),
		valueOnly("AAA", 20),
		valueOnly("BBB", 30),
	}

	scored := Normalize(records)
	if len(scored) != 3 {
		t.Fatalf("len(scored) = %d, want 3", len(scored))
	}
	for i, want := range []string{"CCC", "AAA", "BBB"} {
		if scored[i].Symbol != want {
			t.Errorf("scored[%d] = %s, want %s", i, scored[i].Symbol, want)
		}
	}
}

func TestNormalize_SampleZScores(t *testing.T) {
	records := []core.MetricsRecord{
		valueOnly("A", 1),
		valueOnly("B", 2),
		valueOnly("C", 3),
	}

	scored := Normalize(records)
	// Sample stddev of [1 2 3] is 1, so the Z-scores are [-1 0 1].
	want := []float64{-1, 0, 1}
	for i := range scored {
		gs := scored[i].ValueScore
		if gs == nil {
			t.Fatalf("%s has no value score", scored[i].Symbol)
		}
		z := gs.ZScores["trailing_pe"]
		if z == nil || math.Abs(*z-want[i]) > 1e-9 {
			t.Errorf("%s z = %v, want %f", scored[i].Symbol, z, want[i])
		}
		if gs.Composite == nil || math.Abs(*gs.Composite-want[i]) > 1e-9 {
			t.Errorf("%s composite = %v, want %f", scored[i].Symbol, gs.Composite, want[i])
		}
	}
}

func TestNormalize_MaxValueNonNegative(t *testing.T) {
	records := []core.MetricsRecord{
		valueOnly("A", 5),
		valueOnly("B", 7),
		valueOnly("C", 42),
	}

	scored := Normalize(records)
	z := scored[2].ValueScore.ZScores["trailing_pe"]
	if z == nil || *z < 0 {
		t.Errorf("z of unique max = %v, want >= 0", z)
	}
}

func TestNormalize_IdenticalValuesSkipped(t *testing.T) {
	records := []core.MetricsRecord{
		valueOnly("A", 10),
		valueOnly("B", 10),
		valueOnly("C", 10),
	}

	scored := Normalize(records)
	for _, s := range scored {
		if s.ValueScore != nil {
			t.Errorf("%s: zero-spread group must yield absent scores", s.Symbol)
		}
	}
}

func TestNormalize_SingleHolderSkipsGroup(t *testing.T) {
	records := []core.MetricsRecord{
		valueOnly("A", 10),
		{Symbol: "B"},
		{Symbol: "C"},
	}

	scored := Normalize(records)
	for _, s := range scored {
		if s.ValueScore != nil {
			t.Errorf("%s: group with one holder must be skipped for everyone", s.Symbol)
		}
	}
}

func TestNormalize_CompositeIgnoresAbsentMetrics(t *testing.T) {
	// Both tickers hold trailing P/E; only A holds P/B too. B's
	// composite must average over its single present Z-score, not be
	// dragged toward zero by the absent one.
	a := valueOnly("A", 10)
	a.Value.PriceToBook = core.Float(3)
	b := valueOnly("B", 30)
	c := valueOnly("C", 20)
	c.Value.PriceToBook = core.Float(5)

	scored := Normalize([]core.MetricsRecord{a, b, c})

	bs := scored[1].ValueScore
	if bs == nil {
		t.Fatal("B has no value score")
	}
	if bs.ZScores["price_to_book"] != nil {
		t.Error("B must have no P/B z-score")
	}
	zpe := bs.ZScores["trailing_pe"]
	if zpe == nil {
		t.Fatal("B must have a trailing P/E z-score")
	}
	if bs.Composite == nil || *bs.Composite != *zpe {
		t.Errorf("B composite = %v, want its only z-score %f", bs.Composite, *zpe)
	}
}

func TestNormalize_GroupsIndependent(t *testing.T) {
	// Profitability data exists for two tickers, growth for none:
	// profitability is scored, growth skipped, value skipped.
	a := core.MetricsRecord{Symbol: "A",
		Profitability: core.ProfitabilityMetrics{ROE: core.Float(0.2)}}
	b := core.MetricsRecord{Symbol: "B",
		Profitability: core.ProfitabilityMetrics{ROE: core.Float(0.1)}}

	scored := Normalize([]core.MetricsRecord{a, b})
	for _, s := range scored {
		if s.ProfitabilityScore == nil {
			t.Errorf("%s: profitability group should be scored", s.Symbol)
		}
		if s.GrowthScore != nil || s.ValueScore != nil {
			t.Errorf("%s: empty groups must stay absent", s.Symbol)
		}
	}
}

func TestNormalize_Empty(t *testing.T) {
	if got := Normalize(nil); len(got) != 0 {
		t.Errorf("Normalize(nil) = %v", got)
	}
}
