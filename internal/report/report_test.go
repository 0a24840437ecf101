package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/factorlab/screener/internal/core"
)

func scoredRecord(symbol string, weight float64) core.ScoredRecord {
	return core.ScoredRecord{
		MetricsRecord: core.MetricsRecord{
			Symbol: symbol,
			Weight: weight,
			Value:  core.ValueMetrics{TrailingPE: core.Float(20)},
		},
	}
}

func TestBuild_PreservesConfigOrder(t *testing.T) {
	tasks := []core.TickerTask{
		core.NewTickerTask("AAA", 0.4, 5),
		core.NewTickerTask("BBB", 0.3, 5),
		core.NewTickerTask("CCC", 0.3, 5),
	}
	results := map[string]core.ProviderResult{
		"AAA": {Symbol: "AAA", Provider: "yahoo"},
		"BBB": {Symbol: "BBB", Provider: "alphavantage"},
		"CCC": {Symbol: "CCC", Provider: "alphavantage", Err: core.ErrSymbolNotFound},
	}
	scored := map[string]core.ScoredRecord{
		"BBB": scoredRecord("BBB", 0.3),
		"AAA": scoredRecord("AAA", 0.4),
	}

	rep := Build("run-1", tasks, results, scored)

	if len(rep.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(rep.Rows))
	}
	if rep.Rows[0].Symbol != "AAA" || rep.Rows[1].Symbol != "BBB" {
		t.Errorf("row order = [%s %s], want [AAA BBB]",
			rep.Rows[0].Symbol, rep.Rows[1].Symbol)
	}
	if rep.Rows[0].Provider != "yahoo" || rep.Rows[1].Provider != "alphavantage" {
		t.Errorf("row providers = [%s %s]", rep.Rows[0].Provider, rep.Rows[1].Provider)
	}

	if len(rep.Failures) != 1 {
		t.Fatalf("len(Failures) = %d, want 1", len(rep.Failures))
	}
	f := rep.Failures[0]
	if f.Symbol != "CCC" || f.Provider != "alphavantage" {
		t.Errorf("failure = %+v", f)
	}
	if !strings.Contains(f.Reason, "SYMBOL_NOT_FOUND") {
		t.Errorf("failure reason = %q, want the final provider error", f.Reason)
	}
}

func TestBuild_NoSilentDrops(t *testing.T) {
	tasks := []core.TickerTask{core.NewTickerTask("GONE", 0.5, 5)}

	rep := Build("run-2", tasks, nil, nil)
	if len(rep.Failures) != 1 {
		t.Fatal("unretrieved ticker must appear as a failure")
	}
	if rep.Failures[0].Reason == "" {
		t.Error("failure must carry a reason")
	}
}

func TestWriteCSV(t *testing.T) {
	rep := Report{
		RunID: "run-3",
		Rows:  []Row{{ScoredRecord: scoredRecord("AAA", 0.5), Provider: "yahoo"}},
		Failures: []Failure{
			{Symbol: "BBB", Weight: 0.5, Provider: "alphavantage", Reason: "[RATE_LIMITED] provider rate limit exceeded"},
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rep); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parsing output: %v", err)
	}

	if len(records) != 3 { // header + ok row + failed row
		t.Fatalf("len(records) = %d, want 3", len(records))
	}
	for _, rec := range records {
		if len(rec) != len(csvHeader) {
			t.Errorf("row width = %d, want %d", len(rec), len(csvHeader))
		}
	}

	ok := records[1]
	if ok[0] != "AAA" || ok[2] != "ok" {
		t.Errorf("ok row = %v", ok)
	}
	// Absent forward P/E renders as an empty cell, present trailing
	// P/E does not.
	if ok[4] != "" {
		t.Errorf("absent metric rendered as %q, want empty", ok[4])
	}
	if ok[5] == "" {
		t.Error("present metric rendered empty")
	}

	failed := records[2]
	if failed[0] != "BBB" || failed[2] != "failed" {
		t.Errorf("failed row = %v", failed)
	}
	if !strings.Contains(failed[len(failed)-1], "RATE_LIMITED") {
		t.Errorf("failed row error cell = %q", failed[len(failed)-1])
	}
}
