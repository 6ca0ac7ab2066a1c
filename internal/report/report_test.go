package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/aquarian247/aquasim/internal/engine"
	"github.com/aquarian247/aquasim/internal/orchestrator"
)

func TestPercentileNearestRank(t *testing.T) {
	values := []float64{50, 10, 30, 5, 100}

	if got := Percentile(values, 50); got != 30 {
		t.Errorf("Expected p50 = 30, got %f", got)
	}
	if got := Percentile(values, 100); got != 100 {
		t.Errorf("Expected p100 = 100, got %f", got)
	}
	if got := Percentile(nil, 85); got != 0 {
		t.Errorf("Expected 0 for empty input, got %f", got)
	}

	// Input order must survive the call.
	if values[0] != 50 || values[4] != 100 {
		t.Errorf("Percentile mutated its input: %v", values)
	}
}

func TestRenderPlanListsEveryBatch(t *testing.T) {
	plans := []engine.BatchPlan{
		{BatchNumber: "FI-2025-001", Geography: "Faroe Islands", StartDate: "2025-01-01", DurationDays: 900, InitialPopulation: 3_500_000},
		{BatchNumber: "SC-2025-001", Geography: "Scotland", StartDate: "2025-01-31", DurationDays: 900, InitialPopulation: 3_500_000},
	}

	var buf bytes.Buffer
	RenderPlan(&buf, plans)

	out := buf.String()
	for _, want := range []string{"FI-2025-001", "SC-2025-001", "3,500,000"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected plan table to contain %q:\n%s", want, out)
		}
	}
}

func TestRenderSummaryCountsOutcomes(t *testing.T) {
	results := []orchestrator.Result{
		{Batch: &engine.Batch{Status: engine.StatusCompleted}, Elapsed: 2 * time.Second},
		{Batch: &engine.Batch{Status: engine.StatusTerminated}, Elapsed: time.Second},
	}

	var buf bytes.Buffer
	RenderSummary(&buf, results, nil, 3*time.Second)

	out := buf.String()
	if !strings.Contains(out, "Terminated") || !strings.Contains(out, "Wall time") {
		t.Errorf("Unexpected summary:\n%s", out)
	}
}
