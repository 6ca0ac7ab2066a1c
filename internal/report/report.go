// Package report renders human-readable views of plans and run outcomes:
// the dry-run schedule table and the end-of-run summary.
package report

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/aquarian247/aquasim/internal/engine"
	"github.com/aquarian247/aquasim/internal/metrics"
	"github.com/aquarian247/aquasim/internal/orchestrator"
)

// RenderPlan writes the schedule as a table, one row per batch.
func RenderPlan(w io.Writer, plans []engine.BatchPlan) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Batch", "Geography", "Start", "Days", "Station", "Population"})
	for i, p := range plans {
		t.AppendRow(table.Row{
			i + 1, p.BatchNumber, p.Geography, p.StartDate, p.DurationDays,
			p.StationIndex, humanize.Comma(int64(p.InitialPopulation)),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "Batches", len(plans)})
	t.Render()
}

// RenderSummary writes the end-of-run report: batch outcomes with elapsed
// percentiles, then the counter totals from the metrics snapshot.
func RenderSummary(w io.Writer, results []orchestrator.Result, m *metrics.Metrics, wall time.Duration) {
	completed, terminated, failed := 0, 0, 0
	var elapsed []float64
	for _, r := range results {
		elapsed = append(elapsed, r.Elapsed.Seconds())
		switch {
		case r.Err != nil:
			failed++
		case r.Batch != nil && r.Batch.Status == engine.StatusCompleted:
			completed++
		case r.Batch != nil && r.Batch.Status == engine.StatusTerminated:
			terminated++
		default:
			completed++
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRow(table.Row{"Batches run", len(results)})
	t.AppendRow(table.Row{"Completed", completed})
	t.AppendRow(table.Row{"Terminated", terminated})
	t.AppendRow(table.Row{"Failed", failed})
	t.AppendRow(table.Row{"Wall time", wall.Round(time.Second)})
	t.AppendRow(table.Row{"Batch time p50", fmt.Sprintf("%.1fs", Percentile(elapsed, 50))})
	t.AppendRow(table.Row{"Batch time p85", fmt.Sprintf("%.1fs", Percentile(elapsed, 85))})

	if m != nil {
		if snap, err := m.Snapshot(); err == nil {
			t.AppendRow(table.Row{"Events emitted", humanize.Comma(int64(snap["aquasim_events_emitted_total"]))})
			t.AppendRow(table.Row{"Transfers executed", humanize.Comma(int64(snap["aquasim_transfers_executed_total"]))})
			t.AppendRow(table.Row{"Mortality total", humanize.Comma(int64(snap["aquasim_mortality_total"]))})
			t.AppendRow(table.Row{"Feed consumed", humanize.Comma(int64(snap["aquasim_feed_consumed_kg_total"])) + " kg"})
			t.AppendRow(table.Row{"Peak worker occupancy", int(snap["aquasim_peak_worker_occupancy"])})
		}
	}
	t.Render()
}

// Percentile returns the p-th percentile of values by nearest-rank. The
// input is copied, never mutated.
func Percentile(values []float64, p int) float64 {
	if len(values) == 0 {
		return 0
	}
	temp := make([]float64, len(values))
	copy(temp, values)
	slices.Sort(temp)

	rank := (p*len(temp) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	if rank > len(temp) {
		rank = len(temp)
	}
	return temp[rank-1]
}
