package metrics

import "testing"

func TestSnapshotSumsAcrossBatches(t *testing.T) {
	m := New()
	m.AddEvents("FI-2025-001", 100)
	m.AddEvents("FI-2025-002", 50)
	m.AddMortality("FI-2025-001", 7)
	m.AddFeedKg("FI-2025-001", 12.5)
	m.TransferExecuted("FI-2025-001")
	m.BatchCompleted()

	snap, err := m.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if got := snap["aquasim_events_emitted_total"]; got != 150 {
		t.Errorf("Expected 150 events across batches, got %f", got)
	}
	if got := snap["aquasim_mortality_total"]; got != 7 {
		t.Errorf("Expected mortality 7, got %f", got)
	}
	if got := snap["aquasim_feed_consumed_kg_total"]; got != 12.5 {
		t.Errorf("Expected feed 12.5 kg, got %f", got)
	}
	if got := snap["aquasim_batches_completed"]; got != 1 {
		t.Errorf("Expected 1 completed batch, got %f", got)
	}
}

func TestPeakWorkerOccupancy(t *testing.T) {
	m := New()
	m.WorkerStarted()
	m.WorkerStarted()
	m.WorkerDone()
	m.WorkerStarted()

	snap, err := m.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if got := snap["aquasim_peak_worker_occupancy"]; got != 2 {
		t.Errorf("Expected peak occupancy 2, got %f", got)
	}
	if got := snap["aquasim_workers_busy"]; got != 2 {
		t.Errorf("Expected 2 busy workers, got %f", got)
	}
}
