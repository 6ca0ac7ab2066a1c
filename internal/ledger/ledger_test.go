package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/aquarian247/aquasim/internal/stage"
)

var day0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestLedger() *Ledger {
	l := New()
	l.RegisterContainer("tank-1", 1000)
	l.RegisterContainer("tank-2", 1000)
	return l
}

func TestOpenEnforcesCapacity(t *testing.T) {
	l := newTestLedger()

	// 200k fish at 10g = 2000 kg > 1000 kg cap.
	_, err := l.Open("FI-2025-001", "tank-1", stage.Fry, day0, 200_000, 10, OpenOptions{})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("Expected ErrCapacityExceeded, got %v", err)
	}
}

func TestOpenEnforcesSingleBatchRule(t *testing.T) {
	l := newTestLedger()

	if _, err := l.Open("FI-2025-001", "tank-1", stage.Fry, day0, 100, 10, OpenOptions{}); err != nil {
		t.Fatalf("first open: %v", err)
	}

	_, err := l.Open("FI-2025-002", "tank-1", stage.Fry, day0, 100, 10, OpenOptions{})
	if !errors.Is(err, ErrContainerBusy) {
		t.Fatalf("Expected ErrContainerBusy, got %v", err)
	}

	// Explicit mixing is allowed per action.
	if _, err := l.Open("FI-2025-002", "tank-1", stage.Fry, day0, 100, 10, OpenOptions{AllowMixed: true}); err != nil {
		t.Fatalf("mixed open: %v", err)
	}
	if got := len(l.ActiveInterval("tank-1")); got != 2 {
		t.Errorf("Expected 2 active assignments after mixed open, got %d", got)
	}
}

func TestOpenRejectsOverlapSameBatch(t *testing.T) {
	l := newTestLedger()

	if _, err := l.Open("FI-2025-001", "tank-1", stage.Fry, day0, 100, 10, OpenOptions{}); err != nil {
		t.Fatalf("open: %v", err)
	}
	_, err := l.Open("FI-2025-001", "tank-1", stage.Fry, day0.AddDate(0, 0, 1), 50, 10, OpenOptions{AllowMixed: true})
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("Expected ErrOverlap, got %v", err)
	}
}

func TestCreditRecomputesWeight(t *testing.T) {
	l := newTestLedger()

	a, err := l.Open("FI-2025-001", "tank-1", stage.Fry, day0, 0, 0, OpenOptions{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	// 10000 fish at 5g = 50 kg.
	if err := l.Credit(a.ID, 10_000, 50); err != nil {
		t.Fatalf("credit: %v", err)
	}

	got, _ := l.Get(a.ID)
	if got.Population != 10_000 {
		t.Errorf("Expected population 10000, got %d", got.Population)
	}
	if got.AvgWeightG != 5.0 {
		t.Errorf("Expected avg weight 5g, got %f", got.AvgWeightG)
	}
}

func TestDebitToZeroCloses(t *testing.T) {
	l := newTestLedger()

	a, _ := l.Open("FI-2025-001", "tank-1", stage.Fry, day0, 500, 10, OpenOptions{})
	departure := day0.AddDate(0, 0, 90)
	if err := l.Debit(a.ID, 500, departure); err != nil {
		t.Fatalf("debit: %v", err)
	}

	got, _ := l.Get(a.ID)
	if got.Active {
		t.Error("Expected assignment closed after full debit")
	}
	if got.DepartureDate == nil || !got.DepartureDate.Equal(departure) {
		t.Errorf("Expected departure date %v, got %v", departure, got.DepartureDate)
	}
	if got := len(l.ActiveInterval("tank-1")); got != 0 {
		t.Errorf("Expected empty active interval, got %d", got)
	}
}

func TestDebitRejectsNegativePopulation(t *testing.T) {
	l := newTestLedger()

	a, _ := l.Open("FI-2025-001", "tank-1", stage.Fry, day0, 100, 10, OpenOptions{})
	err := l.Debit(a.ID, 101, day0)
	if !errors.Is(err, ErrNegativePopulation) {
		t.Fatalf("Expected ErrNegativePopulation, got %v", err)
	}
}

func TestBiomassConsistency(t *testing.T) {
	l := newTestLedger()

	a, _ := l.Open("FI-2025-001", "tank-1", stage.Fry, day0, 50_000, 8, OpenOptions{})
	if err := l.UpdateWeight(a.ID, 9.5); err != nil {
		t.Fatalf("update weight: %v", err)
	}
	if err := l.RecordMortality(a.ID, 120, day0); err != nil {
		t.Fatalf("mortality: %v", err)
	}

	got, _ := l.Get(a.ID)
	want := float64(got.Population) * got.AvgWeightG / 1000.0
	diff := got.BiomassKg - want
	if diff < 0 {
		diff = -diff
	}
	if diff > 0.01*got.BiomassKg {
		t.Errorf("Biomass %f inconsistent with population*weight %f", got.BiomassKg, want)
	}
}

func TestHardCloseWithPopulation(t *testing.T) {
	l := newTestLedger()

	a, _ := l.Open("FI-2025-001", "tank-1", stage.Adult, day0, 1000, 10, OpenOptions{})
	if err := l.Close(a.ID, day0.AddDate(0, 0, 450)); err != nil {
		t.Fatalf("close: %v", err)
	}
	got, _ := l.Get(a.ID)
	if got.Active {
		t.Error("Expected closed assignment")
	}
	if got.Population != 1000 {
		t.Errorf("Hard close must not alter population, got %d", got.Population)
	}

	// Mutating a closed assignment fails.
	if err := l.Debit(a.ID, 1, day0); !errors.Is(err, ErrAssignmentClosed) {
		t.Errorf("Expected ErrAssignmentClosed, got %v", err)
	}
}

func TestSequentialIntervalsAreAllowed(t *testing.T) {
	l := newTestLedger()

	a, _ := l.Open("FI-2025-001", "tank-1", stage.Fry, day0, 100, 10, OpenOptions{})
	if err := l.Close(a.ID, day0.AddDate(0, 0, 30)); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Same (batch, container) pair may return after the interval closed.
	if _, err := l.Open("FI-2025-001", "tank-1", stage.Parr, day0.AddDate(0, 0, 60), 100, 20, OpenOptions{}); err != nil {
		t.Fatalf("reopen after close: %v", err)
	}
}
