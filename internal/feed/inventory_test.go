package feed

import (
	"errors"
	"testing"
)

func TestConsumeFIFO(t *testing.T) {
	inv := NewInventory(1000, "2025-01-01")

	if _, err := inv.Consume("Starter Feed 1.0mm", 100, "2025-02-01"); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if got := inv.RemainingKg("Starter Feed 1.0mm"); got != 900 {
		t.Errorf("Expected 900 kg remaining, got %f", got)
	}
}

func TestUnknownFeedFails(t *testing.T) {
	inv := NewInventory(1000, "2025-01-01")
	_, err := inv.Consume("Mystery Pellets", 10, "2025-02-01")
	if !errors.Is(err, ErrUnknownFeed) {
		t.Fatalf("Expected ErrUnknownFeed, got %v", err)
	}
}

func TestLowWaterTriggersReplenishment(t *testing.T) {
	inv := NewInventory(1000, "2025-01-01")

	// Draw down to 250 kg: no replenishment yet.
	if p, _ := inv.Consume("Grower Feed 3.0mm", 750, "2025-02-01"); p != nil {
		t.Errorf("Expected no purchase at 25%% stock, got %+v", p)
	}

	// Next draw lands below the 20% mark and restocks to capacity.
	p, err := inv.Consume("Grower Feed 3.0mm", 100, "2025-02-02")
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if p == nil {
		t.Fatal("Expected a replenishment purchase below low-water mark")
	}
	if p.Feed != "Grower Feed 3.0mm" || p.Date != "2025-02-02" {
		t.Errorf("Unexpected purchase %+v", p)
	}
	if got := inv.RemainingKg("Grower Feed 3.0mm"); got != 1000 {
		t.Errorf("Expected restock to capacity 1000 kg, got %f", got)
	}
}

func TestShortfallReplenishesInsteadOfFailing(t *testing.T) {
	inv := NewInventory(500, "2025-01-01")

	if p, err := inv.Consume("Grow-Out Feed 9.0mm", 350, "2025-02-01"); err != nil || p != nil {
		t.Fatalf("Consume: p=%+v err=%v", p, err)
	}
	// 150 kg on hand, 200 kg demanded: must replenish, not fail.
	p, err := inv.Consume("Grow-Out Feed 9.0mm", 200, "2025-02-02")
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if p == nil {
		t.Fatal("Expected replenishment on shortfall")
	}
}
