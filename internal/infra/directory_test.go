package infra

import (
	"testing"

	"github.com/aquarian247/aquasim/internal/stage"
)

func TestSeedDefaultFleet(t *testing.T) {
	d := Seed(DefaultGeographies())

	if got := d.StationCount("Faroe Islands"); got != 14 {
		t.Errorf("Expected 14 Faroese stations, got %d", got)
	}
	if got := d.StationCount("Scotland"); got != 10 {
		t.Errorf("Expected 10 Scottish stations, got %d", got)
	}
	if got := d.TotalStationCount(); got != 24 {
		t.Errorf("Expected 24 stations total, got %d", got)
	}

	// One hall per freshwater stage, 12 tanks each.
	st, err := d.ResolveStation("Faroe Islands", 0)
	if err != nil {
		t.Fatalf("ResolveStation: %v", err)
	}
	for _, s := range []stage.Stage{stage.EggAlevin, stage.Fry, stage.Parr, stage.Smolt, stage.PostSmolt} {
		cs, err := d.ContainersForStage(st.ID, s)
		if err != nil {
			t.Fatalf("ContainersForStage(%s): %v", s, err)
		}
		if len(cs) != 12 {
			t.Errorf("Expected 12 tanks for stage %s, got %d", s, len(cs))
		}
	}

	areas := d.Areas("Faroe Islands")
	if len(areas) != 6 {
		t.Fatalf("Expected 6 Faroese sea areas, got %d", len(areas))
	}
	rings := d.SeaContainersInArea(areas[0].ID)
	if len(rings) != 20 {
		t.Errorf("Expected 20 rings per area, got %d", len(rings))
	}
}

func TestResolveStationWraps(t *testing.T) {
	d := Seed(DefaultGeographies())

	first, err := d.ResolveStation("Scotland", 0)
	if err != nil {
		t.Fatalf("ResolveStation: %v", err)
	}
	wrapped, err := d.ResolveStation("Scotland", 10)
	if err != nil {
		t.Fatalf("ResolveStation: %v", err)
	}
	if first.ID != wrapped.ID {
		t.Errorf("Expected index 10 to wrap onto station %s, got %s", first.ID, wrapped.ID)
	}
}

func TestCapacityLookups(t *testing.T) {
	d := Seed(DefaultGeographies())

	st, _ := d.ResolveStation("Faroe Islands", 3)
	cs, err := d.ContainersForStage(st.ID, stage.EggAlevin)
	if err != nil {
		t.Fatalf("ContainersForStage: %v", err)
	}
	cap, err := d.CapacityOf(cs[0].ID)
	if err != nil {
		t.Fatalf("CapacityOf: %v", err)
	}
	if cap != 10_000 {
		t.Errorf("Expected Hall A tank capacity 10000 kg, got %f", cap)
	}

	if _, err := d.CapacityOf("no-such-container"); err == nil {
		t.Error("Expected error for unknown container")
	}
}

func TestSeedIsDeterministic(t *testing.T) {
	a := Seed(DefaultGeographies())
	b := Seed(DefaultGeographies())

	sa, _ := a.ResolveStation("Faroe Islands", 5)
	sb, _ := b.ResolveStation("Faroe Islands", 5)
	if sa.ID != sb.ID {
		t.Fatalf("Station IDs diverged between seeds: %s vs %s", sa.ID, sb.ID)
	}

	ca, _ := a.ContainersForStage(sa.ID, stage.Fry)
	cb, _ := b.ContainersForStage(sb.ID, stage.Fry)
	for i := range ca {
		if ca[i].ID != cb[i].ID {
			t.Fatalf("Container ordering diverged at %d: %s vs %s", i, ca[i].ID, cb[i].ID)
		}
	}
}
