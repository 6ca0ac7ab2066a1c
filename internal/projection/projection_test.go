package projection

import (
	"math"
	"testing"
	"time"

	"github.com/aquarian247/aquasim/internal/biology"
	"github.com/aquarian247/aquasim/internal/stage"
)

func parrScenario() *Scenario {
	models := biology.DefaultModels("Atlantic Salmon", "Faroe Islands", "2025-Q1")
	// A from-batch scenario cut at the Fry/Parr boundary: first projected day
	// is lifecycle day 181.
	return NewScenario("FI-2025-001 from-batch", "FI-2025-001",
		340_000, 9.7,
		time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		181, 720, models,
		time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))
}

func TestComputeIsDeterministic(t *testing.T) {
	sc := parrScenario()
	profile := biology.DefaultSeasonalProfile()
	now := time.Now()

	a := Compute(sc, profile, now)
	b := Compute(sc, profile, now)

	if len(a.Days) != 720 || len(b.Days) != 720 {
		t.Fatalf("Expected 720 records, got %d and %d", len(a.Days), len(b.Days))
	}
	for i := range a.Days {
		if a.Days[i] != b.Days[i] {
			t.Fatalf("Day %d differs across identical computations", i)
		}
	}
}

func TestComputeStageAndTemperatureRule(t *testing.T) {
	sc := parrScenario()
	run := Compute(sc, biology.DefaultSeasonalProfile(), time.Now())

	for _, d := range run.Days {
		want := stage.ForDay(sc.StartDay + d.DayNumber)
		if d.Stage != want {
			t.Fatalf("Day %d: expected stage %s, got %s", d.DayNumber, want, d.Stage)
		}
		if d.Stage.IsFreshwater() && d.TemperatureC != biology.FreshwaterTempC {
			t.Errorf("Day %d: freshwater stage at %.2f C", d.DayNumber, d.TemperatureC)
		}
		if !d.Stage.IsFreshwater() && (d.TemperatureC < 6.0 || d.TemperatureC > 13.0) {
			t.Errorf("Day %d: seawater temperature %.2f C outside profile range", d.DayNumber, d.TemperatureC)
		}
	}

	// The trajectory crosses into seawater at lifecycle day 450.
	seaStart := stage.Smolt.CumulativeEnd() - sc.StartDay + 1
	if run.Days[seaStart-1].Stage != stage.Smolt || run.Days[seaStart].Stage != stage.PostSmolt {
		t.Errorf("Expected Smolt/Post-Smolt boundary at record %d", seaStart)
	}
}

func TestComputeMonotonicWeightAndDecliningPopulation(t *testing.T) {
	sc := parrScenario()
	run := Compute(sc, biology.DefaultSeasonalProfile(), time.Now())

	prevW := sc.InitialWeightG
	prevP := sc.InitialCount
	for _, d := range run.Days {
		if d.AvgWeightG < prevW {
			t.Fatalf("Day %d: weight fell from %.3f to %.3f", d.DayNumber, prevW, d.AvgWeightG)
		}
		if d.Population > prevP {
			t.Fatalf("Day %d: population rose from %d to %d", d.DayNumber, prevP, d.Population)
		}
		if math.Abs(d.BiomassKg-float64(d.Population)*d.AvgWeightG/1000.0) > 0.001 {
			t.Fatalf("Day %d: biomass inconsistent", d.DayNumber)
		}
		prevW, prevP = d.AvgWeightG, d.Population
	}

	if run.FinalWeightG < 4000 || run.FinalWeightG > 8000 {
		t.Errorf("Expected harvest-range final weight, got %.1f g", run.FinalWeightG)
	}
	if run.TotalProjections != 720 {
		t.Errorf("Expected 720 total projections, got %d", run.TotalProjections)
	}
}

func TestRunNumbersAreMonotonicAndImmutable(t *testing.T) {
	st := NewStore()
	sc := parrScenario()
	st.AddScenario(sc)
	profile := biology.DefaultSeasonalProfile()

	r1, err := st.ComputeRun(sc.ID, profile, time.Now())
	if err != nil {
		t.Fatalf("ComputeRun: %v", err)
	}
	r2, err := st.ComputeRun(sc.ID, profile, time.Now())
	if err != nil {
		t.Fatalf("ComputeRun: %v", err)
	}
	if r1.RunNumber != 1 || r2.RunNumber != 2 {
		t.Errorf("Expected run numbers 1, 2; got %d, %d", r1.RunNumber, r2.RunNumber)
	}

	// The first run is still retrievable, untouched.
	got, err := st.Run(sc.ID, 1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != r1 {
		t.Error("Expected run 1 to remain the original object")
	}
	if len(st.Runs(sc.ID)) != 2 {
		t.Errorf("Expected 2 stored runs, got %d", len(st.Runs(sc.ID)))
	}
}

func TestPinnedRunSurvivesRecomputation(t *testing.T) {
	st := NewStore()
	sc := parrScenario()
	st.AddScenario(sc)
	profile := biology.DefaultSeasonalProfile()

	r1, _ := st.ComputeRun(sc.ID, profile, time.Now())
	pin := &RunRef{ScenarioID: sc.ID, RunNumber: r1.RunNumber}

	// Recompute twice; the pinned baseline must not move.
	st.ComputeRun(sc.ID, profile, time.Now())
	st.ComputeRun(sc.ID, profile, time.Now())

	baseline, err := st.ResolveBaseline(pin, "")
	if err != nil {
		t.Fatalf("ResolveBaseline: %v", err)
	}
	if baseline.RunNumber != 1 {
		t.Errorf("Expected pinned baseline run 1, got %d", baseline.RunNumber)
	}

	// The legacy scenario pin floats to the latest run instead.
	legacy, err := st.ResolveBaseline(nil, sc.ID)
	if err != nil {
		t.Fatalf("ResolveBaseline legacy: %v", err)
	}
	if legacy.RunNumber != 3 {
		t.Errorf("Expected legacy pin to resolve latest run 3, got %d", legacy.RunNumber)
	}
}

func TestParametersSnapshotIsFrozen(t *testing.T) {
	st := NewStore()
	sc := parrScenario()
	st.AddScenario(sc)

	r1, _ := st.ComputeRun(sc.ID, biology.DefaultSeasonalProfile(), time.Now())
	if r1.ParametersSnapshot.TGC.PerMille(stage.Adult) != sc.Models.TGC.PerMille(stage.Adult) {
		t.Error("Expected snapshot to carry the scenario's TGC constants")
	}
	if r1.ParametersSnapshot.Mortality.DailyRate(stage.Parr) != sc.Models.Mortality.DailyRate(stage.Parr) {
		t.Error("Expected snapshot to carry the scenario's mortality constants")
	}
}
