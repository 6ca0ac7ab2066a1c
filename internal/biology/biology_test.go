package biology

import (
	"math"
	"testing"

	"github.com/aquarian247/aquasim/internal/stage"
)

func TestGrowCubeRootForm(t *testing.T) {
	m := TGCModel{DefaultPerMille: 2.5}

	// W0 = 1000g, T = 10: W1^(1/3) = 10 + 0.0025*10 = 10.025
	step := Grow(1000, stage.Adult, m, 10)
	want := 10.025 * 10.025 * 10.025
	if math.Abs(step.WeightG-want) > 1e-9 {
		t.Errorf("Expected weight %f, got %f", want, step.WeightG)
	}
	if step.GainG <= 0 {
		t.Errorf("Expected positive gain, got %f", step.GainG)
	}
}

func TestGrowStageOverrideWins(t *testing.T) {
	m := TGCModel{
		DefaultPerMille: 2.5,
		StageOverrides:  map[stage.Stage]float64{stage.Fry: 1.0},
	}
	step := Grow(5, stage.Fry, m, FreshwaterTempC)
	if step.TGCPerMille != 1.0 {
		t.Errorf("Expected Fry override 1.0, got %f", step.TGCPerMille)
	}
}

func TestGrowAppliesSafetyCap(t *testing.T) {
	m := TGCModel{DefaultPerMille: 3.5}
	step := Grow(9.99, stage.Fry, m, FreshwaterTempC)
	for i := 0; i < 50; i++ {
		step = Grow(step.WeightG, stage.Fry, m, FreshwaterTempC)
	}
	if step.WeightG > stage.Fry.WeightCapG() {
		t.Errorf("Expected Fry weight capped at %f, got %f", stage.Fry.WeightCapG(), step.WeightG)
	}
	if !step.Capped {
		t.Error("Expected cap flag to be set")
	}
}

func TestDefaultModelsReachHarvestWeight(t *testing.T) {
	// Walk the full 900-day lifecycle with the calibrated defaults and the
	// seasonal sea profile; the final average weight must land in the
	// 4.5-7.5 kg harvest window.
	models := DefaultModels("Atlantic Salmon", "Faroe Islands", "2025-spring")
	profile := DefaultSeasonalProfile()

	w := 0.1
	for day := 1; day <= stage.TotalDays; day++ {
		s := stage.ForDay(day)
		temp := EffectiveTemperature(s, profile, day%365+1)
		w = Grow(w, s, models.TGC, temp).WeightG
	}
	if w < 4500 || w > 7500 {
		t.Errorf("Expected final weight in [4500, 7500] g, got %f", w)
	}
}

func TestSampleMortalityDeterministic(t *testing.T) {
	models := DefaultModels("Atlantic Salmon", "Faroe Islands", "2025-spring")

	a := SampleMortality("FI-2025-001", 42, stage.EggAlevin, 350_000, models.Mortality)
	b := SampleMortality("FI-2025-001", 42, stage.EggAlevin, 350_000, models.Mortality)
	if a.Count != b.Count {
		t.Errorf("Expected identical draws for identical seeds, got %d and %d", a.Count, b.Count)
	}

	c := SampleMortality("FI-2025-001", 43, stage.EggAlevin, 350_000, models.Mortality)
	if a.Count == c.Count && a.Count != 0 {
		// Different days may coincide but the streams must be independent;
		// a long run of equality would be suspicious, a single one is fine.
		t.Logf("day 42 and 43 drew the same count %d (allowed)", a.Count)
	}
}

func TestSampleMortalityBounds(t *testing.T) {
	models := DefaultModels("Atlantic Salmon", "Faroe Islands", "2025-spring")

	draw := SampleMortality("FI-2025-001", 1, stage.Adult, 3, models.Mortality)
	if draw.Count < 0 || draw.Count > 3 {
		t.Errorf("Expected draw within [0, 3], got %d", draw.Count)
	}

	zero := SampleMortality("FI-2025-001", 1, stage.Adult, 0, models.Mortality)
	if zero.Count != 0 {
		t.Errorf("Expected zero mortality on empty population, got %d", zero.Count)
	}
}

func TestSurvivalEnvelope(t *testing.T) {
	// Expected-value survival over 900 days must stay at or above 75% of
	// the initial population under the default rates.
	models := DefaultModels("Atlantic Salmon", "Faroe Islands", "2025-spring")

	pop := 3_500_000.0
	for day := 1; day <= stage.TotalDays; day++ {
		s := stage.ForDay(day)
		pop -= pop * models.Mortality.DailyRate(s)
	}
	if pop < 0.75*3_500_000 {
		t.Errorf("Expected survival >= 75%%, got %.1f%%", 100*pop/3_500_000)
	}
}

func TestComputeFeedDemand(t *testing.T) {
	models := DefaultModels("Atlantic Salmon", "Faroe Islands", "2025-spring")

	d := ComputeFeedDemand(stage.Fry, 100_000, 0.2, models.FCR)
	// 100k fish * 0.2g = 20 kg gain; FCR 0.9 -> 18 kg feed.
	if math.Abs(d.FeedKg-18.0) > 1e-9 {
		t.Errorf("Expected 18 kg feed, got %f", d.FeedKg)
	}

	egg := ComputeFeedDemand(stage.EggAlevin, 100_000, 0.2, models.FCR)
	if egg.FeedKg != 0 {
		t.Errorf("Expected zero feed for Egg&Alevin, got %f", egg.FeedKg)
	}
}

func TestFCRRange(t *testing.T) {
	models := DefaultModels("Atlantic Salmon", "Faroe Islands", "2025-spring")
	for _, s := range stage.All() {
		if s == stage.EggAlevin {
			continue
		}
		fcr := models.FCR.Ratio(s)
		if fcr < 0.8 || fcr > 2.0 {
			t.Errorf("FCR for %s = %f outside [0.8, 2.0]", s, fcr)
		}
	}
}

func TestEffectiveTemperatureRule(t *testing.T) {
	profile := DefaultSeasonalProfile()

	if got := EffectiveTemperature(stage.Smolt, profile, 200); got != FreshwaterTempC {
		t.Errorf("Expected 12.0 for Smolt, got %f", got)
	}

	sea := EffectiveTemperature(stage.PostSmolt, profile, 200)
	if sea == FreshwaterTempC {
		t.Error("Expected Post-Smolt temperature to come from the profile")
	}
	if sea < 5.5 || sea > 13.5 {
		t.Errorf("Expected profile temperature within [5.5, 13.5], got %f", sea)
	}
}

func TestSeedStability(t *testing.T) {
	if Seed("FI-2025-001", 10, KindMortality) != Seed("FI-2025-001", 10, KindMortality) {
		t.Error("Expected stable seeds for identical inputs")
	}
	if Seed("FI-2025-001", 10, KindMortality) == Seed("FI-2025-001", 10, KindGrowthSample) {
		t.Error("Expected distinct seeds per event kind")
	}
	if Seed("FI-2025-001", 10, KindMortality) == Seed("FI-2025-002", 10, KindMortality) {
		t.Error("Expected distinct seeds per batch")
	}
}

func TestSplitAcross(t *testing.T) {
	parts := SplitAcross(10, 3)
	if len(parts) != 3 || parts[0]+parts[1]+parts[2] != 10 {
		t.Fatalf("Expected 3 parts summing to 10, got %v", parts)
	}
	if parts[0] != 4 || parts[1] != 3 || parts[2] != 3 {
		t.Errorf("Expected remainder on earliest parts, got %v", parts)
	}
}
