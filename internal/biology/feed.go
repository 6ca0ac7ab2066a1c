package biology

import "github.com/aquarian247/aquasim/internal/stage"

// FeedDemand is the diagnostic record of one day of feed computation for a
// single container.
type FeedDemand struct {
	Stage          stage.Stage `json:"stage"`
	FCR            float64     `json:"fcr"`
	ExpectedGainKg float64     `json:"expectedGainKg"`
	FeedKg         float64     `json:"feedKg"`
}

// ComputeFeedDemand derives the day's feed requirement for a container from
// the expected biomass gain: feed = FCR * population * dailyGain / 1000.
// Egg&Alevin demand is always zero; alevins are not fed.
func ComputeFeedDemand(s stage.Stage, population int, gainG float64, m FCRModel) FeedDemand {
	if s == stage.EggAlevin || population <= 0 || gainG <= 0 {
		return FeedDemand{Stage: s, FCR: m.Ratio(s)}
	}
	gainKg := float64(population) * gainG / 1000.0
	fcr := m.Ratio(s)
	return FeedDemand{
		Stage:          s,
		FCR:            fcr,
		ExpectedGainKg: gainKg,
		FeedKg:         fcr * gainKg,
	}
}
