package biology

import (
	"math"

	"github.com/aquarian247/aquasim/internal/stage"
)

// GrowthStep is the diagnostic record of one day of TGC growth.
type GrowthStep struct {
	Stage       stage.Stage `json:"stage"`
	WeightG     float64     `json:"weightG"`
	GainG       float64     `json:"gainG"`
	Temperature float64     `json:"temperature"`
	TGCPerMille float64     `json:"tgcPerMille"`
	Capped      bool        `json:"capped,omitempty"`
}

// Grow advances an average weight by one day using the cube-root TGC form:
//
//	W1^(1/3) = W0^(1/3) + (tgc/1000) * T
//
// The stage weight cap is a safety clamp only; a capped weight never drives
// a stage transition.
func Grow(weightG float64, s stage.Stage, m TGCModel, temperature float64) GrowthStep {
	perMille := m.PerMille(s)
	root := math.Cbrt(weightG) + perMille/1000.0*temperature
	next := root * root * root

	step := GrowthStep{
		Stage:       s,
		Temperature: temperature,
		TGCPerMille: perMille,
	}
	if cap := s.WeightCapG(); cap > 0 && next > cap {
		next = cap
		step.Capped = true
	}
	if next < weightG {
		next = weightG
	}
	step.WeightG = next
	step.GainG = next - weightG
	return step
}

// FreshwaterTempC is the controlled rearing temperature of all freshwater
// halls.
const FreshwaterTempC = 12.0

// TemperatureProfile yields the water temperature for a given calendar date
// in seawater. Freshwater stages bypass the profile entirely.
type TemperatureProfile interface {
	Temperature(dayOfYear int) float64
}

// SeasonalProfile is a deterministic sinusoidal sea temperature model with a
// late-summer peak, typical of North Atlantic grow-out sites.
type SeasonalProfile struct {
	MeanC      float64
	AmplitudeC float64
	PeakDay    int // day-of-year of the warmest water
}

// DefaultSeasonalProfile returns the standard 9.5 +/- 3.5 degree profile.
func DefaultSeasonalProfile() SeasonalProfile {
	return SeasonalProfile{MeanC: 9.5, AmplitudeC: 3.5, PeakDay: 227}
}

// Temperature implements TemperatureProfile.
func (p SeasonalProfile) Temperature(dayOfYear int) float64 {
	phase := 2 * math.Pi * float64(dayOfYear-p.PeakDay) / 365.0
	return p.MeanC + p.AmplitudeC*math.Cos(phase)
}

// EffectiveTemperature applies the stage-aware temperature rule: 12 degrees C
// for freshwater stages, the seasonal profile for seawater stages.
func EffectiveTemperature(s stage.Stage, profile TemperatureProfile, dayOfYear int) float64 {
	if s.IsFreshwater() {
		return FreshwaterTempC
	}
	return profile.Temperature(dayOfYear)
}
