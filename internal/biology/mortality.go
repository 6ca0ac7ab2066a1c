package biology

import (
	"math"

	"github.com/aquarian247/aquasim/internal/stage"
)

// MortalityDraw is the diagnostic record of one day of mortality sampling.
type MortalityDraw struct {
	Stage    stage.Stage `json:"stage"`
	Rate     float64     `json:"rate"`
	Expected float64     `json:"expected"`
	Count    int         `json:"count"`
}

// SampleMortality draws the day's death count for one assignment. The draw
// is lambda*population plus Poisson-scale noise from the seeded stream, so a
// given (batch, day) always loses the same fish.
func SampleMortality(batchNumber string, day int, s stage.Stage, population int, m MortalityModel) MortalityDraw {
	rate := m.DailyRate(s)
	expected := rate * float64(population)

	rng := NewRand(batchNumber, day, KindMortality)
	noise := rng.NormFloat64() * math.Sqrt(math.Max(expected, 0))

	count := int(math.Round(expected + noise))
	if count < 0 {
		count = 0
	}
	if count > population {
		count = population
	}
	return MortalityDraw{Stage: s, Rate: rate, Expected: expected, Count: count}
}

// SplitAcross divides a total count across n assignments, remainder to the
// earliest, so per-container mortality sums exactly to the batch draw.
func SplitAcross(total, n int) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, n)
	base := total / n
	rem := total % n
	for i := range out {
		out[i] = base
		if i < rem {
			out[i]++
		}
	}
	return out
}
