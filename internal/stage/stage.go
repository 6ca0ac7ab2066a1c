// Package stage defines the six ordered lifecycle stages of a salmon batch
// and the time axis derived from them. Stage transitions are time-based;
// the per-stage weight caps are safety limits, never transition triggers.
package stage

import "fmt"

// Stage is an ordered lifecycle stage.
type Stage int

const (
	// EggAlevin covers incubation and yolk-sac absorption.
	EggAlevin Stage = iota + 1
	// Fry is the first-feeding freshwater stage.
	Fry
	// Parr is the freshwater growing stage.
	Parr
	// Smolt is the seawater-readiness stage.
	Smolt
	// PostSmolt is the first seawater stage.
	PostSmolt
	// Adult is the grow-out stage in sea rings.
	Adult
)

// TotalDays is the full batch lifecycle length in days.
const TotalDays = 900

var names = map[Stage]string{
	EggAlevin: "Egg&Alevin",
	Fry:       "Fry",
	Parr:      "Parr",
	Smolt:     "Smolt",
	PostSmolt: "Post-Smolt",
	Adult:     "Adult",
}

var durations = map[Stage]int{
	EggAlevin: 90,
	Fry:       90,
	Parr:      90,
	Smolt:     90,
	PostSmolt: 90,
	Adult:     450,
}

// weightCapsG are permissive per-stage weight ceilings in grams. They clamp
// runaway growth under misconfigured models; they never trigger transitions.
var weightCapsG = map[Stage]float64{
	EggAlevin: 1.0,
	Fry:       10.0,
	Parr:      100.0,
	Smolt:     250.0,
	PostSmolt: 700.0,
	Adult:     8000.0,
}

// feedNames maps each feeding stage to the exact catalog feed name.
// EggAlevin is absent: alevins live off the yolk sac and are never fed.
var feedNames = map[Stage]string{
	Fry:       "Starter Feed 1.0mm",
	Parr:      "Grower Feed 3.0mm",
	Smolt:     "Smolt Feed 4.5mm",
	PostSmolt: "Post-Smolt Feed 6.0mm",
	Adult:     "Grow-Out Feed 9.0mm",
}

// All lists the stages in lifecycle order.
func All() []Stage {
	return []Stage{EggAlevin, Fry, Parr, Smolt, PostSmolt, Adult}
}

func (s Stage) String() string {
	if n, ok := names[s]; ok {
		return n
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Duration returns the default stage length in days.
func (s Stage) Duration() int {
	return durations[s]
}

// CumulativeEnd returns the 1-based day on which the stage ends. A batch
// spends days (CumulativeEnd(prev), CumulativeEnd(s)] in stage s.
func (s Stage) CumulativeEnd() int {
	end := 0
	for _, st := range All() {
		end += durations[st]
		if st == s {
			break
		}
	}
	return end
}

// ForDay resolves the stage a batch is in on the given lifecycle day.
// Day 0 and negative days map to EggAlevin; days past TotalDays map to Adult.
func ForDay(day int) Stage {
	end := 0
	for _, st := range All() {
		end += durations[st]
		if day <= end {
			return st
		}
	}
	return Adult
}

// Next returns the following stage and false when s is terminal.
func (s Stage) Next() (Stage, bool) {
	if s >= Adult {
		return Adult, false
	}
	return s + 1, true
}

// IsFreshwater reports whether the stage is reared in freshwater halls.
// Freshwater rearing runs at a controlled 12 degrees C.
func (s Stage) IsFreshwater() bool {
	return s <= Smolt
}

// WeightCapG returns the safety weight ceiling in grams.
func (s Stage) WeightCapG() float64 {
	return weightCapsG[s]
}

// FeedName returns the exact catalog feed name for the stage and false for
// stages that are not fed.
func (s Stage) FeedName() (string, bool) {
	n, ok := feedNames[s]
	return n, ok
}
