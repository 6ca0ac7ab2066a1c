package eventlog

import (
	"sort"

	"github.com/aquarian247/aquasim/internal/stage"
)

// DailyState is the reconstructed per-assignment, per-day record used for
// actual-versus-projected variance display. It is derived entirely from the
// event stream; assignment metadata populations are never consulted, so a
// migrated or replayed stream always reconstructs the same truth.
type DailyState struct {
	BatchNumber         string      `json:"batchNumber"`
	AssignmentID        string      `json:"assignmentId"`
	ContainerID         string      `json:"containerId"`
	Stage               stage.Stage `json:"stage"`
	Day                 int         `json:"day"`
	Date                string      `json:"date"`
	Population          int         `json:"population"`
	AvgWeightG          float64     `json:"avgWeightG"`
	BiomassKg           float64     `json:"biomassKg"`
	CumulativeMortality int         `json:"cumulativeMortality"`
}

// assignmentTrack is the in-flight reconstruction state of one assignment.
type assignmentTrack struct {
	containerID string
	stage       stage.Stage
	population  int
	avgWeightG  float64
	cumMort     int
	closed      bool
	closedDay   int
}

// BuildDailyStates replays a batch's event stream into daily assignment
// states. The population rule is:
//
//	population(d) = population(d-1) + transfersIn(d) - transfersOut(d) - mortality(d)
//
// where transfers come only from TransferAction records. Running the build
// twice over the same stream yields identical output.
func BuildDailyStates(events []Event) []DailyState {
	if len(events) == 0 {
		return nil
	}

	// Events arrive (day, seq)-sorted from the store; group them by day.
	byDay := make(map[int][]Event)
	maxDay := 0
	for _, e := range events {
		byDay[e.Day] = append(byDay[e.Day], e)
		if e.Day > maxDay {
			maxDay = e.Day
		}
	}

	tracks := make(map[string]*assignmentTrack)
	var out []DailyState

	for day := 0; day <= maxDay; day++ {
		dayEvents := byDay[day]
		date := ""

		for _, e := range dayEvents {
			if date == "" {
				date = e.Date
			}
			switch e.Type {
			case TypeTransferAction:
				applyTransfer(tracks, e, day)
			case TypeMortality:
				t, ok := tracks[e.AssignmentID]
				if !ok || t.closed {
					continue
				}
				t.population -= e.Count
				if t.population < 0 {
					t.population = 0
				}
				t.cumMort += e.Count
				if e.AvgWeightG > 0 {
					t.avgWeightG = e.AvgWeightG
				}
			case TypeBatchStatus:
				if e.Status == "COMPLETED" || e.Status == "TERMINATED" {
					for _, t := range tracks {
						if !t.closed {
							t.closed = true
							t.closedDay = day
						}
					}
				}
			}
		}

		if len(dayEvents) == 0 {
			continue
		}

		// Deterministic row order: assignment ID within the day.
		ids := make([]string, 0, len(tracks))
		for id, t := range tracks {
			if !t.closed || t.closedDay == day {
				ids = append(ids, id)
			}
		}
		sort.Strings(ids)

		batch := dayEvents[0].BatchNumber
		for _, id := range ids {
			t := tracks[id]
			out = append(out, DailyState{
				BatchNumber:         batch,
				AssignmentID:        id,
				ContainerID:         t.containerID,
				Stage:               t.stage,
				Day:                 day,
				Date:                date,
				Population:          t.population,
				AvgWeightG:          t.avgWeightG,
				BiomassKg:           float64(t.population) * t.avgWeightG / 1000.0,
				CumulativeMortality: t.cumMort,
			})
		}
	}

	return out
}

func applyTransfer(tracks map[string]*assignmentTrack, e Event, day int) {
	// Destination side: create on first sight, then credit. Destinations
	// start at zero; the action itself is the only population source.
	if e.DestAssignmentID != "" {
		t, ok := tracks[e.DestAssignmentID]
		if !ok {
			t = &assignmentTrack{containerID: e.ContainerID, stage: e.Stage}
			tracks[e.DestAssignmentID] = t
		}
		t.population += e.Count
		if e.Count > 0 && e.BiomassKg > 0 {
			t.avgWeightG = e.BiomassKg / float64(e.Count) * 1000.0
		}
	}

	// Source side: debit moved fish plus transfer mortality; a drained
	// source closes on the transfer day.
	if e.SourceAssignmentID != "" {
		t, ok := tracks[e.SourceAssignmentID]
		if !ok {
			return
		}
		t.population -= e.Count + e.MortalityDuringTransfer
		if t.population < 0 {
			t.population = 0
		}
		t.cumMort += e.MortalityDuringTransfer
		if t.population == 0 {
			t.closed = true
			t.closedDay = day
		}
	}
}

// TotalPopulationOnDay sums the reconstructed population across assignments
// on a given day. Convenience for invariant checks.
func TotalPopulationOnDay(states []DailyState, day int) int {
	total := 0
	for _, s := range states {
		if s.Day == day {
			total += s.Population
		}
	}
	return total
}
