package projection

import (
	"errors"
	"sync"
	"time"

	"github.com/aquarian247/aquasim/internal/biology"
)

// Store keeps scenarios and their runs. Run numbers are allocated from a
// monotonic counter scoped to the scenario, so concurrent bulk computation
// can never produce duplicate or reused numbers.
type Store struct {
	mu        sync.Mutex
	scenarios map[string]*Scenario
	runs      map[string][]*Run
	nextRun   map[string]int
}

// Store errors.
var (
	ErrUnknownScenario = errors.New("unknown scenario")
	ErrUnknownRun      = errors.New("unknown projection run")
)

// NewStore creates an empty projection store.
func NewStore() *Store {
	return &Store{
		scenarios: make(map[string]*Scenario),
		runs:      make(map[string][]*Run),
		nextRun:   make(map[string]int),
	}
}

// AddScenario registers a scenario.
func (st *Store) AddScenario(sc *Scenario) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.scenarios[sc.ID] = sc
}

// Scenario returns a scenario by ID.
func (st *Store) Scenario(id string) (*Scenario, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	sc, ok := st.scenarios[id]
	if !ok {
		return nil, ErrUnknownScenario
	}
	return sc, nil
}

// Scenarios returns all registered scenarios.
func (st *Store) Scenarios() []*Scenario {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]*Scenario, 0, len(st.scenarios))
	for _, sc := range st.scenarios {
		out = append(out, sc)
	}
	return out
}

// ComputeRun computes a new run for a scenario and stores it under the next
// run number. Existing runs are never touched.
func (st *Store) ComputeRun(scenarioID string, profile biology.TemperatureProfile, now time.Time) (*Run, error) {
	st.mu.Lock()
	sc, ok := st.scenarios[scenarioID]
	if !ok {
		st.mu.Unlock()
		return nil, ErrUnknownScenario
	}
	st.nextRun[scenarioID]++
	number := st.nextRun[scenarioID]
	st.mu.Unlock()

	// Compute outside the lock; the run number is already reserved.
	run := Compute(sc, profile, now)
	run.RunNumber = number

	st.mu.Lock()
	st.runs[scenarioID] = append(st.runs[scenarioID], run)
	st.mu.Unlock()
	return run, nil
}

// Run returns one run of a scenario by number.
func (st *Store) Run(scenarioID string, runNumber int) (*Run, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, r := range st.runs[scenarioID] {
		if r.RunNumber == runNumber {
			return r, nil
		}
	}
	return nil, ErrUnknownRun
}

// Runs returns all runs of a scenario.
func (st *Store) Runs(scenarioID string) []*Run {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]*Run, len(st.runs[scenarioID]))
	copy(out, st.runs[scenarioID])
	return out
}

// latestLocked returns the highest-numbered run. Caller holds the lock.
func (st *Store) latestLocked(scenarioID string) *Run {
	var latest *Run
	for _, r := range st.runs[scenarioID] {
		if latest == nil || r.RunNumber > latest.RunNumber {
			latest = r
		}
	}
	return latest
}

// RunRef pins one specific run of one scenario.
type RunRef struct {
	ScenarioID string `json:"scenarioId"`
	RunNumber  int    `json:"runNumber"`
}

// ResolveBaseline returns the run a batch displays as its baseline. A pinned
// run wins outright; the legacy scenario pin falls back to that scenario's
// latest run. Re-computing never moves a baseline that pins a run.
func (st *Store) ResolveBaseline(pinnedRun *RunRef, legacyScenarioID string) (*Run, error) {
	if pinnedRun != nil {
		return st.Run(pinnedRun.ScenarioID, pinnedRun.RunNumber)
	}
	if legacyScenarioID != "" {
		st.mu.Lock()
		defer st.mu.Unlock()
		if r := st.latestLocked(legacyScenarioID); r != nil {
			return r, nil
		}
	}
	return nil, ErrUnknownRun
}
