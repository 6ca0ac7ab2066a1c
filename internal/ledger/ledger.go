// Package ledger is the authoritative store of batch-in-container
// assignments. Every population movement in the simulator goes through it,
// and it alone enforces the capacity, non-overlap and biomass invariants.
// Mutations are serialized per container, never globally.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/aquarian247/aquasim/internal/stage"
)

// Assignment links a batch to a container for a period and carries the
// population it holds there.
type Assignment struct {
	ID             string      `json:"id"`
	BatchNumber    string      `json:"batchNumber"`
	ContainerID    string      `json:"containerId"`
	Stage          stage.Stage `json:"stage"`
	AssignmentDate time.Time   `json:"assignmentDate"`
	DepartureDate  *time.Time  `json:"departureDate,omitempty"`
	Population     int         `json:"population"`
	AvgWeightG     float64     `json:"avgWeightG"`
	BiomassKg      float64     `json:"biomassKg"`
	Active         bool        `json:"active"`
}

// containerState serializes all mutations touching one container.
type containerState struct {
	mu           sync.Mutex
	maxBiomassKg float64
	active       []*Assignment
}

// Ledger holds the assignment books. Capacity limits are captured at
// registration time from the infrastructure directory so that ledger calls
// need no further lookups.
type Ledger struct {
	mu          sync.RWMutex
	containers  map[string]*containerState
	assignments map[string]*Assignment
	byBatch     map[string][]*Assignment
	seq         map[string]int
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		containers:  make(map[string]*containerState),
		assignments: make(map[string]*Assignment),
		byBatch:     make(map[string][]*Assignment),
		seq:         make(map[string]int),
	}
}

// nextID derives a deterministic assignment ID from the batch's open
// sequence. Batches are simulated sequentially within themselves, so a
// re-run assigns identical IDs and the event stream stays byte-identical.
func (l *Ledger) nextID(batchNumber string) string {
	l.mu.Lock()
	l.seq[batchNumber]++
	n := l.seq[batchNumber]
	l.mu.Unlock()
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("assignment|%s|%d", batchNumber, n))).String()
}

// RegisterContainer makes a container known to the ledger with its biomass
// ceiling. Registering twice is a no-op.
func (l *Ledger) RegisterContainer(containerID string, maxBiomassKg float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.containers[containerID]; !ok {
		l.containers[containerID] = &containerState{maxBiomassKg: maxBiomassKg}
	}
}

func (l *Ledger) container(containerID string) (*containerState, error) {
	l.mu.RLock()
	cs, ok := l.containers[containerID]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("container %q not registered with ledger", containerID)
	}
	return cs, nil
}

// OpenOptions tunes assignment creation.
type OpenOptions struct {
	// AllowMixed permits opening alongside an active assignment of another
	// batch in the same container. Off by default; the single-batch rule
	// stands unless an operational transfer explicitly overrides it.
	AllowMixed bool
}

// Open creates a new active assignment. Population zero is the normal case
// for transfer destinations; only day-zero egg placement opens pre-populated.
func (l *Ledger) Open(batchNumber, containerID string, s stage.Stage, date time.Time, population int, avgWeightG float64, opts OpenOptions) (*Assignment, error) {
	cs, err := l.container(containerID)
	if err != nil {
		return nil, err
	}

	biomassKg := float64(population) * avgWeightG / 1000.0

	cs.mu.Lock()
	defer cs.mu.Unlock()

	if biomassKg > cs.maxBiomassKg {
		return nil, fmt.Errorf("open %s in %s: %.1f kg > %.1f kg: %w",
			batchNumber, containerID, biomassKg, cs.maxBiomassKg, ErrCapacityExceeded)
	}
	for _, a := range cs.active {
		if a.BatchNumber == batchNumber {
			return nil, fmt.Errorf("open %s in %s: %w", batchNumber, containerID, ErrOverlap)
		}
		if !opts.AllowMixed {
			return nil, fmt.Errorf("open %s in %s (held by %s): %w",
				batchNumber, containerID, a.BatchNumber, ErrContainerBusy)
		}
	}

	a := &Assignment{
		ID:             l.nextID(batchNumber),
		BatchNumber:    batchNumber,
		ContainerID:    containerID,
		Stage:          s,
		AssignmentDate: date,
		Population:     population,
		AvgWeightG:     avgWeightG,
		BiomassKg:      biomassKg,
		Active:         true,
	}
	cs.active = append(cs.active, a)

	l.mu.Lock()
	l.assignments[a.ID] = a
	l.byBatch[batchNumber] = append(l.byBatch[batchNumber], a)
	l.mu.Unlock()

	return a, nil
}

// Credit increases an assignment's population through a completed transfer
// action. The caller supplies the moved biomass; average weight is recomputed
// from the totals so the biomass invariant holds by construction.
func (l *Ledger) Credit(assignmentID string, count int, biomassKg float64) error {
	a, cs, err := l.lookup(assignmentID)
	if err != nil {
		return err
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !a.Active {
		return fmt.Errorf("credit %s: %w", assignmentID, ErrAssignmentClosed)
	}
	if a.BiomassKg+biomassKg > cs.maxBiomassKg {
		return fmt.Errorf("credit %s in %s: %.1f kg > %.1f kg: %w",
			a.BatchNumber, a.ContainerID, a.BiomassKg+biomassKg, cs.maxBiomassKg, ErrCapacityExceeded)
	}

	a.Population += count
	a.BiomassKg += biomassKg
	if a.Population > 0 {
		a.AvgWeightG = a.BiomassKg / float64(a.Population) * 1000.0
	}
	return nil
}

// Debit decreases an assignment's population. Reaching zero closes the
// assignment and stamps the departure date.
func (l *Ledger) Debit(assignmentID string, count int, date time.Time) error {
	a, cs, err := l.lookup(assignmentID)
	if err != nil {
		return err
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	return l.debitLocked(a, cs, count, date)
}

func (l *Ledger) debitLocked(a *Assignment, cs *containerState, count int, date time.Time) error {
	if !a.Active {
		return fmt.Errorf("debit %s: %w", a.ID, ErrAssignmentClosed)
	}
	if count > a.Population {
		return fmt.Errorf("debit %d from %d in %s: %w", count, a.Population, a.ContainerID, ErrNegativePopulation)
	}

	a.Population -= count
	a.BiomassKg = float64(a.Population) * a.AvgWeightG / 1000.0
	if a.Population == 0 {
		l.closeLocked(a, cs, date)
	}
	return nil
}

// RecordMortality removes dead fish from an assignment. Semantically a debit;
// the caller emits the mortality event.
func (l *Ledger) RecordMortality(assignmentID string, count int, date time.Time) error {
	return l.Debit(assignmentID, count, date)
}

// UpdateWeight applies a growth step to an assignment, recomputing biomass.
func (l *Ledger) UpdateWeight(assignmentID string, avgWeightG float64) error {
	a, cs, err := l.lookup(assignmentID)
	if err != nil {
		return err
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !a.Active {
		return fmt.Errorf("update weight %s: %w", assignmentID, ErrAssignmentClosed)
	}
	a.AvgWeightG = avgWeightG
	a.BiomassKg = float64(a.Population) * avgWeightG / 1000.0
	return nil
}

// Close hard-closes an assignment even with remaining population, used when
// a whole stage completes without a full transfer out.
func (l *Ledger) Close(assignmentID string, date time.Time) error {
	a, cs, err := l.lookup(assignmentID)
	if err != nil {
		return err
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !a.Active {
		return nil
	}
	l.closeLocked(a, cs, date)
	return nil
}

func (l *Ledger) closeLocked(a *Assignment, cs *containerState, date time.Time) {
	if date.Before(a.AssignmentDate) {
		// Departure can never precede arrival; clamp and log rather than
		// corrupt the interval.
		log.Warn().Str("assignment", a.ID).Time("date", date).
			Time("assigned", a.AssignmentDate).Msg("Departure before assignment date, clamping")
		date = a.AssignmentDate
	}
	a.Active = false
	d := date
	a.DepartureDate = &d

	for i, other := range cs.active {
		if other.ID == a.ID {
			cs.active = append(cs.active[:i], cs.active[i+1:]...)
			break
		}
	}
}

// ActiveInterval returns the open assignments of a container. Size above one
// only occurs when mixing was explicitly allowed.
func (l *Ledger) ActiveInterval(containerID string) []*Assignment {
	cs, err := l.container(containerID)
	if err != nil {
		return nil
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	out := make([]*Assignment, len(cs.active))
	copy(out, cs.active)
	return out
}

// Get returns an assignment by ID.
func (l *Ledger) Get(assignmentID string) (*Assignment, error) {
	a, _, err := l.lookup(assignmentID)
	return a, err
}

// ActiveForBatch returns the batch's open assignments in creation order.
func (l *Ledger) ActiveForBatch(batchNumber string) []*Assignment {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*Assignment
	for _, a := range l.byBatch[batchNumber] {
		if a.Active {
			out = append(out, a)
		}
	}
	return out
}

// AllForBatch returns every assignment ever opened for the batch.
func (l *Ledger) AllForBatch(batchNumber string) []*Assignment {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Assignment, len(l.byBatch[batchNumber]))
	copy(out, l.byBatch[batchNumber])
	return out
}

func (l *Ledger) lookup(assignmentID string) (*Assignment, *containerState, error) {
	l.mu.RLock()
	a, ok := l.assignments[assignmentID]
	l.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("unknown assignment %q", assignmentID)
	}
	cs, err := l.container(a.ContainerID)
	if err != nil {
		return nil, nil, err
	}
	return a, cs, nil
}
