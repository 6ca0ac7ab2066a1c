// Package transfer orchestrates multi-action container movements: the
// auditable unit behind every stage transition and operational move. A
// workflow groups one action per source container; actions are the single
// source of truth for population movement.
package transfer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/aquarian247/aquasim/internal/eventlog"
	"github.com/aquarian247/aquasim/internal/ledger"
	"github.com/aquarian247/aquasim/internal/stage"
)

// WorkflowState is the lifecycle state of a workflow header.
type WorkflowState string

const (
	StateDraft      WorkflowState = "DRAFT"
	StatePlanned    WorkflowState = "PLANNED"
	StateInProgress WorkflowState = "IN_PROGRESS"
	StateCompleted  WorkflowState = "COMPLETED"
	StateCancelled  WorkflowState = "CANCELLED"
)

// ActionState is the lifecycle state of a single action line.
type ActionState string

const (
	ActionPending    ActionState = "PENDING"
	ActionInProgress ActionState = "IN_PROGRESS"
	ActionCompleted  ActionState = "COMPLETED"
	ActionFailed     ActionState = "FAILED"
	ActionSkipped    ActionState = "SKIPPED"
)

// Errors of the workflow state machine.
var (
	ErrImmutable      = errors.New("workflow is completed and immutable")
	ErrNotExecutable  = errors.New("workflow is not in an executable state")
	ErrNotCancellable = errors.New("workflow cannot be cancelled in its current state")
	ErrOverdraw       = errors.New("transfer exceeds source population")
)

// Action pairs a source assignment with an optional destination and records
// what actually moved.
type Action struct {
	ID                      string      `json:"id"`
	SourceAssignmentID      string      `json:"sourceAssignmentId"`
	DestAssignmentID        string      `json:"destAssignmentId,omitempty"`
	PlannedCount            int         `json:"plannedCount"`
	TransferredCount        int         `json:"transferredCount"`
	MortalityDuringTransfer int         `json:"mortalityDuringTransfer"`
	TransferredBiomassKg    float64     `json:"transferredBiomassKg"`
	State                   ActionState `json:"state"`
	AllowMixed              bool        `json:"allowMixed"`
	ExecutedAt              *time.Time  `json:"executedAt,omitempty"`
	FailureReason           string      `json:"failureReason,omitempty"`
}

// Workflow is the header grouping 1..N actions into one audited operation.
type Workflow struct {
	ID           string        `json:"id"`
	BatchNumber  string        `json:"batchNumber"`
	FromStage    stage.Stage   `json:"fromStage"`
	ToStage      stage.Stage   `json:"toStage"`
	State        WorkflowState `json:"state"`
	Actions      []*Action     `json:"actions"`
	CreatedAt    time.Time     `json:"createdAt"`
	PlannedAt    *time.Time    `json:"plannedAt,omitempty"`
	StartedAt    *time.Time    `json:"startedAt,omitempty"`
	CompletedAt  *time.Time    `json:"completedAt,omitempty"`
	CancelReason string        `json:"cancelReason,omitempty"`
}

// ActionPlan declares one planned source->destination move.
type ActionPlan struct {
	SourceAssignmentID string
	DestAssignmentID   string
	Count              int
	AllowMixed         bool
}

// Service executes workflows against the ledger and emits the audit events.
type Service struct {
	ledger  *ledger.Ledger
	emitter *eventlog.Emitter

	mu  sync.Mutex
	seq map[string]int
}

// NewService creates a workflow service.
func NewService(l *ledger.Ledger, em *eventlog.Emitter) *Service {
	return &Service{ledger: l, emitter: em, seq: make(map[string]int)}
}

// nextID derives a deterministic workflow ID from the batch's workflow
// sequence, so re-running a batch reproduces its audit trail exactly.
func (s *Service) nextID(batchNumber string) string {
	s.mu.Lock()
	s.seq[batchNumber]++
	n := s.seq[batchNumber]
	s.mu.Unlock()
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("workflow|%s|%d", batchNumber, n))).String()
}

// Plan creates a DRAFT workflow from the given action plans.
func (s *Service) Plan(batchNumber string, from, to stage.Stage, plans []ActionPlan, now time.Time) *Workflow {
	w := &Workflow{
		ID:          s.nextID(batchNumber),
		BatchNumber: batchNumber,
		FromStage:   from,
		ToStage:     to,
		State:       StateDraft,
		CreatedAt:   now,
	}
	for i, p := range plans {
		w.Actions = append(w.Actions, &Action{
			ID:                 uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("action|%s|%d", w.ID, i))).String(),
			SourceAssignmentID: p.SourceAssignmentID,
			DestAssignmentID:   p.DestAssignmentID,
			PlannedCount:       p.Count,
			State:              ActionPending,
			AllowMixed:         p.AllowMixed,
		})
	}
	return w
}

// Finalize validates the plan and moves DRAFT to PLANNED. Validation checks
// that every source can cover its planned count; capacity on destinations is
// enforced again atomically at execution time.
func (s *Service) Finalize(w *Workflow, now time.Time) error {
	if w.State != StateDraft {
		return fmt.Errorf("finalize %s in state %s: %w", w.ID, w.State, ErrNotExecutable)
	}
	for _, a := range w.Actions {
		src, err := s.ledger.Get(a.SourceAssignmentID)
		if err != nil {
			return fmt.Errorf("finalize %s: %w", w.ID, err)
		}
		if a.PlannedCount > src.Population {
			return fmt.Errorf("finalize %s: planned %d from %d in %s: %w",
				w.ID, a.PlannedCount, src.Population, src.ContainerID, ErrOverdraw)
		}
	}
	w.State = StatePlanned
	t := now
	w.PlannedAt = &t
	return nil
}

// ExecuteAction moves fish for one action: credit the destination, debit the
// source (moved plus transfer mortality), record the audit trail, and emit
// the transfer event. The first successful action moves the workflow to
// IN_PROGRESS; the last non-PENDING action completes it.
func (s *Service) ExecuteAction(w *Workflow, a *Action, mortality int, method string, day int, now time.Time) error {
	if w.State == StateCompleted || w.State == StateCancelled {
		return fmt.Errorf("execute action on %s: %w", w.ID, ErrImmutable)
	}
	if w.State != StatePlanned && w.State != StateInProgress {
		return fmt.Errorf("execute action on %s in state %s: %w", w.ID, w.State, ErrNotExecutable)
	}
	if a.State != ActionPending {
		return fmt.Errorf("action %s already %s: %w", a.ID, a.State, ErrNotExecutable)
	}

	src, err := s.ledger.Get(a.SourceAssignmentID)
	if err != nil {
		return s.failAction(w, a, err)
	}

	count := a.PlannedCount
	if count+mortality > src.Population {
		// Daily mortality between planning and execution can shrink the
		// source; move what is actually there.
		count = src.Population - mortality
		if count < 0 {
			count = 0
			mortality = src.Population
		}
	}
	biomassKg := float64(count) * src.AvgWeightG / 1000.0

	a.State = ActionInProgress

	if a.DestAssignmentID != "" {
		if err := s.ledger.Credit(a.DestAssignmentID, count, biomassKg); err != nil {
			return s.failAction(w, a, err)
		}
	}
	if err := s.ledger.Debit(a.SourceAssignmentID, count+mortality, now); err != nil {
		// The destination was already credited; take the fish back out so
		// the failed action leaves both books untouched.
		if a.DestAssignmentID != "" && count > 0 {
			if rbErr := s.ledger.Debit(a.DestAssignmentID, count, now); rbErr != nil {
				log.Error().Err(rbErr).Str("workflow", w.ID).Str("action", a.ID).
					Msg("Credit rollback failed, destination overstated")
			}
		}
		return s.failAction(w, a, err)
	}

	a.TransferredCount = count
	a.MortalityDuringTransfer = mortality
	a.TransferredBiomassKg = biomassKg
	a.State = ActionCompleted
	t := now
	a.ExecutedAt = &t

	if w.State == StatePlanned {
		w.State = StateInProgress
		w.StartedAt = &t
	}

	dest, _ := s.ledger.Get(a.DestAssignmentID)
	ev := eventlog.Event{
		BatchNumber:             w.BatchNumber,
		Day:                     day,
		Date:                    now.Format("2006-01-02"),
		Type:                    eventlog.TypeTransferAction,
		WorkflowID:              w.ID,
		ActionID:                a.ID,
		SourceAssignmentID:      a.SourceAssignmentID,
		DestAssignmentID:        a.DestAssignmentID,
		Count:                   count,
		MortalityDuringTransfer: mortality,
		BiomassKg:               biomassKg,
		Method:                  method,
	}
	if dest != nil {
		ev.ContainerID = dest.ContainerID
		ev.Stage = dest.Stage
	}
	s.emitter.Emit(ev)

	s.maybeComplete(w, day, now)
	return nil
}

// failAction marks an action FAILED and records why. The workflow stays
// executable so the caller can retry on an alternate destination.
func (s *Service) failAction(w *Workflow, a *Action, cause error) error {
	a.State = ActionFailed
	a.FailureReason = cause.Error()
	log.Warn().Str("workflow", w.ID).Str("action", a.ID).Err(cause).Msg("Transfer action failed")
	return cause
}

// RetryWith replaces a failed action's destination and re-arms it. An
// abandoned destination that never received fish is closed so it stops
// occupying its container; a populated one is left standing.
func (s *Service) RetryWith(w *Workflow, a *Action, destAssignmentID string, now time.Time) error {
	if w.State == StateCompleted || w.State == StateCancelled {
		return fmt.Errorf("retry action on %s: %w", w.ID, ErrImmutable)
	}
	if a.State != ActionFailed {
		return fmt.Errorf("retry action %s in state %s: %w", a.ID, a.State, ErrNotExecutable)
	}
	if a.DestAssignmentID != "" && a.DestAssignmentID != destAssignmentID {
		if old, err := s.ledger.Get(a.DestAssignmentID); err == nil && old.Active && old.Population == 0 {
			if err := s.ledger.Close(a.DestAssignmentID, now); err != nil {
				log.Warn().Err(err).Str("assignment", a.DestAssignmentID).
					Msg("Closing abandoned destination failed")
			}
		}
	}
	a.DestAssignmentID = destAssignmentID
	a.State = ActionPending
	a.FailureReason = ""
	return nil
}

// Cancel aborts a workflow in DRAFT, PLANNED or IN_PROGRESS. Remaining
// PENDING actions become SKIPPED; completed actions stand.
func (s *Service) Cancel(w *Workflow, reason string, now time.Time) error {
	switch w.State {
	case StateDraft, StatePlanned, StateInProgress:
	default:
		return fmt.Errorf("cancel %s in state %s: %w", w.ID, w.State, ErrNotCancellable)
	}
	for _, a := range w.Actions {
		if a.State == ActionPending {
			a.State = ActionSkipped
		}
	}
	w.State = StateCancelled
	w.CancelReason = reason
	t := now
	w.CompletedAt = &t
	return nil
}

// maybeComplete closes the workflow once every action is COMPLETED or
// SKIPPED. A FAILED action keeps the workflow open for a retry or an
// explicit cancellation.
func (s *Service) maybeComplete(w *Workflow, day int, now time.Time) {
	for _, a := range w.Actions {
		if a.State != ActionCompleted && a.State != ActionSkipped {
			return
		}
	}
	if w.State == StateCompleted || w.State == StateCancelled {
		return
	}
	w.State = StateCompleted
	if !now.IsZero() {
		t := now
		w.CompletedAt = &t
		s.emitter.Emit(eventlog.Event{
			BatchNumber: w.BatchNumber,
			Day:         day,
			Date:        now.Format("2006-01-02"),
			Type:        eventlog.TypeWorkflowCompleted,
			WorkflowID:  w.ID,
			Stage:       w.ToStage,
		})
	}
}

// TotalTransferred sums the moved fish across completed actions.
func (w *Workflow) TotalTransferred() int {
	total := 0
	for _, a := range w.Actions {
		if a.State == ActionCompleted {
			total += a.TransferredCount
		}
	}
	return total
}
