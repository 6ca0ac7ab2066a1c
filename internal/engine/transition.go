package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aquarian247/aquasim/internal/biology"
	"github.com/aquarian247/aquasim/internal/eventlog"
	"github.com/aquarian247/aquasim/internal/infra"
	"github.com/aquarian247/aquasim/internal/ledger"
	"github.com/aquarian247/aquasim/internal/projection"
	"github.com/aquarian247/aquasim/internal/stage"
	"github.com/aquarian247/aquasim/internal/transfer"
)

// destinationContainers resolves where the next stage lives: the station's
// specialized hall for pre-Adult stages, a sea area's rings for Adult. The
// area is picked by the batch's station index so concurrent batches spread
// across areas the same way they spread across stations.
func (e *Engine) destinationContainers(r *run, next stage.Stage) ([]*infra.Container, error) {
	if next != stage.Adult {
		station, err := e.dir.ResolveStation(r.plan.Geography, r.plan.StationIndex)
		if err != nil {
			return nil, err
		}
		return e.dir.ContainersForStage(station.ID, next)
	}
	areas := e.dir.Areas(r.plan.Geography)
	if len(areas) == 0 {
		return nil, fmt.Errorf("geography %q has no sea areas", r.plan.Geography)
	}
	area := areas[r.plan.StationIndex%len(areas)]
	return e.dir.SeaContainersInArea(area.ID), nil
}

// transferMethod names how fish move into the next stage.
func transferMethod(next stage.Stage) string {
	if next.IsFreshwater() || next == stage.PostSmolt {
		return "PUMP"
	}
	return "WELL_BOAT"
}

// transition moves the whole batch from the current stage's containers to
// the next stage's. Destinations open at population zero; fish arrive only
// through the workflow's transfer actions. A failed destination is retried
// once on a spare container; a second failure aborts the batch.
func (e *Engine) transition(r *run, d int, date time.Time, from, next stage.Stage) error {
	sources := e.ledger.ActiveForBatch(r.plan.BatchNumber)
	candidates, err := e.destinationContainers(r, next)
	if err != nil {
		return fmt.Errorf("batch %s day %d: %w", r.plan.BatchNumber, d, err)
	}
	if len(candidates) < len(sources) {
		return fmt.Errorf("batch %s day %d: %d destination containers for %d sources",
			r.plan.BatchNumber, d, len(candidates), len(sources))
	}

	// Zero-init destinations, one per source. Spare candidates stay in
	// reserve for the retry path.
	dests := make([]*ledger.Assignment, 0, len(sources))
	spareAt := len(sources)
	for i := range sources {
		a, err := e.openDestination(r, candidates, &spareAt, i, next, date)
		if err != nil {
			return err
		}
		dests = append(dests, a)
	}

	plans := make([]transfer.ActionPlan, len(sources))
	for i, src := range sources {
		plans[i] = transfer.ActionPlan{
			SourceAssignmentID: src.ID,
			DestAssignmentID:   dests[i].ID,
			Count:              src.Population,
		}
	}
	wf := e.transfers.Plan(r.plan.BatchNumber, from, next, plans, date)
	if err := e.transfers.Finalize(wf, date); err != nil {
		return fmt.Errorf("batch %s day %d: %w", r.plan.BatchNumber, d, err)
	}

	method := transferMethod(next)
	rng := biology.NewRand(r.plan.BatchNumber, d, biology.KindTransfer)
	for i, a := range wf.Actions {
		// Handling losses: around 0.05% of the moved fish per action.
		mortality := int(math.Round(float64(plans[i].Count) * 0.0005 * 2 * rng.Float64()))

		if err := e.transfers.ExecuteAction(wf, a, mortality, method, d, date); err != nil {
			alt, altErr := e.openDestination(r, candidates, &spareAt, -1, next, date)
			if altErr != nil {
				return fmt.Errorf("batch %s day %d: transfer retry: %w", r.plan.BatchNumber, d, altErr)
			}
			if err := e.transfers.RetryWith(wf, a, alt.ID, date); err != nil {
				return err
			}
			if err := e.transfers.ExecuteAction(wf, a, mortality, method, d, date); err != nil {
				return fmt.Errorf("batch %s day %d: transfer failed twice: %w", r.plan.BatchNumber, d, err)
			}
		}
		if e.metrics != nil {
			e.metrics.TransferExecuted(r.plan.BatchNumber)
		}
	}

	r.batch.Stage = next
	e.emit(eventlog.Event{
		BatchNumber: r.plan.BatchNumber,
		Day:         d,
		Date:        date.Format("2006-01-02"),
		Type:        eventlog.TypeStageTransition,
		Stage:       next,
		Count:       wf.TotalTransferred(),
		WorkflowID:  wf.ID,
	})
	log.Info().Str("batch", r.plan.BatchNumber).Int("day", d).
		Stringer("from", from).Stringer("to", next).
		Int("transferred", wf.TotalTransferred()).Msg("Stage transition")
	return nil
}

// openDestination opens a zero-populated assignment on the next free
// candidate container, starting at index i (or at the spare cursor when i is
// negative). A container already busy with another batch is skipped.
func (e *Engine) openDestination(r *run, candidates []*infra.Container, spareAt *int, i int, next stage.Stage, date time.Time) (*ledger.Assignment, error) {
	try := func(c *infra.Container) (*ledger.Assignment, error) {
		e.ledger.RegisterContainer(c.ID, c.MaxBiomassKg)
		return e.ledger.Open(r.plan.BatchNumber, c.ID, next, date, 0, 0, ledger.OpenOptions{})
	}

	if i >= 0 {
		if a, err := try(candidates[i]); err == nil {
			return a, nil
		}
	}
	for *spareAt < len(candidates) {
		c := candidates[*spareAt]
		*spareAt++
		if a, err := try(c); err == nil {
			return a, nil
		}
	}
	return nil, fmt.Errorf("batch %s: no free %s container", r.plan.BatchNumber, next)
}

// createScenario cuts the from-batch scenario at the Parr boundary and
// computes its first projection run, which the batch pins as its baseline.
// The deprecated scenario pin is written alongside the run pin.
func (e *Engine) createScenario(r *run, d int, date time.Time) {
	active := e.ledger.ActiveForBatch(r.plan.BatchNumber)
	count := 0
	weight := 0.0
	for _, a := range active {
		count += a.Population
		weight = a.AvgWeightG
	}

	sc := projection.NewScenario(
		r.plan.BatchNumber+" from-batch",
		r.plan.BatchNumber,
		count, weight,
		date, d+1, stage.TotalDays-d,
		r.models, date,
	)
	e.projections.AddScenario(sc)

	dateStr := date.Format("2006-01-02")
	e.emit(eventlog.Event{
		BatchNumber: r.plan.BatchNumber,
		Day:         d,
		Date:        dateStr,
		Type:        eventlog.TypeScenarioCreated,
		ScenarioID:  sc.ID,
		Count:       count,
		AvgWeightG:  weight,
	})

	prun, err := e.projections.ComputeRun(sc.ID, e.profile, date)
	if err != nil {
		log.Error().Err(err).Str("batch", r.plan.BatchNumber).Msg("Initial projection run failed")
		return
	}
	r.batch.PinnedProjectionRun = &projection.RunRef{ScenarioID: sc.ID, RunNumber: prun.RunNumber}
	r.batch.PinnedScenario = sc.ID
	e.emit(eventlog.Event{
		BatchNumber: r.plan.BatchNumber,
		Day:         d,
		Date:        dateStr,
		Type:        eventlog.TypeProjectionRunCreated,
		ScenarioID:  sc.ID,
		RunNumber:   prun.RunNumber,
	})
}

// complete closes every assignment at the final Adult boundary and marks the
// batch COMPLETED.
func (e *Engine) complete(r *run, d int, dateStr string) {
	date := mustParse(dateStr)
	for _, a := range e.ledger.ActiveForBatch(r.plan.BatchNumber) {
		if err := e.ledger.Close(a.ID, date); err != nil {
			log.Warn().Err(err).Str("assignment", a.ID).Msg("Close at completion failed")
		}
	}
	r.batch.Status = StatusCompleted
	e.emit(eventlog.Event{
		BatchNumber: r.plan.BatchNumber,
		Day:         d,
		Date:        dateStr,
		Type:        eventlog.TypeBatchStatus,
		Status:      string(StatusCompleted),
	})
	log.Info().Str("batch", r.plan.BatchNumber).Int("day", d).Msg("Batch completed")
}

// terminate closes out a batch early, on cancellation or a fatal error.
func (e *Engine) terminate(r *run, d int, reason string) {
	date := r.start.AddDate(0, 0, d)
	for _, a := range e.ledger.ActiveForBatch(r.plan.BatchNumber) {
		if err := e.ledger.Close(a.ID, date); err != nil {
			log.Warn().Err(err).Str("assignment", a.ID).Msg("Close at termination failed")
		}
	}
	r.batch.Status = StatusTerminated
	e.emit(eventlog.Event{
		BatchNumber: r.plan.BatchNumber,
		Day:         d,
		Date:        date.Format("2006-01-02"),
		Type:        eventlog.TypeBatchStatus,
		Status:      string(StatusTerminated),
		Method:      reason,
	})
	log.Warn().Str("batch", r.plan.BatchNumber).Int("day", d).Str("reason", reason).Msg("Batch terminated")
}
