// Package engine is the day-stepped single-batch simulator. It advances a
// batch through the six lifecycle stages, applying the biology kernel and
// driving the assignment ledger, and emits the full ordered event stream:
// environmental readings, feedings, mortalities, growth samples, lice
// counts, transfers, and stage transitions. Within a batch the engine is
// strictly sequential and deterministic; all randomness is drawn from
// streams seeded by (batch number, day, event kind).
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aquarian247/aquasim/internal/biology"
	"github.com/aquarian247/aquasim/internal/eventlog"
	"github.com/aquarian247/aquasim/internal/feed"
	"github.com/aquarian247/aquasim/internal/infra"
	"github.com/aquarian247/aquasim/internal/ledger"
	"github.com/aquarian247/aquasim/internal/metrics"
	"github.com/aquarian247/aquasim/internal/projection"
	"github.com/aquarian247/aquasim/internal/stage"
	"github.com/aquarian247/aquasim/internal/transfer"
)

// Status is a batch lifecycle status.
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusCompleted  Status = "COMPLETED"
	StatusTerminated Status = "TERMINATED"
)

// containersPerBatch is the fixed fan-out of a batch across containers in
// every stage.
const containersPerBatch = 10

// BatchPlan is the engine's input contract: one record per batch, also the
// row shape of the on-disk schedule artifact.
type BatchPlan struct {
	BatchNumber       string `yaml:"batch_number" json:"batchNumber"`
	Geography         string `yaml:"geography" json:"geography"`
	Species           string `yaml:"species" json:"species"`
	StartDate         string `yaml:"start_date" json:"startDate"` // YYYY-MM-DD
	InitialPopulation int    `yaml:"initial_population" json:"initialPopulation"`
	DurationDays      int    `yaml:"duration_days" json:"durationDays"`
	StationIndex      int    `yaml:"station_index" json:"stationIndex"`
	WorkersHint       int    `yaml:"workers_hint,omitempty" json:"workersHint,omitempty"`
}

// Batch is the simulated cohort's header state.
type Batch struct {
	BatchNumber string      `json:"batchNumber"`
	Species     string      `json:"species"`
	Geography   string      `json:"geography"`
	StartDate   time.Time   `json:"startDate"`
	Stage       stage.Stage `json:"stage"`
	Status      Status      `json:"status"`

	// PinnedProjectionRun is the batch's displayed baseline. PinnedScenario
	// is the deprecated alias; writes set both, reads prefer the run.
	PinnedProjectionRun *projection.RunRef `json:"pinnedProjectionRun,omitempty"`
	PinnedScenario      string             `json:"pinnedScenario,omitempty"`
}

// Engine wires the collaborators of one simulation run. One engine serves
// many batches; all per-batch state lives in the ledger and the stream.
type Engine struct {
	dir         *infra.Directory
	ledger      *ledger.Ledger
	emitter     *eventlog.Emitter
	transfers   *transfer.Service
	inventory   *feed.Inventory
	projections *projection.Store
	profile     biology.TemperatureProfile
	metrics     *metrics.Metrics
}

// New creates an engine over shared collaborators.
func New(dir *infra.Directory, l *ledger.Ledger, em *eventlog.Emitter, inv *feed.Inventory, pr *projection.Store, profile biology.TemperatureProfile, m *metrics.Metrics) *Engine {
	return &Engine{
		dir:         dir,
		ledger:      l,
		emitter:     em,
		transfers:   transfer.NewService(l, em),
		inventory:   inv,
		projections: pr,
		profile:     profile,
		metrics:     m,
	}
}

// run carries the mutable state of one batch simulation.
type run struct {
	plan   BatchPlan
	batch  *Batch
	models biology.ModelSet
	start  time.Time
}

// Run simulates one batch from day 0 through its plan duration. Cancellation
// is honored at day boundaries: the current day's events complete, then the
// batch is closed out as TERMINATED.
func (e *Engine) Run(ctx context.Context, plan BatchPlan) (*Batch, error) {
	start, err := time.Parse("2006-01-02", plan.StartDate)
	if err != nil {
		return nil, fmt.Errorf("batch %s: bad start date %q: %w", plan.BatchNumber, plan.StartDate, err)
	}
	if plan.DurationDays <= 0 || plan.DurationDays > stage.TotalDays {
		plan.DurationDays = stage.TotalDays
	}

	r := &run{
		plan:  plan,
		start: start,
		batch: &Batch{
			BatchNumber: plan.BatchNumber,
			Species:     plan.Species,
			Geography:   plan.Geography,
			StartDate:   start,
			Stage:       stage.EggAlevin,
			Status:      StatusActive,
		},
	}
	r.models = biology.DefaultModels(plan.Species, plan.Geography, releasePeriod(start))

	if err := e.place(r); err != nil {
		r.batch.Status = StatusTerminated
		return r.batch, err
	}

	for d := 1; d <= plan.DurationDays; d++ {
		if ctx.Err() != nil {
			log.Info().Str("batch", plan.BatchNumber).Int("day", d).Msg("Cancelled at day boundary")
			e.terminate(r, d, "cancelled")
			return r.batch, nil
		}
		if err := e.stepDay(r, d); err != nil {
			log.Error().Err(err).Str("batch", plan.BatchNumber).Int("day", d).Msg("Batch aborted")
			e.terminate(r, d, err.Error())
			return r.batch, err
		}
		if r.batch.Status != StatusActive {
			break
		}
	}
	return r.batch, nil
}

// releasePeriod buckets a start date into the quarter key used for model
// lookup, e.g. "2025-Q1".
func releasePeriod(t time.Time) string {
	return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
}

// emit sends one event through the shared emitter and counts it.
func (e *Engine) emit(ev eventlog.Event) {
	e.emitter.Emit(ev)
	if e.metrics != nil {
		e.metrics.AddEvents(ev.BatchNumber, 1)
	}
}

// place performs the day-0 initial placement: the assigned station's Hall A
// tanks are opened pre-populated with eggs at 0.1 g. This is the one context
// where assignments open with fish in them; no transfer precedes the eggs.
func (e *Engine) place(r *run) error {
	station, err := e.dir.ResolveStation(r.plan.Geography, r.plan.StationIndex)
	if err != nil {
		return fmt.Errorf("batch %s: %w", r.plan.BatchNumber, err)
	}
	tanks, err := e.dir.ContainersForStage(station.ID, stage.EggAlevin)
	if err != nil {
		return fmt.Errorf("batch %s: %w", r.plan.BatchNumber, err)
	}
	if len(tanks) < containersPerBatch {
		return fmt.Errorf("batch %s: station %s has %d egg tanks, need %d",
			r.plan.BatchNumber, station.ID, len(tanks), containersPerBatch)
	}

	counts := biology.SplitAcross(r.plan.InitialPopulation, containersPerBatch)
	date := r.start.Format("2006-01-02")
	for i := 0; i < containersPerBatch; i++ {
		c := tanks[i]
		e.ledger.RegisterContainer(c.ID, c.MaxBiomassKg)
		a, err := e.ledger.Open(r.plan.BatchNumber, c.ID, stage.EggAlevin, r.start, counts[i], 0.1, ledger.OpenOptions{})
		if err != nil {
			return fmt.Errorf("batch %s: place eggs in %s: %w", r.plan.BatchNumber, c.ID, err)
		}
		e.emit(eventlog.Event{
			BatchNumber:      r.plan.BatchNumber,
			Day:              0,
			Date:             date,
			Type:             eventlog.TypeTransferAction,
			ContainerID:      c.ID,
			Stage:            stage.EggAlevin,
			DestAssignmentID: a.ID,
			Count:            counts[i],
			BiomassKg:        a.BiomassKg,
			Method:           "PLACEMENT",
		})
	}
	log.Info().Str("batch", r.plan.BatchNumber).Str("station", station.ID).
		Int("population", r.plan.InitialPopulation).Msg("Batch placed")
	return nil
}

// stepDay runs the full in-day event order: environmental readings, growth,
// mortality, feeding, samples, then the stage transition check. On a
// transition day the mortality and feeding steps are deferred to the next
// day so they apply post-transfer.
func (e *Engine) stepDay(r *run, d int) error {
	s := stage.ForDay(d)
	date := r.start.AddDate(0, 0, d)
	dateStr := date.Format("2006-01-02")
	active := e.ledger.ActiveForBatch(r.plan.BatchNumber)
	if len(active) == 0 {
		return fmt.Errorf("batch %s day %d: no active assignments", r.plan.BatchNumber, d)
	}

	temp := biology.EffectiveTemperature(s, e.profile, date.YearDay())
	e.emitEnvReadings(r, d, dateStr, s, temp, active)

	gains := make(map[string]float64, len(active))
	for _, a := range active {
		step := biology.Grow(a.AvgWeightG, s, r.models.TGC, temp)
		gains[a.ID] = step.GainG
		if err := e.ledger.UpdateWeight(a.ID, step.WeightG); err != nil {
			return err
		}
	}

	transitionDue := d == s.CumulativeEnd()
	if !transitionDue {
		if err := e.stepMortality(r, d, dateStr, s, active); err != nil {
			return err
		}
		e.stepFeeding(r, d, dateStr, s, active, gains)
	}

	if d%7 == 0 {
		e.emitGrowthSamples(r, d, dateStr, s)
		if s == stage.Adult {
			e.emitLiceCounts(r, d, dateStr)
		}
	}

	if transitionDue {
		if d >= stage.TotalDays {
			e.complete(r, d, dateStr)
			return nil
		}
		next, _ := s.Next()
		if err := e.transition(r, d, date, s, next); err != nil {
			return err
		}
		if next == stage.Parr {
			// Fry->Parr completed at day 180: cut the from-batch scenario.
			e.createScenario(r, d, date)
		}
	}
	return nil
}

var sensorTypes = []string{"Temperature", "Oxygen", "pH", "Salinity", "CO2", "Turbidity", "Ammonia"}

var readingTimes = []string{"00:00", "04:00", "08:00", "12:00", "16:00", "20:00"}

// emitEnvReadings emits 6 fixed times x 7 sensor types per active container.
func (e *Engine) emitEnvReadings(r *run, d int, dateStr string, s stage.Stage, temp float64, active []*ledger.Assignment) {
	rng := biology.NewRand(r.plan.BatchNumber, d, biology.KindEnvironment)
	salinity := 0.5
	if !s.IsFreshwater() {
		salinity = 34.5
	}
	base := map[string]float64{
		"Temperature": temp,
		"Oxygen":      9.0,
		"pH":          7.2,
		"Salinity":    salinity,
		"CO2":         5.0,
		"Turbidity":   2.0,
		"Ammonia":     0.05,
	}
	for _, a := range active {
		for _, at := range readingTimes {
			for _, sensor := range sensorTypes {
				e.emit(eventlog.Event{
					BatchNumber: r.plan.BatchNumber,
					Day:         d,
					Date:        dateStr,
					Type:        eventlog.TypeEnvReading,
					ContainerID: a.ContainerID,
					Sensor:      sensor,
					ReadingTime: at,
					Value:       base[sensor] * (1 + 0.02*rng.NormFloat64()),
				})
			}
		}
	}
}

// stepMortality draws the batch's daily deaths, splits them across
// assignments, and emits one mortality event per assignment, zero-death days
// included.
func (e *Engine) stepMortality(r *run, d int, dateStr string, s stage.Stage, active []*ledger.Assignment) error {
	total := 0
	for _, a := range active {
		total += a.Population
	}
	draw := biology.SampleMortality(r.plan.BatchNumber, d, s, total, r.models.Mortality)
	shares := biology.SplitAcross(draw.Count, len(active))

	for i, a := range active {
		count := shares[i]
		if count > a.Population {
			count = a.Population
		}
		if count > 0 {
			if err := e.ledger.RecordMortality(a.ID, count, mustParse(dateStr)); err != nil {
				return err
			}
		}
		e.emit(eventlog.Event{
			BatchNumber:  r.plan.BatchNumber,
			Day:          d,
			Date:         dateStr,
			Type:         eventlog.TypeMortality,
			ContainerID:  a.ContainerID,
			AssignmentID: a.ID,
			Stage:        s,
			Count:        count,
			AvgWeightG:   a.AvgWeightG,
			BiomassKg:    a.BiomassKg,
		})
		if e.metrics != nil {
			e.metrics.AddMortality(r.plan.BatchNumber, count)
		}
	}
	return nil
}

// stepFeeding computes per-container FCR-based demand, consumes it FIFO from
// the inventory, and emits two feedings per container per day. Egg&Alevin is
// never fed; replenishment purchases surface as events for audit.
func (e *Engine) stepFeeding(r *run, d int, dateStr string, s stage.Stage, active []*ledger.Assignment, gains map[string]float64) {
	feedName, ok := s.FeedName()
	if !ok {
		return
	}
	for _, a := range active {
		if !a.Active {
			continue
		}
		demand := biology.ComputeFeedDemand(s, a.Population, gains[a.ID], r.models.FCR)
		if demand.FeedKg <= 0 {
			continue
		}
		half := demand.FeedKg / 2
		for _, ft := range []string{"08:00", "14:00"} {
			purchase, err := e.inventory.Consume(feedName, half, dateStr)
			if err != nil {
				log.Warn().Err(err).Str("batch", r.plan.BatchNumber).Int("day", d).Msg("Feeding skipped")
				continue
			}
			pct := 0.0
			if a.BiomassKg > 0 {
				pct = half / a.BiomassKg * 100
			}
			e.emit(eventlog.Event{
				BatchNumber: r.plan.BatchNumber,
				Day:         d,
				Date:        dateStr,
				Type:        eventlog.TypeFeeding,
				ContainerID: a.ContainerID,
				Stage:       s,
				Feed:        feedName,
				AmountKg:    half,
				FeedingTime: ft,
				FeedingPct:  pct,
				BiomassKg:   a.BiomassKg,
				Method:      "AUTOMATIC",
				RecordedBy:  "simulator",
			})
			if e.metrics != nil {
				e.metrics.AddFeedKg(r.plan.BatchNumber, half)
			}
			if purchase != nil {
				e.emit(eventlog.Event{
					BatchNumber: r.plan.BatchNumber,
					Day:         d,
					Date:        dateStr,
					Type:        eventlog.TypeFeedPurchase,
					Feed:        purchase.Feed,
					AmountKg:    purchase.AmountKg,
				})
			}
		}
	}
}

// emitGrowthSamples emits one weekly weight sample per active assignment,
// mean weight with small sampling noise.
func (e *Engine) emitGrowthSamples(r *run, d int, dateStr string, s stage.Stage) {
	rng := biology.NewRand(r.plan.BatchNumber, d, biology.KindGrowthSample)
	for _, a := range e.ledger.ActiveForBatch(r.plan.BatchNumber) {
		sampled := a.AvgWeightG * (1 + 0.03*rng.NormFloat64())
		if sampled < 0 {
			sampled = 0
		}
		e.emit(eventlog.Event{
			BatchNumber:  r.plan.BatchNumber,
			Day:          d,
			Date:         dateStr,
			Type:         eventlog.TypeGrowthSample,
			ContainerID:  a.ContainerID,
			AssignmentID: a.ID,
			Stage:        s,
			AvgWeightG:   sampled,
			Count:        30, // fish per sample dip
		})
	}
}

// emitLiceCounts emits the weekly Adult-stage lice counts per ring.
func (e *Engine) emitLiceCounts(r *run, d int, dateStr string) {
	rng := biology.NewRand(r.plan.BatchNumber, d, biology.KindLice)
	for _, a := range e.ledger.ActiveForBatch(r.plan.BatchNumber) {
		e.emit(eventlog.Event{
			BatchNumber:  r.plan.BatchNumber,
			Day:          d,
			Date:         dateStr,
			Type:         eventlog.TypeLiceCount,
			ContainerID:  a.ContainerID,
			AssignmentID: a.ID,
			Stage:        stage.Adult,
			Count:        20, // fish examined
			Value:        0.1 + 0.2*rng.Float64(),
		})
	}
}

func mustParse(date string) time.Time {
	t, _ := time.Parse("2006-01-02", date)
	return t
}
