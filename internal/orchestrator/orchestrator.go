package orchestrator

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/aquarian247/aquasim/internal/biology"
	"github.com/aquarian247/aquasim/internal/engine"
	"github.com/aquarian247/aquasim/internal/eventlog"
	"github.com/aquarian247/aquasim/internal/feed"
	"github.com/aquarian247/aquasim/internal/infra"
	"github.com/aquarian247/aquasim/internal/ledger"
	"github.com/aquarian247/aquasim/internal/metrics"
	"github.com/aquarian247/aquasim/internal/projection"
)

// defaultBatchTimeout converts a stuck batch into a cooperative cancel.
const defaultBatchTimeout = 60 * time.Minute

// Orchestrator owns the shared collaborators of one run and fans batches
// out over a bounded worker pool. Batches never talk to each other; the
// ledger's per-container serialization is the only synchronization point.
type Orchestrator struct {
	Dir         *infra.Directory
	Ledger      *ledger.Ledger
	Emitter     *eventlog.Emitter
	Inventory   *feed.Inventory
	Projections *projection.Store
	Profile     biology.TemperatureProfile
	Metrics     *metrics.Metrics

	Workers      int
	BatchTimeout time.Duration

	engine *engine.Engine
}

// DefaultFeedCapacityKg sizes each feed stock for a full fleet run.
const DefaultFeedCapacityKg = 50_000_000

// New assembles an orchestrator with freshly seeded infrastructure and
// empty shared state.
func New(dir *infra.Directory, workers int, feedCapacityKg float64) *Orchestrator {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if feedCapacityKg <= 0 {
		feedCapacityKg = DefaultFeedCapacityKg
	}
	l := ledger.New()
	m := metrics.New()
	em := eventlog.NewEmitter(eventlog.NewStore(), nil)
	inv := feed.NewInventory(feedCapacityKg, time.Now().Format("2006-01-02"))
	pr := projection.NewStore()
	profile := biology.DefaultSeasonalProfile()

	o := &Orchestrator{
		Dir:          dir,
		Ledger:       l,
		Emitter:      em,
		Inventory:    inv,
		Projections:  pr,
		Profile:      profile,
		Metrics:      m,
		Workers:      workers,
		BatchTimeout: defaultBatchTimeout,
	}
	o.engine = engine.New(dir, l, em, inv, pr, profile, m)
	return o
}

// DefaultWorkers leaves two cores for the runtime and I/O.
func DefaultWorkers() int {
	if n := runtime.NumCPU() - 2; n > 1 {
		return n
	}
	return 1
}

// Result is the outcome of one batch execution.
type Result struct {
	Plan    engine.BatchPlan
	Batch   *engine.Batch
	Err     error
	Elapsed time.Duration
}

// Execute runs every plan on the worker pool. A failing batch is logged and
// recorded TERMINATED; it never aborts its siblings. Results come back in
// plan order.
func (o *Orchestrator) Execute(ctx context.Context, plans []engine.BatchPlan) []Result {
	results := make([]Result, len(plans))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.Workers)
	for i, plan := range plans {
		g.Go(func() error {
			o.Metrics.WorkerStarted()
			defer o.Metrics.WorkerDone()

			bctx, cancel := context.WithTimeout(ctx, o.BatchTimeout)
			defer cancel()

			started := time.Now()
			batch, err := o.engine.Run(bctx, plan)
			results[i] = Result{Plan: plan, Batch: batch, Err: err, Elapsed: time.Since(started)}

			switch {
			case err != nil:
				o.Metrics.BatchFailed()
				log.Error().Err(err).Str("batch", plan.BatchNumber).Msg("Batch failed")
			case batch.Status == engine.StatusCompleted:
				o.Metrics.BatchCompleted()
			case batch.Status == engine.StatusTerminated:
				o.Metrics.BatchFailed()
			}
			// Failure isolation: the error stays in the result row.
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// PostProcess performs the bulk phase over every batch in the stream:
// assimilation of per-day assignment states, then a projection run for each
// scenario the engines created. Both are embarrassingly parallel by key and
// reuse the worker pool.
func (o *Orchestrator) PostProcess(ctx context.Context) (map[string][]eventlog.DailyState, error) {
	store := o.Emitter.Store()
	batches := store.Batches()
	sort.Strings(batches)

	states := make(map[string][]eventlog.DailyState, len(batches))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.Workers)
	for _, bn := range batches {
		g.Go(func() error {
			rows := eventlog.BuildDailyStates(store.Events(bn))
			mu.Lock()
			states[bn] = rows
			mu.Unlock()
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("bulk assimilation: %w", err)
	}

	now := time.Now()
	pg, ctx := errgroup.WithContext(ctx)
	pg.SetLimit(o.Workers)
	for _, sc := range o.Projections.Scenarios() {
		pg.Go(func() error {
			if _, err := o.Projections.ComputeRun(sc.ID, o.Profile, now); err != nil {
				return fmt.Errorf("scenario %s: %w", sc.ID, err)
			}
			return ctx.Err()
		})
	}
	if err := pg.Wait(); err != nil {
		return nil, fmt.Errorf("bulk projection: %w", err)
	}
	return states, nil
}
