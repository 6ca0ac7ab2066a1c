// Package orchestrator plans and executes fleets of batch simulations. The
// planner derives a staggered, station-partitioned schedule from a target
// saturation; the executor runs the event engine across a bounded worker
// pool; the post phase performs bulk assimilation and bulk projection
// computation on the same pool.
package orchestrator

import (
	"errors"
	"fmt"
	"time"

	"github.com/aquarian247/aquasim/internal/engine"
	"github.com/aquarian247/aquasim/internal/infra"
	"github.com/aquarian247/aquasim/internal/stage"
)

// ErrInfeasible marks a plan that cannot be executed against the seeded
// fleet. The CLI maps it to its own exit code.
var ErrInfeasible = errors.New("plan infeasible")

// containersPerBatch mirrors the engine's fixed per-stage fan-out.
const containersPerBatch = 10

// defaultSaturation is the target share of hall capacity occupied by active
// batches.
const defaultSaturation = 0.85

// staggerDays separates consecutive batch starts so early batches vacate
// Hall A before later ones on the same station need it.
const staggerDays = 30

// PlanConfig is the planner's input.
type PlanConfig struct {
	Geographies       []string
	Saturation        float64
	StartDate         time.Time
	Species           string
	InitialPopulation int
	DurationDays      int
	// Batches overrides the saturation-derived count when positive.
	Batches int
}

// BuildPlans derives the batch schedule: the batch count from the target
// saturation, start dates staggered 30 days apart, and each batch pinned to
// a station by round-robin within its geography so concurrent batches can
// never contend for containers.
func BuildPlans(dir *infra.Directory, cfg PlanConfig) ([]engine.BatchPlan, error) {
	if cfg.Saturation <= 0 {
		cfg.Saturation = defaultSaturation
	}
	if cfg.Saturation > 1 {
		return nil, fmt.Errorf("saturation %.2f above 1.0: %w", cfg.Saturation, ErrInfeasible)
	}
	if len(cfg.Geographies) == 0 {
		cfg.Geographies = dir.GeographyNames()
	}
	if cfg.Species == "" {
		cfg.Species = "Atlantic Salmon"
	}
	if cfg.InitialPopulation <= 0 {
		cfg.InitialPopulation = 3_500_000
	}
	if cfg.DurationDays <= 0 {
		cfg.DurationDays = stage.TotalDays
	}

	count := cfg.Batches
	if count <= 0 {
		count = int(float64(dir.TotalHallContainers()) * cfg.Saturation / containersPerBatch)
	}
	if count <= 0 {
		return nil, fmt.Errorf("derived batch count %d: %w", count, ErrInfeasible)
	}
	for _, g := range cfg.Geographies {
		if dir.StationCount(g) == 0 {
			return nil, fmt.Errorf("geography %q has no stations: %w", g, ErrInfeasible)
		}
	}

	plans := make([]engine.BatchPlan, 0, count)
	geoSeq := make(map[string]int, len(cfg.Geographies))
	for i := 0; i < count; i++ {
		geo := cfg.Geographies[i%len(cfg.Geographies)]
		code, err := dir.GeographyCode(geo)
		if err != nil {
			return nil, err
		}
		geoSeq[geo]++
		start := cfg.StartDate.AddDate(0, 0, i*staggerDays)
		plans = append(plans, engine.BatchPlan{
			BatchNumber:       fmt.Sprintf("%s-%d-%03d", code, start.Year(), geoSeq[geo]),
			Geography:         geo,
			Species:           cfg.Species,
			StartDate:         start.Format("2006-01-02"),
			InitialPopulation: cfg.InitialPopulation,
			DurationDays:      cfg.DurationDays,
			StationIndex:      (geoSeq[geo] - 1) % dir.StationCount(geo),
		})
	}
	return plans, nil
}
