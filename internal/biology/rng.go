package biology

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// EventKind namespaces the deterministic random streams so that, for a given
// batch and day, mortality noise never perturbs growth-sample noise.
type EventKind string

const (
	// KindMortality seeds daily mortality noise.
	KindMortality EventKind = "mortality"
	// KindGrowthSample seeds weekly growth-sample noise.
	KindGrowthSample EventKind = "growth_sample"
	// KindLice seeds weekly lice-count draws.
	KindLice EventKind = "lice"
	// KindTransfer seeds per-action transfer mortality.
	KindTransfer EventKind = "transfer"
	// KindEnvironment seeds sensor reading jitter.
	KindEnvironment EventKind = "environment"
)

// Seed derives a stable 64-bit seed from (batch number, day, event kind).
// Identical inputs yield identical draws across runs and machines.
func Seed(batchNumber string, day int, kind EventKind) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d|%s", batchNumber, day, kind)
	return int64(h.Sum64())
}

// NewRand returns a PRNG for the given (batch, day, kind) stream.
func NewRand(batchNumber string, day int, kind EventKind) *rand.Rand {
	return rand.New(rand.NewSource(Seed(batchNumber, day, kind)))
}
