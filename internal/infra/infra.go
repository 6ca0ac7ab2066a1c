// Package infra is the read-only catalog of physical rearing infrastructure:
// geographies, freshwater stations with stage-specialized halls, sea areas
// with rings, and the containers inside them. The catalog is seeded once and
// treated as immutable for the lifetime of a simulation run.
package infra

import (
	"github.com/aquarian247/aquasim/internal/stage"
)

// ContainerCategory separates freshwater tanks from sea rings.
type ContainerCategory string

const (
	// CategoryTank is a land-based freshwater tank.
	CategoryTank ContainerCategory = "tank"
	// CategoryRing is a floating sea ring.
	CategoryRing ContainerCategory = "ring"
)

// ContainerType describes a class of physical container.
type ContainerType struct {
	Name     string
	Category ContainerCategory
}

// Container is a single physical rearing unit. It belongs to exactly one of
// Hall or Area.
type Container struct {
	ID           string
	Name         string
	Type         ContainerType
	HallID       string // empty for sea rings
	AreaID       string // empty for hall tanks
	MaxBiomassKg float64
	VolumeM3     float64
	Active       bool
}

// Hall is a building within a freshwater station, specialized for exactly one
// freshwater lifecycle stage.
type Hall struct {
	ID        string
	Name      string
	StationID string
	Stage     stage.Stage
}

// Station is a land-based freshwater site hosting one hall per freshwater
// stage.
type Station struct {
	ID        string
	Name      string
	Geography string
	Index     int
}

// Area is a sea site hosting Adult rings.
type Area struct {
	ID        string
	Name      string
	Geography string
}

// Geography is a top-level operating region.
type Geography struct {
	Name string
	Code string // batch number prefix, e.g. "FI"
}
