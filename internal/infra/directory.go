package infra

import (
	"fmt"
	"sort"

	"github.com/aquarian247/aquasim/internal/stage"
)

// Directory provides indexed lookups over the seeded catalog. All lookups are
// O(1) map hits or return pre-sorted slices; nothing mutates after Seed.
type Directory struct {
	geographies map[string]Geography
	stations    map[string][]*Station // geography name -> stations ordered by Index
	halls       map[string][]*Hall    // station ID -> halls
	areas       map[string][]*Area    // geography name -> areas
	containers  map[string]*Container // container ID -> container
	byHall      map[string][]*Container
	byArea      map[string][]*Container
}

// GeographyNames returns the seeded geography names in deterministic order.
func (d *Directory) GeographyNames() []string {
	names := make([]string, 0, len(d.geographies))
	for n := range d.geographies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// GeographyCode returns the batch-number prefix for a geography.
func (d *Directory) GeographyCode(geography string) (string, error) {
	g, ok := d.geographies[geography]
	if !ok {
		return "", fmt.Errorf("unknown geography %q", geography)
	}
	return g.Code, nil
}

// StationCount returns the number of freshwater stations in a geography.
func (d *Directory) StationCount(geography string) int {
	return len(d.stations[geography])
}

// TotalStationCount returns the number of freshwater stations across all
// geographies.
func (d *Directory) TotalStationCount() int {
	n := 0
	for _, s := range d.stations {
		n += len(s)
	}
	return n
}

// ResolveStation maps a round-robin index onto a concrete station within a
// geography. The caller supplies any non-negative index; it wraps modulo the
// station count.
func (d *Directory) ResolveStation(geography string, index int) (*Station, error) {
	stations := d.stations[geography]
	if len(stations) == 0 {
		return nil, fmt.Errorf("geography %q has no stations", geography)
	}
	return stations[index%len(stations)], nil
}

// HallForStage returns the hall within a station specialized for the given
// freshwater stage.
func (d *Directory) HallForStage(stationID string, s stage.Stage) (*Hall, error) {
	for _, h := range d.halls[stationID] {
		if h.Stage == s {
			return h, nil
		}
	}
	return nil, fmt.Errorf("station %s has no hall for stage %s", stationID, s)
}

// ContainersForStage returns the active containers of the station hall
// serving the given stage, ordered by name.
func (d *Directory) ContainersForStage(stationID string, s stage.Stage) ([]*Container, error) {
	hall, err := d.HallForStage(stationID, s)
	if err != nil {
		return nil, err
	}
	return d.ListActiveContainersForHall(hall.ID), nil
}

// ListActiveContainersForHall returns the active containers of a hall,
// ordered by name.
func (d *Directory) ListActiveContainersForHall(hallID string) []*Container {
	var out []*Container
	for _, c := range d.byHall[hallID] {
		if c.Active {
			out = append(out, c)
		}
	}
	return out
}

// Areas returns the sea areas of a geography in seeded order.
func (d *Directory) Areas(geography string) []*Area {
	return d.areas[geography]
}

// SeaContainersInArea returns the active sea rings of an area, ordered by
// name.
func (d *Directory) SeaContainersInArea(areaID string) []*Container {
	var out []*Container
	for _, c := range d.byArea[areaID] {
		if c.Active {
			out = append(out, c)
		}
	}
	return out
}

// Container returns the container with the given ID.
func (d *Directory) Container(id string) (*Container, error) {
	c, ok := d.containers[id]
	if !ok {
		return nil, fmt.Errorf("unknown container %q", id)
	}
	return c, nil
}

// CapacityOf returns the maximum biomass in kg a container may hold.
func (d *Directory) CapacityOf(id string) (float64, error) {
	c, err := d.Container(id)
	if err != nil {
		return 0, err
	}
	return c.MaxBiomassKg, nil
}

// TotalHallContainers counts active containers across all halls. The planner
// derives achievable batch counts from this figure.
func (d *Directory) TotalHallContainers() int {
	n := 0
	for _, cs := range d.byHall {
		for _, c := range cs {
			if c.Active {
				n++
			}
		}
	}
	return n
}
