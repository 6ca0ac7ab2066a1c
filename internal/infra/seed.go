package infra

import (
	"fmt"
	"sort"

	"github.com/aquarian247/aquasim/internal/stage"
)

// Default fleet dimensions. 14 Faroese plus 10 Scottish stations give up to
// 24 batches running concurrently without sharing a single hall.
const (
	tanksPerHall = 12
	ringsPerArea = 20
	areasPerGeo  = 6
)

// hallCapacityKg is the maximum biomass per tank by the stage its hall
// serves. Values sit comfortably above the expected load of a tenth of a
// full batch at end-of-stage weight.
var hallCapacityKg = map[stage.Stage]float64{
	stage.EggAlevin: 10_000,
	stage.Fry:       50_000,
	stage.Parr:      90_000,
	stage.Smolt:     150_000,
	stage.PostSmolt: 400_000,
}

var hallVolumeM3 = map[stage.Stage]float64{
	stage.EggAlevin: 50,
	stage.Fry:       250,
	stage.Parr:      500,
	stage.Smolt:     800,
	stage.PostSmolt: 1_500,
}

const (
	ringCapacityKg = 2_000_000
	ringVolumeM3   = 40_000
)

// GeographySpec declares a region to seed.
type GeographySpec struct {
	Name     string
	Code     string
	Stations int
}

// DefaultGeographies is the standard two-region fleet.
func DefaultGeographies() []GeographySpec {
	return []GeographySpec{
		{Name: "Faroe Islands", Code: "FI", Stations: 14},
		{Name: "Scotland", Code: "SC", Stations: 10},
	}
}

// Seed builds the immutable catalog for the given regions. Identifiers are
// fully deterministic so repeated runs address the same physical units.
func Seed(specs []GeographySpec) *Directory {
	d := &Directory{
		geographies: make(map[string]Geography),
		stations:    make(map[string][]*Station),
		halls:       make(map[string][]*Hall),
		areas:       make(map[string][]*Area),
		containers:  make(map[string]*Container),
		byHall:      make(map[string][]*Container),
		byArea:      make(map[string][]*Container),
	}

	for _, spec := range specs {
		d.geographies[spec.Name] = Geography{Name: spec.Name, Code: spec.Code}

		// 1. Freshwater stations, one hall per freshwater stage.
		for i := 0; i < spec.Stations; i++ {
			st := &Station{
				ID:        fmt.Sprintf("%s-ST-%02d", spec.Code, i+1),
				Name:      fmt.Sprintf("%s Station %d", spec.Name, i+1),
				Geography: spec.Name,
				Index:     i,
			}
			d.stations[spec.Name] = append(d.stations[spec.Name], st)

			for _, s := range []stage.Stage{stage.EggAlevin, stage.Fry, stage.Parr, stage.Smolt, stage.PostSmolt} {
				hall := &Hall{
					ID:        fmt.Sprintf("%s-H%d", st.ID, int(s)),
					Name:      fmt.Sprintf("%s Hall %s", st.Name, hallLetter(s)),
					StationID: st.ID,
					Stage:     s,
				}
				d.halls[st.ID] = append(d.halls[st.ID], hall)

				for t := 0; t < tanksPerHall; t++ {
					c := &Container{
						ID:           fmt.Sprintf("%s-T%02d", hall.ID, t+1),
						Name:         fmt.Sprintf("%s Tank %02d", hall.Name, t+1),
						Type:         ContainerType{Name: fmt.Sprintf("%s Tank", s), Category: CategoryTank},
						HallID:       hall.ID,
						MaxBiomassKg: hallCapacityKg[s],
						VolumeM3:     hallVolumeM3[s],
						Active:       true,
					}
					d.containers[c.ID] = c
					d.byHall[hall.ID] = append(d.byHall[hall.ID], c)
				}
			}
		}

		// 2. Sea areas with Adult rings.
		for i := 0; i < areasPerGeo; i++ {
			area := &Area{
				ID:        fmt.Sprintf("%s-A-%02d", spec.Code, i+1),
				Name:      fmt.Sprintf("%s Sea Area %d", spec.Name, i+1),
				Geography: spec.Name,
			}
			d.areas[spec.Name] = append(d.areas[spec.Name], area)

			for r := 0; r < ringsPerArea; r++ {
				c := &Container{
					ID:           fmt.Sprintf("%s-R%02d", area.ID, r+1),
					Name:         fmt.Sprintf("%s Ring %02d", area.Name, r+1),
					Type:         ContainerType{Name: "Sea Ring", Category: CategoryRing},
					AreaID:       area.ID,
					MaxBiomassKg: ringCapacityKg,
					VolumeM3:     ringVolumeM3,
					Active:       true,
				}
				d.containers[c.ID] = c
				d.byArea[area.ID] = append(d.byArea[area.ID], c)
			}
		}
	}

	// Deterministic ordering for every slice-valued index.
	for _, hs := range d.halls {
		sort.Slice(hs, func(i, j int) bool { return hs[i].ID < hs[j].ID })
	}
	for _, cs := range d.byHall {
		sort.Slice(cs, func(i, j int) bool { return cs[i].Name < cs[j].Name })
	}
	for _, cs := range d.byArea {
		sort.Slice(cs, func(i, j int) bool { return cs[i].Name < cs[j].Name })
	}

	return d
}

func hallLetter(s stage.Stage) string {
	// Egg&Alevin -> A through Post-Smolt -> E.
	return string(rune('A' + int(s) - 1))
}
