// Package field owns the per-tile energy buffers: harvesting, regeneration
// and diffusion with obstacle- and density-aware clamping.
package field

import (
	"github.com/pthm-cable/microcosm/events"
)

// Field is a double-buffered tile energy grid. Regenerate reads cur and
// writes next, then swaps, so diffusion is order-independent within a tick.
type Field struct {
	rows, cols int
	maxTile    float64
	cur, next  []float64
}

// New creates a field with every tile at initialFrac of maxTile.
func New(rows, cols int, maxTile, initialFrac float64) *Field {
	f := &Field{
		rows:    rows,
		cols:    cols,
		maxTile: maxTile,
		cur:     make([]float64, rows*cols),
		next:    make([]float64, rows*cols),
	}
	for i := range f.cur {
		f.cur[i] = maxTile * initialFrac
	}
	return f
}

// Rows returns the grid height.
func (f *Field) Rows() int { return f.rows }

// Cols returns the grid width.
func (f *Field) Cols() int { return f.cols }

// MaxTileEnergy returns the per-tile energy ceiling.
func (f *Field) MaxTileEnergy() float64 { return f.maxTile }

func (f *Field) index(row, col int) int {
	if row < 0 || row >= f.rows || col < 0 || col >= f.cols {
		panic("field: tile index out of range")
	}
	return row*f.cols + col
}

// At returns the current energy of a tile.
func (f *Field) At(row, col int) float64 {
	return f.cur[f.index(row, col)]
}

// Set stores a tile energy clamped to [0, maxTileEnergy].
func (f *Field) Set(row, col int, v float64) {
	f.cur[f.index(row, col)] = f.clamp(v)
}

// ZeroTile forces a tile to zero energy. Called on occupation and for
// obstacle tiles.
func (f *Field) ZeroTile(row, col int) {
	f.cur[f.index(row, col)] = 0
}

// Snapshot returns a copy of the current energy grid in row-major order.
func (f *Field) Snapshot() []float64 {
	out := make([]float64, len(f.cur))
	copy(out, f.cur)
	return out
}

func (f *Field) clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > f.maxTile {
		return f.maxTile
	}
	return v
}

// HarvestProfile carries the genome-derived foraging traits of one organism.
type HarvestProfile struct {
	ForageRate     float64 // FORAGE locus, (0, 1]
	CrowdTolerance float64 // DENSITY locus
	Exploration    float64 // EXPLORATION locus
}

// Base fraction of the tile ceiling one harvest may take before density
// narrowing.
const harvestCapBase = 0.3

// Consume harvests energy from the tile into the organism and returns the
// amount moved. The harvest cap narrows as local crowding (scaled by the
// density effect multiplier) rises; crowd-tolerant profiles retain a wider
// cap than skittish ones. Tile energy never drops below 0 and the
// organism's energy never exceeds maxTileEnergy.
func (f *Field) Consume(row, col int, profile HarvestProfile, density, densityEffectMultiplier, organismEnergy float64) (harvested, newEnergy float64) {
	i := f.index(row, col)
	tile := f.cur[i]
	if tile <= 0 {
		return 0, organismEnergy
	}

	tolerance := 0.6*profile.CrowdTolerance + 0.4*profile.Exploration
	pressure := density * densityEffectMultiplier * (1 - tolerance)
	if pressure < 0 {
		pressure = 0
	}
	capRange := f.maxTile * harvestCapBase / (1 + pressure)

	want := profile.ForageRate * capRange
	if want > tile {
		want = tile
	}
	room := f.maxTile - organismEnergy
	if room < 0 {
		room = 0
	}
	if want > room {
		want = room
	}
	if want <= 0 {
		return 0, organismEnergy
	}

	f.cur[i] = f.clamp(tile - want)
	return want, f.clamp(organismEnergy + want)
}

// RegenParams bundles the per-tick inputs to Regenerate.
type RegenParams struct {
	Events                  []events.Event
	EventStrengthMultiplier float64
	RegenRate               float64
	DiffusionRate           float64
	Density                 []float64 // row-major crowding estimates
	DensityEffectMultiplier float64
	IsObstacle              func(row, col int) bool
	IsOccupied              func(row, col int) bool
}

// Regenerate performs the two-phase tile update. Obstacle and occupied
// tiles are forced to zero and skipped entirely: no regeneration, no
// density lookup, and no participation in diffusion.
func (f *Field) Regenerate(p RegenParams) {
	blocked := func(row, col int) bool {
		if p.IsObstacle != nil && p.IsObstacle(row, col) {
			return true
		}
		if p.IsOccupied != nil && p.IsOccupied(row, col) {
			return true
		}
		return false
	}

	for row := 0; row < f.rows; row++ {
		for col := 0; col < f.cols; col++ {
			i := row*f.cols + col

			if blocked(row, col) {
				f.next[i] = 0
				continue
			}

			v := f.cur[i]

			// Regeneration, dampened by crowding and scaled by any
			// overlapping event.
			regen := p.RegenRate
			if p.Density != nil {
				regen /= 1 + p.Density[i]*p.DensityEffectMultiplier
			}
			regen *= f.eventScale(row, col, p)
			v += regen

			// Exchange a diffusionRate fraction of the differential with
			// each unblocked 4-connected neighbor.
			if p.DiffusionRate > 0 {
				v += p.DiffusionRate * f.neighborDifferential(row, col, i, blocked)
			}

			f.next[i] = f.clamp(v)
		}
	}

	f.cur, f.next = f.next, f.cur
}

// neighborDifferential sums cur[n]-cur[i] over unblocked 4-neighbors.
func (f *Field) neighborDifferential(row, col, i int, blocked func(row, col int) bool) float64 {
	var d float64
	if row > 0 && !blocked(row-1, col) {
		d += f.cur[i-f.cols] - f.cur[i]
	}
	if row < f.rows-1 && !blocked(row+1, col) {
		d += f.cur[i+f.cols] - f.cur[i]
	}
	if col > 0 && !blocked(row, col-1) {
		d += f.cur[i-1] - f.cur[i]
	}
	if col < f.cols-1 && !blocked(row, col+1) {
		d += f.cur[i+1] - f.cur[i]
	}
	return d
}

// eventScale folds every event covering the tile into a single regeneration
// multiplier, floored at zero.
func (f *Field) eventScale(row, col int, p RegenParams) float64 {
	scale := 1.0
	for i := range p.Events {
		e := &p.Events[i]
		if !e.Covers(row, col) {
			continue
		}
		scale *= 1 + events.RegenSign(e.Type)*e.Strength*p.EventStrengthMultiplier
	}
	if scale < 0 {
		return 0
	}
	return scale
}
