package sim

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/microcosm/components"
	"github.com/pthm-cable/microcosm/zones"
)

// noEntity is the empty occupancy slot. Ark never hands out the zero entity.
var noEntity ecs.Entity

// GridManager owns the occupancy and obstacle state of the world grid. Every
// placement, move and removal goes through it so the occupancy slots and the
// Position components can never drift apart; a detected desync is a bug and
// panics immediately rather than corrupting the simulation.
type GridManager struct {
	rows, cols int
	grid       []ecs.Entity // row-major; noEntity marks a free tile
	obstacles  []bool
	occupied   int

	posMap *ecs.Map1[components.Position]
}

// NewGridManager builds an empty grid. obstacles may be nil for an open map;
// otherwise it must have rows*cols entries and is used directly.
func NewGridManager(rows, cols int, obstacles []bool, posMap *ecs.Map1[components.Position]) *GridManager {
	if rows < 1 || cols < 1 {
		panic(fmt.Sprintf("sim: invalid grid dimensions %dx%d", rows, cols))
	}
	if obstacles == nil {
		obstacles = make([]bool, rows*cols)
	}
	if len(obstacles) != rows*cols {
		panic("sim: obstacle grid size does not match dimensions")
	}
	return &GridManager{
		rows:      rows,
		cols:      cols,
		grid:      make([]ecs.Entity, rows*cols),
		obstacles: obstacles,
		posMap:    posMap,
	}
}

// Rows returns the grid height in tiles.
func (gm *GridManager) Rows() int { return gm.rows }

// Cols returns the grid width in tiles.
func (gm *GridManager) Cols() int { return gm.cols }

// Occupied returns the number of occupied tiles.
func (gm *GridManager) Occupied() int { return gm.occupied }

// InBounds reports whether the tile exists.
func (gm *GridManager) InBounds(row, col int) bool {
	return row >= 0 && row < gm.rows && col >= 0 && col < gm.cols
}

func (gm *GridManager) index(row, col int) int {
	if !gm.InBounds(row, col) {
		panic(fmt.Sprintf("sim: tile (%d,%d) out of bounds for %dx%d grid", row, col, gm.rows, gm.cols))
	}
	return row*gm.cols + col
}

// IsObstacle reports whether the tile is blocked terrain.
func (gm *GridManager) IsObstacle(row, col int) bool {
	return gm.obstacles[gm.index(row, col)]
}

// IsOccupied reports whether an organism stands on the tile.
func (gm *GridManager) IsOccupied(row, col int) bool {
	return gm.grid[gm.index(row, col)] != noEntity
}

// IsFree reports whether the tile can receive an organism.
func (gm *GridManager) IsFree(row, col int) bool {
	i := gm.index(row, col)
	return !gm.obstacles[i] && gm.grid[i] == noEntity
}

// EntityAt returns the occupant of a tile, if any.
func (gm *GridManager) EntityAt(row, col int) (ecs.Entity, bool) {
	e := gm.grid[gm.index(row, col)]
	return e, e != noEntity
}

// Place installs an entity on a free tile and stamps its Position component.
// Placing onto an obstacle or occupied tile panics: callers are required to
// pick the tile through IsFree or the spawn-candidate path first.
func (gm *GridManager) Place(e ecs.Entity, row, col int) {
	i := gm.index(row, col)
	if gm.obstacles[i] {
		panic(fmt.Sprintf("sim: placing organism on obstacle tile (%d,%d)", row, col))
	}
	if gm.grid[i] != noEntity {
		panic(fmt.Sprintf("sim: placing organism on occupied tile (%d,%d)", row, col))
	}
	gm.grid[i] = e
	gm.occupied++
	pos := gm.posMap.Get(e)
	pos.Row, pos.Col = row, col
}

// Detach frees the entity's tile and returns it. The Position component is
// left untouched; the caller removes the entity or re-places it. A slot that
// does not hold the expected entity is a desync and panics.
func (gm *GridManager) Detach(e ecs.Entity) (row, col int) {
	pos := gm.posMap.Get(e)
	i := gm.index(pos.Row, pos.Col)
	if gm.grid[i] != e {
		panic(fmt.Sprintf("sim: occupancy desync at (%d,%d)", pos.Row, pos.Col))
	}
	gm.grid[i] = noEntity
	gm.occupied--
	return pos.Row, pos.Col
}

// TryMove attempts a single-step move of the entity by (dRow,dCol). Only the
// eight neighboring offsets are legal; anything farther is rejected outright
// so no code path can teleport an organism. Returns false, with no state
// touched, when the destination is out of bounds, blocked or occupied.
func (gm *GridManager) TryMove(e ecs.Entity, dRow, dCol int) bool {
	if dRow < -1 || dRow > 1 || dCol < -1 || dCol > 1 || (dRow == 0 && dCol == 0) {
		return false
	}
	pos := gm.posMap.Get(e)
	return gm.Relocate(e, pos.Row+dRow, pos.Col+dCol)
}

// Relocate moves the entity to an adjacent free tile, updating the occupancy
// slots and Position together. It fails closed: either both update or
// neither does. Non-adjacent destinations are rejected.
func (gm *GridManager) Relocate(e ecs.Entity, toRow, toCol int) bool {
	pos := gm.posMap.Get(e)
	dRow, dCol := toRow-pos.Row, toCol-pos.Col
	if dRow < -1 || dRow > 1 || dCol < -1 || dCol > 1 || (dRow == 0 && dCol == 0) {
		return false
	}
	if !gm.InBounds(toRow, toCol) {
		return false
	}
	to := gm.index(toRow, toCol)
	if gm.obstacles[to] || gm.grid[to] != noEntity {
		return false
	}
	from := gm.index(pos.Row, pos.Col)
	if gm.grid[from] != e {
		panic(fmt.Sprintf("sim: occupancy desync at (%d,%d)", pos.Row, pos.Col))
	}
	gm.grid[from] = noEntity
	gm.grid[to] = e
	pos.Row, pos.Col = toRow, toCol
	return true
}

// SetObstacle changes a tile's terrain. Raising an obstacle under an
// organism requires evict: the occupant is pushed to the first free adjacent
// tile in scan order. When no free neighbor exists (or evict is false with
// an occupant present) the displaced entity is returned for the caller to
// resolve, and the terrain change still applies only in the evict case.
func (gm *GridManager) SetObstacle(row, col int, blocked, evict bool) (displaced ecs.Entity, ok bool) {
	i := gm.index(row, col)
	occupant := gm.grid[i]
	if blocked && occupant != noEntity {
		if !evict {
			return occupant, false
		}
		gm.Detach(occupant)
		gm.obstacles[i] = true
		for dRow := -1; dRow <= 1; dRow++ {
			for dCol := -1; dCol <= 1; dCol++ {
				if dRow == 0 && dCol == 0 {
					continue
				}
				r, c := row+dRow, col+dCol
				if gm.InBounds(r, c) && gm.IsFree(r, c) {
					gm.Place(occupant, r, c)
					return noEntity, true
				}
			}
		}
		return occupant, true // nowhere to go; caller decides its fate
	}
	gm.obstacles[i] = blocked
	return noEntity, true
}

// SpawnCandidates collects the free tiles adjacent to (row,col) in scan
// order. The order is part of the engine's determinism contract.
func (gm *GridManager) SpawnCandidates(row, col int) []zones.Point {
	var out []zones.Point
	for dRow := -1; dRow <= 1; dRow++ {
		for dCol := -1; dCol <= 1; dCol++ {
			if dRow == 0 && dCol == 0 {
				continue
			}
			r, c := row+dRow, col+dCol
			if gm.InBounds(r, c) && gm.IsFree(r, c) {
				out = append(out, zones.Point{Row: r, Col: c})
			}
		}
	}
	return out
}

// ComputeDensityGrid returns per-tile crowding in [0,1]: the occupied
// fraction of the square window of the given radius around each tile.
// Obstacle tiles read zero.
func (gm *GridManager) ComputeDensityGrid(radius int) []float64 {
	if radius < 1 {
		radius = 1
	}
	density := make([]float64, gm.rows*gm.cols)
	for row := 0; row < gm.rows; row++ {
		for col := 0; col < gm.cols; col++ {
			i := row*gm.cols + col
			if gm.obstacles[i] {
				continue
			}
			count, area := 0, 0
			for r := row - radius; r <= row+radius; r++ {
				for c := col - radius; c <= col+radius; c++ {
					if !gm.InBounds(r, c) {
						continue
					}
					area++
					if gm.grid[r*gm.cols+c] != noEntity {
						count++
					}
				}
			}
			if area > 0 {
				density[i] = float64(count) / float64(area)
			}
		}
	}
	return density
}

// Obstacles returns a copy of the obstacle grid.
func (gm *GridManager) Obstacles() []bool {
	out := make([]bool, len(gm.obstacles))
	copy(out, gm.obstacles)
	return out
}

// CheckInvariants walks every occupied slot and verifies it agrees with the
// occupant's Position component. It exists for tests and debug assertions.
func (gm *GridManager) CheckInvariants() {
	seen := 0
	for row := 0; row < gm.rows; row++ {
		for col := 0; col < gm.cols; col++ {
			e := gm.grid[row*gm.cols+col]
			if e == noEntity {
				continue
			}
			seen++
			if gm.obstacles[row*gm.cols+col] {
				panic(fmt.Sprintf("sim: organism standing on obstacle (%d,%d)", row, col))
			}
			pos := gm.posMap.Get(e)
			if pos.Row != row || pos.Col != col {
				panic(fmt.Sprintf("sim: occupancy desync: slot (%d,%d) holds organism at (%d,%d)", row, col, pos.Row, pos.Col))
			}
		}
	}
	if seen != gm.occupied {
		panic(fmt.Sprintf("sim: occupancy count desync: counted %d, tracked %d", seen, gm.occupied))
	}
}
