package sim

// Snapshot is a deep copy of the externally observable world state. Two runs
// with the same seed and config produce identical snapshots at every tick.
type Snapshot struct {
	Tick       int64
	Rows, Cols int
	Energy     []float64
	Density    []float64
	Occupancy  []uint32 // organism ids, row-major; 0 marks a free tile
	Obstacles  []bool
	Population int
}

// Snapshot captures the current world state.
func (e *Engine) Snapshot() Snapshot {
	rows, cols := e.grid.Rows(), e.grid.Cols()
	occ := make([]uint32, rows*cols)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if entity, ok := e.grid.EntityAt(row, col); ok {
				_, _, _, lin := e.mapper.Get(entity)
				occ[row*cols+col] = lin.ID
			}
		}
	}
	density := make([]float64, len(e.density))
	copy(density, e.density)
	return Snapshot{
		Tick:       e.tick,
		Rows:       rows,
		Cols:       cols,
		Energy:     e.energy.Snapshot(),
		Density:    density,
		Occupancy:  occ,
		Obstacles:  e.grid.Obstacles(),
		Population: e.grid.Occupied(),
	}
}

// SetObstacle raises or clears terrain at runtime. An organism standing on
// a raised tile is evicted to a free neighbor; with nowhere to go it dies.
// Raised tiles also lose their stored energy immediately.
func (e *Engine) SetObstacle(row, col int, blocked bool) {
	occupant, hadOccupant := e.grid.EntityAt(row, col)
	displaced, _ := e.grid.SetObstacle(row, col, blocked, true)
	switch {
	case displaced != noEntity:
		// Already off the grid; only the entity and lookups remain.
		e.finalizeRemoval(displaced, DeathCrushed)
	case blocked && hadOccupant:
		// The evicted occupant settles its new tile like any other arrival.
		pos, vit, pheno, _ := e.mapper.Get(occupant)
		e.settle(pos.Row, pos.Col, vit, pheno)
	}
	if blocked {
		e.energy.ZeroTile(row, col)
	}
}
