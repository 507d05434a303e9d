package sim

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/microcosm/components"
	"github.com/pthm-cable/microcosm/genome"
)

// Target is one perceived organism inside the sight window.
type Target struct {
	Entity     ecs.Entity
	ID         uint32
	Row, Col   int
	Similarity float64
}

// Targets buckets perceived organisms by social classification. Each slice
// is ordered by the scan (row-major over the sight window), which is the
// deterministic tie-break order for every downstream decision.
type Targets struct {
	Allies  []Target
	Enemies []Target
	Mates   []Target
}

// findTargets scans the square sight window around the organism and
// classifies every occupant by genome similarity against the phenotype's
// ally and enemy thresholds. Similarity in between makes a mate candidate.
// Only occupied tiles inside the window are touched; empty terrain costs
// nothing beyond the window walk.
func (e *Engine) findTargets(self ecs.Entity, pos *components.Position, pheno *components.Phenotype, selfID uint32) Targets {
	var t Targets
	selfGenome := e.genomes[selfID]
	sight := pheno.Sight
	for row := pos.Row - sight; row <= pos.Row+sight; row++ {
		for col := pos.Col - sight; col <= pos.Col+sight; col++ {
			if !e.grid.InBounds(row, col) {
				continue
			}
			other, ok := e.grid.EntityAt(row, col)
			if !ok || other == self {
				continue
			}
			_, _, _, lin := e.mapper.Get(other)
			otherGenome := e.genomes[lin.ID]
			if otherGenome == nil {
				continue
			}
			sim := genome.Similarity(selfGenome, otherGenome)
			target := Target{Entity: other, ID: lin.ID, Row: row, Col: col, Similarity: sim}
			switch {
			case sim >= pheno.AllyThreshold:
				t.Allies = append(t.Allies, target)
			case sim <= pheno.EnemyThreshold:
				t.Enemies = append(t.Enemies, target)
			default:
				t.Mates = append(t.Mates, target)
			}
		}
	}
	return t
}

// adjacent reports whether two tiles touch (8-connected).
func adjacent(aRow, aCol, bRow, bCol int) bool {
	dRow, dCol := aRow-bRow, aCol-bCol
	if dRow < 0 {
		dRow = -dRow
	}
	if dCol < 0 {
		dCol = -dCol
	}
	return dRow <= 1 && dCol <= 1 && (dRow+dCol) > 0
}
