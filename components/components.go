// Package components defines the ECS component types attached to organisms.
package components

import (
	"github.com/pthm-cable/microcosm/genome"
)

// Position is the organism's authoritative tile coordinate. The occupancy
// grid mirrors it; the two are updated together or not at all.
type Position struct {
	Row int
	Col int
}

// Vitals tracks the organism's energy budget and lifecycle state.
type Vitals struct {
	Energy   float64
	Age      int
	Lifespan int // ticks; fixed at birth from the longevity locus
	Alive    bool
}

// Lineage identifies an organism and its ancestry. ID 0 is never assigned.
type Lineage struct {
	ID         uint32
	Generation int
	ParentA    uint32 // 0 for seeded founders
	ParentB    uint32
}

// Phenotype caches genome-derived decision traits so the tick loop does not
// re-run transfer functions on every read. Values are fixed at birth.
type Phenotype struct {
	Sight          int     // perception radius in tiles
	ForageRate     float64 // fraction of the harvest cap taken per tick
	CrowdTolerance float64
	Exploration    float64
	Cohesion       float64
	Aggression     float64
	AllyThreshold  float64 // similarity at or above which another organism is an ally
	EnemyThreshold float64 // similarity at or below which another organism is an enemy
	MatePreference float64 // 1 favors similar mates, 0 favors diverse ones
	RiskMemory     float64 // composite risk disposition, normalized to [0,1]
}

// DerivePhenotype expresses the decision loci of a genome as a Phenotype.
// sightMax caps the perception radius regardless of the sight locus.
func DerivePhenotype(g *genome.Genome, sightMax int) Phenotype {
	sight := 1 + int(g.Trait(genome.Sight)*float64(sightMax-1)+0.5)
	if sight > sightMax {
		sight = sightMax
	}
	return Phenotype{
		Sight:          sight,
		ForageRate:     g.Trait(genome.Forage),
		CrowdTolerance: g.Trait(genome.Density),
		Exploration:    g.Trait(genome.Exploration),
		Cohesion:       g.Trait(genome.Cohesion),
		Aggression:     g.Trait(genome.Aggression),
		AllyThreshold:  g.Trait(genome.AllyAffinity),
		EnemyThreshold: g.Trait(genome.EnemyAversion),
		MatePreference: g.Trait(genome.MatePreference),
		RiskMemory:     normalizeRisk(g.RiskMemoryProfile()),
	}
}

// normalizeRisk maps the composite risk profile band onto [0,1].
func normalizeRisk(v float64) float64 {
	const lo, hi = 0.55, 1.5
	n := (v - lo) / (hi - lo)
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}
