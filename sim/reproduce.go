package sim

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/microcosm/components"
	"github.com/pthm-cable/microcosm/genome"
	"github.com/pthm-cable/microcosm/neural"
	"github.com/pthm-cable/microcosm/zones"
)

// handleReproduction runs one breeding attempt: mate selection, the
// reproduction decision, zone validation and finally the spawn. It reports
// whether an offspring was placed. Failures past the decision point are
// reported to the stats sink with the reason; an organism below the energy
// threshold or with no mate in sight simply is not trying yet and records
// nothing.
func (e *Engine) handleReproduction(entity ecs.Entity, pos *components.Position, vit *components.Vitals, pheno *components.Phenotype, lin *components.Lineage, brain *neural.Brain, sensors []float64, targets Targets) bool {
	if vit.Energy < e.cfg.Organism.ReproductionThresholdFrac*e.cfg.Energy.MaxTileEnergy {
		return false
	}
	if len(targets.Mates) == 0 {
		return false
	}

	mate := e.chooseMate(pheno, targets.Mates)
	if !e.world.Alive(mate.Entity) {
		return false
	}

	p := e.decideReproduction(brain, sensors, vit)
	if e.rng.Float64() >= p {
		e.stats.RecordReproductionBlocked(ReproductionBlocked{
			Reason: BlockedProbability, Row: pos.Row, Col: pos.Col,
		})
		return false
	}

	candidates := e.grid.SpawnCandidates(pos.Row, pos.Col)
	if len(candidates) == 0 {
		e.stats.RecordReproductionBlocked(ReproductionBlocked{
			Reason: BlockedNoRoom, Row: pos.Row, Col: pos.Col,
		})
		return false
	}
	// First candidate in scan order after zone filtering; the filter never
	// empties a non-empty list.
	spawn := e.policy.FilterSpawnCandidates(candidates)[0]

	matePos := e.posMap.Get(mate.Entity)
	validation := e.policy.ValidateArea(zones.AreaRequest{
		ParentA: zones.Point{Row: pos.Row, Col: pos.Col},
		ParentB: zones.Point{Row: matePos.Row, Col: matePos.Col},
		Spawn:   spawn,
	})
	if !validation.Allowed {
		e.stats.RecordReproductionBlocked(ReproductionBlocked{
			Reason: validation.Reason, Role: validation.Role,
			Row: pos.Row, Col: pos.Col,
		})
		return false
	}

	mateGenome := e.genomes[mate.ID]
	child := genome.Crossover(e.genomes[lin.ID], mateGenome, e.rng).
		Mutate(e.cfg.Genome.MutationRate, e.rng)

	endowment := vit.Energy * e.cfg.Organism.BreedEnergySplit
	vit.Energy -= endowment

	e.spawnOrganism(child, spawn.Row, spawn.Col,
		lin.Generation+1, lin.ID, mate.ID, endowment)

	e.stats.OnBirth()
	e.stats.RecordMateChoice(MateChoice{
		ParentA: lin.ID, ParentB: mate.ID,
		Similarity: mate.Similarity,
		Row:        spawn.Row, Col: spawn.Col,
	})
	return true
}

// chooseMate picks one candidate by weighted draw. The mate-preference locus
// sets the balance: 1 favors the most similar candidate, 0 the most
// divergent. A zero total weight degenerates to the first candidate.
func (e *Engine) chooseMate(pheno *components.Phenotype, mates []Target) Target {
	if len(mates) == 1 {
		return mates[0]
	}
	pref := pheno.MatePreference
	weights := make([]float64, len(mates))
	total := 0.0
	for i, m := range mates {
		weights[i] = pref*m.Similarity + (1-pref)*(1-m.Similarity)
		total += weights[i]
	}
	if total <= 0 {
		return mates[0]
	}
	draw := e.rng.Float64() * total
	for i, w := range weights {
		draw -= w
		if draw < 0 {
			return mates[i]
		}
	}
	return mates[len(mates)-1]
}

// decideReproduction maps the reproduction output onto a probability. An
// unwired reproduction group falls back to the energy fraction itself, so
// well-fed legacy organisms breed readily and starving ones rarely.
func (e *Engine) decideReproduction(brain *neural.Brain, sensors []float64, vit *components.Vitals) float64 {
	eval := brain.EvaluateGroup(neural.GroupReproduction, sensors, false)
	if eval.ActivationCount == 0 {
		return clamp01(vit.Energy / e.cfg.Energy.MaxTileEnergy)
	}
	return 1 / (1 + math.Exp(-eval.Values[neural.OutReproduce]))
}
