package sim

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/microcosm/components"
	"github.com/pthm-cable/microcosm/neural"
)

// moveOffsets maps movement outputs onto tile deltas, in decision order.
var moveOffsets = []struct {
	out  uint8
	dRow int
	dCol int
}{
	{neural.OutMoveNorth, -1, 0},
	{neural.OutMoveEast, 0, 1},
	{neural.OutMoveSouth, 1, 0},
	{neural.OutMoveWest, 0, -1},
	{neural.OutMoveHold, 0, 0},
}

// tryStep is TryMove plus arrival settlement: a successful step strips the
// destination tile into the mover's reserve. Returns the harvested amount
// and whether the step happened.
func (e *Engine) tryStep(entity ecs.Entity, dRow, dCol int) (float64, bool) {
	if !e.grid.TryMove(entity, dRow, dCol) {
		return 0, false
	}
	pos, vit, pheno, _ := e.mapper.Get(entity)
	return e.settle(pos.Row, pos.Col, vit, pheno), true
}

// handleMovement picks a direction from the movement output group, or from
// the legacy energy-following rule when the genome wired no movement
// outputs. A blocked destination wastes the turn; there is no second pick.
// Returns the energy harvested on arrival.
func (e *Engine) handleMovement(entity ecs.Entity, pos *components.Position, brain *neural.Brain, sensors []float64) float64 {
	eval := brain.EvaluateGroup(neural.GroupMovement, sensors, false)
	if eval.ActivationCount == 0 {
		return e.legacyMove(entity, pos)
	}

	best := moveOffsets[len(moveOffsets)-1] // hold
	bestVal := eval.Values[neural.OutMoveHold]
	for _, off := range moveOffsets[:len(moveOffsets)-1] {
		if v := eval.Values[off.out]; v > bestVal {
			best, bestVal = off, v
		}
	}
	if best.dRow == 0 && best.dCol == 0 {
		return 0
	}
	harvested, _ := e.tryStep(entity, best.dRow, best.dCol)
	return harvested
}

// legacyMove follows the energy gradient: step to the richest free cardinal
// neighbor, but only when it beats the current tile. Ties resolve in
// north-east-south-west order.
func (e *Engine) legacyMove(entity ecs.Entity, pos *components.Position) float64 {
	here := e.energy.At(pos.Row, pos.Col)
	bestVal := here
	bestRow, bestCol := 0, 0
	for _, off := range moveOffsets[:4] {
		r, c := pos.Row+off.dRow, pos.Col+off.dCol
		if !e.grid.InBounds(r, c) || !e.grid.IsFree(r, c) {
			continue
		}
		if v := e.energy.At(r, c); v > bestVal {
			bestVal = v
			bestRow, bestCol = off.dRow, off.dCol
		}
	}
	if bestRow == 0 && bestCol == 0 {
		return 0
	}
	harvested, _ := e.tryStep(entity, bestRow, bestCol)
	return harvested
}

// handleInteraction resolves the social turn when allies or enemies are in
// sight: fight, avoid or cooperate, chosen by the interaction output group
// or by the legacy aggression rule for unwired brains. Returns the energy
// harvested by any step taken and whether the turn was spent (an attack, a
// flight step or an energy share), in which case normal movement is skipped.
func (e *Engine) handleInteraction(entity ecs.Entity, pos *components.Position, vit *components.Vitals, pheno *components.Phenotype, brain *neural.Brain, sensors []float64, targets Targets) (float64, bool) {
	action := e.chooseInteraction(brain, sensors, pheno, targets)
	switch action {
	case neural.OutFight:
		return e.actFight(entity, pos, vit, targets)
	case neural.OutAvoid:
		return e.actAvoid(entity, pos, targets)
	default:
		return 0, e.actCooperate(pos, vit, targets)
	}
}

// chooseInteraction picks fight, avoid or cooperate. Legacy organisms fight
// when aggressive enough and an enemy is visible, flee when outnumbered,
// and cooperate otherwise.
func (e *Engine) chooseInteraction(brain *neural.Brain, sensors []float64, pheno *components.Phenotype, targets Targets) uint8 {
	eval := brain.EvaluateGroup(neural.GroupInteraction, sensors, false)
	if eval.ActivationCount == 0 {
		switch {
		case len(targets.Enemies) > 0 && pheno.Aggression > 0.6:
			return neural.OutFight
		case len(targets.Enemies) > len(targets.Allies):
			return neural.OutAvoid
		default:
			return neural.OutCooperate
		}
	}
	best := neural.OutFight
	bestVal := eval.Values[neural.OutFight]
	for _, out := range []uint8{neural.OutAvoid, neural.OutCooperate} {
		if v := eval.Values[out]; v > bestVal {
			best, bestVal = out, v
		}
	}
	return best
}

// actFight attacks the first visible enemy: adjacent enemies lose a fraction
// of their energy to the attacker, distant ones are closed in on. A victim
// drained to zero dies on the spot.
func (e *Engine) actFight(entity ecs.Entity, pos *components.Position, vit *components.Vitals, targets Targets) (float64, bool) {
	if len(targets.Enemies) == 0 {
		return 0, false
	}
	enemy := targets.Enemies[0]
	if !e.world.Alive(enemy.Entity) {
		return 0, false
	}
	victimPos := e.posMap.Get(enemy.Entity)
	if adjacent(pos.Row, pos.Col, victimPos.Row, victimPos.Col) {
		_, victim, _, _ := e.mapper.Get(enemy.Entity)
		taken := victim.Energy * e.cfg.Organism.FightTransferFrac
		victim.Energy -= taken
		vit.Energy += taken
		if vit.Energy > e.cfg.Energy.MaxTileEnergy {
			vit.Energy = e.cfg.Energy.MaxTileEnergy
		}
		if victim.Energy <= 0 {
			e.removeOrganism(enemy.Entity, DeathCombat)
		}
		return 0, true
	}
	return e.stepToward(entity, pos, victimPos.Row, victimPos.Col)
}

// actAvoid steps directly away from the first visible enemy, falling back
// to the single-axis variants when the diagonal is blocked.
func (e *Engine) actAvoid(entity ecs.Entity, pos *components.Position, targets Targets) (float64, bool) {
	if len(targets.Enemies) == 0 {
		return 0, false
	}
	enemy := targets.Enemies[0]
	dRow := -sign(enemy.Row - pos.Row)
	dCol := -sign(enemy.Col - pos.Col)
	for _, try := range [][2]int{{dRow, dCol}, {dRow, 0}, {0, dCol}} {
		if try[0] == 0 && try[1] == 0 {
			continue
		}
		if harvested, ok := e.tryStep(entity, try[0], try[1]); ok {
			return harvested, true
		}
	}
	return 0, false
}

// actCooperate shares surplus energy with the neediest adjacent ally. Only
// energy above half the energy cap counts as surplus; organisms below that
// line keep what they have.
func (e *Engine) actCooperate(pos *components.Position, vit *components.Vitals, targets Targets) bool {
	surplusLine := e.cfg.Energy.MaxTileEnergy * 0.5
	if vit.Energy <= surplusLine {
		return false
	}
	var needy *components.Vitals
	for _, ally := range targets.Allies {
		if !e.world.Alive(ally.Entity) {
			continue
		}
		allyPos := e.posMap.Get(ally.Entity)
		if !adjacent(pos.Row, pos.Col, allyPos.Row, allyPos.Col) {
			continue
		}
		_, av, _, _ := e.mapper.Get(ally.Entity)
		if needy == nil || av.Energy < needy.Energy {
			needy = av
		}
	}
	if needy == nil {
		return false
	}
	share := (vit.Energy - surplusLine) * e.cfg.Organism.CooperateShareFrac
	vit.Energy -= share
	needy.Energy += share
	if needy.Energy > e.cfg.Energy.MaxTileEnergy {
		needy.Energy = e.cfg.Energy.MaxTileEnergy
	}
	return true
}

// stepToward takes one step closing the gap to the target tile, preferring
// the diagonal, then each axis.
func (e *Engine) stepToward(entity ecs.Entity, pos *components.Position, toRow, toCol int) (float64, bool) {
	dRow := sign(toRow - pos.Row)
	dCol := sign(toCol - pos.Col)
	for _, try := range [][2]int{{dRow, dCol}, {dRow, 0}, {0, dCol}} {
		if try[0] == 0 && try[1] == 0 {
			continue
		}
		if harvested, ok := e.tryStep(entity, try[0], try[1]); ok {
			return harvested, true
		}
	}
	return 0, false
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
