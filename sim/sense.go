package sim

import (
	"github.com/pthm-cable/microcosm/components"
	"github.com/pthm-cable/microcosm/neural"
)

// senseVector assembles the organism's raw sensor reading for this tick.
// Every channel lands in [0,1] except the energy gradients, which are signed.
func (e *Engine) senseVector(pos *components.Position, vit *components.Vitals, pheno *components.Phenotype, targets Targets) []float64 {
	maxTile := e.cfg.Energy.MaxTileEnergy
	sensors := make([]float64, neural.NumSensors)

	sensors[neural.SensorEnergy] = clamp01(vit.Energy / maxTile)
	if vit.Lifespan > 0 {
		sensors[neural.SensorAge] = clamp01(float64(vit.Age) / float64(vit.Lifespan))
	}
	// The tile underfoot was stripped on arrival, so the tile-energy channel
	// reports the richest harvestable neighbor instead.
	best := 0.0
	for _, off := range moveOffsets[:4] {
		r, c := pos.Row+off.dRow, pos.Col+off.dCol
		if e.grid.InBounds(r, c) && e.grid.IsFree(r, c) {
			if v := e.energy.At(r, c); v > best {
				best = v
			}
		}
	}
	sensors[neural.SensorTileEnergy] = clamp01(best / maxTile)
	sensors[neural.SensorDensity] = clamp01(e.density[pos.Row*e.grid.Cols()+pos.Col])
	sensors[neural.SensorAllies] = crowdFraction(len(targets.Allies))
	sensors[neural.SensorEnemies] = crowdFraction(len(targets.Enemies))
	sensors[neural.SensorMates] = crowdFraction(len(targets.Mates))
	sensors[neural.SensorEventPressure] = e.eventPressure(pos.Row, pos.Col)
	sensors[neural.SensorRiskMemory] = pheno.RiskMemory
	sensors[neural.SensorGradRow], sensors[neural.SensorGradCol] = e.energyGradient(pos.Row, pos.Col)
	sensors[neural.SensorBias] = 1
	return sensors
}

// eventPressure sums active event strengths covering the tile, capped at 1.
func (e *Engine) eventPressure(row, col int) float64 {
	pressure := 0.0
	for _, ev := range e.events.Active() {
		if ev.Covers(row, col) {
			pressure += ev.Strength
		}
	}
	return clamp01(pressure)
}

// energyGradient reads the local energy slope as two signed channels in
// [-1,1]: positive row gradient means more energy to the south, positive
// col gradient more to the east. Off-grid and obstacle tiles read zero.
func (e *Engine) energyGradient(row, col int) (gradRow, gradCol float64) {
	at := func(r, c int) float64 {
		if !e.grid.InBounds(r, c) || e.grid.IsObstacle(r, c) {
			return 0
		}
		return e.energy.At(r, c)
	}
	maxTile := e.cfg.Energy.MaxTileEnergy
	gradRow = (at(row+1, col) - at(row-1, col)) / maxTile
	gradCol = (at(row, col+1) - at(row, col-1)) / maxTile
	return clampSigned(gradRow), clampSigned(gradCol)
}

// crowdFraction normalizes a neighbor count against the 8-tile ring.
func crowdFraction(n int) float64 {
	return clamp01(float64(n) / 8)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampSigned(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
