// Package neural builds per-organism controllers from genome connection
// genes and evaluates them against named sensor vectors.
//
// Neuron id space (uint8, shared with the genome encoding):
//
//	0..11    sensors
//	200..204 movement outputs (north, east, south, west, hold)
//	210      reproduction output
//	220..222 interaction outputs (fight, avoid, cooperate)
//	others   hidden neurons
package neural

// Sensor indices. The bias sensor always reads 1 so constant drives survive
// gain adaptation.
const (
	SensorEnergy = iota
	SensorAge
	SensorTileEnergy
	SensorDensity
	SensorAllies
	SensorEnemies
	SensorMates
	SensorEventPressure
	SensorRiskMemory
	SensorGradRow
	SensorGradCol
	SensorBias

	NumSensors
)

// sensorNames maps symbolic names onto indices for imprint adjustments.
var sensorNames = map[string]int{
	"energy":         SensorEnergy,
	"age":            SensorAge,
	"tile_energy":    SensorTileEnergy,
	"density":        SensorDensity,
	"allies":         SensorAllies,
	"enemies":        SensorEnemies,
	"mates":          SensorMates,
	"event_pressure": SensorEventPressure,
	"risk_memory":    SensorRiskMemory,
	"grad_row":       SensorGradRow,
	"grad_col":       SensorGradCol,
	"bias":           SensorBias,
}

// SensorIndex resolves a symbolic sensor name. The second return is false
// for unknown names.
func SensorIndex(name string) (int, bool) {
	i, ok := sensorNames[name]
	return i, ok
}

// Output node ids per group. Order within a group is the decision order used
// for deterministic tie-breaks.
const (
	OutMoveNorth uint8 = 200
	OutMoveEast  uint8 = 201
	OutMoveSouth uint8 = 202
	OutMoveWest  uint8 = 203
	OutMoveHold  uint8 = 204

	OutReproduce uint8 = 210

	OutFight     uint8 = 220
	OutAvoid     uint8 = 221
	OutCooperate uint8 = 222
)

// Group names accepted by EvaluateGroup.
const (
	GroupMovement     = "movement"
	GroupReproduction = "reproduction"
	GroupInteraction  = "interaction"
)

// outputGroups is the declared output catalog. Pruning keeps exactly the
// neurons on a backward path from these ids.
var outputGroups = map[string][]uint8{
	GroupMovement:     {OutMoveNorth, OutMoveEast, OutMoveSouth, OutMoveWest, OutMoveHold},
	GroupReproduction: {OutReproduce},
	GroupInteraction:  {OutFight, OutAvoid, OutCooperate},
}

// groupOrder fixes iteration order over groups wherever it matters.
var groupOrder = []string{GroupMovement, GroupReproduction, GroupInteraction}

// OutputGroup returns the output ids for a group, or nil for unknown names.
func OutputGroup(name string) []uint8 {
	return outputGroups[name]
}

// isSensor reports whether id addresses the sensor range.
func isSensor(id uint8) bool {
	return int(id) < NumSensors
}
