package neural

import "math"

// Feedback carries one tick's closed-loop learning signal.
type Feedback struct {
	SensorVector    []float64 // raw (pre-gain) sensor values observed this tick
	ActivationCount int
	EnergyCost      float64
	FatigueDelta    float64
	RewardSignal    float64 // sign carries meaning; magnitude scales the nudge
	MaxTileEnergy   float64 // normalizes EnergyCost
}

// ApplySensorFeedback nudges each sensor's experience target toward the
// observed value scaled by reward sign. The gain change is apportioned per
// sensor by how closely its reading matches the learned target: under
// positive reward, sensors reading near the values that historically
// accompanied good outcomes gain the most attention; under negative reward,
// sensors matching their profile while the outcome went bad lose the most.
// Gains always land inside [GainMin, GainMax].
func (b *Brain) ApplySensorFeedback(fb Feedback) {
	if len(fb.SensorVector) < NumSensors {
		panic("neural: feedback sensor vector shorter than NumSensors")
	}

	reward := fb.RewardSignal
	if math.IsNaN(reward) {
		reward = 0
	}
	mag := math.Abs(reward)
	if mag > 1 {
		mag = 1
	}

	// Expensive ticks damp gain growth: a costly or tiring decision should
	// not also amplify its own inputs.
	damp := 1.0
	if fb.MaxTileEnergy > 0 && fb.EnergyCost > 0 {
		damp /= 1 + fb.EnergyCost/fb.MaxTileEnergy
	}
	if fb.FatigueDelta > 0 {
		damp /= 1 + fb.FatigueDelta
	}

	for i := 0; i < NumSensors; i++ {
		obs := fb.SensorVector[i]
		if math.IsNaN(obs) {
			continue
		}

		// Agreement between the reading and the learned target decides this
		// sensor's share of the gain change.
		match := 1 - math.Abs(obs-b.targets[i])
		if match < 0 {
			match = 0
		}

		if reward >= 0 {
			b.targets[i] += b.params.Assimilation * mag * (obs - b.targets[i])
			b.gains[i] += b.params.GainLearnRate * mag * damp * match
		} else {
			b.targets[i] -= b.params.Assimilation * mag * (obs - b.targets[i])
			b.gains[i] -= b.params.GainLearnRate * mag * match
		}
		b.gains[i] = b.clampGain(b.gains[i])
	}
}

// ImprintAdjustment nudges a single sensor's learned state. Sensor may be
// addressed by index or, when Name is non-empty, by symbolic name. Nil
// Assimilation/GainInfluence fall back to the call-level values.
type ImprintAdjustment struct {
	Sensor int
	Name   string

	Target float64
	Gain   float64

	Assimilation  *float64
	GainInfluence *float64
}

// Imprint batch-applies scripted lessons to the adaptive state.
type Imprint struct {
	Adjustments   []ImprintAdjustment
	Assimilation  float64 // default target blend weight
	GainInfluence float64 // default gain blend weight
}

// ApplyExperienceImprint blends each adjustment's target and gain into the
// brain's state. Unknown sensor names are skipped; out-of-range indices are
// programming errors and panic.
func (b *Brain) ApplyExperienceImprint(imp Imprint) {
	for _, adj := range imp.Adjustments {
		idx := adj.Sensor
		if adj.Name != "" {
			i, ok := SensorIndex(adj.Name)
			if !ok {
				continue
			}
			idx = i
		}
		if idx < 0 || idx >= NumSensors {
			panic("neural: imprint sensor index out of range")
		}

		assim := imp.Assimilation
		if adj.Assimilation != nil {
			assim = *adj.Assimilation
		}
		gainW := imp.GainInfluence
		if adj.GainInfluence != nil {
			gainW = *adj.GainInfluence
		}
		assim = clamp01(assim)
		gainW = clamp01(gainW)

		b.targets[idx] += assim * (adj.Target - b.targets[idx])
		b.gains[idx] = b.clampGain(b.gains[idx] + gainW*(adj.Gain-b.gains[idx]))
	}
}

func (b *Brain) clampGain(g float64) float64 {
	if math.IsNaN(g) {
		return b.params.BaselineGain
	}
	if g < b.params.GainMin {
		return b.params.GainMin
	}
	if g > b.params.GainMax {
		return b.params.GainMax
	}
	return g
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
