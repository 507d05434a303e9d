package telemetry

import (
	"github.com/pthm-cable/microcosm/sim"
)

// Collector accumulates lifecycle events within tick windows and produces
// WindowStats. It implements sim.StatsSink.
type Collector struct {
	windowTicks     int64
	windowStartTick int64

	births        int
	deathsStarved int
	deathsOldAge  int
	deathsCombat  int
	deathsOther   int

	mateChoices int
	mateSimSum  float64

	blockedNoRoom int
	blockedZone   int
	blockedChance int
}

// NewCollector creates a collector flushing every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: int64(windowTicks)}
}

// OnBirth records one birth.
func (c *Collector) OnBirth() {
	c.births++
}

// OnDeath records one death by cause.
func (c *Collector) OnDeath(cause string) {
	switch cause {
	case sim.DeathStarved:
		c.deathsStarved++
	case sim.DeathOldAge:
		c.deathsOldAge++
	case sim.DeathCombat:
		c.deathsCombat++
	default:
		c.deathsOther++
	}
}

// RecordMateChoice records one successful pairing.
func (c *Collector) RecordMateChoice(mc sim.MateChoice) {
	c.mateChoices++
	c.mateSimSum += mc.Similarity
}

// RecordReproductionBlocked records one failed breeding attempt.
func (c *Collector) RecordReproductionBlocked(rb sim.ReproductionBlocked) {
	switch {
	case rb.Reason == sim.BlockedNoRoom:
		c.blockedNoRoom++
	case rb.Reason == sim.BlockedProbability:
		c.blockedChance++
	default:
		// Everything else comes out of zone validation with a role attached.
		c.blockedZone++
	}
}

// ShouldFlush reports whether the current window is complete.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces the window's stats and resets the counters. The caller
// supplies the world-level samples the collector does not see as events.
func (c *Collector) Flush(currentTick int64, population int, energies, ages []float64, fieldMean float64, activeEvents int) WindowStats {
	mean, stddev, p10, p50, p90 := distribution(energies)
	ageMean, _, _, ageP50, _ := distribution(ages)
	mateSimMean := 0.0
	if c.mateChoices > 0 {
		mateSimMean = c.mateSimSum / float64(c.mateChoices)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		Population:      population,
		Births:          c.births,
		DeathsStarved:   c.deathsStarved,
		DeathsOldAge:    c.deathsOldAge,
		DeathsCombat:    c.deathsCombat,
		DeathsOther:     c.deathsOther,
		MateChoices:     c.mateChoices,
		MateSimMean:     mateSimMean,
		BlockedNoRoom:   c.blockedNoRoom,
		BlockedZone:     c.blockedZone,
		BlockedChance:   c.blockedChance,
		EnergyMean:      mean,
		EnergyStdDev:    stddev,
		EnergyP10:       p10,
		EnergyP50:       p50,
		EnergyP90:       p90,
		AgeMean:         ageMean,
		AgeP50:          ageP50,
		FieldMean:       fieldMean,
		ActiveEvents:    activeEvents,
	}

	c.windowStartTick = currentTick
	c.births = 0
	c.deathsStarved = 0
	c.deathsOldAge = 0
	c.deathsCombat = 0
	c.deathsOther = 0
	c.mateChoices = 0
	c.mateSimSum = 0
	c.blockedNoRoom = 0
	c.blockedZone = 0
	c.blockedChance = 0

	return stats
}
