package sim

// MateChoice records one successful pairing for telemetry.
type MateChoice struct {
	ParentA    uint32
	ParentB    uint32
	Similarity float64
	Row, Col   int // spawn tile
}

// ReproductionBlocked records one failed breeding attempt and why.
type ReproductionBlocked struct {
	Success bool // always false; kept so sinks can log the record verbatim
	Reason  string
	Role    string // zone role when the rejection came from zone validation
	Row     int
	Col     int
}

// Death causes reported to the sink.
const (
	DeathStarved = "starved"
	DeathOldAge  = "old_age"
	DeathCombat  = "combat"
	DeathCrushed = "crushed" // evicted by an obstacle with nowhere to go
)

// Blocked reasons outside zone validation.
const (
	BlockedNoRoom      = "no adjacent spawn tile"
	BlockedProbability = "reproduction probability check failed"
)

// StatsSink receives lifecycle notifications from the engine. Implementations
// must not panic; the engine does not guard these calls.
type StatsSink interface {
	OnBirth()
	OnDeath(cause string)
	RecordMateChoice(mc MateChoice)
	RecordReproductionBlocked(rb ReproductionBlocked)
}

// NopStats discards everything. Used when telemetry is disabled and in tests
// that do not assert on stats.
type NopStats struct{}

func (NopStats) OnBirth()                                   {}
func (NopStats) OnDeath(string)                             {}
func (NopStats) RecordMateChoice(MateChoice)                {}
func (NopStats) RecordReproductionBlocked(ReproductionBlocked) {}
