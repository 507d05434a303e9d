// Package genome implements the fixed-length byte encoding of heritable
// traits and neural wiring. The leading region holds one byte per trait
// locus; the trailing region packs 4-byte connection genes consumed by the
// neural package.
package genome

import (
	"fmt"
	"math"
	"math/rand"
)

// TraitBytes is the length of the trait region. Bytes past this index belong
// to the packed connection-gene tail.
const TraitBytes = 64

// Trait identifies a phenotype locus.
type Trait uint8

const (
	Density Trait = iota // crowding tolerance
	Exploration
	Recovery
	Risk
	Neural // connection-gene expression bias
	Cohesion
	Sight
	Forage
	Longevity
	AllyAffinity
	EnemyAversion
	MatePreference
	Aggression
	FloodResist
	DroughtResist
	HeatResist
	ColdResist

	traitCount
)

// transferKind selects how a raw byte maps to a bounded real value.
type transferKind uint8

const (
	transferLinear transferKind = iota
	transferSigmoid
)

// locus maps a trait to its byte index and transfer function.
type locus struct {
	index    int
	kind     transferKind
	min, max float64
}

// loci is the fixed gene-locus table. Indices are spread across the trait
// region so adjacent loci do not share mutation hot spots.
var loci = [traitCount]locus{
	Density:        {index: 0, kind: transferSigmoid, min: 0, max: 1},
	Exploration:    {index: 3, kind: transferLinear, min: 0, max: 1},
	Recovery:       {index: 6, kind: transferLinear, min: 0, max: 1},
	Risk:           {index: 9, kind: transferSigmoid, min: 0, max: 1},
	Neural:         {index: 12, kind: transferLinear, min: 0, max: 1},
	Cohesion:       {index: 15, kind: transferSigmoid, min: 0, max: 1},
	Sight:          {index: 18, kind: transferLinear, min: 0, max: 1},
	Forage:         {index: 21, kind: transferLinear, min: 0.2, max: 1},
	Longevity:      {index: 24, kind: transferLinear, min: 0, max: 1},
	AllyAffinity:   {index: 27, kind: transferLinear, min: 0.5, max: 0.95},
	EnemyAversion:  {index: 30, kind: transferLinear, min: 0.05, max: 0.5},
	MatePreference: {index: 33, kind: transferSigmoid, min: 0, max: 1},
	Aggression:     {index: 36, kind: transferSigmoid, min: 0, max: 1},
	FloodResist:    {index: 40, kind: transferLinear, min: 0, max: 1},
	DroughtResist:  {index: 43, kind: transferLinear, min: 0, max: 1},
	HeatResist:     {index: 46, kind: transferLinear, min: 0, max: 1},
	ColdResist:     {index: 49, kind: transferLinear, min: 0, max: 1},
}

// names for logging and badge rendering by external collaborators.
var traitNames = [traitCount]string{
	"density", "exploration", "recovery", "risk", "neural", "cohesion",
	"sight", "forage", "longevity", "ally_affinity", "enemy_aversion",
	"mate_preference", "aggression", "flood_resist", "drought_resist",
	"heat_resist", "cold_resist",
}

// String returns the trait's symbolic name.
func (t Trait) String() string {
	if int(t) >= len(traitNames) {
		return fmt.Sprintf("trait(%d)", int(t))
	}
	return traitNames[t]
}

// Genome is an immutable fixed-length byte sequence. All derived values are
// pure functions of the bytes; mutation returns a new Genome.
type Genome struct {
	data []byte
}

// New creates a random genome of the given total length. The length is
// rounded down so the tail holds whole 4-byte connection genes; lengths
// below TraitBytes+GeneBytes panic since no valid controller can be encoded.
func New(length int, rng *rand.Rand) *Genome {
	length = normalizeLength(length)
	data := make([]byte, length)
	for i := range data {
		data[i] = byte(rng.Intn(256))
	}
	return &Genome{data: data}
}

// FromBytes copies raw bytes into a genome. Used by breeding and by tests
// that need exact byte control.
func FromBytes(data []byte) *Genome {
	n := normalizeLength(len(data))
	g := &Genome{data: make([]byte, n)}
	copy(g.data, data[:n])
	return g
}

func normalizeLength(length int) int {
	if length < TraitBytes+GeneBytes {
		panic(fmt.Sprintf("genome: length %d cannot hold a trait region and one connection gene", length))
	}
	tail := (length - TraitBytes) / GeneBytes * GeneBytes
	return TraitBytes + tail
}

// Len returns the genome length in bytes. Constant for a given configuration.
func (g *Genome) Len() int { return len(g.data) }

// Bytes returns a copy of the raw genome bytes.
func (g *Genome) Bytes() []byte {
	out := make([]byte, len(g.data))
	copy(out, g.data)
	return out
}

// GeneCount returns the number of connection genes encoded in the tail.
func (g *Genome) GeneCount() int {
	return (len(g.data) - TraitBytes) / GeneBytes
}

// Trait returns the bounded real value at the given locus. Out-of-range
// trait ids are a programming error: the locus table is fixed at build time,
// so this panics rather than returning a sentinel.
func (g *Genome) Trait(t Trait) float64 {
	if int(t) >= int(traitCount) {
		panic(fmt.Sprintf("genome: unknown trait locus %d", int(t)))
	}
	l := loci[t]
	raw := float64(g.data[l.index]) / 255.0
	var v float64
	switch l.kind {
	case transferSigmoid:
		// Centered logistic: byte 128 maps near the middle of the band.
		v = 1 / (1 + math.Exp(-8*(raw-0.5)))
	default:
		v = raw
	}
	return l.min + v*(l.max-l.min)
}

// ConnectionGenes decodes the packed tail. Disabled genes are included;
// the neural construction pass filters them.
func (g *Genome) ConnectionGenes() []ConnectionGene {
	n := g.GeneCount()
	genes := make([]ConnectionGene, n)
	for i := 0; i < n; i++ {
		off := TraitBytes + i*GeneBytes
		genes[i] = UnpackGene(g.data[off : off+GeneBytes])
	}
	return genes
}

// Similarity returns the fraction of matching trait-region bytes between two
// genomes, weighted toward exact matches. Used for ally/enemy classification.
func Similarity(a, b *Genome) float64 {
	n := TraitBytes
	if len(a.data) < n || len(b.data) < n {
		panic("genome: similarity on truncated genome")
	}
	var acc float64
	for i := 0; i < n; i++ {
		d := int(a.data[i]) - int(b.data[i])
		if d < 0 {
			d = -d
		}
		acc += 1 - float64(d)/255.0
	}
	return acc / float64(n)
}

// Composite bounds: callers must never observe a multiplier outside this
// band for any input combination, including unknown event types.
const (
	compositeMin = 0.55
	compositeMax = 1.5
)

// RiskMemoryProfile blends the risk, recovery and exploration loci into a
// single scalar describing how strongly past danger suppresses foraging.
func (g *Genome) RiskMemoryProfile() float64 {
	v := 0.6 + 0.5*g.Trait(Risk) + 0.3*(1-g.Trait(Recovery)) + 0.2*g.Trait(Exploration)
	return clampComposite(v)
}

// EventEnergyLossMultiplier returns the upkeep multiplier applied while an
// environmental event covers the organism's tile. Unknown event types resolve
// to a neutral resistance and pass through the same clamp: fail-open rather
// than error, matching the zone policy's degradation behavior.
func (g *Genome) EventEnergyLossMultiplier(eventType string, strength float64) float64 {
	if math.IsNaN(strength) || strength < 0 {
		strength = 0
	} else if strength > 1 {
		strength = 1
	}

	resist := 0.5
	switch eventType {
	case "flood":
		resist = g.Trait(FloodResist)
	case "drought":
		resist = g.Trait(DroughtResist)
	case "heatwave":
		resist = g.Trait(HeatResist)
	case "coldwave":
		resist = g.Trait(ColdResist)
	}

	// Resistance above neutral shrinks the loss, below neutral grows it.
	v := 1 + strength*(0.5-resist)
	return clampComposite(v)
}

func clampComposite(v float64) float64 {
	if math.IsNaN(v) {
		return 1
	}
	if v < compositeMin {
		return compositeMin
	}
	if v > compositeMax {
		return compositeMax
	}
	return v
}
