package genome

import "math/rand"

// Gene-level mutation odds, scaled from the byte mutation rate. Raw byte
// noise over the tail would scramble packed fields, so the tail mutates at
// the gene level instead.
const (
	weightJitterFactor = 4.0  // weight jitter is the common mutation
	enableFlipFactor   = 0.5  // occasional enable/disable flip
	rewireFactor       = 0.15 // rare source/target rewire
	weightJitterSigma  = 96   // integer weight units, ~0.09 synapse strength
)

// Mutate returns a new genome with each trait byte independently perturbed
// with probability rate, and the connection-gene tail mutated gene-by-gene.
// The receiver is never modified.
func (g *Genome) Mutate(rate float64, rng *rand.Rand) *Genome {
	out := make([]byte, len(g.data))
	copy(out, g.data)

	if rate <= 0 {
		return &Genome{data: out}
	}

	// Trait region: bounded byte noise.
	for i := 0; i < TraitBytes; i++ {
		if rng.Float64() >= rate {
			continue
		}
		delta := int(rng.NormFloat64() * 16)
		out[i] = clampByte(int(out[i]) + delta)
	}

	// Neural tail: structured gene mutation.
	n := g.GeneCount()
	for i := 0; i < n; i++ {
		off := TraitBytes + i*GeneBytes
		cg := UnpackGene(out[off : off+GeneBytes])
		changed := false

		if rng.Float64() < rate*weightJitterFactor {
			w := int(cg.Weight) + int(rng.NormFloat64()*weightJitterSigma)
			if w > weightMax {
				w = weightMax
			}
			if w < weightMin {
				w = weightMin
			}
			cg.Weight = int16(w)
			changed = true
		}
		if rng.Float64() < rate*enableFlipFactor {
			cg.Enabled = !cg.Enabled
			changed = true
		}
		if rng.Float64() < rate*rewireFactor {
			if rng.Intn(2) == 0 {
				cg.Source = uint8(rng.Intn(256))
			} else {
				cg.Target = uint8(rng.Intn(256))
			}
			changed = true
		}

		if changed {
			writeGene(out, i, cg)
		}
	}

	return &Genome{data: out}
}

// Crossover combines two parent genomes: a single cut point over the trait
// region and an independent coin flip per connection gene. Parents must have
// equal length; unequal lengths indicate mixed configurations and panic.
func Crossover(a, b *Genome, rng *rand.Rand) *Genome {
	if len(a.data) != len(b.data) {
		panic("genome: crossover between genomes of different length")
	}

	out := make([]byte, len(a.data))

	cut := rng.Intn(TraitBytes + 1)
	copy(out[:cut], a.data[:cut])
	copy(out[cut:TraitBytes], b.data[cut:TraitBytes])

	n := a.GeneCount()
	for i := 0; i < n; i++ {
		off := TraitBytes + i*GeneBytes
		src := a.data
		if rng.Intn(2) == 1 {
			src = b.data
		}
		copy(out[off:off+GeneBytes], src[off:off+GeneBytes])
	}

	return &Genome{data: out}
}

func clampByte(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
