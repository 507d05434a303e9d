package genome

import (
	"math"
	"math/rand"
	"testing"
)

// buildGenome assembles a genome from explicit trait bytes and genes.
func buildGenome(traits []byte, genes ...ConnectionGene) *Genome {
	data := make([]byte, TraitBytes+len(genes)*GeneBytes)
	copy(data, traits)
	for i, cg := range genes {
		packed := cg.Pack()
		copy(data[TraitBytes+i*GeneBytes:], packed[:])
	}
	return FromBytes(data)
}

func TestPackUnpackRoundTrip(t *testing.T) {
	cases := []ConnectionGene{
		{Source: 0, Target: 200, Weight: 0, Activation: 0, Enabled: true},
		{Source: 255, Target: 255, Weight: 2047, Activation: 7, Enabled: true},
		{Source: 11, Target: 210, Weight: -2048, Activation: 3, Enabled: false},
		{Source: 100, Target: 150, Weight: -1, Activation: 5, Enabled: true},
		{Source: 1, Target: 2, Weight: 1024, Activation: 4, Enabled: false},
	}
	for _, want := range cases {
		packed := want.Pack()
		got := UnpackGene(packed[:])
		if got != want {
			t.Errorf("round trip mismatch: want %+v, got %+v", want, got)
		}
	}
}

func TestWeightValueScale(t *testing.T) {
	cg := ConnectionGene{Weight: 1024}
	if v := cg.WeightValue(); v != 1.0 {
		t.Errorf("expected weight value 1.0, got %f", v)
	}
	cg.Weight = -2048
	if v := cg.WeightValue(); v != -2.0 {
		t.Errorf("expected weight value -2.0, got %f", v)
	}
}

func TestNewRoundsToWholeGenes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	g := New(TraitBytes+GeneBytes*3+2, rng)
	if g.Len() != TraitBytes+GeneBytes*3 {
		t.Errorf("expected length %d, got %d", TraitBytes+GeneBytes*3, g.Len())
	}
	if g.GeneCount() != 3 {
		t.Errorf("expected 3 genes, got %d", g.GeneCount())
	}
}

func TestNewPanicsBelowMinimum(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for genome below minimum length")
		}
	}()
	New(TraitBytes, rand.New(rand.NewSource(1)))
}

func TestTraitBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		g := New(128, rng)
		for tr := Trait(0); tr < traitCount; tr++ {
			v := g.Trait(tr)
			lo, hi := loci[tr].min, loci[tr].max
			if v < lo || v > hi {
				t.Fatalf("trait %s = %f outside [%f, %f]", tr, v, lo, hi)
			}
		}
	}
}

func TestTraitDeterministic(t *testing.T) {
	traits := make([]byte, TraitBytes)
	for i := range traits {
		traits[i] = byte(i * 5)
	}
	g := buildGenome(traits, ConnectionGene{Source: 0, Target: 200, Enabled: true})
	a, b := g.Trait(Forage), g.Trait(Forage)
	if a != b {
		t.Errorf("trait read not deterministic: %f vs %f", a, b)
	}
}

func TestSimilarity(t *testing.T) {
	traits := make([]byte, TraitBytes)
	for i := range traits {
		traits[i] = 128
	}
	gene := ConnectionGene{Source: 0, Target: 200, Enabled: true}
	a := buildGenome(traits, gene)
	b := buildGenome(traits, gene)
	if sim := Similarity(a, b); sim != 1.0 {
		t.Errorf("identical trait regions should give similarity 1, got %f", sim)
	}

	opposite := make([]byte, TraitBytes)
	for i := range opposite {
		opposite[i] = 128 ^ 0xFF
	}
	c := buildGenome(opposite, gene)
	if sim := Similarity(a, c); sim > 0.51 {
		t.Errorf("divergent trait regions should give low similarity, got %f", sim)
	}
}

func TestEventEnergyLossMultiplierBand(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	types := []string{"flood", "drought", "heatwave", "coldwave"}
	for trial := 0; trial < 50; trial++ {
		g := New(128, rng)
		for _, typ := range types {
			for _, strength := range []float64{0, 0.5, 1} {
				m := g.EventEnergyLossMultiplier(typ, strength)
				if m < compositeMin || m > compositeMax {
					t.Fatalf("multiplier %f for %s outside [%f, %f]", m, typ, compositeMin, compositeMax)
				}
			}
		}
	}
}

func TestUnknownEventTypeIsNeutral(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	// Neutral resistance cancels the strength term exactly, so an unknown
	// type costs a flat multiplier of 1 regardless of genome or strength.
	for trial := 0; trial < 10; trial++ {
		g := New(128, rng)
		for _, strength := range []float64{0, 0.3, 1, math.NaN(), -5, 7} {
			if m := g.EventEnergyLossMultiplier("meteor", strength); m != 1 {
				t.Fatalf("unknown event multiplier = %f, want 1", m)
			}
		}
	}
}

func TestMutatePreservesStructure(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	g := New(160, rng)
	m := g.Mutate(0.5, rng)
	if m.Len() != g.Len() {
		t.Errorf("mutation changed length: %d -> %d", g.Len(), m.Len())
	}
	if m.GeneCount() != g.GeneCount() {
		t.Errorf("mutation changed gene count: %d -> %d", g.GeneCount(), m.GeneCount())
	}
	if &g.data[0] == &m.data[0] {
		t.Error("mutation returned the same backing array")
	}
}

func TestMutateZeroRateIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	g := New(128, rng)
	m := g.Mutate(0, rng)
	for i, b := range g.Bytes() {
		if m.Bytes()[i] != b {
			t.Fatalf("zero-rate mutation changed byte %d", i)
		}
	}
}

func TestCrossoverLengthMismatchPanics(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	a := New(128, rng)
	b := New(160, rng)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on length mismatch")
		}
	}()
	Crossover(a, b, rng)
}

func TestCrossoverMixesParents(t *testing.T) {
	rng := rand.New(rand.NewSource(14))
	aTraits := make([]byte, TraitBytes)
	bTraits := make([]byte, TraitBytes)
	for i := range bTraits {
		bTraits[i] = 255
	}
	gene := ConnectionGene{Source: 0, Target: 200, Enabled: true}
	a := buildGenome(aTraits, gene, gene, gene, gene)
	b := buildGenome(bTraits, gene, gene, gene, gene)
	child := Crossover(a, b, rng)
	if child.Len() != a.Len() {
		t.Fatalf("child length %d != parent length %d", child.Len(), a.Len())
	}
	// The child's trait region must come from the parents byte-for-byte.
	for i := 0; i < TraitBytes; i++ {
		v := child.Bytes()[i]
		if v != 0 && v != 255 {
			t.Fatalf("child byte %d = %d from neither parent", i, v)
		}
	}
}
