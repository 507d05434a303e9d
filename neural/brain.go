package neural

import (
	"math"

	"github.com/pthm-cable/microcosm/config"
	"github.com/pthm-cable/microcosm/genome"
)

// Params holds the adaptive-gain configuration a brain is built with.
type Params struct {
	GainMin       float64
	GainMax       float64
	BaselineGain  float64
	Assimilation  float64
	GainLearnRate float64
}

// ParamsFromConfig extracts brain parameters from the loaded configuration.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		GainMin:       cfg.Brain.GainMin,
		GainMax:       cfg.Brain.GainMax,
		BaselineGain:  cfg.Brain.BaselineGain,
		Assimilation:  cfg.Brain.Assimilation,
		GainLearnRate: cfg.Brain.GainLearnRate,
	}
}

// edge is one live connection after pruning.
type edge struct {
	source uint8
	weight float64
}

// Brain is the pruned neural controller derived from a genome. It is built
// once at organism creation and discarded with the organism; only the
// adaptive sensor state mutates afterward.
type Brain struct {
	params Params

	// incoming maps a neuron to its live inbound connections, in genome
	// tail order for deterministic evaluation.
	incoming map[uint8][]edge

	// activation holds each neuron's 3-bit activation selector, taken from
	// the first enabled gene targeting it in tail order.
	activation map[uint8]uint8

	connectionCount int
	neuronCount     int

	// Adaptive sensor state.
	baseline [NumSensors]float64
	gains    [NumSensors]float64
	targets  [NumSensors]float64

	lastEval *Evaluation
}

// FromDNA parses the genome's connection genes, keeps enabled ones, and
// prunes every neuron without a backward path from a declared output.
// Counts are post-prune and feed the cognitive upkeep cost.
func FromDNA(g *genome.Genome, params Params) *Brain {
	b := &Brain{
		params:     params,
		incoming:   make(map[uint8][]edge),
		activation: make(map[uint8]uint8),
	}
	for i := range b.gains {
		b.baseline[i] = params.BaselineGain
		b.gains[i] = params.BaselineGain
		b.targets[i] = 0
	}

	genes := g.ConnectionGenes()

	// Inbound adjacency over enabled genes. Sensors never receive edges:
	// a gene targeting a sensor is structurally dead and dropped here.
	type rawEdge struct {
		cg    genome.ConnectionGene
		order int
	}
	inbound := make(map[uint8][]rawEdge)
	for i, cg := range genes {
		if !cg.Enabled || isSensor(cg.Target) {
			continue
		}
		inbound[cg.Target] = append(inbound[cg.Target], rawEdge{cg: cg, order: i})
	}

	// Backward reachability from every declared output id.
	reachable := make(map[uint8]bool)
	var stack []uint8
	for _, name := range groupOrder {
		for _, id := range outputGroups[name] {
			if !reachable[id] {
				reachable[id] = true
				stack = append(stack, id)
			}
		}
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, re := range inbound[id] {
			src := re.cg.Source
			if isSensor(src) || reachable[src] {
				continue
			}
			reachable[src] = true
			stack = append(stack, src)
		}
	}

	// Keep connections whose target survived; count surviving neurons as
	// the non-sensor endpoints of live connections.
	liveNeurons := make(map[uint8]bool)
	for target, res := range inbound {
		if !reachable[target] {
			continue
		}
		for _, re := range res {
			b.incoming[target] = append(b.incoming[target], edge{
				source: re.cg.Source,
				weight: re.cg.WeightValue(),
			})
			if _, seen := b.activation[target]; !seen {
				b.activation[target] = re.cg.Activation
			}
			b.connectionCount++
			liveNeurons[target] = true
			if !isSensor(re.cg.Source) {
				liveNeurons[re.cg.Source] = true
			}
		}
	}
	b.neuronCount = len(liveNeurons)

	return b
}

// ConnectionCount reports live connections after pruning.
func (b *Brain) ConnectionCount() int { return b.connectionCount }

// NeuronCount reports live non-sensor neurons after pruning.
func (b *Brain) NeuronCount() int { return b.neuronCount }

// Gain returns the current adapted gain for a sensor index.
func (b *Brain) Gain(sensor int) float64 {
	if sensor < 0 || sensor >= NumSensors {
		panic("neural: sensor index out of range")
	}
	return b.gains[sensor]
}

// ExperienceTarget returns the learned target for a sensor index.
func (b *Brain) ExperienceTarget(sensor int) float64 {
	if sensor < 0 || sensor >= NumSensors {
		panic("neural: sensor index out of range")
	}
	return b.targets[sensor]
}

// activate applies the neuron's activation function, selected by the 3-bit
// code carried on its inbound genes.
func activate(code uint8, x float64) float64 {
	switch code {
	case 0: // identity
		return x
	case 1: // relu
		if x < 0 {
			return 0
		}
		return x
	case 2: // leaky relu
		if x < 0 {
			return 0.1 * x
		}
		return x
	case 3: // sigmoid
		return 1 / (1 + math.Exp(-x))
	case 4: // tanh
		return math.Tanh(x)
	case 5: // step
		if x > 0 {
			return 1
		}
		return 0
	case 6: // gaussian bump
		return math.Exp(-x * x)
	default: // 7: inverted
		return -x
	}
}
