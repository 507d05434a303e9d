// Package sim runs the single-threaded simulation: a tile grid of organisms
// harvesting a shared energy field, fighting, cooperating and breeding under
// reproduction-zone selection pressure. All randomness flows through one
// seeded source, so identical seeds replay identical worlds.
package sim

import (
	"log/slog"
	"math/rand"
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/microcosm/components"
	"github.com/pthm-cable/microcosm/config"
	"github.com/pthm-cable/microcosm/events"
	"github.com/pthm-cable/microcosm/field"
	"github.com/pthm-cable/microcosm/genome"
	"github.com/pthm-cable/microcosm/neural"
	"github.com/pthm-cable/microcosm/zones"
)

// Options configures optional engine collaborators.
type Options struct {
	Stats  StatsSink      // nil means NopStats
	Zones  *zones.Manager // nil builds one from config patterns
	Logger *slog.Logger   // nil means slog.Default()
}

// Engine owns the whole simulation state and advances it one tick at a time.
// It is not safe for concurrent use; callers drive it from a single
// goroutine.
type Engine struct {
	cfg *config.Config
	rng *rand.Rand
	log *slog.Logger

	world  *ecs.World
	mapper *ecs.Map4[
		components.Position,
		components.Vitals,
		components.Phenotype,
		components.Lineage,
	]
	filter *ecs.Filter4[
		components.Position,
		components.Vitals,
		components.Phenotype,
		components.Lineage,
	]
	posMap *ecs.Map1[components.Position]

	grid    *GridManager
	energy  *field.Field
	events  *events.Manager
	zoneMgr *zones.Manager
	policy  *zones.Policy
	stats   StatsSink

	params  neural.Params
	genomes map[uint32]*genome.Genome
	brains  map[uint32]*neural.Brain

	nextID  uint32
	tick    int64
	density []float64
}

// NewEngine builds a fully seeded world: obstacles from the configured
// preset, the energy field at its initial level, zone patterns registered
// but inactive, and the initial population scattered over free tiles.
func NewEngine(cfg *config.Config, seed int64, opts Options) *Engine {
	world := ecs.NewWorld()
	rows, cols := cfg.Grid.Rows, cfg.Grid.Cols

	e := &Engine{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
		log: opts.Logger,
		world: world,
		mapper: ecs.NewMap4[
			components.Position,
			components.Vitals,
			components.Phenotype,
			components.Lineage,
		](world),
		filter: ecs.NewFilter4[
			components.Position,
			components.Vitals,
			components.Phenotype,
			components.Lineage,
		](world),
		posMap:  ecs.NewMap1[components.Position](world),
		stats:   opts.Stats,
		params:  neural.ParamsFromConfig(cfg),
		genomes: make(map[uint32]*genome.Genome),
		brains:  make(map[uint32]*neural.Brain),
		nextID:  1,
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.stats == nil {
		e.stats = NopStats{}
	}

	obstacles := field.BuildObstacles(rows, cols,
		cfg.Grid.ObstaclePreset, cfg.Grid.NoiseThreshold, cfg.Grid.NoiseScale, seed)
	e.grid = NewGridManager(rows, cols, obstacles, e.posMap)
	e.energy = field.New(rows, cols, cfg.Energy.MaxTileEnergy, cfg.Energy.InitialTileEnergyFrac)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if e.grid.IsObstacle(row, col) {
				e.energy.ZeroTile(row, col)
			}
		}
	}
	e.events = events.NewManager(rows, cols, cfg.Events)

	e.zoneMgr = opts.Zones
	if e.zoneMgr == nil {
		e.zoneMgr = zones.NewManager(rows, cols, zones.BuiltinPatterns(cfg.Zones.Patterns))
	}
	e.policy = zones.NewPolicy(e.zoneMgr)

	e.density = make([]float64, rows*cols)
	e.seedPopulation(cfg.Population.Initial)

	return e
}

// Tick returns the current tick count.
func (e *Engine) Tick() int64 { return e.tick }

// Population returns the number of live organisms.
func (e *Engine) Population() int { return e.grid.Occupied() }

// Zones exposes the selection manager for activation control.
func (e *Engine) Zones() *zones.Manager { return e.zoneMgr }

// Grid exposes the occupancy manager; callers must not mutate through it
// while a step is in progress.
func (e *Engine) Grid() *GridManager { return e.grid }

// Energy exposes the energy field for inspection.
func (e *Engine) Energy() *field.Field { return e.energy }

// Events returns the active environmental events.
func (e *Engine) Events() []events.Event { return e.events.Active() }

// Genome returns the genome of a live organism by id.
func (e *Engine) Genome(id uint32) (*genome.Genome, bool) {
	g, ok := e.genomes[id]
	return g, ok
}

// Brain returns the controller of a live organism by id.
func (e *Engine) Brain(id uint32) (*neural.Brain, bool) {
	b, ok := e.brains[id]
	return b, ok
}

// OrganismEnergies samples every live organism's energy in row-major tile
// order, for distribution stats.
func (e *Engine) OrganismEnergies() []float64 {
	cells := e.activeCells()
	out := make([]float64, 0, len(cells))
	for _, cell := range cells {
		_, vit, _, _ := e.mapper.Get(cell.entity)
		out = append(out, vit.Energy)
	}
	return out
}

// OrganismAges samples every live organism's age in row-major tile order.
func (e *Engine) OrganismAges() []float64 {
	cells := e.activeCells()
	out := make([]float64, 0, len(cells))
	for _, cell := range cells {
		_, vit, _, _ := e.mapper.Get(cell.entity)
		out = append(out, float64(vit.Age))
	}
	return out
}

// FieldMean returns the average non-obstacle tile energy.
func (e *Engine) FieldMean() float64 {
	sum, n := 0.0, 0
	for row := 0; row < e.grid.Rows(); row++ {
		for col := 0; col < e.grid.Cols(); col++ {
			if e.grid.IsObstacle(row, col) {
				continue
			}
			sum += e.energy.At(row, col)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// seedPopulation scatters n founders over free tiles. A full map stops
// seeding early rather than looping forever.
func (e *Engine) seedPopulation(n int) {
	rows, cols := e.grid.Rows(), e.grid.Cols()
	for placed, attempts := 0, 0; placed < n && attempts < n*50; attempts++ {
		row := e.rng.Intn(rows)
		col := e.rng.Intn(cols)
		if !e.grid.IsFree(row, col) {
			continue
		}
		g := genome.New(e.cfg.Genome.Length, e.rng)
		e.spawnOrganism(g, row, col, 0, 0, 0,
			e.cfg.Organism.InitialEnergyFrac*e.cfg.Energy.MaxTileEnergy)
		placed++
	}
}

// spawnOrganism creates a fully wired organism: entity, components, grid
// slot, genome and brain. The tile must already be free.
func (e *Engine) spawnOrganism(g *genome.Genome, row, col int, generation int, parentA, parentB uint32, energy float64) uint32 {
	id := e.nextID
	e.nextID++

	pos := components.Position{Row: row, Col: col}
	vit := components.Vitals{
		Energy:   energy,
		Lifespan: e.lifespanFor(g),
		Alive:    true,
	}
	pheno := components.DerivePhenotype(g, e.cfg.Organism.SightMax)
	lin := components.Lineage{ID: id, Generation: generation, ParentA: parentA, ParentB: parentB}

	entity := e.mapper.NewEntity(&pos, &vit, &pheno, &lin)
	e.grid.Place(entity, row, col)
	e.genomes[id] = g
	e.brains[id] = neural.FromDNA(g, e.params)

	_, vitp, phenop, _ := e.mapper.Get(entity)
	e.settle(row, col, vitp, phenop)
	return id
}

// settle strips a freshly occupied tile: the occupant harvests what its
// foraging profile allows and the remainder is lost with the tile zeroed.
// This is the only way energy leaves the field into an organism, and it
// keeps every occupied tile at zero energy between ticks. Returns the
// harvested amount.
func (e *Engine) settle(row, col int, vit *components.Vitals, pheno *components.Phenotype) float64 {
	harvested := 0.0
	if vit.Energy > 0 {
		harvested, vit.Energy = e.energy.Consume(row, col, field.HarvestProfile{
			ForageRate:     pheno.ForageRate,
			CrowdTolerance: pheno.CrowdTolerance,
			Exploration:    pheno.Exploration,
		}, e.density[row*e.grid.Cols()+col], e.cfg.Energy.DensityEffectMultiplier, vit.Energy)
	}
	e.energy.ZeroTile(row, col)
	return harvested
}

// lifespanFor interpolates the lifespan band by the longevity locus.
func (e *Engine) lifespanFor(g *genome.Genome) int {
	return e.cfg.Organism.LifespanMin +
		int(g.Trait(genome.Longevity)*float64(e.cfg.Derived.LifespanSpread))
}

// removeOrganism tears an organism down everywhere it is referenced and
// reports its death.
func (e *Engine) removeOrganism(entity ecs.Entity, cause string) {
	e.grid.Detach(entity)
	e.finalizeRemoval(entity, cause)
}

// finalizeRemoval is the teardown after the grid slot is already free.
func (e *Engine) finalizeRemoval(entity ecs.Entity, cause string) {
	_, _, _, lin := e.mapper.Get(entity)
	id := lin.ID
	e.mapper.Remove(entity)
	delete(e.genomes, id)
	delete(e.brains, id)
	e.stats.OnDeath(cause)
}

// cellRef pairs an entity with its tile for the ordered pass.
type cellRef struct {
	entity ecs.Entity
	row    int
	col    int
	id     uint32
}

// activeCells collects live organisms in row-major tile order. Iteration
// order over the ECS store is not specified, so the sort is what makes
// ticks reproducible.
func (e *Engine) activeCells() []cellRef {
	out := make([]cellRef, 0, e.grid.Occupied())
	query := e.filter.Query()
	for query.Next() {
		pos, vit, _, lin := query.Get()
		if !vit.Alive {
			continue
		}
		out = append(out, cellRef{entity: query.Entity(), row: pos.Row, col: pos.Col, id: lin.ID})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].row != out[j].row {
			return out[i].row < out[j].row
		}
		return out[i].col < out[j].col
	})
	return out
}

// Step advances the world one tick: events, crowding, field regeneration,
// then one ordered pass over the organisms. The pass walks a snapshot taken
// before anyone acts, so an organism moving into a later tile is not
// processed twice and offspring born this tick act for the first time next
// tick. Returns false once the world is inert (no organisms and no active
// events).
func (e *Engine) Step() bool {
	e.tick++

	e.events.Update(e.rng)
	e.density = e.grid.ComputeDensityGrid(e.cfg.Energy.DensityRadius)
	e.energy.Regenerate(field.RegenParams{
		Events:                  e.events.Active(),
		EventStrengthMultiplier: e.cfg.Events.StrengthMultiplier,
		RegenRate:               e.cfg.Energy.RegenRate,
		DiffusionRate:           e.cfg.Energy.DiffusionRate,
		Density:                 e.density,
		DensityEffectMultiplier: e.cfg.Energy.DensityEffectMultiplier,
		IsObstacle:              e.grid.IsObstacle,
		IsOccupied:              e.grid.IsOccupied,
	})

	for _, cell := range e.activeCells() {
		e.stepOrganism(cell)
	}

	return e.grid.Occupied() > 0 || len(e.events.Active()) > 0
}

// stepOrganism runs one organism's full turn.
func (e *Engine) stepOrganism(cell cellRef) {
	// Killed earlier in this pass (combat, eviction) before its turn came up.
	if !e.world.Alive(cell.entity) {
		return
	}
	pos, vit, pheno, lin := e.mapper.Get(cell.entity)
	if !vit.Alive {
		return
	}
	brain := e.brains[lin.ID]
	g := e.genomes[lin.ID]
	if brain == nil || g == nil {
		panic("sim: live organism missing genome or brain")
	}

	// Upkeep: flat metabolic cost plus cognitive cost, inflated by any
	// event covering the tile per the resistance loci.
	cost := e.cfg.Organism.MetabolicCost +
		float64(brain.ConnectionCount())*e.cfg.Brain.CostPerConnection +
		float64(brain.NeuronCount())*e.cfg.Brain.CostPerNeuron
	for _, ev := range e.events.Active() {
		if ev.Covers(pos.Row, pos.Col) {
			cost *= g.EventEnergyLossMultiplier(ev.Type, ev.Strength)
		}
	}
	vit.Energy -= cost

	targets := e.findTargets(cell.entity, pos, pheno, lin.ID)
	sensors := e.senseVector(pos, vit, pheno, targets)

	// Foraging happens on arrival: moving onto a tile strips it via settle,
	// so harvest for the tick is whatever the organism's steps brought in.
	harvested := 0.0
	moved := false
	if len(targets.Enemies) > 0 || len(targets.Allies) > 0 {
		harvested, moved = e.handleInteraction(cell.entity, pos, vit, pheno, brain, sensors, targets)
	}
	if !moved {
		harvested += e.handleMovement(cell.entity, pos, brain, sensors)
	}
	if vit.Alive {
		e.handleReproduction(cell.entity, pos, vit, pheno, lin, brain, sensors, targets)
	}

	// Closed-loop feedback: the tick's net energy swing is the reward.
	activation := 0
	if last := brain.LastEvaluation(); last != nil {
		activation = last.ActivationCount
	}
	brain.ApplySensorFeedback(neural.Feedback{
		SensorVector:    sensors,
		ActivationCount: activation,
		EnergyCost:      cost,
		FatigueDelta:    float64(vit.Age) / float64(vit.Lifespan),
		RewardSignal:    (harvested - cost) / e.cfg.Energy.MaxTileEnergy,
		MaxTileEnergy:   e.cfg.Energy.MaxTileEnergy,
	})

	vit.Age++
	switch {
	case vit.Energy <= 0:
		e.removeOrganism(cell.entity, DeathStarved)
	case vit.Age >= vit.Lifespan:
		e.removeOrganism(cell.entity, DeathOldAge)
	}
}
