package sim

import (
	"reflect"
	"testing"

	"github.com/pthm-cable/microcosm/config"
	"github.com/pthm-cable/microcosm/genome"
)

// testConfig loads the embedded defaults and shrinks them to a quiet little
// world: no events, no upkeep, no founders unless the test seeds its own.
func testConfig(t *testing.T, rows, cols int) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	cfg.Grid.Rows = rows
	cfg.Grid.Cols = cols
	cfg.Grid.ObstaclePreset = "none"
	cfg.Population.Initial = 0
	cfg.Events.SpawnChance = 0
	cfg.Organism.MetabolicCost = 0
	cfg.Brain.CostPerConnection = 0
	cfg.Brain.CostPerNeuron = 0
	cfg.Derived.Tiles = rows * cols
	return cfg
}

// neutralTraits is a trait region of all-128 bytes: every locus sits mid-band.
func neutralTraits() []byte {
	traits := make([]byte, genome.TraitBytes)
	for i := range traits {
		traits[i] = 128
	}
	return traits
}

// lociIndices marks the trait bytes read by the locus table; the rest are
// free for similarity shaping without moving any trait value.
var lociIndices = map[int]bool{
	0: true, 3: true, 6: true, 9: true, 12: true, 15: true, 18: true,
	21: true, 24: true, 27: true, 30: true, 33: true, 36: true,
	40: true, 43: true, 46: true, 49: true,
}

// genomeWithTraits builds a genome from trait bytes plus one disabled gene,
// leaving every output group unwired so legacy decision paths run.
func genomeWithTraits(traits []byte) *genome.Genome {
	data := make([]byte, genome.TraitBytes+genome.GeneBytes)
	copy(data, traits)
	return genome.FromBytes(data)
}

// mateTraits returns a trait region whose similarity to neutralTraits lands
// between the enemy and ally thresholds, without moving any locus byte.
func mateTraits() []byte {
	traits := neutralTraits()
	for i := 0; i < genome.TraitBytes; i++ {
		if !lociIndices[i] {
			traits[i] = 1
		}
	}
	return traits
}

func TestReproductionSucceedsOnOpenGrid(t *testing.T) {
	cfg := testConfig(t, 3, 3)
	cfg.Organism.ReproductionThresholdFrac = 0
	e := NewEngine(cfg, 1, Options{})

	a := e.spawnOrganism(genomeWithTraits(neutralTraits()), 1, 1, 0, 0, 0, 100)
	b := e.spawnOrganism(genomeWithTraits(mateTraits()), 1, 2, 0, 0, 0, 100)

	var births int
	e.stats = statsRecorder{onBirth: func() { births++ }}

	entity, _ := e.grid.EntityAt(1, 1)
	pos, vit, pheno, lin := e.mapper.Get(entity)
	targets := e.findTargets(entity, pos, pheno, lin.ID)
	if len(targets.Mates) != 1 {
		t.Fatalf("expected exactly one mate candidate, got %+v", targets)
	}
	sensors := e.senseVector(pos, vit, pheno, targets)

	if !e.handleReproduction(entity, pos, vit, pheno, lin, e.brains[lin.ID], sensors, targets) {
		t.Fatal("reproduction should succeed with full energy and free neighbors")
	}
	if births != 1 {
		t.Errorf("expected exactly one birth, got %d", births)
	}
	if e.Population() != 3 {
		t.Errorf("expected population 3, got %d", e.Population())
	}
	// The offspring stands adjacent to the first parent.
	found := false
	snap := e.Snapshot()
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			id := snap.Occupancy[row*3+col]
			if id == 0 || id == a || id == b {
				continue
			}
			if !adjacent(row, col, 1, 1) {
				t.Errorf("offspring at (%d,%d) not adjacent to parent", row, col)
			}
			found = true
		}
	}
	if !found {
		t.Error("offspring not found on the grid")
	}
	e.grid.CheckInvariants()
}

func TestReproductionBlockedWhenSurrounded(t *testing.T) {
	cfg := testConfig(t, 3, 3)
	cfg.Organism.ReproductionThresholdFrac = 0
	e := NewEngine(cfg, 1, Options{})

	e.spawnOrganism(genomeWithTraits(neutralTraits()), 1, 1, 0, 0, 0, 100)
	e.spawnOrganism(genomeWithTraits(mateTraits()), 1, 2, 0, 0, 0, 100)
	// Block every free tile around the parent.
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			if e.grid.IsFree(row, col) {
				e.grid.SetObstacle(row, col, true, false)
			}
		}
	}

	var blocked []ReproductionBlocked
	var births int
	e.stats = statsRecorder{
		onBirth:   func() { births++ },
		onBlocked: func(rb ReproductionBlocked) { blocked = append(blocked, rb) },
	}

	entity, _ := e.grid.EntityAt(1, 1)
	pos, vit, pheno, lin := e.mapper.Get(entity)
	targets := e.findTargets(entity, pos, pheno, lin.ID)
	sensors := e.senseVector(pos, vit, pheno, targets)
	energyBefore := vit.Energy

	if e.handleReproduction(entity, pos, vit, pheno, lin, e.brains[lin.ID], sensors, targets) {
		t.Fatal("reproduction must fail with no free neighbor")
	}
	if births != 0 {
		t.Errorf("no birth expected, got %d", births)
	}
	if len(blocked) != 1 || blocked[0].Reason != BlockedNoRoom {
		t.Errorf("expected one no-room block record, got %+v", blocked)
	}
	if vit.Energy != energyBefore {
		t.Errorf("failed attempt must not cost energy: %f -> %f", energyBefore, vit.Energy)
	}
	if e.Population() != 2 {
		t.Errorf("population changed: %d", e.Population())
	}
	e.grid.CheckInvariants()
}

func TestTryMoveRejectsTeleport(t *testing.T) {
	cfg := testConfig(t, 5, 5)
	e := NewEngine(cfg, 1, Options{})
	e.spawnOrganism(genomeWithTraits(neutralTraits()), 2, 2, 0, 0, 0, 50)
	entity, _ := e.grid.EntityAt(2, 2)

	if e.grid.TryMove(entity, 2, 0) {
		t.Error("two-tile jump must be rejected")
	}
	if e.grid.TryMove(entity, 0, 0) {
		t.Error("zero move must be rejected")
	}
	if e.grid.Relocate(entity, 0, 0) {
		t.Error("non-adjacent relocation must be rejected")
	}
	pos := e.posMap.Get(entity)
	if pos.Row != 2 || pos.Col != 2 {
		t.Errorf("rejected moves must leave position untouched, got (%d,%d)", pos.Row, pos.Col)
	}
	e.grid.CheckInvariants()
}

func TestRelocateFailsClosed(t *testing.T) {
	cfg := testConfig(t, 3, 3)
	e := NewEngine(cfg, 1, Options{})
	e.spawnOrganism(genomeWithTraits(neutralTraits()), 1, 1, 0, 0, 0, 50)
	e.spawnOrganism(genomeWithTraits(neutralTraits()), 1, 2, 0, 0, 0, 50)
	entity, _ := e.grid.EntityAt(1, 1)

	if e.grid.Relocate(entity, 1, 2) {
		t.Error("relocation onto an occupied tile must fail")
	}
	e.grid.SetObstacle(0, 1, true, false)
	if e.grid.Relocate(entity, 0, 1) {
		t.Error("relocation onto an obstacle must fail")
	}
	pos := e.posMap.Get(entity)
	if pos.Row != 1 || pos.Col != 1 {
		t.Error("failed relocation mutated the position")
	}
	e.grid.CheckInvariants()
}

func TestSetObstacleEvictsOccupant(t *testing.T) {
	cfg := testConfig(t, 3, 3)
	e := NewEngine(cfg, 1, Options{})
	e.spawnOrganism(genomeWithTraits(neutralTraits()), 1, 1, 0, 0, 0, 50)

	e.SetObstacle(1, 1, true)
	if e.Population() != 1 {
		t.Fatalf("evicted organism must survive, population %d", e.Population())
	}
	if !e.grid.IsObstacle(1, 1) {
		t.Error("tile must be an obstacle")
	}
	if e.energy.At(1, 1) != 0 {
		t.Error("obstacle tile must drop its energy")
	}
	e.grid.CheckInvariants()
}

func TestSetObstacleCrushesWhenNoRoom(t *testing.T) {
	cfg := testConfig(t, 1, 1)
	e := NewEngine(cfg, 1, Options{})
	e.spawnOrganism(genomeWithTraits(neutralTraits()), 0, 0, 0, 0, 0, 50)

	var deaths []string
	e.stats = statsRecorder{onDeath: func(cause string) { deaths = append(deaths, cause) }}

	e.SetObstacle(0, 0, true)
	if e.Population() != 0 {
		t.Fatalf("organism with nowhere to go must die, population %d", e.Population())
	}
	if len(deaths) != 1 || deaths[0] != DeathCrushed {
		t.Errorf("expected one crushed death, got %v", deaths)
	}
	e.grid.CheckInvariants()
}

func TestForagingFeedsOrganism(t *testing.T) {
	cfg := testConfig(t, 5, 5)
	cfg.Energy.InitialTileEnergyFrac = 1
	e := NewEngine(cfg, 3, Options{})

	e.spawnOrganism(genomeWithTraits(neutralTraits()), 2, 2, 0, 0, 0, 10)
	entity, _ := e.grid.EntityAt(2, 2)
	_, vit, _, _ := e.mapper.Get(entity)
	afterSpawn := vit.Energy
	if afterSpawn <= 10 {
		t.Fatalf("arrival harvest missing: energy %f after spawning onto a full tile", afterSpawn)
	}

	for tick := 0; tick < 30; tick++ {
		e.Step()
	}
	pos, vit, _, _ := e.mapper.Get(entity)
	if vit.Energy <= afterSpawn {
		t.Errorf("foraging over 30 ticks gained nothing: %f -> %f on a saturated field", afterSpawn, vit.Energy)
	}
	if got := e.energy.At(pos.Row, pos.Col); got != 0 {
		t.Errorf("tile under the organism reads %f, want 0", got)
	}
}

func TestOccupiedTilesHoldNoEnergy(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Grid.Rows = 16
	cfg.Grid.Cols = 16
	cfg.Grid.ObstaclePreset = "none"
	cfg.Population.Initial = 12
	cfg.Energy.InitialTileEnergyFrac = 1
	cfg.Derived.Tiles = 16 * 16
	e := NewEngine(cfg, 11, Options{})

	check := func(tick int) {
		snap := e.Snapshot()
		for i, id := range snap.Occupancy {
			if id != 0 && snap.Energy[i] != 0 {
				t.Fatalf("tick %d: occupied tile %d holds energy %f", tick, i, snap.Energy[i])
			}
		}
	}
	check(0)
	for tick := 1; tick <= 40; tick++ {
		e.Step()
		check(tick)
	}
}

func TestEvictionSettlesNewTile(t *testing.T) {
	cfg := testConfig(t, 3, 3)
	cfg.Energy.InitialTileEnergyFrac = 1
	e := NewEngine(cfg, 1, Options{})
	e.spawnOrganism(genomeWithTraits(neutralTraits()), 1, 1, 0, 0, 0, 10)
	entity, _ := e.grid.EntityAt(1, 1)
	_, vit, _, _ := e.mapper.Get(entity)
	before := vit.Energy

	e.SetObstacle(1, 1, true)
	pos, vit, _, _ := e.mapper.Get(entity)
	if got := e.energy.At(pos.Row, pos.Col); got != 0 {
		t.Errorf("evicted organism's landing tile reads %f, want 0", got)
	}
	if vit.Energy <= before {
		t.Errorf("evicted organism should harvest its landing tile: %f -> %f", before, vit.Energy)
	}
	e.grid.CheckInvariants()
}

func TestDeterministicReplay(t *testing.T) {
	build := func() *Engine {
		cfg, err := config.Load("")
		if err != nil {
			t.Fatalf("loading defaults: %v", err)
		}
		cfg.Grid.Rows = 24
		cfg.Grid.Cols = 24
		cfg.Grid.ObstaclePreset = "pillars"
		cfg.Population.Initial = 30
		cfg.Events.SpawnChance = 0.2
		cfg.Events.MinDuration = 3
		cfg.Events.MaxDuration = 8
		cfg.Derived.Tiles = 24 * 24
		return NewEngine(cfg, 12345, Options{})
	}

	a := build()
	b := build()
	for tick := 0; tick < 60; tick++ {
		a.Step()
		b.Step()
		sa, sb := a.Snapshot(), b.Snapshot()
		if !reflect.DeepEqual(sa, sb) {
			t.Fatalf("tick %d: snapshots diverged", tick+1)
		}
	}
	a.grid.CheckInvariants()
}

func TestStepKeepsInvariants(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Grid.Rows = 16
	cfg.Grid.Cols = 16
	cfg.Grid.ObstaclePreset = "border"
	cfg.Population.Initial = 20
	cfg.Derived.Tiles = 16 * 16
	e := NewEngine(cfg, 7, Options{})

	for tick := 0; tick < 100; tick++ {
		e.Step()
		e.grid.CheckInvariants()
	}
	snap := e.Snapshot()
	for i, v := range snap.Energy {
		if snap.Obstacles[i] && v != 0 {
			t.Fatalf("obstacle tile %d holds energy %f", i, v)
		}
		if v < 0 || v > cfg.Energy.MaxTileEnergy {
			t.Fatalf("tile %d energy %f outside [0, %f]", i, v, cfg.Energy.MaxTileEnergy)
		}
	}
}

func TestStepReturnsFalseWhenInert(t *testing.T) {
	cfg := testConfig(t, 4, 4)
	e := NewEngine(cfg, 1, Options{})
	if e.Step() {
		t.Error("empty world with no events must report inert")
	}
}

func TestSeedPopulationPlacesFounders(t *testing.T) {
	cfg := testConfig(t, 8, 8)
	cfg.Population.Initial = 10
	e := NewEngine(cfg, 99, Options{})
	if e.Population() != 10 {
		t.Errorf("expected 10 founders, got %d", e.Population())
	}
	e.grid.CheckInvariants()
}

// statsRecorder is a configurable test sink.
type statsRecorder struct {
	onBirth   func()
	onDeath   func(string)
	onMate    func(MateChoice)
	onBlocked func(ReproductionBlocked)
}

func (s statsRecorder) OnBirth() {
	if s.onBirth != nil {
		s.onBirth()
	}
}

func (s statsRecorder) OnDeath(cause string) {
	if s.onDeath != nil {
		s.onDeath(cause)
	}
}

func (s statsRecorder) RecordMateChoice(mc MateChoice) {
	if s.onMate != nil {
		s.onMate(mc)
	}
}

func (s statsRecorder) RecordReproductionBlocked(rb ReproductionBlocked) {
	if s.onBlocked != nil {
		s.onBlocked(rb)
	}
}
