// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Grid       GridConfig       `yaml:"grid"`
	Energy     EnergyConfig     `yaml:"energy"`
	Genome     GenomeConfig     `yaml:"genome"`
	Brain      BrainConfig      `yaml:"brain"`
	Organism   OrganismConfig   `yaml:"organism"`
	Events     EventsConfig     `yaml:"events"`
	Zones      ZonesConfig      `yaml:"zones"`
	Population PopulationConfig `yaml:"population"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// GridConfig holds world grid dimensions and obstacle layout.
type GridConfig struct {
	Rows           int     `yaml:"rows"`
	Cols           int     `yaml:"cols"`
	ObstaclePreset string  `yaml:"obstacle_preset"` // none, border, pillars, noise
	NoiseThreshold float64 `yaml:"noise_threshold"` // noise preset: tiles above this become obstacles
	NoiseScale     float64 `yaml:"noise_scale"`     // noise preset: feature size in tiles
}

// EnergyConfig holds tile energy economics parameters.
type EnergyConfig struct {
	MaxTileEnergy           float64 `yaml:"max_tile_energy"`
	RegenRate               float64 `yaml:"regen_rate"`                // flat energy added per free tile per tick
	DiffusionRate           float64 `yaml:"diffusion_rate"`            // fraction of neighbor differential exchanged per tick
	DensityEffectMultiplier float64 `yaml:"density_effect_multiplier"` // scales how hard crowding dampens harvest/regen
	DensityRadius           int     `yaml:"density_radius"`            // crowding sample radius in tiles
	InitialTileEnergyFrac   float64 `yaml:"initial_tile_energy_frac"`  // starting tile energy as fraction of max
}

// GenomeConfig holds genetic encoding parameters.
type GenomeConfig struct {
	Length       int     `yaml:"length"`        // total genome bytes; tail past the trait region packs connection genes
	MutationRate float64 `yaml:"mutation_rate"` // per-byte perturbation probability at breeding time
}

// BrainConfig holds neural controller parameters.
type BrainConfig struct {
	GainMin           float64 `yaml:"gain_min"`            // lower clamp for adapted sensor gain
	GainMax           float64 `yaml:"gain_max"`            // upper clamp for adapted sensor gain
	BaselineGain      float64 `yaml:"baseline_gain"`       // starting gain before any feedback
	Assimilation      float64 `yaml:"assimilation"`        // fraction the experience target moves toward observed input
	GainLearnRate     float64 `yaml:"gain_learn_rate"`     // gain step per unit of reward
	CostPerConnection float64 `yaml:"cost_per_connection"` // cognitive upkeep per live connection per tick
	CostPerNeuron     float64 `yaml:"cost_per_neuron"`     // cognitive upkeep per live neuron per tick
}

// OrganismConfig holds per-organism lifecycle parameters.
type OrganismConfig struct {
	InitialEnergyFrac         float64 `yaml:"initial_energy_frac"`         // starting energy as fraction of max_tile_energy
	MetabolicCost             float64 `yaml:"metabolic_cost"`              // flat upkeep per tick before cognitive cost
	LifespanMin               int     `yaml:"lifespan_min"`                // ticks; genome LONGEVITY locus interpolates
	LifespanMax               int     `yaml:"lifespan_max"`                // ticks
	SightMax                  int     `yaml:"sight_max"`                   // cap on perception radius in tiles
	ReproductionThresholdFrac float64 `yaml:"reproduction_threshold_frac"` // min energy fraction before breeding is considered
	BreedEnergySplit          float64 `yaml:"breed_energy_split"`          // fraction of parent energy endowed to offspring
	FightTransferFrac         float64 `yaml:"fight_transfer_frac"`         // fraction of loser energy taken per fight
	CooperateShareFrac        float64 `yaml:"cooperate_share_frac"`        // fraction of surplus shared with allies
}

// EventsConfig holds environmental event generation parameters.
type EventsConfig struct {
	SpawnChance        float64 `yaml:"spawn_chance"`        // per-tick probability of a new event
	MaxActive          int     `yaml:"max_active"`          // concurrent event cap
	MinDuration        int     `yaml:"min_duration"`        // ticks
	MaxDuration        int     `yaml:"max_duration"`        // ticks
	MaxAreaFrac        float64 `yaml:"max_area_frac"`       // event rectangle edge cap as fraction of grid edge
	StrengthMultiplier float64 `yaml:"strength_multiplier"` // scales event strength applied to regeneration
}

// ZonesConfig holds reproduction zone parameters.
type ZonesConfig struct {
	Patterns []string `yaml:"patterns"` // built-in pattern ids registered at construction
}

// PopulationConfig holds initial seeding parameters.
type PopulationConfig struct {
	Initial int `yaml:"initial"` // organisms placed at engine construction
}

// TelemetryConfig holds stats aggregation parameters.
type TelemetryConfig struct {
	WindowTicks int    `yaml:"window_ticks"`
	OutputDir   string `yaml:"output_dir"` // empty disables CSV output
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Tiles          int // Rows * Cols
	LifespanSpread int // LifespanMax - LifespanMin
}

// Fallbacks applied by sanitize when a value is non-finite or out of range.
const (
	defaultRows          = 64
	defaultCols          = 64
	defaultMaxTileEnergy = 100.0
	defaultRegenRate     = 0.8
	defaultDiffusion     = 0.05
	defaultMutationRate  = 0.01
	minGenomeLength      = 96
)

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.sanitize()
	cfg.computeDerived()

	return cfg, nil
}

// sanitize replaces invalid values with documented fallbacks. Configuration
// errors never propagate into the tick loop; they are resolved here.
func (c *Config) sanitize() {
	if c.Grid.Rows < 1 {
		c.Grid.Rows = defaultRows
	}
	if c.Grid.Cols < 1 {
		c.Grid.Cols = defaultCols
	}
	switch c.Grid.ObstaclePreset {
	case "none", "border", "pillars", "noise":
	default:
		c.Grid.ObstaclePreset = "none"
	}
	c.Grid.NoiseThreshold = finiteOr(c.Grid.NoiseThreshold, 0.62)
	c.Grid.NoiseScale = positiveOr(c.Grid.NoiseScale, 8)

	c.Energy.MaxTileEnergy = positiveOr(c.Energy.MaxTileEnergy, defaultMaxTileEnergy)
	c.Energy.RegenRate = nonNegativeOr(c.Energy.RegenRate, defaultRegenRate)
	c.Energy.DiffusionRate = clampFinite(c.Energy.DiffusionRate, 0, 1, defaultDiffusion)
	c.Energy.DensityEffectMultiplier = nonNegativeOr(c.Energy.DensityEffectMultiplier, 1)
	if c.Energy.DensityRadius < 1 {
		c.Energy.DensityRadius = 2
	}
	c.Energy.InitialTileEnergyFrac = clampFinite(c.Energy.InitialTileEnergyFrac, 0, 1, 0.5)

	if c.Genome.Length < minGenomeLength {
		c.Genome.Length = minGenomeLength
	}
	c.Genome.MutationRate = clampFinite(c.Genome.MutationRate, 0, 1, defaultMutationRate)

	c.Brain.GainMin = positiveOr(c.Brain.GainMin, 0.2)
	c.Brain.GainMax = positiveOr(c.Brain.GainMax, 3.0)
	if c.Brain.GainMax < c.Brain.GainMin {
		c.Brain.GainMin, c.Brain.GainMax = c.Brain.GainMax, c.Brain.GainMin
	}
	c.Brain.BaselineGain = clampFinite(c.Brain.BaselineGain, c.Brain.GainMin, c.Brain.GainMax, 1)
	c.Brain.Assimilation = clampFinite(c.Brain.Assimilation, 0, 1, 0.1)
	c.Brain.GainLearnRate = nonNegativeOr(c.Brain.GainLearnRate, 0.05)
	c.Brain.CostPerConnection = nonNegativeOr(c.Brain.CostPerConnection, 0.002)
	c.Brain.CostPerNeuron = nonNegativeOr(c.Brain.CostPerNeuron, 0.005)

	c.Organism.InitialEnergyFrac = clampFinite(c.Organism.InitialEnergyFrac, 0, 1, 0.5)
	c.Organism.MetabolicCost = nonNegativeOr(c.Organism.MetabolicCost, 0.3)
	if c.Organism.LifespanMin < 1 {
		c.Organism.LifespanMin = 400
	}
	if c.Organism.LifespanMax < c.Organism.LifespanMin {
		c.Organism.LifespanMax = c.Organism.LifespanMin
	}
	if c.Organism.SightMax < 1 {
		c.Organism.SightMax = 6
	}
	c.Organism.ReproductionThresholdFrac = clampFinite(c.Organism.ReproductionThresholdFrac, 0, 1, 0.4)
	c.Organism.BreedEnergySplit = clampFinite(c.Organism.BreedEnergySplit, 0, 1, 0.35)
	c.Organism.FightTransferFrac = clampFinite(c.Organism.FightTransferFrac, 0, 1, 0.25)
	c.Organism.CooperateShareFrac = clampFinite(c.Organism.CooperateShareFrac, 0, 1, 0.1)

	c.Events.SpawnChance = clampFinite(c.Events.SpawnChance, 0, 1, 0.01)
	if c.Events.MaxActive < 0 {
		c.Events.MaxActive = 0
	}
	if c.Events.MinDuration < 1 {
		c.Events.MinDuration = 30
	}
	if c.Events.MaxDuration < c.Events.MinDuration {
		c.Events.MaxDuration = c.Events.MinDuration
	}
	c.Events.MaxAreaFrac = clampFinite(c.Events.MaxAreaFrac, 0, 1, 0.35)
	c.Events.StrengthMultiplier = nonNegativeOr(c.Events.StrengthMultiplier, 1)

	if c.Population.Initial < 0 {
		c.Population.Initial = 0
	}
	if c.Telemetry.WindowTicks < 1 {
		c.Telemetry.WindowTicks = 120
	}
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Tiles = c.Grid.Rows * c.Grid.Cols
	c.Derived.LifespanSpread = c.Organism.LifespanMax - c.Organism.LifespanMin
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// finiteOr returns v, or fallback when v is NaN or infinite.
func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// positiveOr returns v when finite and > 0, otherwise fallback.
func positiveOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fallback
	}
	return v
}

// nonNegativeOr returns v when finite and >= 0, otherwise fallback.
func nonNegativeOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fallback
	}
	return v
}

// clampFinite clamps a finite v to [lo, hi]; non-finite values become fallback.
func clampFinite(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
