package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading embedded defaults: %v", err)
	}
	if cfg.Grid.Rows < 1 || cfg.Grid.Cols < 1 {
		t.Errorf("invalid default grid %dx%d", cfg.Grid.Rows, cfg.Grid.Cols)
	}
	if cfg.Energy.MaxTileEnergy <= 0 {
		t.Error("default max tile energy must be positive")
	}
	if cfg.Genome.Length < minGenomeLength {
		t.Errorf("default genome length %d below minimum %d", cfg.Genome.Length, minGenomeLength)
	}
	if cfg.Derived.Tiles != cfg.Grid.Rows*cfg.Grid.Cols {
		t.Error("derived tile count not computed")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "grid:\n  rows: 32\n  cols: 48\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading config file: %v", err)
	}
	if cfg.Grid.Rows != 32 || cfg.Grid.Cols != 48 {
		t.Errorf("file values not applied: got %dx%d", cfg.Grid.Rows, cfg.Grid.Cols)
	}
	// Untouched sections keep their defaults.
	if cfg.Energy.MaxTileEnergy <= 0 {
		t.Error("defaults lost during merge")
	}
}

func TestSanitizeRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
grid:
  rows: -5
  obstacle_preset: volcano
energy:
  max_tile_energy: -100
  diffusion_rate: 7
genome:
  length: 8
  mutation_rate: 42
brain:
  gain_min: 2.0
  gain_max: 0.5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading config file: %v", err)
	}
	if cfg.Grid.Rows < 1 {
		t.Error("negative rows not sanitized")
	}
	if cfg.Grid.ObstaclePreset != "none" {
		t.Errorf("unknown preset not sanitized, got %q", cfg.Grid.ObstaclePreset)
	}
	if cfg.Energy.MaxTileEnergy <= 0 {
		t.Error("negative energy ceiling not sanitized")
	}
	if cfg.Energy.DiffusionRate > 1 {
		t.Error("diffusion rate not clamped to [0,1]")
	}
	if cfg.Genome.Length < minGenomeLength {
		t.Error("undersized genome length not raised to minimum")
	}
	if cfg.Genome.MutationRate > 1 {
		t.Error("mutation rate not clamped")
	}
	if cfg.Brain.GainMin > cfg.Brain.GainMax {
		t.Error("inverted gain band not repaired")
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load("/no/such/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	reread, err := Load(path)
	if err != nil {
		t.Fatalf("re-reading config: %v", err)
	}
	if reread.Grid.Rows != cfg.Grid.Rows || reread.Energy.MaxTileEnergy != cfg.Energy.MaxTileEnergy {
		t.Error("round trip lost values")
	}
}
