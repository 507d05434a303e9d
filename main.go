package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pthm-cable/microcosm/config"
	"github.com/pthm-cable/microcosm/sim"
	"github.com/pthm-cable/microcosm/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = run until the world is inert)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot (empty = config value)")
	logStats := flag.Bool("log-stats", false, "Log window stats via slog")
	zoneList := flag.String("zones", "", "Comma-separated zone pattern ids to activate at start")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	dir := cfg.Telemetry.OutputDir
	if *outputDir != "" {
		dir = *outputDir
	}
	output, err := telemetry.NewOutputManager(dir)
	if err != nil {
		slog.Error("failed to set up output", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
		os.Exit(1)
	}

	collector := telemetry.NewCollector(cfg.Telemetry.WindowTicks)
	engine := sim.NewEngine(cfg, rngSeed, sim.Options{
		Stats:  collector,
		Logger: logger,
	})

	for _, id := range splitList(*zoneList) {
		engine.Zones().SetActive(id, true)
	}

	slog.Info("starting simulation",
		"seed", rngSeed,
		"grid", cfg.Grid.Rows*cfg.Grid.Cols,
		"population", engine.Population(),
		"max_ticks", *maxTicks,
		"run_id", output.RunID(),
	)

	start := time.Now()
	births, deaths := 0, 0
	for engine.Step() {
		if collector.ShouldFlush(engine.Tick()) {
			stats := collector.Flush(engine.Tick(), engine.Population(),
				engine.OrganismEnergies(), engine.OrganismAges(),
				engine.FieldMean(), len(engine.Events()))
			births += stats.Births
			deaths += stats.DeathsStarved + stats.DeathsOldAge + stats.DeathsCombat + stats.DeathsOther
			if err := output.WriteStats(stats); err != nil {
				slog.Error("failed to write stats", "error", err)
				os.Exit(1)
			}
			if *logStats {
				slog.Info("window", "stats", stats)
			}
		}
		if *maxTicks > 0 && engine.Tick() >= int64(*maxTicks) {
			break
		}
	}

	elapsed := time.Since(start)
	slog.Info("simulation finished",
		"ticks", humanize.Comma(engine.Tick()),
		"births", humanize.Comma(int64(births)),
		"deaths", humanize.Comma(int64(deaths)),
		"population", engine.Population(),
		"elapsed", elapsed.Round(time.Millisecond).String(),
		"ticks_per_sec", float64(engine.Tick())/elapsed.Seconds(),
	)
}

// splitList splits a comma-separated flag value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
