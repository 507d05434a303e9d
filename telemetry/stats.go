// Package telemetry aggregates per-window simulation statistics and writes
// them to structured CSV output.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats summarizes one stats window for CSV output and logging.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	Population      int     `csv:"population"`
	Births          int     `csv:"births"`
	DeathsStarved   int     `csv:"deaths_starved"`
	DeathsOldAge    int     `csv:"deaths_old_age"`
	DeathsCombat    int     `csv:"deaths_combat"`
	DeathsOther     int     `csv:"deaths_other"`
	MateChoices     int     `csv:"mate_choices"`
	MateSimMean     float64 `csv:"mate_sim_mean"`
	BlockedNoRoom   int     `csv:"blocked_no_room"`
	BlockedZone     int     `csv:"blocked_zone"`
	BlockedChance   int     `csv:"blocked_chance"`
	EnergyMean      float64 `csv:"energy_mean"`
	EnergyStdDev    float64 `csv:"energy_stddev"`
	EnergyP10       float64 `csv:"energy_p10"`
	EnergyP50       float64 `csv:"energy_p50"`
	EnergyP90       float64 `csv:"energy_p90"`
	AgeMean         float64 `csv:"age_mean"`
	AgeP50          float64 `csv:"age_p50"`
	FieldMean       float64 `csv:"field_mean"`
	ActiveEvents    int     `csv:"active_events"`
}

// LogValue implements slog.LogValuer so a window can be logged as one
// structured record.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_end", s.WindowEndTick),
		slog.Int("population", s.Population),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.DeathsStarved+s.DeathsOldAge+s.DeathsCombat+s.DeathsOther),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("field_mean", s.FieldMean),
		slog.Int("active_events", s.ActiveEvents),
	)
}

// distribution computes mean, stddev and the 10/50/90 percentiles of a
// sample. Empty samples yield zeros.
func distribution(values []float64) (mean, stddev, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		stddev = stat.StdDev(sorted, nil)
	}
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return mean, stddev, p10, p50, p90
}
