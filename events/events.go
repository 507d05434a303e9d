// Package events generates randomized environmental events consumed by the
// energy field (regeneration scaling) and by genomes (resistance
// multipliers).
package events

import (
	"math/rand"

	"github.com/pthm-cable/microcosm/config"
)

// Event types. The string values are the keys genomes resolve resistance
// loci by; unknown strings degrade to neutral there.
const (
	Flood    = "flood"
	Drought  = "drought"
	Heatwave = "heatwave"
	Coldwave = "coldwave"
)

// types is the spawn catalog, in fixed order for deterministic selection.
var types = []string{Flood, Drought, Heatwave, Coldwave}

// RegenSign returns +1 for event types that accelerate tile regeneration and
// -1 for those that suppress it. Unknown types are neutral.
func RegenSign(eventType string) float64 {
	switch eventType {
	case Flood:
		return 1
	case Drought, Heatwave, Coldwave:
		return -1
	default:
		return 0
	}
}

// Event is one ephemeral environmental disturbance over a tile rectangle.
type Event struct {
	Type     string
	Strength float64 // [0,1]
	Duration int     // remaining ticks
	Row, Col int     // top-left corner
	Rows     int     // extent
	Cols     int
}

// Covers reports whether the event rectangle contains the tile.
func (e *Event) Covers(row, col int) bool {
	return row >= e.Row && row < e.Row+e.Rows &&
		col >= e.Col && col < e.Col+e.Cols
}

// Manager owns the active event list. All randomness flows through the rng
// handed to Update so seeded runs replay exactly.
type Manager struct {
	rows, cols int
	cfg        config.EventsConfig
	active     []Event
}

// NewManager creates an event manager for a rows x cols grid.
func NewManager(rows, cols int, cfg config.EventsConfig) *Manager {
	return &Manager{rows: rows, cols: cols, cfg: cfg}
}

// Active returns the live events. The slice is owned by the manager; callers
// must not retain it across ticks.
func (m *Manager) Active() []Event {
	return m.active
}

// Update expires lapsed events and probabilistically spawns a new one,
// bounded by the configured concurrent cap.
func (m *Manager) Update(rng *rand.Rand) {
	kept := m.active[:0]
	for _, e := range m.active {
		e.Duration--
		if e.Duration > 0 {
			kept = append(kept, e)
		}
	}
	m.active = kept

	if len(m.active) >= m.cfg.MaxActive {
		return
	}
	if rng.Float64() >= m.cfg.SpawnChance {
		return
	}
	m.active = append(m.active, m.spawn(rng))
}

// spawn draws a new event with bounded area, duration and strength.
func (m *Manager) spawn(rng *rand.Rand) Event {
	maxRows := boundedExtent(m.rows, m.cfg.MaxAreaFrac)
	maxCols := boundedExtent(m.cols, m.cfg.MaxAreaFrac)

	rows := 1 + rng.Intn(maxRows)
	cols := 1 + rng.Intn(maxCols)

	spread := m.cfg.MaxDuration - m.cfg.MinDuration
	duration := m.cfg.MinDuration
	if spread > 0 {
		duration += rng.Intn(spread + 1)
	}

	return Event{
		Type:     types[rng.Intn(len(types))],
		Strength: rng.Float64(),
		Duration: duration,
		Row:      rng.Intn(m.rows - rows + 1),
		Col:      rng.Intn(m.cols - cols + 1),
		Rows:     rows,
		Cols:     cols,
	}
}

// boundedExtent caps an event edge at frac of the grid edge, floor 1.
func boundedExtent(edge int, frac float64) int {
	n := int(float64(edge) * frac)
	if n < 1 {
		n = 1
	}
	if n > edge {
		n = edge
	}
	return n
}
