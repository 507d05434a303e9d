// Package zones implements the declarative reproduction-zone catalog and the
// fault-tolerant facade the organism engine consults before breeding.
package zones

import (
	"fmt"
	"log/slog"
	"sync"
)

// Point is a tile coordinate.
type Point struct {
	Row, Col int
}

// Rect is a tile-aligned rectangle (half-open extents).
type Rect struct {
	Row, Col   int
	Rows, Cols int
}

// Predicate reports zone membership for a tile. Predicates may be supplied
// by external callers; a panicking predicate degrades that zone to "outside"
// for the offending tile instead of aborting the tick.
type Predicate func(row, col int) bool

// Zone is one named region with an explicit active flag and lazily cached
// geometry.
type Zone struct {
	ID       string
	Label    string
	Contains Predicate

	active   bool
	revision uint64 // bumped on toggle, resize, or predicate change
}

// Geometry is the cached covering of a zone: merged rectangle runs plus a
// bounding box. Revision records the zone revision it was built against.
type Geometry struct {
	Rects    []Rect
	Bounds   Rect
	Revision uint64
}

// Manager is the selection manager: a state machine over zones where each
// zone toggles between inactive and active, with geometry recomputed lazily
// after invalidation.
type Manager struct {
	rows, cols int

	zones []*Zone // registration order
	byID  map[string]*Zone

	geo map[string]*Geometry

	hooks []func(*Manager) // re-invoked after every resize

	// Render data cache for the idempotence contract: unchanged state must
	// return the identical object.
	renderData *RenderData
	renderRev  uint64
	mutations  uint64 // monotonic, bumped on any zone/dimension mutation

	errs *onceLogger
}

// NewManager creates a selection manager for a rows x cols grid and invokes
// each definePatterns hook once.
func NewManager(rows, cols int, hooks ...func(*Manager)) *Manager {
	m := &Manager{
		rows:  rows,
		cols:  cols,
		byID:  make(map[string]*Zone),
		geo:   make(map[string]*Geometry),
		hooks: hooks,
		errs:  newOnceLogger(),
	}
	for _, hook := range hooks {
		hook(m)
	}
	return m
}

// Register adds a zone. Re-registering an id replaces the predicate and
// invalidates the cached geometry; the active flag is preserved.
func (m *Manager) Register(id, label string, contains Predicate) {
	if z, ok := m.byID[id]; ok {
		z.Label = label
		z.Contains = contains
		m.invalidate(z)
		return
	}
	z := &Zone{ID: id, Label: label, Contains: contains}
	m.zones = append(m.zones, z)
	m.byID[id] = z
	m.mutations++
}

// SetActive toggles a zone. Unknown ids are ignored. Deactivation
// invalidates the zone's geometry; reactivation recomputes it lazily.
func (m *Manager) SetActive(id string, active bool) {
	z, ok := m.byID[id]
	if !ok || z.active == active {
		return
	}
	z.active = active
	m.invalidate(z)
}

// SetDimensions resizes the grid, invalidates every zone, and re-invokes the
// pattern hooks so dimension-relative zones re-derive their predicates.
func (m *Manager) SetDimensions(rows, cols int) {
	if rows < 1 || cols < 1 {
		panic(fmt.Sprintf("zones: invalid dimensions %dx%d", rows, cols))
	}
	m.rows, m.cols = rows, cols
	for _, z := range m.zones {
		m.invalidate(z)
	}
	for _, hook := range m.hooks {
		hook(m)
	}
}

// invalidate bumps the zone revision; the geometry entry stays in the cache
// and is detected as stale by revision mismatch (O(1) invalidation).
func (m *Manager) invalidate(z *Zone) {
	z.revision++
	m.mutations++
}

// HasActiveZones reports whether any zone is currently active.
func (m *Manager) HasActiveZones() bool {
	for _, z := range m.zones {
		if z.active {
			return true
		}
	}
	return false
}

// IsInActiveZone reports tile membership in the active zone union. With zero
// active zones, membership is allowed everywhere.
func (m *Manager) IsInActiveZone(row, col int) bool {
	if !m.HasActiveZones() {
		return true
	}
	for _, z := range m.zones {
		if z.active && m.safeContains(z, row, col) {
			return true
		}
	}
	return false
}

// safeContains evaluates a predicate under a panic boundary. A failing
// predicate shrinks its own zone's geometry rather than aborting the tick;
// the failure is logged once per distinct message.
func (m *Manager) safeContains(z *Zone, row, col int) (in bool) {
	defer func() {
		if r := recover(); r != nil {
			m.errs.log("zone predicate failed",
				"zone", z.ID, "error", fmt.Sprint(r))
			in = false
		}
	}()
	if z.Contains == nil {
		return false
	}
	return z.Contains(row, col)
}

// AreaRequest names the points checked before a breeding attempt.
type AreaRequest struct {
	ParentA Point
	ParentB Point
	Spawn   Point
}

// Validation is the outcome of an area check. Role and Reason are set only
// when Allowed is false.
type Validation struct {
	Allowed bool
	Role    string
	Reason  string
}

// Fixed rejection reasons per role.
const (
	RoleParentA = "parentA"
	RoleParentB = "parentB"
	RoleSpawn   = "spawn"

	reasonParentA = "first parent outside active reproduction zones"
	reasonParentB = "second parent outside active reproduction zones"
	reasonSpawn   = "spawn tile outside active reproduction zones"
)

// ValidateReproductionArea checks both parents, then the spawn tile, against
// the active zone union. A failing parent short-circuits before the spawn
// tile is evaluated.
func (m *Manager) ValidateReproductionArea(req AreaRequest) Validation {
	if !m.HasActiveZones() {
		return Validation{Allowed: true}
	}
	if !m.IsInActiveZone(req.ParentA.Row, req.ParentA.Col) {
		return Validation{Role: RoleParentA, Reason: reasonParentA}
	}
	if !m.IsInActiveZone(req.ParentB.Row, req.ParentB.Col) {
		return Validation{Role: RoleParentB, Reason: reasonParentB}
	}
	if !m.IsInActiveZone(req.Spawn.Row, req.Spawn.Col) {
		return Validation{Role: RoleSpawn, Reason: reasonSpawn}
	}
	return Validation{Allowed: true}
}

// geometry returns the zone's cached covering, rebuilding it when the cached
// revision is stale.
func (m *Manager) geometry(z *Zone) *Geometry {
	if g, ok := m.geo[z.ID]; ok && g.Revision == z.revision {
		return g
	}
	g := m.buildGeometry(z)
	m.geo[z.ID] = g
	return g
}

// buildGeometry scans the grid, merging horizontal runs into rectangles and
// extending a rectangle downward when the next row repeats the same span.
func (m *Manager) buildGeometry(z *Zone) *Geometry {
	g := &Geometry{Revision: z.revision}

	// open maps col-span start to the rect still growing downward.
	type span struct{ col, cols int }
	var prev map[span]*Rect
	var rects []*Rect

	minRow, minCol := m.rows, m.cols
	maxRow, maxCol := -1, -1

	for row := 0; row < m.rows; row++ {
		current := make(map[span]*Rect)
		col := 0
		for col < m.cols {
			if !m.safeContains(z, row, col) {
				col++
				continue
			}
			start := col
			for col < m.cols && m.safeContains(z, row, col) {
				col++
			}
			sp := span{col: start, cols: col - start}

			if r, ok := prev[sp]; ok && r.Row+r.Rows == row {
				r.Rows++
				current[sp] = r
			} else {
				r := &Rect{Row: row, Col: start, Rows: 1, Cols: sp.cols}
				rects = append(rects, r)
				current[sp] = r
			}

			if row < minRow {
				minRow = row
			}
			if row > maxRow {
				maxRow = row
			}
			if start < minCol {
				minCol = start
			}
			if col-1 > maxCol {
				maxCol = col - 1
			}
		}
		prev = current
	}

	g.Rects = make([]Rect, len(rects))
	for i, r := range rects {
		g.Rects[i] = *r
	}

	if maxRow >= 0 {
		g.Bounds = Rect{
			Row:  minRow,
			Col:  minCol,
			Rows: maxRow - minRow + 1,
			Cols: maxCol - minCol + 1,
		}
	}
	return g
}

// ZoneRenderData is one active zone's display payload.
type ZoneRenderData struct {
	ID     string
	Label  string
	Rects  []Rect
	Bounds Rect
}

// RenderData is the combined payload handed to the rendering collaborator.
type RenderData struct {
	Zones []ZoneRenderData
}

// ActiveZoneRenderData returns cached geometry for every active zone.
// Calling it twice without an intervening zone or dimension mutation returns
// the identical object.
func (m *Manager) ActiveZoneRenderData() *RenderData {
	if m.renderData != nil && m.renderRev == m.mutations {
		return m.renderData
	}

	rd := &RenderData{}
	for _, z := range m.zones {
		if !z.active {
			continue
		}
		g := m.geometry(z)
		rd.Zones = append(rd.Zones, ZoneRenderData{
			ID:     z.ID,
			Label:  z.Label,
			Rects:  g.Rects,
			Bounds: g.Bounds,
		})
	}
	m.renderData = rd
	m.renderRev = m.mutations
	return rd
}

// Dimensions returns the current grid size.
func (m *Manager) Dimensions() (rows, cols int) {
	return m.rows, m.cols
}

// onceLogger suppresses repeats of a distinct message while still surfacing
// new distinct failures.
type onceLogger struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newOnceLogger() *onceLogger {
	return &onceLogger{seen: make(map[string]bool)}
}

func (l *onceLogger) log(msg string, args ...any) {
	key := msg + "|" + fmt.Sprint(args...)
	l.mu.Lock()
	dup := l.seen[key]
	if !dup {
		l.seen[key] = true
	}
	l.mu.Unlock()
	if !dup {
		slog.Warn(msg, args...)
	}
}
