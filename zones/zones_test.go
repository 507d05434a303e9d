package zones

import "testing"

func newTestManager() *Manager {
	m := NewManager(16, 16)
	m.Register("east", "East half", func(row, col int) bool { return col >= 8 })
	m.Register("north", "North band", func(row, col int) bool { return row < 4 })
	return m
}

func TestNoActiveZonesAllowsEverywhere(t *testing.T) {
	m := newTestManager()
	if m.HasActiveZones() {
		t.Fatal("no zone was activated")
	}
	if !m.IsInActiveZone(0, 0) || !m.IsInActiveZone(15, 15) {
		t.Error("membership must be allowed everywhere with zero active zones")
	}
}

func TestMembershipUnionOfActiveZones(t *testing.T) {
	m := newTestManager()
	m.SetActive("east", true)
	m.SetActive("north", true)

	cases := []struct {
		row, col int
		want     bool
	}{
		{0, 0, true},   // north only
		{2, 12, true},  // both
		{10, 12, true}, // east only
		{10, 2, false}, // neither
	}
	for _, c := range cases {
		if got := m.IsInActiveZone(c.row, c.col); got != c.want {
			t.Errorf("IsInActiveZone(%d,%d) = %v, want %v", c.row, c.col, got, c.want)
		}
	}
}

func TestSetActiveUnknownIDIgnored(t *testing.T) {
	m := newTestManager()
	m.SetActive("no-such-zone", true)
	if m.HasActiveZones() {
		t.Error("unknown id must not activate anything")
	}
}

func TestValidateReproductionAreaRoles(t *testing.T) {
	m := newTestManager()
	m.SetActive("east", true)

	in := Point{Row: 5, Col: 12}
	out := Point{Row: 5, Col: 2}

	cases := []struct {
		name     string
		req      AreaRequest
		wantRole string
	}{
		{"all inside", AreaRequest{ParentA: in, ParentB: in, Spawn: in}, ""},
		{"parentA outside", AreaRequest{ParentA: out, ParentB: in, Spawn: in}, RoleParentA},
		{"parentB outside", AreaRequest{ParentA: in, ParentB: out, Spawn: in}, RoleParentB},
		{"spawn outside", AreaRequest{ParentA: in, ParentB: in, Spawn: out}, RoleSpawn},
		// ParentA is checked first: its role wins even when everything fails.
		{"all outside", AreaRequest{ParentA: out, ParentB: out, Spawn: out}, RoleParentA},
	}
	for _, c := range cases {
		v := m.ValidateReproductionArea(c.req)
		if c.wantRole == "" {
			if !v.Allowed {
				t.Errorf("%s: expected allowed, got role %q", c.name, v.Role)
			}
			continue
		}
		if v.Allowed {
			t.Errorf("%s: expected rejection", c.name)
			continue
		}
		if v.Role != c.wantRole {
			t.Errorf("%s: expected role %q, got %q", c.name, c.wantRole, v.Role)
		}
		if v.Reason == "" {
			t.Errorf("%s: rejection carries no reason", c.name)
		}
	}
}

func TestValidateAllowsWithoutActiveZones(t *testing.T) {
	m := newTestManager()
	v := m.ValidateReproductionArea(AreaRequest{
		ParentA: Point{Row: 0, Col: 0},
		ParentB: Point{Row: 15, Col: 15},
		Spawn:   Point{Row: 8, Col: 8},
	})
	if !v.Allowed {
		t.Error("validation must pass with zero active zones")
	}
}

func TestPanickingPredicateDegrades(t *testing.T) {
	m := NewManager(8, 8)
	m.Register("broken", "Broken", func(row, col int) bool {
		panic("predicate exploded")
	})
	m.Register("east", "East half", func(row, col int) bool { return col >= 4 })
	m.SetActive("broken", true)
	m.SetActive("east", true)

	// The broken zone contributes nothing; the healthy one still answers.
	if m.IsInActiveZone(0, 0) {
		t.Error("tile covered only by the broken zone must read outside")
	}
	if !m.IsInActiveZone(0, 6) {
		t.Error("healthy zone must keep working next to a broken one")
	}
}

func TestRenderDataIdempotence(t *testing.T) {
	m := newTestManager()
	m.SetActive("east", true)

	a := m.ActiveZoneRenderData()
	b := m.ActiveZoneRenderData()
	if a != b {
		t.Error("unchanged state must return the identical render data object")
	}

	m.SetActive("north", true)
	c := m.ActiveZoneRenderData()
	if c == a {
		t.Error("a mutation must produce a fresh render data object")
	}
	if len(c.Zones) != 2 {
		t.Errorf("expected 2 active zones in render data, got %d", len(c.Zones))
	}
}

func TestRenderGeometryCoversZone(t *testing.T) {
	m := newTestManager()
	m.SetActive("east", true)
	rd := m.ActiveZoneRenderData()
	if len(rd.Zones) != 1 {
		t.Fatalf("expected 1 zone, got %d", len(rd.Zones))
	}
	z := rd.Zones[0]
	// The east half of a 16x16 grid merges into one 16x8 rectangle.
	if len(z.Rects) != 1 {
		t.Fatalf("expected 1 merged rect, got %d", len(z.Rects))
	}
	want := Rect{Row: 0, Col: 8, Rows: 16, Cols: 8}
	if z.Rects[0] != want {
		t.Errorf("expected rect %+v, got %+v", want, z.Rects[0])
	}
	if z.Bounds != want {
		t.Errorf("expected bounds %+v, got %+v", want, z.Bounds)
	}
}

func TestSetDimensionsRederivesPatterns(t *testing.T) {
	m := NewManager(16, 16, BuiltinPatterns([]string{PatternEastHalf}))
	m.SetActive(PatternEastHalf, true)
	if m.IsInActiveZone(0, 7) {
		t.Fatal("col 7 is outside the east half of a 16-wide grid")
	}

	m.SetDimensions(16, 32)
	if m.IsInActiveZone(0, 15) {
		t.Error("col 15 is outside the east half of a 32-wide grid")
	}
	if !m.IsInActiveZone(0, 16) {
		t.Error("col 16 is inside the east half of a 32-wide grid")
	}
}

func TestSetDimensionsInvalidPanics(t *testing.T) {
	m := newTestManager()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for invalid dimensions")
		}
	}()
	m.SetDimensions(0, 16)
}

func TestRegisterReplacePreservesActive(t *testing.T) {
	m := newTestManager()
	m.SetActive("east", true)
	m.Register("east", "East half v2", func(row, col int) bool { return col >= 12 })
	if !m.HasActiveZones() {
		t.Fatal("re-registration must preserve the active flag")
	}
	if m.IsInActiveZone(0, 10) {
		t.Error("replaced predicate must take effect immediately")
	}
	if !m.IsInActiveZone(0, 13) {
		t.Error("replaced predicate must cover its new region")
	}
}
