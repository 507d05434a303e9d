package zones

import "fmt"

// SelectionAccess is the capability surface the engine consumes. A concrete
// *Manager satisfies it, but any collaborator may be plugged in. The engine
// always calls through the Policy boundary below rather than this interface
// directly.
type SelectionAccess interface {
	HasActiveZones() bool
	IsInActiveZone(row, col int) bool
	ValidateReproductionArea(req AreaRequest) Validation
}

// Policy decouples the organism engine from a concrete selection manager so
// the engine can run with no zone manager at all. Every delegated call is
// wrapped in an error boundary: a panicking manager is logged once per
// distinct message and resolved to the safe default ("no active zones" for
// queries, "allow all" for validation, "keep the candidates" for filtering).
type Policy struct {
	manager SelectionAccess
	errs    *onceLogger
}

// NewPolicy wraps a selection manager; nil is a valid manager meaning zone
// restrictions are disabled.
func NewPolicy(manager SelectionAccess) *Policy {
	return &Policy{manager: manager, errs: newOnceLogger()}
}

// HasActiveZones reports whether zone restrictions currently apply.
func (p *Policy) HasActiveZones() (active bool) {
	if p.manager == nil {
		return false
	}
	defer p.boundary("HasActiveZones", func() { active = false })
	return p.manager.HasActiveZones()
}

// ValidateArea delegates the reproduction area check, failing open.
func (p *Policy) ValidateArea(req AreaRequest) (v Validation) {
	if p.manager == nil {
		return Validation{Allowed: true}
	}
	defer p.boundary("ValidateArea", func() { v = Validation{Allowed: true} })
	return p.manager.ValidateReproductionArea(req)
}

// FilterSpawnCandidates keeps the candidates inside the active zone union.
// It never turns a non-empty input into an empty result: when nominally
// active zones would eliminate every candidate, the unfiltered input is
// returned instead. Stalling reproduction forever is worse than placing one
// offspring outside a zone.
func (p *Policy) FilterSpawnCandidates(candidates []Point) (out []Point) {
	if p.manager == nil || len(candidates) == 0 {
		return candidates
	}
	defer p.boundary("FilterSpawnCandidates", func() { out = candidates })

	if !p.manager.HasActiveZones() {
		return candidates
	}

	kept := make([]Point, 0, len(candidates))
	for _, c := range candidates {
		if p.manager.IsInActiveZone(c.Row, c.Col) {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return candidates
	}
	return kept
}

// boundary recovers a panicking manager, logs it once per distinct message,
// and installs the caller's safe default.
func (p *Policy) boundary(op string, fallback func()) {
	if r := recover(); r != nil {
		p.errs.log("selection manager failed",
			"op", op, "error", fmt.Sprint(r))
		fallback()
	}
}
