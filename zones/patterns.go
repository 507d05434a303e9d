package zones

// Built-in pattern ids accepted by BuiltinPatterns.
const (
	PatternEastHalf         = "east-half"
	PatternCornerPatches    = "corner-patches"
	PatternAlternatingBands = "alternating-bands"
	PatternCentralSanctuary = "central-sanctuary"
)

// BuiltinPatterns returns a definePatterns hook registering the named
// built-in zones. Unknown ids are skipped so a stale config entry cannot
// break construction. The hook re-derives predicates from the manager's
// current dimensions, so it stays correct across resizes.
func BuiltinPatterns(ids []string) func(*Manager) {
	return func(m *Manager) {
		rows, cols := m.Dimensions()
		for _, id := range ids {
			switch id {
			case PatternEastHalf:
				m.Register(id, "East half", eastHalf(cols))
			case PatternCornerPatches:
				m.Register(id, "Corner patches", cornerPatches(rows, cols))
			case PatternAlternatingBands:
				m.Register(id, "Alternating bands", alternatingBands())
			case PatternCentralSanctuary:
				m.Register(id, "Central sanctuary", centralSanctuary(rows, cols))
			}
		}
	}
}

func eastHalf(cols int) Predicate {
	return func(row, col int) bool {
		return col >= cols/2
	}
}

// cornerPatches covers a quarter-size square in each corner.
func cornerPatches(rows, cols int) Predicate {
	pr := rows / 4
	pc := cols / 4
	if pr < 1 {
		pr = 1
	}
	if pc < 1 {
		pc = 1
	}
	return func(row, col int) bool {
		inRow := row < pr || row >= rows-pr
		inCol := col < pc || col >= cols-pc
		return inRow && inCol
	}
}

// alternatingBands covers every other 4-row horizontal band.
func alternatingBands() Predicate {
	return func(row, col int) bool {
		return (row/4)%2 == 0
	}
}

// centralSanctuary covers the middle third of the grid.
func centralSanctuary(rows, cols int) Predicate {
	r0, r1 := rows/3, rows-rows/3
	c0, c1 := cols/3, cols-cols/3
	return func(row, col int) bool {
		return row >= r0 && row < r1 && col >= c0 && col < c1
	}
}
