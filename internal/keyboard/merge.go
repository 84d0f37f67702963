package keyboard

// Stack concatenates grids top to bottom and truncates the result to MaxRows.
func Stack(grids ...Grid) Grid {
	var out Grid
	for _, g := range grids {
		for _, r := range g {
			if len(out) == MaxRows {
				return out
			}
			if len(r) > 0 {
				out = append(out, r)
			}
		}
	}
	return out
}

// Fluid flattens every grid in rest into one sequence, drops filler cells and
// paginates again, so a trailing link cell fills the last partial row of
// reactions instead of opening its own. Credits stay a separate leading row.
func Fluid(credits Grid, rest []Grid, columns int, padding bool) Grid {
	var cells []Cell
	for _, g := range rest {
		for _, c := range g.Cells() {
			if !c.IsFiller() {
				cells = append(cells, c)
			}
		}
	}
	return Stack(credits, Paginate(cells, columns, padding))
}

// StackFragments renders fragments in order and stacks them.
func StackFragments(fragments ...Fragment) Grid {
	grids := make([]Grid, 0, len(fragments))
	for _, f := range fragments {
		if f != nil {
			grids = append(grids, f.Grid())
		}
	}
	return Stack(grids...)
}
