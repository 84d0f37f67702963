package keyboard

import "sort"

// Item is one reaction counter to render.
type Item struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Options controls how reaction cells are laid out.
type Options struct {
	Columns int
	Padding bool
	// Blank makes every cell inert, for previews where clicks are not wired.
	Blank bool
	// SortByCount orders cells by descending count instead of input order.
	SortByCount bool
}

// Labels wraps plain labels as zero-count items
func Labels(labels ...string) []Item {
	items := make([]Item, len(labels))
	for i, l := range labels {
		items[i] = Item{Label: l}
	}
	return items
}

// MakeCells turns items into displayable cells
func MakeCells(items []Item, blank, sortByCount bool) []Cell {
	if sortByCount {
		items = append([]Item(nil), items...)
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Count > items[j].Count
		})
	}

	cells := make([]Cell, 0, len(items))
	for _, it := range items {
		text := it.Label
		if it.Count > 0 {
			text += " " + FormatCount(it.Count)
		}
		action := ButtonAction(it.Label)
		if blank {
			action = InertAction
		}
		cells = append(cells, Cell{Text: text, Action: action})
	}
	return cells
}

// Paginate splits cells into rows of at most columns cells. With padding, the last
// row of a multi-row grid is filled up to the full width with inert cells; a lone
// short row is left as is.
func Paginate(cells []Cell, columns int, padding bool) Grid {
	columns = clampColumns(columns)

	var grid Grid
	for len(cells) > 0 {
		n := columns
		if len(cells) < n {
			n = len(cells)
		}
		row := make(Row, n, columns)
		copy(row, cells[:n])
		if padding && n < columns && len(grid) >= 1 {
			for len(row) < columns {
				row = append(row, Filler())
			}
		}
		grid = append(grid, row)
		cells = cells[n:]
	}
	return grid
}

// Render lays out items as a reactions grid
func Render(items []Item, opts Options) Grid {
	return Paginate(MakeCells(items, opts.Blank, opts.SortByCount), opts.Columns, opts.Padding)
}

func clampColumns(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxColumns {
		return MaxColumns
	}
	return n
}
