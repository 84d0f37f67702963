// Package keyboard lays out reaction counters and attribution links as a bounded
// grid of buttons. It knows nothing about storage or the platform client; callers
// turn a Grid into the platform's native markup.
package keyboard

import "strings"

const (
	// MaxRows and MaxColumns are the platform's hard ceilings for one keyboard.
	MaxRows    = 10
	MaxColumns = 10

	// InertAction marks cells whose click does nothing.
	InertAction = "~"

	// FillerText is the label of padding cells.
	FillerText = "."

	buttonActionPrefix = "button:"
)

// Cell is one button of the grid. Exactly one of Action, URL or SwitchInline
// is set.
type Cell struct {
	Text   string `json:"text"`
	Action string `json:"callback_data,omitempty"`
	URL    string `json:"url,omitempty"`
	// SwitchInline opens inline mode in a chat the user picks, prefilled with
	// this query
	SwitchInline string `json:"switch_inline_query,omitempty"`
}

// Row is one line of cells.
type Row []Cell

// Grid is the full keyboard, top row first. A nil Grid means "no markup".
type Grid []Row

// Filler returns a padding cell
func Filler() Cell {
	return Cell{Text: FillerText, Action: InertAction}
}

// IsFiller reports whether c is a padding cell
func (c Cell) IsFiller() bool {
	return c.Text == FillerText && c.Action == InertAction && c.URL == "" && c.SwitchInline == ""
}

// ButtonAction is the click action of the reaction button with the given label
func ButtonAction(label string) string {
	return buttonActionPrefix + label
}

// ParseAction extracts the reaction label from a click action
func ParseAction(action string) (string, bool) {
	if !strings.HasPrefix(action, buttonActionPrefix) {
		return "", false
	}
	label := action[len(buttonActionPrefix):]
	return label, label != ""
}

// Empty reports whether the grid has no cells at all
func (g Grid) Empty() bool {
	for _, r := range g {
		if len(r) > 0 {
			return false
		}
	}
	return true
}

// Cells returns all cells in reading order
func (g Grid) Cells() []Cell {
	var out []Cell
	for _, r := range g {
		out = append(out, r...)
	}
	return out
}

// Texts returns the cell labels row by row. Handy for logs and tests.
func (g Grid) Texts() [][]string {
	out := make([][]string, len(g))
	for i, r := range g {
		out[i] = make([]string, len(r))
		for j, c := range r {
			out[i][j] = c.Text
		}
	}
	return out
}
