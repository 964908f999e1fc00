// internal/layout/columns.go
package layout

import (
	"strings"
	"unicode/utf8"

	"printer-service/internal/escpos"
)

// Column is one fixed-width field of a table row
type Column struct {
	Width int
	Align escpos.Alignment
	// NoWrap keeps every value on a single row. A value wider than the
	// column spills left into blank space instead of being split.
	NoWrap bool
}

// Cell is the content of one column. Each entry is wrapped separately.
type Cell []string

// PadRight left-justifies s in width runes, truncating if needed
func PadRight(s string, width int) string {
	s = Truncate(s, width)
	return s + strings.Repeat(" ", width-utf8.RuneCountInString(s))
}

// PadLeft right-justifies s in width runes, truncating if needed
func PadLeft(s string, width int) string {
	s = Truncate(s, width)
	return strings.Repeat(" ", width-utf8.RuneCountInString(s)) + s
}

// PadCenter centers s in width runes, truncating if needed
func PadCenter(s string, width int) string {
	s = Truncate(s, width)
	gap := width - utf8.RuneCountInString(s)
	left := gap / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
}

// Pad justifies s inside width according to align
func Pad(s string, width int, align escpos.Alignment) string {
	switch align {
	case escpos.AlignRight:
		return PadLeft(s, width)
	case escpos.AlignCenter:
		return PadCenter(s, width)
	default:
		return PadRight(s, width)
	}
}

// TotalWidth sums the column widths
func TotalWidth(columns []Column) int {
	total := 0
	for _, c := range columns {
		total += c.Width
	}
	return total
}

// ComposeRows lays cells out in columns. Every line of a wrapping cell is
// wrapped to its column width and the row grows to the tallest cell; shorter
// columns are padded with blanks on the continuation rows. Missing cells are
// blank.
//
// Adjacent NoWrap columns form a group placed right to left with at least one
// blank between values. A group that does not fit on its row moves down to
// the first row where it does, adding a row if needed.
func ComposeRows(columns []Column, cells []Cell) []string {
	starts := make([]int, len(columns))
	total := 0
	for i, col := range columns {
		starts[i] = total
		total += col.Width
	}

	grid := [][]rune{blankRunes(total)}
	grow := func(n int) {
		for len(grid) < n {
			grid = append(grid, blankRunes(total))
		}
	}

	for i, col := range columns {
		if col.NoWrap || i >= len(cells) {
			continue
		}
		var stack []string
		for _, line := range cells[i] {
			stack = append(stack, WrapText(line, col.Width)...)
		}
		grow(len(stack))
		for r, text := range stack {
			copy(grid[r][starts[i]:], []rune(Pad(text, col.Width, col.Align)))
		}
	}

	groups := noWrapGroups(columns)
	for g := len(groups) - 1; g >= 0; g-- {
		group := groups[g]
		depth := 0
		for _, i := range group {
			if i < len(cells) && len(cells[i]) > depth {
				depth = len(cells[i])
			}
		}

		row := 0
		for k := 0; k < depth; k++ {
			values := make([]string, len(group))
			for j, i := range group {
				if i < len(cells) && k < len(cells[i]) {
					values[j] = cells[i][k]
				}
			}
			if row < k {
				row = k
			}
			for {
				grow(row + 1)
				if placeGroup(grid[row], columns, starts, group, values) {
					break
				}
				if isBlank(grid[row], 0, len(grid[row])) {
					// wider than the paper: printed whole
					joined := strings.Join(nonEmpty(values), " ")
					if utf8.RuneCountInString(joined) <= total {
						joined = PadLeft(joined, total)
					}
					grid[row] = []rune(joined)
					break
				}
				row++
			}
			row++
		}
	}

	rows := make([]string, len(grid))
	for r, line := range grid {
		rows[r] = string(line)
	}
	return rows
}

// noWrapGroups returns runs of adjacent NoWrap column indexes
func noWrapGroups(columns []Column) [][]int {
	var groups [][]int
	var run []int
	for i, col := range columns {
		if col.NoWrap {
			run = append(run, i)
			continue
		}
		if len(run) > 0 {
			groups = append(groups, run)
			run = nil
		}
	}
	if len(run) > 0 {
		groups = append(groups, run)
	}
	return groups
}

// placeGroup writes one value per group column onto line, right to left.
// It reports false, leaving line untouched, when a value would overwrite
// text or touch its neighbour.
func placeGroup(line []rune, columns []Column, starts, group []int, values []string) bool {
	type span struct {
		at   int
		text []rune
	}

	last := group[len(group)-1]
	limit := starts[last] + columns[last].Width
	spans := make([]span, 0, len(group))

	for j := len(group) - 1; j >= 0; j-- {
		i := group[j]
		text := []rune(values[j])
		if len(text) == 0 {
			continue
		}

		width := columns[i].Width
		end := starts[i] + width
		var at int
		switch {
		case end <= limit && len(text) <= width:
			gap := width - len(text)
			switch columns[i].Align {
			case escpos.AlignRight:
				at = starts[i] + gap
			case escpos.AlignCenter:
				at = starts[i] + gap/2
			default:
				at = starts[i]
			}
		default:
			if end > limit {
				end = limit
			}
			at = end - len(text)
		}

		if at < 0 || !isBlank(line, at-1, at+len(text)) {
			return false
		}
		spans = append(spans, span{at: at, text: text})
		limit = at - 1
	}

	for _, s := range spans {
		copy(line[s.at:], s.text)
	}
	return true
}

func isBlank(line []rune, from, to int) bool {
	if from < 0 {
		from = 0
	}
	if to > len(line) {
		to = len(line)
	}
	for p := from; p < to; p++ {
		if line[p] != ' ' {
			return false
		}
	}
	return true
}

func blankRunes(n int) []rune {
	return []rune(strings.Repeat(" ", n))
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// FillBetween places left and right on one row of the given width, separated
// by at least one space.
func FillBetween(left, right string, columns int) string {
	gap := columns - (utf8.RuneCountInString(left) + utf8.RuneCountInString(right))
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// Separator returns a dashed rule spanning columns
func Separator(columns int) string {
	if columns <= 0 {
		return ""
	}
	return strings.Repeat("-", columns)
}
