// internal/receipt/table.go
package receipt

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"printer-service/internal/escpos"
	"printer-service/internal/layout"
)

// item table column order
const (
	colNo = iota
	colDetails
	colNumber
	colQty
	colRate
	colAmount
)

var tableHeadings = []string{"No.", "Details", "Number", "Qty", "Rate", "Amount"}

var tableWidths = map[int][]int{
	29: {2, 7, 6, 3, 5, 6},
	32: {2, 8, 7, 3, 6, 6},
	44: {3, 11, 11, 4, 7, 8},
	48: {3, 12, 12, 5, 8, 8},
}

// itemColumns returns the table layout for a paper. Unknown widths scale the
// 44 column partition.
func itemColumns(columns int) []layout.Column {
	widths, ok := tableWidths[columns]
	if !ok {
		widths = scaleWidths(tableWidths[44], columns)
	}

	cols := make([]layout.Column, len(widths))
	for i, w := range widths {
		cols[i] = layout.Column{Width: w, Align: escpos.AlignLeft}
	}
	cols[colQty].Align = escpos.AlignRight
	cols[colRate].Align = escpos.AlignRight
	cols[colAmount].Align = escpos.AlignRight
	for _, i := range []int{colNo, colQty, colRate, colAmount} {
		cols[i].NoWrap = true
	}
	return cols
}

func scaleWidths(base []int, columns int) []int {
	out := make([]int, len(base))
	used := 0
	for i, w := range base {
		out[i] = w * columns / 44
		if out[i] < 1 {
			out[i] = 1
		}
		used += out[i]
	}
	// the details column absorbs the rounding
	out[colDetails] += columns - used
	if out[colDetails] < 1 {
		out[colDetails] = 1
	}
	return out
}

// headingRow renders the column titles on a single row
func headingRow(cols []layout.Column) string {
	row := ""
	for i, col := range cols {
		row += layout.Pad(tableHeadings[i], col.Width, col.Align)
	}
	return row
}

// itemRows lays out one item. The first row carries the numeric columns,
// continuation rows only the wrapped name and descriptor. Numbers are never
// split; when they do not fit beside the text they move to a lower row.
func itemRows(cols []layout.Column, no int, name string, desc []string, qty int, price decimal.Decimal) []string {
	return layout.ComposeRows(cols, []layout.Cell{
		{strconv.Itoa(no)},
		{name},
		desc,
		{layout.FormatQty(qty)},
		{layout.FormatMoney(price)},
		{layout.FormatMoney(layout.LineAmount(qty, price))},
	})
}

// totalSegments renders a label with bold quantity and amount under the
// matching columns. The amount may borrow the rate column.
func totalSegments(cols []layout.Column, label string, qty int, amount decimal.Decimal, bold bool) []Segment {
	labelW := cols[colNo].Width + cols[colDetails].Width + cols[colNumber].Width
	q := layout.FormatQty(qty)
	a := layout.FormatMoney(amount)

	return []Segment{
		{Text: layout.PadRight(label, labelW)},
		{Text: fit(q, cols[colQty].Width), Bold: bold},
		{Text: fit(a, cols[colRate].Width+cols[colAmount].Width), Bold: bold},
	}
}

// fit right-aligns s in width without ever cutting it
func fit(s string, width int) string {
	if utf8.RuneCountInString(s) >= width {
		return s
	}
	return layout.PadLeft(s, width)
}

func validateItem(no, qty int, price decimal.Decimal) error {
	if qty < 0 {
		return fmt.Errorf("item %d: negative quantity %d", no, qty)
	}
	if price.IsNegative() {
		return fmt.Errorf("item %d: negative price %s", no, price.String())
	}
	return nil
}
