// internal/receipt/document.go
package receipt

import (
	"strings"

	"printer-service/internal/escpos"
)

// LineKind distinguishes document lines
type LineKind int

const (
	LineText LineKind = iota
	LineSeparator
	LineFeed
)

// Segment is a run of text sharing one emphasis
type Segment struct {
	Text string
	Bold bool
}

// Line is one logical receipt line
type Line struct {
	Kind     LineKind
	Align    escpos.Alignment
	Size     escpos.CharSize
	Segments []Segment
	Feed     int
}

// Text returns the concatenated segment text
func (l Line) Text() string {
	if len(l.Segments) == 1 {
		return l.Segments[0].Text
	}
	var sb strings.Builder
	for _, seg := range l.Segments {
		sb.WriteString(seg.Text)
	}
	return sb.String()
}

// Document is the renderer-neutral form of a receipt
type Document struct {
	Lines []Line
	Cut   bool
}

// Text appends a single-segment line
func (d *Document) Text(align escpos.Alignment, bold bool, text string) {
	d.Lines = append(d.Lines, Line{
		Kind:     LineText,
		Align:    align,
		Segments: []Segment{{Text: text, Bold: bold}},
	})
}

// Title appends a centered bold line in the given size
func (d *Document) Title(size escpos.CharSize, text string) {
	d.Lines = append(d.Lines, Line{
		Kind:     LineText,
		Align:    escpos.AlignCenter,
		Size:     size,
		Segments: []Segment{{Text: text, Bold: true}},
	})
}

// Segments appends a left-aligned line built from several segments
func (d *Document) Segments(segs ...Segment) {
	d.Lines = append(d.Lines, Line{
		Kind:     LineText,
		Align:    escpos.AlignLeft,
		Segments: segs,
	})
}

// Separator appends a dashed rule across the paper
func (d *Document) Separator() {
	d.Lines = append(d.Lines, Line{Kind: LineSeparator})
}

// Feed appends n blank lines
func (d *Document) Feed(n int) {
	if n <= 0 {
		return
	}
	d.Lines = append(d.Lines, Line{Kind: LineFeed, Feed: n})
}

// PlainText returns the document as text rows, used for previews and logs
func (d *Document) PlainText(columns int) []string {
	rows := make([]string, 0, len(d.Lines))
	for _, l := range d.Lines {
		switch l.Kind {
		case LineSeparator:
			rows = append(rows, separator(columns))
		case LineFeed:
			for i := 0; i < l.Feed; i++ {
				rows = append(rows, "")
			}
		default:
			rows = append(rows, l.Text())
		}
	}
	return rows
}
