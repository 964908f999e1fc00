package layout

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printer-service/internal/escpos"
)

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{"short input is trimmed", "  Lucky Draw  ", 20, []string{"Lucky Draw"}},
		{"exact fit", "abcdef", 6, []string{"abcdef"}},
		{"empty", "", 10, []string{""}},
		{"greedy", "one two three four", 9, []string{"one two", "three", "four"}},
		{"hard split", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"hard split mid sentence", "go abcdefgh x", 4, []string{"go", "abcd", "efgh", "x"}},
		{"runes not bytes", "ééééé", 5, []string{"ééééé"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WrapText(tt.text, tt.width))
		})
	}
}

func TestWrapTextKeepsEveryCharacter(t *testing.T) {
	text := "Mega Jackpot Special Edition 2024 superlongwordwithoutspaces"
	for width := 1; width <= 20; width++ {
		lines := WrapText(text, width)
		for _, l := range lines {
			assert.LessOrEqual(t, utf8.RuneCountInString(l), width)
		}
		assert.Equal(t,
			strings.ReplaceAll(text, " ", ""),
			strings.ReplaceAll(strings.Join(lines, ""), " ", ""),
			"width %d", width)
	}
}

func TestWrapTextShortIsIdempotent(t *testing.T) {
	for _, s := range []string{"a", " ab ", "Lucky", "x y z"} {
		lines := WrapText(s, 10)
		require.Len(t, lines, 1)
		assert.Equal(t, strings.TrimSpace(s), lines[0])
		assert.Equal(t, lines, WrapText(lines[0], 10))
	}
}

func TestDescLines(t *testing.T) {
	tests := []struct {
		name string
		desc string
		opts DescOptions
		want []string
	}{
		{"pairs", "12,34,56", DescOptions{}, []string{"12 , 34", "56"}},
		{"even", "1,2,3,4", DescOptions{}, []string{"1 , 2", "3 , 4"}},
		{"spaces trimmed", " 7 , 8 ", DescOptions{}, []string{"7 , 8"}},
		{"three per line", "1,2,3,4", DescOptions{PerLine: 3}, []string{"1 , 2 , 3", "4"}},
		{"plain short", "1234", DescOptions{}, []string{"1234"}},
		{"plain long truncated", "Weekend bonus pick", DescOptions{}, []string{"Weekend"}},
		{"plain long kept", "Weekend bonus pick", DescOptions{KeepOverflow: true}, []string{"Weekend", "bonus pick"}},
		{"empty", "", DescOptions{}, []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DescLines(tt.desc, 11, tt.opts))
		})
	}
}

func TestDescLinesGroupsTwoPerLine(t *testing.T) {
	lines := DescLines("01,02,03,04,05", 11, DescOptions{})
	require.Len(t, lines, 3)
	for _, l := range lines[:2] {
		assert.Len(t, strings.Split(l, " , "), 2)
	}
	assert.Equal(t, "05", lines[2])
}

func TestComposeRows(t *testing.T) {
	cols := []Column{
		{Width: 3, Align: escpos.AlignLeft},
		{Width: 8, Align: escpos.AlignLeft},
		{Width: 5, Align: escpos.AlignRight},
	}

	rows := ComposeRows(cols, []Cell{{"1"}, {"Lucky Draw Ticket"}, {"2"}})
	require.Equal(t, []string{
		"1  Lucky       2",
		"   Draw         ",
		"   Ticket       ",
	}, rows)

	for _, r := range rows {
		assert.Equal(t, TotalWidth(cols), utf8.RuneCountInString(r))
	}
}

func TestComposeRowsMultiLineCells(t *testing.T) {
	cols := []Column{{Width: 6}, {Width: 4, Align: escpos.AlignRight}}
	rows := ComposeRows(cols, []Cell{{"abc", "12 , 34"}})
	assert.Equal(t, []string{
		"abc       ",
		"12 ,      ",
		"34        ",
	}, rows)
}

func TestComposeRowsNoWrapNumbers(t *testing.T) {
	cols := []Column{
		{Width: 2, NoWrap: true},
		{Width: 7},
		{Width: 6},
		{Width: 3, Align: escpos.AlignRight, NoWrap: true},
		{Width: 5, Align: escpos.AlignRight, NoWrap: true},
		{Width: 6, Align: escpos.AlignRight, NoWrap: true},
	}

	t.Run("values that fit stay in their columns", func(t *testing.T) {
		rows := ComposeRows(cols, []Cell{{"1"}, {"Lucky Draw"}, {"1234"}, {"2"}, {"50.00"}, {"100.00"}})
		assert.Equal(t, []string{
			"1 Lucky  1234  2 50.00 100.00",
			"  Draw                       ",
		}, rows)
	})

	t.Run("wide values move below the text", func(t *testing.T) {
		rows := ComposeRows(cols, []Cell{{"1"}, {"Lucky Draw"}, {"1234"}, {"2"}, {"1000.00"}, {"2000.00"}})
		assert.Equal(t, []string{
			"1 Lucky  1234                ",
			"  Draw      2 1000.00 2000.00",
		}, rows)
	})

	t.Run("wide values spill into blank space", func(t *testing.T) {
		rows := ComposeRows(cols, []Cell{{"1"}, {"Pick"}, {"7"}, {"1000"}, {"1.00"}, {"1000.00"}})
		assert.Equal(t, []string{"1 Pick   7  1000 1.00 1000.00"}, rows)
	})

	t.Run("values wider than the row are printed whole", func(t *testing.T) {
		narrow := []Column{{Width: 3, Align: escpos.AlignRight, NoWrap: true}, {Width: 3, Align: escpos.AlignRight, NoWrap: true}}
		assert.Equal(t, []string{"123456 7890"}, ComposeRows(narrow, []Cell{{"123456"}, {"7890"}}))
	})
}

func TestPadding(t *testing.T) {
	assert.Equal(t, "ab   ", PadRight("ab", 5))
	assert.Equal(t, "   ab", PadLeft("ab", 5))
	assert.Equal(t, " ab  ", PadCenter("ab", 5))
	assert.Equal(t, "abc", PadLeft("abcdef", 3))
}

func TestFillBetween(t *testing.T) {
	assert.Equal(t, "Invoice: 1      Date: 01", FillBetween("Invoice: 1", "Date: 01", 24))
	assert.Equal(t, "left right", FillBetween("left", "right", 3))
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		qty   int
		price string
		want  string
	}{
		{2, "50", "100.00"},
		{3, "0.1", "0.30"},
		{1, "19.999", "20.00"},
		{0, "7.5", "0.00"},
		{7, "1.05", "7.35"},
	}

	for _, tt := range tests {
		got := FormatMoney(LineAmount(tt.qty, decimal.RequireFromString(tt.price)))
		assert.Equal(t, tt.want, got)
		dot := strings.IndexByte(got, '.')
		require.GreaterOrEqual(t, dot, 0)
		assert.Len(t, got[dot+1:], 2)
	}
}

func TestPaperProfiles(t *testing.T) {
	p, err := ParsePaperWidth("58")
	require.NoError(t, err)
	assert.Equal(t, 29, p.Columns)

	p, err = ParsePaperWidth("80mm")
	require.NoError(t, err)
	assert.Equal(t, 44, p.Columns)

	_, err = ParsePaperWidth("110")
	assert.Error(t, err)

	assert.Equal(t, Paper80, Profile("bogus", false))
	assert.Equal(t, 32, Profile("58", true).Columns)
	assert.Equal(t, 576, Profile("80", true).Dots)
}
