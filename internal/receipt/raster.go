// internal/receipt/raster.go
package receipt

import (
	"fmt"
	"image"
	"image/draw"
	"unicode/utf8"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"printer-service/internal/escpos"
	"printer-service/internal/layout"
)

const (
	// maxBandRows is the tallest GS v 0 band sent in one command
	maxBandRows = 256
	// monoAdvance is the Go Mono glyph advance in em
	monoAdvance = 0.6
	// darkThreshold splits gray pixels into printed and blank dots
	darkThreshold = 128
)

// RasterRenderer draws the document with the Go Mono face and sends it as
// raster bitmap bands. It lays out on the wide paper profiles.
type RasterRenderer struct {
	font *truetype.Font
}

// NewRasterRenderer loads the embedded font
func NewRasterRenderer() (*RasterRenderer, error) {
	f, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mono font: %w", err)
	}
	return &RasterRenderer{font: f}, nil
}

func (r *RasterRenderer) Profile(paper layout.PaperProfile) layout.PaperProfile {
	return paper.Wide()
}

func (r *RasterRenderer) Render(doc *Document, paper layout.PaperProfile) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}
	if paper.Columns <= 0 || paper.Dots%8 != 0 {
		return nil, fmt.Errorf("invalid raster paper profile: %+v", paper)
	}

	// trailing feeds go out as ESC d instead of blank bitmap rows
	lines := doc.Lines
	trailingFeed := 0
	for len(lines) > 0 && lines[len(lines)-1].Kind == LineFeed {
		trailingFeed += lines[len(lines)-1].Feed
		lines = lines[:len(lines)-1]
	}

	img, err := r.draw(lines, paper)
	if err != nil {
		return nil, err
	}

	b := escpos.NewBuilder(nil)
	b.Raw(escpos.Initialize(), escpos.Align(escpos.AlignLeft))

	widthBytes := paper.Dots / 8
	height := img.Bounds().Dy()
	for top := 0; top < height; top += maxBandRows {
		rows := maxBandRows
		if top+rows > height {
			rows = height - top
		}
		b.Raw(escpos.RasterHeader(widthBytes, rows), packRows(img, top, rows, widthBytes))
	}

	for trailingFeed > 0 {
		n := trailingFeed
		if n > 255 {
			n = 255
		}
		b.Raw(escpos.Feed(byte(n)))
		trailingFeed -= n
	}
	if doc.Cut {
		b.Raw(escpos.Cut())
	}
	return b.Bytes(), nil
}

func (r *RasterRenderer) draw(lines []Line, paper layout.PaperProfile) (*image.Gray, error) {
	cellW := paper.Dots / paper.Columns
	fontSize := float64(cellW) / monoAdvance

	face := truetype.NewFace(r.font, &truetype.Options{Size: fontSize, DPI: 72, Hinting: font.HintingFull})
	metrics := face.Metrics()
	lineH := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()

	height := 0
	for _, l := range lines {
		height += lineHeight(l, lineH)
	}
	if height == 0 {
		height = 1
	}

	img := image.NewGray(image.Rect(0, 0, paper.Dots, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(r.font)
	c.SetClip(img.Bounds())
	c.SetDst(img)
	c.SetSrc(image.Black)
	c.SetHinting(font.HintingFull)

	y := 0
	for _, l := range lines {
		h := lineHeight(l, lineH)

		var segs []Segment
		align := l.Align
		scale := 1
		switch l.Kind {
		case LineSeparator:
			segs = []Segment{{Text: separator(paper.Columns)}}
			align = escpos.AlignLeft
		case LineText:
			segs = l.Segments
			if l.Size != escpos.SizeNormal {
				scale = 2
			}
		}
		if len(segs) == 0 {
			y += h
			continue
		}

		c.SetFontSize(fontSize * float64(scale))
		step := cellW * scale
		cols := paper.Columns / scale
		n := utf8.RuneCountInString(Line{Segments: segs}.Text())

		x := 0
		switch align {
		case escpos.AlignCenter:
			x = (cols - n) / 2 * step
		case escpos.AlignRight:
			x = (cols - n) * step
		}
		if x < 0 {
			x = 0
		}

		baseline := y + ascent*scale
		for _, seg := range segs {
			for _, ch := range seg.Text {
				if ch != ' ' {
					if _, err := c.DrawString(string(ch), freetype.Pt(x, baseline)); err != nil {
						return nil, fmt.Errorf("failed to draw glyph: %w", err)
					}
					if seg.Bold {
						if _, err := c.DrawString(string(ch), freetype.Pt(x+1, baseline)); err != nil {
							return nil, fmt.Errorf("failed to draw glyph: %w", err)
						}
					}
				}
				x += step
			}
		}
		y += h
	}

	return img, nil
}

func lineHeight(l Line, base int) int {
	switch l.Kind {
	case LineFeed:
		return base * l.Feed
	case LineText:
		if l.Size != escpos.SizeNormal {
			return base * 2
		}
	}
	return base
}

// packRows converts rows of img into 1-bit MSB-first raster data
func packRows(img *image.Gray, top, rows, widthBytes int) []byte {
	data := make([]byte, widthBytes*rows)
	width := img.Bounds().Dx()
	for y := 0; y < rows; y++ {
		for x := 0; x < width; x++ {
			if img.GrayAt(x, top+y).Y < darkThreshold {
				data[y*widthBytes+x/8] |= 1 << (7 - uint(x%8))
			}
		}
	}
	return data
}
