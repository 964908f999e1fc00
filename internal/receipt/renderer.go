// internal/receipt/renderer.go
package receipt

import (
	"fmt"
	"strings"

	"printer-service/internal/escpos"
	"printer-service/internal/layout"
)

// Render modes selectable from configuration
const (
	RenderModeText   = "text"
	RenderModeRaster = "raster"
)

// Renderer turns a Document into an ESC/POS job
type Renderer interface {
	// Profile maps the requested paper to the grid the renderer lays out on
	Profile(paper layout.PaperProfile) layout.PaperProfile
	Render(doc *Document, paper layout.PaperProfile) ([]byte, error)
}

// NewRenderer builds the renderer for a configured mode
func NewRenderer(mode string, enc *escpos.Encoder) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", RenderModeText:
		return NewTextRenderer(enc), nil
	case RenderModeRaster:
		return NewRasterRenderer()
	default:
		return nil, fmt.Errorf("unknown render mode: %s", mode)
	}
}

// TextRenderer emits the document as ESC/POS text commands
type TextRenderer struct {
	enc *escpos.Encoder
}

// NewTextRenderer creates a text renderer. A nil encoder means UTF-8.
func NewTextRenderer(enc *escpos.Encoder) *TextRenderer {
	if enc == nil {
		enc = escpos.UTF8()
	}
	return &TextRenderer{enc: enc}
}

func (r *TextRenderer) Profile(paper layout.PaperProfile) layout.PaperProfile {
	return paper
}

func (r *TextRenderer) Render(doc *Document, paper layout.PaperProfile) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}

	b := escpos.NewBuilder(r.enc)
	b.Raw(escpos.Initialize(), r.enc.Setup(), escpos.CharSpacing(0))

	for _, line := range doc.Lines {
		switch line.Kind {
		case LineSeparator:
			b.Raw(escpos.Align(escpos.AlignLeft)).Line(separator(paper.Columns))

		case LineFeed:
			for i := 0; i < line.Feed; i++ {
				b.Raw(escpos.LineFeed())
			}

		case LineText:
			b.Raw(escpos.Align(line.Align))
			if line.Size != escpos.SizeNormal {
				b.Raw(escpos.Size(line.Size))
			}
			for _, seg := range line.Segments {
				if seg.Bold {
					b.Raw(escpos.Bold(true)).Text(seg.Text).Raw(escpos.Bold(false))
					continue
				}
				b.Text(seg.Text)
			}
			b.Raw(escpos.LineFeed())
			if line.Size != escpos.SizeNormal {
				b.Raw(escpos.Size(escpos.SizeNormal))
			}

		default:
			return nil, fmt.Errorf("unknown line kind: %d", line.Kind)
		}
	}

	if doc.Cut {
		b.Raw(escpos.Cut())
	}
	return b.Bytes(), nil
}

func separator(columns int) string {
	return layout.Separator(columns)
}
