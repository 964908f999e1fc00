// internal/receipt/composer.go
package receipt

import (
	"time"

	"go.uber.org/zap"

	"printer-service/internal/escpos"
	"printer-service/internal/layout"
	"printer-service/internal/model"
)

const (
	dateLayout   = "02-01-2006 15:04"
	trailingFeed = 3
	fallbackText = "PRINT ERROR"
)

// Options holds composer defaults
type Options struct {
	// Header is printed when the input carries none
	Header string
	Footer string
	Desc   layout.DescOptions
}

// DefaultOptions returns the stock header and footer
func DefaultOptions() Options {
	return Options{
		Header: "LOTTERY",
		Footer: "Thank you for playing!",
		Desc:   layout.DescOptions{PerLine: layout.DefaultDescPerLine},
	}
}

// Composer turns sale and report models into print jobs. It never fails: any
// problem is logged and replaced by the fallback job.
type Composer struct {
	logger   *zap.Logger
	renderer Renderer
	opts     Options
	now      func() time.Time
}

// NewComposer creates a composer. A nil renderer selects UTF-8 text output.
func NewComposer(logger *zap.Logger, renderer Renderer, opts Options) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = NewTextRenderer(nil)
	}
	return &Composer{
		logger:   logger,
		renderer: renderer,
		opts:     opts,
	}
}

// WithClock sets the clock used when a model carries no timestamp. Without
// one, an unstamped model prints no date and output depends only on input.
func (c *Composer) WithClock(now func() time.Time) *Composer {
	c.now = now
	return c
}

// ComposeSale renders a sale receipt
func (c *Composer) ComposeSale(r model.Receipt, paper layout.PaperProfile) []byte {
	return c.compose("sale", paper, func(p layout.PaperProfile) (*Document, error) {
		return c.saleDocument(r, p)
	})
}

// ComposeReport renders a sales report
func (c *Composer) ComposeReport(r model.Report, paper layout.PaperProfile) []byte {
	return c.compose("report", paper, func(p layout.PaperProfile) (*Document, error) {
		return c.reportDocument(r, p)
	})
}

// Preview returns the sale receipt as text rows, without printer commands
func (c *Composer) Preview(r model.Receipt, paper layout.PaperProfile) ([]string, error) {
	p := c.renderer.Profile(paper)
	doc, err := c.saleDocument(r, p)
	if err != nil {
		return nil, err
	}
	return doc.PlainText(p.Columns), nil
}

func (c *Composer) compose(kind string, paper layout.PaperProfile, build func(layout.PaperProfile) (*Document, error)) (out []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error("Receipt composition panicked",
				zap.String("kind", kind),
				zap.Any("panic", rec))
			out = Fallback()
		}
	}()

	p := c.renderer.Profile(paper)
	if p.Columns <= 0 {
		p = layout.Profile(paper.Width, false)
		p = c.renderer.Profile(p)
	}

	doc, err := build(p)
	if err != nil {
		c.logger.Error("Failed to compose receipt",
			zap.String("kind", kind),
			zap.String("paper", p.Width),
			zap.Error(err))
		return Fallback()
	}

	data, err := c.renderer.Render(doc, p)
	if err != nil {
		c.logger.Error("Failed to render receipt",
			zap.String("kind", kind),
			zap.String("paper", p.Width),
			zap.Error(err))
		return Fallback()
	}

	c.logger.Debug("Receipt composed",
		zap.String("kind", kind),
		zap.String("paper", p.Width),
		zap.Int("columns", p.Columns),
		zap.Int("bytes", len(data)))
	return data
}

// Fallback is the job printed when composition fails
func Fallback() []byte {
	return escpos.NewBuilder(nil).
		Raw(escpos.Initialize(), escpos.Align(escpos.AlignCenter)).
		Line(fallbackText).
		Raw(escpos.Cut()).
		Bytes()
}

func (c *Composer) timestamp(t time.Time) (string, bool) {
	if t.IsZero() {
		if c.now == nil {
			return "", false
		}
		t = c.now()
	}
	return t.Format(dateLayout), true
}

func (c *Composer) headerText(h string) string {
	if h != "" {
		return h
	}
	return c.opts.Header
}

// centered appends text as centered bold lines wrapped to the paper
func centered(doc *Document, text string, columns int) {
	if text == "" {
		return
	}
	for _, l := range layout.WrapText(text, columns) {
		doc.Text(escpos.AlignCenter, true, l)
	}
}

// plain appends left-aligned wrapped lines
func plain(doc *Document, text string, columns int) {
	for _, l := range layout.WrapText(text, columns) {
		doc.Text(escpos.AlignLeft, false, l)
	}
}

// pair packs two fields onto one row when they fit, otherwise two rows
func pair(doc *Document, left, right string, columns int) {
	row := layout.FillBetween(left, right, columns)
	if len([]rune(row)) <= columns {
		doc.Text(escpos.AlignLeft, false, row)
		return
	}
	plain(doc, left, columns)
	plain(doc, right, columns)
}
