// internal/receipt/report.go
package receipt

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"printer-service/internal/escpos"
	"printer-service/internal/layout"
	"printer-service/internal/model"
)

// invoiceGroup collects report rows sharing an invoice number
type invoiceGroup struct {
	invoice string
	rows    []model.ReportRow
}

// groupByInvoice groups rows in order of first appearance, then stably sorts
// numeric invoice numbers ascending ahead of non-numeric ones.
func groupByInvoice(rows []model.ReportRow) []*invoiceGroup {
	var groups []*invoiceGroup
	index := make(map[string]*invoiceGroup)

	for _, row := range rows {
		key := strings.TrimSpace(row.InvoiceNo)
		g, ok := index[key]
		if !ok {
			g = &invoiceGroup{invoice: key}
			index[key] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, row)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, aErr := decimal.NewFromString(groups[i].invoice)
		b, bErr := decimal.NewFromString(groups[j].invoice)
		switch {
		case aErr == nil && bErr == nil:
			return a.LessThan(b)
		case aErr == nil:
			return true
		default:
			return false
		}
	})
	return groups
}

func (c *Composer) reportDocument(r model.Report, paper layout.PaperProfile) (*Document, error) {
	cols := itemColumns(paper.Columns)
	doc := &Document{Cut: true}

	centered(doc, c.headerText(r.Header), paper.Columns)
	centered(doc, r.Title, paper.Columns)

	plain(doc, "User: "+r.Username, paper.Columns)
	if r.FromDate != "" || r.ToDate != "" {
		pair(doc, "From: "+r.FromDate, "To: "+r.ToDate, paper.Columns)
	}
	if ts, ok := c.timestamp(r.Timestamp); ok {
		plain(doc, "Printed: "+ts, paper.Columns)
	}

	doc.Separator()
	doc.Text(escpos.AlignLeft, true, headingRow(cols))
	doc.Separator()

	totalQty := 0
	totalAmount := decimal.Zero
	for _, g := range groupByInvoice(r.Rows) {
		doc.Text(escpos.AlignLeft, true, "Invoice #"+g.invoice)

		groupQty := 0
		groupAmount := decimal.Zero
		for i, row := range g.rows {
			no := i + 1
			if err := validateItem(no, row.Qty, row.Price); err != nil {
				return nil, err
			}

			desc := layout.DescLines(row.Desc, cols[colNumber].Width, c.opts.Desc)
			for _, line := range itemRows(cols, no, row.ProductName, desc, row.Qty, row.Price) {
				doc.Text(escpos.AlignLeft, false, line)
			}

			groupQty += row.Qty
			groupAmount = groupAmount.Add(layout.LineAmount(row.Qty, row.Price))
		}

		doc.Segments(totalSegments(cols, "Subtotal", groupQty, groupAmount, false)...)
		doc.Separator()

		totalQty += groupQty
		totalAmount = totalAmount.Add(groupAmount)
	}

	if r.SummaryQty != nil {
		totalQty = *r.SummaryQty
	}
	if r.SummaryAmount != nil {
		totalAmount = *r.SummaryAmount
	}

	doc.Segments(totalSegments(cols, "TOTAL", totalQty, totalAmount, true)...)
	doc.Separator()

	centered(doc, c.opts.Footer, paper.Columns)
	doc.Feed(trailingFeed)
	return doc, nil
}
