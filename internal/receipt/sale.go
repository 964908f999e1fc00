// internal/receipt/sale.go
package receipt

import (
	"github.com/shopspring/decimal"

	"printer-service/internal/escpos"
	"printer-service/internal/layout"
	"printer-service/internal/model"
)

func (c *Composer) saleDocument(r model.Receipt, paper layout.PaperProfile) (*Document, error) {
	cols := itemColumns(paper.Columns)
	doc := &Document{Cut: true}

	centered(doc, c.headerText(r.Header), paper.Columns)

	plain(doc, "User: "+r.Username, paper.Columns)
	if ts, ok := c.timestamp(r.Timestamp); ok {
		pair(doc, "Invoice: "+r.InvoiceNo, "Date: "+ts, paper.Columns)
	} else {
		plain(doc, "Invoice: "+r.InvoiceNo, paper.Columns)
	}
	if r.TimeSlot != "" {
		plain(doc, "Time Slot: "+r.TimeSlot, paper.Columns)
	}
	if r.Category != "" {
		plain(doc, "Category: "+r.Category, paper.Columns)
	}

	doc.Separator()
	doc.Text(escpos.AlignLeft, true, headingRow(cols))
	doc.Separator()

	totalQty := 0
	totalAmount := decimal.Zero
	for i, item := range r.Items {
		no := i + 1
		if err := validateItem(no, item.Qty, item.Price); err != nil {
			return nil, err
		}

		desc := layout.DescLines(item.Desc, cols[colNumber].Width, c.opts.Desc)
		for _, row := range itemRows(cols, no, item.ProductName, desc, item.Qty, item.Price) {
			doc.Text(escpos.AlignLeft, false, row)
		}

		totalQty += item.Qty
		totalAmount = totalAmount.Add(layout.LineAmount(item.Qty, item.Price))
	}

	doc.Separator()
	doc.Segments(totalSegments(cols, "TOTAL", totalQty, totalAmount, true)...)
	doc.Separator()

	centered(doc, c.opts.Footer, paper.Columns)
	doc.Feed(trailingFeed)
	return doc, nil
}
