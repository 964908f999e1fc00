// internal/receipt/format.go
package receipt

import (
	"printer-service/internal/layout"
	"printer-service/internal/model"
)

var defaultComposer = NewComposer(nil, nil, DefaultOptions())

// FormatLotteryReceipt renders a sale receipt for "58" or "80" paper with the
// default text composer. Unknown widths print on 80mm.
func FormatLotteryReceipt(r model.Receipt, paperWidth string) []byte {
	return defaultComposer.ComposeSale(r, layout.Profile(paperWidth, false))
}

// FormatSalesReportReceipt renders a sales report for "58" or "80" paper with
// the default text composer.
func FormatSalesReportReceipt(r model.Report, paperWidth string) []byte {
	return defaultComposer.ComposeReport(r, layout.Profile(paperWidth, false))
}
