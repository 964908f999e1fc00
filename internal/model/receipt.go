// internal/model/receipt.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one sold product on a receipt
type LineItem struct {
	ProductName string          `json:"productName"`
	Desc        string          `json:"desc"`
	Qty         int             `json:"qty"`
	Price       decimal.Decimal `json:"price"`
}

// Receipt is the input of a sale receipt. Totals are never taken from the
// caller, they are recomputed from Items when rendering.
type Receipt struct {
	Header    string     `json:"header"`
	Username  string     `json:"username"`
	InvoiceNo string     `json:"invoiceNo"`
	Timestamp time.Time  `json:"timestamp"`
	TimeSlot  string     `json:"timeSlot,omitempty"`
	Category  string     `json:"category,omitempty"`
	Items     []LineItem `json:"items"`
}

// ReportRow is one sold line inside a sales report
type ReportRow struct {
	InvoiceNo   string          `json:"invoiceNo"`
	ProductName string          `json:"productName"`
	Desc        string          `json:"desc"`
	Qty         int             `json:"qty"`
	Price       decimal.Decimal `json:"price"`
}

// Report is the input of a sales report receipt. SummaryQty and SummaryAmount,
// when set, replace the totals accumulated from Rows.
type Report struct {
	Header        string           `json:"header"`
	Title         string           `json:"title"`
	Username      string           `json:"username"`
	FromDate      string           `json:"fromDate,omitempty"`
	ToDate        string           `json:"toDate,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
	Rows          []ReportRow      `json:"rows"`
	SummaryQty    *int             `json:"summaryQty,omitempty"`
	SummaryAmount *decimal.Decimal `json:"summaryAmount,omitempty"`
}
