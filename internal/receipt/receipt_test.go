package receipt

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"printer-service/internal/escpos"
	"printer-service/internal/layout"
	"printer-service/internal/model"
)

var fixedTime = time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)

// plainText strips the command bytes the text renderer emits
func plainText(buf []byte) string {
	var out []byte
	for i := 0; i < len(buf); i++ {
		switch buf[i] {
		case 0x1B:
			if i+1 < len(buf) && buf[i+1] == 0x40 {
				i++
				continue
			}
			i += 2
		case 0x1D:
			i += 2
		default:
			out = append(out, buf[i])
		}
	}
	return string(out)
}

func sampleReceipt() model.Receipt {
	return model.Receipt{
		Username:  "John",
		InvoiceNo: "1",
		Timestamp: fixedTime,
		Items: []model.LineItem{
			{ProductName: "Lucky Draw", Desc: "1234", Qty: 2, Price: decimal.NewFromInt(50)},
		},
	}
}

func newTestComposer(t *testing.T) *Composer {
	return NewComposer(zaptest.NewLogger(t), NewTextRenderer(nil), DefaultOptions()).
		WithClock(func() time.Time { return fixedTime })
}

func TestLotteryReceiptScenario(t *testing.T) {
	out := FormatLotteryReceipt(sampleReceipt(), "80")
	text := plainText(out)

	assert.Contains(t, text, "User: John")
	assert.NotContains(t, text, fallbackText)

	var total string
	for _, l := range strings.Split(text, "\n") {
		if strings.HasPrefix(l, "TOTAL") {
			total = l
		}
	}
	require.NotEmpty(t, total)
	fields := strings.Fields(total)
	assert.Equal(t, []string{"TOTAL", "2", "100.00"}, fields)
}

func TestSaleStartsWithInitAndEndsWithCut(t *testing.T) {
	c := newTestComposer(t)
	items := [][]model.LineItem{
		nil,
		sampleReceipt().Items,
		{
			{ProductName: "Mega Jackpot Weekend Special", Desc: "01,02,03,04,05", Qty: 10, Price: decimal.RequireFromString("12.5")},
			{ProductName: "Pick 3", Desc: "777", Qty: 1, Price: decimal.RequireFromString("0.99")},
		},
	}

	for _, paper := range []layout.PaperProfile{layout.Paper58, layout.Paper80, layout.Paper58Wide, layout.Paper80Wide} {
		for _, it := range items {
			r := sampleReceipt()
			r.Items = it
			out := c.ComposeSale(r, paper)

			require.NotEmpty(t, out)
			assert.True(t, bytes.HasPrefix(out, escpos.Initialize()))
			assert.True(t, bytes.HasSuffix(out, escpos.Cut()))
			assert.NotContains(t, plainText(out), fallbackText)
		}
	}
}

func TestSaleRowsFitPaper(t *testing.T) {
	c := newTestComposer(t)
	r := sampleReceipt()
	r.Header = "Golden Ticket Lottery Kiosk Number Seven"
	r.Items = append(r.Items, model.LineItem{
		ProductName: "Mega Jackpot Weekend Special", Desc: "11,22,33", Qty: 3, Price: decimal.NewFromInt(20),
	})

	for _, paper := range []layout.PaperProfile{layout.Paper58, layout.Paper80} {
		rows, err := c.Preview(r, paper)
		require.NoError(t, err)
		for _, row := range rows {
			assert.LessOrEqual(t, len([]rune(row)), paper.Columns, "row %q", row)
		}
	}
}

func TestSaleLayout80(t *testing.T) {
	c := newTestComposer(t)
	r := sampleReceipt()
	r.Header = "LUCKY STAR"
	r.TimeSlot = "Evening"
	r.Category = "Daily"

	rows, err := c.Preview(r, layout.Paper80)
	require.NoError(t, err)

	assert.Equal(t, "LUCKY STAR", rows[0])
	assert.Equal(t, "User: John", rows[1])
	assert.Equal(t, layout.FillBetween("Invoice: 1", "Date: 09-03-2024 14:05", 44), rows[2])
	assert.Equal(t, "Time Slot: Evening", rows[3])
	assert.Equal(t, "Category: Daily", rows[4])
	assert.Equal(t, strings.Repeat("-", 44), rows[5])
	assert.Equal(t, "No.Details    Number      Qty   Rate  Amount", rows[6])
	assert.Equal(t, "1  Lucky Draw 1234          2  50.00  100.00", rows[8])
}

func TestAmountsHaveTwoDecimals(t *testing.T) {
	c := newTestComposer(t)
	r := sampleReceipt()
	r.Items = []model.LineItem{
		{ProductName: "A", Desc: "1", Qty: 3, Price: decimal.RequireFromString("0.1")},
		{ProductName: "B", Desc: "2", Qty: 1, Price: decimal.RequireFromString("7")},
	}

	rows, err := c.Preview(r, layout.Paper80)
	require.NoError(t, err)

	joined := strings.Join(rows, "\n")
	assert.Contains(t, joined, "0.10")
	assert.Contains(t, joined, "0.30")
	assert.Contains(t, joined, "7.00")
	assert.Contains(t, joined, "7.30")
}

// itemBlock returns the rows between the table heading and the totals
func itemBlock(t *testing.T, rows []string, columns int) []string {
	sep := strings.Repeat("-", columns)
	var at []int
	for i, row := range rows {
		if row == sep {
			at = append(at, i)
		}
	}
	require.GreaterOrEqual(t, len(at), 3, "rows %q", rows)
	return rows[at[1]+1 : at[2]]
}

func TestLargeAmountsStayWhole(t *testing.T) {
	moneyToken := regexp.MustCompile(`^\d+\.\d{2}$`)
	c := newTestComposer(t)

	papers := []layout.PaperProfile{layout.Paper58, layout.Paper58Wide, layout.Paper80, layout.Paper80Wide}
	for _, paper := range papers {
		cols := itemColumns(paper.Columns)
		rateW := cols[colRate].Width
		amountW := cols[colAmount].Width

		var prices []string
		for _, n := range []int{rateW - 1, rateW, rateW + 1, amountW, amountW + 1, amountW + 3} {
			if n < 4 {
				continue
			}
			prices = append(prices, strings.Repeat("9", n-3)+".99")
		}

		type item struct {
			qty   int
			price string
		}
		cases := []item{{qty: 1000, price: "1"}, {qty: 12345, price: "0.5"}}
		for _, p := range prices {
			cases = append(cases, item{qty: 1, price: p}, item{qty: 2, price: p})
		}

		for _, tc := range cases {
			price := decimal.RequireFromString(tc.price)
			r := sampleReceipt()
			r.Items = []model.LineItem{{ProductName: "Pick", Desc: "7", Qty: tc.qty, Price: price}}

			rows, err := c.Preview(r, paper)
			require.NoError(t, err)

			block := itemBlock(t, rows, paper.Columns)
			var tokens []string
			for _, row := range block {
				assert.LessOrEqual(t, len([]rune(row)), paper.Columns, "row %q", row)
				tokens = append(tokens, strings.Fields(row)...)
			}
			for _, tok := range tokens {
				if strings.Contains(tok, ".") {
					assert.Regexp(t, moneyToken, tok, "paper %d qty %d price %s", paper.Columns, tc.qty, tc.price)
				}
			}

			assert.Contains(t, tokens, layout.FormatQty(tc.qty))
			assert.Contains(t, tokens, layout.FormatMoney(price))
			assert.Contains(t, tokens, layout.FormatMoney(layout.LineAmount(tc.qty, price)))
		}
	}
}

func TestHexIsDeterministic(t *testing.T) {
	r := sampleReceipt()
	r.Timestamp = time.Time{}

	first := FormatLotteryReceipt(r, "80")
	second := FormatLotteryReceipt(r, "80")
	assert.Equal(t, escpos.BytesToHex(first), escpos.BytesToHex(second))
	assert.NotContains(t, plainText(first), "Date:")
	assert.Contains(t, plainText(first), "Invoice: 1")
}

func TestClockStampsUndatedReceipt(t *testing.T) {
	r := sampleReceipt()
	r.Timestamp = time.Time{}

	rows, err := newTestComposer(t).Preview(r, layout.Paper80)
	require.NoError(t, err)
	assert.Equal(t, layout.FillBetween("Invoice: 1", "Date: 09-03-2024 14:05", 44), rows[2])
}

func TestInvalidItemFallsBack(t *testing.T) {
	c := newTestComposer(t)
	r := sampleReceipt()
	r.Items[0].Qty = -1

	assert.Equal(t, Fallback(), c.ComposeSale(r, layout.Paper80))

	r = sampleReceipt()
	r.Items[0].Price = decimal.NewFromInt(-5)
	assert.Equal(t, Fallback(), c.ComposeSale(r, layout.Paper58))
}

type panicRenderer struct{ *TextRenderer }

func (panicRenderer) Render(*Document, layout.PaperProfile) ([]byte, error) {
	panic("boom")
}

func TestPanicFallsBack(t *testing.T) {
	c := NewComposer(zaptest.NewLogger(t), panicRenderer{NewTextRenderer(nil)}, DefaultOptions())
	out := c.ComposeSale(sampleReceipt(), layout.Paper80)
	assert.Equal(t, Fallback(), out)
}

func TestFallbackBytes(t *testing.T) {
	want := []byte{0x1B, 0x40, 0x1B, 0x61, 0x01}
	want = append(want, []byte("PRINT ERROR\n")...)
	want = append(want, 0x1D, 0x56, 0x00)
	assert.Equal(t, want, Fallback())
}

func TestGroupByInvoice(t *testing.T) {
	rows := []model.ReportRow{
		{InvoiceNo: "10", ProductName: "a"},
		{InvoiceNo: "X1", ProductName: "b"},
		{InvoiceNo: "2", ProductName: "c"},
		{InvoiceNo: "10", ProductName: "d"},
		{InvoiceNo: "A0", ProductName: "e"},
		{InvoiceNo: "2", ProductName: "f"},
	}

	groups := groupByInvoice(rows)
	var order []string
	for _, g := range groups {
		order = append(order, g.invoice)
	}
	assert.Equal(t, []string{"2", "10", "X1", "A0"}, order)
	assert.Equal(t, "a", groups[1].rows[0].ProductName)
	assert.Equal(t, "d", groups[1].rows[1].ProductName)
}

func TestReport(t *testing.T) {
	c := newTestComposer(t)
	report := model.Report{
		Title:    "Sales Report",
		Username: "admin",
		FromDate: "01-03-2024",
		ToDate:   "09-03-2024",
		Rows: []model.ReportRow{
			{InvoiceNo: "7", ProductName: "Pick 3", Desc: "123", Qty: 2, Price: decimal.NewFromInt(10)},
			{InvoiceNo: "3", ProductName: "Lotto", Desc: "1,2,3", Qty: 1, Price: decimal.NewFromInt(5)},
			{InvoiceNo: "7", ProductName: "Pick 4", Desc: "4567", Qty: 1, Price: decimal.NewFromInt(20)},
		},
	}

	out := c.ComposeReport(report, layout.Paper80)
	assert.True(t, bytes.HasPrefix(out, escpos.Initialize()))
	assert.True(t, bytes.HasSuffix(out, escpos.Cut()))

	text := plainText(out)
	assert.Less(t, strings.Index(text, "Invoice #3"), strings.Index(text, "Invoice #7"))

	lines := strings.Split(text, "\n")
	var subtotals, totals [][]string
	for _, l := range lines {
		f := strings.Fields(l)
		if len(f) == 0 {
			continue
		}
		switch f[0] {
		case "Subtotal":
			subtotals = append(subtotals, f)
		case "TOTAL":
			totals = append(totals, f)
		}
	}
	assert.Equal(t, [][]string{{"Subtotal", "1", "5.00"}, {"Subtotal", "3", "40.00"}}, subtotals)
	assert.Equal(t, [][]string{{"TOTAL", "4", "45.00"}}, totals)
	assert.Contains(t, text, DefaultOptions().Footer)
	assert.Contains(t, text, "Printed: 09-03-2024 14:05")
}

func TestReportSummaryOverridesTotals(t *testing.T) {
	c := newTestComposer(t)
	qty := 99
	amount := decimal.RequireFromString("1234.5")
	report := model.Report{
		Rows: []model.ReportRow{
			{InvoiceNo: "1", ProductName: "Pick 3", Desc: "123", Qty: 2, Price: decimal.NewFromInt(10)},
		},
		SummaryQty:    &qty,
		SummaryAmount: &amount,
	}

	text := plainText(c.ComposeReport(report, layout.Paper58))
	for _, l := range strings.Split(text, "\n") {
		if strings.HasPrefix(l, "TOTAL") {
			assert.Equal(t, []string{"TOTAL", "99", "1234.50"}, strings.Fields(l))
			return
		}
	}
	t.Fatal("no totals row")
}

func TestRasterRenderer(t *testing.T) {
	raster, err := NewRasterRenderer()
	require.NoError(t, err)

	c := NewComposer(zaptest.NewLogger(t), raster, DefaultOptions()).
		WithClock(func() time.Time { return fixedTime })

	for _, paper := range []layout.PaperProfile{layout.Paper58, layout.Paper80} {
		out := c.ComposeSale(sampleReceipt(), paper)
		require.NotEqual(t, Fallback(), out)
		assert.True(t, bytes.HasPrefix(out, escpos.Initialize()))
		assert.True(t, bytes.HasSuffix(out, escpos.Cut()))

		header := escpos.Commands.RasterImage
		assert.True(t, bytes.Contains(out, header))

		// first band header carries the wide profile byte width
		i := bytes.Index(out, header)
		widthBytes := int(out[i+4]) | int(out[i+5])<<8
		rows := int(out[i+6]) | int(out[i+7])<<8
		assert.Equal(t, paper.Wide().Dots/8, widthBytes)
		assert.LessOrEqual(t, rows, maxBandRows)
		assert.Greater(t, rows, 0)
	}
}

func TestNewRenderer(t *testing.T) {
	r, err := NewRenderer("", nil)
	require.NoError(t, err)
	assert.IsType(t, &TextRenderer{}, r)

	r, err = NewRenderer("raster", nil)
	require.NoError(t, err)
	assert.IsType(t, &RasterRenderer{}, r)

	_, err = NewRenderer("hologram", nil)
	assert.Error(t, err)
}
