package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"printer-service/internal/connection"
	"printer-service/internal/discovery"
	"printer-service/internal/layout"
	"printer-service/internal/model"
	"printer-service/internal/protocol"
	"printer-service/internal/receipt"
	"printer-service/internal/repository"
	"printer-service/internal/storage"
)

type fakeSession struct {
	device model.PrinterDevice
	writes [][]byte
	err    error
}

func (s *fakeSession) Kind() model.TransportKind   { return s.device.TransportKind }
func (s *fakeSession) Device() model.PrinterDevice { return s.device }
func (s *fakeSession) IsLive(context.Context) bool { return true }
func (s *fakeSession) Disconnect(context.Context) error {
	return nil
}

func (s *fakeSession) Write(_ context.Context, data []byte) error {
	if s.err != nil {
		return s.err
	}
	s.writes = append(s.writes, append([]byte(nil), data...))
	return nil
}

type fakeTransport struct {
	session *fakeSession
	found   []model.PrinterDevice
}

func (t *fakeTransport) Kind() model.TransportKind { return model.TransportBLE }

func (t *fakeTransport) Scan(_ context.Context, found func(model.PrinterDevice)) error {
	for _, d := range t.found {
		found(d)
	}
	return nil
}

func (t *fakeTransport) StopScan() {}

func (t *fakeTransport) Connect(_ context.Context, d model.PrinterDevice) (protocol.Session, error) {
	t.session = &fakeSession{device: d}
	return t.session, nil
}

type failingJobs struct{ repository.JobRepository }

func (failingJobs) Create(context.Context, *model.PrintJob) error {
	return errors.New("database down")
}

var printer = model.PrinterDevice{ID: "AA:BB:CC:00:11:22", Name: "MPT-II", TransportKind: model.TransportBLE}

func newService(t *testing.T, jobs repository.JobRepository) (*PrintService, *fakeTransport) {
	t.Helper()
	logger := zaptest.NewLogger(t)

	kv, err := storage.OpenBadger("", logger)
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	transport := &fakeTransport{found: []model.PrinterDevice{printer}}
	manager := connection.NewManager(
		protocol.NewRegistry(transport),
		storage.NewSavedPrinterStore(kv),
		connection.Config{MaxRetries: 2},
		logger,
	)

	scanner := discovery.NewScannerManager(logger)
	scanner.RegisterScanner(transport)

	composer := receipt.NewComposer(logger, receipt.NewTextRenderer(nil), receipt.DefaultOptions())
	svc := NewPrintService(composer, manager, scanner, jobs, Config{Paper: layout.Paper58}, logger)
	return svc, transport
}

func sale() model.Receipt {
	return model.Receipt{
		Username:  "John",
		InvoiceNo: "1001",
		Timestamp: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
		Items: []model.LineItem{
			{ProductName: "Daily", Desc: "12-34", Qty: 2, Price: decimal.NewFromInt(50)},
		},
	}
}

func TestPrintWithoutSavedPrinter(t *testing.T) {
	svc, _ := newService(t, nil)

	job, err := svc.PrintLotteryReceipt(context.Background(), sale(), "")
	require.ErrorIs(t, err, connection.ErrNoPrinterConfigured)
	require.NotNil(t, job)
	assert.Equal(t, model.JobStatusFailed, job.Status)

	jobs, err := svc.RecentJobs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, model.JobKindSale, jobs[0].Kind)
}

func TestPrintLotteryReceipt(t *testing.T) {
	svc, transport := newService(t, nil)
	require.NoError(t, svc.SavePrinter(printer))

	job, err := svc.PrintLotteryReceipt(context.Background(), sale(), "80")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusSuccess, job.Status)
	assert.Equal(t, printer.ID, job.PrinterID)
	assert.Equal(t, model.TransportBLE, job.TransportKind)

	require.Len(t, transport.session.writes, 1)
	data := transport.session.writes[0]
	assert.Equal(t, []byte{0x1B, 0x40}, data[:2])
	assert.Equal(t, job.Bytes, len(data))
}

func TestPrintSalesReport(t *testing.T) {
	svc, transport := newService(t, nil)
	require.NoError(t, svc.SavePrinter(printer))

	report := model.Report{
		Title:    "Sales Report",
		Username: "John",
		Rows: []model.ReportRow{
			{InvoiceNo: "1", ProductName: "Daily", Qty: 1, Price: decimal.NewFromInt(10)},
		},
	}
	job, err := svc.PrintSalesReport(context.Background(), report, "")
	require.NoError(t, err)
	assert.Equal(t, model.JobKindReport, job.Kind)
	assert.Len(t, transport.session.writes, 1)
}

func TestFormatRejectsUnknownPaper(t *testing.T) {
	svc, _ := newService(t, nil)

	_, err := svc.FormatLotteryReceipt(sale(), "72")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	f, err := svc.FormatLotteryReceipt(sale(), "")
	require.NoError(t, err)
	assert.Equal(t, layout.Paper58, f.Paper)
	assert.NotEmpty(t, f.Preview)
	for _, row := range f.Preview {
		assert.LessOrEqual(t, len([]rune(row)), layout.Paper58.Columns)
	}
}

func TestPrintRawRejectsEmpty(t *testing.T) {
	svc, _ := newService(t, nil)
	_, err := svc.PrintRaw(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestJobRecordFailureDoesNotFailPrint(t *testing.T) {
	svc, transport := newService(t, failingJobs{})
	require.NoError(t, svc.SavePrinter(printer))

	job, err := svc.PrintRaw(context.Background(), []byte{0x1B, 0x40})
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusSuccess, job.Status)
	assert.Len(t, transport.session.writes, 1)
}

func TestConnectPrinterSaves(t *testing.T) {
	svc, _ := newService(t, nil)

	require.NoError(t, svc.ConnectPrinter(context.Background(), printer, true))

	st, err := svc.Status()
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionBound, st.State)
	require.NotNil(t, st.SavedPrinter)
	assert.Equal(t, printer.ID, st.SavedPrinter.ID)

	svc.ForceDisconnect(context.Background())
	st, err = svc.Status()
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionUnbound, st.State)
}

func TestConnectPrinterValidates(t *testing.T) {
	svc, _ := newService(t, nil)
	err := svc.ConnectPrinter(context.Background(), model.PrinterDevice{Name: "x"}, false)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestScanPrinters(t *testing.T) {
	svc, _ := newService(t, nil)
	devices := svc.ScanPrinters(context.Background(), time.Second)
	require.Len(t, devices, 1)
	assert.Equal(t, printer.ID, devices[0].ID)
}

func TestRemoveSavedPrinterThenPrint(t *testing.T) {
	svc, _ := newService(t, nil)
	require.NoError(t, svc.ConnectPrinter(context.Background(), printer, true))
	require.NoError(t, svc.RemoveSavedPrinter(context.Background()))

	_, err := svc.PrintRaw(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, connection.ErrNoPrinterConfigured)
}
