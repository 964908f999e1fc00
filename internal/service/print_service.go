// internal/service/print_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/connection"
	"printer-service/internal/discovery"
	"printer-service/internal/layout"
	"printer-service/internal/model"
	"printer-service/internal/receipt"
	"printer-service/internal/repository"
	"printer-service/internal/utils"
)

// ErrInvalidRequest marks caller mistakes (bad paper width, empty payload)
var ErrInvalidRequest = errors.New("invalid request")

// Config holds the service defaults
type Config struct {
	Paper        layout.PaperProfile
	ScanDuration time.Duration
}

// PrintService ties composition, discovery, the persistent connection and
// job history together.
type PrintService struct {
	composer *receipt.Composer
	manager  *connection.Manager
	scanner  *discovery.ScannerManager
	jobs     repository.JobRepository
	config   Config
	base     *zap.Logger
	logger   *utils.ServiceLogger
}

// NewPrintService creates a new print service instance
func NewPrintService(
	composer *receipt.Composer,
	manager *connection.Manager,
	scanner *discovery.ScannerManager,
	jobs repository.JobRepository,
	config Config,
	logger *zap.Logger,
) *PrintService {
	if jobs == nil {
		jobs = repository.NewMemoryJobRepository(0)
	}
	if config.Paper.Columns == 0 {
		config.Paper = layout.Paper80
	}
	if config.ScanDuration <= 0 {
		config.ScanDuration = discovery.DefaultScanDuration
	}
	return &PrintService{
		composer: composer,
		manager:  manager,
		scanner:  scanner,
		jobs:     jobs,
		config:   config,
		base:     logger,
		logger:   utils.NewServiceLogger(logger, "print-service"),
	}
}

// Formatted is a composed job that has not been sent
type Formatted struct {
	Paper   layout.PaperProfile `json:"paper"`
	Data    []byte              `json:"-"`
	Preview []string            `json:"preview,omitempty"`
}

// paper resolves a requested width; empty means the configured default
func (s *PrintService) paper(width string) (layout.PaperProfile, error) {
	if width == "" {
		return s.config.Paper, nil
	}
	p, err := layout.ParsePaperWidth(width)
	if err != nil {
		return layout.PaperProfile{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return p, nil
}

// FormatLotteryReceipt composes a sale receipt without printing it
func (s *PrintService) FormatLotteryReceipt(r model.Receipt, width string) (*Formatted, error) {
	p, err := s.paper(width)
	if err != nil {
		return nil, err
	}

	out := &Formatted{Paper: p, Data: s.composer.ComposeSale(r, p)}
	if preview, err := s.composer.Preview(r, p); err == nil {
		out.Preview = preview
	}
	return out, nil
}

// FormatSalesReport composes a sales report without printing it
func (s *PrintService) FormatSalesReport(r model.Report, width string) (*Formatted, error) {
	p, err := s.paper(width)
	if err != nil {
		return nil, err
	}
	return &Formatted{Paper: p, Data: s.composer.ComposeReport(r, p)}, nil
}

// PrintLotteryReceipt composes and prints a sale receipt
func (s *PrintService) PrintLotteryReceipt(ctx context.Context, r model.Receipt, width string) (*model.PrintJob, error) {
	f, err := s.FormatLotteryReceipt(r, width)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, model.JobKindSale, f.Data)
}

// PrintSalesReport composes and prints a sales report
func (s *PrintService) PrintSalesReport(ctx context.Context, r model.Report, width string) (*model.PrintJob, error) {
	f, err := s.FormatSalesReport(r, width)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, model.JobKindReport, f.Data)
}

// PrintRaw sends caller-built ESC/POS bytes as they are
func (s *PrintService) PrintRaw(ctx context.Context, data []byte) (*model.PrintJob, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty print data", ErrInvalidRequest)
	}
	return s.run(ctx, model.JobKindRaw, data)
}

// run prints data over the persistent connection and records the outcome.
// A failed history write never fails the print.
func (s *PrintService) run(ctx context.Context, kind model.JobKind, data []byte) (*model.PrintJob, error) {
	job := &model.PrintJob{
		ID:        uuid.New(),
		Kind:      kind,
		Bytes:     len(data),
		CreatedAt: time.Now(),
	}
	if saved, err := s.manager.GetSavedPrinter(); err == nil && saved != nil {
		job.PrinterID = saved.ID
		job.TransportKind = saved.TransportKind
	}

	jl := utils.NewJobLogger(s.base, string(kind), job.ID.String())
	jl.Start(zap.String("printer_id", job.PrinterID), zap.Int("bytes", len(data)))

	printErr := s.manager.Print(ctx, data)
	job.DurationMs = jl.Elapsed().Milliseconds()

	if printErr != nil {
		msg := printErr.Error()
		job.Status = model.JobStatusFailed
		job.ErrorMessage = &msg
		jl.Error(printErr)
	} else {
		job.Status = model.JobStatusSuccess
		jl.Success()
	}

	if err := s.jobs.Create(context.WithoutCancel(ctx), job); err != nil {
		s.logger.Warn("Failed to record print job", zap.String("job_id", job.ID.String()), zap.Error(err))
	}

	if printErr != nil {
		return job, printErr
	}
	return job, nil
}

// ScanPrinters scans every transport for duration and returns what was found
func (s *PrintService) ScanPrinters(ctx context.Context, duration time.Duration) []model.PrinterDevice {
	if duration <= 0 {
		duration = s.config.ScanDuration
	}
	devices := s.scanner.Collect(ctx, duration)
	s.logger.Info("Printer scan completed",
		zap.Duration("duration", duration),
		zap.Int("devices_found", len(devices)))
	return devices
}

// StreamScan reports printers as they are found
func (s *PrintService) StreamScan(ctx context.Context, duration time.Duration) <-chan model.PrinterDevice {
	if duration <= 0 {
		duration = s.config.ScanDuration
	}
	return s.scanner.Scan(ctx, duration)
}

// StopScan ends a scan in progress
func (s *PrintService) StopScan() {
	s.scanner.Stop()
}

// SavePrinter remembers the printer future jobs go to
func (s *PrintService) SavePrinter(device model.PrinterDevice) error {
	if err := device.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return s.manager.SavePrinter(device)
}

// GetSavedPrinter returns the saved printer or nil
func (s *PrintService) GetSavedPrinter() (*model.PrinterDevice, error) {
	return s.manager.GetSavedPrinter()
}

// RemoveSavedPrinter forgets the saved printer
func (s *PrintService) RemoveSavedPrinter(ctx context.Context) error {
	return s.manager.RemoveSavedPrinter(ctx)
}

// ConnectPrinter opens a session to device, saving it first when asked
func (s *PrintService) ConnectPrinter(ctx context.Context, device model.PrinterDevice, save bool) error {
	if err := device.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	pl := utils.NewPrinterLogger(s.base, device.ID, string(device.TransportKind))
	if save {
		if err := s.manager.SavePrinter(device); err != nil {
			return err
		}
	}

	_, err := s.manager.Connect(ctx, device)
	pl.LogConnection("connect", err)
	return err
}

// ForceDisconnect closes the bound session
func (s *PrintService) ForceDisconnect(ctx context.Context) {
	s.manager.ForceDisconnect(ctx)
}

// Status returns the connection state
func (s *PrintService) Status() (connection.Status, error) {
	return s.manager.Status()
}

// RecentJobs returns the newest print jobs first
func (s *PrintService) RecentJobs(ctx context.Context, limit int) ([]*model.PrintJob, error) {
	return s.jobs.ListRecent(ctx, limit)
}
