// internal/connection/manager.go
package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/protocol"
)

// ErrNoPrinterConfigured is returned when printing without a saved printer
var ErrNoPrinterConfigured = errors.New("No printer configured")

// DefaultMaxRetries is the retry budget of Print
const DefaultMaxRetries = 2

// SavedPrinters persists the single printer the service prints to
type SavedPrinters interface {
	Save(device model.PrinterDevice) error
	Get() (*model.PrinterDevice, error)
	Remove() error
}

// Config controls the write retry policy
type Config struct {
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultConfig returns two retries one second apart
func DefaultConfig() Config {
	return Config{MaxRetries: DefaultMaxRetries, RetryDelay: time.Second}
}

// Status is a snapshot of the manager state
type Status struct {
	State        model.ConnectionState `json:"state"`
	Device       *model.PrinterDevice  `json:"device,omitempty"`
	SavedPrinter *model.PrinterDevice  `json:"saved_printer,omitempty"`
}

// Manager owns the one persistent printer session. All methods serialize on
// a single lock so at most one session exists at a time.
type Manager struct {
	transports *protocol.Registry
	saved      SavedPrinters
	config     Config
	logger     *zap.Logger

	mu      sync.Mutex
	current protocol.Session
	device  *model.PrinterDevice
}

// NewManager creates an unbound manager
func NewManager(transports *protocol.Registry, saved SavedPrinters, config Config, logger *zap.Logger) *Manager {
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		transports: transports,
		saved:      saved,
		config:     config,
		logger:     logger.With(zap.String("component", "connection_manager")),
	}
}

// GetOrCreateConnection returns the bound session when it still serves the
// saved printer and is live, otherwise connects to the saved printer.
func (m *Manager) GetOrCreateConnection(ctx context.Context) (protocol.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreate(ctx)
}

func (m *Manager) getOrCreate(ctx context.Context) (protocol.Session, error) {
	saved, err := m.saved.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load saved printer: %w", err)
	}
	if saved == nil {
		return nil, ErrNoPrinterConfigured
	}

	if m.current != nil && m.device != nil && m.device.SameIdentity(*saved) {
		if m.current.IsLive(ctx) {
			m.logger.Debug("Reusing printer session", zap.String("printer_id", saved.ID))
			return m.current, nil
		}
		m.logger.Info("Printer session lost", zap.String("printer_id", saved.ID))
	}

	m.unbind(ctx)
	return m.connect(ctx, *saved)
}

// Connect opens a session to device and binds it, replacing any bound one
func (m *Manager) Connect(ctx context.Context, device model.PrinterDevice) (protocol.Session, error) {
	if err := device.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.unbind(ctx)
	return m.connect(ctx, device)
}

func (m *Manager) connect(ctx context.Context, device model.PrinterDevice) (protocol.Session, error) {
	transport, err := m.transports.Get(device.TransportKind)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	session, err := transport.Connect(ctx, device)
	if err != nil {
		m.logger.Error("Failed to connect to printer",
			zap.String("printer_id", device.ID),
			zap.String("transport", string(device.TransportKind)),
			zap.Error(err))
		return nil, err
	}

	d := device
	m.current = session
	m.device = &d

	m.logger.Info("Printer bound",
		zap.String("printer_id", device.ID),
		zap.String("printer_name", device.Name),
		zap.String("transport", string(device.TransportKind)),
		zap.Duration("duration", time.Since(start)))
	return session, nil
}

// unbind drops the bound session. Disconnect failures are only logged.
func (m *Manager) unbind(ctx context.Context) {
	if m.current == nil {
		m.device = nil
		return
	}

	if err := m.current.Disconnect(ctx); err != nil {
		m.logger.Warn("Printer disconnect failed", zap.Error(err))
	}
	m.current = nil
	m.device = nil
}

// Print sends data to the saved printer over the persistent session
func (m *Manager) Print(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, err := m.getOrCreate(ctx)
	if err != nil {
		return err
	}
	return m.sendRaw(ctx, session, data, m.config.MaxRetries)
}

// SendRaw writes data with up to maxRetries retries, a fixed delay apart.
// When the bound session exhausts its retries it is dropped.
func (m *Manager) SendRaw(ctx context.Context, session protocol.Session, data []byte, maxRetries int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sendRaw(ctx, session, data, maxRetries)
}

func (m *Manager) sendRaw(ctx context.Context, session protocol.Session, data []byte, maxRetries int) error {
	if session == nil {
		return fmt.Errorf("no printer session")
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	attempts := maxRetries + 1

	logger := m.logger.With(
		zap.String("printer_id", session.Device().ID),
		zap.Int("bytes", len(data)))

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := session.Write(ctx, data)
		if err == nil {
			logger.Info("Print data sent", zap.Int("attempt", attempt))
			return nil
		}

		lastErr = err
		logger.Warn("Print attempt failed", zap.Int("attempt", attempt), zap.Error(err))

		if attempt < attempts {
			if err := protocol.Sleep(ctx, m.config.RetryDelay); err != nil {
				lastErr = err
				break
			}
		}
	}

	if session == m.current {
		m.logger.Info("Dropping printer session after failed print")
		m.unbind(ctx)
	}
	return fmt.Errorf("print failed after %d attempts: %w", attempts, lastErr)
}

// ForceDisconnect tears the session down. The manager always ends unbound.
func (m *Manager) ForceDisconnect(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.logger.Info("Force disconnecting printer", zap.String("printer_id", m.current.Device().ID))
	}
	m.unbind(ctx)
}

// DisconnectPrinter keeps the session open for the next job. Only
// ForceDisconnect closes it.
func (m *Manager) DisconnectPrinter() {}

// SavePrinter replaces the saved printer. The bound session is left alone;
// the next print reconnects if it no longer matches.
func (m *Manager) SavePrinter(device model.PrinterDevice) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.saved.Save(device); err != nil {
		return fmt.Errorf("failed to save printer: %w", err)
	}
	m.logger.Info("Printer saved",
		zap.String("printer_id", device.ID),
		zap.String("transport", string(device.TransportKind)))
	return nil
}

// GetSavedPrinter returns the saved printer or nil
func (m *Manager) GetSavedPrinter() (*model.PrinterDevice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved.Get()
}

// RemoveSavedPrinter forgets the saved printer and disconnects from it
func (m *Manager) RemoveSavedPrinter(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.saved.Remove(); err != nil {
		return fmt.Errorf("failed to remove saved printer: %w", err)
	}
	m.unbind(ctx)
	m.logger.Info("Saved printer removed")
	return nil
}

// State reports whether a session is bound
func (m *Manager) State() model.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state()
}

func (m *Manager) state() model.ConnectionState {
	if m.current != nil {
		return model.ConnectionBound
	}
	return model.ConnectionUnbound
}

// Status returns the state with the bound and saved printers
func (m *Manager) Status() (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{State: m.state()}
	if m.device != nil {
		d := *m.device
		st.Device = &d
	}

	saved, err := m.saved.Get()
	if err != nil {
		return st, fmt.Errorf("failed to load saved printer: %w", err)
	}
	st.SavedPrinter = saved
	return st, nil
}
