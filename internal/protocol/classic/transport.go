// internal/protocol/classic/transport.go
package classic

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/protocol"
)

// Transport implements protocol.Transport over SPP. Discovery lists bonded
// devices only.
type Transport struct {
	adapter Adapter
	link    Link
	open    PortOpener
	config  protocol.ClassicConfig
	logger  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewTransport creates a classic transport. A nil opener uses OpenSerial.
func NewTransport(adapter Adapter, link Link, open PortOpener, config protocol.ClassicConfig, logger *zap.Logger) *Transport {
	if open == nil {
		open = OpenSerial
	}
	if config.ConnectAttempts <= 0 {
		config.ConnectAttempts = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transport{
		adapter:  adapter,
		link:     link,
		open:     open,
		config:   config,
		logger:   logger.With(zap.String("transport", "classic")),
		sessions: make(map[string]*Session),
	}
}

// Kind returns CLASSIC
func (t *Transport) Kind() model.TransportKind {
	return model.TransportClassic
}

// Scan reports the bonded devices once. It does not wait for ctx.
func (t *Transport) Scan(ctx context.Context, found func(model.PrinterDevice)) error {
	powered, err := t.adapter.Powered(ctx)
	if err != nil {
		return fmt.Errorf("failed to check adapter: %w", err)
	}
	if !powered {
		return protocol.ErrAdapterDisabled
	}

	devices, err := t.adapter.PairedDevices(ctx)
	if err != nil {
		t.logger.Error("Failed to list paired devices", zap.Error(err))
		return fmt.Errorf("failed to list paired devices: %w", err)
	}

	for _, d := range devices {
		if ctx.Err() != nil {
			break
		}
		name := d.Name
		if name == "" {
			name = d.Address
		}
		found(model.PrinterDevice{
			ID:            d.Address,
			Name:          name,
			TransportKind: model.TransportClassic,
			Address:       d.Address,
			LikelyPrinter: protocol.LooksLikePrinter(name),
		})
	}

	t.logger.Info("Listed paired classic devices", zap.Int("devices", len(devices)))
	return nil
}

// StopScan is a no-op, the paired list is returned at once
func (t *Transport) StopScan() {}

// Connect opens an SPP session, reusing a live one for the same address
func (t *Transport) Connect(ctx context.Context, device model.PrinterDevice) (protocol.Session, error) {
	if err := device.Validate(); err != nil {
		return nil, err
	}
	if device.TransportKind != model.TransportClassic {
		return nil, fmt.Errorf("device %s is not a classic printer", device.ID)
	}

	powered, err := t.adapter.Powered(ctx)
	if err != nil {
		if protocol.IsPrecondition(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to check adapter: %w", err)
	}
	if !powered {
		return nil, protocol.ErrAdapterDisabled
	}

	addr := strings.ToUpper(device.ConnectAddress())
	logger := t.logger.With(zap.String("address", addr))

	t.mu.Lock()
	existing := t.sessions[addr]
	t.mu.Unlock()

	if existing != nil {
		if existing.IsLive(ctx) {
			logger.Info("Reusing open classic session")
			return existing, nil
		}
		logger.Info("Clearing stale classic session")
		_ = existing.Disconnect(ctx)
	}

	var lastErr error
	for attempt := 0; attempt < t.config.ConnectAttempts; attempt++ {
		if err := protocol.Sleep(ctx, t.config.Backoff(attempt)); err != nil {
			return nil, err
		}

		logger.Info("Connecting to classic printer", zap.Int("attempt", attempt+1))

		session, err := t.connectOnce(ctx, device, addr)
		if err == nil {
			t.mu.Lock()
			t.sessions[addr] = session
			t.mu.Unlock()

			logger.Info("Classic printer connected", zap.String("device_path", session.path))
			return session, nil
		}

		lastErr = err
		logger.Warn("Classic connect attempt failed", zap.Int("attempt", attempt+1), zap.Error(err))

		if protocol.IsPrecondition(err) || errors.Is(err, context.Canceled) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("classic connect to %s failed after %d attempts: %w", addr, t.config.ConnectAttempts, lastErr)
}

func (t *Transport) connectOnce(ctx context.Context, device model.PrinterDevice, addr string) (*Session, error) {
	path, err := t.link.Bind(ctx, addr, t.config.Channel)
	if err != nil {
		return nil, err
	}

	port, err := t.open(path, t.mode())
	if err != nil {
		if rerr := t.link.Release(ctx, path); rerr != nil {
			t.logger.Debug("Failed to release rfcomm device", zap.Error(rerr))
		}
		if errors.Is(err, os.ErrPermission) || strings.Contains(strings.ToLower(err.Error()), "permission denied") {
			return nil, fmt.Errorf("%w: %v", protocol.ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	device.Address = addr
	return &Session{
		transport: t,
		device:    device,
		port:      port,
		path:      path,
		address:   addr,
	}, nil
}

// mode builds the fixed serial framing
func (t *Transport) mode() *serial.Mode {
	mode := &serial.Mode{
		BaudRate: t.config.BaudRate,
		DataBits: t.config.DataBits,
		StopBits: serial.OneStopBit,
		Parity:   serial.NoParity,
	}
	if t.config.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}

	switch t.config.Parity {
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	}
	return mode
}

func (t *Transport) forget(s *Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sessions[s.address] == s {
		delete(t.sessions, s.address)
	}
}

// Session is an open SPP stream
type Session struct {
	transport *Transport
	device    model.PrinterDevice
	port      Port
	path      string
	address   string

	mu     sync.Mutex
	closed bool
}

// Kind returns CLASSIC
func (s *Session) Kind() model.TransportKind {
	return model.TransportClassic
}

// Device returns the connected printer
func (s *Session) Device() model.PrinterDevice {
	return s.device
}

// Write sends the whole payload in one call
func (s *Session) Write(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return protocol.ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	n, err := s.port.Write(data)
	if err != nil {
		return fmt.Errorf("failed to write to %s: %w", s.path, err)
	}
	if n != len(data) {
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	s.transport.logger.Debug("Classic write completed",
		zap.String("address", s.address),
		zap.Int("bytes", len(data)))
	return nil
}

// IsLive reports whether the device node is still present and answers a
// modem status query
func (s *Session) IsLive(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if !s.transport.link.Exists(s.path) {
		return false
	}
	_, err := s.port.GetModemStatusBits()
	return err == nil
}

// Disconnect closes the port and releases the device node. Failures are
// logged and returned.
func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.transport.forget(s)

	var errs []error
	if err := s.port.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close port: %w", err))
	}
	if err := s.transport.link.Release(ctx, s.path); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		s.transport.logger.Warn("Classic disconnect failed",
			zap.String("address", s.address),
			zap.Error(err))
		return err
	}

	s.transport.logger.Info("Classic printer disconnected", zap.String("address", s.address))
	return nil
}
