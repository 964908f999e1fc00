// internal/protocol/ble/transport.go
package ble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/protocol"
)

// Transport implements protocol.Transport over a BLE Stack
type Transport struct {
	stack  Stack
	config protocol.BLEConfig
	logger *zap.Logger

	mu         sync.Mutex
	scanCancel context.CancelFunc
	scanID     uint64
	sessions   map[string]*Session
}

// NewTransport creates a BLE transport
func NewTransport(stack Stack, config protocol.BLEConfig, logger *zap.Logger) *Transport {
	if config.ConnectAttempts <= 0 {
		config.ConnectAttempts = 3
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transport{
		stack:    stack,
		config:   config,
		logger:   logger.With(zap.String("transport", "ble")),
		sessions: make(map[string]*Session),
	}
}

// Kind returns BLE
func (t *Transport) Kind() model.TransportKind {
	return model.TransportBLE
}

// Scan reports every named advertiser once until ctx ends or StopScan is called
func (t *Transport) Scan(ctx context.Context, found func(model.PrinterDevice)) error {
	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	t.mu.Lock()
	if t.scanCancel != nil {
		t.scanCancel()
	}
	t.scanID++
	id := t.scanID
	t.scanCancel = cancel
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		if t.scanID == id {
			t.scanCancel = nil
		}
		t.mu.Unlock()
	}()

	t.logger.Info("Starting BLE scan")

	var seenMu sync.Mutex
	seen := make(map[string]bool)
	count := 0

	err := t.stack.Scan(scanCtx, func(a Advertisement) {
		name := strings.TrimSpace(a.Name)
		if name == "" || a.Address == "" {
			return
		}
		addr := strings.ToUpper(a.Address)

		seenMu.Lock()
		if seen[addr] {
			seenMu.Unlock()
			return
		}
		seen[addr] = true
		count++
		seenMu.Unlock()

		rssi := a.RSSI
		found(model.PrinterDevice{
			ID:            addr,
			Name:          name,
			TransportKind: model.TransportBLE,
			Address:       addr,
			RSSI:          &rssi,
			LikelyPrinter: protocol.LooksLikePrinter(name),
		})
	})

	seenMu.Lock()
	total := count
	seenMu.Unlock()

	if err != nil && scanCtx.Err() == nil {
		t.logger.Error("BLE scan failed", zap.Error(err))
		return fmt.Errorf("ble scan failed: %w", err)
	}

	t.logger.Info("BLE scan finished", zap.Int("devices", total))
	return nil
}

// StopScan ends an in-flight scan
func (t *Transport) StopScan() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.scanCancel != nil {
		t.scanCancel()
		t.scanCancel = nil
	}
}

// Connect opens a session, retrying with a growing backoff. Every failed
// attempt is torn down before the next one.
func (t *Transport) Connect(ctx context.Context, device model.PrinterDevice) (protocol.Session, error) {
	if err := device.Validate(); err != nil {
		return nil, err
	}
	if device.TransportKind != model.TransportBLE {
		return nil, fmt.Errorf("device %s is not a BLE printer", device.ID)
	}

	t.StopScan()

	addr := strings.ToUpper(device.ConnectAddress())
	t.releaseStale(ctx, addr)

	logger := t.logger.With(zap.String("address", addr))

	var lastErr error
	for attempt := 0; attempt < t.config.ConnectAttempts; attempt++ {
		if err := protocol.Sleep(ctx, t.config.Backoff(attempt)); err != nil {
			return nil, err
		}

		logger.Info("Connecting to BLE printer", zap.Int("attempt", attempt+1))

		session, err := t.connectOnce(ctx, device, addr)
		if err == nil {
			t.mu.Lock()
			t.sessions[addr] = session
			t.mu.Unlock()

			logger.Info("BLE printer connected",
				zap.String("characteristic", session.char.UUID),
				zap.Bool("with_response", session.char.Write))
			return session, nil
		}

		lastErr = err
		logger.Warn("BLE connect attempt failed", zap.Int("attempt", attempt+1), zap.Error(err))

		if protocol.IsPrecondition(err) || errors.Is(err, context.Canceled) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("ble connect to %s failed after %d attempts: %w", addr, t.config.ConnectAttempts, lastErr)
}

func (t *Transport) connectOnce(ctx context.Context, device model.PrinterDevice, addr string) (*Session, error) {
	dialCtx := ctx
	if t.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, t.config.ConnectTimeout)
		defer cancel()
	}

	client, err := t.stack.Dial(dialCtx, addr)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	if err := protocol.Sleep(ctx, t.config.StabilizeDelay); err != nil {
		t.closeClient(client)
		return nil, err
	}

	chars, err := client.Characteristics()
	if err != nil {
		t.closeClient(client)
		return nil, fmt.Errorf("service discovery failed: %w", err)
	}

	char, ok := selectWritable(chars)
	if !ok {
		t.closeClient(client)
		return nil, protocol.ErrNoWritableCharacteristic
	}

	device.Address = addr
	return &Session{
		transport: t,
		device:    device,
		client:    client,
		char:      char,
		address:   addr,
	}, nil
}

func (t *Transport) releaseStale(ctx context.Context, addr string) {
	t.mu.Lock()
	stale, ok := t.sessions[addr]
	t.mu.Unlock()

	if ok {
		t.logger.Info("Releasing stale BLE session", zap.String("address", addr))
		_ = stale.Disconnect(ctx)
	}
}

func (t *Transport) forget(s *Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sessions[s.address] == s {
		delete(t.sessions, s.address)
	}
}

func (t *Transport) closeClient(c Client) {
	if err := c.Close(); err != nil {
		t.logger.Debug("Failed to cancel BLE connection", zap.Error(err))
	}
}

// Session is a GATT connection bound to one writable characteristic
type Session struct {
	transport *Transport
	device    model.PrinterDevice
	client    Client
	char      Characteristic
	address   string

	mu     sync.Mutex
	closed bool
}

// Kind returns BLE
func (s *Session) Kind() model.TransportKind {
	return model.TransportBLE
}

// Device returns the connected printer
func (s *Session) Device() model.PrinterDevice {
	return s.device
}

// Write sends data in MTU-safe chunks. Each chunk is confirmed when the
// characteristic supports it.
func (s *Session) Write(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return protocol.ErrSessionClosed
	}

	cfg := s.transport.config
	withResponse := s.char.Write
	chunks := (len(data) + cfg.ChunkSize - 1) / cfg.ChunkSize
	start := time.Now()

	for i := 0; i < chunks; i++ {
		from := i * cfg.ChunkSize
		to := from + cfg.ChunkSize
		if to > len(data) {
			to = len(data)
		}

		if err := s.client.Write(s.char, data[from:to], withResponse); err != nil {
			return fmt.Errorf("ble write chunk %d/%d failed: %w", i+1, chunks, err)
		}

		if i < chunks-1 {
			if err := protocol.Sleep(ctx, cfg.ChunkDelay); err != nil {
				return err
			}
		}
	}

	s.transport.logger.Debug("BLE write completed",
		zap.String("address", s.address),
		zap.Int("bytes", len(data)),
		zap.Int("chunks", chunks),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// IsLive reports whether the peripheral is still connected
func (s *Session) IsLive(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case <-s.client.Disconnected():
		return false
	default:
		return true
	}
}

// Disconnect cancels the connection. Failures are logged and returned.
func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.transport.forget(s)

	if err := s.client.Close(); err != nil {
		s.transport.logger.Warn("BLE disconnect failed",
			zap.String("address", s.address),
			zap.Error(err))
		return fmt.Errorf("ble disconnect failed: %w", err)
	}

	s.transport.logger.Info("BLE printer disconnected", zap.String("address", s.address))
	return nil
}
