// internal/discovery/scanner.go
package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/protocol"
)

// DefaultScanDuration bounds a scan when the caller gives none
const DefaultScanDuration = 5 * time.Second

// ScannerManager runs every transport scan at once and merges the results
// into one stream. A failing transport never stops the others.
type ScannerManager struct {
	logger *zap.Logger

	mu       sync.Mutex
	scanners map[model.TransportKind]protocol.Transport
	cancel   context.CancelFunc
	scanID   uint64
}

// NewScannerManager creates a new scanner manager
func NewScannerManager(logger *zap.Logger) *ScannerManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScannerManager{
		scanners: make(map[model.TransportKind]protocol.Transport),
		logger:   logger,
	}
}

// RegisterScanner registers a transport as a scanner
func (sm *ScannerManager) RegisterScanner(t protocol.Transport) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.scanners[t.Kind()] = t
	sm.logger.Info("Scanner registered", zap.String("type", string(t.Kind())))
}

// GetAvailableScanners returns the registered transport kinds
func (sm *ScannerManager) GetAvailableScanners() []model.TransportKind {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	kinds := make([]model.TransportKind, 0, len(sm.scanners))
	for k := range sm.scanners {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Scan starts every registered scanner for at most duration and returns the
// merged stream. Each printer is reported once per transport. The channel is
// closed once all scanners have settled. A new scan stops the previous one.
func (sm *ScannerManager) Scan(ctx context.Context, duration time.Duration) <-chan model.PrinterDevice {
	sm.mu.Lock()
	scanners := make([]protocol.Transport, 0, len(sm.scanners))
	for _, s := range sm.scanners {
		scanners = append(scanners, s)
	}
	sm.mu.Unlock()

	return sm.run(ctx, duration, scanners)
}

// ScanByType scans a single transport kind
func (sm *ScannerManager) ScanByType(ctx context.Context, kind model.TransportKind, duration time.Duration) (<-chan model.PrinterDevice, error) {
	sm.mu.Lock()
	scanner, ok := sm.scanners[kind]
	sm.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("scanner type not found: %s", kind)
	}
	return sm.run(ctx, duration, []protocol.Transport{scanner}), nil
}

func (sm *ScannerManager) run(ctx context.Context, duration time.Duration, scanners []protocol.Transport) <-chan model.PrinterDevice {
	if duration <= 0 {
		duration = DefaultScanDuration
	}
	scanCtx, cancel := context.WithTimeout(ctx, duration)

	sm.mu.Lock()
	if sm.cancel != nil {
		sm.cancel()
	}
	sm.scanID++
	id := sm.scanID
	sm.cancel = cancel
	sm.mu.Unlock()

	out := make(chan model.PrinterDevice, 16)

	var seenMu sync.Mutex
	seen := make(map[string]bool)

	var wg sync.WaitGroup
	for _, s := range scanners {
		wg.Add(1)
		go func(s protocol.Transport) {
			defer wg.Done()

			kind := s.Kind()
			count := 0
			err := s.Scan(scanCtx, func(d model.PrinterDevice) {
				key := string(d.TransportKind) + "|" + strings.ToUpper(d.ID)

				seenMu.Lock()
				dup := seen[key]
				seen[key] = true
				seenMu.Unlock()
				if dup {
					return
				}

				select {
				case out <- d:
					count++
				case <-scanCtx.Done():
				}
			})
			if err != nil {
				sm.logger.Error("Scanner failed", zap.String("type", string(kind)), zap.Error(err))
				return
			}

			sm.logger.Info("Scanner completed",
				zap.String("type", string(kind)),
				zap.Int("devices_found", count))
		}(s)
	}

	go func() {
		wg.Wait()
		cancel()

		sm.mu.Lock()
		if sm.scanID == id {
			sm.cancel = nil
		}
		sm.mu.Unlock()

		close(out)
	}()

	return out
}

// Stop ends the scan in progress early
func (sm *ScannerManager) Stop() {
	sm.mu.Lock()
	cancel := sm.cancel
	sm.cancel = nil
	scanners := make([]protocol.Transport, 0, len(sm.scanners))
	for _, s := range sm.scanners {
		scanners = append(scanners, s)
	}
	sm.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, s := range scanners {
		s.StopScan()
	}
}

// ScanAllPrinters calls onFound for every printer found within duration and
// returns once all transports have settled.
func (sm *ScannerManager) ScanAllPrinters(ctx context.Context, onFound func(model.PrinterDevice), duration time.Duration) {
	for d := range sm.Scan(ctx, duration) {
		onFound(d)
	}
}

// Collect scans for duration and returns the printers found, likely printers
// first, then by signal strength.
func (sm *ScannerManager) Collect(ctx context.Context, duration time.Duration) []model.PrinterDevice {
	var devices []model.PrinterDevice
	sm.ScanAllPrinters(ctx, func(d model.PrinterDevice) {
		devices = append(devices, d)
	}, duration)

	sort.SliceStable(devices, func(i, j int) bool {
		a, b := devices[i], devices[j]
		if a.LikelyPrinter != b.LikelyPrinter {
			return a.LikelyPrinter
		}
		return rssiOf(a) > rssiOf(b)
	})
	return devices
}

func rssiOf(d model.PrinterDevice) int {
	if d.RSSI == nil {
		return -1000
	}
	return *d.RSSI
}
