// internal/protocol/protocol.go
package protocol

import (
	"context"
	"errors"
	"strings"
	"time"

	"printer-service/internal/model"
)

// Precondition and session errors shared by the transports
var (
	ErrAdapterDisabled          = errors.New("bluetooth adapter is disabled")
	ErrPermissionDenied         = errors.New("bluetooth permission denied")
	ErrNoWritableCharacteristic = errors.New("no writable characteristic found")
	ErrSessionClosed            = errors.New("printer session is closed")
	ErrNotSupported             = errors.New("transport not supported on this platform")
)

// Transport discovers printers and opens sessions over one Bluetooth stack
type Transport interface {
	Kind() model.TransportKind

	// Scan reports printers through found until ctx ends or StopScan is called
	Scan(ctx context.Context, found func(model.PrinterDevice)) error
	StopScan()

	Connect(ctx context.Context, device model.PrinterDevice) (Session, error)
}

// Session is a live connection to one printer
type Session interface {
	Kind() model.TransportKind
	Device() model.PrinterDevice

	Write(ctx context.Context, data []byte) error
	IsLive(ctx context.Context) bool

	// Disconnect is best-effort. The error is for logging only.
	Disconnect(ctx context.Context) error
}

// IsPrecondition reports whether err must not be retried
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrAdapterDisabled) ||
		errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrNotSupported)
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// printer name fragments seen on common thermal printers
var printerHints = []string{
	"printer", "print", "pos", "thermal", "receipt",
	"mpt", "mtp", "rpp", "pt-", "xp-", "zj", "gprinter",
}

// LooksLikePrinter is an advisory name check. Scans never filter on it.
func LooksLikePrinter(name string) bool {
	n := strings.ToLower(name)
	for _, hint := range printerHints {
		if strings.Contains(n, hint) {
			return true
		}
	}
	return false
}
