// internal/model/printer.go
package model

import (
	"fmt"
	"strings"
)

// TransportKind identifies the Bluetooth stack a printer is reached through
type TransportKind string

const (
	TransportBLE     TransportKind = "BLE"
	TransportClassic TransportKind = "CLASSIC"
)

// ParseTransportKind accepts the canonical names plus a few aliases used by
// older clients ("ble", "classic", "spp").
func ParseTransportKind(s string) (TransportKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BLE", "LE":
		return TransportBLE, nil
	case "CLASSIC", "SPP", "BT":
		return TransportClassic, nil
	default:
		return "", fmt.Errorf("unknown transport kind: %q", s)
	}
}

// Valid reports whether the kind is one of the supported transports
func (k TransportKind) Valid() bool {
	return k == TransportBLE || k == TransportClassic
}

// PrinterDevice is a discovered or saved printer identity
type PrinterDevice struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	TransportKind TransportKind `json:"transportKind"`
	Address       string        `json:"address,omitempty"`
	RSSI          *int          `json:"rssi,omitempty"`
	LikelyPrinter bool          `json:"likelyPrinter,omitempty"`
}

// Validate checks the fields required to reconnect to the device later
func (d PrinterDevice) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("printer id is required")
	}
	if !d.TransportKind.Valid() {
		return fmt.Errorf("invalid transport kind: %q", d.TransportKind)
	}
	return nil
}

// ConnectAddress returns the Bluetooth address used to open a session
func (d PrinterDevice) ConnectAddress() string {
	if d.Address != "" {
		return d.Address
	}
	return d.ID
}

// SameIdentity reports whether both values describe the same physical printer
func (d PrinterDevice) SameIdentity(other PrinterDevice) bool {
	return strings.EqualFold(d.ID, other.ID) && d.TransportKind == other.TransportKind
}

// ConnectionState is the connection manager's view of the bound session
type ConnectionState string

const (
	ConnectionUnbound ConnectionState = "UNBOUND"
	ConnectionBound   ConnectionState = "BOUND"
)
