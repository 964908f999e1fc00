// internal/handler/websocket_types.go
package handler

import (
	"time"
)

// Scan stream message types
const (
	MessageScanStarted  = "scan_started"
	MessagePrinterFound = "printer_found"
	MessageScanComplete = "scan_complete"
	MessageStop         = "stop"
	MessagePing         = "ping"
	MessagePong         = "pong"
)

// WebSocketMessage represents a WebSocket message
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}
