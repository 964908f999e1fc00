// internal/protocol/connection.go
package protocol

import "time"

// BLEConfig controls the BLE connect and write policy
type BLEConfig struct {
	ConnectAttempts int           `json:"connect_attempts"`
	BackoffBase     time.Duration `json:"backoff_base"`
	BackoffStep     time.Duration `json:"backoff_step"`
	ConnectTimeout  time.Duration `json:"connect_timeout"`
	StabilizeDelay  time.Duration `json:"stabilize_delay"`
	ChunkSize       int           `json:"chunk_size"`
	ChunkDelay      time.Duration `json:"chunk_delay"`
}

// DefaultBLEConfig returns the MTU-safe defaults
func DefaultBLEConfig() BLEConfig {
	return BLEConfig{
		ConnectAttempts: 3,
		BackoffBase:     500 * time.Millisecond,
		BackoffStep:     500 * time.Millisecond,
		ConnectTimeout:  10 * time.Second,
		StabilizeDelay:  300 * time.Millisecond,
		ChunkSize:       20,
		ChunkDelay:      50 * time.Millisecond,
	}
}

// Backoff returns the delay before connect attempt n (from 0)
func (c BLEConfig) Backoff(attempt int) time.Duration {
	return c.BackoffBase + time.Duration(attempt)*c.BackoffStep
}

// ClassicConfig controls the SPP session over an RFCOMM device node
type ClassicConfig struct {
	Adapter         string        `json:"adapter"`
	Channel         int           `json:"channel"`
	BaudRate        int           `json:"baud_rate"`
	DataBits        int           `json:"data_bits"`
	StopBits        int           `json:"stop_bits"`
	Parity          string        `json:"parity"`
	ConnectAttempts int           `json:"connect_attempts"`
	RetryStep       time.Duration `json:"retry_step"`
	RetryMin        time.Duration `json:"retry_min"`
	RFCOMMCommand   string        `json:"rfcomm_command"`
	PrivilegeHelper string        `json:"privilege_helper"`
}

// DefaultClassicConfig returns 9600 8N1 on channel 1 of hci0
func DefaultClassicConfig() ClassicConfig {
	return ClassicConfig{
		Adapter:         "hci0",
		Channel:         1,
		BaudRate:        9600,
		DataBits:        8,
		StopBits:        1,
		Parity:          "none",
		ConnectAttempts: 3,
		RetryStep:       time.Second,
		RetryMin:        300 * time.Millisecond,
		RFCOMMCommand:   "rfcomm",
	}
}

// Backoff returns the delay before connect attempt n (from 0)
func (c ClassicConfig) Backoff(attempt int) time.Duration {
	d := time.Duration(attempt) * c.RetryStep
	if d < c.RetryMin {
		return c.RetryMin
	}
	return d
}
