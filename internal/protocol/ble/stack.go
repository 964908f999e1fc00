// internal/protocol/ble/stack.go
package ble

import "context"

// Advertisement is one scan result from the host stack
type Advertisement struct {
	Address string
	Name    string
	RSSI    int
}

// Characteristic is a discovered GATT characteristic
type Characteristic struct {
	UUID            string
	Write           bool
	WriteNoResponse bool

	// native handle owned by the stack implementation
	ref interface{}
}

// Writable reports whether the characteristic accepts any kind of write
func (c Characteristic) Writable() bool {
	return c.Write || c.WriteNoResponse
}

// Stack is the BLE host the transport drives
type Stack interface {
	Scan(ctx context.Context, handler func(Advertisement)) error
	Dial(ctx context.Context, address string) (Client, error)
}

// Client is a GATT connection to one peripheral
type Client interface {
	Characteristics() ([]Characteristic, error)
	Write(c Characteristic, data []byte, withResponse bool) error
	Disconnected() <-chan struct{}
	Close() error
}

// selectWritable returns the first characteristic that accepts writes
func selectWritable(chars []Characteristic) (Characteristic, bool) {
	for _, c := range chars {
		if c.Writable() {
			return c, true
		}
	}
	return Characteristic{}, false
}
