//go:build !linux

// internal/protocol/ble/goble_other.go
package ble

import (
	"context"

	"printer-service/internal/protocol"
)

type unsupportedStack struct{}

// NewDefaultStack returns a stack that reports ErrNotSupported
func NewDefaultStack() Stack {
	return unsupportedStack{}
}

func (unsupportedStack) Scan(context.Context, func(Advertisement)) error {
	return protocol.ErrNotSupported
}

func (unsupportedStack) Dial(context.Context, string) (Client, error) {
	return nil, protocol.ErrNotSupported
}
