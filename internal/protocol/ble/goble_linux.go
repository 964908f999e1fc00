//go:build linux

// internal/protocol/ble/goble_linux.go
package ble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"syscall"

	goble "github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"

	"printer-service/internal/protocol"
)

// goBLEStack drives the local HCI controller through go-ble. The device is
// opened on first use so the service starts without an adapter.
type goBLEStack struct {
	mu  sync.Mutex
	dev goble.Device
}

// NewDefaultStack returns the HCI-backed stack
func NewDefaultStack() Stack {
	return &goBLEStack{}
}

func (s *goBLEStack) device() (goble.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev != nil {
		return s.dev, nil
	}

	d, err := linux.NewDevice()
	if err != nil {
		return nil, classifyHCIError(err)
	}
	goble.SetDefaultDevice(d)
	s.dev = d
	return d, nil
}

func (s *goBLEStack) Scan(ctx context.Context, handler func(Advertisement)) error {
	if _, err := s.device(); err != nil {
		return err
	}

	return goble.Scan(ctx, false, func(a goble.Advertisement) {
		handler(Advertisement{
			Address: a.Addr().String(),
			Name:    a.LocalName(),
			RSSI:    a.RSSI(),
		})
	}, nil)
}

func (s *goBLEStack) Dial(ctx context.Context, address string) (Client, error) {
	if _, err := s.device(); err != nil {
		return nil, err
	}

	c, err := goble.Dial(ctx, goble.NewAddr(address))
	if err != nil {
		return nil, err
	}
	return &goBLEClient{client: c}, nil
}

type goBLEClient struct {
	client goble.Client
}

func (c *goBLEClient) Characteristics() ([]Characteristic, error) {
	prof, err := c.client.DiscoverProfile(true)
	if err != nil {
		return nil, err
	}

	var out []Characteristic
	for _, svc := range prof.Services {
		for _, ch := range svc.Characteristics {
			out = append(out, Characteristic{
				UUID:            ch.UUID.String(),
				Write:           ch.Property&goble.CharWrite != 0,
				WriteNoResponse: ch.Property&goble.CharWriteNR != 0,
				ref:             ch,
			})
		}
	}
	return out, nil
}

func (c *goBLEClient) Write(ch Characteristic, data []byte, withResponse bool) error {
	native, ok := ch.ref.(*goble.Characteristic)
	if !ok {
		return fmt.Errorf("characteristic %s was not discovered by this client", ch.UUID)
	}
	return c.client.WriteCharacteristic(native, data, !withResponse)
}

func (c *goBLEClient) Disconnected() <-chan struct{} {
	return c.client.Disconnected()
}

func (c *goBLEClient) Close() error {
	return c.client.CancelConnection()
}

func classifyHCIError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, syscall.EPERM), errors.Is(err, syscall.EACCES),
		strings.Contains(msg, "operation not permitted"), strings.Contains(msg, "permission denied"):
		return fmt.Errorf("%w: %v", protocol.ErrPermissionDenied, err)
	case strings.Contains(msg, "no devices available"), strings.Contains(msg, "network is down"):
		return fmt.Errorf("%w: %v", protocol.ErrAdapterDisabled, err)
	default:
		return fmt.Errorf("failed to open hci device: %w", err)
	}
}
