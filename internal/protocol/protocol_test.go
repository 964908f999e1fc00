package protocol

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printer-service/internal/model"
)

func TestLooksLikePrinter(t *testing.T) {
	assert.True(t, LooksLikePrinter("BlueTooth Printer"))
	assert.True(t, LooksLikePrinter("XP-P323B"))
	assert.True(t, LooksLikePrinter("POS-58"))
	assert.False(t, LooksLikePrinter("Galaxy Buds"))
}

func TestIsPrecondition(t *testing.T) {
	assert.True(t, IsPrecondition(fmt.Errorf("wrapped: %w", ErrAdapterDisabled)))
	assert.True(t, IsPrecondition(ErrPermissionDenied))
	assert.False(t, IsPrecondition(ErrNoWritableCharacteristic))
	assert.False(t, IsPrecondition(errors.New("timeout")))
}

func TestBackoff(t *testing.T) {
	ble := DefaultBLEConfig()
	assert.Equal(t, 500*time.Millisecond, ble.Backoff(0))
	assert.Equal(t, 1500*time.Millisecond, ble.Backoff(2))

	classic := DefaultClassicConfig()
	assert.Equal(t, 300*time.Millisecond, classic.Backoff(0))
	assert.Equal(t, time.Second, classic.Backoff(1))
	assert.Equal(t, 2*time.Second, classic.Backoff(2))
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)

	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
}

type stubTransport struct{ kind model.TransportKind }

func (s stubTransport) Kind() model.TransportKind { return s.kind }
func (stubTransport) Scan(context.Context, func(model.PrinterDevice)) error {
	return nil
}
func (stubTransport) StopScan() {}
func (stubTransport) Connect(context.Context, model.PrinterDevice) (Session, error) {
	return nil, ErrNotSupported
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(stubTransport{model.TransportClassic}, stubTransport{model.TransportBLE})

	tr, err := r.Get(model.TransportBLE)
	require.NoError(t, err)
	assert.Equal(t, model.TransportBLE, tr.Kind())

	_, err = r.Get("USB")
	assert.Error(t, err)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, model.TransportBLE, all[0].Kind())
}
