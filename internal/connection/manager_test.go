package connection

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"printer-service/internal/model"
	"printer-service/internal/protocol"
	"printer-service/internal/storage"
)

type fakeSession struct {
	device      model.PrinterDevice
	live        bool
	writeErr    error
	writes      int
	disconnects int
}

func (s *fakeSession) Kind() model.TransportKind   { return s.device.TransportKind }
func (s *fakeSession) Device() model.PrinterDevice { return s.device }
func (s *fakeSession) IsLive(context.Context) bool { return s.live }

func (s *fakeSession) Write(context.Context, []byte) error {
	s.writes++
	return s.writeErr
}

func (s *fakeSession) Disconnect(context.Context) error {
	s.disconnects++
	s.live = false
	return errors.New("already gone")
}

type fakeTransport struct {
	kind       model.TransportKind
	mu         sync.Mutex
	connects   int
	scans      int
	connectErr error
	sessions   []*fakeSession
}

func (t *fakeTransport) Kind() model.TransportKind { return t.kind }

func (t *fakeTransport) Scan(context.Context, func(model.PrinterDevice)) error {
	t.scans++
	return nil
}

func (t *fakeTransport) StopScan() {}

func (t *fakeTransport) Connect(_ context.Context, d model.PrinterDevice) (protocol.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connects++
	if t.connectErr != nil {
		return nil, t.connectErr
	}
	s := &fakeSession{device: d, live: true}
	t.sessions = append(t.sessions, s)
	return s, nil
}

type memoryKV struct{ data map[string]string }

func (m *memoryKV) Get(k string) (string, bool, error) {
	v, ok := m.data[k]
	return v, ok, nil
}
func (m *memoryKV) Set(k, v string) error { m.data[k] = v; return nil }
func (m *memoryKV) Remove(k string) error { delete(m.data, k); return nil }

var (
	blePrinter     = model.PrinterDevice{ID: "AA:BB:CC:DD:EE:FF", Name: "MPT-II", TransportKind: model.TransportBLE}
	classicPrinter = model.PrinterDevice{ID: "00:11:22:33:44:55", Name: "RPP02N", TransportKind: model.TransportClassic}
)

func newTestManager(t *testing.T) (*Manager, *fakeTransport, *fakeTransport) {
	bleT := &fakeTransport{kind: model.TransportBLE}
	classicT := &fakeTransport{kind: model.TransportClassic}
	saved := storage.NewSavedPrinterStore(&memoryKV{data: map[string]string{}})

	m := NewManager(protocol.NewRegistry(bleT, classicT), saved, Config{MaxRetries: DefaultMaxRetries}, zaptest.NewLogger(t))
	return m, bleT, classicT
}

func TestPrintWithoutSavedPrinter(t *testing.T) {
	m, bleT, classicT := newTestManager(t)

	err := m.Print(context.Background(), []byte("hi"))
	assert.ErrorIs(t, err, ErrNoPrinterConfigured)
	assert.Equal(t, "No printer configured", err.Error())
	assert.Zero(t, bleT.connects+classicT.connects)
	assert.Zero(t, bleT.scans+classicT.scans, "printing never scans")
}

func TestReuseLiveSession(t *testing.T) {
	m, bleT, _ := newTestManager(t)
	require.NoError(t, m.SavePrinter(blePrinter))

	s1, err := m.GetOrCreateConnection(context.Background())
	require.NoError(t, err)
	s2, err := m.GetOrCreateConnection(context.Background())
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	assert.Equal(t, 1, bleT.connects)
	assert.Equal(t, model.ConnectionBound, m.State())
}

func TestReconnectWhenSessionLost(t *testing.T) {
	m, bleT, _ := newTestManager(t)
	require.NoError(t, m.SavePrinter(blePrinter))

	s1, err := m.GetOrCreateConnection(context.Background())
	require.NoError(t, err)
	s1.(*fakeSession).live = false

	s2, err := m.GetOrCreateConnection(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, s1, s2)
	assert.Equal(t, 2, bleT.connects)
	assert.Equal(t, 1, s1.(*fakeSession).disconnects)
}

func TestReconnectWhenSavedPrinterChanges(t *testing.T) {
	m, bleT, classicT := newTestManager(t)
	require.NoError(t, m.SavePrinter(blePrinter))
	_, err := m.GetOrCreateConnection(context.Background())
	require.NoError(t, err)

	require.NoError(t, m.SavePrinter(classicPrinter))
	s, err := m.GetOrCreateConnection(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.TransportClassic, s.Kind())
	assert.Equal(t, 1, bleT.sessions[0].disconnects)
	assert.Equal(t, 1, classicT.connects)
}

func TestConnectFailureSurfaces(t *testing.T) {
	m, bleT, _ := newTestManager(t)
	bleT.connectErr = errors.New("ble connect failed after 3 attempts: timeout")
	require.NoError(t, m.SavePrinter(blePrinter))

	err := m.Print(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
	assert.Equal(t, model.ConnectionUnbound, m.State())
}

func TestSendRawRetryExhaustion(t *testing.T) {
	m, _, _ := newTestManager(t)
	s := &fakeSession{device: blePrinter, live: true, writeErr: errors.New("gatt write timeout")}

	err := m.SendRaw(context.Background(), s, []byte("data"), 2)
	require.Error(t, err)
	assert.Equal(t, 3, s.writes)
	assert.Contains(t, err.Error(), "gatt write timeout")
	assert.Contains(t, err.Error(), "print failed after 3 attempts")
}

func TestSendRawSucceedsAfterRetry(t *testing.T) {
	m, _, _ := newTestManager(t)
	s := &flakySession{fakeSession: fakeSession{device: blePrinter, live: true}, failures: 1}

	require.NoError(t, m.SendRaw(context.Background(), s, []byte("data"), 2))
	assert.Equal(t, 2, s.writes)
}

type flakySession struct {
	fakeSession
	failures int
}

func (s *flakySession) Write(context.Context, []byte) error {
	s.writes++
	if s.writes <= s.failures {
		return errors.New("busy")
	}
	return nil
}

func TestPrintDropsSessionAfterExhaustion(t *testing.T) {
	m, bleT, _ := newTestManager(t)
	require.NoError(t, m.SavePrinter(blePrinter))

	s, err := m.GetOrCreateConnection(context.Background())
	require.NoError(t, err)
	s.(*fakeSession).writeErr = errors.New("link lost")

	err = m.Print(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.Equal(t, 3, s.(*fakeSession).writes)
	assert.Equal(t, model.ConnectionUnbound, m.State())

	require.NoError(t, m.Print(context.Background(), []byte("x")))
	assert.Equal(t, 2, bleT.connects)
}

func TestSaveAndGetPrinter(t *testing.T) {
	m, _, _ := newTestManager(t)
	require.NoError(t, m.SavePrinter(classicPrinter))

	got, err := m.GetSavedPrinter()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, classicPrinter.ID, got.ID)
	assert.Equal(t, classicPrinter.Name, got.Name)
	assert.Equal(t, classicPrinter.TransportKind, got.TransportKind)
}

func TestRemoveThenPrintIsConfigurationError(t *testing.T) {
	m, _, _ := newTestManager(t)
	require.NoError(t, m.SavePrinter(blePrinter))
	s, err := m.GetOrCreateConnection(context.Background())
	require.NoError(t, err)

	require.NoError(t, m.RemoveSavedPrinter(context.Background()))
	assert.Equal(t, model.ConnectionUnbound, m.State())
	assert.Equal(t, 1, s.(*fakeSession).disconnects)

	err = m.Print(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrNoPrinterConfigured)
	assert.Zero(t, s.(*fakeSession).writes)
}

func TestForceDisconnect(t *testing.T) {
	m, _, _ := newTestManager(t)
	require.NoError(t, m.SavePrinter(blePrinter))
	s, err := m.GetOrCreateConnection(context.Background())
	require.NoError(t, err)

	m.ForceDisconnect(context.Background())
	assert.Equal(t, model.ConnectionUnbound, m.State())
	assert.Equal(t, 1, s.(*fakeSession).disconnects, "disconnect error is swallowed")

	m.ForceDisconnect(context.Background())
	assert.Equal(t, 1, s.(*fakeSession).disconnects)
}

func TestDisconnectPrinterKeepsSession(t *testing.T) {
	m, _, _ := newTestManager(t)
	require.NoError(t, m.SavePrinter(blePrinter))
	_, err := m.GetOrCreateConnection(context.Background())
	require.NoError(t, err)

	m.DisconnectPrinter()
	assert.Equal(t, model.ConnectionBound, m.State())
}

func TestConnectReplacesBoundSession(t *testing.T) {
	m, bleT, classicT := newTestManager(t)

	s1, err := m.Connect(context.Background(), blePrinter)
	require.NoError(t, err)
	_, err = m.Connect(context.Background(), classicPrinter)
	require.NoError(t, err)

	assert.Equal(t, 1, s1.(*fakeSession).disconnects)
	assert.Equal(t, 1, bleT.connects)
	assert.Equal(t, 1, classicT.connects)

	st, err := m.Status()
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionBound, st.State)
	assert.Equal(t, classicPrinter.ID, st.Device.ID)
	assert.Nil(t, st.SavedPrinter)
}

func TestConcurrentPrintsShareOneSession(t *testing.T) {
	m, bleT, _ := newTestManager(t)
	require.NoError(t, m.SavePrinter(blePrinter))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.Print(context.Background(), []byte("x")))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, bleT.connects)
	assert.Equal(t, 8, bleT.sessions[0].writes)
}
