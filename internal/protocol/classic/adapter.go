// internal/protocol/classic/adapter.go
package classic

import (
	"context"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"

	"printer-service/internal/protocol"
)

const (
	bluezService    = "org.bluez"
	adapterIface    = "org.bluez.Adapter1"
	deviceIface     = "org.bluez.Device1"
	objectManagerFn = "org.freedesktop.DBus.ObjectManager.GetManagedObjects"
)

// PairedDevice is a bonded device known to the adapter
type PairedDevice struct {
	Address string
	Name    string
}

// Adapter answers questions about the local Bluetooth controller
type Adapter interface {
	Powered(ctx context.Context) (bool, error)
	PairedDevices(ctx context.Context) ([]PairedDevice, error)
}

// BlueZAdapter queries BlueZ over the system D-Bus
type BlueZAdapter struct {
	path dbus.ObjectPath
}

// NewBlueZAdapter creates an adapter for a controller such as "hci0"
func NewBlueZAdapter(name string) *BlueZAdapter {
	if name == "" {
		name = "hci0"
	}
	return &BlueZAdapter{path: dbus.ObjectPath("/org/bluez/" + name)}
}

func (a *BlueZAdapter) connect() (*dbus.Conn, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "permission") {
			return nil, fmt.Errorf("%w: %v", protocol.ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	return conn, nil
}

// Powered reports the Adapter1.Powered property
func (a *BlueZAdapter) Powered(ctx context.Context) (bool, error) {
	conn, err := a.connect()
	if err != nil {
		return false, err
	}
	defer conn.Close()

	var v dbus.Variant
	err = conn.Object(bluezService, a.path).
		CallWithContext(ctx, "org.freedesktop.DBus.Properties.Get", 0, adapterIface, "Powered").
		Store(&v)
	if err != nil {
		return false, fmt.Errorf("failed to read adapter state: %w", err)
	}

	powered, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("unexpected Powered value: %v", v)
	}
	return powered, nil
}

// PairedDevices lists bonded devices under this adapter
func (a *BlueZAdapter) PairedDevices(ctx context.Context) ([]PairedDevice, error) {
	conn, err := a.connect()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	err = conn.Object(bluezService, "/").CallWithContext(ctx, objectManagerFn, 0).Store(&objects)
	if err != nil {
		return nil, fmt.Errorf("failed to list bluez objects: %w", err)
	}

	return pairedFromObjects(a.path, objects), nil
}

func pairedFromObjects(adapter dbus.ObjectPath, objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant) []PairedDevice {
	var out []PairedDevice
	prefix := string(adapter) + "/"

	for path, ifaces := range objects {
		if !strings.HasPrefix(string(path), prefix) {
			continue
		}
		props, ok := ifaces[deviceIface]
		if !ok {
			continue
		}
		if paired, _ := variantBool(props["Paired"]); !paired {
			continue
		}

		addr := variantString(props["Address"])
		if addr == "" {
			continue
		}
		name := variantString(props["Name"])
		if name == "" {
			name = variantString(props["Alias"])
		}
		out = append(out, PairedDevice{Address: strings.ToUpper(addr), Name: name})
	}
	return out
}

func variantBool(v dbus.Variant) (bool, bool) {
	b, ok := v.Value().(bool)
	return b, ok
}

func variantString(v dbus.Variant) string {
	s, _ := v.Value().(string)
	return s
}
