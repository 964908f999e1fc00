// internal/protocol/classic/link.go
package classic

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"go.bug.st/serial"
)

// maxRFCOMMDevices bounds the /dev/rfcommN slots probed
const maxRFCOMMDevices = 10

// Link binds a remote SPP channel to a local device node
type Link interface {
	Bind(ctx context.Context, address string, channel int) (string, error)
	Release(ctx context.Context, devicePath string) error
	Exists(devicePath string) bool
}

// Port is the part of a serial port the session uses
type Port interface {
	Write(p []byte) (int, error)
	Close() error
	GetModemStatusBits() (*serial.ModemStatusBits, error)
}

// PortOpener opens a device node
type PortOpener func(path string, mode *serial.Mode) (Port, error)

// OpenSerial opens a port with go.bug.st/serial
func OpenSerial(path string, mode *serial.Mode) (Port, error) {
	return serial.Open(path, mode)
}

// RFCOMMLink drives the rfcomm tool from BlueZ
type RFCOMMLink struct {
	command string
	helper  string
}

// NewRFCOMMLink creates a link using command (default "rfcomm"), run through
// helper ("sudo", "pkexec" or empty) when privileges are needed.
func NewRFCOMMLink(command, helper string) *RFCOMMLink {
	if command == "" {
		command = "rfcomm"
	}
	return &RFCOMMLink{command: command, helper: helper}
}

func (l *RFCOMMLink) cmd(ctx context.Context, args ...string) *exec.Cmd {
	switch l.helper {
	case "sudo":
		return exec.CommandContext(ctx, "sudo", append([]string{"-n", l.command}, args...)...)
	case "pkexec":
		return exec.CommandContext(ctx, "pkexec", append([]string{l.command}, args...)...)
	default:
		return exec.CommandContext(ctx, l.command, args...)
	}
}

// Bind attaches address to the first free /dev/rfcommN, or returns the node
// already bound to it.
func (l *RFCOMMLink) Bind(ctx context.Context, address string, channel int) (string, error) {
	if _, err := exec.LookPath(l.command); err != nil {
		return "", fmt.Errorf("%s not found, install bluez: %w", l.command, err)
	}

	free := -1
	for i := 0; i < maxRFCOMMDevices; i++ {
		path := fmt.Sprintf("/dev/rfcomm%d", i)
		out, _ := l.cmd(ctx, "show", path).Output()
		text := strings.ToUpper(string(out))

		if strings.Contains(text, strings.ToUpper(address)) {
			return path, nil
		}
		if free < 0 && (len(bytes.TrimSpace(out)) == 0 || strings.Contains(text, "NO SUCH DEVICE")) {
			free = i
		}
	}
	if free < 0 {
		return "", fmt.Errorf("no available rfcomm device slots")
	}

	path := fmt.Sprintf("/dev/rfcomm%d", free)
	out, err := l.cmd(ctx, "bind", strconv.Itoa(free), address, strconv.Itoa(channel)).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("rfcomm bind %s failed: %s: %w", address, strings.TrimSpace(string(out)), err)
	}
	return path, nil
}

// Release unbinds a device node
func (l *RFCOMMLink) Release(ctx context.Context, devicePath string) error {
	out, err := l.cmd(ctx, "release", devicePath).CombinedOutput()
	if err != nil {
		return fmt.Errorf("rfcomm release %s failed: %s: %w", devicePath, strings.TrimSpace(string(out)), err)
	}
	return nil
}

// Exists reports whether the device node is present
func (l *RFCOMMLink) Exists(devicePath string) bool {
	_, err := os.Stat(devicePath)
	return err == nil
}
