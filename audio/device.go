package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

var errPickerCancelled = errors.New("device selection cancelled")

// FindDevice returns the device with the given name, or nil if absent.
func FindDevice(ctx Context, name string) *DeviceInfo {
	if name == "" {
		return nil
	}
	devices, err := ctx.Devices()
	if err != nil {
		return nil
	}
	for i := range devices {
		if devices[i].Name == name {
			return &devices[i]
		}
	}
	return nil
}

// SelectDevice lets the user pick an output device on the terminal. The
// first entry is the system default, returned as a nil device.
func SelectDevice(ctx Context) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, nil
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	return newPicker(devices).run(os.Stdin, os.Stdout)
}

type picker struct {
	devices []DeviceInfo
	cursor  int // 0 is the system default
}

func newPicker(devices []DeviceInfo) *picker {
	return &picker{devices: devices}
}

func (p *picker) entries() int { return len(p.devices) + 1 }

func (p *picker) label(i int) string {
	if i == 0 {
		return "System default"
	}
	name := p.devices[i-1].Name
	if IsBluetooth(name) {
		return name + " \x1b[33m[⚠ high latency]\x1b[0m"
	}
	return name
}

func (p *picker) draw(w io.Writer) {
	fmt.Fprint(w, "\r\x1b[J")
	fmt.Fprint(w, "Select output device (↑/↓, Enter to confirm):\r\n\r\n")
	for i := range p.entries() {
		if i == p.cursor {
			fmt.Fprintf(w, "  \x1b[1;36m▶ %s\x1b[0m\r\n", p.label(i))
		} else {
			fmt.Fprintf(w, "    %s\r\n", p.label(i))
		}
	}
}

// key applies one keypress. It reports whether the selection is final.
func (p *picker) key(b []byte) (done bool, err error) {
	switch {
	case len(b) == 1 && (b[0] == '\r' || b[0] == '\n'):
		return true, nil
	case len(b) == 1 && (b[0] == 3 || b[0] == 'q'):
		return true, errPickerCancelled
	case len(b) == 1 && b[0] == 'j', len(b) == 3 && b[0] == 0x1b && b[1] == '[' && b[2] == 'B':
		p.cursor = min(p.cursor+1, p.entries()-1)
	case len(b) == 1 && b[0] == 'k', len(b) == 3 && b[0] == 0x1b && b[1] == '[' && b[2] == 'A':
		p.cursor = max(p.cursor-1, 0)
	}
	return false, nil
}

func (p *picker) selected() *DeviceInfo {
	if p.cursor == 0 {
		return nil
	}
	return &p.devices[p.cursor-1]
}

func (p *picker) run(in io.Reader, out io.Writer) (*DeviceInfo, error) {
	p.draw(out)
	buf := make([]byte, 3)
	for {
		n, err := in.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		done, err := p.key(buf[:n])
		if done {
			fmt.Fprint(out, "\r\n")
			if err != nil {
				return nil, err
			}
			return p.selected(), nil
		}
		fmt.Fprintf(out, "\x1b[%dA", p.entries()+2)
		p.draw(out)
	}
}
