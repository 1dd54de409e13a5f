//go:build linux

package motion

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/rymdport/portal/settings"
)

const (
	gnomeInterface   = "org.gnome.desktop.interface"
	enableAnimations = "enable-animations"
)

// readSetting is replaced in tests.
var readSetting = settings.ReadOne

// querySystem reads GNOME's enable-animations key through the XDG settings
// portal. GTK and most Linux desktops map it to prefers-reduced-motion.
func querySystem() (bool, error) {
	v, err := readSetting(gnomeInterface, enableAnimations)
	if err != nil {
		return false, fmt.Errorf("settings portal: %w", err)
	}
	return decodeAnimations(v)
}

// decodeAnimations unwraps the portal reply. The deprecated Read call wraps
// the value in a second variant.
func decodeAnimations(v any) (bool, error) {
	for {
		inner, ok := v.(dbus.Variant)
		if !ok {
			break
		}
		v = inner.Value()
	}
	enabled, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%s: unexpected value %T", enableAnimations, v)
	}
	return !enabled, nil
}
