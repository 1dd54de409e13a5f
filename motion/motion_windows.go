//go:build windows

package motion

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const spiGetClientAreaAnimation = 0x1042

var (
	user32                   = windows.NewLazySystemDLL("user32.dll")
	procSystemParametersInfo = user32.NewProc("SystemParametersInfoW")
)

// querySystem reads "Show animations in Windows", the setting browsers
// expose as prefers-reduced-motion.
func querySystem() (bool, error) {
	var enabled int32
	r, _, err := procSystemParametersInfo.Call(spiGetClientAreaAnimation, 0, uintptr(unsafe.Pointer(&enabled)), 0)
	if r == 0 {
		return false, fmt.Errorf("SystemParametersInfo: %w", err)
	}
	return enabled == 0, nil
}
