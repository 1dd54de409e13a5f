//go:build !linux && !darwin && !windows

package motion

import "errors"

func querySystem() (bool, error) {
	return false, errors.New("no reduced-motion setting on this platform")
}
