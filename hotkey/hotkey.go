// Package hotkey watches for the global Ctrl+Shift+Space chord that starts
// and stops the alert from outside the focused window.
package hotkey

const Chord = "Ctrl+Shift+Space"

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
