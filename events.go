package main

import (
	"klonshie/control"
	"klonshie/flash"
)

// EventSink abstracts the display layer so the Bubble Tea TUI, the Fyne
// window and the headless test mode receive the same panel and control
// events. Every method may be called with controller locks held and must
// not block or call back into the session.
type EventSink interface {
	flash.Panel
	control.EventSink
	DeviceLine(text string)
}
