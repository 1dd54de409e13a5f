package hotkey

import (
	"context"
	"time"
)

type Action int

const (
	// ActionToggle flips between started and stopped.
	ActionToggle Action = iota
	// ActionStop silences everything; sent when the chord is held.
	ActionStop
)

func (a Action) String() string {
	if a == ActionStop {
		return "stop"
	}
	return "toggle"
}

// Toggle turns raw chord presses into actions: a tap toggles, a hold longer
// than longPress always stops.
type Toggle struct {
	actions chan Action
}

func NewToggle(ctx context.Context, hk Hotkey, longPress time.Duration) *Toggle {
	t := &Toggle{actions: make(chan Action, 1)}
	go t.run(ctx, hk, longPress)
	return t
}

func (t *Toggle) Actions() <-chan Action { return t.actions }

func (t *Toggle) run(ctx context.Context, hk Hotkey, longPress time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-hk.Keydown():
		}

		timer := time.NewTimer(longPress)
		action := ActionToggle
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-hk.Keyup():
			timer.Stop()
		case <-timer.C:
			action = ActionStop
			select {
			case <-ctx.Done():
				return
			case <-hk.Keyup():
			}
		}

		select {
		case t.actions <- action:
		case <-ctx.Done():
			return
		}
	}
}
