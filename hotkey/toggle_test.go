package hotkey

import (
	"context"
	"testing"
	"time"
)

func waitAction(t *testing.T, tg *Toggle) Action {
	t.Helper()
	select {
	case a := <-tg.Actions():
		return a
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for action")
	}
	return 0
}

func TestToggleTap(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fk := NewFake()
	tg := NewToggle(ctx, fk, time.Second)

	fk.SimTap()
	if a := waitAction(t, tg); a != ActionToggle {
		t.Errorf("tap = %v, want toggle", a)
	}
	fk.SimTap()
	if a := waitAction(t, tg); a != ActionToggle {
		t.Errorf("second tap = %v, want toggle", a)
	}
}

func TestToggleHoldStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fk := NewFake()
	threshold := 30 * time.Millisecond
	tg := NewToggle(ctx, fk, threshold)

	fk.SimKeydown()
	time.Sleep(threshold + 30*time.Millisecond)
	select {
	case a := <-tg.Actions():
		t.Fatalf("action %v before release", a)
	default:
	}
	fk.SimKeyup()
	if a := waitAction(t, tg); a != ActionStop {
		t.Errorf("hold = %v, want stop", a)
	}
}

func TestToggleStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fk := NewFake()
	tg := NewToggle(ctx, fk, time.Second)
	cancel()

	time.Sleep(20 * time.Millisecond)
	fk.SimKeydown()
	fk.SimKeyup()
	select {
	case a := <-tg.Actions():
		t.Errorf("action %v after cancel", a)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestActionString(t *testing.T) {
	if ActionToggle.String() != "toggle" || ActionStop.String() != "stop" {
		t.Error("unexpected action names")
	}
}
