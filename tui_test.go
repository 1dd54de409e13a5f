package main

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"klonshie/control"
	"klonshie/flash"
)

func TestRenderSlider(t *testing.T) {
	tests := []struct {
		value, lo, hi float64
		width         int
		want          string
	}{
		{0.5, 0.5, 2.0, 4, "●───"},
		{2.0, 0.5, 2.0, 4, "━━━●"},
		{0.5, 0, 1, 5, "━━●──"},
		{9, 0, 1, 3, "━━●"},
		{-1, 0, 1, 3, "●──"},
		{1, 1, 1, 3, "●──"},
		{0.5, 0, 1, 0, "━●"},
	}
	for _, tt := range tests {
		if got := renderSlider(tt.value, tt.lo, tt.hi, tt.width); got != tt.want {
			t.Errorf("renderSlider(%v, %v, %v, %d) = %q, want %q", tt.value, tt.lo, tt.hi, tt.width, got, tt.want)
		}
	}
}

func TestCheckbox(t *testing.T) {
	if checkbox(true) != "[x]" || checkbox(false) != "[ ]" {
		t.Errorf("checkbox = %q / %q", checkbox(true), checkbox(false))
	}
}

func TestTUIViewCoalescesWakeups(t *testing.T) {
	v := newTUIView()
	v.Render(flash.PanelState{Mode: flash.ModeDim, Background: flash.DimColor})
	v.Render(flash.PanelState{Mode: flash.ModeBright, Background: flash.BrightColor, Text: flash.Glyph})
	v.AlarmRunning(true)

	if len(v.notify) != 1 {
		t.Errorf("pending wakeups = %d, want 1", len(v.notify))
	}
	snap := v.snapshot()
	if snap.panel.Mode != flash.ModeBright || !snap.alarm {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestTUIViewAlarmClearsError(t *testing.T) {
	v := newTUIView()
	v.Error(errors.New("no output device"))
	if v.snapshot().err == "" {
		t.Fatal("error not recorded")
	}
	v.AlarmRunning(true)
	if v.snapshot().err != "" {
		t.Error("error survived a successful alarm start")
	}
}

func TestUpdateQueuesActions(t *testing.T) {
	actions := make(chan func(*control.Surface), 8)
	var m tea.Model = tuiModel{view: newTUIView()}
	m, _ = m.Update(bindMsg{actions: actions})

	for _, k := range []string{"s", "x", "f", "a", "[", "]", "-", "+"} {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	}
	if len(actions) != 8 {
		t.Errorf("queued %d actions, want 8", len(actions))
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("z")})
	if len(actions) != 8 {
		t.Error("unbound key queued an action")
	}
}

func TestUpdateWithoutBindDropsActions(t *testing.T) {
	m := tuiModel{view: newTUIView()}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
}

func TestQuitKey(t *testing.T) {
	m := tuiModel{view: newTUIView()}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestViewShowsPanelAndControls(t *testing.T) {
	v := newTUIView()
	v.SettingsChanged(control.Settings{FlashEnabled: true, SoundEnabled: false, FlashRateHz: 1.5, Volume: 0.6})
	v.DeviceLine("output: system default")
	v.Error(errors.New("audio device unavailable"))

	var m tea.Model = tuiModel{view: v}
	m, _ = m.Update(tea.WindowSizeMsg{Width: 60, Height: 24})
	m, _ = m.Update(refreshMsg{})

	out := m.View()
	for _, want := range []string{flash.IdleText, "[x]", "[ ]", "1.5 Hz", "60%", "output: system default", "audio device unavailable", "alarm silent"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}
}

func TestViewBeforeSize(t *testing.T) {
	m := tuiModel{view: newTUIView()}
	if m.View() != "Loading..." {
		t.Errorf("view = %q", m.View())
	}
}
