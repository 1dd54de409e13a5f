package main

import (
	"context"
	"math"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"klonshie/config"
	"klonshie/control"
	"klonshie/flash"
	"klonshie/log"
)

// TUI message types
type refreshMsg struct{}
type bindMsg struct{ actions chan<- func(*control.Surface) }

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
	tuiDone    = make(chan struct{})
	tuiCtx     context.Context
)

func currentTUI() *tea.Program {
	tuiMu.Lock()
	defer tuiMu.Unlock()
	return tuiProgram
}

type viewSnapshot struct {
	panel    flash.PanelState
	settings control.Settings
	alarm    bool
	err      string
	device   string
}

// tuiView collects events from the session and wakes the program. Only
// the newest state matters, so wakeups coalesce and senders never block.
type tuiView struct {
	mu     sync.Mutex
	snap   viewSnapshot
	notify chan struct{}
}

func newTUIView() *tuiView {
	return &tuiView{
		snap:   viewSnapshot{panel: flash.PanelState{Mode: flash.ModeIdle, Background: flash.IdleColor, Text: flash.IdleText}},
		notify: make(chan struct{}, 1),
	}
}

func (v *tuiView) update(fn func(*viewSnapshot)) {
	v.mu.Lock()
	fn(&v.snap)
	v.mu.Unlock()
	select {
	case v.notify <- struct{}{}:
	default:
	}
}

func (v *tuiView) snapshot() viewSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snap
}

func (v *tuiView) Render(s flash.PanelState) {
	v.update(func(vs *viewSnapshot) { vs.panel = s })
}

func (v *tuiView) SettingsChanged(s control.Settings) {
	v.update(func(vs *viewSnapshot) { vs.settings = s })
}

func (v *tuiView) AlarmRunning(on bool) {
	v.update(func(vs *viewSnapshot) {
		vs.alarm = on
		if on {
			vs.err = ""
		}
	})
}

func (v *tuiView) Error(err error) {
	v.update(func(vs *viewSnapshot) { vs.err = err.Error() })
}

func (v *tuiView) DeviceLine(text string) {
	v.update(func(vs *viewSnapshot) { vs.device = text })
}

type tuiModel struct {
	view          *tuiView
	snap          viewSnapshot
	actions       chan<- func(*control.Surface)
	width, height int
}

func NewTUIProgram(v *tuiView) *tea.Program {
	m := tuiModel{view: v, snap: v.snapshot()}
	return tea.NewProgram(m, tea.WithAltScreen())
}

// startTUI runs the program on its own goroutine and returns its sink.
func startTUI() EventSink {
	v := newTUIView()
	p := NewTUIProgram(v)

	tuiMu.Lock()
	tuiProgram = p
	tuiMu.Unlock()

	go func() {
		defer close(tuiDone)
		if _, err := p.Run(); err != nil {
			log.Errorf("TUI error: %v", err)
		}
	}()
	go func() {
		for range v.notify {
			p.Send(refreshMsg{})
		}
	}()
	return v
}

// bindTUI connects the running program to the surface. Actions run in
// order on one goroutine so a slow audio resume never stalls the UI.
func bindTUI(ctx context.Context, s *control.Surface) {
	actions := make(chan func(*control.Surface), 32)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case fn := <-actions:
				fn(s)
			}
		}
	}()
	tuiMu.Lock()
	tuiCtx = ctx
	tuiMu.Unlock()
	if p := currentTUI(); p != nil {
		p.Send(bindMsg{actions: actions})
	}
}

func actionContext() context.Context {
	tuiMu.Lock()
	defer tuiMu.Unlock()
	if tuiCtx == nil {
		return context.Background()
	}
	return tuiCtx
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) do(fn func(*control.Surface)) {
	if m.actions == nil {
		return
	}
	select {
	case m.actions <- fn:
	default:
		log.Warn("tui: action dropped, queue full")
	}
}

func stepRate(s *control.Surface, delta float64) {
	r := s.Settings().FlashRateHz + delta
	s.SetRate(math.Round(r*10) / 10)
}

func stepVolume(s *control.Surface, delta float64) {
	v := s.Settings().Volume + delta
	s.SetVolume(math.Round(v*20) / 20)
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case bindMsg:
		m.actions = msg.actions

	case refreshMsg:
		m.snap = m.view.snapshot()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "s", "enter":
			m.do(func(s *control.Surface) { s.Start(actionContext()) })
		case "x", "esc":
			m.do(func(s *control.Surface) { s.Stop() })
		case "f":
			m.do(func(s *control.Surface) { s.SetFlash(!s.Settings().FlashEnabled) })
		case "a":
			m.do(func(s *control.Surface) { s.SetSound(actionContext(), !s.Settings().SoundEnabled) })
		case "[", "left":
			m.do(func(s *control.Surface) { stepRate(s, -config.RateStep) })
		case "]", "right":
			m.do(func(s *control.Surface) { stepRate(s, config.RateStep) })
		case "-", "down":
			m.do(func(s *control.Surface) { stepVolume(s, -config.VolumeStep) })
		case "+", "=", "up":
			m.do(func(s *control.Surface) { stepVolume(s, config.VolumeStep) })
		}
	}
	return m, nil
}

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	alarmStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

// renderSlider draws value on a track of width cells.
func renderSlider(value, lo, hi float64, width int) string {
	if width < 2 {
		width = 2
	}
	t := 0.0
	if hi > lo {
		t = (value - lo) / (hi - lo)
	}
	t = math.Min(math.Max(t, 0), 1)
	pos := int(math.Round(t * float64(width-1)))
	return strings.Repeat("━", pos) + "●" + strings.Repeat("─", width-1-pos)
}

func (m tuiModel) renderPanel(width, height int) string {
	p := m.snap.panel
	return lipgloss.NewStyle().
		Background(lipgloss.Color(p.Background)).
		Foreground(lipgloss.Color(p.Foreground())).
		Bold(true).
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(p.Text)
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	st := m.snap.settings
	const sliderWidth = 20

	var lines []string
	lines = append(lines,
		labelStyle.Render("Flash ")+valueStyle.Render(checkbox(st.FlashEnabled))+
			"   "+labelStyle.Render("Sound ")+valueStyle.Render(checkbox(st.SoundEnabled)),
		labelStyle.Render("Rate   ")+renderSlider(st.FlashRateHz, flash.MinRateHz, flash.MaxRateHz, sliderWidth)+
			" "+valueStyle.Render(control.RateLabel(st.FlashRateHz)),
		labelStyle.Render("Volume ")+renderSlider(st.Volume, 0, 1, sliderWidth)+
			" "+valueStyle.Render(control.VolumeLabel(st.Volume)),
	)

	if m.snap.alarm {
		lines = append(lines, alarmStyle.Render("♪ alarm sounding"))
	} else {
		lines = append(lines, dimStyle.Render("○ alarm silent"))
	}
	if m.snap.device != "" {
		lines = append(lines, dimStyle.Render(m.snap.device))
	}
	if m.snap.err != "" {
		lines = append(lines, warnStyle.Render("⚠ "+m.snap.err))
	}
	lines = append(lines, "", helpLine(), helpStyle.Render("klonshie "+version))

	controls := lipgloss.NewStyle().PaddingLeft(1).Render(strings.Join(lines, "\n"))
	panelHeight := max(m.height-lipgloss.Height(controls)-1, 3)
	return lipgloss.JoinVertical(lipgloss.Left, m.renderPanel(m.width, panelHeight), "", controls)
}

func helpLine() string {
	keys := []struct{ key, what string }{
		{"s", "start"}, {"x", "stop"}, {"f", "flash"}, {"a", "sound"},
		{"[ ]", "rate"}, {"- +", "volume"}, {"q", "quit"},
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = keyStyle.Render(k.key) + helpStyle.Render(" "+k.what)
	}
	return strings.Join(parts, helpStyle.Render(" · "))
}

