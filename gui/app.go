//go:build gui

// Package gui is the desktop surface: a Fyne window with the alert panel
// on top and the controls below, plus a tray menu.
package gui

import (
	"context"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"klonshie/config"
	"klonshie/control"
	"klonshie/flash"
)

type App struct {
	version string
	onReady func()

	fyneApp fyne.App
	window  fyne.Window
	panel   *PanelWidget

	flashCheck *widget.Check
	soundCheck *widget.Check
	rateSlider *widget.Slider
	rateLabel  *widget.Label
	volSlider  *widget.Slider
	volLabel   *widget.Label
	status     *widget.Label
	device     *widget.Label
	errLabel   *widget.Label

	// updating is set while settings are pushed into the widgets so their
	// OnChanged callbacks do not echo back into the surface. Fyne thread only.
	updating bool

	actions  chan func(*control.Surface)
	done     chan struct{}
	doneOnce sync.Once
}

func NewApp(version string, onReady func()) *App {
	return &App{
		version: version,
		onReady: onReady,
		actions: make(chan func(*control.Surface), 32),
		done:    make(chan struct{}),
	}
}

func Run(a *App) error {
	a.fyneApp = app.NewWithID("io.klonshie.gui")
	a.fyneApp.Settings().SetTheme(&panelTheme{})

	a.window = a.fyneApp.NewWindow(fmt.Sprintf("klonshie %s", a.version))
	a.window.SetContent(a.build())
	a.window.Resize(fyne.NewSize(420, 360))
	a.window.SetCloseIntercept(a.markDone)
	a.window.Canvas().SetOnTypedKey(a.typedKey)
	a.setupTray()
	a.window.Show()

	go a.onReady()

	a.fyneApp.Run()
	a.markDone()
	return nil
}

func (a *App) build() fyne.CanvasObject {
	a.panel = NewPanelWidget()

	a.flashCheck = widget.NewCheck("Flash", func(on bool) {
		if a.updating {
			return
		}
		a.do(func(s *control.Surface) { s.SetFlash(on) })
	})
	a.soundCheck = widget.NewCheck("Sound", func(on bool) {
		if a.updating {
			return
		}
		a.do(func(s *control.Surface) { s.SetSound(context.Background(), on) })
	})

	a.rateSlider = widget.NewSlider(flash.MinRateHz, flash.MaxRateHz)
	a.rateSlider.Step = config.RateStep
	a.rateLabel = widget.NewLabel("")
	// Labels follow SettingsChanged so they only show applied values.
	a.rateSlider.OnChanged = func(v float64) {
		if a.updating {
			return
		}
		a.do(func(s *control.Surface) { s.SetRate(v) })
	}

	a.volSlider = widget.NewSlider(0, 1)
	a.volSlider.Step = config.VolumeStep
	a.volLabel = widget.NewLabel("")
	a.volSlider.OnChanged = func(v float64) {
		if a.updating {
			return
		}
		a.do(func(s *control.Surface) { s.SetVolume(v) })
	}

	start := widget.NewButtonWithIcon("Start", theme.MediaPlayIcon(), a.start)
	start.Importance = widget.HighImportance
	stop := widget.NewButtonWithIcon("Stop", theme.MediaStopIcon(), a.stop)

	a.status = widget.NewLabel("")
	a.device = widget.NewLabel("")
	a.device.Importance = widget.LowImportance
	a.errLabel = widget.NewLabel("")
	a.errLabel.Importance = widget.DangerImportance
	a.errLabel.Wrapping = fyne.TextWrapWord

	controls := container.NewVBox(
		container.NewGridWithColumns(2, a.flashCheck, a.soundCheck),
		container.NewBorder(nil, nil, widget.NewLabel("Rate"), a.rateLabel, a.rateSlider),
		container.NewBorder(nil, nil, widget.NewLabel("Volume"), a.volLabel, a.volSlider),
		container.NewGridWithColumns(2, start, stop),
		a.status,
		a.device,
		a.errLabel,
	)
	return container.NewBorder(nil, controls, nil, nil, a.panel)
}

func (a *App) setupTray() {
	desk, ok := a.fyneApp.(desktop.App)
	if !ok {
		return
	}
	menu := fyne.NewMenu("klonshie",
		fyne.NewMenuItem("Start", a.start),
		fyne.NewMenuItem("Stop", a.stop),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Show window", func() { a.window.Show() }),
	)
	desk.SetSystemTrayMenu(menu)
	desk.SetSystemTrayIcon(trayIcon(false))
}

func (a *App) typedKey(ev *fyne.KeyEvent) {
	switch ev.Name {
	case fyne.KeyReturn, fyne.KeyEnter, fyne.KeyS:
		a.start()
	case fyne.KeyEscape, fyne.KeyX:
		a.stop()
	}
}

func (a *App) start() {
	a.do(func(s *control.Surface) { s.Start(context.Background()) })
}

func (a *App) stop() {
	a.do(func(s *control.Surface) { s.Stop() })
}

// do queues fn for the worker started by Bind. Actions are dropped while
// the queue is full so the Fyne thread never blocks on audio.
func (a *App) do(fn func(*control.Surface)) {
	select {
	case a.actions <- fn:
	default:
	}
}

// Bind attaches the control surface and enables the controls.
func (a *App) Bind(ctx context.Context, s *control.Surface) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-a.done:
				return
			case fn := <-a.actions:
				fn(s)
			}
		}
	}()
	a.SettingsChanged(s.Settings())
}

func (a *App) Done() <-chan struct{} { return a.done }

func (a *App) markDone() {
	a.doneOnce.Do(func() { close(a.done) })
}

func (a *App) Quit() {
	a.markDone()
	if a.fyneApp != nil {
		fyne.Do(a.fyneApp.Quit)
	}
}

// Render, SettingsChanged, AlarmRunning, Error and DeviceLine are called
// with session locks held; they only queue work onto the Fyne thread.

func (a *App) Render(st flash.PanelState) {
	fyne.Do(func() { a.panel.SetState(st) })
}

func (a *App) SettingsChanged(s control.Settings) {
	fyne.Do(func() {
		a.updating = true
		defer func() { a.updating = false }()
		a.flashCheck.SetChecked(s.FlashEnabled)
		a.soundCheck.SetChecked(s.SoundEnabled)
		a.rateSlider.SetValue(s.FlashRateHz)
		a.rateLabel.SetText(control.RateLabel(s.FlashRateHz))
		a.volSlider.SetValue(s.Volume)
		a.volLabel.SetText(control.VolumeLabel(s.Volume))
	})
}

func (a *App) AlarmRunning(on bool) {
	fyne.Do(func() {
		if on {
			a.status.SetText("Alarm sounding")
			a.errLabel.SetText("")
		} else {
			a.status.SetText("")
		}
		if desk, ok := a.fyneApp.(desktop.App); ok {
			desk.SetSystemTrayIcon(trayIcon(on))
		}
	})
}

func (a *App) Error(err error) {
	fyne.Do(func() { a.errLabel.SetText(err.Error()) })
}

func (a *App) DeviceLine(text string) {
	fyne.Do(func() { a.device.SetText(text) })
}
