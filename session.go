package main

import (
	"context"
	"fmt"

	"klonshie/alarm"
	"klonshie/audio"
	"klonshie/config"
	"klonshie/control"
	"klonshie/flash"
	"klonshie/hotkey"
	"klonshie/log"
	"klonshie/motion"
)

// session is everything one run of the program owns.
type session struct {
	backend audio.Context
	device  *audio.DeviceInfo
	synth   *alarm.Synth
	flash   *flash.Controller
	surface *control.Surface
	sink    EventSink
}

func newSession(cfg config.Config, backend audio.Context, device *audio.DeviceInfo, clock flash.Clock, pref motion.Preference, sink EventSink) *session {
	synth := alarm.NewSynth(backend, synthConfig(cfg, device))
	fc := flash.New(clock, pref, sink)
	s := &session{
		backend: backend,
		device:  device,
		synth:   synth,
		flash:   fc,
		surface: control.New(fc, synth, control.FromConfig(cfg), sink),
		sink:    sink,
	}
	fc.Reset()
	sink.SettingsChanged(s.surface.Settings())
	sink.DeviceLine(deviceLineText(device))
	return s
}

func (s *session) close() {
	flashRuns, alarmRuns := s.surface.Runs()
	s.surface.Close()
	log.SessionEnd(flashRuns, alarmRuns)
}

// watchHotkey toggles the session on each tap of the global chord and stops
// it when the chord is held.
func (s *session) watchHotkey(ctx context.Context, hk hotkey.Hotkey) {
	tg := hotkey.NewToggle(ctx, hk, longPress)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case a := <-tg.Actions():
				log.Infof("hotkey_%s", a)
				if a == hotkey.ActionStop {
					s.surface.Stop()
					continue
				}
				if err := s.surface.Toggle(ctx); err != nil {
					log.Warnf("hotkey start: %v", err)
				}
			}
		}
	}()
}

func deviceLineText(dev *audio.DeviceInfo) string {
	if dev == nil {
		return "output: system default"
	}
	if audio.IsBluetooth(dev.Name) {
		return fmt.Sprintf("output: %s [⚠ high latency]", dev.Name)
	}
	return "output: " + dev.Name
}
