// Package control is the control surface shared by the terminal and desktop
// views: two toggles, two sliders and Start/Stop, driving the flash
// controller and the alarm synthesizer.
package control

import (
	"context"
	"fmt"
	"math"
	"sync"

	"klonshie/alarm"
	"klonshie/config"
	"klonshie/flash"
	"klonshie/log"
)

type Settings struct {
	FlashEnabled bool
	SoundEnabled bool
	FlashRateHz  float64
	Volume       float64
}

func FromConfig(c config.Config) Settings {
	return Settings{
		FlashEnabled: c.Flash.Enabled,
		SoundEnabled: c.Sound.Enabled,
		FlashRateHz:  config.ClampRate(c.Flash.RateHz),
		Volume:       config.ClampVolume(c.Sound.Volume),
	}
}

func RateLabel(hz float64) string {
	return fmt.Sprintf("%.1f Hz", hz)
}

func VolumeLabel(v float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(v*100)))
}

// EventSink receives view updates. Calls are made with the surface lock
// held; implementations must not call back into the Surface.
type EventSink interface {
	SettingsChanged(Settings)
	AlarmRunning(bool)
	Error(err error)
}

type Surface struct {
	flash *flash.Controller
	synth *alarm.Synth
	sink  EventSink

	mu        sync.Mutex
	settings  Settings
	flashRuns int
	alarmRuns int
	stops     uint64 // bumped by Stop and Close; a pending Start compares it
}

func New(fc *flash.Controller, synth *alarm.Synth, initial Settings, sink EventSink) *Surface {
	initial.FlashRateHz = config.ClampRate(initial.FlashRateHz)
	initial.Volume = config.ClampVolume(initial.Volume)
	synth.SetVolume(initial.Volume)
	return &Surface{flash: fc, synth: synth, sink: sink, settings: initial}
}

func (s *Surface) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Runs reports how many flash and alarm runs the session has started.
func (s *Surface) Runs() (flashRuns, alarmRuns int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flashRuns, s.alarmRuns
}

// Start is the Start button. With sound enabled the audio output is resumed
// first; a failure there is reported and flashing still starts. The resume
// wait runs without the lock, so a Stop issued meanwhile wins.
func (s *Surface) Start(ctx context.Context) error {
	s.mu.Lock()
	sound := s.settings.SoundEnabled
	stops := s.stops
	s.mu.Unlock()

	var audioErr error
	if sound {
		audioErr = s.synth.Resume(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if audioErr != nil {
		s.reportLocked(audioErr)
	}
	if s.stops != stops {
		return audioErr
	}

	s.flash.Announce(flash.RunningText)
	if s.settings.FlashEnabled {
		s.startFlashLocked()
	}
	if sound && s.settings.SoundEnabled && audioErr == nil {
		audioErr = s.startAlarmLocked()
	}
	return audioErr
}

// Stop is the Stop button; it stops both subsystems whatever the toggles say.
func (s *Surface) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	s.stopFlashLocked()
	s.stopAlarmLocked()
}

func (s *Surface) SetFlash(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.FlashEnabled = on
	if on {
		s.startFlashLocked()
	} else {
		s.stopFlashLocked()
	}
	s.notifyLocked()
}

// SetSound toggles the alarm alone. When the output cannot be opened the
// toggle falls back to off and the error is returned. Like Start, the resume
// wait runs without the lock.
func (s *Surface) SetSound(ctx context.Context, on bool) error {
	s.mu.Lock()
	s.settings.SoundEnabled = on
	if !on {
		s.stopAlarmLocked()
		s.notifyLocked()
		s.mu.Unlock()
		return nil
	}
	stops := s.stops
	s.mu.Unlock()

	err := s.synth.Resume(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.reportLocked(err)
	} else if s.stops == stops && s.settings.SoundEnabled {
		err = s.startAlarmLocked()
	}
	if err != nil {
		s.settings.SoundEnabled = false
	}
	s.notifyLocked()
	return err
}

// SetRate changes the flash rate; a running flash restarts at the new
// interval on every change.
func (s *Surface) SetRate(hz float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.FlashRateHz = config.ClampRate(hz)
	if s.flash.Running() {
		if s.flash.Restart(s.settings.FlashRateHz) {
			log.FlashStart(s.settings.FlashRateHz, flash.Interval(s.settings.FlashRateHz).Milliseconds())
		} else {
			s.suppressedLocked()
		}
	}
	s.notifyLocked()
}

func (s *Surface) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.Volume = config.ClampVolume(v)
	s.synth.SetVolume(s.settings.Volume)
	log.VolumeChange(s.settings.Volume)
	s.notifyLocked()
}

// Active reports whether either subsystem is producing output.
func (s *Surface) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flash.Running() || s.synth.Running()
}

// Toggle starts when idle and stops otherwise.
func (s *Surface) Toggle(ctx context.Context) error {
	if s.Active() {
		s.Stop()
		return nil
	}
	return s.Start(ctx)
}

// Close stops everything and releases the audio output.
func (s *Surface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	s.stopFlashLocked()
	s.stopAlarmLocked()
	s.synth.Close()
}

func (s *Surface) startFlashLocked() {
	if !s.flash.Start(s.settings.FlashRateHz) {
		s.suppressedLocked()
		return
	}
	s.flashRuns++
	log.FlashStart(s.settings.FlashRateHz, flash.Interval(s.settings.FlashRateHz).Milliseconds())
}

func (s *Surface) suppressedLocked() {
	s.settings.FlashEnabled = false
	log.FlashSuppressed("reduced motion")
	s.notifyLocked()
}

func (s *Surface) stopFlashLocked() {
	if s.flash.Running() {
		log.FlashStop()
	}
	s.flash.Stop()
}

func (s *Surface) startAlarmLocked() error {
	if err := s.synth.Start(); err != nil {
		s.reportLocked(err)
		return err
	}
	s.alarmRuns++
	c := s.synth.Context()
	log.AlarmStart(c.DeviceName(), s.synth.Volume(), c.Stats().Active())
	if s.sink != nil {
		s.sink.AlarmRunning(true)
	}
	return nil
}

func (s *Surface) stopAlarmLocked() {
	if !s.synth.Running() {
		return
	}
	s.synth.Stop()
	if c := s.synth.Context(); c != nil {
		st := c.Stats()
		log.AlarmStop(st.Started, st.Stopped)
	}
	if s.sink != nil {
		s.sink.AlarmRunning(false)
	}
}

func (s *Surface) reportLocked(err error) {
	log.Error(err.Error())
	if s.sink != nil {
		s.sink.Error(err)
	}
}

func (s *Surface) notifyLocked() {
	if s.sink != nil {
		s.sink.SettingsChanged(s.settings)
	}
}
