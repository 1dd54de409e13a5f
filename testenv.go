package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"klonshie/audio"
	"klonshie/config"
	"klonshie/control"
	"klonshie/flash"
	"klonshie/hotkey"
	"klonshie/log"
	"klonshie/motion"
)

// printSink writes one line per event so tests can follow the session.
type printSink struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printSink) printf(format string, args ...any) {
	p.mu.Lock()
	fmt.Fprintf(p.w, format+"\n", args...)
	p.mu.Unlock()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (p *printSink) Render(s flash.PanelState) {
	if s.Text == "" {
		p.printf("PANEL %s %s", s.Mode, s.Background)
		return
	}
	p.printf("PANEL %s %s %s", s.Mode, s.Background, s.Text)
}

func (p *printSink) SettingsChanged(s control.Settings) {
	p.printf("SETTINGS flash=%s sound=%s rate=%s volume=%s",
		onOff(s.FlashEnabled), onOff(s.SoundEnabled), control.RateLabel(s.FlashRateHz), control.VolumeLabel(s.Volume))
}

func (p *printSink) AlarmRunning(on bool) { p.printf("ALARM %s", onOff(on)) }
func (p *printSink) Error(err error)      { p.printf("ERROR %v", err) }
func (p *printSink) DeviceLine(text string) {
	p.printf("DEVICE %s", text)
}

func runTestMode(cfg config.Config, pref motion.Preference) {
	defer log.Close()

	out := &printSink{w: os.Stdout}
	backend := audio.NewFakeContext(true)
	s := newSession(cfg, backend, nil, flash.TickerClock{}, pref, out)
	log.SessionStart("test", "fake", pref.ReducedMotion())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hk := hotkey.NewFake()
	s.watchHotkey(ctx, hk)

	out.printf("READY")
	runTestCommands(ctx, os.Stdin, s, backend, hk, out)
	s.close()
	out.printf("BYE")
}

func runTestCommands(ctx context.Context, in io.Reader, s *session, backend *audio.FakeContext, hk *hotkey.FakeHotkey, out *printSink) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		log.Debug("test command: " + scanner.Text())
		cmd, arg := strings.ToUpper(fields[0]), ""
		if len(fields) > 1 {
			arg = fields[1]
		}

		switch cmd {
		case "START":
			s.surface.Start(ctx)
		case "STOP":
			s.surface.Stop()
		case "FLASH":
			s.surface.SetFlash(arg == "on")
		case "SOUND":
			s.surface.SetSound(ctx, arg == "on")
		case "RATE", "VOLUME":
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				out.printf("ERROR bad value %q", arg)
				continue
			}
			if cmd == "RATE" {
				s.surface.SetRate(v)
			} else {
				s.surface.SetVolume(v)
			}
		case "AUDIO":
			if arg == "fail" {
				backend.FailNewPlayback(errors.New("audio device unavailable"))
			}
		case "KEYDOWN":
			hk.SimKeydown()
		case "KEYUP":
			hk.SimKeyup()
		case "TAP":
			hk.SimTap()
		case "STATUS":
			printStatus(s, out)
		case "SLEEP":
			if ms, err := strconv.Atoi(arg); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		case "QUIT":
			return
		default:
			out.printf("ERROR unknown command %q", cmd)
		}
	}
}

func printStatus(s *session, out *printSink) {
	active := 0
	if c := s.synth.Context(); c != nil {
		active = c.Stats().Active()
	}
	out.printf("STATUS flashing=%s alarm=%s oscillators=%d",
		onOff(s.flash.Running()), onOff(s.synth.Running()), active)
}
