package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"klonshie/alarm"
	"klonshie/audio"
	"klonshie/config"
	"klonshie/doctor"
	"klonshie/flash"
	"klonshie/hotkey"
	"klonshie/log"
	"klonshie/motion"
	"klonshie/shutdown"
)

var version = "dev"

const longPress = 600 * time.Millisecond

var guiMode bool

// sink is set before run() when a view other than the TUI owns the main
// thread.
var sink EventSink

var shutdownOnce sync.Once

func gracefulShutdown(s *session) {
	shutdownOnce.Do(func() {
		if s != nil {
			s.close()
		}
		log.Close()
		if p := currentTUI(); p != nil {
			p.Quit()
		}
		if guiApp != nil {
			guiApp.Quit()
		}
	})
}

type options struct {
	configPath    string
	logPath       string
	device        string
	setup         bool
	render        string
	seconds       float64
	doctor        bool
	hotkey        bool
	test          bool
	reducedMotion bool
	version       bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("klonshie", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", config.DefaultPath, "YAML file with startup defaults")
	fs.StringVar(&o.logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	fs.StringVar(&o.device, "device", "", "Use named output device")
	fs.BoolVar(&o.setup, "setup", false, "Select output device (otherwise uses system default)")
	fs.StringVar(&o.render, "render", "", "Render the alarm to a FLAC file and exit")
	fs.Float64Var(&o.seconds, "seconds", 5, "Length of -render output in seconds")
	fs.BoolVar(&o.doctor, "doctor", false, "Run system diagnostics and exit")
	fs.BoolVar(&o.hotkey, "hotkey", false, "Toggle Start/Stop with "+hotkey.Chord)
	fs.BoolVar(&o.test, "test", false, "Test mode (headless, stdin-driven)")
	fs.BoolVar(&o.reducedMotion, "reduced-motion", false, "Never flash, whatever the platform says")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")
	fs.Bool("gui", false, "Run with a desktop window (gui builds only)")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.render != "" && o.seconds <= 0 {
		return o, fmt.Errorf("-seconds must be positive, got %v", o.seconds)
	}
	return o, nil
}

func fatalf(format string, args ...any) {
	log.Errorf(format, args...)
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func run() {
	opts, err := parseFlags(os.Args[1:])
	if err == flag.ErrHelp {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if opts.version {
		fmt.Printf("klonshie %s\n", version)
		os.Exit(0)
	}

	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not read .env: %v\n", err)
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}
	if opts.device != "" {
		cfg.Sound.Device = opts.device
	}
	if opts.reducedMotion {
		cfg.ReducedMotion = true
	}

	// Resolve log directory early
	logPath, err := log.ResolveDir(opts.logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	if err := log.SetLevel(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	if crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	pref := motion.NewSystem(cfg.ReducedMotion)

	if opts.render != "" {
		if err := renderAlarm(opts.render, cfg, time.Duration(opts.seconds*float64(time.Second))); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if opts.doctor {
		os.Exit(doctor.Run(doctor.Options{
			Device: cfg.Sound.Device,
			Synth:  synthConfig(cfg, nil),
			Motion: pref,
			Hotkey: opts.hotkey,
		}))
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	if opts.test {
		runTestMode(cfg, pref)
		return
	}

	// Resolve -setup into a device before any view takes the terminal
	backend, err := audio.NewContext()
	if err != nil {
		fatalf("initializing audio: %v", err)
	}
	defer backend.Close()

	var device *audio.DeviceInfo
	if cfg.Sound.Device != "" {
		device = audio.FindDevice(backend, cfg.Sound.Device)
		if device == nil {
			log.Warnf("device %q not found, using default", cfg.Sound.Device)
			fmt.Fprintf(os.Stderr, "Warning: output device %q not found, using default\n", cfg.Sound.Device)
		}
	} else if opts.setup {
		device, err = audio.SelectDevice(backend)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			device = nil
		}
	}

	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	view := sink
	if view == nil {
		view = startTUI()
	}

	s := newSession(cfg, backend, device, flash.TickerClock{}, pref, view)
	surfaceName := "tui"
	if guiMode {
		surfaceName = "gui"
		guiApp.Bind(ctx, s.surface)
	} else {
		bindTUI(ctx, s.surface)
	}
	log.SessionStart(surfaceName, deviceLineText(device), pref.ReducedMotion())

	if opts.hotkey {
		hk := hotkey.New()
		if err := hk.Register(); err != nil {
			log.Errorf("hotkey register error: %v", err)
			view.Error(fmt.Errorf("hotkey unavailable: %w", err))
		} else {
			defer hk.Unregister()
			s.watchHotkey(ctx, hk)
		}
	}

	select {
	case <-ctx.Done():
	case <-viewDone():
	}
	gracefulShutdown(s)
}

func synthConfig(cfg config.Config, device *audio.DeviceInfo) alarm.Config {
	return alarm.Config{
		Tone:       cfg.Tone,
		SampleRate: cfg.Sound.SampleRate,
		LatencyMs:  int(cfg.Sound.Latency.ToDuration().Milliseconds()),
		Device:     device,
		Volume:     cfg.Sound.Volume,
	}
}

func viewDone() <-chan struct{} {
	if guiMode {
		return guiApp.Done()
	}
	return tuiDone
}
