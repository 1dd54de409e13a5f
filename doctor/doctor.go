package doctor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"klonshie/alarm"
	"klonshie/audio"
	"klonshie/flash"
	"klonshie/hotkey"
)

const toneLength = 1500 * time.Millisecond

// Describer explains where the reduced-motion answer comes from.
type Describer interface {
	ReducedMotion() bool
	Describe() string
}

type Options struct {
	Backend audio.Context // nil opens the platform backend
	Device  string
	Synth   alarm.Config
	Motion  Describer
	Hotkey  bool

	In  io.Reader
	Out io.Writer
}

type checker struct {
	opts   Options
	out    io.Writer
	reader *bufio.Reader
	step   int
	total  int
}

// Run executes interactive diagnostic checks and returns an exit code (0=all pass, 1=any fail).
func Run(opts Options) int {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	resetTerminal()
	setupInterruptHandler()

	c := &checker{opts: opts, out: opts.Out, reader: bufio.NewReader(opts.In), total: 3}
	if opts.Hotkey {
		c.total++
	}

	fmt.Fprintln(c.out, "klonshie doctor - interactive system diagnostics")
	fmt.Fprintln(c.out, "================================================")

	allPass := c.checkAudio()
	if !c.checkMotion() {
		allPass = false
	}
	if !c.checkTerminal() {
		allPass = false
	}
	if opts.Hotkey && !c.checkHotkey() {
		allPass = false
	}

	fmt.Fprintln(c.out)
	if allPass {
		fmt.Fprintln(c.out, "All checks passed!")
		return 0
	}
	fmt.Fprintln(c.out, "Some checks failed. See details above.")
	return 1
}

func (c *checker) header(title string) {
	c.step++
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "[%d/%d] %s\n", c.step, c.total, title)
}

func (c *checker) confirm(question string) bool {
	fmt.Fprintf(c.out, "%s [y/n]: ", question)
	answer, _ := c.reader.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}

func (c *checker) checkAudio() bool {
	c.header("Audio output")

	backend := c.opts.Backend
	if backend == nil {
		b, err := audio.NewContext()
		if err != nil {
			fmt.Fprintf(c.out, "  FAIL: cannot connect to audio: %v\n", err)
			return false
		}
		defer b.Close()
		backend = b
	}

	devices, err := backend.Devices()
	if err != nil {
		fmt.Fprintf(c.out, "  FAIL: cannot list devices: %v\n", err)
		return false
	}
	if len(devices) == 0 {
		fmt.Fprintln(c.out, "  FAIL: no output devices found")
		return false
	}

	cfg := c.opts.Synth
	if c.opts.Device != "" {
		cfg.Device = audio.FindDevice(backend, c.opts.Device)
		if cfg.Device == nil {
			fmt.Fprintf(c.out, "  WARN: device %q not found, using default\n", c.opts.Device)
		}
	}
	name := "default output"
	if cfg.Device != nil {
		name = cfg.Device.Name
	}
	fmt.Fprintf(c.out, "  %d output device(s), using %s\n", len(devices), name)
	if audio.IsBluetooth(name) {
		fmt.Fprintln(c.out, "  note: Bluetooth output adds noticeable latency")
	}

	synth := alarm.NewSynth(backend, cfg)
	defer synth.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := synth.Resume(ctx); err != nil {
		fmt.Fprintf(c.out, "  FAIL: %v\n", err)
		return false
	}
	fmt.Fprintf(c.out, "  Playing the alarm for %.1fs...\n", toneLength.Seconds())
	if err := synth.Start(); err != nil {
		fmt.Fprintf(c.out, "  FAIL: %v\n", err)
		return false
	}
	time.Sleep(toneLength)
	synth.Stop()

	out := synth.Context()
	if st := out.Stats(); st.Active() != 0 {
		fmt.Fprintf(c.out, "  FAIL: %d oscillator(s) still running after stop\n", st.Active())
		return false
	}
	// Release the device while waiting for the answer.
	if err := out.Suspend(); err != nil {
		fmt.Fprintf(c.out, "  FAIL: suspending output: %v\n", err)
		return false
	}
	if c.confirm("Did you hear a pulsing two-tone alarm?") {
		fmt.Fprintln(c.out, "  PASS: alarm heard")
		return true
	}
	fmt.Fprintln(c.out, "  FAIL: alarm not confirmed")
	return false
}

func (c *checker) checkMotion() bool {
	c.header("Reduced motion")
	if c.opts.Motion == nil {
		fmt.Fprintln(c.out, "  SKIP: no preference source")
		return true
	}
	fmt.Fprintf(c.out, "  %s\n", c.opts.Motion.Describe())
	if c.opts.Motion.ReducedMotion() {
		fmt.Fprintln(c.out, "  PASS: flashing will be replaced by an advisory")
	} else {
		fmt.Fprintf(c.out, "  PASS: flashing allowed (%v to %v between toggles)\n",
			flash.Interval(flash.MaxRateHz), flash.Interval(flash.MinRateHz))
	}
	return true
}

func (c *checker) checkTerminal() bool {
	c.header("Terminal")
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		fmt.Fprintln(c.out, "  WARN: stdout is not a terminal; use -gui or -test")
		return true
	}
	w, h, err := term.GetSize(fd)
	if err != nil {
		fmt.Fprintf(c.out, "  FAIL: cannot read terminal size: %v\n", err)
		return false
	}
	if w < 40 || h < 12 {
		fmt.Fprintf(c.out, "  FAIL: terminal is %dx%d, need at least 40x12 for the panel\n", w, h)
		return false
	}
	fmt.Fprintf(c.out, "  PASS: %dx%d terminal\n", w, h)
	return true
}

func (c *checker) checkHotkey() bool {
	c.header("Global hotkey")
	desc, err := hotkey.Diagnose()
	if err != nil {
		fmt.Fprintf(c.out, "  FAIL: %v\n", err)
		return false
	}
	fmt.Fprintf(c.out, "  %s\n", desc)
	fmt.Fprintf(c.out, "Press %s...\n", hotkey.Chord)

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		fmt.Fprintf(c.out, "  FAIL: could not register hotkey: %v\n", err)
		return false
	}
	defer hk.Unregister()

	select {
	case <-hk.Keydown():
		fmt.Fprintln(c.out, "  PASS: hotkey detected")
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		// evdev reads can leave the terminal in raw mode
		resetTerminal()
		return true
	case <-time.After(10 * time.Second):
		fmt.Fprintln(c.out, "  FAIL: timeout waiting for hotkey")
		return false
	}
}
