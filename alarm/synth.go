package alarm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"klonshie/audio"
)

// Tone describes the alarm voice: two detuned oscillators mixed at a fixed
// gain whose level is pulsed by a sine LFO.
type Tone struct {
	WaveA    Wave    `yaml:"wave_a"`
	PitchA   float64 `yaml:"pitch_a"`
	WaveB    Wave    `yaml:"wave_b"`
	PitchB   float64 `yaml:"pitch_b"`
	Mix      float64 `yaml:"mix"`
	LFORate  float64 `yaml:"lfo_rate"`
	LFODepth float64 `yaml:"lfo_depth"`
}

func DefaultTone() Tone {
	return Tone{
		WaveA:    Square,
		PitchA:   520,
		WaveB:    Sawtooth,
		PitchB:   780,
		Mix:      0.25,
		LFORate:  2.2,
		LFODepth: 0.22,
	}
}

type voice struct {
	a, b, lfo  *Oscillator
	mix, depth *Gain
}

func buildVoice(c *Context, t Tone, dst Input) *voice {
	v := &voice{
		a:     c.NewOscillator(t.WaveA, t.PitchA),
		b:     c.NewOscillator(t.WaveB, t.PitchB),
		lfo:   c.NewOscillator(Sine, t.LFORate),
		mix:   c.NewGain(t.Mix),
		depth: c.NewGain(t.LFODepth),
	}
	v.a.Connect(v.mix)
	v.b.Connect(v.mix)
	v.lfo.Connect(v.depth)
	v.depth.Connect(v.mix.Gain)
	v.mix.Connect(dst)
	return v
}

func (v *voice) start() error {
	return v.a.ctx.StartAll(v.a, v.b, v.lfo)
}

func (v *voice) stop() {
	for _, o := range []*Oscillator{v.a, v.b, v.lfo} {
		o.Stop()
		o.Disconnect()
	}
	v.depth.Disconnect()
	v.mix.Disconnect()
}

type Config struct {
	Tone       Tone
	SampleRate int
	LatencyMs  int
	Device     *audio.DeviceInfo
	Volume     float64
}

// Synth owns one audio context and master gain for the whole session and
// at most one sounding voice at a time.
type Synth struct {
	backend audio.Context
	cfg     Config

	mu     sync.Mutex
	ctx    *Context
	master *Gain
	volume float64
	voice  *voice
}

func NewSynth(backend audio.Context, cfg Config) *Synth {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = audio.DefaultSampleRate
	}
	return &Synth{backend: backend, cfg: cfg, volume: clampUnit(cfg.Volume)}
}

// EnsureOutput lazily creates the session's audio context and master gain.
// Repeated calls return the same context.
func (s *Synth) EnsureOutput() (*Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureOutputLocked()
}

func (s *Synth) ensureOutputLocked() (*Context, error) {
	if s.ctx != nil {
		return s.ctx, nil
	}
	c, err := NewContext(s.backend, s.cfg.Device, audio.PlaybackConfig{
		SampleRate: uint32(s.cfg.SampleRate),
		LatencyMs:  s.cfg.LatencyMs,
	})
	if err != nil {
		return nil, fmt.Errorf("audio output: %w", err)
	}
	s.master = c.NewGain(s.volume)
	s.master.Connect(c.Destination())
	s.ctx = c
	return c, nil
}

// Resume makes sure output exists and is running. Output devices are only
// opened on an explicit user action, never at startup.
func (s *Synth) Resume(ctx context.Context) error {
	c, err := s.EnsureOutput()
	if err != nil {
		return err
	}
	if c.State() == Running {
		return nil
	}
	return c.Resume(ctx)
}

// Start replaces any sounding voice with a fresh one feeding the master gain.
func (s *Synth) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	c, err := s.ensureOutputLocked()
	if err != nil {
		return err
	}
	v := buildVoice(c, s.cfg.Tone, s.master)
	if err := v.start(); err != nil {
		v.stop()
		return fmt.Errorf("starting voice: %w", err)
	}
	s.voice = v
	return nil
}

func (s *Synth) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Synth) stopLocked() {
	if s.voice == nil {
		return
	}
	s.voice.stop()
	s.voice = nil
}

func (s *Synth) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voice != nil
}

// SetVolume applies immediately when output exists and is remembered for
// when it is created.
func (s *Synth) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = clampUnit(v)
	if s.master != nil {
		s.master.Gain.Set(s.volume)
	}
}

func (s *Synth) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Context returns the session context, or nil before EnsureOutput.
func (s *Synth) Context() *Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

func (s *Synth) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	if s.ctx != nil {
		s.ctx.Close()
	}
}

// Render produces d of the alarm at the given volume without any device.
// A negative d renders nothing.
func Render(t Tone, volume float64, sampleRate int, d time.Duration) ([]float32, error) {
	c := NewOfflineContext(sampleRate)
	master := c.NewGain(clampUnit(volume))
	master.Connect(c.Destination())
	v := buildVoice(c, t, master)
	if err := v.start(); err != nil {
		return nil, fmt.Errorf("starting voice: %w", err)
	}

	out := make([]float32, int(max(d, 0).Seconds()*c.SampleRate()))
	c.Render(out)
	return out, nil
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
