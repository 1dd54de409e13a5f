package alarm

import (
	"fmt"
	"math"
)

type Wave int

const (
	Sine Wave = iota
	Square
	Sawtooth
	Triangle
)

func (w Wave) String() string {
	switch w {
	case Sine:
		return "sine"
	case Square:
		return "square"
	case Sawtooth:
		return "sawtooth"
	case Triangle:
		return "triangle"
	}
	return fmt.Sprintf("Wave(%d)", int(w))
}

func ParseWave(s string) (Wave, error) {
	switch s {
	case "sine":
		return Sine, nil
	case "square":
		return Square, nil
	case "sawtooth", "saw":
		return Sawtooth, nil
	case "triangle":
		return Triangle, nil
	}
	return 0, fmt.Errorf("unknown wave %q", s)
}

// MarshalText and UnmarshalText let waves appear by name in config files.
func (w Wave) MarshalText() ([]byte, error) { return []byte(w.String()), nil }

func (w *Wave) UnmarshalText(b []byte) error {
	v, err := ParseWave(string(b))
	if err != nil {
		return err
	}
	*w = v
	return nil
}

type oscState int

const (
	oscIdle oscState = iota
	oscStarted
	oscStopped
)

// Oscillator is a one-shot periodic source: it can be started once and
// stopped once, after which it outputs silence forever.
type Oscillator struct {
	ctx       *Context
	wave      Wave
	Frequency *Param
	outputs
	cache frameCache

	state      oscState
	startFrame uint64
	phase      float64 // [0, 1)
}

func (o *Oscillator) Start() error {
	return o.ctx.StartAll(o)
}

func (o *Oscillator) startLocked(frame uint64) {
	o.state = oscStarted
	o.startFrame = frame
	o.phase = 0
	o.ctx.stats.Started++
}

func (o *Oscillator) Stop() error {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	if o.state != oscStarted {
		return ErrInvalidState
	}
	o.state = oscStopped
	o.ctx.stats.Stopped++
	return nil
}

func (o *Oscillator) Connect(dst Input) {
	o.ctx.mu.Lock()
	o.connect(o, dst)
	o.ctx.mu.Unlock()
}

func (o *Oscillator) Disconnect() {
	o.ctx.mu.Lock()
	o.disconnect(o)
	o.ctx.mu.Unlock()
}

func (o *Oscillator) value(frame uint64) float64 {
	if v, ok := o.cache.get(frame); ok {
		return v
	}
	if o.state != oscStarted || frame < o.startFrame {
		return o.cache.put(frame, 0)
	}
	dt := o.Frequency.at(frame) / o.ctx.sampleRate
	v := shape(o.wave, o.phase, math.Abs(dt))
	o.phase += dt
	o.phase -= math.Floor(o.phase)
	return o.cache.put(frame, v)
}

// shape evaluates one sample of a unit-amplitude wave at phase p with
// phase increment dt. Square and sawtooth are band-limited with polyBLEP.
func shape(w Wave, p, dt float64) float64 {
	switch w {
	case Square:
		v := -1.0
		if p < 0.5 {
			v = 1.0
		}
		return v + polyBLEP(p, dt) - polyBLEP(frac(p+0.5), dt)
	case Sawtooth:
		t := frac(p + 0.5)
		return 2*t - 1 - polyBLEP(t, dt)
	case Triangle:
		switch {
		case p < 0.25:
			return 4 * p
		case p < 0.75:
			return 2 - 4*p
		default:
			return 4*p - 4
		}
	default:
		return math.Sin(2 * math.Pi * p)
	}
}

func polyBLEP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	} else if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

func frac(x float64) float64 { return x - math.Floor(x) }
