// Package alarm synthesizes the alarm tone: a small pull-based signal graph
// (oscillators, gains, modulatable params) rendered into a playback stream.
package alarm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"klonshie/audio"
)

var (
	ErrClosed       = errors.New("alarm: audio context closed")
	ErrInvalidState = errors.New("alarm: invalid oscillator state")
)

type State int

const (
	Suspended State = iota
	Running
	Closed
)

func (s State) String() string {
	switch s {
	case Suspended:
		return "suspended"
	case Running:
		return "running"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// node is a signal source evaluated at most once per frame.
type node interface {
	value(frame uint64) float64
}

// Input is a connection target: a Gain's signal input, a Param or the
// context destination. All methods are called with the context lock held.
type Input interface {
	addInput(n node)
	removeInput(n node)
}

type summer struct {
	inputs []node
}

func (s *summer) addInput(n node) {
	for _, in := range s.inputs {
		if in == n {
			return
		}
	}
	s.inputs = append(s.inputs, n)
}

func (s *summer) removeInput(n node) {
	kept := s.inputs[:0]
	for _, in := range s.inputs {
		if in != n {
			kept = append(kept, in)
		}
	}
	s.inputs = kept
}

func (s *summer) sum(frame uint64) float64 {
	var v float64
	for _, in := range s.inputs {
		v += in.value(frame)
	}
	return v
}

// frameCache memoizes a node's output so fan-out does not advance state twice.
type frameCache struct {
	next uint64 // frame+1 of the cached value, 0 = empty
	val  float64
}

func (c *frameCache) get(frame uint64) (float64, bool) {
	if c.next == frame+1 {
		return c.val, true
	}
	return 0, false
}

func (c *frameCache) put(frame uint64, v float64) float64 {
	c.next = frame + 1
	c.val = v
	return v
}

// outputs tracks where a node is connected so Disconnect can undo it.
type outputs struct {
	dsts []Input
}

func (o *outputs) connect(self node, dst Input) {
	for _, d := range o.dsts {
		if d == dst {
			return
		}
	}
	dst.addInput(self)
	o.dsts = append(o.dsts, dst)
}

func (o *outputs) disconnect(self node) {
	for _, d := range o.dsts {
		d.removeInput(self)
	}
	o.dsts = nil
}

// Param is an audio-rate parameter: its value at a frame is the intrinsic
// value plus the sum of every signal connected to it.
type Param struct {
	ctx  *Context
	base float64
	summer
}

func (p *Param) Value() float64 {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	return p.base
}

// Set changes the intrinsic value; it applies from the next rendered frame.
func (p *Param) Set(v float64) {
	p.ctx.mu.Lock()
	p.base = v
	p.ctx.mu.Unlock()
}

func (p *Param) at(frame uint64) float64 {
	return p.base + p.sum(frame)
}

// Gain scales the sum of its inputs by its Gain param.
type Gain struct {
	ctx  *Context
	Gain *Param
	summer
	outputs
	cache frameCache
}

func (g *Gain) value(frame uint64) float64 {
	if v, ok := g.cache.get(frame); ok {
		return v
	}
	return g.cache.put(frame, g.sum(frame)*g.Gain.at(frame))
}

func (g *Gain) Connect(dst Input) {
	g.ctx.mu.Lock()
	g.connect(g, dst)
	g.ctx.mu.Unlock()
}

func (g *Gain) Disconnect() {
	g.ctx.mu.Lock()
	g.disconnect(g)
	g.ctx.mu.Unlock()
}

type destination struct {
	summer
}

type Stats struct {
	Started int
	Stopped int
}

// Active is the number of oscillators currently producing sound.
func (s Stats) Active() int { return s.Started - s.Stopped }

// Context owns a signal graph and the playback stream that pulls it.
// Graph mutations and rendering share one lock, so the UI goroutine and
// the device's audio thread never observe a half-built graph.
type Context struct {
	mu         sync.Mutex
	sampleRate float64
	frame      uint64
	state      State
	dest       *destination
	device     audio.PlaybackDevice
	stats      Stats
}

// NewContext creates a suspended context bound to a playback device.
// No audio flows until Resume.
func NewContext(backend audio.Context, device *audio.DeviceInfo, cfg audio.PlaybackConfig) (*Context, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = audio.DefaultSampleRate
	}
	c := &Context{
		sampleRate: float64(cfg.SampleRate),
		state:      Suspended,
		dest:       &destination{},
	}
	dev, err := backend.NewPlayback(device, cfg, c.Render)
	if err != nil {
		return nil, fmt.Errorf("creating playback: %w", err)
	}
	c.device = dev
	return c, nil
}

// NewOfflineContext creates a running context with no device; the caller
// drives it with Render.
func NewOfflineContext(sampleRate int) *Context {
	if sampleRate <= 0 {
		sampleRate = audio.DefaultSampleRate
	}
	return &Context{
		sampleRate: float64(sampleRate),
		state:      Running,
		dest:       &destination{},
	}
}

func (c *Context) SampleRate() float64 { return c.sampleRate }

func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Context) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Context) CurrentFrame() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

func (c *Context) DeviceName() string {
	if c.device == nil {
		return "offline"
	}
	return c.device.DeviceName()
}

func (c *Context) Destination() Input { return c.dest }

// Resume starts the playback stream of a suspended context and blocks until
// the device is running or ctx is done.
func (c *Context) Resume(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case Closed:
		c.mu.Unlock()
		return ErrClosed
	case Running:
		c.mu.Unlock()
		return nil
	}
	dev := c.device
	c.mu.Unlock()

	if dev != nil {
		errCh := make(chan error, 1)
		go func() { errCh <- dev.Start() }()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("resuming audio: %w", err)
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Closed {
		return ErrClosed
	}
	c.state = Running
	return nil
}

func (c *Context) Suspend() error {
	c.mu.Lock()
	if c.state == Closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.state = Suspended
	dev := c.device
	c.mu.Unlock()
	if dev != nil {
		dev.Stop()
	}
	return nil
}

func (c *Context) Close() {
	c.mu.Lock()
	if c.state == Closed {
		c.mu.Unlock()
		return
	}
	c.state = Closed
	dev := c.device
	c.mu.Unlock()
	if dev != nil {
		dev.Close()
	}
}

func (c *Context) NewGain(gain float64) *Gain {
	g := &Gain{ctx: c}
	g.Gain = &Param{ctx: c, base: gain}
	return g
}

func (c *Context) NewOscillator(wave Wave, freq float64) *Oscillator {
	o := &Oscillator{ctx: c, wave: wave}
	o.Frequency = &Param{ctx: c, base: freq}
	return o
}

// StartAll starts every oscillator on the same frame.
func (c *Context) StartAll(oscs ...*Oscillator) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, o := range oscs {
		if o.state != oscIdle {
			return ErrInvalidState
		}
	}
	for _, o := range oscs {
		o.startLocked(c.frame)
	}
	return nil
}

// Render fills out with the next len(out) frames of the graph. A context
// that is not running renders silence without advancing time.
func (c *Context) Render(out []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Running {
		clear(out)
		return
	}
	for i := range out {
		v := c.dest.sum(c.frame)
		out[i] = float32(math.Max(-1, math.Min(1, v)))
		c.frame++
	}
}
