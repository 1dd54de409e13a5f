// Package flash drives the visual alert: a panel toggled between a dim and
// a bright state at a user-chosen rate, never faster than four toggles a
// second, and never at all while the platform asks for reduced motion.
package flash

import (
	"math"
	"sync"
	"time"

	"klonshie/motion"
)

const (
	MinRateHz   = 0.5
	MaxRateHz   = 2.0
	MinInterval = 250 * time.Millisecond
)

// Interval is the time between toggles for a full-cycle rate in Hz:
// max(250ms, round(1000 / (2*rate)) ms).
func Interval(rateHz float64) time.Duration {
	if rateHz <= 0 || math.IsNaN(rateHz) {
		rateHz = MinRateHz
	}
	d := time.Duration(math.Round(1000/(rateHz*2))) * time.Millisecond
	return max(d, MinInterval)
}

// Controller owns the flash timer. At most one timer is live at a time;
// callbacks from a cancelled timer are dropped by generation.
type Controller struct {
	clock Clock
	pref  motion.Preference
	panel Panel

	mu      sync.Mutex
	running bool
	bright  bool
	rate    float64
	timer   Timer
	gen     uint64
	shown   Mode
}

func New(clock Clock, pref motion.Preference, panel Panel) *Controller {
	c := &Controller{clock: clock, pref: pref, panel: panel, shown: ModeIdle}
	return c
}

// Reset draws the idle panel unconditionally; used once when a view attaches.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.render(idleState())
}

// Start begins flashing at rateHz, replacing any running timer. When
// reduced motion is requested it shows the advisory, schedules nothing and
// returns false.
func (c *Controller) Start(rateHz float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()
	if c.pref.ReducedMotion() {
		c.running = false
		c.bright = false
		c.render(advisoryState())
		return false
	}
	c.beginLocked(rateHz)
	return true
}

// Restart applies a new rate to a running controller without passing
// through the idle panel. It is a no-op when not running.
func (c *Controller) Restart(rateHz float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return false
	}
	c.cancelLocked()
	if c.pref.ReducedMotion() {
		c.running = false
		c.bright = false
		c.render(advisoryState())
		return false
	}
	c.beginLocked(rateHz)
	return true
}

// Stop cancels the timer and shows the idle panel. Stopping a controller
// that already shows idle changes nothing.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()
	c.running = false
	c.bright = false
	if c.shown != ModeIdle {
		c.render(idleState())
	}
}

// Announce shows a status line on the idle background while not flashing.
func (c *Controller) Announce(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.render(PanelState{Mode: ModeAnnounce, Background: IdleColor, Text: text})
}

func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Rate is the rate of the current or most recent run.
func (c *Controller) Rate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}

func (c *Controller) beginLocked(rateHz float64) {
	c.rate = rateHz
	c.running = true
	c.bright = false
	c.gen++
	gen := c.gen
	c.render(dimState())
	c.timer = c.clock.Every(Interval(rateHz), func() { c.tick(gen) })
}

func (c *Controller) cancelLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running || gen != c.gen {
		return
	}
	c.bright = !c.bright
	if c.bright {
		c.render(brightState())
	} else {
		c.render(dimState())
	}
}

func (c *Controller) render(s PanelState) {
	c.shown = s.Mode
	if c.panel != nil {
		c.panel.Render(s)
	}
}
