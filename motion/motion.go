// Package motion reports whether the user asked the platform to reduce
// motion and animation.
package motion

import (
	"os"
	"strings"
	"sync"
	"time"
)

const EnvVar = "KLONSHIE_REDUCED_MOTION"

type Preference interface {
	ReducedMotion() bool
}

// Static is a fixed preference.
type Static bool

func (s Static) ReducedMotion() bool { return bool(s) }

// System combines the platform accessibility setting with the
// KLONSHIE_REDUCED_MOTION variable and a forced flag. Either of the latter
// can only turn the preference on.
type System struct {
	Force bool
	TTL   time.Duration

	query func() (bool, error)

	mu      sync.Mutex
	cached  bool
	checked time.Time
}

func NewSystem(force bool) *System {
	return &System{Force: force, TTL: 2 * time.Second, query: querySystem}
}

func (s *System) ReducedMotion() bool {
	if s.Force || envForced() {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.checked.IsZero() && time.Since(s.checked) < s.TTL {
		return s.cached
	}
	v, err := s.query()
	if err != nil {
		v = false
	}
	s.cached = v
	s.checked = time.Now()
	return v
}

// Describe explains where the current answer comes from.
func (s *System) Describe() string {
	switch {
	case s.Force:
		return "forced on by -reduced-motion"
	case envForced():
		return "forced on by " + EnvVar
	}
	v, err := s.query()
	if err != nil {
		return "platform setting unavailable (" + err.Error() + ")"
	}
	if v {
		return "platform requests reduced motion"
	}
	return "platform allows animation"
}

func envForced() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvVar))) {
	case "1", "true", "yes", "on", "reduce":
		return true
	}
	return false
}
