// Package config loads read-only startup defaults. Nothing is written back;
// settings changed at runtime live only as long as the process.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"klonshie/alarm"
	"klonshie/flash"
)

const DefaultPath = "klonshie.yaml"

type Duration time.Duration

func (d Duration) ToDuration() time.Duration { return time.Duration(d) }

// UnmarshalYAML accepts "50ms"-style strings or integer milliseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar")
	}
	if value.Tag == "!!int" {
		i, err := strconv.ParseInt(value.Value, 10, 64)
		if err != nil {
			return err
		}
		*d = Duration(time.Duration(i) * time.Millisecond)
		return nil
	}
	if value.Value == "" {
		*d = 0
		return nil
	}
	dur, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration: %q", value.Value)
	}
	*d = Duration(dur)
	return nil
}

type Config struct {
	Flash         FlashConfig `yaml:"flash"`
	Sound         SoundConfig `yaml:"sound"`
	Tone          alarm.Tone  `yaml:"tone"`
	ReducedMotion bool        `yaml:"reduced_motion"` // can force the override on, never off
	LogLevel      string      `yaml:"log_level"`
}

type FlashConfig struct {
	Enabled bool    `yaml:"enabled"`
	RateHz  float64 `yaml:"rate_hz"`
}

type SoundConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Volume     float64  `yaml:"volume"`
	Device     string   `yaml:"device"`
	SampleRate int      `yaml:"sample_rate"`
	Latency    Duration `yaml:"latency"`
}

func Default() Config {
	return Config{
		Flash: FlashConfig{Enabled: true, RateHz: 1.0},
		Sound: SoundConfig{
			Enabled:    true,
			Volume:     0.6,
			SampleRate: 44100,
			Latency:    Duration(50 * time.Millisecond),
		},
		Tone:     alarm.DefaultTone(),
		LogLevel: "info",
	}
}

// Load reads path over the defaults. A missing file is not an error: the
// defaults are returned as-is.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.sanitize()
	return cfg, nil
}

// LoadEnv reads KLONSHIE_* variables from a .env file if one exists.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

func (c *Config) sanitize() {
	d := Default()

	c.Flash.RateHz = ClampRate(c.Flash.RateHz)
	c.Sound.Volume = ClampVolume(c.Sound.Volume)
	if c.Sound.SampleRate < 8000 || c.Sound.SampleRate > 192000 {
		c.Sound.SampleRate = d.Sound.SampleRate
	}
	if c.Sound.Latency.ToDuration() <= 0 {
		c.Sound.Latency = d.Sound.Latency
	}

	// Tone sanity (keep user values unless they are unusable)
	if c.Tone.PitchA <= 0 {
		c.Tone.PitchA = d.Tone.PitchA
	}
	if c.Tone.PitchB <= 0 {
		c.Tone.PitchB = d.Tone.PitchB
	}
	nyquist := float64(c.Sound.SampleRate) / 2
	c.Tone.PitchA = math.Min(c.Tone.PitchA, nyquist)
	c.Tone.PitchB = math.Min(c.Tone.PitchB, nyquist)
	if c.Tone.Mix < 0 || c.Tone.Mix > 1 {
		c.Tone.Mix = d.Tone.Mix
	}
	if c.Tone.LFORate < 0 || c.Tone.LFORate > 20 {
		c.Tone.LFORate = d.Tone.LFORate
	}
	if c.Tone.LFODepth < 0 || c.Tone.LFODepth > 1 {
		c.Tone.LFODepth = d.Tone.LFODepth
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

const (
	RateStep = 0.1

	VolumeStep = 0.05
)

// ClampRate keeps a flash rate inside the slider range. Zero and NaN fall
// back to 1 Hz.
func ClampRate(hz float64) float64 {
	if hz == 0 || math.IsNaN(hz) {
		return 1.0
	}
	return math.Min(math.Max(hz, flash.MinRateHz), flash.MaxRateHz)
}

func ClampVolume(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(math.Max(v, 0), 1)
}
