package main

import (
	"fmt"
	"time"

	"klonshie/alarm"
	"klonshie/config"
	"klonshie/control"
	"klonshie/encoder"
)

// renderAlarm writes d of the configured alarm to a FLAC file without
// touching any audio device.
func renderAlarm(path string, cfg config.Config, d time.Duration) error {
	start := time.Now()
	samples, err := alarm.Render(cfg.Tone, cfg.Sound.Volume, cfg.Sound.SampleRate, d)
	if err != nil {
		return err
	}
	if err := encoder.WriteFile(path, samples, uint32(cfg.Sound.SampleRate)); err != nil {
		return err
	}
	fmt.Printf("wrote %s: %.1fs at %d Hz, volume %s (%dms)\n",
		path, d.Seconds(), cfg.Sound.SampleRate, control.VolumeLabel(cfg.Sound.Volume), time.Since(start).Milliseconds())
	return nil
}
