package alarm

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"klonshie/audio"
)

func newTestSynth(t *testing.T, volume float64) (*Synth, *audio.FakeContext) {
	t.Helper()
	backend := audio.NewFakeContext(false)
	s := NewSynth(backend, Config{Tone: DefaultTone(), SampleRate: 8000, Volume: volume})
	t.Cleanup(s.Close)
	return s, backend
}

func TestEnsureOutputIsIdempotent(t *testing.T) {
	s, backend := newTestSynth(t, 0.5)

	first, err := s.EnsureOutput()
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.EnsureOutput()
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("EnsureOutput created a second context")
	}
	if n := len(backend.Playbacks()); n != 1 {
		t.Errorf("playback devices = %d, want 1", n)
	}
	if first.State() != Suspended {
		t.Errorf("new context state = %v, want suspended", first.State())
	}
}

func TestStartTwiceLeavesOneVoice(t *testing.T) {
	s, _ := newTestSynth(t, 0.5)

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	st := s.Context().Stats()
	if st.Started != 6 || st.Stopped != 3 {
		t.Errorf("stats = %+v, want 6 started / 3 stopped", st)
	}
	if st.Active() != 3 {
		t.Errorf("active oscillators = %d, want 3", st.Active())
	}
	if !s.Running() {
		t.Error("synth not running")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s, _ := newTestSynth(t, 0.5)

	s.Stop()
	if s.Context() != nil {
		t.Error("Stop created an audio context")
	}

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	s.Stop()
	s.Stop()

	if s.Running() {
		t.Error("synth still running")
	}
	if st := s.Context().Stats(); st.Active() != 0 || st.Stopped != 3 {
		t.Errorf("stats = %+v", st)
	}
	if s.Context().State() == Closed {
		t.Error("Stop closed the context")
	}
}

func TestVolumeRetainedWhileStopped(t *testing.T) {
	s, _ := newTestSynth(t, 0.5)

	s.SetVolume(0.3)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if got := s.master.Gain.Value(); got != 0.3 {
		t.Errorf("master gain after first start = %v, want 0.3", got)
	}

	s.Stop()
	s.SetVolume(0.7)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if got := s.master.Gain.Value(); got != 0.7 {
		t.Errorf("master gain after restart = %v, want 0.7", got)
	}
}

func TestSetVolumeClamps(t *testing.T) {
	s, _ := newTestSynth(t, 0.5)
	s.SetVolume(1.5)
	if s.Volume() != 1 {
		t.Errorf("volume = %v, want 1", s.Volume())
	}
	s.SetVolume(-1)
	if s.Volume() != 0 {
		t.Errorf("volume = %v, want 0", s.Volume())
	}
}

func TestSetVolumeAppliesLive(t *testing.T) {
	s, backend := newTestSynth(t, 1)

	if err := s.Resume(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	dev := backend.Playbacks()[0]

	loud, err := dev.Pull(800)
	if err != nil {
		t.Fatal(err)
	}
	if peak(loud) == 0 {
		t.Fatal("alarm is silent at full volume")
	}

	s.SetVolume(0)
	quiet, err := dev.Pull(800)
	if err != nil {
		t.Fatal(err)
	}
	if p := peak(quiet); p != 0 {
		t.Errorf("peak after muting = %f, want 0", p)
	}
}

func TestResumeWithoutUserOutputFails(t *testing.T) {
	s, backend := newTestSynth(t, 0.5)
	boom := errors.New("no sound server")
	backend.FailNewPlayback(boom)

	if err := s.Resume(context.Background()); !errors.Is(err, boom) {
		t.Errorf("resume: got %v, want wrapped %v", err, boom)
	}
	if err := s.Start(); !errors.Is(err, boom) {
		t.Errorf("start: got %v, want wrapped %v", err, boom)
	}
	if s.Running() {
		t.Error("synth running without output")
	}
}

func TestRenderPulses(t *testing.T) {
	const rate = 22050
	out, err := Render(DefaultTone(), 1, rate, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != rate {
		t.Fatalf("rendered %d samples, want %d", len(out), rate)
	}

	// 20ms windows across more than two LFO periods.
	win := rate / 50
	lo, hi := math.Inf(1), 0.0
	for i := 0; i+win <= len(out); i += win {
		r := rms(out[i : i+win])
		lo = math.Min(lo, r)
		hi = math.Max(hi, r)
	}
	if hi < 3*lo {
		t.Errorf("rms range %.4f..%.4f, want a pulsing envelope", lo, hi)
	}
	if p := peak(out); p > 1 {
		t.Errorf("peak = %f", p)
	}
}

func TestRenderSilentAtZeroVolume(t *testing.T) {
	out, err := Render(DefaultTone(), 0, 8000, 100*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if p := peak(out); p != 0 {
		t.Errorf("peak = %f, want 0", p)
	}
}

func TestRenderNegativeDurationIsEmpty(t *testing.T) {
	out, err := Render(DefaultTone(), 0.5, 8000, -time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Errorf("rendered %d samples for a negative duration", len(out))
	}
}

func peak(s []float32) float64 {
	var p float64
	for _, v := range s {
		p = math.Max(p, math.Abs(float64(v)))
	}
	return p
}

func rms(s []float32) float64 {
	var sum float64
	for _, v := range s {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(s)))
}
