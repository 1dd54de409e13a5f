package audio

import (
	"errors"
	"sync"
	"time"
)

const fakeFrameSize = 512

// FakeContext is a device-less Context for tests and the headless mode.
// Playback devices created from it pull their source either on demand
// (Pull) or, when realtime is set, from a goroutine paced at the sample rate.
type FakeContext struct {
	realtime bool
	failWith error

	mu      sync.Mutex
	devices []*FakePlayback
}

func NewFakeContext(realtime bool) *FakeContext {
	return &FakeContext{realtime: realtime}
}

// FailNewPlayback makes every subsequent NewPlayback call return err.
func (f *FakeContext) FailNewPlayback(err error) {
	f.mu.Lock()
	f.failWith = err
	f.mu.Unlock()
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake output"}}, nil
}

func (f *FakeContext) Close() {
	f.mu.Lock()
	devs := f.devices
	f.mu.Unlock()
	for _, d := range devs {
		d.Close()
	}
}

func (f *FakeContext) NewPlayback(_ *DeviceInfo, config PlaybackConfig, src Source) (PlaybackDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	d := &FakePlayback{src: src, config: config, realtime: f.realtime}
	f.devices = append(f.devices, d)
	return d, nil
}

// Playbacks returns every device created so far.
func (f *FakeContext) Playbacks() []*FakePlayback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakePlayback(nil), f.devices...)
}

type FakePlayback struct {
	src      Source
	config   PlaybackConfig
	realtime bool

	mu       sync.Mutex
	started  bool
	starts   int
	stopCh   chan struct{}
	feedDone chan struct{}
}

var errNotStarted = errors.New("fake playback not started")

func (f *FakePlayback) DeviceName() string { return "fake" }

func (f *FakePlayback) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started {
		return nil
	}
	f.started = true
	f.starts++
	if !f.realtime {
		return nil
	}

	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})
	rate := f.config.SampleRate
	if rate == 0 {
		rate = DefaultSampleRate
	}
	interval := time.Duration(fakeFrameSize) * time.Second / time.Duration(rate)
	stop, done := f.stopCh, f.feedDone
	go func() {
		defer close(done)
		buf := make([]float32, fakeFrameSize)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				f.src(buf)
			}
		}
	}()
	return nil
}

func (f *FakePlayback) Stop() {
	f.mu.Lock()
	if !f.started {
		f.mu.Unlock()
		return
	}
	f.started = false
	stop, done := f.stopCh, f.feedDone
	f.stopCh, f.feedDone = nil, nil
	f.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

func (f *FakePlayback) Close() { f.Stop() }

// Started reports whether the device is currently running.
func (f *FakePlayback) Started() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

// Starts counts Start calls that actually started the device.
func (f *FakePlayback) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

// Pull synchronously renders n samples from the source, as the audio
// thread would. It fails if the device is not started.
func (f *FakePlayback) Pull(n int) ([]float32, error) {
	if !f.Started() {
		return nil, errNotStarted
	}
	out := make([]float32, n)
	f.src(out)
	return out, nil
}
