package audio

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestIsBluetooth(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"AirPods Pro", true},
		{"Sony WH-1000XM4", true},
		{"JBL Flip 5", true},
		{"Speaker bt ", true},
		{"Built-in Audio Analog Stereo", false},
		{"HDMI Output", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsBluetooth(tt.name); got != tt.want {
			t.Errorf("IsBluetooth(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFindDevice(t *testing.T) {
	ctx := NewFakeContext(false)
	if d := FindDevice(ctx, "fake output"); d == nil || d.ID != "fake" {
		t.Errorf("FindDevice = %+v, want fake", d)
	}
	if d := FindDevice(ctx, "missing"); d != nil {
		t.Errorf("FindDevice(missing) = %+v, want nil", d)
	}
	if d := FindDevice(ctx, ""); d != nil {
		t.Errorf("FindDevice(\"\") = %+v, want nil", d)
	}
}

func TestPickerDefaultsToSystem(t *testing.T) {
	p := newPicker([]DeviceInfo{{ID: "a", Name: "Speakers"}})
	d, err := p.run(strings.NewReader("\r"), &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if d != nil {
		t.Errorf("selected %+v, want system default", d)
	}
}

func TestPickerMovesAndClamps(t *testing.T) {
	devices := []DeviceInfo{{ID: "a", Name: "Speakers"}, {ID: "b", Name: "AirPods"}}
	p := newPicker(devices)

	keys := [][]byte{{'j'}, {0x1b, '[', 'B'}, {'j'}, {'j'}}
	for _, k := range keys {
		if done, _ := p.key(k); done {
			t.Fatal("movement key finished selection")
		}
	}
	if p.cursor != 2 {
		t.Errorf("cursor = %d, want 2", p.cursor)
	}
	p.key([]byte{'k'})
	p.key([]byte{0x1b, '[', 'A'})
	p.key([]byte{'k'})
	if p.cursor != 0 {
		t.Errorf("cursor = %d, want 0", p.cursor)
	}

	p.key([]byte{'j'})
	if d := p.selected(); d == nil || d.ID != "a" {
		t.Errorf("selected %+v, want Speakers", d)
	}
}

func TestPickerCancel(t *testing.T) {
	p := newPicker([]DeviceInfo{{ID: "a", Name: "Speakers"}})
	_, err := p.run(strings.NewReader("q"), &bytes.Buffer{})
	if !errors.Is(err, errPickerCancelled) {
		t.Errorf("err = %v, want cancelled", err)
	}
}

func TestPickerMarksBluetooth(t *testing.T) {
	p := newPicker([]DeviceInfo{{ID: "a", Name: "AirPods"}})
	var out bytes.Buffer
	p.draw(&out)
	if !strings.Contains(out.String(), "high latency") {
		t.Errorf("picker output missing latency warning:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "System default") {
		t.Errorf("picker output missing system default:\n%s", out.String())
	}
}

func TestFakeFailNewPlayback(t *testing.T) {
	ctx := NewFakeContext(false)
	want := errors.New("boom")
	ctx.FailNewPlayback(want)
	if _, err := ctx.NewPlayback(nil, PlaybackConfig{}, func([]float32) {}); !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
	ctx.FailNewPlayback(nil)
	if _, err := ctx.NewPlayback(nil, PlaybackConfig{}, func([]float32) {}); err != nil {
		t.Errorf("err = %v after clearing failure", err)
	}
}

func TestFakePlaybackPull(t *testing.T) {
	ctx := NewFakeContext(false)
	dev, err := ctx.NewPlayback(nil, PlaybackConfig{SampleRate: 8000}, func(out []float32) {
		for i := range out {
			out[i] = 0.5
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	fp := dev.(*FakePlayback)
	if _, err := fp.Pull(4); err == nil {
		t.Error("Pull before Start succeeded")
	}
	dev.Start()
	dev.Start()
	if fp.Starts() != 1 {
		t.Errorf("Starts = %d, want 1", fp.Starts())
	}
	out, err := fp.Pull(4)
	if err != nil {
		t.Fatal(err)
	}
	if out[3] != 0.5 {
		t.Errorf("sample = %v, want 0.5", out[3])
	}
	dev.Stop()
	if fp.Started() {
		t.Error("still started after Stop")
	}
}
