package encoder

import (
	"bytes"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/mewkiz/flac"
)

func sine(n int, rate float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/rate))
	}
	return out
}

func TestFlacEncoderRoundTrip(t *testing.T) {
	const rate = 22050
	samples := sine(rate/2+100, rate)

	var buf bytes.Buffer
	enc, err := NewFlac(&buf, rate)
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}
	// uneven writes must still produce whole blocks
	if err := enc.Write(samples[:1000]); err != nil {
		t.Fatal(err)
	}
	if err := enc.Write(samples[1000:]); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if enc.TotalFrames() != uint64(len(samples)) {
		t.Errorf("TotalFrames = %d, want %d", enc.TotalFrames(), len(samples))
	}

	data := buf.Bytes()
	if len(data) < 4 || string(data[:4]) != "fLaC" {
		t.Fatal("output does not start with FLAC magic")
	}

	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if stream.Info.SampleRate != rate {
		t.Errorf("sample rate = %d, want %d", stream.Info.SampleRate, rate)
	}
	var decoded []int32
	for {
		f, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ParseNext: %v", err)
		}
		decoded = append(decoded, f.Subframes[0].Samples...)
	}
	if len(decoded) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(decoded), len(samples))
	}
	for i := range samples {
		if decoded[i] != Quantize(samples[i]) {
			t.Fatalf("sample %d = %d, want %d", i, decoded[i], Quantize(samples[i]))
		}
	}
}

func TestFlacEncoderEmpty(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewFlac(&buf, 44100)
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close on empty encoder: %v", err)
	}
	if enc.TotalFrames() != 0 {
		t.Errorf("TotalFrames = %d, want 0", enc.TotalFrames())
	}
	if buf.Len() == 0 {
		t.Error("expected non-empty FLAC output (at least header)")
	}
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		in   float32
		want int32
	}{
		{0, 0}, {1, 32767}, {-1, -32768}, {2, 32767}, {-3, -32768}, {0.5, 16383},
	}
	for _, tt := range tests {
		if got := Quantize(tt.in); got != tt.want {
			t.Errorf("Quantize(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alarm.flac")
	if err := WriteFile(path, sine(5000, 8000), 8000); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() < 42 {
		t.Errorf("file size = %d, too small for a FLAC stream", info.Size())
	}
}
