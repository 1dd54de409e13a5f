// Package encoder writes rendered alarm audio to lossless files.
package encoder

import (
	"fmt"
	"io"
	"os"
)

const (
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Quantize maps a sample in [-1, 1] to signed 16-bit, clipping outside it.
func Quantize(v float32) int32 {
	switch {
	case v >= 1:
		return 32767
	case v <= -1:
		return -32768
	}
	return int32(v * 32767)
}

// WriteFile encodes samples as a mono FLAC file at path.
func WriteFile(path string, samples []float32, sampleRate uint32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := Encode(f, samples, sampleRate); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}

func Encode(w io.Writer, samples []float32, sampleRate uint32) error {
	enc, err := NewFlac(w, sampleRate)
	if err != nil {
		return err
	}
	if err := enc.Write(samples); err != nil {
		return err
	}
	return enc.Close()
}
