package encoder

import (
	"fmt"
	"io"
	"sync"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// FlacEncoder buffers float samples and emits fixed-size verbatim frames.
type FlacEncoder struct {
	enc         *flac.Encoder
	sampleRate  uint32
	pending     []int32
	totalFrames uint64
	mu          sync.Mutex
}

func NewFlac(w io.Writer, sampleRate uint32) (*FlacEncoder, error) {
	info := &meta.StreamInfo{
		BlockSizeMin:  BlockSize,
		BlockSizeMax:  BlockSize,
		SampleRate:    sampleRate,
		NChannels:     Channels,
		BitsPerSample: BitsPerSample,
	}
	enc, err := flac.NewEncoder(w, info)
	if err != nil {
		return nil, fmt.Errorf("creating flac encoder: %w", err)
	}
	enc.EnablePredictionAnalysis(true)
	return &FlacEncoder{enc: enc, sampleRate: sampleRate}, nil
}

func (e *FlacEncoder) Write(samples []float32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, s := range samples {
		e.pending = append(e.pending, Quantize(s))
		if len(e.pending) == BlockSize {
			if err := e.flushLocked(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *FlacEncoder) flushLocked() error {
	if len(e.pending) == 0 {
		return nil
	}
	block := e.pending
	e.pending = make([]int32, 0, BlockSize)

	f := &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(len(block)),
			SampleRate:    e.sampleRate,
			Channels:      frame.ChannelsMono,
			BitsPerSample: BitsPerSample,
		},
		Subframes: []*frame.Subframe{{
			SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
			Samples:   block,
			NSamples:  len(block),
		}},
	}
	if err := e.enc.WriteFrame(f); err != nil {
		return fmt.Errorf("writing flac frame: %w", err)
	}
	e.totalFrames += uint64(len(block))
	return nil
}

// Close writes any partial block and finishes the stream.
func (e *FlacEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.flushLocked(); err != nil {
		return err
	}
	return e.enc.Close()
}

func (e *FlacEncoder) TotalFrames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalFrames
}
