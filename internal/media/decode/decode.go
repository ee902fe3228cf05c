package decode

import (
	"context"
	"fmt"
	"math"
	"strings"

	"wavebars/internal/config"
	"wavebars/internal/services"
)

const stageDecode = "decode"

// Waveform holds decoded samples in channel-major layout.
type Waveform struct {
	Channels   [][]float32
	SampleRate float64
}

// NumChannels returns the channel count.
func (w Waveform) NumChannels() int {
	return len(w.Channels)
}

// Len returns the per-channel sample count.
func (w Waveform) Len() int {
	if len(w.Channels) == 0 {
		return 0
	}
	return len(w.Channels[0])
}

// Duration returns the clip length in seconds.
func (w Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(w.Len()) / w.SampleRate
}

// Window restricts decoding to part of the file. Nil fields mean "from the
// start" and "to the end".
type Window struct {
	Seek     *float64
	Duration *float64
}

// Seconds builds a pointer for Window fields.
func Seconds(v float64) *float64 {
	return &v
}

// Decoder decodes an audio file into a Waveform.
type Decoder interface {
	Decode(ctx context.Context, path string, window Window) (Waveform, error)
}

// New returns the decoder for the named backend.
func New(backend, ffmpegBinary, ffprobeBinary string) (Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", config.BackendFFmpeg:
		return &FFmpeg{FFmpegBinary: ffmpegBinary, FFprobeBinary: ffprobeBinary}, nil
	case config.BackendNative:
		return &Native{}, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, stageDecode, "select backend",
			fmt.Sprintf("unknown decoder backend %q", backend), nil)
	}
}

// FromConfig returns the decoder selected by cfg.
func FromConfig(cfg *config.Config) (Decoder, error) {
	return New(cfg.Decoder.Backend, cfg.FFmpegBinary(), cfg.FFprobeBinary())
}

func deinterleave(samples []float32, channels int) [][]float32 {
	frames := len(samples) / channels
	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		base := i * channels
		for ch := 0; ch < channels; ch++ {
			out[ch][i] = samples[base+ch]
		}
	}
	return out
}

// sampleSpan converts a Window into a [start, end) sample range bounded by total.
func sampleSpan(window Window, sampleRate float64, total int) (int, int, error) {
	start, end := 0, total
	if window.Seek != nil {
		seek := *window.Seek
		if seek < 0 || math.IsNaN(seek) || math.IsInf(seek, 0) {
			return 0, 0, services.Wrap(services.ErrInvalidParameter, stageDecode, "window",
				fmt.Sprintf("invalid seek %v", seek), nil)
		}
		start = min(int(math.Round(seek*sampleRate)), total)
	}
	if window.Duration != nil {
		dur := *window.Duration
		if dur < 0 || math.IsNaN(dur) || math.IsInf(dur, 0) {
			return 0, 0, services.Wrap(services.ErrInvalidParameter, stageDecode, "window",
				fmt.Sprintf("invalid duration %v", dur), nil)
		}
		end = min(start+int(math.Round(dur*sampleRate)), total)
	}
	return start, end, nil
}
