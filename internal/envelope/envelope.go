// Package envelope turns raw samples into the padded loudness envelope the
// frame interpolator reads from.
//
// The envelope is an average-pooled, rectified, sigmoid-compressed view of a
// normalized channel, sampled every stride samples.
package envelope

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"wavebars/internal/services"
)

const stageEnvelope = "envelope"

// Envelope is a per-channel loudness curve.
type Envelope []float64

// Params derives the pooling window and stride in samples.
func Params(sampleRate, timePerFrame float64, bars, oversample int) (window, stride int, err error) {
	if bars <= 0 || oversample <= 0 {
		return 0, 0, services.Wrap(services.ErrInvalidParameter, stageEnvelope, "params",
			fmt.Sprintf("bars=%d oversample=%d must be positive", bars, oversample), nil)
	}
	window = int(math.Round(sampleRate * timePerFrame / float64(bars)))
	stride = int(math.Round(float64(window) / float64(oversample)))
	if window < 1 || stride < 1 {
		return 0, 0, services.Wrap(services.ErrInvalidParameter, stageEnvelope, "params",
			fmt.Sprintf("window=%d stride=%d (sample rate %g, time %g, bars %d, oversample %d)",
				window, stride, sampleRate, timePerFrame, bars, oversample), nil)
	}
	return window, stride, nil
}

// Mixdown averages all channels into one.
func Mixdown(channels [][]float32) []float32 {
	if len(channels) == 1 {
		return channels[0]
	}
	if len(channels) == 0 {
		return nil
	}
	out := make([]float32, len(channels[0]))
	scale := 1 / float64(len(channels))
	for i := range out {
		var sum float64
		for _, ch := range channels {
			sum += float64(ch[i])
		}
		out[i] = float32(sum * scale)
	}
	return out
}

// Normalize divides samples by their population standard deviation so the
// envelope scale does not depend on recording loudness.
func Normalize(samples []float32) ([]float64, error) {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s)
	}
	if len(out) == 0 {
		return nil, services.Wrap(services.ErrDegenerateSignal, stageEnvelope, "normalize", "empty channel", nil)
	}
	std := stat.PopStdDev(out, nil)
	if std == 0 || math.IsNaN(std) || math.IsInf(std, 0) {
		return nil, services.Wrap(services.ErrDegenerateSignal, stageEnvelope, "normalize",
			fmt.Sprintf("standard deviation %v", std), nil)
	}
	floats.Scale(1/std, out)
	return out, nil
}

// Sigmoid is the logistic function.
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Compress maps pooled loudness into [0, 0.95) for x >= 0.
func Compress(x float64) float64 {
	return 1.9 * (Sigmoid(2.5*x) - 0.5)
}

// Extract pools wav into envelope values. The input is padded with window/2
// zeros on both sides; windows start every stride samples while the start
// offset is below len(padded)-window, so a trailing partial window is
// dropped.
func Extract(wav []float64, window, stride int) (Envelope, error) {
	if window < 1 || stride < 1 {
		return nil, services.Wrap(services.ErrInvalidParameter, stageEnvelope, "extract",
			fmt.Sprintf("window=%d stride=%d", window, stride), nil)
	}
	half := window / 2
	padded := make([]float64, len(wav)+2*half)
	copy(padded[half:], wav)

	limit := len(padded) - window
	if limit <= 0 {
		return Envelope{}, nil
	}
	out := make(Envelope, 0, (limit+stride-1)/stride)
	for off := 0; off < limit; off += stride {
		var sum float64
		for _, v := range padded[off : off+window] {
			if v > 0 {
				sum += v
			}
		}
		out = append(out, Compress(sum/float64(window)))
	}
	return out, nil
}

// Pad adds bars/2 zeros before env and 2*bars zeros after it so every
// interpolation window in range stays inside the slice.
func Pad(env Envelope, bars int) Envelope {
	head, tail := bars/2, 2*bars
	out := make(Envelope, head+len(env)+tail)
	copy(out[head:], env)
	return out
}

// Build normalizes, extracts and pads each channel.
func Build(channels [][]float32, window, stride, bars int) ([]Envelope, error) {
	out := make([]Envelope, 0, len(channels))
	for i, ch := range channels {
		norm, err := Normalize(ch)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, err)
		}
		env, err := Extract(norm, window, stride)
		if err != nil {
			return nil, err
		}
		out = append(out, Pad(env, bars))
	}
	return out, nil
}
