// Package interp maps output frame indices onto blended envelope windows.
package interp

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"

	"wavebars/internal/envelope"
	"wavebars/internal/services"
)

const (
	stageInterp = "interpolate"

	// loudness floor added before taking the log of the upcoming window.
	volumeFloor = 1e-4

	minVolume  = -6.0
	maxVolume  = 0.0
	minSpeedup = 0.5
	maxSpeedup = 2.0
)

// Config holds everything the interpolator needs; Envelopes must already be
// padded with envelope.Pad using the same Bars.
type Config struct {
	Envelopes  []envelope.Envelope
	SampleRate float64
	Stride     int
	Bars       int
	Rate       float64
	Speed      float64
}

// Position is a frame index resolved into the envelope.
type Position struct {
	Offset int
	Loc    float64
}

// Interpolator produces per-frame snapshots. It is safe for concurrent use;
// the envelopes are only read.
type Interpolator struct {
	cfg  Config
	hann []float64
}

// New validates cfg and precomputes the Hann taper.
func New(cfg Config) (*Interpolator, error) {
	switch {
	case len(cfg.Envelopes) == 0:
		return nil, invalid("no envelopes")
	case cfg.Bars < 1:
		return nil, invalid(fmt.Sprintf("bars=%d", cfg.Bars))
	case cfg.Stride < 1:
		return nil, invalid(fmt.Sprintf("stride=%d", cfg.Stride))
	case !(cfg.SampleRate > 0):
		return nil, invalid(fmt.Sprintf("sample rate %v", cfg.SampleRate))
	case !(cfg.Rate > 0):
		return nil, invalid(fmt.Sprintf("frame rate %v", cfg.Rate))
	}
	return &Interpolator{cfg: cfg, hann: window.Hann(cfg.Bars)}, nil
}

// FrameCount returns round(rate*duration).
func FrameCount(rate, duration float64) int {
	n := math.Round(rate * duration)
	if n < 0 || math.IsNaN(n) {
		return 0
	}
	return int(n)
}

// Position resolves frame idx to a window offset and fractional location.
func (it *Interpolator) Position(idx int) Position {
	c := it.cfg
	pos := (float64(idx) / c.Rate) * c.SampleRate / float64(c.Stride) / float64(c.Bars)
	off := math.Floor(pos)
	return Position{Offset: int(off), Loc: pos - off}
}

// Speedup maps the loudness of the upcoming window linearly from [-6, 0] dB
// onto [0.5, 2], clamped at both ends.
func Speedup(maxvol float64) float64 {
	if maxvol <= minVolume {
		return minSpeedup
	}
	if maxvol >= maxVolume {
		return maxSpeedup
	}
	return minSpeedup + (maxvol-minVolume)*(maxSpeedup-minSpeedup)/(maxVolume-minVolume)
}

// Loudness returns 10*log10(1e-4 + max(window)).
func Loudness(window []float64) float64 {
	return 10 * math.Log10(volumeFloor+floats.Max(window))
}

// BlendWeight is the S-curve weight of the upcoming window at loc.
func BlendWeight(speed, speedup, loc float64) float64 {
	return envelope.Sigmoid(speed * speedup * (loc - 0.5))
}

// At returns one tapered, blended window of Bars values per channel.
func (it *Interpolator) At(idx int) ([][]float64, error) {
	if idx < 0 {
		return nil, invalid(fmt.Sprintf("frame %d", idx))
	}
	p := it.Position(idx)
	bars := it.cfg.Bars
	start := p.Offset * bars
	out := make([][]float64, len(it.cfg.Envelopes))
	for ch, env := range it.cfg.Envelopes {
		if start < 0 || start+2*bars > len(env) {
			return nil, services.Wrap(services.ErrInvalidParameter, stageInterp, "window",
				fmt.Sprintf("frame %d needs envelope[%d:%d], have %d values", idx, start, start+2*bars, len(env)), nil)
		}
		w1 := env[start : start+bars]
		w2 := env[start+bars : start+2*bars]

		w := BlendWeight(it.cfg.Speed, Speedup(Loudness(w2)), p.Loc)
		denv := make([]float64, bars)
		floats.ScaleTo(denv, 1-w, w1)
		floats.AddScaled(denv, w, w2)
		floats.Mul(denv, it.hann)
		out[ch] = denv
	}
	return out, nil
}

// Bars returns the snapshot width.
func (it *Interpolator) Bars() int {
	return it.cfg.Bars
}

func invalid(msg string) error {
	return services.Wrap(services.ErrInvalidParameter, stageInterp, "config", msg, nil)
}
