package testsupport

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Sine returns seconds of a sine tone at freq Hz with the given amplitude.
func Sine(sampleRate int, seconds, freq, amplitude float64) []float64 {
	n := int(math.Round(float64(sampleRate) * seconds))
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

// WriteWAV encodes channel-major samples in [-1, 1] as a 16-bit PCM wav file.
func WriteWAV(t testing.TB, path string, sampleRate int, channels ...[]float64) {
	t.Helper()
	if len(channels) == 0 {
		t.Fatal("WriteWAV: no channels")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	frames := len(channels[0])
	data := make([]int, 0, frames*len(channels))
	for i := 0; i < frames; i++ {
		for _, ch := range channels {
			v := math.Max(-1, math.Min(1, ch[i]))
			data = append(data, int(math.Round(v*32767)))
		}
	}

	enc := wav.NewEncoder(f, sampleRate, 16, len(channels), 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: len(channels), SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder %s: %v", path, err)
	}
}

// WriteSineWAV writes a mono sine wav file and returns the samples written.
func WriteSineWAV(t testing.TB, path string, sampleRate int, seconds, freq float64) []float64 {
	t.Helper()
	samples := Sine(sampleRate, seconds, freq, 0.5)
	WriteWAV(t, path, sampleRate, samples)
	return samples
}
