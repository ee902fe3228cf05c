package decode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep/mp3"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"

	"wavebars/internal/services"
)

var errUnsupportedFormat = errors.New("unsupported audio format")

// mp3ChunkFrames is the number of stereo frames pulled from the mp3 stream per read.
const mp3ChunkFrames = 4096

// Native decodes wav, flac, and mp3 files in-process.
type Native struct{}

// Decode picks a codec from the file extension and applies window in samples.
func (d *Native) Decode(ctx context.Context, path string, window Window) (Waveform, error) {
	if err := ctx.Err(); err != nil {
		return Waveform{}, err
	}
	if _, err := os.Stat(path); err != nil {
		return Waveform{}, services.Wrap(services.ErrIO, stageDecode, "open", path, err)
	}

	var (
		wave Waveform
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav", ".wave":
		wave, err = decodeWAV(path)
	case ".flac":
		wave, err = decodeFLAC(ctx, path)
	case ".mp3":
		wave, err = decodeMP3(ctx, path)
	default:
		err = fmt.Errorf("%w: %q", errUnsupportedFormat, ext)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Waveform{}, ctxErr
		}
		return Waveform{}, services.Wrap(services.ErrMediaFormat, stageDecode, "native", path, err)
	}
	if wave.NumChannels() == 0 || wave.SampleRate <= 0 {
		return Waveform{}, services.Wrap(services.ErrMediaFormat, stageDecode, "native", path,
			errors.New("no audio channels"))
	}

	start, end, err := sampleSpan(window, wave.SampleRate, wave.Len())
	if err != nil {
		return Waveform{}, err
	}
	for ch := range wave.Channels {
		wave.Channels[ch] = wave.Channels[ch][start:end]
	}
	return wave, nil
}

func decodeWAV(path string) (Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return Waveform{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Waveform{}, errors.New("invalid wav file")
	}
	if dec.WavAudioFormat != 1 {
		return Waveform{}, fmt.Errorf("%w: wav format tag %d (only PCM)", errUnsupportedFormat, dec.WavAudioFormat)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Waveform{}, fmt.Errorf("read wav: %w", err)
	}
	channels := buf.Format.NumChannels
	if channels <= 0 {
		return Waveform{}, errors.New("wav reports no channels")
	}
	scale := pcmScale(int(dec.BitDepth))
	samples := make([]float32, len(buf.Data)-len(buf.Data)%channels)
	for i := range samples {
		samples[i] = float32(float64(buf.Data[i]) / scale)
	}
	return Waveform{
		Channels:   deinterleave(samples, channels),
		SampleRate: float64(buf.Format.SampleRate),
	}, nil
}

func decodeFLAC(ctx context.Context, path string) (Waveform, error) {
	stream, err := flac.Open(path)
	if err != nil {
		return Waveform{}, err
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	if channels <= 0 {
		return Waveform{}, errors.New("flac reports no channels")
	}
	scale := pcmScale(int(stream.Info.BitsPerSample))
	out := make([][]float32, channels)
	for {
		if err := ctx.Err(); err != nil {
			return Waveform{}, err
		}
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Waveform{}, fmt.Errorf("read flac frame: %w", err)
		}
		for ch := 0; ch < channels && ch < len(frame.Subframes); ch++ {
			for _, s := range frame.Subframes[ch].Samples {
				out[ch] = append(out[ch], float32(float64(s)/scale))
			}
		}
	}
	return Waveform{Channels: equalize(out), SampleRate: float64(stream.Info.SampleRate)}, nil
}

func decodeMP3(ctx context.Context, path string) (Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return Waveform{}, err
	}
	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return Waveform{}, err
	}
	defer streamer.Close()

	channels := format.NumChannels
	if channels < 1 || channels > 2 {
		return Waveform{}, fmt.Errorf("%w: %d mp3 channels", errUnsupportedFormat, channels)
	}
	out := make([][]float32, channels)
	buf := make([][2]float64, mp3ChunkFrames)
	for {
		if err := ctx.Err(); err != nil {
			return Waveform{}, err
		}
		n, ok := streamer.Stream(buf)
		for i := 0; i < n; i++ {
			for ch := 0; ch < channels; ch++ {
				out[ch] = append(out[ch], float32(buf[i][ch]))
			}
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return Waveform{}, fmt.Errorf("read mp3: %w", err)
	}
	return Waveform{Channels: out, SampleRate: float64(format.SampleRate)}, nil
}

func pcmScale(bitDepth int) float64 {
	if bitDepth <= 0 {
		bitDepth = 16
	}
	return float64(int64(1) << (bitDepth - 1))
}

// equalize trims channels to the shortest one.
func equalize(channels [][]float32) [][]float32 {
	shortest := -1
	for _, ch := range channels {
		if shortest < 0 || len(ch) < shortest {
			shortest = len(ch)
		}
	}
	for i := range channels {
		channels[i] = channels[i][:shortest]
	}
	return channels
}
