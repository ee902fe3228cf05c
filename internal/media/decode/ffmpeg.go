package decode

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"wavebars/internal/media/ffprobe"
	"wavebars/internal/services"
)

// FFmpeg decodes through ffprobe and ffmpeg subprocesses.
type FFmpeg struct {
	FFmpegBinary  string
	FFprobeBinary string
}

// Decode probes path, validates it holds a single audio stream, and decodes
// it to float32 samples.
func (d *FFmpeg) Decode(ctx context.Context, path string, window Window) (Waveform, error) {
	probe, err := ffprobe.Inspect(ctx, d.ffprobe(), path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Waveform{}, ctxErr
		}
		return Waveform{}, services.Wrap(services.ErrIO, stageDecode, "probe", path, err)
	}
	stream, err := probe.SingleAudio()
	if err != nil {
		return Waveform{}, services.Wrap(services.ErrMediaFormat, stageDecode, "probe", path, err)
	}
	if err := validateWindow(window); err != nil {
		return Waveform{}, err
	}

	raw, err := d.run(ctx, path, window)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Waveform{}, ctxErr
		}
		return Waveform{}, services.Wrap(services.ErrIO, stageDecode, "ffmpeg", path, err)
	}

	channels := stream.Channels
	if len(raw)%(4*channels) != 0 {
		return Waveform{}, services.Wrap(services.ErrMediaFormat, stageDecode, "ffmpeg", path,
			fmt.Errorf("decoded %d bytes, not a multiple of %d channels of float32", len(raw), channels))
	}
	samples := make([]float32, len(raw)/4)
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, samples); err != nil {
		return Waveform{}, services.Wrap(services.ErrMediaFormat, stageDecode, "ffmpeg", path, err)
	}

	return Waveform{
		Channels:   deinterleave(samples, channels),
		SampleRate: stream.SampleRateHz(),
	}, nil
}

func (d *FFmpeg) run(ctx context.Context, path string, window Window) ([]byte, error) {
	args := []string{"-y", "-loglevel", "panic"}
	if window.Seek != nil {
		args = append(args, "-ss", formatSeconds(*window.Seek))
	}
	args = append(args, "-i", path)
	if window.Duration != nil {
		args = append(args, "-t", formatSeconds(*window.Duration))
	}
	args = append(args, "-f", "f32le", "-")

	cmd := exec.CommandContext(ctx, d.ffmpeg(), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

func (d *FFmpeg) ffmpeg() string {
	if bin := strings.TrimSpace(d.FFmpegBinary); bin != "" {
		return bin
	}
	return "ffmpeg"
}

func (d *FFmpeg) ffprobe() string {
	if bin := strings.TrimSpace(d.FFprobeBinary); bin != "" {
		return bin
	}
	return "ffprobe"
}

func validateWindow(window Window) error {
	_, _, err := sampleSpan(window, 1, 0)
	return err
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
