package testsupport

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteFloat32LE writes channel-major samples as interleaved little-endian
// float32, the byte layout ffmpeg emits for -f f32le.
func WriteFloat32LE(t testing.TB, path string, channels ...[]float64) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	frames := 0
	if len(channels) > 0 {
		frames = len(channels[0])
	}
	buf := make([]byte, 0, frames*len(channels)*4)
	for i := 0; i < frames; i++ {
		for _, ch := range channels {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(ch[i])))
		}
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ProbeStream describes one stream in a fake ffprobe payload.
type ProbeStream struct {
	CodecType  string
	Channels   int
	SampleRate int
}

// FFprobeJSON renders an ffprobe -show_streams -show_format payload.
func FFprobeJSON(streams ...ProbeStream) string {
	parts := make([]string, 0, len(streams))
	for i, s := range streams {
		parts = append(parts, fmt.Sprintf(
			`{"index": %d, "codec_type": %q, "codec_name": "pcm_s16le", "channels": %d, "sample_rate": "%d"}`,
			i, s.CodecType, s.Channels, s.SampleRate))
	}
	return fmt.Sprintf(`{"streams": [%s], "format": {"nb_streams": %d, "format_name": "wav"}}`,
		strings.Join(parts, ", "), len(streams))
}

// CatScript returns a stub body that prints the contents of path to stdout.
func CatScript(path string) string {
	return fmt.Sprintf("cat '%s'\n", path)
}
