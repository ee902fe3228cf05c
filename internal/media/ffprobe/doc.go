// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe and parses its stream and format sections. SingleAudio
// enforces the wavebars input rule: exactly one stream, and it must be audio.
package ffprobe
