// Package decode turns an audio file into a channel-major float32 Waveform.
//
// Two backends exist. FFmpeg probes the file with ffprobe, requires exactly
// one audio stream, and streams f32le samples out of an ffmpeg subprocess.
// Native decodes wav, flac, and mp3 in-process without external binaries.
// Both honor an optional seek/duration Window.
package decode
