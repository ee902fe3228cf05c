// Package services defines shared contracts consumed by the pipeline stages
// and the wrappers around external tools (ffprobe, ffmpeg).
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, clip IDs, and stage names for
//     logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (media format, I/O, degenerate signal, bad parameters, bad input) so the
//     CLI and the run history can report them uniformly.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
