// Package config loads, normalizes, and validates wavebars configuration data.
//
// It supplies repository defaults (the render options the pipeline entry point
// recognizes: frame rate, bar count, transition speed, window time, oversample
// factor, colors, output size, stereo), expands user paths including tilde
// shortcuts, reads TOML files, and honours environment fallbacks for the ffmpeg
// and ffprobe binaries.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
