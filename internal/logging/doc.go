// Package logging builds the slog loggers used by wavebars.
//
// It owns the console and JSON handlers, level parsing, and the
// context helpers that tag log lines with run IDs, clip IDs, and pipeline
// stages. Progress logging for long renders goes through ProgressSampler so
// that a clip with thousands of frames logs a handful of lines instead of one
// per frame.
package logging
