// Package preflight provides readiness checks for the binaries and
// directories a render run depends on.
//
// The CLI `deps` command prints every check; `render` runs them first and
// refuses to start when a required check fails, so a missing ffmpeg or an
// unwritable frames directory is reported before any decoding happens.
package preflight
