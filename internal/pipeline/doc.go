// Package pipeline drives one clip from audio file to numbered PNG frames.
//
// A run decodes the clip, builds per-channel envelopes, and then renders
// frames 0..N-1 where N = round(rate * duration). Frames are named
// <clip>-000000.png and are always committed in increasing index order, even
// when several workers render concurrently: workers write hidden temp files
// and a single committer renames them into place and notifies the configured
// sinks. Failures abort the run and go through the caller's Reporter.
package pipeline
