// Package main hosts the wavebars CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, builds the slog logger
// from the [logging] section and the global flags, and hands each subcommand
// the pieces it needs: render drives the frame pipeline, probe and deps
// inspect the environment, history reads the run ledger, and watch follows a
// frames directory as another process fills it.
//
// Heavy lifting lives in internal packages; commands here only translate
// flags into configuration and results into terminal output.
package main
