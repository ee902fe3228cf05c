package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	ansiBold  = "\033[1m"
	ansiReset = "\033[0m"
)

// reportedError marks an error that was already printed.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }

func (e reportedError) Unwrap() error { return e.err }

// errorReporter prints pipeline failures as soon as they happen, before
// history bookkeeping and cleanup run.
type errorReporter struct {
	w io.Writer
}

func (r errorReporter) Report(_ context.Context, err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return err
	}
	printError(r.w, err)
	return reportedError{err: err}
}

// exitCode prints err unless it was already reported and returns the
// process exit status.
func exitCode(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var reported reportedError
	if !errors.As(err, &reported) && !errors.Is(err, context.Canceled) {
		printError(w, err)
	}
	return 1
}

func printError(w io.Writer, err error) {
	label := "error:"
	if shouldColorize(w) {
		label = ansiBold + label + ansiReset
	}
	fmt.Fprintf(w, "%s %v\n", label, err)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
