package pipeline

import "context"

// Frame is a committed frame file.
type Frame struct {
	ClipID string
	Index  int
	Total  int
	Path   string
}

// Sink receives frames in commit order. An error aborts the run.
type Sink interface {
	Publish(ctx context.Context, frame Frame) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, frame Frame) error

// Publish calls f.
func (f SinkFunc) Publish(ctx context.Context, frame Frame) error {
	return f(ctx, frame)
}

// Reporter decides what a failed run returns to its caller.
type Reporter interface {
	Report(ctx context.Context, err error) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, err error) error

// Report calls f.
func (f ReporterFunc) Report(ctx context.Context, err error) error {
	return f(ctx, err)
}

// ReturnErrors hands errors back unchanged. It is the library default.
type ReturnErrors struct{}

// Report returns err.
func (ReturnErrors) Report(_ context.Context, err error) error {
	return err
}
