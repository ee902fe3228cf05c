package history

import (
	"context"
	"errors"
	"time"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// StatusFor maps a run error to its terminal status.
func StatusFor(err error) Status {
	switch {
	case err == nil:
		return StatusCompleted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCanceled
	default:
		return StatusFailed
	}
}

// Params are the render settings captured for a run.
type Params struct {
	Rate       float64  `json:"rate"`
	Bars       int      `json:"bars"`
	Speed      float64  `json:"speed"`
	Time       float64  `json:"time"`
	Oversample int      `json:"oversample"`
	Stereo     bool     `json:"stereo"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Workers    int      `json:"workers"`
	Backend    string   `json:"backend,omitempty"`
	Seek       *float64 `json:"seek,omitempty"`
	Duration   *float64 `json:"duration,omitempty"`
}

// Frames counts the frames a run planned and committed.
type Frames struct {
	Total   int
	Written int
}

// Run is one recorded pipeline invocation.
type Run struct {
	ID           string
	ClipID       string
	SourcePath   string
	Params       Params
	Status       Status
	Frames       Frames
	ErrorKind    string
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Elapsed returns the run duration, or zero while it is still running.
func (r Run) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
