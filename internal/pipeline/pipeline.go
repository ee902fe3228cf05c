package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"wavebars/internal/envelope"
	"wavebars/internal/interp"
	"wavebars/internal/logging"
	"wavebars/internal/media/decode"
	"wavebars/internal/observe"
	"wavebars/internal/services"
)

const (
	stageLock     = "lock"
	stageDecode   = "decode"
	stageEnvelope = "envelope"
	stageRender   = "render"
)

// Run statuses reported to metrics and the history ledger.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCanceled  = "canceled"
)

// Request identifies the clip to render.
type Request struct {
	ClipID string
	Path   string
	Window decode.Window
}

// Result summarizes a run. On failure it holds whatever was known when the
// run stopped.
type Result struct {
	RunID      string
	ClipID     string
	Frames     int
	Committed  int
	SampleRate float64
	Channels   int
	Duration   float64
	Window     int
	Stride     int
	Pattern    string
	Elapsed    time.Duration
}

// Driver runs the decode, envelope, interpolate, render sequence.
type Driver struct {
	opts     Options
	decoder  decode.Decoder
	logger   *slog.Logger
	metrics  *observe.Metrics
	sinks    []Sink
	reporter Reporter
}

// Option customizes a Driver.
type Option func(*Driver)

// WithLogger sets the logger; the default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics sets the metric instruments; the default is observe.DefaultMetrics.
func WithMetrics(m *observe.Metrics) Option {
	return func(d *Driver) {
		if m != nil {
			d.metrics = m
		}
	}
}

// WithSinks appends frame sinks.
func WithSinks(sinks ...Sink) Option {
	return func(d *Driver) {
		for _, s := range sinks {
			if s != nil {
				d.sinks = append(d.sinks, s)
			}
		}
	}
}

// WithReporter sets the error reporting strategy; the default is ReturnErrors.
func WithReporter(r Reporter) Option {
	return func(d *Driver) {
		if r != nil {
			d.reporter = r
		}
	}
}

// New validates opts and builds a Driver.
func New(opts Options, decoder decode.Decoder, options ...Option) (*Driver, error) {
	if decoder == nil {
		return nil, errors.New("pipeline: decoder is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	d := &Driver{
		opts:     opts,
		decoder:  decoder,
		logger:   logging.NewNop(),
		reporter: ReturnErrors{},
	}
	for _, opt := range options {
		opt(d)
	}
	if d.metrics == nil {
		d.metrics = observe.DefaultMetrics()
	}
	d.logger = logging.NewComponentLogger(d.logger, "pipeline")
	return d, nil
}

// Run renders every frame of req. Errors are passed through the Reporter.
func (d *Driver) Run(ctx context.Context, req Request) (Result, error) {
	runID, ok := services.RunIDFromContext(ctx)
	if !ok {
		runID = uuid.NewString()
		ctx = services.WithRunID(ctx, runID)
	}
	ctx = services.WithClipID(ctx, req.ClipID)
	res := Result{RunID: runID, ClipID: req.ClipID}
	start := time.Now()

	err := d.run(ctx, req, &res)
	res.Elapsed = time.Since(start)

	logger := logging.WithContext(ctx, d.logger)
	if err != nil {
		status := StatusFailed
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = StatusCanceled
		}
		d.metrics.RecordRun(ctx, status, services.Kind(err))
		logger.Error("run failed",
			logging.String("status", status),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.Int("committed", res.Committed),
			logging.Error(err),
		)
		return res, d.reporter.Report(ctx, err)
	}
	d.metrics.RecordRun(ctx, StatusCompleted, "")
	logger.Info("run completed",
		logging.Int("frames", res.Frames),
		logging.Duration("elapsed", res.Elapsed),
		logging.String("pattern", res.Pattern),
	)
	return res, nil
}

func (d *Driver) run(ctx context.Context, req Request, res *Result) error {
	if req.ClipID == "" {
		return services.Wrap(services.ErrInputFormat, "pipeline", "request", "clip id is empty", nil)
	}
	if err := os.MkdirAll(d.opts.FramesDir, 0o755); err != nil {
		return services.Wrap(services.ErrIO, stageLock, "create frames dir", d.opts.FramesDir, err)
	}
	unlock, err := d.lockClip(req.ClipID)
	if err != nil {
		return err
	}
	defer unlock()

	wave, err := d.decode(ctx, req)
	if err != nil {
		return err
	}
	res.SampleRate = wave.SampleRate
	res.Channels = wave.NumChannels()
	res.Duration = wave.Duration()

	channels := wave.Channels
	if d.opts.Stereo {
		if wave.NumChannels() != 2 {
			return services.Wrap(services.ErrChannelMismatch, stageDecode, "stereo",
				fmt.Sprintf("%s has %d channel(s), stereo output needs 2", req.Path, wave.NumChannels()), nil)
		}
	} else {
		channels = [][]float32{envelope.Mixdown(wave.Channels)}
	}

	it, err := d.buildInterpolator(ctx, channels, wave.SampleRate, res)
	if err != nil {
		return err
	}

	res.Frames = interp.FrameCount(d.opts.Rate, res.Duration)
	res.Pattern = filepath.Join(d.opts.FramesDir, req.ClipID+"-%06d.png")
	if err := d.pruneStaleFrames(ctx, req.ClipID, res.Frames); err != nil {
		return err
	}
	logging.WithContext(ctx, d.logger).Info("rendering frames",
		logging.Int("frames", res.Frames),
		logging.Int("channels", len(channels)),
		logging.Bool("stereo", d.opts.Stereo),
		logging.Float64("sample_rate", wave.SampleRate),
		logging.Int("window", res.Window),
		logging.Int("stride", res.Stride),
		logging.Int("workers", d.workers()),
	)

	started := time.Now()
	err = d.renderFrames(services.WithStage(ctx, stageRender), req.ClipID, it, res)
	d.metrics.RecordStage(ctx, stageRender, time.Since(started).Seconds())
	return err
}

// lockAttempts bounds retries when a finishing run unlinks the lock file
// between our open and flock.
const lockAttempts = 3

func (d *Driver) lockClip(clipID string) (func(), error) {
	path := filepath.Join(d.opts.FramesDir, clipID+".lock")
	for attempt := 0; attempt < lockAttempts; attempt++ {
		lock := flock.New(path)
		ok, err := lock.TryLock()
		if err != nil {
			return nil, services.Wrap(services.ErrIO, stageLock, "acquire", path, err)
		}
		if !ok {
			return nil, services.Wrap(services.ErrIO, stageLock, "acquire",
				fmt.Sprintf("clip %s is being rendered by another run", clipID), nil)
		}
		current, err := lockHeldAtPath(lock)
		if err != nil {
			_ = lock.Unlock()
			return nil, services.Wrap(services.ErrIO, stageLock, "verify", path, err)
		}
		if !current {
			_ = lock.Unlock()
			d.logger.Debug("clip lock replaced while acquiring; retrying", logging.String("lock", path))
			continue
		}
		return func() {
			// Unlink before unlocking so no run can lock the orphaned inode.
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				d.logger.Warn("failed to remove clip lock", logging.String("lock", path), logging.Error(err))
			}
			if err := lock.Unlock(); err != nil {
				d.logger.Warn("failed to release clip lock", logging.String("lock", path), logging.Error(err))
			}
		}, nil
	}
	return nil, services.Wrap(services.ErrIO, stageLock, "acquire",
		fmt.Sprintf("lock file of clip %s kept changing", clipID), nil)
}

// lockHeldAtPath reports whether the file lock holds is still the one at its path.
func lockHeldAtPath(lock *flock.Flock) (bool, error) {
	held, err := lock.Stat()
	if err != nil {
		return false, err
	}
	onDisk, err := os.Stat(lock.Path())
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return os.SameFile(held, onDisk), nil
}

// pruneStaleFrames removes frames of clipID at or past frames, left by an
// earlier run of a longer window. The clip lock must be held.
func (d *Driver) pruneStaleFrames(ctx context.Context, clipID string, frames int) error {
	entries, err := os.ReadDir(d.opts.FramesDir)
	if err != nil {
		return services.Wrap(services.ErrIO, stageRender, "list frames", d.opts.FramesDir, err)
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		idx, ok := ParseFrameName(clipID, entry.Name())
		if !ok || idx < frames {
			continue
		}
		path := filepath.Join(d.opts.FramesDir, entry.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrIO, stageRender, "remove stale frame", path, err)
		}
		removed++
	}
	if removed > 0 {
		logging.WithContext(ctx, d.logger).Info("removed stale frames",
			logging.Int("removed", removed),
			logging.Int("frames", frames),
		)
	}
	return nil
}

func (d *Driver) decode(ctx context.Context, req Request) (decode.Waveform, error) {
	ctx = services.WithStage(ctx, stageDecode)
	started := time.Now()
	wave, err := d.decoder.Decode(ctx, req.Path, req.Window)
	d.metrics.RecordStage(ctx, stageDecode, time.Since(started).Seconds())
	if err != nil {
		return decode.Waveform{}, err
	}
	logging.WithContext(ctx, d.logger).Debug("decoded audio",
		logging.String("path", req.Path),
		logging.Int("channels", wave.NumChannels()),
		logging.Int("samples", wave.Len()),
		logging.Float64("sample_rate", wave.SampleRate),
	)
	return wave, nil
}

func (d *Driver) buildInterpolator(ctx context.Context, channels [][]float32, sampleRate float64, res *Result) (*interp.Interpolator, error) {
	started := time.Now()
	defer func() {
		d.metrics.RecordStage(ctx, stageEnvelope, time.Since(started).Seconds())
	}()

	window, stride, err := envelope.Params(sampleRate, d.opts.Time, d.opts.Bars, d.opts.Oversample)
	if err != nil {
		return nil, err
	}
	res.Window, res.Stride = window, stride

	envs, err := envelope.Build(channels, window, stride, d.opts.Bars)
	if err != nil {
		return nil, err
	}
	return interp.New(interp.Config{
		Envelopes:  envs,
		SampleRate: sampleRate,
		Stride:     stride,
		Bars:       d.opts.Bars,
		Rate:       d.opts.Rate,
		Speed:      d.opts.Speed,
	})
}

func (d *Driver) workers() int {
	if d.opts.Workers < 1 {
		return 1
	}
	return d.opts.Workers
}
