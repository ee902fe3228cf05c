package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"wavebars/internal/config"
	"wavebars/internal/history"
	"wavebars/internal/logging"
	"wavebars/internal/media/decode"
	"wavebars/internal/observe"
	"wavebars/internal/pipeline"
	"wavebars/internal/preflight"
	"wavebars/internal/render"
	"wavebars/internal/services"
)

type renderFlags struct {
	rate       float64
	bars       int
	speed      float64
	time       float64
	oversample int
	fgColor    string
	fgColor2   string
	bgColor    string
	size       string
	stereo     bool
	seek       float64
	duration   float64
	workers    int
	out        string
	backend    string
	noProgress bool
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render <clip-id|path>",
		Short: "Render waveform bar frames for a clip",
		Long: "Render decodes a clip, extracts its envelope, and writes one PNG per frame\n" +
			"named <clip>-NNNNNN.png into the frames directory. A numeric argument is\n" +
			"looked up as <voices_dir>/<id>.mp3; anything else is used as a path.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := flags.apply(cmd.Flags(), cfg); err != nil {
				return err
			}
			logger, err := ctx.logger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return runRender(cmd, cfg, logger, args[0], flags.window(cmd.Flags()), !flags.noProgress)
		},
	}

	fs := cmd.Flags()
	fs.Float64Var(&flags.rate, "rate", 20, "Output framerate in frames per second")
	fs.IntVar(&flags.bars, "bars", 50, "Number of bars on screen")
	fs.Float64Var(&flags.speed, "speed", 4, "Transition speed of the bar blend")
	fs.Float64Var(&flags.time, "time", 0.4, "Seconds of audio spanned by the visible bars")
	fs.IntVar(&flags.oversample, "oversample", 3, "Envelope windows per bar")
	fs.StringVar(&flags.fgColor, "fg-color", "0.2,0.2,0.2", "Bar color as r,g,b in [0,1]")
	fs.StringVar(&flags.fgColor2, "fg-color2", "0.5,0.3,0.6", "Second channel bar color as r,g,b in [0,1]")
	fs.StringVar(&flags.bgColor, "bg-color", "1,1,1", "Background color as r,g,b in [0,1]")
	fs.StringVar(&flags.size, "size", "400x400", "Frame size as WIDTHxHEIGHT")
	fs.BoolVar(&flags.stereo, "stereo", false, "Render left and right channels as separate bands")
	fs.Float64Var(&flags.seek, "seek", 0, "Start decoding at this offset in seconds")
	fs.Float64Var(&flags.duration, "duration", 0, "Decode at most this many seconds")
	fs.IntVar(&flags.workers, "workers", 1, "Frames rendered in parallel")
	fs.StringVar(&flags.out, "out", "", "Frames directory (overrides paths.frames_dir)")
	fs.StringVar(&flags.backend, "backend", "", "Decoder backend (ffmpeg, native)")
	fs.BoolVar(&flags.noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

// apply copies explicitly set flags over cfg.
func (f renderFlags) apply(fs *pflag.FlagSet, cfg *config.Config) error {
	r := &cfg.Render
	if fs.Changed("rate") {
		r.Rate = f.rate
	}
	if fs.Changed("bars") {
		r.Bars = f.bars
	}
	if fs.Changed("speed") {
		r.Speed = f.speed
	}
	if fs.Changed("time") {
		r.Time = f.time
	}
	if fs.Changed("oversample") {
		r.Oversample = f.oversample
	}
	if fs.Changed("fg-color") {
		r.FGColor = f.fgColor
	}
	if fs.Changed("fg-color2") {
		r.FGColor2 = f.fgColor2
	}
	if fs.Changed("bg-color") {
		r.BGColor = f.bgColor
	}
	if fs.Changed("size") {
		w, h, err := render.ParseSize(f.size)
		if err != nil {
			return err
		}
		r.Width, r.Height = w, h
	}
	if fs.Changed("stereo") {
		r.Stereo = f.stereo
	}
	if fs.Changed("workers") {
		r.Workers = f.workers
	}
	if fs.Changed("out") {
		expanded, err := config.ExpandPath(f.out)
		if err != nil {
			return fmt.Errorf("resolve --out: %w", err)
		}
		cfg.Paths.FramesDir = expanded
	}
	if fs.Changed("backend") {
		cfg.Decoder.Backend = strings.ToLower(strings.TrimSpace(f.backend))
	}
	if err := cfg.Validate(); err != nil {
		return services.Wrap(services.ErrConfiguration, "render", "flags", "", err)
	}
	return nil
}

func (f renderFlags) window(fs *pflag.FlagSet) decode.Window {
	var w decode.Window
	if fs.Changed("seek") {
		w.Seek = decode.Seconds(f.seek)
	}
	if fs.Changed("duration") {
		w.Duration = decode.Seconds(f.duration)
	}
	return w
}

func runRender(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, arg string, window decode.Window, progress bool) error {
	ctx := cmd.Context()
	if err := preflight.Err(preflight.RunAll(ctx, cfg)); err != nil {
		return err
	}
	clipID, path, err := pipeline.ResolveClip(cfg.Paths.VoicesDir, arg)
	if err != nil {
		return err
	}
	decoder, err := decode.FromConfig(cfg)
	if err != nil {
		return err
	}
	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}

	collector, err := observe.NewCollector()
	if err != nil {
		return err
	}
	defer func() { _ = collector.Shutdown(context.WithoutCancel(ctx)) }()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)

	var ledger *history.Store
	if cfg.History.Enabled {
		ledger, err = history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer ledger.Close()
		if err := ledger.Begin(ctx, history.Run{
			ID:         runID,
			ClipID:     clipID,
			SourcePath: path,
			Params:     runParams(cfg, window),
		}); err != nil {
			logger.Warn("failed to record run start", logging.String(logging.FieldRunID, runID), logging.Error(err))
			ledger = nil
		}
	}

	var sinks []pipeline.Sink
	var bar *progressSink
	if progress && shouldColorize(cmd.ErrOrStderr()) {
		bar = &progressSink{w: cmd.ErrOrStderr()}
		sinks = append(sinks, bar)
	}

	driver, err := pipeline.New(opts, decoder,
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(collector.Metrics()),
		pipeline.WithSinks(sinks...),
		pipeline.WithReporter(errorReporter{w: cmd.ErrOrStderr()}),
	)
	if err != nil {
		return err
	}

	res, runErr := driver.Run(ctx, pipeline.Request{ClipID: clipID, Path: path, Window: window})
	if bar != nil {
		bar.finish()
	}
	if ledger != nil {
		frames := history.Frames{Total: res.Frames, Written: res.Committed}
		if err := ledger.Finish(context.WithoutCancel(ctx), runID, history.StatusFor(runErr), frames, runErr); err != nil {
			logger.Warn("failed to record run result", logging.String(logging.FieldRunID, runID), logging.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Rendered %d frames for clip %s in %s\n", res.Committed, res.ClipID, res.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "Frames: %s\n", res.Pattern)
	fmt.Fprintf(out, "Run ID: %s\n", res.RunID)
	summary, err := collector.Summary(ctx)
	if err != nil {
		logger.Warn("failed to read run metrics", logging.Error(err))
		return nil
	}
	printStageSummary(out, summary)
	return nil
}

func runParams(cfg *config.Config, window decode.Window) history.Params {
	r := cfg.Render
	return history.Params{
		Rate:       r.Rate,
		Bars:       r.Bars,
		Speed:      r.Speed,
		Time:       r.Time,
		Oversample: r.Oversample,
		Stereo:     r.Stereo,
		Width:      r.Width,
		Height:     r.Height,
		Workers:    r.Workers,
		Backend:    cfg.Decoder.Backend,
		Seek:       window.Seek,
		Duration:   window.Duration,
	}
}

func printStageSummary(w io.Writer, summary observe.Summary) {
	if len(summary.Stages) == 0 {
		return
	}
	rows := make([][]string, 0, len(summary.Stages)+1)
	for _, stage := range summary.Stages {
		rows = append(rows, []string{stage.Stage, strconv.FormatUint(stage.Count, 10), fmt.Sprintf("%.3f", stage.Seconds)})
	}
	if summary.Frames > 0 {
		avg := summary.FrameSeconds / float64(summary.Frames)
		rows = append(rows, []string{"per frame", strconv.FormatInt(summary.Frames, 10), fmt.Sprintf("%.3f", avg)})
	}
	fmt.Fprintln(w, renderTable([]string{"Stage", "Count", "Seconds"}, rows, []columnAlignment{alignLeft, alignRight, alignRight}))
}

// progressSink drives a terminal progress bar from committed frames.
type progressSink struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func (p *progressSink) Publish(_ context.Context, frame pipeline.Frame) error {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(frame.Total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription(fmt.Sprintf("clip %s", frame.ClipID)),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	return p.bar.Add(1)
}

func (p *progressSink) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
