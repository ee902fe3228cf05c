package pipeline

import (
	"context"
	"errors"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"wavebars/internal/fileutil"
	"wavebars/internal/interp"
	"wavebars/internal/logging"
	"wavebars/internal/services"
)

// pending is a rendered frame waiting in a temp file for its turn to commit.
type pending struct {
	tmp     string
	elapsed time.Duration
}

func (d *Driver) renderFrames(ctx context.Context, clipID string, it *interp.Interpolator, res *Result) error {
	if res.Frames == 0 {
		return nil
	}
	c := &committer{
		driver:  d,
		clipID:  clipID,
		total:   res.Frames,
		sampler: logging.NewProgressSampler(10),
		logger:  logging.WithContext(ctx, d.logger),
	}
	defer func() { res.Committed = c.committed }()

	if d.workers() == 1 {
		return d.renderSequential(ctx, it, c)
	}
	return d.renderParallel(ctx, it, c)
}

func (d *Driver) renderSequential(ctx context.Context, it *interp.Interpolator, c *committer) error {
	for idx := 0; idx < c.total; idx++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := d.renderTemp(it, c.clipID, idx)
		if err != nil {
			return err
		}
		if err := c.commit(ctx, idx, p); err != nil {
			return err
		}
	}
	return nil
}

// renderParallel renders frames on a bounded worker pool while a single
// committer renames them into place in index order. Each frame has a
// one-slot channel so workers never block on the committer.
func (d *Driver) renderParallel(ctx context.Context, it *interp.Interpolator, c *committer) error {
	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	slots := make([]chan pending, c.total)
	for i := range slots {
		slots[i] = make(chan pending, 1)
	}

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(d.workers())

	commitDone := make(chan error, 1)
	go func() {
		err := c.commitInOrder(runCtx, gctx, slots)
		if err != nil {
			cancel(err)
		}
		commitDone <- err
	}()

	for idx := 0; idx < c.total; idx++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d.metrics.ActiveWorkers.Add(gctx, 1)
			defer d.metrics.ActiveWorkers.Add(gctx, -1)
			p, err := d.renderTemp(it, c.clipID, idx)
			if err != nil {
				return err
			}
			slots[idx] <- p
			return nil
		})
	}
	renderErr := g.Wait()
	commitErr := <-commitDone

	// Temp files of frames that were rendered but never committed.
	for idx := c.committed; idx < c.total; idx++ {
		select {
		case p := <-slots[idx]:
			_ = os.Remove(p.tmp)
		default:
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if renderErr != nil && !errors.Is(renderErr, context.Canceled) {
		return renderErr
	}
	if commitErr != nil {
		return commitErr
	}
	return renderErr
}

// renderTemp interpolates and rasterizes frame idx into a hidden temp file
// beside its final path.
func (d *Driver) renderTemp(it *interp.Interpolator, clipID string, idx int) (pending, error) {
	started := time.Now()
	snaps, err := it.At(idx)
	if err != nil {
		return pending{}, err
	}
	img, err := d.opts.Renderer.Render(snaps)
	if err != nil {
		return pending{}, err
	}
	final := filepath.Join(d.opts.FramesDir, FrameName(clipID, idx))
	tmp, err := fileutil.WriteTemp(final, func(w io.Writer) error {
		return png.Encode(w, img)
	})
	if err != nil {
		return pending{}, services.Wrap(services.ErrIO, stageRender, "write frame", final, err)
	}
	return pending{tmp: tmp, elapsed: time.Since(started)}, nil
}

type committer struct {
	driver    *Driver
	clipID    string
	total     int
	committed int
	sampler   *logging.ProgressSampler
	logger    *slog.Logger
}

// commitInOrder commits slots sequentially. ctx is handed to sinks; renders
// is the worker group context, which is also canceled when Wait returns, so a
// frame already sitting in its slot is still committed.
func (c *committer) commitInOrder(ctx, renders context.Context, slots []chan pending) error {
	for idx := range slots {
		if err := ctx.Err(); err != nil {
			return err
		}
		var p pending
		select {
		case p = <-slots[idx]:
		case <-renders.Done():
			select {
			case p = <-slots[idx]:
			default:
				return context.Cause(renders)
			}
		}
		if err := c.commit(ctx, idx, p); err != nil {
			return err
		}
	}
	return nil
}

func (c *committer) commit(ctx context.Context, idx int, p pending) error {
	d := c.driver
	final := filepath.Join(d.opts.FramesDir, FrameName(c.clipID, idx))
	if err := fileutil.Commit(p.tmp, final); err != nil {
		return services.Wrap(services.ErrIO, stageRender, "commit frame", final, err)
	}
	c.committed = idx + 1
	d.metrics.RecordFrame(ctx, c.clipID, p.elapsed.Seconds())

	frame := Frame{ClipID: c.clipID, Index: idx, Total: c.total, Path: final}
	for _, sink := range d.sinks {
		if err := sink.Publish(ctx, frame); err != nil {
			return err
		}
	}
	if c.sampler.ShouldLogFrames(c.committed, c.total, stageRender) {
		c.logger.Info("frame progress",
			logging.Int("committed", c.committed),
			logging.Int("total", c.total),
		)
	}
	return nil
}
