package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"wavebars/internal/framefeed"
	"wavebars/internal/pipeline"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "watch <dir> <clip>",
		Short: "Print frame paths of a clip as they are committed",
		Long: "Watch follows a frames directory and prints each committed frame of the\n" +
			"clip in index order. It exits when the rendering run releases the clip\n" +
			"lock, right after the existing frames when no run holds the lock, or\n" +
			"when interrupted. Use --wait to give a run that has not started yet\n" +
			"time to take the lock.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			err = framefeed.Watch(cmd.Context(), args[0], args[1], func(f pipeline.Frame) error {
				_, err := fmt.Fprintln(out, f.Path)
				return err
			}, framefeed.WithLogger(logger), framefeed.WithLockWait(wait))
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 0, "How long to wait for a run to lock the clip")
	return cmd
}
