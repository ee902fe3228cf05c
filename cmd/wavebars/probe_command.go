package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"wavebars/internal/media/ffprobe"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "probe <path>",
		Short: "Show the streams ffprobe reports for a media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			result, err := ffprobe.Inspect(cmd.Context(), cfg.FFprobeBinary(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				_, err := out.Write(result.RawJSON())
				return err
			}

			rows := make([][]string, 0, len(result.Streams))
			for _, s := range result.Streams {
				rows = append(rows, []string{
					strconv.Itoa(s.Index),
					s.CodecType,
					s.CodecName,
					s.SampleRate,
					strconv.Itoa(s.Channels),
					s.ChannelLayout,
					s.Duration,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Index", "Type", "Codec", "Sample rate", "Channels", "Layout", "Duration"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight},
			))
			fmt.Fprintf(out, "Format: %s, duration %.2fs, %d audio stream(s)\n",
				result.Format.FormatName, result.DurationSeconds(), result.AudioStreamCount())
			_, singleErr := result.SingleAudio()
			fmt.Fprintf(out, "Renderable: %s", yesNo(singleErr == nil))
			if singleErr != nil {
				fmt.Fprintf(out, " (%v)", singleErr)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the raw ffprobe JSON")
	return cmd
}
