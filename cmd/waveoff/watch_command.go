package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/waveoff/internal/app"
	"github.com/ayusman/waveoff/internal/gesture"
	"github.com/ayusman/waveoff/internal/labels"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var device int
	var frames int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Track gestures from a local camera and print every transition",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("device") {
				cfg.Camera.Device = device
			}

			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			application, err := app.New(cfg, app.Options{Logger: logger})
			if err != nil {
				return err
			}
			defer application.Close()
			application.Start(signalCtx)

			out := cmd.OutOrStdout()
			opts := app.WatchOptions{
				MaxFrames: frames,
				OnEvent: func(ev gesture.Event) {
					fmt.Fprintln(out, formatEvent(ev, time.Now()))
				},
			}
			if verbose {
				gestures := application.GestureLabels()
				opts.OnOutcome = func(o gesture.Outcome) {
					printOutcome(out, o, gestures)
				}
			}

			summary, err := application.Watch(signalCtx, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "session %s: %d frames, %d failures\n", summary.SessionID, summary.Frames, summary.Failures)
			return nil
		},
	}

	cmd.Flags().IntVar(&device, "device", 0, "Camera device id (overrides [camera] device)")
	cmd.Flags().IntVarP(&frames, "frames", "n", 0, "Stop after this many frames (0 runs until interrupted)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every classified frame")
	return cmd
}

// formatEvent renders one transition as a single line.
func formatEvent(ev gesture.Event, at time.Time) string {
	stamp := at.Format("15:04:05.000")
	previous := formatResult(&ev.PreviousResult)
	if ev.Terminal() {
		return fmt.Sprintf("%s  end        %s held %d frames", stamp, previous, ev.UnchangedCount)
	}
	return fmt.Sprintf("%s  change     %s -> %s after %d frames", stamp, previous, formatResult(ev.Result), ev.UnchangedCount)
}

func formatResult(r *gesture.Result) string {
	if r == nil {
		return "-"
	}
	return r.HandSign + "/" + r.GestureType
}

func printOutcome(out io.Writer, o gesture.Outcome, gestures labels.Table) {
	fmt.Fprintf(out, "  frame  %-24s window=%2d dominant=%s\n",
		formatResult(&o.Result), o.WindowLen, gestures.Name(o.DominantGesture))
}
