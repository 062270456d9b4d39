package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

func newGesturesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gestures",
		Short: "List, delete and capture gesture templates",
	}
	cmd.AddCommand(
		newGesturesListCmd(e),
		newGesturesDeleteCmd(e),
		newGesturesCaptureCmd(e),
	)
	return cmd
}

func newGesturesListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved gestures in library order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			library, _, err := e.openLibrary()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			templates := library.Snapshot().Templates()
			printSection(w, fmt.Sprintf("Gestures (%d)", len(templates)))
			if len(templates) == 0 {
				printEmpty(w, "no gestures saved yet (run: mudra gestures capture NAME)")
				return nil
			}
			for _, t := range templates {
				fmt.Fprintf(w, "  %-24s %d points\n", t.Name, len(t.Landmarks))
			}
			return nil
		},
	}
}

func newGesturesDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a saved gesture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			library, _, err := e.openLibrary()
			if err != nil {
				return err
			}

			if err := library.Delete(args[0]); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("gesture %q not found", args[0])
				}
				return err
			}
			printOK(cmd.OutOrStdout(), fmt.Sprintf("deleted %q", args[0]))
			return nil
		},
	}
}

func newGesturesCaptureCmd(e *env) *cobra.Command {
	var (
		delay   time.Duration
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "capture NAME",
		Short: "Record the hand pose in front of the camera as a gesture",
		Long: `Open the camera, wait for the countdown, then save the first hand pose
seen under NAME. A gesture with the same name is replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			library, phrases, err := e.openLibrary()
			if err != nil {
				return err
			}

			pipeline, err := e.newPipeline(library, phrases, nil, true)
			if err != nil {
				return err
			}
			defer pipeline.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := pipeline.Start(); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Hold the pose for %q in front of the camera...\n", args[0])
			if err := sleepCtx(ctx, delay); err != nil {
				return err
			}

			deadline := time.Now().Add(timeout)
			for !pipeline.HandVisible() {
				if time.Now().After(deadline) {
					return gesture.ErrNoHand
				}
				if err := sleepCtx(ctx, 100*time.Millisecond); err != nil {
					return err
				}
			}

			tmpl, err := pipeline.CaptureTemplate(args[0])
			if err != nil {
				return err
			}
			printOK(w, fmt.Sprintf("saved %q (%d points)", tmpl.Name, len(tmpl.Landmarks)))
			return nil
		},
	}

	cmd.Flags().DurationVar(&delay, "delay", 3*time.Second, "countdown before capturing")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "how long to wait for a hand after the countdown")
	return cmd
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
