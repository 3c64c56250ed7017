package app

import (
	"context"
	"errors"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/waveoff/internal/capture"
	"github.com/ayusman/waveoff/internal/gesture"
)

// WatchOptions configures a local camera run.
type WatchOptions struct {
	Camera capture.Camera
	// MaxFrames stops the run after this many frames; zero runs until ctx
	// ends or the camera runs dry.
	MaxFrames int
	// OnEvent receives every transition event, including the final flush.
	OnEvent gesture.Listener
	// OnOutcome receives each successfully classified frame.
	OnOutcome func(gesture.Outcome)
}

// WatchSummary describes a finished local camera run.
type WatchSummary struct {
	SessionID string
	Frames    int
	Failures  int
	Final     gesture.Event
	Flushed   bool
}

// Watch reads frames from a local camera into one session at the camera's
// frame rate. The session is closed, and its state flushed, when the run
// ends.
func (a *App) Watch(ctx context.Context, opts WatchOptions) (WatchSummary, error) {
	if opts.Camera == nil {
		opts.Camera = capture.NewCamera(capture.CameraConfig{
			DeviceID: a.config.Camera.Device,
			Width:    a.config.Frame.Width,
			Height:   a.config.Frame.Height,
			FPS:      a.config.Camera.FPS,
		})
	}
	camera := opts.Camera

	if err := camera.Open(); err != nil {
		return WatchSummary{}, err
	}
	defer func() {
		if err := camera.Close(); err != nil {
			a.logger.Warn("error closing camera", "error", err)
		}
	}()

	sess := a.sessions.Open("camera")
	if opts.OnEvent != nil {
		sess.Subscribe(opts.OnEvent)
	}
	summary := WatchSummary{SessionID: sess.ID()}

	frameInterval := time.Second / time.Duration(max(camera.FPS(), 1))
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

loop:
	for opts.MaxFrames == 0 || summary.Frames < opts.MaxFrames {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
		}

		frame, err := camera.ReadFrame()
		if errors.Is(err, capture.ErrNoMoreFrames) {
			break
		}
		if err != nil {
			a.logger.Warn("error reading frame", "error", err)
			continue
		}

		outcome, err := a.processCameraFrame(ctx, sess.ProcessFrame, frame)
		summary.Frames++
		if err != nil {
			summary.Failures++
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if opts.OnOutcome != nil {
			opts.OnOutcome(outcome)
		}
	}

	summary.Final, summary.Flushed = sess.Close()
	return summary, nil
}

func (a *App) processCameraFrame(ctx context.Context, process func(context.Context, *gocv.Mat) (gesture.Outcome, error), frame *gocv.Mat) (gesture.Outcome, error) {
	defer frame.Close()
	if !a.config.Frame.Mirror {
		return process(ctx, frame)
	}
	mirrored := capture.Mirror(frame)
	defer mirrored.Close()
	return process(ctx, mirrored)
}
