// Package app assembles the waveoff pipeline from configuration: the shared
// detector and classifiers, the journal, transition hooks and the session
// manager that serve and watch both run on.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/ayusman/waveoff/internal/capture"
	"github.com/ayusman/waveoff/internal/classifier"
	"github.com/ayusman/waveoff/internal/config"
	"github.com/ayusman/waveoff/internal/detector"
	"github.com/ayusman/waveoff/internal/gesture"
	"github.com/ayusman/waveoff/internal/labels"
	"github.com/ayusman/waveoff/internal/plugin"
	"github.com/ayusman/waveoff/internal/server"
	"github.com/ayusman/waveoff/internal/session"
	"github.com/ayusman/waveoff/internal/store"
)

// Options override parts of the configured pipeline.
type Options struct {
	Logger *slog.Logger
	// Detector replaces the MediaPipe helper.
	Detector detector.Detector
	// HandSign and PointHistory replace the configured classifier backends.
	HandSign     gesture.Classifier
	PointHistory gesture.Classifier
}

// App owns every long-lived component of a waveoff process.
type App struct {
	config *config.Config
	logger *slog.Logger

	store         *store.Store
	detector      detector.Detector
	handSign      gesture.Classifier
	pointHistory  gesture.Classifier
	handLabels    labels.Table
	gestureLabels labels.Table
	hooks         *plugin.Manager
	dispatcher    *plugin.Dispatcher
	sessions      *session.Manager

	closers []io.Closer
}

// New builds the pipeline described by cfg. On error everything already
// opened is released.
func New(cfg *config.Config, opts Options) (_ *App, err error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{config: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.closeResources()
		}
	}()

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	a.store, err = store.New(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	if a.handLabels, err = labels.LoadOrDefault(cfg.Labels.HandSign, labels.HandSigns()); err != nil {
		return nil, fmt.Errorf("hand sign labels: %w", err)
	}
	if a.gestureLabels, err = labels.LoadOrDefault(cfg.Labels.PointHistory, labels.PointHistory()); err != nil {
		return nil, fmt.Errorf("point history labels: %w", err)
	}

	a.detector = opts.Detector
	if a.detector == nil {
		a.detector = a.buildDetector()
		a.closers = append(a.closers, a.detector)
	}

	a.handSign, a.pointHistory = opts.HandSign, opts.PointHistory
	if a.handSign == nil || a.pointHistory == nil {
		handSign, pointHistory, err := a.buildClassifiers()
		if err != nil {
			return nil, err
		}
		if a.handSign == nil {
			a.handSign = handSign
		}
		if a.pointHistory == nil {
			a.pointHistory = pointHistory
		}
	}

	var listeners []session.ListenerFactory
	if cfg.Hooks.Enabled {
		a.hooks = plugin.NewManager(cfg.Hooks.Dir, logger)
		if err := a.hooks.Discover(); err != nil {
			logger.Warn("hook discovery failed", "dir", cfg.Hooks.Dir, "error", err)
		}
		a.dispatcher = plugin.NewDispatcher(a.hooks, plugin.NewExecutor(cfg.HookTimeout()), cfg.Hooks.QueueSize, logger)
		listeners = append(listeners, a.dispatcher.Listener)
	}

	a.sessions, err = session.NewManager(session.Services{
		Detector:     a.detector,
		HandSign:     a.handSign,
		PointHistory: a.pointHistory,
		Labels:       a.handLabels,
	}, session.Options{
		Frame:     capture.FrameSize{Width: cfg.Frame.Width, Height: cfg.Frame.Height},
		Mirror:    cfg.Frame.Mirror,
		Recorder:  store.NewJournal(a.store),
		Listeners: listeners,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	return a, nil
}

// buildDetector prefers the MediaPipe helper and falls back to a detector
// that never sees a hand.
func (a *App) buildDetector() detector.Detector {
	cfg := a.config.Detector
	mp, err := detector.NewMediaPipeDetector(detector.Config{
		Script:          cfg.Script,
		Python:          cfg.Python,
		MaxHands:        cfg.MaxHands,
		MinConfidence:   cfg.MinDetectionConfidence,
		MinTrackingConf: cfg.MinTrackingConfidence,
		IdleTimeout:     a.config.DetectorIdleTimeout(),
	}, a.logger)
	if err != nil {
		a.logger.Warn("mediapipe not available, using mock detector", "error", err)
		return detector.NewMockDetector()
	}
	a.logger.Info("using mediapipe hand detection")
	return mp
}

func (a *App) buildClassifiers() (gesture.Classifier, gesture.Classifier, error) {
	cfg := a.config.Classifier
	switch cfg.Backend {
	case config.BackendService:
		handSign, err := classifier.NewService(classifier.ServiceConfig{
			Name:        "keypoint_classifier",
			Model:       cfg.HandSignModel,
			Script:      cfg.Script,
			Python:      cfg.Python,
			Dim:         classifier.HandSignFeatures,
			IdleTimeout: a.config.DetectorIdleTimeout(),
		}, a.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("hand sign classifier: %w", err)
		}
		a.closers = append(a.closers, handSign)

		if cfg.PointHistoryModel == "" {
			a.logger.Warn("no point history model configured, every gesture reports Stop")
			return handSign, classifier.Fixed(gesture.GestureStop), nil
		}
		pointHistory, err := classifier.NewService(classifier.ServiceConfig{
			Name:        "point_history_classifier",
			Model:       cfg.PointHistoryModel,
			Script:      cfg.Script,
			Python:      cfg.Python,
			Dim:         classifier.PointHistoryFeatures,
			IdleTimeout: a.config.DetectorIdleTimeout(),
		}, a.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("point history classifier: %w", err)
		}
		a.closers = append(a.closers, pointHistory)
		return handSign, pointHistory, nil

	default:
		handSign, err := a.loadNearest("hand sign", cfg.HandSignSamples, classifier.HandSignFeatures, classifier.Fixed(gesture.HandSignOpen))
		if err != nil {
			return nil, nil, err
		}
		pointHistory, err := a.loadNearest("point history", cfg.PointHistorySamples, classifier.PointHistoryFeatures, classifier.Fixed(gesture.GestureStop))
		if err != nil {
			return nil, nil, err
		}
		return handSign, pointHistory, nil
	}
}

// loadNearest reads a training CSV. A missing file degrades to fallback so a
// fresh install still serves sessions.
func (a *App) loadNearest(name, path string, dim int, fallback classifier.Fixed) (gesture.Classifier, error) {
	if path == "" {
		a.logger.Warn("no training samples configured", "classifier", name, "fallback_id", int(fallback))
		return fallback, nil
	}

	nearest, err := classifier.LoadNearest(path)
	if errors.Is(err, fs.ErrNotExist) {
		a.logger.Warn("training samples not found", "classifier", name, "path", path, "fallback_id", int(fallback))
		return fallback, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s classifier: %w", name, err)
	}
	if nearest.Dim() != dim {
		return nil, fmt.Errorf("%s classifier: %w: samples have %d features, want %d", name, classifier.ErrFeatureLength, nearest.Dim(), dim)
	}
	a.logger.Info("loaded training samples", "classifier", name, "path", path)
	return nearest, nil
}

// Start launches background delivery of transition hooks. Delivery outlives
// ctx and stops in Close, after the final flushes are queued.
func (a *App) Start(ctx context.Context) {
	if a.dispatcher != nil {
		a.dispatcher.Start(ctx)
	}
}

// Server returns the HTTP front end bound to this pipeline.
func (a *App) Server() *server.Server {
	return server.New(server.Config{
		StaticDir:       a.config.Server.StaticDir,
		Store:           a.store,
		Sessions:        a.sessions,
		Hooks:           a.hooks,
		Dispatch:        a.dispatcher,
		Logger:          a.logger,
		MaxMessageBytes: a.config.Server.MaxMessageBytes,
	})
}

// Serve runs the HTTP server until ctx ends.
func (a *App) Serve(ctx context.Context) error {
	a.Start(ctx)
	return a.Server().Run(ctx, a.config.Server.Addr)
}

// Sessions returns the session manager.
func (a *App) Sessions() *session.Manager {
	return a.sessions
}

// Store returns the journal store.
func (a *App) Store() *store.Store {
	return a.store
}

// Hooks returns the hook manager, or nil when hooks are disabled.
func (a *App) Hooks() *plugin.Manager {
	return a.hooks
}

// Dispatcher returns the hook dispatcher, or nil when hooks are disabled.
func (a *App) Dispatcher() *plugin.Dispatcher {
	return a.dispatcher
}

// GestureLabels returns the point-history label table.
func (a *App) GestureLabels() labels.Table {
	return a.gestureLabels
}

// Close flushes every running session, drains queued hook deliveries and
// releases the helpers and the journal.
func (a *App) Close() error {
	if a.sessions != nil {
		a.sessions.CloseAll()
	}
	return a.closeResources()
}

func (a *App) closeResources() error {
	var errs []error
	if a.dispatcher != nil {
		errs = append(errs, a.dispatcher.Close())
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	return errors.Join(errs...)
}
