package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFrame(); err != nil {
		return err
	}
	if err := c.validateDetector(); err != nil {
		return err
	}
	if err := c.validateClassifier(); err != nil {
		return err
	}
	if err := c.validateHooks(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Server.MaxMessageBytes < 0 {
		return errors.New("server.max_message_bytes must be positive")
	}
	if c.Camera.FPS < 0 {
		return errors.New("camera.fps must not be negative")
	}
	return nil
}

func (c *Config) validateFrame() error {
	if c.Frame.Width <= 0 || c.Frame.Height <= 0 {
		return fmt.Errorf("frame size must be positive, got %dx%d", c.Frame.Width, c.Frame.Height)
	}
	return nil
}

func (c *Config) validateDetector() error {
	if c.Detector.MaxHands < 1 {
		return errors.New("detector.max_hands must be at least 1")
	}
	if c.Detector.MinDetectionConfidence < 0 || c.Detector.MinDetectionConfidence > 1 {
		return errors.New("detector.min_detection_confidence must be between 0 and 1")
	}
	if c.Detector.MinTrackingConfidence < 0 || c.Detector.MinTrackingConfidence > 1 {
		return errors.New("detector.min_tracking_confidence must be between 0 and 1")
	}
	if c.Detector.IdleTimeoutSeconds < 0 {
		return errors.New("detector.idle_timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateClassifier() error {
	switch c.Classifier.Backend {
	case BackendNearest:
	case BackendService:
		if c.Classifier.HandSignModel == "" {
			return errors.New("classifier.hand_sign_model is required for the service backend")
		}
	default:
		return fmt.Errorf("classifier.backend: unsupported value %q", c.Classifier.Backend)
	}
	return nil
}

func (c *Config) validateHooks() error {
	if c.Hooks.QueueSize < 0 {
		return errors.New("hooks.queue_size must not be negative")
	}
	if c.Hooks.TimeoutMS < 0 {
		return errors.New("hooks.timeout_ms must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
