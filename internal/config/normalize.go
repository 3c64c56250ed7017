package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	paths := []struct {
		name  string
		value *string
	}{
		{"server.static_dir", &c.Server.StaticDir},
		{"detector.script", &c.Detector.Script},
		{"classifier.hand_sign_samples", &c.Classifier.HandSignSamples},
		{"classifier.point_history_samples", &c.Classifier.PointHistorySamples},
		{"classifier.hand_sign_model", &c.Classifier.HandSignModel},
		{"classifier.point_history_model", &c.Classifier.PointHistoryModel},
		{"classifier.script", &c.Classifier.Script},
		{"labels.hand_sign", &c.Labels.HandSign},
		{"labels.point_history", &c.Labels.PointHistory},
		{"store.path", &c.Store.Path},
		{"hooks.dir", &c.Hooks.Dir},
		{"logging.file", &c.Logging.File},
	}
	for _, p := range paths {
		expanded, err := expandPath(*p.value)
		if err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
		*p.value = expanded
	}

	if strings.TrimSpace(c.Store.Path) == "" {
		expanded, err := expandPath(defaultStorePath)
		if err != nil {
			return fmt.Errorf("store.path: %w", err)
		}
		c.Store.Path = expanded
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Server.MaxMessageBytes == 0 {
		c.Server.MaxMessageBytes = defaultMaxMessageBytes
	}
	if c.Hooks.QueueSize == 0 {
		c.Hooks.QueueSize = defaultHookQueueSize
	}
	if c.Hooks.TimeoutMS == 0 {
		c.Hooks.TimeoutMS = defaultHookTimeoutMS
	}

	c.Classifier.Backend = strings.ToLower(strings.TrimSpace(c.Classifier.Backend))
	if c.Classifier.Backend == "" {
		c.Classifier.Backend = defaultBackend
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	return nil
}
