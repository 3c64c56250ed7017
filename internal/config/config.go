// Package config loads the waveoff TOML configuration.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Server configures the HTTP and websocket listener.
type Server struct {
	Addr            string `toml:"addr"`
	StaticDir       string `toml:"static_dir"`
	MaxMessageBytes int64  `toml:"max_message_bytes"`
}

// Frame describes the geometry of frames sent by clients.
type Frame struct {
	Width  int  `toml:"width"`
	Height int  `toml:"height"`
	Mirror bool `toml:"mirror"`
}

// Detector configures the MediaPipe helper.
type Detector struct {
	Script                 string  `toml:"script"`
	Python                 string  `toml:"python"`
	MaxHands               int     `toml:"max_hands"`
	MinDetectionConfidence float64 `toml:"min_detection_confidence"`
	MinTrackingConfidence  float64 `toml:"min_tracking_confidence"`
	IdleTimeoutSeconds     int     `toml:"idle_timeout_seconds"`
}

// Classifier selects the hand-sign and point-history backends.
//
// Backend "nearest" reads labelled training rows from the *_samples files.
// Backend "service" hosts the *_model files in a helper process.
type Classifier struct {
	Backend             string `toml:"backend"`
	HandSignSamples     string `toml:"hand_sign_samples"`
	PointHistorySamples string `toml:"point_history_samples"`
	HandSignModel       string `toml:"hand_sign_model"`
	PointHistoryModel   string `toml:"point_history_model"`
	Script              string `toml:"script"`
	Python              string `toml:"python"`
}

// Labels points at optional label CSVs; empty uses the built-in tables.
type Labels struct {
	HandSign     string `toml:"hand_sign"`
	PointHistory string `toml:"point_history"`
}

// Store configures the transition journal.
type Store struct {
	Path string `toml:"path"`
}

// Hooks configures transition hook delivery.
type Hooks struct {
	Enabled   bool   `toml:"enabled"`
	Dir       string `toml:"dir"`
	QueueSize int    `toml:"queue_size"`
	TimeoutMS int    `toml:"timeout_ms"`
}

// Camera configures `waveoff watch`.
type Camera struct {
	Device int `toml:"device"`
	FPS    int `toml:"fps"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for waveoff.
type Config struct {
	Server     Server     `toml:"server"`
	Frame      Frame      `toml:"frame"`
	Detector   Detector   `toml:"detector"`
	Classifier Classifier `toml:"classifier"`
	Labels     Labels     `toml:"labels"`
	Store      Store      `toml:"store"`
	Hooks      Hooks      `toml:"hooks"`
	Camera     Camera     `toml:"camera"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path of the default config file.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. A missing file
// yields the defaults. The resolved path and whether it existed are returned
// alongside the config.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = defaultConfigPath
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", expanded)
	}
	return expanded, true, nil
}

// Encode renders cfg as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// DetectorIdleTimeout returns the helper idle timeout as a duration.
func (c *Config) DetectorIdleTimeout() time.Duration {
	return time.Duration(c.Detector.IdleTimeoutSeconds) * time.Second
}

// HookTimeout returns the per-hook execution timeout.
func (c *Config) HookTimeout() time.Duration {
	return time.Duration(c.Hooks.TimeoutMS) * time.Millisecond
}

// EnsureDirectories creates the directories the daemon writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Store.Path)}
	if c.Logging.File != "" {
		dirs = append(dirs, filepath.Dir(c.Logging.File))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// CreateSample writes the sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
