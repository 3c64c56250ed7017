package plugin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrPluginNotFound is returned when a requested hook cannot be found.
var ErrPluginNotFound = errors.New("plugin not found")

// Manager manages hook discovery and access.
type Manager struct {
	pluginDir string
	plugins   map[string]*Plugin
	logger    *slog.Logger
	mu        sync.RWMutex
}

// NewManager creates a new Manager for the given hooks directory.
func NewManager(pluginDir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		pluginDir: pluginDir,
		plugins:   make(map[string]*Plugin),
		logger:    logger.With("component", "hooks"),
	}
}

// Discover scans the hooks directory for plugin.json files and loads them.
// Each subdirectory is expected to hold one manifest. Unreadable manifests
// are logged and skipped.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.plugins = make(map[string]*Plugin)

	info, err := os.Stat(m.pluginDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(m.pluginDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pluginPath := filepath.Join(m.pluginDir, entry.Name())
		manifestPath := filepath.Join(pluginPath, "plugin.json")

		manifestData, err := os.ReadFile(manifestPath)
		if err != nil {
			if !os.IsNotExist(err) {
				m.logger.Warn("skipping hook", "path", manifestPath, "error", err)
			}
			continue
		}

		var manifest Manifest
		if err := json.Unmarshal(manifestData, &manifest); err != nil {
			m.logger.Warn("skipping hook with invalid manifest", "path", manifestPath, "error", err)
			continue
		}
		if manifest.Name == "" || manifest.Executable == "" {
			m.logger.Warn("skipping hook without name or executable", "path", manifestPath)
			continue
		}

		m.plugins[manifest.Name] = &Plugin{
			Manifest:   manifest,
			Path:       pluginPath,
			Executable: filepath.Join(pluginPath, manifest.Executable),
		}
	}

	m.logger.Info("hooks discovered", "dir", m.pluginDir, "count", len(m.plugins))
	return nil
}

// Get returns a hook by name.
// Returns ErrPluginNotFound if the hook does not exist.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugin, ok := m.plugins[name]
	if !ok {
		return nil, ErrPluginNotFound
	}

	return plugin, nil
}

// List returns all discovered hooks sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugins := make([]*Plugin, 0, len(m.plugins))
	for _, plugin := range m.plugins {
		plugins = append(plugins, plugin)
	}
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Manifest.Name < plugins[j].Manifest.Name
	})

	return plugins
}

// Matching returns the hooks whose filters accept req, sorted by name.
func (m *Manager) Matching(req *Request) []*Plugin {
	var out []*Plugin
	for _, p := range m.List() {
		if p.Accepts(req) {
			out = append(out, p)
		}
	}
	return out
}

// PluginDir returns the hooks directory path.
func (m *Manager) PluginDir() string {
	return m.pluginDir
}
