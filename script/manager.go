package script

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Manager owns every script of one engine and creates them lazily on first
// reference to a name.
type Manager struct {
	logger *slog.Logger

	mu      sync.Mutex
	scripts map[string]*Script
}

// NewManager creates an empty script manager.
func NewManager() *Manager {
	return &Manager{
		logger:  slog.Default().With("component", "script-manager"),
		scripts: make(map[string]*Script),
	}
}

// Get returns the script with the given name, creating it on first use.
func (m *Manager) Get(name string) *Script {
	m.mu.Lock()
	defer m.mu.Unlock()
	result, ok := m.scripts[name]
	if !ok {
		m.logger.Debug("create script", "script", name)
		result = newScript(name)
		m.scripts[name] = result
	}
	return result
}

// Names returns the sorted names of all known scripts.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, 0, len(m.scripts))
	for name := range m.scripts {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// StopAll stops every script: no new actions are accepted and all in-flight
// tasks are cancelled.
func (m *Manager) StopAll() {
	m.mu.Lock()
	scripts := make([]*Script, 0, len(m.scripts))
	for _, s := range m.scripts {
		scripts = append(scripts, s)
	}
	m.mu.Unlock()

	m.logger.Info("stop all scripts", "count", len(scripts))
	for _, s := range scripts {
		s.Stop()
	}
}

// Wait blocks until every script drains its in-flight tasks or the timeout
// expires. It reports whether everything drained in time.
func (m *Manager) Wait(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	m.mu.Lock()
	scripts := make([]*Script, 0, len(m.scripts))
	for _, s := range m.scripts {
		scripts = append(scripts, s)
	}
	m.mu.Unlock()

	for _, s := range scripts {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			remaining = 0
		}
		if !s.Wait(remaining) {
			return false
		}
	}
	return true
}
