package connections

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

// Manager owns all registered connections and dispatches validated action
// calls to them. Registration happens once at agent construction; the map is
// read-only afterwards, but a mutex guards it anyway for the ad-hoc CLI path.
type Manager struct {
	mu    sync.RWMutex
	conns map[string]Connection
	// order preserves registration order so "first model provider" is
	// deterministic, matching the configured connection list.
	order []string
}

func NewManager() *Manager {
	return &Manager{conns: make(map[string]Connection)}
}

// Register adds a connection under its name. Later registrations with the
// same name replace earlier ones.
func (m *Manager) Register(c Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.conns[c.Name()]; !exists {
		m.order = append(m.order, c.Name())
	}
	m.conns[c.Name()] = c
}

// Get returns a connection by name.
func (m *Manager) Get(name string) (Connection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conns[name]
	return c, ok
}

// Names returns registered connection names, sorted.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.conns))
	for name := range m.conns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ModelProvider returns the first registered, connected model provider in
// registration order.
func (m *Manager) ModelProvider() (ModelProvider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, name := range m.order {
		if mp, ok := m.conns[name].(ModelProvider); ok && mp.State().Connected() {
			return mp, true
		}
	}
	return nil, false
}

// SocialProvider returns the first registered, connected social provider.
func (m *Manager) SocialProvider() (SocialProvider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, name := range m.order {
		if sp, ok := m.conns[name].(SocialProvider); ok && sp.State().Connected() {
			return sp, true
		}
	}
	return nil, false
}

// ImageProvider returns the first registered, connected image provider.
func (m *Manager) ImageProvider() (ImageProvider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, name := range m.order {
		if ip, ok := m.conns[name].(ImageProvider); ok && ip.State().Connected() {
			return ip, true
		}
	}
	return nil, false
}

// InitializeAll initializes every connection concurrently and waits for all
// of them. A connection that fails to initialize is logged and left
// disconnected; the agent can still run with the ones that came up.
func (m *Manager) InitializeAll(ctx context.Context) {
	m.mu.RLock()
	conns := make([]Connection, 0, len(m.conns))
	for _, c := range m.conns {
		conns = append(conns, c)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, c := range conns {
		wg.Add(1)
		go func(c Connection) {
			defer wg.Done()
			if err := c.Initialize(ctx); err != nil {
				slog.Error("connection failed to initialize", "connection", c.Name(), "error", err)
				return
			}
			slog.Info("connection initialized", "connection", c.Name())
		}(c)
	}
	wg.Wait()
}

// ShutdownAll shuts every connection down, logging failures.
func (m *Manager) ShutdownAll(ctx context.Context) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for name, c := range m.conns {
		if err := c.Shutdown(ctx); err != nil {
			slog.Error("connection shutdown failed", "connection", name, "error", err)
		}
	}
}

// PerformAction validates and dispatches one action call:
// the connection must exist, be connected, have the action registered, and
// every required parameter must be present positionally. The result of the
// underlying capability is returned unchanged.
func (m *Manager) PerformAction(ctx context.Context, connection, action string, params []any) (any, error) {
	m.mu.RLock()
	conn, ok := m.conns[connection]
	m.mu.RUnlock()
	if !ok {
		return nil, &UnknownConnectionError{Name: connection}
	}

	if !conn.State().Connected() {
		return nil, ErrNotConnected
	}

	spec, ok := conn.Actions()[action]
	if !ok {
		return nil, &UnknownActionError{Connection: connection, Action: action}
	}

	for i, p := range spec.Params {
		if !p.Required {
			continue
		}
		if i >= len(params) || params[i] == nil {
			return nil, &MissingParameterError{Connection: connection, Action: action, Param: p.Name}
		}
	}

	return conn.Perform(ctx, action, params)
}
