package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Manager starts, resets and stops a group of test components.
type Manager struct {
	ctx        context.Context
	components []TestComponent
	mu         sync.RWMutex
}

// NewManager creates an empty Manager.
func NewManager(ctx context.Context) *Manager {
	return &Manager{ctx: ctx}
}

// Add registers c.
func (m *Manager) Add(c TestComponent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, c)
}

// Get returns the component named name, or nil.
func (m *Manager) Get(name string) TestComponent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.components {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// StartAll starts components in order, stopping at the first failure.
func (m *Manager) StartAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.components {
		if err := c.Start(m.ctx); err != nil {
			return fmt.Errorf("failed to start component %s: %w", c.Name(), err)
		}
	}
	return nil
}

// StopAll stops components in reverse order and joins the failures.
func (m *Manager) StopAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var errs []error
	for i := len(m.components) - 1; i >= 0; i-- {
		c := m.components[i]
		if err := c.Stop(m.ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop component %s: %w", c.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// ResetAll resets every component, stopping at the first failure.
func (m *Manager) ResetAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.components {
		if err := c.Reset(m.ctx); err != nil {
			return fmt.Errorf("failed to reset component %s: %w", c.Name(), err)
		}
	}
	return nil
}
