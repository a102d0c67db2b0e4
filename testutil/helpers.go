package testutil

import (
	"context"
	"testing"
)

// THelper ties component lifecycles to a test.
type THelper struct {
	t   testing.TB
	ctx context.Context
}

// T wraps t.
func T(t testing.TB) *THelper {
	return &THelper{t: t, ctx: context.Background()}
}

// WithContext sets the context passed to the components.
func (h *THelper) WithContext(ctx context.Context) *THelper {
	h.ctx = ctx
	return h
}

// Setup starts c and stops it when the test ends.
func (h *THelper) Setup(c TestComponent) {
	h.t.Helper()
	if err := c.Start(h.ctx); err != nil {
		h.t.Fatalf("failed to start component %s: %v", c.Name(), err)
	}
	h.t.Cleanup(func() {
		if err := c.Stop(h.ctx); err != nil {
			h.t.Errorf("failed to stop component %s: %v", c.Name(), err)
		}
	})
}

// Reset resets c, failing the test on error.
func (h *THelper) Reset(c TestComponent) {
	h.t.Helper()
	if err := c.Reset(h.ctx); err != nil {
		h.t.Fatalf("failed to reset component %s: %v", c.Name(), err)
	}
}

// Manager returns a Manager whose components stop when the test ends.
func (h *THelper) Manager(components ...TestComponent) *Manager {
	h.t.Helper()
	m := NewManager(h.ctx)
	for _, c := range components {
		m.Add(c)
	}
	if err := m.StartAll(); err != nil {
		_ = m.StopAll()
		h.t.Fatalf("failed to start components: %v", err)
	}
	h.t.Cleanup(func() {
		if err := m.StopAll(); err != nil {
			h.t.Errorf("failed to stop components: %v", err)
		}
	})
	return m
}
