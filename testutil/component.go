package testutil

import (
	"context"

	"github.com/kbukum/todoapi/component"
)

// TestComponent is a component that can be reset between test cases.
type TestComponent interface {
	component.Component

	// Reset returns the component to its freshly started state.
	Reset(ctx context.Context) error
}
