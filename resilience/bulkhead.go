package resilience

import (
	"context"
	"errors"
	"time"
)

// Bulkhead rejections.
var (
	ErrBulkheadFull    = errors.New("bulkhead is full")
	ErrBulkheadTimeout = errors.New("bulkhead wait timeout")
)

// BulkheadConfig configures a Bulkhead.
type BulkheadConfig struct {
	Name string
	// MaxConcurrent defaults to 10 when unset.
	MaxConcurrent int
	// MaxWait is how long a caller may queue for a slot. Zero rejects
	// immediately when every slot is taken.
	MaxWait time.Duration
	// OnReject, if set, is called for every rejected caller with the reason.
	OnReject func(name string, err error)
}

// Bulkhead limits concurrent executions with a counting semaphore.
type Bulkhead struct {
	config BulkheadConfig
	sem    chan struct{}
}

// NewBulkhead creates a Bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}
	return &Bulkhead{
		config: config,
		sem:    make(chan struct{}, config.MaxConcurrent),
	}
}

// Execute runs fn in a slot. It returns ErrBulkheadFull, ErrBulkheadTimeout
// or the context error without running fn when no slot could be taken.
// Once started, fn runs to completion regardless of ctx.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	if err := b.acquire(ctx); err != nil {
		if b.config.OnReject != nil {
			b.config.OnReject(b.config.Name, err)
		}
		return err
	}
	defer b.release()
	return fn()
}

// ExecuteWithResult is Execute for functions returning a value.
func ExecuteWithResult[T any](b *Bulkhead, ctx context.Context, fn func() (T, error)) (T, error) {
	var result T
	err := b.Execute(ctx, func() error {
		var fnErr error
		result, fnErr = fn()
		return fnErr
	})
	return result, err
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case b.sem <- struct{}{}:
		return nil
	default:
	}

	if b.config.MaxWait <= 0 {
		return ErrBulkheadFull
	}

	timer := time.NewTimer(b.config.MaxWait)
	defer timer.Stop()

	select {
	case b.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrBulkheadTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bulkhead) release() {
	<-b.sem
}

// Name returns the configured name.
func (b *Bulkhead) Name() string { return b.config.Name }

// InUse returns the number of occupied slots.
func (b *Bulkhead) InUse() int { return len(b.sem) }

// MaxConcurrent returns the slot count.
func (b *Bulkhead) MaxConcurrent() int { return b.config.MaxConcurrent }
