package password

import (
	"context"
	"fmt"

	"github.com/kbukum/todoapi/resilience"
)

// Pool runs a Hasher's CPU-heavy work in a bounded number of slots so that
// bursts of logins cannot starve unrelated requests.
type Pool struct {
	hasher   Hasher
	bulkhead *resilience.Bulkhead
	dummy    string
}

// PoolOption configures a Pool.
type PoolOption func(*resilience.BulkheadConfig)

// WithRejectHook is called whenever a caller is turned away.
func WithRejectHook(fn func(name string, err error)) PoolOption {
	return func(c *resilience.BulkheadConfig) { c.OnReject = fn }
}

// NewPool wraps hasher with the limits in cfg. It computes a throwaway hash
// up front for CompareDummy.
func NewPool(hasher Hasher, cfg Config, opts ...PoolOption) (*Pool, error) {
	cfg.ApplyDefaults()
	bc := resilience.BulkheadConfig{
		Name:          "password",
		MaxConcurrent: cfg.MaxConcurrent,
		MaxWait:       cfg.MaxWait,
	}
	for _, opt := range opts {
		opt(&bc)
	}

	secret, err := GenerateToken(16)
	if err != nil {
		return nil, err
	}
	dummy, err := hasher.Hash(secret)
	if err != nil {
		return nil, fmt.Errorf("password: dummy hash: %w", err)
	}

	return &Pool{
		hasher:   hasher,
		bulkhead: resilience.NewBulkhead(bc),
		dummy:    dummy,
	}, nil
}

// Hash hashes plaintext in a pool slot. Waiting for a slot ends early when
// ctx is done.
func (p *Pool) Hash(ctx context.Context, plaintext string) (string, error) {
	return resilience.ExecuteWithResult(p.bulkhead, ctx, func() (string, error) {
		return p.hasher.Hash(plaintext)
	})
}

// Compare checks plaintext against hash in a pool slot.
func (p *Pool) Compare(ctx context.Context, plaintext, hash string) (bool, error) {
	return resilience.ExecuteWithResult(p.bulkhead, ctx, func() (bool, error) {
		return p.hasher.Compare(plaintext, hash)
	})
}

// CompareDummy performs a comparison of the same cost as Compare against a
// hash no password matches. Callers use it when there is no stored hash to
// check so that both paths take the same time.
func (p *Pool) CompareDummy(ctx context.Context, plaintext string) error {
	_, err := p.Compare(ctx, plaintext, p.dummy)
	return err
}

// InUse returns the number of hashes currently being computed.
func (p *Pool) InUse() int { return p.bulkhead.InUse() }
