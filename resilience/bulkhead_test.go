package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// occupy fills every slot of b until the returned release func is called.
func occupy(t *testing.T, b *Bulkhead) (release func()) {
	t.Helper()
	done := make(chan struct{})
	var started sync.WaitGroup
	for i := 0; i < b.MaxConcurrent(); i++ {
		started.Add(1)
		go func() {
			_ = b.Execute(context.Background(), func() error {
				started.Done()
				<-done
				return nil
			})
		}()
	}
	started.Wait()
	return func() { close(done) }
}

func TestBulkhead_LimitsConcurrency(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 2, MaxWait: time.Second})

	var current, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := b.Execute(context.Background(), func() error {
				n := atomic.AddInt32(&current, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&current, -1)
				return nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if peak > 2 {
		t.Errorf("expected at most 2 concurrent executions, saw %d", peak)
	}
}

func TestBulkhead_RejectsWhenFull(t *testing.T) {
	var rejected atomic.Value
	b := NewBulkhead(BulkheadConfig{
		Name:          "test",
		MaxConcurrent: 1,
		OnReject:      func(name string, err error) { rejected.Store(err) },
	})
	release := occupy(t, b)
	defer release()

	ran := false
	err := b.Execute(context.Background(), func() error { ran = true; return nil })
	if !errors.Is(err, ErrBulkheadFull) {
		t.Fatalf("expected ErrBulkheadFull, got %v", err)
	}
	if ran {
		t.Error("fn must not run when rejected")
	}
	if got, _ := rejected.Load().(error); !errors.Is(got, ErrBulkheadFull) {
		t.Errorf("OnReject not called with reason, got %v", got)
	}
}

func TestBulkhead_WaitTimeout(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 1, MaxWait: 20 * time.Millisecond})
	release := occupy(t, b)
	defer release()

	err := b.Execute(context.Background(), func() error { return nil })
	if !errors.Is(err, ErrBulkheadTimeout) {
		t.Fatalf("expected ErrBulkheadTimeout, got %v", err)
	}
}

func TestBulkhead_WaitsForSlot(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 1, MaxWait: time.Second})
	release := occupy(t, b)

	go func() {
		time.Sleep(10 * time.Millisecond)
		release()
	}()

	if err := b.Execute(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("expected slot after release, got %v", err)
	}
}

func TestBulkhead_ContextCancelledWhileWaiting(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 1, MaxWait: time.Second})
	release := occupy(t, b)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := b.Execute(ctx, func() error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestBulkhead_CancelledContextNeverRuns(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	err := b.Execute(ctx, func() error { ran = true; return nil })
	if !errors.Is(err, context.Canceled) || ran {
		t.Fatalf("expected cancellation without running, got err=%v ran=%v", err, ran)
	}
	if b.InUse() != 0 {
		t.Errorf("expected no slot held, got %d", b.InUse())
	}
}

func TestExecuteWithResult(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test"})
	got, err := ExecuteWithResult(b, context.Background(), func() (string, error) { return "ok", nil })
	if err != nil || got != "ok" {
		t.Fatalf("got %q, %v", got, err)
	}
	if b.MaxConcurrent() != 10 {
		t.Errorf("expected default of 10 slots, got %d", b.MaxConcurrent())
	}
}
