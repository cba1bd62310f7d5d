package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestBulkhead_RejectsWhenFull(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 2})

	release := make(chan struct{})
	var started sync.WaitGroup
	var done sync.WaitGroup
	for i := 0; i < 2; i++ {
		started.Add(1)
		done.Add(1)
		go func() {
			defer done.Done()
			_ = b.Execute(context.Background(), func(ctx context.Context) error {
				started.Done()
				<-release
				return nil
			})
		}()
	}
	started.Wait()

	err := b.Execute(context.Background(), func(ctx context.Context) error {
		t.Error("op must not run when the bulkhead is full")
		return nil
	})
	if !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("Execute() error = %v, want ErrBulkheadFull", err)
	}

	m := b.Metrics()
	if m.Active != 2 || m.Available != 0 || m.Rejected != 1 {
		t.Errorf("Metrics() = %+v", m)
	}

	close(release)
	done.Wait()

	m = b.Metrics()
	if m.Active != 0 || m.MaxActive != 2 {
		t.Errorf("Metrics() after release = %+v", m)
	}
}

func TestBulkhead_WaitsForSlot(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: time.Second})

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = b.Execute(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()

	ran := false
	if err := b.Execute(context.Background(), func(ctx context.Context) error {
		ran = true
		return nil
	}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !ran {
		t.Error("op should run once a slot frees up")
	}
}

func TestBulkhead_WaitHonoursContext(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: time.Minute})

	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})
	go func() {
		_ = b.Execute(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := b.Execute(ctx, func(ctx context.Context) error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Execute() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestBulkhead_PropagatesOpError(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{})
	want := errors.New("snapshot rejected")

	if err := b.Execute(context.Background(), func(ctx context.Context) error { return want }); !errors.Is(err, want) {
		t.Errorf("Execute() error = %v, want %v", err, want)
	}
	if b.Metrics().MaxConcurrent != 10 {
		t.Errorf("MaxConcurrent = %d, want default 10", b.Metrics().MaxConcurrent)
	}
}
