package runtime

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewShutdownManager(t *testing.T) {
	m := NewShutdownManager(5 * time.Second)

	if m == nil {
		t.Fatal("NewShutdownManager returned nil")
	}
	if m.timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", m.timeout)
	}
}

func TestShutdownCancelsContext(t *testing.T) {
	m := NewShutdownManager(time.Second)
	ctx := m.Context()

	select {
	case <-ctx.Done():
		t.Fatal("context cancelled before shutdown")
	default:
	}

	m.Shutdown()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled after shutdown")
	}
}

func TestShutdownManager_Register(t *testing.T) {
	m := NewShutdownManager(5 * time.Second)

	var called int32
	m.Register("test-handler", func(ctx context.Context) error {
		atomic.AddInt32(&called, 1)
		return nil
	})

	m.Shutdown()

	if atomic.LoadInt32(&called) != 1 {
		t.Error("handler was not called")
	}
}

func TestShutdownManager_LIFO(t *testing.T) {
	m := NewShutdownManager(5 * time.Second)

	order := make([]int, 0, 3)
	for i := 1; i <= 3; i++ {
		i := i
		m.Register("handler", func(ctx context.Context) error {
			order = append(order, i)
			return nil
		})
	}

	m.Shutdown()

	if len(order) != 3 || order[0] != 3 || order[1] != 2 || order[2] != 1 {
		t.Errorf("expected LIFO order [3 2 1], got %v", order)
	}
}

func TestShutdownManager_OnlyOnce(t *testing.T) {
	m := NewShutdownManager(5 * time.Second)

	var called int32
	m.Register("once", func(ctx context.Context) error {
		atomic.AddInt32(&called, 1)
		return nil
	})

	m.Shutdown()
	m.Shutdown()

	if atomic.LoadInt32(&called) != 1 {
		t.Errorf("handler called %d times, want 1", called)
	}
}

func TestShutdownManager_HandlerErrorDoesNotStopOthers(t *testing.T) {
	m := NewShutdownManager(5 * time.Second)

	var secondCalled bool
	m.Register("ok", func(ctx context.Context) error {
		secondCalled = true
		return nil
	})
	m.Register("failing", func(ctx context.Context) error {
		return errors.New("cleanup failed")
	})

	m.Shutdown()

	if !secondCalled {
		t.Error("handler after a failing one was not called")
	}
}
