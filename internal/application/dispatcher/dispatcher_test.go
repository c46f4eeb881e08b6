package dispatcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/homeshine/conflict-engine/internal/domain/event"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

func TestDispatcher_Dispatch(t *testing.T) {
	d := NewDispatcher(nopLogger{})

	var calls int32
	d.Subscribe(event.TypeAppealResolved, "counter", func(ctx context.Context, evt *event.Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	evt := event.NewEvent(event.TypeAppealResolved, 1, "APL-000001", nil)
	if err := d.Dispatch(context.Background(), evt); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("handler called %d times, want 1", calls)
	}
}

func TestDispatcher_DispatchReturnsHandlerError(t *testing.T) {
	d := NewDispatcher(nopLogger{})

	wantErr := errors.New("boom")
	d.Subscribe(event.TypeAppealResolved, "failing", func(ctx context.Context, evt *event.Event) error {
		return wantErr
	})

	evt := event.NewEvent(event.TypeAppealResolved, 1, "APL-000001", nil)
	if err := d.Dispatch(context.Background(), evt); !errors.Is(err, wantErr) {
		t.Errorf("Dispatch() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestDispatcher_DispatchRecoversPanic(t *testing.T) {
	d := NewDispatcher(nopLogger{})

	d.Subscribe(event.TypeAppealSubmitted, "panicking", func(ctx context.Context, evt *event.Event) error {
		panic("handler exploded")
	})

	evt := event.NewEvent(event.TypeAppealSubmitted, 1, "APL-000001", nil)
	if err := d.Dispatch(context.Background(), evt); err == nil {
		t.Error("Dispatch() should surface recovered panic as error")
	}
}

func TestDispatcher_DispatchAsyncAndClose(t *testing.T) {
	d := NewDispatcher(nopLogger{})

	var calls int32
	d.Subscribe(event.TypeRefundCompleted, "counter", func(ctx context.Context, evt *event.Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	evt := event.NewEvent(event.TypeRefundCompleted, 7, "APL-000007", nil)
	d.DispatchAsync(context.Background(), evt)
	d.DispatchAsync(context.Background(), evt)

	// Close waits for in-flight handlers
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("handler called %d times, want 2", got)
	}

	if err := d.Close(); err == nil {
		t.Error("second Close() should fail")
	}
}

func TestDispatcher_DispatchAfterClose(t *testing.T) {
	d := NewDispatcher(nopLogger{})
	_ = d.Close()

	evt := event.NewEvent(event.TypeAppealSubmitted, 1, "APL-000001", nil)
	if err := d.Dispatch(context.Background(), evt); err == nil {
		t.Error("Dispatch() after Close() should fail")
	}
}
