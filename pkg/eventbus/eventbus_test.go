package eventbus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type testEvent struct {
	name string
	seq  int
}

func (e testEvent) Name() string { return e.name }

func TestBus_PublishDeliversToSubscribers(t *testing.T) {
	bus := New(zap.NewNop())

	var calls int32
	bus.Subscribe("a", func(ctx context.Context, event Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	bus.Subscribe("a", func(ctx context.Context, event Event) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("сбой слушателя")
	})
	bus.Subscribe("b", func(ctx context.Context, event Event) error {
		atomic.AddInt32(&calls, 100)
		return nil
	})

	bus.Publish(context.Background(), testEvent{name: "a"})
	bus.Wait()

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestBus_ListenerPanicIsRecovered(t *testing.T) {
	bus := New(zap.NewNop())
	bus.Subscribe("a", func(ctx context.Context, event Event) error {
		panic("boom")
	})

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), testEvent{name: "a"})
		bus.Wait()
	})
}

func TestBus_ListenerOutlivesCallerContext(t *testing.T) {
	bus := New(zap.NewNop())

	var ctxErr atomic.Value
	bus.Subscribe("a", func(ctx context.Context, event Event) error {
		ctxErr.Store(ctx.Err() == nil)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, testEvent{name: "a"})
	bus.Wait()

	assert.Equal(t, true, ctxErr.Load())
}

func TestBus_SyncListenerKeepsPublishOrder(t *testing.T) {
	bus := New(zap.NewNop())

	var got []int
	bus.SubscribeSync("a", func(ctx context.Context, event Event) error {
		got = append(got, event.(testEvent).seq)
		return nil
	})

	var want []int
	for i := 1; i <= 50; i++ {
		bus.Publish(context.Background(), testEvent{name: "a", seq: i})
		want = append(want, i)
	}

	// Синхронные слушатели отработали до возврата из Publish, Wait не нужен.
	assert.Equal(t, want, got)
}

func TestBus_SyncListenerPanicIsRecovered(t *testing.T) {
	bus := New(zap.NewNop())
	var asyncCalls int32
	bus.SubscribeSync("a", func(ctx context.Context, event Event) error {
		panic("boom")
	})
	bus.Subscribe("a", func(ctx context.Context, event Event) error {
		atomic.AddInt32(&asyncCalls, 1)
		return nil
	})

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), testEvent{name: "a"})
		bus.Wait()
	})
	assert.Equal(t, int32(1), atomic.LoadInt32(&asyncCalls))
}
