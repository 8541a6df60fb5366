package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishDelivers(t *testing.T) {
	bus := NewEventBus(nil)

	var got []Event
	bus.Subscribe("booking.created", func(e Event) error {
		got = append(got, e)
		return nil
	})

	var all int
	bus.Subscribe("*", func(Event) error {
		all++
		return errors.New("ignored")
	})

	bus.Publish("booking.created", map[string]string{"id": "abc"})
	bus.Publish("booking.cancelled", map[string]string{"id": "abc"})

	require.Len(t, got, 1)
	assert.Equal(t, "booking.created", got[0].Type)
	assert.Equal(t, int64(1), got[0].ID)
	assert.False(t, got[0].CreatedAt.IsZero())

	var payload map[string]string
	require.NoError(t, got[0].Decode(&payload))
	assert.Equal(t, "abc", payload["id"])

	assert.Equal(t, 2, all)
}

func TestEventBus_UnencodablePayloadDropped(t *testing.T) {
	bus := NewEventBus(nil)
	called := false
	bus.Subscribe("x", func(Event) error {
		called = true
		return nil
	})

	bus.Publish("x", make(chan int))
	assert.False(t, called)
}

func TestQueue_DeliversInOrderOffPublisher(t *testing.T) {
	bus := NewEventBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	var (
		mu  sync.Mutex
		got []string
	)
	bus.SubscribeQueued(ctx, "slow", func(e Event) error {
		<-release
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.Type)
		return nil
	}, 8, "a", "b")

	start := time.Now()
	bus.Publish("a", 1)
	bus.Publish("b", 2)
	bus.Publish("c", 3)
	assert.Less(t, time.Since(start), time.Second)

	close(release)
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestQueue_FullDrops(t *testing.T) {
	q := NewQueue("tiny", func(Event) error { return nil }, 1, nil)

	require.NoError(t, q.Enqueue(Event{Type: "a"}))
	assert.ErrorIs(t, q.Enqueue(Event{Type: "b"}), ErrQueueFull)
	assert.Equal(t, int64(1), q.Dropped())
}

func TestQueue_StopsWithContext(t *testing.T) {
	var calls atomic.Int32
	q := NewQueue("stop", func(Event) error {
		calls.Add(1)
		return errors.New("logged")
	}, 4, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()

	require.NoError(t, q.Enqueue(Event{Type: "a"}))
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("queue worker did not stop")
	}
}
