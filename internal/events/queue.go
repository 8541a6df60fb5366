package events

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// ErrQueueFull is returned by Enqueue when the buffer has no room.
var ErrQueueFull = errors.New("event queue full")

// Queue hands events to a handler on a single worker goroutine so slow
// subscribers (network calls) never run inside the publisher's call.
// Events are delivered in the order they were enqueued.
type Queue struct {
	name    string
	events  chan Event
	handler EventHandler
	dropped atomic.Int64
	logger  zerolog.Logger
}

// NewQueue creates a queue with room for size pending events.
func NewQueue(name string, handler EventHandler, size int, logger *zerolog.Logger) *Queue {
	if size <= 0 {
		size = 1
	}
	q := &Queue{
		name:    name,
		events:  make(chan Event, size),
		handler: handler,
		logger:  zerolog.Nop(),
	}
	if logger != nil {
		q.logger = logger.With().Str("component", "events").Str("queue", name).Logger()
	}
	return q
}

// Enqueue never blocks. A full queue drops the event.
func (q *Queue) Enqueue(e Event) error {
	select {
	case q.events <- e:
		return nil
	default:
		q.dropped.Add(1)
		return ErrQueueFull
	}
}

// Dropped counts events rejected by a full queue.
func (q *Queue) Dropped() int64 {
	return q.dropped.Load()
}

// Run drains the queue until ctx is done. Pending events are discarded on exit.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-q.events:
			if err := q.handler(e); err != nil {
				q.logger.Warn().Err(err).Str("type", e.Type).Int64("event_id", e.ID).Msg("queued handler failed")
			}
		}
	}
}

// SubscribeQueued starts a worker for handler and subscribes it to every
// listed event type through one shared queue.
func (b *EventBus) SubscribeQueued(ctx context.Context, name string, handler EventHandler, size int, eventTypes ...string) *Queue {
	q := NewQueue(name, handler, size, nil)
	q.logger = b.logger.With().Str("queue", name).Logger()
	go q.Run(ctx)
	for _, t := range eventTypes {
		b.Subscribe(t, q.Enqueue)
	}
	return q
}
