package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(size int) *Dispatcher {
	return New(size, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

// collector records delivered events and lets tests wait for a count.
type collector struct {
	mu     sync.Mutex
	events []Event
	seen   chan struct{}
}

func newCollector() *collector {
	return &collector{seen: make(chan struct{}, 64)}
}

func (c *collector) handle(_ context.Context, ev Event) error {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
	c.seen <- struct{}{}
	return nil
}

func (c *collector) wait(t *testing.T, n int) []Event {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.seen:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d of %d", i+1, n)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event{}, c.events...)
}

func TestPublishDeliversToSubscriber(t *testing.T) {
	d := newTestDispatcher(8)
	c := newCollector()
	d.Subscribe(SignalEntityUpdated, c.handle)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Publish(Event{Signal: SignalEntityUpdated, EmployeeID: 42})

	events := c.wait(t, 1)
	require.Len(t, events, 1)
	assert.Equal(t, int64(42), events[0].EmployeeID)
}

func TestHandlersRunInSubscriptionOrder(t *testing.T) {
	d := newTestDispatcher(8)

	var mu sync.Mutex
	var order []string
	done := make(chan struct{})

	d.Subscribe(SignalEntityCreated, func(context.Context, Event) error {
		mu.Lock()
		order = append(order, "first")
		mu.Unlock()
		return nil
	})
	d.Subscribe(SignalEntityCreated, func(context.Context, Event) error {
		mu.Lock()
		order = append(order, "second")
		mu.Unlock()
		close(done)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Publish(Event{Signal: SignalEntityCreated})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handlers")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestFailingHandlerDoesNotAffectPeers(t *testing.T) {
	d := newTestDispatcher(8)
	c := newCollector()

	d.Subscribe(SignalEntityDeleted, func(context.Context, Event) error {
		return errors.New("boom")
	})
	d.Subscribe(SignalEntityDeleted, func(context.Context, Event) error {
		panic("much worse")
	})
	d.Subscribe(SignalEntityDeleted, c.handle)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Publish(Event{Signal: SignalEntityDeleted, EmployeeID: 7})

	events := c.wait(t, 1)
	require.Len(t, events, 1)
	assert.Equal(t, int64(7), events[0].EmployeeID)
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	// No Run loop: the queue fills and stays full.
	d := newTestDispatcher(2)
	c := newCollector()
	d.Subscribe(SignalEntityUpdated, c.handle)

	for i := 0; i < 5; i++ {
		d.Publish(Event{Signal: SignalEntityUpdated, EmployeeID: int64(i)})
	}

	// Only the first two fit; Publish never blocked.
	assert.Equal(t, 2, len(d.queue))
}

func TestRunDrainsQueueOnCancel(t *testing.T) {
	d := newTestDispatcher(8)
	c := newCollector()
	d.Subscribe(SignalEntityCreated, c.handle)

	for i := 0; i < 3; i++ {
		d.Publish(Event{Signal: SignalEntityCreated, EmployeeID: int64(i)})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	events := c.wait(t, 3)
	assert.Len(t, events, 3)
}
