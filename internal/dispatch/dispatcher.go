package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Handler consumes one event. Errors are logged and counted by the
// dispatcher; they never reach the publisher.
type Handler func(ctx context.Context, ev Event) error

// Dispatcher is a single-process, in-memory pub/sub channel. Handlers for a
// given signal run in subscription order on the dispatch goroutine; events
// from concurrent publishers have no mutual ordering guarantee.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[Signal][]Handler

	queue   chan Event
	logger  *slog.Logger
	metrics *Metrics
}

// New builds a dispatcher with a bounded queue. metrics may be nil in tests.
func New(queueSize int, logger *slog.Logger, metrics *Metrics) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &Dispatcher{
		handlers: make(map[Signal][]Handler),
		queue:    make(chan Event, queueSize),
		logger:   logger,
		metrics:  metrics,
	}
}

// Subscribe registers a handler for a signal. Handlers registered for the
// same signal are invoked in subscription order.
func (d *Dispatcher) Subscribe(sig Signal, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[sig] = append(d.handlers[sig], h)
}

// Publish enqueues an event without blocking. Callers publish only after
// their own transaction has committed. When the queue is full the event is
// dropped: audit is best-effort and must not stall the request path.
func (d *Dispatcher) Publish(ev Event) {
	select {
	case d.queue <- ev:
		if d.metrics != nil {
			d.metrics.Published.WithLabelValues(string(ev.Signal)).Inc()
			d.metrics.QueueDepth.Set(float64(len(d.queue)))
		}
	default:
		if d.metrics != nil {
			d.metrics.Dropped.WithLabelValues(string(ev.Signal)).Inc()
		}
		d.logger.Warn("dispatch queue full, event dropped",
			"signal", ev.Signal,
			"employee_id", ev.EmployeeID,
			"kind", ev.Kind.String(),
		)
	}
}

// Run delivers queued events until ctx is cancelled, then drains whatever is
// already queued before returning so a graceful shutdown does not lose
// accepted events.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.drain()
			return ctx.Err()
		case ev := <-d.queue:
			d.deliver(ctx, ev)
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case ev := <-d.queue:
			// Deliver with a fresh context: the run context is already
			// cancelled but accepted events still get their chance.
			d.deliver(context.Background(), ev)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev Event) {
	if d.metrics != nil {
		d.metrics.QueueDepth.Set(float64(len(d.queue)))
	}

	d.mu.RLock()
	handlers := d.handlers[ev.Signal]
	d.mu.RUnlock()

	for _, h := range handlers {
		if err := d.invoke(ctx, h, ev); err != nil {
			if d.metrics != nil {
				d.metrics.HandlerFailures.WithLabelValues(string(ev.Signal)).Inc()
			}
			d.logger.ErrorContext(ctx, "dispatch handler failed",
				"signal", ev.Signal,
				"employee_id", ev.EmployeeID,
				"kind", ev.Kind.String(),
				"error", err,
			)
		}
	}
}

// invoke runs one handler, converting a panic into an error so a misbehaving
// handler cannot take down the dispatch goroutine or its peers.
func (d *Dispatcher) invoke(ctx context.Context, h Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h(ctx, ev)
}
