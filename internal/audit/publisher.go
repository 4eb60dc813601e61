package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sink delivers one event to its destination.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// Publisher hands events to a Sink. In async mode events are queued on a
// bounded buffer and written by a background goroutine; a full buffer drops
// the event. Close drains the queue.
type Publisher struct {
	sink    Sink
	logger  *slog.Logger
	metrics *Metrics
	clock   func() time.Time

	buffer    int
	queue     chan Event
	wg        sync.WaitGroup
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables async delivery with a queue of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.buffer = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func WithClock(clock func() time.Time) Option {
	return func(p *Publisher) {
		if clock != nil {
			p.clock = clock
		}
	}
}

func NewPublisher(sink Sink, opts ...Option) *Publisher {
	p := &Publisher{
		sink:   sink,
		logger: slog.New(slog.DiscardHandler),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer > 0 {
		p.queue = make(chan Event, p.buffer)
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Emit stamps the event and delivers or enqueues it. Delivery failures are
// logged and counted, never returned.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil || p.sink == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.clock().UTC()
	}

	if p.queue == nil {
		p.write(ctx, event)
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.metrics.observe(event.Action, outcomeDropped)
		return
	}
	select {
	case p.queue <- event:
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"request_id", event.RequestID,
			"action", event.Action,
		)
		p.metrics.observe(event.Action, outcomeDropped)
	}
}

// Close stops accepting events and waits for queued ones to be written.
func (p *Publisher) Close() {
	if p == nil || p.queue == nil {
		return
	}
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()
		p.wg.Wait()
	})
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for event := range p.queue {
		p.write(context.Background(), event)
	}
}

func (p *Publisher) write(ctx context.Context, event Event) {
	if err := p.sink.Write(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "failed to write audit event",
			"request_id", event.RequestID,
			"action", event.Action,
			"error", err,
		)
		p.metrics.observe(event.Action, outcomeFailed)
		return
	}
	p.metrics.observe(event.Action, outcomePublished)
}
