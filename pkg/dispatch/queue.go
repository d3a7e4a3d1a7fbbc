// Package dispatch paces a bursty inbound message stream down to a rate the
// renderer can animate: at most one delivery per pacing window, always the
// freshest buffered message, older duplicates silently dropped.
package dispatch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPacingInterval = 1500 * time.Millisecond
	DefaultTickInterval   = 100 * time.Millisecond
)

// Message is one opaque payload queued for paced delivery. Immutable once
// enqueued; consumed at most once.
type Message struct {
	Reconnecting bool
	Payload      string
}

// DeliverFunc is invoked on the queue's own goroutine, one call at a time.
// The next delivery cannot begin until the previous call returns.
type DeliverFunc func(Message)

type QueueParams struct {
	// PacingInterval is the minimum gap between two deliveries.
	PacingInterval time.Duration

	// TickInterval is how often the queue checks whether a delivery is due.
	TickInterval time.Duration

	Logger *zap.Logger

	// Now overrides the time source, for tests.
	Now func() time.Time
}

type Queue struct {
	pacingInterval time.Duration
	tickInterval   time.Duration

	deliver DeliverFunc
	now     func() time.Time
	log     *zap.Logger

	mut          sync.Mutex
	pending      []Message
	lastDelivery time.Time
	stopped      bool

	stopOnce sync.Once
	stopCh   chan struct{}
}

func CreateQueue(deliver DeliverFunc, params QueueParams) *Queue {
	pacingInterval := DefaultPacingInterval
	if params.PacingInterval > 0 {
		pacingInterval = params.PacingInterval
	}
	tickInterval := DefaultTickInterval
	if params.TickInterval > 0 {
		tickInterval = params.TickInterval
	}

	logger := params.Logger
	if logger == nil {
		logger = zap.Must(zap.NewDevelopment())
	}

	now := params.Now
	if now == nil {
		now = time.Now
	}

	return &Queue{
		pacingInterval: pacingInterval,
		tickInterval:   tickInterval,
		deliver:        deliver,
		now:            now,
		log:            logger.With(zap.String("component", "DispatchQueue")),
		stopCh:         make(chan struct{}),
	}
}

// Enqueue appends a message to the pending buffer. The buffer is unbounded;
// pacing drops stale entries instead of applying backpressure upstream.
func (q *Queue) Enqueue(msg Message) {
	q.mut.Lock()
	defer q.mut.Unlock()

	if q.stopped {
		return
	}

	q.pending = append(q.pending, msg)
}

// Start runs the pacing loop until the context is done or Stop is called.
func (q *Queue) Start(ctx context.Context) {
	q.mut.Lock()
	if q.lastDelivery.IsZero() {
		q.lastDelivery = q.now()
	}
	q.mut.Unlock()

	ticker := time.NewTicker(q.tickInterval)
	defer ticker.Stop()

	q.log.Info("Starting dispatch pacing loop",
		zap.Duration("pacingInterval", q.pacingInterval),
		zap.Duration("tickInterval", q.tickInterval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.stopCh:
			return
		case <-ticker.C:
			q.deliverDue()
		}
	}
}

// Stop halts the pacing loop and drops any buffered messages. Idempotent.
func (q *Queue) Stop() error {
	q.stopOnce.Do(func() {
		q.mut.Lock()
		q.stopped = true
		dropped := len(q.pending)
		q.pending = nil
		q.mut.Unlock()

		close(q.stopCh)

		if dropped > 0 {
			q.log.Info("Dropped buffered messages on stop", zap.Int("count", dropped))
		}
	})
	return nil
}

func (q *Queue) Pending() int {
	q.mut.Lock()
	defer q.mut.Unlock()

	return len(q.pending)
}

// deliverDue releases the freshest pending message if at least one full
// pacing interval has elapsed since the previous delivery. Everything older
// than the delivered message is dropped: within one pacing window only the
// newest snapshot is worth animating.
func (q *Queue) deliverDue() {
	q.mut.Lock()

	if q.stopped || len(q.pending) == 0 {
		q.mut.Unlock()
		return
	}

	now := q.now()
	if now.Sub(q.lastDelivery) < q.pacingInterval {
		q.mut.Unlock()
		return
	}

	msg := q.pending[len(q.pending)-1]
	stale := len(q.pending) - 1
	q.pending = q.pending[:0]
	q.lastDelivery = now
	q.mut.Unlock()

	if stale > 0 {
		q.log.Debug("Dropping stale messages in pacing window", zap.Int("count", stale))
	}

	q.deliver(msg)
}
