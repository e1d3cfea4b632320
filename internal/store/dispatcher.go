package store

import (
	"context"
	"sync"
	"time"

	"github.com/benresonance-star/Task-Checker-sub001/internal/errors"
	"github.com/benresonance-star/Task-Checker-sub001/internal/event"
	"github.com/benresonance-star/Task-Checker-sub001/internal/logging"
	"github.com/benresonance-star/Task-Checker-sub001/internal/model"
)

// maxBackoff caps the exponential retry backoff.
const maxBackoff = 5 * time.Second

// defaultQueueSize bounds the pending write queue. Writes are small and
// the engine produces at most a handful per second; hitting the bound
// means the store is badly wedged, and Enqueue degrades to dropping the
// write with a warning rather than blocking a mutation path.
const defaultQueueSize = 256

// writeJob is one pending durable write.
type writeJob struct {
	key   string // Store key, for logging and failure events
	field string
	fn    func(context.Context) error
}

// Dispatcher runs durable writes on a background goroutine so mutation
// paths stay optimistic and non-blocking. Transient failures are
// retried with capped exponential backoff; after the retry budget is
// exhausted a store.write_failed event is published and local state is
// left as-is. The next periodic write usually supersedes the lost one.
type Dispatcher struct {
	adapter Adapter
	bus     *event.Bus
	logger  *logging.Logger

	retries int
	backoff time.Duration

	mu      sync.Mutex
	queue   chan writeJob
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewDispatcher creates a Dispatcher over the adapter. retries is how
// many times a failed write is retried (0 disables retries); backoff is
// the initial retry delay, doubling per attempt.
func NewDispatcher(adapter Adapter, bus *event.Bus, logger *logging.Logger, retries int, backoff time.Duration) *Dispatcher {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Dispatcher{
		adapter: adapter,
		bus:     bus,
		logger:  logger.WithComponent("store.dispatcher"),
		retries: retries,
		backoff: backoff,
	}
}

// Start launches the background write loop.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.queue = make(chan writeJob, defaultQueueSize)
	d.started = true

	go d.run(ctx)
}

// Stop cancels in-flight retries and waits for the write loop to drain
// already-queued jobs and exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.started = false
	cancel, done := d.cancel, d.done
	d.mu.Unlock()

	close(d.queue)
	<-done
	cancel()
}

// EnqueueUserField queues a field-level write to a user document.
func (d *Dispatcher) EnqueueUserField(userID, field string, value any) {
	d.enqueue(writeJob{
		key:   UserKey(userID),
		field: field,
		fn: func(ctx context.Context) error {
			return d.adapter.WriteUserField(ctx, userID, field, value)
		},
	})
}

// EnqueueTaskField queues a field-level write to a task.
func (d *Dispatcher) EnqueueTaskField(instanceID, taskID, field string, value any) {
	d.enqueue(writeJob{
		key:   InstanceKey(instanceID) + "/" + taskID,
		field: field,
		fn: func(ctx context.Context) error {
			return d.adapter.WriteTaskField(ctx, instanceID, taskID, field, value)
		},
	})
}

// EnqueuePresence queues a presence upsert.
func (d *Dispatcher) EnqueuePresence(instanceID, userID string, entry model.PresenceEntry) {
	d.enqueue(writeJob{
		key:   InstanceKey(instanceID),
		field: "activeUsers." + userID,
		fn: func(ctx context.Context) error {
			return d.adapter.WriteInstancePresence(ctx, instanceID, userID, entry)
		},
	})
}

// enqueue adds a job without blocking. The mutex is held across the
// send so Stop cannot close the queue mid-enqueue.
func (d *Dispatcher) enqueue(job writeJob) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		d.logger.Warn("write dropped, dispatcher not running", "key", job.key, "field", job.field)
		return
	}

	select {
	case d.queue <- job:
	default:
		d.logger.Warn("write dropped, queue full", "key", job.key, "field", job.field)
	}
}

// run consumes the queue until it is closed and drained.
func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)

	for job := range d.queue {
		d.execute(ctx, job)
	}
}

// execute performs one write with the retry budget.
func (d *Dispatcher) execute(ctx context.Context, job writeJob) {
	var err error
	backoff := d.backoff

	for attempt := 0; ; attempt++ {
		err = job.fn(ctx)
		if err == nil {
			if attempt > 0 {
				d.logger.Info("write succeeded after retry",
					"key", job.key, "field", job.field, "attempt", attempt)
			}
			return
		}
		if attempt >= d.retries || !errors.IsRetryable(err) {
			break
		}

		d.logger.Debug("write failed, retrying",
			"key", job.key, "field", job.field, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			err = ctx.Err()
			goto failed
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}

failed:
	d.logger.Error("durable write failed",
		"key", job.key, "field", job.field, "error", err)
	d.bus.Publish(event.NewWriteFailedEvent(job.key, job.field, err.Error()))
}
