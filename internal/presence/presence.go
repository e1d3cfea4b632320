// Package presence implements the heartbeat side of task presence.
// While a user has a task's detail view open, a Publisher writes a
// presence entry for that task every publish interval. Entries are
// never deleted: a closed view simply stops heartbeating, and readers
// decide liveness from entry age.
package presence

import (
	"context"
	"sync"
	"time"

	"github.com/benresonance-star/Task-Checker-sub001/internal/event"
	"github.com/benresonance-star/Task-Checker-sub001/internal/logging"
	"github.com/benresonance-star/Task-Checker-sub001/internal/model"
	"github.com/benresonance-star/Task-Checker-sub001/internal/state"
	"github.com/benresonance-star/Task-Checker-sub001/internal/store"
)

// DefaultPublishInterval is the heartbeat cadence while a detail view
// is open.
const DefaultPublishInterval = 10 * time.Second

// Publisher heartbeats presence for at most one task at a time: the one
// whose detail view the local user currently has open. Opening a new
// task retargets the loop; closing it stops publishing immediately.
type Publisher struct {
	mirror     *state.Mirror
	dispatcher *store.Dispatcher
	bus        *event.Bus
	logger     *logging.Logger

	userID   string
	userName string
	interval time.Duration
	now      func() time.Time

	mu         sync.Mutex
	instanceID string
	taskID     string
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewPublisher creates a Publisher heartbeating on behalf of the given
// user. interval <= 0 disables the periodic loop; Open then publishes a
// single immediate heartbeat, which is what tests want.
func NewPublisher(mirror *state.Mirror, dispatcher *store.Dispatcher, bus *event.Bus, logger *logging.Logger, userID, userName string, interval time.Duration) *Publisher {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Publisher{
		mirror:     mirror,
		dispatcher: dispatcher,
		bus:        bus,
		logger:     logger.WithComponent("presence").WithUser(userID),
		userID:     userID,
		userName:   userName,
		interval:   interval,
		now:        time.Now,
	}
}

// Open starts heartbeating for a task's detail view. An already-open
// view is stopped first, so at most one heartbeat loop runs.
func (p *Publisher) Open(ctx context.Context, instanceID, taskID string) {
	p.Close()

	p.mu.Lock()
	p.instanceID = instanceID
	p.taskID = taskID

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()

	p.logger.Debug("presence opened", "instance_id", instanceID, "task_id", taskID)
	p.PublishOnce()

	if p.interval <= 0 {
		close(done)
		return
	}
	go p.heartbeatLoop(ctx, done)
}

// Close stops heartbeating. No presence write is issued at or after
// Close; the last written entry ages out of liveness on its own.
func (p *Publisher) Close() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.done = nil
	p.instanceID = ""
	p.taskID = ""
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
		p.logger.Debug("presence closed")
	}
}

// Target returns the instance and task currently heartbeating, or empty
// strings when no view is open.
func (p *Publisher) Target() (instanceID, taskID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.instanceID, p.taskID
}

// PublishOnce writes a single heartbeat for the open view. A no-op when
// no view is open.
func (p *Publisher) PublishOnce() {
	p.mu.Lock()
	instanceID, taskID := p.instanceID, p.taskID
	p.mu.Unlock()

	if instanceID == "" || taskID == "" {
		return
	}

	entry := model.PresenceEntry{
		TaskID:     taskID,
		UserName:   p.userName,
		LastSeenAt: p.now(),
	}

	// Mirror first so local reads see the fresh entry without waiting on
	// the durable write.
	p.mirror.Update(func(d *state.Data) {
		in, ok := d.Instances[instanceID]
		if !ok {
			return
		}
		if in.ActiveUsers == nil {
			in.ActiveUsers = make(map[string]model.PresenceEntry)
		}
		in.ActiveUsers[p.userID] = entry
	})

	p.dispatcher.EnqueuePresence(instanceID, p.userID, entry)
	p.bus.Publish(event.NewPresenceUpdatedEvent(instanceID, p.userID, taskID))
}

// heartbeatLoop republishes presence every interval until the view is
// closed.
func (p *Publisher) heartbeatLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PublishOnce()
		}
	}
}
