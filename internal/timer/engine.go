// Package timer implements the global tick engine for per-task
// countdown timers. One loop ticks every running timer across every
// loaded instance; per-timer tickers would drift apart and multiply
// writes. Countdowns mutate locally every second and sync durably only
// every syncEvery ticks, so watching a timer run costs one write per
// ten seconds instead of one per second.
package timer

import (
	"context"
	"sync"
	"time"

	"github.com/benresonance-star/Task-Checker-sub001/internal/errors"
	"github.com/benresonance-star/Task-Checker-sub001/internal/event"
	"github.com/benresonance-star/Task-Checker-sub001/internal/logging"
	"github.com/benresonance-star/Task-Checker-sub001/internal/model"
	"github.com/benresonance-star/Task-Checker-sub001/internal/state"
	"github.com/benresonance-star/Task-Checker-sub001/internal/store"
)

// Defaults for the tick loop.
const (
	DefaultTickInterval = time.Second
	DefaultSyncEvery    = 10
)

// Engine owns the single countdown loop and the direct timer controls.
type Engine struct {
	mirror     *state.Mirror
	dispatcher *store.Dispatcher
	bus        *event.Bus
	logger     *logging.Logger

	interval  time.Duration
	syncEvery int

	mu        sync.Mutex
	tickCount uint64
	cancel    context.CancelFunc
	done      chan struct{}
	started   bool
}

// NewEngine creates a timer Engine. interval <= 0 disables the periodic
// loop; tests then drive the engine through Tick directly. syncEvery <= 0
// falls back to DefaultSyncEvery.
func NewEngine(mirror *state.Mirror, dispatcher *store.Dispatcher, bus *event.Bus, logger *logging.Logger, interval time.Duration, syncEvery int) *Engine {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if syncEvery <= 0 {
		syncEvery = DefaultSyncEvery
	}
	return &Engine{
		mirror:     mirror,
		dispatcher: dispatcher,
		bus:        bus,
		logger:     logger.WithComponent("timer"),
		interval:   interval,
		syncEvery:  syncEvery,
	}
}

// Start launches the tick loop.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return errors.ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	e.started = true

	if e.interval <= 0 {
		close(e.done)
		return nil
	}

	go e.tickLoop(ctx, e.done)
	return nil
}

// Stop halts the tick loop and waits for it to exit.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.started = false
	cancel, done := e.cancel, e.done
	e.mu.Unlock()

	cancel()
	<-done
}

func (e *Engine) tickLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// expiry identifies a timer that hit zero during a tick.
type expiry struct {
	instanceID string
	taskID     string
}

// runningTask identifies a still-running timer and its countdown value.
type runningTask struct {
	instanceID string
	taskID     string
	remaining  int
}

// Tick advances every running timer by one second. Expired timers
// auto-stop at zero and are persisted immediately; still-running timers
// are persisted only on syncEvery boundaries. Safe to call directly,
// which is how tests drive the engine.
func (e *Engine) Tick() {
	e.mu.Lock()
	e.tickCount++
	syncDue := e.tickCount%uint64(e.syncEvery) == 0
	e.mu.Unlock()

	var (
		expired []expiry
		running []runningTask
	)

	e.mirror.Update(func(d *state.Data) {
		for id, in := range d.Instances {
			in.WalkTasks(func(task *model.Task) {
				if !task.Timer.Running {
					return
				}
				if task.Timer.Tick() {
					expired = append(expired, expiry{instanceID: id, taskID: task.ID})
					return
				}
				running = append(running, runningTask{
					instanceID: id,
					taskID:     task.ID,
					remaining:  task.Timer.Remaining,
				})
			})
		}
	})

	// Expiry is a state transition, not a countdown step: it syncs right
	// away so other clients see the stop without waiting for a boundary.
	for _, ex := range expired {
		e.logger.Info("timer expired", "instance_id", ex.instanceID, "task_id", ex.taskID)
		e.dispatcher.EnqueueTaskField(ex.instanceID, ex.taskID, store.TaskFieldTimerRunning, false)
		e.dispatcher.EnqueueTaskField(ex.instanceID, ex.taskID, store.TaskFieldTimerRemaining, 0)
		e.bus.Publish(event.NewTimerExpiredEvent(ex.instanceID, ex.taskID))
	}

	if syncDue && len(running) > 0 {
		for _, r := range running {
			e.dispatcher.EnqueueTaskField(r.instanceID, r.taskID, store.TaskFieldTimerRemaining, r.remaining)
		}
		e.bus.Publish(event.NewTimerSyncedEvent(len(running)))
	}

	if len(expired) > 0 || len(running) > 0 {
		e.bus.Publish(event.NewTimerTickEvent(len(running)))
	}
}

// TickCount returns how many ticks the engine has processed.
func (e *Engine) TickCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tickCount
}

// ToggleTaskTimer starts or stops a task's timer. Direct controls are
// user actions, so the new state is persisted immediately rather than
// waiting for a sync boundary.
func (e *Engine) ToggleTaskTimer(taskID string) error {
	return e.mutate(taskID, func(t *model.Timer) {
		t.Toggle()
	}, func(instanceID string, t model.Timer) {
		e.dispatcher.EnqueueTaskField(instanceID, taskID, store.TaskFieldTimerRunning, t.Running)
		if t.Running {
			// Persist the countdown the run started from, so a crash
			// before the first sync boundary loses at most ten seconds.
			e.dispatcher.EnqueueTaskField(instanceID, taskID, store.TaskFieldTimerRemaining, t.Remaining)
		}
	})
}

// SetTaskTimer assigns a task's timer duration and countdown together.
func (e *Engine) SetTaskTimer(taskID string, seconds int) error {
	return e.mutate(taskID, func(t *model.Timer) {
		t.Set(seconds)
	}, func(instanceID string, t model.Timer) {
		e.dispatcher.EnqueueTaskField(instanceID, taskID, store.TaskFieldTimerDuration, t.Duration)
		e.dispatcher.EnqueueTaskField(instanceID, taskID, store.TaskFieldTimerRemaining, t.Remaining)
	})
}

// UpdateTaskTimer overwrites only a task's current countdown.
func (e *Engine) UpdateTaskTimer(taskID string, remaining int) error {
	return e.mutate(taskID, func(t *model.Timer) {
		t.Update(remaining)
	}, func(instanceID string, t model.Timer) {
		e.dispatcher.EnqueueTaskField(instanceID, taskID, store.TaskFieldTimerRemaining, t.Remaining)
	})
}

// ResetTaskTimer restores a task's countdown to its duration, or to the
// default duration when none was ever set.
func (e *Engine) ResetTaskTimer(taskID string) error {
	return e.mutate(taskID, func(t *model.Timer) {
		t.Reset()
	}, func(instanceID string, t model.Timer) {
		e.dispatcher.EnqueueTaskField(instanceID, taskID, store.TaskFieldTimerRemaining, t.Remaining)
	})
}

// mutate applies fn to the task's timer under the mirror lock, then
// hands the result to persist outside it.
func (e *Engine) mutate(taskID string, fn func(*model.Timer), persist func(instanceID string, t model.Timer)) error {
	var (
		instanceID string
		result     model.Timer
		found      bool
	)

	e.mirror.Update(func(d *state.Data) {
		task, in := d.FindTask(taskID)
		if task == nil {
			return
		}
		found = true
		fn(&task.Timer)
		instanceID = in.ID
		result = task.Timer
	})

	if !found {
		return errors.NewCoordinationError("timer control", errors.ErrTaskNotFound).WithTaskID(taskID)
	}

	persist(instanceID, result)
	return nil
}
