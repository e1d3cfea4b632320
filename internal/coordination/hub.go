package coordination

import (
	"context"
	"sync"
	"time"

	"github.com/benresonance-star/Task-Checker-sub001/internal/actionset"
	"github.com/benresonance-star/Task-Checker-sub001/internal/errors"
	"github.com/benresonance-star/Task-Checker-sub001/internal/event"
	"github.com/benresonance-star/Task-Checker-sub001/internal/focus"
	"github.com/benresonance-star/Task-Checker-sub001/internal/logging"
	"github.com/benresonance-star/Task-Checker-sub001/internal/model"
	"github.com/benresonance-star/Task-Checker-sub001/internal/presence"
	"github.com/benresonance-star/Task-Checker-sub001/internal/state"
	"github.com/benresonance-star/Task-Checker-sub001/internal/store"
	"github.com/benresonance-star/Task-Checker-sub001/internal/timer"
)

// Defaults applied when no option overrides them.
const (
	defaultWriteRetries = 3
	defaultWriteBackoff = 250 * time.Millisecond
)

// Config holds required dependencies for creating a Hub.
type Config struct {
	Bus           *event.Bus
	Store         store.Adapter
	Logger        *logging.Logger
	CurrentUserID string
}

// Hub wires the focus coordinator, action-set manager, presence
// publisher, and timer engine around a shared state mirror, and owns
// their lifecycle. It is the single entry point callers mutate through;
// every mutation serializes on the mirror.
type Hub struct {
	mu      sync.RWMutex
	started bool
	cancel  context.CancelFunc

	bus    *event.Bus
	store  store.Adapter
	logger *logging.Logger
	userID string

	mirror     *state.Mirror
	dispatcher *store.Dispatcher
	focus      *focus.Coordinator
	actionSet  *actionset.Manager
	publisher  *presence.Publisher
	engine     *timer.Engine
	watcher    *store.Watcher

	livenessWindow time.Duration

	// Subscriptions held while started, removed on Stop.
	subIDs []string
}

// NewHub creates a Hub over the given store. The current user must
// already exist in the store; their display name seeds the presence
// heartbeats.
func NewHub(cfg Config, opts ...Option) (*Hub, error) {
	if cfg.Bus == nil {
		return nil, errors.New("coordination: Bus is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("coordination: Store is required")
	}
	if cfg.CurrentUserID == "" {
		return nil, errors.New("coordination: CurrentUserID is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}

	hc := &hubConfig{
		tickInterval:      timer.DefaultTickInterval,
		syncEveryTicks:    timer.DefaultSyncEvery,
		heartbeatInterval: presence.DefaultPublishInterval,
		livenessWindow:    model.DefaultLivenessWindow,
		writeRetries:      defaultWriteRetries,
		writeBackoff:      defaultWriteBackoff,
	}
	for _, opt := range opts {
		opt(hc)
	}
	if hc.syncEveryTicks <= 0 {
		hc.syncEveryTicks = timer.DefaultSyncEvery
	}
	if hc.livenessWindow <= 0 {
		hc.livenessWindow = model.DefaultLivenessWindow
	}
	if hc.writeBackoff <= 0 {
		hc.writeBackoff = defaultWriteBackoff
	}

	user, err := cfg.Store.ReadUser(context.Background(), cfg.CurrentUserID)
	if err != nil {
		return nil, errors.Wrap(err, "coordination: load current user")
	}

	mirror := state.NewMirror()
	dispatcher := store.NewDispatcher(cfg.Store, cfg.Bus, logger, hc.writeRetries, hc.writeBackoff)

	h := &Hub{
		bus:            cfg.Bus,
		store:          cfg.Store,
		logger:         logger.WithComponent("hub").WithUser(cfg.CurrentUserID),
		userID:         cfg.CurrentUserID,
		mirror:         mirror,
		dispatcher:     dispatcher,
		focus:          focus.NewCoordinator(mirror, cfg.Store, dispatcher, cfg.Bus, logger),
		actionSet:      actionset.NewManager(mirror, cfg.Store, dispatcher, cfg.Bus, logger),
		publisher:      presence.NewPublisher(mirror, dispatcher, cfg.Bus, logger, user.ID, user.DisplayName, hc.heartbeatInterval),
		engine:         timer.NewEngine(mirror, dispatcher, cfg.Bus, logger, hc.tickInterval, hc.syncEveryTicks),
		livenessWindow: hc.livenessWindow,
	}

	if hc.watchDir != "" {
		w, err := store.NewWatcher(hc.watchDir, cfg.Bus, logger)
		if err != nil {
			return nil, errors.Wrap(err, "coordination: create watcher")
		}
		h.watcher = w
	}

	return h, nil
}

// Start loads users and instances into the mirror and brings up the
// dispatcher, the tick loop, and the remote-update watcher. Returns an
// error if the hub is already started.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started {
		return errors.ErrAlreadyStarted
	}

	if err := h.loadAll(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.started = true

	h.dispatcher.Start(ctx)

	if err := h.engine.Start(ctx); err != nil {
		h.started = false
		cancel()
		h.dispatcher.Stop()
		return err
	}

	// Remote updates may come from the watcher or from anything else
	// publishing on the bus, so the merge handler is always live.
	h.subIDs = append(h.subIDs, h.bus.Subscribe("remote.updated", h.onRemoteUpdated))

	if h.watcher != nil {
		if err := h.watcher.Start(); err != nil {
			h.started = false
			cancel()
			h.engine.Stop()
			h.dispatcher.Stop()
			return errors.Wrap(err, "coordination: start watcher")
		}
	}

	h.logger.Info("hub started")
	return nil
}

// Stop shuts down components in reverse start order and waits for their
// loops to exit. It is idempotent. Writes already queued are drained
// before the dispatcher stops.
func (h *Hub) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		return nil
	}

	h.publisher.Close()

	for _, id := range h.subIDs {
		h.bus.Unsubscribe(id)
	}
	h.subIDs = nil

	if h.watcher != nil {
		h.watcher.Stop()
	}
	h.engine.Stop()
	h.dispatcher.Stop()
	h.cancel()

	h.started = false
	h.logger.Info("hub stopped")
	return nil
}

// Running returns whether the hub is currently started.
func (h *Hub) Running() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.started
}

// loadAll reads every user and instance document into the mirror.
func (h *Hub) loadAll(ctx context.Context) error {
	users, err := h.store.ReadAllUsers(ctx)
	if err != nil {
		return errors.Wrap(err, "coordination: load users")
	}
	instances, err := h.store.ReadAllInstances(ctx)
	if err != nil {
		return errors.Wrap(err, "coordination: load instances")
	}

	h.mirror.Update(func(d *state.Data) {
		for _, u := range users {
			d.Users[u.ID] = u
		}
		for _, in := range instances {
			d.Instances[in.ID] = in
		}
		d.PruneStaleReferences()
	})

	h.logger.Info("state loaded", "users", len(users), "instances", len(instances))
	return nil
}

// onRemoteUpdated reloads a document another client wrote and replaces
// the mirrored copy. Merging is last-writer-wins at document level;
// stale focus and action-set references left behind by remote edits are
// pruned afterwards.
func (h *Hub) onRemoteUpdated(e event.Event) {
	ev, ok := e.(event.RemoteUpdatedEvent)
	if !ok {
		return
	}

	ctx, cancelLoad := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelLoad()

	switch ev.Kind {
	case event.RemoteUpdateUser:
		u, err := h.store.ReadUser(ctx, ev.ID)
		if err != nil {
			if !errors.Is(err, errors.ErrUserNotFound) {
				h.logger.Warn("remote user reload failed", "id", ev.ID, "error", err)
			}
			return
		}
		h.mirror.Update(func(d *state.Data) {
			d.Users[u.ID] = u
			d.PruneStaleReferences()
		})

	case event.RemoteUpdateInstance:
		in, err := h.store.ReadInstance(ctx, ev.ID)
		if err != nil {
			if !errors.Is(err, errors.ErrInstanceNotFound) {
				h.logger.Warn("remote instance reload failed", "id", ev.ID, "error", err)
			}
			return
		}
		h.mirror.Update(func(d *state.Data) {
			d.Instances[in.ID] = in
			d.PruneStaleReferences()
		})
	}
}

// -----------------------------------------------------------------------------
// Mutations
// -----------------------------------------------------------------------------

// ToggleTaskFocus toggles the current user's focus on a task. When a
// focus is set, the presence heartbeat retargets to the focused task;
// when it is cleared, the heartbeat stops.
func (h *Hub) ToggleTaskFocus(ref model.FocusRef) error {
	if err := h.focus.ToggleTaskFocus(h.userID, ref); err != nil {
		return err
	}

	if u := h.mirror.User(h.userID); u != nil && u.ActiveFocus != nil {
		h.publisher.Open(context.Background(), u.ActiveFocus.InstanceID, u.ActiveFocus.TaskID)
	} else {
		h.publisher.Close()
	}
	return nil
}

// AdminClearUserFocus force-clears another user's focus. Admin only;
// the write is synchronous and errors are surfaced.
func (h *Hub) AdminClearUserFocus(ctx context.Context, targetUserID string) error {
	return h.focus.AdminClearUserFocus(ctx, h.userID, targetUserID)
}

// ToggleActionSetTask toggles a task in the current user's action set.
func (h *Hub) ToggleActionSetTask(item model.ActionSetItem) error {
	return h.actionSet.ToggleTask(h.userID, item)
}

// SetActionSet replaces the current user's action set, preserving the
// given order.
func (h *Hub) SetActionSet(items []model.ActionSetItem) error {
	return h.actionSet.Set(h.userID, items)
}

// ClearActionSet empties the current user's action set.
func (h *Hub) ClearActionSet() error {
	return h.actionSet.Clear(h.userID)
}

// AdminClearActionSet empties another user's action set. Admin only.
func (h *Hub) AdminClearActionSet(ctx context.Context, targetUserID string) error {
	return h.actionSet.AdminClear(ctx, h.userID, targetUserID)
}

// OpenTaskView starts presence heartbeats for a task detail view.
func (h *Hub) OpenTaskView(ctx context.Context, instanceID, taskID string) {
	h.publisher.Open(ctx, instanceID, taskID)
}

// CloseTaskView stops presence heartbeats. The last entry ages out of
// liveness on its own.
func (h *Hub) CloseTaskView() {
	h.publisher.Close()
}

// ToggleTaskTimer starts or stops a task's countdown.
func (h *Hub) ToggleTaskTimer(taskID string) error {
	return h.engine.ToggleTaskTimer(taskID)
}

// SetTaskTimer assigns a task's timer duration and countdown.
func (h *Hub) SetTaskTimer(taskID string, seconds int) error {
	return h.engine.SetTaskTimer(taskID, seconds)
}

// UpdateTaskTimer overwrites a task's current countdown.
func (h *Hub) UpdateTaskTimer(taskID string, remaining int) error {
	return h.engine.UpdateTaskTimer(taskID, remaining)
}

// ResetTaskTimer restores a task's countdown to its duration.
func (h *Hub) ResetTaskTimer(taskID string) error {
	return h.engine.ResetTaskTimer(taskID)
}

// Tick advances the timer engine by one tick. Exposed for tests and for
// callers that drive time themselves.
func (h *Hub) Tick() {
	h.engine.Tick()
}

// ToggleTaskCompleted flips a task's completed flag, persisting through
// the dispatcher.
func (h *Hub) ToggleTaskCompleted(taskID string) error {
	var (
		instanceID string
		completed  bool
		found      bool
	)

	h.mirror.Update(func(d *state.Data) {
		task, in := d.FindTask(taskID)
		if task == nil {
			return
		}
		found = true
		task.Completed = !task.Completed
		task.LastUpdated = time.Now()
		instanceID = in.ID
		completed = task.Completed
	})

	if !found {
		return errors.NewCoordinationError("toggle completed", errors.ErrTaskNotFound).WithTaskID(taskID)
	}

	h.dispatcher.EnqueueTaskField(instanceID, taskID, store.TaskFieldCompleted, completed)
	h.logger.Debug("task completion toggled", "task_id", taskID, "completed", completed)
	return nil
}
