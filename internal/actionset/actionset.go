// Package actionset implements per-user ordered action sets: the small
// personal queue of tasks a user intends to work through. Order is
// meaningful and task IDs are unique within a set. Sets are private to
// their owner except for the admin clear.
package actionset

import (
	"context"

	"github.com/benresonance-star/Task-Checker-sub001/internal/errors"
	"github.com/benresonance-star/Task-Checker-sub001/internal/event"
	"github.com/benresonance-star/Task-Checker-sub001/internal/logging"
	"github.com/benresonance-star/Task-Checker-sub001/internal/model"
	"github.com/benresonance-star/Task-Checker-sub001/internal/state"
	"github.com/benresonance-star/Task-Checker-sub001/internal/store"
)

// Manager mutates and reads user action sets. Regular mutations update
// the mirror optimistically and persist through the async dispatcher;
// the admin clear writes synchronously.
type Manager struct {
	mirror     *state.Mirror
	adapter    store.Adapter
	dispatcher *store.Dispatcher
	bus        *event.Bus
	logger     *logging.Logger
}

// NewManager creates an action-set Manager.
func NewManager(mirror *state.Mirror, adapter store.Adapter, dispatcher *store.Dispatcher, bus *event.Bus, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Manager{
		mirror:     mirror,
		adapter:    adapter,
		dispatcher: dispatcher,
		bus:        bus,
		logger:     logger.WithComponent("actionset"),
	}
}

// ToggleTask adds the item to the user's action set if its task is
// absent, or removes the existing entry if present. Adds append at the
// end; removes preserve the order of the remaining entries.
func (m *Manager) ToggleTask(userID string, item model.ActionSetItem) error {
	var (
		found bool
		size  int
	)

	m.mirror.Update(func(d *state.Data) {
		u, ok := d.Users[userID]
		if !ok {
			return
		}
		found = true

		if u.InActionSet(item.TaskID) {
			kept := u.ActionSet[:0]
			for _, existing := range u.ActionSet {
				if existing.TaskID != item.TaskID {
					kept = append(kept, existing)
				}
			}
			u.ActionSet = kept
		} else {
			u.ActionSet = append(u.ActionSet, item)
		}
		size = len(u.ActionSet)
	})

	if !found {
		return errors.NewCoordinationError("toggle action set", errors.ErrUserNotFound).WithUserID(userID)
	}

	m.persist(userID)
	m.logger.Debug("action set toggled", "user_id", userID, "task_id", item.TaskID, "size", size)
	m.bus.Publish(event.NewActionSetChangedEvent(userID, size))
	return nil
}

// Set replaces the user's action set wholesale, used for reorders. The
// replacement is deduplicated by task ID, first occurrence wins, so the
// uniqueness invariant holds no matter what the caller passes.
func (m *Manager) Set(userID string, items []model.ActionSetItem) error {
	deduped := make([]model.ActionSetItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.TaskID]; dup {
			continue
		}
		seen[item.TaskID] = struct{}{}
		deduped = append(deduped, item)
	}

	found := false
	m.mirror.Update(func(d *state.Data) {
		u, ok := d.Users[userID]
		if !ok {
			return
		}
		found = true
		u.ActionSet = deduped
	})

	if !found {
		return errors.NewCoordinationError("set action set", errors.ErrUserNotFound).WithUserID(userID)
	}

	m.persist(userID)
	m.bus.Publish(event.NewActionSetChangedEvent(userID, len(deduped)))
	return nil
}

// Clear empties the user's own action set.
func (m *Manager) Clear(userID string) error {
	return m.Set(userID, nil)
}

// AdminClear empties another user's action set. Only admins may call
// it; the durable write is synchronous and errors are surfaced.
func (m *Manager) AdminClear(ctx context.Context, adminID, targetUserID string) error {
	admin := m.mirror.User(adminID)
	if admin == nil {
		return errors.NewCoordinationError("admin clear action set", errors.ErrUserNotFound).WithUserID(adminID)
	}
	if !admin.IsAdmin() {
		return errors.NewCoordinationError("admin clear action set", errors.ErrNotAdmin).WithUserID(adminID)
	}

	found := false
	m.mirror.Update(func(d *state.Data) {
		u, ok := d.Users[targetUserID]
		if !ok {
			return
		}
		found = true
		u.ActionSet = nil
	})
	if !found {
		return errors.NewCoordinationError("admin clear action set", errors.ErrUserNotFound).WithUserID(targetUserID)
	}

	if err := m.adapter.WriteUserField(ctx, targetUserID, store.UserFieldActionSet, []model.ActionSetItem{}); err != nil {
		return errors.Wrap(err, "admin clear action set")
	}

	m.logger.Info("action set cleared by admin", "admin_id", adminID, "user_id", targetUserID)
	m.bus.Publish(event.NewActionSetChangedEvent(targetUserID, 0))
	return nil
}

// Items returns a copy of the user's current action set, in order.
func (m *Manager) Items(userID string) []model.ActionSetItem {
	u := m.mirror.User(userID)
	if u == nil {
		return nil
	}
	return u.ActionSet
}

// persist snapshots the current set and queues the durable write.
func (m *Manager) persist(userID string) {
	u := m.mirror.User(userID)
	if u == nil {
		return
	}
	items := u.ActionSet
	if items == nil {
		items = []model.ActionSetItem{}
	}
	m.dispatcher.EnqueueUserField(userID, store.UserFieldActionSet, items)
}
