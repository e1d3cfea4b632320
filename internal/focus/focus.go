// Package focus implements per-user advisory task focus. Focus marks
// what a user is concentrating on right now; it is a signal, never a
// lock. Any number of users may focus the same task at the same time,
// and the multi-user condition is surfaced, not prevented.
package focus

import (
	"context"
	"time"

	"github.com/benresonance-star/Task-Checker-sub001/internal/errors"
	"github.com/benresonance-star/Task-Checker-sub001/internal/event"
	"github.com/benresonance-star/Task-Checker-sub001/internal/logging"
	"github.com/benresonance-star/Task-Checker-sub001/internal/model"
	"github.com/benresonance-star/Task-Checker-sub001/internal/state"
	"github.com/benresonance-star/Task-Checker-sub001/internal/store"
)

// Coordinator mutates and reads user focus state. Regular mutations are
// optimistic: the mirror is updated first and the durable write goes
// through the async dispatcher. Admin mutations write synchronously and
// surface store errors to the caller.
type Coordinator struct {
	mirror     *state.Mirror
	adapter    store.Adapter
	dispatcher *store.Dispatcher
	bus        *event.Bus
	logger     *logging.Logger

	now func() time.Time
}

// NewCoordinator creates a focus Coordinator.
func NewCoordinator(mirror *state.Mirror, adapter store.Adapter, dispatcher *store.Dispatcher, bus *event.Bus, logger *logging.Logger) *Coordinator {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Coordinator{
		mirror:     mirror,
		adapter:    adapter,
		dispatcher: dispatcher,
		bus:        bus,
		logger:     logger.WithComponent("focus"),
		now:        time.Now,
	}
}

// ToggleTaskFocus toggles the user's focus on the given task. Focusing
// an already-focused task clears the focus; focusing anything else
// replaces the previous focus wholesale, so a user holds at most one
// focus at a time. A fresh timestamp is stamped on every set.
func (c *Coordinator) ToggleTaskFocus(userID string, ref model.FocusRef) error {
	var (
		cleared  bool
		eventRef model.FocusRef
		found    bool
	)

	c.mirror.Update(func(d *state.Data) {
		u, ok := d.Users[userID]
		if !ok {
			return
		}
		found = true

		if u.FocusedOn(ref) {
			eventRef = *u.ActiveFocus
			u.ActiveFocus = nil
			cleared = true
			return
		}

		ref.Timestamp = c.now()
		u.ActiveFocus = &ref
		eventRef = ref
	})

	if !found {
		return errors.NewCoordinationError("toggle focus", errors.ErrUserNotFound).WithUserID(userID)
	}

	var value *model.FocusRef
	if !cleared {
		v := eventRef
		value = &v
	}
	c.dispatcher.EnqueueUserField(userID, store.UserFieldActiveFocus, value)

	c.logger.Debug("focus toggled",
		"user_id", userID, "task_id", ref.TaskID, "cleared", cleared)
	c.bus.Publish(event.NewFocusChangedEvent(userID, eventRef, cleared))
	return nil
}

// AdminClearUserFocus force-clears another user's focus. Only admins
// may call it; the durable write is synchronous and its error is
// returned, because the admin is standing by for the result.
func (c *Coordinator) AdminClearUserFocus(ctx context.Context, adminID, targetUserID string) error {
	admin := c.mirror.User(adminID)
	if admin == nil {
		return errors.NewCoordinationError("admin clear focus", errors.ErrUserNotFound).WithUserID(adminID)
	}
	if !admin.IsAdmin() {
		return errors.NewCoordinationError("admin clear focus", errors.ErrNotAdmin).WithUserID(adminID)
	}

	found := false
	c.mirror.Update(func(d *state.Data) {
		u, ok := d.Users[targetUserID]
		if !ok {
			return
		}
		found = true
		u.ActiveFocus = nil
	})
	if !found {
		return errors.NewCoordinationError("admin clear focus", errors.ErrUserNotFound).WithUserID(targetUserID)
	}

	if err := c.adapter.WriteUserField(ctx, targetUserID, store.UserFieldActiveFocus, (*model.FocusRef)(nil)); err != nil {
		return errors.Wrap(err, "admin clear focus")
	}

	c.logger.Info("focus cleared by admin", "admin_id", adminID, "user_id", targetUserID)
	c.bus.Publish(event.NewFocusAdminClearedEvent(adminID, targetUserID))
	return nil
}

// ConcurrentFocusCount returns how many users currently focus the given
// task. The count is derived at read time from every user's focus state;
// nothing stores it. Focus refs pointing at tasks no loaded instance
// contains are skipped, so stale refs never inflate the count.
func (c *Coordinator) ConcurrentFocusCount(ref model.FocusRef) int {
	count := 0
	c.mirror.Read(func(d *state.Data) {
		if !d.HasTask(ref.TaskID) {
			return
		}
		for _, u := range d.Users {
			if u.FocusedOn(ref) {
				count++
			}
		}
	})
	return count
}

// IsMultiUser reports whether two or more users focus the given task.
// UIs use this to highlight potential duplicated effort.
func (c *Coordinator) IsMultiUser(ref model.FocusRef) bool {
	return c.ConcurrentFocusCount(ref) >= 2
}

// IsFocusedBy reports whether the given user currently focuses the task.
func (c *Coordinator) IsFocusedBy(userID string, ref model.FocusRef) bool {
	u := c.mirror.User(userID)
	return u != nil && u.FocusedOn(ref)
}
