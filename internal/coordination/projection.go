package coordination

import (
	"sort"
	"time"

	"github.com/benresonance-star/Task-Checker-sub001/internal/model"
	"github.com/benresonance-star/Task-Checker-sub001/internal/state"
)

// The projection is the read side of the hub: derived views over the
// mirror that UIs render from. Nothing here mutates state, and nothing
// here is stored; counts and liveness are recomputed on every call.

// CurrentUser returns a copy of the current user's document.
func (h *Hub) CurrentUser() *model.User {
	return h.mirror.User(h.userID)
}

// User returns a copy of any user's document, or nil.
func (h *Hub) User(userID string) *model.User {
	return h.mirror.User(userID)
}

// Users returns copies of all known users, sorted by ID for stable
// rendering.
func (h *Hub) Users() []*model.User {
	users := h.mirror.Users()
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// Instance returns a copy of a loaded instance, or nil.
func (h *Hub) Instance(instanceID string) *model.Instance {
	return h.mirror.Instance(instanceID)
}

// Instances returns copies of all loaded instances, sorted by ID.
func (h *Hub) Instances() []*model.Instance {
	instances := h.mirror.Instances()
	sort.Slice(instances, func(i, j int) bool { return instances[i].ID < instances[j].ID })
	return instances
}

// Task returns a copy of the task and its instance ID, or nil.
func (h *Hub) Task(taskID string) (*model.Task, string) {
	return h.mirror.Task(taskID)
}

// IsFocusedBy reports whether the given user currently focuses the task.
func (h *Hub) IsFocusedBy(userID string, ref model.FocusRef) bool {
	return h.focus.IsFocusedBy(userID, ref)
}

// ConcurrentFocusCount returns how many users currently focus the task.
// Derived from user focus state on every call; never stored.
func (h *Hub) ConcurrentFocusCount(ref model.FocusRef) int {
	return h.focus.ConcurrentFocusCount(ref)
}

// IsMultiUser reports whether two or more users focus the task.
func (h *Hub) IsMultiUser(ref model.FocusRef) bool {
	return h.focus.IsMultiUser(ref)
}

// ActionSet returns a copy of a user's ordered action set.
func (h *Hub) ActionSet(userID string) []model.ActionSetItem {
	return h.actionSet.Items(userID)
}

// LiveViewers returns the user IDs with a live presence entry for the
// task, judged against the hub's liveness window at call time. Sorted
// for stable rendering.
func (h *Hub) LiveViewers(instanceID, taskID string) []string {
	var viewers []string
	now := time.Now()
	h.mirror.Read(func(d *state.Data) {
		viewers = d.LiveViewers(instanceID, taskID, now, h.livenessWindow)
	})
	sort.Strings(viewers)
	return viewers
}

// Claimants returns the IDs of users whose action set contains the
// task, in user-ID order. A claim signals intent to work the task; like
// focus it is advisory and any number of users may hold one.
func (h *Hub) Claimants(taskID string) []string {
	var claimants []string
	h.mirror.Read(func(d *state.Data) {
		for id, u := range d.Users {
			if u.InActionSet(taskID) {
				claimants = append(claimants, id)
			}
		}
	})
	sort.Strings(claimants)
	return claimants
}
