// Package state holds the in-memory mirror of durable state. Local
// actions, the tick loop, and inbound remote updates all read and write
// the same mirror; every mutation funnels through a single serialized
// entry point so the components never race each other.
package state

import (
	"sync"
	"time"

	"github.com/benresonance-star/Task-Checker-sub001/internal/model"
)

// Data is the mirrored state: users by ID and the instances currently
// loaded in this session by ID. Mutation callbacks receive it by pointer
// and may modify it freely; nothing else holds a reference.
type Data struct {
	Users     map[string]*model.User
	Instances map[string]*model.Instance
}

// Mirror is the shared in-memory state container. All writes go through
// Update; reads return deep copies so callers never observe a mutation
// in progress.
type Mirror struct {
	mu   sync.RWMutex
	data Data
}

// NewMirror creates an empty Mirror.
func NewMirror() *Mirror {
	return &Mirror{
		data: Data{
			Users:     make(map[string]*model.User),
			Instances: make(map[string]*model.Instance),
		},
	}
}

// Update runs fn with exclusive access to the mirrored data. This is the
// single mutation entry point: local actions, tick advancement, and
// remote merges all serialize here.
func (m *Mirror) Update(fn func(*Data)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.data)
}

// Read runs fn with shared read access. fn must not retain references to
// the data past its return; use the snapshot accessors for that.
func (m *Mirror) Read(fn func(*Data)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn(&m.data)
}

// User returns a deep copy of the user, or nil if unknown.
func (m *Mirror) User(userID string) *model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.data.Users[userID]
	if !ok {
		return nil
	}
	return u.Clone()
}

// Users returns deep copies of all known users.
func (m *Mirror) Users() []*model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*model.User, 0, len(m.data.Users))
	for _, u := range m.data.Users {
		out = append(out, u.Clone())
	}
	return out
}

// Instance returns a deep copy of the instance, or nil if not loaded.
func (m *Mirror) Instance(instanceID string) *model.Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()

	in, ok := m.data.Instances[instanceID]
	if !ok {
		return nil
	}
	return in.Clone()
}

// Instances returns deep copies of all loaded instances.
func (m *Mirror) Instances() []*model.Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*model.Instance, 0, len(m.data.Instances))
	for _, in := range m.data.Instances {
		out = append(out, in.Clone())
	}
	return out
}

// Task returns a copy of the task and the ID of the instance containing
// it, searching every loaded instance. Returns nil and "" when no loaded
// instance contains the task.
func (m *Mirror) Task(taskID string) (*model.Task, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for id, in := range m.data.Instances {
		if t := in.FindTask(taskID); t != nil {
			cp := *t
			return &cp, id
		}
	}
	return nil, ""
}

// HasTask reports whether any loaded instance contains the task.
func (d *Data) HasTask(taskID string) bool {
	for _, in := range d.Instances {
		if in.FindTask(taskID) != nil {
			return true
		}
	}
	return false
}

// FindTask returns the live task pointer and its instance from the
// mutable data. For use inside Update callbacks only.
func (d *Data) FindTask(taskID string) (*model.Task, *model.Instance) {
	for _, in := range d.Instances {
		if t := in.FindTask(taskID); t != nil {
			return t, in
		}
	}
	return nil, nil
}

// PruneStaleReferences clears focus refs and drops action-set entries
// that point at tasks no loaded instance contains. Stale references are
// expected after remote edits delete tasks; they are dropped quietly,
// never treated as an error. Returns the number of references removed.
func (d *Data) PruneStaleReferences() int {
	pruned := 0
	for _, u := range d.Users {
		if u.ActiveFocus != nil && !d.HasTask(u.ActiveFocus.TaskID) {
			u.ActiveFocus = nil
			pruned++
		}
		if len(u.ActionSet) == 0 {
			continue
		}
		kept := u.ActionSet[:0]
		for _, item := range u.ActionSet {
			if d.HasTask(item.TaskID) {
				kept = append(kept, item)
			} else {
				pruned++
			}
		}
		u.ActionSet = kept
	}
	return pruned
}

// LiveViewers returns the userIDs with a live presence entry for the
// task, computed against now with the given window. Entries are never
// deleted from the map; staleness is decided here, at read time.
func (d *Data) LiveViewers(instanceID, taskID string, now time.Time, window time.Duration) []string {
	in, ok := d.Instances[instanceID]
	if !ok {
		return nil
	}

	var viewers []string
	for userID, entry := range in.ActiveUsers {
		if entry.TaskID == taskID && entry.LiveAt(now, window) {
			viewers = append(viewers, userID)
		}
	}
	return viewers
}
