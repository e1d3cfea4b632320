// Package model defines the shared data types for the collaborative
// checklist coordination engine: users with their advisory focus and
// personal action sets, checklist instances with their task trees, and
// the ephemeral presence entries published by heartbeats.
package model

import "time"

// Role controls access to privileged operations. Admins may force-clear
// another user's focus or action set; viewers may only mutate their own.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

// FocusRef identifies the single task a user is advisorily concentrating
// on. Focus is never exclusive: any number of users may hold an identical
// FocusRef at the same time.
type FocusRef struct {
	ProjectID  string    `json:"projectId"`
	InstanceID string    `json:"instanceId"`
	TaskID     string    `json:"taskId"`
	Timestamp  time.Time `json:"timestamp"`
}

// SameTarget reports whether two refs point at the same task, ignoring
// the timestamp.
func (f FocusRef) SameTarget(other FocusRef) bool {
	return f.ProjectID == other.ProjectID &&
		f.InstanceID == other.InstanceID &&
		f.TaskID == other.TaskID
}

// ActionSetItem is one entry in a user's personal ordered work queue.
type ActionSetItem struct {
	ProjectID  string `json:"projectId"`
	InstanceID string `json:"instanceId"`
	TaskID     string `json:"taskId"`
}

// User is a team member. ActiveFocus is nil when the user has no focused
// task. ActionSet is ordered; order is meaningful and taskIDs are unique
// within it.
type User struct {
	ID          string          `json:"id"`
	DisplayName string          `json:"displayName"`
	Role        Role            `json:"role"`
	ActiveFocus *FocusRef       `json:"activeFocus,omitempty"`
	ActionSet   []ActionSetItem `json:"actionSet,omitempty"`
}

// IsAdmin reports whether the user may invoke privileged operations.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// FocusedOn reports whether the user's active focus targets the given task.
func (u *User) FocusedOn(ref FocusRef) bool {
	return u.ActiveFocus != nil && u.ActiveFocus.SameTarget(ref)
}

// InActionSet reports whether the user's action set contains the taskID.
func (u *User) InActionSet(taskID string) bool {
	for _, item := range u.ActionSet {
		if item.TaskID == taskID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the user. Callers that hand users across
// goroutine boundaries must clone first.
func (u *User) Clone() *User {
	cp := *u
	if u.ActiveFocus != nil {
		ref := *u.ActiveFocus
		cp.ActiveFocus = &ref
	}
	if u.ActionSet != nil {
		cp.ActionSet = make([]ActionSetItem, len(u.ActionSet))
		copy(cp.ActionSet, u.ActionSet)
	}
	return &cp
}

// Task is a single checklist item. The Timer value is the per-task
// countdown state; LastUpdated tracks the most recent mutation from any
// client.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Completed   bool      `json:"completed"`
	Timer       Timer     `json:"timer"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Section is a node in an instance's task tree. Sections nest arbitrarily.
type Section struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Tasks       []*Task    `json:"tasks,omitempty"`
	Subsections []*Section `json:"subsections,omitempty"`
}

// PresenceEntry is the ephemeral "user has this task's detail view open"
// signal. Entries are never deleted; liveness is computed at read time.
type PresenceEntry struct {
	TaskID     string    `json:"taskId"`
	UserName   string    `json:"userName"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}

// DefaultLivenessWindow is how long after its last heartbeat a presence
// entry is still considered live: 4.5x the publish interval, tolerant of
// a missed beat or two without flapping.
const DefaultLivenessWindow = 45 * time.Second

// LiveAt reports whether the entry counts as live at the given moment.
// The boundary is strict: an entry exactly window old is not live.
func (p PresenceEntry) LiveAt(now time.Time, window time.Duration) bool {
	return now.Sub(p.LastSeenAt) < window
}

// Instance is a live, in-progress checklist derived from a master
// template. ActiveUsers maps userID to that user's latest presence entry.
type Instance struct {
	ID          string                   `json:"id"`
	MasterID    string                   `json:"masterId"`
	Title       string                   `json:"title"`
	Version     int                      `json:"version"`
	Sections    []*Section               `json:"sections,omitempty"`
	ActiveUsers map[string]PresenceEntry `json:"activeUsers,omitempty"`
}

// FindTask returns the task with the given ID anywhere in the section
// tree, or nil if the instance does not contain it.
func (in *Instance) FindTask(taskID string) *Task {
	var found *Task
	in.WalkTasks(func(t *Task) {
		if t.ID == taskID {
			found = t
		}
	})
	return found
}

// WalkTasks invokes fn for every task in the section tree, depth-first in
// section order.
func (in *Instance) WalkTasks(fn func(*Task)) {
	var walk func([]*Section)
	walk = func(sections []*Section) {
		for _, s := range sections {
			for _, t := range s.Tasks {
				fn(t)
			}
			walk(s.Subsections)
		}
	}
	walk(in.Sections)
}

// Clone returns a deep copy of the instance, including its section tree
// and presence map.
func (in *Instance) Clone() *Instance {
	cp := *in
	cp.Sections = cloneSections(in.Sections)
	if in.ActiveUsers != nil {
		cp.ActiveUsers = make(map[string]PresenceEntry, len(in.ActiveUsers))
		for id, entry := range in.ActiveUsers {
			cp.ActiveUsers[id] = entry
		}
	}
	return &cp
}

func cloneSections(sections []*Section) []*Section {
	if sections == nil {
		return nil
	}
	out := make([]*Section, len(sections))
	for i, s := range sections {
		sc := *s
		sc.Tasks = make([]*Task, len(s.Tasks))
		for j, t := range s.Tasks {
			tc := *t
			sc.Tasks[j] = &tc
		}
		sc.Subsections = cloneSections(s.Subsections)
		out[i] = &sc
	}
	return out
}
