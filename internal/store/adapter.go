// Package store provides the persistence layer for the coordination
// engine: a narrow adapter interface with field-level last-writer-wins
// writes, a JSON file implementation, an in-memory implementation for
// tests, an fsnotify watcher for inbound remote updates, and an async
// write dispatcher with retry.
package store

import (
	"context"

	"github.com/benresonance-star/Task-Checker-sub001/internal/model"
)

// User document fields accepted by WriteUserField.
const (
	UserFieldActiveFocus = "activeFocus" // value: *model.FocusRef (nil clears)
	UserFieldActionSet   = "actionSet"   // value: []model.ActionSetItem
)

// Task fields accepted by WriteTaskField.
const (
	TaskFieldTimerDuration  = "timer.duration"  // value: int
	TaskFieldTimerRemaining = "timer.remaining" // value: int
	TaskFieldTimerRunning   = "timer.running"   // value: bool
	TaskFieldCompleted      = "completed"       // value: bool
)

// Adapter is the persistence contract. Every write is field-level and
// last-writer-wins: concurrent writers to different fields of the same
// document never clobber each other, concurrent writers to the same
// field resolve to whichever write lands last. No transactions.
//
// Implementations must be safe for concurrent use.
type Adapter interface {
	// ReadUser returns the user document, or errors.ErrUserNotFound.
	ReadUser(ctx context.Context, userID string) (*model.User, error)

	// ReadAllUsers returns every user document.
	ReadAllUsers(ctx context.Context) ([]*model.User, error)

	// WriteUserField overwrites a single user field. Unknown field names
	// return errors.ErrUnknownField.
	WriteUserField(ctx context.Context, userID, field string, value any) error

	// ReadInstance returns the instance document, or
	// errors.ErrInstanceNotFound.
	ReadInstance(ctx context.Context, instanceID string) (*model.Instance, error)

	// ReadAllInstances returns every instance document.
	ReadAllInstances(ctx context.Context) ([]*model.Instance, error)

	// WriteInstancePresence upserts one user's presence entry in the
	// instance's active-user map. Other entries are left untouched.
	WriteInstancePresence(ctx context.Context, instanceID, userID string, entry model.PresenceEntry) error

	// WriteTaskField overwrites a single field of a task inside an
	// instance document. Unknown field names return errors.ErrUnknownField;
	// a missing task returns errors.ErrTaskNotFound.
	WriteTaskField(ctx context.Context, instanceID, taskID, field string, value any) error

	// SaveUser writes a whole user document. Used for seeding and tests.
	SaveUser(ctx context.Context, user *model.User) error

	// SaveInstance writes a whole instance document. Used for seeding
	// and tests.
	SaveInstance(ctx context.Context, instance *model.Instance) error
}

// UserKey returns the store key for a user document.
func UserKey(userID string) string { return "users/" + userID }

// InstanceKey returns the store key for an instance document.
func InstanceKey(instanceID string) string { return "instances/" + instanceID }
