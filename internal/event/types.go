package event

import (
	"time"

	"github.com/benresonance-star/Task-Checker-sub001/internal/model"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "focus.changed", "timer.expired")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Focus Events
// -----------------------------------------------------------------------------

// FocusChangedEvent is emitted when a user's active focus is set or
// cleared. Ref is the new focus; Cleared is true when the toggle removed
// the focus (Ref then holds the previous target).
type FocusChangedEvent struct {
	baseEvent
	UserID  string
	Ref     model.FocusRef
	Cleared bool
}

// NewFocusChangedEvent creates a FocusChangedEvent.
func NewFocusChangedEvent(userID string, ref model.FocusRef, cleared bool) FocusChangedEvent {
	return FocusChangedEvent{
		baseEvent: newBaseEvent("focus.changed"),
		UserID:    userID,
		Ref:       ref,
		Cleared:   cleared,
	}
}

// FocusAdminClearedEvent is emitted when an admin force-clears another
// user's focus.
type FocusAdminClearedEvent struct {
	baseEvent
	AdminID      string
	TargetUserID string
}

// NewFocusAdminClearedEvent creates a FocusAdminClearedEvent.
func NewFocusAdminClearedEvent(adminID, targetUserID string) FocusAdminClearedEvent {
	return FocusAdminClearedEvent{
		baseEvent:    newBaseEvent("focus.admin_cleared"),
		AdminID:      adminID,
		TargetUserID: targetUserID,
	}
}

// -----------------------------------------------------------------------------
// Action-Set Events
// -----------------------------------------------------------------------------

// ActionSetChangedEvent is emitted whenever a user's action set is
// mutated (toggle, reorder, clear, or admin clear).
type ActionSetChangedEvent struct {
	baseEvent
	UserID string
	Size   int // Entry count after the mutation
}

// NewActionSetChangedEvent creates an ActionSetChangedEvent.
func NewActionSetChangedEvent(userID string, size int) ActionSetChangedEvent {
	return ActionSetChangedEvent{
		baseEvent: newBaseEvent("actionset.changed"),
		UserID:    userID,
		Size:      size,
	}
}

// -----------------------------------------------------------------------------
// Presence Events
// -----------------------------------------------------------------------------

// PresenceUpdatedEvent is emitted after a heartbeat writes a presence
// entry into an instance's active-user map.
type PresenceUpdatedEvent struct {
	baseEvent
	InstanceID string
	UserID     string
	TaskID     string
}

// NewPresenceUpdatedEvent creates a PresenceUpdatedEvent.
func NewPresenceUpdatedEvent(instanceID, userID, taskID string) PresenceUpdatedEvent {
	return PresenceUpdatedEvent{
		baseEvent:  newBaseEvent("presence.updated"),
		InstanceID: instanceID,
		UserID:     userID,
		TaskID:     taskID,
	}
}

// -----------------------------------------------------------------------------
// Timer Events
// -----------------------------------------------------------------------------

// TimerTickEvent is emitted once per engine tick when at least one timer
// was advanced. Consumers should treat it as a redraw hint, not a clock.
type TimerTickEvent struct {
	baseEvent
	RunningCount int // Timers still running after this tick
}

// NewTimerTickEvent creates a TimerTickEvent.
func NewTimerTickEvent(runningCount int) TimerTickEvent {
	return TimerTickEvent{
		baseEvent:    newBaseEvent("timer.tick"),
		RunningCount: runningCount,
	}
}

// TimerExpiredEvent is emitted when a running timer reaches zero and
// auto-stops.
type TimerExpiredEvent struct {
	baseEvent
	InstanceID string
	TaskID     string
}

// NewTimerExpiredEvent creates a TimerExpiredEvent.
func NewTimerExpiredEvent(instanceID, taskID string) TimerExpiredEvent {
	return TimerExpiredEvent{
		baseEvent:  newBaseEvent("timer.expired"),
		InstanceID: instanceID,
		TaskID:     taskID,
	}
}

// TimerSyncedEvent is emitted at each 10-tick boundary after the engine
// dispatches durable writes for the running timers.
type TimerSyncedEvent struct {
	baseEvent
	TaskCount int // Number of running tasks whose remaining value was persisted
}

// NewTimerSyncedEvent creates a TimerSyncedEvent.
func NewTimerSyncedEvent(taskCount int) TimerSyncedEvent {
	return TimerSyncedEvent{
		baseEvent: newBaseEvent("timer.synced"),
		TaskCount: taskCount,
	}
}

// -----------------------------------------------------------------------------
// Store Events
// -----------------------------------------------------------------------------

// RemoteUpdateKind identifies which document class changed remotely.
type RemoteUpdateKind string

const (
	RemoteUpdateUser     RemoteUpdateKind = "user"
	RemoteUpdateInstance RemoteUpdateKind = "instance"
)

// RemoteUpdatedEvent is emitted by the store watcher when another client
// writes a user or instance document. The facade reloads and merges the
// document in response.
type RemoteUpdatedEvent struct {
	baseEvent
	Kind RemoteUpdateKind
	ID   string // User or instance ID
}

// NewRemoteUpdatedEvent creates a RemoteUpdatedEvent.
func NewRemoteUpdatedEvent(kind RemoteUpdateKind, id string) RemoteUpdatedEvent {
	return RemoteUpdatedEvent{
		baseEvent: newBaseEvent("remote.updated"),
		Kind:      kind,
		ID:        id,
	}
}

// WriteFailedEvent is emitted when a durable write has exhausted its
// retries. Local optimistic state is kept; the event lets the UI surface
// a recoverable notification.
type WriteFailedEvent struct {
	baseEvent
	Key   string // Store key of the failed write
	Field string // Field that was being written
	Error string // Final error message
}

// NewWriteFailedEvent creates a WriteFailedEvent.
func NewWriteFailedEvent(key, field, errMsg string) WriteFailedEvent {
	return WriteFailedEvent{
		baseEvent: newBaseEvent("store.write_failed"),
		Key:       key,
		Field:     field,
		Error:     errMsg,
	}
}
