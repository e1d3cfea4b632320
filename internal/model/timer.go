package model

// DefaultTimerDuration is used by Reset when a task's duration was never
// set: 1200 seconds (20 minutes).
const DefaultTimerDuration = 1200

// Timer is a per-task countdown. Duration is the reset target in seconds;
// Remaining is the current countdown and is independent of Duration.
// Remaining never goes negative.
//
// The state machine has two states, Stopped and Running. Toggle flips
// between them. A tick while Running decrements Remaining; when Remaining
// hits zero the timer transitions to Stopped and stays at zero until an
// explicit Reset, Set, or Update re-arms it.
type Timer struct {
	Duration  int  `json:"duration"`
	Remaining int  `json:"remaining"`
	Running   bool `json:"running"`
}

// Toggle flips the timer between Running and Stopped.
func (t *Timer) Toggle() {
	t.Running = !t.Running
}

// Tick advances the countdown by one second. It is a no-op unless the
// timer is running. Returns true when this tick exhausted the countdown,
// which also stops the timer.
func (t *Timer) Tick() (expired bool) {
	if !t.Running {
		return false
	}
	if t.Remaining > 0 {
		t.Remaining--
	}
	if t.Remaining <= 0 {
		t.Remaining = 0
		t.Running = false
		return true
	}
	return false
}

// Set assigns both the reset target and the current countdown.
func (t *Timer) Set(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	t.Duration = seconds
	t.Remaining = seconds
}

// Update overwrites only the current countdown. Used for "+5 minutes"
// style adjustments and for adopting a freshly loaded remote value.
func (t *Timer) Update(remaining int) {
	if remaining < 0 {
		remaining = 0
	}
	t.Remaining = remaining
}

// Reset restores the countdown to the reset target, falling back to
// DefaultTimerDuration when no duration was ever set.
func (t *Timer) Reset() {
	if t.Duration > 0 {
		t.Remaining = t.Duration
	} else {
		t.Remaining = DefaultTimerDuration
	}
}
