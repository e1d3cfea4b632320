package coordination

import "time"

// hubConfig holds optional configuration for a Hub.
type hubConfig struct {
	tickInterval      time.Duration
	syncEveryTicks    int
	heartbeatInterval time.Duration
	livenessWindow    time.Duration
	writeRetries      int
	writeBackoff      time.Duration
	watchDir          string

	tickIntervalSet      bool
	heartbeatIntervalSet bool
	writeRetriesSet      bool
}

// Option configures a Hub.
type Option func(*hubConfig)

// WithTickInterval sets the timer engine's tick period. Zero or
// negative disables the periodic loop, leaving the engine to be driven
// through Tick directly.
func WithTickInterval(d time.Duration) Option {
	return func(c *hubConfig) {
		c.tickInterval = d
		c.tickIntervalSet = true
	}
}

// WithSyncEveryTicks sets how many ticks pass between durable syncs of
// running timers. A value of 0 uses the default.
func WithSyncEveryTicks(n int) Option {
	return func(c *hubConfig) { c.syncEveryTicks = n }
}

// WithHeartbeatInterval sets the presence publish cadence. Zero or
// negative disables the periodic heartbeat; opening a view still
// publishes once.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(c *hubConfig) {
		c.heartbeatInterval = d
		c.heartbeatIntervalSet = true
	}
}

// WithLivenessWindow sets how long after its last heartbeat a presence
// entry still counts as live. A value of 0 uses the default.
func WithLivenessWindow(d time.Duration) Option {
	return func(c *hubConfig) { c.livenessWindow = d }
}

// WithWriteRetries sets how many times the dispatcher retries a failed
// durable write.
func WithWriteRetries(n int) Option {
	return func(c *hubConfig) {
		c.writeRetries = n
		c.writeRetriesSet = true
	}
}

// WithWriteBackoff sets the initial retry backoff for failed writes.
func WithWriteBackoff(d time.Duration) Option {
	return func(c *hubConfig) { c.writeBackoff = d }
}

// WithWatchDir enables the remote-update watcher over the given data
// directory. Without it the hub never observes other clients' writes.
func WithWatchDir(dir string) Option {
	return func(c *hubConfig) { c.watchDir = dir }
}
