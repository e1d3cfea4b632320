// Package coordination wires the collaborative checklist components
// into a single facade, the Hub. A Hub owns one session on behalf of
// one local user: it mirrors the durable state in memory, serializes
// every mutation through that mirror, runs the global timer tick loop
// and the presence heartbeat, and folds in remote updates observed by
// the store watcher.
//
// Coordination here is advisory throughout. Focus and action-set claims
// signal intent without excluding anyone; conflicts are surfaced to the
// UI (multi-user focus, concurrent claimants) rather than prevented.
// Durable writes are optimistic and asynchronous, except for admin
// operations, which write synchronously and report failure to the
// caller.
//
// Typical usage:
//
//	hub, err := coordination.NewHub(coordination.Config{
//		Bus:           bus,
//		Store:         fileStore,
//		Logger:        logger,
//		CurrentUserID: "u1",
//	}, coordination.WithWatchDir(dataDir))
//	if err != nil { ... }
//
//	if err := hub.Start(ctx); err != nil { ... }
//	defer hub.Stop()
//
//	hub.ToggleTaskFocus(ref)
//	hub.ToggleTaskTimer(taskID)
package coordination
