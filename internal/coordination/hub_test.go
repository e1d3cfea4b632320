package coordination

import (
	"context"
	"testing"
	"time"

	"github.com/benresonance-star/Task-Checker-sub001/internal/errors"
	"github.com/benresonance-star/Task-Checker-sub001/internal/event"
	"github.com/benresonance-star/Task-Checker-sub001/internal/model"
	"github.com/benresonance-star/Task-Checker-sub001/internal/store"
)

func seedStore(t *testing.T) *store.MemStore {
	t.Helper()
	ctx := context.Background()
	ms := store.NewMemStore()

	users := []*model.User{
		{ID: "u1", DisplayName: "Ada", Role: model.RoleAdmin},
		{ID: "u2", DisplayName: "Ben", Role: model.RoleViewer},
	}
	for _, u := range users {
		if err := ms.SaveUser(ctx, u); err != nil {
			t.Fatal(err)
		}
	}

	instance := &model.Instance{
		ID:    "i1",
		Title: "Launch",
		Sections: []*model.Section{
			{ID: "s1", Tasks: []*model.Task{
				{ID: "t1", Title: "Fuel", Timer: model.Timer{Duration: 60, Remaining: 60}},
				{ID: "t2", Title: "Guidance"},
			}},
		},
	}
	if err := ms.SaveInstance(ctx, instance); err != nil {
		t.Fatal(err)
	}
	return ms
}

// newTestHub creates a started hub with loops disabled so tests drive
// ticks and heartbeats directly.
func newTestHub(t *testing.T, userID string) (*Hub, *store.MemStore, *event.Bus) {
	t.Helper()
	ms := seedStore(t)
	bus := event.NewBus()

	hub, err := NewHub(Config{
		Bus:           bus,
		Store:         ms,
		CurrentUserID: userID,
	},
		WithTickInterval(0),
		WithHeartbeatInterval(0),
		WithWriteBackoff(time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := hub.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = hub.Stop() })
	return hub, ms, bus
}

func ref(taskID string) model.FocusRef {
	return model.FocusRef{InstanceID: "i1", TaskID: taskID}
}

func TestNewHubValidation(t *testing.T) {
	ms := seedStore(t)
	bus := event.NewBus()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing bus", Config{Store: ms, CurrentUserID: "u1"}},
		{"missing store", Config{Bus: bus, CurrentUserID: "u1"}},
		{"missing user ID", Config{Bus: bus, Store: ms}},
		{"unknown user", Config{Bus: bus, Store: ms, CurrentUserID: "ghost"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewHub(tt.cfg); err == nil {
				t.Error("NewHub() succeeded, want error")
			}
		})
	}
}

func TestLifecycle(t *testing.T) {
	hub, _, _ := newTestHub(t, "u1")

	if !hub.Running() {
		t.Error("Running() = false after Start")
	}
	if err := hub.Start(context.Background()); !errors.Is(err, errors.ErrAlreadyStarted) {
		t.Errorf("second Start err = %v, want ErrAlreadyStarted", err)
	}
	if err := hub.Stop(); err != nil {
		t.Fatal(err)
	}
	if hub.Running() {
		t.Error("Running() = true after Stop")
	}
	if err := hub.Stop(); err != nil {
		t.Errorf("second Stop err = %v, want nil", err)
	}
}

func TestStartLoadsState(t *testing.T) {
	hub, _, _ := newTestHub(t, "u1")

	if got := len(hub.Users()); got != 2 {
		t.Errorf("loaded %d users, want 2", got)
	}
	if got := len(hub.Instances()); got != 1 {
		t.Errorf("loaded %d instances, want 1", got)
	}
	if task, instanceID := hub.Task("t1"); task == nil || instanceID != "i1" {
		t.Errorf("Task(t1) = %v, %q", task, instanceID)
	}
}

func TestFocusDrivesPresence(t *testing.T) {
	hub, _, _ := newTestHub(t, "u1")

	if err := hub.ToggleTaskFocus(ref("t1")); err != nil {
		t.Fatal(err)
	}

	// Focusing opened the detail view: the heartbeat published once and
	// the user appears as a live viewer.
	viewers := hub.LiveViewers("i1", "t1")
	if len(viewers) != 1 || viewers[0] != "u1" {
		t.Errorf("LiveViewers = %v, want [u1]", viewers)
	}

	if !hub.IsFocusedBy("u1", ref("t1")) {
		t.Error("IsFocusedBy = false after toggle")
	}
	if hub.IsMultiUser(ref("t1")) {
		t.Error("IsMultiUser = true with a single focus")
	}

	// Clearing focus stops the heartbeat.
	if err := hub.ToggleTaskFocus(ref("t1")); err != nil {
		t.Fatal(err)
	}
	if _, taskID := hub.publisher.Target(); taskID != "" {
		t.Errorf("heartbeat target after clear = %q, want none", taskID)
	}
}

func TestTwoUserFocusScenario(t *testing.T) {
	hub, _, _ := newTestHub(t, "u1")

	// Simulate the second user focusing through their own coordinator.
	if err := hub.focus.ToggleTaskFocus("u2", ref("t1")); err != nil {
		t.Fatal(err)
	}
	if err := hub.ToggleTaskFocus(ref("t1")); err != nil {
		t.Fatal(err)
	}

	if got := hub.ConcurrentFocusCount(ref("t1")); got != 2 {
		t.Errorf("ConcurrentFocusCount = %d, want 2", got)
	}
	if !hub.IsMultiUser(ref("t1")) {
		t.Error("IsMultiUser = false with two users focused")
	}
}

func TestClaimants(t *testing.T) {
	hub, _, _ := newTestHub(t, "u1")

	if err := hub.ToggleActionSetTask(model.ActionSetItem{InstanceID: "i1", TaskID: "t1"}); err != nil {
		t.Fatal(err)
	}
	if err := hub.actionSet.ToggleTask("u2", model.ActionSetItem{InstanceID: "i1", TaskID: "t1"}); err != nil {
		t.Fatal(err)
	}

	got := hub.Claimants("t1")
	if len(got) != 2 || got[0] != "u1" || got[1] != "u2" {
		t.Errorf("Claimants = %v, want [u1 u2]", got)
	}
	if got := hub.Claimants("t2"); len(got) != 0 {
		t.Errorf("Claimants(t2) = %v, want none", got)
	}
}

func TestTimerThroughHub(t *testing.T) {
	hub, _, _ := newTestHub(t, "u1")

	if err := hub.SetTaskTimer("t1", 3); err != nil {
		t.Fatal(err)
	}
	if err := hub.ToggleTaskTimer("t1"); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		hub.Tick()
	}

	task, _ := hub.Task("t1")
	if task.Timer.Running || task.Timer.Remaining != 0 {
		t.Errorf("timer after countdown = %+v, want stopped at zero", task.Timer)
	}
}

func TestToggleTaskCompleted(t *testing.T) {
	hub, ms, _ := newTestHub(t, "u1")

	if err := hub.ToggleTaskCompleted("t2"); err != nil {
		t.Fatal(err)
	}
	task, _ := hub.Task("t2")
	if !task.Completed {
		t.Error("task not completed after toggle")
	}

	// Persisted through the dispatcher.
	deadline := time.After(2 * time.Second)
	for {
		in, err := ms.ReadInstance(context.Background(), "i1")
		if err != nil {
			t.Fatal(err)
		}
		if in.FindTask("t2").Completed {
			break
		}
		select {
		case <-deadline:
			t.Fatal("completion never persisted")
		case <-time.After(time.Millisecond):
		}
	}

	if err := hub.ToggleTaskCompleted("ghost"); !errors.Is(err, errors.ErrTaskNotFound) {
		t.Errorf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestRemoteUpdateMergesAndPrunes(t *testing.T) {
	hub, ms, _ := newTestHub(t, "u1")
	ctx := context.Background()

	if err := hub.ToggleTaskFocus(ref("t2")); err != nil {
		t.Fatal(err)
	}

	// Another client rewrites the instance without t2; our focus ref is
	// now stale and must be pruned on merge.
	in, err := ms.ReadInstance(ctx, "i1")
	if err != nil {
		t.Fatal(err)
	}
	in.Sections[0].Tasks = in.Sections[0].Tasks[:1] // drop t2
	if err := ms.SaveInstance(ctx, in); err != nil {
		t.Fatal(err)
	}

	hub.onRemoteUpdated(event.NewRemoteUpdatedEvent(event.RemoteUpdateInstance, "i1"))

	if task, _ := hub.Task("t2"); task != nil {
		t.Error("deleted task still in the mirror after remote merge")
	}
	if u := hub.CurrentUser(); u.ActiveFocus != nil {
		t.Errorf("stale focus %v not pruned after remote merge", u.ActiveFocus)
	}
}

func TestAdminOperationsThroughHub(t *testing.T) {
	hub, _, _ := newTestHub(t, "u1") // u1 is admin
	ctx := context.Background()

	if err := hub.focus.ToggleTaskFocus("u2", ref("t1")); err != nil {
		t.Fatal(err)
	}
	if err := hub.AdminClearUserFocus(ctx, "u2"); err != nil {
		t.Fatal(err)
	}
	if hub.User("u2").ActiveFocus != nil {
		t.Error("u2 focus not cleared by admin")
	}
}

func TestViewerCannotAdminClear(t *testing.T) {
	hub, _, _ := newTestHub(t, "u2") // u2 is a viewer

	err := hub.AdminClearUserFocus(context.Background(), "u1")
	if !errors.Is(err, errors.ErrNotAdmin) {
		t.Errorf("err = %v, want ErrNotAdmin", err)
	}
}
