// Package testutil provides fixture builders and a controllable clock
// for coordination engine tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benresonance-star/Task-Checker-sub001/internal/model"
	"github.com/benresonance-star/Task-Checker-sub001/internal/store"
)

// NewAdmin builds an admin user fixture.
func NewAdmin(id, name string) *model.User {
	return &model.User{ID: id, DisplayName: name, Role: model.RoleAdmin}
}

// NewViewer builds a viewer user fixture.
func NewViewer(id, name string) *model.User {
	return &model.User{ID: id, DisplayName: name, Role: model.RoleViewer}
}

// NewTask builds a task fixture with a stopped timer.
func NewTask(id, title string, durationSeconds int) *model.Task {
	return &model.Task{
		ID:    id,
		Title: title,
		Timer: model.Timer{Duration: durationSeconds, Remaining: durationSeconds},
	}
}

// NewInstance builds a single-section instance holding the given tasks.
func NewInstance(id, title string, tasks ...*model.Task) *model.Instance {
	return &model.Instance{
		ID:       id,
		MasterID: "master-" + id,
		Title:    title,
		Version:  1,
		Sections: []*model.Section{{ID: id + "-s1", Title: title, Tasks: tasks}},
	}
}

// SeedStore saves the given users and instances into a fresh MemStore.
func SeedStore(t *testing.T, users []*model.User, instances []*model.Instance) *store.MemStore {
	t.Helper()
	ctx := context.Background()
	ms := store.NewMemStore()
	for _, u := range users {
		if err := ms.SaveUser(ctx, u); err != nil {
			t.Fatalf("seed user %s: %v", u.ID, err)
		}
	}
	for _, in := range instances {
		if err := ms.SaveInstance(ctx, in); err != nil {
			t.Fatalf("seed instance %s: %v", in.ID, err)
		}
	}
	return ms
}

// Clock is a manually advanced clock. Its Now method plugs into
// components that accept a time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a Clock starting at the given time.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
