package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/benresonance-star/Task-Checker-sub001/internal/errors"
	"github.com/benresonance-star/Task-Checker-sub001/internal/model"
)

// MemStore is an in-memory Adapter for tests. It counts field-level
// writes per key+field so tests can assert write cadence, and can be
// told to fail writes to exercise the dispatcher's retry path.
type MemStore struct {
	mu        sync.Mutex
	users     map[string]*model.User
	instances map[string]*model.Instance

	writeCounts map[string]int // "key#field" -> count
	failWrites  int            // fail this many writes, then succeed
	failErr     error
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		users:       make(map[string]*model.User),
		instances:   make(map[string]*model.Instance),
		writeCounts: make(map[string]int),
	}
}

// FailNextWrites makes the next n field-level writes fail with err.
func (ms *MemStore) FailNextWrites(n int, err error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.failWrites = n
	ms.failErr = err
}

// WriteCount returns how many times the given key+field was written.
func (ms *MemStore) WriteCount(key, field string) int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.writeCounts[key+"#"+field]
}

// TotalWrites returns the total number of field-level writes recorded.
func (ms *MemStore) TotalWrites() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	total := 0
	for _, c := range ms.writeCounts {
		total += c
	}
	return total
}

// recordWrite bumps the counter and consumes a pending injected failure.
// Callers hold ms.mu.
func (ms *MemStore) recordWrite(key, field string) error {
	ms.writeCounts[key+"#"+field]++
	if ms.failWrites > 0 {
		ms.failWrites--
		if ms.failErr != nil {
			return ms.failErr
		}
		return errors.NewStoreError("injected failure", nil).WithKey(key).WithField(field)
	}
	return nil
}

// ReadUser returns a copy of the user document.
func (ms *MemStore) ReadUser(ctx context.Context, userID string) (*model.User, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	u, ok := ms.users[userID]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	return u.Clone(), nil
}

// ReadAllUsers returns copies of every user document.
func (ms *MemStore) ReadAllUsers(ctx context.Context) ([]*model.User, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	users := make([]*model.User, 0, len(ms.users))
	for _, u := range ms.users {
		users = append(users, u.Clone())
	}
	return users, nil
}

// WriteUserField overwrites a single user field.
func (ms *MemStore) WriteUserField(ctx context.Context, userID, field string, value any) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if err := ms.recordWrite(UserKey(userID), field); err != nil {
		return err
	}

	u, ok := ms.users[userID]
	if !ok {
		return errors.ErrUserNotFound
	}

	switch field {
	case UserFieldActiveFocus:
		ref, _ := value.(*model.FocusRef)
		if ref != nil {
			cp := *ref
			ref = &cp
		}
		u.ActiveFocus = ref
	case UserFieldActionSet:
		items, ok := value.([]model.ActionSetItem)
		if !ok {
			return errors.NewValidationError("actionSet must be []model.ActionSetItem").WithField(field)
		}
		u.ActionSet = append([]model.ActionSetItem(nil), items...)
	default:
		return fmt.Errorf("%w: %q", errors.ErrUnknownField, field)
	}
	return nil
}

// ReadInstance returns a copy of the instance document.
func (ms *MemStore) ReadInstance(ctx context.Context, instanceID string) (*model.Instance, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	in, ok := ms.instances[instanceID]
	if !ok {
		return nil, errors.ErrInstanceNotFound
	}
	return in.Clone(), nil
}

// ReadAllInstances returns copies of every instance document.
func (ms *MemStore) ReadAllInstances(ctx context.Context) ([]*model.Instance, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	instances := make([]*model.Instance, 0, len(ms.instances))
	for _, in := range ms.instances {
		instances = append(instances, in.Clone())
	}
	return instances, nil
}

// WriteInstancePresence upserts one presence entry.
func (ms *MemStore) WriteInstancePresence(ctx context.Context, instanceID, userID string, entry model.PresenceEntry) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if err := ms.recordWrite(InstanceKey(instanceID), "activeUsers."+userID); err != nil {
		return err
	}

	in, ok := ms.instances[instanceID]
	if !ok {
		return errors.ErrInstanceNotFound
	}
	if in.ActiveUsers == nil {
		in.ActiveUsers = make(map[string]model.PresenceEntry)
	}
	in.ActiveUsers[userID] = entry
	return nil
}

// WriteTaskField overwrites a single task field.
func (ms *MemStore) WriteTaskField(ctx context.Context, instanceID, taskID, field string, value any) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if err := ms.recordWrite(InstanceKey(instanceID)+"/"+taskID, field); err != nil {
		return err
	}

	in, ok := ms.instances[instanceID]
	if !ok {
		return errors.ErrInstanceNotFound
	}
	task := in.FindTask(taskID)
	if task == nil {
		return fmt.Errorf("%w: %s in instance %s", errors.ErrTaskNotFound, taskID, instanceID)
	}
	return applyTaskField(task, field, value)
}

// SaveUser stores a copy of the whole user document.
func (ms *MemStore) SaveUser(ctx context.Context, user *model.User) error {
	if user == nil || user.ID == "" {
		return errors.NewValidationError("user ID cannot be empty")
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.users[user.ID] = user.Clone()
	return nil
}

// SaveInstance stores a copy of the whole instance document.
func (ms *MemStore) SaveInstance(ctx context.Context, instance *model.Instance) error {
	if instance == nil || instance.ID == "" {
		return errors.NewValidationError("instance ID cannot be empty")
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.instances[instance.ID] = instance.Clone()
	return nil
}
