package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/benresonance-star/Task-Checker-sub001/internal/errors"
	"github.com/benresonance-star/Task-Checker-sub001/internal/model"
)

// FileStore persists users and instances as JSON documents under a data
// directory: users/<id>.json and instances/<id>.json. Whole-document
// writes are atomic (write temp, rename); field-level writes are
// read-modify-write of the document under the store mutex, which keeps
// this process's writers from interleaving. Writers in other processes
// are last-writer-wins at document granularity.
type FileStore struct {
	dataDir string
	mu      sync.Mutex
}

// NewFileStore creates a FileStore rooted at dataDir, creating the
// users/ and instances/ subdirectories if needed.
func NewFileStore(dataDir string) (*FileStore, error) {
	for _, sub := range []string{"users", "instances"} {
		if err := os.MkdirAll(filepath.Join(dataDir, sub), 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	return &FileStore{dataDir: dataDir}, nil
}

// DataDir returns the directory this store reads and writes.
func (fs *FileStore) DataDir() string { return fs.dataDir }

// ReadUser returns the user document for userID.
func (fs *FileStore) ReadUser(ctx context.Context, userID string) (*model.User, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.readUserLocked(userID)
}

func (fs *FileStore) readUserLocked(userID string) (*model.User, error) {
	data, err := os.ReadFile(fs.keyToPath(UserKey(userID)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.NewStoreError("read user", err).WithKey(UserKey(userID))
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, errors.NewStoreError("decode user", err).WithKey(UserKey(userID)).WithRetryable(false)
	}
	return &user, nil
}

// ReadAllUsers returns every user document under users/.
func (fs *FileStore) ReadAllUsers(ctx context.Context) ([]*model.User, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	ids, err := fs.listIDs("users")
	if err != nil {
		return nil, err
	}

	users := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		u, err := fs.readUserLocked(id)
		if err != nil {
			if errors.Is(err, errors.ErrUserNotFound) {
				continue // deleted between list and read
			}
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// WriteUserField overwrites a single field of the user document.
func (fs *FileStore) WriteUserField(ctx context.Context, userID, field string, value any) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	user, err := fs.readUserLocked(userID)
	if err != nil {
		return err
	}

	switch field {
	case UserFieldActiveFocus:
		ref, ok := value.(*model.FocusRef)
		if !ok && value != nil {
			return errors.NewValidationError("activeFocus must be *model.FocusRef").WithField(field)
		}
		user.ActiveFocus = ref
	case UserFieldActionSet:
		items, ok := value.([]model.ActionSetItem)
		if !ok {
			return errors.NewValidationError("actionSet must be []model.ActionSetItem").WithField(field)
		}
		user.ActionSet = items
	default:
		return fmt.Errorf("%w: %q", errors.ErrUnknownField, field)
	}

	return fs.saveDocument(UserKey(userID), user)
}

// ReadInstance returns the instance document for instanceID.
func (fs *FileStore) ReadInstance(ctx context.Context, instanceID string) (*model.Instance, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.readInstanceLocked(instanceID)
}

func (fs *FileStore) readInstanceLocked(instanceID string) (*model.Instance, error) {
	data, err := os.ReadFile(fs.keyToPath(InstanceKey(instanceID)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrInstanceNotFound
		}
		return nil, errors.NewStoreError("read instance", err).WithKey(InstanceKey(instanceID))
	}

	var instance model.Instance
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, errors.NewStoreError("decode instance", err).WithKey(InstanceKey(instanceID)).WithRetryable(false)
	}
	return &instance, nil
}

// ReadAllInstances returns every instance document under instances/.
func (fs *FileStore) ReadAllInstances(ctx context.Context) ([]*model.Instance, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	ids, err := fs.listIDs("instances")
	if err != nil {
		return nil, err
	}

	instances := make([]*model.Instance, 0, len(ids))
	for _, id := range ids {
		in, err := fs.readInstanceLocked(id)
		if err != nil {
			if errors.Is(err, errors.ErrInstanceNotFound) {
				continue
			}
			return nil, err
		}
		instances = append(instances, in)
	}
	return instances, nil
}

// WriteInstancePresence upserts one presence entry in the instance's
// active-user map.
func (fs *FileStore) WriteInstancePresence(ctx context.Context, instanceID, userID string, entry model.PresenceEntry) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	instance, err := fs.readInstanceLocked(instanceID)
	if err != nil {
		return err
	}

	if instance.ActiveUsers == nil {
		instance.ActiveUsers = make(map[string]model.PresenceEntry)
	}
	instance.ActiveUsers[userID] = entry

	return fs.saveDocument(InstanceKey(instanceID), instance)
}

// WriteTaskField overwrites a single field of a task in an instance
// document.
func (fs *FileStore) WriteTaskField(ctx context.Context, instanceID, taskID, field string, value any) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	instance, err := fs.readInstanceLocked(instanceID)
	if err != nil {
		return err
	}

	task := instance.FindTask(taskID)
	if task == nil {
		return fmt.Errorf("%w: %s in instance %s", errors.ErrTaskNotFound, taskID, instanceID)
	}

	if err := applyTaskField(task, field, value); err != nil {
		return err
	}

	return fs.saveDocument(InstanceKey(instanceID), instance)
}

// applyTaskField sets one writable task field, validating the value type.
func applyTaskField(task *model.Task, field string, value any) error {
	switch field {
	case TaskFieldTimerDuration:
		n, ok := value.(int)
		if !ok {
			return errors.NewValidationError("timer.duration must be int").WithField(field).WithValue(value)
		}
		task.Timer.Duration = n
	case TaskFieldTimerRemaining:
		n, ok := value.(int)
		if !ok {
			return errors.NewValidationError("timer.remaining must be int").WithField(field).WithValue(value)
		}
		task.Timer.Remaining = n
	case TaskFieldTimerRunning:
		b, ok := value.(bool)
		if !ok {
			return errors.NewValidationError("timer.running must be bool").WithField(field).WithValue(value)
		}
		task.Timer.Running = b
	case TaskFieldCompleted:
		b, ok := value.(bool)
		if !ok {
			return errors.NewValidationError("completed must be bool").WithField(field).WithValue(value)
		}
		task.Completed = b
	default:
		return fmt.Errorf("%w: %q", errors.ErrUnknownField, field)
	}
	return nil
}

// SaveUser writes the whole user document.
func (fs *FileStore) SaveUser(ctx context.Context, user *model.User) error {
	if user == nil || user.ID == "" {
		return errors.NewValidationError("user ID cannot be empty")
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.saveDocument(UserKey(user.ID), user)
}

// SaveInstance writes the whole instance document.
func (fs *FileStore) SaveInstance(ctx context.Context, instance *model.Instance) error {
	if instance == nil || instance.ID == "" {
		return errors.NewValidationError("instance ID cannot be empty")
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.saveDocument(InstanceKey(instance.ID), instance)
}

// saveDocument marshals and atomically replaces a document file.
func (fs *FileStore) saveDocument(key string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.NewStoreError("marshal document", err).WithKey(key).WithRetryable(false)
	}
	if err := atomicWriteFile(fs.keyToPath(key), data, 0644); err != nil {
		return errors.NewStoreError("write document", err).WithKey(key)
	}
	return nil
}

// listIDs returns the document IDs in a subdirectory, derived from the
// .json file names.
func (fs *FileStore) listIDs(sub string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(fs.dataDir, sub))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewStoreError("list documents", err).WithKey(sub)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

// keyToPath converts a store key to the backing file path.
func (fs *FileStore) keyToPath(key string) string {
	return filepath.Join(fs.dataDir, filepath.FromSlash(key)+".json")
}

// atomicWriteFile writes data to a file atomically by writing to a
// temporary file first, then renaming. The target is never observed in
// a partially-written state.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
