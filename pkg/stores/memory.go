package stores

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
)

/*
InMemoryTaskStore keeps records for the lifetime of the process. It has
no eviction and no size bound.
*/
type InMemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]TaskRecord
}

func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{
		tasks: make(map[string]TaskRecord),
	}
}

func (store *InMemoryTaskStore) Get(
	ctx context.Context, id string,
) (TaskRecord, bool, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	record, ok := store.tasks[id]

	if !ok {
		return TaskRecord{}, false, nil
	}

	return record.Clone(), true, nil
}

func (store *InMemoryTaskStore) Put(
	ctx context.Context, id string, record TaskRecord,
) (TaskRecord, error) {
	if err := ctx.Err(); err != nil {
		return TaskRecord{}, err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	current := store.tasks[id]

	if current.Version != record.Version {
		log.Warn(
			"rejecting stale task write",
			"task_id", id,
			"stored_version", current.Version,
			"base_version", record.Version,
		)

		return TaskRecord{}, ErrVersionConflict
	}

	next := record.Clone()
	next.Version = record.Version + 1
	store.tasks[id] = next

	return next.Clone(), nil
}

func (store *InMemoryTaskStore) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()

	return len(store.tasks)
}
