package s3

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/dice-agent/pkg/errors"
	"github.com/theapemachine/dice-agent/pkg/stores"
)

/*
objectConn is the part of Conn the store uses.
*/
type objectConn interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, data []byte) error
}

/*
Store provides an S3 implementation of the TaskStore interface. Every
task is one JSON object under tasks/<id>.json. Objects are replaced in a
single PUT, so readers see either the previous or the next record.
*/
type Store struct {
	conn   objectConn
	bucket string

	// Version checks are serialized per process. Several agents sharing
	// one bucket are not coordinated.
	mu sync.Mutex
}

/*
NewStore creates a new S3-based task store with the given connection.
*/
func NewStore(conn objectConn, bucket string) *Store {
	return &Store{conn: conn, bucket: bucket}
}

func objectKey(id string) string {
	return "tasks/" + id + ".json"
}

/*
Get retrieves a task record by its ID from S3 storage.
*/
func (store *Store) Get(
	ctx context.Context, id string,
) (stores.TaskRecord, bool, error) {
	return store.read(ctx, id)
}

func (store *Store) read(
	ctx context.Context, id string,
) (stores.TaskRecord, bool, error) {
	buf, err := store.conn.Get(ctx, store.bucket, objectKey(id))

	if stderrors.Is(err, ErrObjectNotFound) {
		return stores.TaskRecord{}, false, nil
	}

	if err != nil {
		log.Error("failed to get task", "task_id", id, "error", err)
		return stores.TaskRecord{}, false, &errors.StoreError{Op: "get", ID: id, Cause: err}
	}

	var record stores.TaskRecord

	if err := json.Unmarshal(buf, &record); err != nil {
		log.Error("failed to unmarshal task", "task_id", id, "error", err)
		return stores.TaskRecord{}, false, &errors.StoreError{Op: "decode", ID: id, Cause: err}
	}

	return record, true, nil
}

/*
Put writes the next version of a task record, provided the stored
version still matches the one the caller read.
*/
func (store *Store) Put(
	ctx context.Context, id string, record stores.TaskRecord,
) (stores.TaskRecord, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	current, _, err := store.read(ctx, id)

	if err != nil {
		return stores.TaskRecord{}, err
	}

	if current.Version != record.Version {
		return stores.TaskRecord{}, stores.ErrVersionConflict
	}

	next := record.Clone()
	next.Version = record.Version + 1

	data, err := json.Marshal(next)

	if err != nil {
		log.Error("failed to marshal task", "task_id", id, "error", err)
		return stores.TaskRecord{}, &errors.StoreError{Op: "encode", ID: id, Cause: err}
	}

	if err := store.conn.Put(ctx, store.bucket, objectKey(id), data); err != nil {
		log.Error("failed to store task", "task_id", id, "error", err)
		return stores.TaskRecord{}, &errors.StoreError{Op: "put", ID: id, Cause: err}
	}

	return next, nil
}
