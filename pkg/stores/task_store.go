package stores

import (
	"context"
	"errors"

	"github.com/theapemachine/dice-agent/pkg/a2a"
)

/*
TaskRecord is the unit the store keeps per task id: the task with its
full history, and the version the record was read at.
*/
type TaskRecord struct {
	Task    a2a.Task `json:"task"`
	Version uint64   `json:"version"`
}

func (record TaskRecord) Clone() TaskRecord {
	return TaskRecord{
		Task:    record.Task.Clone(),
		Version: record.Version,
	}
}

/*
TaskStore keeps one record per task id. Put replaces the record
wholesale and succeeds only if record.Version still matches the stored
version (0 when creating); the stored version is then incremented.
*/
type TaskStore interface {
	Get(ctx context.Context, id string) (TaskRecord, bool, error)
	Put(ctx context.Context, id string, record TaskRecord) (TaskRecord, error)
}

var ErrVersionConflict = errors.New("task record was modified concurrently")
