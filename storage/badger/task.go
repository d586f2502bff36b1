package badger

import (
	"bytes"
	"context"
	"math"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/personalmind/core"
	"github.com/poiesic/personalmind/storage"
)

// TaskRepository implements storage.TaskRepository for BadgerDB.
type TaskRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.TaskRepository = (*TaskRepository)(nil)

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(backend *Backend) (*TaskRepository, error) {
	idSeq, err := backend.GetSequence(taskSeq)
	if err != nil {
		return nil, err
	}
	return &TaskRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *TaskRepository) Close() error {
	return r.idSeq.Release()
}

// AddTasks adds one or more tasks to storage.
func (r *TaskRepository) AddTasks(ctx context.Context, tasks ...*core.Task) ([]*core.Task, error) {
	for _, task := range tasks {
		if err := core.ValidateTask(task); err != nil {
			return nil, err
		}
	}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, task := range tasks {
			id, err := nextID(r.idSeq)
			if err != nil {
				return err
			}
			task.Id = core.ID(id)
			task.InsertedAt = timestamp()
			task.UpdatedAt = task.InsertedAt

			if err := r.writeTask(tx, task); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpdateTask replaces a stored task, moving its index entries if the due
// date or owning document changed.
func (r *TaskRepository) UpdateTask(ctx context.Context, task *core.Task) (*core.Task, error) {
	if err := core.ValidateTask(task); err != nil {
		return nil, err
	}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		old, err := readTask(tx, makeTaskKey(task.Id))
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}
		if err := deleteTaskIndexes(tx, old); err != nil {
			return err
		}

		task.InsertedAt = old.InsertedAt
		task.UpdatedAt = timestamp()
		if err := r.writeTask(tx, task); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// GetTask retrieves a single task by ID.
func (r *TaskRepository) GetTask(ctx context.Context, id core.ID) (*core.Task, error) {
	var result *core.Task
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readTask(tx, makeTaskKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListTasks returns every task in ID order.
func (r *TaskRepository) ListTasks(ctx context.Context) ([]*core.Task, error) {
	var results []*core.Task
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, []byte(taskPrefix), func(_, val []byte) error {
			task, err := storage.UnmarshalTask(val)
			if err != nil {
				return err
			}
			results = append(results, task)
			return nil
		})
	}, false)
	return results, err
}

// GetTasksByDocument returns the tasks extracted from a document.
func (r *TaskRepository) GetTasksByDocument(ctx context.Context, documentID core.ID) ([]*core.Task, error) {
	var results []*core.Task
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var ids []core.ID
		if err := scanKeys(tx, composeKey(taskDocPrefix, uint64(documentID)), func(key []byte) error {
			ids = append(ids, trailingID(key))
			return nil
		}); err != nil {
			return err
		}
		return r.collect(tx, ids, &results)
	}, false)
	return results, err
}

// GetTasksDueBetween walks the due-date index from start to end inclusive.
func (r *TaskRepository) GetTasksDueBetween(ctx context.Context, start, end time.Time) ([]*core.Task, error) {
	if end.Before(start) {
		return nil, nil
	}

	var results []*core.Task
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makeTaskDueKey(start, 0)
		endKey := makeTaskDueKey(end, math.MaxUint64)

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(taskDuePrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		var ids []core.ID
		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if bytes.Compare(key, endKey) > 0 {
				break
			}
			ids = append(ids, trailingID(key))
		}
		iter.Close()

		return r.collect(tx, ids, &results)
	}, false)
	return results, err
}

func (r *TaskRepository) collect(tx *badger.Txn, ids []core.ID, results *[]*core.Task) error {
	for _, id := range ids {
		task, err := readTask(tx, makeTaskKey(id))
		if err != nil {
			return err
		}
		if task != nil {
			*results = append(*results, task)
		}
	}
	return nil
}

// writeTask stores the primary record and its index entries.
func (r *TaskRepository) writeTask(tx *badger.Txn, task *core.Task) error {
	if task.DueDate != nil {
		due := task.DueDate.Truncate(time.Microsecond)
		task.DueDate = &due
	}
	value := storage.MarshalTask(task)
	if err := tx.Set(makeTaskKey(task.Id), value); err != nil {
		return err
	}
	if task.DueDate != nil {
		if err := tx.Set(makeTaskDueKey(*task.DueDate, task.Id), nil); err != nil {
			return err
		}
	}
	if task.DocumentId != 0 {
		if err := tx.Set(makeTaskDocKey(task.DocumentId, task.Id), nil); err != nil {
			return err
		}
	}
	return nil
}

// deleteTaskIndexes removes the index entries for a stored task.
func deleteTaskIndexes(tx *badger.Txn, task *core.Task) error {
	if task.DueDate != nil {
		if err := tx.Delete(makeTaskDueKey(*task.DueDate, task.Id)); err != nil {
			return err
		}
	}
	if task.DocumentId != 0 {
		if err := tx.Delete(makeTaskDocKey(task.DocumentId, task.Id)); err != nil {
			return err
		}
	}
	return nil
}

// readTask reads a task from the transaction.
func readTask(tx *badger.Txn, key []byte) (*core.Task, error) {
	raw, err := readValue(tx, key)
	if err != nil || raw == nil {
		return nil, err
	}
	return storage.UnmarshalTask(raw)
}
