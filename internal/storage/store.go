// Package storage persists the planner's task list.
//
// A Store is pure data access: it loads and saves the whole ordered task
// sequence and knows nothing about filtering or reminders. Stored order is
// insertion order and carries no display meaning.
package storage

import (
	"errors"
	"fmt"
	"strings"

	"planner/internal/task"
	"planner/internal/timeutil"
)

// ErrReset reports that stored data could not be read and storage was
// reinitialized empty. The accompanying task list is empty but usable; callers
// should warn the user once and carry on.
var ErrReset = errors.New("task storage was unreadable and has been reset")

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown storage backend")

type Store interface {
	Load() ([]task.Task, error)
	Save(tasks []task.Task) error
	Close() error
}

// Locker is implemented by stores that other processes may share. Lock
// blocks until the caller holds the store exclusively; a load followed by a
// save under one Lock cannot interleave with another process's.
type Locker interface {
	Lock() (unlock func(), err error)
}

// lockSuffix names the sibling file a store locks.
const lockSuffix = ".lock"

// backupSuffix names the copy kept of data that had to be reset.
const backupSuffix = ".bak"

type Backend string

const (
	BackendJSON   Backend = "json"
	BackendSQLite Backend = "sqlite"
)

// ValidBackends returns all supported backends.
func ValidBackends() []Backend {
	return []Backend{BackendJSON, BackendSQLite}
}

// Options tune how stored records are read back.
type Options struct {
	// DefaultCategory is filled into records that carry none. Leave empty
	// when categories are not in use.
	DefaultCategory task.Category
}

// Open returns the store for backend at path.
func Open(backend Backend, path string, opts Options) (Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("store path is empty")
	}
	switch backend {
	case BackendJSON, "":
		return NewJSONStore(path, opts), nil
	case BackendSQLite:
		return OpenSQLite(path, opts)
	default:
		return nil, fmt.Errorf("%w %q (valid: %s)", ErrUnknownBackend, backend, task.FormatValidValues(ValidBackends()))
	}
}

// record is the stored shape of a task, shared by both backends.
type record struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Due      string `json:"due"`
	Remind   int    `json:"remind"`
	Category string `json:"category,omitempty"`
	Status   string `json:"status"`
	Notified bool   `json:"notified"`
}

func toRecord(t task.Task) record {
	due := timeutil.Format(t.Due)
	if due == "" {
		due = t.RawDue
	}
	return record{
		ID:       t.ID,
		Name:     t.Name,
		Due:      due,
		Remind:   t.Remind,
		Category: string(t.Category),
		Status:   string(t.Status),
		Notified: t.Notified,
	}
}

// toTask applies load-time defaults: unknown or missing status becomes Open,
// a missing category becomes opts.DefaultCategory, and an unparsable due is
// kept only as raw text.
func (r record) toTask(opts Options) task.Task {
	t := task.Task{
		ID:       r.ID,
		Name:     r.Name,
		Remind:   r.Remind,
		Category: task.Category(r.Category),
		Status:   task.Status(r.Status),
		Notified: r.Notified,
	}
	if due, ok := timeutil.Parse(r.Due); ok {
		t.Due = due
	} else {
		t.RawDue = strings.TrimSpace(r.Due)
	}
	if !t.Status.IsValid() {
		t.Status = task.StatusOpen
	}
	if t.Category == "" {
		t.Category = opts.DefaultCategory
	}
	return t
}
