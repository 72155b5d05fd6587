package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"planner/internal/task"
)

// JSONStore keeps tasks as a JSON array in a single file.
type JSONStore struct {
	path string
	opts Options
}

func NewJSONStore(path string, opts Options) *JSONStore {
	return &JSONStore{path: path, opts: opts}
}

// Path returns the backing file.
func (s *JSONStore) Path() string { return s.path }

// Lock takes the store's sibling lock file.
func (s *JSONStore) Lock() (func(), error) {
	return lockFile(s.path + lockSuffix)
}

// Load reads all tasks. A missing file is initialized to an empty list. A file
// that cannot be read or decoded is moved aside to <path>.bak, replaced by an
// empty list, and an error wrapping ErrReset is returned alongside the empty
// result.
func (s *JSONStore) Load() ([]task.Task, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []task.Task{}, s.Save(nil)
	}
	if err != nil {
		return s.reset(fmt.Errorf("read %s: %w", s.path, err))
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return s.reset(fmt.Errorf("decode %s: %w", s.path, err))
	}

	tasks := make([]task.Task, 0, len(records))
	for _, r := range records {
		tasks = append(tasks, r.toTask(s.opts))
	}
	return tasks, nil
}

func (s *JSONStore) reset(cause error) ([]task.Task, error) {
	if err := os.Rename(s.path, s.path+backupSuffix); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("%v (keep backup: %w)", cause, err)
	}
	if err := s.Save(nil); err != nil {
		return []task.Task{}, fmt.Errorf("%w: %v (reinitialize: %v)", ErrReset, cause, err)
	}
	return []task.Task{}, fmt.Errorf("%w: %v", ErrReset, cause)
}

// Save replaces the file contents with tasks. The write goes through a temp
// file and a rename so readers never observe a partial file.
func (s *JSONStore) Save(tasks []task.Task) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	records := make([]record, 0, len(tasks))
	for _, t := range tasks {
		records = append(records, toRecord(t))
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}
	data = append(data, '\n')

	if existing, err := os.ReadFile(s.path); err == nil && bytes.Equal(existing, data) {
		return nil
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	_, err = tmp.Write(data)
	if err1 := tmp.Close(); err1 != nil && err == nil {
		err = err1
	}
	if err != nil {
		os.Remove(name)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(name, s.path); err != nil {
		os.Remove(name)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func (s *JSONStore) Close() error { return nil }
