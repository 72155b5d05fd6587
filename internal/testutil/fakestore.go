// Package testutil provides testing utilities.
package testutil

import (
	"strconv"
	"sync"

	"planner/internal/task"
)

// FakeStore is an in-memory storage.Store for testing.
type FakeStore struct {
	mu    sync.Mutex
	tasks []task.Task
	saves int

	// Error injection for testing
	LoadErr error
	SaveErr error
}

// NewFakeStore creates a FakeStore holding tasks.
func NewFakeStore(tasks ...task.Task) *FakeStore {
	return &FakeStore{tasks: append([]task.Task(nil), tasks...)}
}

func (f *FakeStore) Load() ([]task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]task.Task{}, f.tasks...)
	if f.LoadErr != nil {
		return out, f.LoadErr
	}
	return out, nil
}

func (f *FakeStore) Save(tasks []task.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SaveErr != nil {
		return f.SaveErr
	}
	f.tasks = append([]task.Task{}, tasks...)
	f.saves++
	return nil
}

func (f *FakeStore) Close() error { return nil }

// Saved returns the last successfully saved tasks.
func (f *FakeStore) Saved() []task.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]task.Task{}, f.tasks...)
}

// Saves returns how many saves succeeded.
func (f *FakeStore) Saves() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

// SequentialIDs returns an id generator yielding "t1", "t2", ...
func SequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return "t" + strconv.Itoa(n)
	}
}
