// Package planner is the task engine: it owns the in-memory task list and
// provides the filtered views, the reminder sweep and the task lifecycle
// operations on top of a storage.Store.
//
// All methods are safe for concurrent use. A single mutex serializes every
// read, mutation and sweep, so no caller observes a half-applied change.
package planner

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"planner/internal/notify"
	"planner/internal/storage"
	"planner/internal/task"
	"planner/internal/timeutil"
)

// ErrAmbiguousID is returned when an id prefix matches more than one task.
var ErrAmbiguousID = errors.New("ambiguous task id prefix")

// Options configure a Planner. Zero values pick the system clock, a
// discarding notifier, random UUIDs and a silent logger.
type Options struct {
	Clock    timeutil.Clock
	Notifier notify.Notifier
	NewID    func() string
	Logger   *log.Logger

	// Categories makes a valid category mandatory on create and update.
	Categories bool
}

type Planner struct {
	mu         sync.Mutex
	store      storage.Store
	clock      timeutil.Clock
	notifier   notify.Notifier
	newID      func() string
	logger     *log.Logger
	categories bool
	tasks      []task.Task

	// delivered holds the reminder time of tasks reminded by a sweep whose
	// save failed, so a reload does not remind them again.
	delivered map[string]time.Time
}

func New(store storage.Store, opts Options) *Planner {
	p := &Planner{
		store:      store,
		clock:      opts.Clock,
		notifier:   opts.Notifier,
		newID:      opts.NewID,
		logger:     opts.Logger,
		categories: opts.Categories,
	}
	if p.clock == nil {
		p.clock = timeutil.SystemClock{}
	}
	if p.notifier == nil {
		p.notifier = notify.Nop{}
	}
	if p.newID == nil {
		p.newID = uuid.NewString
	}
	if p.logger == nil {
		p.logger = log.New(io.Discard, "", 0)
	}
	return p
}

// Load replaces the in-memory list with the store's contents. Tasks with a
// missing or repeated id are given a fresh one and the repaired list is saved.
//
// When the store had to be reset, Load returns an error wrapping
// storage.ErrReset; the planner is still ready to use with an empty list.
func (p *Planner) Load() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	unlock, err := p.lockStore()
	if err != nil {
		return err
	}
	defer unlock()
	return p.reload()
}

// sync locks the store and re-reads it, so that every mutation and sweep
// starts from what other processes have saved rather than from the list read
// at startup. Callers hold p.mu and must call the returned unlock once their
// save is done.
func (p *Planner) sync() (func(), error) {
	unlock, err := p.lockStore()
	if err != nil {
		return nil, err
	}
	if err := p.reload(); err != nil && !errors.Is(err, storage.ErrReset) {
		unlock()
		return nil, err
	}
	return unlock, nil
}

func (p *Planner) lockStore() (func(), error) {
	l, ok := p.store.(storage.Locker)
	if !ok {
		return func() {}, nil
	}
	unlock, err := l.Lock()
	if err != nil {
		return nil, fmt.Errorf("lock tasks: %w", err)
	}
	return unlock, nil
}

func (p *Planner) reload() error {
	tasks, loadErr := p.store.Load()
	if loadErr != nil && !errors.Is(loadErr, storage.ErrReset) {
		return fmt.Errorf("load tasks: %w", loadErr)
	}
	if loadErr != nil {
		p.logger.Printf("Warning: %v", loadErr)
	}
	if tasks == nil {
		tasks = []task.Task{}
	}

	if p.repairIDs(tasks) {
		if err := p.store.Save(tasks); err != nil {
			return fmt.Errorf("save repaired tasks: %w", err)
		}
	}
	p.applyDelivered(tasks)
	p.tasks = tasks
	return loadErr
}

// applyDelivered marks tasks notified whose reminder went out in a sweep
// whose save failed. A task edited since then no longer matches.
func (p *Planner) applyDelivered(tasks []task.Task) {
	for i, t := range tasks {
		at, ok := p.delivered[t.ID]
		if !ok || t.Notified || !t.IsOpen() {
			continue
		}
		if remindAt, hasDue := t.RemindAt(); hasDue && remindAt.Equal(at) {
			tasks[i].Notified = true
		}
	}
}

func (p *Planner) repairIDs(tasks []task.Task) bool {
	seen := make(map[string]struct{}, len(tasks))
	repaired := false
	for i := range tasks {
		id := strings.TrimSpace(tasks[i].ID)
		if _, dup := seen[id]; id == "" || dup {
			fresh := p.freshID(seen)
			p.logger.Printf("Warning: task %q had id %q, assigned %s", tasks[i].Name, tasks[i].ID, fresh)
			id = fresh
			repaired = true
		}
		tasks[i].ID = id
		seen[id] = struct{}{}
	}
	return repaired
}

func (p *Planner) freshID(taken map[string]struct{}) string {
	for {
		id := p.newID()
		if _, ok := taken[id]; !ok && id != "" {
			return id
		}
	}
}

// Tasks returns a copy of every task in store order.
func (p *Planner) Tasks() []task.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneTasks(p.tasks)
}

// Get returns the task with the given id.
func (p *Planner) Get(id string) (task.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.indexOf(id)
	if i < 0 {
		return task.Task{}, fmt.Errorf("%w: %s", task.ErrTaskNotFound, id)
	}
	return p.tasks[i], nil
}

// Resolve finds a task by full id or by a unique id prefix.
func (p *Planner) Resolve(ref string) (task.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return task.Task{}, fmt.Errorf("%w: empty id", task.ErrTaskNotFound)
	}
	if i := p.indexOf(ref); i >= 0 {
		return p.tasks[i], nil
	}
	var matches []task.Task
	for _, t := range p.tasks {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return task.Task{}, fmt.Errorf("%w: %s", task.ErrTaskNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return task.Task{}, fmt.Errorf("%w: %s matches %d tasks", ErrAmbiguousID, ref, len(matches))
	}
}

// CategoriesEnabled reports whether tasks must carry a category.
func (p *Planner) CategoriesEnabled() bool {
	return p.categories
}

// Now reads the planner's clock.
func (p *Planner) Now() time.Time {
	return p.clock.Now()
}

func (p *Planner) indexOf(id string) int {
	for i, t := range p.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// commit persists next and, only once that succeeds, makes it current.
// Callers hold p.mu and the store lock taken by sync.
func (p *Planner) commit(next []task.Task) error {
	if err := p.store.Save(next); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	p.tasks = next
	p.delivered = nil
	return nil
}

func cloneTasks(tasks []task.Task) []task.Task {
	out := make([]task.Task, len(tasks))
	copy(out, tasks)
	return out
}
