package planner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"planner/internal/notify"
	"planner/internal/storage"
	"planner/internal/task"
	"planner/internal/testutil"
	"planner/internal/timeutil"
)

type fixture struct {
	p     *Planner
	store *testutil.FakeStore
	clock *timeutil.ManualClock
	rec   *notify.Recorder
}

func newFixture(t *testing.T, now string, categories bool, tasks ...task.Task) fixture {
	t.Helper()
	f := fixture{
		store: testutil.NewFakeStore(tasks...),
		clock: timeutil.NewManualClock(at(t, now)),
		rec:   &notify.Recorder{},
	}
	f.p = New(f.store, Options{
		Clock:      f.clock,
		Notifier:   f.rec,
		NewID:      testutil.SequentialIDs(),
		Categories: categories,
	})
	if err := f.p.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	return f
}

func TestLoadRepairsIDs(t *testing.T) {
	store := testutil.NewFakeStore(
		task.Task{ID: "a", Name: "first", Status: task.StatusOpen},
		task.Task{ID: "", Name: "blank", Status: task.StatusOpen},
		task.Task{ID: "a", Name: "dup", Status: task.StatusOpen},
	)
	p := New(store, Options{NewID: testutil.SequentialIDs()})
	if err := p.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	assertIDs(t, p.Tasks(), "a", "t1", "t2")
	if store.Saves() != 1 {
		t.Errorf("expected repaired list to be saved once, got %d", store.Saves())
	}
	assertIDs(t, store.Saved(), "a", "t1", "t2")
}

func TestLoadReset(t *testing.T) {
	store := testutil.NewFakeStore()
	store.LoadErr = errors.New("wrapped: " + storage.ErrReset.Error())
	p := New(store, Options{})
	if err := p.Load(); err == nil || errors.Is(err, storage.ErrReset) {
		t.Fatalf("expected a plain load error to be fatal, got %v", err)
	}

	store.LoadErr = storage.ErrReset
	p = New(store, Options{NewID: testutil.SequentialIDs()})
	err := p.Load()
	if !errors.Is(err, storage.ErrReset) {
		t.Fatalf("expected ErrReset, got %v", err)
	}
	if _, err := p.Create(Input{Name: "after reset", Due: "2024-06-10 10:00", Remind: 0}); err != nil {
		t.Fatalf("planner should be usable after a reset: %v", err)
	}
}

func TestLoadFromJSONStoreReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	if err := os.WriteFile(path, []byte("][ nonsense"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := New(storage.NewJSONStore(path, storage.Options{}), Options{})
	if err := p.Load(); !errors.Is(err, storage.ErrReset) {
		t.Fatalf("expected ErrReset, got %v", err)
	}
	if len(p.Tasks()) != 0 {
		t.Errorf("expected empty task list after reset")
	}
}

func TestResolve(t *testing.T) {
	f := newFixture(t, "2024-06-10 09:00", false,
		task.Task{ID: "abc123", Name: "one", Status: task.StatusOpen},
		task.Task{ID: "abd456", Name: "two", Status: task.StatusOpen},
	)

	got, err := f.p.Resolve("abc")
	if err != nil || got.ID != "abc123" {
		t.Fatalf("expected abc123, got %q (%v)", got.ID, err)
	}
	if got, err := f.p.Resolve("abd456"); err != nil || got.Name != "two" {
		t.Fatalf("expected exact match, got %+v (%v)", got, err)
	}
	if _, err := f.p.Resolve("ab"); !errors.Is(err, ErrAmbiguousID) {
		t.Errorf("expected ErrAmbiguousID, got %v", err)
	}
	if _, err := f.p.Resolve("zzz"); !errors.Is(err, task.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
	if _, err := f.p.Resolve(""); !errors.Is(err, task.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound for empty ref, got %v", err)
	}
}

func TestQueryUsesClock(t *testing.T) {
	f := newFixture(t, "2024-06-10 09:00", false,
		openTask(t, "today", "2024-06-10 18:00", ""),
		openTask(t, "tomorrow", "2024-06-11 18:00", ""),
	)
	assertIDs(t, f.p.Query(FilterToday, AllCategories), "today")
	assertIDs(t, f.p.TopToday(), "today")

	f.clock.Set(at(t, "2024-06-11 08:00"))
	assertIDs(t, f.p.Query(FilterToday, AllCategories), "tomorrow")
	assertIDs(t, f.p.TopToday(), "tomorrow")
	if n := f.p.Counts(AllCategories)[FilterAll]; n != 2 {
		t.Errorf("expected 2 tasks under All, got %d", n)
	}
}

func TestConcurrentMutationsAndSweeps(t *testing.T) {
	f := newFixture(t, "2024-06-10 09:00", false)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := f.p.Create(Input{Name: "x", Due: "2024-06-10 09:00", Remind: 0}); err != nil {
				t.Errorf("create: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := f.p.Sweep(ctx); err != nil {
				t.Errorf("sweep: %v", err)
			}
		}()
	}
	wg.Wait()

	if _, err := f.p.Sweep(ctx); err != nil {
		t.Fatal(err)
	}
	if got := len(f.rec.Sent()); got != 20 {
		t.Errorf("expected exactly one reminder per task, got %d", got)
	}
	seen := map[string]bool{}
	for _, tk := range f.store.Saved() {
		if seen[tk.ID] {
			t.Errorf("duplicate id %s", tk.ID)
		}
		seen[tk.ID] = true
		if !tk.Notified {
			t.Errorf("expected %s to be notified in the saved list", tk.ID)
		}
	}
}

func TestOperationsSeeOtherWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	clock := timeutil.NewManualClock(at(t, "2024-06-10 15:15"))
	rec := &notify.Recorder{}

	watcher := New(storage.NewJSONStore(path, storage.Options{}), Options{Clock: clock, Notifier: rec})
	if err := watcher.Load(); err != nil {
		t.Fatalf("load watcher: %v", err)
	}
	other := New(storage.NewJSONStore(path, storage.Options{}), Options{Clock: clock})
	if err := other.Load(); err != nil {
		t.Fatalf("load other: %v", err)
	}

	hw, err := other.Create(Input{Name: "Math HW", Due: "2024-06-10 15:30", Remind: 15})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := watcher.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(res.Fired) != 1 || res.Fired[0].ID != hw.ID {
		t.Fatalf("expected the task added elsewhere to be reminded, got %+v", res.Fired)
	}

	essay, err := other.Create(Input{Name: "Essay", Due: "2024-06-12 09:00", Remind: 0})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := watcher.Complete(essay.ID); err != nil {
		t.Fatalf("complete task created elsewhere: %v", err)
	}

	stored, err := storage.NewJSONStore(path, storage.Options{}).Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected both tasks kept, got %+v", stored)
	}
	if !stored[0].Notified || stored[1].Status != task.StatusDone {
		t.Errorf("unexpected stored tasks %+v", stored)
	}

	if _, err := other.Update(hw.ID, Input{Name: "Math HW v2", Due: "2024-06-10 15:30", Remind: 15}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := other.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if got := watcher.Tasks(); len(got) != 2 {
		t.Errorf("expected watcher to hold 2 tasks, got %d", len(got))
	}
}

func TestSweepDoesNotRepeatAfterReloadOfFailedSave(t *testing.T) {
	f := newFixture(t, "2024-06-10 15:30", false, openTask(t, "a", "2024-06-10 15:30", ""))
	f.store.SaveErr = errors.New("disk full")
	if _, err := f.p.Sweep(context.Background()); err == nil {
		t.Fatal("expected save error")
	}

	f.store.SaveErr = nil
	res, err := f.p.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.Changed() || len(f.rec.Sent()) != 1 {
		t.Errorf("expected one delivery in total, got %d", len(f.rec.Sent()))
	}
	saved := f.store.Saved()
	if len(saved) != 1 || !saved[0].Notified {
		t.Errorf("expected the delivered reminder to be saved once storage recovers, got %+v", saved)
	}
}
