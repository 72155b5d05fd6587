package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"planner/internal/config"
	"planner/internal/notify"
	"planner/internal/planner"
	"planner/internal/task"
	"planner/internal/testutil"
	"planner/internal/timeutil"
)

type harness struct {
	m     Model
	p     *planner.Planner
	store *testutil.FakeStore
	rec   *notify.Recorder
	clock *timeutil.ManualClock
}

func newHarness(t *testing.T, categories bool, tasks ...task.Task) *harness {
	t.Helper()
	now, ok := timeutil.Parse("2025-03-10 09:00")
	if !ok {
		t.Fatal("bad fixture time")
	}
	h := &harness{
		store: testutil.NewFakeStore(tasks...),
		rec:   &notify.Recorder{},
		clock: timeutil.NewManualClock(now),
	}
	h.p = planner.New(h.store, planner.Options{
		Clock:      h.clock,
		Notifier:   h.rec,
		NewID:      testutil.SequentialIDs(),
		Categories: categories,
	})
	if err := h.p.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := config.Default()
	cfg.Categories = categories
	h.m = New(context.Background(), h.p, cfg, "")
	return h
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

// press sends each key in order. Multi-character strings other than the
// named keys are delivered as one paste-like rune message.
func (h *harness) press(keys ...string) {
	for _, k := range keys {
		next, _ := h.m.Update(keyMsg(k))
		h.m = next.(Model)
	}
}

func dueTask(t *testing.T, id, name, due string, cat task.Category) task.Task {
	t.Helper()
	d, ok := timeutil.Parse(due)
	if !ok {
		t.Fatalf("bad due %q", due)
	}
	return task.Task{ID: id, Name: name, Due: d, Remind: 5, Category: cat, Status: task.StatusOpen}
}

func TestAddTaskThroughForm(t *testing.T) {
	h := newHarness(t, true)

	h.press("a")
	if h.m.mode != modeForm {
		t.Fatalf("expected form mode, got %v", h.m.mode)
	}
	h.press("Math HW", "enter", "2025-03-10", "enter", "17:00", "enter", "enter", "enter")

	if h.m.mode != modeList {
		t.Fatalf("expected list mode after save, got %v (status %q)", h.m.mode, h.m.status)
	}
	tasks := h.p.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.Name != "Math HW" || got.Remind != task.DefaultRemindOffset || got.Category != task.CategorySchool {
		t.Errorf("unexpected task %+v", got)
	}
	if timeutil.Format(got.Due) != "2025-03-10 17:00" {
		t.Errorf("expected due 2025-03-10 17:00, got %q", timeutil.Format(got.Due))
	}
	if len(h.m.tasks) != 1 || len(h.m.top) != 1 {
		t.Errorf("expected the task in today's list and top 3, got %d/%d", len(h.m.tasks), len(h.m.top))
	}
	if h.m.selectedID != got.ID {
		t.Errorf("expected new task selected, got %q", h.m.selectedID)
	}
	if !strings.Contains(h.m.status, "Added") {
		t.Errorf("unexpected status %q", h.m.status)
	}
}

func TestFormEmptyNameStaysOpen(t *testing.T) {
	h := newHarness(t, true)

	h.press("a", "enter", "enter", "enter", "enter", "enter")

	if h.m.mode != modeForm {
		t.Fatalf("expected form to stay open, got mode %v", h.m.mode)
	}
	if h.m.status != "Please enter a task name." {
		t.Errorf("unexpected status %q", h.m.status)
	}
	if h.m.form.current() != fieldName {
		t.Errorf("expected focus on name field, got %v", h.m.form.current())
	}
	if len(h.p.Tasks()) != 0 {
		t.Errorf("expected no task created")
	}
}

func TestFormBadDate(t *testing.T) {
	h := newHarness(t, true)

	h.press("a", "x", "enter", "tomorrow", "enter", "enter", "enter", "enter")

	if !strings.Contains(h.m.status, "YYYY-MM-DD") {
		t.Errorf("unexpected status %q", h.m.status)
	}
	if h.m.form == nil || h.m.form.current() != fieldDate {
		t.Errorf("expected focus on date field")
	}
}

func TestFormCancel(t *testing.T) {
	h := newHarness(t, true)

	h.press("a", "half typed", "esc")

	if h.m.mode != modeList || h.m.form != nil {
		t.Fatalf("expected form closed")
	}
	if len(h.p.Tasks()) != 0 {
		t.Errorf("expected no task created")
	}
}

func TestActionsNeedSelection(t *testing.T) {
	h := newHarness(t, true, dueTask(t, "t1", "Essay", "2025-03-10 12:00", task.CategorySchool))

	cases := []struct {
		key  string
		want string
	}{
		{" ", "Please select a task to mark done."},
		{"e", "Please select a task to edit."},
		{"d", "Please select a task to delete."},
	}
	for _, tc := range cases {
		h.press(tc.key)
		if h.m.status != tc.want {
			t.Errorf("key %q: expected %q, got %q", tc.key, tc.want, h.m.status)
		}
		if h.m.mode != modeList {
			t.Errorf("key %q: expected list mode", tc.key)
		}
	}
}

func TestCompleteSelected(t *testing.T) {
	h := newHarness(t, true, dueTask(t, "t1", "Essay", "2025-03-10 12:00", task.CategorySchool))

	h.press("j", " ")

	got, err := h.p.Get("t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != task.StatusDone {
		t.Errorf("expected done, got %s", got.Status)
	}
	if len(h.m.tasks) != 0 {
		t.Errorf("expected done task to leave the Today view")
	}
	if h.m.selectedID != "" {
		t.Errorf("expected selection cleared when task leaves the view")
	}

	h.press("4")
	if len(h.m.tasks) != 1 {
		t.Errorf("expected done task in Done view, got %d", len(h.m.tasks))
	}
}

func TestDeleteConfirm(t *testing.T) {
	h := newHarness(t, true,
		dueTask(t, "t1", "Essay", "2025-03-10 12:00", task.CategorySchool),
		dueTask(t, "t2", "Dishes", "2025-03-10 13:00", task.CategoryHome),
	)

	h.press("j", "d")
	if h.m.mode != modeConfirmDelete {
		t.Fatalf("expected confirm mode")
	}
	h.press("n")
	if len(h.p.Tasks()) != 2 {
		t.Fatalf("expected delete cancelled")
	}

	h.press("d", "y")
	tasks := h.p.Tasks()
	if len(tasks) != 1 || tasks[0].ID != "t2" {
		t.Fatalf("expected only t2 left, got %+v", tasks)
	}
	if h.m.selectedID != "" {
		t.Errorf("expected selection cleared after delete")
	}
}

func TestEditPrefillsForm(t *testing.T) {
	h := newHarness(t, true, dueTask(t, "t1", "Essay", "2025-03-10 12:00", task.CategoryHome))

	h.press("j", "e")
	if h.m.form == nil || h.m.form.adding() {
		t.Fatalf("expected edit form")
	}
	want := map[formField]string{
		fieldName:     "Essay",
		fieldDate:     "2025-03-10",
		fieldClock:    "12:00",
		fieldRemind:   "5",
		fieldCategory: "Home",
	}
	for fl, v := range want {
		if h.m.form.values[fl] != v {
			t.Errorf("field %s: expected %q, got %q", fieldLabel(fl), v, h.m.form.values[fl])
		}
	}

	h.press(" draft", "enter", "enter", "enter", "enter", "enter")
	got, _ := h.p.Get("t1")
	if got.Name != "Essay draft" {
		t.Errorf("expected renamed task, got %q", got.Name)
	}
}

func TestFilterKeys(t *testing.T) {
	h := newHarness(t, true,
		dueTask(t, "t1", "Today", "2025-03-10 12:00", task.CategorySchool),
		dueTask(t, "t2", "Later", "2025-03-14 12:00", task.CategoryHome),
		task.Task{ID: "t3", Name: "Someday", Category: task.CategoryActivities, Status: task.StatusOpen},
	)

	cases := []struct {
		key  string
		want planner.TimeFilter
		n    int
	}{
		{"2", planner.FilterThisWeek, 2},
		{"3", planner.FilterAll, 3},
		{"4", planner.FilterDone, 0},
		{"1", planner.FilterToday, 1},
		{"f", planner.FilterThisWeek, 2},
	}
	for _, tc := range cases {
		h.press(tc.key)
		if h.m.filter != tc.want || len(h.m.tasks) != tc.n {
			t.Errorf("key %q: expected %s with %d tasks, got %s with %d", tc.key, tc.want, tc.n, h.m.filter, len(h.m.tasks))
		}
	}
}

func TestCategoryToggle(t *testing.T) {
	h := newHarness(t, true,
		dueTask(t, "t1", "Essay", "2025-03-10 12:00", task.CategorySchool),
		dueTask(t, "t2", "Dishes", "2025-03-10 13:00", task.CategoryHome),
	)

	h.press("s")
	if h.m.category != task.CategorySchool || len(h.m.tasks) != 1 {
		t.Fatalf("expected School filter with 1 task, got %q with %d", h.m.category, len(h.m.tasks))
	}
	h.press("s")
	if h.m.category != planner.AllCategories || len(h.m.tasks) != 2 {
		t.Errorf("expected toggle back to all, got %q", h.m.category)
	}
	h.press("h", "C")
	if h.m.category != planner.AllCategories {
		t.Errorf("expected clear to return to all, got %q", h.m.category)
	}
}

func TestCategoryKeysIgnoredWhenDisabled(t *testing.T) {
	h := newHarness(t, false, dueTask(t, "t1", "Essay", "2025-03-10 12:00", ""))

	h.press("s", "c")
	if h.m.category != planner.AllCategories {
		t.Errorf("expected category keys ignored, got %q", h.m.category)
	}

	h.press("a")
	for _, fl := range h.m.form.fields {
		if fl == fieldCategory {
			t.Errorf("expected no category field in the form")
		}
	}
}

func TestSweepShowsReminder(t *testing.T) {
	h := newHarness(t, true, dueTask(t, "t1", "Math HW", "2025-03-10 09:04", task.CategorySchool))

	msg := h.m.Init()()
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)

	if cmd == nil {
		t.Errorf("expected the next sweep to be scheduled")
	}
	if len(h.rec.Sent()) != 1 {
		t.Fatalf("expected one notification, got %d", len(h.rec.Sent()))
	}
	if !strings.Contains(h.m.reminder, "Math HW is due at 2025-03-10 09:04") {
		t.Errorf("unexpected reminder banner %q", h.m.reminder)
	}

	next, _ = h.m.Update(sweepTickMsg{})
	h.m = next.(Model)
	h.clock.Advance(time.Minute)
	msg = h.m.sweepCmd()()
	next, _ = h.m.Update(msg)
	h.m = next.(Model)
	if len(h.rec.Sent()) != 1 {
		t.Errorf("expected reminder to fire only once, got %d", len(h.rec.Sent()))
	}

	h.press("enter")
	if h.m.reminder != "" {
		t.Errorf("expected banner dismissed")
	}
}

func TestViewSections(t *testing.T) {
	h := newHarness(t, true)
	out := h.m.View()
	for _, want := range []string{"Top 3 Today", "No tasks due today yet!", "No tasks to show. Add one!"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestClampAndWrap(t *testing.T) {
	if clampCursor(5, 3) != 2 || clampCursor(-1, 3) != 0 || clampCursor(1, 0) != 0 {
		t.Errorf("clampCursor out of range")
	}
	if wrapIndex(-1, 4) != 3 || wrapIndex(4, 4) != 0 || wrapIndex(2, 0) != 0 {
		t.Errorf("wrapIndex out of range")
	}
}

func TestSweepPicksUpTasksSavedElsewhere(t *testing.T) {
	h := newHarness(t, true)

	other := planner.New(h.store, planner.Options{Clock: h.clock, Categories: true})
	if err := other.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := other.Create(planner.Input{Name: "Soccer", Due: "2025-03-10 18:00", Remind: 30, Category: task.CategoryActivities}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(h.m.tasks) != 0 {
		t.Fatalf("expected the view to be stale before a sweep")
	}

	next, _ := h.m.Update(h.m.sweepCmd()())
	h.m = next.(Model)
	if len(h.m.tasks) != 1 || h.m.tasks[0].Name != "Soccer" {
		t.Errorf("expected Soccer in today's view after the sweep, got %+v", h.m.tasks)
	}
}
