// Package task defines the planner's task record and the fixed value sets a
// task draws from.
package task

import (
	"slices"
	"time"
)

// Status is the completion state of a task.
type Status string

const (
	// StatusOpen marks a task that still needs doing.
	StatusOpen Status = "Open"
	// StatusDone marks a completed task. Done tasks are never reminded.
	StatusDone Status = "Done"
)

// ValidStatuses returns all valid status values.
func ValidStatuses() []Status {
	return []Status{StatusOpen, StatusDone}
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	return slices.Contains(ValidStatuses(), s)
}

// Rank orders statuses for display: open first.
func (s Status) Rank() int {
	if s == StatusDone {
		return 1
	}
	return 0
}

// Category groups tasks for filtering. The empty category means "none".
type Category string

const (
	CategorySchool     Category = "School"
	CategoryHome       Category = "Home"
	CategoryActivities Category = "Activities"

	// DefaultCategory is filled in for stored tasks that carry no category.
	DefaultCategory = CategorySchool
)

// ValidCategories returns all valid categories in display order.
func ValidCategories() []Category {
	return []Category{CategorySchool, CategoryHome, CategoryActivities}
}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	return slices.Contains(ValidCategories(), c)
}

// DefaultRemindOffset is the reminder lead time offered for new tasks.
const DefaultRemindOffset = 5

// RemindOffsets returns the allowed reminder lead times in minutes.
func RemindOffsets() []int {
	return []int{0, 5, 10, 15, 30, 60}
}

// Task is a single planner entry.
type Task struct {
	ID   string
	Name string
	// Due is the zero time when the task has no deadline.
	Due time.Time
	// RawDue holds the stored due text when it did not parse, so that it
	// survives a save unchanged.
	RawDue   string
	Remind   int
	Category Category
	Status   Status
	Notified bool
}

// HasDue reports whether the task has a deadline.
func (t Task) HasDue() bool {
	return !t.Due.IsZero()
}

// IsOpen reports whether the task is not yet done.
func (t Task) IsOpen() bool {
	return t.Status != StatusDone
}

// RemindAt returns the instant the reminder for t becomes due.
func (t Task) RemindAt() (time.Time, bool) {
	if !t.HasDue() {
		return time.Time{}, false
	}
	return t.Due.Add(-time.Duration(t.Remind) * time.Minute), true
}

// Reminding reports whether t should be reminded at now: open, not yet
// notified, with a deadline whose reminder time has been reached.
func (t Task) Reminding(now time.Time) bool {
	if !t.IsOpen() || t.Notified {
		return false
	}
	at, ok := t.RemindAt()
	if !ok {
		return false
	}
	return !now.Before(at)
}
