package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"planner/internal/planner"
	"planner/internal/task"
	"planner/internal/timeutil"
)

type formField int

const (
	fieldName formField = iota
	fieldDate
	fieldClock
	fieldRemind
	fieldCategory
)

// formState holds the add/edit form. taskID is empty when adding.
type formState struct {
	taskID string
	values map[formField]string
	fields []formField
	index  int
}

func newForm(categories bool) *formState {
	f := &formState{
		values: map[formField]string{
			fieldRemind: strconv.Itoa(task.DefaultRemindOffset),
		},
		fields: []formField{fieldName, fieldDate, fieldClock, fieldRemind},
	}
	if categories {
		f.fields = append(f.fields, fieldCategory)
		f.values[fieldCategory] = string(task.DefaultCategory)
	}
	return f
}

func editForm(t task.Task, categories bool) *formState {
	f := newForm(categories)
	f.taskID = t.ID
	due := timeutil.Format(t.Due)
	if due == "" {
		due = t.RawDue
	}
	date, clock := timeutil.Split(due)
	f.values[fieldName] = t.Name
	f.values[fieldDate] = date
	f.values[fieldClock] = clock
	f.values[fieldRemind] = strconv.Itoa(t.Remind)
	if categories {
		cat := t.Category
		if cat == "" {
			cat = task.DefaultCategory
		}
		f.values[fieldCategory] = string(cat)
	}
	return f
}

func (f *formState) adding() bool { return f.taskID == "" }

func (f *formState) current() formField { return f.fields[f.index] }

func (f *formState) currentValue() string { return f.values[f.current()] }

func (f *formState) setCurrentValue(v string) { f.values[f.current()] = v }

func (f *formState) last() bool { return f.index >= len(f.fields)-1 }

func (f *formState) move(delta int) {
	f.index = wrapIndex(f.index+delta, len(f.fields))
}

func (f *formState) focus(field formField) {
	for i, fl := range f.fields {
		if fl == field {
			f.index = i
			return
		}
	}
}

// input converts the form into lifecycle input. Remind and category are
// parsed here; the rest is validated by the planner.
func (f *formState) input() (planner.Input, error) {
	in := planner.Input{
		Name: f.values[fieldName],
		Due:  timeutil.Combine(f.values[fieldDate], f.values[fieldClock]),
	}
	remind, err := task.ParseRemind(f.values[fieldRemind])
	if err != nil {
		return in, err
	}
	in.Remind = remind
	if _, ok := f.values[fieldCategory]; ok {
		cat, err := task.ParseCategory(f.values[fieldCategory])
		if err != nil {
			return in, err
		}
		in.Category = cat
	}
	return in, nil
}

func fieldLabel(fl formField) string {
	switch fl {
	case fieldName:
		return "Task name"
	case fieldDate:
		return "Due date (YYYY-MM-DD)"
	case fieldClock:
		return "Due time (HH:MM)"
	case fieldRemind:
		return fmt.Sprintf("Remind minutes before (%s)", joinInts(task.RemindOffsets(), "/"))
	case fieldCategory:
		return fmt.Sprintf("Category (%s)", strings.ReplaceAll(task.FormatValidValues(task.ValidCategories()), ", ", "/"))
	default:
		return ""
	}
}

// fieldForError picks the form field a validation error belongs to.
func fieldForError(err error) (formField, bool) {
	switch {
	case errors.Is(err, task.ErrEmptyName):
		return fieldName, true
	case errors.Is(err, task.ErrInvalidDue):
		return fieldDate, true
	case errors.Is(err, task.ErrInvalidRemind):
		return fieldRemind, true
	case errors.Is(err, task.ErrInvalidCategory):
		return fieldCategory, true
	default:
		return 0, false
	}
}

func joinInts(ns []int, sep string) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, sep)
}
