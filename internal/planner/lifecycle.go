package planner

import (
	"fmt"
	"strings"
	"time"

	"planner/internal/task"
	"planner/internal/timeutil"
)

// Input carries the user-editable fields of a task.
type Input struct {
	Name     string
	Due      string
	Remind   int
	Category task.Category
}

type validInput struct {
	name     string
	due      time.Time
	remind   int
	category task.Category
}

// validate checks in field by field in form order: name, due, remind,
// category. Nothing is mutated on failure.
func (p *Planner) validate(in Input) (validInput, error) {
	name := strings.TrimSpace(in.Name)
	if err := task.ValidateName(name); err != nil {
		return validInput{}, err
	}
	due, ok := timeutil.Parse(in.Due)
	if !ok {
		return validInput{}, fmt.Errorf("%w: got %q", task.ErrInvalidDue, strings.TrimSpace(in.Due))
	}
	if err := task.ValidateRemind(in.Remind); err != nil {
		return validInput{}, err
	}
	if err := task.ValidateCategory(in.Category, p.categories); err != nil {
		return validInput{}, err
	}
	return validInput{name: name, due: due, remind: in.Remind, category: in.Category}, nil
}

// Create adds an open, not yet notified task with a fresh id.
func (p *Planner) Create(in Input) (task.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	unlock, err := p.sync()
	if err != nil {
		return task.Task{}, err
	}
	defer unlock()

	v, err := p.validate(in)
	if err != nil {
		return task.Task{}, err
	}

	taken := make(map[string]struct{}, len(p.tasks))
	for _, t := range p.tasks {
		taken[t.ID] = struct{}{}
	}
	t := task.Task{
		ID:       p.freshID(taken),
		Name:     v.name,
		Due:      v.due,
		Remind:   v.remind,
		Category: v.category,
		Status:   task.StatusOpen,
	}

	next := append(cloneTasks(p.tasks), t)
	if err := p.commit(next); err != nil {
		return task.Task{}, err
	}
	p.logger.Printf("created task %s %q due %s", t.ID, t.Name, timeutil.Format(t.Due))
	return t, nil
}

// Update replaces a task's editable fields. Editing always re-arms the
// reminder, even when due and remind are unchanged.
func (p *Planner) Update(id string, in Input) (task.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	unlock, err := p.sync()
	if err != nil {
		return task.Task{}, err
	}
	defer unlock()

	i := p.indexOf(id)
	if i < 0 {
		return task.Task{}, fmt.Errorf("%w: %s", task.ErrTaskNotFound, id)
	}
	v, err := p.validate(in)
	if err != nil {
		return task.Task{}, err
	}

	next := cloneTasks(p.tasks)
	t := &next[i]
	t.Name = v.name
	t.Due = v.due
	t.RawDue = ""
	t.Remind = v.remind
	t.Category = v.category
	t.Notified = false

	if err := p.commit(next); err != nil {
		return task.Task{}, err
	}
	p.logger.Printf("updated task %s", id)
	return next[i], nil
}

// Complete marks a task done.
func (p *Planner) Complete(id string) (task.Task, error) {
	return p.setStatus(id, task.StatusDone)
}

// Reopen marks a done task open again and re-arms its reminder.
func (p *Planner) Reopen(id string) (task.Task, error) {
	return p.setStatus(id, task.StatusOpen)
}

func (p *Planner) setStatus(id string, status task.Status) (task.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	unlock, err := p.sync()
	if err != nil {
		return task.Task{}, err
	}
	defer unlock()

	i := p.indexOf(id)
	if i < 0 {
		return task.Task{}, fmt.Errorf("%w: %s", task.ErrTaskNotFound, id)
	}
	next := cloneTasks(p.tasks)
	if status == task.StatusOpen && next[i].Status != task.StatusOpen {
		next[i].Notified = false
	}
	next[i].Status = status
	if err := p.commit(next); err != nil {
		return task.Task{}, err
	}
	p.logger.Printf("task %s is now %s", id, status)
	return next[i], nil
}

// Delete removes a task. Confirmation is the caller's job.
func (p *Planner) Delete(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	unlock, err := p.sync()
	if err != nil {
		return err
	}
	defer unlock()

	i := p.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", task.ErrTaskNotFound, id)
	}
	next := make([]task.Task, 0, len(p.tasks)-1)
	next = append(next, p.tasks[:i]...)
	next = append(next, p.tasks[i+1:]...)
	if err := p.commit(next); err != nil {
		return err
	}
	p.logger.Printf("deleted task %s", id)
	return nil
}
