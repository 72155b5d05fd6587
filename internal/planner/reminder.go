package planner

import (
	"context"
	"fmt"
	"time"

	"planner/internal/task"
	"planner/internal/timeutil"
)

// ReminderTitle is the notification title used for every reminder.
const ReminderTitle = "Planner Reminder"

// DefaultSweepInterval is how often callers are expected to run Sweep.
const DefaultSweepInterval = 30 * time.Second

// SweepResult describes one reminder sweep.
type SweepResult struct {
	// Fired holds the tasks reminded by this sweep, already marked notified.
	Fired []task.Task
	// DeliveryErrors holds notifier failures. They do not un-fire a reminder.
	DeliveryErrors []error
}

// Changed reports whether the sweep notified anything, i.e. whether a view
// of the tasks should be refreshed.
func (r SweepResult) Changed() bool {
	return len(r.Fired) > 0
}

// ReminderMessage is the notification body for t.
func ReminderMessage(t task.Task) string {
	return fmt.Sprintf("%s is due at %s", t.Name, timeutil.Format(t.Due))
}

// Sweep reminds every open, not yet notified task whose reminder time has
// been reached, exactly once. Delivery is best effort: a failed delivery still
// marks the task notified. The list is saved only when a task was notified.
//
// Each sweep starts from the stored list, so tasks added or edited by other
// processes are considered. A save failure is returned, but the planner
// remembers the delivered reminders and does not send them again.
func (p *Planner) Sweep(ctx context.Context) (SweepResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	unlock, err := p.sync()
	if err != nil {
		return SweepResult{}, err
	}
	defer unlock()

	now := p.clock.Now()
	var res SweepResult
	var next []task.Task
	for i, t := range p.tasks {
		if !t.Reminding(now) {
			continue
		}
		if next == nil {
			next = cloneTasks(p.tasks)
		}
		if err := p.notifier.Notify(ctx, ReminderTitle, ReminderMessage(t)); err != nil {
			p.logger.Printf("Warning: reminder for task %s not delivered: %v", t.ID, err)
			res.DeliveryErrors = append(res.DeliveryErrors, fmt.Errorf("task %s: %w", t.ID, err))
		}
		next[i].Notified = true
		res.Fired = append(res.Fired, next[i])
	}
	if next == nil {
		if len(p.delivered) == 0 {
			return res, nil
		}
		next = cloneTasks(p.tasks)
	}

	p.tasks = next
	if err := p.store.Save(next); err != nil {
		if p.delivered == nil {
			p.delivered = make(map[string]time.Time)
		}
		for _, t := range res.Fired {
			at, _ := t.RemindAt()
			p.delivered[t.ID] = at
		}
		return res, fmt.Errorf("save tasks: %w", err)
	}
	p.delivered = nil
	return res, nil
}

// RunScheduler sweeps immediately and then again interval after each sweep
// finishes, until ctx is done. onSweep, if set, sees every result.
func RunScheduler(ctx context.Context, p *Planner, interval time.Duration, onSweep func(SweepResult, error)) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			res, err := p.Sweep(ctx)
			if onSweep != nil {
				onSweep(res, err)
			}
			timer.Reset(interval)
		}
	}
}
