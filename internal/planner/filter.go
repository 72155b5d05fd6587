package planner

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"planner/internal/task"
	"planner/internal/timeutil"
)

// TimeFilter selects tasks by deadline window or completion.
type TimeFilter int

const (
	FilterToday TimeFilter = iota
	FilterThisWeek
	FilterAll
	FilterDone
)

// WeekDays is the length of the This Week window after today.
const WeekDays = 7

// TopTodayLimit is the size of the "top tasks today" view.
const TopTodayLimit = 3

// TimeFilters returns every time filter in display order.
func TimeFilters() []TimeFilter {
	return []TimeFilter{FilterToday, FilterThisWeek, FilterAll, FilterDone}
}

func (f TimeFilter) String() string {
	switch f {
	case FilterToday:
		return "Today"
	case FilterThisWeek:
		return "This Week"
	case FilterAll:
		return "All"
	case FilterDone:
		return "Done"
	default:
		return fmt.Sprintf("TimeFilter(%d)", int(f))
	}
}

// Next cycles to the following filter, wrapping around.
func (f TimeFilter) Next() TimeFilter {
	filters := TimeFilters()
	i := slices.Index(filters, f)
	return filters[(i+1)%len(filters)]
}

// ParseTimeFilter accepts a filter name in any case; "week" and "this-week"
// are accepted for This Week.
func ParseTimeFilter(s string) (TimeFilter, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", " ", "_", " ").Replace(norm)
	switch norm {
	case "today":
		return FilterToday, nil
	case "this week", "thisweek", "week":
		return FilterThisWeek, nil
	case "all":
		return FilterAll, nil
	case "done":
		return FilterDone, nil
	}
	names := make([]string, 0, len(TimeFilters()))
	for _, f := range TimeFilters() {
		names = append(names, f.String())
	}
	return FilterToday, fmt.Errorf("unknown filter %q (valid: %s)", s, strings.Join(names, ", "))
}

// AllCategories is the category filter that matches every task.
const AllCategories task.Category = ""

// ToggleCategory returns the category filter after the user picks chosen
// while active is selected. Picking the active category again clears it.
func ToggleCategory(active, chosen task.Category) task.Category {
	if active == chosen {
		return AllCategories
	}
	return chosen
}

// Filter returns the tasks matching tf and cat, sorted by SortTasks. All
// date comparisons use the single reference time now.
func Filter(tasks []task.Task, now time.Time, tf TimeFilter, cat task.Category) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if matchesTime(t, now, tf) && matchesCategory(t, cat) {
			out = append(out, t)
		}
	}
	SortTasks(out)
	return out
}

func matchesTime(t task.Task, now time.Time, tf TimeFilter) bool {
	if tf == FilterDone {
		return t.Status == task.StatusDone
	}
	if !t.IsOpen() {
		return false
	}
	switch tf {
	case FilterAll:
		return true
	case FilterToday:
		return t.HasDue() && timeutil.SameDay(now, t.Due)
	case FilterThisWeek:
		return t.HasDue() && timeutil.WithinDays(now, t.Due, WeekDays)
	default:
		return false
	}
}

func matchesCategory(t task.Task, cat task.Category) bool {
	return cat == AllCategories || t.Category == cat
}

// SortTasks orders tasks open before done, then by due time ascending with
// deadline-less tasks last. Equal keys keep their relative order.
func SortTasks(tasks []task.Task) {
	slices.SortStableFunc(tasks, compareTasks)
}

func compareTasks(a, b task.Task) int {
	if r := a.Status.Rank() - b.Status.Rank(); r != 0 {
		return r
	}
	return compareDue(a, b)
}

func compareDue(a, b task.Task) int {
	switch {
	case !a.HasDue() && !b.HasDue():
		return 0
	case !a.HasDue():
		return 1
	case !b.HasDue():
		return -1
	default:
		return a.Due.Compare(b.Due)
	}
}

// TopToday returns up to n open tasks due on now's date, earliest first.
func TopToday(tasks []task.Task, now time.Time, n int) []task.Task {
	if n <= 0 {
		return []task.Task{}
	}
	out := make([]task.Task, 0, n)
	for _, t := range tasks {
		if t.IsOpen() && t.HasDue() && timeutil.SameDay(now, t.Due) {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, compareDue)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Counts returns how many tasks each time filter would show for cat.
func Counts(tasks []task.Task, now time.Time, cat task.Category) map[TimeFilter]int {
	counts := make(map[TimeFilter]int, len(TimeFilters()))
	for _, t := range tasks {
		if !matchesCategory(t, cat) {
			continue
		}
		for _, f := range TimeFilters() {
			if matchesTime(t, now, f) {
				counts[f]++
			}
		}
	}
	return counts
}

// Query returns the current view for tf and cat.
func (p *Planner) Query(tf TimeFilter, cat task.Category) []task.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Filter(p.tasks, p.clock.Now(), tf, cat)
}

// TopToday returns the top tasks due today, independent of any view filter.
func (p *Planner) TopToday() []task.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return TopToday(p.tasks, p.clock.Now(), TopTodayLimit)
}

// Counts returns per-filter task counts for cat.
func (p *Planner) Counts(cat task.Category) map[TimeFilter]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Counts(p.tasks, p.clock.Now(), cat)
}
