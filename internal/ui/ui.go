package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"planner/internal/config"
	"planner/internal/planner"
	"planner/internal/task"
)

type mode int

const (
	modeList mode = iota
	modeForm
	modeConfirmDelete
)

type sweepTickMsg struct{}

type sweepMsg struct {
	res planner.SweepResult
	err error
}

type Model struct {
	ctx        context.Context
	planner    *planner.Planner
	cfg        config.Config
	interval   time.Duration
	tasks      []task.Task
	top        []task.Task
	counts     map[planner.TimeFilter]int
	cursor     int
	selectedID string
	mode       mode
	input      textinput.Model
	status     string
	reminder   string
	filter     planner.TimeFilter
	category   task.Category
	form       *formState
	pendingDel *task.Task
	width      int
}

// New builds the planner view. notice, when non-empty, is shown as the first
// status message; it carries warnings such as a storage reset.
func New(ctx context.Context, p *planner.Planner, cfg config.Config, notice string) Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40

	filter, err := cfg.Filter()
	if err != nil {
		filter = planner.FilterToday
	}
	interval, err := cfg.Interval()
	if err != nil {
		interval = planner.DefaultSweepInterval
	}

	m := Model{
		ctx:      ctx,
		planner:  p,
		cfg:      cfg,
		interval: interval,
		input:    ti,
		mode:     modeList,
		filter:   filter,
		status:   fmt.Sprintf("Press '%s' to add a task, '%s' to edit, '%s' to mark done.", cfg.Keys.Add, cfg.Keys.Edit, keyName(cfg.Keys.Done)),
	}
	if notice != "" {
		m.status = notice
	}
	m.refresh()
	return m
}

func Run(ctx context.Context, p *planner.Planner, cfg config.Config, notice string) error {
	program := tea.NewProgram(New(ctx, p, cfg, notice), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return m.sweepCmd()
}

func (m Model) sweepCmd() tea.Cmd {
	return func() tea.Msg {
		res, err := m.planner.Sweep(m.ctx)
		return sweepMsg{res: res, err: err}
	}
}

func (m Model) scheduleSweep() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return sweepTickMsg{}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.mode {
		case modeForm:
			return m.updateFormMode(msg.String(), msg)
		case modeConfirmDelete:
			return m.updateDeleteConfirm(msg.String())
		default:
			return m.updateListMode(msg.String())
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(20, msg.Width-10)
	case sweepTickMsg:
		return m, m.sweepCmd()
	case sweepMsg:
		m.handleSweep(msg)
		return m, m.scheduleSweep()
	}
	return m, nil
}

func (m *Model) handleSweep(msg sweepMsg) {
	if msg.err != nil {
		log.Printf("Warning: reminder sweep: %v", msg.err)
		m.status = fmt.Sprintf("save failed: %v", msg.err)
	}
	if msg.res.Changed() {
		lines := make([]string, 0, len(msg.res.Fired))
		for _, t := range msg.res.Fired {
			lines = append(lines, planner.ReminderMessage(t))
		}
		m.reminder = strings.Join(lines, "\n")
	}
	// A sweep re-reads the store, so the view also picks up changes saved by
	// other processes.
	m.refresh()
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	if m.reminder != "" {
		m.reminder = ""
		if key == k.Confirm || key == k.Cancel {
			return m, nil
		}
	}
	switch key {
	case "ctrl+c", k.Quit:
		return m, tea.Quit
	case k.Down, "down":
		if len(m.tasks) == 0 {
			return m, nil
		}
		if m.selectedID == "" {
			m.selectAt(m.cursor)
			return m, nil
		}
		m.selectAt(m.cursor + 1)
	case k.Up, "up":
		if len(m.tasks) == 0 {
			return m, nil
		}
		if m.selectedID == "" {
			m.selectAt(m.cursor)
			return m, nil
		}
		m.selectAt(m.cursor - 1)
	case k.Add:
		return m.startForm(newForm(m.planner.CategoriesEnabled()))
	case k.Edit:
		t, ok := m.selected()
		if !ok {
			m.status = "Please select a task to edit."
			return m, nil
		}
		return m.startForm(editForm(t, m.planner.CategoriesEnabled()))
	case k.Done:
		t, ok := m.selected()
		if !ok {
			m.status = "Please select a task to mark done."
			return m, nil
		}
		if _, err := m.planner.Complete(t.ID); err != nil {
			m.status = m.errorStatus(err, "mark done")
			m.refresh()
			return m, nil
		}
		m.status = fmt.Sprintf("Nice work! %q is done.", t.Name)
		m.refresh()
	case k.Delete:
		t, ok := m.selected()
		if !ok {
			m.status = "Please select a task to delete."
			return m, nil
		}
		m.mode = modeConfirmDelete
		m.pendingDel = &t
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", t.Name)
	case k.FilterToday:
		m.setFilter(planner.FilterToday)
	case k.FilterWeek:
		m.setFilter(planner.FilterThisWeek)
	case k.FilterAll:
		m.setFilter(planner.FilterAll)
	case k.FilterDone:
		m.setFilter(planner.FilterDone)
	case k.CycleFilter:
		m.setFilter(m.filter.Next())
	case k.CategorySchool:
		m.toggleCategory(task.CategorySchool)
	case k.CategoryHome:
		m.toggleCategory(task.CategoryHome)
	case k.CategoryActs:
		m.toggleCategory(task.CategoryActivities)
	case k.CycleCategory:
		m.setCategory(nextCategory(m.category))
	case k.ClearCategory:
		m.setCategory(planner.AllCategories)
	}
	return m, nil
}

func (m *Model) setFilter(f planner.TimeFilter) {
	m.filter = f
	m.status = "Showing " + m.viewName()
	m.refresh()
}

// toggleCategory selects c, or returns to all categories when c is already
// active.
func (m *Model) toggleCategory(c task.Category) {
	m.setCategory(planner.ToggleCategory(m.category, c))
}

func (m *Model) setCategory(c task.Category) {
	if !m.planner.CategoriesEnabled() {
		return
	}
	m.category = c
	m.status = "Showing " + m.viewName()
	m.refresh()
}

func nextCategory(c task.Category) task.Category {
	cats := task.ValidCategories()
	for i, cat := range cats {
		if cat == c {
			if i == len(cats)-1 {
				return planner.AllCategories
			}
			return cats[i+1]
		}
	}
	return cats[0]
}

func (m Model) viewName() string {
	name := m.filter.String()
	if m.category != planner.AllCategories {
		name += " · " + string(m.category)
	}
	return name
}

func (m Model) startForm(f *formState) (tea.Model, tea.Cmd) {
	m.form = f
	m.mode = modeForm
	m.loadFormField()
	if f.adding() {
		m.status = "New task: enter to go to the next field, esc to cancel"
	} else {
		m.status = "Edit task: enter to go to the next field, esc to cancel"
	}
	cmd := m.input.Focus()
	return m, cmd
}

func (m *Model) loadFormField() {
	m.input.SetValue(m.form.currentValue())
	m.input.Placeholder = fieldLabel(m.form.current())
	m.input.CursorEnd()
}

func (m Model) updateFormMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case k.Cancel, "esc":
		m.closeForm()
		m.status = "Cancelled"
		return m, nil
	case k.NextField, k.PrevField:
		m.form.setCurrentValue(m.input.Value())
		if key == k.NextField {
			m.form.move(1)
		} else {
			m.form.move(-1)
		}
		m.loadFormField()
		return m, nil
	case k.Confirm, "enter":
		m.form.setCurrentValue(m.input.Value())
		if !m.form.last() {
			m.form.move(1)
			m.loadFormField()
			return m, nil
		}
		return m.saveForm()
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) saveForm() (tea.Model, tea.Cmd) {
	in, err := m.form.input()
	var saved task.Task
	if err == nil {
		if m.form.adding() {
			saved, err = m.planner.Create(in)
		} else {
			saved, err = m.planner.Update(m.form.taskID, in)
		}
	}
	if err != nil {
		if errors.Is(err, task.ErrTaskNotFound) {
			m.closeForm()
			m.selectedID = ""
			m.refresh()
		} else if fl, ok := fieldForError(err); ok {
			m.form.focus(fl)
			m.loadFormField()
		}
		m.status = m.errorStatus(err, "edit")
		return m, nil
	}

	adding := m.form.adding()
	m.closeForm()
	m.selectedID = saved.ID
	m.refresh()
	if adding {
		m.status = fmt.Sprintf("Added %q", saved.Name)
	} else {
		m.status = fmt.Sprintf("Saved %q", saved.Name)
	}
	if m.selectedID == "" {
		m.status += fmt.Sprintf(" (not shown under %s)", m.viewName())
	}
	return m, nil
}

func (m *Model) closeForm() {
	m.form = nil
	m.mode = modeList
	m.input.SetValue("")
	m.input.Blur()
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.status = "Delete cancelled"
		m.mode = modeList
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			m.mode = modeList
			return m, nil
		}
		name := m.pendingDel.Name
		err := m.planner.Delete(m.pendingDel.ID)
		m.mode = modeList
		m.pendingDel = nil
		m.selectedID = ""
		if err != nil {
			m.status = m.errorStatus(err, "delete")
		} else {
			m.status = fmt.Sprintf("Deleted %q", name)
		}
		m.refresh()
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) errorStatus(err error, verb string) string {
	switch {
	case errors.Is(err, task.ErrTaskNotFound):
		return fmt.Sprintf("Please select a task to %s.", verb)
	case errors.Is(err, task.ErrEmptyName):
		return "Please enter a task name."
	case errors.Is(err, task.ErrInvalidDue):
		return "Please use date YYYY-MM-DD and time HH:MM (24-hour)."
	case errors.Is(err, task.ErrInvalidRemind):
		return "Please choose a reminder time from " + joinInts(task.RemindOffsets(), ", ") + "."
	case errors.Is(err, task.ErrInvalidCategory):
		return "Please choose a category: " + task.FormatValidValues(task.ValidCategories()) + "."
	default:
		log.Printf("Warning: %s failed: %v", verb, err)
		return fmt.Sprintf("save failed: %v", err)
	}
}

// refresh recomputes the view and keeps the selection on the same task when
// it is still visible.
func (m *Model) refresh() {
	m.tasks = m.planner.Query(m.filter, m.category)
	m.top = m.planner.TopToday()
	m.counts = m.planner.Counts(m.category)
	if m.selectedID == "" {
		m.cursor = clampCursor(m.cursor, len(m.tasks))
		return
	}
	for i, t := range m.tasks {
		if t.ID == m.selectedID {
			m.cursor = i
			return
		}
	}
	m.selectedID = ""
	m.cursor = clampCursor(m.cursor, len(m.tasks))
}

func (m *Model) selectAt(i int) {
	if len(m.tasks) == 0 {
		m.selectedID = ""
		m.cursor = 0
		return
	}
	m.cursor = clampCursor(i, len(m.tasks))
	m.selectedID = m.tasks[m.cursor].ID
}

func (m Model) selected() (task.Task, bool) {
	if m.selectedID == "" {
		return task.Task{}, false
	}
	for _, t := range m.tasks {
		if t.ID == m.selectedID {
			return t, true
		}
	}
	return task.Task{}, false
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

func keyName(k string) string {
	if k == " " {
		return "space"
	}
	return k
}
