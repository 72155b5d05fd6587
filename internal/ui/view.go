package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"planner/internal/config"
	"planner/internal/planner"
	"planner/internal/task"
	"planner/internal/timeutil"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

	tabStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("39")).
			Background(lipgloss.Color("236"))

	activeTabStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)
	overdueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)
	keyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	reminderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("226")).
			Padding(0, 1)

	formStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	topStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("57")).
			Padding(0, 1)
)

var categoryColors = map[task.Category]lipgloss.Color{
	task.CategorySchool:     lipgloss.Color("#4A90E2"),
	task.CategoryHome:       lipgloss.Color("#50B27D"),
	task.CategoryActivities: lipgloss.Color("#F5A623"),
}

const maxNameWidth = 40

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Planner"))
	b.WriteString("  ")
	b.WriteString(mutedStyle.Render(m.planner.Now().Format("Mon Jan 2 15:04")))
	b.WriteString("\n\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if m.reminder != "" {
		b.WriteString(reminderStyle.Render("Reminder\n" + m.reminder))
		b.WriteString("\n\n")
	}

	b.WriteString(topStyle.Render(m.renderTop()))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("Your Tasks · " + m.viewName()))
	b.WriteString("\n")
	if len(m.tasks) == 0 {
		b.WriteString(mutedStyle.Render("No tasks to show. Add one!"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderTaskList())
	}

	b.WriteString("\n")
	switch m.mode {
	case modeForm:
		b.WriteString(formStyle.Render(m.renderForm()))
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	default:
		b.WriteString(m.renderDetail())
	}

	b.WriteString("\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(renderHelp(m.cfg.Keys, m.planner.CategoriesEnabled()))
	return b.String()
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, len(planner.TimeFilters()))
	for _, f := range planner.TimeFilters() {
		label := fmt.Sprintf("%s (%d)", f, m.counts[f])
		if f == m.filter {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if !m.planner.CategoriesEnabled() {
		return row
	}
	cats := []string{categoryTab(planner.AllCategories, m.category)}
	for _, c := range task.ValidCategories() {
		cats = append(cats, categoryTab(c, m.category))
	}
	return lipgloss.JoinVertical(lipgloss.Left, row, lipgloss.JoinHorizontal(lipgloss.Top, cats...))
}

func categoryTab(c, active task.Category) string {
	label := string(c)
	if c == planner.AllCategories {
		label = "All"
	}
	style := tabStyle
	if c == active {
		style = activeTabStyle
	}
	if color, ok := categoryColors[c]; ok && c != active {
		style = style.Foreground(color)
	}
	return style.Render(label)
}

func (m Model) renderTop() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Top 3 Today"))
	if len(m.top) == 0 {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("No tasks due today yet!"))
		return b.String()
	}
	for i, t := range m.top {
		b.WriteString(fmt.Sprintf("\n%d. %s  %s", i+1, m.renderName(t), t.Due.Format(timeutil.ClockLayout)))
	}
	return b.String()
}

func (m Model) renderTaskList() string {
	now := m.planner.Now()
	var b strings.Builder
	for _, t := range m.tasks {
		cursor := " "
		if t.ID == m.selectedID && m.mode != modeForm {
			cursor = selectedStyle.Render(">")
		}

		checkbox := "[ ]"
		if !t.IsOpen() {
			checkbox = "[x]"
		}

		due := "no due date"
		if t.HasDue() {
			due = timeutil.Format(t.Due) + " (" + timeutil.Relative(now, t.Due) + ")"
		}
		dueText := mutedStyle.Render(due)
		if t.IsOpen() && t.HasDue() && t.Due.Before(now) {
			dueText = overdueStyle.Render(due)
		}

		b.WriteString(fmt.Sprintf("%s %s %s  %s", cursor, checkbox, m.renderName(t), dueText))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderName(t task.Task) string {
	name := truncate.StringWithTail(t.Name, maxNameWidth, "…")
	if !t.IsOpen() {
		name = doneStyle.Render(name)
	}
	if !m.planner.CategoriesEnabled() || t.Category == "" {
		return name
	}
	tag := string(t.Category)
	if color, ok := categoryColors[t.Category]; ok {
		tag = lipgloss.NewStyle().Foreground(color).Render(tag)
	}
	return name + " " + mutedStyle.Render("[") + tag + mutedStyle.Render("]")
}

func (m Model) renderForm() string {
	if m.form == nil {
		return ""
	}
	var b strings.Builder
	if m.form.adding() {
		b.WriteString(headerStyle.Render("New task"))
	} else {
		b.WriteString(headerStyle.Render("Edit task"))
	}
	for i, fl := range m.form.fields {
		prefix := " "
		val := m.form.values[fl]
		if i == m.form.index {
			prefix = ">"
			val = m.input.Value()
		}
		b.WriteString(fmt.Sprintf("\n%s %-34s : %s", prefix, fieldLabel(fl), emptyPlaceholder(val)))
	}
	return b.String()
}

func (m Model) renderDetail() string {
	t, ok := m.selected()
	if !ok {
		return mutedStyle.Render("No task selected")
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Name     : %s\n", t.Name))
	b.WriteString(fmt.Sprintf("Status   : %s\n", t.Status))
	due := timeutil.Format(t.Due)
	if due == "" {
		due = t.RawDue
	}
	b.WriteString(fmt.Sprintf("Due      : %s\n", emptyPlaceholder(due)))
	b.WriteString(fmt.Sprintf("Remind   : %d min before\n", t.Remind))
	if m.planner.CategoriesEnabled() {
		b.WriteString(fmt.Sprintf("Category : %s\n", emptyPlaceholder(string(t.Category))))
	}
	return b.String()
}

func renderHelp(k config.Keymap, categories bool) string {
	help := fmt.Sprintf("%s/%s move • %s add • %s edit • %s done • %s delete • %s/%s/%s/%s or %s view • %s quit",
		k.Up, k.Down, k.Add, k.Edit, keyName(k.Done), k.Delete,
		k.FilterToday, k.FilterWeek, k.FilterAll, k.FilterDone, k.CycleFilter, k.Quit)
	if categories {
		help += fmt.Sprintf("\n%s/%s/%s category • %s cycle • %s all", k.CategorySchool, k.CategoryHome, k.CategoryActs, k.CycleCategory, k.ClearCategory)
	}
	return keyStyle.Render(help)
}

func emptyPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(empty)"
	}
	return v
}
