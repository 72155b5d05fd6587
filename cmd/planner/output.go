package main

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"

	"planner/internal/task"
	"planner/internal/timeutil"
)

const (
	shortIDLength     = 8
	tableCellMaxWidth = 50
	tableCellEllipsis = "..."
)

type taskJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Due      string `json:"due"`
	Remind   int    `json:"remind"`
	Category string `json:"category,omitempty"`
	Status   string `json:"status"`
	Notified bool   `json:"notified"`
}

func writeTasks(cmd *cobra.Command, tasks []task.Task, asJSON bool) error {
	if asJSON {
		out := make([]taskJSON, 0, len(tasks))
		for _, t := range tasks {
			out = append(out, taskJSON{
				ID:       t.ID,
				Name:     t.Name,
				Due:      dueString(t),
				Remind:   t.Remind,
				Category: string(t.Category),
				Status:   string(t.Status),
				Notified: t.Notified,
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	if len(tasks) == 0 {
		printf(cmd, "No tasks to show. Add one!\n")
		return nil
	}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			shortID(t.ID),
			string(t.Status),
			dueString(t),
			strconv.Itoa(t.Remind) + "m",
			string(t.Category),
			t.Name,
		})
	}
	printf(cmd, "%s", formatTable([]string{"ID", "STATUS", "DUE", "REMIND", "CATEGORY", "NAME"}, rows))
	return nil
}

func dueString(t task.Task) string {
	if t.HasDue() {
		return timeutil.Format(t.Due)
	}
	return t.RawDue
}

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

func formatTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		normalized := make([]string, len(row))
		for i, cell := range row {
			cell = truncate.StringWithTail(strings.ReplaceAll(cell, "\n", " "), tableCellMaxWidth, tableCellEllipsis)
			normalized[i] = cell
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
		cells = append(cells, normalized)
	}

	var b strings.Builder
	writeRow := func(row []string) {
		for i, cell := range row {
			b.WriteString(cell)
			if i == len(row)-1 {
				b.WriteByte('\n')
				continue
			}
			b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+2))
		}
	}
	writeRow(headers)
	for _, row := range cells {
		writeRow(row)
	}
	return b.String()
}
