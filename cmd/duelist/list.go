package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dori/duelist/internal/app"
	"github.com/dori/duelist/internal/model"
	"github.com/dori/duelist/internal/taskerr"
	"github.com/dori/duelist/internal/transfer"
	"github.com/dori/duelist/internal/ui/theme"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long:    `Lists tasks with the same filters and sort orders as the TUI.`,
	Args:    cobra.NoArgs,
	RunE:    runList,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show completion statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	listCmd.Flags().StringP("search", "s", "", "search title, notes and tags (case-insensitive)")
	listCmd.Flags().StringP("priority", "p", "all", "filter by priority (all, high, medium, low)")
	listCmd.Flags().String("status", "all", "filter by status (all, active, completed)")
	listCmd.Flags().StringP("sort", "o", "due_date", "sort by (due_date, priority, created_at, title)")
	listCmd.Flags().Bool("json", false, "output as JSON")
	statsCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(listCmd, statsCmd)
}

func filtersFromFlags(cmd *cobra.Command) (model.Filters, error) {
	f := model.DefaultFilters()
	f.Search, _ = cmd.Flags().GetString("search")

	prio, _ := cmd.Flags().GetString("priority")
	p, ok := model.ParsePriorityFilter(prio)
	if !ok {
		return f, taskerr.Invalid("priority", "unknown priority filter %q", prio)
	}
	f.Priority = p

	status, _ := cmd.Flags().GetString("status")
	st, ok := model.ParseStatusFilter(status)
	if !ok {
		return f, taskerr.Invalid("status", "unknown status filter %q", status)
	}
	f.Status = st

	sortBy, _ := cmd.Flags().GetString("sort")
	by, ok := model.ParseSortBy(sortBy)
	if !ok {
		return f, taskerr.Invalid("sort", "unknown sort order %q", sortBy)
	}
	f.SortBy = by
	return f, nil
}

func runList(cmd *cobra.Command, _ []string) error {
	filters, err := filtersFromFlags(cmd)
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")

	return withApp(cmd.Context(), false, func(a *app.App) error {
		a.Session.SetFilters(filters)
		tasks := a.Session.View()
		if asJSON {
			return transfer.Export(os.Stdout, tasks)
		}
		if len(tasks) == 0 {
			fmt.Fprintln(os.Stderr, "No tasks found.")
			return nil
		}
		if t, ok := theme.ByName(a.Theme(cmd.Context())); ok {
			theme.SetTheme(t)
		}
		taskTable(os.Stdout, a, tasks)
		return nil
	})
}

// taskTable renders tasks as aligned columns. Cells are padded before
// styling so escape codes do not upset the widths.
func taskTable(w io.Writer, a *app.App, tasks []model.Task) {
	t := theme.Current.Theme
	styles := theme.Current.Styles
	now := a.Session.Now()

	const pad = 2
	idW, prioW, titleW, dueW, leftW := 4, 10, 7, 5, 6
	for _, task := range tasks {
		idW = max(idW, len(shortID(task.ID))+pad)
		titleW = max(titleW, min(lipgloss.Width(task.Title)+pad, 50))
		if task.DueDate != nil {
			dueW = max(dueW, len(task.DueDate.Local().Format(model.DateLayout+" "+model.TimeLayout))+pad)
		}
		if d, ok := a.Session.Countdown(task.ID); ok {
			leftW = max(leftW, len(d.Text)+pad)
		}
	}

	header := fmt.Sprintf("%-*s %-3s %-*s %-*s %-*s %-*s %s",
		idW, "ID", "", prioW, "PRIORITY", titleW, "TITLE", dueW, "DUE", leftW, "LEFT", "TAGS")
	fmt.Fprintln(w, styles.Label.Bold(true).Render(strings.TrimRight(header, " ")))

	cell := func(style lipgloss.Style, width int, s string) string {
		return style.Render(fmt.Sprintf("%-*s", width, s))
	}
	plain := lipgloss.NewStyle()

	for _, task := range tasks {
		check := "[ ]"
		titleStyle := styles.TaskNormal
		switch {
		case task.Completed:
			check = "[x]"
			titleStyle = styles.TaskDone
		case task.IsOverdue(now):
			titleStyle = styles.TaskOverdue
		}

		title := task.Title
		if lipgloss.Width(title) > titleW-pad {
			title = truncate(title, titleW-pad)
		}

		due, left := "", ""
		leftStyle := plain
		if task.DueDate != nil {
			due = task.DueDate.Local().Format(model.DateLayout + " " + model.TimeLayout)
		}
		if d, ok := a.Session.Countdown(task.ID); ok {
			left = d.Text
			leftStyle = styles.Countdown(d.State)
		}

		row := strings.Join([]string{
			cell(styles.Label, idW, shortID(task.ID)),
			cell(plain, 3, check),
			cell(lipgloss.NewStyle().Foreground(t.PriorityColor(task.Priority)), prioW, string(task.Priority)),
			cell(titleStyle, titleW, title),
			cell(styles.DueDate, dueW, due),
			cell(leftStyle, leftW, left),
			lipgloss.NewStyle().Foreground(t.Info).Render(strings.Join(task.Tags, ",")),
		}, " ")
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if width < 2 || len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}

func runStats(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	return withApp(cmd.Context(), false, func(a *app.App) error {
		st := a.Session.Stats()
		if asJSON {
			return writeJSON(os.Stdout, st)
		}
		fmt.Fprintf(os.Stdout, "Total:      %d\n", st.Total)
		fmt.Fprintf(os.Stdout, "Completed:  %d\n", st.Completed)
		fmt.Fprintf(os.Stdout, "Pending:    %d\n", st.Pending)
		fmt.Fprintf(os.Stdout, "Overdue:    %d\n", st.Overdue)
		fmt.Fprintf(os.Stdout, "Completion: %d%%\n", st.CompletionRate)
		return nil
	})
}
