package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dori/duelist/internal/model"
	"github.com/dori/duelist/internal/ui/theme"
)

// View renders the UI
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())

	contentHeight := m.height - 4
	var content string
	switch m.mode {
	case ModeHelp:
		content = m.renderHelp()
	case ModeDetails:
		content = m.renderDetails()
	case ModeNotes:
		content = m.renderNotes()
	default:
		content = m.renderList()
	}

	// Fill the content area so the footer stays at the bottom
	contentLines := strings.Count(content, "\n") + 1
	if contentLines < contentHeight {
		content += strings.Repeat("\n", contentHeight-contentLines)
	}
	sections = append(sections, content)
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

// renderHeader shows the app name, collection stats and the theme
func (m Model) renderHeader() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	title := styles.Header.Render("duelist")

	st := m.session.Stats()
	statStyle := lipgloss.NewStyle().Foreground(t.Subtle).Padding(0, 1)
	stats := fmt.Sprintf("%d tasks · %d done · %d pending", st.Total, st.Completed, st.Pending)
	left := lipgloss.JoinHorizontal(lipgloss.Center, title, statStyle.Render(stats))
	if st.Overdue > 0 {
		overdue := styles.CountdownOverdue.Render(fmt.Sprintf("%d overdue", st.Overdue))
		left = lipgloss.JoinHorizontal(lipgloss.Center, left, overdue)
	}

	right := statStyle.Render(fmt.Sprintf("%d%% · theme: %s", st.CompletionRate, t.Name))

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderList() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	var b strings.Builder

	switch m.mode {
	case ModeAdd, ModeEdit, ModeImport:
		label := map[Mode]string{ModeAdd: "New task", ModeEdit: "Edit task", ModeImport: "Import file"}[m.mode]
		b.WriteString(styles.Label.Render(label))
		b.WriteString("\n")
		b.WriteString(styles.InputFocused.Render(m.input.View()))
		b.WriteString("\n")
	case ModeSearch:
		b.WriteString(lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Render("/"))
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	if f := m.session.Filters(); !f.IsDefault() && m.mode != ModeSearch {
		filterStyle := lipgloss.NewStyle().Foreground(t.Info).Italic(true)
		b.WriteString(filterStyle.Render(formatFilters(f)))
		b.WriteString(styles.Label.Render(" (c to clear)"))
		b.WriteString("\n")
	}

	tasks := m.session.View()
	if len(tasks) == 0 {
		empty := "No tasks. Press a to add one."
		if !m.session.Filters().IsDefault() {
			empty = "No tasks match the current filters."
		}
		b.WriteString(styles.Label.Render(empty))
		return b.String()
	}

	end := m.offset + m.visibleRows()
	if end > len(tasks) {
		end = len(tasks)
	}
	rows := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		rows = append(rows, m.renderTask(tasks[i], i == m.cursor))
	}
	b.WriteString(strings.Join(rows, "\n"))

	if m.mode == ModeConfirmDelete {
		if task, err := m.session.Store().Get(m.targetID); err == nil {
			b.WriteString("\n\n")
			b.WriteString(styles.StatusError.Render(fmt.Sprintf("Delete %q? (y/n)", task.Title)))
		}
	}
	return b.String()
}

// renderTask renders one row: cursor, checkbox, priority, title, tags, due
// date and countdown
func (m Model) renderTask(task model.Task, isCursor bool) string {
	t := theme.Current.Theme
	styles := theme.Current.Styles
	now := m.session.Now()

	cursor := " "
	if isCursor {
		cursor = "›"
	}

	checkbox := "[ ]"
	if task.Completed {
		checkbox = "[x]"
	}

	var priorityChar string
	switch task.Priority {
	case model.PriorityHigh:
		priorityChar = "!"
	case model.PriorityLow:
		priorityChar = "."
	default:
		priorityChar = "-"
	}
	priority := lipgloss.NewStyle().Foreground(t.PriorityColor(task.Priority)).Render(priorityChar)

	titleStyle := styles.TaskNormal
	switch {
	case task.Completed:
		titleStyle = styles.TaskDone
	case task.IsOverdue(now):
		titleStyle = styles.TaskOverdue
	}
	if isCursor {
		titleStyle = titleStyle.Inherit(styles.TaskFocused)
	}

	var metadata []string
	if len(task.Tags) > 0 {
		tagStyle := lipgloss.NewStyle().Foreground(t.Info)
		var tags []string
		for _, tag := range task.Tags {
			tags = append(tags, tagStyle.Render("@"+tag))
		}
		metadata = append(metadata, strings.Join(tags, " "))
	}
	if task.DueDate != nil {
		metadata = append(metadata, styles.DueDate.Render(formatDue(task, now)))
	}
	if d, ok := m.session.Countdown(task.ID); ok {
		metadata = append(metadata, styles.Countdown(d.State).Render(d.Text))
	}
	if strings.TrimSpace(task.Description) != "" {
		metadata = append(metadata, styles.Label.Render("✎"))
	}

	line := fmt.Sprintf("%s %s %s %s", cursor, checkbox, priority, titleStyle.Render(task.Title))
	if len(metadata) > 0 {
		line += "  " + strings.Join(metadata, " ")
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(line)
}

func (m Model) renderDetails() string {
	styles := theme.Current.Styles
	if m.details == nil {
		return styles.Label.Render("Loading...")
	}
	d, ok := m.session.Countdown(m.details.ID)
	md := DetailsMarkdown(*m.details, d, ok)
	return RenderMarkdown(md, theme.Current.Theme.Name, m.width-4)
}

func (m Model) renderNotes() string {
	styles := theme.Current.Styles
	var b strings.Builder
	if task, err := m.session.Store().Get(m.targetID); err == nil {
		b.WriteString(styles.PanelTitle.Render("Notes: " + task.Title))
		b.WriteString("\n\n")
	}
	b.WriteString(m.notes.View())
	return b.String()
}

func (m Model) renderHelp() string {
	styles := theme.Current.Styles
	h := m.help
	h.ShowAll = true
	var b strings.Builder
	b.WriteString(styles.Title.Render("duelist help"))
	b.WriteString("\n")
	b.WriteString(h.View(m.keys))
	b.WriteString("\n\n")
	b.WriteString(styles.PanelTitle.Render("Quick add"))
	b.WriteString("\n")
	b.WriteString(styles.HelpDesc.Render("Pay rent @home !high due:fri at:17:00 -- landlord wants cash"))
	b.WriteString("\n")
	b.WriteString(styles.HelpDesc.Render("due: today, tomorrow, mon..sun, +3d, 2025-01-31, 01/31/2025"))
	b.WriteString("\n\n")
	b.WriteString(styles.HelpDesc.Render("Press ? or esc to close"))
	return b.String()
}

// renderFooter shows the status line and context key hints
func (m Model) renderFooter() string {
	styles := theme.Current.Styles

	key := func(k, desc string) string {
		return styles.HelpKey.Render(k) + styles.HelpDesc.Render(" "+desc)
	}
	sep := styles.HelpSeparator.Render(" │ ")

	var hints string
	switch m.mode {
	case ModeAdd, ModeEdit, ModeImport:
		hints = key("enter", "save") + sep + key("esc", "cancel")
	case ModeSearch:
		hints = key("enter", "keep") + sep + key("esc", "restore")
	case ModeNotes:
		hints = key("ctrl+s", "save") + sep + key("esc", "cancel")
	case ModeConfirmDelete:
		hints = key("y", "delete") + sep + key("n", "keep")
	case ModeDetails, ModeHelp:
		hints = key("esc", "back")
	default:
		hints = m.help.View(m.keys) + sep +
			key("p/s/o", "filter") + sep +
			key("e", "edit") + sep +
			key("n", "notes")
	}

	status := " "
	if m.statusMsg != "" {
		status = styles.Severity(m.statusLevel).Render(m.statusMsg)
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(status) + "\n" +
		lipgloss.NewStyle().MaxWidth(m.width).Render(hints)
}

func formatFilters(f model.Filters) string {
	var parts []string
	if f.Search != "" {
		parts = append(parts, fmt.Sprintf("search: %q", f.Search))
	}
	if f.Priority != model.PriorityAll {
		parts = append(parts, "priority: "+string(f.Priority))
	}
	if f.Status != model.StatusAll {
		parts = append(parts, "status: "+string(f.Status))
	}
	if f.SortBy != model.SortDueDate {
		parts = append(parts, "sort: "+string(f.SortBy))
	}
	return strings.Join(parts, " · ")
}

// formatDue renders a due date relative to now's calendar day. The 23:59
// default time is left out.
func formatDue(task model.Task, now time.Time) string {
	due := task.DueDate.In(now.Location())
	clock := ""
	if due.Hour() != 23 || due.Minute() != 59 {
		clock = " " + due.Format(model.TimeLayout)
	}

	y, mo, d := now.Date()
	today := time.Date(y, mo, d, 0, 0, 0, 0, now.Location())
	switch day := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, now.Location()); {
	case day.Equal(today):
		return "today" + clock
	case day.Equal(today.AddDate(0, 0, 1)):
		return "tomorrow" + clock
	case day.Equal(today.AddDate(0, 0, -1)):
		return "yesterday" + clock
	case due.Year() == now.Year():
		return due.Format("Jan 2") + clock
	default:
		return due.Format("Jan 2 2006") + clock
	}
}
