package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/dori/duelist/internal/countdown"
	"github.com/dori/duelist/internal/model"
)

const dueLayout = "Mon Jan 2 2006 15:04"

// DetailsMarkdown builds the markdown document shown for one task.
// cd is used when ok is true.
func DetailsMarkdown(t model.Task, cd countdown.Display, ok bool) string {
	var b strings.Builder

	check := " "
	if t.Completed {
		check = "x"
	}
	fmt.Fprintf(&b, "# [%s] %s\n\n", check, t.Title)

	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| id | `%s` |\n", t.ID)
	fmt.Fprintf(&b, "| priority | %s |\n", t.Priority)
	if t.DueDate != nil {
		due := t.DueDate.Local().Format(dueLayout)
		if ok {
			due += " (" + cd.Text + ")"
		}
		fmt.Fprintf(&b, "| due | %s |\n", due)
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(&b, "| tags | %s |\n", strings.Join(t.Tags, ", "))
	}
	fmt.Fprintf(&b, "| created | %s |\n", t.CreatedAt.Local().Format(dueLayout))
	fmt.Fprintf(&b, "| updated | %s |\n", t.UpdatedAt.Local().Format(dueLayout))

	if strings.TrimSpace(t.Description) != "" {
		b.WriteString("\n## Notes\n\n")
		b.WriteString(t.Description)
		b.WriteString("\n")
	}
	return b.String()
}

// RenderMarkdown renders md with a glamour standard style ("dark", "light"
// or "notty"). The raw markdown is returned if rendering fails.
func RenderMarkdown(md, style string, width int) string {
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle(style)}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
