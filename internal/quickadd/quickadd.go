// Package quickadd parses one-line task entry such as
//
//	Pay rent @home !high due:fri at:17:00 -- landlord wants cash
//
// Words starting with @ are tags, ! sets the priority, due: and at: set the
// deadline, and everything after " -- " becomes the description.
package quickadd

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dori/duelist/internal/model"
	"github.com/dori/duelist/internal/store"
	"github.com/dori/duelist/internal/taskerr"
)

const notesSep = " -- "

// Parse reads quick-add text relative to now. A blank title is left for the
// store to reject.
func Parse(s string, now time.Time) (store.Input, error) {
	var in store.Input
	s = strings.TrimSpace(s)
	if i := strings.Index(s, notesSep); i >= 0 {
		in.Description = strings.TrimSpace(s[i+len(notesSep):])
		s = s[:i]
	} else if strings.HasSuffix(s, " --") {
		s = strings.TrimSuffix(s, " --")
	}

	var title []string
	var date, clock string
	in.Tags = []string{}
	for _, word := range strings.Fields(s) {
		switch {
		case len(word) > 1 && word[0] == '@':
			in.Tags = append(in.Tags, model.ParseTags(word[1:])...)
		case len(word) > 1 && word[0] == '!':
			p, ok := model.ParsePriority(word[1:])
			if !ok {
				return store.Input{}, taskerr.Invalid("priority", "unknown priority %q", word[1:])
			}
			in.Priority = p
		case strings.HasPrefix(word, "due:"):
			d, ok := parseDay(strings.TrimPrefix(word, "due:"), now)
			if !ok {
				return store.Input{}, taskerr.Invalid("due_date", "can't read date %q", strings.TrimPrefix(word, "due:"))
			}
			date = d.Format(model.DateLayout)
		case strings.HasPrefix(word, "at:"):
			clock = strings.TrimPrefix(word, "at:")
		default:
			title = append(title, word)
		}
	}

	due, err := model.CombineDue(date, clock, now.Location())
	if err != nil {
		return store.Input{}, err
	}
	in.DueDate = due
	in.Title = strings.Join(title, " ")
	return in, nil
}

var tagReplacer = strings.NewReplacer(" ", "-", ",", "-")

// Format renders a task back into quick-add text, for editing. Tags with
// spaces or commas and multi-line notes are flattened; see KeepFlattened.
func Format(t model.Task) string {
	parts := []string{t.Title}
	for _, tag := range t.Tags {
		parts = append(parts, "@"+tagReplacer.Replace(tag))
	}
	if t.Priority != "" && t.Priority != model.PriorityMedium {
		parts = append(parts, "!"+string(t.Priority))
	}
	if t.DueDate != nil {
		due := t.DueDate.Local()
		parts = append(parts, "due:"+due.Format(model.DateLayout))
		if due.Hour() != 23 || due.Minute() != 59 {
			parts = append(parts, "at:"+due.Format(model.TimeLayout))
		}
	}
	s := strings.Join(parts, " ")
	if t.Description != "" {
		s += notesSep + strings.ReplaceAll(t.Description, "\n", " ")
	}
	return s
}

// KeepFlattened restores orig's tags and notes in an edit parsed from
// Format(orig) when the user left them as Format wrote them.
func KeepFlattened(orig model.Task, in *store.Input, now time.Time) {
	flat, err := Parse(Format(orig), now)
	if err != nil {
		return
	}
	if in.Description == flat.Description {
		in.Description = orig.Description
	}
	if slices.Equal(in.Tags, flat.Tags) {
		in.Tags = slices.Clone(orig.Tags)
	}
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

var dayFormats = []string{
	model.DateLayout,
	"01/02/2006",
	"01-02-2006",
	"Jan-2",
}

// parseDay understands today, tomorrow, weekday names, +Nd and a few
// numeric formats. Only the calendar day of the result is meaningful.
func parseDay(s string, now time.Time) (time.Time, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	s = strings.ToLower(strings.TrimSpace(s))

	switch s {
	case "today":
		return today, true
	case "tomorrow", "tom":
		return today.AddDate(0, 0, 1), true
	case "nextweek", "next-week":
		return today.AddDate(0, 0, 7), true
	}

	if day, ok := weekdays[s]; ok {
		days := int(day - now.Weekday())
		if days <= 0 {
			days += 7
		}
		return today.AddDate(0, 0, days), true
	}

	var n int
	if _, err := fmt.Sscanf(s, "+%dd", &n); err == nil && n >= 0 {
		return today.AddDate(0, 0, n), true
	}

	for _, layout := range dayFormats {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			if t.Year() == 0 {
				t = time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
			}
			return t, true
		}
	}
	return time.Time{}, false
}
