package notify

import (
	"os/exec"
	"strconv"
	"time"

	"github.com/dori/duelist/internal/deadline"
)

// Urgency levels for notifications
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Notification represents a desktop notification
type Notification struct {
	Title   string
	Body    string
	Urgency Urgency
	Timeout time.Duration
	Icon    string // Optional icon name
}

// Runner executes an external command
type Runner func(name string, args ...string) error

func execRunner(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// Notifier handles sending desktop notifications
type Notifier struct {
	enabled bool
	run     Runner
}

// NewNotifier creates a new notifier backed by notify-send
func NewNotifier() *Notifier {
	return &Notifier{
		enabled: true,
		run:     execRunner,
	}
}

// WithRunner replaces the command runner, mainly for tests
func (n *Notifier) WithRunner(run Runner) *Notifier {
	n.run = run
	return n
}

// SetEnabled enables or disables notifications
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled
func (n *Notifier) IsEnabled() bool {
	return n.enabled
}

// Args builds the notify-send argument list
func Args(notification Notification) []string {
	args := []string{}

	switch notification.Urgency {
	case UrgencyLow:
		args = append(args, "-u", "low")
	case UrgencyCritical:
		args = append(args, "-u", "critical")
	default:
		args = append(args, "-u", "normal")
	}

	// milliseconds
	if notification.Timeout > 0 {
		args = append(args, "-t", strconv.Itoa(int(notification.Timeout.Milliseconds())))
	}

	if notification.Icon != "" {
		args = append(args, "-i", notification.Icon)
	}

	args = append(args, "-a", "duelist")

	args = append(args, notification.Title)
	if notification.Body != "" {
		args = append(args, notification.Body)
	}
	return args
}

// Send sends a desktop notification using notify-send
func (n *Notifier) Send(notification Notification) error {
	if !n.enabled {
		return nil
	}
	return n.run("notify-send", Args(notification)...)
}

// SendDeadline delivers a deadline notice with urgency matching its severity
func (n *Notifier) SendDeadline(notice deadline.Notice) error {
	urgency := UrgencyNormal
	icon := "appointment-soon-symbolic"
	timeout := 10 * time.Second
	switch notice.Severity {
	case deadline.SeverityError:
		urgency = UrgencyCritical
		icon = "emblem-important-symbolic"
		timeout = 15 * time.Second
	case deadline.SeverityInfo:
		urgency = UrgencyLow
	}

	return n.Send(Notification{
		Title:   "Task deadline",
		Body:    notice.Message,
		Urgency: urgency,
		Timeout: timeout,
		Icon:    icon,
	})
}
