package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dori/duelist/internal/app"
	"github.com/dori/duelist/internal/deadline"
	"github.com/dori/duelist/internal/quickadd"
	"github.com/dori/duelist/internal/store"
	"github.com/dori/duelist/internal/taskerr"
	"github.com/dori/duelist/internal/ui"
)

var addCmd = &cobra.Command{
	Use:   "add TEXT...",
	Short: "Add a task",
	Long: `Adds a task using the quick add syntax:

  @tag         add a tag
  !high        priority (high, medium, low)
  due:DAY      today, tomorrow, mon..sun, +3d, 2025-01-31, 01/31/2025
  at:HH:MM     due time (default 23:59)
  -- NOTES     everything after " -- " becomes the description`,
	Example: `  duelist add "Pay rent @home !high due:fri at:17:00"`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runAdd,
}

var doneCmd = &cobra.Command{
	Use:   "done ID...",
	Short: "Mark tasks completed",
	Long:  `Marks tasks completed. IDs may be any unique prefix. --undo reopens them.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDone,
}

var rmCmd = &cobra.Command{
	Use:     "rm ID...",
	Aliases: []string{"delete"},
	Short:   "Delete tasks",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runRemove,
}

var editCmd = &cobra.Command{
	Use:   "edit ID [TEXT...]",
	Short: "Edit a task in place",
	Long: `Replaces a task's title, tags, priority and due date with the quick add
TEXT. The id and creation time are kept. Without TEXT only --notes is applied.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEdit,
}

var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show task details",
	Long:  `Shows one task with its notes rendered as markdown. With a remote API configured the remote copy is shown when reachable.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	addCmd.Flags().String("notes", "", "task description")
	doneCmd.Flags().Bool("undo", false, "reopen completed tasks")
	rmCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	editCmd.Flags().String("notes", "", "replace the description")
	showCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(addCmd, doneCmd, rmCmd, editCmd, showCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), true, func(a *app.App) error {
		in, err := quickadd.Parse(strings.Join(args, " "), a.Session.Now())
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("notes") {
			in.Description, _ = cmd.Flags().GetString("notes")
		}

		task, notices, err := a.Session.Add(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Added %s: %s\n", shortID(task.ID), task.Title)
		if d, ok := a.Session.Countdown(task.ID); ok {
			fmt.Fprintf(os.Stdout, "Due %s (%s)\n", task.DueDate.Local().Format("Mon Jan 2 15:04"), d.Text)
		}
		announce(a, notices)
		return nil
	})
}

func runDone(cmd *cobra.Command, args []string) error {
	undo, _ := cmd.Flags().GetBool("undo")
	return withApp(cmd.Context(), true, func(a *app.App) error {
		for _, arg := range args {
			task, err := a.Session.Lookup(arg)
			if err != nil {
				return err
			}
			if task.Completed != undo {
				fmt.Fprintf(os.Stdout, "Unchanged %s: %s\n", shortID(task.ID), task.Title)
				continue
			}
			task, err = a.Session.Toggle(cmd.Context(), task.ID)
			if err != nil {
				return err
			}
			verb := "Completed"
			if !task.Completed {
				verb = "Reopened"
			}
			fmt.Fprintf(os.Stdout, "%s %s: %s\n", verb, shortID(task.ID), task.Title)
		}
		return nil
	})
}

func runRemove(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	return withApp(cmd.Context(), true, func(a *app.App) error {
		for _, arg := range args {
			task, err := a.Session.Lookup(arg)
			if err != nil {
				return err
			}
			if !yes {
				ok, err := confirm(fmt.Sprintf("Delete %s %q? [y/N] ", shortID(task.ID), task.Title))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(os.Stderr, "Canceled.")
					continue
				}
			}
			if err := a.Session.Remove(cmd.Context(), task.ID); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Deleted %s: %s\n", shortID(task.ID), task.Title)
		}
		return nil
	})
}

// confirm asks on the terminal. Without a terminal it refuses rather than
// guessing.
func confirm(prompt string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, taskerr.Invalid("yes", "cannot prompt for confirmation (not a terminal); use --yes")
	}
	fmt.Fprint(os.Stderr, prompt)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes", nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	notesChanged := cmd.Flags().Changed("notes")
	if len(args) == 1 && !notesChanged {
		return taskerr.Invalid("text", "nothing to change; give quick add text or --notes")
	}

	return withApp(cmd.Context(), true, func(a *app.App) error {
		task, err := a.Session.Lookup(args[0])
		if err != nil {
			return err
		}

		var patch store.Patch
		if len(args) > 1 {
			in, err := quickadd.Parse(strings.Join(args[1:], " "), a.Session.Now())
			if err != nil {
				return err
			}
			if in.Description == "" {
				in.Description = task.Description
			}
			patch = in.Patch()
		}
		if notesChanged {
			notes, _ := cmd.Flags().GetString("notes")
			patch.Description = &notes
		}

		updated, err := a.Session.Update(cmd.Context(), task.ID, patch)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Updated %s: %s\n", shortID(updated.ID), updated.Title)
		return nil
	})
}

func runShow(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	return withApp(cmd.Context(), false, func(a *app.App) error {
		task, err := a.Session.Lookup(args[0])
		if err != nil {
			return err
		}
		task, err = a.Session.Details(cmd.Context(), task.ID)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(os.Stdout, task)
		}

		d, ok := a.Session.Countdown(task.ID)
		md := ui.DetailsMarkdown(task, d, ok)
		fmt.Fprint(os.Stdout, ui.RenderMarkdown(md, markdownStyle(cmd.Context(), a), terminalWidth()))
		return nil
	})
}

// markdownStyle follows the stored theme, or plain text off a terminal
func markdownStyle(ctx context.Context, a *app.App) string {
	if flagNoColor || os.Getenv("NO_COLOR") != "" || !stdoutIsTerminal() {
		return "notty"
	}
	return a.Theme(ctx)
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// announce prints deadline notices and hands them to the desktop notifier
func announce(a *app.App, notices []deadline.Notice) {
	for _, n := range notices {
		fmt.Fprintf(os.Stdout, "[%s] %s\n", n.Severity, n.Message)
	}
	a.Deliver(notices)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
