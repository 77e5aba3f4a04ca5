package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dori/duelist/internal/app"
	"github.com/dori/duelist/internal/config"
	"github.com/dori/duelist/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Send deadline notifications without the TUI",
	Long: `Runs the deadline notifier headless. Tasks are reloaded whenever the
database changes, so edits made from the TUI or other commands are picked up.
Notices go to stdout and, when enabled, to the desktop.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Bool("once", false, "check deadlines once and exit")
	watchCmd.Flags().Duration("interval", 0, "check interval, overrides intervals.deadline")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	once, _ := cmd.Flags().GetBool("once")
	interval, _ := cmd.Flags().GetDuration("interval")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withApp(ctx, false, func(a *app.App) error {
		cmd.Flags().Visit(func(f *pflag.Flag) {
			a.Log.Printf("watch: --%s=%s", f.Name, f.Value)
		})

		scan := func() {
			announce(a, a.Session.CheckDeadlines())
			printWarnings(a)
		}
		scan()
		if once {
			return nil
		}

		every := a.Config.DeadlineEvery()
		if interval > 0 {
			every = interval
		}
		return watchLoop(ctx, a, every, scan)
	})
}

// watchLoop scans on every tick and reloads when the database or config
// file changes. Session state is only touched from this goroutine.
func watchLoop(ctx context.Context, a *app.App, every time.Duration, scan func()) error {
	changes := make(chan []string, 1)
	names := []string{app.DBFileName, app.DBFileName + "-wal", filepath.Base(a.Config.Path())}
	w, err := watcher.New(filepath.Dir(a.DBPath()), names, watcher.DefaultDebounce, func(changed []string) {
		select {
		case changes <- changed:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("failed to watch data dir: %w", err)
	}
	defer w.Close()
	go w.Run(ctx, func(err error) { a.Log.Printf("watch: %v", err) })

	fmt.Fprintf(os.Stderr, "Watching %s, checking every %s (ctrl+c to stop)\n", a.DataDir, every)

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			scan()
		case changed := <-changes:
			if slices.Contains(changed, filepath.Base(a.Config.Path())) {
				reloadConfig(a)
			}
			if err := a.Reload(ctx); err != nil {
				a.Session.Warn(err)
			}
			scan()
		}
	}
}

// reloadConfig picks up notification settings. Intervals and the remote
// need a restart.
func reloadConfig(a *app.App) {
	cfg, err := config.Load(a.Config.Path())
	if err != nil {
		a.Session.Warn(fmt.Errorf("config not reloaded: %w", err))
		return
	}
	a.Notifier.SetEnabled(cfg.DesktopNotifications())
	a.Config.Notifications = cfg.Notifications
	a.Log.Printf("reloaded %s", a.Config.Path())
}
