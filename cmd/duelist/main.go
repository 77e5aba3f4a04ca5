// Command duelist is a deadline-aware to-do list for the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dori/duelist/internal/app"
	"github.com/dori/duelist/internal/config"
	"github.com/dori/duelist/internal/db"
	"github.com/dori/duelist/internal/taskerr"
	"github.com/dori/duelist/internal/ui"
)

// version is set at build time via ldflags.
var version = "dev"

// Global flags.
var (
	flagConfig  string
	flagDataDir string
	flagAPI     string
	flagNoColor bool
	flagOffline bool
)

var rootCmd = &cobra.Command{
	Use:   "duelist",
	Short: "Deadline-aware to-do list for the terminal",
	Long: `duelist keeps a to-do list with due dates, live countdowns and
deadline notifications. Run it without arguments to open the TUI.

Quick add syntax (add, edit):
  Pay rent @home !high due:fri at:17:00 -- landlord wants cash`,
	Version:       version,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runTUI,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if flagNoColor || os.Getenv("NO_COLOR") != "" || !stdoutIsTerminal() {
			lipgloss.SetColorProfile(termenv.Ascii)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default <data-dir>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default ~/.local/share/duelist)")
	rootCmd.PersistentFlags().StringVar(&flagAPI, "api", "", "remote task API base URL, overrides remote.base_url")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable color output")
	rootCmd.PersistentFlags().BoolVar(&flagOffline, "offline", false, "ignore the remote task API")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode extends taskerr.ExitCode with the errors only the CLI sees
func exitCode(err error) int {
	if errors.Is(err, config.ErrInvalid) || errors.Is(err, app.ErrLocked) {
		return 1
	}
	return taskerr.ExitCode(err)
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// loadConfig resolves the config file and applies env and flag overrides.
// Precedence: flags, then DUELIST_DATA_DIR, then the file, then defaults.
func loadConfig() (*config.Config, error) {
	dataDir := flagDataDir
	if dataDir == "" {
		dataDir = db.DefaultDataDir()
	}
	path := flagConfig
	if path == "" {
		path = config.DefaultPath(dataDir)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	if flagAPI != "" {
		cfg.Remote.BaseURL = flagAPI
	}
	return cfg, nil
}

// openApp loads the config and opens the app. Mutating commands pass
// lock=true.
func openApp(ctx context.Context, lock bool) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, app.Options{Lock: lock, Offline: flagOffline})
}

// withApp opens the app, runs fn and closes the app. Warnings collected
// along the way, including remote sync failures found while draining on
// close, are printed to stderr.
func withApp(ctx context.Context, lock bool, fn func(a *app.App) error) error {
	a, err := openApp(ctx, lock)
	if err != nil {
		return err
	}
	runErr := fn(a)
	closeErr := a.Close()
	printWarnings(a)
	return errors.Join(runErr, closeErr)
}

func printWarnings(a *app.App) {
	for {
		select {
		case w := <-a.Session.Warnings():
			fmt.Fprintln(os.Stderr, "Warning:", w)
		default:
			return
		}
	}
}

func runTUI(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	runErr := ui.Run(a)
	return errors.Join(runErr, a.Close())
}
