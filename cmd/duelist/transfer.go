package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dori/duelist/internal/app"
	"github.com/dori/duelist/internal/transfer"
)

var exportCmd = &cobra.Command{
	Use:   "export [FILE]",
	Short: "Export all tasks as JSON",
	Long:  `Writes every task to FILE, by default tasks-YYYY-MM-DD.json in the working directory. Use - for stdout.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace all tasks with an exported JSON file",
	Long:  `Replaces the whole task list with the tasks in FILE. An invalid file changes nothing. Use - for stdin.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), false, func(a *app.App) error {
		path := transfer.Filename(a.Session.Now())
		if len(args) == 1 {
			path = args[0]
		}
		if path == "-" {
			return a.Session.Export(os.Stdout)
		}

		var buf bytes.Buffer
		if err := a.Session.Export(&buf); err != nil {
			return err
		}
		if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Exported %d tasks to %s\n", a.Session.Store().Len(), path)
		return nil
	})
}

func runImport(cmd *cobra.Command, args []string) error {
	var r io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open import: %w", err)
		}
		defer f.Close()
		r = f
	}

	return withApp(cmd.Context(), true, func(a *app.App) error {
		n, err := a.Session.Import(cmd.Context(), r)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Imported %d tasks from %s\n", n, args[0])
		return nil
	})
}
