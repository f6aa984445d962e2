package cmd

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/allot/internal/category"
	"github.com/fakeyudi/allot/internal/session"
	"github.com/fakeyudi/allot/internal/tui"
)

var (
	runTotal      int
	runCategories string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Plan, run and track a session interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, ok := cmd.InOrStdin().(*os.File)
		if !ok || !term.IsTerminal(in.Fd()) {
			return errors.New("allot run needs an interactive terminal; use plan, status or discard instead")
		}

		closeLog, err := setupDebugLog()
		if err != nil {
			return err
		}
		defer closeLog()

		path, err := categoriesPath(runCategories)
		if err != nil {
			return err
		}
		total := runTotal
		if total <= 0 {
			total = cfg.DefaultTotalMinutes
		}

		store, loaded, err := openState(cmd)
		if err != nil {
			return err
		}

		model := tui.New(tui.Config{
			Store:          store,
			CategoriesPath: path,
			TotalMinutes:   total,
			Tick:           cfg.TickInterval.Duration,
			OnEnd: func(final *session.Session, names map[string]string) (string, error) {
				return finishSession(final, names, "")
			},
		}, loaded)

		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go func() {
			err := category.Watch(ctx, path, func() { p.Send(tui.CategoriesChangedMsg{}) })
			if err != nil {
				log.Printf("watching %s: %v", path, err)
			}
		}()

		_, err = p.Run()
		return err
	},
}

// setupDebugLog sends the standard logger to a file when ALLOT_DEBUG is set,
// and discards it otherwise so nothing is drawn over the interface.
func setupDebugLog() (func(), error) {
	if os.Getenv("ALLOT_DEBUG") == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	dir, err := dataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := tea.LogToFile(filepath.Join(dir, "debug.log"), "allot")
	if err != nil {
		return nil, err
	}
	return func() { f.Close() }, nil
}

func init() {
	runCmd.Flags().IntVar(&runTotal, "total", 0, "session length in minutes (overrides config)")
	runCmd.Flags().StringVar(&runCategories, "categories", "", "path to the categories file (overrides config)")
	rootCmd.AddCommand(runCmd)
}
