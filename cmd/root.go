package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/allot/internal/category"
	"github.com/fakeyudi/allot/internal/config"
	"github.com/fakeyudi/allot/internal/history"
	"github.com/fakeyudi/allot/internal/report"
	"github.com/fakeyudi/allot/internal/session"
	"github.com/fakeyudi/allot/internal/state"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:          "allot",
	Short:        "Split a work session between weighted categories and track it",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func dataDir() (string, error) {
	if cfg.DataDir != "" {
		return cfg.DataDir, nil
	}
	return state.DataDir()
}

func categoriesPath(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if cfg.CategoriesPath != "" {
		return cfg.CategoriesPath, nil
	}
	return category.DefaultPath()
}

// openState loads the state file through the recovery guard.
func openState(cmd *cobra.Command) (state.Store, state.LoadResult, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, state.LoadResult{}, err
	}
	store, err := state.NewStore(dir)
	if err != nil {
		return nil, state.LoadResult{}, err
	}
	res, err := state.Open(store)
	if err != nil {
		return nil, state.LoadResult{}, fmt.Errorf("loading state: %w", err)
	}
	if res.Recovered {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: a session left running by an earlier run was suspended")
	}
	return store, res, nil
}

// labels returns display names from the categories file, or nil when it
// cannot be read. Labels are cosmetic so failures are not fatal.
func labels() map[string]string {
	path, err := categoriesPath("")
	if err != nil {
		return nil
	}
	snap, err := category.Load(path)
	if err != nil {
		return nil
	}
	return snap.Labels()
}

// finishSession writes the report for an ended session and archives it. The
// returned line is meant for the user. Both steps can be retried: archiving
// a session twice keeps the first record.
func finishSession(final *session.Session, names map[string]string, format string) (string, error) {
	ended := time.Now()
	dir, err := dataDir()
	if err != nil {
		return "", err
	}

	if format == "" {
		format = cfg.DefaultFormat
	}
	path, err := report.Write(cfg.OutputDir, format, report.New(final, ended, names))
	if err != nil {
		return "", err
	}

	archive, err := history.Open(dir)
	if err != nil {
		return "", err
	}
	defer archive.Close()
	if _, err := archive.Add(final, ended); err != nil {
		return "", err
	}
	return "Session ended. Report: " + path, nil
}
