package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/allot/internal/allocation"
	"github.com/fakeyudi/allot/internal/category"
)

var (
	planTotal      int
	planCategories string
	planFormat     string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Preview how a session would be split between categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		total := planTotal
		if total <= 0 {
			total = cfg.DefaultTotalMinutes
		}
		snap, err := loadCategories(cmd, planCategories)
		if err != nil {
			return err
		}
		result := allocation.Calculate(snap.Constraints(), total)

		out := cmd.OutOrStdout()
		if planFormat == "json" {
			if err := printJSON(cmd, result); err != nil {
				return err
			}
		} else {
			names := snap.Labels()
			for _, a := range result.Allocations {
				fmt.Fprintf(out, "%-24s %4d min\n", names[a.CategoryID], a.AllocatedMinutes)
			}
			fmt.Fprintf(out, "%-24s %4d min\n", "total", result.TotalAllocated)
			for _, w := range result.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w.Message)
			}
		}
		if !result.IsValid {
			return errors.New("nothing to allocate: the categories file lists no categories")
		}
		return nil
	},
}

// loadCategories reads the snapshot, printing load-time corrections as
// warnings.
func loadCategories(cmd *cobra.Command, flag string) (*category.Snapshot, error) {
	path, err := categoriesPath(flag)
	if err != nil {
		return nil, err
	}
	snap, err := category.Load(path)
	if err != nil {
		if errors.Is(err, category.ErrNoCategories) {
			return nil, fmt.Errorf("no categories yet: create %s", path)
		}
		return nil, err
	}
	for _, w := range snap.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
	return snap, nil
}

func init() {
	planCmd.Flags().IntVar(&planTotal, "total", 0, "session length in minutes (overrides config)")
	planCmd.Flags().StringVar(&planCategories, "categories", "", "path to the categories file (overrides config)")
	planCmd.Flags().StringVar(&planFormat, "format", "text", "output format: text or json")
	rootCmd.AddCommand(planCmd)
}
