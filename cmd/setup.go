package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/allot/internal/category"
	"github.com/fakeyudi/allot/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure allot (re-run anytime to edit settings)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		existing, err := config.LoadGlobal()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		a, err := config.RunWizard(cmd.InOrStdin(), out, *existing)
		if err != nil {
			return fmt.Errorf("setup cancelled: %w", err)
		}
		if err := config.SaveGlobal(a.Config); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintln(out, "  ✓ Config saved.")

		if len(a.Categories) > 0 {
			path, err := categoriesPath("")
			if err != nil {
				return err
			}
			switch err := category.WriteStarter(path, a.Categories); {
			case errors.Is(err, os.ErrExist):
				fmt.Fprintf(out, "  Keeping existing %s\n", path)
			case err != nil:
				return fmt.Errorf("writing categories: %w", err)
			default:
				fmt.Fprintf(out, "  ✓ Wrote %s\n", path)
			}
		}

		fmt.Fprintln(out, "  Setup complete. Run 'allot plan' to preview a session.")
		fmt.Fprintln(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
