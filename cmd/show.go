package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/allot/internal/report"
)

var showFormat string

var showCmd = &cobra.Command{
	Use:   "show <report-file>",
	Short: "Print a saved session report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", path)
			}
			return err
		}

		r, err := report.ParserFor(path).Parse(data)
		if err != nil {
			return err
		}

		if showFormat == "json" {
			return printJSON(cmd, r)
		}
		printReport(cmd, r)
		return nil
	},
}

// printReport writes a plain-text summary.
func printReport(cmd *cobra.Command, r *report.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "## Summary")
	fmt.Fprintf(out, "  Session:   %s\n", r.Session.ID)
	fmt.Fprintf(out, "  Started:   %s\n", r.Session.StartTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "  Ended:     %s\n", r.Session.EndTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "  Duration:  %s\n", r.Session.Duration)
	fmt.Fprintf(out, "  Tracked:   %.1f of %d min\n", r.Session.UsedMinutes, r.Session.TotalMinutes)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "## Categories")
	if len(r.Categories) == 0 {
		fmt.Fprintln(out, "  (none)")
		return
	}
	for _, c := range r.Categories {
		name := c.Name
		if name == "" {
			name = c.CategoryID
		}
		fmt.Fprintf(out, "  %-22s %6.1f / %-4d %+7.1f\n", name, c.UsedMinutes, c.AllocatedMinutes, c.RemainingMinutes)
	}
}

func init() {
	showCmd.Flags().StringVar(&showFormat, "format", "text", "output format: text or json")
	rootCmd.AddCommand(showCmd)
}
