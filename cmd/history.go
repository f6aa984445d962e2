package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/allot/internal/history"
)

var (
	historyLimit  int
	historyTotals bool
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := dataDir()
		if err != nil {
			return err
		}
		archive, err := history.Open(dir)
		if err != nil {
			return err
		}
		defer archive.Close()

		out := cmd.OutOrStdout()
		if historyTotals {
			totals, err := archive.Totals()
			if err != nil {
				return err
			}
			if historyFormat == "json" {
				return printJSON(cmd, totals)
			}
			for _, t := range totals {
				fmt.Fprintf(out, "%-22s %8.1f used of %6d min\n", t.CategoryID, t.UsedMinutes, t.AllocatedMinutes)
			}
			return nil
		}

		recs, err := archive.List(historyLimit)
		if err != nil {
			return err
		}
		if historyFormat == "json" {
			return printJSON(cmd, recs)
		}
		if len(recs) == 0 {
			cmd.Println("no archived sessions")
			return nil
		}
		for _, r := range recs {
			fmt.Fprintf(out, "%s  %5.1f of %d min  %s\n",
				r.EndedAt.Local().Format("2006-01-02 15:04"), r.UsedMinutes, r.TotalMinutes, r.SessionID)
			for _, c := range r.Categories {
				fmt.Fprintf(out, "    %-20s %6.1f / %d\n", c.CategoryID, c.UsedMinutes, c.AllocatedMinutes)
			}
		}
		return nil
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "number of sessions to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyTotals, "totals", false, "sum use per category across all sessions")
	historyCmd.Flags().StringVar(&historyFormat, "format", "text", "output format: text or json")
	rootCmd.AddCommand(historyCmd)
}
