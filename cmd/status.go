package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/allot/internal/session"
	"github.com/fakeyudi/allot/internal/state"
)

var statusFormat string

type statusView struct {
	Session  *session.Session  `json:"session"`
	Progress session.Progress  `json:"progress"`
	Readings []session.Reading `json:"categories"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the saved session and how much of each budget is left",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := dataDir()
		if err != nil {
			return err
		}
		store, err := state.NewStore(dir)
		if err != nil {
			return err
		}
		// status never takes ownership of the session, so the guarded copy is
		// not written back.
		res, err := state.Peek(store)
		if err != nil {
			return fmt.Errorf("loading state: %w", err)
		}

		s := res.State.Session
		if s == nil {
			cmd.Println("no session; start one with `allot run`")
			return nil
		}
		now := time.Now()

		if statusFormat == "json" {
			return printJSON(cmd, statusView{
				Session:  s,
				Progress: session.SessionProgress(s, now),
				Readings: session.Readings(s, now),
			})
		}

		names := labels()
		out := cmd.OutOrStdout()
		total := session.SessionProgress(s, now)
		fmt.Fprintf(out, "Session %s (%s)\n", s.ID, s.Status)
		fmt.Fprintf(out, "Started: %s\n", s.StartedAt.Format(time.RFC3339))
		fmt.Fprintf(out, "Remaining: %.1f of %d min (%s)\n", total.Remaining, s.TotalDuration, total.Status)
		fmt.Fprintln(out)
		for _, r := range session.Readings(s, now) {
			name := names[r.CategoryID]
			if name == "" {
				name = r.CategoryID
			}
			marker := " "
			if r.Active {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %-22s %7.1f left %7.1f used %5.0f%% %s\n",
				marker, name, r.Remaining, r.Used, r.Percentage, r.Status)
		}
		if res.Recovered {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "The session was left running or is open in another `allot run`.")
		}
		if res.HasSuspended {
			fmt.Fprintln(out, "Continue it with `allot run`, or end it with `allot discard`.")
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusFormat, "format", "text", "output format: text or json")
	rootCmd.AddCommand(statusCmd)
}
