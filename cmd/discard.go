package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/allot/internal/reminder"
	"github.com/fakeyudi/allot/internal/session"
	"github.com/fakeyudi/allot/internal/state"
)

var discardFormat string

var discardCmd = &cobra.Command{
	Use:   "discard",
	Short: "End the saved session, archive it and write a report",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, res, err := openState(cmd)
		if err != nil {
			return err
		}
		st := res.State
		if st.Session == nil {
			return errors.New("no session to discard")
		}

		tracker := reminder.NewTracker(st.Reminders)
		m := session.NewMachine(st.Session, session.WithEndListener(tracker))
		final := m.End()

		// The session stays on disk until the report and archive are written.
		line, err := finishSession(final, labels(), discardFormat)
		if err != nil {
			return err
		}

		st.Session = nil
		st.Reminders = tracker.History()
		st.Mode = state.ModePlanning
		if err := store.Save(st); err != nil {
			return err
		}
		cmd.Println(line)
		return nil
	},
}

func init() {
	discardCmd.Flags().StringVar(&discardFormat, "format", "", "report format: markdown or json (overrides config)")
	rootCmd.AddCommand(discardCmd)
}
