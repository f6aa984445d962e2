package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/allot/internal/session"
)

var adjustCmd = &cobra.Command{
	Use:   "adjust <category> <remaining-minutes>",
	Short: "Override how many minutes a category has left",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		minutes, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid minutes %q: %w", args[1], err)
		}

		store, res, err := openState(cmd)
		if err != nil {
			return err
		}
		st := res.State
		if st.Session == nil {
			return errors.New("no session to adjust")
		}
		if st.Session.Allocation(id) == nil {
			return fmt.Errorf("unknown category %q", id)
		}

		// A loaded session never has a running clock, so nothing has elapsed
		// since the last fold.
		m := session.NewMachine(st.Session)
		st.Session = m.AdjustContextTime(id, minutes, 0)
		if err := store.Save(st); err != nil {
			return err
		}

		a := st.Session.Allocation(id)
		cmd.Printf("%s: %.1f min remaining\n", id, session.RemainingForCategory(*a, 0))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adjustCmd)
}
