package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/nextgencrm/prospector/internal/prospect"
)

var followupsCmd = &cobra.Command{
	Use:   "followups",
	Short: "Manage the outreach follow-up sequence",
}

var followupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List prospects due for their next touch",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		due, err := env.Store.PendingFollowups(cmd.Context(), time.Now().UTC())
		if err != nil {
			return err
		}
		if len(due) == 0 {
			fmt.Println("no follow-ups due")
			return nil
		}

		for _, r := range due {
			fmt.Printf("%s  %-40s  %s  position %d/%d\n",
				r.ID, r.CompanyName, r.Status, r.SequencePosition, prospect.MaxSequencePosition)
		}
		return nil
	},
}

var followupsAdvanceCmd = &cobra.Command{
	Use:   "advance <prospect-id>",
	Short: "Advance a prospect one step along the outreach sequence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		rec, err := env.Store.GetProspect(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if err := prospect.Advance(rec, time.Now().UTC()); err != nil {
			if eris.Is(err, prospect.ErrSequenceComplete) {
				fmt.Printf("%s is already at the end of the sequence\n", rec.CompanyName)
				return nil
			}
			return err
		}
		if err := env.Store.SaveProspect(cmd.Context(), rec); err != nil {
			return err
		}

		fmt.Printf("%s advanced to %s (position %d)\n", rec.CompanyName, rec.Status, rec.SequencePosition)
		if rec.NextFollowupDate != nil {
			fmt.Printf("next follow-up %s\n", rec.NextFollowupDate.Format("2006-01-02"))
		}
		return nil
	},
}

var followupsRespondCmd = &cobra.Command{
	Use:   "respond <prospect-id>",
	Short: "Mark a prospect as responded, stopping all follow-ups",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		rec, err := env.Store.GetProspect(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		prospect.MarkResponded(rec, time.Now().UTC())
		if err := env.Store.SaveProspect(cmd.Context(), rec); err != nil {
			return err
		}

		fmt.Printf("%s marked as responded\n", rec.CompanyName)
		return nil
	},
}

func init() {
	followupsCmd.AddCommand(followupsListCmd, followupsAdvanceCmd, followupsRespondCmd)
	rootCmd.AddCommand(followupsCmd)
}
