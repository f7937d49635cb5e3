package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nextgencrm/prospector/internal/store"
)

var (
	prospectsStatus string
	prospectsTag    string
	prospectsLimit  int
	prospectsOffset int
)

var prospectsCmd = &cobra.Command{
	Use:   "prospects",
	Short: "Inspect and manage stored prospects",
}

var prospectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored prospects",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		records, err := env.Store.ListProspects(cmd.Context(), store.ProspectFilter{
			Status:      prospectsStatus,
			CampaignTag: prospectsTag,
			Limit:       prospectsLimit,
			Offset:      prospectsOffset,
		})
		if err != nil {
			return err
		}

		for _, r := range records {
			score := "-"
			if r.QualityScore != nil {
				score = fmt.Sprintf("%d", *r.QualityScore)
			}
			fmt.Printf("%s  %-40s  %-12s  score %s\n", r.ID, r.CompanyName, r.Status, score)
		}
		fmt.Printf("%d prospects\n", len(records))
		return nil
	},
}

var prospectsShowCmd = &cobra.Command{
	Use:   "show <prospect-id>",
	Short: "Show one prospect as JSON",
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
		return printJSON(rec)
	},
}

var prospectsDeleteCmd = &cobra.Command{
	Use:   "delete <prospect-id>",
	Short: "Soft-delete a prospect",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Store.DeleteProspect(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

func init() {
	prospectsListCmd.Flags().StringVar(&prospectsStatus, "status", "", "filter by outreach status")
	prospectsListCmd.Flags().StringVar(&prospectsTag, "tag", "", "filter by campaign tag")
	prospectsListCmd.Flags().IntVar(&prospectsLimit, "limit", 50, "maximum rows")
	prospectsListCmd.Flags().IntVar(&prospectsOffset, "offset", 0, "rows to skip")

	prospectsCmd.AddCommand(prospectsListCmd, prospectsShowCmd, prospectsDeleteCmd)
	rootCmd.AddCommand(prospectsCmd)
}
