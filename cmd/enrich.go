package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nextgencrm/prospector/internal/prospect"
	"github.com/nextgencrm/prospector/internal/store"
)

var (
	enrichStatus string
	enrichTag    string
	enrichLimit  int
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <prospect-id>",
	Short: "Re-enrich a stored prospect from all available sources",
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

		result, err := env.Orchestrator.EnrichProspect(cmd.Context(), rec)
		if err != nil {
			return err
		}
		if err := env.Store.SaveProspect(cmd.Context(), rec); err != nil {
			return err
		}
		return printJSON(result)
	},
}

var enrichBulkCmd = &cobra.Command{
	Use:   "bulk",
	Short: "Enrich stored prospects in batches",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		listed, err := env.Store.ListProspects(cmd.Context(), store.ProspectFilter{
			Status:      enrichStatus,
			CampaignTag: enrichTag,
			Limit:       enrichLimit,
		})
		if err != nil {
			return err
		}
		if len(listed) == 0 {
			zap.L().Info("no prospects matched the filter")
			return nil
		}

		records := make([]*prospect.ProspectRecord, len(listed))
		for i := range listed {
			records[i] = &listed[i]
		}

		results, err := env.Orchestrator.BulkEnrich(cmd.Context(), records)
		if err != nil {
			zap.L().Warn("bulk enrichment interrupted", zap.Error(err), zap.Int("completed", len(results)))
		}

		failed := 0
		for _, r := range results {
			if len(r.Failures) > 0 {
				failed++
			}
			if saveErr := env.Store.SaveProspect(cmd.Context(), r.Record); saveErr != nil {
				zap.L().Warn("prospect save failed",
					zap.String("id", r.Record.ID), zap.Error(saveErr))
			}
		}
		zap.L().Info("bulk enrichment finished",
			zap.Int("enriched", len(results)),
			zap.Int("with_failures", failed))
		return nil
	},
}

func init() {
	enrichBulkCmd.Flags().StringVar(&enrichStatus, "status", "", "filter by outreach status")
	enrichBulkCmd.Flags().StringVar(&enrichTag, "tag", "", "filter by campaign tag")
	enrichBulkCmd.Flags().IntVar(&enrichLimit, "limit", 50, "maximum prospects to enrich")

	enrichCmd.AddCommand(enrichBulkCmd)
	rootCmd.AddCommand(enrichCmd)
}
