package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nextgencrm/prospector/internal/pipeline"
)

var (
	campaignFile     string
	campaignKeyword  string
	campaignLocation string
	campaignMax      int
	campaignRadius   int
	campaignTag      string
	campaignNoScrape bool
	campaignNoAI     bool
	campaignNoDedup  bool
)

var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Validate and run lead-generation campaigns",
}

var campaignValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a campaign config without calling any external service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, err := loadCampaignConfig(cmd)
		if err != nil {
			return err
		}

		o := pipeline.New(pipeline.Config{
			MaxProspects: cfg.Campaign.MaxProspects,
			Radius:       cfg.Campaign.DefaultRadius,
		})
		return printJSON(o.ValidateCampaign(cc))
	},
}

var campaignRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a campaign end to end and persist qualified prospects",
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, err := loadCampaignConfig(cmd)
		if err != nil {
			return err
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Orchestrator.RunCampaign(cmd.Context(), cc)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

// loadCampaignConfig reads the campaign file when given; flags set on the
// command line override file values.
func loadCampaignConfig(cmd *cobra.Command) (pipeline.CampaignConfig, error) {
	var cc pipeline.CampaignConfig

	if campaignFile != "" {
		data, err := os.ReadFile(campaignFile)
		if err != nil {
			return cc, eris.Wrapf(err, "read campaign file %s", campaignFile)
		}
		if err := yaml.Unmarshal(data, &cc); err != nil {
			return cc, eris.Wrapf(err, "parse campaign file %s", campaignFile)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("keyword") {
		cc.Keyword = campaignKeyword
	}
	if flags.Changed("location") {
		cc.Location = campaignLocation
	}
	if flags.Changed("max-results") {
		cc.MaxResults = campaignMax
	}
	if flags.Changed("radius") {
		cc.Radius = campaignRadius
	}
	if flags.Changed("tag") {
		cc.Tag = campaignTag
	}
	if flags.Changed("no-scrape") {
		cc.DisableScraping = campaignNoScrape
	}
	if flags.Changed("no-ai") {
		cc.DisableAI = campaignNoAI
	}
	if flags.Changed("no-dedup") {
		cc.DisableDedup = campaignNoDedup
	}

	return cc, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	for _, c := range []*cobra.Command{campaignValidateCmd, campaignRunCmd} {
		c.Flags().StringVarP(&campaignFile, "file", "f", "", "campaign config YAML file")
		c.Flags().StringVar(&campaignKeyword, "keyword", "", "search keyword")
		c.Flags().StringVar(&campaignLocation, "location", "", "search location")
		c.Flags().IntVar(&campaignMax, "max-results", 0, "maximum prospects to return")
		c.Flags().IntVar(&campaignRadius, "radius", 0, "search radius in meters")
		c.Flags().StringVar(&campaignTag, "tag", "", "campaign tag stored on each prospect")
		c.Flags().BoolVar(&campaignNoScrape, "no-scrape", false, "skip website scraping")
		c.Flags().BoolVar(&campaignNoAI, "no-ai", false, "skip AI quality analysis")
		c.Flags().BoolVar(&campaignNoDedup, "no-dedup", false, "skip duplicate detection")
	}

	campaignCmd.AddCommand(campaignValidateCmd, campaignRunCmd)
	rootCmd.AddCommand(campaignCmd)
}
