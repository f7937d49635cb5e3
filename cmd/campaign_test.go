package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCampaignConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campaign.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"keyword: autoservis\nlocation: Brno\nmax_results: 25\nradius: 10000\ntag: brno-q3\ndisable_ai: true\n",
	), 0o644))

	campaignFile = path
	t.Cleanup(func() { campaignFile = "" })

	cc, err := loadCampaignConfig(campaignValidateCmd)
	require.NoError(t, err)
	assert.Equal(t, "autoservis", cc.Keyword)
	assert.Equal(t, "Brno", cc.Location)
	assert.Equal(t, 25, cc.MaxResults)
	assert.Equal(t, 10000, cc.Radius)
	assert.Equal(t, "brno-q3", cc.Tag)
	assert.True(t, cc.DisableAI)
	assert.False(t, cc.DisableScraping)
}

func TestLoadCampaignConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campaign.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"keyword: autoservis\nlocation: Brno\nmax_results: 25\n",
	), 0o644))

	campaignFile = path
	t.Cleanup(func() {
		campaignFile = ""
		campaignRunCmd.Flags().Set("keyword", "")
		campaignRunCmd.Flags().Set("max-results", "0")
	})

	require.NoError(t, campaignRunCmd.Flags().Set("keyword", "pneuservis"))
	require.NoError(t, campaignRunCmd.Flags().Set("max-results", "10"))

	cc, err := loadCampaignConfig(campaignRunCmd)
	require.NoError(t, err)
	assert.Equal(t, "pneuservis", cc.Keyword)
	assert.Equal(t, "Brno", cc.Location, "file value kept when flag untouched")
	assert.Equal(t, 10, cc.MaxResults)
}

func TestLoadCampaignConfigMissingFile(t *testing.T) {
	campaignFile = filepath.Join(t.TempDir(), "nope.yaml")
	t.Cleanup(func() { campaignFile = "" })

	_, err := loadCampaignConfig(campaignValidateCmd)
	require.Error(t, err)
}
