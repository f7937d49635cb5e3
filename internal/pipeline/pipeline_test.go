package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextgencrm/prospector/internal/dedup"
	"github.com/nextgencrm/prospector/internal/discovery"
	"github.com/nextgencrm/prospector/internal/oracle"
	"github.com/nextgencrm/prospector/internal/prospect"
	"github.com/nextgencrm/prospector/internal/registry"
	"github.com/nextgencrm/prospector/internal/webscrape"
)

type fakeDiscovery struct {
	listings []discovery.Listing
	err      error
}

func (f *fakeDiscovery) Search(context.Context, discovery.SearchRequest) ([]discovery.Listing, error) {
	return f.listings, f.err
}

type fakeScraper struct {
	byURL map[string]*webscrape.Analysis
}

func (f *fakeScraper) Analyze(_ context.Context, url string) *webscrape.Analysis {
	if a, ok := f.byURL[url]; ok {
		return a
	}
	return &webscrape.Analysis{URL: url, Accessible: false, Error: "connection refused"}
}

type fakeRegistry struct {
	byICO map[string]*registry.Enrichment
	err   error
}

func (f *fakeRegistry) Lookup(_ context.Context, ico string) (*registry.Enrichment, error) {
	if f.err != nil {
		return nil, f.err
	}
	if e, ok := f.byICO[ico]; ok {
		return e, nil
	}
	return nil, eris.New("not found")
}

type fakeQualityOracle struct {
	enabled    bool
	quality    *oracle.QualityResult
	qualityErr error
	summary    *oracle.SummaryResult
	summaryErr error
}

func (f *fakeQualityOracle) Enabled() bool { return f.enabled }

func (f *fakeQualityOracle) ScoreQuality(context.Context, *prospect.ProspectRecord) (*oracle.QualityResult, error) {
	return f.quality, f.qualityErr
}

func (f *fakeQualityOracle) Summarize(context.Context, *prospect.ProspectRecord) (*oracle.SummaryResult, error) {
	return f.summary, f.summaryErr
}

type fakeStore struct {
	pool  []prospect.ProspectRecord
	saved []*prospect.ProspectRecord
}

func (f *fakeStore) SaveProspect(_ context.Context, rec *prospect.ProspectRecord) error {
	f.saved = append(f.saved, rec)
	return nil
}

func (f *fakeStore) CandidatePool(context.Context, int) ([]prospect.ProspectRecord, error) {
	return f.pool, nil
}

func listing(name, website, phone string) discovery.Listing {
	return discovery.Listing{
		PlaceID:  "place-" + name,
		Name:     name,
		Website:  website,
		Phone:    phone,
		Address:  "Hlavní 5, 602 00 Brno, Czech Republic",
		Category: "automotive",
	}
}

func TestValidateCampaign(t *testing.T) {
	o := New(Config{})

	t.Run("missing required fields", func(t *testing.T) {
		v := o.ValidateCampaign(CampaignConfig{})
		assert.False(t, v.Valid)
		assert.Contains(t, v.Errors, "keyword is required")
		assert.Contains(t, v.Errors, "location is required")
	})

	t.Run("oversized max_results warns, still valid", func(t *testing.T) {
		v := o.ValidateCampaign(CampaignConfig{Keyword: "restaurace", Location: "Praha", MaxResults: 200})
		assert.True(t, v.Valid)
		assert.Contains(t, v.Warnings, "max_results capped at 100")
	})

	t.Run("negative max_results is an error", func(t *testing.T) {
		v := o.ValidateCampaign(CampaignConfig{Keyword: "a", Location: "b", MaxResults: -1})
		assert.False(t, v.Valid)
	})

	t.Run("radius bounds warn only", func(t *testing.T) {
		v := o.ValidateCampaign(CampaignConfig{Keyword: "a", Location: "b", Radius: 50})
		assert.True(t, v.Valid)
		assert.NotEmpty(t, v.Warnings)

		v = o.ValidateCampaign(CampaignConfig{Keyword: "a", Location: "b", Radius: 60000})
		assert.True(t, v.Valid)
		assert.NotEmpty(t, v.Warnings)
	})
}

func TestRunCampaignEndToEnd(t *testing.T) {
	// five listings, two of which are the same business under slightly
	// different names sharing website domain and phone
	fake := &fakeDiscovery{listings: []discovery.Listing{
		listing("Autoservis Dupe s.r.o.", "https://dupe.cz", "+420 777 111 222"),
		listing("Autoservis Dupe", "http://www.dupe.cz", "+420 777 111 222"),
		listing("Pneuservis Alfa", "https://alfa.cz", "+420 608 333 444"),
		listing("Autodíly Beta", "https://beta.cz", ""),
		listing("Gamma", "", ""),
	}}
	store := &fakeStore{}
	o := New(Config{
		Discovery: fake,
		Dedup:     dedup.NewService(dedup.Config{}),
		Store:     store,
	})

	got, err := o.RunCampaign(context.Background(), CampaignConfig{
		Keyword:         "autoservis",
		Location:        "Brno",
		MaxResults:      10,
		DisableScraping: true,
		DisableAI:       true,
	})
	require.NoError(t, err)
	require.True(t, got.Success)

	assert.Equal(t, 5, got.TotalFound)
	assert.Equal(t, 5, got.TotalProcessed)
	assert.Equal(t, 1, got.DuplicatesRemoved)

	// Gamma falls below the quality bar and the duplicate pair collapses,
	// leaving at most four unique prospects sorted by score.
	require.LessOrEqual(t, len(got.Prospects), 4)
	for i := 1; i < len(got.Prospects); i++ {
		assert.GreaterOrEqual(t, *got.Prospects[i-1].QualityScore, *got.Prospects[i].QualityScore)
	}
	for _, r := range got.Prospects {
		assert.NotEqual(t, "Gamma", r.CompanyName)
	}

	assert.Len(t, store.saved, len(got.Prospects))
	assert.Contains(t, got.ServicesUsed, "google_maps")
	assert.NotContains(t, got.ServicesUsed, "ai_analysis")
}

func TestRunCampaignDropsStoredDuplicate(t *testing.T) {
	existing := prospect.NewDraft("Autoservis Dupe s.r.o.", time.Now())
	existing.Website = "https://dupe.cz"
	existing.Phone = "+420777111222"

	fake := &fakeDiscovery{listings: []discovery.Listing{
		listing("Autoservis Dupe", "https://dupe.cz", "+420 777 111 222"),
		listing("Pneuservis Alfa", "https://alfa.cz", "+420 608 333 444"),
	}}
	store := &fakeStore{pool: []prospect.ProspectRecord{*existing}}
	o := New(Config{
		Discovery: fake,
		Dedup:     dedup.NewService(dedup.Config{}),
		Store:     store,
	})

	got, err := o.RunCampaign(context.Background(), CampaignConfig{
		Keyword: "autoservis", Location: "Brno", DisableScraping: true, DisableAI: true,
	})
	require.NoError(t, err)
	require.Len(t, got.Prospects, 1)
	assert.Equal(t, "Pneuservis Alfa", got.Prospects[0].CompanyName)
}

func TestRunCampaignAIFailureKeepsRecord(t *testing.T) {
	fake := &fakeDiscovery{listings: []discovery.Listing{
		listing("Pneuservis Alfa", "https://alfa.cz", "+420 608 333 444"),
	}}
	o := New(Config{
		Discovery: fake,
		Oracle:    &fakeQualityOracle{enabled: true, qualityErr: eris.New("api down")},
	})

	got, err := o.RunCampaign(context.Background(), CampaignConfig{
		Keyword: "pneuservis", Location: "Brno", DisableScraping: true,
	})
	require.NoError(t, err)
	require.Len(t, got.Prospects, 1)
	rec := got.Prospects[0]
	require.NotNil(t, rec.QualityScore)
	assert.Equal(t, 50, *rec.QualityScore)
	assert.False(t, rec.AIAnalyzed)
}

func TestRunCampaignAppliesOracleVerdict(t *testing.T) {
	fake := &fakeDiscovery{listings: []discovery.Listing{
		listing("Pneuservis Alfa", "https://alfa.cz", "+420 608 333 444"),
	}}
	o := New(Config{
		Discovery: fake,
		Oracle: &fakeQualityOracle{enabled: true, quality: &oracle.QualityResult{
			QualityScore:     88,
			ValidationStatus: "valid",
			TargetPersona:    "majitel servisu",
		}},
	})

	got, err := o.RunCampaign(context.Background(), CampaignConfig{
		Keyword: "pneuservis", Location: "Brno", DisableScraping: true,
	})
	require.NoError(t, err)
	require.Len(t, got.Prospects, 1)
	rec := got.Prospects[0]
	assert.Equal(t, 88, *rec.QualityScore)
	assert.True(t, rec.AIAnalyzed)
	assert.Equal(t, "majitel servisu", rec.TargetPersona)
}

func TestRunCampaignNoResults(t *testing.T) {
	o := New(Config{Discovery: &fakeDiscovery{}})
	got, err := o.RunCampaign(context.Background(), CampaignConfig{Keyword: "x", Location: "y"})
	require.NoError(t, err)
	assert.False(t, got.Success)
	assert.Contains(t, got.Error, "no businesses found")
}

func TestRunCampaignInvalidConfig(t *testing.T) {
	o := New(Config{Discovery: &fakeDiscovery{}})
	_, err := o.RunCampaign(context.Background(), CampaignConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid campaign config")
}

func TestRunCampaignErrorBudget(t *testing.T) {
	var listings []discovery.Listing
	for i := 0; i < 30; i++ {
		listings = append(listings, listing("Firma", "https://firma.cz", ""))
	}
	o := New(Config{
		Discovery:    &fakeDiscovery{listings: listings},
		Oracle:       &fakeQualityOracle{enabled: true, qualityErr: eris.New("api down")},
		ErrorBudget:  5,
		MaxProspects: 100,
	})

	got, err := o.RunCampaign(context.Background(), CampaignConfig{
		Keyword: "firma", Location: "Brno", MaxResults: 100, DisableScraping: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "error budget exhausted", got.Error)
	assert.Equal(t, 5, got.TotalProcessed, "stops once the budget is spent")
	assert.NotEmpty(t, got.Prospects, "partial results survive")
}

func TestRuleBasedScore(t *testing.T) {
	r := prospect.NewDraft("Firma", time.Now())
	assert.Equal(t, 20, RuleBasedScore(r))

	r.Email = "jan@firma.cz"
	r.Phone = "+420777123456"
	r.Website = "https://firma.cz"
	r.FirstName = "Jan"
	r.LastName = "Novák"
	r.ICO = "12345679"
	assert.Equal(t, 100, RuleBasedScore(r))
}

func registryFixture() *registry.Enrichment {
	return &registry.Enrichment{
		ICO:         "12345679",
		CompanyName: "Kovovýroba Novák s.r.o.",
		Street:      "Dlouhá 12",
		City:        "Brno",
		Country:     "Czech Republic",
		TaxID:       "CZ12345679",
	}
}

func websiteFixture() *webscrape.Analysis {
	return &webscrape.Analysis{
		URL:         "https://kovonovak.cz",
		Accessible:  true,
		Description: "Zakázková kovovýroba.",
		Emails:      []string{"jan.novak@kovonovak.cz"},
		Phones:      []string{"+420777123456"},
	}
}

func TestEnrichProspect(t *testing.T) {
	rec := prospect.NewDraft("Kovovyroba Novak", time.Now())
	rec.ICO = "12345679"
	rec.Website = "https://kovonovak.cz"

	o := New(Config{
		Registry: &fakeRegistry{byICO: map[string]*registry.Enrichment{"12345679": registryFixture()}},
		Scraper:  &fakeScraper{byURL: map[string]*webscrape.Analysis{"https://kovonovak.cz": websiteFixture()}},
		Oracle: &fakeQualityOracle{
			enabled: true,
			quality: &oracle.QualityResult{QualityScore: 75, ValidationStatus: "valid"},
			summary: &oracle.SummaryResult{Summary: "Strojírenská firma z Brna."},
		},
	})

	got, err := o.EnrichProspect(context.Background(), rec)
	require.NoError(t, err)
	assert.ElementsMatch(t, got.Sources,
		[]string{SourceRegistryData, SourceWebsiteScraping, SourceAIAnalysis, SourceAISummary})
	assert.Empty(t, got.Failures)

	assert.Equal(t, "Kovovýroba Novák s.r.o.", rec.CompanyName)
	assert.Equal(t, "jan.novak@kovonovak.cz", rec.Email)
	assert.Equal(t, 75, *rec.QualityScore)
	assert.Equal(t, "Strojírenská firma z Brna.", rec.Summary)
	assert.True(t, rec.IcoEnriched)
}

func TestEnrichProspectOracleFailureDoesNotAbort(t *testing.T) {
	rec := prospect.NewDraft("Kovovyroba Novak", time.Now())
	rec.ICO = "12345679"
	rec.Website = "https://kovonovak.cz"

	o := New(Config{
		Registry: &fakeRegistry{byICO: map[string]*registry.Enrichment{"12345679": registryFixture()}},
		Scraper:  &fakeScraper{byURL: map[string]*webscrape.Analysis{"https://kovonovak.cz": websiteFixture()}},
		Oracle: &fakeQualityOracle{
			enabled:    true,
			qualityErr: eris.New("malformed JSON in response"),
			summaryErr: eris.New("malformed JSON in response"),
		},
	})

	got, err := o.EnrichProspect(context.Background(), rec)
	require.NoError(t, err)

	// registry and website data survive the oracle failure
	assert.Equal(t, "Kovovýroba Novák s.r.o.", rec.CompanyName)
	assert.Equal(t, "jan.novak@kovonovak.cz", rec.Email)
	assert.Nil(t, rec.QualityScore)
	assert.Empty(t, rec.Summary)

	assert.ElementsMatch(t, got.Sources, []string{SourceRegistryData, SourceWebsiteScraping})
	assert.NotEmpty(t, got.Failures)
}

func TestEnrichProspectNilRecord(t *testing.T) {
	o := New(Config{})
	_, err := o.EnrichProspect(context.Background(), nil)
	require.Error(t, err)
}

func TestBulkEnrich(t *testing.T) {
	records := make([]*prospect.ProspectRecord, 5)
	for i := range records {
		records[i] = prospect.NewDraft("Firma", time.Now())
	}

	o := New(Config{
		Oracle:     &fakeQualityOracle{enabled: false},
		BatchSize:  2,
		BatchPause: time.Millisecond,
	})

	got, err := o.BulkEnrich(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i, result := range got {
		assert.Same(t, records[i], result.Record, "order preserved")
	}
}

func TestBulkEnrichCancelled(t *testing.T) {
	records := make([]*prospect.ProspectRecord, 4)
	for i := range records {
		records[i] = prospect.NewDraft("Firma", time.Now())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := New(Config{
		Oracle:     &fakeQualityOracle{enabled: false},
		BatchSize:  2,
		BatchPause: time.Minute,
	})

	got, err := o.BulkEnrich(ctx, records)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, got, 2, "first batch survives cancellation")
}
