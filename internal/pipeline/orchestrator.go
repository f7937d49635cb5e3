// Package pipeline orchestrates a lead-generation campaign end to end:
// discovery, website and registry enrichment, duplicate checks, quality
// scoring and final ranking.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/nextgencrm/prospector/internal/dedup"
	"github.com/nextgencrm/prospector/internal/discovery"
	"github.com/nextgencrm/prospector/internal/oracle"
	"github.com/nextgencrm/prospector/internal/prospect"
	"github.com/nextgencrm/prospector/internal/registry"
	"github.com/nextgencrm/prospector/internal/webscrape"
)

// Defaults for campaign limits.
const (
	DefaultMaxProspects     = 100
	DefaultRadius           = 5000
	DefaultQualityThreshold = 30
	DefaultErrorBudget      = 15

	defaultMaxResults = 20

	// aiFailureScore replaces the oracle's verdict when a mid-campaign AI
	// call fails; the record is kept with ai_analyzed=false.
	aiFailureScore = 50
)

// Discoverer finds business listings.
type Discoverer interface {
	Search(ctx context.Context, req discovery.SearchRequest) ([]discovery.Listing, error)
}

// WebsiteAnalyzer dissects company websites.
type WebsiteAnalyzer interface {
	Analyze(ctx context.Context, url string) *webscrape.Analysis
}

// RegistryLookup enriches from the business registry.
type RegistryLookup interface {
	Lookup(ctx context.Context, ico string) (*registry.Enrichment, error)
}

// QualityOracle scores and summarizes prospects.
type QualityOracle interface {
	Enabled() bool
	ScoreQuality(ctx context.Context, r *prospect.ProspectRecord) (*oracle.QualityResult, error)
	Summarize(ctx context.Context, r *prospect.ProspectRecord) (*oracle.SummaryResult, error)
}

// Deduper detects and collapses duplicates.
type Deduper interface {
	CheckForDuplicates(ctx context.Context, candidate *prospect.ProspectRecord, pool []*prospect.ProspectRecord) *dedup.Verdict
	DeduplicateList(prospects []*prospect.ProspectRecord) *dedup.ListResult
}

// Store is the persistence surface the orchestrator needs.
type Store interface {
	SaveProspect(ctx context.Context, rec *prospect.ProspectRecord) error
	CandidatePool(ctx context.Context, limit int) ([]prospect.ProspectRecord, error)
}

// Config wires the orchestrator's collaborators. Discovery is required for
// campaigns; everything else degrades gracefully when nil.
type Config struct {
	Discovery Discoverer
	Scraper   WebsiteAnalyzer
	Registry  RegistryLookup
	Oracle    QualityOracle
	Dedup     Deduper
	Store     Store

	MaxProspects     int
	Radius           int
	QualityThreshold int
	ErrorBudget      int
	BatchSize        int
	BatchPause       time.Duration
}

// Orchestrator drives campaigns and enrichment runs.
type Orchestrator struct {
	discovery Discoverer
	scraper   WebsiteAnalyzer
	registry  RegistryLookup
	oracle    QualityOracle
	dedup     Deduper
	store     Store

	maxProspects     int
	radius           int
	qualityThreshold int
	errorBudget      int
	batchSize        int
	batchPause       time.Duration

	log *zap.Logger
}

// New creates an orchestrator.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		discovery:        cfg.Discovery,
		scraper:          cfg.Scraper,
		registry:         cfg.Registry,
		oracle:           cfg.Oracle,
		dedup:            cfg.Dedup,
		store:            cfg.Store,
		maxProspects:     cfg.MaxProspects,
		radius:           cfg.Radius,
		qualityThreshold: cfg.QualityThreshold,
		errorBudget:      cfg.ErrorBudget,
		batchSize:        cfg.BatchSize,
		batchPause:       cfg.BatchPause,
		log:              zap.L().With(zap.String("component", "pipeline")),
	}
	if o.maxProspects <= 0 {
		o.maxProspects = DefaultMaxProspects
	}
	if o.radius <= 0 {
		o.radius = DefaultRadius
	}
	if o.qualityThreshold <= 0 {
		o.qualityThreshold = DefaultQualityThreshold
	}
	if o.errorBudget <= 0 {
		o.errorBudget = DefaultErrorBudget
	}
	if o.batchSize <= 0 {
		o.batchSize = 3
	}
	if o.batchPause <= 0 {
		o.batchPause = time.Second
	}
	return o
}

// CampaignConfig describes one lead-generation campaign.
type CampaignConfig struct {
	Keyword    string `yaml:"keyword" json:"keyword"`
	Location   string `yaml:"location" json:"location"`
	MaxResults int    `yaml:"max_results" json:"max_results"`
	Radius     int    `yaml:"radius" json:"radius"`
	Tag        string `yaml:"tag" json:"tag,omitempty"`

	DisableScraping bool `yaml:"disable_scraping" json:"disable_scraping,omitempty"`
	DisableAI       bool `yaml:"disable_ai" json:"disable_ai,omitempty"`
	DisableDedup    bool `yaml:"disable_dedup" json:"disable_dedup,omitempty"`
}

// Validation is the outcome of campaign-config validation. Warnings never
// make a config invalid.
type Validation struct {
	Valid    bool     `json:"is_valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// ValidateCampaign checks a campaign config before any external call.
func (o *Orchestrator) ValidateCampaign(cfg CampaignConfig) Validation {
	var v Validation

	if cfg.Keyword == "" {
		v.Errors = append(v.Errors, "keyword is required")
	}
	if cfg.Location == "" {
		v.Errors = append(v.Errors, "location is required")
	}

	if cfg.MaxResults < 0 {
		v.Errors = append(v.Errors, "max_results must be a positive integer")
	} else if cfg.MaxResults > o.maxProspects {
		v.Warnings = append(v.Warnings, fmt.Sprintf("max_results capped at %d", o.maxProspects))
	}

	radius := cfg.Radius
	if radius == 0 {
		radius = o.radius
	}
	if radius < 100 {
		v.Warnings = append(v.Warnings, "radius should be at least 100 meters")
	} else if radius > 50000 {
		v.Warnings = append(v.Warnings, "radius should not exceed 50km for optimal results")
	}

	v.Valid = len(v.Errors) == 0
	return v
}

// CampaignResult is the outcome of one campaign run.
type CampaignResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	Config    CampaignConfig             `json:"campaign_config"`
	Prospects []*prospect.ProspectRecord `json:"prospects"`

	TotalFound        int       `json:"total_found"`
	TotalProcessed    int       `json:"total_processed"`
	TotalQualified    int       `json:"total_qualified"`
	DuplicatesRemoved int       `json:"duplicates_removed"`
	ServicesUsed      []string  `json:"services_used"`
	GeneratedAt       time.Time `json:"generated_at"`
}

// RunCampaign drives the full pipeline for one campaign. Individual record
// failures never abort the run; the cumulative error budget stops it early
// with partial results.
func (o *Orchestrator) RunCampaign(ctx context.Context, cfg CampaignConfig) (*CampaignResult, error) {
	if v := o.ValidateCampaign(cfg); !v.Valid {
		return nil, eris.Errorf("pipeline: invalid campaign config: %v", v.Errors)
	}

	maxResults := cfg.MaxResults
	if maxResults == 0 {
		maxResults = defaultMaxResults
	}
	if maxResults > o.maxProspects {
		maxResults = o.maxProspects
	}
	radius := cfg.Radius
	if radius == 0 {
		radius = o.radius
	}

	o.log.Info("starting campaign",
		zap.String("keyword", cfg.Keyword),
		zap.String("location", cfg.Location),
		zap.Int("max_results", maxResults))

	// Overshoot so post-filtering still fills the quota.
	listings, err := o.discovery.Search(ctx, discovery.SearchRequest{
		Keyword:    cfg.Keyword,
		Location:   cfg.Location,
		Radius:     radius,
		MaxResults: maxResults * 2,
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: business discovery")
	}

	result := &CampaignResult{
		Config:       cfg,
		ServicesUsed: o.servicesUsed(cfg),
		GeneratedAt:  time.Now().UTC(),
	}
	if len(listings) == 0 {
		result.Error = "no businesses found for the given criteria"
		return result, nil
	}
	result.TotalFound = len(listings)

	pool := o.candidatePool(ctx, cfg)

	var prospects []*prospect.ProspectRecord
	errorCount := 0

	for _, listing := range listings {
		if len(prospects) >= maxResults {
			break
		}
		if ctx.Err() != nil {
			result.Error = ctx.Err().Error()
			break
		}

		result.TotalProcessed++
		rec, failures := o.processListing(ctx, listing, cfg, pool)
		errorCount += failures

		if rec != nil {
			prospects = append(prospects, rec)
		}
		if errorCount >= o.errorBudget {
			o.log.Error("error budget exhausted, stopping with partial results",
				zap.Int("errors", errorCount), zap.Int("collected", len(prospects)))
			result.Error = "error budget exhausted"
			break
		}
	}

	if !cfg.DisableDedup && o.dedup != nil && len(prospects) > 1 {
		listResult := o.dedup.DeduplicateList(prospects)
		prospects = listResult.Unique
		result.DuplicatesRemoved = listResult.DuplicatesRemoved
	}

	sort.SliceStable(prospects, func(i, j int) bool {
		return qualityOf(prospects[i]) > qualityOf(prospects[j])
	})
	if len(prospects) > maxResults {
		prospects = prospects[:maxResults]
	}

	result.Prospects = prospects
	result.TotalQualified = len(prospects)
	result.Success = len(prospects) > 0

	o.persist(ctx, prospects)

	o.log.Info("campaign finished",
		zap.Int("found", result.TotalFound),
		zap.Int("processed", result.TotalProcessed),
		zap.Int("qualified", result.TotalQualified),
		zap.Int("duplicates_removed", result.DuplicatesRemoved))
	return result, nil
}

// processListing runs the per-record pipeline. A nil record means the
// listing was dropped (duplicate or below the quality bar); the failure
// count feeds the campaign error budget.
func (o *Orchestrator) processListing(ctx context.Context, listing discovery.Listing, cfg CampaignConfig, pool []*prospect.ProspectRecord) (*prospect.ProspectRecord, int) {
	failures := 0
	rec := prospect.FromListing(listing, cfg.Keyword, cfg.Location, time.Now().UTC())
	rec.CampaignTag = cfg.Tag

	if !cfg.DisableScraping && o.scraper != nil && rec.Website != "" {
		analysis := o.scraper.Analyze(ctx, rec.Website)
		if analysis.Accessible {
			prospect.ApplyWebsite(rec, analysis)
		} else {
			failures++
			o.log.Debug("website inaccessible",
				zap.String("company", rec.CompanyName), zap.String("error", analysis.Error))
		}
	}

	if o.registry != nil && rec.ICO != "" {
		enrichment, err := o.registry.Lookup(ctx, rec.ICO)
		if err != nil {
			failures++
			o.log.Warn("registry enrichment failed",
				zap.String("company", rec.CompanyName), zap.String("ico", rec.ICO), zap.Error(err))
		} else {
			prospect.ApplyRegistry(rec, enrichment, time.Now().UTC())
		}
	}

	if !cfg.DisableDedup && o.dedup != nil {
		verdict := o.dedup.CheckForDuplicates(ctx, rec, pool)
		if verdict.IsDuplicate && verdict.Confidence > 80 {
			o.log.Info("dropping duplicate prospect",
				zap.String("company", rec.CompanyName), zap.Int("confidence", verdict.Confidence))
			return nil, failures
		}
	}

	if !cfg.DisableAI && o.oracle != nil && o.oracle.Enabled() {
		quality, err := o.oracle.ScoreQuality(ctx, rec)
		if err != nil {
			failures++
			o.log.Warn("ai quality analysis failed",
				zap.String("company", rec.CompanyName), zap.Error(err))
			score := aiFailureScore
			rec.QualityScore = &score
			rec.AIAnalyzed = false
		} else {
			applyQuality(rec, quality)
		}
	} else {
		score := RuleBasedScore(rec)
		rec.QualityScore = &score
	}

	if qualityOf(rec) <= o.qualityThreshold {
		return nil, failures
	}
	return rec, failures
}

// RuleBasedScore is the deterministic fallback used when AI scoring is
// disabled.
func RuleBasedScore(r *prospect.ProspectRecord) int {
	score := 0
	if r.CompanyName != "" {
		score += 20
	}
	if r.Email != "" {
		score += 25
	}
	if r.Phone != "" {
		score += 15
	}
	if r.Website != "" {
		score += 15
	}
	if r.FullName() != "" {
		score += 15
	}
	if r.ICO != "" {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

func applyQuality(r *prospect.ProspectRecord, q *oracle.QualityResult) {
	score := q.QualityScore
	r.QualityScore = &score
	r.ValidationStatus = q.ValidationStatus
	r.Recommendations = q.Recommendations
	r.TargetPersona = q.TargetPersona
	r.AIAnalyzed = true
}

func (o *Orchestrator) candidatePool(ctx context.Context, cfg CampaignConfig) []*prospect.ProspectRecord {
	if cfg.DisableDedup || o.store == nil {
		return nil
	}
	records, err := o.store.CandidatePool(ctx, 0)
	if err != nil {
		o.log.Warn("candidate pool query failed, duplicate checks degraded", zap.Error(err))
		return nil
	}
	pool := make([]*prospect.ProspectRecord, len(records))
	for i := range records {
		pool[i] = &records[i]
	}
	return pool
}

func (o *Orchestrator) persist(ctx context.Context, prospects []*prospect.ProspectRecord) {
	if o.store == nil {
		return
	}
	for _, rec := range prospects {
		if err := o.store.SaveProspect(ctx, rec); err != nil {
			o.log.Warn("prospect save failed",
				zap.String("company", rec.CompanyName), zap.Error(err))
		}
	}
}

func (o *Orchestrator) servicesUsed(cfg CampaignConfig) []string {
	services := []string{"google_maps"}
	if !cfg.DisableScraping {
		services = append(services, "website_scraping")
	}
	services = append(services, "ares_registry")
	if !cfg.DisableAI {
		services = append(services, "ai_analysis")
	}
	if !cfg.DisableDedup {
		services = append(services, "deduplication")
	}
	return services
}

func qualityOf(r *prospect.ProspectRecord) int {
	if r.QualityScore == nil {
		return 0
	}
	return *r.QualityScore
}
