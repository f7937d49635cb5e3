package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/nextgencrm/prospector/internal/prospect"
)

// Enrichment sources reported in EnrichResult.Sources.
const (
	SourceRegistryData    = "ares_data"
	SourceWebsiteScraping = "website_scraping"
	SourceAIAnalysis      = "ai_analysis"
	SourceAISummary       = "ai_summary"
)

// EnrichResult is the outcome of enriching one record.
type EnrichResult struct {
	Record  *prospect.ProspectRecord `json:"record"`
	Sources []string                 `json:"sources"`
	// Failures notes adapters that could not contribute; the record still
	// carries everything the remaining sources produced.
	Failures []string `json:"failures,omitempty"`
}

// EnrichProspect re-enriches an existing record from every available
// source. Re-enrichment is always allowed; the registry refreshes
// authoritative fields on every run. A failing adapter, the AI included,
// never aborts the enrichment.
func (o *Orchestrator) EnrichProspect(ctx context.Context, rec *prospect.ProspectRecord) (*EnrichResult, error) {
	if rec == nil {
		return nil, eris.New("pipeline: nil prospect")
	}

	result := &EnrichResult{Record: rec}
	o.log.Info("enriching prospect", zap.String("company", rec.CompanyName))

	if o.registry != nil && rec.ICO != "" {
		enrichment, err := o.registry.Lookup(ctx, rec.ICO)
		if err != nil {
			result.Failures = append(result.Failures, SourceRegistryData+": "+err.Error())
			o.log.Warn("registry enrichment failed", zap.String("ico", rec.ICO), zap.Error(err))
		} else {
			prospect.ApplyRegistry(rec, enrichment, time.Now().UTC())
			result.Sources = append(result.Sources, SourceRegistryData)
		}
	}

	if o.scraper != nil && rec.Website != "" {
		analysis := o.scraper.Analyze(ctx, rec.Website)
		if analysis.Accessible {
			prospect.ApplyWebsite(rec, analysis)
			result.Sources = append(result.Sources, SourceWebsiteScraping)
		} else {
			result.Failures = append(result.Failures, SourceWebsiteScraping+": "+analysis.Error)
		}
	}

	if o.oracle != nil && o.oracle.Enabled() {
		quality, err := o.oracle.ScoreQuality(ctx, rec)
		if err != nil {
			result.Failures = append(result.Failures, SourceAIAnalysis+": "+err.Error())
			o.log.Warn("ai quality analysis failed", zap.String("company", rec.CompanyName), zap.Error(err))
		} else {
			applyQuality(rec, quality)
			result.Sources = append(result.Sources, SourceAIAnalysis)
		}
	}

	// A summary is only worth generating once several sources agree on
	// what the company is.
	if len(result.Sources) > 1 && o.oracle != nil && o.oracle.Enabled() {
		summary, err := o.oracle.Summarize(ctx, rec)
		if err != nil {
			result.Failures = append(result.Failures, SourceAISummary+": "+err.Error())
		} else {
			rec.Summary = summary.Summary
			result.Sources = append(result.Sources, SourceAISummary)
		}
	}

	o.log.Info("enrichment finished",
		zap.String("company", rec.CompanyName),
		zap.Strings("sources", result.Sources))
	return result, nil
}

// BulkEnrich enriches records in fixed-size batches with a pause between
// batches to respect upstream rate limits. Per-record failures are carried
// in each result; one bad record never stops the batch.
func (o *Orchestrator) BulkEnrich(ctx context.Context, records []*prospect.ProspectRecord) ([]*EnrichResult, error) {
	results := make([]*EnrichResult, 0, len(records))

	for start := 0; start < len(records); start += o.batchSize {
		end := start + o.batchSize
		if end > len(records) {
			end = len(records)
		}
		o.log.Info("bulk enrichment batch",
			zap.Int("batch", start/o.batchSize+1),
			zap.Int("size", end-start))

		for _, rec := range records[start:end] {
			result, err := o.EnrichProspect(ctx, rec)
			if err != nil {
				result = &EnrichResult{Record: rec, Failures: []string{err.Error()}}
			}
			results = append(results, result)
		}

		if end < len(records) {
			timer := time.NewTimer(o.batchPause)
			select {
			case <-ctx.Done():
				timer.Stop()
				return results, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return results, nil
}
