// Package oracle asks an LLM to judge prospect quality, duplicates and
// outreach angles. All prompts target the Czech B2B market.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nextgencrm/prospector/internal/prospect"
	"github.com/nextgencrm/prospector/pkg/openai"
)

// ErrUnavailable is returned when no API key is configured.
var ErrUnavailable = eris.New("oracle: service not available")

const (
	defaultModel       = "gpt-4o-mini"
	defaultMaxTokens   = 1000
	defaultTemperature = 0.3

	// maxDuplicateCandidates bounds the comparison set sent per call.
	maxDuplicateCandidates = 20
	maxPromptBytes         = 3000
)

// QualityResult is the LLM's quality verdict for one prospect.
type QualityResult struct {
	QualityScore      int      `json:"quality_score"`
	ContactQuality    int      `json:"contact_quality"`
	BusinessPotential int      `json:"business_potential"`
	DataCompleteness  int      `json:"data_completeness"`
	ValidationStatus  string   `json:"validation_status"`
	Strengths         []string `json:"strengths"`
	Weaknesses        []string `json:"weaknesses"`
	Recommendations   []string `json:"recommendations"`
	TargetPersona     string   `json:"target_persona"`
	ApproachStrategy  string   `json:"approach_strategy"`
	Urgency           string   `json:"urgency"`
}

// DuplicateResult is the LLM's duplicate verdict.
type DuplicateResult struct {
	IsDuplicate    bool     `json:"is_duplicate"`
	Confidence     float64  `json:"confidence"`
	DuplicateOf    string   `json:"duplicate_of"`
	Reasoning      string   `json:"reasoning"`
	Differences    []string `json:"differences"`
	Recommendation string   `json:"recommendation"`
}

// SummaryResult is a cold-outreach briefing for one prospect.
type SummaryResult struct {
	Summary             string   `json:"summary"`
	KeyPoints           []string `json:"key_points"`
	PersonalizationTips []string `json:"personalization_tips"`
	RedFlags            []string `json:"red_flags"`
	NextSteps           []string `json:"next_steps"`
}

// Config tunes the oracle.
type Config struct {
	Client      openai.Client
	Model       string
	MaxTokens   int
	Temperature float64
	// RatePerSec throttles API calls; zero disables throttling.
	RatePerSec float64
	// Enabled is false when no API key is configured; every call then
	// returns ErrUnavailable without touching the network.
	Enabled bool
}

// Oracle wraps the chat-completion API with prospect-shaped operations.
type Oracle struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature float64
	limiter     *rate.Limiter
	enabled     bool
	log         *zap.Logger
}

// New creates an oracle.
func New(cfg Config) *Oracle {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}
	return &Oracle{
		client:      cfg.Client,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		limiter:     limiter,
		enabled:     cfg.Enabled,
		log:         zap.L().With(zap.String("component", "oracle")),
	}
}

// Enabled reports whether the oracle can make API calls.
func (o *Oracle) Enabled() bool {
	return o.enabled
}

// ScoreQuality rates one prospect for cold outreach.
func (o *Oracle) ScoreQuality(ctx context.Context, r *prospect.ProspectRecord) (*QualityResult, error) {
	if !o.enabled {
		return nil, ErrUnavailable
	}

	content, err := o.complete(ctx, qualitySystemPrompt, qualityPrompt(r))
	if err != nil {
		return nil, err
	}

	var raw struct {
		QualityScore      flexInt  `json:"quality_score"`
		ContactQuality    flexInt  `json:"contact_quality"`
		BusinessPotential flexInt  `json:"business_potential"`
		DataCompleteness  flexInt  `json:"data_completeness"`
		ValidationStatus  string   `json:"validation_status"`
		Strengths         []string `json:"strengths"`
		Weaknesses        []string `json:"weaknesses"`
		Recommendations   []string `json:"recommendations"`
		TargetPersona     string   `json:"target_persona"`
		ApproachStrategy  string   `json:"approach_strategy"`
		Urgency           string   `json:"urgency"`
	}
	if err := openai.ExtractJSON(content, &raw); err != nil {
		return nil, eris.Wrap(err, "oracle: quality analysis")
	}

	result := &QualityResult{
		QualityScore:      int(raw.QualityScore),
		ContactQuality:    int(raw.ContactQuality),
		BusinessPotential: int(raw.BusinessPotential),
		DataCompleteness:  int(raw.DataCompleteness),
		ValidationStatus:  raw.ValidationStatus,
		Strengths:         raw.Strengths,
		Weaknesses:        raw.Weaknesses,
		Recommendations:   raw.Recommendations,
		TargetPersona:     raw.TargetPersona,
		ApproachStrategy:  raw.ApproachStrategy,
		Urgency:           raw.Urgency,
	}
	if result.ValidationStatus == "" {
		result.ValidationStatus = "needs_review"
	}
	return result, nil
}

// DetectDuplicate asks whether the candidate duplicates any of the existing
// records. With nothing to compare against the verdict is trivially
// negative, no API call made.
func (o *Oracle) DetectDuplicate(ctx context.Context, candidate *prospect.ProspectRecord, existing []*prospect.ProspectRecord) (*DuplicateResult, error) {
	if !o.enabled || len(existing) == 0 {
		return &DuplicateResult{}, nil
	}
	if len(existing) > maxDuplicateCandidates {
		existing = existing[:maxDuplicateCandidates]
	}

	content, err := o.complete(ctx, duplicateSystemPrompt, duplicatePrompt(candidate, existing))
	if err != nil {
		return nil, err
	}

	var raw struct {
		IsDuplicate    bool      `json:"is_duplicate"`
		Confidence     flexFloat `json:"confidence"`
		DuplicateOf    flexStr   `json:"duplicate_of"`
		Reasoning      string    `json:"reasoning"`
		Differences    []string  `json:"differences"`
		Recommendation string    `json:"recommendation"`
	}
	if err := openai.ExtractJSON(content, &raw); err != nil {
		return nil, eris.Wrap(err, "oracle: duplicate detection")
	}

	return &DuplicateResult{
		IsDuplicate:    raw.IsDuplicate,
		Confidence:     float64(raw.Confidence),
		DuplicateOf:    string(raw.DuplicateOf),
		Reasoning:      raw.Reasoning,
		Differences:    raw.Differences,
		Recommendation: raw.Recommendation,
	}, nil
}

// Summarize produces a cold-outreach briefing from everything collected.
func (o *Oracle) Summarize(ctx context.Context, r *prospect.ProspectRecord) (*SummaryResult, error) {
	if !o.enabled {
		return nil, ErrUnavailable
	}

	content, err := o.complete(ctx, summarySystemPrompt, summaryPrompt(r))
	if err != nil {
		return nil, err
	}

	var result SummaryResult
	if err := openai.ExtractJSON(content, &result); err != nil {
		return nil, eris.Wrap(err, "oracle: summary")
	}
	return &result, nil
}

func (o *Oracle) complete(ctx context.Context, system, user string) (string, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "oracle: rate limit wait")
		}
	}
	return o.client.Complete(ctx, openai.CompletionRequest{
		Model: o.model,
		Messages: []openai.Message{
			{Role: openai.RoleSystem, Content: system},
			{Role: openai.RoleUser, Content: user},
		},
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
	})
}

// truncateJSON marshals v and trims it to the prompt byte budget.
func truncateJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "{}"
	}
	s := strings.TrimSpace(buf.String())
	if len(s) > maxPromptBytes {
		s = s[:maxPromptBytes]
	}
	return s
}

// flexInt tolerates scores returned either as numbers or quoted strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	v, err := parseFlexFloat(b)
	if err != nil {
		return err
	}
	*f = flexInt(v)
	return nil
}

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	v, err := parseFlexFloat(b)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// flexStr tolerates identifiers returned either as strings or numbers.
type flexStr string

func (f *flexStr) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		s = ""
	}
	*f = flexStr(s)
	return nil
}

func parseFlexFloat(b []byte) (float64, error) {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "oracle: parse number %q", s)
	}
	return v, nil
}
