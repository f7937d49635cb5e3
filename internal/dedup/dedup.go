// Package dedup decides whether prospects duplicate each other, combining
// fuzzy field similarity with an LLM second opinion for borderline cases.
package dedup

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/nextgencrm/prospector/internal/oracle"
	"github.com/nextgencrm/prospector/internal/prospect"
	"github.com/nextgencrm/prospector/internal/similarity"
)

// Detection methods reported in verdicts.
const (
	MethodFuzzy          = "fuzzy_matching"
	MethodCombined       = "combined_fuzzy_ai"
	MethodNoExistingData = "no_existing_data"
	MethodError          = "error"
)

const (
	// DefaultThreshold is the overall similarity above which a pair counts
	// as a duplicate.
	DefaultThreshold = 0.85

	// candidateFloor is the minimum similarity for a record to appear in
	// the match list at all.
	candidateFloor = 0.5

	// Escalation band: above immediateConfidence the fuzzy verdict stands
	// alone, above escalateConfidence the LLM gets a say.
	immediateConfidence = 90
	escalateConfidence  = 50

	fuzzyWeight = 0.6
	aiWeight    = 0.4

	maxMatches = 3
)

// Match is one existing record similar to the candidate.
type Match struct {
	Record         *prospect.ProspectRecord `json:"record"`
	Similarity     float64                  `json:"similarity"`
	MatchingFields []string                 `json:"matching_fields"`
}

// Verdict is the outcome of a duplicate check.
type Verdict struct {
	IsDuplicate bool    `json:"is_duplicate"`
	Confidence  int     `json:"confidence"`
	Method      string  `json:"method"`
	Matches     []Match `json:"matches,omitempty"`
	Reasoning   string  `json:"reasoning,omitempty"`
}

// DuplicateOracle is the LLM escalation hook.
type DuplicateOracle interface {
	DetectDuplicate(ctx context.Context, candidate *prospect.ProspectRecord, existing []*prospect.ProspectRecord) (*oracle.DuplicateResult, error)
}

// Config tunes the service.
type Config struct {
	Threshold float64
	Oracle    DuplicateOracle
}

// Service performs duplicate detection and list deduplication.
type Service struct {
	threshold float64
	oracle    DuplicateOracle
	log       *zap.Logger
}

// NewService creates a dedup service. Oracle may be nil; borderline cases
// then keep their fuzzy verdict.
func NewService(cfg Config) *Service {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Service{
		threshold: threshold,
		oracle:    cfg.Oracle,
		log:       zap.L().With(zap.String("component", "dedup")),
	}
}

// CheckForDuplicates compares the candidate against the pool. High-confidence
// fuzzy verdicts stand alone; the band between escalateConfidence and
// immediateConfidence is escalated to the oracle and the two opinions are
// combined. An oracle failure degrades to the fuzzy verdict, never blocks.
func (s *Service) CheckForDuplicates(ctx context.Context, candidate *prospect.ProspectRecord, pool []*prospect.ProspectRecord) *Verdict {
	if len(pool) == 0 {
		return &Verdict{Method: MethodNoExistingData}
	}

	fuzzy := s.fuzzyMatch(candidate, pool)
	if fuzzy.Confidence > immediateConfidence {
		return fuzzy
	}
	if fuzzy.Confidence <= escalateConfidence || s.oracle == nil {
		return fuzzy
	}

	existing := make([]*prospect.ProspectRecord, 0, len(fuzzy.Matches))
	for _, m := range fuzzy.Matches {
		existing = append(existing, m.Record)
	}
	aiResult, err := s.oracle.DetectDuplicate(ctx, candidate, existing)
	if err != nil {
		s.log.Warn("ai duplicate check failed, keeping fuzzy verdict",
			zap.String("company", candidate.CompanyName), zap.Error(err))
		return fuzzy
	}

	return combine(fuzzy, aiResult)
}

// FindSimilar returns pool records ranked by similarity to the candidate,
// dropping anything at or below 0.3.
func (s *Service) FindSimilar(candidate *prospect.ProspectRecord, pool []*prospect.ProspectRecord, limit int) []Match {
	if limit <= 0 {
		limit = 10
	}
	var matches []Match
	for _, existing := range pool {
		scores := similarity.Compare(candidate, existing)
		overall := similarity.Overall(candidate, existing)
		if overall > 0.3 {
			matches = append(matches, Match{
				Record:         existing,
				Similarity:     overall,
				MatchingFields: scores.MatchingFields(),
			})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Group is a set of mutual duplicates collapsed into one kept record.
type Group struct {
	Kept    *prospect.ProspectRecord   `json:"kept"`
	Members []*prospect.ProspectRecord `json:"members"`
}

// ListResult summarizes one list deduplication.
type ListResult struct {
	Unique            []*prospect.ProspectRecord `json:"unique"`
	Groups            []Group                    `json:"groups,omitempty"`
	OriginalCount     int                        `json:"original_count"`
	UniqueCount       int                        `json:"unique_count"`
	DuplicatesRemoved int                        `json:"duplicates_removed"`
}

// DeduplicateList collapses duplicates within one list. Each group of
// mutual duplicates is replaced by its best-scoring member.
func (s *Service) DeduplicateList(prospects []*prospect.ProspectRecord) *ListResult {
	var unique []*prospect.ProspectRecord
	var groups []Group
	absorbed := make(map[int]bool, len(prospects))

	for i, candidate := range prospects {
		if absorbed[i] {
			continue
		}

		group := []*prospect.ProspectRecord{candidate}
		for j := i + 1; j < len(prospects); j++ {
			if absorbed[j] {
				continue
			}
			if similarity.Overall(candidate, prospects[j]) > s.threshold {
				group = append(group, prospects[j])
				absorbed[j] = true
			}
		}

		kept := BestOf(group)
		unique = append(unique, kept)
		if len(group) > 1 {
			groups = append(groups, Group{Kept: kept, Members: group})
		}
	}

	return &ListResult{
		Unique:            unique,
		Groups:            groups,
		OriginalCount:     len(prospects),
		UniqueCount:       len(unique),
		DuplicatesRemoved: len(prospects) - len(unique),
	}
}

func (s *Service) fuzzyMatch(candidate *prospect.ProspectRecord, pool []*prospect.ProspectRecord) *Verdict {
	var matches []Match
	for _, existing := range pool {
		scores := similarity.Compare(candidate, existing)
		overall := similarity.Overall(candidate, existing)
		if overall > candidateFloor {
			matches = append(matches, Match{
				Record:         existing,
				Similarity:     overall,
				MatchingFields: scores.MatchingFields(),
			})
		}
	}

	if len(matches) == 0 {
		return &Verdict{Method: MethodFuzzy}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}

	best := matches[0].Similarity
	return &Verdict{
		IsDuplicate: best > s.threshold,
		Confidence:  int(best * 100),
		Method:      MethodFuzzy,
		Matches:     matches,
	}
}

func combine(fuzzy *Verdict, ai *oracle.DuplicateResult) *Verdict {
	combined := float64(fuzzy.Confidence)*fuzzyWeight + ai.Confidence*aiWeight

	isDuplicate := (fuzzy.IsDuplicate && fuzzy.Confidence > 80) ||
		(ai.IsDuplicate && ai.Confidence > 70) ||
		combined > 75

	return &Verdict{
		IsDuplicate: isDuplicate,
		Confidence:  int(combined),
		Method:      MethodCombined,
		Matches:     fuzzy.Matches,
		Reasoning:   ai.Reasoning,
	}
}
