package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextgencrm/prospector/internal/oracle"
	"github.com/nextgencrm/prospector/internal/prospect"
)

type fakeOracle struct {
	calls  int
	result *oracle.DuplicateResult
	err    error
}

func (f *fakeOracle) DetectDuplicate(context.Context, *prospect.ProspectRecord, []*prospect.ProspectRecord) (*oracle.DuplicateResult, error) {
	f.calls++
	return f.result, f.err
}

func record(name, email, ico string) *prospect.ProspectRecord {
	r := prospect.NewDraft(name, time.Now())
	r.Email = email
	r.ICO = ico
	return r
}

func TestCheckForDuplicatesEmptyPool(t *testing.T) {
	s := NewService(Config{})
	got := s.CheckForDuplicates(context.Background(), record("Firma", "", ""), nil)
	assert.Equal(t, MethodNoExistingData, got.Method)
	assert.False(t, got.IsDuplicate)
	assert.Zero(t, got.Confidence)
}

func TestCheckForDuplicatesExactMatch(t *testing.T) {
	fake := &fakeOracle{}
	s := NewService(Config{Oracle: fake})

	candidate := record("Kovovýroba Novák s.r.o.", "info@kovonovak.cz", "12345679")
	existing := record("Kovovýroba Novák", "info@kovonovak.cz", "12345679")

	got := s.CheckForDuplicates(context.Background(), candidate, []*prospect.ProspectRecord{existing})
	assert.True(t, got.IsDuplicate)
	assert.Equal(t, MethodFuzzy, got.Method)
	assert.Greater(t, got.Confidence, 90)
	require.NotEmpty(t, got.Matches)
	assert.Contains(t, got.Matches[0].MatchingFields, "ico")
	assert.Zero(t, fake.calls, "high-confidence verdict skips the oracle")
}

func TestCheckForDuplicatesUnrelated(t *testing.T) {
	s := NewService(Config{})

	candidate := record("Kovovýroba Novák", "info@kovonovak.cz", "")
	existing := record("Pekárna U Lípy", "pekarna@ulipy.cz", "")

	got := s.CheckForDuplicates(context.Background(), candidate, []*prospect.ProspectRecord{existing})
	assert.False(t, got.IsDuplicate)
	assert.Equal(t, MethodFuzzy, got.Method)
	assert.Empty(t, got.Matches)
}

func TestCheckForDuplicatesEscalatesBorderline(t *testing.T) {
	fake := &fakeOracle{result: &oracle.DuplicateResult{
		IsDuplicate: true,
		Confidence:  95,
		Reasoning:   "stejná firma, jiný zápis názvu",
	}}
	s := NewService(Config{Oracle: fake})

	// name containment floors the score into the escalation band
	candidate := record("Stavby Brno", "", "")
	existing := record("Stavby Brno Plus", "", "")

	got := s.CheckForDuplicates(context.Background(), candidate, []*prospect.ProspectRecord{existing})
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, MethodCombined, got.Method)
	assert.True(t, got.IsDuplicate, "confident oracle verdict flips the borderline case")
	assert.Equal(t, "stejná firma, jiný zápis názvu", got.Reasoning)
	assert.Equal(t, 86, got.Confidence)
}

func TestCheckForDuplicatesOracleFailureKeepsFuzzy(t *testing.T) {
	fake := &fakeOracle{err: eris.New("api down")}
	s := NewService(Config{Oracle: fake})

	candidate := record("Stavby Brno", "", "")
	existing := record("Stavby Brno Plus", "", "")

	got := s.CheckForDuplicates(context.Background(), candidate, []*prospect.ProspectRecord{existing})
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, MethodFuzzy, got.Method)
	assert.False(t, got.IsDuplicate)
	assert.Equal(t, 80, got.Confidence)
}

func TestCheckForDuplicatesWithoutOracle(t *testing.T) {
	s := NewService(Config{})

	candidate := record("Stavby Brno", "", "")
	existing := record("Stavby Brno Plus", "", "")

	got := s.CheckForDuplicates(context.Background(), candidate, []*prospect.ProspectRecord{existing})
	assert.Equal(t, MethodFuzzy, got.Method)
}

func TestDeduplicateList(t *testing.T) {
	s := NewService(Config{})

	a := record("Kovovýroba Novák s.r.o.", "info@kovonovak.cz", "12345679")
	b := record("Kovovýroba Novák", "jan.novak@kovonovak.cz", "12345679")
	b.Website = "https://kovonovak.cz"
	b.Description = "Zakázková kovovýroba a svařování pro průmyslové zákazníky."
	c := record("Pekárna U Lípy", "pekarna@ulipy.cz", "87654321")

	got := s.DeduplicateList([]*prospect.ProspectRecord{a, b, c})
	assert.Equal(t, 3, got.OriginalCount)
	assert.Equal(t, 2, got.UniqueCount)
	assert.Equal(t, 1, got.DuplicatesRemoved)
	require.Len(t, got.Groups, 1)
	assert.Len(t, got.Groups[0].Members, 2)

	names := make(map[string]bool)
	for _, r := range got.Unique {
		names[r.CompanyName] = true
	}
	assert.True(t, names["Kovovýroba Novák"], "more complete record survives")
	assert.True(t, names["Pekárna U Lípy"])
}

func TestDeduplicateListNoDuplicates(t *testing.T) {
	s := NewService(Config{})
	a := record("Alfa", "a@alfa.cz", "")
	b := record("Beta", "b@beta.cz", "")
	got := s.DeduplicateList([]*prospect.ProspectRecord{a, b})
	assert.Equal(t, 2, got.UniqueCount)
	assert.Zero(t, got.DuplicatesRemoved)
}

func TestFindSimilar(t *testing.T) {
	s := NewService(Config{})

	candidate := record("Kovovýroba Novák", "info@kovonovak.cz", "12345679")
	twin := record("Kovovýroba Novák s.r.o.", "info@kovonovak.cz", "12345679")
	near := record("Kovovýroba Nováková", "", "")
	far := record("Pekárna U Lípy", "pekarna@ulipy.cz", "")

	got := s.FindSimilar(candidate, []*prospect.ProspectRecord{far, near, twin}, 10)
	require.NotEmpty(t, got)
	assert.Equal(t, twin, got[0].Record, "results sorted by similarity")
	for _, m := range got {
		assert.NotEqual(t, far, m.Record)
	}
}

func TestFindSimilarLimit(t *testing.T) {
	s := NewService(Config{})
	candidate := record("Kovovýroba Novák", "", "")
	pool := []*prospect.ProspectRecord{
		record("Kovovýroba Novák", "", ""),
		record("Kovovýroba Novák", "", ""),
		record("Kovovýroba Novák", "", ""),
	}
	got := s.FindSimilar(candidate, pool, 2)
	assert.Len(t, got, 2)
}
