package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextgencrm/prospector/internal/prospect"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteSaveAndGetProspect(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := prospect.NewDraft("Acme s.r.o.", time.Now())
	rec.Email = "info@acme.cz"
	rec.ICO = "12345679"
	score := 75
	rec.QualityScore = &score

	require.NoError(t, s.SaveProspect(ctx, rec))

	got, err := s.GetProspect(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme s.r.o.", got.CompanyName)
	assert.Equal(t, "info@acme.cz", got.Email)
	assert.Equal(t, "12345679", got.ICO)
	require.NotNil(t, got.QualityScore)
	assert.Equal(t, 75, *got.QualityScore)
}

func TestSQLiteSaveUpserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := prospect.NewDraft("Acme", time.Now())
	require.NoError(t, s.SaveProspect(ctx, rec))

	rec.Email = "new@acme.cz"
	rec.Status = prospect.StatusSent
	require.NoError(t, s.SaveProspect(ctx, rec))

	got, err := s.GetProspect(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@acme.cz", got.Email)
	assert.Equal(t, prospect.StatusSent, got.Status)

	all, err := s.ListProspects(ctx, ProspectFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteSoftDeleteExcludesFromPool(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	keep := prospect.NewDraft("Keep", time.Now())
	drop := prospect.NewDraft("Drop", time.Now())
	require.NoError(t, s.SaveProspect(ctx, keep))
	require.NoError(t, s.SaveProspect(ctx, drop))

	require.NoError(t, s.DeleteProspect(ctx, drop.ID))

	pool, err := s.CandidatePool(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, "Keep", pool[0].CompanyName)

	_, err = s.GetProspect(ctx, drop.ID)
	assert.Error(t, err)

	assert.Error(t, s.DeleteProspect(ctx, "missing-id"))
}

func TestSQLiteListFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := prospect.NewDraft("A", time.Now())
	a.Status = prospect.StatusSent
	a.CampaignTag = "brno-q1"
	b := prospect.NewDraft("B", time.Now())
	b.CampaignTag = "praha-q1"
	require.NoError(t, s.SaveProspect(ctx, a))
	require.NoError(t, s.SaveProspect(ctx, b))

	sent, err := s.ListProspects(ctx, ProspectFilter{Status: prospect.StatusSent})
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "A", sent[0].CompanyName)

	brno, err := s.ListProspects(ctx, ProspectFilter{CampaignTag: "brno-q1"})
	require.NoError(t, err)
	require.Len(t, brno, 1)
}

func TestSQLitePendingFollowups(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(48 * time.Hour)

	due := prospect.NewDraft("Due", now)
	due.Validated = true
	due.Status = prospect.StatusSent
	due.SequencePosition = 1
	due.NextFollowupDate = &past

	notYet := prospect.NewDraft("NotYet", now)
	notYet.Validated = true
	notYet.Status = prospect.StatusSent
	notYet.NextFollowupDate = &future

	unvalidated := prospect.NewDraft("Unvalidated", now)
	unvalidated.Status = prospect.StatusSent
	unvalidated.NextFollowupDate = &past

	exhausted := prospect.NewDraft("Exhausted", now)
	exhausted.Validated = true
	exhausted.Status = prospect.StatusFollowUp3
	exhausted.NextFollowupDate = &past

	for _, r := range []*prospect.ProspectRecord{due, notYet, unvalidated, exhausted} {
		require.NoError(t, s.SaveProspect(ctx, r))
	}

	got, err := s.PendingFollowups(ctx, now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Due", got[0].CompanyName)
}

func TestSQLiteCacheRoundTripAndExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetCached(ctx, CacheRegistry, "12345679", []byte(`{"name":"Acme"}`), time.Hour))

	got, err := s.GetCached(ctx, CacheRegistry, "12345679")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Acme"}`, string(got))

	// different kind, same key
	miss, err := s.GetCached(ctx, CacheWebsite, "12345679")
	require.NoError(t, err)
	assert.Nil(t, miss)

	// expired entries are invisible and then purged
	require.NoError(t, s.SetCached(ctx, CacheSearch, "stale", []byte(`[]`), -time.Minute))
	miss, err = s.GetCached(ctx, CacheSearch, "stale")
	require.NoError(t, err)
	assert.Nil(t, miss)

	n, err := s.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteCacheOverwrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetCached(ctx, CacheGeocode, "Brno", []byte(`{"lat":1}`), time.Hour))
	require.NoError(t, s.SetCached(ctx, CacheGeocode, "Brno", []byte(`{"lat":2}`), time.Hour))

	got, err := s.GetCached(ctx, CacheGeocode, "Brno")
	require.NoError(t, err)
	assert.JSONEq(t, `{"lat":2}`, string(got))
}
