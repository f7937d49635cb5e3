// Package store persists prospect records and caches adapter responses.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nextgencrm/prospector/internal/prospect"
)

// Cache kinds. Each kind has its own TTL policy set by the caller.
const (
	CacheRegistry = "registry"
	CacheWebsite  = "website"
	CacheGeocode  = "geocode"
	CacheSearch   = "search"
)

// ProspectFilter specifies criteria for listing prospects.
type ProspectFilter struct {
	Status      string `json:"status,omitempty"`
	CampaignTag string `json:"campaign_tag,omitempty"`
	Limit       int    `json:"limit,omitempty"`
	Offset      int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the enrichment pipeline.
type Store interface {
	// Prospects
	SaveProspect(ctx context.Context, rec *prospect.ProspectRecord) error
	GetProspect(ctx context.Context, id string) (*prospect.ProspectRecord, error)
	ListProspects(ctx context.Context, filter ProspectFilter) ([]prospect.ProspectRecord, error)
	DeleteProspect(ctx context.Context, id string) error

	// CandidatePool returns non-deleted records for deduplication checks.
	CandidatePool(ctx context.Context, limit int) ([]prospect.ProspectRecord, error)

	// PendingFollowups returns validated records due for their next touch.
	PendingFollowups(ctx context.Context, now time.Time) ([]prospect.ProspectRecord, error)

	// Adapter response cache (read-through, advisory)
	GetCached(ctx context.Context, kind, key string) ([]byte, error)
	SetCached(ctx context.Context, kind, key string, data []byte, ttl time.Duration) error
	DeleteExpired(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// followupStatuses are the outreach states eligible for a scheduled touch.
var followupStatuses = []string{
	prospect.StatusSent,
	prospect.StatusFollowUp1,
	prospect.StatusFollowUp2,
}

// Pool is the subset of pgxpool.Pool the Postgres store uses; pgxmock
// satisfies it for tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}
