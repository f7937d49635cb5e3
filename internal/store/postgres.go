package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/nextgencrm/prospector/internal/prospect"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS prospects (
	id                 TEXT PRIMARY KEY,
	company_name       TEXT NOT NULL,
	email              TEXT,
	ico                TEXT,
	website            TEXT,
	status             TEXT NOT NULL DEFAULT 'new',
	sequence_position  INTEGER NOT NULL DEFAULT 0,
	next_followup_date TIMESTAMPTZ,
	validated          BOOLEAN NOT NULL DEFAULT FALSE,
	quality_score      INTEGER,
	campaign_tag       TEXT,
	deleted            BOOLEAN NOT NULL DEFAULT FALSE,
	data               JSONB NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS api_cache (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	cache_key  TEXT NOT NULL,
	data       JSONB NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL,
	UNIQUE (kind, cache_key)
);

CREATE INDEX IF NOT EXISTS idx_prospects_status ON prospects(status);
CREATE INDEX IF NOT EXISTS idx_prospects_ico ON prospects(ico);
CREATE INDEX IF NOT EXISTS idx_prospects_followup ON prospects(next_followup_date);
CREATE INDEX IF NOT EXISTS idx_prospects_campaign ON prospects(campaign_tag);
CREATE INDEX IF NOT EXISTS idx_api_cache_expires_at ON api_cache(expires_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveProspect(ctx context.Context, rec *prospect.ProspectRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	data, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal prospect")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO prospects (
			id, company_name, email, ico, website, status, sequence_position,
			next_followup_date, validated, quality_score, campaign_tag, deleted,
			data, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			email = EXCLUDED.email,
			ico = EXCLUDED.ico,
			website = EXCLUDED.website,
			status = EXCLUDED.status,
			sequence_position = EXCLUDED.sequence_position,
			next_followup_date = EXCLUDED.next_followup_date,
			validated = EXCLUDED.validated,
			quality_score = EXCLUDED.quality_score,
			campaign_tag = EXCLUDED.campaign_tag,
			deleted = EXCLUDED.deleted,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`,
		rec.ID, rec.CompanyName, rec.Email, rec.ICO, rec.Website, rec.Status,
		rec.SequencePosition, rec.NextFollowupDate, rec.Validated,
		rec.QualityScore, rec.CampaignTag, rec.Deleted,
		data, rec.CreatedAt, rec.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: save prospect %s", rec.ID)
}

func (s *PostgresStore) GetProspect(ctx context.Context, id string) (*prospect.ProspectRecord, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM prospects WHERE id = $1 AND NOT deleted`, id,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: prospect %s not found", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get prospect %s", id)
	}
	return unmarshalProspect(string(data))
}

func (s *PostgresStore) ListProspects(ctx context.Context, filter ProspectFilter) ([]prospect.ProspectRecord, error) {
	query := `SELECT data FROM prospects WHERE NOT deleted`
	var args []any

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status = $1`
	}
	if filter.CampaignTag != "" {
		args = append(args, filter.CampaignTag)
		query += ` AND campaign_tag = $` + itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + itoa(len(args))
	args = append(args, filter.Offset)
	query += ` OFFSET $` + itoa(len(args))

	return s.queryProspects(ctx, query, args...)
}

func (s *PostgresStore) DeleteProspect(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE prospects SET deleted = TRUE, updated_at = now() WHERE id = $1`, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete prospect %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: prospect %s not found", id)
	}
	return nil
}

func (s *PostgresStore) CandidatePool(ctx context.Context, limit int) ([]prospect.ProspectRecord, error) {
	if limit <= 0 {
		limit = 500
	}
	return s.queryProspects(ctx,
		`SELECT data FROM prospects WHERE NOT deleted ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
}

func (s *PostgresStore) PendingFollowups(ctx context.Context, now time.Time) ([]prospect.ProspectRecord, error) {
	return s.queryProspects(ctx, `
		SELECT data FROM prospects
		WHERE NOT deleted
		  AND validated
		  AND next_followup_date IS NOT NULL
		  AND next_followup_date <= $1
		  AND status = ANY($2)
		ORDER BY next_followup_date ASC`,
		now.UTC(), followupStatuses,
	)
}

func (s *PostgresStore) GetCached(ctx context.Context, kind, key string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `
		SELECT data FROM api_cache
		WHERE kind = $1 AND cache_key = $2 AND expires_at > now()
		ORDER BY cached_at DESC LIMIT 1`,
		kind, key,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get cached %s", kind)
	}
	return data, nil
}

func (s *PostgresStore) SetCached(ctx context.Context, kind, key string, data []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO api_cache (id, kind, cache_key, data, cached_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (kind, cache_key) DO UPDATE SET
			data = EXCLUDED.data,
			cached_at = EXCLUDED.cached_at,
			expires_at = EXCLUDED.expires_at`,
		uuid.NewString(), kind, key, data, now, now.Add(ttl),
	)
	return eris.Wrapf(err, "postgres: set cached %s", kind)
}

func (s *PostgresStore) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM api_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) queryProspects(ctx context.Context, query string, args ...any) ([]prospect.ProspectRecord, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query prospects")
	}
	defer rows.Close()

	var out []prospect.ProspectRecord
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan prospect")
		}
		rec, err := unmarshalProspect(string(data))
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate prospects")
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
