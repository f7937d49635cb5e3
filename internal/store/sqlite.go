package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/nextgencrm/prospector/internal/prospect"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS prospects (
	id                 TEXT PRIMARY KEY,
	company_name       TEXT NOT NULL,
	email              TEXT,
	ico                TEXT,
	website            TEXT,
	status             TEXT NOT NULL DEFAULT 'new',
	sequence_position  INTEGER NOT NULL DEFAULT 0,
	next_followup_date DATETIME,
	validated          INTEGER NOT NULL DEFAULT 0,
	quality_score      INTEGER,
	campaign_tag       TEXT,
	deleted            INTEGER NOT NULL DEFAULT 0,
	data               TEXT NOT NULL,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS api_cache (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	cache_key  TEXT NOT NULL,
	data       TEXT NOT NULL,
	cached_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL,
	UNIQUE (kind, cache_key)
);

CREATE INDEX IF NOT EXISTS idx_prospects_status ON prospects(status);
CREATE INDEX IF NOT EXISTS idx_prospects_ico ON prospects(ico);
CREATE INDEX IF NOT EXISTS idx_prospects_followup ON prospects(next_followup_date);
CREATE INDEX IF NOT EXISTS idx_prospects_campaign ON prospects(campaign_tag);
CREATE INDEX IF NOT EXISTS idx_api_cache_expires_at ON api_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveProspect(ctx context.Context, rec *prospect.ProspectRecord) error {
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
		return eris.Wrap(err, "sqlite: marshal prospect")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO prospects (
			id, company_name, email, ico, website, status, sequence_position,
			next_followup_date, validated, quality_score, campaign_tag, deleted,
			data, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			company_name = excluded.company_name,
			email = excluded.email,
			ico = excluded.ico,
			website = excluded.website,
			status = excluded.status,
			sequence_position = excluded.sequence_position,
			next_followup_date = excluded.next_followup_date,
			validated = excluded.validated,
			quality_score = excluded.quality_score,
			campaign_tag = excluded.campaign_tag,
			deleted = excluded.deleted,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		rec.ID, rec.CompanyName, rec.Email, rec.ICO, rec.Website, rec.Status,
		rec.SequencePosition, rec.NextFollowupDate, boolToInt(rec.Validated),
		rec.QualityScore, rec.CampaignTag, boolToInt(rec.Deleted),
		string(data), rec.CreatedAt, rec.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: save prospect %s", rec.ID)
}

func (s *SQLiteStore) GetProspect(ctx context.Context, id string) (*prospect.ProspectRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM prospects WHERE id = ? AND deleted = 0`, id,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: prospect %s not found", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get prospect %s", id)
	}
	return unmarshalProspect(data)
}

func (s *SQLiteStore) ListProspects(ctx context.Context, filter ProspectFilter) ([]prospect.ProspectRecord, error) {
	query := `SELECT data FROM prospects WHERE deleted = 0`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.CampaignTag != "" {
		query += ` AND campaign_tag = ?`
		args = append(args, filter.CampaignTag)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	return s.queryProspects(ctx, query, args...)
}

func (s *SQLiteStore) DeleteProspect(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE prospects SET deleted = 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete prospect %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: prospect %s not found", id)
	}
	return nil
}

func (s *SQLiteStore) CandidatePool(ctx context.Context, limit int) ([]prospect.ProspectRecord, error) {
	if limit <= 0 {
		limit = 500
	}
	return s.queryProspects(ctx,
		`SELECT data FROM prospects WHERE deleted = 0 ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
}

func (s *SQLiteStore) PendingFollowups(ctx context.Context, now time.Time) ([]prospect.ProspectRecord, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(followupStatuses)), ", ")
	query := fmt.Sprintf(`
		SELECT data FROM prospects
		WHERE deleted = 0
		  AND validated = 1
		  AND next_followup_date IS NOT NULL
		  AND next_followup_date <= ?
		  AND status IN (%s)
		ORDER BY next_followup_date ASC`, placeholders)

	args := make([]any, 0, len(followupStatuses)+1)
	args = append(args, now.UTC())
	for _, st := range followupStatuses {
		args = append(args, st)
	}
	return s.queryProspects(ctx, query, args...)
}

func (s *SQLiteStore) GetCached(ctx context.Context, kind, key string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM api_cache
		WHERE kind = ? AND cache_key = ? AND expires_at > ?
		ORDER BY cached_at DESC LIMIT 1`,
		kind, key, time.Now().UTC(),
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get cached %s", kind)
	}
	return []byte(data), nil
}

func (s *SQLiteStore) SetCached(ctx context.Context, kind, key string, data []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO api_cache (id, kind, cache_key, data, cached_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (kind, cache_key) DO UPDATE SET
			data = excluded.data,
			cached_at = excluded.cached_at,
			expires_at = excluded.expires_at`,
		uuid.NewString(), kind, key, string(data), now, now.Add(ttl),
	)
	return eris.Wrapf(err, "sqlite: set cached %s", kind)
}

func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM api_cache WHERE expires_at <= ?`, time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return int(n), nil
}

func (s *SQLiteStore) queryProspects(ctx context.Context, query string, args ...any) ([]prospect.ProspectRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query prospects")
	}
	defer rows.Close() //nolint:errcheck

	var out []prospect.ProspectRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan prospect")
		}
		rec, err := unmarshalProspect(data)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate prospects")
}

func unmarshalProspect(data string) (*prospect.ProspectRecord, error) {
	var rec prospect.ProspectRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal prospect")
	}
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
