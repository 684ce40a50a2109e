package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/shiplog-io/shiplog/internal/apperr"
)

// Schema is the single-table layout for published changelogs. The equality
// filter on (repo, branch) is the only index overlap detection needs.
const Schema = `
CREATE TABLE IF NOT EXISTS releases (
	id           UUID PRIMARY KEY,
	repo         TEXT NOT NULL,
	branch       TEXT NOT NULL,
	mode         TEXT NOT NULL CHECK (mode IN ('date', 'sha', 'tag')),
	start_date   TEXT NOT NULL DEFAULT '',
	end_date     TEXT NOT NULL DEFAULT '',
	base_sha     TEXT NOT NULL,
	head_sha     TEXT NOT NULL,
	base_tag     TEXT NOT NULL DEFAULT '',
	head_tag     TEXT NOT NULL DEFAULT '',
	markdown     TEXT NOT NULL,
	commit_shas  TEXT[] NOT NULL,
	published_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS releases_scope_idx ON releases (repo, branch);
`

// PostgresStore persists release records in a single Postgres table.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to the database and ensures the schema exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Storage, "opening database")
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, apperr.Wrap(err, apperr.Storage, "connecting to database")
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return nil, apperr.Wrap(err, apperr.Storage, "ensuring schema")
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStore wraps an existing connection without touching the schema.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

const selectColumns = `id, repo, branch, mode, start_date, end_date,
	base_sha, head_sha, base_tag, head_tag, markdown, commit_shas, published_at`

// ListByRepo returns records for the repo (and branch, when non-empty),
// newest first.
func (s *PostgresStore) ListByRepo(ctx context.Context, repo, branch string) ([]ReleaseRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM releases WHERE repo = $1`
	args := []any{repo}
	if branch != "" {
		query += ` AND branch = $2`
		args = append(args, branch)
	}
	query += ` ORDER BY published_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Storage, "listing releases")
	}
	defer rows.Close()

	var out []ReleaseRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(err, apperr.Storage, "reading releases")
	}
	return out, nil
}

// Insert assigns an ID and timestamp and persists the record in one statement.
func (s *PostgresStore) Insert(ctx context.Context, rec ReleaseRecord) (ReleaseRecord, error) {
	if len(rec.CommitSHAs) == 0 {
		return ReleaseRecord{}, apperr.New(apperr.Validation,
			"refusing to persist a release with no commit SHAs").WithScope(rec.Repo, rec.Branch)
	}

	rec.ID = uuid.NewString()
	rec.PublishedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO releases (id, repo, branch, mode, start_date, end_date,
			base_sha, head_sha, base_tag, head_tag, markdown, commit_shas, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		rec.ID, rec.Repo, rec.Branch, rec.Mode, rec.StartDate, rec.EndDate,
		rec.BaseSHA, rec.HeadSHA, rec.BaseTag, rec.HeadTag, rec.Markdown,
		pq.Array(rec.CommitSHAs), rec.PublishedAt)
	if err != nil {
		return ReleaseRecord{}, apperr.Wrap(err, apperr.Storage, "inserting release").WithScope(rec.Repo, rec.Branch)
	}
	return rec, nil
}

// UpdateMarkdown replaces the markdown body of the record with the given id.
func (s *PostgresStore) UpdateMarkdown(ctx context.Context, id, markdown string) (ReleaseRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE releases SET markdown = $2 WHERE id = $1
		RETURNING `+selectColumns, id, markdown)

	rec, err := scanRecord(row)
	if err != nil {
		if apperrNotFound(err) {
			return ReleaseRecord{}, apperr.New(apperr.NotFound, "release %s not found", id)
		}
		return ReleaseRecord{}, err
	}
	return rec, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (ReleaseRecord, error) {
	var rec ReleaseRecord
	err := row.Scan(
		&rec.ID, &rec.Repo, &rec.Branch, &rec.Mode, &rec.StartDate, &rec.EndDate,
		&rec.BaseSHA, &rec.HeadSHA, &rec.BaseTag, &rec.HeadTag, &rec.Markdown,
		pq.Array(&rec.CommitSHAs), &rec.PublishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ReleaseRecord{}, err
		}
		return ReleaseRecord{}, apperr.Wrap(err, apperr.Storage, "scanning release row")
	}
	return rec, nil
}

func apperrNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
