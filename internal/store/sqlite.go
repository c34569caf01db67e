package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a submission does not exist.
var ErrNotFound = eris.New("store: not found")

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
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS submissions (
	id                      TEXT PRIMARY KEY,
	title                   TEXT NOT NULL,
	external_reference_code TEXT NOT NULL,
	content_id              INTEGER NOT NULL DEFAULT 0,
	status                  TEXT NOT NULL,
	error                   TEXT NOT NULL DEFAULT '',
	location_success        INTEGER NOT NULL DEFAULT 0,
	taxonomy_ids            TEXT NOT NULL DEFAULT '[]',
	created_at              DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(status);
CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at);
`

// Migrate creates the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordSubmission inserts sub, assigning its ID and CreatedAt when unset.
func (s *SQLiteStore) RecordSubmission(ctx context.Context, sub *Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	if sub.TaxonomyIDs == nil {
		sub.TaxonomyIDs = []int64{}
	}

	idsJSON, err := json.Marshal(sub.TaxonomyIDs)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal taxonomy ids")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, title, external_reference_code, content_id, status, error, location_success, taxonomy_ids, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.Title, sub.ExternalReferenceCode, sub.ContentID, string(sub.Status),
		sub.Error, sub.LocationSuccess, string(idsJSON), sub.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert submission %s", sub.ID)
}

// GetSubmission returns the submission with the given id.
func (s *SQLiteStore) GetSubmission(ctx context.Context, id string) (*Submission, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = ?`, id,
	)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: submission %s", id)
	}
	return sub, err
}

// ListSubmissions returns submissions, newest first.
func (s *SQLiteStore) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Title != "" {
		query += ` AND title = ?`
		args = append(args, filter.Title)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list submissions")
	}
	defer rows.Close() //nolint:errcheck

	subs := []Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, eris.Wrap(rows.Err(), "sqlite: list submissions iterate")
}

// helpers

const submissionColumns = `id, title, external_reference_code, content_id, status, error, location_success, taxonomy_ids, created_at`

type scannable interface {
	Scan(dest ...any) error
}

func scanSubmission(row scannable) (*Submission, error) {
	var sub Submission
	var idsJSON string

	err := row.Scan(&sub.ID, &sub.Title, &sub.ExternalReferenceCode, &sub.ContentID,
		&sub.Status, &sub.Error, &sub.LocationSuccess, &idsJSON, &sub.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan submission")
	}
	if err := json.Unmarshal([]byte(idsJSON), &sub.TaxonomyIDs); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal taxonomy ids")
	}
	return &sub, nil
}
