package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"vellum/internal/issuance/models"
	"vellum/pkg/platform/sentinel"
	"vellum/pkg/platform/tx"
)

// Schema creates the issuance tables. EnsureSchema applies it on startup;
// integration tests apply it against throwaway databases.
const Schema = `
CREATE TABLE IF NOT EXISTS issuance_records (
	issuance_id  TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	email        TEXT NOT NULL,
	program      TEXT NOT NULL,
	issued_at    TIMESTAMPTZ NOT NULL,
	artifact_url TEXT NOT NULL,
	content_type TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_issuance_records_issued_at ON issuance_records (issued_at DESC);
CREATE INDEX IF NOT EXISTS idx_issuance_records_email ON issuance_records (email);
`

// Postgres persists issuance records in PostgreSQL. Pure I/O: pipeline
// policy (what to do on a duplicate, when to notify) lives in the service.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the tables and indexes if they do not exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure issuance schema: %w", err)
	}
	return nil
}

// Save inserts a record. The primary key enforces issuance id uniqueness;
// a duplicate surfaces as sentinel.ErrConflict.
func (s *Postgres) Save(ctx context.Context, record *models.IssuanceRecord) error {
	if record == nil {
		return fmt.Errorf("issuance record is required")
	}

	query := `
		INSERT INTO issuance_records (issuance_id, name, email, program, issued_at, artifact_url, content_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, query,
		record.IssuanceID,
		record.Recipient.Name,
		record.Recipient.Email,
		record.Recipient.Program,
		record.IssuedAt,
		record.ArtifactURL,
		record.ContentType,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("issuance %s: %w", record.IssuanceID, sentinel.ErrConflict)
		}
		return fmt.Errorf("save issuance record: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, issuanceID string) (*models.IssuanceRecord, error) {
	query := `
		SELECT issuance_id, name, email, program, issued_at, artifact_url, content_type
		FROM issuance_records
		WHERE issuance_id = $1
	`
	record, err := scanRecord(tx.Q(ctx, s.db).QueryRowContext(ctx, query, issuanceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("issuance %s: %w", issuanceID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find issuance record: %w", err)
	}
	return record, nil
}

// List returns one page ordered newest first, plus the total count.
func (s *Postgres) List(ctx context.Context, limit, offset int) ([]*models.IssuanceRecord, int, error) {
	if offset < 0 {
		offset = 0
	}

	q := tx.Q(ctx, s.db)

	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM issuance_records`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count issuance records: %w", err)
	}
	if limit <= 0 {
		return []*models.IssuanceRecord{}, total, nil
	}

	query := `
		SELECT issuance_id, name, email, program, issued_at, artifact_url, content_type
		FROM issuance_records
		ORDER BY issued_at DESC, issuance_id
		LIMIT $1 OFFSET $2
	`
	rows, err := q.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list issuance records: %w", err)
	}
	defer rows.Close()

	records, err := collectRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Search matches the query case-insensitively against name, email, and
// program, newest first.
func (s *Postgres) Search(ctx context.Context, query string) ([]*models.IssuanceRecord, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"

	stmt := `
		SELECT issuance_id, name, email, program, issued_at, artifact_url, content_type
		FROM issuance_records
		WHERE name ILIKE $1 OR email ILIKE $1 OR program ILIKE $1
		ORDER BY issued_at DESC, issuance_id
	`
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx, stmt, pattern)
	if err != nil {
		return nil, fmt.Errorf("search issuance records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

func (s *Postgres) Stats(ctx context.Context) (models.IssuanceStats, error) {
	stats := models.IssuanceStats{ByProgram: make(map[string]int)}

	rows, err := tx.Q(ctx, s.db).QueryContext(ctx, `
		SELECT program, COUNT(*)
		FROM issuance_records
		GROUP BY program
	`)
	if err != nil {
		return models.IssuanceStats{}, fmt.Errorf("issuance stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var program string
		var count int
		if err := rows.Scan(&program, &count); err != nil {
			return models.IssuanceStats{}, fmt.Errorf("scan issuance stats: %w", err)
		}
		stats.ByProgram[program] = count
		stats.TotalCertificates += count
	}
	if err := rows.Err(); err != nil {
		return models.IssuanceStats{}, fmt.Errorf("issuance stats: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.IssuanceRecord, error) {
	var record models.IssuanceRecord
	err := row.Scan(
		&record.IssuanceID,
		&record.Recipient.Name,
		&record.Recipient.Email,
		&record.Recipient.Program,
		&record.IssuedAt,
		&record.ArtifactURL,
		&record.ContentType,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func collectRecords(rows *sql.Rows) ([]*models.IssuanceRecord, error) {
	records := []*models.IssuanceRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan issuance record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issuance records: %w", err)
	}
	return records, nil
}

// escapeLike neutralizes LIKE wildcards in user input so a search for
// "100%" does not match everything.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
