package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

const recordsTable = "analysis_records"

var (
	psql          = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	recordColumns = []string{"id", "url", "requester_email", "status", "entities", "error_message", "request_id", "created_at"}
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// FindByURL returns the preferred record for url.
func (r *PGRepo) FindByURL(ctx context.Context, url string) (Record, error) {
	query, args, err := psql.Select(recordColumns...).
		From(recordsTable).
		Where(sq.Eq{"url": url}).
		OrderBy("CASE WHEN status = 'SUCCESS' THEN 0 ELSE 1 END", "created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return Record{}, fmt.Errorf("build find query: %w", err)
	}

	var (
		rec      Record
		status   string
		entities []byte
	)
	err = r.DB.QueryRowContext(ctx, query, args...).Scan(
		&rec.ID,
		&rec.URL,
		&rec.RequesterEmail,
		&status,
		&entities,
		&rec.ErrorMessage,
		&rec.RequestID,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	rec.Status = Status(status)
	rec.Entities = []Entity{}
	if len(entities) > 0 {
		if err := json.Unmarshal(entities, &rec.Entities); err != nil {
			return Record{}, fmt.Errorf("decode entities id=%s: %w", rec.ID, err)
		}
	}
	return rec, nil
}

// Save inserts a new record. Existing rows are never updated.
func (r *PGRepo) Save(ctx context.Context, record Record) (string, error) {
	if err := validate(record); err != nil {
		return "", err
	}
	entities := record.Entities
	if entities == nil {
		entities = []Entity{}
	}
	payload, err := json.Marshal(entities)
	if err != nil {
		return "", fmt.Errorf("encode entities: %w", err)
	}

	query, args, err := psql.Insert(recordsTable).
		Columns(recordColumns...).
		Values(
			record.ID,
			record.URL,
			record.RequesterEmail,
			string(record.Status),
			string(payload),
			record.ErrorMessage,
			record.RequestID,
			record.CreatedAt,
		).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		return "", err
	}
	return record.ID, nil
}

var _ Repo = (*PGRepo)(nil)
