package analyses

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoSaveInsertsRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	rec := Record{
		ID:             "rec-1",
		URL:            "https://news.example/a",
		RequesterEmail: "alice@example.com",
		Status:         StatusSuccess,
		Entities:       []Entity{{Text: "Acme Corp", Label: "ORG"}},
		RequestID:      "req-1",
		CreatedAt:      time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO analysis_records").
		WithArgs(
			rec.ID,
			rec.URL,
			rec.RequesterEmail,
			"SUCCESS",
			`[{"text":"Acme Corp","label":"ORG"}]`,
			"",
			"req-1",
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := repo.Save(context.Background(), rec)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id != rec.ID {
		t.Fatalf("expected id %s, got %s", rec.ID, id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoSaveFailureStoresEmptyEntities(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("INSERT INTO analysis_records").
		WithArgs("rec-2", "https://x", "bob@example.com", "FAILURE", "[]", "fetch: status 404", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	_, err = repo.Save(context.Background(), Record{
		ID:             "rec-2",
		URL:            "https://x",
		RequesterEmail: "bob@example.com",
		Status:         StatusFailure,
		ErrorMessage:   "fetch: status 404",
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoFindByURL(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	created := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	rows := sqlmock.NewRows(recordColumns).
		AddRow("rec-1", "https://news.example/a", "alice@example.com", "SUCCESS", []byte(`[{"text":"Acme Corp","label":"ORG"}]`), "", "req-1", created)
	mock.ExpectQuery(`SELECT (.+) FROM analysis_records WHERE url = \$1 ORDER BY CASE WHEN status = 'SUCCESS'`).
		WithArgs("https://news.example/a").
		WillReturnRows(rows)

	repo := &PGRepo{DB: db}
	got, err := repo.FindByURL(context.Background(), "https://news.example/a")
	if err != nil {
		t.Fatalf("FindByURL: %v", err)
	}
	if got.Status != StatusSuccess || got.RequestID != "req-1" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected record: %+v", got)
	}
	if len(got.Entities) != 1 || got.Entities[0].Text != "Acme Corp" || got.Entities[0].Label != "ORG" {
		t.Fatalf("unexpected entities: %+v", got.Entities)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoFindByURLNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT (.+) FROM analysis_records").
		WithArgs("https://missing").
		WillReturnError(sql.ErrNoRows)

	repo := &PGRepo{DB: db}
	if _, err := repo.FindByURL(context.Background(), "https://missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
