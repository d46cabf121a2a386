package analyses

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepoRoundTrip(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	rec := Record{
		ID:             "rec-1",
		URL:            "https://news.example/a",
		RequesterEmail: "alice@example.com",
		Status:         StatusSuccess,
		Entities:       []Entity{{Text: "Acme Corp", Label: "ORG"}},
		CreatedAt:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	id, err := repo.Save(ctx, rec)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id != "rec-1" {
		t.Fatalf("expected id rec-1, got %q", id)
	}

	got, err := repo.FindByURL(ctx, rec.URL)
	if err != nil {
		t.Fatalf("FindByURL: %v", err)
	}
	if got.Status != StatusSuccess || len(got.Entities) != 1 || got.Entities[0] != (Entity{Text: "Acme Corp", Label: "ORG"}) {
		t.Fatalf("unexpected record: %+v", got)
	}

	// mutations on the returned copy do not leak back
	got.Entities[0].Text = "changed"
	again, _ := repo.FindByURL(ctx, rec.URL)
	if again.Entities[0].Text != "Acme Corp" {
		t.Fatalf("stored record was mutated: %+v", again)
	}
}

func TestMemoryRepoNotFound(t *testing.T) {
	repo := NewMemoryRepo()
	if _, err := repo.FindByURL(context.Background(), "https://missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepoPrefersSuccessThenNewest(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	url := "https://news.example/b"

	save := func(id string, status Status, at time.Time) {
		t.Helper()
		if _, err := repo.Save(ctx, Record{ID: id, URL: url, RequesterEmail: "a@b.c", Status: status, CreatedAt: at}); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}
	save("f1", StatusFailure, base)
	save("f2", StatusFailure, base.Add(time.Minute))

	got, _ := repo.FindByURL(ctx, url)
	if got.ID != "f2" {
		t.Fatalf("expected newest failure f2, got %s", got.ID)
	}

	save("s1", StatusSuccess, base.Add(2*time.Minute))
	save("f3", StatusFailure, base.Add(3*time.Minute))

	got, _ = repo.FindByURL(ctx, url)
	if got.ID != "s1" {
		t.Fatalf("expected success s1, got %s", got.ID)
	}
	if n := repo.Count(url, StatusFailure); n != 3 {
		t.Fatalf("expected 3 failure records, got %d", n)
	}
}

func TestMemoryRepoRejectsInvalid(t *testing.T) {
	repo := NewMemoryRepo()
	_, err := repo.Save(context.Background(), Record{ID: "x", URL: "u", RequesterEmail: "e", Status: "PENDING"})
	if !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}
