package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"fraud-digest-backend/internal/shared/config"
)

func TestLoadTextFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "article.txt")
	if err := os.WriteFile(path, []byte("Acme Corp was fined."), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	source, text, err := loadText(context.Background(), config.Config{}, "", path)
	if err != nil {
		t.Fatalf("loadText: %v", err)
	}
	if source != path || text != "Acme Corp was fined." {
		t.Fatalf("unexpected result: %q %q", source, text)
	}
}

func TestLoadTextFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<p>Regulators fined Acme.</p>`))
	}))
	defer srv.Close()

	_, text, err := loadText(context.Background(), config.Config{}, srv.URL, "")
	if err != nil {
		t.Fatalf("loadText: %v", err)
	}
	if text != "Regulators fined Acme." {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestLoadTextRequiresExactlyOneSource(t *testing.T) {
	if _, _, err := loadText(context.Background(), config.Config{}, "", ""); err == nil {
		t.Fatal("expected error without a source")
	}
	if _, _, err := loadText(context.Background(), config.Config{}, "https://a.example", "a.txt"); err == nil {
		t.Fatal("expected error with both sources")
	}
}
