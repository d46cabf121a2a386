package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MONGO_URI", "")
	t.Setenv("STORE_BACKEND", "")

	cfg := Load()

	if cfg.Env != "dev" {
		t.Fatalf("expected dev env, got %q", cfg.Env)
	}
	if cfg.FetchTimeout != 15*time.Second {
		t.Fatalf("expected 15s fetch timeout, got %s", cfg.FetchTimeout)
	}
	if cfg.ExtractMaxChars != 15000 {
		t.Fatalf("expected 15000 max chars, got %d", cfg.ExtractMaxChars)
	}
	if cfg.StoreBackend != "memory" {
		t.Fatalf("expected memory store, got %q", cfg.StoreBackend)
	}
	if cfg.Notifier != "log" {
		t.Fatalf("expected log notifier, got %q", cfg.Notifier)
	}
	if cfg.RetryFailedURLs {
		t.Fatalf("expected RetryFailedURLs=false by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("DATABASE_URL", "postgres://localhost/fd")
	t.Setenv("EXTRACTOR_BACKEND", "NLP")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("FETCH_TIMEOUT_SECONDS", "5")
	t.Setenv("RETRY_FAILED_URLS", "true")
	t.Setenv("DB_MAX_OPEN_CONNS", "4")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()

	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if cfg.StoreBackend != "postgres" {
		t.Fatalf("expected postgres store, got %q", cfg.StoreBackend)
	}
	if cfg.ExtractorBackend != "nlp" || cfg.LLMProvider != "gemini" {
		t.Fatalf("unexpected backend selection: %q %q", cfg.ExtractorBackend, cfg.LLMProvider)
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Fatalf("expected 5s, got %s", cfg.FetchTimeout)
	}
	if !cfg.RetryFailedURLs {
		t.Fatalf("expected RetryFailedURLs=true")
	}
	if cfg.DBMaxOpenConns != 4 {
		t.Fatalf("expected DBMaxOpenConns=4, got %d", cfg.DBMaxOpenConns)
	}
	if len(cfg.CORSAllowOrigin) != 2 || cfg.CORSAllowOrigin[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %#v", cfg.CORSAllowOrigin)
	}
}

func TestResolveStoreBackendExplicit(t *testing.T) {
	cfg := Config{DatabaseURL: "postgres://x"}
	if got := resolveStoreBackend("mongodb", cfg); got != "mongo" {
		t.Fatalf("expected mongo, got %q", got)
	}
	if got := resolveStoreBackend("", Config{MongoURI: "mongodb://x"}); got != "mongo" {
		t.Fatalf("expected mongo fallback, got %q", got)
	}
}
