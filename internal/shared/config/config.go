package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Env             string
	Port            string
	CORSAllowOrigin []string
	LogLevel        string
	LogFile         string

	DatabaseURL    string
	DBMaxOpenConns int
	StoreBackend   string
	MongoURI       string
	MongoDatabase  string
	StoreTimeout   time.Duration

	QueueURL          string
	AWSRegion         string
	VisibilitySeconds int
	WorkerConcurrency int
	ShutdownTimeout   time.Duration

	FetchTimeout     time.Duration
	ExtractMaxChars  int
	ExtractorBackend string
	LLMProvider      string
	LLMModel         string
	LLMTimeout       time.Duration
	NLPEndpoint      string

	Notifier      string
	GmailSender   string
	NotifyTimeout time.Duration

	SecretsBackend string
	SecretsPrefix  string

	ArchiveStore  string
	LocalStoreDir string
	S3Bucket      string
	S3Prefix      string

	RetryFailedURLs     bool
	SubmitRatePerMinute int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	if files := existing(".env", "cmd/.env"); len(files) > 0 {
		_ = godotenv.Load(files...)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		Env:             normalizeEnv(v.GetString("ENV")),
		Port:            v.GetString("PORT"),
		CORSAllowOrigin: splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFile:         v.GetString("LOG_FILE"),

		DatabaseURL:    strings.TrimSpace(v.GetString("DATABASE_URL")),
		DBMaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MongoURI:       strings.TrimSpace(v.GetString("MONGO_URI")),
		MongoDatabase:  v.GetString("MONGO_DATABASE"),
		StoreTimeout:   seconds(v, "STORE_TIMEOUT_SECONDS"),

		QueueURL:          strings.TrimSpace(v.GetString("FD_SQS_QUEUE_URL")),
		AWSRegion:         v.GetString("AWS_REGION"),
		VisibilitySeconds: v.GetInt("FD_SQS_VISIBILITY_TIMEOUT_SECONDS"),
		WorkerConcurrency: v.GetInt("FD_WORKER_CONCURRENCY"),
		ShutdownTimeout:   seconds(v, "FD_SHUTDOWN_TIMEOUT_SECONDS"),

		FetchTimeout:     seconds(v, "FETCH_TIMEOUT_SECONDS"),
		ExtractMaxChars:  v.GetInt("EXTRACT_MAX_CHARS"),
		ExtractorBackend: normalizeChoice(v.GetString("EXTRACTOR_BACKEND"), "llm", "llm", "nlp"),
		LLMProvider:      normalizeChoice(v.GetString("LLM_PROVIDER"), "openai", "openai", "gemini"),
		LLMModel:         strings.TrimSpace(v.GetString("LLM_MODEL")),
		LLMTimeout:       seconds(v, "LLM_TIMEOUT_SECONDS"),
		NLPEndpoint:      strings.TrimSpace(v.GetString("NLP_ENDPOINT")),

		Notifier:      normalizeChoice(v.GetString("NOTIFIER"), "log", "log", "gmail"),
		GmailSender:   strings.TrimSpace(v.GetString("GMAIL_SENDER")),
		NotifyTimeout: seconds(v, "NOTIFY_TIMEOUT_SECONDS"),

		SecretsBackend: normalizeChoice(v.GetString("SECRETS_BACKEND"), "env", "env", "aws"),
		SecretsPrefix:  v.GetString("SECRETS_PREFIX"),

		ArchiveStore:  normalizeChoice(v.GetString("ARCHIVE_STORE"), "none", "none", "local", "s3"),
		LocalStoreDir: v.GetString("LOCAL_STORE_DIR"),
		S3Bucket:      v.GetString("S3_BUCKET"),
		S3Prefix:      v.GetString("S3_PREFIX"),

		RetryFailedURLs:     v.GetBool("RETRY_FAILED_URLS"),
		SubmitRatePerMinute: v.GetInt("SUBMIT_RATE_PER_MINUTE"),
	}
	cfg.StoreBackend = resolveStoreBackend(v.GetString("STORE_BACKEND"), cfg)
	return cfg
}

// IsDevLike reports whether the environment tolerates in-memory fallbacks.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:8501")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MONGO_DATABASE", "fraud_digest")
	v.SetDefault("STORE_TIMEOUT_SECONDS", 10)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("FD_SQS_VISIBILITY_TIMEOUT_SECONDS", 300)
	v.SetDefault("FD_WORKER_CONCURRENCY", 4)
	v.SetDefault("FD_SHUTDOWN_TIMEOUT_SECONDS", 30)
	v.SetDefault("FETCH_TIMEOUT_SECONDS", 15)
	v.SetDefault("EXTRACT_MAX_CHARS", 15000)
	v.SetDefault("EXTRACTOR_BACKEND", "llm")
	v.SetDefault("LLM_PROVIDER", "openai")
	v.SetDefault("LLM_TIMEOUT_SECONDS", 60)
	v.SetDefault("NOTIFIER", "log")
	v.SetDefault("NOTIFY_TIMEOUT_SECONDS", 30)
	v.SetDefault("SECRETS_BACKEND", "env")
	v.SetDefault("ARCHIVE_STORE", "none")
	v.SetDefault("LOCAL_STORE_DIR", "./data")
	v.SetDefault("RETRY_FAILED_URLS", false)
	v.SetDefault("SUBMIT_RATE_PER_MINUTE", 10)
}

func seconds(v *viper.Viper, key string) time.Duration {
	n := v.GetInt(key)
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func existing(paths ...string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if fileExists(p) {
			out = append(out, p)
		}
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func resolveStoreBackend(raw string, cfg Config) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	case "mongo", "mongodb":
		return "mongo"
	case "memory":
		return "memory"
	}
	if cfg.DatabaseURL != "" {
		return "postgres"
	}
	if cfg.MongoURI != "" {
		return "mongo"
	}
	return "memory"
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeChoice(raw, def string, allowed ...string) string {
	val := strings.ToLower(strings.TrimSpace(raw))
	for _, a := range allowed {
		if val == a {
			return val
		}
	}
	return def
}
