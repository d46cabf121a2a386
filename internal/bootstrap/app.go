package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fraud-digest-backend/internal/analyses"
	"fraud-digest-backend/internal/entities"
	"fraud-digest-backend/internal/fetch"
	"fraud-digest-backend/internal/intake"
	"fraud-digest-backend/internal/llm"
	"fraud-digest-backend/internal/llm/gemini"
	"fraud-digest-backend/internal/llm/openai"
	"fraud-digest-backend/internal/notify"
	"fraud-digest-backend/internal/pipeline"
	"fraud-digest-backend/internal/queue"
	"fraud-digest-backend/internal/secrets"
	"fraud-digest-backend/internal/shared/config"
	"fraud-digest-backend/internal/shared/server"
	"fraud-digest-backend/internal/shared/storage/db"
	"fraud-digest-backend/internal/shared/storage/object"
	localstore "fraud-digest-backend/internal/shared/storage/object/local"
	s3store "fraud-digest-backend/internal/shared/storage/object/s3"
	"fraud-digest-backend/internal/shared/telemetry"
	"fraud-digest-backend/internal/workerproc"
)

const (
	defaultOpenAIModel = "gpt-4o-mini"
	mongoConnectWait   = 10 * time.Second
	healthTimeout      = 2 * time.Second
)

// Secret names looked up through the configured resolver.
const (
	SecretOpenAIKey         = "OPENAI_API_KEY"
	SecretGeminiKey         = "GEMINI_API_KEY"
	SecretGmailClientID     = "GMAIL_CLIENT_ID"
	SecretGmailClientSecret = "GMAIL_CLIENT_SECRET"
	SecretGmailRefreshToken = "GMAIL_REFRESH_TOKEN"
)

// App holds shared dependencies for the API, worker and Lambda entrypoints.
type App struct {
	Config config.Config
	Router *gin.Engine

	DB    *sql.DB
	Mongo *mongo.Client

	Repo     analyses.Repo
	Queue    queue.Client
	Archive  object.ObjectStore
	Secrets  secrets.Resolver
	Notifier notify.Notifier
	Pipeline *pipeline.Service

	AnalysisHandler *analyses.Handler
	IntakeHandler   *intake.Handler
}

// Build prepares shared dependencies and the HTTP router.
func Build(cfg config.Config) (*App, error) {
	return BuildContext(context.Background(), cfg)
}

// BuildContext is Build with a caller-supplied context for connection setup.
func BuildContext(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	telemetry.Init(telemetry.Options{Level: cfg.LogLevel, File: cfg.LogFile})

	app := &App{Config: cfg}

	if err := buildRepo(ctx, app); err != nil {
		return nil, err
	}

	resolver, err := buildSecrets(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Secrets = resolver

	if app.Queue, err = buildQueue(ctx, cfg); err != nil {
		return nil, err
	}
	if app.Archive, err = buildArchive(ctx, cfg); err != nil {
		return nil, err
	}
	if app.Notifier, err = buildNotifier(ctx, cfg, resolver); err != nil {
		return nil, err
	}
	extractor, err := buildExtractor(cfg, resolver)
	if err != nil {
		return nil, err
	}

	app.Pipeline = &pipeline.Service{
		Repo:      app.Repo,
		Fetcher:   fetch.NewFetcher(nil, cfg.FetchTimeout),
		Extractor: extractor,
		Notifier:  app.Notifier,
		Archive:   app.Archive,
		Options: pipeline.Options{
			StoreTimeout:    cfg.StoreTimeout,
			NotifyTimeout:   cfg.NotifyTimeout,
			RetryFailedURLs: cfg.RetryFailedURLs,
		},
	}

	if mem, ok := app.Queue.(*queue.MemoryClient); ok {
		mem.Consume(context.WithoutCancel(ctx), localConsumer(app.Pipeline))
	}

	app.AnalysisHandler = analyses.NewHandler(app.Repo)
	app.IntakeHandler = intake.NewHandler(app.Queue)
	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		AnalysisHandler: app.AnalysisHandler,
		IntakeHandler:   app.IntakeHandler,
		Processor:       app.Pipeline,
		Health:          app.healthCheck,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":       cfg.Env,
		"store":     cfg.StoreBackend,
		"extractor": cfg.ExtractorBackend,
		"notifier":  cfg.Notifier,
		"archive":   cfg.ArchiveStore,
		"queue":     cfg.QueueURL != "",
	})
	return app, nil
}

// Close releases connections opened by Build. The Lambda-shared SQL pool is left open.
func (a *App) Close(ctx context.Context) {
	if mem, ok := a.Queue.(*queue.MemoryClient); ok {
		mem.Close()
	}
	if a.DB != nil && !db.IsLambdaRuntime() {
		_ = a.DB.Close()
	}
	if a.Mongo != nil {
		_ = a.Mongo.Disconnect(ctx)
	}
	telemetry.Sync()
}

// localConsumer runs in-process queue deliveries through the pipeline with the same ack rules
// as the SQS worker.
func localConsumer(proc workerproc.Processor) queue.Handler {
	return func(ctx context.Context, body string) error {
		err := workerproc.HandleMessage(ctx, proc, body)
		if workerproc.ShouldAck(err) {
			return nil
		}
		return err
	}
}

func (a *App) healthCheck(ctx context.Context) error {
	switch {
	case a.DB != nil:
		return db.Ping(ctx, a.DB, healthTimeout)
	case a.Mongo != nil:
		pingCtx, cancel := context.WithTimeout(ctx, healthTimeout)
		defer cancel()
		return a.Mongo.Ping(pingCtx, nil)
	default:
		return nil
	}
}

func buildRepo(ctx context.Context, app *App) error {
	cfg := app.Config
	switch cfg.StoreBackend {
	case "postgres":
		sqlDB, err := buildDB(ctx, cfg)
		if err != nil {
			if cfg.IsDevLike() {
				telemetry.Warn("bootstrap.db_fallback", map[string]any{"error": err.Error()})
				app.Repo = analyses.NewMemoryRepo()
				return nil
			}
			return err
		}
		app.DB = sqlDB
		app.Repo = &analyses.PGRepo{DB: sqlDB}
		return nil
	case "mongo":
		client, database, err := ConnectMongo(ctx, cfg)
		if err != nil {
			if cfg.IsDevLike() {
				telemetry.Warn("bootstrap.mongo_fallback", map[string]any{"error": err.Error()})
				app.Repo = analyses.NewMemoryRepo()
				return nil
			}
			return err
		}
		if err := analyses.EnsureMongoIndexes(ctx, database); err != nil {
			telemetry.Warn("bootstrap.mongo_indexes_failed", map[string]any{"error": err.Error()})
		}
		app.Mongo = client
		app.Repo = analyses.NewMongoRepo(database)
		return nil
	default:
		if !cfg.IsDevLike() {
			return fmt.Errorf("DATABASE_URL or MONGO_URI is required outside dev")
		}
		telemetry.Info("bootstrap.memory_store", nil)
		app.Repo = analyses.NewMemoryRepo()
		return nil
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if db.IsLambdaRuntime() {
		return db.GetSingleton(ctx, cfg.DatabaseURL, db.PoolOptions(db.ProfileLambda, cfg.DBMaxOpenConns))
	}
	return db.Connect(ctx, cfg.DatabaseURL, db.PoolOptions(db.ProfileService, cfg.DBMaxOpenConns))
}

// ConnectMongo connects and pings the configured MongoDB deployment.
func ConnectMongo(ctx context.Context, cfg config.Config) (*mongo.Client, *mongo.Database, error) {
	if cfg.MongoURI == "" {
		return nil, nil, errors.New("MONGO_URI is required")
	}
	connectCtx, cancel := context.WithTimeout(ctx, mongoConnectWait)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, client.Database(cfg.MongoDatabase), nil
}

// BuildExtractor wires only the configured Entity Extractor and its secrets.
func BuildExtractor(ctx context.Context, cfg config.Config) (*entities.Extractor, error) {
	resolver, err := buildSecrets(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return buildExtractor(cfg, resolver)
}

func buildSecrets(ctx context.Context, cfg config.Config) (secrets.Resolver, error) {
	if cfg.SecretsBackend == "aws" {
		r, err := secrets.NewAWSResolver(ctx, cfg.AWSRegion, cfg.SecretsPrefix)
		if err != nil {
			return nil, err
		}
		return secrets.NewCache(r), nil
	}
	return secrets.NewCache(secrets.EnvResolver{Prefix: cfg.SecretsPrefix}), nil
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if cfg.QueueURL != "" {
		return queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.QueueURL)
	}
	if cfg.IsDevLike() {
		return &queue.MemoryClient{}, nil
	}
	// Submissions are refused until a queue is configured.
	return nil, nil
}

func buildArchive(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ArchiveStore {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, errors.New("ARCHIVE_STORE=s3 requires S3_BUCKET")
		}
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "local":
		return localstore.New(cfg.LocalStoreDir), nil
	default:
		return nil, nil
	}
}

func buildNotifier(ctx context.Context, cfg config.Config, resolver secrets.Resolver) (notify.Notifier, error) {
	if cfg.Notifier != "gmail" {
		return notify.LogNotifier{}, nil
	}
	var gc notify.GmailConfig
	for _, s := range []struct {
		id  string
		dst *string
	}{
		{SecretGmailClientID, &gc.ClientID},
		{SecretGmailClientSecret, &gc.ClientSecret},
		{SecretGmailRefreshToken, &gc.RefreshToken},
	} {
		v, err := resolver.GetSecret(ctx, s.id)
		if err != nil {
			return nil, fmt.Errorf("gmail notifier: %s: %w", s.id, err)
		}
		*s.dst = v
	}
	gc.Sender = cfg.GmailSender
	return notify.NewGmailNotifier(ctx, gc)
}

func buildExtractor(cfg config.Config, resolver secrets.Resolver) (*entities.Extractor, error) {
	if cfg.ExtractorBackend == "nlp" {
		backend, err := entities.NewNLPBackend(cfg.NLPEndpoint, cfg.LLMTimeout)
		if err != nil {
			return nil, err
		}
		return entities.NewExtractor(backend, cfg.ExtractMaxChars), nil
	}

	provider := cfg.LLMProvider
	backend := entities.NewLazyBackend(provider, func(ctx context.Context) (entities.Backend, error) {
		completer, err := buildCompleter(ctx, cfg, resolver)
		if err != nil {
			return nil, err
		}
		return entities.NewLLMBackend(provider, llm.WithRetry(completer)), nil
	})
	return entities.NewExtractor(backend, cfg.ExtractMaxChars), nil
}

func buildCompleter(ctx context.Context, cfg config.Config, resolver secrets.Resolver) (llm.Completer, error) {
	switch cfg.LLMProvider {
	case "gemini":
		key, err := secrets.Optional(ctx, resolver, SecretGeminiKey)
		if err != nil {
			return nil, err
		}
		if key == "" && cfg.IsDevLike() {
			return llm.PlaceholderClient{}, nil
		}
		return gemini.NewClient(key, cfg.LLMModel, cfg.LLMTimeout)
	default:
		key, err := secrets.Optional(ctx, resolver, SecretOpenAIKey)
		if err != nil {
			return nil, err
		}
		if key == "" && cfg.IsDevLike() {
			return llm.PlaceholderClient{}, nil
		}
		model := cfg.LLMModel
		if model == "" {
			model = defaultOpenAIModel
		}
		return openai.NewPromptClient(openai.Options{
			APIKey:  key,
			Model:   model,
			Timeout: cfg.LLMTimeout,
		})
	}
}
