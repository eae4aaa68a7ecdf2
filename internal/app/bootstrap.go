package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/nsqio/go-nsq"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"projecttutor/backend/features/document"
	"projecttutor/backend/internal/adapter/mongodb"
	wstore "projecttutor/backend/internal/adapter/weaviate"
	"projecttutor/backend/internal/config"
	"projecttutor/backend/internal/vector"
)

type Dependencies struct {
	DB          *sql.DB
	Documents   document.Repository
	VectorStore VectorStore
	NSQProducer *nsq.Producer

	mongo *mongo.Client
}

// Close releases the connections opened by Bootstrap.
func (d *Dependencies) Close(ctx context.Context) {
	if d.NSQProducer != nil {
		d.NSQProducer.Stop()
	}
	if d.mongo != nil {
		if err := d.mongo.Disconnect(ctx); err != nil {
			slog.Warn("failed to disconnect mongo", "error", err)
		}
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			slog.Warn("failed to close db", "error", err)
		}
	}
}

func Bootstrap(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	// Database
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPass, cfg.DBName)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second
	for i := 0; i < cfg.BootstrapRetryAttempts; i++ {
		if err := db.PingContext(ctx); err == nil {
			break
		}
		slog.Warn("failed to ping db, retrying...", "attempt", i+1)
		time.Sleep(retryDelay)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	// Migrations
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migration driver error: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationPath, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migration instance error: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		db.Close()
		return nil, fmt.Errorf("migration up error: %w", err)
	}

	deps := &Dependencies{DB: db}

	// Document store
	switch cfg.DocumentStore {
	case config.StoreMongo:
		client, err := mongodb.Connect(ctx, cfg.MongoURI)
		if err != nil {
			deps.Close(ctx)
			return nil, fmt.Errorf("mongo connect error: %w", err)
		}
		deps.mongo = client
		repo := mongodb.NewRepo(client.Database(cfg.MongoDBName))
		if err := repo.EnsureIndexes(ctx); err != nil {
			deps.Close(ctx)
			return nil, fmt.Errorf("mongo index error: %w", err)
		}
		deps.Documents = repo
	default:
		deps.Documents = document.NewPostgresRepo(db)
	}

	// Vector index
	switch cfg.VectorStore {
	case config.StoreMemory:
		slog.Warn("using in-memory vector index, records are lost on restart")
		deps.VectorStore = vector.NewMemoryIndex()
	default:
		wClient, err := weaviate.NewClient(weaviate.Config{Host: cfg.WeaviateHost, Scheme: cfg.WeaviateScheme})
		if err != nil {
			deps.Close(ctx)
			return nil, fmt.Errorf("weaviate client error: %w", err)
		}
		store := wstore.NewStore(wClient, cfg.VectorClassName)
		if err := EnsureSchemaWithRetry(ctx, store, cfg.BootstrapRetryAttempts, retryDelay); err != nil {
			deps.Close(ctx)
			return nil, fmt.Errorf("weaviate schema error: %w", err)
		}
		deps.VectorStore = store
	}

	// NSQ Producer
	producer, err := nsq.NewProducer(cfg.NSQDHost, nsq.NewConfig())
	if err != nil {
		deps.Close(ctx)
		return nil, fmt.Errorf("nsq producer error: %w", err)
	}
	deps.NSQProducer = producer

	createTopics(cfg.NSQDHTTP)

	return deps, nil
}

// createTopics creates the index topic up front so consumers querying
// nsqlookupd find it before the first publish.
func createTopics(nsqdHTTP string) {
	create := func(topic string) {
		url := fmt.Sprintf("http://%s/topic/create?topic=%s", nsqdHTTP, topic)
		resp, err := http.Post(url, "application/json", nil) // #nosec G107 -- URL is built from internal NSQ config, not user input
		if err != nil {
			slog.Warn("failed to create NSQ topic", "topic", topic, "error", err)
			return
		}
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("failed to close NSQ topic creation response body", "error", closeErr)
		}
	}

	go func() {
		time.Sleep(2 * time.Second)
		create(config.TopicDocumentIndex)
	}()
}

// EnsureSchemaWithRetry retries the schema check while the vector store
// starts up. A distance metric mismatch is returned at once.
func EnsureSchemaWithRetry(ctx context.Context, store SchemaEnsurer, attempts int, delay time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = store.EnsureSchema(ctx); err == nil {
			return nil
		}
		if errors.Is(err, vector.ErrDistanceMismatch) {
			return err
		}
		if i < attempts-1 {
			slog.Warn("failed to ensure vector schema, retrying...", "attempt", i+1, "error", err)
			time.Sleep(delay)
		}
	}
	return err
}
