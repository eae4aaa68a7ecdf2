package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/nsqio/go-nsq"

	"projecttutor/backend/features/document"
	"projecttutor/backend/features/job"
	"projecttutor/backend/features/stats"
	"projecttutor/backend/features/study"
	"projecttutor/backend/internal/adapter/pdf"
	"projecttutor/backend/internal/config"
	"projecttutor/backend/internal/embedding"
	"projecttutor/backend/internal/generation"
	"projecttutor/backend/internal/middleware"
	"projecttutor/backend/internal/retrieval"
	"projecttutor/backend/internal/settings"
	"projecttutor/backend/internal/worker"
)

// Options replaces providers built from config. Nil fields keep the
// configured ones.
type Options struct {
	Embedder  embedding.Provider
	Generator generation.Generator
	Extractor document.PageExtractor
}

type App struct {
	Handler       http.Handler
	Documents     *document.Service
	Study         *study.Service
	Jobs          *job.Service
	IndexConsumer *worker.IndexConsumer

	queryLog *retrieval.QueryLogger
	port     int
}

// New wires the services. Settings and failed jobs always live in Postgres;
// docs selects the document store and falls back to Postgres when nil.
func New(
	cfg *config.Config,
	db *sql.DB,
	docs document.Repository,
	vecStore VectorStore,
	taskPub TaskPublisher,
	logger *slog.Logger,
	opts *Options,
) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}
	if docs == nil {
		docs = document.NewPostgresRepo(db)
	}

	// Feature: Settings
	settingsService := settings.NewService(settings.NewPostgresRepo(db))
	seed := settings.Settings{GeminiAPIKey: cfg.GeminiAPIKey, LLMModel: cfg.LLMModel, EmbedModel: cfg.EmbedModel}
	if err := settingsService.Seed(context.Background(), seed); err != nil {
		logger.Warn("failed to seed settings from environment", "error", err)
	}
	settingsHandler := settings.NewHandler(settingsService)

	// Providers
	embedProvider := opts.Embedder
	if embedProvider == nil {
		p, err := newEmbedProvider(cfg, settingsService)
		if err != nil {
			return nil, err
		}
		embedProvider = p
	}
	gen := opts.Generator
	if gen == nil {
		g, err := newGenerator(cfg, settingsService)
		if err != nil {
			return nil, err
		}
		gen = g
	}
	extractor := opts.Extractor
	if extractor == nil {
		extractor = pdf.NewExtractor()
	}

	gateway := embedding.NewGateway(embedProvider, embedding.Options{
		MaxRetries: cfg.EmbedMaxRetries,
		RateLimit:  cfg.EmbedRateLimit,
	})
	generator := generation.NewRetrying(gen, cfg.GenerateMaxRetries, 0)

	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		logger.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}
	retrievalService := retrieval.NewService(gateway, vecStore, queryLogger)

	// Feature: Job
	jobService := job.NewService(job.NewPostgresRepo(db), taskPub)
	jobHandler := job.NewHandler(jobService)

	// Feature: Document
	documentService := document.NewService(docs, extractor, gateway, vecStore, taskPub, jobService, document.ChunkOptions{
		Size:    cfg.ChunkSize,
		Overlap: cfg.ChunkOverlap,
	})
	documentHandler := document.NewHandler(documentService, cfg.UploadDir, cfg.MaxUploadSizeMB)

	// Feature: Study
	studyService := study.NewService(docs, retrievalService, generator)
	studyHandler := study.NewHandler(studyService)

	// Feature: Stats
	statsHandler := stats.NewHandler(documentService, jobService, vecStore)

	// Worker
	indexConsumer := worker.NewIndexConsumer(documentService, jobService, worker.DefaultMaxAttempts, func(err error) bool {
		return errors.Is(err, document.ErrNotFound)
	})

	// Routes
	mux := http.NewServeMux()

	mux.HandleFunc("POST /documents/upload", documentHandler.Upload)
	mux.HandleFunc("GET /documents", documentHandler.List)
	mux.HandleFunc("GET /documents/{id}", documentHandler.Get)
	mux.HandleFunc("DELETE /documents/{id}", documentHandler.Delete)
	mux.HandleFunc("POST /documents/{id}/reindex", documentHandler.Reindex)

	mux.HandleFunc("POST /summary", studyHandler.Summary)
	mux.HandleFunc("POST /notes", studyHandler.Notes)
	mux.HandleFunc("POST /mcq", studyHandler.MCQ)
	mux.HandleFunc("POST /mcq/save-progress", studyHandler.SaveMCQProgress)
	mux.HandleFunc("POST /fillups", studyHandler.Fillups)
	mux.HandleFunc("POST /fillups/save-progress", studyHandler.SaveFillupsProgress)
	mux.HandleFunc("POST /chat", studyHandler.Chat)

	mux.HandleFunc("GET /docs/{id}/summary", documentHandler.GetSummary)
	mux.HandleFunc("GET /docs/{id}/notes", documentHandler.GetNotes)
	mux.HandleFunc("GET /docs/{id}/mcq", documentHandler.GetMCQ)
	mux.HandleFunc("GET /docs/{id}/fillups", documentHandler.GetFillups)

	mux.HandleFunc("GET /settings", settingsHandler.GetSettings)
	mux.HandleFunc("PUT /settings", settingsHandler.UpdateSettings)

	mux.HandleFunc("GET /jobs/failed", jobHandler.List)
	mux.HandleFunc("POST /jobs/{id}/retry", jobHandler.Retry)
	mux.HandleFunc("DELETE /jobs/{id}", jobHandler.Dismiss)

	mux.HandleFunc("GET /stats", statsHandler.GetStats)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{
		Handler:       middleware.CorrelationID(middleware.CORS(mux)),
		Documents:     documentService,
		Study:         studyService,
		Jobs:          jobService,
		IndexConsumer: indexConsumer,
		queryLog:      queryLogger,
		port:          cfg.ServerPort,
	}, nil
}

// Close releases the query log file.
func (a *App) Close() error {
	return a.queryLog.Close()
}

func (a *App) Run(ctx context.Context) error {
	port := a.port
	if port == 0 {
		port = 8081
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// StartIndexWorker consumes document.index one message at a time, so
// re-indexes never overlap. It connects through nsqlookupd when lookupd is
// set and straight to nsqd otherwise.
func (a *App) StartIndexWorker(lookupd, nsqd string) (*nsq.Consumer, error) {
	nsqCfg := nsq.NewConfig()
	nsqCfg.MaxInFlight = 1
	nsqCfg.MaxAttempts = worker.DefaultMaxAttempts

	consumer, err := nsq.NewConsumer(config.TopicDocumentIndex, config.ChannelIndexWorker, nsqCfg)
	if err != nil {
		return nil, fmt.Errorf("index consumer: %w", err)
	}
	consumer.AddHandler(a.IndexConsumer)

	if lookupd != "" {
		err = consumer.ConnectToNSQLookupd(lookupd)
	} else {
		err = consumer.ConnectToNSQD(nsqd)
	}
	if err != nil {
		consumer.Stop()
		return nil, fmt.Errorf("connect index consumer: %w", err)
	}
	slog.Info("index worker connected", "topic", config.TopicDocumentIndex, "channel", config.ChannelIndexWorker)
	return consumer, nil
}
