package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"docchat/internal/ai"
	"docchat/internal/app"
	"docchat/internal/cache"
	"docchat/internal/config"
	"docchat/internal/pkg/log"
	"docchat/internal/pkg/pdfextract"
	"docchat/internal/pkg/textsplit"
	minioClient "docchat/internal/platform/minio"
	mongoClient "docchat/internal/platform/mongo"
	mysqlClient "docchat/internal/platform/mysql"
	rabbitmqClient "docchat/internal/platform/rabbitmq"
	redisClient "docchat/internal/platform/redis"
	"docchat/internal/repository"
	"docchat/internal/repository/memstore"
	"docchat/internal/repository/mongostore"
	"docchat/internal/storage"
)

// App owns every long-lived collaborator. Close releases them in reverse
// order of construction.
type App struct {
	Config  *config.Config
	Gateway *ai.Client

	ChatService     *app.ChatService
	DocumentService *app.DocumentService
	AnalysisService *app.AnalysisService

	// HealthChecks are keyed by dependency name.
	HealthChecks map[string]func(ctx context.Context) error

	StartedAt time.Time

	closers []func() error
}

type stores struct {
	sessions  app.SessionStore
	messages  app.MessageStore
	documents app.DocumentStore
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config:       cfg,
		HealthChecks: make(map[string]func(ctx context.Context) error),
		StartedAt:    time.Now(),
	}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	st, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}
	files, err := a.openFileStore(ctx)
	if err != nil {
		return nil, err
	}
	historyCache, err := a.openHistoryCache(ctx)
	if err != nil {
		return nil, err
	}
	events, err := a.openEventPublisher(ctx)
	if err != nil {
		return nil, err
	}

	splitter, err := textsplit.New(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return nil, fmt.Errorf("init text splitter failed: %w", err)
	}

	a.Gateway = ai.NewClient(ai.ClientConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Referer: cfg.LLM.Referer,
		Title:   cfg.LLM.Title,
		Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	})
	if cfg.LLM.APIKey == "" {
		log.Warnf("no LLM api key configured, gateway calls will be rejected upstream")
	}

	a.ChatService = app.NewChatService(st.sessions, st.messages, st.documents, a.Gateway, historyCache, a.Gateway.DefaultModel())
	a.DocumentService = app.NewDocumentService(st.sessions, st.documents, files, pdfextract.New(), splitter, events)
	a.AnalysisService = app.NewAnalysisService(st.sessions, st.documents, a.Gateway, a.Gateway.DefaultModel())

	ok = true
	return a, nil
}

func (a *App) openStores(ctx context.Context) (stores, error) {
	cfg := a.Config
	switch cfg.Store.Driver {
	case "mysql":
		db, err := mysqlClient.New(ctx, cfg.MySQLDSN(), cfg.App.GinMode == "debug")
		if err != nil {
			return stores{}, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return stores{}, fmt.Errorf("get mysql sql db failed: %w", err)
		}
		a.closers = append(a.closers, sqlDB.Close)
		a.HealthChecks["mysql"] = sqlDB.PingContext
		if err := repository.AutoMigrate(db); err != nil {
			return stores{}, fmt.Errorf("auto migrate tables failed: %w", err)
		}
		return stores{
			sessions:  repository.NewSessionRepository(db),
			messages:  repository.NewMessageRepository(db),
			documents: repository.NewDocumentRepository(db),
		}, nil

	case "mongo":
		client, err := mongoClient.New(ctx, cfg.Mongo.URL)
		if err != nil {
			return stores{}, err
		}
		a.closers = append(a.closers, func() error { return client.Disconnect(context.Background()) })
		a.HealthChecks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
		db := client.Database(cfg.Mongo.DB)
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			return stores{}, err
		}
		return stores{
			sessions:  mongostore.NewSessionStore(db),
			messages:  mongostore.NewMessageStore(db),
			documents: mongostore.NewDocumentStore(db),
		}, nil

	case "memory":
		log.Warnf("using in-memory store, data is lost on restart")
		mem := memstore.New()
		return stores{
			sessions:  mem.Sessions(),
			messages:  mem.Messages(),
			documents: mem.Documents(),
		}, nil
	}
	return stores{}, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func (a *App) openFileStore(ctx context.Context) (app.FileStore, error) {
	cfg := a.Config
	if cfg.Storage.Driver == "minio" {
		client, err := minioClient.New(ctx, cfg.MinIO.Endpoint, cfg.MinIO.AccessKeyID, cfg.MinIO.SecretAccessKey, cfg.MinIO.BucketName, cfg.MinIO.UseSSL)
		if err != nil {
			return nil, err
		}
		bucket := cfg.MinIO.BucketName
		a.HealthChecks["minio"] = func(ctx context.Context) error {
			exists, err := client.BucketExists(ctx, bucket)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("bucket %q missing", bucket)
			}
			return nil
		}
		return storage.NewMinIOStore(client, bucket), nil
	}

	files, err := storage.NewLocalStore(cfg.Storage.UploadDir)
	if err != nil {
		return nil, err
	}
	return files, nil
}

// openHistoryCache returns a nil interface when Redis is disabled.
func (a *App) openHistoryCache(ctx context.Context) (app.HistoryCache, error) {
	cfg := a.Config.Redis
	if !cfg.Enabled {
		return nil, nil
	}
	client, err := redisClient.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Close)
	a.HealthChecks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	return cache.NewHistoryCache(
		client,
		time.Duration(cfg.HistoryTTLSeconds)*time.Second,
		time.Duration(cfg.HistoryDirtyTTLSeconds)*time.Second,
	), nil
}

// openEventPublisher returns a nil interface when RabbitMQ is disabled.
func (a *App) openEventPublisher(ctx context.Context) (app.EventPublisher, error) {
	cfg := a.Config.RabbitMQ
	if !cfg.Enabled {
		return nil, nil
	}
	conn, err := rabbitmqClient.New(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, conn.Close)
	a.HealthChecks["rabbitmq"] = func(context.Context) error {
		if conn.IsClosed() {
			return errors.New("connection closed")
		}
		return nil
	}
	return rabbitmqClient.NewEventPublisher(conn, cfg.EventsQueue), nil
}

func (a *App) Close() error {
	var closeErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			closeErr = errors.Join(closeErr, err)
		}
	}
	a.closers = nil
	return closeErr
}
