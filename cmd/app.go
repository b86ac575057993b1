package cmd

import (
	"context"
	"fmt"

	"catalog-console/core/apiclient"
	"catalog-console/core/config"
	"catalog-console/core/database"
	"catalog-console/core/datasync"
	"catalog-console/core/logger"
	"catalog-console/core/metrics"
	"catalog-console/core/mutation"
	"catalog-console/core/registry"
	"catalog-console/core/session"
	"catalog-console/core/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app bundles the components shared by every command.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *gorm.DB
	session *session.Session
	client  *apiclient.Client
	auth    *session.Auth
	catalog *registry.Catalog
	metrics *metrics.Recorder
	coord   *datasync.Coordinator
	gateway *mutation.Gateway
}

// newApp loads the configuration and wires the synchronization core.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(l)

	a := &app{cfg: cfg, logger: l, metrics: metrics.New()}

	a.session = session.New(a.openStore(ctx), cfg.Session.Scope, l)
	if err := a.session.Init(ctx); err != nil {
		l.Warn("Failed to restore session", zap.Error(err))
	}

	a.client, err = apiclient.New(cfg.API, a.session, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create api client: %w", err)
	}
	a.auth = session.NewAuth(a.client, a.session, l)

	a.catalog = registry.Default(cfg.Sync.CrossRefPath)
	notifier := datasync.NewLogNotifier(l)

	a.coord = datasync.NewCoordinator(a.catalog, datasync.NewAPIFetcher(a.client), a.session, l,
		datasync.WithNotifier(notifier),
		datasync.WithObserver(a.metrics),
		datasync.WithTTL(cfg.Sync.TTL()),
		datasync.WithAuditPath(cfg.Sync.AuditPath),
	)
	a.gateway = mutation.NewGateway(a.catalog, a.client, a.coord, a.session, l,
		mutation.WithNotifier(notifier),
		mutation.WithObserver(a.metrics),
		mutation.WithNamespace(cfg.Storage.Namespace),
	)
	return a, nil
}

// openStore returns the persistent session store, or an in-memory one when
// persistence is off or the database is unavailable.
func (a *app) openStore(ctx context.Context) session.Store {
	if !a.cfg.Session.Persist {
		return session.NewMemoryStore()
	}

	db, err := database.Connect(a.cfg.Database)
	if err != nil {
		a.logger.Warn("Session database unavailable, session will not persist", zap.Error(err))
		return session.NewMemoryStore()
	}

	store := session.NewGormStore(db)
	if err := store.Migrate(ctx); err != nil {
		a.logger.Warn("Session table unusable, session will not persist", zap.Error(err))
		return session.NewMemoryStore()
	}

	a.db = db
	a.logger.Debug("Session store ready", zap.String("driver", a.cfg.Database.Driver))
	return store
}

// blobSource connects to the object store local attachments can be pulled from.
func (a *app) blobSource(ctx context.Context) (*storage.BlobSource, error) {
	if !a.cfg.Storage.Enabled {
		return nil, fmt.Errorf("object storage is disabled, set STORAGE_ENABLED=true")
	}
	client, err := storage.NewClient(a.cfg.Storage)
	if err != nil {
		return nil, err
	}
	src := storage.NewBlobSource(client, a.cfg.Storage.Bucket)
	if err := src.Check(ctx); err != nil {
		return nil, err
	}
	return src, nil
}

func (a *app) close() {
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = a.logger.Sync()
}
