package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/go-study-sync/internal/adapter"
	"github.com/MKhiriev/go-study-sync/internal/client"
	"github.com/MKhiriev/go-study-sync/internal/config"
	"github.com/MKhiriev/go-study-sync/internal/logger"
	"github.com/MKhiriev/go-study-sync/internal/service"
	"github.com/MKhiriev/go-study-sync/internal/store"
	"github.com/MKhiriev/go-study-sync/internal/workers"
	"github.com/MKhiriev/go-study-sync/models"
	"github.com/jonboulle/clockwork"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewClientLogger("go-study-sync")
	cfg, err := config.GetClientConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx)

	clock := clockwork.NewRealClock()

	storages, err := store.NewClientStorages(ctx, cfg.Storage, clock, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create local storage")
	}
	defer storages.Close()

	docs, closeDocs, err := newDocumentStore(ctx, cfg, clock)
	if err != nil {
		log.Fatal().Err(err).Msg("create remote document store")
	}
	defer closeDocs()

	services := service.NewClientServices(docs, storages, cfg, clock, log)

	ws := workers.NewWorkers(
		workers.NewPruneWorker(ctx, storages.Cache, cfg.Storage.Cache.RetentionDays, cfg.Workers.PruneDelay, clock, log),
		workers.NewRefreshWorker(ctx, services.RefreshJob, cfg.Workers.SyncInterval),
	)

	app := client.NewApp(services, ws, log)
	if err = app.Run(ctx); err != nil {
		log.Error().Err(err).Msg("client run error")
	}
}

// newDocumentStore builds the remote selected by the adapter mode. The
// returned func releases its resources.
func newDocumentStore(ctx context.Context, cfg *config.ClientConfig, clock clockwork.Clock) (adapter.DocumentStore, func(), error) {
	log := logger.FromContext(ctx)

	switch cfg.Adapter.Mode {
	case config.AdapterModePostgres:
		db, err := store.NewConnectPostgres(ctx, cfg.Adapter.DSN, log)
		if err != nil {
			return nil, nil, err
		}
		if err = db.Migrate(); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate document database: %w", err)
		}
		return store.NewPostgresDocumentStore(db, log), func() { _ = db.Close() }, nil

	case config.AdapterModeMemory:
		log.Warn().Msg("using in-memory remote, nothing is shared or persisted")
		return adapter.NewMemoryDocumentStore(), func() {}, nil

	default:
		docs, err := adapter.NewHTTPDocumentStore(cfg.Adapter, cfg.App, clock, log)
		if err != nil {
			return nil, nil, err
		}
		return docs, func() {}, nil
	}
}

func printBuildInfo() {
	for _, line := range models.NewBuildInfo(buildVersion, buildDate, buildCommit).Lines() {
		fmt.Println(line)
	}
}
