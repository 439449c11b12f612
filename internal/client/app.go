package client

import (
	"context"

	"github.com/MKhiriev/go-study-sync/internal/logger"
	"github.com/MKhiriev/go-study-sync/internal/service"
	"github.com/MKhiriev/go-study-sync/models"
)

type App struct {
	services *service.ClientServices
	workers  Runner
	logger   *logger.Logger
}

func NewApp(services *service.ClientServices, workers Runner, log *logger.Logger) *App {
	return &App{
		services: services,
		workers:  workers,
		logger:   log.WithComponent("app"),
	}
}

// Run warms every cached collection, starts the workers and blocks until ctx
// is done. On return the workers are stopped and pending background work has
// finished, so the storages can be closed.
func (a *App) Run(ctx context.Context) error {
	a.warmUp(ctx)

	a.workers.Run()
	a.logger.Info().Str("func", "App.Run").Msg("client running")

	<-ctx.Done()

	a.logger.Info().Str("func", "App.Run").Msg("shutting down")
	a.workers.Stop()
	a.services.Wait()
	return nil
}

// warmUp subscribes once to every collection so the cache holds a fresh
// network view before the first periodic refresh.
func (a *App) warmUp(ctx context.Context) {
	lessons := a.services.Lessons.SubscribeGetAll(ctx, func(recs []models.Lesson, src models.Source) {
		a.logDelivery(service.CollectionLessons, len(recs), src)
	})
	sets := a.services.Sets.SubscribeGetAll(ctx, func(recs []models.Set, src models.Source) {
		a.logDelivery(service.CollectionSets, len(recs), src)
	})

	for _, sub := range []*service.Subscription{lessons, sets} {
		select {
		case <-sub.Done():
		case <-ctx.Done():
			sub.Cancel()
		}
	}
}

func (a *App) logDelivery(collection string, n int, src models.Source) {
	a.logger.Info().
		Str("func", "App.warmUp").
		Str("collection", collection).
		Str("source", string(src)).
		Int("records", n).
		Msg("collection loaded")
}
