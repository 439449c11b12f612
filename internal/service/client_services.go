package service

import (
	"github.com/MKhiriev/go-study-sync/internal/adapter"
	"github.com/MKhiriev/go-study-sync/internal/config"
	"github.com/MKhiriev/go-study-sync/internal/logger"
	"github.com/MKhiriev/go-study-sync/internal/remote"
	"github.com/MKhiriev/go-study-sync/internal/store"
	"github.com/MKhiriev/go-study-sync/models"
	"github.com/jonboulle/clockwork"
)

// Remote collection names.
const (
	CollectionLessons = "lessons"
	CollectionSets    = "sets"
	CollectionItems   = "items"
)

// Cache keys of the cached collections.
const (
	CacheKeyLessons = "lessons"
	CacheKeySets    = "sets"
)

type ClientServices struct {
	Lessons    *CachedCollection[models.Lesson]
	Sets       *SetCollection
	Audit      AuditSink
	RefreshJob ClientRefreshJob

	auditSink *StoreAuditSink
}

func NewClientServices(docs adapter.DocumentStore, storages *store.ClientStorages, cfg *config.ClientConfig, clock clockwork.Clock, log *logger.Logger) *ClientServices {
	var (
		audit     AuditSink = NopAuditSink{}
		auditSink *StoreAuditSink
	)
	if cfg.App.AuditEnabled {
		auditSink = NewStoreAuditSink(storages.Audit, clock, log)
		audit = auditSink
	}

	opts := []Option{
		WithAuditSink(audit),
		WithLogger(log),
		WithClock(clock),
		WithDeltaThreshold(cfg.Workers.DeltaThreshold),
	}

	lessons := NewCachedCollection(
		remote.NewCollection[models.Lesson](docs, CollectionLessons, clock, log),
		storages.Cache, CacheKeyLessons, opts...,
	)
	sets := NewSetCollection(
		remote.NewCollection[models.Set](docs, CollectionSets, clock, log),
		remote.NewCollection[models.Item](docs, CollectionItems, clock, log),
		storages.Cache, CacheKeySets, opts...,
	)

	return &ClientServices{
		Lessons:    lessons,
		Sets:       sets,
		Audit:      audit,
		RefreshJob: NewRefreshJob(clock, log, lessons, sets),
		auditSink:  auditSink,
	}
}

// Wait blocks until background refreshes, subscriptions and audit writes
// started so far have finished. Call it after stopping the refresh job and
// before closing the storages.
func (s *ClientServices) Wait() {
	s.Lessons.Wait()
	s.Sets.Wait()
	if s.auditSink != nil {
		s.auditSink.Wait()
	}
}
