package service

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-study-sync/internal/logger"
	"github.com/MKhiriev/go-study-sync/internal/store"
	"github.com/MKhiriev/go-study-sync/models"
	"github.com/jonboulle/clockwork"
)

const auditWriteTimeout = 5 * time.Second

// StoreAuditSink appends every recorded mutation to an [store.AuditRepository]
// on its own goroutine. Failures are logged and dropped.
type StoreAuditSink struct {
	repo   store.AuditRepository
	clock  clockwork.Clock
	logger *logger.Logger

	wg sync.WaitGroup
}

// NewStoreAuditSink returns a sink writing to repo.
func NewStoreAuditSink(repo store.AuditRepository, clock clockwork.Clock, logger *logger.Logger) *StoreAuditSink {
	return &StoreAuditSink{
		repo:   repo,
		clock:  clock,
		logger: logger.WithComponent("audit"),
	}
}

// Record implements [AuditSink]. It returns immediately.
func (a *StoreAuditSink) Record(action, entityType, entityID string, details map[string]any) {
	entry := models.AuditEntry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		At:         a.clock.Now().UnixMilli(),
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
		defer cancel()

		if _, err := a.repo.Append(ctx, entry); err != nil {
			a.logger.Warn().Err(err).
				Str("func", "StoreAuditSink.Record").
				Str("action", action).
				Str("entity_type", entityType).
				Str("entity_id", entityID).
				Msg("audit entry dropped")
		}
	}()
}

// Wait blocks until every entry recorded so far has been written or dropped.
func (a *StoreAuditSink) Wait() {
	a.wg.Wait()
}

// NopAuditSink discards every entry.
type NopAuditSink struct{}

// Record implements [AuditSink].
func (NopAuditSink) Record(string, string, string, map[string]any) {}
