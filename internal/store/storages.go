package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-study-sync/internal/config"
	"github.com/MKhiriev/go-study-sync/internal/logger"
	"github.com/jonboulle/clockwork"
)

// ClientStorages groups the client-side storage backends into a single value
// that can be passed to the service layer.
type ClientStorages struct {
	// Cache is the local cache shared by every collection.
	Cache LocalCache
	// Audit is the local mutation log.
	Audit AuditRepository

	db *DB
}

// NewClientStorages initialises the client storage layer:
//  1. Opens the SQLite database at cfg.Cache.DSN, creating the file if it
//     does not yet exist.
//  2. Runs pending schema migrations via [DB.Migrate].
//  3. Builds the cache and the audit repository on that connection.
//
// With [MemoryDSN] the audit log lives in an in-memory SQLite database and the
// cache is a plain [NewMemoryCache].
func NewClientStorages(ctx context.Context, cfg config.ClientStorage, clock clockwork.Clock, logger *logger.Logger) (*ClientStorages, error) {
	logger.Info().Msg("creating new storages...")

	db, err := NewConnectSQLite(ctx, cfg.Cache.DSN, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err = db.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	var cache LocalCache
	if cfg.Cache.DSN == MemoryDSN {
		cache = NewMemoryCache(clock)
	} else {
		cache, err = NewSQLiteCache(db, cfg.Cache.LRUSize, clock, logger)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &ClientStorages{
		Cache: cache,
		Audit: NewAuditRepository(db, logger),
		db:    db,
	}, nil
}

// Close releases the underlying database connection.
func (s *ClientStorages) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
