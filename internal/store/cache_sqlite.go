// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/go-study-sync/internal/logger"
	"github.com/MKhiriev/go-study-sync/models"
	"github.com/golang/snappy"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"
)

const day = 24 * time.Hour

// sqliteCache is the durable [LocalCache]. Blobs are stored
// snappy-compressed in the cache_entries table; recently used entries are
// kept decompressed in an LRU front so repeated reads skip SQLite.
//
// The front is read-through and write-through. A failed write drops the key
// from the front so it never serves a value the table does not hold.
//
// Every write bumps the key's generation, and Prune bumps the epoch. A read
// only fills the front when neither changed while it queried the table, so a
// slow read cannot put an older blob over a newer write.
type sqliteCache struct {
	db     *DB
	front  *lru.Cache[string, models.CacheEntry]
	clock  clockwork.Clock
	logger *logger.Logger

	mu    sync.Mutex
	epoch uint64
	gens  map[string]uint64
}

type generation struct {
	epoch uint64
	key   uint64
}

// NewSQLiteCache returns a [LocalCache] over db, whose schema must already be
// migrated. frontSize bounds the LRU front; values below 1 are raised to 1.
func NewSQLiteCache(db *DB, frontSize int, clock clockwork.Clock, log *logger.Logger) (LocalCache, error) {
	if db == nil || db.DB == nil {
		return nil, ErrNilDB
	}
	if frontSize < 1 {
		frontSize = 1
	}

	front, err := lru.New[string, models.CacheEntry](frontSize)
	if err != nil {
		return nil, fmt.Errorf("create cache front: %w", err)
	}

	return &sqliteCache{
		db:     db,
		front:  front,
		clock:  clock,
		logger: log.WithComponent("sqlite_cache"),
		gens:   make(map[string]uint64),
	}, nil
}

func (c *sqliteCache) Get(ctx context.Context, key string) (models.CacheEntry, bool) {
	if entry, ok := c.front.Get(key); ok {
		return cloneEntry(entry), true
	}
	seen := c.generation(key)

	query, args, err := buildGetCacheEntryQuery(key)
	if err != nil {
		c.logger.Err(err).Str("func", "sqliteCache.Get").Str("key", key).Msg("failed to build query")
		return models.CacheEntry{}, false
	}

	var (
		compressed []byte
		updatedAt  int64
	)
	err = c.db.QueryRowContext(ctx, query, args...).Scan(&compressed, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CacheEntry{}, false
	}
	if err != nil {
		c.logger.Err(err).Str("func", "sqliteCache.Get").Str("key", key).Msg("failed to read cache entry")
		return models.CacheEntry{}, false
	}

	data, err := decompress(compressed)
	if err != nil {
		c.logger.Err(err).Str("func", "sqliteCache.Get").Str("key", key).Msg("failed to decode cache entry")
		return models.CacheEntry{}, false
	}

	entry := models.CacheEntry{Key: key, Data: data, Timestamp: updatedAt}
	c.fill(key, seen, cloneEntry(entry))
	return entry, true
}

func (c *sqliteCache) Put(ctx context.Context, key string, data []byte) {
	entry := models.CacheEntry{Key: key, Data: cloneBytes(data), Timestamp: c.clock.Now().UnixMilli()}

	var compressed []byte
	if data != nil {
		compressed = snappy.Encode(nil, data)
	}

	query, args, err := buildPutCacheEntryQuery(key, compressed, len(data), entry.Timestamp)
	if err != nil {
		c.publish(key, nil)
		c.logger.Err(err).Str("func", "sqliteCache.Put").Str("key", key).Msg("failed to build query")
		return
	}

	if _, err = c.db.ExecContext(ctx, query, args...); err != nil {
		c.publish(key, nil)
		c.logger.Err(err).Str("func", "sqliteCache.Put").Str("key", key).Msg("failed to write cache entry")
		return
	}

	c.publish(key, &entry)
}

func (c *sqliteCache) Delete(ctx context.Context, key string) {
	c.front.Remove(key)
	defer c.publish(key, nil)

	query, args, err := buildDeleteCacheEntryQuery(key)
	if err != nil {
		c.logger.Err(err).Str("func", "sqliteCache.Delete").Str("key", key).Msg("failed to build query")
		return
	}

	if _, err = c.db.ExecContext(ctx, query, args...); err != nil {
		c.logger.Err(err).Str("func", "sqliteCache.Delete").Str("key", key).Msg("failed to delete cache entry")
	}
}

func (c *sqliteCache) Prune(ctx context.Context, maxAgeDays int) int {
	if maxAgeDays < 0 {
		c.logger.Warn().Str("func", "sqliteCache.Prune").Int("max_age_days", maxAgeDays).Msg("negative retention, nothing pruned")
		return 0
	}

	cutoff := c.clock.Now().Add(-time.Duration(maxAgeDays) * day).UnixMilli()
	// entries may be evicted from the table while still in the front
	defer c.purge()

	query, args, err := buildPruneCacheQuery(cutoff)
	if err != nil {
		c.logger.Err(err).Str("func", "sqliteCache.Prune").Msg("failed to build query")
		return 0
	}

	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		c.logger.Err(err).Str("func", "sqliteCache.Prune").Msg("failed to prune cache")
		return 0
	}

	removed, err := res.RowsAffected()
	if err != nil {
		c.logger.Err(err).Str("func", "sqliteCache.Prune").Msg("failed to count pruned entries")
		return 0
	}

	c.logger.Info().Str("func", "sqliteCache.Prune").Int64("removed", removed).Int("max_age_days", maxAgeDays).Msg("cache pruned")
	return int(removed)
}

func (c *sqliteCache) Keys(ctx context.Context) []models.CacheEntryInfo {
	query, args, err := buildListCacheKeysQuery()
	if err != nil {
		c.logger.Err(err).Str("func", "sqliteCache.Keys").Msg("failed to build query")
		return nil
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		c.logger.Err(err).Str("func", "sqliteCache.Keys").Msg("failed to list cache keys")
		return nil
	}
	defer rows.Close()

	infos := make([]models.CacheEntryInfo, 0)
	for rows.Next() {
		var info models.CacheEntryInfo
		if err = rows.Scan(&info.Key, &info.Size, &info.Timestamp); err != nil {
			c.logger.Err(err).Str("func", "sqliteCache.Keys").Msg("failed to scan cache key")
			return nil
		}
		infos = append(infos, info)
	}
	if err = rows.Err(); err != nil {
		c.logger.Err(err).Str("func", "sqliteCache.Keys").Msg("failed to iterate cache keys")
		return nil
	}

	return infos
}

func (c *sqliteCache) generation(key string) generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return generation{epoch: c.epoch, key: c.gens[key]}
}

// publish records a write of key: entry goes to the front, or nil drops the
// key from it.
func (c *sqliteCache) publish(key string, entry *models.CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gens[key]++
	if entry == nil {
		c.front.Remove(key)
		return
	}
	c.front.Add(key, *entry)
}

// fill adds a value read from the table unless key was written or the cache
// pruned since seen was taken.
func (c *sqliteCache) fill(key string, seen generation, entry models.CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != seen.epoch || c.gens[key] != seen.key {
		return
	}
	c.front.Add(key, entry)
}

func (c *sqliteCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	c.front.Purge()
}

func decompress(compressed []byte) ([]byte, error) {
	if compressed == nil {
		return nil, nil
	}
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptCacheEntry, err)
	}
	return data, nil
}

func cloneEntry(e models.CacheEntry) models.CacheEntry {
	e.Data = cloneBytes(e.Data)
	return e
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
