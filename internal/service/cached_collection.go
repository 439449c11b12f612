// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/MKhiriev/go-study-sync/internal/logger"
	"github.com/MKhiriev/go-study-sync/internal/remote"
	"github.com/MKhiriev/go-study-sync/internal/store"
	"github.com/MKhiriev/go-study-sync/internal/utils"
	"github.com/MKhiriev/go-study-sync/models"
)

// CachedCollection serves a remote collection through the local cache.
//
// Reads answer from the cache first and reconcile with the remote store in
// the background. Writes are optimistic: the cache is updated before the
// remote call, and restored byte for byte from a snapshot when that call
// fails.
//
// Concurrent optimistic writes on the same key are not serialized. Each
// failed write restores its own snapshot, which can undo the optimistic state
// of an overlapping write.
type CachedCollection[T models.Record] struct {
	remote RemoteCollection[T]
	cache  recordCache[T]

	audit  AuditSink
	ids    *utils.UUIDGenerator
	logger *logger.Logger

	// pending tracks background refreshes and subscriptions
	pending sync.WaitGroup
}

// NewCachedCollection returns a CachedCollection storing remote's records in
// cache under key.
func NewCachedCollection[T models.Record](remote RemoteCollection[T], cache store.LocalCache, key string, opts ...Option) *CachedCollection[T] {
	o := buildOptions(opts)
	log := o.logger.WithComponent("cached/" + key)

	return &CachedCollection[T]{
		remote: remote,
		cache:  recordCache[T]{cache: cache, key: key, logger: log},
		audit:  o.audit,
		ids:    o.ids,
		logger: log,
	}
}

// GetAll returns the cached live records and refreshes the cache in the
// background. Without a cache entry it fetches synchronously and populates
// the cache. A transiently unavailable store yields an empty list.
func (c *CachedCollection[T]) GetAll(ctx context.Context) ([]T, error) {
	if recs, ok := c.cache.load(ctx); ok {
		c.refreshInBackground(ctx)
		return recs, nil
	}

	recs, err := c.remote.FetchAll(ctx)
	if errors.Is(err, remote.ErrUnavailable) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}

	c.cache.save(ctx, recs)
	return liveRecords(recs), nil
}

// GetByID returns the cached record with id, falling back to the remote
// store when the cache does not hold it. Nil means not found or deleted.
func (c *CachedCollection[T]) GetByID(ctx context.Context, id string) (*T, error) {
	if recs, ok := c.cache.load(ctx); ok {
		if i := indexOf(recs, id); i >= 0 {
			return &recs[i], nil
		}
	}

	rec, ok, err := c.remote.GetByID(ctx, id)
	if err != nil || !ok {
		return nil, err
	}
	return &rec, nil
}

// SubscribeGetAll delivers the cached records tagged [models.SourceCache],
// when there are any, then the fetched records tagged
// [models.SourceNetwork]. The cache is rewritten before the network delivery.
// A failed fetch is logged and produces no network delivery.
func (c *CachedCollection[T]) SubscribeGetAll(ctx context.Context, cb func([]T, models.Source)) *Subscription {
	sub := newSubscription()

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		defer sub.finish()

		if recs, ok := c.cache.load(ctx); ok {
			sub.deliver(func() { cb(recs, models.SourceCache) })
		}

		recs, err := c.fetch(ctx, "CachedCollection.SubscribeGetAll")
		if err != nil {
			return
		}
		c.cache.save(ctx, recs)
		live := liveRecords(recs)
		sub.deliver(func() { cb(live, models.SourceNetwork) })
	}()

	return sub
}

// SubscribeGetByID is the two-phase delivery scoped to one record. The
// fetched record is merged into the cached list by id. When the record is
// gone remotely but was cached, it is dropped from the cache and nil is
// delivered tagged [models.SourceNetwork].
func (c *CachedCollection[T]) SubscribeGetByID(ctx context.Context, id string, cb func(*T, models.Source)) *Subscription {
	sub := newSubscription()

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		defer sub.finish()

		cached, hasList := c.cache.load(ctx)
		i := indexOf(cached, id)
		if i >= 0 {
			rec := cached[i]
			sub.deliver(func() { cb(&rec, models.SourceCache) })
		}

		rec, found, err := c.remote.FetchByID(ctx, id)
		if err != nil {
			c.logFetchError(err, "CachedCollection.SubscribeGetByID")
			return
		}

		if !found {
			if i < 0 {
				return
			}
			c.cache.save(ctx, removeRecord(c.reload(ctx, cached), id))
			sub.deliver(func() { cb(nil, models.SourceNetwork) })
			return
		}

		if hasList {
			c.cache.save(ctx, upsertRecord(c.reload(ctx, cached), rec))
		}
		sub.deliver(func() { cb(&rec, models.SourceNetwork) })
	}()

	return sub
}

// Create adds rec to the cache, then writes it remotely. A record without an
// id gets a generated one. On failure the cache is restored and the error
// returned; [remote.ErrOperationBlocked] marks a transient failure.
//
// Writes never create a cache entry: without one the next read still fetches
// the full remote list.
func (c *CachedCollection[T]) Create(ctx context.Context, rec T) (string, error) {
	rec, err := remote.WithID(rec, c.ids)
	if err != nil {
		return "", fmt.Errorf("assign id: %w", err)
	}

	snap := c.cache.snapshot(ctx)
	if recs, ok := c.cache.decode(snap); ok {
		c.cache.save(ctx, upsertRecord(recs, rec))
	}

	id, err := c.remote.Create(ctx, rec)
	if err != nil {
		c.rollback(ctx, snap, "CachedCollection.Create", rec.GetID(), err)
		return "", err
	}

	c.audit.Record(models.AuditActionCreate, c.remote.Name(), id, nil)
	return id, nil
}

// Update merges fields into the cached record, then into the remote one.
// Fields that soft-delete the record drop it from the cache right away.
func (c *CachedCollection[T]) Update(ctx context.Context, id string, fields models.Fields) error {
	snap := c.cache.snapshot(ctx)
	recs, cached := c.cache.decode(snap)

	optimistic := make([]T, 0, len(recs))
	for _, r := range recs {
		if r.GetID() != id {
			optimistic = append(optimistic, r)
			continue
		}
		if fields.MarksDeleted() {
			continue
		}
		merged, err := models.ApplyFields(r, fields)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidFields, err)
		}
		optimistic = append(optimistic, merged)
	}
	if cached {
		c.cache.save(ctx, optimistic)
	}

	if err := c.remote.Update(ctx, id, fields); err != nil {
		c.rollback(ctx, snap, "CachedCollection.Update", id, err)
		return err
	}

	c.audit.Record(models.AuditActionUpdate, c.remote.Name(), id, map[string]any{"fields": fieldNames(fields)})
	return nil
}

// Delete drops the record from the cache, then soft-deletes it remotely.
func (c *CachedCollection[T]) Delete(ctx context.Context, id string) error {
	snap := c.cache.snapshot(ctx)
	if recs, ok := c.cache.decode(snap); ok {
		c.cache.save(ctx, removeRecord(recs, id))
	}

	if err := c.remote.SoftDelete(ctx, id); err != nil {
		c.rollback(ctx, snap, "CachedCollection.Delete", id, err)
		return err
	}

	c.audit.Record(models.AuditActionDelete, c.remote.Name(), id, nil)
	return nil
}

// Refresh implements [Refresher].
func (c *CachedCollection[T]) Refresh(ctx context.Context) error {
	recs, err := c.fetch(ctx, "CachedCollection.Refresh")
	if errors.Is(err, remote.ErrUnavailable) {
		return nil
	}
	if err != nil {
		return err
	}

	c.cache.save(ctx, recs)
	return nil
}

// Wait blocks until every background refresh and subscription started so far
// has finished.
func (c *CachedCollection[T]) Wait() {
	c.pending.Wait()
}

func (c *CachedCollection[T]) refreshInBackground(ctx context.Context) {
	bg := context.WithoutCancel(ctx)

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		_ = c.Refresh(bg)
	}()
}

func (c *CachedCollection[T]) fetch(ctx context.Context, fn string) ([]T, error) {
	recs, err := c.remote.FetchAll(ctx)
	if err != nil {
		c.logFetchError(err, fn)
		return nil, err
	}
	return recs, nil
}

// reload re-reads the cached list so that a merge after a remote call does
// not discard writes made while the call was in flight.
func (c *CachedCollection[T]) reload(ctx context.Context, fallback []T) []T {
	if recs, ok := c.cache.load(ctx); ok {
		return recs
	}
	return fallback
}

func (c *CachedCollection[T]) rollback(ctx context.Context, snap cacheSnapshot, fn, id string, err error) {
	c.cache.restore(ctx, snap)
	c.logger.Warn().Err(err).Str("func", fn).Str("id", id).Msg("remote write failed, cache restored")
}

func (c *CachedCollection[T]) logFetchError(err error, fn string) {
	if errors.Is(err, remote.ErrUnavailable) {
		c.logger.Debug().Err(err).Str("func", fn).Msg("remote unavailable, keeping cached view")
		return
	}
	c.logger.Err(err).Str("func", fn).Msg("remote fetch failed")
}

func fieldNames(fields models.Fields) []string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}
