// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/MKhiriev/go-study-sync/internal/logger"
	"github.com/MKhiriev/go-study-sync/internal/remote"
	"github.com/MKhiriev/go-study-sync/internal/store"
	"github.com/MKhiriev/go-study-sync/internal/utils"
	"github.com/MKhiriev/go-study-sync/models"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

const (
	// FieldItems is the update field carrying a set's full item list.
	FieldItems = "items"

	fieldItemsState = "itemsState"
	fieldSetID      = "setId"
)

// SyncStats describes the item fetch plan of the last delta sync cycle.
type SyncStats struct {
	// Refetched lists the sets whose items were fetched, in network order.
	Refetched []string
	// Batched is true when every item was fetched in one call.
	Batched bool
	// Queries is the number of per-set item queries issued.
	Queries int
}

// SetCollection is the cached sets collection. Each set owns items stored
// in a separate remote collection; the cache keeps them attached to their
// set.
//
// Subscriptions run a delta sync: only set metadata is fetched, and items
// are refetched only for sets that are new, changed remotely, or whose items
// were never fetched.
type SetCollection struct {
	sets  RemoteCollection[models.Set]
	items RemoteCollection[models.Item]
	cache recordCache[models.Set]

	threshold int
	audit     AuditSink
	ids       *utils.UUIDGenerator
	clock     clockwork.Clock
	logger    *logger.Logger

	statsMu sync.Mutex
	stats   SyncStats

	pending sync.WaitGroup
}

// NewSetCollection returns a SetCollection over the sets and items remote
// collections, cached under key.
func NewSetCollection(sets RemoteCollection[models.Set], items RemoteCollection[models.Item], cache store.LocalCache, key string, opts ...Option) *SetCollection {
	o := buildOptions(opts)
	log := o.logger.WithComponent("sets/" + key)

	return &SetCollection{
		sets:      sets,
		items:     items,
		cache:     recordCache[models.Set]{cache: cache, key: key, logger: log},
		threshold: o.threshold,
		audit:     o.audit,
		ids:       o.ids,
		clock:     o.clock,
		logger:    log,
	}
}

// GetAll returns the cached sets and runs a delta sync in the background.
// Without a cache entry it fetches every set and every item, attaches the
// items to their sets and caches the result.
func (s *SetCollection) GetAll(ctx context.Context) ([]models.Set, error) {
	if sets, ok := s.cache.load(ctx); ok {
		s.refreshInBackground(ctx)
		return sets, nil
	}

	sets, err := s.fetchCold(ctx)
	if errors.Is(err, remote.ErrUnavailable) {
		return []models.Set{}, nil
	}
	if err != nil {
		return nil, err
	}

	s.cache.save(ctx, sets)
	return sets, nil
}

// SubscribeGetAll delivers the cached sets tagged [models.SourceCache], then
// runs one delta sync and delivers its result tagged [models.SourceNetwork].
// A failed cycle is logged and produces no network delivery.
func (s *SetCollection) SubscribeGetAll(ctx context.Context, cb func([]models.Set, models.Source)) *Subscription {
	sub := newSubscription()

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer sub.finish()

		cached, ok := s.cache.load(ctx)
		if ok {
			sub.deliver(func() { cb(cached, models.SourceCache) })
		}

		merged, err := s.deltaSync(ctx, cached)
		if err != nil {
			s.logFetchError(err, "SetCollection.SubscribeGetAll")
			return
		}
		sub.deliver(func() { cb(merged, models.SourceNetwork) })
	}()

	return sub
}

// SubscribeGetByID is the two-phase delivery for one set. The network phase
// fetches the set and its items and merges the result into the cached list.
func (s *SetCollection) SubscribeGetByID(ctx context.Context, id string, cb func(*models.Set, models.Source)) *Subscription {
	sub := newSubscription()

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer sub.finish()

		cached, hasList := s.cache.load(ctx)
		i := indexOf(cached, id)
		if i >= 0 {
			set := cached[i]
			sub.deliver(func() { cb(&set, models.SourceCache) })
		}

		set, found, err := s.sets.FetchByID(ctx, id)
		if err != nil {
			s.logFetchError(err, "SetCollection.SubscribeGetByID")
			return
		}

		if !found {
			if i < 0 {
				return
			}
			s.cache.save(ctx, removeRecord(s.reload(ctx, cached), id))
			sub.deliver(func() { cb(nil, models.SourceNetwork) })
			return
		}

		items, err := s.items.FetchByField(ctx, fieldSetID, id)
		if err != nil {
			s.logFetchError(err, "SetCollection.SubscribeGetByID")
			return
		}
		set = set.WithItems(items)

		if hasList {
			s.cache.save(ctx, upsertRecord(s.reload(ctx, cached), set))
		}
		sub.deliver(func() { cb(&set, models.SourceNetwork) })
	}()

	return sub
}

// Create caches the set with its items, then writes the set and, in one
// batch, its items tagged with the set id. Missing ids and creation times
// are filled in; items without a creation time keep their list order. Like
// every write, it leaves a cold cache cold.
func (s *SetCollection) Create(ctx context.Context, set models.Set) (string, error) {
	set, err := remote.WithID(set, s.ids)
	if err != nil {
		return "", fmt.Errorf("assign id: %w", err)
	}

	now := s.clock.Now().UnixMilli()
	if set.CreatedAt == 0 {
		set.CreatedAt = now
	}
	if set.UpdatedAt == 0 {
		set.UpdatedAt = set.CreatedAt
	}
	items := s.prepareItems(set.ID, set.Items, now)
	set = set.WithItems(items)

	snap := s.cache.snapshot(ctx)
	if sets, ok := s.cache.decode(snap); ok {
		s.cache.save(ctx, upsertRecord(sets, set))
	}

	id, err := s.sets.Create(ctx, set.Metadata())
	if err != nil {
		s.rollback(ctx, snap, "SetCollection.Create", set.ID, err)
		return "", err
	}
	if err = s.items.BatchWrite(ctx, items, nil); err != nil {
		s.rollback(ctx, snap, "SetCollection.Create", set.ID, err)
		return "", err
	}

	s.audit.Record(models.AuditActionCreate, s.sets.Name(), id, map[string]any{"items": len(items)})
	return id, nil
}

// Update merges fields into the set. When fields carries [FieldItems], the
// new list replaces the known items: every listed item is written and every
// known item missing from the list is soft-deleted, in one batch. The set's
// updatedAt is bumped so other clients refetch its items.
func (s *SetCollection) Update(ctx context.Context, id string, fields models.Fields) error {
	snap := s.cache.snapshot(ctx)
	sets, cached := s.cache.decode(snap)

	now := s.clock.Now().UnixMilli()
	meta := fields.Without(FieldItems, fieldItemsState)
	if _, ok := meta[models.FieldUpdatedAt]; !ok {
		meta[models.FieldUpdatedAt] = now
	}

	rawItems, hasItems := fields[FieldItems]
	var (
		items   []models.Item
		removed []string
	)
	if hasItems {
		decoded, err := decodeItems(rawItems)
		if err != nil {
			return err
		}
		items = s.prepareItems(id, decoded, now)
		if i := indexOf(sets, id); i >= 0 {
			removed = missingItems(sets[i].Items, items)
		}
	}

	optimistic := make([]models.Set, 0, len(sets))
	for _, set := range sets {
		if set.ID != id {
			optimistic = append(optimistic, set)
			continue
		}
		if meta.MarksDeleted() {
			continue
		}
		merged, err := models.ApplyFields(set, meta)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidFields, err)
		}
		if hasItems {
			merged = merged.WithItems(items)
		}
		optimistic = append(optimistic, merged)
	}
	if cached {
		s.cache.save(ctx, optimistic)
	}

	if err := s.sets.Update(ctx, id, meta); err != nil {
		s.rollback(ctx, snap, "SetCollection.Update", id, err)
		return err
	}
	if hasItems {
		if err := s.items.BatchWrite(ctx, items, removed); err != nil {
			s.rollback(ctx, snap, "SetCollection.Update", id, err)
			return err
		}
	}

	details := map[string]any{"fields": fieldNames(meta)}
	if hasItems {
		details["items"] = len(items)
		details["removedItems"] = len(removed)
	}
	s.audit.Record(models.AuditActionUpdate, s.sets.Name(), id, details)
	return nil
}

// Delete drops the set from the cache and soft-deletes it remotely. Its
// items are then soft-deleted best effort: a failure there is logged and the
// set stays deleted.
func (s *SetCollection) Delete(ctx context.Context, id string) error {
	snap := s.cache.snapshot(ctx)
	sets, cached := s.cache.decode(snap)

	var known []models.Item
	if i := indexOf(sets, id); i >= 0 {
		known = sets[i].Items
	}
	if cached {
		s.cache.save(ctx, removeRecord(sets, id))
	}

	if err := s.sets.SoftDelete(ctx, id); err != nil {
		s.rollback(ctx, snap, "SetCollection.Delete", id, err)
		return err
	}

	s.audit.Record(models.AuditActionDelete, s.sets.Name(), id, nil)
	s.deleteItems(ctx, id, known)
	return nil
}

// Refresh implements [Refresher] by running one delta sync cycle.
func (s *SetCollection) Refresh(ctx context.Context) error {
	cached, _ := s.cache.load(ctx)

	_, err := s.deltaSync(ctx, cached)
	if err == nil {
		return nil
	}

	s.logFetchError(err, "SetCollection.Refresh")
	if errors.Is(err, remote.ErrUnavailable) {
		return nil
	}
	return err
}

// Stats returns the fetch plan of the last completed delta sync.
func (s *SetCollection) Stats() SyncStats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	out := s.stats
	out.Refetched = slices.Clone(s.stats.Refetched)
	return out
}

// Wait blocks until every background sync and subscription started so far
// has finished.
func (s *SetCollection) Wait() {
	s.pending.Wait()
}

// deltaSync fetches set metadata, refetches the items of stale or
// unpopulated sets, merges, caches and returns the result.
func (s *SetCollection) deltaSync(ctx context.Context, cached []models.Set) ([]models.Set, error) {
	network, err := s.sets.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[string]models.Set, len(cached))
	for _, set := range cached {
		known[set.ID] = set
	}

	refetch := make([]string, 0)
	for _, set := range network {
		old, ok := known[set.ID]
		if !ok || set.UpdatedAt > old.UpdatedAt || !old.Populated() {
			refetch = append(refetch, set.ID)
		}
	}

	fetched, stats, err := s.fetchItems(ctx, refetch)
	if err != nil {
		return nil, err
	}

	merged := make([]models.Set, 0, len(network))
	for _, set := range network {
		if items, ok := fetched[set.ID]; ok {
			merged = append(merged, set.WithItems(items))
			continue
		}
		old := known[set.ID]
		set.Items = old.Items
		set.ItemsState = old.ItemsState
		merged = append(merged, set)
	}

	s.cache.save(ctx, merged)

	s.statsMu.Lock()
	s.stats = stats
	s.statsMu.Unlock()

	return merged, nil
}

// fetchItems fetches the items of the given sets: with one call for every
// item when there are more sets than the threshold, otherwise with one query
// per set in parallel.
func (s *SetCollection) fetchItems(ctx context.Context, setIDs []string) (map[string][]models.Item, SyncStats, error) {
	stats := SyncStats{Refetched: setIDs}
	fetched := make(map[string][]models.Item, len(setIDs))
	if len(setIDs) == 0 {
		return fetched, stats, nil
	}

	if len(setIDs) > s.threshold {
		all, err := s.items.FetchAll(ctx)
		if err != nil {
			return nil, stats, err
		}
		grouped := models.GroupItemsBySet(all)
		for _, id := range setIDs {
			fetched[id] = grouped[id]
		}
		stats.Batched = true
		return fetched, stats, nil
	}

	results := make([][]models.Item, len(setIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range setIDs {
		g.Go(func() error {
			items, err := s.items.FetchByField(gctx, fieldSetID, id)
			if err != nil {
				return err
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	for i, id := range setIDs {
		fetched[id] = results[i]
	}
	stats.Queries = len(setIDs)
	return fetched, stats, nil
}

// fetchCold fetches every set and every item.
func (s *SetCollection) fetchCold(ctx context.Context) ([]models.Set, error) {
	sets, err := s.sets.FetchAll(ctx)
	if err != nil {
		s.logFetchError(err, "SetCollection.GetAll")
		return nil, err
	}
	items, err := s.items.FetchAll(ctx)
	if err != nil {
		s.logFetchError(err, "SetCollection.GetAll")
		return nil, err
	}

	grouped := models.GroupItemsBySet(items)
	out := make([]models.Set, 0, len(sets))
	for _, set := range sets {
		out = append(out, set.WithItems(grouped[set.ID]))
	}
	return out, nil
}

// deleteItems soft-deletes the set's items as listed remotely. Only when
// that listing fails does it fall back to the cached items, some of which may
// no longer exist remotely.
func (s *SetCollection) deleteItems(ctx context.Context, setID string, known []models.Item) {
	targets, err := s.items.FetchByField(ctx, fieldSetID, setID)
	if err != nil {
		s.logger.Warn().Err(err).Str("func", "SetCollection.deleteItems").Str("id", setID).Msg("could not list items, deleting cached ones only")
		targets = known
	}
	if len(targets) == 0 {
		return
	}

	ids := make([]string, 0, len(targets))
	for _, it := range targets {
		ids = append(ids, it.ID)
	}

	if err = s.items.BatchWrite(ctx, nil, ids); err != nil {
		s.logger.Err(err).Str("func", "SetCollection.deleteItems").Str("id", setID).Int("items", len(ids)).Msg("item cleanup failed")
	}
}

// prepareItems tags items with setID and fills missing ids and creation
// times.
func (s *SetCollection) prepareItems(setID string, items []models.Item, now int64) []models.Item {
	out := make([]models.Item, 0, len(items))
	for i, it := range items {
		it.SetID = setID
		it.ID = s.ids.Fill(it.ID)
		if it.CreatedAt == 0 {
			it.CreatedAt = now + int64(i)
		}
		out = append(out, it)
	}
	return out
}

func (s *SetCollection) refreshInBackground(ctx context.Context) {
	bg := context.WithoutCancel(ctx)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		_ = s.Refresh(bg)
	}()
}

func (s *SetCollection) reload(ctx context.Context, fallback []models.Set) []models.Set {
	if sets, ok := s.cache.load(ctx); ok {
		return sets
	}
	return fallback
}

func (s *SetCollection) rollback(ctx context.Context, snap cacheSnapshot, fn, id string, err error) {
	s.cache.restore(ctx, snap)
	s.logger.Warn().Err(err).Str("func", fn).Str("id", id).Msg("remote write failed, cache restored")
}

func (s *SetCollection) logFetchError(err error, fn string) {
	if errors.Is(err, remote.ErrUnavailable) {
		s.logger.Debug().Err(err).Str("func", fn).Msg("remote unavailable, keeping cached view")
		return
	}
	s.logger.Err(err).Str("func", fn).Msg("delta sync failed")
}

// missingItems returns the ids of known items absent from next.
func missingItems(known, next []models.Item) []string {
	keep := make(map[string]struct{}, len(next))
	for _, it := range next {
		keep[it.ID] = struct{}{}
	}

	out := make([]string, 0)
	for _, it := range known {
		if _, ok := keep[it.ID]; !ok {
			out = append(out, it.ID)
		}
	}
	return out
}

// decodeItems accepts a typed item list or its generic JSON form.
func decodeItems(v any) ([]models.Item, error) {
	switch items := v.(type) {
	case []models.Item:
		return items, nil
	case nil:
		return []models.Item{}, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidItems, err)
	}
	var items []models.Item
	if err = json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidItems, err)
	}
	return items, nil
}
