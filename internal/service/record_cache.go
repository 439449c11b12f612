package service

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/MKhiriev/go-study-sync/internal/logger"
	"github.com/MKhiriev/go-study-sync/internal/store"
	"github.com/MKhiriev/go-study-sync/models"
)

// cacheSnapshot is the raw content of a cache entry taken before an
// optimistic write. Restoring it writes back the exact bytes, or removes the
// key when there was no entry.
type cacheSnapshot struct {
	data    []byte
	present bool
}

// recordCache stores one JSON-encoded record list under one cache key.
type recordCache[T models.Record] struct {
	cache  store.LocalCache
	key    string
	logger *logger.Logger
}

func (c recordCache[T]) snapshot(ctx context.Context) cacheSnapshot {
	entry, ok := c.cache.Get(ctx, c.key)
	return cacheSnapshot{data: entry.Data, present: ok}
}

// load returns the cached live records, or false when the key holds nothing
// usable.
func (c recordCache[T]) load(ctx context.Context) ([]T, bool) {
	return c.decode(c.snapshot(ctx))
}

func (c recordCache[T]) decode(snap cacheSnapshot) ([]T, bool) {
	if !snap.present {
		return nil, false
	}
	if snap.data == nil {
		return []T{}, true
	}

	var recs []T
	if err := json.Unmarshal(snap.data, &recs); err != nil {
		c.logger.Err(err).Str("func", "recordCache.decode").Str("key", c.key).Msg("undecodable cache entry, treating as absent")
		return nil, false
	}
	return liveRecords(recs), true
}

// save replaces the entry with the live subset of recs.
func (c recordCache[T]) save(ctx context.Context, recs []T) {
	data, err := json.Marshal(liveRecords(recs))
	if err != nil {
		c.logger.Err(err).Str("func", "recordCache.save").Str("key", c.key).Msg("failed to encode records")
		return
	}
	c.cache.Put(ctx, c.key, data)
}

func (c recordCache[T]) restore(ctx context.Context, snap cacheSnapshot) {
	if !snap.present {
		c.cache.Delete(ctx, c.key)
		return
	}
	c.cache.Put(ctx, c.key, snap.data)
}

// liveRecords drops soft-deleted records and records without an id.
func liveRecords[T models.Record](recs []T) []T {
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		if r.GetID() != "" && !r.IsDeleted() {
			out = append(out, r)
		}
	}
	return out
}

func indexOf[T models.Record](recs []T, id string) int {
	return slices.IndexFunc(recs, func(r T) bool { return r.GetID() == id })
}

// upsertRecord returns a copy of recs with rec replacing the record of the
// same id, or appended when there is none.
func upsertRecord[T models.Record](recs []T, rec T) []T {
	out := slices.Clone(recs)
	if i := indexOf(out, rec.GetID()); i >= 0 {
		out[i] = rec
		return out
	}
	return append(out, rec)
}

// removeRecord returns a copy of recs without the record of the given id.
func removeRecord[T models.Record](recs []T, id string) []T {
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		if r.GetID() != id {
			out = append(out, r)
		}
	}
	return out
}
