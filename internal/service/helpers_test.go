package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/MKhiriev/go-study-sync/internal/adapter"
	"github.com/MKhiriev/go-study-sync/internal/logger"
	"github.com/MKhiriev/go-study-sync/internal/remote"
	"github.com/MKhiriev/go-study-sync/internal/store"
	"github.com/MKhiriev/go-study-sync/models"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)

var (
	errOffline   = adapter.NewStoreError(adapter.CodeUnavailable, "client is offline", nil)
	errForbidden = adapter.NewStoreError(adapter.CodePermissionDenied, "missing or insufficient permissions", nil)
	errInternal  = adapter.NewStoreError(adapter.CodeInternal, "boom", nil)
)

type auditCall struct {
	action     string
	entityType string
	entityID   string
	details    map[string]any
}

// spyAudit records every call to Record.
type spyAudit struct {
	mu    sync.Mutex
	calls []auditCall
}

func (s *spyAudit) Record(action, entityType, entityID string, details map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, auditCall{action: action, entityType: entityType, entityID: entityID, details: details})
}

func (s *spyAudit) Calls() []auditCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]auditCall(nil), s.calls...)
}

type testEnv struct {
	docs  *adapter.MemoryDocumentStore
	cache store.LocalCache
	audit *spyAudit
	clock *clockwork.FakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := clockwork.NewFakeClockAt(testNow)
	return &testEnv{
		docs:  adapter.NewMemoryDocumentStore(),
		cache: store.NewMemoryCache(clock),
		audit: &spyAudit{},
		clock: clock,
	}
}

func (e *testEnv) options() []Option {
	return []Option{WithAuditSink(e.audit), WithClock(e.clock), WithLogger(logger.Nop())}
}

func (e *testEnv) lessons() *CachedCollection[models.Lesson] {
	return NewCachedCollection[models.Lesson](e.lessonsRemote(), e.cache, CacheKeyLessons, e.options()...)
}

func (e *testEnv) lessonsRemote() *remote.Collection[models.Lesson] {
	return remote.NewCollection[models.Lesson](e.docs, CollectionLessons, e.clock, logger.Nop())
}

func (e *testEnv) sets(opts ...Option) *SetCollection {
	return NewSetCollection(
		remote.NewCollection[models.Set](e.docs, CollectionSets, e.clock, logger.Nop()),
		remote.NewCollection[models.Item](e.docs, CollectionItems, e.clock, logger.Nop()),
		e.cache, CacheKeySets, append(e.options(), opts...)...,
	)
}

// seedRemote stores each record under its own id.
func (e *testEnv) seedRemote(t *testing.T, collection string, recs ...models.Record) {
	t.Helper()
	for _, rec := range recs {
		doc, err := json.Marshal(rec)
		require.NoError(t, err)
		require.NoError(t, e.docs.Set(context.Background(), collection, rec.GetID(), doc))
	}
}

// seedCache stores recs as the raw entry of key.
func (e *testEnv) seedCache(t *testing.T, key string, recs any) {
	t.Helper()
	data, err := json.Marshal(recs)
	require.NoError(t, err)
	e.cache.Put(context.Background(), key, data)
}

func (e *testEnv) cachedRaw(t *testing.T, key string) ([]byte, bool) {
	t.Helper()
	entry, ok := e.cache.Get(context.Background(), key)
	return entry.Data, ok
}

func cachedRecords[T any](t *testing.T, e *testEnv, key string) []T {
	t.Helper()
	data, ok := e.cachedRaw(t, key)
	require.True(t, ok, "cache entry %q missing", key)
	var out []T
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func remoteDoc(t *testing.T, e *testEnv, collection, id string) map[string]any {
	t.Helper()
	raw, err := e.docs.Get(context.Background(), collection, id)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	return doc
}

func ids[T models.Record](recs []T) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.GetID())
	}
	return out
}

type delivery[T any] struct {
	data   T
	source models.Source
}

// recorder collects subscription deliveries in callback order.
type recorder[T any] struct {
	mu  sync.Mutex
	got []delivery[T]
}

func (r *recorder[T]) callback(data T, source models.Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, delivery[T]{data: data, source: source})
}

func (r *recorder[T]) deliveries() []delivery[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]delivery[T](nil), r.got...)
}

func waitDone(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not finish")
	}
}
