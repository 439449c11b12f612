package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/MKhiriev/go-study-sync/models"
)

// MemoryDocumentStore is an in-memory, goroutine-safe [DocumentStore]. It
// backs the "memory" adapter mode for offline development and is the remote
// used by service-level tests.
//
// Documents keep their insertion order so List results are deterministic.
// Faults can be injected with FailWith to simulate an unreachable or
// forbidding backend.
type MemoryDocumentStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
	fail        error
	failOps     map[string]error
	calls       map[string]int
}

type memoryCollection struct {
	order []string
	docs  map[string]json.RawMessage
}

// NewMemoryDocumentStore returns an empty store.
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{
		collections: make(map[string]*memoryCollection),
		failOps:     make(map[string]error),
		calls:       make(map[string]int),
	}
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (m *MemoryDocumentStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

// FailOn makes every subsequent call of op return err, leaving the other
// operations working. Pass nil to recover.
func (m *MemoryDocumentStore) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failOps, op)
		return
	}
	m.failOps[op] = err
}

// Calls returns how many times op ("get", "list", "set", "merge", "delete",
// "query", "batch") was invoked, failed calls included.
func (m *MemoryDocumentStore) Calls(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[op]
}

// ResetCalls zeroes the call counters.
func (m *MemoryDocumentStore) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make(map[string]int)
}

// Get implements [DocumentStore].
func (m *MemoryDocumentStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "get"); err != nil {
		return nil, err
	}

	doc, ok := m.collection(collection).docs[id]
	if !ok {
		return nil, NewStoreError(CodeNotFound, fmt.Sprintf("%s/%s", collection, id), nil)
	}
	return clone(doc), nil
}

// List implements [DocumentStore].
func (m *MemoryDocumentStore) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "list"); err != nil {
		return nil, err
	}

	c := m.collection(collection)
	out := make([]json.RawMessage, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, clone(c.docs[id]))
	}
	return out, nil
}

// Set implements [DocumentStore].
func (m *MemoryDocumentStore) Set(ctx context.Context, collection, id string, doc json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "set"); err != nil {
		return err
	}
	if !json.Valid(doc) {
		return NewStoreError(CodeInvalidArgument, "document is not valid JSON", ErrInvalidWrite)
	}

	m.collection(collection).put(id, clone(doc))
	return nil
}

// Merge implements [DocumentStore].
func (m *MemoryDocumentStore) Merge(ctx context.Context, collection, id string, fields models.Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "merge"); err != nil {
		return err
	}

	merged, err := m.merged(collection, id, fields)
	if err != nil {
		return err
	}
	m.collection(collection).put(id, merged)
	return nil
}

// Delete implements [DocumentStore].
func (m *MemoryDocumentStore) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "delete"); err != nil {
		return err
	}

	c := m.collection(collection)
	if _, ok := c.docs[id]; !ok {
		return NewStoreError(CodeNotFound, fmt.Sprintf("%s/%s", collection, id), nil)
	}
	delete(c.docs, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Query implements [DocumentStore]. Values are compared by their JSON
// encoding, so 3 and 3.0 match but "3" and 3 do not.
func (m *MemoryDocumentStore) Query(ctx context.Context, collection, field string, value any) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "query"); err != nil {
		return nil, err
	}

	want, err := canonical(value)
	if err != nil {
		return nil, NewStoreError(CodeInvalidArgument, "query value is not JSON-encodable", err)
	}

	c := m.collection(collection)
	out := make([]json.RawMessage, 0)
	for _, id := range c.order {
		var doc map[string]any
		if err = json.Unmarshal(c.docs[id], &doc); err != nil {
			continue
		}
		v, ok := doc[field]
		if !ok {
			continue
		}
		got, err := canonical(v)
		if err == nil && bytes.Equal(got, want) {
			out = append(out, clone(c.docs[id]))
		}
	}
	return out, nil
}

// Batch implements [DocumentStore]. All writes are validated before any is
// applied.
func (m *MemoryDocumentStore) Batch(ctx context.Context, writes []Write) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "batch"); err != nil {
		return err
	}

	type staged struct {
		collection, id string
		doc            json.RawMessage
	}
	pending := make([]staged, 0, len(writes))
	// later writes in the same batch see earlier ones
	overlay := make(map[string]json.RawMessage)

	for i, w := range writes {
		if w.Collection == "" || w.ID == "" {
			return NewStoreError(CodeInvalidArgument, fmt.Sprintf("write %d has no collection or id", i), ErrInvalidWrite)
		}
		key := w.Collection + "/" + w.ID

		switch w.Op {
		case WriteSet:
			if !json.Valid(w.Doc) {
				return NewStoreError(CodeInvalidArgument, fmt.Sprintf("write %d: document is not valid JSON", i), ErrInvalidWrite)
			}
			overlay[key] = clone(w.Doc)
		case WriteMerge:
			base, ok := overlay[key]
			if !ok {
				existing, found := m.collection(w.Collection).docs[w.ID]
				if !found {
					return NewStoreError(CodeNotFound, key, nil)
				}
				base = existing
			}
			merged, err := overlayFields(base, w.Fields)
			if err != nil {
				return NewStoreError(CodeInvalidArgument, fmt.Sprintf("write %d", i), err)
			}
			overlay[key] = merged
		default:
			return NewStoreError(CodeInvalidArgument, fmt.Sprintf("write %d: unknown op %q", i, w.Op), ErrInvalidWrite)
		}
		pending = append(pending, staged{collection: w.Collection, id: w.ID, doc: overlay[key]})
	}

	for _, p := range pending {
		m.collection(p.collection).put(p.id, p.doc)
	}
	return nil
}

func (m *MemoryDocumentStore) enter(ctx context.Context, op string) error {
	m.calls[op]++
	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := m.failOps[op]; ok {
		return err
	}
	return m.fail
}

func (m *MemoryDocumentStore) collection(name string) *memoryCollection {
	c, ok := m.collections[name]
	if !ok {
		c = &memoryCollection{docs: make(map[string]json.RawMessage)}
		m.collections[name] = c
	}
	return c
}

func (m *MemoryDocumentStore) merged(collection, id string, fields models.Fields) (json.RawMessage, error) {
	existing, ok := m.collection(collection).docs[id]
	if !ok {
		return nil, NewStoreError(CodeNotFound, fmt.Sprintf("%s/%s", collection, id), nil)
	}
	merged, err := overlayFields(existing, fields)
	if err != nil {
		return nil, NewStoreError(CodeInvalidArgument, "merge fields", err)
	}
	return merged, nil
}

func (c *memoryCollection) put(id string, doc json.RawMessage) {
	if _, ok := c.docs[id]; !ok {
		c.order = append(c.order, id)
	}
	c.docs[id] = doc
}

func overlayFields(doc json.RawMessage, fields models.Fields) (json.RawMessage, error) {
	obj := make(map[string]any)
	if err := json.Unmarshal(doc, &obj); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	for k, v := range fields {
		obj[k] = v
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return out, nil
}

func canonical(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err = json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

func clone(doc json.RawMessage) json.RawMessage {
	if doc == nil {
		return nil
	}
	out := make(json.RawMessage, len(doc))
	copy(out, doc)
	return out
}
