// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package remote scopes a [adapter.DocumentStore] to one logical collection
// of typed records.
//
// A [Collection] hides soft-deleted records from every read and classifies
// store failures into three outcomes:
//   - transient-unavailable failures (offline, unreachable backend, missing
//     permission) mean "no data right now": lenient reads return an empty
//     list or an absent record, writes return [ErrOperationBlocked];
//   - every other failure is logged and returned wrapped in
//     [ErrRemoteFailure];
//   - not-found on a by-id read is simply an absent record.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-study-sync/internal/adapter"
	"github.com/MKhiriev/go-study-sync/internal/logger"
	"github.com/MKhiriev/go-study-sync/internal/utils"
	"github.com/MKhiriev/go-study-sync/models"
	"github.com/jonboulle/clockwork"
)

// Collection is a typed view of one remote collection.
type Collection[T models.Record] struct {
	store adapter.DocumentStore
	name  string

	ids    *utils.UUIDGenerator
	clock  clockwork.Clock
	logger *logger.Logger
}

// NewCollection returns a Collection over the documents stored under name.
// clock stamps soft deletes.
func NewCollection[T models.Record](store adapter.DocumentStore, name string, clock clockwork.Clock, logger *logger.Logger) *Collection[T] {
	return &Collection[T]{
		store:  store,
		name:   name,
		ids:    utils.NewUUIDGenerator(),
		clock:  clock,
		logger: logger.WithComponent("remote/" + name),
	}
}

// Name returns the remote collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// GetAll returns every live record. A transient-unavailable failure yields an
// empty list and no error.
func (c *Collection[T]) GetAll(ctx context.Context) ([]T, error) {
	recs, err := c.FetchAll(ctx)
	return lenientList(recs, err)
}

// FetchAll is GetAll without the leniency: a transient-unavailable failure
// is returned as [ErrUnavailable].
func (c *Collection[T]) FetchAll(ctx context.Context) ([]T, error) {
	docs, err := c.store.List(ctx, c.name)
	if err != nil {
		return nil, c.readFailure("Collection.FetchAll", "list "+c.name, err)
	}
	return c.decodeLive(docs)
}

// GetByID returns the record stored at id. The record is absent when it does
// not exist, is soft-deleted, or the store is transiently unavailable.
func (c *Collection[T]) GetByID(ctx context.Context, id string) (T, bool, error) {
	rec, ok, err := c.FetchByID(ctx, id)
	if errors.Is(err, ErrUnavailable) {
		var zero T
		return zero, false, nil
	}
	return rec, ok, err
}

// FetchByID is GetByID returning [ErrUnavailable] for transient failures.
func (c *Collection[T]) FetchByID(ctx context.Context, id string) (T, bool, error) {
	var zero T

	doc, err := c.store.Get(ctx, c.name, id)
	if errors.Is(err, adapter.ErrNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, c.readFailure("Collection.FetchByID", fmt.Sprintf("get %s/%s", c.name, id), err)
	}

	rec, ok, err := c.decode(doc)
	if err != nil || !ok || rec.IsDeleted() {
		return zero, false, err
	}
	return rec, true, nil
}

// QueryByField returns the live records whose field equals value, with the
// same leniency as GetAll.
func (c *Collection[T]) QueryByField(ctx context.Context, field string, value any) ([]T, error) {
	recs, err := c.FetchByField(ctx, field, value)
	return lenientList(recs, err)
}

// FetchByField is QueryByField returning [ErrUnavailable] for transient
// failures.
func (c *Collection[T]) FetchByField(ctx context.Context, field string, value any) ([]T, error) {
	docs, err := c.store.Query(ctx, c.name, field, value)
	if err != nil {
		return nil, c.readFailure("Collection.FetchByField", fmt.Sprintf("query %s by %s", c.name, field), err)
	}
	return c.decodeLive(docs)
}

// Create writes the full record at its own id and returns that id. A record
// without an id gets a generated one.
func (c *Collection[T]) Create(ctx context.Context, rec T) (string, error) {
	rec, err := WithID(rec, c.ids)
	if err != nil {
		return "", fmt.Errorf("%w: assign id: %w", ErrRemoteFailure, err)
	}
	id := rec.GetID()

	doc, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("%w: encode %s/%s: %w", ErrRemoteFailure, c.name, id, err)
	}

	if err = c.store.Set(ctx, c.name, id, doc); err != nil {
		return "", c.writeFailure("Collection.Create", fmt.Sprintf("create %s/%s", c.name, id), err)
	}
	return id, nil
}

// Update merges fields into the existing remote record.
func (c *Collection[T]) Update(ctx context.Context, id string, fields models.Fields) error {
	if err := c.store.Merge(ctx, c.name, id, fields); err != nil {
		return c.writeFailure("Collection.Update", fmt.Sprintf("update %s/%s", c.name, id), err)
	}
	return nil
}

// SoftDelete marks the record deleted now. Records are never removed
// physically.
func (c *Collection[T]) SoftDelete(ctx context.Context, id string) error {
	if err := c.store.Merge(ctx, c.name, id, c.deletedFields()); err != nil {
		return c.writeFailure("Collection.SoftDelete", fmt.Sprintf("soft delete %s/%s", c.name, id), err)
	}
	return nil
}

// BatchWrite writes every upsert in full and soft-deletes every id in
// softDeletes, all in one atomic remote write. Upserts without an id get a
// generated one.
func (c *Collection[T]) BatchWrite(ctx context.Context, upserts []T, softDeletes []string) error {
	if len(upserts) == 0 && len(softDeletes) == 0 {
		return nil
	}

	writes := make([]adapter.Write, 0, len(upserts)+len(softDeletes))
	for _, rec := range upserts {
		rec, err := WithID(rec, c.ids)
		if err != nil {
			return fmt.Errorf("%w: assign id: %w", ErrRemoteFailure, err)
		}
		doc, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("%w: encode %s/%s: %w", ErrRemoteFailure, c.name, rec.GetID(), err)
		}
		writes = append(writes, adapter.SetWrite(c.name, rec.GetID(), doc))
	}

	deleted := c.deletedFields()
	for _, id := range softDeletes {
		writes = append(writes, adapter.MergeWrite(c.name, id, deleted))
	}

	if err := c.store.Batch(ctx, writes); err != nil {
		return c.writeFailure("Collection.BatchWrite", fmt.Sprintf("batch write %s (%d writes)", c.name, len(writes)), err)
	}
	return nil
}

// WithID returns rec unchanged when it has an id, otherwise a copy carrying a
// freshly generated one.
func WithID[T models.Record](rec T, ids *utils.UUIDGenerator) (T, error) {
	if rec.GetID() != "" {
		return rec, nil
	}
	return models.ApplyFields(rec, models.Fields{models.FieldID: ids.Generate()})
}

func (c *Collection[T]) deletedFields() models.Fields {
	return models.Fields{
		models.FieldIsDeleted: true,
		models.FieldDeletedAt: c.clock.Now().UnixMilli(),
	}
}

func (c *Collection[T]) readFailure(fn, op string, err error) error {
	if IsUnavailable(err) {
		c.logger.Warn().Err(err).Str("func", fn).Msg("remote unavailable, no data")
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
	}

	c.logger.Err(err).Str("func", fn).Msg("remote read failed")
	return fmt.Errorf("%w: %s: %w", ErrRemoteFailure, op, err)
}

func (c *Collection[T]) writeFailure(fn, op string, err error) error {
	if IsUnavailable(err) {
		c.logger.Warn().Err(err).Str("func", fn).Msg("remote write blocked")
		return fmt.Errorf("%w: %s: %w", ErrOperationBlocked, op, err)
	}

	c.logger.Err(err).Str("func", fn).Msg("remote write failed")
	return fmt.Errorf("%w: %s: %w", ErrRemoteFailure, op, err)
}

func (c *Collection[T]) decodeLive(docs []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		rec, ok, err := c.decode(doc)
		if err != nil {
			return nil, err
		}
		if ok && !rec.IsDeleted() {
			out = append(out, rec)
		}
	}
	return out, nil
}

// decode reports false for records without an id.
func (c *Collection[T]) decode(doc json.RawMessage) (T, bool, error) {
	var rec T
	if err := json.Unmarshal(doc, &rec); err != nil {
		c.logger.Err(err).Str("func", "Collection.decode").Msg("undecodable remote document")
		return rec, false, fmt.Errorf("%w: %w: %s: %w", ErrRemoteFailure, ErrDecodeRecord, c.name, err)
	}
	if rec.GetID() == "" {
		c.logger.Warn().Str("func", "Collection.decode").Msg("dropping remote document without id")
		return rec, false, nil
	}
	return rec, true, nil
}

func lenientList[T any](recs []T, err error) ([]T, error) {
	if errors.Is(err, ErrUnavailable) {
		return []T{}, nil
	}
	return recs, err
}
