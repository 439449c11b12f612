// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the narrow contract the client uses to talk to the
// remote document store.
//
// The primary abstraction is [DocumentStore]: keyed documents grouped in
// named collections, with get, list, set, merge, delete, equality query and
// batched writes. The package ships an HTTP/REST implementation
// ([NewHTTPDocumentStore]) and an in-memory one ([NewMemoryDocumentStore]);
// a PostgreSQL implementation lives in the store package.
//
// Failures are reported as [*StoreError] values carrying a code from the
// store's error vocabulary. The most common classes also match the sentinels
// [ErrUnavailable], [ErrPermissionDenied] and [ErrNotFound] through
// [errors.Is], so callers never need to inspect transport details.
package adapter

import (
	"context"
	"encoding/json"

	"github.com/MKhiriev/go-study-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/document_store_mock.go -package=mock

// DocumentStore defines transport-agnostic access to a remote document
// store. Documents are raw JSON objects addressed by (collection, id).
type DocumentStore interface {
	// Get returns the document stored at id. Returns [ErrNotFound] (wrapped)
	// when no such document exists.
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)

	// List returns every document of the collection, soft-deleted ones
	// included. Filtering is the caller's concern.
	List(ctx context.Context, collection string) ([]json.RawMessage, error)

	// Set writes doc at id, replacing any existing document.
	Set(ctx context.Context, collection, id string, doc json.RawMessage) error

	// Merge overlays fields onto the existing document at id. Returns
	// [ErrNotFound] (wrapped) when the document does not exist.
	Merge(ctx context.Context, collection, id string, fields models.Fields) error

	// Delete physically removes the document. The sync layer never calls it
	// for records; it exists for maintenance tooling.
	Delete(ctx context.Context, collection, id string) error

	// Query returns the documents whose top-level field equals value.
	Query(ctx context.Context, collection, field string, value any) ([]json.RawMessage, error)

	// Batch applies all writes atomically: either every write lands or none.
	Batch(ctx context.Context, writes []Write) error
}

// WriteOp selects how a [Write] is applied.
type WriteOp string

const (
	// WriteSet replaces the document with Doc.
	WriteSet WriteOp = "set"
	// WriteMerge overlays Fields onto the existing document.
	WriteMerge WriteOp = "merge"
)

// Write is one operation of a [DocumentStore.Batch] call.
type Write struct {
	Op         WriteOp         `json:"op"`
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	Doc        json.RawMessage `json:"doc,omitempty"`
	Fields     models.Fields   `json:"fields,omitempty"`
}

// SetWrite builds a [WriteSet] operation.
func SetWrite(collection, id string, doc json.RawMessage) Write {
	return Write{Op: WriteSet, Collection: collection, ID: id, Doc: doc}
}

// MergeWrite builds a [WriteMerge] operation.
func MergeWrite(collection, id string, fields models.Fields) Write {
	return Write{Op: WriteMerge, Collection: collection, ID: id, Fields: fields}
}
