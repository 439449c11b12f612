// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"

	"github.com/MKhiriev/go-study-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// LocalCache is a durable key/value store of named, timestamped blobs with
// age-based pruning.
//
// Every method is fail-open: storage faults are logged and degrade to an
// absent result or a no-op. The cache accelerates reads; it is never a
// system of record.
type LocalCache interface {
	// Get returns the entry stored at key, or false when there is none or it
	// cannot be read.
	Get(ctx context.Context, key string) (models.CacheEntry, bool)

	// Put replaces the entry at key with data stamped with the current time.
	Put(ctx context.Context, key string, data []byte)

	// Delete removes the entry at key.
	Delete(ctx context.Context, key string)

	// Prune removes every entry older than maxAgeDays and returns how many
	// were removed.
	Prune(ctx context.Context, maxAgeDays int) int

	// Keys lists the entries without their blobs, ordered by key.
	Keys(ctx context.Context) []models.CacheEntryInfo
}

// AuditRepository persists the append-only mutation log.
type AuditRepository interface {
	// Append stores entry and returns its assigned id.
	Append(ctx context.Context, entry models.AuditEntry) (int64, error)

	// List returns the newest entries first, at most limit of them. A
	// non-positive limit returns every entry.
	List(ctx context.Context, limit int) ([]models.AuditEntry, error)
}

// ErrorClassificator decides whether a failed database operation may succeed
// when retried.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}
