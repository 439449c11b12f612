// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-study-sync/models"
)

// RemoteCollection is the remote side of a cached collection. It is
// implemented by [remote.Collection].
//
// The Get/Query methods are lenient: transient-unavailable failures yield an
// empty or absent result. The Fetch methods report them as
// [remote.ErrUnavailable] instead, so callers can tell "no data right now"
// apart from "the collection is empty".
type RemoteCollection[T models.Record] interface {
	// Name is the remote collection name, also used as the audit entity type.
	Name() string

	GetAll(ctx context.Context) ([]T, error)
	FetchAll(ctx context.Context) ([]T, error)
	GetByID(ctx context.Context, id string) (T, bool, error)
	FetchByID(ctx context.Context, id string) (T, bool, error)
	QueryByField(ctx context.Context, field string, value any) ([]T, error)
	FetchByField(ctx context.Context, field string, value any) ([]T, error)

	Create(ctx context.Context, rec T) (string, error)
	Update(ctx context.Context, id string, fields models.Fields) error
	SoftDelete(ctx context.Context, id string) error
	BatchWrite(ctx context.Context, upserts []T, softDeletes []string) error
}

// AuditSink receives one call per successful mutation. Record must not block
// and never reports failures.
type AuditSink interface {
	Record(action, entityType, entityID string, details map[string]any)
}

// Refresher is a collection that can reconcile its cache with the remote
// store in the foreground.
type Refresher interface {
	// Refresh fetches the remote state and rewrites the cache. A transiently
	// unavailable store is not an error.
	Refresh(ctx context.Context) error
}

// ClientRefreshJob periodically refreshes registered collections.
type ClientRefreshJob interface {
	// Start launches the background goroutine. It refreshes every interval,
	// defaulting to 5 minutes if interval is zero or negative. Any previously
	// running job is stopped before the new one begins.
	Start(ctx context.Context, interval time.Duration)

	// Stop signals the background goroutine to exit and blocks until it has
	// fully terminated.
	Stop()
}
