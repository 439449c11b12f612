// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-study-sync/internal/adapter"
	"github.com/MKhiriev/go-study-sync/internal/logger"
	"github.com/MKhiriev/go-study-sync/models"
)

// postgresDocumentStore is an [adapter.DocumentStore] over the documents
// table: one JSONB body per (collection, id), listed in insertion order.
//
// Driver failures are translated to [*adapter.StoreError] so the sync layer
// classifies them exactly like REST failures.
type postgresDocumentStore struct {
	*DB
	logger *logger.Logger
}

// NewPostgresDocumentStore constructs a document store over db. The schema
// must already be migrated with [DB.Migrate].
func NewPostgresDocumentStore(db *DB, logger *logger.Logger) adapter.DocumentStore {
	if db.errorClassificator == nil {
		db.errorClassificator = NewPostgresErrorClassifier()
	}
	return &postgresDocumentStore{
		DB:     db,
		logger: logger.WithComponent("postgres_document_store"),
	}
}

func (p *postgresDocumentStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	query, args, err := buildGetDocumentQuery(collection, id)
	if err != nil {
		return nil, err
	}

	var body []byte
	err = p.DB.QueryRowContext(ctx, query, args...).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, adapter.NewStoreError(adapter.CodeNotFound, fmt.Sprintf("%s/%s", collection, id), nil)
	}
	if err != nil {
		return nil, p.fail(ctx, "postgresDocumentStore.Get", "get document", err)
	}

	return body, nil
}

func (p *postgresDocumentStore) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	query, args, err := buildListDocumentsQuery(collection)
	if err != nil {
		return nil, err
	}
	return p.queryBodies(ctx, "postgresDocumentStore.List", query, args)
}

func (p *postgresDocumentStore) Query(ctx context.Context, collection, field string, value any) ([]json.RawMessage, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, adapter.NewStoreError(adapter.CodeInvalidArgument, "query value is not JSON-encodable", err)
	}

	query, args, err := buildQueryDocumentsQuery(collection, field, encoded)
	if err != nil {
		return nil, err
	}
	return p.queryBodies(ctx, "postgresDocumentStore.Query", query, args)
}

func (p *postgresDocumentStore) Set(ctx context.Context, collection, id string, doc json.RawMessage) error {
	if !json.Valid(doc) {
		return adapter.NewStoreError(adapter.CodeInvalidArgument, "document is not valid JSON", adapter.ErrInvalidWrite)
	}

	query, args, err := buildSetDocumentQuery(collection, id, doc)
	if err != nil {
		return err
	}

	if _, err = p.DB.ExecContext(ctx, query, args...); err != nil {
		return p.fail(ctx, "postgresDocumentStore.Set", "set document", err)
	}
	return nil
}

func (p *postgresDocumentStore) Merge(ctx context.Context, collection, id string, fields models.Fields) error {
	return p.merge(ctx, p.DB.DB, collection, id, fields)
}

func (p *postgresDocumentStore) Delete(ctx context.Context, collection, id string) error {
	query, args, err := buildDeleteDocumentQuery(collection, id)
	if err != nil {
		return err
	}

	res, err := p.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return p.fail(ctx, "postgresDocumentStore.Delete", "delete document", err)
	}
	return requireAffected(res, collection, id)
}

// Batch applies writes inside one transaction.
func (p *postgresDocumentStore) Batch(ctx context.Context, writes []adapter.Write) (err error) {
	if len(writes) == 0 {
		return nil
	}

	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return p.fail(ctx, "postgresDocumentStore.Batch", "begin batch", fmt.Errorf("%w: %w", ErrBeginningTransaction, err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, w := range writes {
		switch w.Op {
		case adapter.WriteSet:
			if !json.Valid(w.Doc) {
				return adapter.NewStoreError(adapter.CodeInvalidArgument, fmt.Sprintf("write %d: document is not valid JSON", i), adapter.ErrInvalidWrite)
			}
			query, args, buildErr := buildSetDocumentQuery(w.Collection, w.ID, w.Doc)
			if buildErr != nil {
				return buildErr
			}
			if _, err = tx.ExecContext(ctx, query, args...); err != nil {
				return p.fail(ctx, "postgresDocumentStore.Batch", fmt.Sprintf("batch write %d", i), err)
			}
		case adapter.WriteMerge:
			if err = p.merge(ctx, tx, w.Collection, w.ID, w.Fields); err != nil {
				return err
			}
		default:
			return adapter.NewStoreError(adapter.CodeInvalidArgument, fmt.Sprintf("write %d: unknown op %q", i, w.Op), adapter.ErrInvalidWrite)
		}
	}

	if err = tx.Commit(); err != nil {
		return p.fail(ctx, "postgresDocumentStore.Batch", "commit batch", fmt.Errorf("%w: %w", ErrCommitingTransaction, err))
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (p *postgresDocumentStore) merge(ctx context.Context, ex execer, collection, id string, fields models.Fields) error {
	encoded, err := json.Marshal(fields)
	if err != nil {
		return adapter.NewStoreError(adapter.CodeInvalidArgument, "merge fields are not JSON-encodable", err)
	}

	query, args, err := buildMergeDocumentQuery(collection, id, encoded)
	if err != nil {
		return err
	}

	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return p.fail(ctx, "postgresDocumentStore.merge", "merge document", err)
	}
	return requireAffected(res, collection, id)
}

func (p *postgresDocumentStore) queryBodies(ctx context.Context, fn, query string, args []any) ([]json.RawMessage, error) {
	rows, err := p.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, p.fail(ctx, fn, "query documents", err)
	}
	defer rows.Close()

	docs := make([]json.RawMessage, 0)
	for rows.Next() {
		var body []byte
		if err = rows.Scan(&body); err != nil {
			return nil, p.fail(ctx, fn, "scan document", fmt.Errorf("%w: %w", ErrScanningRows, err))
		}
		docs = append(docs, body)
	}
	if err = rows.Err(); err != nil {
		return nil, p.fail(ctx, fn, "iterate documents", err)
	}

	return docs, nil
}

// fail logs err and converts it. Cancellation of the caller's own context is
// passed through unclassified.
func (p *postgresDocumentStore) fail(ctx context.Context, fn, op string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	p.logger.Debug().Err(err).Str("func", fn).Str("pg_code", postgresError(err)).Msg("document store operation failed")
	return toStoreError(p.errorClassificator, op, err)
}

func requireAffected(res sql.Result, collection, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return adapter.NewStoreError(adapter.CodeInternal, "rows affected", err)
	}
	if n == 0 {
		return adapter.NewStoreError(adapter.CodeNotFound, fmt.Sprintf("%s/%s", collection, id), nil)
	}
	return nil
}
