package store

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

const (
	cacheTable     = "cache_entries"
	auditTable     = "audit_log"
	documentsTable = "documents"
)

var (
	// sqlite uses positional "?" placeholders
	sqliteBuilder = sq.StatementBuilder.PlaceholderFormat(sq.Question)
	// postgres uses numbered "$n" placeholders
	postgresBuilder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
)

func buildGetCacheEntryQuery(key string) (string, []any, error) {
	return wrapBuild(sqliteBuilder.
		Select("data", "updated_at").
		From(cacheTable).
		Where(sq.Eq{"cache_key": key}).
		ToSql())
}

func buildPutCacheEntryQuery(key string, data []byte, size int, updatedAt int64) (string, []any, error) {
	return wrapBuild(sqliteBuilder.
		Insert(cacheTable).
		Columns("cache_key", "data", "data_size", "updated_at").
		Values(key, data, size, updatedAt).
		Suffix("ON CONFLICT (cache_key) DO UPDATE SET data = excluded.data, data_size = excluded.data_size, updated_at = excluded.updated_at").
		ToSql())
}

func buildDeleteCacheEntryQuery(key string) (string, []any, error) {
	return wrapBuild(sqliteBuilder.
		Delete(cacheTable).
		Where(sq.Eq{"cache_key": key}).
		ToSql())
}

func buildPruneCacheQuery(cutoff int64) (string, []any, error) {
	return wrapBuild(sqliteBuilder.
		Delete(cacheTable).
		Where(sq.Lt{"updated_at": cutoff}).
		ToSql())
}

func buildListCacheKeysQuery() (string, []any, error) {
	return wrapBuild(sqliteBuilder.
		Select("cache_key", "data_size", "updated_at").
		From(cacheTable).
		OrderBy("cache_key").
		ToSql())
}

func buildInsertAuditQuery(action, entityType, entityID string, details any, at int64) (string, []any, error) {
	return wrapBuild(sqliteBuilder.
		Insert(auditTable).
		Columns("action", "entity_type", "entity_id", "details", "created_at").
		Values(action, entityType, entityID, details, at).
		ToSql())
}

func buildListAuditQuery(limit int) (string, []any, error) {
	q := sqliteBuilder.
		Select("id", "action", "entity_type", "entity_id", "details", "created_at").
		From(auditTable).
		OrderBy("id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return wrapBuild(q.ToSql())
}

func buildGetDocumentQuery(collection, id string) (string, []any, error) {
	return wrapBuild(postgresBuilder.
		Select("body").
		From(documentsTable).
		Where(sq.Eq{"collection": collection, "id": id}).
		ToSql())
}

func buildListDocumentsQuery(collection string) (string, []any, error) {
	return wrapBuild(postgresBuilder.
		Select("body").
		From(documentsTable).
		Where(sq.Eq{"collection": collection}).
		OrderBy("seq").
		ToSql())
}

func buildQueryDocumentsQuery(collection, field string, value []byte) (string, []any, error) {
	return wrapBuild(postgresBuilder.
		Select("body").
		From(documentsTable).
		Where(sq.Eq{"collection": collection}).
		Where(sq.Expr("body -> ? = ?::jsonb", field, string(value))).
		OrderBy("seq").
		ToSql())
}

func buildSetDocumentQuery(collection, id string, body []byte) (string, []any, error) {
	return wrapBuild(postgresBuilder.
		Insert(documentsTable).
		Columns("collection", "id", "body").
		Values(collection, id, sq.Expr("?::jsonb", string(body))).
		Suffix("ON CONFLICT (collection, id) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()").
		ToSql())
}

func buildMergeDocumentQuery(collection, id string, fields []byte) (string, []any, error) {
	return wrapBuild(postgresBuilder.
		Update(documentsTable).
		Set("body", sq.Expr("body || ?::jsonb", string(fields))).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"collection": collection, "id": id}).
		ToSql())
}

func buildDeleteDocumentQuery(collection, id string) (string, []any, error) {
	return wrapBuild(postgresBuilder.
		Delete(documentsTable).
		Where(sq.Eq{"collection": collection, "id": id}).
		ToSql())
}

func wrapBuild(query string, args []any, err error) (string, []any, error) {
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}
